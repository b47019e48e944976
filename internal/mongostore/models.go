package mongostore

import (
	"time"

	"github.com/travelwallet/travelwallet/internal/model"
	"github.com/travelwallet/travelwallet/internal/money"
)

// ==================== Tour models ====================

type tourModel struct {
	ID             string         `bson:"_id"`
	OrganizerID    string         `bson:"organizer_id"`
	OrganizerBy    string         `bson:"organizer_by"`
	TourName       string         `bson:"tour_name"`
	Description    string         `bson:"description"`
	Itinerary      []string       `bson:"itinerary"`
	Duration       string         `bson:"duration"`
	MeetingPoint   string         `bson:"meeting_point"`
	Transportation string         `bson:"transportation"`
	Cost           int64          `bson:"cost"`
	StartDate      string         `bson:"start_date"`
	EndDate        string         `bson:"end_date"`
	Destination    string         `bson:"destination"`
	Friends        []friendModel  `bson:"friends"`
	Expenses       []expenseModel `bson:"expenses"`
	Version        int64          `bson:"version"`
	CreatedAt      time.Time      `bson:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at"`
}

type friendModel struct {
	Email        string `bson:"email"`
	Name         string `bson:"name,omitempty"`
	Profile      string `bson:"profile,omitempty"`
	BalanceCents int64  `bson:"balance_cents"`
}

type expenseModel struct {
	ID          string    `bson:"id"`
	Payer       string    `bson:"payer"`
	AmountCents int64     `bson:"amount_cents"`
	Details     string    `bson:"details,omitempty"`
	Email       string    `bson:"email"`
	CreatedAt   time.Time `bson:"created_at"`
}

func toTourModel(t *model.Tour) *tourModel {
	d := t.TourDetails
	return &tourModel{
		ID:             t.ID,
		OrganizerID:    d.OrganizerID,
		OrganizerBy:    d.OrganizerBy,
		TourName:       d.TourName,
		Description:    d.Description,
		Itinerary:      nonNil(d.Itinerary),
		Duration:       d.Duration,
		MeetingPoint:   d.MeetingPoint,
		Transportation: d.Transportation,
		Cost:           d.Cost,
		StartDate:      d.StartDate,
		EndDate:        d.EndDate,
		Destination:    d.Destination,
		Friends:        toFriendModels(t.Friends),
		Expenses:       toExpenseModels(t.Expenses),
		Version:        t.Version,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func fromTourModel(m *tourModel) *model.Tour {
	t := &model.Tour{
		ID: m.ID,
		TourDetails: model.TourDetails{
			OrganizerID:    m.OrganizerID,
			OrganizerBy:    m.OrganizerBy,
			TourName:       m.TourName,
			Description:    m.Description,
			Itinerary:      m.Itinerary,
			Duration:       m.Duration,
			MeetingPoint:   m.MeetingPoint,
			Transportation: m.Transportation,
			Cost:           m.Cost,
			StartDate:      m.StartDate,
			EndDate:        m.EndDate,
			Destination:    m.Destination,
		},
		Friends:   make([]model.Friend, len(m.Friends)),
		Expenses:  make([]model.Expense, len(m.Expenses)),
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	for i, f := range m.Friends {
		t.Friends[i] = model.Friend{
			Email:   f.Email,
			Name:    f.Name,
			Profile: f.Profile,
			Balance: money.Amount(f.BalanceCents),
		}
	}
	for i, e := range m.Expenses {
		t.Expenses[i] = fromExpenseModel(e)
	}
	return t
}

func toFriendModels(friends []model.Friend) []friendModel {
	out := make([]friendModel, len(friends))
	for i, f := range friends {
		out[i] = friendModel{
			Email:        f.Email,
			Name:         f.Name,
			Profile:      f.Profile,
			BalanceCents: f.Balance.Minor(),
		}
	}
	return out
}

func toExpenseModels(expenses []model.Expense) []expenseModel {
	out := make([]expenseModel, len(expenses))
	for i, e := range expenses {
		out[i] = toExpenseModel(e)
	}
	return out
}

func toExpenseModel(e model.Expense) expenseModel {
	return expenseModel{
		ID:          e.ID,
		Payer:       e.Payer,
		AmountCents: e.Amount.Minor(),
		Details:     e.Details,
		Email:       e.Email,
		CreatedAt:   e.CreatedAt,
	}
}

func fromExpenseModel(m expenseModel) model.Expense {
	return model.Expense{
		ID:        m.ID,
		Payer:     m.Payer,
		Amount:    money.Amount(m.AmountCents),
		Details:   m.Details,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// ==================== User models ====================

type userModel struct {
	ID           string    `bson:"_id"`
	UserName     string    `bson:"user_name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	Profile      string    `bson:"profile,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
}

func toUserModel(u *model.User) *userModel {
	return &userModel{
		ID:           u.ID,
		UserName:     u.UserName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Profile:      u.Profile,
		CreatedAt:    u.CreatedAt,
	}
}

func fromUserModel(m *userModel) *model.User {
	return &model.User{
		ID:           m.ID,
		UserName:     m.UserName,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Profile:      m.Profile,
		CreatedAt:    m.CreatedAt,
	}
}
