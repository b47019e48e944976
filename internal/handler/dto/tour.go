package dto

import (
	"encoding/json"

	"github.com/travelwallet/travelwallet/internal/model"
	"github.com/travelwallet/travelwallet/internal/money"
	"github.com/travelwallet/travelwallet/internal/service"
)

// TourDetailsRequest carries the replaceable tour fields.
// Cost accepts a JSON number or a numeric string.
type TourDetailsRequest struct {
	OrganizerID    string          `json:"organizerId" validate:"max=64"`
	OrganizerBy    string          `json:"organizerBy" validate:"required,email"`
	TourName       string          `json:"tourName" validate:"required,max=200"`
	Description    string          `json:"description" validate:"max=5000"`
	Itinerary      []string        `json:"itinerary" validate:"max=100,dive,max=500"`
	Duration       string          `json:"duration" validate:"max=100"`
	MeetingPoint   string          `json:"meetingPoint" validate:"max=500"`
	Transportation string          `json:"transportation" validate:"max=200"`
	Cost           json.RawMessage `json:"cost"`
	StartDate      string          `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string          `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Destination    string          `json:"destination" validate:"max=200"`
}

// Details converts the request to a model.TourDetails.
func (r *TourDetailsRequest) Details() (model.TourDetails, error) {
	raw := string(r.Cost)
	if raw == "null" {
		raw = ""
	}
	cost, err := model.ParseCost(raw)
	if err != nil {
		return model.TourDetails{}, err
	}
	return model.TourDetails{
		OrganizerID:    r.OrganizerID,
		OrganizerBy:    r.OrganizerBy,
		TourName:       r.TourName,
		Description:    r.Description,
		Itinerary:      r.Itinerary,
		Duration:       r.Duration,
		MeetingPoint:   r.MeetingPoint,
		Transportation: r.Transportation,
		Cost:           cost,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		Destination:    r.Destination,
	}, nil
}

// FriendRequest is a participant in create and addFriend requests.
type FriendRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Name    string `json:"name" validate:"max=200"`
	Profile string `json:"profile" validate:"max=2048"`
}

// Friend converts the request to a model.Friend with a zero balance.
func (r FriendRequest) Friend() model.Friend {
	return model.Friend{Email: r.Email, Name: r.Name, Profile: r.Profile}
}

// CreateTourRequest represents the request body for creating a tour.
type CreateTourRequest struct {
	TourDetailsRequest
	Friends []FriendRequest `json:"friends" validate:"max=200,dive"`
}

// Input converts the request to a service.CreateTourInput.
func (r *CreateTourRequest) Input() (service.CreateTourInput, error) {
	details, err := r.Details()
	if err != nil {
		return service.CreateTourInput{}, err
	}
	friends := make([]model.Friend, 0, len(r.Friends))
	for _, f := range r.Friends {
		friends = append(friends, f.Friend())
	}
	return service.CreateTourInput{Details: details, Friends: friends}, nil
}

// UpdateTourRequest represents the request body for updating tour details.
type UpdateTourRequest struct {
	TourDetailsRequest
}

// AddExpenseRequest represents the request body for recording an expense.
type AddExpenseRequest struct {
	Payer   string       `json:"payer" validate:"max=200"`
	Amount  money.Amount `json:"amount"`
	Details string       `json:"details" validate:"max=1000"`
	Email   string       `json:"email" validate:"required,email"`
}

// Input converts the request to a service.AddExpenseInput.
func (r *AddExpenseRequest) Input() service.AddExpenseInput {
	return service.AddExpenseInput{
		Payer:   r.Payer,
		Amount:  r.Amount,
		Details: r.Details,
		Email:   r.Email,
	}
}

// CreateTourResponse is returned by POST /api/v1/tours.
type CreateTourResponse struct {
	InsertedID string      `json:"insertedId"`
	Tour       *model.Tour `json:"tour"`
}
