package model

import (
	"errors"
	"testing"
)

func sampleTour() *Tour {
	return &Tour{
		ID: "01HZX3J3N4W1T7G6R3B5A2C9QK",
		TourDetails: TourDetails{
			OrganizerBy: "a@x.io",
			TourName:    "Alps",
			Itinerary:   []string{"Zurich", "Zermatt"},
		},
		Friends: []Friend{
			{Email: "a@x.io", Balance: 0},
			{Email: "b@x.io", Balance: 0},
			{Email: "a@x.io", Name: "dup", Balance: 0},
		},
	}
}

func TestTour_FriendIndex(t *testing.T) {
	t.Parallel()

	tour := sampleTour()

	if got := tour.FriendIndex("a@x.io"); got != 0 {
		t.Errorf("FriendIndex(a@x.io) = %d, want 0", got)
	}
	if got := tour.FriendIndex("b@x.io"); got != 1 {
		t.Errorf("FriendIndex(b@x.io) = %d, want 1", got)
	}
	if got := tour.FriendIndex("A@x.io"); got != -1 {
		t.Errorf("lookup must be case-sensitive, got %d", got)
	}
}

func TestTour_RemoveFriend_FirstMatchOnly(t *testing.T) {
	t.Parallel()

	tour := sampleTour()

	removed, ok := tour.RemoveFriend("a@x.io")
	if !ok {
		t.Fatal("expected friend to be removed")
	}
	if removed.Name != "" {
		t.Errorf("removed the wrong entry: %+v", removed)
	}
	if len(tour.Friends) != 2 {
		t.Fatalf("len(Friends) = %d, want 2", len(tour.Friends))
	}
	if tour.Friends[0].Email != "b@x.io" || tour.Friends[1].Name != "dup" {
		t.Errorf("unexpected remaining friends: %+v", tour.Friends)
	}

	if _, ok := tour.RemoveFriend("nobody@x.io"); ok {
		t.Error("expected no match for unknown email")
	}
}

func TestTour_Clone(t *testing.T) {
	t.Parallel()

	tour := sampleTour()
	c := tour.Clone()

	c.Friends[0].Balance = 500
	c.Itinerary[0] = "Geneva"

	if tour.Friends[0].Balance != 0 {
		t.Error("clone shares friends with original")
	}
	if tour.Itinerary[0] != "Zurich" {
		t.Error("clone shares itinerary with original")
	}
}

func TestTour_IsParticipant(t *testing.T) {
	t.Parallel()

	tour := sampleTour()
	tour.OrganizerBy = "org@x.io"

	if !tour.IsParticipant("org@x.io") {
		t.Error("organizer should be a participant")
	}
	if !tour.IsParticipant("b@x.io") {
		t.Error("friend should be a participant")
	}
	if tour.IsParticipant("c@x.io") {
		t.Error("stranger should not be a participant")
	}
}

func TestTourDetails_Validate(t *testing.T) {
	t.Parallel()

	valid := TourDetails{
		OrganizerBy: "org@x.io",
		TourName:    "Alps",
		StartDate:   "2024-06-01",
		EndDate:     "2024-06-10",
	}

	tests := []struct {
		name    string
		mutate  func(d *TourDetails)
		wantErr bool
	}{
		{"valid", func(d *TourDetails) {}, false},
		{"no dates", func(d *TourDetails) { d.StartDate, d.EndDate = "", "" }, false},
		{"missing name", func(d *TourDetails) { d.TourName = "  " }, true},
		{"bad organizer", func(d *TourDetails) { d.OrganizerBy = "not-an-email" }, true},
		{"negative cost", func(d *TourDetails) { d.Cost = -1 }, true},
		{"bad start", func(d *TourDetails) { d.StartDate = "06/01/2024" }, true},
		{"end before start", func(d *TourDetails) { d.EndDate = "2024-05-01" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)
			err := d.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestParseCost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"1500", 1500, false},
		{`"1500"`, 1500, false},
		{"", 0, false},
		{"12.5", 0, true},
		{`"abc"`, 0, true},
		{"true", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseCost(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCost(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrInvalidCost) {
			t.Errorf("ParseCost(%q) expected ErrInvalidCost, got %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("ParseCost(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestUser_MatchesName(t *testing.T) {
	t.Parallel()

	u := &User{UserName: "Alicia"}
	if !u.MatchesName("ali") {
		t.Error("expected case-insensitive substring match")
	}
	if u.MatchesName("") {
		t.Error("empty query should match nothing")
	}
	if u.MatchesName("bob") {
		t.Error("unexpected match")
	}
}
