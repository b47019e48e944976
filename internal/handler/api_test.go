package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/travelwallet/travelwallet/internal/activity"
	"github.com/travelwallet/travelwallet/internal/auth"
	"github.com/travelwallet/travelwallet/internal/handler/dto"
	"github.com/travelwallet/travelwallet/internal/service"
	"github.com/travelwallet/travelwallet/internal/store/memory"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := memory.New()
	tourSvc := service.NewTourService(st, nil, activity.NewMemoryFeed(50), nil, logger)
	userSvc := service.NewUserService(st, auth.NewHasher(auth.Params{Time: 1, Memory: 8 * 1024, Threads: 1}), logger)
	tours := NewTourHandler(tourSvc, logger)
	users := NewUserHandler(userSvc, logger)
	h := New()

	r := chi.NewRouter()
	r.Get("/", h.Hello)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/register", users.Register)
		r.Post("/login", users.Login)
		r.Get("/search-user", users.Search)
		r.Post("/tours", tours.Create)
		r.Get("/tours/{email}", tours.ListByEmail)
		r.Get("/tour/{id}", tours.Get)
		r.Patch("/update-tour/{id}", tours.Update)
		r.Delete("/delete-tour/{id}", tours.Delete)
		r.Patch("/tours/{id}/addFriend", tours.AddFriend)
		r.Delete("/tour/{id}/removeFriend/{email}", tours.RemoveFriend)
		r.Patch("/tours/{id}/addExpense", tours.AddExpense)
		r.Get("/tours/{id}/balances", tours.Balances)
		r.Get("/tours/{id}/activity", tours.Activity)
	})
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)
	return r
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, r http.Handler, method, path, body string) (int, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: invalid JSON response %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, resp
}

type tourView struct {
	ID      string `json:"_id"`
	Version int64  `json:"version"`
	Friends []struct {
		Email   string  `json:"email"`
		Balance float64 `json:"balance"`
	} `json:"friends"`
	Expenses []struct {
		Amount float64 `json:"amount"`
	} `json:"expenses"`
}

func createTour(t *testing.T, r http.Handler, body string) string {
	t.Helper()

	status, resp := do(t, r, http.MethodPost, "/api/v1/tours", body)
	if status != http.StatusCreated {
		t.Fatalf("create tour status = %d, body = %+v", status, resp)
	}
	var created dto.CreateTourResponse
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.InsertedID == "" || created.Tour == nil || created.Tour.ID != created.InsertedID {
		t.Fatalf("unexpected create response: %s", resp.Data)
	}
	return created.InsertedID
}

func TestAPI_ExpenseFlow(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	id := createTour(t, r, `{
		"organizerBy": "org@x.io",
		"tourName": "Alps",
		"cost": 1500,
		"friends": [{"email":"a@x.io"},{"email":"b@x.io"}]
	}`)

	status, resp := do(t, r, http.MethodPatch, "/api/v1/tours/"+id+"/addFriend", `{"email":"c@x.io","name":"Cara"}`)
	if status != http.StatusOK {
		t.Fatalf("addFriend status = %d, body = %+v", status, resp)
	}

	status, resp = do(t, r, http.MethodPatch, "/api/v1/tours/"+id+"/addExpense",
		`{"payer":"Alice","amount":90,"details":"dinner","email":"a@x.io"}`)
	if status != http.StatusOK {
		t.Fatalf("addExpense status = %d, body = %+v", status, resp)
	}

	var tour tourView
	if err := json.Unmarshal(resp.Data, &tour); err != nil {
		t.Fatalf("decode tour: %v", err)
	}
	want := map[string]float64{"a@x.io": 60, "b@x.io": -30, "c@x.io": -30}
	for _, f := range tour.Friends {
		if f.Balance != want[f.Email] {
			t.Errorf("balance[%s] = %v, want %v", f.Email, f.Balance, want[f.Email])
		}
	}
	if len(tour.Expenses) != 1 || tour.Expenses[0].Amount != 90 {
		t.Errorf("unexpected expenses: %+v", tour.Expenses)
	}

	status, resp = do(t, r, http.MethodGet, "/api/v1/tours/"+id+"/balances", "")
	if status != http.StatusOK {
		t.Fatalf("balances status = %d", status)
	}
	var balances struct {
		Total     float64 `json:"total"`
		Transfers []any   `json:"transfers"`
	}
	if err := json.Unmarshal(resp.Data, &balances); err != nil {
		t.Fatalf("decode balances: %v", err)
	}
	if balances.Total != 0 || len(balances.Transfers) != 2 {
		t.Errorf("unexpected balances: %s", resp.Data)
	}

	status, resp = do(t, r, http.MethodGet, "/api/v1/tours/"+id+"/activity?limit=10", "")
	if status != http.StatusOK {
		t.Fatalf("activity status = %d", status)
	}
	var events []activity.Event
	if err := json.Unmarshal(resp.Data, &events); err != nil {
		t.Fatalf("decode activity: %v", err)
	}
	if len(events) != 3 || events[0].Type != activity.EventExpenseAdded {
		t.Errorf("unexpected activity: %s", resp.Data)
	}
}

func TestAPI_StatusMapping(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	id := createTour(t, r, `{"organizerBy":"org@x.io","tourName":"Alps","friends":[{"email":"a@x.io"},{"email":"b@x.io"}]}`)
	empty := createTour(t, r, `{"organizerBy":"org@x.io","tourName":"Empty"}`)
	if status, resp := do(t, r, http.MethodPatch, "/api/v1/tours/"+id+"/addExpense", `{"amount":10,"email":"a@x.io"}`); status != http.StatusOK {
		t.Fatalf("seed expense status = %d, body = %+v", status, resp)
	}

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"malformed id", http.MethodGet, "/api/v1/tour/not-a-ulid", "", http.StatusBadRequest, "INVALID_TOUR_ID"},
		{"unknown tour", http.MethodGet, "/api/v1/tour/01ARZ3NDEKTSV4RRFFQ69G5FAV", "", http.StatusNotFound, "TOUR_NOT_FOUND"},
		{"invalid json", http.MethodPost, "/api/v1/tours", `{"tourName":`, http.StatusBadRequest, "INVALID_JSON"},
		{"unknown field", http.MethodPost, "/api/v1/tours", `{"organizerBy":"o@x.io","tourName":"T","hack":1}`, http.StatusBadRequest, "INVALID_JSON"},
		{"missing tour name", http.MethodPost, "/api/v1/tours", `{"organizerBy":"o@x.io"}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"bad cost", http.MethodPost, "/api/v1/tours", `{"organizerBy":"o@x.io","tourName":"T","cost":"lots"}`, http.StatusBadRequest, "INVALID_COST"},
		{"end before start", http.MethodPatch, "/api/v1/update-tour/" + id, `{"organizerBy":"o@x.io","tourName":"T","startDate":"2024-06-10","endDate":"2024-06-01"}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"duplicate friend", http.MethodPatch, "/api/v1/tours/" + id + "/addFriend", `{"email":"a@x.io"}`, http.StatusConflict, "FRIEND_EXISTS"},
		{"remove unknown friend", http.MethodDelete, "/api/v1/tour/" + id + "/removeFriend/z@x.io", "", http.StatusNotFound, "FRIEND_NOT_FOUND"},
		{"remove friend with balance", http.MethodDelete, "/api/v1/tour/" + id + "/removeFriend/b@x.io", "", http.StatusConflict, "FRIEND_HAS_BALANCE"},
		{"payer not found", http.MethodPatch, "/api/v1/tours/" + id + "/addExpense", `{"amount":10,"email":"z@x.io"}`, http.StatusUnprocessableEntity, "PAYER_NOT_FOUND"},
		{"no participants", http.MethodPatch, "/api/v1/tours/" + empty + "/addExpense", `{"amount":10,"email":"a@x.io"}`, http.StatusUnprocessableEntity, "NO_PARTICIPANTS"},
		{"zero amount", http.MethodPatch, "/api/v1/tours/" + id + "/addExpense", `{"amount":0,"email":"a@x.io"}`, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"too many decimals", http.MethodPatch, "/api/v1/tours/" + id + "/addExpense", `{"amount":"1.234","email":"a@x.io"}`, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"negative amount wrapping int64", http.MethodPatch, "/api/v1/tours/" + id + "/addExpense", `{"amount":"-92233720368547758.09","email":"a@x.io"}`, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"amount above ceiling", http.MethodPatch, "/api/v1/tours/" + id + "/addExpense", `{"amount":92233720368547758,"email":"a@x.io"}`, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"unknown route", http.MethodGet, "/api/v1/nope", "", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := do(t, r, tt.method, tt.path, tt.body)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %+v)", status, tt.wantStatus, resp)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
			if resp.Success {
				t.Error("error responses must have success=false")
			}
		})
	}
}

func TestAPI_TourCRUD(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	id := createTour(t, r, `{"organizerBy":"org@x.io","tourName":"Alps","friends":[{"email":"a@x.io"}]}`)

	status, resp := do(t, r, http.MethodGet, "/api/v1/tours/a@x.io", "")
	if status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	var listed []tourView
	if err := json.Unmarshal(resp.Data, &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != id {
		t.Errorf("unexpected list: %s", resp.Data)
	}

	status, _ = do(t, r, http.MethodPatch, "/api/v1/update-tour/"+id, `{"organizerBy":"org@x.io","tourName":"Dolomites","cost":"2000"}`)
	if status != http.StatusOK {
		t.Fatalf("update status = %d", status)
	}

	status, resp = do(t, r, http.MethodGet, "/api/v1/tour/"+id, "")
	if status != http.StatusOK {
		t.Fatalf("get status = %d", status)
	}
	var got struct {
		TourName string `json:"tourName"`
		Cost     int64  `json:"cost"`
	}
	if err := json.Unmarshal(resp.Data, &got); err != nil {
		t.Fatalf("decode tour: %v", err)
	}
	if got.TourName != "Dolomites" || got.Cost != 2000 {
		t.Errorf("update not applied: %+v", got)
	}

	if status, _ := do(t, r, http.MethodDelete, "/api/v1/delete-tour/"+id, ""); status != http.StatusOK {
		t.Fatalf("delete status = %d", status)
	}
	if status, _ := do(t, r, http.MethodGet, "/api/v1/tour/"+id, ""); status != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", status)
	}
}

func TestAPI_Users(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)

	for _, body := range []string{
		`{"userName":"Alice","email":"alice@x.io","password":"pw1"}`,
		`{"userName":"alicia","email":"alicia@x.io","password":"pw2"}`,
		`{"userName":"Bob","email":"bob@x.io","password":"pw3"}`,
	} {
		if status, resp := do(t, r, http.MethodPost, "/api/v1/register", body); status != http.StatusCreated {
			t.Fatalf("register status = %d, body = %+v", status, resp)
		}
	}

	status, resp := do(t, r, http.MethodPost, "/api/v1/register", `{"userName":"Alice2","email":"alice@x.io","password":"x"}`)
	if status != http.StatusConflict || resp.Code != "USER_EXISTS" {
		t.Errorf("duplicate register = %d %q, want 409 USER_EXISTS", status, resp.Code)
	}

	status, resp = do(t, r, http.MethodPost, "/api/v1/login", `{"email":"alice@x.io","password":"pw1"}`)
	if status != http.StatusOK {
		t.Fatalf("login status = %d", status)
	}
	if bytes.Contains(resp.Data, []byte("pw1")) || bytes.Contains(resp.Data, []byte("argon2id")) {
		t.Errorf("login response leaks credentials: %s", resp.Data)
	}

	for _, body := range []string{
		`{"email":"alice@x.io","password":"wrong"}`,
		`{"email":"nobody@x.io","password":"pw1"}`,
	} {
		status, resp := do(t, r, http.MethodPost, "/api/v1/login", body)
		if status != http.StatusUnauthorized || resp.Message != "Invalid email or password" {
			t.Errorf("login(%s) = %d %q, want 401", body, status, resp.Message)
		}
	}

	status, resp = do(t, r, http.MethodGet, "/api/v1/search-user?name=ali", "")
	if status != http.StatusOK {
		t.Fatalf("search status = %d", status)
	}
	var users []struct {
		UserName string `json:"userName"`
	}
	if err := json.Unmarshal(resp.Data, &users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("search(ali) = %s, want Alice and alicia", resp.Data)
	}

	_, resp = do(t, r, http.MethodGet, "/api/v1/search-user?name=", "")
	if string(resp.Data) != "[]" {
		t.Errorf("empty search data = %s, want []", resp.Data)
	}
}
