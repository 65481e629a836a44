package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/persistence/memory"
)

var testNow = time.Date(2025, time.October, 27, 20, 0, 0, 0, time.UTC)

func newTestMux(store domain.Store) *http.ServeMux {
	service := domain.NewService(store, domain.WithClock(func() time.Time { return testNow }))
	mux := http.NewServeMux()
	NewHandler(service).RegisterRoutes(mux)
	return mux
}

func TestCreateUserFromForm(t *testing.T) {
	mux := newTestMux(memory.NewStore())

	form := url.Values{"username": {"alice"}}
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	var resp UserView
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Username != "alice" || resp.ID == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestCreateUserRequiresUsername(t *testing.T) {
	mux := newTestMux(memory.NewStore())

	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestListUsers(t *testing.T) {
	store := memory.NewStore()
	for _, name := range []string{"alice", "bob"} {
		if _, err := store.CreateUser(context.Background(), name); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
	mux := newTestMux(store)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	var resp []UserView
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 || resp[0].Username != "alice" || resp[1].Username != "bob" {
		t.Fatalf("unexpected users %+v", resp)
	}
}

func TestAddExerciseJSONNumberDuration(t *testing.T) {
	store := memory.NewStore()
	user, _ := store.CreateUser(context.Background(), "alice")
	mux := newTestMux(store)

	body := `{"description":"run","duration":30,"date":"2023-01-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/"+user.ID+"/exercises", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	var resp ExerciseView
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	want := ExerciseView{ID: user.ID, Username: "alice", Description: "run", Duration: 30, Date: "Sun Jan 01 2023"}
	if resp != want {
		t.Fatalf("expected %+v got %+v", want, resp)
	}
}

func TestAddExerciseDefaultsDateAndTruncatesDuration(t *testing.T) {
	store := memory.NewStore()
	user, _ := store.CreateUser(context.Background(), "alice")
	mux := newTestMux(store)

	form := url.Values{"description": {"swim"}, "duration": {"45abc"}}
	req := httptest.NewRequest(http.MethodPost, "/api/users/"+user.ID+"/exercises", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	var resp ExerciseView
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Duration != 45 || resp.Date != "Mon Oct 27 2025" {
		t.Fatalf("unexpected exercise %+v", resp)
	}
}

func TestAddExerciseErrors(t *testing.T) {
	store := memory.NewStore()
	user, _ := store.CreateUser(context.Background(), "alice")
	mux := newTestMux(store)

	cases := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"missing description", "/api/users/" + user.ID + "/exercises", `{"duration":"30"}`, http.StatusBadRequest},
		{"missing duration", "/api/users/" + user.ID + "/exercises", `{"description":"run"}`, http.StatusBadRequest},
		{"unknown user", "/api/users/nobody/exercises", `{"description":"run","duration":"30"}`, http.StatusNotFound},
		{"malformed date", "/api/users/" + user.ID + "/exercises", `{"description":"run","duration":"30","date":"someday"}`, http.StatusInternalServerError},
		{"malformed body", "/api/users/" + user.ID + "/exercises", `{"description":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)
			if rr.Code != tc.status {
				t.Fatalf("expected %d got %d: %s", tc.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestGetLogFiltersByQuery(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	user, _ := store.CreateUser(ctx, "alice")
	for _, rec := range []domain.ExerciseRecord{
		{Description: "run", DurationMin: 30, Date: time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{Description: "swim", DurationMin: 45, Date: time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC)},
		{Description: "bike", DurationMin: 60, Date: time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)},
	} {
		if _, err := store.AppendExercise(ctx, user.ID, rec); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
	mux := newTestMux(store)

	cases := []struct {
		query string
		want  []string
	}{
		{"", []string{"run", "swim", "bike"}},
		{"?from=2023-01-15&to=2023-02-15", []string{"swim"}},
		{"?limit=2", []string{"run", "swim"}},
		{"?limit=0", []string{}},
		{"?limit=abc", []string{"run", "swim", "bike"}},
		{"?from=2023-02-01&limit=1", []string{"swim"}},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users/"+user.ID+"/logs"+tc.query, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", tc.query, rr.Code)
		}

		var resp domain.LogResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: failed to decode response: %v", tc.query, err)
		}
		if resp.ID != user.ID || resp.Username != "alice" {
			t.Fatalf("%s: unexpected user fields %+v", tc.query, resp)
		}
		if resp.Count != len(tc.want) || len(resp.Log) != len(tc.want) {
			t.Fatalf("%s: expected %d entries got count=%d len=%d", tc.query, len(tc.want), resp.Count, len(resp.Log))
		}
		for i, desc := range tc.want {
			if resp.Log[i].Description != desc {
				t.Fatalf("%s: entry %d expected %s got %s", tc.query, i, desc, resp.Log[i].Description)
			}
		}
	}
}

func TestGetLogEmptyLogSerializesAsArray(t *testing.T) {
	store := memory.NewStore()
	user, _ := store.CreateUser(context.Background(), "alice")
	mux := newTestMux(store)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users/"+user.ID+"/logs", nil))

	if !bytes.Contains(rr.Body.Bytes(), []byte(`"log":[]`)) || !bytes.Contains(rr.Body.Bytes(), []byte(`"count":0`)) {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestGetLogUnknownUser(t *testing.T) {
	mux := newTestMux(memory.NewStore())

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users/nobody/logs", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
}

func TestStoreFailureIsInternalError(t *testing.T) {
	mux := newTestMux(failingStore{err: errors.New("connection refused")})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rr.Code)
	}
}

func TestUserResourceRouting(t *testing.T) {
	mux := newTestMux(memory.NewStore())

	cases := map[string]struct {
		method string
		path   string
		status int
	}{
		"unknown action": {http.MethodGet, "/api/users/abc/stats", http.StatusNotFound},
		"missing action": {http.MethodGet, "/api/users/abc", http.StatusNotFound},
		"wrong method":   {http.MethodDelete, "/api/users/abc/logs", http.StatusMethodNotAllowed},
		"users method":   {http.MethodPut, "/api/users", http.StatusMethodNotAllowed},
	}
	for name, tc := range cases {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
		if rr.Code != tc.status {
			t.Fatalf("%s: expected %d got %d", name, tc.status, rr.Code)
		}
	}
}

type failingStore struct {
	err error
}

func (s failingStore) CreateUser(context.Context, string) (*domain.User, error) { return nil, s.err }
func (s failingStore) ListUsers(context.Context) ([]domain.User, error)         { return nil, s.err }
func (s failingStore) FindUser(context.Context, string) (*domain.User, error)   { return nil, s.err }
func (s failingStore) AppendExercise(context.Context, string, domain.ExerciseRecord) (*domain.User, error) {
	return nil, s.err
}
