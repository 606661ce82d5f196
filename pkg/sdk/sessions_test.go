package sdk_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/absmach/fusion/pkg/aggregate"
	"github.com/absmach/fusion/pkg/sdk"
	"github.com/absmach/fusion/session"
)

func TestCreateSession(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sessions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req sdk.SessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Config.MinParticipants != 3 {
			t.Errorf("unexpected min_participants: %d", req.Config.MinParticipants)
		}

		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(session.Session{ID: "s-1", Name: req.Name}); err != nil {
			t.Fatalf("failed to encode response: %v", err)
		}
	}))
	defer srv.Close()

	client := sdk.NewSDK(sdk.Config{CoordinatorURL: srv.URL})

	s, err := client.CreateSession(sdk.SessionRequest{
		Name:    "mnist-round-12",
		Creator: "operator",
		Config: session.Config{
			MinParticipants: 3,
			MaxUpdateAge:    time.Hour,
			WeightScheme:    aggregate.SchemeSpec{Kind: aggregate.Uniform},
			Threshold:       2,
		},
	})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if s.ID != "s-1" {
		t.Errorf("unexpected session id: %s", s.ID)
	}
	if s.Name != "mnist-round-12" {
		t.Errorf("unexpected session name: %s", s.Name)
	}
}

func TestGetSessionUnexpectedStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := sdk.NewSDK(sdk.Config{CoordinatorURL: srv.URL})

	if _, err := client.GetSession("missing"); err == nil {
		t.Fatal("expected error on 404 response")
	}
}

func TestAdvanceSession(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions/s-1/advance" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		if err := json.NewEncoder(w).Encode(session.Session{ID: "s-1", Phase: session.ParameterSubmission}); err != nil {
			t.Fatalf("failed to encode response: %v", err)
		}
	}))
	defer srv.Close()

	client := sdk.NewSDK(sdk.Config{CoordinatorURL: srv.URL})

	s, err := client.AdvanceSession("s-1")
	if err != nil {
		t.Fatalf("failed to advance session: %v", err)
	}
	if s.Phase != session.ParameterSubmission {
		t.Errorf("unexpected phase: %s", s.Phase)
	}
}
