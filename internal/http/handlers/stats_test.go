package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/geocoder89/jobtracker/internal/domain/job"
	"github.com/geocoder89/jobtracker/internal/http/handlers"
)

type fakeStats struct {
	countsFn func(ctx context.Context, ownerID string) (job.StatusCounts, error)
}

func (f fakeStats) CountsByStatus(ctx context.Context, ownerID string) (job.StatusCounts, error) {
	return f.countsFn(ctx, ownerID)
}

func TestStatsHandler_AllKeysPresent(t *testing.T) {
	h := handlers.NewStatsHandler(fakeStats{countsFn: func(ctx context.Context, ownerID string) (job.StatusCounts, error) {
		if ownerID != "alice" {
			t.Fatalf("owner = %q", ownerID)
		}
		return job.StatusCounts{Applied: 2}, nil
	}})
	r := setupAuthedRouter(http.MethodGet, "/api/stats", h.Get)

	w := doRequest(t, r, http.MethodGet, "/api/stats", "alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d, body=%s", w.Code, w.Body.String())
	}

	var got map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := map[string]int{"applied": 2, "interview": 0, "rejected": 0, "accepted": 0}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if n, ok := got[k]; !ok || n != v {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestStatsHandler_Errors(t *testing.T) {
	h := handlers.NewStatsHandler(fakeStats{countsFn: func(ctx context.Context, ownerID string) (job.StatusCounts, error) {
		return job.StatusCounts{}, errors.New("db down")
	}})
	r := setupAuthedRouter(http.MethodGet, "/api/stats", h.Get)

	if w := doRequest(t, r, http.MethodGet, "/api/stats", "alice", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("got %d, want 500", w.Code)
	}

	// token failures on stats are 401, like every other protected route
	if w := doRequest(t, r, http.MethodGet, "/api/stats", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", w.Code)
	}
}
