package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/geocoder89/jobtracker/internal/domain/user"
	"github.com/geocoder89/jobtracker/internal/http/handlers"
)

func TestGetProfileHandler(t *testing.T) {
	repo := &fakeUsersRepo{
		getByIDFn: func(ctx context.Context, id string) (user.User, error) {
			if id == "alice" {
				return user.User{ID: id, Username: "alice", Email: "alice@example.com", PasswordHash: "secret-hash"}, nil
			}
			return user.User{}, user.ErrUserNotFound
		},
	}

	h := handlers.NewProfileHandler(repo)
	r := setupAuthedRouter(http.MethodGet, "/api/user", h.Get)

	w := doRequest(t, r, http.MethodGet, "/api/user", "alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d, body=%s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "secret-hash") {
		t.Fatalf("password hash leaked: %s", w.Body.String())
	}

	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["username"] != "alice" || resp["email"] != "alice@example.com" || len(resp) != 2 {
		t.Fatalf("unexpected body %v", resp)
	}

	if w := doRequest(t, r, http.MethodGet, "/api/user", "ghost", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: got %d, want 401", w.Code)
	}

	if w := doRequest(t, r, http.MethodGet, "/api/user", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: got %d, want 401", w.Code)
	}
}

func TestUpdateProfileHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		updateErr      error
		wantStatusCode int
		wantUpdate     *user.ProfileUpdate
	}{
		{
			name:           "email_only_normalised",
			body:           `{"email":" New@Example.com"}`,
			wantStatusCode: http.StatusOK,
			wantUpdate:     &user.ProfileUpdate{Email: ptr("new@example.com")},
		},
		{
			name:           "username_only",
			body:           `{"username":"alicia"}`,
			wantStatusCode: http.StatusOK,
			wantUpdate:     &user.ProfileUpdate{Username: ptr("alicia")},
		},
		{
			name:           "duplicate",
			body:           `{"username":"bob"}`,
			updateErr:      user.ErrDuplicateIdentity,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "empty_update",
			body:           `{}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "invalid_email",
			body:           `{"email":"nope"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *user.ProfileUpdate
			repo := &fakeUsersRepo{
				updateFn: func(ctx context.Context, id string, upd user.ProfileUpdate) error {
					if id != "alice" {
						t.Fatalf("updated id %q", id)
					}
					got = &upd
					return tt.updateErr
				},
			}

			h := handlers.NewProfileHandler(repo)
			r := setupAuthedRouter(http.MethodPut, "/api/user", h.Update)

			w := doRequest(t, r, http.MethodPut, "/api/user", "alice", tt.body)
			if w.Code != tt.wantStatusCode {
				t.Fatalf("got %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantUpdate == nil {
				return
			}
			if got == nil {
				t.Fatalf("store not called")
			}
			if deref(got.Username) != deref(tt.wantUpdate.Username) || deref(got.Email) != deref(tt.wantUpdate.Email) {
				t.Fatalf("update = %+v, want %+v", got, tt.wantUpdate)
			}
			if (got.Username == nil) != (tt.wantUpdate.Username == nil) || (got.Email == nil) != (tt.wantUpdate.Email == nil) {
				t.Fatalf("unexpected fields present: %+v", got)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
