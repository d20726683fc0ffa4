package actorctx_test

import (
	"context"
	"testing"

	"github.com/geocoder89/jobtracker/internal/actorctx"
)

func TestUserIDRoundTrip(t *testing.T) {
	ctx := actorctx.WithUserID(context.Background(), "owner-1")

	id, ok := actorctx.UserIDFrom(ctx)
	if !ok || id != "owner-1" {
		t.Fatalf("got (%q, %v), want (owner-1, true)", id, ok)
	}
}

func TestUserIDFrom_MissingOrEmpty(t *testing.T) {
	if _, ok := actorctx.UserIDFrom(context.Background()); ok {
		t.Fatalf("expected no user id on a bare context")
	}

	if _, ok := actorctx.UserIDFrom(actorctx.WithUserID(context.Background(), "")); ok {
		t.Fatalf("expected empty user id to be reported as missing")
	}
}
