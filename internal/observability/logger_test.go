package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/geocoder89/jobtracker/internal/actorctx"
)

func TestLogger_AddsUserIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	ctx := actorctx.WithUserID(context.Background(), "owner-1")
	log.InfoContext(ctx, "job.created", "job_id", "j-1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}

	if rec["user_id"] != "owner-1" {
		t.Fatalf("user_id = %v, want owner-1", rec["user_id"])
	}
	if rec["job_id"] != "j-1" || rec["msg"] != "job.created" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if _, ok := rec["trace_id"]; ok {
		t.Fatalf("trace_id should be absent without an active span")
	}
}

func TestLogger_DebugOnlyInDev(t *testing.T) {
	var prod, dev bytes.Buffer

	newLogger(&prod, "prod").Debug("hidden")
	newLogger(&dev, "dev").Debug("shown")

	if prod.Len() != 0 {
		t.Fatalf("prod logger emitted debug output: %s", prod.String())
	}
	if dev.Len() == 0 {
		t.Fatalf("dev logger dropped debug output")
	}
}
