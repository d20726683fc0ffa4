package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/jobtracker/internal/domain/job"
	"github.com/geocoder89/jobtracker/internal/http/handlers"
	"github.com/geocoder89/jobtracker/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func bindRouter(out func() any) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/jobs", func(ctx *gin.Context) {
		if !handlers.BindJSON(ctx, out()) {
			return
		}
		ctx.Status(http.StatusCreated)
	})
	return r
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	r := bindRouter(func() any { return &job.CreateRequest{} })

	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewBufferString(`{"location":"Berlin"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	wantRules := map[string]string{
		"company":  "required",
		"position": "required",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_UpdateStatusMustBeKnown(t *testing.T) {
	r := bindRouter(func() any { return &job.UpdateRequest{} })

	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewBufferString(`{"status":"ghosted"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusBadRequest)
	}

	var resp bindErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)

	if len(resp.Error.Details.Fields) != 1 {
		t.Fatalf("expected one field error, got %+v", resp.Error.Details.Fields)
	}
	got := resp.Error.Details.Fields[0]
	if got.Field != "status" || got.Rule != "oneof" {
		t.Fatalf("unexpected field error %+v", got)
	}
	if !strings.Contains(got.Message, "applied, interview, rejected, accepted") {
		t.Fatalf("unexpected message %q", got.Message)
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	r := bindRouter(func() any { return &job.CreateRequest{} })

	body := `{"company":"Acme","position":42}`
	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "position" {
		t.Fatalf("expected detail field to be position, got %q", resp.Error.Details.Field)
	}
	if len(resp.Error.Details.Fields) == 0 || resp.Error.Details.Fields[0].Rule != "type" {
		t.Fatalf("expected a type rule in details.fields, got %+v", resp.Error.Details.Fields)
	}
}

func TestBindJSON_SyntaxAndEmptyBody(t *testing.T) {
	r := bindRouter(func() any { return &job.CreateRequest{} })

	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", `{"company":`, "invalid_json_syntax"},
		{"empty", ``, "empty_body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			var resp bindErrorResponse
			_ = json.Unmarshal(w.Body.Bytes(), &resp)

			if w.Code != http.StatusBadRequest || resp.Error.Details.JSON != tt.want {
				t.Fatalf("got %d %q, want 400 %q", w.Code, resp.Error.Details.JSON, tt.want)
			}
		})
	}
}

func TestBindJSON_OversizedBodyIs413(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(middlewares.MaxBodyBytes(32))
	r.POST("/jobs", func(ctx *gin.Context) {
		var req job.CreateRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	body := `{"company":"` + strings.Repeat("a", 100) + `","position":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("got %d, want 413, body=%s", w.Code, w.Body.String())
	}
}
