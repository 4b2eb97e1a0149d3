package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details struct {
		JSON   string                `json:"json"`
		Fields []handlers.FieldError `json:"fields"`
	} `json:"details"`
}

func bindRouter() *gin.Engine {
	r := gin.New()
	r.POST("/tasks", func(ctx *gin.Context) {
		var req task.CreateTaskRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})
	return r
}

func postBind(t *testing.T, r *gin.Engine, body string) (*httptest.ResponseRecorder, bindErrorResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp bindErrorResponse
	if w.Code != http.StatusCreated {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
		}
	}
	return w, resp
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	w, resp := postBind(t, bindRouter(), `{"title":"go"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	if resp.Success || resp.Code != "invalid_request" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}

	wantRules := map[string]string{
		"title":       "min",
		"description": "required",
		"dueDate":     "required",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	body := `{"title":123,"description":"d","dueDate":"2026-03-01T09:00:00Z"}`
	w, resp := postBind(t, bindRouter(), body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	if resp.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Details.JSON)
	}
	if len(resp.Details.Fields) == 0 {
		t.Fatalf("expected at least one field error in details.fields")
	}

	fieldErr := resp.Details.Fields[0]
	if fieldErr.Field != "title" {
		t.Fatalf("expected fields[0].field=title, got %q", fieldErr.Field)
	}
	if fieldErr.Rule != "type" {
		t.Fatalf("expected fields[0].rule=type, got %q", fieldErr.Rule)
	}
}

func TestBindJSON_BodyShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantJSON string
		wantMsg  string
	}{
		{name: "empty", body: "", wantCode: http.StatusBadRequest, wantMsg: "Request body is required"},
		{name: "syntax", body: `{"title":`, wantCode: http.StatusBadRequest, wantJSON: "invalid_json_syntax"},
		{name: "bad_time", body: `{"title":"abc","description":"d","dueDate":"tomorrow"}`, wantCode: http.StatusBadRequest, wantJSON: "invalid_json_value"},
		{name: "ok", body: `{"title":"abc","description":"d","dueDate":"2026-03-01T09:00:00Z"}`, wantCode: http.StatusCreated},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			w, resp := postBind(t, bindRouter(), tt.body)

			if w.Code != tt.wantCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantJSON != "" && resp.Details.JSON != tt.wantJSON {
				t.Fatalf("details.json = %q, want %q", resp.Details.JSON, tt.wantJSON)
			}
			if tt.wantMsg != "" && resp.Error != tt.wantMsg {
				t.Fatalf("error = %q, want %q", resp.Error, tt.wantMsg)
			}
		})
	}
}

func TestBindJSON_TooLarge(t *testing.T) {
	r := gin.New()
	r.POST("/tasks", func(ctx *gin.Context) {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, 16)
		var req task.CreateTaskRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	body := `{"title":"` + strings.Repeat("a", 64) + `"}`
	w, _ := postBind(t, r, body)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("got status %d, want 413", w.Code)
	}
}
