package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/httputil"
	"inkwell/internal/model"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "validation", err: model.NewValidationError("value", "rating must be between 1 and 5"), wantStatus: http.StatusBadRequest, wantCode: httputil.ErrCodeBadRequest},
		{name: "wrapped validation", err: fmt.Errorf("create: %w", model.NewValidationError("title", "too short")), wantStatus: http.StatusBadRequest, wantCode: httputil.ErrCodeBadRequest},
		{name: "post not found", err: model.ErrPostNotFound, wantStatus: http.StatusNotFound, wantCode: httputil.ErrCodeNotFound},
		{name: "comment not found", err: model.ErrCommentNotFound, wantStatus: http.StatusNotFound, wantCode: httputil.ErrCodeNotFound},
		{name: "user not found", err: model.ErrUserNotFound, wantStatus: http.StatusNotFound, wantCode: httputil.ErrCodeNotFound},
		{name: "not post owner", err: model.ErrNotPostOwner, wantStatus: http.StatusForbidden, wantCode: httputil.ErrCodeForbidden},
		{name: "not comment owner", err: model.ErrNotCommentOwner, wantStatus: http.StatusForbidden, wantCode: httputil.ErrCodeForbidden},
		{name: "forbidden", err: model.ErrForbidden, wantStatus: http.StatusForbidden, wantCode: httputil.ErrCodeForbidden},
		{name: "duplicate user", err: model.ErrUsernameExists, wantStatus: http.StatusConflict, wantCode: httputil.ErrCodeConflict},
		{name: "bad credentials", err: model.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized, wantCode: httputil.ErrCodeUnauthorized},
		{name: "file too large", err: model.ErrFileTooLarge, wantStatus: http.StatusBadRequest, wantCode: model.CodeFileTooLarge},
		{name: "bad image", err: fmt.Errorf("%w: bad header", model.ErrInvalidImageType), wantStatus: http.StatusBadRequest, wantCode: model.CodeInvalidImageType},
		{name: "media disabled", err: model.ErrMediaDisabled, wantStatus: http.StatusServiceUnavailable, wantCode: model.CodeMediaDisabled},
		{name: "storage failure", err: errors.New("connection refused"), wantStatus: http.StatusInternalServerError, wantCode: httputil.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			writeServiceError(rec, tt.err, "do thing")

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body httputil.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.wantCode)
			}
			if body.Error.Message == "" {
				t.Error("expected a message")
			}
		})
	}
}

func TestWriteServiceError_NamesInvalidField(t *testing.T) {
	rec := httptest.NewRecorder()

	writeServiceError(rec, model.NewValidationError("title", "must be at least 3 characters"), "create post")

	var body httputil.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Field != "title" {
		t.Errorf("field = %q, want %q", body.Error.Field, "title")
	}
}

func TestWriteServiceError_HidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()

	writeServiceError(rec, errors.New("pq: password authentication failed"), "list posts")

	var body httputil.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Message != "Failed to list posts" {
		t.Errorf("message = %q, want generic message", body.Error.Message)
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		raw    string
		want   int64
		wantOK bool
	}{
		{raw: "42", want: 42, wantOK: true},
		{raw: "0", wantOK: false},
		{raw: "-3", wantOK: false},
		{raw: "abc", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/posts/"+tt.raw, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.raw)
			r = r.WithContext(contextWithRoute(r, rctx))

			got, ok := pathID(r, "id")

			if ok != tt.wantOK || got != tt.want {
				t.Errorf("pathID(%q) = %d, %v, want %d, %v", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/posts?page=3&limit=x", nil)

	if v, ok := queryInt(r, "page"); !ok || v != 3 {
		t.Errorf("page = %d, %v, want 3, true", v, ok)
	}
	if _, ok := queryInt(r, "limit"); ok {
		t.Error("limit should fail to parse")
	}
	if v, ok := queryInt(r, "days"); !ok || v != 0 {
		t.Errorf("missing days = %d, %v, want 0, true", v, ok)
	}
}

func TestSplitTags(t *testing.T) {
	got := splitTags([]string{"go, cooking", " travel ", ",,"})

	want := []string{"go", "cooking", "travel"}
	if len(got) != len(want) {
		t.Fatalf("tags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func contextWithRoute(r *http.Request, rctx *chi.Context) context.Context {
	return context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
}
