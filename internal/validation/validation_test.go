package validation

import (
	"errors"
	"strings"
	"testing"

	"inkwell/internal/model"
)

func TestStruct_RegisterRequest(t *testing.T) {
	tests := []struct {
		name      string
		req       model.RegisterRequest
		wantField string
	}{
		{"valid", model.RegisterRequest{Username: "jane_doe", Email: "jane@example.com", Password: "secret1"}, ""},
		{"short username", model.RegisterRequest{Username: "jd", Email: "jane@example.com", Password: "secret1"}, "username"},
		{"username with dash", model.RegisterRequest{Username: "jane-doe", Email: "jane@example.com", Password: "secret1"}, "username"},
		{"bad email", model.RegisterRequest{Username: "jane_doe", Email: "nope", Password: "secret1"}, "email"},
		{"short password", model.RegisterRequest{Username: "jane_doe", Email: "jane@example.com", Password: "123"}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.req)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, model.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			var ve *model.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.wantField {
				t.Errorf("field = %v, want %q", ve, tt.wantField)
			}
		})
	}
}

func TestStruct_CreatePostRequest(t *testing.T) {
	valid := model.CreatePostRequest{Title: "Hello world", Content: "long enough body", Tags: []string{"go"}}
	if err := Struct(valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tooManyTags := valid
	tooManyTags.Tags = make([]string, 21)
	for i := range tooManyTags.Tags {
		tooManyTags.Tags[i] = "t"
	}
	if err := Struct(tooManyTags); !errors.Is(err, model.ErrValidation) {
		t.Errorf("21 tags: expected validation error, got %v", err)
	}

	longTag := valid
	longTag.Tags = []string{strings.Repeat("x", 51)}
	if err := Struct(longTag); !errors.Is(err, model.ErrValidation) {
		t.Errorf("51-char tag: expected validation error, got %v", err)
	}

	shortTitle := valid
	shortTitle.Title = "Hi"
	err := Struct(shortTitle)
	var ve *model.ValidationError
	if !errors.As(err, &ve) || ve.Field != "title" {
		t.Errorf("short title: got %v, want title field error", err)
	}
}
