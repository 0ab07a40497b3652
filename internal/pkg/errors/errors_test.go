package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "invalid input")

	if err.Code != CodeValidation {
		t.Errorf("expected code=%s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "invalid input" {
		t.Errorf("expected message='invalid input', got %s", err.Message)
	}
	if len(err.Stack) == 0 {
		t.Error("expected stack trace to be captured")
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name:     "simple error",
			err:      New(CodeValidation, "invalid"),
			contains: []string{"VALIDATION_ERROR", "invalid"},
		},
		{
			name: "error with op",
			err: &Error{
				Code:    CodeInternal,
				Message: "publish failed",
				Op:      "videos.publish",
			},
			contains: []string{"videos.publish", "INTERNAL_ERROR", "publish failed"},
		},
		{
			name:     "fetch failure",
			err:      FetchFailed("https://example.com/a.png", fmt.Errorf("connection refused")),
			contains: []string{"fetcher.fetch", "FETCH_FAILED", "connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			str := tt.err.Error()
			for _, c := range tt.contains {
				if !strings.Contains(str, c) {
					t.Errorf("expected error string to contain %q, got: %s", c, str)
				}
			}
		})
	}
}

func TestWrap(t *testing.T) {
	original := fmt.Errorf("original error")
	wrapped := Wrap(original, "storage.put", "storage put failed")

	if wrapped.Code != CodeInternal {
		t.Errorf("expected code=%s, got %s", CodeInternal, wrapped.Code)
	}
	if wrapped.Op != "storage.put" {
		t.Errorf("expected op='storage.put', got %s", wrapped.Op)
	}
	if errors.Unwrap(wrapped) != original {
		t.Error("Unwrap should return original error")
	}
	if Wrap(nil, "op", "message") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrapPreservesCode(t *testing.T) {
	original := FetchFailed("https://example.com", fmt.Errorf("boom"))
	wrapped := Wrap(original, "processor.fetch", "fetch stage failed")

	if wrapped.Code != CodeFetch {
		t.Errorf("expected code to be preserved as %s, got %s", CodeFetch, wrapped.Code)
	}
	if wrapped.Fields["url"] != "https://example.com" {
		t.Errorf("expected fields to be preserved, got %v", wrapped.Fields)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeValidation, 400},
		{CodeBadRequest, 400},
		{CodeNotFound, 404},
		{CodeRateLimited, 429},
		{CodeInternal, 500},
		{CodeRender, 500},
		{CodeResource, 500},
		{CodeFetch, 502},
		{CodeUnavailable, 503},
		{CodeTimeout, 504},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New(tt.code, "test")
			if err.HTTPStatus() != tt.status {
				t.Errorf("expected status=%d, got %d", tt.status, err.HTTPStatus())
			}
		})
	}
}

func TestDomainConstructors(t *testing.T) {
	t.Run("RenderFailed", func(t *testing.T) {
		err := RenderFailed(1, "boom")
		if err.Code != CodeRender {
			t.Errorf("expected code=%s, got %s", CodeRender, err.Code)
		}
		if err.Fields["exit_code"] != 1 || err.Fields["stderr"] != "boom" {
			t.Errorf("unexpected fields: %v", err.Fields)
		}
	})

	t.Run("ResourceFailed", func(t *testing.T) {
		cause := fmt.Errorf("permission denied")
		err := ResourceFailed("scratch.release", "/tmp/x", cause)
		if err.Code != CodeResource {
			t.Errorf("expected code=%s, got %s", CodeResource, err.Code)
		}
		if !errors.Is(err, cause) {
			t.Error("expected cause to be reachable through Unwrap")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound("video", "vid_123")
		if err.Fields["resource"] != "video" || err.Fields["id"] != "vid_123" {
			t.Errorf("unexpected fields: %v", err.Fields)
		}
	})

	t.Run("ValidationField", func(t *testing.T) {
		err := ValidationField("clips", "at least one clip is required")
		if !IsValidation(err) {
			t.Error("expected validation code")
		}
		if err.Fields["field"] != "clips" {
			t.Errorf("expected field='clips', got %v", err.Fields["field"])
		}
	})
}

func TestLogArgs(t *testing.T) {
	err := RenderFailed(2, "bad input")
	args := err.LogArgs()

	got := map[string]any{}
	for i := 0; i+1 < len(args); i += 2 {
		got[args[i].(string)] = args[i+1]
	}
	if got["code"] != string(CodeRender) {
		t.Errorf("expected code in log args, got %v", got)
	}
	if got["exit_code"] != 2 {
		t.Errorf("expected exit_code in log args, got %v", got)
	}
}

func TestGetCode(t *testing.T) {
	if GetCode(New(CodeNotFound, "x")) != CodeNotFound {
		t.Error("expected NOT_FOUND")
	}
	if GetCode(fmt.Errorf("plain")) != CodeInternal {
		t.Error("expected INTERNAL_ERROR for plain error")
	}
	wrapped := fmt.Errorf("outer: %w", Validation("bad"))
	if GetCode(wrapped) != CodeValidation {
		t.Error("expected code through fmt wrapping")
	}
	if GetHTTPStatus(fmt.Errorf("plain")) != 500 {
		t.Error("expected 500 for plain error")
	}
	if GetFields(fmt.Errorf("plain")) != nil {
		t.Error("expected nil fields for plain error")
	}
}

func TestErrorIs(t *testing.T) {
	err1 := New(CodeFetch, "error 1")
	err2 := New(CodeFetch, "error 2")
	err3 := New(CodeRender, "error 3")

	if !errors.Is(err1, err2) {
		t.Error("expected errors with same code to match with Is")
	}
	if errors.Is(err1, err3) {
		t.Error("expected errors with different codes to not match")
	}
}

func TestStackTrace(t *testing.T) {
	stack := Internal("test error").StackTrace()
	if !strings.Contains(stack, ".go:") {
		t.Errorf("expected stack trace to contain file references, got: %s", stack)
	}
}
