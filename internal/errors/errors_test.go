package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "invalid pattern",
			code:    CodeInvalidPattern,
			wantMsg: "Invalid route pattern",
			wantCat: CategoryConfig,
		},
		{
			name:    "no route",
			code:    CodeNoRouteFound,
			wantMsg: "No route found",
			wantCat: CategoryRuntime,
		},
		{
			name:    "duplicate state",
			code:    CodeDuplicateState,
			wantMsg: "Duplicate history state",
			wantCat: CategoryValidation,
		},
		{
			name:    "unknown error code",
			code:    "R999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := New(CodeNoRouteFound).WithDetail(`path "/nope"`)
	wrapped := fmt.Errorf("resolve: %w", err)

	if !Is(wrapped, ErrNoRouteFound) {
		t.Error("wrapped error should match ErrNoRouteFound")
	}
	if Is(wrapped, ErrNotConfigured) {
		t.Error("wrapped error should not match ErrNotConfigured")
	}
	if got := CodeOf(wrapped); got != CodeNoRouteFound {
		t.Errorf("CodeOf = %q, want %q", got, CodeNoRouteFound)
	}
	if CodeOf(fmt.Errorf("plain")) != "" {
		t.Error("CodeOf(plain) should be empty")
	}
}

func TestErrorString(t *testing.T) {
	err := New(CodeInvalidPattern).WithDetail("/a/**/b")
	want := "R001: Invalid route pattern: /a/**/b"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	cause := fmt.Errorf("disk full")
	err = New(CodeStorageCorruption).Wrap(cause)
	if !strings.HasSuffix(err.Error(), "disk full") {
		t.Errorf("Error() = %q, want cause suffix", err.Error())
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeInvalidRoute) != nil {
		t.Error("FromError(nil) should be nil")
	}

	orig := New(CodeDuplicateState)
	if got := FromError(fmt.Errorf("push: %w", orig), CodeInvalidRoute); got != orig {
		t.Error("FromError should return the RouterError already in the chain")
	}

	plain := fmt.Errorf("boom")
	got := FromError(plain, CodeInvalidRoute)
	if got.Code != CodeInvalidRoute || got.Wrapped != plain {
		t.Errorf("FromError(plain) = %+v", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	out := New(CodeNoRouteFound).WithDetail(`path "/x"`).Format()
	for _, want := range []string{"ERROR R003: No route found", `path "/x"`, "Hint:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q longer than width", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText(\"\") should be nil")
	}
}
