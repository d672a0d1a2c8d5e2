// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test error creation, wrapping, classification and utility functions

package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/arthur-debert/devsync/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "manifest_invalid",
			code:    errors.ErrManifestInvalid,
			message: "name is required",
			wantStr: "[MANIFEST_INVALID] name is required",
		},
		{
			name:    "path_invalid",
			code:    errors.ErrPathInvalid,
			message: "component name escapes project",
			wantStr: "[PATH_INVALID] component name escapes project",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			if err.Code != tt.code {
				t.Errorf("New() code = %v, want %v", err.Code, tt.code)
			}
			if err.Details == nil {
				t.Error("New() details should be initialized")
			}
			if got := err.Error(); got != tt.wantStr {
				t.Errorf("Error() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	baseErr := stderrors.New("disk full")

	t.Run("wrap_non_nil_error", func(t *testing.T) {
		err := errors.Wrap(baseErr, errors.ErrWrite, "cannot write AGENTS.md")

		if err.Wrapped != baseErr {
			t.Error("Wrap() should preserve wrapped error")
		}
		wantStr := "[WRITE] cannot write AGENTS.md: disk full"
		if got := err.Error(); got != wantStr {
			t.Errorf("Error() = %q, want %q", got, wantStr)
		}
	})

	t.Run("wrap_nil_error_returns_nil", func(t *testing.T) {
		if err := errors.Wrap(nil, errors.ErrWrite, "x"); err != nil {
			t.Error("Wrap(nil) should return nil")
		}
	})

	t.Run("wrapf_formats_message", func(t *testing.T) {
		err := errors.Wrapf(baseErr, errors.ErrBackup, "snapshot %s", "install")
		if err.Message != "snapshot install" {
			t.Errorf("Wrapf() message = %q", err.Message)
		}
	})
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.ErrPathInvalid, "bad name").
		WithDetail("component", "../evil").
		WithDetail("tool", "cursor")

	if err.Details["component"] != "../evil" {
		t.Errorf("WithDetail() component = %v", err.Details["component"])
	}
	if err.Details["tool"] != "cursor" {
		t.Errorf("WithDetail() tool = %v", err.Details["tool"])
	}
}

func TestIs(t *testing.T) {
	err1 := errors.New(errors.ErrTrackerLock, "locked")
	err2 := errors.New(errors.ErrTrackerLock, "still locked")
	err3 := errors.New(errors.ErrTrackerCorrupt, "bad json")

	if !stderrors.Is(err1, err2) {
		t.Error("errors.Is() should match on code")
	}
	if stderrors.Is(err1, err3) {
		t.Error("errors.Is() should not match different codes")
	}
}

func TestIsErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     errors.ErrorCode
		expected bool
	}{
		{"matching_code", errors.New(errors.ErrWrite, "x"), errors.ErrWrite, true},
		{"different_code", errors.New(errors.ErrWrite, "x"), errors.ErrBackup, false},
		{"wrapped_error", errors.Wrap(stderrors.New("base"), errors.ErrRestore, "x"), errors.ErrRestore, true},
		{"standard_error", stderrors.New("plain"), errors.ErrWrite, false},
		{"nil_error", nil, errors.ErrWrite, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.IsErrorCode(tt.err, tt.code); got != tt.expected {
				t.Errorf("IsErrorCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetErrorCode(t *testing.T) {
	if got := errors.GetErrorCode(stderrors.New("plain")); got != errors.ErrUnknown {
		t.Errorf("GetErrorCode() = %v, want UNKNOWN", got)
	}
	if got := errors.GetErrorCode(nil); got != errors.ErrUnknown {
		t.Errorf("GetErrorCode(nil) = %v, want UNKNOWN", got)
	}
	details := errors.GetErrorDetails(errors.New(errors.ErrWrite, "x").WithDetail("path", "a"))
	if details["path"] != "a" {
		t.Errorf("GetErrorDetails() = %v", details)
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		code errors.ErrorCode
		want string
	}{
		{errors.ErrManifestInvalid, "manifest"},
		{errors.ErrPathInvalid, "path"},
		{errors.ErrAdaptation, "adaptation"},
		{errors.ErrConflictUnresolved, "conflict-unresolved"},
		{errors.ErrWrite, "write"},
		{errors.ErrFileLock, "lock"},
		{errors.ErrAbort, "aborted"},
		{errors.ErrTrackerCorrupt, "tracker"},
		{errors.ErrInternal, "internal"},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := errors.Kind(errors.New(tt.code, "x")); got != tt.want {
				t.Errorf("Kind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	if !errors.IsFatal(errors.New(errors.ErrWrite, "x")) {
		t.Error("write errors are fatal for the run")
	}
	if !errors.IsFatal(errors.New(errors.ErrFileLock, "x")) {
		t.Error("a destination held by another run stops the run")
	}
	if !errors.IsFatal(errors.New(errors.ErrTrackerLock, "x")) {
		t.Error("tracker errors are fatal")
	}
	if errors.IsFatal(errors.New(errors.ErrPathInvalid, "x")) {
		t.Error("path errors are per-component")
	}
	if errors.IsFatal(errors.New(errors.ErrAdaptation, "x")) {
		t.Error("adaptation errors are recoverable")
	}
}

func TestErrorChaining(t *testing.T) {
	rootCause := stderrors.New("root cause")
	writeErr := errors.Wrap(rootCause, errors.ErrWrite, "cannot write")
	topErr := errors.Wrap(writeErr, errors.ErrAbort, "install aborted")

	if !errors.IsErrorCode(topErr, errors.ErrAbort) {
		t.Error("top level should have ABORTED code")
	}
	var inner *errors.DevsyncError
	if !stderrors.As(topErr.Unwrap(), &inner) || inner.Code != errors.ErrWrite {
		t.Error("middle error should have WRITE code")
	}
	if !stderrors.Is(topErr, rootCause) {
		t.Error("should find root cause with errors.Is")
	}
}
