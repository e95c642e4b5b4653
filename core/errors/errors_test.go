package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "document", ID: "abc"},
			wantMsg:  "document not found: abc",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "document"},
			wantMsg:  "document not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("disk error")
		err := &NotFoundError{Resource: "file", ID: "tune.txt", Err: underlyingErr}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ValidationError
		wantMsg string
	}{
		{
			name:    "with field",
			err:     NewValidation("system", "unknown notation system"),
			wantMsg: "validation failed for system: unknown notation system",
		},
		{
			name:    "without field",
			err:     &ValidationError{Message: "empty body"},
			wantMsg: "validation failed: empty body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Errorf("expected error to match ErrInvalidInput")
			}
		})
	}
}

func TestIOError(t *testing.T) {
	base := fmt.Errorf("permission denied")
	err := NewIO("read", "/tmp/tune.txt", base)
	if got, want := err.Error(), "failed to read /tmp/tune.txt: permission denied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, base) {
		t.Errorf("expected IOError to unwrap to base error")
	}

	noPath := &IOError{Operation: "write", Err: base}
	if got, want := noPath.Error(), "failed to write: permission denied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestParseAndUnsupportedErrors(t *testing.T) {
	pe := NewParse("JSON", "doc-1", "unexpected end of input")
	if got, want := pe.Error(), "failed to parse JSON at doc-1: unexpected end of input"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(pe, ErrInvalidInput) {
		t.Errorf("expected ParseError to match ErrInvalidInput")
	}

	ue := NewUnsupported("notation system", "solfege is not recognized")
	if got, want := ue.Error(), "unsupported notation system: solfege is not recognized"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(ue, ErrUnsupported) {
		t.Errorf("expected UnsupportedError to match ErrUnsupported")
	}
}

func TestStructuralParseError(t *testing.T) {
	err := NewStructural(3, 7, "unrecognized character %q", "x")
	if got, want := err.Error(), `3:7: unrecognized character "x"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrStructural) {
		t.Errorf("expected ErrStructural")
	}

	lexErr := fmt.Errorf("lexer: invalid input text")
	err.Err = lexErr
	if !errors.Is(err, ErrStructural) {
		t.Errorf("expected ErrStructural with underlying error")
	}
	if !errors.Is(err, lexErr) {
		t.Errorf("expected underlying lexer error to be reachable")
	}

	wrapped := fmt.Errorf("stave 2: %w", err)
	var target *StructuralParseError
	if !As(wrapped, &target) {
		t.Fatalf("As() failed to find StructuralParseError")
	}
	if target.Line != 3 || target.Column != 7 {
		t.Errorf("position = %d:%d, want 3:7", target.Line, target.Column)
	}
}

func TestRhythmError(t *testing.T) {
	err := NewRhythm(1, 2, 5, "dash has no note to extend")
	if got, want := err.Error(), "2:5: beat 2: dash has no note to extend"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrRhythm) {
		t.Errorf("expected ErrRhythm")
	}
}

func TestAssignmentInternalError(t *testing.T) {
	err := &AssignmentInternalError{Line: 1, Column: 4, Value: "."}
	if got, want := err.Error(), `1:4: annotation token "." was never consumed`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInternal) {
		t.Errorf("expected ErrInternal")
	}
	if errors.Is(err, ErrStructural) {
		t.Errorf("internal errors must not look like user errors")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Errorf("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Errorf("Wrapf(nil) should return nil")
	}

	base := NewNotFound("document", "x")
	wrapped := Wrapf(base, "load %s", "x")
	if got, want := wrapped.Error(), "load x: document not found: x"; got != want {
		t.Errorf("Wrapf() = %q, want %q", got, want)
	}
	if !Is(wrapped, ErrNotFound) {
		t.Errorf("wrapped error should match ErrNotFound")
	}
	if got, want := Wrap(base, "store").Error(), "store: document not found: x"; got != want {
		t.Errorf("Wrap() = %q, want %q", got, want)
	}
}
