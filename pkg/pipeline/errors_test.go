package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_IsMatchesCode(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("finish: %w", NewError(CodeEncoderFinalize, cause))

	if !errors.Is(err, ErrEncoderFinalize) {
		t.Error("expected match on ErrEncoderFinalize")
	}
	if errors.Is(err, ErrFrameAppend) {
		t.Error("unexpected match on ErrFrameAppend")
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
	if CodeOf(err) != CodeEncoderFinalize {
		t.Errorf("CodeOf = %v", CodeOf(err))
	}
	if CodeOf(cause) != CodeUnknown {
		t.Errorf("CodeOf(plain) = %v, want unknown", CodeOf(cause))
	}
}

func TestError_Messages(t *testing.T) {
	err := NewError(CodeIncompatibleFormat, nil)
	if err.Error() != "imageseq: "+err.Description() {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.FailureReason() == "" || err.RecoverySuggestion() == "" {
		t.Error("reason and suggestion should be set")
	}

	wrapped := NewError(CodeLocalPath, errors.New("permission denied"))
	if !strings.HasSuffix(wrapped.Error(), ": permission denied") {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}

func TestCode_String(t *testing.T) {
	seen := map[string]Code{}
	for c := CodeUnknown; c <= CodeCancelled; c++ {
		s := c.String()
		if prev, ok := seen[s]; ok {
			t.Errorf("codes %d and %d share %q", prev, c, s)
		}
		seen[s] = c
	}
}
