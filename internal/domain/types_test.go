package domain

import "testing"

// TestParseModelSize verifies accepted sizes and normalization.
func TestParseModelSize(t *testing.T) {
	for _, raw := range []string{"tiny", " Base ", "SMALL", "medium", "large"} {
		if _, err := ParseModelSize(raw); err != nil {
			t.Fatalf("ParseModelSize(%q) error = %v", raw, err)
		}
	}

	if _, err := ParseModelSize("huge"); err == nil {
		t.Fatal("expected error for unknown size")
	}
	if _, err := ParseModelSize(""); err == nil {
		t.Fatal("expected error for empty size")
	}
}

// TestSourceKind verifies the union variant detection.
func TestSourceKind(t *testing.T) {
	if got := RemoteSource("https://example.com/v").Kind(); got != SourceKindRemoteURL {
		t.Fatalf("kind = %s, want remote_url", got)
	}
	if got := LocalSource("/media/clip.mp4").Kind(); got != SourceKindLocalFile {
		t.Fatalf("kind = %s, want local_file", got)
	}
}

// TestSourceTitleUsesFileStem verifies local title derivation.
func TestSourceTitleUsesFileStem(t *testing.T) {
	if got := LocalSource("/media/sample.wav").Title(); got != "sample" {
		t.Fatalf("title = %q, want sample", got)
	}
	if got := RemoteSource("https://example.com/v").Title(); got != "" {
		t.Fatalf("title = %q, want empty for remote source", got)
	}
}

// TestNewTranscriptCopiesSegments verifies immutability against the
// caller's slice.
func TestNewTranscriptCopiesSegments(t *testing.T) {
	segments := []Segment{{StartSec: 0, EndSec: 2, Text: "hello"}}
	transcript := NewTranscript("clip", segments)

	segments[0].Text = "mutated"
	if transcript.Segments[0].Text != "hello" {
		t.Fatalf("segment text = %q, want hello", transcript.Segments[0].Text)
	}
}

// TestTranscriptOrdered verifies monotonic start time detection.
func TestTranscriptOrdered(t *testing.T) {
	ordered := NewTranscript("a", []Segment{
		{StartSec: 0, EndSec: 2},
		{StartSec: 2, EndSec: 4},
		{StartSec: 2, EndSec: 5},
	})
	if !ordered.Ordered() {
		t.Fatal("expected ordered transcript")
	}

	unordered := NewTranscript("b", []Segment{
		{StartSec: 3, EndSec: 4},
		{StartSec: 1, EndSec: 2},
	})
	if unordered.Ordered() {
		t.Fatal("expected unordered transcript")
	}
}

// TestWhisperModelForSize verifies catalog lookups cover every size.
func TestWhisperModelForSize(t *testing.T) {
	for _, size := range ModelSizes() {
		model, found := WhisperModelForSize(size)
		if !found {
			t.Fatalf("no catalog entry for %s", size)
		}
		if model.FileName == "" || model.URL == "" {
			t.Fatalf("incomplete catalog entry for %s: %+v", size, model)
		}
	}

	if _, found := WhisperModelForSize("huge"); found {
		t.Fatal("expected no entry for unknown size")
	}
}

// TestJobErrorUnwrap verifies errors.As compatibility of stage errors.
func TestJobErrorUnwrap(t *testing.T) {
	inner := &JobError{Kind: ErrorKindInferenceFailed, Message: "boom"}
	if inner.Error() != "inference_failed: boom" {
		t.Fatalf("error string = %q", inner.Error())
	}

	wrapped := NewJobError(ErrorKindSourceUnavailable, inner, "outer: %s", "detail")
	if wrapped.Kind != ErrorKindSourceUnavailable {
		t.Fatalf("kind = %s", wrapped.Kind)
	}
	if wrapped.Unwrap() != inner {
		t.Fatal("unwrap should expose the inner error")
	}
}
