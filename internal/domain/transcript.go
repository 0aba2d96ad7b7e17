package domain

import "strings"

// Segment is one contiguous timed span of transcribed speech.
type Segment struct {
	StartSec float64 `json:"startSec"`
	EndSec   float64 `json:"endSec"`
	Text     string  `json:"text"`
}

// Transcript is the ordered segment sequence produced by one job.
type Transcript struct {
	SourceTitle string    `json:"sourceTitle"`
	Segments    []Segment `json:"segments"`
}

// NewTranscript copies segments so the result stays immutable for callers.
func NewTranscript(title string, segments []Segment) Transcript {
	copied := make([]Segment, len(segments))
	copy(copied, segments)
	return Transcript{
		SourceTitle: strings.TrimSpace(title),
		Segments:    copied,
	}
}

// Empty reports whether the transcript carries no segments at all.
func (t Transcript) Empty() bool {
	return len(t.Segments) == 0
}

// Ordered reports whether segment start times are monotonic non-decreasing.
func (t Transcript) Ordered() bool {
	for i := 1; i < len(t.Segments); i++ {
		if t.Segments[i].StartSec < t.Segments[i-1].StartSec {
			return false
		}
	}
	return true
}
