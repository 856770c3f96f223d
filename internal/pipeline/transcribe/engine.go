package transcribe

import "context"

// Segment is one time-bounded span produced by a speech engine. AvgLogprob
// is nil when the engine does not score the segment.
type Segment struct {
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Text       string   `json:"text"`
	AvgLogprob *float64 `json:"avg_logprob,omitempty"`
}

// Transcript is the raw engine output before normalization.
type Transcript struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// Engine turns an audio file into a raw transcript.
type Engine interface {
	Transcribe(ctx context.Context, audioPath string) (*Transcript, error)
}
