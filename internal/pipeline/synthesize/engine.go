package synthesize

import "context"

// Voice is one engine voice.
type Voice struct {
	ID   string
	Name string
}

// Session holds per-call engine state. Sessions are not shared between
// calls.
type Session interface {
	Voices(ctx context.Context) ([]Voice, error)
	SetVoice(id string) error
	SetRate(rate int) error
	SaveToFile(ctx context.Context, text, outputPath string) error
}

// Engine creates fresh sessions.
type Engine interface {
	NewSession() Session
}
