package synthesize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "media-pipeline/internal/common/errors"
	"media-pipeline/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeSession struct {
	voices    []Voice
	voicesErr error
	rateErr   error
	saveErr   error
	payload   []byte

	voice string
	rate  int
	text  string
}

func (s *fakeSession) Voices(context.Context) ([]Voice, error) { return s.voices, s.voicesErr }

func (s *fakeSession) SetVoice(id string) error {
	s.voice = id
	return nil
}

func (s *fakeSession) SetRate(rate int) error {
	if s.rateErr != nil {
		return s.rateErr
	}
	s.rate = rate
	return nil
}

func (s *fakeSession) SaveToFile(_ context.Context, text, path string) error {
	s.text = text
	if s.saveErr != nil {
		return s.saveErr
	}
	return os.WriteFile(path, s.payload, 0o644)
}

type fakeEngine struct {
	session  *fakeSession
	sessions int
}

func (e *fakeEngine) NewSession() Session {
	e.sessions++
	return e.session
}

var testVoices = []Voice{
	{ID: "af", Name: "Afrikaans"},
	{ID: "de", Name: "German"},
	{ID: "en-gb", Name: "English (Great Britain)"},
	{ID: "en-us", Name: "English (America)"},
	{ID: "fr-fr", Name: "French"},
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// ==========================
// Adapter Tests
// ==========================

func TestAdapter_Synthesize(t *testing.T) {
	session := &fakeSession{voices: testVoices, payload: []byte("RIFF")}
	engine := &fakeEngine{session: session}
	a := NewAdapter(engine, logger.NewTestLogger(t))

	out := filepath.Join(t.TempDir(), "nested", "dir", "reply.wav")
	got, err := a.Synthesize(context.Background(), Request{
		Text:       "Booking your test drive",
		Voice:      strPtr("FRENCH"),
		Rate:       intPtr(160),
		OutputPath: out,
	})
	require.NoError(t, err)

	assert.Equal(t, out, got)
	assert.Equal(t, "fr-fr", session.voice)
	assert.Equal(t, 160, session.rate)
	assert.Equal(t, "Booking your test drive", session.text)
	assert.Equal(t, 1, engine.sessions)
	assert.FileExists(t, out)
}

func TestAdapter_VoicePolicy(t *testing.T) {
	tests := []struct {
		name     string
		voices   []Voice
		hint     *string
		expected string
	}{
		{"hint matches id", testVoices, strPtr("en-us"), "en-us"},
		{"hint matches name", testVoices, strPtr("german"), "de"},
		{"first match wins", testVoices, strPtr("english"), "en-gb"},
		{"unknown hint keeps default", testVoices, strPtr("klingon"), ""},
		{"no hint prefers english", testVoices, nil, "en-gb"},
		{"blank hint prefers english", testVoices, strPtr("  "), "en-gb"},
		{"no english voice keeps default", []Voice{{ID: "de", Name: "German"}}, nil, ""},
		{"no voices", nil, strPtr("english"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &fakeSession{voices: tt.voices, payload: []byte("RIFF")}
			a := NewAdapter(&fakeEngine{session: session}, logger.NewTestLogger(t))

			_, err := a.Synthesize(context.Background(), Request{
				Text:       "hi",
				Voice:      tt.hint,
				OutputPath: filepath.Join(t.TempDir(), "out.wav"),
			})

			require.NoError(t, err)
			assert.Equal(t, tt.expected, session.voice)
		})
	}
}

func TestAdapter_SoftFailures(t *testing.T) {
	session := &fakeSession{
		voicesErr: errors.New("voices unavailable"),
		rateErr:   errors.New("rate out of range"),
		payload:   []byte("RIFF"),
	}
	a := NewAdapter(&fakeEngine{session: session}, logger.NewTestLogger(t))

	got, err := a.Synthesize(context.Background(), Request{
		Text:       "hello",
		Voice:      strPtr("english"),
		Rate:       intPtr(9999),
		OutputPath: filepath.Join(t.TempDir(), "out.wav"),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.Empty(t, session.voice)
	assert.Zero(t, session.rate)
}

func TestAdapter_SynthesizeErrors(t *testing.T) {
	tests := []struct {
		name     string
		session  *fakeSession
		output   string
		expected error
	}{
		{"engine failure", &fakeSession{saveErr: errors.New("no audio device")}, "out.wav", apperrors.ErrSynthesis},
		{"empty output file", &fakeSession{payload: nil}, "out.wav", apperrors.ErrSynthesis},
		{"missing output path", &fakeSession{payload: []byte("RIFF")}, "", apperrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAdapter(&fakeEngine{session: tt.session}, logger.NewTestLogger(t))
			out := tt.output
			if out != "" {
				out = filepath.Join(t.TempDir(), out)
			}

			got, err := a.Synthesize(context.Background(), Request{Text: "hi", OutputPath: out})

			require.Error(t, err)
			assert.Empty(t, got)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}
