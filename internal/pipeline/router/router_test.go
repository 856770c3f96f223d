package router

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "media-pipeline/internal/common/errors"
	"media-pipeline/internal/common/logger"
	"media-pipeline/internal/common/validation"
	"media-pipeline/internal/pipeline/fields"
	"media-pipeline/internal/pipeline/intent"
	"media-pipeline/internal/pipeline/synthesize"
	"media-pipeline/internal/pipeline/transcribe"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeTranscriber struct {
	result *transcribe.Result
	err    error
}

func (f *fakeTranscriber) Transcribe(context.Context, string) (*transcribe.Result, error) {
	return f.result, f.err
}

type fakeParser struct {
	fields fields.Fields
	err    error
}

func (f *fakeParser) Parse(context.Context, string) (fields.Fields, error) {
	return f.fields, f.err
}

type fakeSynthesizer struct {
	audio    []byte
	err      error
	requests []synthesize.Request
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, req synthesize.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if err := os.WriteFile(req.OutputPath, f.audio, 0o644); err != nil {
		return "", err
	}
	return req.OutputPath, nil
}

const utterance = "Can I book a test drive for the blue BMW X5 tomorrow?"

type fixture struct {
	transcriber *fakeTranscriber
	parser      *fakeParser
	synth       *fakeSynthesizer
}

func newFixture() *fixture {
	return &fixture{
		transcriber: &fakeTranscriber{result: &transcribe.Result{
			Text:       utterance,
			Confidence: 0.8,
			Timestamps: []transcribe.Timestamp{{Start: 0, End: 2.5, Text: utterance}},
		}},
		parser: &fakeParser{fields: fields.Fields{
			fields.FieldName:    "John Doe",
			fields.FieldRawText: "Name: John Doe",
		}},
		synth: &fakeSynthesizer{audio: []byte("RIFF----WAVE")},
	}
}

func (f *fixture) router(t *testing.T, opts Options) *Router {
	return New(Dependencies{
		Transcriber: f.transcriber,
		Parser:      f.parser,
		Intents:     intent.NewExtractor(intent.DefaultTables(), nil),
		Synthesizer: f.synth,
		Validator:   validation.MustNew(),
	}, opts, logger.NewTestLogger(t))
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// ==========================
// Classify Tests
// ==========================

func TestClassify(t *testing.T) {
	tests := []struct {
		path     string
		expected Kind
	}{
		{"a.wav", KindAudio},
		{"a.MP3", KindAudio},
		{"dir/a.m4a", KindAudio},
		{"a.flac", KindAudio},
		{"a.ogg", KindAudio},
		{"a.png", KindImage},
		{"a.JPG", KindImage},
		{"a.jpeg", KindImage},
		{"a.txt", KindText},
		{"a.pdf", KindUnsupported},
		{"noext", KindUnsupported},
		{"archive.txt.gz", KindUnsupported},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Classify(tt.path), tt.path)
	}
}

// ==========================
// File Mode Tests
// ==========================

func TestRoute_AudioFileMode(t *testing.T) {
	f := newFixture()
	out := filepath.Join(t.TempDir(), "out", "result.json")

	res, err := f.router(t, Options{}).Route(context.Background(), Request{
		InputPath:  writeInput(t, "question.wav", "RIFF"),
		OutputPath: out,
	})
	require.NoError(t, err)
	assert.Equal(t, KindAudio, res.Kind)
	assert.Equal(t, out, res.OutputPath)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"transcription\": {"), "JSON must be indented")

	var doc struct {
		Transcription transcribe.Result `json:"transcription"`
		Intent        intent.Result     `json:"intent"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, utterance, doc.Transcription.Text)
	assert.Equal(t, intent.IntentBookTestDrive, doc.Intent.Intent)
	assert.Equal(t, map[string]string{
		intent.ParamCarMake:  "BMW",
		intent.ParamCarModel: "X5",
		intent.ParamColor:    "blue",
		intent.ParamDate:     "tomorrow",
	}, doc.Intent.Params)
}

func TestRoute_ImageFileMode(t *testing.T) {
	f := newFixture()
	out := filepath.Join(t.TempDir(), "fields.json")

	res, err := f.router(t, Options{}).Route(context.Background(), Request{
		InputPath:  writeInput(t, "scan.PNG", "png"),
		OutputPath: out,
	})
	require.NoError(t, err)
	assert.Equal(t, KindImage, res.Kind)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc map[string]string
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "John Doe", doc["name"])
	assert.Equal(t, "Name: John Doe", doc["raw_text"])
}

func TestRoute_TextFileMode(t *testing.T) {
	f := newFixture()
	out := filepath.Join(t.TempDir(), "reply.wav")
	voice, rate := "english", 170

	res, err := f.router(t, Options{}).Route(context.Background(), Request{
		InputPath:  writeInput(t, "msg.txt", "I want to book the red Ford"),
		OutputPath: out,
		Voice:      &voice,
		Rate:       &rate,
	})
	require.NoError(t, err)

	assert.Equal(t, KindText, res.Kind)
	assert.Equal(t, out, res.OutputPath)
	assert.Nil(t, res.Intent, "CLI mode discards the text intent")
	assert.Nil(t, res.Audio)

	require.Len(t, f.synth.requests, 1)
	req := f.synth.requests[0]
	assert.Equal(t, "I want to book the red Ford", req.Text)
	assert.Equal(t, out, req.OutputPath)
	assert.Equal(t, &voice, req.Voice)
	assert.Equal(t, &rate, req.Rate)
	assert.FileExists(t, out)
}

// ==========================
// Memory Mode Tests
// ==========================

func TestRoute_AudioMemoryMode(t *testing.T) {
	f := newFixture()

	res, err := f.router(t, Options{Output: OutputMemory}).Route(context.Background(), Request{
		InputPath: writeInput(t, "q.ogg", "OggS"),
	})
	require.NoError(t, err)

	payload, ok := res.Payload.(AudioPayload)
	require.True(t, ok)
	assert.Equal(t, 0.8, payload.Transcription.Confidence)
	assert.Equal(t, intent.IntentBookTestDrive, payload.Intent.Intent)
	assert.Empty(t, res.OutputPath)
}

func TestRoute_TextMemoryModeExposesIntent(t *testing.T) {
	f := newFixture()

	res, err := f.router(t, Options{Output: OutputMemory, Intent: IntentExpose}).Route(context.Background(), Request{
		InputPath: writeInput(t, "msg.txt", "Please tell me about the Toyota Corolla"),
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("RIFF----WAVE"), res.Audio)
	require.NotNil(t, res.Intent)
	assert.Equal(t, intent.IntentGetInformation, res.Intent.Intent)
	assert.Equal(t, "Toyota", res.Intent.Params[intent.ParamCarMake])

	require.Len(t, f.synth.requests, 1)
	_, statErr := os.Stat(filepath.Dir(f.synth.requests[0].OutputPath))
	assert.True(t, os.IsNotExist(statErr), "temporary WAV directory must be removed")
}

// ==========================
// Error Tests
// ==========================

func TestRoute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		setup    func(f *fixture)
		input    func(t *testing.T) string
		output   string
		expected error
	}{
		{
			name:     "unsupported extension",
			input:    func(t *testing.T) string { return writeInput(t, "doc.pdf", "%PDF") },
			output:   "out.json",
			expected: apperrors.ErrUnsupportedFileType,
		},
		{
			name:     "missing output path in file mode",
			input:    func(t *testing.T) string { return writeInput(t, "a.wav", "RIFF") },
			expected: apperrors.ErrInvalidInput,
		},
		{
			name:     "missing text input",
			input:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "gone.txt") },
			output:   "out.wav",
			expected: apperrors.ErrFileNotFound,
		},
		{
			name:     "transcription failure",
			setup:    func(f *fixture) { f.transcriber.err = apperrors.NewTranscriptionError(errors.New("boom")) },
			input:    func(t *testing.T) string { return writeInput(t, "a.wav", "RIFF") },
			output:   "out.json",
			expected: apperrors.ErrTranscription,
		},
		{
			name:     "ocr failure",
			setup:    func(f *fixture) { f.parser.err = apperrors.NewOCRError(errors.New("bad image")) },
			input:    func(t *testing.T) string { return writeInput(t, "a.jpg", "jpg") },
			output:   "out.json",
			expected: apperrors.ErrOCR,
		},
		{
			name:     "synthesis failure",
			opts:     Options{Output: OutputMemory},
			setup:    func(f *fixture) { f.synth.err = apperrors.NewSynthesisError(errors.New("no voice")) },
			input:    func(t *testing.T) string { return writeInput(t, "a.txt", "hello") },
			expected: apperrors.ErrSynthesis,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.setup != nil {
				tt.setup(f)
			}
			out := tt.output
			if out != "" {
				out = filepath.Join(t.TempDir(), out)
			}

			res, err := f.router(t, tt.opts).Route(context.Background(), Request{InputPath: tt.input(t), OutputPath: out})

			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.expected)
			if out != "" {
				assert.NoFileExists(t, out)
			}
		})
	}
}

func TestRoute_InvalidPayloadRejected(t *testing.T) {
	f := newFixture()
	f.parser.fields = fields.Fields{fields.FieldName: "missing raw text"}
	out := filepath.Join(t.TempDir(), "fields.json")

	_, err := f.router(t, Options{}).Route(context.Background(), Request{
		InputPath:  writeInput(t, "scan.png", "png"),
		OutputPath: out,
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeOutputValidationFailed, apperrors.CodeOf(err))
	assert.NoFileExists(t, out)
}

func TestRoute_NoAdapterCalledForUnsupported(t *testing.T) {
	f := newFixture()

	_, err := f.router(t, Options{Output: OutputMemory}).Route(context.Background(), Request{InputPath: "clip.aac"})

	require.Error(t, err)
	assert.Empty(t, f.synth.requests)
}
