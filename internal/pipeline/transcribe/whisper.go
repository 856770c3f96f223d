package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"media-pipeline/internal/common/config"
	"media-pipeline/internal/common/runner"
)

// Whisper drives the openai-whisper CLI and reads back its JSON output.
type Whisper struct {
	cfg    config.WhisperConfig
	runner runner.Runner
}

func NewWhisper(cfg config.WhisperConfig, r runner.Runner) *Whisper {
	if cfg.Binary == "" {
		cfg.Binary = "whisper"
	}
	if cfg.Model == "" {
		cfg.Model = "base"
	}
	return &Whisper{cfg: cfg, runner: r}
}

func (w *Whisper) Transcribe(ctx context.Context, audioPath string) (*Transcript, error) {
	outDir, err := os.MkdirTemp("", "whisper-*")
	if err != nil {
		return nil, fmt.Errorf("whisper: create output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	if _, _, err := w.runner.Run(ctx, w.cfg.Binary, w.args(audioPath, outDir)...); err != nil {
		return nil, fmt.Errorf("whisper: %w", err)
	}

	raw, err := os.ReadFile(filepath.Join(outDir, outputName(audioPath)))
	if err != nil {
		return nil, fmt.Errorf("whisper: read output: %w", err)
	}
	return parseWhisperJSON(raw)
}

func (w *Whisper) args(audioPath, outDir string) []string {
	args := []string{
		audioPath,
		"--model", w.cfg.Model,
		"--output_format", "json",
		"--output_dir", outDir,
		"--word_timestamps", "True",
		"--verbose", "False",
	}
	if w.cfg.Language != "" {
		args = append(args, "--language", w.cfg.Language)
	}
	return args
}

// outputName mirrors whisper's naming: input stem plus .json.
func outputName(audioPath string) string {
	base := filepath.Base(audioPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
}

func parseWhisperJSON(raw []byte) (*Transcript, error) {
	var t Transcript
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("whisper: decode output: %w", err)
	}
	t.Text = strings.TrimSpace(t.Text)
	for i := range t.Segments {
		t.Segments[i].Text = strings.TrimSpace(t.Segments[i].Text)
	}
	return &t, nil
}
