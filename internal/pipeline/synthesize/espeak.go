package synthesize

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"media-pipeline/internal/common/config"
	"media-pipeline/internal/common/runner"
)

const (
	MinRate = 80
	MaxRate = 450
)

// ESpeak drives the espeak-ng CLI.
type ESpeak struct {
	binary string
	runner runner.Runner
}

func NewESpeak(cfg config.SpeechConfig, r runner.Runner) *ESpeak {
	binary := cfg.Binary
	if binary == "" {
		binary = "espeak-ng"
	}
	return &ESpeak{binary: binary, runner: r}
}

func (e *ESpeak) NewSession() Session {
	return &espeakSession{binary: e.binary, runner: e.runner}
}

type espeakSession struct {
	binary string
	runner runner.Runner
	voice  string
	rate   int
}

func (s *espeakSession) Voices(ctx context.Context) ([]Voice, error) {
	out, _, err := s.runner.Run(ctx, s.binary, "--voices")
	if err != nil {
		return nil, fmt.Errorf("espeak-ng: list voices: %w", err)
	}
	return parseVoices(out), nil
}

func (s *espeakSession) SetVoice(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("espeak-ng: empty voice id")
	}
	s.voice = id
	return nil
}

func (s *espeakSession) SetRate(rate int) error {
	if rate < MinRate || rate > MaxRate {
		return fmt.Errorf("espeak-ng: rate %d out of range [%d, %d]", rate, MinRate, MaxRate)
	}
	s.rate = rate
	return nil
}

// SaveToFile passes the text through a temp file so leading dashes and
// long inputs survive argument parsing.
func (s *espeakSession) SaveToFile(ctx context.Context, text, outputPath string) error {
	in, err := os.CreateTemp("", "tts-*.txt")
	if err != nil {
		return fmt.Errorf("espeak-ng: create input: %w", err)
	}
	defer os.Remove(in.Name())

	_, err = in.WriteString(text)
	if closeErr := in.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("espeak-ng: write input: %w", err)
	}

	if _, _, err := s.runner.Run(ctx, s.binary, s.args(in.Name(), outputPath)...); err != nil {
		return fmt.Errorf("espeak-ng: %w", err)
	}
	return nil
}

func (s *espeakSession) args(inputPath, outputPath string) []string {
	var args []string
	if s.voice != "" {
		args = append(args, "-v", s.voice)
	}
	if s.rate > 0 {
		args = append(args, "-s", strconv.Itoa(s.rate))
	}
	return append(args, "-w", outputPath, "-f", inputPath)
}

// parseVoices reads the `espeak-ng --voices` table:
//
//	Pty Language  Age/Gender VoiceName               File    Other Languages
//	 2  en-gb           --/M      English_(Great_Britain) gmw/en  (en 2)
func parseVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) < 4 || f[0] == "Pty" {
			continue
		}
		if _, err := strconv.Atoi(f[0]); err != nil {
			continue
		}
		voices = append(voices, Voice{
			ID:   f[1],
			Name: strings.ReplaceAll(f[3], "_", " "),
		})
	}
	return voices
}
