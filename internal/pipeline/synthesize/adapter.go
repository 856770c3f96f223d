package synthesize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "media-pipeline/internal/common/errors"
	"media-pipeline/internal/common/logger"
	"media-pipeline/internal/common/metrics"
)

// Request describes one synthesis call. Voice and Rate are optional.
type Request struct {
	Text       string
	Voice      *string
	Rate       *int
	OutputPath string
}

// Adapter applies the voice and rate policy and verifies the written file.
type Adapter struct {
	engine Engine
	logger logger.Logger
}

func NewAdapter(engine Engine, log logger.Logger) *Adapter {
	return &Adapter{
		engine: engine,
		logger: log.WithFields(map[string]interface{}{"component": "synthesizer"}),
	}
}

// Synthesize blocks until the audio is written and returns its path. Voice
// and rate problems are logged and the engine defaults are kept.
func (a *Adapter) Synthesize(ctx context.Context, req Request) (string, error) {
	if req.OutputPath == "" {
		return "", apperrors.NewInvalidInputError("output path is required")
	}

	session := a.engine.NewSession()
	a.applyVoice(ctx, session, req.Voice)

	if req.Rate != nil {
		if err := session.SetRate(*req.Rate); err != nil {
			a.logger.Warn("failed to set speech rate", map[string]interface{}{"rate": *req.Rate, "error": err})
		}
	}

	if dir := filepath.Dir(req.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", apperrors.NewSynthesisError(err)
		}
	}

	if err := session.SaveToFile(ctx, req.Text, req.OutputPath); err != nil {
		metrics.EngineFailures.WithLabelValues("synthesis").Inc()
		return "", apperrors.NewSynthesisError(err)
	}

	info, err := os.Stat(req.OutputPath)
	if err != nil || info.Size() == 0 {
		metrics.EngineFailures.WithLabelValues("synthesis").Inc()
		return "", apperrors.NewSynthesisError(fmt.Errorf("no audio written to %s", req.OutputPath))
	}

	a.logger.Debug("speech synthesized", map[string]interface{}{
		"path":  req.OutputPath,
		"bytes": info.Size(),
		"chars": len(req.Text),
	})
	return req.OutputPath, nil
}

func (a *Adapter) applyVoice(ctx context.Context, session Session, hint *string) {
	voices, err := session.Voices(ctx)
	if err != nil {
		a.logger.Warn("failed to list voices", map[string]interface{}{"error": err})
		return
	}

	voice, ok := SelectVoice(voices, hint)
	if !ok {
		if hint != nil && *hint != "" {
			a.logger.Warn("voice not found, using engine default", map[string]interface{}{"voice": *hint})
		}
		return
	}

	if err := session.SetVoice(voice.ID); err != nil {
		a.logger.Warn("failed to set voice", map[string]interface{}{"voice": voice.ID, "error": err})
	}
}

// SelectVoice picks the first voice whose id or name contains hint,
// case-insensitively. Without a hint it prefers an English voice.
func SelectVoice(voices []Voice, hint *string) (Voice, bool) {
	if hint != nil && strings.TrimSpace(*hint) != "" {
		h := strings.ToLower(strings.TrimSpace(*hint))
		for _, v := range voices {
			if strings.Contains(strings.ToLower(v.ID), h) || strings.Contains(strings.ToLower(v.Name), h) {
				return v, true
			}
		}
		return Voice{}, false
	}

	for _, v := range voices {
		if strings.Contains(strings.ToLower(v.ID), "en") || strings.Contains(strings.ToLower(v.Name), "english") {
			return v, true
		}
	}
	return Voice{}, false
}
