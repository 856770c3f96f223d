package fields

import (
	"context"
	"fmt"
	"strconv"

	"media-pipeline/internal/common/config"
	"media-pipeline/internal/common/runner"
)

// OCREngine recognizes the text in an image file.
type OCREngine interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Tesseract drives the tesseract CLI.
type Tesseract struct {
	cfg    config.TesseractConfig
	runner runner.Runner
}

func NewTesseract(cfg config.TesseractConfig, r runner.Runner) *Tesseract {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &Tesseract{cfg: cfg, runner: r}
}

// Recognize runs `tesseract <file> stdout -l <lang>`.
func (t *Tesseract) Recognize(ctx context.Context, imagePath string) (string, error) {
	args := []string{imagePath, "stdout", "-l", t.cfg.Language}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}

	out, _, err := t.runner.Run(ctx, t.cfg.Binary, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}
