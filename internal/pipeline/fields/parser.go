package fields

import (
	"context"
	"os"

	apperrors "media-pipeline/internal/common/errors"
	"media-pipeline/internal/common/logger"
	"media-pipeline/internal/common/metrics"
)

// DocumentParser runs pre-processing, OCR and field extraction on an image.
type DocumentParser struct {
	engine    OCREngine
	extractor *Extractor
	threshold uint8
	logger    logger.Logger
}

func NewDocumentParser(engine OCREngine, extractor *Extractor, threshold int, log logger.Logger) *DocumentParser {
	if extractor == nil {
		extractor = NewExtractor(nil)
	}
	if threshold <= 0 || threshold > 255 {
		threshold = DefaultThreshold
	}
	return &DocumentParser{
		engine:    engine,
		extractor: extractor,
		threshold: uint8(threshold),
		logger:    log.WithFields(map[string]interface{}{"component": "document-parser"}),
	}
}

// Parse fails with FILE_NOT_FOUND for a missing path and OCR_FAILED for
// any decode or recognition failure.
func (p *DocumentParser) Parse(ctx context.Context, imagePath string) (Fields, error) {
	if info, err := os.Stat(imagePath); err != nil || info.IsDir() {
		return nil, apperrors.NewFileNotFoundError(imagePath)
	}

	tmp, err := os.CreateTemp("", "ocr-*.png")
	if err != nil {
		return nil, apperrors.NewOCRError(err)
	}
	defer os.Remove(tmp.Name())

	err = PreprocessFile(imagePath, tmp, p.threshold)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		metrics.EngineFailures.WithLabelValues("image").Inc()
		return nil, apperrors.NewOCRError(err)
	}

	text, err := p.engine.Recognize(ctx, tmp.Name())
	if err != nil {
		metrics.EngineFailures.WithLabelValues("ocr").Inc()
		return nil, apperrors.NewOCRError(err)
	}

	fields := p.extractor.ExtractFields(text)
	p.logger.Debug("document parsed", map[string]interface{}{
		"path":       imagePath,
		"fieldCount": len(fields) - 1,
		"textLength": len(text),
	})
	return fields, nil
}
