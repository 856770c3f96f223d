package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"media-pipeline/internal/common/cache"
	"media-pipeline/internal/common/config"
	"media-pipeline/internal/common/logger"
	"media-pipeline/internal/common/observability"
	"media-pipeline/internal/common/runner"
	"media-pipeline/internal/common/validation"
	"media-pipeline/internal/pipeline/fields"
	"media-pipeline/internal/pipeline/intent"
	"media-pipeline/internal/pipeline/router"
	"media-pipeline/internal/pipeline/synthesize"
	"media-pipeline/internal/pipeline/transcribe"
)

// app holds the process-wide collaborators shared by every command.
type app struct {
	cfg   *config.Config
	zap   *zap.Logger
	log   logger.Logger
	obs   *observability.Observability
	cache *cache.RedisClient
}

func newApp(configPath string) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.NewZapAdapter(zapLog)

	a := &app{
		cfg: cfg,
		zap: zapLog,
		log: log,
		obs: observability.New(cfg.Observability, log),
	}
	if cfg.Cache.Enabled {
		a.cache = cache.NewRedis(cfg.Cache.Redis)
	}
	return a, nil
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("failed to close redis", map[string]interface{}{"error": err.Error()})
		}
	}
	a.obs.Shutdown()
	_ = a.zap.Sync()
}

// newRouter wires the engine adapters behind a Router.
func (a *app) newRouter(opts router.Options) *router.Router {
	exec := runner.NewExec(a.log).WithTimeout(config.GetDuration(a.cfg.Engines.Timeout))

	var speech transcribe.Engine = transcribe.NewWhisper(a.cfg.Engines.Whisper, exec)
	if a.cache != nil {
		ttl := time.Duration(a.cfg.Cache.TTL) * time.Second
		speech = transcribe.NewCachedEngine(speech, a.cache, ttl, a.log)
	}

	parser := fields.NewDocumentParser(
		fields.NewTesseract(a.cfg.Engines.Tesseract, exec),
		nil,
		a.cfg.Engines.Image.Threshold,
		a.log,
	)

	return router.New(router.Dependencies{
		Transcriber:   transcribe.NewAdapter(speech, a.log),
		Parser:        parser,
		Intents:       intent.NewExtractor(intent.FromConfig(a.cfg.Intent), intent.NewWhenRecognizer()),
		Synthesizer:   synthesize.NewAdapter(synthesize.NewESpeak(a.cfg.Engines.Speech, exec), a.log),
		Validator:     validation.MustNew(),
		Observability: a.obs,
	}, opts, a.log)
}

// cacheCheck is the readiness probe for the optional transcript cache.
func (a *app) cacheCheck(ctx context.Context) error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Ping(ctx)
}
