package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/coursechat/internal/config"
	"github.com/markdave123-py/coursechat/internal/core"
	"github.com/markdave123-py/coursechat/internal/core/chat"
	db "github.com/markdave123-py/coursechat/internal/core/database"
	"github.com/markdave123-py/coursechat/internal/core/extraction"
	"github.com/markdave123-py/coursechat/internal/core/fetcher"
	"github.com/markdave123-py/coursechat/internal/core/llm"
	objectclient "github.com/markdave123-py/coursechat/internal/core/object-client"
	"github.com/markdave123-py/coursechat/internal/observability/metrics"
	"github.com/markdave123-py/coursechat/internal/services"
)

type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	Gemini       *llm.GeminiClient
	Server       *Server
	logger       *zap.Logger
}

// NewApp connects the database and wires the optional S3 and Gemini clients.
// Missing S3 disables uploads; missing Gemini disables chat.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg, logger.Named("db"))
	if err != nil {
		return nil, err
	}
	logger.Info("database initialized and ready")

	a := &App{DBClient: dbClient, logger: logger}

	var objects core.ObjectClient
	if s3Client, err := objectclient.NewS3Client(appCtx, cfg, logger.Named("s3")); err != nil {
		logger.Warn("object storage disabled", zap.Error(err))
	} else {
		objects = s3Client
		a.ObjectClient = s3Client
	}

	var ai core.AIClient
	gemini, err := llm.NewGeminiClient(appCtx, cfg.AIAPIKey, llm.Options{
		Model:         cfg.GenModel,
		GenTimeout:    cfg.GenTimeout,
		UploadTimeout: cfg.UploadTimeout,
		DeleteTimeout: cfg.DeleteTimeout,
	}, logger)
	if err != nil {
		logger.Warn("generative AI disabled, chat will report service unavailable", zap.Error(err))
	} else {
		ai = gemini
		a.Gemini = gemini
	}

	m := metrics.New("coursechat")

	f := fetcher.New(fetcher.Options{
		Timeout:  cfg.FetchTimeout,
		MaxBytes: cfg.FetchMaxBytes,
		Objects:  objects,
		Bucket:   cfg.BucketName,
	}, logger)

	chatService := chat.NewService(dbClient, f, extraction.NewExtractor(logger), ai, chat.Options{
		Workers:       cfg.ExtractWorkers,
		InlineChars:   cfg.InlineFallbackChars,
		DeleteTimeout: cfg.DeleteTimeout,
	}, m, logger)

	deps := Deps{
		Users:     services.NewUserService(dbClient),
		Courses:   services.NewCourseService(dbClient),
		Materials: services.NewMaterialService(dbClient, objects, cfg.BucketName, logger),
		Chat:      chatService,
		Metrics:   m,
	}
	a.Server = NewServer(cfg, deps, logger)

	return a, nil
}

func (a *App) Close() {
	if a.Gemini != nil {
		if err := a.Gemini.Close(); err != nil {
			a.logger.Warn("close gemini client", zap.Error(err))
		}
	}
	if a.DBClient != nil {
		if err := a.DBClient.Close(); err != nil {
			a.logger.Warn("close database", zap.Error(err))
		}
	}
}

func (a *App) String() string {
	return fmt.Sprintf("coursechat(storage=%t, ai=%t)", a.ObjectClient != nil, a.Gemini != nil)
}
