// Package bootstrap builds the application graph: storage, repos,
// services, handlers and the router.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"healthspectrum-backend/internal/analyses"
	googleauth "healthspectrum-backend/internal/auth"
	"healthspectrum-backend/internal/documents"
	"healthspectrum-backend/internal/extractor"
	"healthspectrum-backend/internal/extractor/landingai"
	"healthspectrum-backend/internal/patients"
	"healthspectrum-backend/internal/pipeline"
	"healthspectrum-backend/internal/queue"
	"healthspectrum-backend/internal/shared/config"
	"healthspectrum-backend/internal/shared/server"
	"healthspectrum-backend/internal/shared/storage/db"
	"healthspectrum-backend/internal/shared/storage/object"
	localstore "healthspectrum-backend/internal/shared/storage/object/local"
	s3store "healthspectrum-backend/internal/shared/storage/object/s3"
	"healthspectrum-backend/internal/shares"
	"healthspectrum-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	DocumentsRepo documents.DocumentsRepo
	AnalysesRepo  analyses.AnalysesRepo
	SharesRepo    shares.SharesRepo
	PatientsRepo  patients.PatientsRepo
	UsersRepo     users.Repo

	Extractor extractor.Extractor
	Pipeline  *pipeline.Orchestrator

	DocumentsService *documents.Service
	AnalysesService  *analyses.Service
	SharesService    *shares.Service
	PatientsService  *patients.Service
	UsersService     *users.Service

	DocumentsHandler *documents.Handler
	AnalysesHandler  *analyses.Handler
	SharesHandler    *shares.Handler
	PatientsHandler  *patients.Handler
	UsersHandler     *users.Handler
	GoogleAuth       *googleauth.GoogleService
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	ext, err := buildExtractor(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Store:     store,
		Queue:     queueClient,
		Extractor: ext,
	}

	buildRepos(app)
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		UsersHandler:     app.UsersHandler,
		GoogleAuth:       app.GoogleAuth,
		DocumentsHandler: app.DocumentsHandler,
		AnalysesHandler:  app.AnalysesHandler,
		SharesHandler:    app.SharesHandler,
		PatientsHandler:  app.PatientsHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database unavailable (%v); using in-memory repositories", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required for the s3 object store")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildQueue wires SQS only when a queue URL is configured; otherwise
// documents process in-process.
func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("HS_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func buildExtractor(cfg config.Config) (extractor.Extractor, error) {
	switch cfg.ExtractorProvider {
	case "landingai":
		return landingai.NewClient(cfg.LandingAIAPIKey)
	default:
		return extractor.Mock{}, nil
	}
}

func buildRepos(app *App) {
	if app.DB != nil {
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
		app.AnalysesRepo = &analyses.PGRepo{DB: app.DB}
		app.SharesRepo = &shares.PGRepo{DB: app.DB}
		app.PatientsRepo = &patients.PGRepo{DB: app.DB}
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		return
	}
	app.DocumentsRepo = documents.NewMemoryRepo()
	app.AnalysesRepo = analyses.NewMemoryRepo()
	app.SharesRepo = shares.NewMemoryRepo()
	app.PatientsRepo = patients.NewMemoryRepo()
	app.UsersRepo = users.NewMemoryRepo()
}

func buildServices(app *App) {
	cfg := app.Config
	secureCookies := !isDevLike(cfg.Env)

	app.Pipeline = pipeline.NewOrchestrator(app.DocumentsRepo, app.AnalysesRepo, app.Store, app.Extractor, cfg.StageDurations)

	var dispatcher documents.Dispatcher
	if app.Queue != nil {
		dispatcher = &queue.Dispatcher{Client: app.Queue}
	}

	app.DocumentsService = &documents.Service{
		Store:      app.Store,
		Repo:       app.DocumentsRepo,
		Pipeline:   app.Pipeline,
		Dispatcher: dispatcher,
		Provider:   cfg.ObjectStoreType,
	}
	app.AnalysesService = &analyses.Service{
		Repo: app.AnalysesRepo,
		Docs: app.DocumentsRepo,
	}
	app.SharesService = &shares.Service{
		Repo:     app.SharesRepo,
		Docs:     app.DocumentsRepo,
		Analyses: app.AnalysesRepo,
		BaseURL:  cfg.ShareBaseURL,
	}
	app.PatientsService = patients.NewService(app.PatientsRepo)
	app.UsersService = users.NewService(app.UsersRepo)

	app.DocumentsHandler = documents.NewHandler(app.DocumentsService)
	app.AnalysesHandler = analyses.NewHandler(app.AnalysesService)
	app.SharesHandler = shares.NewHandler(app.SharesService)
	app.PatientsHandler = patients.NewHandler(app.PatientsService)
	app.UsersHandler = users.NewHandler(app.UsersService, secureCookies)
	app.GoogleAuth = googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		secureCookies,
		app.UsersService,
	)
}

func isDevLike(env string) bool {
	switch env {
	case "dev", "local":
		return true
	default:
		return false
	}
}
