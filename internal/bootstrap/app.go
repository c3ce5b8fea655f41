package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	googleauth "medreport-backend/internal/auth"
	"medreport-backend/internal/chat"
	"medreport-backend/internal/llm"
	"medreport-backend/internal/ocr"
	"medreport-backend/internal/pipeline"
	"medreport-backend/internal/reports"
	"medreport-backend/internal/services/health"
	sharedauth "medreport-backend/internal/shared/auth"
	"medreport-backend/internal/shared/config"
	"medreport-backend/internal/shared/server"
	"medreport-backend/internal/shared/storage/db"
	"medreport-backend/internal/shared/storage/mongodb"
	"medreport-backend/internal/shared/telemetry"
	"medreport-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine

	DB    *sql.DB
	Mongo *mongo.Client

	ReportsRepo reports.Repo
	UsersRepo   users.Repo
	OCR         *ocr.TesseractEngine
	Completer   llm.Completer
	Signer      *sharedauth.Signer
	Pipeline    *pipeline.Pipeline
	Health      *health.Service

	AnalyzeHandler *pipeline.Handler
	ReportsHandler *reports.Handler
	ChatHandler    *chat.Handler
	UsersHandler   *users.Handler
	GoogleAuth     *googleauth.GoogleService
}

// Options lets callers replace external collaborators, mainly in tests.
type Options struct {
	OCRRunner ocr.Runner
	Completer llm.Completer
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	return BuildWith(context.Background(), cfg, Options{})
}

// BuildWith is Build with overridable collaborators.
func BuildWith(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	app := &App{Config: cfg, Health: health.NewService()}

	if err := buildStores(ctx, app); err != nil {
		app.Close()
		return nil, err
	}
	if err := buildOCR(ctx, app, opts.OCRRunner); err != nil {
		app.Close()
		return nil, err
	}
	if err := buildCompleter(app, opts.Completer); err != nil {
		app.Close()
		return nil, err
	}
	signer, err := sharedauth.NewSigner(cfg.JWTSecret, cfg.IsProduction(), cfg.JWTTTL)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Signer = signer

	app.Pipeline = pipeline.New(ocr.NewExtractor(app.OCR), app.Completer, app.ReportsRepo)
	app.AnalyzeHandler = pipeline.NewHandler(app.Pipeline)
	app.ReportsHandler = reports.NewHandler(app.ReportsRepo)
	app.ChatHandler = chat.NewHandler(app.Completer)
	app.UsersHandler = users.NewHandler(app.UsersRepo)
	app.GoogleAuth = googleauth.NewGoogleService(googleauth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		UIRedirect:   cfg.UIRedirectURL,
	}, signer, app.UsersRepo)

	app.Router = server.NewRouter(server.RouterDeps{
		Config: cfg,
		Tokens: signer,
		Health: func(c *gin.Context) (bool, any) {
			status := app.Health.Status(c.Request.Context())
			return status.OK, status
		},
		AnalyzeHandler: app.AnalyzeHandler,
		ReportsHandler: app.ReportsHandler,
		ChatHandler:    app.ChatHandler,
		UserHandler:    app.UsersHandler,
		GoogleAuth:     app.GoogleAuth,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"report_store": cfg.ReportStore,
		"llm_provider": cfg.LLMProvider,
		"llm_model":    cfg.LLMModel,
		"ocr_workers":  cfg.OCRMaxWorkers,
	})
	return app, nil
}

// Close releases database handles.
func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Mongo.Disconnect(ctx)
	}
}

// buildStores selects the report store. Dev-like environments fall back to
// memory when the configured store is unreachable; others fail.
func buildStores(ctx context.Context, app *App) error {
	cfg := app.Config
	err := connectStore(ctx, app)
	if err != nil {
		if !cfg.IsDevLike() {
			return err
		}
		telemetry.Warn("bootstrap.store_fallback", map[string]any{"store": cfg.ReportStore, "error": err})
		app.DB, app.Mongo = nil, nil
		app.ReportsRepo, app.UsersRepo = nil, nil
	}

	if app.ReportsRepo == nil {
		app.ReportsRepo = reports.NewMemoryRepo()
	}
	if app.UsersRepo == nil {
		app.UsersRepo = users.NewMemoryRepo()
	}
	return nil
}

func connectStore(ctx context.Context, app *App) error {
	cfg := app.Config
	switch cfg.ReportStore {
	case "postgres":
		conn, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			return err
		}
		if err := db.RunMigrations(ctx, conn, db.DialectPostgres); err != nil {
			_ = conn.Close()
			return fmt.Errorf("run migrations: %w", err)
		}
		app.DB = conn
		app.ReportsRepo = &reports.PGRepo{DB: conn}
		app.UsersRepo = &users.PGRepo{DB: conn}
		app.Health.Register("postgres", conn.PingContext)
	case "sqlite":
		conn, err := db.ConnectSQLite(ctx, cfg.SQLitePath, db.SQLiteOptions())
		if err != nil {
			return err
		}
		if err := db.RunMigrations(ctx, conn, db.DialectSQLite); err != nil {
			_ = conn.Close()
			return fmt.Errorf("run migrations: %w", err)
		}
		app.DB = conn
		app.ReportsRepo = &reports.SQLiteRepo{DB: conn}
		app.UsersRepo = &users.SQLiteRepo{DB: conn}
		app.Health.Register("sqlite", conn.PingContext)
	case "mongo":
		client, err := mongodb.Connect(ctx, cfg.MongoURI, mongodb.DefaultOptions())
		if err != nil {
			return err
		}
		database := client.Database(cfg.MongoDatabase)
		repo := reports.NewMongoRepo(database)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return fmt.Errorf("ensure mongo indexes: %w", err)
		}
		app.Mongo = client
		app.ReportsRepo = repo
		app.UsersRepo = users.NewMongoRepo(database)
		app.Health.Register("mongo", func(ctx context.Context) error { return mongodb.Ping(ctx, client) })
	case "memory", "":
	default:
		return fmt.Errorf("unsupported REPORT_STORE %q", cfg.ReportStore)
	}
	return nil
}

// buildOCR fails outside dev-like environments when tesseract cannot start.
func buildOCR(ctx context.Context, app *App, runner ocr.Runner) error {
	cfg := app.Config
	engine := ocr.NewTesseractEngine(ocr.Config{
		Tesseract:  cfg.TesseractPath,
		Language:   cfg.OCRLanguage,
		PSM:        cfg.OCRPageSegMode,
		MaxWorkers: cfg.OCRMaxWorkers,
	}, runner)
	app.OCR = engine
	app.Health.Register("ocr", engine.Ready)

	if err := engine.Ready(ctx); err != nil {
		if !cfg.IsDevLike() {
			return err
		}
		telemetry.Warn("bootstrap.ocr_unavailable", map[string]any{"error": err})
	}
	return nil
}

func buildCompleter(app *App, override llm.Completer) error {
	if override != nil {
		app.Completer = override
		return nil
	}
	cfg := app.Config
	if cfg.LLMProvider == "none" {
		app.Completer = llm.PlaceholderCompleter{}
		return nil
	}
	model, err := llm.NewModel(llm.ProviderConfig{
		Provider:        cfg.LLMProvider,
		Model:           cfg.LLMModel,
		BaseURL:         cfg.LLMBaseURL,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		Timeout:         time.Duration(cfg.LLMTimeoutSecs) * time.Second,
	})
	if err != nil {
		if !cfg.IsDevLike() {
			return err
		}
		telemetry.Warn("bootstrap.llm_unavailable", map[string]any{"provider": cfg.LLMProvider, "error": err})
		app.Completer = llm.PlaceholderCompleter{}
		return nil
	}
	app.Completer = llm.NewModelCompleter(model, cfg.LLMModel)
	return nil
}
