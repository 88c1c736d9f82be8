package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/shreyapuff/petalplanner/internal/chime"
	"github.com/shreyapuff/petalplanner/internal/config"
	"github.com/shreyapuff/petalplanner/internal/database"
	"github.com/shreyapuff/petalplanner/internal/domain"
	"github.com/shreyapuff/petalplanner/internal/handler"
	"github.com/shreyapuff/petalplanner/internal/logger"
	"github.com/shreyapuff/petalplanner/internal/mirror"
	"github.com/shreyapuff/petalplanner/internal/search"
	"github.com/shreyapuff/petalplanner/internal/service"
	"github.com/shreyapuff/petalplanner/internal/taskstore"
	"github.com/shreyapuff/petalplanner/pkg/googlecloud"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Echo    *echo.Echo
	Store   *taskstore.Store
	Planner *service.Planner
	Indexer *search.Indexer
	DB      *sql.DB
	GCP     *googlecloud.Client

	chime *chime.Async
}

func NewApp() *App {
	e := echo.New()
	e.HideBanner = true
	return &App{Echo: e}
}

// Initialize builds the planner and the HTTP surface.
func (a *App) Initialize(ctx context.Context) error {
	if err := a.InitializeCore(ctx); err != nil {
		return err
	}

	a.RegisterMiddlewares()
	a.RegisterRoutes(
		handler.NewTaskHandler(a.Planner),
		handler.NewGardenHandler(a.Planner, config.DefaultEnvConfig.GARDEN_TEMPLATE_PATH),
		handler.NewMoodHandler(a.Planner),
	)
	return nil
}

// InitializeCore loads configuration and opens the store, mirror, chime,
// search index and planner. It registers no routes.
func (a *App) InitializeCore(ctx context.Context) error {
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	cfg := config.DefaultEnvConfig

	logger.InitLogging(cfg.LOG_FILE_PATH)
	logger.SetLevel(cfg.LOG_LEVEL)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	backend, err := a.newBackend(ctx)
	if err != nil {
		return err
	}
	a.Store = taskstore.New(backend, taskstore.WithPollInterval(cfg.STORE_POLL_INTERVAL))

	m, err := a.newMirror(ctx)
	if err != nil {
		return err
	}

	a.chime = chime.NewAsync(newPlayer(ctx))

	var searcher service.TaskSearcher
	if cfg.ELASTICSEARCH_URL != "" {
		ix, err := search.NewIndexer(cfg.ELASTICSEARCH_URL, cfg.ELASTICSEARCH_INDEX)
		if err != nil {
			return fmt.Errorf("failed to initialize search: %w", err)
		}
		if err := ix.EnsureIndex(ctx); err != nil {
			return fmt.Errorf("failed to initialize search: %w", err)
		}
		a.Indexer = ix
		searcher = ix
	}

	planner, err := service.OpenPlanner(ctx, service.PlannerDeps{
		Store:    a.Store,
		Mirror:   m,
		Chime:    a.chime,
		Searcher: searcher,
	})
	if err != nil {
		return fmt.Errorf("failed to open planner: %w", err)
	}
	a.Planner = planner
	return nil
}

func (a *App) newBackend(ctx context.Context) (taskstore.Backend, error) {
	cfg := config.DefaultEnvConfig
	switch cfg.STORE_DRIVER {
	case config.StoreDriverDatastore:
		client, err := googlecloud.NewClient(ctx, cfg.GCP_PROJECT_ID, cfg.TASKS_KIND)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GCP client: %w", err)
		}
		a.GCP = client
		logger.InfoLog(ctx, "task store: datastore project %s kind %s", cfg.GCP_PROJECT_ID, cfg.TASKS_KIND)
		return client, nil
	default:
		logger.InfoLog(ctx, "task store: in memory")
		return taskstore.NewMemoryBackend(), nil
	}
}

func (a *App) newMirror(ctx context.Context) (domain.LocalMirror, error) {
	cfg := config.DefaultEnvConfig
	switch cfg.MIRROR_DRIVER {
	case config.MirrorDriverSQLite:
		db, err := database.NewSQLiteDB(ctx, cfg.MIRROR_SQLITE_PATH)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.DB = db
		return mirror.NewSQL(ctx, db, mirror.SQLite)
	case config.MirrorDriverPostgres:
		db, err := database.NewPostgresDB(ctx, database.Config{
			Host:            cfg.DB_HOST,
			Port:            cfg.DB_PORT,
			User:            cfg.DB_USER,
			Password:        cfg.DB_PASSWORD,
			DBName:          cfg.DB_NAME,
			SSLMode:         cfg.DB_SSL_MODE,
			MaxOpenConns:    cfg.DB_MAX_OPEN_CONNS,
			MaxIdleConns:    cfg.DB_MAX_IDLE_CONNS,
			ConnMaxLifetime: cfg.DB_CONN_MAX_LIFETIME,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.DB = db
		return mirror.NewSQL(ctx, db, mirror.Postgres)
	default:
		return mirror.NewMemory(), nil
	}
}

func newPlayer(ctx context.Context) domain.Chime {
	cfg := config.DefaultEnvConfig
	if cfg.CHIME_COMMAND == "" {
		return chime.NopPlayer{}
	}
	p, err := chime.NewCommandPlayer(cfg.CHIME_COMMAND, cfg.CHIME_SOUND_PATH)
	if err != nil {
		logger.WarnLog(ctx, "chime disabled: %v", err)
		return chime.NopPlayer{}
	}
	return p
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(RequestID())
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
}

// RequestID tags each request with an id, taken from X-Request-ID when the
// client sends one, and puts it in the logging context.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), id)))
			return next(c)
		}
	}
}

func (a *App) RegisterRoutes(taskHandler *handler.TaskHandler, gardenHandler *handler.GardenHandler, moodHandler *handler.MoodHandler) {
	a.Echo.GET("/healthz", handler.HealthHandler)

	api := a.Echo.Group("/api/v1")

	tasks := api.Group("/tasks")
	tasks.GET("", taskHandler.ListHandler)
	tasks.POST("", taskHandler.CreateHandler)
	tasks.GET("/stream", taskHandler.StreamHandler)
	tasks.GET("/search", taskHandler.SearchHandler)
	tasks.POST("/:id/toggle", taskHandler.ToggleHandler)

	garden := api.Group("/garden")
	garden.GET("", gardenHandler.GardenHandler)
	garden.GET("/export", gardenHandler.ExportHandler)

	api.GET("/mood", moodHandler.GetHandler)
	api.PUT("/mood", moodHandler.SelectHandler)
}

// Run serves HTTP and keeps the live query and search index fed until ctx
// is cancelled, then shuts the server down.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	go a.Store.Run(ctx)
	if a.Indexer != nil {
		go func() {
			if err := a.Indexer.Run(ctx, a.Store); err != nil {
				logger.ErrorLog(ctx, "search indexer stopped: %v", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Echo.Shutdown(shutdownCtx); err != nil {
			logger.ErrorLog(shutdownCtx, "shutdown: %v", err)
		}
	}()

	err := a.Echo.Start(":" + config.DefaultEnvConfig.APP_PORT)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close releases everything InitializeCore opened.
func (a *App) Close() {
	ctx := context.Background()
	if a.Planner != nil {
		a.Planner.Close()
	}
	if a.chime != nil {
		if err := a.chime.Close(); err != nil {
			logger.WarnLog(ctx, "close chime: %v", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.GCP != nil {
		a.GCP.Close()
	}
}
