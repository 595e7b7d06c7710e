package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/common"
	"github.com/ternarybob/vipaii/internal/handlers"
	"github.com/ternarybob/vipaii/internal/interfaces"
	"github.com/ternarybob/vipaii/internal/services/chatbox"
	"github.com/ternarybob/vipaii/internal/services/history"
	"github.com/ternarybob/vipaii/internal/services/illustrator"
	"github.com/ternarybob/vipaii/internal/services/keygate"
	"github.com/ternarybob/vipaii/internal/services/llm"
	"github.com/ternarybob/vipaii/internal/services/scheduler"
	"github.com/ternarybob/vipaii/internal/services/sessions"
	"github.com/ternarybob/vipaii/internal/storage"
)

// Scheduled job names
const (
	HistoryPruneJob = "history_prune"
	SessionSweepJob = "session_sweep"
	StorageGCJob    = "storage_gc"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Provider services
	LLMService *llm.GeminiService

	// Key gate
	KeyCapability *keygate.KVCapability
	Notices       *keygate.NoticeBoard
	KeyGate       *keygate.Gate

	// Domain services
	HistoryService   *history.Service
	Sessions         *sessions.Registry
	SchedulerService *scheduler.Service

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	AnalyzeHandler   *handlers.AnalyzeHandler
	SessionHandler   *handlers.SessionHandler
	ChatHandler      *handlers.ChatHandler
	ChatWSHandler    *handlers.ChatWSHandler
	ImageHandler     *handlers.ImageHandler
	HistoryHandler   *handlers.HistoryHandler
	KeyHandler       *handlers.KeyHandler
	SchedulerHandler *handlers.SchedulerHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app, err := NewCore(cfg, logger)
	if err != nil {
		return nil, err
	}

	app.initSessions()

	if err := app.initScheduler(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Bool("history_enabled", cfg.History.Enabled).
		Bool("keygate_enabled", cfg.KeyGate.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// NewCore initializes storage, the provider client, the key gate and the
// history log. It is the subset the CLI and the MCP server need.
func NewCore(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.initServices()
	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	a.StorageManager = storageManager

	a.Logger.Debug().Str("path", a.Config.Storage.Badger.Path).Msg("Storage layer initialized")
	return nil
}

func (a *App) initServices() {
	kvStorage := a.StorageManager.KeyValueStorage()

	backend := llm.NewGenAIBackend(&a.Config.Gemini, kvStorage, &http.Client{})
	a.LLMService = llm.NewGeminiService(&a.Config.Gemini, backend, a.Logger)

	// The KV capability always backs the key endpoints; the gate only
	// consults it when enabled
	a.KeyCapability = keygate.NewKVCapability(kvStorage, a.Logger)
	a.Notices = keygate.NewNoticeBoard(a.Logger)
	if a.Config.KeyGate.Enabled {
		a.KeyGate = keygate.NewGate(a.KeyCapability, a.Notices, a.Logger)
	} else {
		a.KeyGate = keygate.NewGate(nil, a.Notices, a.Logger)
	}

	a.HistoryService = history.NewService(a.StorageManager.HistoryStorage(), &a.Config.History, a.Logger)
}

func (a *App) initSessions() {
	chatConfig := chatbox.Config{
		Greeting: a.Config.Assistant.Greeting,
		Apology:  a.Config.Assistant.Apology,
	}
	panelConfig := illustrator.Config{
		ReverifyAfterPrompt: a.Config.KeyGate.ReverifyAfterPrompt,
	}

	a.Sessions = sessions.NewRegistry(sessions.Factory{
		NewChat: func() *chatbox.Session {
			return chatbox.NewSession(a.LLMService, chatConfig, a.Logger)
		},
		NewPanel: func() *illustrator.Panel {
			return illustrator.NewPanel(a.LLMService, a.KeyGate, panelConfig, a.Logger)
		},
	}, a.Logger)
}

// initScheduler registers the housekeeping jobs and starts the scheduler
func (a *App) initScheduler() error {
	a.SchedulerService = scheduler.NewService(a.Logger, 5*time.Minute)

	if err := a.SchedulerService.RegisterJob(HistoryPruneJob, a.Config.History.PruneSchedule,
		"Remove history items past the retention period", func(ctx context.Context) error {
			_, err := a.HistoryService.Prune(ctx)
			return err
		}); err != nil {
		return err
	}

	idleTimeout := common.Duration(a.Config.Sessions.IdleTimeout, 30*time.Minute)
	if err := a.SchedulerService.RegisterJob(SessionSweepJob, a.Config.Sessions.SweepSchedule,
		"Drop visitor sessions idle for longer than the idle timeout", func(ctx context.Context) error {
			a.Sessions.SweepIdle(idleTimeout)
			return nil
		}); err != nil {
		return err
	}

	if err := a.SchedulerService.RegisterJob(StorageGCJob, a.Config.Storage.Badger.GCSchedule,
		"Reclaim Badger value log space", func(ctx context.Context) error {
			_, err := a.StorageManager.CollectGarbage()
			return err
		}); err != nil {
		return err
	}

	return a.SchedulerService.Start()
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.Sessions, a.Logger)
	a.AnalyzeHandler = handlers.NewAnalyzeHandler(a.LLMService, a.HistoryService, a.Config.Upload.MaxBytes, a.Logger)
	a.SessionHandler = handlers.NewSessionHandler(a.Sessions, a.Logger)
	a.ChatHandler = handlers.NewChatHandler(a.Sessions, a.Logger)
	a.ChatWSHandler = handlers.NewChatWSHandler(a.Sessions, a.Logger)
	a.ImageHandler = handlers.NewImageHandler(a.Sessions, a.Logger)
	a.HistoryHandler = handlers.NewHistoryHandler(a.HistoryService, a.Logger)
	a.KeyHandler = handlers.NewKeyHandler(a.KeyCapability, a.Notices, a.Logger)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.SchedulerService)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	// Abandon anything still streaming so late replies are discarded
	if a.Sessions != nil {
		for _, session := range a.Sessions.List() {
			a.Sessions.Delete(session.ID)
		}
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		} else {
			a.Logger.Info().Msg("LLM service closed")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
