// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/specviz/internal/adapter/audio/beepaudio"
	"github.com/tejashwikalptaru/specviz/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/specviz/internal/adapter/background"
	"github.com/tejashwikalptaru/specviz/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/specviz/internal/adapter/frame"
	"github.com/tejashwikalptaru/specviz/internal/adapter/metadata"
	"github.com/tejashwikalptaru/specviz/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/specviz/internal/adapter/surface"
	fyneui "github.com/tejashwikalptaru/specviz/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/specviz/internal/analysis"
	"github.com/tejashwikalptaru/specviz/internal/config"
	"github.com/tejashwikalptaru/specviz/internal/domain"
	"github.com/tejashwikalptaru/specviz/internal/logger"
	"github.com/tejashwikalptaru/specviz/internal/ports"
	"github.com/tejashwikalptaru/specviz/internal/service"
	"github.com/tejashwikalptaru/specviz/internal/visualizer"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for main.go
type Application struct {
	// Core dependencies
	logger  *slog.Logger
	fyneApp fyne.App

	// Infrastructure
	eventBus  *eventbus.SyncEventBus
	media     ports.MediaElement
	graphs    ports.AudioGraphFactory
	scheduler *frame.TickerScheduler
	surface   *surface.RasterSurface
	watcher   *background.Watcher

	// Engine
	analyzer *analysis.FrequencyAnalyzer
	loop     *visualizer.RenderLoop

	// Services
	playback *service.PlaybackController
	settings *service.SettingsService

	// UI
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow

	settingsSub domain.SubscriptionID
	shutdown    bool
}

// Config holds application configuration.
type Config struct {
	config.Config

	// AppID is the unique application identifier
	AppID string

	// AppName is the display name
	AppName string

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App

	// LogOutput overrides the log destination (nil for stderr)
	LogOutput io.Writer
}

// DefaultConfig returns the default application configuration, read from the
// SPECVIZ_* environment variables.
func DefaultConfig() Config {
	return Config{
		Config:  config.Load(),
		AppID:   "com.specviz.app",
		AppName: "SpecViz",
	}
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(cfg Config) (*Application, error) {
	app := &Application{}

	// Step 1: Create Fyne application
	if cfg.TestFyneApp != nil {
		app.fyneApp = cfg.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(cfg.AppID)
	}

	// Step 2: Create logger
	app.logger = logger.NewLogger(logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel, slog.LevelInfo),
		Format: cfg.LogFormat,
		Output: cfg.LogOutput,
	})
	app.logger.Info("initializing application",
		slog.String("app_id", cfg.AppID),
		slog.String("version", GetVersionInfo().FullString()))

	// Step 3: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus()
	app.eventBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))

	// Step 4: Create the media layer and the analysis graph factory
	if cfg.UseMockAudio {
		media := mock.NewMedia(app.logger.With(slog.String("engine", "mock")), app.eventBus)
		media.Start(cfg.UpdateInterval)
		app.media = media
		app.graphs = mock.NewGraphFactory()
	} else {
		app.media = beepaudio.NewMedia(app.logger.With(slog.String("engine", "beep")), app.eventBus,
			cfg.SampleRate, cfg.UpdateInterval)
		app.graphs = beepaudio.NewGraphFactory(app.logger, cfg.OutputBuffer, cfg.TapSize)
	}

	// Step 5: Create the visualizer engine
	analyzer, err := analysis.New(app.logger, analysis.Config{
		TransformSize: cfg.FFTSize,
		Smoothing:     cfg.Smoothing,
		MinDecibels:   cfg.MinDecibels,
		MaxDecibels:   cfg.MaxDecibels,
	})
	if err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("failed to create frequency analyzer: %w", err)
	}
	app.analyzer = analyzer

	app.surface = surface.NewRasterSurface(cfg.SurfaceWidth, cfg.SurfaceHeight, cfg.BarWidth, cfg.BarGap)
	app.scheduler = frame.NewTickerScheduler(app.logger, cfg.FrameInterval())
	app.loop = visualizer.NewRenderLoop(app.logger, app.scheduler, app.analyzer, app.surface,
		visualizer.SpectrumRenderer{Adaptive: cfg.Adaptive}, color.White)

	// Step 6: Create services (with dependency injection)
	app.playback = service.NewPlaybackController(app.logger, app.media, app.graphs, app.analyzer, app.loop, app.eventBus)

	repo := memory.NewSettingsRepository(app.fyneApp.Preferences())
	app.settings = service.NewSettingsService(app.logger, repo, app.eventBus)

	// Step 7: Follow the background image on disk
	watcher, err := background.NewWatcher(app.logger, app.eventBus)
	if err != nil {
		// Non-fatal - edits of the background file are just not picked up
		app.logger.Warn("background watcher unavailable", slog.Any("error", err))
	} else {
		app.watcher = watcher
		app.watchBackground(app.settings.Settings().BackgroundPath)
		app.settingsSub = app.eventBus.Subscribe(domain.EventSettingsChanged, app.onSettingsChanged)
	}

	// Step 8: Create UI
	app.mainWindow = fyneui.NewMainWindow(app.fyneApp, app.surface, app.logger)
	app.surface.SetOnPresent(app.mainWindow.FramePresented)

	// Step 9: Create Presenter and wire with UI
	app.presenter = fyneui.NewPresenter(
		app.logger,
		app.playback,
		app.settings,
		metadata.NewTagReader(app.logger),
		app.eventBus,
		app.mainWindow,
	)

	// Connect presenter to the main window
	app.mainWindow.SetPresenter(app.presenter)

	return app, nil
}

func (a *Application) watchBackground(path string) {
	if a.watcher == nil {
		return
	}
	if err := a.watcher.Watch(path); err != nil {
		a.logger.Warn("cannot watch background", slog.String("path", path), slog.Any("error", err))
	}
}

func (a *Application) onSettingsChanged(event domain.Event) {
	if e, ok := event.(domain.SettingsChangedEvent); ok {
		a.watchBackground(e.Settings.BackgroundPath)
	}
}

// Run starts the application.
// This is called from main.go after the application is created.
func (a *Application) Run() error {
	a.logger.Info("SpecViz started")

	// Show and run UI (blocks until the window is closed)
	a.mainWindow.ShowAndRun()
	return nil
}

// Shutdown gracefully shuts down the application.
// It's safe to call multiple times (idempotent).
func (a *Application) Shutdown() error {
	if a.shutdown {
		return nil
	}
	a.shutdown = true

	a.logger.Info("shutting down application")

	// Shutdown UI and presenter
	if a.presenter != nil {
		a.presenter.Shutdown()
	}

	// Stop playback and release the analysis graph before the output goes away
	if a.playback != nil {
		a.playback.Destroy()
	}

	if a.settingsSub != "" {
		a.eventBus.Unsubscribe(a.settingsSub)
	}

	err := a.closeInfrastructure()
	if err != nil {
		a.logger.Warn("shutdown finished with errors", slog.Any("error", err))
		return err
	}

	a.logger.Info("application shutdown complete")
	return nil
}

// closeInfrastructure stops the goroutines owned by the adapters.
func (a *Application) closeInfrastructure() error {
	var errs []error

	if a.scheduler != nil {
		errs = append(errs, a.scheduler.Close())
	}
	if a.watcher != nil {
		errs = append(errs, a.watcher.Close())
	}
	if closer, ok := a.media.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if a.eventBus != nil {
		errs = append(errs, a.eventBus.Close())
	}

	return errors.Join(errs...)
}

// GetEventBus returns the event bus.
func (a *Application) GetEventBus() ports.EventBus {
	return a.eventBus
}

// GetFyneApp returns the Fyne application.
func (a *Application) GetFyneApp() fyne.App {
	return a.fyneApp
}

// GetServices returns the playback controller and the settings service.
func (a *Application) GetServices() (*service.PlaybackController, *service.SettingsService) {
	return a.playback, a.settings
}

// GetMainWindow returns the main window.
func (a *Application) GetMainWindow() *fyneui.MainWindow {
	return a.mainWindow
}
