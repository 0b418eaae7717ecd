// main package for the voice-studio service
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-studio/internal/api"
	"github.com/book-expert/voice-studio/internal/audio"
	"github.com/book-expert/voice-studio/internal/config"
	"github.com/book-expert/voice-studio/internal/core"
	"github.com/book-expert/voice-studio/internal/history"
	"github.com/book-expert/voice-studio/internal/objectstore"
	"github.com/book-expert/voice-studio/internal/prompt"
	"github.com/book-expert/voice-studio/internal/studio"
	"github.com/book-expert/voice-studio/internal/telemetry"
	"github.com/book-expert/voice-studio/internal/tts"
	"github.com/book-expert/voice-studio/internal/ttsutils"
	"github.com/book-expert/voice-studio/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
)

const (
	serviceName       = "voice-studio"
	envFile           = ".env"
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func setupLogger(logPath, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir(), "voice-studio-bootstrap.log")
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	defer bootstrapLog.Close()

	bootstrapLog.Info("Bootstrap logger created.")

	err = config.LoadEnv(envFile)
	if err != nil {
		bootstrapLog.Error("Failed to load env file: %v", err)

		return err
	}

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir, "voice-studio.log")
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return err
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, finalLog)
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	format, err := audio.ParseFormat(cfg.Studio.AudioFormat)
	if err != nil {
		return err
	}

	if cfg.APIKey() == "" {
		log.Warn("%s is not set; every generation will fail until it is configured", cfg.Gemini.APIKeyEnv)
	}

	provider, err := telemetry.Setup(serviceName, log)
	if err != nil {
		return err
	}

	defer func() { _ = provider.Shutdown(context.WithoutCancel(ctx)) }()

	metrics, err := telemetry.NewMetrics(provider.Meter())
	if err != nil {
		return err
	}

	var natsConnection *nats.Conn

	if cfg.NATS.URL != "" {
		natsConnection, err = nats.Connect(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
		}

		defer natsConnection.Close()
	}

	objects, closeObjects, err := openObjectStore(cfg, natsConnection)
	if err != nil {
		return err
	}

	defer closeObjects()

	client := tts.NewClient(tts.Options{
		BaseURL:  cfg.Gemini.BaseURL,
		Model:    cfg.Gemini.Model,
		APIKey:   cfg.APIKey(),
		Timeout:  cfg.Timeout(),
		Composer: prompt.NewComposer(cfg.Studio.Language, cfg.Studio.Accent),
	}, log)

	hist := history.New(objects, log)
	pipeline := studio.New(client, objects, hist, studio.Options{Format: format, Metrics: metrics}, log)

	defer func() {
		closeErr := hist.Close(context.WithoutCancel(ctx))
		if closeErr != nil {
			log.Warn("Failed to release session audio: %v", closeErr)
		}
	}()

	errChan := make(chan error, 1)
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()

	var workerDone chan error

	if natsConnection != nil {
		workerDone = make(chan error, 1)
		natsWorker := worker.NewNatsWorker(natsConnection, cfg.NATS.GenerateSubject, pipeline, log)

		go func() { workerDone <- natsWorker.Run(workerCtx) }()
	}

	gin.SetMode(gin.ReleaseMode)

	handler := api.NewHandler(pipeline, api.Options{
		RadioName: cfg.Studio.RadioName,
		City:      cfg.Studio.City,
		Metrics:   provider.Handler(),
	}, log)

	server := &http.Server{
		Addr:              cfg.HTTP.Bind,
		Handler:           handler.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		serveErr := server.ListenAndServe()
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server failed: %w", serveErr)
		}
	}()

	log.System("Voice studio ready on %s (model %s, format %s)", cfg.HTTP.Bind, cfg.Gemini.Model, format)

	workerStopped := false

	select {
	case <-ctx.Done():
	case err = <-errChan:
		log.Error("Service stopped: %v", err)
	case err = <-workerDone:
		workerStopped = true

		log.Error("Worker stopped: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	shutdownErr := server.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		log.Warn("HTTP shutdown: %v", shutdownErr)
	}

	// Drain waits for in-flight handlers, so no item is recorded after the
	// history is closed.
	stopWorker()

	if workerDone != nil && !workerStopped {
		drainErr := <-workerDone
		if drainErr != nil {
			log.Warn("Worker shutdown: %v", drainErr)
		}
	}

	log.System("Voice studio stopped.")

	return err
}

// openObjectStore keeps audio in a JetStream bucket when NATS is configured
// and in a session directory otherwise.
func openObjectStore(cfg *config.Config, natsConnection *nats.Conn) (core.ObjectStore, func(), error) {
	if natsConnection != nil {
		jetstreamContext, err := natsConnection.JetStream()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get JetStream context: %w", err)
		}

		store, err := objectstore.New(jetstreamContext, cfg.NATS.AudioObjectStoreBucket)
		if err != nil {
			return nil, nil, err
		}

		return store, func() {}, nil
	}

	dir := cfg.Studio.SessionDir
	if dir == "" {
		dir = ttsutils.NewSessionDir()
	}

	store, err := objectstore.NewDirStore(dir)
	if err != nil {
		return nil, nil, err
	}

	return store, func() { _ = store.Close() }, nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
