// Package app assembles the long-lived services behind a snapshot run. It
// is the composition root shared by the CLI commands: one provider switch
// per backend, fail-fast construction, best-effort teardown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcpubsub "cloud.google.com/go/pubsub"
	gstorage "cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JakeFAU/pagevault/internal/api"
	"github.com/JakeFAU/pagevault/internal/capture/document"
	"github.com/JakeFAU/pagevault/internal/capture/headless"
	"github.com/JakeFAU/pagevault/internal/clock/system"
	"github.com/JakeFAU/pagevault/internal/config"
	"github.com/JakeFAU/pagevault/internal/extract/docx"
	"github.com/JakeFAU/pagevault/internal/extract/pdf"
	collyfetcher "github.com/JakeFAU/pagevault/internal/fetcher/colly"
	"github.com/JakeFAU/pagevault/internal/hash/sha256"
	"github.com/JakeFAU/pagevault/internal/pipeline"
	"github.com/JakeFAU/pagevault/internal/policy/ratelimit"
	"github.com/JakeFAU/pagevault/internal/progress"
	"github.com/JakeFAU/pagevault/internal/progress/sinks"
	memorypublisher "github.com/JakeFAU/pagevault/internal/publisher/memory"
	pubsubpublisher "github.com/JakeFAU/pagevault/internal/publisher/pubsub"
	"github.com/JakeFAU/pagevault/internal/snapshot"
	statefile "github.com/JakeFAU/pagevault/internal/state/file"
	statememory "github.com/JakeFAU/pagevault/internal/state/memory"
	statepostgres "github.com/JakeFAU/pagevault/internal/state/postgres"
	"github.com/JakeFAU/pagevault/internal/storage/gcs"
	"github.com/JakeFAU/pagevault/internal/storage/local"
	"github.com/JakeFAU/pagevault/internal/storage/mirror"
	"github.com/JakeFAU/pagevault/internal/store"
)

// App holds the shared, long-lived services for a snapshot run. It is
// initialized once at startup and closed once at shutdown.
type App struct {
	Config config.Config
	Logger *zap.Logger

	Status   *store.StatusStore
	States   snapshot.StateStore
	Hub      *progress.Hub
	Browser  *headless.Browser
	Pipeline *pipeline.Pipeline

	httpServer   *http.Server
	pubsubClient *gcpubsub.Client
	pubsubPub    *pubsubpublisher.Publisher
	gcsClient    *gstorage.Client
}

// New creates and initializes an App from configuration. It instantiates
// the configured providers (local or mirrored artifact storage, the state
// backend, the optional Pub/Sub publisher) and wires the capture pipeline
// on top of them. It fails fast when any critical service cannot be built.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	blobs, err := a.buildBlobStore(ctx)
	if err != nil {
		return nil, err
	}
	if a.States, err = a.buildStateStore(ctx); err != nil {
		return nil, err
	}
	publisher, err := a.buildPublisher(ctx)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.New(ratelimit.Config{RPS: cfg.RateLimit.RPS, Burst: cfg.RateLimit.Burst})
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.Probe.UserAgent,
		Timeout:       cfg.ProbeTimeout(),
		MaxBodySize:   cfg.Probe.MaxBodyBytes,
		RespectRobots: cfg.Probe.RespectRobots,
	}, limiter)
	clock := system.New()

	a.Browser = headless.NewBrowser(headless.Config{
		UserAgent: cfg.Probe.UserAgent,
		DataDir:   cfg.BrowserDataDir(),
	})
	pages := headless.NewCapturer(a.Browser, blobs, clock, logger, headless.CaptureOptions{
		NavigationTimeout: cfg.NavigationTimeout(),
		CaptureTimeout:    cfg.CaptureTimeout(),
		Pacer:             limiter,
	})
	documents := document.NewWorker(fetcher, fetcher, blobs, clock, logger, pdf.New(), docx.New())

	a.Status = store.NewStatusStore()
	sinkList := []progress.Sink{
		sinks.NewLogSink(logger),
		sinks.NewStatusSink(a.Status),
	}
	// Collectors register on the default registry so /metrics serves them
	// next to the HTTP collectors. A second App in the same process loses
	// the sink instead of failing construction.
	if promSink, sinkErr := sinks.NewPrometheusSink(prometheus.DefaultRegisterer); sinkErr != nil {
		logger.Warn("prometheus progress sink disabled", zap.Error(sinkErr))
	} else {
		sinkList = append(sinkList, promSink)
	}
	a.Hub = progress.NewHub(progress.Config{Logger: logger}, sinkList...)

	topic := ""
	if cfg.PubSub.Enabled {
		topic = cfg.PubSub.TopicName
	}
	a.Pipeline = pipeline.New(
		snapshot.NewClassifier(fetcher, logger),
		pages,
		documents,
		a.States,
		sha256.New(),
		publisher,
		clock,
		a.Hub,
		pipeline.Config{Topic: topic},
		logger,
	)

	if cfg.Server.Enabled {
		srv := api.NewServer(a.Status, a.States, cfg, logger)
		a.httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return a, nil
}

// buildBlobStore returns the local artifact store, wrapped in a mirror when
// a GCS bucket is configured.
func (a *App) buildBlobStore(ctx context.Context) (snapshot.BlobStore, error) {
	primary, err := local.New(local.Config{BaseDir: a.Config.Output.Root})
	if err != nil {
		return nil, fmt.Errorf("initialize artifact store: %w", err)
	}
	if err := primary.EnsureDirs(ctx, snapshot.Layout{}.Dirs()); err != nil {
		return nil, fmt.Errorf("create artifact directories: %w", err)
	}
	if !a.Config.Mirror.Enabled {
		return primary, nil
	}

	client, err := gstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize GCS client: %w", err)
	}
	secondary, err := gcs.New(client, gcs.Config{
		Bucket: a.Config.Mirror.Bucket,
		Prefix: a.Config.Mirror.Prefix,
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("initialize GCS mirror: %w", err)
	}
	a.gcsClient = client
	a.Logger.Info("mirroring artifacts to GCS", zap.String("bucket", a.Config.Mirror.Bucket))
	return mirror.New(primary, secondary, a.Logger), nil
}

// buildStateStore selects the index and ledger backend.
func (a *App) buildStateStore(ctx context.Context) (snapshot.StateStore, error) {
	cfg := a.Config
	switch cfg.State.Backend {
	case "file":
		st, err := statefile.New(statefile.Config{
			IndexPath:    cfg.IndexFilePath(),
			FailuresPath: cfg.FailuresFilePath(),
		}, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("initialize file state store: %w", err)
		}
		return st, nil
	case "postgres":
		st, err := statepostgres.New(ctx, statepostgres.Config{
			DSN:           cfg.State.DSN,
			IndexTable:    cfg.State.IndexTable,
			FailuresTable: cfg.State.FailuresTable,
			MaxConns:      cfg.State.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize postgres state store: %w", err)
		}
		a.Logger.Info("using postgres state backend", zap.String("index_table", cfg.State.IndexTable))
		return st, nil
	case "memory":
		a.Logger.Info("using in-memory state backend, results will not persist")
		return statememory.New(), nil
	default:
		return nil, fmt.Errorf("unknown state backend: %s", cfg.State.Backend)
	}
}

// buildPublisher returns the Pub/Sub publisher when one is configured and an
// in-memory publisher otherwise. With no topic configured the pipeline never
// publishes, so the in-memory fallback only serves as a non-nil default.
func (a *App) buildPublisher(ctx context.Context) (snapshot.Publisher, error) {
	cfg := a.Config
	if !cfg.PubSub.Enabled {
		return memorypublisher.New(), nil
	}
	if cfg.PubSub.ProjectID == "" || cfg.PubSub.TopicName == "" {
		return nil, errors.New("pubsub is enabled but project_id or topic_name is not set")
	}

	client, err := gcpubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("initialize pubsub client: %w", err)
	}
	a.pubsubClient = client
	a.pubsubPub = pubsubpublisher.New(client.Topic(cfg.PubSub.TopicName))
	a.Logger.Info("publishing capture events", zap.String("topic", cfg.PubSub.TopicName))
	return a.pubsubPub, nil
}

// Run executes one snapshot pass over the given URLs. It starts the ops
// server and the shared browser, then runs the pipeline to completion. A
// canceled ctx stops the pipeline between URLs; the URL in flight always
// finishes.
func (a *App) Run(ctx context.Context, urls []string) (pipeline.Summary, error) {
	if a.httpServer != nil {
		go func() {
			a.Logger.Info("ops server listening", zap.String("addr", a.httpServer.Addr))
			if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Logger.Error("ops server failed", zap.Error(err))
			}
		}()
	}
	if err := a.Browser.Start(); err != nil {
		return pipeline.Summary{}, fmt.Errorf("start browser: %w", err)
	}
	return a.Pipeline.Run(ctx, urls)
}

// Close shuts the services down. Every step is best-effort; one failing
// close never blocks the others.
func (a *App) Close(ctx context.Context) {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if a.Hub != nil {
		if err := a.Hub.Close(ctx); err != nil {
			logger.Warn("closing progress hub", zap.Error(err))
		}
	}
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			logger.Warn("shutting down ops server", zap.Error(err))
		}
	}
	a.Browser.Close()
	if a.States != nil {
		if err := a.States.Close(ctx); err != nil {
			logger.Warn("closing state store", zap.Error(err))
		}
	}
	if a.pubsubPub != nil {
		a.pubsubPub.Stop()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			logger.Warn("closing pubsub client", zap.Error(err))
		}
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			logger.Warn("closing GCS client", zap.Error(err))
		}
	}
	_ = logger.Sync()
}
