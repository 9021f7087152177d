// Command milestoned runs the milestone pipeline: it reads session-change
// notifications (one JSON object per line) from stdin, re-extracts
// milestones, enqueues Phase 2 enrichment, and periodically snapshots
// pipeline health to disk. The transcript parser that produces those
// notifications, and the process manager that supervises this binary, are
// both external collaborators — this entrypoint only wires the pipeline
// itself together.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sessionmind/milestoned/internal/boundary"
	"github.com/sessionmind/milestoned/internal/config"
	"github.com/sessionmind/milestoned/internal/dispatcher"
	"github.com/sessionmind/milestoned/internal/llmclient"
	"github.com/sessionmind/milestoned/internal/logging"
	"github.com/sessionmind/milestoned/internal/milestone"
	"github.com/sessionmind/milestoned/internal/ratelimit"
	"github.com/sessionmind/milestoned/internal/status"
	"github.com/sessionmind/milestoned/internal/summarizer"
)

// notification is one session-change event read from stdin, produced by
// the external transcript parser.
type notification struct {
	SessionID   string          `json:"sessionId"`
	ProjectPath string          `json:"projectPath"`
	Turns       []boundary.Turn `json:"turns"`
}

func main() {
	var (
		dataDir      = flag.String("data-dir", defaultDataDir(), "root directory for milestones/ and index.json")
		settingsPath = flag.String("settings", defaultSettingsPath(), "path to settings.json")
		llmEndpoint  = flag.String("llm-endpoint", "http://localhost:8787/invoke", "agent-execution endpoint URL")
		logLevel     = flag.String("log-level", "info", "debug|info|warn|error")
		statusPath   = flag.String("status-file", "", "path to write pipeline-status.json (defaults under data-dir)")
	)
	flag.Parse()

	logging.Init(*logLevel, os.Stderr)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("loading .env", "error", err)
	}

	if *statusPath == "" {
		*statusPath = filepath.Join(*dataDir, "pipeline-status.json")
	}

	if err := run(*dataDir, *settingsPath, *llmEndpoint, *statusPath); err != nil {
		slog.Error("milestoned exited with error", "error", err)
		os.Exit(1)
	}
}

func run(dataDir, settingsPath, llmEndpoint, statusPath string) error {
	store, err := milestone.NewStore(filepath.Join(dataDir, "milestones"))
	if err != nil {
		return fmt.Errorf("opening milestone store: %w", err)
	}

	loader := config.NewLoader(settingsPath)
	initial, err := loader.Load()
	if err != nil {
		return fmt.Errorf("loading initial settings: %w", err)
	}

	limiter := ratelimit.New(initial.Summarizer.RateLimitPerMinute)
	invoker := llmclient.NewHTTPInvoker(llmEndpoint, initial.Summarizer.CallTimeout())
	// arch (architecture-update sink) and vectors (vector-store indexer)
	// are both external collaborators outside this binary's scope; nil
	// here means Phase 2 results are persisted but neither side channel
	// fires, which is still a fully correct, if inert, wiring.
	pipeline := summarizer.NewPipeline(store, invoker, limiter, nil, nil)

	disp := dispatcher.New(store, loader, pipeline, func(projectPath string) {
		slog.Info("knowledge base regeneration triggered", "project_path", projectPath)
	})

	src := &statusSource{store: store, limiter: limiter, loader: loader, pipeline: pipeline}
	reporter := status.NewReporter(statusPath, 5*time.Second, src)

	ctx, cancel := context.WithCancel(context.Background())
	var stopOnce sync.Once
	stop := func() { stopOnce.Do(cancel) }

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutdown signal received")
		stop()
	}()

	go reporter.Run(ctx)

	slog.Info("milestoned started", "data_dir", dataDir, "settings", settingsPath, "llm_endpoint", llmEndpoint)
	return consumeNotifications(ctx, os.Stdin, disp)
}

// consumeNotifications reads one JSON notification per line until ctx is
// cancelled or stdin closes. Each notification is dispatched synchronously
// so re-extraction for a single session never races with itself; the
// dispatcher's own debounce timers handle coalescing downstream work.
func consumeNotifications(ctx context.Context, r io.Reader, disp *dispatcher.Dispatcher) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return scanner.Err()
			}
			if line == "" {
				continue
			}
			var n notification
			if err := json.Unmarshal([]byte(line), &n); err != nil {
				slog.Error("discarding malformed notification", "error", err)
				continue
			}
			if err := disp.OnSessionChanged(n.SessionID, n.ProjectPath, n.Turns); err != nil {
				slog.Error("handling session change", "session_id", n.SessionID, "error", err)
			}
		}
	}
}

// statusSource adapts the store, rate limiter, settings loader, and
// pipeline into a status.Source.
type statusSource struct {
	store    *milestone.Store
	limiter  *ratelimit.Limiter
	loader   *config.Loader
	pipeline *summarizer.Pipeline
}

func (s *statusSource) Snapshot() status.Snapshot {
	sessions, pending, enriched := s.store.Summary()
	perMinute := 0
	if settings, err := s.loader.Load(); err == nil {
		perMinute = settings.Summarizer.RateLimitPerMinute
	}

	stats := s.pipeline.Stats()

	snap := status.Snapshot{
		Status:              status.StatusIdle,
		SessionsWatched:     sessions,
		PendingEnrich:       pending,
		EnrichedTotal:       enriched,
		QueueSize:           pending,
		Processed:           stats.Processed,
		Errors:              stats.Errors,
		StartedAt:           stats.StartedAt,
		VectorsIndexed:      stats.VectorsIndexed,
		VectorErrors:        stats.VectorErrors,
		MergesApplied:       stats.MergesApplied,
		MilestonesAbsorbed:  stats.MilestonesAbsorbed,
		CurrentModel:        stats.CurrentModel,
		RateLimitInUse:      s.limiter.InUse(),
		RateLimitPerMin:     perMinute,
	}
	if stats.Processing {
		snap.Status = status.StatusProcessing
		batch := stats.CurrentBatch
		snap.CurrentBatch = &batch
	}
	if !stats.LastProcessedAt.IsZero() {
		t := stats.LastProcessedAt
		snap.LastProcessedAt = &t
	}
	if stats.BatchesCompleted > 0 {
		elapsedMinutes := time.Since(stats.StartedAt).Minutes()
		perMinuteRate := 0.0
		if elapsedMinutes > 0 {
			perMinuteRate = float64(stats.Processed) / elapsedMinutes
		}
		snap.Throughput = &status.Throughput{
			MilestonesPerMinute: perMinuteRate,
			BatchesCompleted:    stats.BatchesCompleted,
		}
	}
	return snap
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".milestoned"
	}
	return filepath.Join(home, ".claude", "milestoned")
}

func defaultSettingsPath() string {
	path, err := config.DefaultSettingsPath()
	if err != nil {
		return "settings.json"
	}
	return path
}
