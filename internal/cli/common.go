package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mvp-joe/craft/internal/config"
	"github.com/mvp-joe/craft/internal/generator"
	"github.com/mvp-joe/craft/internal/mapping"
	"github.com/mvp-joe/craft/internal/oracle"
	"github.com/mvp-joe/craft/internal/pipeline"
	"github.com/mvp-joe/craft/internal/storage"
)

// workspace is a loaded project: its root, configuration and logger.
type workspace struct {
	rootDir string
	cfg     *config.Config
	logger  *slog.Logger
}

// loadWorkspace loads the explicit config file when given, otherwise
// .craft/config.yml under the working directory.
func loadWorkspace(configPath string) (*workspace, error) {
	if configPath != "" {
		cfg, err := config.NewFileLoader(configPath).Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		return &workspace{rootDir: projectRoot(configPath), cfg: cfg, logger: slog.Default()}, nil
	}

	rootDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &workspace{rootDir: rootDir, cfg: cfg, logger: slog.Default()}, nil
}

// projectRoot is the directory relative paths in a config file resolve
// against: the parent of .craft/, or the file's own directory.
func projectRoot(configPath string) string {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		abs = configPath
	}
	dir := filepath.Dir(abs)
	if filepath.Base(dir) == ".craft" {
		return filepath.Dir(dir)
	}
	return dir
}

func (w *workspace) synthesizer() *mapping.Synthesizer {
	return mapping.NewSynthesizer(w.cfg.ToMappingConfig(), mapping.WithLogger(w.logger))
}

func (w *workspace) generator() *generator.Generator {
	return generator.New(w.cfg.ToGeneratorConfig(), w.cfg.LifecycleTable())
}

// oracle builds the AI backend. A backend that cannot be built only
// disables assist.
func (w *workspace) oracle(ctx context.Context) *oracle.Oracle {
	if !w.cfg.Oracle.Enabled {
		return oracle.Unavailable()
	}
	o, err := oracle.FromConfig(ctx, w.cfg.ToModelConfig(), w.logger)
	if err != nil {
		w.logger.Warn("AI assist disabled", "provider", w.cfg.Oracle.Provider, "error", err)
		return oracle.Unavailable()
	}
	w.logger.Debug("AI assist enabled", "provider", w.cfg.Oracle.Provider, "model", w.cfg.Oracle.Model)
	return o
}

// openStore opens the run database, or returns nil when storage is off.
func (w *workspace) openStore() (*sql.DB, error) {
	if !w.cfg.Storage.Enabled {
		return nil, nil
	}
	db, err := storage.Open(w.cfg.DBPath(w.rootDir))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return db, nil
}

// pipelineOptions describe the optional collaborators of a pipeline.
type pipelineOptions struct {
	withOracle bool
	withStore  bool
	progress   pipeline.ProgressReporter
}

// newPipeline wires a pipeline for the workspace. The returned cleanup
// closes anything opened here and is always non-nil.
func (w *workspace) newPipeline(ctx context.Context, opts pipelineOptions) (*pipeline.Pipeline, func(), error) {
	cleanup := func() {}

	pc, err := w.cfg.ToPipelineConfig(w.rootDir)
	if err != nil {
		return nil, cleanup, err
	}

	popts := []pipeline.Option{pipeline.WithLogger(w.logger)}
	if opts.progress != nil {
		popts = append(popts, pipeline.WithProgress(opts.progress))
	}
	if opts.withOracle {
		popts = append(popts, pipeline.WithOracle(w.oracle(ctx)))
	}
	if opts.withStore {
		db, err := w.openStore()
		if err != nil {
			return nil, cleanup, err
		}
		if db != nil {
			popts = append(popts, pipeline.WithStore(storage.NewRuleWriter(db)))
			cleanup = func() {
				if err := db.Close(); err != nil {
					w.logger.Warn("failed to close store", "error", err)
				}
			}
		}
	}

	p, err := pipeline.New(pc, w.synthesizer(), w.generator(), popts...)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return p, cleanup, nil
}

// signalContext returns a context cancelled on Ctrl+C or SIGTERM.
func signalContext(onSignal func()) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			if onSignal != nil {
				onSignal()
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}
