package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"portsim.ai/internal/persistence/indexdb"
	persistlog "portsim.ai/internal/persistence/log"
	"portsim.ai/internal/persistence/snapshot"
	"portsim.ai/internal/sim/catalogs"
	"portsim.ai/internal/sim/oracle"
	"portsim.ai/internal/sim/tuning"
	"portsim.ai/internal/sim/world"
	"portsim.ai/internal/transport/observer"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	var (
		addr       = flag.String("addr", envString("PORTSIM_ADDR", "127.0.0.1:8080"), "observer http listen address (empty to disable)")
		configDir  = flag.String("configs", envString("PORTSIM_CONFIGS", "./configs"), "config directory")
		tuningPath = flag.String("tuning", envString("PORTSIM_TUNING", ""), "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir    = flag.String("data", envString("PORTSIM_DATA", "./data"), "runtime data directory")
		logLevel   = flag.String("log_level", envString("PORTSIM_LOG_LEVEL", "info"), "debug|info|warn|error")
		disableDB  = flag.Bool("disable_db", envBool("PORTSIM_DISABLE_DB", false), "disable the sqlite run index")
		allowAny   = flag.Bool("observer_allow_remote", envBool("PORTSIM_OBSERVER_ALLOW_REMOTE", false), "serve observers on non-loopback addresses")

		seed     = flag.Int64("seed", envInt64("PORTSIM_SEED", -1), "seed override (-1 uses tuning.yaml)")
		maxTicks = flag.Int64("max_ticks", envInt64("PORTSIM_MAX_TICKS", -1), "tick limit override (-1 uses tuning.yaml, 0 runs until interrupted)")
		lazy     = flag.Int64("lazy_agents", envInt64("PORTSIM_LAZY_AGENTS", -1), "lazy agent count override (-1 uses tuning.yaml)")
	)
	flag.Parse()

	level, err := parseLevel(*logLevel)
	if err != nil {
		slog.Error("bad flag", "err", err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).With("component", "server")
	slog.SetDefault(logger)

	if err := run(logger, runOptions{
		Addr:        *addr,
		ConfigDir:   *configDir,
		TuningPath:  *tuningPath,
		DataDir:     *dataDir,
		DisableDB:   *disableDB,
		AllowRemote: *allowAny,
		Overrides:   overrides{Seed: *seed, MaxTicks: *maxTicks, LazyAgents: *lazy},
	}); err != nil {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

type runOptions struct {
	Addr        string
	ConfigDir   string
	TuningPath  string
	DataDir     string
	DisableDB   bool
	AllowRemote bool
	Overrides   overrides
}

func run(logger *slog.Logger, opts runOptions) error {
	cats, err := catalogs.Load(opts.ConfigDir)
	if err != nil {
		return err
	}
	tp := opts.TuningPath
	if tp == "" {
		tp = filepath.Join(opts.ConfigDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	cfg := worldConfig(runID, tune, opts.Overrides)
	runDir := filepath.Join(opts.DataDir, "runs", runID)
	logger = logger.With("run", runID)

	env := world.Env{Log: logger}
	if !tune.Analysis.Fake {
		env.Oracle = &oracle.Exec{Binary: tune.Analysis.Binary, ModelPath: tune.Analysis.ModelPath, Log: logger}
	}
	w, err := world.New(cfg, cats, env)
	if err != nil {
		return err
	}

	startedAt := time.Now().UTC()
	if err := persistlog.WriteManifest(runDir, persistlog.Manifest{
		RunID:           runID,
		StartedAt:       startedAt.Format(time.RFC3339),
		Config:          w.Config(),
		FakeOracle:      tune.Analysis.Fake,
		ItemsDigest:     cats.ItemsDigest,
		CompaniesDigest: cats.CompaniesDigest,
		LocationsDigest: cats.LocationsDigest,
	}); err != nil {
		return err
	}
	journal := persistlog.NewTickLogger(runDir, runID)
	defer journal.Close()

	var idx *indexdb.SQLiteIndex
	if !opts.DisableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(opts.DataDir, "index", "runs.sqlite"))
		if err != nil {
			return err
		}
		defer idx.Close()
		if err := idx.RecordRun(context.Background(), indexdb.Run{
			ID:         runID,
			StartedAt:  startedAt,
			Seed:       cfg.Seed,
			LazyAgents: cfg.LazyAgents,
			FakeOracle: tune.Analysis.Fake,
			Config:     w.Config(),
		}); err != nil {
			return err
		}
		w.SetTickLogger(world.TeeTickLogger(journal, idx))
	} else {
		w.SetTickLogger(journal)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.Addr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
			rw.WriteHeader(http.StatusOK)
			_, _ = rw.Write([]byte("ok"))
		})
		obs := observer.NewServer(w, logger)
		obs.AllowRemote = opts.AllowRemote
		obs.Register(mux)

		srv := &http.Server{Addr: opts.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			<-ctx.Done()
			ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel2()
			_ = srv.Shutdown(ctx2)
		}()
		go func() {
			logger.Info("listening", "addr", opts.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("observer http", "err", err)
			}
		}()
	}

	logger.Info("simulation started", "seed", cfg.Seed, "lazy_agents", cfg.LazyAgents, "max_ticks", cfg.MaxTicks, "fake_oracle", tune.Analysis.Fake)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	// Stop the observer server when the run ended on its own.
	cancel()

	rep := w.Stats().Report()
	if err := rep.WriteText(os.Stdout); err != nil {
		return err
	}
	if err := snapshot.WriteReport(snapshot.Path(runDir), snapshot.ReportV1{
		Header: snapshot.Header{RunID: runID, Tick: w.CurrentTick()},
		Report: rep,
	}); err != nil {
		logger.Warn("write report snapshot", "err", err)
	}
	if idx != nil {
		if err := idx.RecordFinalStats(w.CurrentTick(), rep); err != nil {
			logger.Warn("record final stats", "err", err)
		}
		if s := idx.Stats(); s.DropTickTotal > 0 {
			logger.Warn("index dropped ticks", "dropped", s.DropTickTotal)
		}
	}
	logger.Info("simulation finished", "ticks", w.CurrentTick(), "run_dir", runDir)
	return nil
}
