package commands

import (
	"errors"
	"log/slog"
	"os"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/astrokit/internal/catalog"
	"git.home.luguber.info/inful/astrokit/internal/component"
	"git.home.luguber.info/inful/astrokit/internal/config"
	"git.home.luguber.info/inful/astrokit/internal/doctor"
	"git.home.luguber.info/inful/astrokit/internal/fetch"
	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
	"git.home.luguber.info/inful/astrokit/internal/installer"
	"git.home.luguber.info/inful/astrokit/internal/launch"
	"git.home.luguber.info/inful/astrokit/internal/logfields"
	"git.home.luguber.info/inful/astrokit/internal/metrics"
	"git.home.luguber.info/inful/astrokit/internal/observability"
	"git.home.luguber.info/inful/astrokit/internal/repair"
	"git.home.luguber.info/inful/astrokit/internal/router"
	"git.home.luguber.info/inful/astrokit/internal/state"
	"git.home.luguber.info/inful/astrokit/internal/workspace"
)

// runtime is the wired application for one invocation.
type runtime struct {
	Config *config.Config
	Router *router.Router

	store    *state.SQLiteStore
	closeLog func() error
}

// open loads the configuration, installs the configured loggers, opens the
// state store and wires the engines behind the router.
func (c *CLI) open(g *Global) (*runtime, error) {
	cfg, err := config.Load(config.LoadOptions{Root: c.Root, ConfigPath: c.Config})
	if err != nil {
		return nil, err
	}

	layout := workspace.New(cfg.Root)
	if err := layout.Ensure(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot create installation root").
			WithContext(ferrors.KeyPath, cfg.Root).
			Hint("choose a writable directory with --root or ASTRO_HOME").
			Build()
	}

	level := cfg.Logging.Level.SlogLevel()
	if c.Verbose {
		level = config.LogLevelDebug.SlogLevel()
	}
	logFile := ""
	if cfg.Logging.FileEnabled() {
		logFile = layout.LogFile
	}
	logger, closeLog, err := observability.Setup(observability.SetupOptions{
		Level: level,
		JSON:  cfg.Logging.Format == config.LogFormatJSON,
		File:  logFile,
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot open log file").
			WithContext(ferrors.KeyPath, logFile).
			Build()
	}
	g.Logger = logger

	store, err := state.OpenSQLite(layout.StateFile)
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	registry, err := catalog.NewRegistry()
	if err != nil {
		_ = store.Close()
		_ = closeLog()
		return nil, err
	}

	fetcher := fetch.NewMux()
	if c.Verbose {
		fetcher.Handle(config.SourceGit, &fetch.GitFetcher{Progress: os.Stderr})
	}
	env := &component.Env{
		Config:  cfg,
		Layout:  layout,
		Runner:  launch.ExecRunner{},
		Fetcher: fetcher,
	}

	promReg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(promReg)
	records := state.NewRecords(store)
	inst := installer.New(registry, records, env).WithHistory(store).WithRecorder(recorder)
	doc := doctor.New(registry, records, env).WithHistory(store).WithRecorder(recorder)

	observability.DebugContext(g.Ctx, "Runtime ready",
		logfields.Path(cfg.Root),
		slog.String("config", cfg.SourceFile()))

	return &runtime{
		Config: cfg,
		Router: router.New(router.Options{
			Registry:  registry,
			Records:   records,
			History:   store,
			Env:       env,
			Installer: inst,
			Doctor:    doc,
			Repair:    repair.New(registry, inst),
			Errors:    ferrors.NewCLIErrorAdapter(c.Verbose, logger),
			Metrics:   promReg,
		}),
		store:    store,
		closeLog: closeLog,
	}, nil
}

// Close releases the state store and the log file.
func (rt *runtime) Close() error {
	return errors.Join(rt.store.Close(), rt.closeLog())
}

// route runs req through a freshly opened runtime and stores the exit code.
func (c *CLI) route(g *Global, req router.Request) error {
	rt, err := c.open(g)
	if err != nil {
		return err
	}
	defer func() {
		_ = rt.Close()
	}()
	req.MetricsFile = c.MetricsFile
	g.Exit = rt.Router.Route(g.Ctx, req)
	return nil
}
