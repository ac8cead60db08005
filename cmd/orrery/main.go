package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/soniakeys/unit"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/config"
	"github.com/san-kum/orrery/internal/engine"
	"github.com/san-kum/orrery/internal/ephem"
	"github.com/san-kum/orrery/internal/logging"
	"github.com/san-kum/orrery/internal/metrics"
	"github.com/san-kum/orrery/internal/orbit"
	"github.com/san-kum/orrery/internal/viz"
)

var (
	configFile string
	presetName string
	target     string
	mode       string
	start      string
	timeScale  float64
	// live
	theme string
	// run
	duration    time.Duration
	metricsAddr string
	flyTo       []string
	// trace
	traceFrom    string
	traceSpan    time.Duration
	traceSamples int
	// export
	exportAt     string
	exportBodies []string
)

// stabilityRadius bounds every body's distance from the origin in the
// headless stability check: 1000 AU.
const stabilityRadius = 1000 * orbit.AU

func main() {
	rootCmd := &cobra.Command{
		Use:          "orrery",
		Short:        "solar system simulation with a targeting camera",
		SilenceUsage: true,
		RunE:         runLive,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&presetName, "preset", "", "use preset configuration")
	pf.StringVar(&target, "target", "", "initial camera target")
	pf.StringVar(&mode, "mode", "", "camera mode: look_at, follow, surface")
	pf.StringVar(&start, "start", "", "start time (RFC3339)")
	pf.Float64Var(&timeScale, "scale", 0, "simulated seconds per real second")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive terminal view",
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&theme, "theme", "", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	rootCmd.Flags().AddFlagSet(liveCmd.Flags())

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run headless, optionally serving prometheus metrics",
		RunE:  runHeadless,
	}
	runCmd.Flags().DurationVar(&duration, "duration", 0, "real time to run; zero runs until interrupted")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics on this address")
	runCmd.Flags().StringSliceVar(&flyTo, "fly-to", nil, "targets to visit in turn")

	traceCmd := &cobra.Command{
		Use:   "trace [body]",
		Short: "plot a body's distance from another over simulated time",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTrace,
	}
	traceCmd.Flags().StringVar(&traceFrom, "from", "Sun", "body to measure from")
	traceCmd.Flags().DurationVar(&traceSpan, "span", 365*24*time.Hour, "simulated time to cover")
	traceCmd.Flags().IntVar(&traceSamples, "samples", 120, "number of samples")

	bodiesCmd := &cobra.Command{
		Use:   "bodies",
		Short: "list catalog bodies at the start time",
		RunE:  listBodies,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, name := range config.ListPresets() {
				fmt.Fprintf(w, "%s\t%s\n", name, config.DescribePreset(name))
			}
			return w.Flush()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage config files",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a config file from the defaults or --preset",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	configCmd.AddCommand(configInitCmd)

	exportCmd := &cobra.Command{
		Use:   "export [dir]",
		Short: "write sampled kinematics as per-body CSV files",
		Args:  cobra.ExactArgs(1),
		RunE:  exportKinematics,
	}
	exportCmd.Flags().StringVar(&exportAt, "at", "", "center time (RFC3339); defaults to the start time")
	exportCmd.Flags().StringSliceVar(&exportBodies, "bodies", nil, "bodies to export; empty exports all")

	rootCmd.AddCommand(liveCmd, runCmd, traceCmd, bodiesCmd, presetsCmd, configCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves --preset, then --config (which overrides the preset),
// then individual flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if presetName != "" {
		cfg = config.GetPreset(presetName)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", presetName, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("target") {
		cfg.Target = target
	}
	if flags.Changed("mode") {
		cfg.Mode = mode
	}
	if flags.Changed("start") {
		cfg.Start = start
	}
	if flags.Changed("scale") {
		cfg.TimeScale = timeScale
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	// the view owns the terminal, so logs go to a file or nowhere
	var out io.Writer = io.Discard
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	lc := cfg.LoggingConfig()
	lc.Output = out
	log := logging.New(lc)

	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	term := viz.NewTerminal(80, 24, unit.AngleFromDeg(cfg.Camera.FOV))
	opts.Renderer = term
	opts.Logger = log

	e, err := engine.New(ctx, opts)
	if err != nil {
		return err
	}
	e.AddObserver(term)
	e.Start()
	defer e.Stop()

	m := viz.NewModel(ctx, e, term, cfg.FPS, log)
	if theme != "" {
		m = m.WithTheme(theme)
	}
	err = viz.Run(ctx, m)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()
	if duration > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, duration)
		defer stop()
	}

	log := logging.New(cfg.LoggingConfig())
	reg := prometheus.NewRegistry()
	collector, err := metrics.NewFrameCollector(reg)
	if err != nil {
		return err
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	opts.Logger = log
	opts.Metrics = collector
	opts.Renderer = engine.NopRenderer{}
	e, err := engine.New(ctx, opts)
	if err != nil {
		return err
	}

	stability := metrics.NewStability(stabilityRadius)
	e.AddObserver(stability)
	var drift *metrics.EnergyDrift
	if energy, ok := e.GravityEnergy(); ok {
		drift = metrics.NewEnergyDrift(energy, collector)
		e.AddObserver(drift)
	}

	addr := metricsAddr
	if addr == "" {
		addr = cfg.MetricsAddr
	}
	if addr != "" {
		srv := serveMetrics(ctx, addr, collector.Handler(), log)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	go logTargetChanges(ctx, e, log)
	if len(flyTo) > 0 {
		go tour(ctx, e, flyTo, log)
	}

	err = e.Run(ctx, cfg.FPS)
	s := e.State()
	fields := []logging.Field{
		logging.Uint64("frames", s.Frame),
		logging.String("time", s.Time.Format(time.RFC3339)),
		logging.String("target", s.Target),
		logging.Float("stability", stability.Value()),
	}
	if drift != nil {
		fields = append(fields, logging.Float("energy_drift", drift.Value()))
	}
	log.Info(context.Background(), "run finished", fields...)

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func serveMetrics(ctx context.Context, addr string, h http.Handler, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info(ctx, "serving metrics", logging.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "metrics server failed", logging.Err(err))
		}
	}()
	return srv
}

func logTargetChanges(ctx context.Context, e *engine.Engine, log logging.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-e.Events():
			log.Info(ctx, "arrived", logging.String("target", ev.Body.Name))
		}
	}
}

// tour flies to each name in turn, moving on once the camera arrives.
func tour(ctx context.Context, e *engine.Engine, names []string, log logging.Logger) {
	poll := time.NewTicker(100 * time.Millisecond)
	defer poll.Stop()
	for _, name := range names {
		if err := e.SetTarget(name); err != nil {
			log.Warn(ctx, "tour stop skipped", logging.String("target", name), logging.Err(err))
			continue
		}
		for e.State().InTransition {
			select {
			case <-ctx.Done():
				return
			case <-poll.C:
			}
		}
	}
}

func runTrace(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if traceSamples < 2 || traceSpan <= 0 {
		return fmt.Errorf("need at least 2 samples over a positive span")
	}
	name := cfg.Target
	if len(args) == 1 {
		name = args[0]
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	opts.TimeScale = 1
	opts.Renderer = engine.NopRenderer{}
	opts.Logger = logging.New(cfg.LoggingConfig())
	e, err := engine.New(cmd.Context(), opts)
	if err != nil {
		return err
	}
	e.Start()
	defer e.Stop()

	step := traceSpan.Seconds() / float64(traceSamples-1)
	data := make([]float64, 0, traceSamples)
	for i := 0; i < traceSamples; i++ {
		if i > 0 {
			if err := e.Frame(step); err != nil {
				return err
			}
		}
		d, err := separation(e.Bodies(), name, traceFrom)
		if err != nil {
			return err
		}
		data = append(data, d/orbit.AU)
	}

	s := e.State()
	fmt.Fprintf(cmd.OutOrStdout(), "%s from %s, %s to %s\n\n", name, traceFrom,
		opts.Start.Format("2006-01-02"), s.Time.Format("2006-01-02"))
	fmt.Fprintln(cmd.OutOrStdout(), asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Precision(4),
		asciigraph.Caption("distance (AU)"),
	))
	return nil
}

func separation(bodies []*body.Body, a, b string) (float64, error) {
	m, err := body.NewMap(bodies)
	if err != nil {
		return 0, err
	}
	ba, err := m.Get(a)
	if err != nil {
		return 0, err
	}
	bb, err := m.Get(b)
	if err != nil {
		return 0, err
	}
	return r3.Norm(r3.Sub(ba.Position, bb.Position)), nil
}

func listBodies(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, err := cfg.Source()
	if err != nil {
		return err
	}
	at, _ := cfg.StartTime()
	bodies, err := src.LoadBodies(cmd.Context(), at)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tPARENT\tRADIUS\tDISTANCE\tDAY")
	for _, b := range bodies {
		day := "-"
		if b.RotationPeriod != 0 {
			day = fmt.Sprintf("%.2fh", math.Abs(b.RotationPeriod)/3600)
		}
		parent := b.Parent
		if parent == "" {
			parent = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0f km\t%.4f AU\t%s\n",
			b.Name, b.Kind, parent, b.Radius/1000, r3.Norm(b.Position)/orbit.AU, day)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if presetName != "" {
		cfg = config.GetPreset(presetName)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", presetName, config.ListPresets())
		}
	}
	if _, err := os.Stat(args[0]); err == nil {
		return fmt.Errorf("%s already exists", args[0])
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
	return nil
}

func exportKinematics(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	at, _ := cfg.StartTime()
	if exportAt != "" {
		if at, err = time.Parse(time.RFC3339, exportAt); err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
	}
	src, err := cfg.Source()
	if err != nil {
		return err
	}
	k, err := src.LoadKinematicsAtTime(cmd.Context(), exportBodies, at)
	if err != nil {
		return err
	}
	if err := ephem.SaveKinematics(args[0], k); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %d tracks around %s to %s\n", k.Len(), at.Format(time.RFC3339), args[0])
	return nil
}
