package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/flywheel/internal/analysis"
	"github.com/san-kum/flywheel/internal/characterize"
	"github.com/san-kum/flywheel/internal/config"
	"github.com/san-kum/flywheel/internal/experiment"
	"github.com/san-kum/flywheel/internal/optim"
	"github.com/san-kum/flywheel/internal/params"
	"github.com/san-kum/flywheel/internal/scenario"
	"github.com/san-kum/flywheel/internal/storage"
	"github.com/san-kum/flywheel/internal/telemetry"
	"github.com/san-kum/flywheel/internal/tui"
	"github.com/san-kum/flywheel/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	serialPort string
	verbose    bool
	noSave     bool

	limit     float64
	speed     float64
	watch     bool
	frameRate int
	jsonOut   string

	mode    string
	reverse bool
	doFit   bool

	chartOut string
	phase    string

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	trials     int
	perturb    float64
	seed       int64

	metric  string
	kpRange []float64
	kdRange []float64
	steps   int
	workers int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "flywheel",
		Short:         "dual-wheel shooter control lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runLive,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".flywheel", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&serialPort, "serial", "", "mirror telemetry to a serial port")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every numeric telemetry value")

	shootCmd := &cobra.Command{
		Use:   "shoot",
		Short: "simulate one shot and save the trace",
		Args:  cobra.NoArgs,
		RunE:  runShoot,
	}
	shootCmd.Flags().Float64Var(&limit, "time", 10.0, "maximum run time (s)")
	shootCmd.Flags().Float64Var(&speed, "speed", 0, "motor speed override")
	shootCmd.Flags().BoolVar(&watch, "watch", false, "draw the shot live in real time")
	shootCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate for --watch")
	shootCmd.Flags().StringVar(&jsonOut, "json", "", "also export the run to this JSON file")
	shootCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	charCmd := &cobra.Command{
		Use:   "characterize [top|bottom]",
		Short: "run a characterization procedure on one wheel",
		Args:  cobra.ExactArgs(1),
		RunE:  runCharacterize,
	}
	charCmd.Flags().StringVar(&mode, "mode", "quasistatic", "quasistatic or dynamic")
	charCmd.Flags().BoolVar(&reverse, "reverse", false, "drive in reverse")
	charCmd.Flags().BoolVar(&doFit, "fit", false, "fit the log right away")
	charCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	fitCmd := &cobra.Command{
		Use:   "fit [run_id...]",
		Short: "fit feedforward gains to characterization runs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runFit,
	}
	fitCmd.Flags().StringVar(&chartOut, "png", "", "save a voltage/velocity scatter (.png or .svg)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&chartOut, "png", "", "save the plot to a .png or .svg file instead")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "velocity ripple and frequency analysis of a shot",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&phase, "phase", "Feeding", "phase to analyze (empty = any tick with a setpoint)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario and check its phases",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "shoot once per value of a store parameter",
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", params.MotorSpeed, "store key to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 6, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 18, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	sweepCmd.Flags().Float64Var(&limit, "time", 10.0, "maximum run time per shot (s)")

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "shoot against randomly perturbed plants",
		RunE:  runMonteCarlo,
	}
	mcCmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	mcCmd.Flags().Float64Var(&perturb, "perturb", 0.1, "relative plant perturbation")
	mcCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time)")
	mcCmd.Flags().Float64Var(&limit, "time", 10.0, "maximum run time per shot (s)")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search the feedback gains",
		RunE:  runTune,
	}
	tuneCmd.Flags().StringVar(&metric, "metric", "tracking_rms", "metric to minimize")
	tuneCmd.Flags().Float64SliceVar(&kpRange, "kp", []float64{0, 0.2}, "kp range min,max")
	tuneCmd.Flags().Float64SliceVar(&kdRange, "kd", []float64{0, 0}, "kd range min,max")
	tuneCmd.Flags().IntVar(&steps, "steps", 5, "grid points per gain")
	tuneCmd.Flags().IntVar(&workers, "workers", 0, "parallel evaluations (0 = GOMAXPROCS)")
	tuneCmd.Flags().Float64Var(&limit, "time", 10.0, "maximum run time per shot (s)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				cfg := config.GetPreset(p)
				fmt.Printf("  %-26s %s %s/%s/%s\n", p, cfg.Coupling,
					cfg.Sequence.SpinUp, cfg.Sequence.Transition, cfg.Sequence.Feed)
			}
			return nil
		},
	}

	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "list shot metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, m := range experiment.ListMetrics() {
				fmt.Println(m)
			}
			return nil
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive dashboard driving a simulated shooter",
		RunE:  runLive,
	}

	rootCmd.AddCommand(shootCmd, charCmd, fitCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd,
		scenarioCmd, sweepCmd, mcCmd, tuneCmd, presetsCmd, metricsCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves defaults, then preset, then config file, then flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("serial") {
		cfg.Telemetry.SerialPort = serialPort
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Telemetry.Verbose = verbose
	}
	if f := cmd.Flags().Lookup("speed"); f != nil && f.Changed {
		cfg.Defaults.MotorSpeed = speed
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "[flywheel] ", log.LstdFlags|log.Lmsgprefix)
}

// telemetrySink logs to w and, when configured, mirrors to a serial port.
// The returned closer releases the port.
func telemetrySink(cfg *config.Config, w io.Writer) (telemetry.Sink, func(), error) {
	logSink := telemetry.NewLogSink(w, cfg.Telemetry.Verbose)
	if cfg.Telemetry.SerialPort == "" {
		return logSink, func() {}, nil
	}
	line, port, err := telemetry.OpenSerial(cfg.Telemetry.SerialPort, cfg.Telemetry.BaudRate)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		if n := line.Errors(); n > 0 {
			logSink.Logger.Printf("%d serial writes failed", n)
		}
		port.Close()
	}
	return telemetry.Multi{logSink, line}, closer, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func sequenceName(cfg *config.Config) string {
	s := cfg.Sequence
	name := fmt.Sprintf("%s/%s/%s", s.SpinUp, s.Transition, s.Feed)
	if s.UseDone {
		name += "/done"
	}
	if s.DoneDelay {
		name += "+delay"
	}
	return name
}

func runShoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logOut := io.Writer(os.Stdout)
	if watch {
		logOut = io.Discard
	}
	sink, closeSink, err := telemetrySink(cfg, logOut)
	if err != nil {
		return err
	}
	defer closeSink()

	rig, err := experiment.Build(cfg, experiment.Options{
		Sink:     sink,
		Logger:   newLogger(logOut),
		Realtime: watch,
	})
	if err != nil {
		return err
	}

	if watch {
		r := tui.NewLiveRenderer(os.Stdout, "flywheel "+sequenceName(cfg), frameRate)
		rig.Runner.AddObserver(r)
		r.Start()
		defer r.Stop()
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	result, err := rig.Shoot(ctx, time.Duration(limit*float64(time.Second)))
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	meta := storage.RunMetadata{
		Kind:       storage.KindShot,
		Preset:     preset,
		Timestamp:  time.Now(),
		TickPeriod: cfg.TickPeriod,
		Coupling:   cfg.Coupling.String(),
		Sequence:   sequenceName(cfg),
		Metrics:    result.Metrics,
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.SaveShot(meta, result.Snapshots)
		if err != nil {
			return err
		}
		meta.ID = runID
		fmt.Printf("run id: %s\n", runID)
	}
	if jsonOut != "" {
		if err := storage.ExportJSON(jsonOut, meta, result.Snapshots); err != nil {
			return err
		}
		fmt.Printf("exported to %s\n", jsonOut)
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("ticks: %d  final phase: %s\n", result.Ticks, result.Final().Phase)
	printMetrics(result.Metrics)
	return nil
}

func printMetrics(m map[string]float64) {
	fmt.Println("\nmetrics:")
	for _, name := range experiment.ListMetrics() {
		if v, ok := m[name]; ok {
			fmt.Printf("  %s: %.6f\n", name, v)
		}
	}
}

func runCharacterize(cmd *cobra.Command, args []string) error {
	actuator := strings.ToLower(args[0])
	m, err := characterize.ParseMode(mode)
	if err != nil {
		return err
	}
	dir := characterize.Forward
	if reverse {
		dir = characterize.Reverse
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sink, closeSink, err := telemetrySink(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer closeSink()

	rig, err := experiment.Build(cfg, experiment.Options{Sink: sink, Logger: newLogger(os.Stdout)})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("characterizing %s (%s %s)...\n", actuator, m, dir)
	l, _, err := rig.Characterize(ctx, actuator, m, dir)
	if err != nil {
		return err
	}
	fmt.Printf("samples: %d\n", l.Len())

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.SaveLog(storage.RunMetadata{
			Kind:       storage.KindCharacterization,
			Preset:     preset,
			Timestamp:  time.Now(),
			TickPeriod: cfg.TickPeriod,
			Coupling:   cfg.Coupling.String(),
			Actuator:   actuator,
			Mode:       m.String(),
			Direction:  dir.String(),
		}, l)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	if doFit {
		fit, err := characterize.Fit(l)
		if err != nil {
			return err
		}
		fmt.Println(fit)
	}
	return nil
}

func runFit(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	logs := make([]*characterize.Log, 0, len(args))
	for _, id := range args {
		l, err := st.LoadLog(id)
		if err != nil {
			return err
		}
		logs = append(logs, l)
	}

	fit, err := characterize.Fit(logs...)
	if err != nil {
		return err
	}

	rec := &storage.FitRecord{
		Ks:       fit.Ks,
		Kv:       fit.Kv,
		Ka:       fit.Ka,
		RSquared: fit.RSquared,
		Points:   fit.Points,
		Sources:  args,
	}
	for _, id := range args {
		if err := st.AttachFit(id, rec); err != nil {
			return err
		}
	}

	fmt.Println(fit)
	fmt.Printf("\ngains:\n  ks: %.6f\n  kv: %.6f\n  ka: %.6f\n", fit.Ks, fit.Kv, fit.Ka)

	if chartOut != "" {
		if err := viz.SaveSamplesChart(chartOut, "characterization "+strings.Join(args, ", "), logs, &fit); err != nil {
			return err
		}
		fmt.Printf("saved %s\n", chartOut)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTIME\tPRESET\tCOUPLING\tDETAIL\tFIT")

	for _, run := range runs {
		detail := run.Sequence
		if run.Kind == storage.KindCharacterization {
			detail = fmt.Sprintf("%s %s %s", run.Actuator, run.Mode, run.Direction)
		}
		fit := "-"
		if run.Fit != nil {
			fit = fmt.Sprintf("kv=%.4f", run.Fit.Kv)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			run.ID,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			orDash(run.Preset),
			orDash(run.Coupling),
			detail,
			fit,
		)
	}

	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("kind: %s\n", meta.Kind)

	if meta.Kind == storage.KindCharacterization {
		l, err := st.LoadLog(runID)
		if err != nil {
			return err
		}
		if chartOut != "" {
			var fit *characterize.FitResult
			if meta.Fit != nil {
				fit = &characterize.FitResult{Ks: meta.Fit.Ks, Kv: meta.Fit.Kv, Ka: meta.Fit.Ka}
			}
			return saveChartFile(chartOut, func() error {
				return viz.SaveSamplesChart(chartOut, runID, []*characterize.Log{l}, fit)
			})
		}
		fmt.Printf("samples: %d\n\n", l.Len())
		fmt.Println(viz.PlotSamples(l, 80, 12))
		return nil
	}

	snaps, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		return fmt.Errorf("no data to plot")
	}
	if chartOut != "" {
		return saveChartFile(chartOut, func() error {
			return viz.SaveTraceChart(chartOut, runID, snaps)
		})
	}

	fmt.Printf("ticks: %d\n\n", len(snaps))
	fmt.Println(viz.PlotTrace(snaps, 80, 12))
	fmt.Println()
	fmt.Println(viz.PlotOutputs(snaps, 80, 8))
	return nil
}

func saveChartFile(path string, save func() error) error {
	if err := save(); err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	fmt.Printf("saved %s\n", abs)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	snaps, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}

	period := time.Duration(meta.TickPeriod * float64(time.Second))
	r := analysis.RippleOf(snaps, phase, period)
	if r.Samples < 2 {
		return fmt.Errorf("no %q ticks to analyze in %s", phase, runID)
	}

	fmt.Printf("ripple analysis: %s\n", meta.ID)
	fmt.Printf("phase: %s  samples: %d\n\n", orDash(r.Phase), r.Samples)

	if len(r.Spectrum) > 1 {
		graph := asciigraph.Plot(r.Spectrum,
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption("velocity error spectrum"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	fmt.Printf("rms error: %.4f rad/s\n", r.RMS)
	fmt.Printf("peak to peak: %.4f rad/s\n", r.PeakToPeak)
	fmt.Printf("dominant frequency: %.3f hz\n", r.Frequency)
	if r.Frequency > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/r.Frequency)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	if meta.Kind != storage.KindShot {
		return fmt.Errorf("run %s is a %s run, only shots export to JSON", runID, meta.Kind)
	}
	snaps, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	return storage.WriteJSON(os.Stdout, *meta, snaps)
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := scenario.LoadScenario(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Printf("  %s\n", sc.Description)
	}
	out, err := scenario.RunScenario(ctx, sc, cfg, newLogger(os.Stdout))
	if err != nil {
		return err
	}

	fmt.Printf("\nticks: %d  events: %d\n", out.Result.Ticks, len(out.Fired))
	printMetrics(out.Result.Metrics)
	for _, f := range out.Failures {
		fmt.Printf("FAIL %s\n", f)
	}
	if !out.Passed() {
		return fmt.Errorf("scenario %s failed", sc.Name)
	}
	fmt.Println("\nPASS")
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	results, err := scenario.RunSweep(ctx, &scenario.ParameterSweep{
		Param:    sweepParam,
		Min:      sweepMin,
		Max:      sweepMax,
		NumSteps: sweepSteps,
		Limit:    time.Duration(limit * float64(time.Second)),
	}, cfg, newLogger(os.Stderr))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	names := experiment.ListMetrics()
	fmt.Fprintf(w, "%s\tTICKS\t%s\n", strings.ToUpper(sweepParam), strings.ToUpper(strings.Join(names, "\t")))
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%d", r.ParamValue, r.Ticks)
		for _, n := range names {
			fmt.Fprintf(w, "\t%.4f", r.Metrics[n])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	results, err := scenario.RunMonteCarlo(ctx, &scenario.MonteCarloConfig{
		Perturbation: perturb,
		NumTrials:    trials,
		Limit:        time.Duration(limit * float64(time.Second)),
		Seed:         seed,
	}, cfg, newLogger(os.Stderr))
	if err != nil {
		return err
	}

	reached, missed := scenario.MonteCarloStats(results)
	fmt.Printf("trials: %d  reached feeding: %d  missed: %d\n", len(results), reached, missed)

	var sum float64
	for _, r := range results {
		sum += r.Metrics["spin_up_time"]
	}
	if len(results) > 0 {
		fmt.Printf("mean spin-up time: %.3fs\n", sum/float64(len(results)))
	}
	return nil
}

func rangeOf(name string, r []float64) ([]float64, error) {
	if len(r) != 2 {
		return nil, fmt.Errorf("--%s wants min,max", name)
	}
	if r[0] == r[1] {
		return []float64{r[0]}, nil
	}
	return optim.Linspace(r[0], r[1], steps), nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, err := experiment.GetMetric(metric, cfg.Defaults.VelocityTolerance); err != nil {
		return err
	}
	kps, err := rangeOf("kp", kpRange)
	if err != nil {
		return err
	}
	kds, err := rangeOf("kd", kdRange)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	gs := optim.NewGridSearch([]string{"kp", "kd"}, [][]float64{kps, kds})
	gs.Workers = workers
	fmt.Printf("evaluating %d candidates on %s...\n", len(gs.Candidates()), metric)

	best, score, err := gs.Search(ctx, optim.ShotObjective(cfg, metric, time.Duration(limit*float64(time.Second))))
	if err != nil {
		return err
	}
	fmt.Printf("best: kp=%.6f kd=%.6f  score=%.6f\n", best["kp"], best["kd"], score)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rig, err := experiment.Build(cfg, experiment.Options{Logger: newLogger(io.Discard)})
	if err != nil {
		return err
	}
	p := tea.NewProgram(viz.NewDashboard(rig), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
