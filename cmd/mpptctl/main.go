package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pr-riad/MPPT-P-O/internal/config"
	"github.com/pr-riad/MPPT-P-O/internal/experiment"
	"github.com/pr-riad/MPPT-P-O/internal/mppt"
	"github.com/pr-riad/MPPT-P-O/internal/sim"
	"github.com/pr-riad/MPPT-P-O/internal/storage"
	"github.com/pr-riad/MPPT-P-O/internal/sweep"
	"github.com/pr-riad/MPPT-P-O/internal/telemetry"
	"github.com/pr-riad/MPPT-P-O/internal/viz"
)

var (
	dataDir    string
	stepSize   float64
	minVoltage float64
	maxVoltage float64
	sampleTime float64
	duration   float64
	seed       int64
	converter  string
	gain       float64
	noise      float64
	irradiance float64
	realTime   bool
	publish    bool
	// Config file
	configFile string
	// Preset name
	preset string
	// Sweep options
	sweepValues string
	sweepMetric string
)

// main is the entry point for the mpptctl CLI; it registers commands and
// flags and executes the root command, exiting with status 1 on error.
func main() {
	// Broker credentials may live in a .env next to the binary
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "mpptctl",
		Short: "perturb-and-observe MPPT lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mpptctl", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [panel]",
		Short: "run a tracking simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addTrackingFlags(runCmd)
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().BoolVar(&realTime, "realtime", false, "pace iterations at the sample time")
	runCmd.Flags().BoolVar(&publish, "publish", false, "publish samples over MQTT (broker from MQTT_BROKER)")

	liveCmd := &cobra.Command{
		Use:   "live [panel]",
		Short: "run tracking with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addTrackingFlags(liveCmd)

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

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [panel]",
		Short: "sweep step sizes and rank by a metric",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addTrackingFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepValues, "steps", "0.1,0.25,0.5,1.0,2.0", "comma-separated step sizes")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "efficiency", "metric to rank by (efficiency, convergence_time, ripple)")

	benchCmd := &cobra.Command{
		Use:   "bench [panel]",
		Short: "benchmark the tracking loop",
		Args:  cobra.ExactArgs(1),
		RunE:  benchPanel,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [panel]",
		Short: "list available presets for a panel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for panel: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd, sweepCmd, benchCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addTrackingFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&stepSize, "step", config.DefaultStepSize, "perturbation step size (V)")
	cmd.Flags().Float64Var(&minVoltage, "vmin", config.DefaultMinVoltage, "minimum reference voltage (V)")
	cmd.Flags().Float64Var(&maxVoltage, "vmax", config.DefaultMaxVoltage, "maximum reference voltage (V)")
	cmd.Flags().Float64Var(&sampleTime, "sample-time", config.DefaultSampleTime, "sample period (s)")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration (s)")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().StringVar(&converter, "converter", "ideal", "converter model (ideal, lag)")
	cmd.Flags().Float64Var(&gain, "gain", 0.5, "lag converter gain per period")
	cmd.Flags().Float64Var(&noise, "noise", config.DefaultNoiseSigma, "measurement noise sigma (A)")
	cmd.Flags().Float64Var(&irradiance, "irradiance", 1.0, "relative irradiance")
}

// buildConfig assembles the run configuration with flag > file > preset
// precedence, as flags only win when explicitly set.
func buildConfig(cmd *cobra.Command, panel string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Panel = panel

	if preset != "" {
		p := config.GetPreset(panel, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(panel))
		}
		*cfg = *p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		cfg.Panel = panel
	}

	if cmd.Flags().Changed("step") || cfg.Tracker.StepSize == 0 {
		cfg.Tracker.StepSize = stepSize
	}
	if cmd.Flags().Changed("vmin") || cfg.Tracker.MinVoltage == 0 {
		cfg.Tracker.MinVoltage = minVoltage
	}
	if cmd.Flags().Changed("vmax") || cfg.Tracker.MaxVoltage == 0 {
		cfg.Tracker.MaxVoltage = maxVoltage
	}
	if cmd.Flags().Changed("sample-time") || cfg.Tracker.SampleTime == 0 {
		cfg.Tracker.SampleTime = sampleTime
	}
	if cmd.Flags().Changed("time") || cfg.Sim.Duration == 0 {
		cfg.Sim.Duration = duration
	}
	if cmd.Flags().Changed("converter") || cfg.Converter == "" {
		cfg.Converter = converter
	}
	if cmd.Flags().Changed("gain") {
		cfg.Sim.ConverterGain = gain
	}
	if cmd.Flags().Changed("noise") {
		cfg.Sim.NoiseSigma = noise
	}
	if cmd.Flags().Changed("irradiance") {
		cfg.PanelParams.Irradiance = irradiance
	}
	if cfg.Sim.Seed == 0 || cmd.Flags().Changed("seed") {
		cfg.Sim.Seed = seed
	}
	if cmd.Flags().Changed("realtime") {
		cfg.Sim.RealTime = realTime
	}

	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	exp := experiment.New(cfg)
	if err := exp.Setup(registry); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pub *telemetry.Publisher
	if publish {
		settings := telemetry.SettingsFromEnv()
		if !settings.Enabled() {
			return fmt.Errorf("--publish set but MQTT_BROKER is empty")
		}
		pub = telemetry.NewPublisher(settings, fmt.Sprintf("%s_%d", cfg.Panel, time.Now().Unix()), cfg.Panel, cfg.MPPTConfig())
		exp.Runner().AddObserver(pub)
		go func() {
			if err := pub.Run(ctx); err != nil && err != context.Canceled {
				fmt.Fprintf(os.Stderr, "telemetry: %v\n", err)
			}
		}()
	}

	mpv, mpp := exp.MaxPowerPoint()
	fmt.Printf("running %s tracking (MPP %.2f W @ %.2f V)...\n", cfg.Panel, mpp, mpv)
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	if pub != nil {
		pub.Close()
	}

	runID, err := st.Save(cfg.Panel, cfg.Converter, exp.Runner().Controller().Config(), cfg.Sim.Duration, cfg.Sim.Seed, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", len(result.Samples))
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	panel, err := registry.GetPanel(cfg.Panel, cfg.PanelParams)
	if err != nil {
		return err
	}

	newConverter := func() sim.Converter {
		conv, _ := registry.GetConverter(cfg.Converter, cfg.Sim.ConverterGain)
		return conv
	}

	// Same noise wrapping as a headless run; Tunable still reaches the panel.
	src := experiment.ApplyNoise(panel, cfg.Sim)

	m, err := viz.NewModel(src, cfg.MPPTConfig(), newConverter, cfg.Panel)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
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
	fmt.Fprintln(w, "ID\tPANEL\tTIME\tDURATION\tSTEP\tBOUNDS\tCONV")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1fs\t%.2fV\t[%.0f,%.0f]\t%s\n",
			run.ID,
			run.Panel,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.StepSize,
			run.MinVoltage,
			run.MaxVoltage,
			run.Converter,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}

	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("panel: %s\n", meta.Panel)
	fmt.Printf("samples: %d\n\n", len(samples))

	power := make([]float64, len(samples))
	voltage := make([]float64, len(samples))
	decisions := make([]float64, len(samples))
	for i, s := range samples {
		power[i] = s.Power
		voltage[i] = s.Voltage
		switch s.Action {
		case mppt.ActionIncrease:
			decisions[i] = 1
		case mppt.ActionDecrease:
			decisions[i] = -1
		}
	}

	charts := []struct {
		data    []float64
		caption string
	}{
		{power, "power (W)"},
		{voltage, "operating voltage (V)"},
		{decisions, "decisions (+1 increase / -1 decrease)"},
	}

	for _, c := range charts {
		graph := asciigraph.Plot(c.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(c.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples, err := st.LoadHistory(args[0])
	if err != nil {
		return err
	}

	if len(samples) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"time", "voltage", "current", "power", "v_ref", "action"}); err != nil {
		return err
	}

	for _, s := range samples {
		row := []string{
			strconv.FormatFloat(s.Time, 'f', 6, 64),
			strconv.FormatFloat(s.Voltage, 'f', 6, 64),
			strconv.FormatFloat(s.Current, 'f', 6, 64),
			strconv.FormatFloat(s.Power, 'f', 6, 64),
			strconv.FormatFloat(s.Reference, 'f', 6, 64),
			string(s.Action),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	samples, err := st.LoadHistory(args[0])
	if err != nil {
		return err
	}

	out := struct {
		Meta    *storage.RunMetadata `json:"meta"`
		Samples []simSample          `json:"samples"`
	}{Meta: meta}
	for _, s := range samples {
		out.Samples = append(out.Samples, simSample{
			Time: s.Time, Voltage: s.Voltage, Current: s.Current,
			Power: s.Power, Reference: s.Reference, Action: string(s.Action),
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

type simSample struct {
	Time      float64 `json:"time"`
	Voltage   float64 `json:"voltage"`
	Current   float64 `json:"current"`
	Power     float64 `json:"power"`
	Reference float64 `json:"v_ref"`
	Action    string  `json:"action"`
}

func runSweep(cmd *cobra.Command, args []string) error {
	baseCfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	steps, err := parseFloats(sweepValues)
	if err != nil {
		return fmt.Errorf("bad --steps: %w", err)
	}

	registry := experiment.NewRegistry()
	grid := sweep.NewGrid([]string{"step_size"}, [][]float64{steps})

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := *baseCfg
		cfg.Tracker.StepSize = params["step_size"]
		exp := experiment.New(&cfg)
		if err := exp.Setup(registry); err != nil {
			return nil, err
		}
		return exp, nil
	}

	maximize := sweepMetric == "efficiency"
	best, all, err := grid.Search(context.Background(), build, sweepMetric, maximize)
	if err != nil {
		return err
	}

	fmt.Printf("sweeping %s by %s\n\n", args[0], sweepMetric)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "STEP\t%s\n", strings.ToUpper(sweepMetric))
	for _, o := range all {
		marker := ""
		if o.Params["step_size"] == best.Params["step_size"] {
			marker = "  <- best"
		}
		fmt.Fprintf(w, "%.2f\t%.6f%s\n", o.Params["step_size"], o.Score, marker)
	}
	return w.Flush()
}

func benchPanel(cmd *cobra.Command, args []string) error {
	panel := args[0]

	registry := experiment.NewRegistry()

	durations := []float64{10.0, 60.0, 600.0}
	sampleTimes := []float64{0.01, 0.1, 0.2}

	fmt.Printf("benchmarking %s\n\n", panel)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DURATION\tSAMPLE\tSTEPS\tTIME\tSTEPS/SEC")

	for _, dur := range durations {
		for _, ts := range sampleTimes {
			cfg := config.DefaultConfig()
			cfg.Panel = panel
			cfg.Tracker.SampleTime = ts
			cfg.Sim.Duration = dur
			cfg.Sim.Seed = 42
			cfg.Sim.NoiseSigma = 0

			exp := experiment.New(cfg)
			if err := exp.Setup(registry); err != nil {
				return err
			}

			start := time.Now()
			result, err := exp.Run(context.Background())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			steps := len(result.Samples)
			stepsPerSec := float64(steps) / elapsed.Seconds()

			fmt.Fprintf(w, "%.0fs\t%.2fs\t%d\t%v\t%.0f\n",
				dur, ts, steps, elapsed, stepsPerSec)
		}
	}

	return w.Flush()
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
