package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/san-kum/grnsim/internal/config"
	"github.com/san-kum/grnsim/internal/experiment"
	"github.com/san-kum/grnsim/internal/export"
	"github.com/san-kum/grnsim/internal/gillespie"
	"github.com/san-kum/grnsim/internal/rng"
	"github.com/san-kum/grnsim/internal/sim"
	"github.com/san-kum/grnsim/internal/storage"
	"github.com/san-kum/grnsim/internal/trace"
	"github.com/san-kum/grnsim/internal/viz"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

// app holds the persistent flags and output streams shared by all commands.
type app struct {
	dataDir string
	verbose bool
	out     io.Writer
	errOut  io.Writer
	logger  *slog.Logger
}

type runFlags struct {
	configFile   string
	preset       string
	reactions    string
	initialState string
	seed         uint64
	steps        int
	maxTime      float64
	every        int
	output       string
	noSave       bool
}

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(GetExitCode(err))
	}
}

// newRootCmd registers every command. With no subcommand it opens the preset
// picker.
func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:           "grnsim",
		Short:         "stochastic simulation of chemical reaction networks",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(a.logger)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.pick()
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	rootCmd.PersistentFlags().StringVar(&a.dataDir, "data", ".grnsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	rf := &runFlags{}
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, rf)
		},
	}
	runCmd.Flags().StringVar(&rf.configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&rf.preset, "preset", "", "built-in network")
	runCmd.Flags().StringVar(&rf.reactions, "reactions", "", "reactions file (yaml)")
	runCmd.Flags().StringVar(&rf.initialState, "initial-state", "", "initial state file (yaml)")
	runCmd.Flags().Uint64Var(&rf.seed, "seed", 0, "random seed (default: time based)")
	runCmd.Flags().IntVar(&rf.steps, "steps", config.DefaultMaxSteps, "maximum reactions, 0 for no limit")
	runCmd.Flags().Float64Var(&rf.maxTime, "time", 0, "maximum simulated time, 0 for no limit")
	runCmd.Flags().IntVar(&rf.every, "every", config.DefaultRecordEvery, "record every n-th reaction")
	runCmd.Flags().StringVar(&rf.output, "output", "", "also write the trajectory to this csv file")
	runCmd.Flags().BoolVar(&rf.noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.list()
		},
	}

	var plotSpecies []string
	var plotWidth, plotHeight int
	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot species counts of a run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.plot(runArg(args), plotSpecies, plotWidth, plotHeight)
		},
	}
	plotCmd.Flags().StringSliceVar(&plotSpecies, "species", nil, "species to plot (default: all)")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "chart width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "chart height")

	var exportOut string
	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.export(runArg(args), exportOut, (*storage.Store).ExportJSON)
		},
	}
	exportJSONCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default: stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run trajectory to CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.export(runArg(args), exportOut, (*storage.Store).ExportCSV)
		},
	}
	exportCSVCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default: stdout)")

	var svgSpecies []string
	var svgWidth, svgHeight int
	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export species counts of a run as an SVG chart",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.export(runArg(args), exportOut, func(st *storage.Store, w io.Writer, runID string) error {
				tr, err := st.LoadTrajectory(runID)
				if err != nil {
					return err
				}
				indices, err := speciesIndices(tr, svgSpecies)
				if err != nil {
					return err
				}
				svg, err := export.TrajectoryToSVG(tr, indices, svgWidth, svgHeight)
				if err != nil {
					return err
				}
				_, err = io.WriteString(w, svg)
				return err
			})
		},
	}
	exportSVGCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default: stdout)")
	exportSVGCmd.Flags().StringSliceVar(&svgSpecies, "species", nil, "species to draw (default: all)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 400, "image height")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in networks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.presets()
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [preset] [dir]",
		Short: "write a preset as editable network and config files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.initDir(args[0], args[1])
		},
	}

	lf := &runFlags{}
	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "step a network with live visualization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.live(cmd, lf)
		},
	}
	liveCmd.Flags().StringVar(&lf.preset, "preset", "", "built-in network (default: menu)")
	liveCmd.Flags().StringVar(&lf.reactions, "reactions", "", "reactions file (yaml)")
	liveCmd.Flags().StringVar(&lf.initialState, "initial-state", "", "initial state file (yaml)")
	liveCmd.Flags().Uint64Var(&lf.seed, "seed", 0, "random seed (default: time based)")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd, exportSVGCmd, presetsCmd, initCmd, liveCmd)
	return rootCmd
}

// runConfig merges the config file, then explicitly set flags.
func runConfig(cmd *cobra.Command, rf *runFlags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Seed = config.TimeSeed()

	if rf.configFile != "" {
		loaded, err := config.Load(rf.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("preset") {
		cfg.Preset = rf.preset
		cfg.Reactions, cfg.InitialState = "", ""
	}
	if flags.Changed("reactions") || flags.Changed("initial-state") {
		cfg.Preset = ""
		cfg.Reactions, cfg.InitialState = rf.reactions, rf.initialState
	}
	if flags.Changed("seed") {
		cfg.Seed = rf.seed
	}
	if flags.Changed("steps") {
		cfg.MaxSteps = rf.steps
	}
	if flags.Changed("time") {
		cfg.MaxTime = rf.maxTime
	}
	if flags.Changed("every") {
		cfg.RecordEvery = rf.every
	}
	if flags.Changed("output") {
		cfg.Output = rf.output
	}
	return cfg, nil
}

func (a *app) run(cmd *cobra.Command, rf *runFlags) error {
	cfg, err := runConfig(cmd, rf)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	exp := experiment.New(cfg).WithLogger(a.logger)
	if err := exp.Setup(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	var csvOut *trace.CSVWriter
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "cannot create output", err)
		}
		defer f.Close()
		csvOut = trace.NewCSVWriter(f, exp.System().SpeciesNames())
		exp.Simulator().AddObserver(csvOut)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a.logger.Info("running simulation", "preset", cfg.Preset, "seed", cfg.Seed)
	start := time.Now()

	// An aborted run still returns the trajectory up to the abort; it is
	// flushed, stored and printed before the error is reported.
	result, runErr := exp.Run(ctx)
	if result == nil {
		return WrapExitError(ExitFailure, "simulation failed", runErr)
	}
	elapsed := time.Since(start)

	if csvOut != nil {
		if err := csvOut.Flush(); err != nil {
			if runErr == nil {
				return WrapExitError(ExitFailure, "cannot write output", err)
			}
			a.logger.Error("cannot write output", "error", err)
		}
	}

	runID := ""
	if !rf.noSave {
		id, err := a.store(exp, result)
		if err != nil {
			if runErr == nil {
				return err
			}
			a.logger.Error("cannot store run", "error", err)
		}
		runID = id
	}

	sys := exp.System()
	fmt.Fprintf(a.out, "finished in %v\n", elapsed)
	if runID != "" {
		fmt.Fprintf(a.out, "run id: %s\n", runID)
	}
	fmt.Fprintf(a.out, "seed: %d\n", cfg.Seed)
	fmt.Fprintf(a.out, "reactions fired: %d\n", result.StepsTaken)
	fmt.Fprintf(a.out, "stopped: %s\n", result.Stop)
	fmt.Fprintf(a.out, "final time: %g\n", sys.Time())

	fmt.Fprintln(a.out, "\nfinal state:")
	for i, name := range sys.SpeciesNames() {
		fmt.Fprintf(a.out, "  %s: %d\n", name, sys.Count(i))
	}

	fmt.Fprintln(a.out, "\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(a.out, "  %s: %.6f\n", name, result.Metrics[name])
	}

	switch {
	case errors.Is(runErr, context.Canceled):
		return WrapExitError(ExitInterrupted, "run interrupted", runErr)
	case runErr != nil:
		return WrapExitError(ExitFailure, "simulation failed", runErr)
	}
	return nil
}

func (a *app) store(exp *experiment.Experiment, result *sim.Result) (string, error) {
	st := storage.New(a.dataDir)
	if err := st.Init(); err != nil {
		return "", WrapExitError(ExitCommandError, "cannot create data directory", err)
	}
	runID, err := st.Save(exp.Metadata(), exp.Definition(), result)
	if err != nil {
		return "", WrapExitError(ExitFailure, "cannot store run", err)
	}
	return runID, nil
}

func (a *app) list() error {
	st := storage.New(a.dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(a.out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tCREATED\tSEED\tSTEPS\tSTOP\tFINAL T")

	for _, run := range runs {
		preset := run.Preset
		if preset == "" {
			preset = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%g\n",
			run.ID,
			preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Seed,
			run.Steps,
			run.Stop,
			float64(run.FinalTime),
		)
	}

	return w.Flush()
}

func (a *app) plot(prefix string, species []string, width, height int) error {
	st := storage.New(a.dataDir)
	runID, err := resolveRun(st, prefix)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	indices, err := speciesIndices(tr, species)
	if err != nil {
		return err
	}

	chart, err := viz.Plot(tr, indices, width, height)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "run: %s\n", meta.ID)
	if meta.Preset != "" {
		fmt.Fprintf(a.out, "preset: %s\n", meta.Preset)
	}
	fmt.Fprintf(a.out, "samples: %d\n\n", tr.Len())
	fmt.Fprint(a.out, chart)
	return nil
}

func runArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// resolveRun expands a run id prefix. An empty prefix selects the latest run.
func resolveRun(st *storage.Store, prefix string) (string, error) {
	if prefix == "" {
		return st.Latest()
	}
	return st.Resolve(prefix)
}

// speciesIndices maps species names to trajectory columns. No names means
// all species.
func speciesIndices(tr *trace.Trajectory, names []string) ([]int, error) {
	var indices []int
	for _, name := range names {
		idx := -1
		for i, s := range tr.Species {
			if s == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown species %q (available: %s)", name, strings.Join(tr.Species, ", ")))
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

func (a *app) export(prefix, output string, write func(*storage.Store, io.Writer, string) error) error {
	st := storage.New(a.dataDir)
	runID, err := resolveRun(st, prefix)
	if err != nil {
		return err
	}

	if output == "" {
		return write(st, a.out, runID)
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := write(st, f, runID); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(a.errOut, "exported to %s\n", output)
	return nil
}

func (a *app) presets() error {
	fmt.Fprintln(a.out, headerStyle.Render("presets:"))
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "  %s\t%d species\t%d reactions\t%s\n", name, len(p.Network.Species), len(p.Network.Reactions), p.Description)
	}
	return w.Flush()
}

// initDir writes reactions.yaml, initial_state.yaml and run.yaml into dir.
func (a *app) initDir(preset, dir string) error {
	p := config.GetPreset(preset)
	if p == nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown preset: %s (available: %v)", preset, config.ListPresets()))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	reactions := filepath.Join(dir, "reactions.yaml")
	state := filepath.Join(dir, "initial_state.yaml")
	if err := p.Network.WriteFiles(reactions, state); err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	cfg.Preset = ""
	cfg.Reactions = "reactions.yaml"
	cfg.InitialState = "initial_state.yaml"
	if err := config.Save(filepath.Join(dir, "run.yaml"), cfg); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "wrote %s, %s and %s\n", reactions, state, filepath.Join(dir, "run.yaml"))
	return nil
}

// seedStream returns a source factory that hands out consecutive seeds, so
// every reset of a live view gets a fresh stream.
func seedStream(seed uint64) func() gillespie.Source {
	return func() gillespie.Source {
		src := rng.New(seed)
		seed++
		return src
	}
}

func (a *app) live(cmd *cobra.Command, lf *runFlags) error {
	seed := config.TimeSeed()
	if cmd.Flags().Changed("seed") {
		seed = lf.seed
	}

	if lf.preset == "" && lf.reactions == "" && lf.initialState == "" {
		return a.pickWithSeed(seed)
	}

	cfg, err := runConfig(cmd, lf)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	def, err := cfg.Network()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid network", err)
	}
	sys, err := def.Build()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid network", err)
	}

	title := cfg.Preset
	if title == "" {
		title = filepath.Base(cfg.Reactions)
	}
	m := viz.NewModel(title, sys, seedStream(seed)).WithReactionNames(def.ReactionNames())
	return viz.Run(m)
}

func (a *app) pick() error {
	return a.pickWithSeed(config.TimeSeed())
}

func (a *app) pickWithSeed(seed uint64) error {
	names := config.ListPresets()
	choices := make([]viz.Choice, len(names))
	for i, name := range names {
		choices[i] = viz.Choice{Name: name, Description: config.GetPreset(name).Description}
	}

	sources := seedStream(seed)
	picker := viz.NewPicker(choices, func(name string) (viz.Model, error) {
		def := config.GetPreset(name).Network.Clone()
		sys, err := def.Build()
		if err != nil {
			return viz.Model{}, err
		}
		return viz.NewModel(name, sys, sources).WithReactionNames(def.ReactionNames()), nil
	})
	return viz.Run(picker)
}
