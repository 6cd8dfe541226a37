package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/ari-sharma/conjunction/internal/config"
	"github.com/ari-sharma/conjunction/internal/driver"
	"github.com/ari-sharma/conjunction/internal/propagate"
	"github.com/ari-sharma/conjunction/internal/storage"
	"github.com/ari-sharma/conjunction/internal/telemetry"
	"github.com/ari-sharma/conjunction/internal/tui"
)

var (
	dataDir    string
	configFile string
	presetName string
	particles  int
	chunks     int
	dt         float64
	batchSize  int
	order      int
	seed       int64
	verify     bool
	refreshMS  int
)

// main is the entry point for the conjunction CLI: it registers the run,
// presets, stats, live, and verify subcommands and executes the root
// command, exiting the process with status 1 if execution fails.
func main() {
	rootCmd := &cobra.Command{
		Use:   "conjunction",
		Short: "trajectory-bound AABB and BVH pre-pass for conjunction screening",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".conjunction", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a single superstep and persist its results",
		RunE:  runOnceCmd,
	}
	addSupersteppFlags(runCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scenario presets",
		RunE:  listPresetsCmd,
	}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "run a superstep with the BVH verifier forced on",
		RunE:  verifyCmd,
	}
	addSupersteppFlags(verifyCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run supersteps continuously with a live terminal view",
		RunE:  liveCmdRun,
	}
	addSupersteppFlags(liveCmd)
	liveCmd.Flags().IntVar(&refreshMS, "refresh-ms", 500, "milliseconds between supersteps")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "run several supersteps and plot total leaf-count history across chunks",
		RunE:  statsCmdRun,
	}
	addSupersteppFlags(statsCmd)

	rootCmd.AddCommand(runCmd, presetsCmd, verifyCmd, liveCmd, statsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addSupersteppFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&presetName, "preset", "", "use a named preset")
	cmd.Flags().IntVar(&particles, "particles", 0, "particle count (0 = use config/preset)")
	cmd.Flags().IntVar(&chunks, "chunks", 0, "chunk count K, must be a power of two (0 = use config/preset)")
	cmd.Flags().Float64Var(&dt, "dt", 0, "superstep length (0 = use config/preset)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "integrator batch width (0 = use config/preset)")
	cmd.Flags().IntVar(&order, "order", 0, "Taylor order (0 = use config/preset)")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().BoolVar(&verify, "verify", false, "run the BVH verifier after each build")
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	case presetName != "":
		c := config.GetPreset(presetName)
		if c == nil {
			return nil, fmt.Errorf("conjunction: unknown preset %q", presetName)
		}
		cfg = c
	default:
		cfg = config.DefaultConfig()
	}

	if particles != 0 {
		cfg.Particles = particles
	}
	if chunks != 0 {
		cfg.Chunks = chunks
	}
	if dt != 0 {
		cfg.Dt = dt
	}
	if batchSize != 0 {
		cfg.BatchSize = batchSize
	}
	if order != 0 {
		cfg.Order = order
	}
	cfg.Seed = seed
	if verify {
		cfg.Verify = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildSuperstep(cfg *config.Config, withStore bool) (*driver.Superstep, error) {
	log := telemetry.New(slog.LevelInfo)
	var store *storage.Store
	if withStore {
		store = storage.New(dataDir)
		if err := store.Init(); err != nil {
			return nil, err
		}
	}
	factory := func(width, order int) propagate.BatchIntegrator {
		return propagate.NewLinearIntegrator(width, order)
	}
	return driver.New(cfg, factory, log, store), nil
}

func runOnceCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := buildSuperstep(cfg, true)
	if err != nil {
		return err
	}
	states := driver.GenerateShell(cfg.Particles, 7000, cfg.Seed)
	out, err := s.Run(states)
	if err != nil {
		return err
	}
	fmt.Printf("run %s: %d chunks, %d particles\n", out.RunID, len(out.Trees), cfg.Particles)
	for k, t := range out.Trees {
		fmt.Printf("  chunk %d: %d nodes\n", k, len(t.Nodes))
	}
	return nil
}

func listPresetsCmd(cmd *cobra.Command, args []string) error {
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Printf("%-16s particles=%-8d chunks=%-4d dt=%.4f\n", name, p.Particles, p.Chunks, p.Dt)
	}
	return nil
}

func verifyCmd(cmd *cobra.Command, args []string) error {
	verify = true
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := buildSuperstep(cfg, false)
	if err != nil {
		return err
	}
	states := driver.GenerateShell(cfg.Particles, 7000, cfg.Seed)
	out, err := s.Run(states)
	if err != nil {
		return err
	}
	if len(out.Verify) != 0 {
		return out.Verify[0]
	}
	fmt.Println("all chunks verified OK")
	return nil
}

func liveCmdRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := buildSuperstep(cfg, false)
	if err != nil {
		return err
	}
	states := driver.GenerateShell(cfg.Particles, 7000, cfg.Seed)
	return tui.Run(s, states, time.Duration(refreshMS)*time.Millisecond)
}

func statsCmdRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := buildSuperstep(cfg, false)
	if err != nil {
		return err
	}
	states := driver.GenerateShell(cfg.Particles, 7000, cfg.Seed)

	const runs = 20
	leafHistory := make([]float64, 0, runs)
	for i := 0; i < runs; i++ {
		out, err := s.Run(states)
		if err != nil {
			return err
		}
		total := 0
		for _, t := range out.Trees {
			for _, n := range t.Nodes {
				if n.IsLeaf() {
					total++
				}
			}
		}
		leafHistory = append(leafHistory, float64(total))
	}

	graph := asciigraph.Plot(leafHistory, asciigraph.Height(10), asciigraph.Caption("total leaves across chunks, per superstep"))
	fmt.Println(graph)
	return nil
}
