package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/ignition/internal/analysis"
	"github.com/san-kum/ignition/internal/config"
	"github.com/san-kum/ignition/internal/driver"
	"github.com/san-kum/ignition/internal/log"
	"github.com/san-kum/ignition/internal/reactor"
	"github.com/san-kum/ignition/internal/storage"
	"github.com/san-kum/ignition/internal/tui"
	"github.com/spf13/cobra"
)

var (
	dataDir string
	debug   bool
	live    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ignition",
		Short: "ignition-delay simulation of shock-tube and RCM experiments",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return log.Init(debug)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ignition", "data directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging")

	runCmd := &cobra.Command{
		Use:   "run [case.yaml]",
		Short: "integrate one experimental case and report its ignition delay",
		Args:  cobra.ExactArgs(1),
		RunE:  runCase,
	}
	runCmd.Flags().BoolVar(&live, "live", false, "show a live trace while integrating")

	liveCmd := &cobra.Command{
		Use:   "live [case.yaml]",
		Short: "integrate one case with a live terminal trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			live = true
			return runCase(cmd, args)
		},
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [case.yaml]",
		Short: "re-run ignition analysis on a stored series",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeCase,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [case_id]",
		Short: "plot a stored series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotCase,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored cases",
		RunE:  listCases,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [case.yaml]",
		Short: "export a case's series and delays as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	initCmd := &cobra.Command{
		Use:   "init [case.yaml]",
		Short: "write a template case file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Save(args[0], config.DefaultCase())
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, analyzeCmd, plotCmd, listCmd, exportJSONCmd, initCmd)

	defer log.Sync()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func modelFactory(temp, pres float64, composition map[string]float64) (reactor.Model, error) {
	return reactor.New(reactor.Default(), temp, pres, composition)
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func runCase(cmd *cobra.Command, args []string) error {
	cs, err := config.Load(args[0])
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}

	sim := driver.New(cs, modelFactory, st)
	if err := sim.Setup(); err != nil {
		return err
	}

	start := time.Now()
	if live {
		if err := runLive(cs, sim); err != nil {
			return err
		}
	} else {
		fmt.Printf("integrating case %s to t=%g s...\n", cs.ID, sim.EndTime())
		if err := sim.Run(context.Background()); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	records, err := st.Read(cs.ID)
	if err != nil {
		return err
	}

	res, err := analysis.Analyze(records, sim.Target(), cs.CompressionTime)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d\n", len(records))
	printResult(cs, res)
	return nil
}

// runLive integrates in the background while a terminal view follows the
// trace. Quitting the view cancels the integration.
func runLive(cs *config.Case, sim *driver.Simulation) error {
	feed := tui.NewFeed()
	sim.AddObserver(feed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		err := sim.Run(ctx)
		feed.Finish(err)
		errCh <- err
	}()

	if _, err := tea.NewProgram(tui.NewModel(cs, feed)).Run(); err != nil {
		cancel()
		<-errCh
		return err
	}
	cancel()

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func analyzeCase(cmd *cobra.Command, args []string) error {
	cs, res, _, err := analyzeStored(args[0])
	if err != nil {
		return err
	}
	printResult(cs, res)
	return nil
}

// analyzeStored loads a case file and analyzes its stored series without
// re-integrating.
func analyzeStored(path string) (*config.Case, analysis.Result, *storage.Store, error) {
	cs, err := config.Load(path)
	if err != nil {
		return nil, analysis.Result{}, nil, err
	}
	if err := cs.Validate(); err != nil {
		return nil, analysis.Result{}, nil, err
	}

	st, err := openStore()
	if err != nil {
		return nil, analysis.Result{}, nil, err
	}

	records, err := st.Read(cs.ID)
	if err != nil {
		return nil, analysis.Result{}, nil, err
	}
	if len(records) == 0 {
		return nil, analysis.Result{}, nil, fmt.Errorf("no stored series for case %s (run it first)", cs.ID)
	}

	target := driver.ResolveTarget(cs, reactor.Default())
	res, err := analysis.Analyze(records, target, cs.CompressionTime)
	if err != nil {
		return nil, analysis.Result{}, nil, err
	}
	return cs, res, st, nil
}

func printResult(cs *config.Case, res analysis.Result) {
	if !res.Found {
		fmt.Println("no ignition detected")
		return
	}
	fmt.Printf("ignition delay: %.6g s (declared %.6g s)\n", res.Delay, cs.IgnitionDelay)
	if !math.IsNaN(res.FirstStage) {
		fmt.Printf("first-stage delay: %.6g s\n", res.FirstStage)
	}
}

func plotCase(cmd *cobra.Command, args []string) error {
	caseID := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	records, err := st.Read(caseID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no data to plot for case %s", caseID)
	}

	fmt.Printf("case: %s\n", caseID)
	fmt.Printf("samples: %d\n\n", len(records))

	channels := []struct {
		caption string
		extract func(r storage.Record) float64
	}{
		{"temperature [K]", func(r storage.Record) float64 { return r.Temperature }},
		{"pressure [Pa]", func(r storage.Record) float64 { return r.Pressure }},
		{"volume [m3]", func(r storage.Record) float64 { return r.Volume }},
	}

	for _, ch := range channels {
		data := make([]float64, len(records))
		for i, r := range records {
			data[i] = ch.extract(r)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(ch.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func listCases(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	ids, err := st.List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("no cases found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CASE\tSTEPS\tEND TIME\tPEAK T")

	for _, id := range ids {
		records, err := st.Read(id)
		if err != nil {
			return err
		}
		var endTime, peakT float64
		if n := len(records); n > 0 {
			endTime = records[n-1].Time
			for _, r := range records {
				if r.Temperature > peakT {
					peakT = r.Temperature
				}
			}
		}
		fmt.Fprintf(w, "%s\t%d\t%.6gs\t%.1fK\n", id, len(records), endTime, peakT)
	}

	return w.Flush()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	cs, res, st, err := analyzeStored(args[0])
	if err != nil {
		return err
	}

	results := map[string]float64{
		"declared-delay": cs.IgnitionDelay,
	}
	if res.Found {
		results["ignition-delay"] = res.Delay
	}
	// NaN marks "no first stage" and is not representable in JSON.
	if !math.IsNaN(res.FirstStage) {
		results["first-stage-delay"] = res.FirstStage
	}

	return st.ExportJSON(cs.ID, results, os.Stdout)
}
