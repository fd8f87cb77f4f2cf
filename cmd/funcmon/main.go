// Command funcmon demonstrates the function monitor on sample workloads.
// Configuration comes from FUNCMON_* environment variables (a .env file in
// the working directory is honored) plus command-line flags.
package main

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/funcmon"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "funcmon",
		Short:         "Run sample workloads under the function monitor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	return root
}

type runFlags struct {
	configFile  string
	iterations  int
	concurrency int
	raw         bool
	failureRate float64
}

func newRunCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute monitored sample workloads and print their envelopes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "YAML configuration file")
	cmd.Flags().IntVarP(&flags.iterations, "iterations", "n", 5, "number of workload invocations")
	cmd.Flags().IntVarP(&flags.concurrency, "concurrency", "p", 1, "concurrent invocations")
	cmd.Flags().BoolVar(&flags.raw, "raw", false, "return raw results instead of envelopes")
	cmd.Flags().Float64Var(&flags.failureRate, "failure-rate", 0.2, "fraction of invocations that fail")

	return cmd
}

func run(flags *runFlags) error {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	cfg := funcmon.DefaultConfig()
	var err error
	if flags.configFile != "" {
		cfg, err = funcmon.FromFile(flags.configFile, cfg)
		if err != nil {
			return err
		}
	}
	cfg, err = funcmon.FromEnv(cfg)
	if err != nil {
		return err
	}
	cfg = cfg.Merge(funcmon.WithReturnRawResult(flags.raw))

	monitor, err := funcmon.New(funcmon.WithConfig(cfg))
	if err != nil {
		return err
	}

	workload := monitor.Wrap("sample_workload", funcmon.F1(func(ms int) (string, error) {
		time.Sleep(time.Duration(ms) * time.Millisecond)
		if rand.Float64() < flags.failureRate {
			return "", errors.New("simulated workload failure")
		}
		return fmt.Sprintf("processed in %dms", ms), nil
	}))

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	sp.Suffix = " running workloads..."
	sp.Start()

	outputs := make([]any, flags.iterations)
	var g errgroup.Group
	g.SetLimit(max(flags.concurrency, 1))
	for i := 0; i < flags.iterations; i++ {
		i := i
		g.Go(func() error {
			outputs[i] = workload.Call(10 + rand.Intn(40))
			return nil
		})
	}
	err = g.Wait()
	sp.Stop()
	if err != nil {
		return err
	}

	for i, out := range outputs {
		switch v := out.(type) {
		case *funcmon.ExecutionResult:
			payload, jerr := v.JSON()
			if jerr != nil {
				return jerr
			}
			fmt.Printf("%d: %s\n", i, payload)
		default:
			fmt.Printf("%d: %v\n", i, v)
		}
	}
	return nil
}
