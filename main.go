package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"HistoricalBattleSimulator/internal/config"
	"HistoricalBattleSimulator/internal/logging"
	"HistoricalBattleSimulator/internal/oracle"
	"HistoricalBattleSimulator/internal/sim"
)

var (
	logFile     string
	logLevel    string
	quiet       bool
	summaryPath string
	rounds      int
	offline     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "battlesim <scenario>",
		Short: "Turn based historical battle command simulator",
		Long: `Runs a two faction battle described by a YAML or JSON scenario.
Every unit asks a decision oracle for its orders each turn; without
configured endpoints a built-in doctrine decides instead.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         runBattle,
	}
	rootCmd.Flags().StringVarP(&logFile, "log-file", "l", logging.DefaultFile, "Append the turn log to this file (empty disables)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "No console log and no banner")
	rootCmd.Flags().StringVarP(&summaryPath, "summary", "s", "", "Summary output path (.json, .yaml or .yml)")
	rootCmd.Flags().IntVarP(&rounds, "rounds", "r", 0, "Override the scenario's round limit")
	rootCmd.Flags().BoolVar(&offline, "offline", false, "Use the built-in doctrine instead of the oracle endpoints")

	rootCmd.AddCommand(&cobra.Command{
		Use:          "validate <scenario>",
		Short:        "Check a scenario and list its forces",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         runValidate,
	})

	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// loadScenario reads, overrides and validates a scenario.
func loadScenario(path string) (*config.Scenario, error) {
	scn, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := scn.ApplyEnv(); err != nil {
		return nil, err
	}
	if offline {
		scn.Oracle.Offline = true
	}
	if err := scn.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return scn, nil
}

func newOracle(scn *config.Scenario, log *zap.Logger) (oracle.Oracle, error) {
	if scn.Oracle.Offline || len(scn.Oracle.Endpoints) == 0 {
		log.Info("using offline doctrine")
		return oracle.DefaultDoctrine(), nil
	}
	client, err := oracle.NewClient(oracle.ClientConfig{
		Endpoints:   scn.Oracle.Endpoints,
		Model:       scn.Oracle.Model,
		APIKey:      scn.Oracle.APIKey,
		Timeout:     scn.Oracle.Timeout,
		Temperature: scn.Oracle.Temperature,
		MaxTokens:   scn.Oracle.MaxTokens,
		Logger:      log.Named("oracle"),
	})
	if err != nil {
		return nil, err
	}
	log.Info("using oracle endpoints", zap.Strings("endpoints", scn.Oracle.Endpoints), zap.String("model", scn.Oracle.Model))
	return client, nil
}

func runBattle(cmd *cobra.Command, args []string) error {
	scn, err := loadScenario(args[0])
	if err != nil {
		return err
	}
	level := logLevel
	if level == "" {
		level = scn.LogLevel
	}
	log, closeLog, err := logging.New(logging.Options{File: logFile, Console: !quiet, Level: level})
	if err != nil {
		return err
	}
	defer closeLog()

	orc, err := newOracle(scn, log)
	if err != nil {
		return err
	}
	s, err := sim.New(scn, sim.WithOracle(orc), sim.WithLogger(log), sim.WithRounds(rounds))
	if err != nil {
		return err
	}
	if !quiet {
		printBanner(scn, s)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	sum, runErr := s.Run(ctx)

	path := summaryPath
	if path == "" {
		path = scn.SummaryPath
	}
	if err := sim.WriteSummary(path, sum); err != nil {
		return err
	}
	log.Info("summary written", zap.String("path", path), zap.String("run", sum.RunID))

	printOutcome(sum, path)
	printUnits(sum)
	return runErr
}

func runValidate(cmd *cobra.Command, args []string) error {
	scn, err := loadScenario(args[0])
	if err != nil {
		return err
	}
	field, err := scn.Field()
	if err != nil {
		return err
	}
	color.New(color.FgGreen, color.Bold).Printf("%s is valid\n", args[0])
	fmt.Printf("%d rounds on a %.0fx%.0f field with %d features\n\n",
		scn.RoundLimit(), field.Width, field.Height, len(field.Features))
	printForces(scn)
	return nil
}
