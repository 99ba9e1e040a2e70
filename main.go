package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"holdem.com/server/game"
	"holdem.com/server/internal"
	"holdem.com/server/logging"
	"holdem.com/server/nats"
	"holdem.com/server/rest"
	"holdem.com/server/rpc"
	"holdem.com/server/test"
	"holdem.com/server/util"
	"holdem.com/server/util/simulation"
)

var mainLogger = logging.GetZeroLogger("main::main", nil)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		mainLogger.Error().Msg(err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "holdem-server",
		Short:         "Texas Hold'em rules engine server",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := logging.SetLevel(util.Env.GetLogLevel())
			fmt.Printf("Setting log level to %s\n", level)
			return logging.SetupFileOutput(util.Env.GetLogFile())
		},
	}
	rootCmd.AddCommand(newServerCmd(), newScriptCmd(), newSimulateCmd(), newStacksCmd())
	return rootCmd
}

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Runs the REST and gRPC health servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer()
		},
	}
}

func newScriptCmd() *cobra.Command {
	var gameScriptsFileOrDir string
	var testName string
	cmd := &cobra.Command{
		Use:   "script",
		Short: "Runs yaml game scripts against the engine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return test.RunGameScriptTests(gameScriptsFileOrDir, testName)
		},
	}
	cmd.Flags().StringVar(&gameScriptsFileOrDir, "game-script", "test/game-scripts", "game script file or directory")
	cmd.Flags().StringVar(&testName, "testname", "", "runs scripts whose name contains this text")
	return cmd
}

func newSimulateCmd() *cobra.Command {
	var numDeals int
	var numPlayers int
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Deals random check-down hands and counts ranks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := simulation.Run(numDeals, numPlayers, nil)
			if err != nil {
				return err
			}
			report.Print(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().IntVar(&numDeals, "num-deals", 100000, "number of deals")
	cmd.Flags().IntVar(&numPlayers, "players", game.MaxPlayers, "players at the table")
	return cmd
}

func newStacksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stacks <table-id>",
		Short: "Prints the stacks recorded in the chip ledger for a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := internal.ConnectLedger(internal.GetLedgerConnStr())
			if err != nil {
				return err
			}
			defer db.Close()
			stacks, err := internal.NewPostgresChipLedger(db).LoadStacks(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, stack := range stacks {
				fmt.Fprintf(out, "seat %d  %-20s %10d  (hand %s)\n", stack.SeatNo, stack.PlayerID, stack.Chips, stack.HandID)
			}
			return nil
		},
	}
}

func newStore() (game.Store, error) {
	switch util.Env.GetPersistMethod() {
	case "redis":
		redisURL := fmt.Sprintf("%s:%d", util.Env.GetRedisHost(), util.Env.GetRedisPort())
		mainLogger.Info().Msgf("Persisting hands to redis at %s", redisURL)
		return game.NewRedisStore(redisURL, util.Env.GetRedisPW(), util.Env.GetRedisDB()), nil
	default:
		mainLogger.Info().Msg("Persisting hands in memory")
		return game.NewMemoryStore(), nil
	}
}

func runServer() error {
	store, err := newStore()
	if err != nil {
		return err
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	var sink game.AuditSink
	if natsURL := util.Env.GetNatsURL(); natsURL != "" {
		mainLogger.Info().Msgf("NATS URL: %s", natsURL)
		audit, err := nats.ConnectAuditPublisher(natsURL)
		if err != nil {
			return errors.Wrap(err, "Error connecting to NATS server")
		}
		defer audit.Close()
		sink = audit
	}

	var ledger game.ChipLedger
	if util.Env.GetPostgresHost() != "" {
		db, err := internal.ConnectLedger(internal.GetLedgerConnStr())
		if err != nil {
			return errors.Wrap(err, "Error connecting to the chip ledger")
		}
		defer db.Close()
		ledger = internal.NewPostgresChipLedger(db)
	}

	manager, err := game.NewManager(store, sink, ledger, game.ManagerConfig{
		ActionTimeout: util.Env.GetActionTimeout(),
		RevealTimeout: util.Env.GetRevealTimeout(),
		EnableTimers:  util.Env.ShouldEnableTimers(),
	})
	if err != nil {
		return errors.Wrap(err, "Error while creating the manager")
	}
	defer manager.Close()

	health := rpc.NewHealthServer()
	go func() {
		if err := health.Start(util.Env.GetRPCPort()); err != nil {
			mainLogger.Error().Msgf("gRPC health server stopped: %v", err)
		}
	}()
	defer health.Stop()
	health.SetServing(true)

	return rest.RunRestServer(manager, util.Env.GetRestPort(), util.Env.GetTimeoutRateLimit())
}
