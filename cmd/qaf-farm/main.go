package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/oranolio956/qa-automation-framework-sub006/internal/core"
	"github.com/oranolio956/qa-automation-framework-sub006/internal/fleet"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qaf-farm",
		Short: "Device farm health endpoint (/health, /metrics)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			listen, _ := cmd.Flags().GetString("listen")
			levelStr, _ := cmd.Flags().GetString("log")
			if lvl, err := zerolog.ParseLevel(levelStr); err == nil && lvl != zerolog.NoLevel {
				zerolog.SetGlobalLevel(lvl)
			}
			cfg, err := core.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if listen == "" {
				listen = cfg.Fleet.ListenAddr
			}
			srv, err := fleet.NewServer(cfg)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context(), listen)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringP("log", "l", "info", "Set log level. Available: trace, debug, info, warn, error")
	cmd.Flags().String("config", "", "config file (.yaml or .toml)")
	cmd.Flags().String("listen", "", "listen address (default from config, :8088)")
	return cmd
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	root := newRootCmd()
	root.SetContext(ctx)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
