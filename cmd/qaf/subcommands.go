package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/oranolio956/qa-automation-framework-sub006/internal/archive"
	"github.com/oranolio956/qa-automation-framework-sub006/internal/core"
	"github.com/oranolio956/qa-automation-framework-sub006/internal/fleet"
	prov "github.com/oranolio956/qa-automation-framework-sub006/internal/providers"
	"github.com/oranolio956/qa-automation-framework-sub006/internal/providers/httpapi"
	"github.com/oranolio956/qa-automation-framework-sub006/internal/providers/script"
	"github.com/oranolio956/qa-automation-framework-sub006/internal/ssh"
	"github.com/oranolio956/qa-automation-framework-sub006/pkg/api"
)

// Resolve the registry
func resolveRegistry(cfg prov.Config) *prov.Registry {
	reg := prov.NewRegistry()
	reg.Register("script", script.New(cfg))
	reg.Register("http", httpapi.New(cfg))
	return reg
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// List provisioning backends
func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List provisioning backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "default: %s\n", cfg.Backends.Default)
			for _, name := range resolveRegistry(cfg).Names() {
				fmt.Fprintf(out, "registered: %s\n", name)
			}
			return nil
		},
	}
}

// Print a chunk plan without provisioning
func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the chunk plan for a request without provisioning anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			maxChunk, _ := cmd.Flags().GetInt("max-chunk")
			if maxChunk == 0 {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				maxChunk = cfg.Provisioning.MaxChunk
			}
			plan, err := core.PlanChunks(count, maxChunk)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"total_requested": count,
				"max_chunk":       maxChunk,
				"chunks":          len(plan),
				"chunk_plan":      plan,
			})
		},
	}
	cmd.Flags().IntP("count", "n", 0, "number of accounts to provision")
	cmd.Flags().Int("max-chunk", 0, "maximum accounts per chunk (default from config)")
	_ = cmd.MarkFlagRequired("count")
	return cmd
}

// runSummary replaces the account lists with their lengths.
type runSummary struct {
	*api.SessionReport
	Created int `json:"created"`
	Failed  int `json:"failed"`
}

// Provision accounts
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Provision accounts in sequential chunks and persist the created records",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			maxChunk, _ := cmd.Flags().GetInt("max-chunk")
			backend, _ := cmd.Flags().GetString("backend")
			outDir, _ := cmd.Flags().GetString("output-dir")
			format, _ := cmd.Flags().GetString("format")
			prefix, _ := cmd.Flags().GetString("prefix")
			noLedger, _ := cmd.Flags().GetBool("no-ledger")
			full, _ := cmd.Flags().GetBool("full")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			p := &cfg.Provisioning
			if maxChunk == 0 {
				maxChunk = p.MaxChunk
			}
			if backend == "" {
				backend = cfg.Backends.Default
			}
			if outDir != "" {
				p.OutputDir = outDir
			}
			if format != "" {
				p.OutputFormat = format
			}
			if prefix != "" {
				p.NamePrefix = prefix
			}

			capability, err := resolveRegistry(cfg).Get(backend)
			if err != nil {
				return err
			}
			ctrl := core.NewController(prov.Throttle(capability, p.RatePerSecond), backend)
			ctrl.ChunkTimeout = time.Duration(p.ChunkTimeoutSeconds) * time.Second

			orch := &core.Orchestrator{
				Controller: ctrl,
				Persister:  core.NewPersister(p.OutputDir, p.OutputFormat),
				NamePrefix: p.NamePrefix,
			}
			arch, err := archive.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			orch.Archiver = arch
			if !noLedger {
				if st, err := openLedger(cfg.Ledger.Path); err != nil {
					log.Warn().Err(err).Str("path", cfg.Ledger.Path).Msg("session ledger unavailable, continuing without it")
				} else {
					defer st.Close()
					orch.Ledger = st
				}
			}

			rep, runErr := orch.Run(cmd.Context(), count, maxChunk)
			if rep != nil {
				var out any = runSummary{SessionReport: rep, Created: len(rep.Created), Failed: len(rep.Failed)}
				if full {
					out = rep
				}
				if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
					return err
				}
			}
			if runErr != nil {
				return runErr
			}
			if rep.Aborted {
				return fmt.Errorf("session %s aborted: %s", rep.SessionID, rep.AbortReason)
			}
			return nil
		},
	}
	cmd.Flags().IntP("count", "n", 0, "number of accounts to provision")
	cmd.Flags().Int("max-chunk", 0, "maximum accounts per chunk (default from config)")
	cmd.Flags().String("backend", "", "backend name (default from config)")
	cmd.Flags().String("output-dir", "", "directory for the created accounts file")
	cmd.Flags().String("format", "", "output format: json or yaml")
	cmd.Flags().String("prefix", "", "output file name prefix")
	cmd.Flags().Bool("no-ledger", false, "do not record the session in the sqlite ledger")
	cmd.Flags().Bool("full", false, "print created and failed records instead of counts")
	_ = cmd.MarkFlagRequired("count")
	return cmd
}

func openLedger(path string) (*core.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("mkdir ledger dir: %w", err)
	}
	return core.NewStore(path)
}

// List past sessions
func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recent provisioning sessions from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if _, err := os.Stat(cfg.Ledger.Path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), "no sessions recorded")
				return nil
			}
			st, err := core.NewStore(cfg.Ledger.Path)
			if err != nil {
				return err
			}
			defer st.Close()
			rows, err := st.ListSessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range rows {
				state := string(core.StateCompleted)
				if r.Aborted {
					state = string(core.StateAborted)
				}
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%d/%d\t%.2f\t%s\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime), r.Backend, state,
					r.Created, r.TotalRequested, r.SuccessRate, r.Output)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "maximum sessions to list")
	return cmd
}

// Probe the device farm once
func newHealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe the device farm once and print the health document",
		RunE: func(cmd *cobra.Command, args []string) error {
			strict, _ := cmd.Flags().GetBool("strict")
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			probe, err := fleet.FromConfig(cfg)
			if err != nil {
				return err
			}
			doc := fleet.HealthDocument(probe.Probe(cmd.Context()))
			if err := writeJSON(cmd.OutOrStdout(), doc); err != nil {
				return err
			}
			if strict && doc.Status != api.FleetHealthy {
				return fmt.Errorf("fleet %s is %s", doc.FarmHost, doc.Status)
			}
			return nil
		},
	}
	cmd.Flags().Bool("strict", false, "exit non-zero when the fleet is degraded")
	return cmd
}

// Serve /health and /metrics
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the fleet health endpoint and Prometheus metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			listen, _ := cmd.Flags().GetString("listen")
			cfg, err := loadConfig(cmd)
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
	}
	cmd.Flags().String("listen", "", "listen address (default from config)")
	return cmd
}

// Initialize configuration and farm SSH material
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config and generate the farm SSH key. Run this the first time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			if cfgPath == "" {
				cfgPath = core.DefaultConfigPath()
			}
			out := cmd.OutOrStdout()
			wrote, err := core.WriteDefaultConfig(cfgPath)
			if err != nil {
				return err
			}
			if wrote {
				fmt.Fprintf(out, "wrote default config to %s\n", cfgPath)
			} else {
				fmt.Fprintf(out, "config already exists at %s\n", cfgPath)
			}

			cfg, err := core.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			keyPath := cfg.Fleet.SSH.KeyPath
			if _, err := os.Stat(keyPath); errors.Is(err, os.ErrNotExist) {
				pub, err := ssh.GenerateEd25519Keypair(keyPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "generated %s\nadd this key to the farm host's authorized_keys:\n%s", keyPath, pub)
			} else {
				fmt.Fprintf(out, "using existing key %s\n", keyPath)
			}
			if err := ssh.EnsureKnownHostsFile(cfg.Fleet.SSH.KnownHosts); err != nil {
				return err
			}
			fmt.Fprintf(out, "known_hosts at %s\n", cfg.Fleet.SSH.KnownHosts)
			return nil
		},
	}
}

// Pin the farm host key
func newTrustCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trust <host-key.pub>",
		Short: "Pin the farm host's public key in known_hosts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extra, _ := cmd.Flags().GetStringSlice("alias")
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			key, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read host key: %w", err)
			}
			host := cfg.Fleet.FarmHost
			if port := cfg.Fleet.SSH.Port; port != 22 {
				host = net.JoinHostPort(host, strconv.Itoa(port))
			}
			hosts := append([]string{host}, extra...)
			if err := ssh.AppendKnownHost(cfg.Fleet.SSH.KnownHosts, hosts, string(key)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pinned %s for %s\n", strings.TrimSpace(strings.SplitN(string(key), " ", 3)[0]), strings.Join(hosts, ","))
			return nil
		},
	}
	cmd.Flags().StringSlice("alias", nil, "additional host names or IPs for the same key")
	return cmd
}
