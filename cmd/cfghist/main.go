package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/cfghist/internal/cliconfig"
	"github.com/bft-labs/cfghist/pkg/configfile"
	"github.com/bft-labs/cfghist/pkg/log"
	"github.com/bft-labs/cfghist/pkg/metrics"
)

const helpDescription = `
Keep a durable history of a server's configuration file.

Every store appends the previous content to a numbered version history,
records the new content in the "last" slot and atomically replaces the
main file. The boot, last and initial slots and named snapshots live next
to the versions in <main file>_history/ inside the config directory.

Boot names (--server-config):
  (empty)        the main file
  boot|last|initial
                 a history slot
  v<N>           version N
  <name>         a file in the config or history directory, or a snapshot prefix
  <path>         any existing file; files outside the config dir are never written
`

var exampleUsage = strings.TrimSpace(`
  cfghist --config-dir /srv/server/config boot
  cfghist --config-dir /srv/server/config store new-standard.xml
  cfghist --config-dir /srv/server/config reset --use-last
  cfghist --config-dir /srv/server/config snapshot take before-upgrade
  cfghist --config-dir /srv/server/config watch --source /srv/edit/standard.xml
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// app carries the resolved configuration shared by all subcommands.
type app struct {
	cfg     cliconfig.Config
	cfgPath string

	log      zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

// open builds a ConfigurationFile from the resolved configuration.
func (a *app) open() (*configfile.ConfigurationFile, error) {
	return configfile.New(a.cfg.FileConfig(),
		configfile.WithLogger(log.NewZerologAdapterWithLogger(a.log)),
		configfile.WithMetrics(a.metrics),
	)
}

// load applies file, env and flag configuration in that order of precedence.
func (a *app) load(cmd *cobra.Command) error {
	cfgFile := a.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&a.cfg, fc, changed); err != nil {
			return err
		}
	}

	// CFGHIST_* override the file but not explicit flags.
	if err := cliconfig.ApplyEnvConfig(&a.cfg, changed); err != nil {
		return err
	}

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.log = cliconfig.Logger(a.cfg.LogLevel)
	a.registry = prometheus.NewRegistry()
	a.metrics = metrics.New(a.registry)
	a.log.Debug().Interface("config", a.cfg).Msg("configuration")
	return nil
}

// writeMetrics dumps the registry in the textfile collector format.
func (a *app) writeMetrics() {
	if a.registry == nil || a.cfg.MetricsFile == "" {
		return
	}
	if err := prometheus.WriteToTextfile(a.cfg.MetricsFile, a.registry); err != nil {
		a.log.Warn().Err(err).Str("path", a.cfg.MetricsFile).Msg("failed to write metrics")
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "cfghist",
		Short:         "Durable configuration file history with atomic replacement",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.cfghist/config.toml)")
	flags.StringVar(&a.cfg.ConfigDir, "config-dir", a.cfg.ConfigDir, "directory holding the main configuration file")
	flags.StringVar(&a.cfg.MainFile, "main-file", a.cfg.MainFile, "name of the main configuration file")
	flags.StringVar(&a.cfg.ServerConfig, "server-config", a.cfg.ServerConfig, "boot name: empty, boot|last|initial, v<N>, file name, snapshot prefix or path")
	flags.BoolVar(&a.cfg.ReadOnly, "read-only", a.cfg.ReadOnly, "keep history but never rewrite the main file")
	flags.IntVar(&a.cfg.MaxHistory, "max-history", a.cfg.MaxHistory, "number of versions kept in the history")
	flags.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&a.cfg.MetricsFile, "metrics-file", a.cfg.MetricsFile, "write prometheus metrics to this file on exit")

	root.AddCommand(
		newBootCmd(a),
		newStoreCmd(a),
		newHistoryCmd(a),
		newResetCmd(a),
		newSnapshotCmd(a),
		newWatchCmd(a),
	)
	return root
}

func main() {
	a := &app{cfg: cliconfig.DefaultConfig(), log: cliconfig.Logger("info")}
	root := newRootCmd(a)

	err := root.Execute()
	a.writeMetrics()
	if err != nil {
		a.log.Error().Err(err).Msg("cfghist")
		os.Exit(1)
	}
}
