// Package main provides the CLI entrypoint for kero.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/kero/internal/config"
	"github.com/verte-zerg/kero/internal/logging"
	"github.com/verte-zerg/kero/internal/model"
	"github.com/verte-zerg/kero/internal/recorder"
	"github.com/verte-zerg/kero/internal/store"
)

const daemonCommand = "__daemon"

var (
	flagConfig   string
	flagDB       string
	flagLogLevel string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	rootCmd := newRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kero",
		Short:         "Keyboard combo recorder",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", config.DefaultDBPath(), "database file path")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newStopCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newRecordCmd())
	rootCmd.AddCommand(newDaemonCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newClearCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLogsCmd())

	return rootCmd
}

// settings is the resolved configuration for one command invocation.
type settings struct {
	ConfigPath string
	Store      store.Config
	LogLevel   string
	LogFile    string
	PIDPath    string
	Recorder   model.RecorderConfig
}

// resolveSettings applies CLI flag > environment > config file > default.
func resolveSettings(cmd *cobra.Command) (settings, error) {
	envCfg, err := config.LoadEnv()
	if err != nil {
		return settings{}, err
	}

	configPath := flagConfig
	if !cmd.Flags().Changed("config") && envCfg.ConfigPath != "" {
		configPath = envCfg.ConfigPath
	}
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	fileCfg = envCfg.Apply(fileCfg)

	dbPath := flagDB
	applyStringConfig(cmd, "db", &dbPath, fileCfg.Store.Path)
	logLevel := flagLogLevel
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)

	s := settings{
		ConfigPath: configPath,
		Store:      store.Config{Path: dbPath},
		LogLevel:   logLevel,
		LogFile:    config.DefaultLogPath(),
		PIDPath:    config.DefaultPIDPath(),
		Recorder: model.RecorderConfig{
			Terminator: recorder.DefaultTerminator,
			Devices:    fileCfg.Recorder.Devices,
		},
	}
	if fileCfg.Store.Table != nil {
		s.Store.Table = *fileCfg.Store.Table
	}
	if fileCfg.Store.BackupSuffix != nil {
		s.Store.BackupSuffix = *fileCfg.Store.BackupSuffix
	}
	if fileCfg.Log.File != nil && *fileCfg.Log.File != "" {
		s.LogFile = *fileCfg.Log.File
	}
	if fileCfg.Recorder.Terminator != nil && *fileCfg.Recorder.Terminator != "" {
		s.Recorder.Terminator = model.KeyToken(*fileCfg.Recorder.Terminator)
	}
	return s, nil
}

func (s settings) openLogger(foreground bool) (*logrus.Logger, func() error, error) {
	return logging.New(logging.Options{
		Level:  s.LogLevel,
		File:   s.LogFile,
		Stderr: foreground,
	})
}

func (s settings) openStore() (*store.Store, error) {
	st, err := store.Open(s.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	path := s.ConfigPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	editCmd := exec.Command(parts[0], append(parts[1:], path)...)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	if err := editCmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newLogsCmd() *cobra.Command {
	var follow bool
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the recorder log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := resolveSettings(cmd)
			if err != nil {
				return err
			}
			return logging.Print(cmd.Context(), s.LogFile, cmd.OutOrStdout(), follow)
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing new log lines")
	return cmd
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# kero configuration
# Uncomment a value to enable it. KERO_* environment variables override
# config values and CLI flags override both.

[recorder]
# terminator = %q         # Key whose release stops a foreground recording
# devices = []                # Input devices (Linux); empty means auto-detect

[store]
# path = %q
# table = "keyboard"          # Table holding combo counts
# backup-suffix = ".backup"   # Appended to the db path by "kero clear --backup"

[log]
# level = "info"              # debug, info, warn, error
# file = %q
`,
		recorder.DefaultTerminator,
		config.DefaultDBPath(),
		config.DefaultLogPath(),
	)
}

func printOut(cmd *cobra.Command, format string, args ...any) error {
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
