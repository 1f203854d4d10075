package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/kero/internal/daemon"
	"github.com/verte-zerg/kero/internal/hook"
	"github.com/verte-zerg/kero/internal/recorder"
)

func newRecordCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record key combos in the foreground until Esc is released",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRecord(cmd, input, true)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "replay key events from a file (\"-\" for stdin) instead of the keyboard")
	return cmd
}

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:    daemonCommand,
		Short:  "Run the recorder in the background",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := resolveSettings(cmd)
			if err != nil {
				return err
			}
			defer func() {
				if rerr := daemon.ReleaseIfOwned(s.PIDPath, os.Getpid()); rerr != nil {
					logErrf("failed to release pid file: %v\n", rerr)
				}
			}()
			return runRecord(cmd, "", false)
		},
	}
}

func runRecord(cmd *cobra.Command, input string, foreground bool) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := s.openLogger(foreground)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeLog(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()

	source, closeSource, err := openSource(cmd, input, s, log)
	if err != nil {
		log.WithError(err).Error("Failed to open key source")
		return err
	}
	defer closeSource()

	st, err := s.openStore()
	if err != nil {
		log.WithError(err).Error("Failed to open database")
		return err
	}
	defer closeStore(st)

	err = recorder.Run(cmd.Context(), recorder.Options{
		Source:     source,
		Sink:       st,
		Terminator: s.Recorder.Terminator,
		Logger:     log,
	})
	if err != nil {
		log.WithError(err).Error("Keyboard recorder failed")
		return hookHint(err)
	}
	log.Info("Keyboard recorder exited.")
	return nil
}

func openSource(cmd *cobra.Command, input string, s settings, log logrus.FieldLogger) (hook.Source, func(), error) {
	noop := func() {}
	switch input {
	case "":
		return hook.Native(hook.Options{Devices: s.Recorder.Devices, Logger: log}), noop, nil
	case "-":
		return hook.NewScript(cmd.InOrStdin()), noop, nil
	}
	file, err := os.Open(input)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to open input: %w", err)
	}
	closeFn := func() {
		if cerr := file.Close(); cerr != nil {
			logErrf("failed to close input: %v\n", cerr)
		}
	}
	return hook.NewScript(file), closeFn, nil
}

// hookHint adds a platform remedy to hook initialisation failures.
func hookHint(err error) error {
	switch {
	case errors.Is(err, hook.ErrAccessibilityPermission):
		return fmt.Errorf("%w\ngrant Accessibility (Input Monitoring) access to this terminal in System Settings", err)
	case errors.Is(err, hook.ErrNoDevices):
		return fmt.Errorf("%w\npass devices in the [recorder] config section or KERO_DEVICES", err)
	case errors.Is(err, hook.ErrUnsupported):
		return fmt.Errorf("%w\nuse \"kero record --input <file>\" to replay events", err)
	}
	return err
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the recorder in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := resolveSettings(cmd)
			if err != nil {
				return err
			}
			pid, err := daemon.Start(daemon.StartOptions{
				PIDPath: s.PIDPath,
				Args:    daemonArgs(cmd),
			})
			if err != nil {
				return err
			}
			return printOut(cmd, "Keyboard recorder started (PID %d).\n", pid)
		},
	}
}

// daemonArgs forwards explicitly set global flags to the background process.
func daemonArgs(cmd *cobra.Command) []string {
	args := []string{daemonCommand}
	for _, name := range []string{"config", "db", "log-level"} {
		if cmd.Flags().Changed(name) {
			args = append(args, "--"+name, cmd.Flags().Lookup(name).Value.String())
		}
	}
	return args
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background recorder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := resolveSettings(cmd)
			if err != nil {
				return err
			}
			result, err := daemon.Stop(s.PIDPath)
			if err != nil {
				return err
			}
			if !result.WasRunning {
				return printOut(cmd, "Keyboard recorder is not running.\n")
			}
			return printOut(cmd, "Keyboard recorder stopped.\n")
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the background recorder is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := resolveSettings(cmd)
			if err != nil {
				return err
			}
			state, err := daemon.Status(s.PIDPath)
			if err != nil {
				return err
			}
			if !state.Running {
				return printOut(cmd, "Keyboard recorder is not running.\n")
			}
			return printOut(cmd, "Keyboard recorder is running (PID %d).\n", state.PID)
		},
	}
}
