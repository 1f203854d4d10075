package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/kero/internal/model"
	"github.com/verte-zerg/kero/internal/report"
	"github.com/verte-zerg/kero/internal/reportui"
	"github.com/verte-zerg/kero/internal/store"
)

func newQueryCmd() *cobra.Command {
	var singleOnly, comboOnly, tui bool
	var filterName string
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Show recorded keys and combos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := model.ParseFilter(filterName)
			if err != nil {
				return err
			}
			switch {
			case singleOnly:
				filter = model.FilterSingle
			case comboOnly:
				filter = model.FilterCombo
			}
			return runQuery(cmd, filter, tui)
		},
	}
	cmd.Flags().BoolVarP(&singleOnly, "single", "s", false, "only single keys")
	cmd.Flags().BoolVarP(&comboOnly, "combo", "c", false, "only multi-key combos")
	cmd.Flags().StringVar(&filterName, "filter", "all", "record kind to show: all, single or combo")
	cmd.Flags().BoolVar(&tui, "tui", false, "open the interactive viewer")
	cmd.MarkFlagsMutuallyExclusive("single", "combo", "filter")
	return cmd
}

func runQuery(cmd *cobra.Command, filter model.Filter, tui bool) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	st, err := s.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if tui {
		program := tea.NewProgram(reportui.NewModel(st, filter), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run report TUI: %w", err)
		}
		return nil
	}

	r, err := report.Build(cmd.Context(), st, filter)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := report.Render(out, r, report.ShouldUseColor(out)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newClearCmd() *cobra.Command {
	var backup bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded keys and combos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := resolveSettings(cmd)
			if err != nil {
				return err
			}
			result, err := store.ClearPath(cmd.Context(), s.Store, backup)
			if err != nil {
				return err
			}
			return printOut(cmd, "%s\n", clearMessage(backup, result))
		},
	}
	cmd.Flags().BoolVarP(&backup, "backup", "b", false, "copy the database before clearing")
	return cmd
}

func clearMessage(backup bool, result store.ClearResult) string {
	switch {
	case !backup:
		return "Records cleared."
	case result.BackedUp():
		return fmt.Sprintf("Records cleared. Backup stored as %s.", result.BackupPath)
	default:
		return "Records cleared. Backup skipped because no database file was present."
	}
}
