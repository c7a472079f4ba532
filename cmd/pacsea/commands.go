package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pacsea-project/pacsea/internal/cache"
	"github.com/pacsea-project/pacsea/internal/fetch"
	"github.com/pacsea-project/pacsea/internal/hostinfo"
	"github.com/pacsea-project/pacsea/internal/paths"
	"github.com/pacsea-project/pacsea/internal/resolver"
	"github.com/pacsea-project/pacsea/internal/tui"
	"github.com/pacsea-project/pacsea/internal/updates"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pacsea",
	Short: "Interactive package manager for Arch-family distributions",
	Long: "Pacsea searches official repositories and the AUR, queues installs and\n" +
		"removals, and walks every transaction through a preflight of its\n" +
		"dependencies, file changes, and service impact before anything runs.",
	RunE: runInteractiveMode,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pacsea %s\n", Version)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the saved install list without starting the UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := afero.NewOsFs()
		layout := paths.New()
		if err := paths.EnsureDirs(fs, layout); err != nil {
			return fmt.Errorf("creating config directories: %w", err)
		}
		store := cache.NewStore(fs, layout)
		names, err := store.LoadInstallList()
		if err != nil {
			return fmt.Errorf("loading install list: %w", err)
		}
		if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
			fmt.Printf("DRY RUN: would export %d package name(s) under %s\n", len(names), layout.ExportDir)
			return nil
		}
		path, err := store.ExportInstallList(names)
		if err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Println(path)
		return nil
	},
}

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "Print available official and AUR updates",
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := afero.NewOsFs()
		layout := paths.New()
		if err := paths.EnsureDirs(fs, layout); err != nil {
			return fmt.Errorf("creating config directories: %w", err)
		}
		client := fetch.NewClient(fs, layout.CacheDir, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		entries, err := updates.Check(ctx, resolver.Exec, client)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s - %s -> %s - %s\n", e.Name, e.OldVersion, e.Name, e.NewVersion)
		}
		return updates.Persist(fs, layout.AvailUpdates, entries)
	},
}

func runInteractiveMode(cmd *cobra.Command, args []string) error {
	info, err := hostinfo.Detect()
	if err == nil && !info.ArchFamily {
		return fmt.Errorf("%s is not an Arch-family distribution; pacsea needs pacman", info.PrettyName)
	}

	fs := afero.NewOsFs()
	layout := paths.New()
	if err := paths.EnsureDirs(fs, layout); err != nil {
		return fmt.Errorf("creating config directories: %w", err)
	}

	model := tui.NewModel(Version)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
