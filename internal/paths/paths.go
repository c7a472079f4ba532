// Package paths resolves the on-disk layout under ~/.config/pacsea. All I/O against these paths elsewhere in
// the tree goes through an afero.Fs so tests can swap in an in-memory one.
package paths

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const appName = "pacsea"

// Layout is the resolved set of directories and files the core reads/writes.
type Layout struct {
	ConfigDir string
	ListsDir  string
	CacheDir  string
	ExportDir string

	SettingsConf  string
	ThemeConf     string
	KeybindsConf  string
	InstallList   string
	RemoveList    string
	AvailUpdates  string
	RecentSearch  string
	DetailsCache  string
	DepsCache     string
	FilesCache    string
	ServicesCache string
	SandboxCache  string
	NewsCache     string
	AdvisoryCache string
	Announcements string
	InstalledSnap string
}

// New resolves Layout against $HOME (or $XDG_CONFIG_HOME if set).
func New() Layout {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	root := filepath.Join(base, appName)
	lists := filepath.Join(root, "lists")
	cache := filepath.Join(root, "cache")
	export := filepath.Join(root, "export")

	return Layout{
		ConfigDir: root,
		ListsDir:  lists,
		CacheDir:  cache,
		ExportDir: export,

		SettingsConf:  filepath.Join(root, "settings.conf"),
		ThemeConf:     filepath.Join(root, "theme.conf"),
		KeybindsConf:  filepath.Join(root, "keybinds.conf"),
		InstallList:   filepath.Join(lists, "install_list.txt"),
		RemoveList:    filepath.Join(lists, "remove_list.txt"),
		AvailUpdates:  filepath.Join(lists, "available_updates.txt"),
		RecentSearch:  filepath.Join(lists, "recent_searches.json"),
		DetailsCache:  filepath.Join(cache, "details_cache.json"),
		DepsCache:     filepath.Join(cache, "deps_cache.json"),
		FilesCache:    filepath.Join(cache, "files_cache.json"),
		ServicesCache: filepath.Join(cache, "services_cache.json"),
		SandboxCache:  filepath.Join(cache, "sandbox_cache.json"),
		NewsCache:     filepath.Join(cache, "arch_news_cache.json"),
		AdvisoryCache: filepath.Join(cache, "advisories_cache.json"),
		Announcements: filepath.Join(cache, "announcements.json"),
		InstalledSnap: filepath.Join(root, "installed_packages.txt"),
	}
}

// EnsureDirs creates every directory the layout needs. An error here is the
// one unrecoverable startup failure: nothing can be persisted without it.
func EnsureDirs(fs afero.Fs, l Layout) error {
	for _, d := range []string{l.ConfigDir, l.ListsDir, l.CacheDir, l.ExportDir} {
		if err := fs.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// TestOutPath returns the PACSEA_TEST_OUT override, or "" when unset. When
// set, the executor and any terminal spawner write captured output here
// instead of spawning a real terminal.
func TestOutPath() string {
	return os.Getenv("PACSEA_TEST_OUT")
}
