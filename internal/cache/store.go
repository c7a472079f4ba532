package cache

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pacsea-project/pacsea/internal/model"
	"github.com/pacsea-project/pacsea/internal/paths"
	"github.com/spf13/afero"
)

// Store persists the resolver cache mirrors and search/queue lists under the
// layout's cache and lists directories. Every write is temp-file-then-rename
// so a crash mid-write never leaves a half-written cache file behind.
type Store struct {
	fs     afero.Fs
	layout paths.Layout
}

func NewStore(fs afero.Fs, layout paths.Layout) *Store {
	return &Store{fs: fs, layout: layout}
}

// SaveJSON atomically writes v as indented JSON to path.
func SaveJSON(fs afero.Fs, path string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, raw, 0o644); err != nil {
		return err
	}
	return fs.Rename(tmp, path)
}

// LoadJSON reads path into v. A missing file is not an error: it decodes to
// v's zero value, matching the "first run, no cache yet" case.
func LoadJSON(fs afero.Fs, path string, v interface{}) error {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// DepsEntry is one signature-keyed deps_cache.json record.
type DepsEntry struct {
	Signature string                   `json:"signature"`
	Deps      []model.DependencyInfo   `json:"deps"`
}

// FilesEntry is one signature-keyed files_cache.json record.
type FilesEntry struct {
	Signature string                 `json:"signature"`
	Files     model.PackageFileInfo  `json:"files"`
}

// ServicesEntry is one services_cache.json record, keyed by package name
// rather than a set signature since service impact is computed per package.
type ServicesEntry struct {
	Package string               `json:"package"`
	Impact  model.ServiceImpact  `json:"impact"`
}

// SandboxEntry is one signature-keyed sandbox_cache.json record.
type SandboxEntry struct {
	Signature string              `json:"signature"`
	Sandbox   model.SandboxInfo   `json:"sandbox"`
}

func (s *Store) SaveDeps(entries map[string]DepsEntry) error {
	return SaveJSON(s.fs, s.layout.DepsCache, entries)
}

func (s *Store) LoadDeps() (map[string]DepsEntry, error) {
	out := map[string]DepsEntry{}
	err := LoadJSON(s.fs, s.layout.DepsCache, &out)
	return out, err
}

func (s *Store) SaveFiles(entries map[string]FilesEntry) error {
	return SaveJSON(s.fs, s.layout.FilesCache, entries)
}

func (s *Store) LoadFiles() (map[string]FilesEntry, error) {
	out := map[string]FilesEntry{}
	err := LoadJSON(s.fs, s.layout.FilesCache, &out)
	return out, err
}

func (s *Store) SaveServices(entries map[string]ServicesEntry) error {
	return SaveJSON(s.fs, s.layout.ServicesCache, entries)
}

func (s *Store) LoadServices() (map[string]ServicesEntry, error) {
	out := map[string]ServicesEntry{}
	err := LoadJSON(s.fs, s.layout.ServicesCache, &out)
	return out, err
}

func (s *Store) SaveSandbox(entries map[string]SandboxEntry) error {
	return SaveJSON(s.fs, s.layout.SandboxCache, entries)
}

func (s *Store) LoadSandbox() (map[string]SandboxEntry, error) {
	out := map[string]SandboxEntry{}
	err := LoadJSON(s.fs, s.layout.SandboxCache, &out)
	return out, err
}

// SaveRecent persists the recent-search LRU as a JSON array, newest first.
func (s *Store) SaveRecent(names []string) error {
	if names == nil {
		names = []string{}
	}
	return SaveJSON(s.fs, s.layout.RecentSearch, names)
}

func (s *Store) LoadRecent() ([]string, error) {
	var out []string
	err := LoadJSON(s.fs, s.layout.RecentSearch, &out)
	return out, err
}

func (s *Store) SaveInstallList(names []string) error {
	return saveLines(s.fs, s.layout.InstallList, names)
}

func (s *Store) LoadInstallList() ([]string, error) {
	return loadLines(s.fs, s.layout.InstallList)
}

func (s *Store) SaveRemoveList(names []string) error {
	return saveLines(s.fs, s.layout.RemoveList, names)
}

func (s *Store) LoadRemoveList() ([]string, error) {
	return loadLines(s.fs, s.layout.RemoveList)
}

// SaveInstalledSnapshot writes the names visible when installed-only mode
// was entered, one per line.
func (s *Store) SaveInstalledSnapshot(names []string) error {
	return saveLines(s.fs, s.layout.InstalledSnap, names)
}

// ExportInstallList writes a dated export of the install queue under the
// export directory, suffixing _N to avoid clobbering earlier exports from
// the same day. Returns the path written.
func (s *Store) ExportInstallList(names []string) (string, error) {
	stamp := time.Now().Format("20060102")
	for n := 1; ; n++ {
		path := filepath.Join(s.layout.ExportDir, fmt.Sprintf("install_list_%s_%d.txt", stamp, n))
		exists, err := afero.Exists(s.fs, path)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}
		return path, saveLines(s.fs, path, names)
	}
}

// announcementState tracks which announcement the user has already seen so
// a restart doesn't replay it.
type announcementState struct {
	LastSeenDate int64 `json:"last_seen_date"`
}

func (s *Store) SaveAnnouncementSeen(date int64) error {
	return SaveJSON(s.fs, s.layout.Announcements, announcementState{LastSeenDate: date})
}

func (s *Store) LoadAnnouncementSeen() int64 {
	var state announcementState
	_ = LoadJSON(s.fs, s.layout.Announcements, &state)
	return state.LastSeenDate
}

// SaveDetails/LoadDetails persist the package-details fetch cache.
func (s *Store) SaveDetails(entries map[string]model.PackageDetails) error {
	return SaveJSON(s.fs, s.layout.DetailsCache, entries)
}

func (s *Store) LoadDetails() (map[string]model.PackageDetails, error) {
	out := map[string]model.PackageDetails{}
	err := LoadJSON(s.fs, s.layout.DetailsCache, &out)
	return out, err
}

func saveLines(fs afero.Fs, path string, lines []string) error {
	raw := ""
	for _, l := range lines {
		raw += l + "\n"
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, []byte(raw), 0o644); err != nil {
		return err
	}
	return fs.Rename(tmp, path)
}

func loadLines(fs afero.Fs, path string) ([]string, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, nil
	}
	var out []string
	start := 0
	for i, b := range raw {
		if b == '\n' {
			if line := string(raw[start:i]); line != "" {
				out = append(out, line)
			}
			start = i + 1
		}
	}
	return out, nil
}
