// Package model defines the data types shared across the core: package
// identity, dependency/file/service/sandbox records, and the modal/state
// shapes that the application state owns.
package model

// Kind tags where a package comes from: one of the official repos (with
// repo + architecture detail) or the AUR. Equality and caching key off Name
// within a Kind; (Name, Kind) is the stable identifier across the system.
type Kind struct {
	IsAUR bool
	Repo  string // e.g. "core", "extra"; empty for AUR
	Arch  string // e.g. "x86_64"; empty for AUR
}

func OfficialSource(repo, arch string) Kind { return Kind{Repo: repo, Arch: arch} }
func AURSource() Kind                       { return Kind{IsAUR: true} }

// PackageItem is the minimal identity used in search results and queues.
type PackageItem struct {
	Name        string
	Version     string
	Description string
	Source      Kind
	Popularity  float64 // AUR only
	OutOfDate   int64   // AUR only; unix timestamp, 0 if not out of date
	Orphaned    bool
}

// Key is the stable identifier across caches: (name, source-kind).
func (p PackageItem) Key() string {
	if p.Source.IsAUR {
		return p.Name + "@aur"
	}
	return p.Name + "@" + p.Source.Repo
}

// DependencySpec is an ordered entry in a Depends/OptDepends list, e.g.
// "glibc>=2.38" or "git: for AUR helpers".
type DependencySpec struct {
	Name        string
	Requirement string // version requirement string, may be empty
	Note        string // free text after ":" for optional deps
}

// PackageDetails extends PackageItem with the fields pacman -Si/-Qi/AUR RPC
// expose.
type PackageDetails struct {
	PackageItem

	Repository   string
	URL          string
	Licenses     []string
	Groups       []string
	Provides     []string
	Conflicts    []string
	Replaces     []string
	Depends      []DependencySpec
	OptDepends   []DependencySpec
	RequiredBy   []string
	OptionalFor  []string
	DownloadSize int64
	InstallSize  int64
	Packager     string
	BuildDate    int64
	InstallDate  int64
	InstallReason string // "Explicitly installed" substring lives here
}
