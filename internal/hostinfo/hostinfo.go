// Package hostinfo detects what kind of host pacsea is running on: whether
// the distribution is Arch-family at all, and which AUR helper (if any) is
// available for the dependency resolver and executor to shell out to.
package hostinfo

import (
	"bufio"
	"os"
	"os/exec"
	"strings"

	"github.com/pacsea-project/pacsea/internal/errdefs"
)

var osOpen = os.Open
var lookPath = exec.LookPath

// Info describes the host distribution as read from /etc/os-release.
type Info struct {
	Distribution string
	PrettyName   string
	ArchFamily   bool
}

// archFamilyIDs are the os-release IDs (and ID_LIKE entries) pacsea treats
// as Arch-family: they all ship pacman and can reach the AUR.
var archFamilyIDs = map[string]bool{
	"arch":        true,
	"archarm":     true,
	"endeavouros": true,
	"cachyos":     true,
	"manjaro":     true,
	"garuda":      true,
}

// Detect reads /etc/os-release and reports whether the host is Arch-family.
func Detect() (*Info, error) {
	info := &Info{}
	if err := readOSRelease(info); err != nil {
		return nil, errdefs.Wrap(errdefs.ErrTypeGeneric, err, "detecting distribution")
	}
	return info, nil
}

func readOSRelease(info *Info) error {
	file, err := osOpen("/etc/os-release")
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := parts[0]
		value := strings.Trim(parts[1], "\"")

		switch key {
		case "ID":
			info.Distribution = value
			if archFamilyIDs[value] {
				info.ArchFamily = true
			}
		case "ID_LIKE":
			for _, id := range strings.Fields(value) {
				if archFamilyIDs[id] {
					info.ArchFamily = true
				}
			}
		case "PRETTY_NAME":
			info.PrettyName = value
		}
	}

	return scanner.Err()
}

// AURHelper returns the first available AUR helper binary, preferring paru
// over yay, or "" when neither is installed. The dependency resolver treats
// "" as "AUR metadata unavailable locally" and renders unknown AUR deps as
// missing rather than storming the RPC API.
func AURHelper() string {
	for _, helper := range []string{"paru", "yay"} {
		if _, err := lookPath(helper); err == nil {
			return helper
		}
	}
	return ""
}
