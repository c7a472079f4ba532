// Package cache implements disk persistence for resolver results: a stable
// signature over the current package set plus atomic temp-then-rename JSON
// writes. The resolver
// result mirrors themselves live in appstate.CacheMirrors; this package only
// decides when a mirror is stale and how it reaches disk.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/pacsea-project/pacsea/internal/model"
)

// Signature computes a stable fingerprint over a package set's identity
// (name, version, source), independent of slice order, so two preflight
// sessions over the same packages hit the same cache entry.
func Signature(items []model.PackageItem) string {
	tuples := make([]string, 0, len(items))
	for _, it := range items {
		source := "repo:" + it.Source.Repo
		if it.Source.IsAUR {
			source = "aur"
		}
		tuples = append(tuples, it.Name+"@"+it.Version+"@"+source)
	}
	sort.Strings(tuples)
	h := sha256.Sum256([]byte(strings.Join(tuples, "|")))
	return hex.EncodeToString(h[:])
}
