package resolver

import (
	"strconv"
	"strings"
)

// CompareVersions is a best-effort pacman-style version comparison: epoch
// (before ':'), then dot/dash separated segments compared numerically where
// both sides are numeric and lexically otherwise. It intentionally does not
// replicate every corner of libalpm's vercmp; callers treat it as advisory
// (a wrong answer shows "upgrade" instead of "installed", never breaks a
// transaction — pacman itself has the final word).
func CompareVersions(a, b string) int {
	ae, av := splitEpoch(a)
	be, bv := splitEpoch(b)
	if ae != be {
		if ae < be {
			return -1
		}
		return 1
	}

	as := splitSegments(av)
	bs := splitSegments(bv)
	for i := 0; i < len(as) || i < len(bs); i++ {
		var sa, sb string
		if i < len(as) {
			sa = as[i]
		}
		if i < len(bs) {
			sb = bs[i]
		}
		if c := compareSegment(sa, sb); c != 0 {
			return c
		}
	}
	return 0
}

func splitEpoch(v string) (int, string) {
	if idx := strings.Index(v, ":"); idx >= 0 {
		if e, err := strconv.Atoi(v[:idx]); err == nil {
			return e, v[idx+1:]
		}
	}
	return 0, v
}

func splitSegments(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool {
		return r == '.' || r == '-' || r == '_' || r == '+'
	})
}

func compareSegment(a, b string) int {
	na, aerr := strconv.Atoi(a)
	nb, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

// RequirementSatisfied checks an installed version against a requirement
// string like ">=2.38" or "=1.2.3". An empty requirement is always satisfied.
func RequirementSatisfied(installed, requirement string) bool {
	if requirement == "" || installed == "" {
		return true
	}
	op := ""
	for _, candidate := range []string{">=", "<=", "==", "=", ">", "<"} {
		if strings.HasPrefix(requirement, candidate) {
			op = candidate
			break
		}
	}
	want := strings.TrimPrefix(requirement, op)
	c := CompareVersions(installed, want)
	switch op {
	case ">=":
		return c >= 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case "<":
		return c < 0
	case "=", "==", "":
		return c == 0
	}
	return true
}
