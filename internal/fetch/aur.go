package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/pacsea-project/pacsea/internal/errdefs"
	"github.com/pacsea-project/pacsea/internal/model"
)

const aurRPCBase = "https://aur.archlinux.org/rpc/v5"

type aurRPCResponse struct {
	Version     int                  `json:"version"`
	Type        string               `json:"type"`
	ResultCount int                  `json:"resultcount"`
	Results     []aurPackageResult   `json:"results"`
}

type aurPackageResult struct {
	Name           string   `json:"Name"`
	Version        string   `json:"Version"`
	Description    string   `json:"Description"`
	URL            string   `json:"URL"`
	Maintainer     string   `json:"Maintainer"`
	NumVotes       int      `json:"NumVotes"`
	Popularity     float64  `json:"Popularity"`
	OutOfDate      int64    `json:"OutOfDate"`
	License        []string `json:"License"`
	Depends        []string `json:"Depends"`
	MakeDepends    []string `json:"MakeDepends"`
	CheckDepends   []string `json:"CheckDepends"`
	OptDepends     []string `json:"OptDepends"`
	Conflicts      []string `json:"Conflicts"`
	Provides       []string `json:"Provides"`
	Replaces       []string `json:"Replaces"`
	Groups         []string `json:"Groups"`
	FirstSubmitted int64    `json:"FirstSubmitted"`
	LastModified   int64    `json:"LastModified"`
}

// AURInfo fetches package metadata for one or more AUR package names via the
// RPC v5 `info` endpoint, a single batched request.
func (c *Client) AURInfo(ctx context.Context, names []string) ([]model.PackageDetails, error) {
	if len(names) == 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("v", "5")
	q.Set("type", "info")
	for _, n := range names {
		q.Add("arg[]", n)
	}
	reqURL := aurRPCBase + "?" + q.Encode()
	res, err := c.get(ctx, reqURL, "aur-info-"+strings.Join(names, ","))
	if err != nil {
		return nil, err
	}
	var parsed aurRPCResponse
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return nil, errdefs.ParseError("parsing AUR info response: %v", err)
	}
	out := make([]model.PackageDetails, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		out = append(out, aurResultToDetails(r))
	}
	return out, nil
}

// AURSearch runs the RPC v5 `search` endpoint against package names.
func (c *Client) AURSearch(ctx context.Context, term string) ([]model.PackageItem, error) {
	q := url.Values{}
	q.Set("v", "5")
	q.Set("type", "search")
	q.Set("arg", term)
	reqURL := aurRPCBase + "?" + q.Encode()
	res, err := c.get(ctx, reqURL, "aur-search-"+term)
	if err != nil {
		return nil, err
	}
	var parsed aurRPCResponse
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return nil, errdefs.ParseError("parsing AUR search response: %v", err)
	}
	out := make([]model.PackageItem, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		out = append(out, model.PackageItem{
			Name:        r.Name,
			Version:     r.Version,
			Description: r.Description,
			Source:      model.AURSource(),
			Popularity:  r.Popularity,
			OutOfDate:   r.OutOfDate,
		})
	}
	return out, nil
}

func aurResultToDetails(r aurPackageResult) model.PackageDetails {
	return model.PackageDetails{
		PackageItem: model.PackageItem{
			Name:        r.Name,
			Version:     r.Version,
			Description: r.Description,
			Source:      model.AURSource(),
			Popularity:  r.Popularity,
			OutOfDate:   r.OutOfDate,
		},
		URL:         r.URL,
		Licenses:    r.License,
		Groups:      r.Groups,
		Provides:    r.Provides,
		Conflicts:   r.Conflicts,
		Replaces:    r.Replaces,
		Depends:     splitRequirements(r.Depends),
		OptDepends:  splitRequirements(r.OptDepends),
		Packager:    r.Maintainer,
		BuildDate:   r.LastModified,
	}
}

// splitRequirements turns AUR-style "name>=1.2" strings into DependencySpec,
// splitting on the same operator set pacman's own depends strings use.
func splitRequirements(raw []string) []model.DependencySpec {
	out := make([]model.DependencySpec, 0, len(raw))
	for _, r := range raw {
		name, req := splitNameRequirement(r)
		out = append(out, model.DependencySpec{Name: name, Requirement: req})
	}
	return out
}

func splitNameRequirement(s string) (name, requirement string) {
	for _, op := range []string{">=", "<=", "==", "=", ">", "<"} {
		if idx := strings.Index(s, op); idx >= 0 {
			return s[:idx], s[idx:]
		}
	}
	return s, ""
}

// SRCINFO fetches the raw .SRCINFO for an AUR package, used by the
// dependency resolver (to union makedepends/checkdepends/optdepends) and the
// sandbox resolver (to classify them).
func (c *Client) SRCINFO(ctx context.Context, pkgbase string) (string, error) {
	reqURL := fmt.Sprintf("https://aur.archlinux.org/cgit/aur.git/plain/.SRCINFO?h=%s", url.QueryEscape(pkgbase))
	res, err := c.get(ctx, reqURL, "srcinfo-"+pkgbase)
	if err != nil {
		return "", err
	}
	return string(res.Body), nil
}

// AURComment is one comment on an AUR package's page.
type AURComment struct {
	Author  string
	PostedAt int64
	Body    string
}

// AURComments scrapes the AUR package page's comment list. The AUR exposes
// no JSON comments endpoint, so this is a best-effort HTML text extraction,
// not a structured parse.
func (c *Client) AURComments(ctx context.Context, pkgName string) ([]AURComment, error) {
	reqURL := fmt.Sprintf("https://aur.archlinux.org/packages/%s", url.PathEscape(pkgName))
	res, err := c.get(ctx, reqURL, "aur-comments-"+pkgName)
	if err != nil {
		return nil, err
	}
	return extractComments(string(res.Body)), nil
}
