package fetch

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pacsea-project/pacsea/internal/errdefs"
)

const statusSummaryURL = "https://status.archlinux.org/api/v2/summary.json"

// StatusSeverity grades the Arch infrastructure status for the title bar
// indicator.
type StatusSeverity int

const (
	StatusOperational StatusSeverity = iota
	StatusDegraded
	StatusIncident
)

// ArchStatus is the condensed service-status readout.
type ArchStatus struct {
	Text     string
	Severity StatusSeverity
	AURDown  bool
}

type statusSummary struct {
	Status struct {
		Indicator   string `json:"indicator"`
		Description string `json:"description"`
	} `json:"status"`
	Components []struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	} `json:"components"`
}

// ArchStatusSummary fetches status.archlinux.org's Statuspage summary and
// condenses it. The AUR component is singled out because an AUR outage
// changes how much of pacsea's own surface (search, SRCINFO, comments) can
// be trusted to respond.
func (c *Client) ArchStatusSummary(ctx context.Context) (ArchStatus, error) {
	res, err := c.get(ctx, statusSummaryURL, "arch-status-summary")
	if err != nil {
		return ArchStatus{}, err
	}
	var parsed statusSummary
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return ArchStatus{}, errdefs.ParseError("parsing status summary: %v", err)
	}

	out := ArchStatus{Text: parsed.Status.Description}
	switch parsed.Status.Indicator {
	case "none":
		out.Severity = StatusOperational
	case "minor":
		out.Severity = StatusDegraded
	default:
		out.Severity = StatusIncident
	}

	for _, comp := range parsed.Components {
		if strings.Contains(strings.ToLower(comp.Name), "aur") && comp.Status != "operational" {
			out.AURDown = true
			out.Text = "AUR: " + comp.Status
			if out.Severity == StatusOperational {
				out.Severity = StatusDegraded
			}
		}
	}
	if out.Text == "" {
		out.Text = "All systems operational"
	}
	return out, nil
}
