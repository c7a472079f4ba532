package resolver

import (
	"context"
	"fmt"

	"github.com/pacsea-project/pacsea/internal/appstate"
	"github.com/pacsea-project/pacsea/internal/model"
)

// FastSummary produces the minimal preflight summary synchronously — just
// counts and the AUR ratio — so the Summary tab has something to show
// before the background pass fills in real download/install sizes.
func FastSummary(action appstate.PreflightAction, items []model.PackageItem) appstate.PreflightSummaryData {
	aurCount := 0
	for _, it := range items {
		if it.Source.IsAUR {
			aurCount++
		}
	}
	return appstate.PreflightSummaryData{
		TotalPackages: len(items),
		AURCount:      aurCount,
		Risk:          riskLevel(action, len(items), aurCount),
	}
}

// FullSummary runs `pacman -Si`/`-Qi` per item to total real download and
// install sizes, building on whatever FastSummary already produced.
func FullSummary(ctx context.Context, run Runner, action appstate.PreflightAction, items []model.PackageItem) (appstate.PreflightSummaryData, error) {
	data := FastSummary(action, items)
	var notes []string

	for _, item := range items {
		verb := "-Si"
		if action == appstate.ActionRemove {
			verb = "-Qi"
		}
		out, err := run(ctx, "pacman", verb, item.Name)
		if err != nil {
			notes = append(notes, item.Name+": size unavailable")
			continue
		}
		block := lines(out)
		if v, ok := pacmanField(block, "Download Size"); ok {
			data.TotalBytes += parseSizeField(v)
		}
		if v, ok := pacmanField(block, "Installed Size"); ok && action == appstate.ActionRemove {
			data.TotalBytes += parseSizeField(v)
		}
	}

	data.Notes = notes
	data.Risk = riskLevel(action, data.TotalPackages, data.AURCount)
	return data, nil
}

// parseSizeField parses pacman's "12.34 MiB" style size strings into bytes.
func parseSizeField(v string) int64 {
	var num float64
	var unit string
	if _, err := fmt.Sscanf(v, "%f %s", &num, &unit); err != nil {
		return 0
	}
	mult := map[string]float64{
		"B": 1, "KiB": 1024, "MiB": 1024 * 1024, "GiB": 1024 * 1024 * 1024,
	}[unit]
	return int64(num * mult)
}

func riskLevel(action appstate.PreflightAction, total, aurCount int) string {
	switch {
	case action == appstate.ActionRemove && total > 5:
		return "High"
	case aurCount > 0:
		return "Medium"
	case total > 10:
		return "Medium"
	default:
		return "Low"
	}
}
