package fetch

import (
	"context"

	"github.com/pacsea-project/pacsea/internal/model"
)

// PackageDetails resolves full metadata for one package: AUR packages go
// through the RPC client, official-repo packages are left to the caller's
// local `pacman -Si`/`-Qi` parse — this method exists so the event loop
// has one call site regardless of source.
func (c *Client) PackageDetails(ctx context.Context, item model.PackageItem) (model.PackageDetails, error) {
	if !item.Source.IsAUR {
		return model.PackageDetails{PackageItem: item}, nil
	}
	results, err := c.AURInfo(ctx, []string{item.Name})
	if err != nil {
		return model.PackageDetails{}, err
	}
	if len(results) == 0 {
		return model.PackageDetails{PackageItem: item}, nil
	}
	return results[0], nil
}
