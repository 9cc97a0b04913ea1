package commands

import (
	"context"
	"fmt"

	"github.com/earlysvahn/ngpt/internal/client"
)

func (a *app) listModels(ctx context.Context) error {
	models, err := withSpinner(a, ctx, "Fetching models...", func(ctx context.Context) ([]client.Model, error) {
		return a.client.ListModels(ctx)
	})
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Fprintf(a.out, "No models available for %s (%s)\n", a.client.Provider(), a.client.BaseURL())
		return nil
	}
	fmt.Fprintf(a.out, "Available models for %s (%s):\n", a.client.Provider(), a.client.BaseURL())
	for _, m := range models {
		if m.OwnedBy != "" {
			fmt.Fprintf(a.out, "- %s (owned by %s)\n", m.ID, m.OwnedBy)
			continue
		}
		fmt.Fprintf(a.out, "- %s\n", m.ID)
	}
	return nil
}
