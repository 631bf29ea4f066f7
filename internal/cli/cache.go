package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/goalsync/internal/resolver"
	"github.com/mrz1836/goalsync/internal/tui"
)

// AddCacheCommand adds the cache command group to the root command.
func AddCacheCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the ASIN to product id cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every cached ASIN and its Perpetua product id",
		Long: `List the product cache. Entries are added when a run resolves an ASIN
and are never expired; delete the cache file to force fresh lookups.

Examples:
  goalsync cache list
  goalsync cache list --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheList(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	})

	root.AddCommand(cmd)
}

// runCacheList executes cache list with production dependencies.
func runCacheList(ctx context.Context, w io.Writer, flags *GlobalFlags) error {
	factory, err := newServiceFactory(ctx, flags.ConfigFile)
	if err != nil {
		return err
	}
	cache, err := factory.Cache(true)
	if err != nil {
		return err
	}
	return runCacheListWithDeps(ctx, newOutput(w, flags.Output), flags, cache)
}

// runCacheListWithDeps renders every mapping in cache, sorted by ASIN.
func runCacheListWithDeps(ctx context.Context, out tui.Output, flags *GlobalFlags, cache resolver.Cache) error {
	products, err := cache.All(ctx)
	if err != nil {
		return err
	}

	if flags.Output == OutputJSON {
		return out.JSON(products)
	}
	if len(products) == 0 {
		out.Info("Product cache is empty")
		return nil
	}

	asins := make([]string, 0, len(products))
	for asin := range products {
		asins = append(asins, asin)
	}
	slices.Sort(asins)

	rows := make([][]string, 0, len(asins))
	for _, asin := range asins {
		rows = append(rows, []string{asin, strconv.FormatInt(products[asin], 10)})
	}
	out.Table([]string{"ASIN", "PRODUCT"}, rows)
	if !flags.Quiet {
		out.Info(fmt.Sprintf("%d cached product(s)", len(rows)))
	}
	return nil
}
