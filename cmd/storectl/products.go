package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/productapi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	listCategory string
	listSort     string
	listJSON     bool
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Inspect and maintain the product catalog",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products, optionally filtered by category and sorted",
	Long: `Fetches every product and applies the storefront's filter and sort locally.

Sort keys: default, price-low-to-high, price-high-to-low, date-added-newest,
date-added-oldest, rating-high-to-low, name-a-z, name-z-a.`,
	Args: cobra.NoArgs,
	RunE: runProductsList,
}

var productsGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show one product as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductsGet,
}

var productsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a product",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductsDelete,
}

var productsCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Ask the backend to normalize stored products",
	Args:  cobra.NoArgs,
	RunE:  runProductsClean,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List product categories",
	Args:  cobra.NoArgs,
	RunE:  runCategories,
}

func init() {
	productsListCmd.Flags().StringVarP(&listCategory, "category", "c", "", "Only products in this category")
	productsListCmd.Flags().StringVarP(&listSort, "sort", "s", string(catalog.SortDefault), "Sort key")
	productsListCmd.Flags().BoolVar(&listJSON, "json", false, "Print JSON instead of a table")

	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsGetCmd)
	productsCmd.AddCommand(productsDeleteCmd)
	productsCmd.AddCommand(productsCleanCmd)
	productsCmd.AddCommand(categoriesCmd)
}

func newClient() *productapi.Client {
	return productapi.New(backendURL, timeout)
}

func runProductsList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	all, err := newClient().List(ctx, productapi.ListOptions{})
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	key := catalog.ParseSortKey(listSort)
	if string(key) != listSort {
		logger.Warn("unknown sort key, using default", zap.String("sort", listSort))
	}
	out := catalog.FilterAndSort(all, listCategory, key)
	logger.Debug("products listed", zap.Int("fetched", len(all)), zap.Int("shown", len(out)))

	if listJSON {
		return printJSON(cmd.OutOrStdout(), out)
	}
	return printProducts(cmd.OutOrStdout(), out)
}

func printProducts(w io.Writer, ps []catalog.Product) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tRATING\tADDED")
	for _, p := range ps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\t%s\n",
			p.ID, p.Name, catalog.DisplayCategory(p.Category), p.Price.StringFixed(2), p.RatingOrZero(), p.DateAdded)
	}
	return tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runProductsGet(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	p, err := newClient().Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get product %s: %w", args[0], err)
	}
	return printJSON(cmd.OutOrStdout(), p)
}

func runProductsDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if err := newClient().Delete(ctx, args[0]); err != nil {
		return fmt.Errorf("delete product %s: %w", args[0], err)
	}
	logger.Info("product deleted", zap.String("product_id", args[0]))
	return nil
}

func runProductsClean(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	res, err := newClient().Clean(ctx)
	if err != nil {
		return fmt.Errorf("clean products: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "updated %d of %d products\n", res.UpdatedCount, res.TotalProducts)
	return nil
}

func runCategories(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cats, err := newClient().Categories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	for _, c := range cats {
		fmt.Fprintln(cmd.OutOrStdout(), c)
	}
	return nil
}
