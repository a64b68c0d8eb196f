package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ariefcatur/go-storefront/internal/config"
	"github.com/ariefcatur/go-storefront/internal/logx"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	backendURL string
	timeout    time.Duration

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "storectl",
	Short: "Storefront admin CLI",
	Long: `storectl talks to the product backend and the media host directly.

It lists, inspects and deletes products, cleans the catalog and uploads
images in chunks, using the same configuration as the storefront service.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		var err error
		logger, err = logx.New(level, "console", "")
		if err != nil {
			return err
		}
		if backendURL == "" {
			backendURL = cfg.BackendURL
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	_ = godotenv.Load()
	cfg = config.Load()
	decimal.MarshalJSONWithoutQuotes = true

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "Product backend base URL (default: BACKEND_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(uploadCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
