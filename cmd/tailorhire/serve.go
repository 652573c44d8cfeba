package main

import (
	"fmt"
	"os"

	"github.com/jonathan/tailorhire/internal/cms"
	"github.com/jonathan/tailorhire/internal/config"
	"github.com/jonathan/tailorhire/internal/optimizer"
	"github.com/jonathan/tailorhire/internal/server"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	servePort       int
	serveConfigFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the HTTP server for the marketing site.

Settings come from the optional --config file, then environment variables
(PORT, STRAPI_API_URL, OPTIMIZER_API_URL, ...), then built-in defaults.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config and PORT)")
	serveCmd.Flags().StringVarP(&serveConfigFile, "config", "c", "", "Path to a YAML or JSON config file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	site, err := loadSiteConfig(serveConfigFile, servePort)
	if err != nil {
		return err
	}
	setupLogging(os.Stderr, site.LogLevel, site.LogFormat)

	srv, err := newSiteServer(site)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start()
}

// loadSiteConfig resolves the configuration and applies a non-zero port override.
func loadSiteConfig(path string, port int) (*config.Config, error) {
	site, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if port != 0 {
		site.Port = port
		if err := site.Validate(); err != nil {
			return nil, err
		}
	}
	return site, nil
}

// newSiteServer wires the upstream clients into a server.
func newSiteServer(site *config.Config) (*server.Server, error) {
	articles := cms.NewClient(cms.Config{
		BaseURL:      site.CMSURL,
		AssetBaseURL: site.AssetBaseURL,
		APIToken:     site.CMSAPIToken,
		Timeout:      site.CMSTimeout.Std(),
		CacheTTL:     site.CacheTTL(),
	})
	opt := optimizer.NewClient(optimizer.Config{
		BaseURL: site.OptimizerURL,
		Timeout: site.OptimizeTimeout.Std(),
	})

	return server.New(server.Config{
		Site:      site,
		Articles:  articles,
		Optimizer: opt,
		Version:   version,
	})
}
