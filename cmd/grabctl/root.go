package main

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"imagegrab/internal/extract"
	"imagegrab/internal/fetch"
	"imagegrab/internal/infra"
	"imagegrab/internal/normalize"
	"imagegrab/internal/sites"
)

type globalFlags struct {
	sitesPath string
	userAgent string
	timeout   time.Duration
	retries   int
	verbose   bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "grabctl",
		Short: "grabctl: collect product photos from shop pages",
		Long: `grabctl extracts product image URLs from shop pages and downloads them
into a zip archive, optionally repainting the watermark corner and stamping
a new watermark.

Usage:
  grabctl extract <page-url>
  grabctl download <page-url>... --out photos.zip`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.sitesPath, "sites", "", "Site profile YAML file (default: built-in profiles)")
	root.PersistentFlags().StringVar(&g.userAgent, "user-agent", infra.DefaultUserAgent, "User-Agent sent to shops")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 30*time.Second, "Per-request fetch timeout")
	root.PersistentFlags().IntVar(&g.retries, "retries", 2, "Retries for failed fetches")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log fetches to stderr")

	root.AddCommand(newExtractCmd(g), newDownloadCmd(g))
	return root
}

func (g *globalFlags) logger(out io.Writer) *infra.Logger {
	level := zerolog.WarnLevel
	if g.verbose {
		level = zerolog.DebugLevel
	}
	l := infra.Logger(zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).Level(level).With().Timestamp().Logger())
	return &l
}

func (g *globalFlags) fetcher(logger *infra.Logger) *fetch.HTTPFetcher {
	return fetch.NewHTTPFetcher(fetch.Options{
		UserAgent:   g.userAgent,
		Timeout:     g.timeout,
		Retries:     g.retries,
		RatePerHost: 5,
		Burst:       2,
		Logger:      logger,
	})
}

func (g *globalFlags) urls() (*normalize.Pipeline, error) {
	profiles, err := sites.Load(g.sitesPath)
	if err != nil {
		return nil, err
	}
	return normalize.NewPipeline(extract.MustNew(nil, nil), normalize.NewNormalizer(profiles)), nil
}
