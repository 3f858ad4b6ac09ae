package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newExtractCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <page-url>",
		Short: "Print the product image URLs found on a page",
		Long: `Extract fetches one page and prints the image URLs that a download would
archive, after normalization, relevance filtering and deduplication.

Examples:
  grabctl extract https://kalyancity.in.ua/catalog/chaser-7-years`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageURL := args[0]
			parsed, err := url.Parse(pageURL)
			if err != nil || parsed.Scheme == "" || parsed.Host == "" {
				return fmt.Errorf("invalid URL: %s (must include scheme, e.g. https://example.com)", pageURL)
			}
			urls, err := g.urls()
			if err != nil {
				return err
			}
			resp, err := g.fetcher(g.logger(cmd.ErrOrStderr())).Fetch(cmd.Context(), pageURL)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", pageURL, err)
			}
			for _, u := range urls.ExtractImageURLs(pageURL, string(resp.Body)) {
				fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		},
	}
}
