package main

import (
	"compress/flate"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"imagegrab/internal/pipeline"
	"imagegrab/internal/storage"
	"imagegrab/pkg/zip"
)

type downloadFlags struct {
	out      string
	dir      string
	removeWM bool
	wm       string
	locale   string
	quiet    bool
}

func newDownloadCmd(g *globalFlags) *cobra.Command {
	f := &downloadFlags{}
	cmd := &cobra.Command{
		Use:   "download <page-url>...",
		Short: "Download product photos of one or more pages into a zip archive",
		Long: `Download runs the full grab pipeline locally: every page is fetched in
order, its product photos are placed on a white 1000x1000 canvas, optionally
cleaned and watermarked, and written to the archive.

Examples:
  grabctl download https://shop.example.com/item-1 https://shop.example.com/item-2
  grabctl download https://shop.example.com/item-1 --remove-wm --wm logo.png --out item.zip
  grabctl download https://shop.example.com/item-1 --dir ./photos`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, g, f, args)
		},
	}
	cmd.Flags().StringVarP(&f.out, "out", "o", "photos.zip", "Archive path")
	cmd.Flags().StringVar(&f.dir, "dir", "", "Write files into this directory instead of an archive")
	cmd.Flags().BoolVar(&f.removeWM, "remove-wm", false, "Repaint the bottom-right watermark corner")
	cmd.Flags().StringVar(&f.wm, "wm", "", "Watermark PNG stamped onto every photo")
	cmd.Flags().StringVar(&f.locale, "locale", "en", "Progress language (en, ru)")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Do not print progress")
	return cmd
}

func runDownload(cmd *cobra.Command, g *globalFlags, f *downloadFlags, pages []string) error {
	var wm []byte
	if f.wm != "" {
		data, err := os.ReadFile(f.wm)
		if err != nil {
			return fmt.Errorf("read watermark: %w", err)
		}
		wm = data
	}
	urls, err := g.urls()
	if err != nil {
		return err
	}

	logger := g.logger(cmd.ErrOrStderr())
	runner := pipeline.NewRunner(pipeline.Options{
		Fetcher: g.fetcher(logger),
		URLs:    urls,
		Logger:  logger,
	})

	var progress pipeline.Progress
	if !f.quiet {
		out := cmd.OutOrStdout()
		progress = pipeline.ProgressFunc(func(line string) { fmt.Fprintln(out, line) })
	}
	req := pipeline.Request{
		JobID:           uuid.NewString(),
		Pages:           pages,
		RemoveWatermark: f.removeWM,
		WatermarkData:   wm,
		Locale:          f.locale,
	}

	target := f.out
	var summary pipeline.Summary
	if f.dir != "" {
		target = f.dir
		dir, err := storage.NewDirArchive(f.dir)
		if err != nil {
			return err
		}
		if summary, err = runner.Run(cmd.Context(), req, dir, progress); err != nil {
			return err
		}
	} else if summary, err = runZip(cmd, runner, req, progress, f.out); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d images from %d pages (%d page failures, %d image failures)\n",
		target, summary.Images, summary.Pages, summary.PageFailures, summary.ImageFailures)
	return nil
}

func runZip(cmd *cobra.Command, runner *pipeline.Runner, req pipeline.Request, progress pipeline.Progress, path string) (pipeline.Summary, error) {
	file, err := os.Create(path)
	if err != nil {
		return pipeline.Summary{}, fmt.Errorf("create archive: %w", err)
	}
	zw := zip.NewWriter(file, flate.BestCompression)
	summary, err := runner.Run(cmd.Context(), req, zw, progress)
	if err == nil {
		err = zw.Close()
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
	}
	return summary, err
}
