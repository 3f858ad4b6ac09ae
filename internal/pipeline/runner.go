// Package pipeline runs a download job: pages are fetched one after another,
// their product images extracted, transformed and appended to an archive
// while progress lines are reported.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/url"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/message"

	"imagegrab/internal/fetch"
	"imagegrab/internal/i18n"
	"imagegrab/internal/imageproc"
	"imagegrab/internal/infra"
	"imagegrab/internal/metrics"
	"imagegrab/internal/normalize"
)

// Archive receives finished entries.
type Archive interface {
	Append(name string, data []byte) error
}

// Progress receives human-readable progress lines.
type Progress interface {
	Log(line string)
}

// Entry is a named archive member.
type Entry struct {
	Name string
	Data []byte
}

// Request describes one job.
type Request struct {
	JobID           string
	Pages           []string
	RemoveWatermark bool
	// WatermarkData is an uploaded watermark. When empty the file at
	// DefaultWatermarkPath is tried instead.
	WatermarkData        []byte
	DefaultWatermarkPath string
	Locale               string
}

// Summary counts what a job produced.
type Summary struct {
	Pages         int `json:"pages"`
	PageFailures  int `json:"page_failures"`
	EmptyPages    int `json:"empty_pages"`
	Images        int `json:"images"`
	ImageFailures int `json:"image_failures"`
}

// Options wires a Runner.
type Options struct {
	Fetcher  fetch.Fetcher
	URLs     *normalize.Pipeline
	Geometry imageproc.Geometry
	Metrics  *metrics.Metrics
	Logger   *infra.Logger
}

// Runner executes jobs. It is safe for concurrent use; each Run call is
// independent.
type Runner struct {
	fetcher  fetch.Fetcher
	urls     *normalize.Pipeline
	geometry imageproc.Geometry
	metrics  *metrics.Metrics
	logger   *infra.Logger
}

// NewRunner builds a Runner, filling unset options with defaults.
func NewRunner(opts Options) *Runner {
	if opts.Fetcher == nil {
		opts.Fetcher = fetch.NewHTTPFetcher(fetch.Options{})
	}
	if opts.URLs == nil {
		opts.URLs = normalize.NewPipeline(nil, nil)
	}
	if opts.Geometry.Canvas == 0 {
		opts.Geometry = imageproc.DefaultGeometry
	}
	if opts.Logger == nil {
		l := infra.Logger(zerolog.New(io.Discard))
		opts.Logger = &l
	}
	return &Runner{
		fetcher:  opts.Fetcher,
		urls:     opts.URLs,
		geometry: opts.Geometry,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
}

var unsafeFolderChars = regexp.MustCompile(`[<>:"/\\|?*]+`)

// FolderName names the archive folder of a page: its last non-empty path
// segment with characters unsafe in file names replaced, or the page's
// two-digit position when the URL has no usable path.
func FolderName(pageURL string, index int) string {
	fallback := pad(index)
	u, err := url.Parse(pageURL)
	if err != nil {
		return fallback
	}
	// Dot segments resolve the way a browser resolves them.
	last := path.Base(path.Clean("/" + u.EscapedPath()))
	if last == "/" || last == "." || last == ".." {
		return fallback
	}
	return unsafeFolderChars.ReplaceAllString(last, "_")
}

// SplitURLs splits whitespace-separated input into page URLs.
func SplitURLs(raw string) []string {
	return strings.Fields(raw)
}

func pad(n int) string {
	return fmt.Sprintf("%02d", n)
}

type job struct {
	*Runner
	ctx      context.Context
	req      Request
	archive  Archive
	progress Progress
	printer  *message.Printer
	log      zerolog.Logger
	wm       image.Image
	summary  Summary
}

func (j *job) line(key message.Reference, args ...any) {
	msg := j.printer.Sprintf(key, args...)
	j.log.Info().Msg(msg)
	if j.progress != nil {
		j.progress.Log(msg)
	}
}

// Run executes req, appending entries to archive. Failures of single pages or
// images are reported and skipped; an archive write failure or ctx
// cancellation aborts the job with an error.
func (r *Runner) Run(ctx context.Context, req Request, archive Archive, progress Progress) (Summary, error) {
	j := &job{
		Runner:   r,
		ctx:      ctx,
		req:      req,
		archive:  archive,
		progress: progress,
		printer:  i18n.Printer(req.Locale),
		log:      r.logger.With().Str("job_id", req.JobID).Logger(),
	}

	j.line(i18n.MsgStart, len(req.Pages))
	for i, p := range req.Pages {
		j.line(i18n.MsgURL, i+1, p)
	}
	yes := i18n.MsgNo
	if req.RemoveWatermark {
		yes = i18n.MsgYes
	}
	j.line(i18n.MsgRemoveWM, j.printer.Sprintf(yes))
	j.wm = j.loadWatermark()

	for i, pageURL := range req.Pages {
		if err := ctx.Err(); err != nil {
			return j.summary, err
		}
		if err := j.page(i+1, pageURL); err != nil {
			return j.summary, err
		}
	}
	j.line(i18n.MsgEnd)
	return j.summary, nil
}

func (j *job) loadWatermark() image.Image {
	data := j.req.WatermarkData
	if len(data) > 0 {
		j.line(i18n.MsgWMCustom)
	} else {
		wmPath := j.req.DefaultWatermarkPath
		if wmPath == "" {
			return nil
		}
		b, err := os.ReadFile(wmPath)
		if err != nil {
			j.line(i18n.MsgWMMissing, wmPath)
			return nil
		}
		j.line(i18n.MsgWMDefault, wmPath)
		data = b
	}
	wm, err := imageproc.LoadWatermark(data)
	if err != nil {
		j.line(i18n.MsgWMInvalid, err.Error())
		return nil
	}
	return wm
}

func (j *job) page(index int, pageURL string) error {
	j.summary.Pages++
	j.line(i18n.MsgPage, index, pageURL)

	resp, err := j.fetcher.Fetch(j.ctx, pageURL)
	if err != nil {
		if ctxErr := j.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		j.summary.PageFailures++
		j.metrics.Page(metrics.PageError)
		j.line(i18n.MsgPageError, err.Error())
		return j.append(pad(index)+"_error.txt", []byte("Error: "+errorText(err)))
	}

	j.line(i18n.MsgHTMLReceived)
	urls := j.urls.ExtractImageURLs(pageURL, string(resp.Body))
	j.line(i18n.MsgImagesFound, len(urls))
	if len(urls) == 0 {
		j.summary.EmptyPages++
		j.metrics.Page(metrics.PageNoImages)
		return j.append(pad(index)+"_no_img.txt", []byte("No images found"))
	}
	j.metrics.Page(metrics.PageOK)

	folder := FolderName(pageURL, index)
	j.line(i18n.MsgFolder, folder)
	j.line(i18n.MsgSaving, len(urls))

	for i, imgURL := range urls {
		if err := j.ctx.Err(); err != nil {
			return err
		}
		if err := j.image(folder, i+1, len(urls), imgURL); err != nil {
			return err
		}
	}
	return j.append(folder+"/source.txt", []byte(pageURL+"\n"))
}

func (j *job) image(folder string, n, total int, imgURL string) error {
	j.line(i18n.MsgImage, n, total, imgURL)

	resp, err := j.fetcher.Fetch(j.ctx, imgURL)
	if err != nil {
		if ctxErr := j.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		j.summary.ImageFailures++
		j.metrics.Image(metrics.ImageFetchError)
		j.line(i18n.MsgImageError, err.Error())
		return nil
	}

	out, err := imageproc.Process(resp.Body, imageproc.Options{
		RemoveWatermark: j.req.RemoveWatermark,
		Geometry:        j.geometry,
		Watermark:       j.wm,
	})
	if err != nil {
		j.summary.ImageFailures++
		j.metrics.Image(metrics.ImageProcessError)
		j.line(i18n.MsgImageProcError, err.Error())
		return nil
	}

	if err := j.append(fmt.Sprintf("%s/%s.png", folder, pad(n)), out); err != nil {
		return err
	}
	j.summary.Images++
	j.metrics.Image(metrics.ImageArchived)
	return nil
}

func (j *job) append(name string, data []byte) error {
	if err := j.archive.Append(name, data); err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	return nil
}

// errorText renders a page failure for the error entry: the bare status code
// for HTTP errors, the error text otherwise.
func errorText(err error) string {
	var se *fetch.StatusError
	if errors.As(err, &se) {
		return strconv.Itoa(se.Code)
	}
	return err.Error()
}
