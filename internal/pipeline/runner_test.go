package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"imagegrab/internal/fetch"
	"imagegrab/internal/imageproc"
)

type stubFetcher struct {
	bodies map[string][]byte
	errs   map[string]error
	calls  []string
}

func (s *stubFetcher) Fetch(ctx context.Context, rawURL string) (*fetch.Response, error) {
	s.calls = append(s.calls, rawURL)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := s.errs[rawURL]; ok {
		return nil, err
	}
	body, ok := s.bodies[rawURL]
	if !ok {
		return nil, &fetch.StatusError{URL: rawURL, Code: 404}
	}
	return &fetch.Response{URL: rawURL, StatusCode: 200, Body: body}, nil
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imageproc.EncodePNG(&buf, imaging.New(w, h, c)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

type lines []string

func (l *lines) Log(line string) { *l = append(*l, line) }

func (l lines) contains(s string) bool {
	for _, line := range l {
		if line == s {
			return true
		}
	}
	return false
}

const productPage = "https://shop.example.com/catalog/chaser-7-years"

func productHTML() string {
	return `<html><body>
		<a href="/img/chaser-1-600x600.jpg"><img src="/img/chaser-1-100x100.jpg"></a>
		<img data-src="/img/chaser-2.png">
		<img data-lazy="/img/chaser-3.webp">
		<img src="/img/logo.png">
	</body></html>`
}

func productFetcher(t *testing.T) *stubFetcher {
	img := pngBytes(t, 300, 200, color.NRGBA{G: 0xff, A: 0xff})
	return &stubFetcher{bodies: map[string][]byte{
		productPage: []byte(productHTML()),
		"https://shop.example.com/img/chaser-1-1000x1000.jpg": img,
		"https://shop.example.com/img/chaser-2.png":           img,
		"https://shop.example.com/img/chaser-3.webp":          img,
		"https://shop.example.com/img/logo.png":               img,
	}}
}

func TestRunArchivesProductImages(t *testing.T) {
	f := productFetcher(t)
	r := NewRunner(Options{Fetcher: f})
	archive := &MemoryArchive{}
	var progress lines

	summary, err := r.Run(context.Background(), Request{JobID: "job-1", Pages: []string{productPage}}, archive, &progress)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	want := []string{
		"chaser-7-years/01.png",
		"chaser-7-years/02.png",
		"chaser-7-years/03.png",
		"chaser-7-years/source.txt",
	}
	if got := archive.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	entries := archive.Entries()
	for _, e := range entries[:3] {
		img, err := imageproc.Decode(e.Data)
		if err != nil {
			t.Fatalf("%s is not an image: %v", e.Name, err)
		}
		if b := img.Bounds(); b.Dx() != 1000 || b.Dy() != 1000 {
			t.Fatalf("%s size = %v", e.Name, b)
		}
	}
	if got := string(entries[3].Data); got != productPage+"\n" {
		t.Fatalf("source.txt = %q", got)
	}
	if summary != (Summary{Pages: 1, Images: 3}) {
		t.Fatalf("summary = %+v", summary)
	}
	for _, u := range f.calls {
		if strings.Contains(u, "logo") {
			t.Fatalf("junk image was fetched: %s", u)
		}
	}
	for _, want := range []string{"START. URLs: 1", "Remove WM: NO", "  Images after filtering: 3", "  Folder: chaser-7-years", "=== END ==="} {
		if !progress.contains(want) {
			t.Fatalf("progress missing %q in %q", want, progress)
		}
	}
}

func TestRunPageFailuresAreRecorded(t *testing.T) {
	img := pngBytes(t, 50, 50, color.White)
	empty := "https://shop.example.com/empty"
	broken := "https://down.example.com/item"
	gappy := "https://shop.example.com/"
	f := &stubFetcher{
		bodies: map[string][]byte{
			empty: []byte(`<img src="/img/logo.png">`),
			gappy: []byte(`<img src="/p/one.jpg"><img src="/p/two.jpg"><img src="/p/three.jpg">`),
			"https://shop.example.com/p/one.jpg":   img,
			"https://shop.example.com/p/two.jpg":   []byte("<html>not an image</html>"),
			"https://shop.example.com/p/three.jpg": img,
		},
		errs: map[string]error{broken: errors.New("dial tcp: connection refused")},
	}
	r := NewRunner(Options{Fetcher: f})
	archive := &MemoryArchive{}

	pages := []string{"https://shop.example.com/missing", empty, broken, gappy}
	summary, err := r.Run(context.Background(), Request{Pages: pages}, archive, nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	want := []string{
		"01_error.txt",
		"02_no_img.txt",
		"03_error.txt",
		"04/01.png",
		"04/03.png",
		"04/source.txt",
	}
	if got := archive.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	entries := archive.Entries()
	if got := string(entries[0].Data); got != "Error: 404" {
		t.Fatalf("01_error.txt = %q", got)
	}
	if got := string(entries[1].Data); got != "No images found" {
		t.Fatalf("02_no_img.txt = %q", got)
	}
	if got := string(entries[2].Data); got != "Error: dial tcp: connection refused" {
		t.Fatalf("03_error.txt = %q", got)
	}
	wantSummary := Summary{Pages: 4, PageFailures: 2, EmptyPages: 1, Images: 2, ImageFailures: 1}
	if summary != wantSummary {
		t.Fatalf("summary = %+v, want %+v", summary, wantSummary)
	}
}

type failingArchive struct{ after int }

func (a *failingArchive) Append(string, []byte) error {
	if a.after == 0 {
		return errors.New("broken pipe")
	}
	a.after--
	return nil
}

func TestRunArchiveFailureIsFatal(t *testing.T) {
	r := NewRunner(Options{Fetcher: productFetcher(t)})
	_, err := r.Run(context.Background(), Request{Pages: []string{productPage, productPage}}, &failingArchive{after: 1}, nil)
	if err == nil || !strings.Contains(err.Error(), "broken pipe") {
		t.Fatalf("Run() err = %v, want archive failure", err)
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	f := productFetcher(t)
	r := NewRunner(Options{Fetcher: f})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	archive := &MemoryArchive{}
	_, err := r.Run(ctx, Request{Pages: []string{productPage}}, archive, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() err = %v, want context.Canceled", err)
	}
	if len(archive.Names()) != 0 {
		t.Fatalf("cancelled job wrote entries: %v", archive.Names())
	}
}

func TestRunWatermarkSelection(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "watermark.png")
	r := NewRunner(Options{Fetcher: productFetcher(t)})

	var progress lines
	_, err := r.Run(context.Background(), Request{Pages: []string{productPage}, DefaultWatermarkPath: missing}, &MemoryArchive{}, &progress)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !progress.contains("Watermark: " + missing + " not found, no logo will be applied") {
		t.Fatalf("missing default watermark line not reported: %q", progress)
	}

	mark := imaging.New(10, 10, color.NRGBA{})
	mark = imaging.Paste(mark, imaging.New(4, 4, color.NRGBA{B: 0xff, A: 0xff}), image.Pt(3, 3))
	var buf bytes.Buffer
	if err := imageproc.EncodePNG(&buf, mark); err != nil {
		t.Fatalf("encode watermark: %v", err)
	}

	progress = nil
	archive := &MemoryArchive{}
	_, err = r.Run(context.Background(), Request{
		Pages:           []string{productPage},
		RemoveWatermark: true,
		WatermarkData:   buf.Bytes(),
		Locale:          "ru",
	}, archive, &progress)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !progress.contains("Водяной знак: используем пользовательский PNG") {
		t.Fatalf("custom watermark line not reported: %q", progress)
	}
	out, err := imageproc.Decode(archive.Entries()[0].Data)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got := imaging.Clone(out).NRGBAAt(500, 500); got.B < 200 || got.G > 60 {
		t.Fatalf("watermark not stamped, centre pixel = %v", got)
	}
}

func TestFolderName(t *testing.T) {
	tests := []struct {
		url   string
		index int
		want  string
	}{
		{"https://a.com/catalog/item-1", 1, "item-1"},
		{"https://a.com/catalog/item-1/", 2, "item-1"},
		{"https://a.com/", 3, "03"},
		{"https://a.com", 12, "12"},
		{"https://a.com/c/a:b*c?x=1", 1, "a_b_c"},
		{"https://a.com/c/%D0%BD%D0%B0%D0%B1%D0%BE%D1%80", 1, "%D0%BD%D0%B0%D0%B1%D0%BE%D1%80"},
		{"http://[::1/x", 5, "05"},
		{"https://a.com/catalog/..", 1, "01"},
		{"https://a.com/catalog/.", 2, "catalog"},
		{"https://a.com/catalog/../item-2", 3, "item-2"},
		{"https://a.com/..", 4, "04"},
	}
	for _, tc := range tests {
		if got := FolderName(tc.url, tc.index); got != tc.want {
			t.Fatalf("FolderName(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestSplitURLs(t *testing.T) {
	got := SplitURLs("  https://a.com/1\n\thttps://a.com/2   https://a.com/3\r\n")
	want := []string{"https://a.com/1", "https://a.com/2", "https://a.com/3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitURLs() = %v", got)
	}
	if len(SplitURLs(" \n ")) != 0 {
		t.Fatalf("blank input should yield no urls")
	}
}

func TestRunDotSegmentPageStaysInsideArchive(t *testing.T) {
	const page = "https://shop.example.com/catalog/.."
	img := pngBytes(t, 50, 50, color.White)
	f := &stubFetcher{bodies: map[string][]byte{
		page: []byte(`<img src="/img/item-1.jpg">`),
		"https://shop.example.com/img/item-1.jpg": img,
	}}
	archive := &MemoryArchive{}
	if _, err := NewRunner(Options{Fetcher: f}).Run(context.Background(), Request{Pages: []string{page}}, archive, nil); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	want := []string{"01/01.png", "01/source.txt"}
	if got := archive.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
}
