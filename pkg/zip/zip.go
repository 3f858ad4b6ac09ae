package zip

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"errors"
	"fmt"
	"io"
	"time"
)

// Asset is one file destined for an archive.
type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// Writer streams entries into a zip archive as they are appended.
type Writer struct {
	zw     *zip.Writer
	now    func() time.Time
	count  int
	closed bool
}

// NewWriter returns a Writer on out using deflate at the given level
// (flate.BestSpeed through flate.BestCompression, or flate.DefaultCompression).
func NewWriter(out io.Writer, level int) *Writer {
	if level < flate.HuffmanOnly || level > flate.BestCompression {
		level = flate.DefaultCompression
	}
	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})
	return &Writer{zw: zw, now: time.Now}
}

// Append writes one entry. Entries are flushed to the underlying writer
// immediately so the archive streams.
func (w *Writer) Append(name string, data []byte) error {
	if w.closed {
		return errors.New("zip: append after close")
	}
	if name == "" {
		return errors.New("zip: empty entry name")
	}
	fw, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: w.now(),
	})
	if err != nil {
		return fmt.Errorf("zip: create %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("zip: write %s: %w", name, err)
	}
	if err := w.zw.Flush(); err != nil {
		return fmt.Errorf("zip: flush: %w", err)
	}
	w.count++
	return nil
}

// Count reports the number of entries appended so far.
func (w *Writer) Count() int { return w.count }

// Close writes the central directory. It does not close the underlying
// writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.zw.Close()
}

// ArchiveAssets builds an in-memory archive of assets.
func ArchiveAssets(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf, flate.DefaultCompression)
	for _, asset := range assets {
		if err := w.Append(asset.Filename, asset.Data); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
