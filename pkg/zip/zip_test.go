package zip

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"errors"
	"io"
	"testing"
)

func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		out[f.Name] = string(b)
	}
	return out
}

func TestWriterStreamsEntries(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, flate.BestCompression)
	if err := w.Append("item/01.png", []byte("png-bytes")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("entry was not flushed to the underlying writer")
	}
	if err := w.Append("item/source.txt", []byte("https://a/item\n")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if w.Count() != 2 {
		t.Fatalf("Count() = %d", w.Count())
	}

	files := readArchive(t, buf.Bytes())
	if files["item/01.png"] != "png-bytes" || files["item/source.txt"] != "https://a/item\n" {
		t.Fatalf("unexpected contents %v", files)
	}

	if err := w.Append("late.txt", nil); err == nil {
		t.Fatalf("Append after Close should fail")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestWriterRejectsEmptyName(t *testing.T) {
	w := NewWriter(io.Discard, 42)
	if err := w.Append("", []byte("x")); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("client gone") }

func TestWriterPropagatesWriteErrors(t *testing.T) {
	w := NewWriter(failingWriter{}, flate.DefaultCompression)
	if err := w.Append("a.txt", []byte("hello")); err == nil {
		t.Fatalf("expected write error to surface")
	}
}

func TestArchiveAssets(t *testing.T) {
	data, err := ArchiveAssets([]Asset{
		{Filename: "white_a.png", MIME: "image/png", Data: []byte("a")},
		{Filename: "white_b.png", MIME: "image/png", Data: []byte("b")},
	})
	if err != nil {
		t.Fatalf("ArchiveAssets: %v", err)
	}
	files := readArchive(t, data)
	if len(files) != 2 || files["white_a.png"] != "a" || files["white_b.png"] != "b" {
		t.Fatalf("unexpected contents %v", files)
	}
}
