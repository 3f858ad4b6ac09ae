package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"imagegrab/internal/imageproc"
	"imagegrab/pkg/zip"
)

// WhiteBackground flattens every uploaded image onto a white square canvas
// and returns them as one archive. Any undecodable upload fails the request.
func (a *App) WhiteBackground(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload())
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		a.formError(w, err)
		return
	}
	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = append(files, r.MultipartForm.File["images"]...)
		files = append(files, r.MultipartForm.File["images[]"]...)
	}
	if len(files) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "No files")
		return
	}

	assets := make([]zip.Asset, 0, len(files))
	for _, fh := range files {
		out, err := whiteBackground(fh)
		if err != nil {
			a.Logger.Warn().Err(err).Str("file", fh.Filename).Msg("white background")
			a.error(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		assets = append(assets, zip.Asset{Filename: "white_" + fh.Filename, MIME: "image/png", Data: out})
	}

	body, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	a.Metrics.WhiteBackground(len(assets))

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="white_bg_ready.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func whiteBackground(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	out, err := imageproc.WhiteBackground(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fh.Filename, err)
	}
	return out, nil
}
