package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
)

type uploadResponse struct {
	Success bool   `json:"success"`
	ShowID  string `json:"showId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// uploadShowHandler installs a show pack zip. Packs can be large, so this
// rides over HTTP instead of the event channel; the admin token travels in
// a header and is checked against the same token set as socket events.
func (a *App) uploadShowHandler(w http.ResponseWriter, r *http.Request) {
	if !a.engine.AuthorizeToken(r.Header.Get("X-Admin-Token")) {
		a.logger.Warn("Unauthorized show upload blocked")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.Server.UploadLimit)
	if err := r.ParseMultipartForm(a.config.Server.UploadLimit); err != nil {
		writeUploadError(w, http.StatusBadRequest, "invalid upload")
		return
	}

	file, header, err := firstFormFile(r)
	if err != nil {
		writeUploadError(w, http.StatusBadRequest, "no files uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeUploadError(w, http.StatusBadRequest, "invalid upload")
		return
	}

	showID, err := a.library.Install(header.Filename, data)
	if err != nil {
		a.logger.Error("Show pack install failed", slog.Any("error", err))
		writeUploadError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(uploadResponse{Success: true, ShowID: showID})
}

func firstFormFile(r *http.Request) (io.ReadCloser, *multipart.FileHeader, error) {
	for _, headers := range r.MultipartForm.File {
		for _, header := range headers {
			f, err := header.Open()
			if err != nil {
				return nil, nil, err
			}
			return f, header, nil
		}
	}
	return nil, nil, http.ErrMissingFile
}

func writeUploadError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(uploadResponse{Error: msg})
}
