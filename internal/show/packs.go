package show

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Library manages the on-disk show packs: one directory per show, each
// containing a config.json plus optional assets.
type Library struct {
	dir    string
	logger *slog.Logger
}

func NewLibrary(logger *slog.Logger, dir string) (*Library, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create shows directory: %w", err)
	}
	return &Library{
		dir:    dir,
		logger: logger.With(slog.String("component", "show_library")),
	}, nil
}

// Dir returns the root of the show pack storage.
func (l *Library) Dir() string {
	return l.dir
}

// List returns the installed show ids (folder names).
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("list shows: %w", err)
	}
	shows := []string{}
	for _, e := range entries {
		if e.IsDir() {
			shows = append(shows, e.Name())
		}
	}
	return shows, nil
}

// Install extracts an uploaded zip into the shows directory. The show id is
// the zip file name without its extension. The pack must contain a
// config.json at its root.
func (l *Library) Install(fileName string, data []byte) (string, error) {
	showID := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if showID == "" || showID == "." {
		return "", fmt.Errorf("invalid show pack name %q", fileName)
	}
	dest := filepath.Join(l.dir, showID)

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open show pack: %w", err)
	}

	for _, f := range reader.File {
		target := filepath.Join(dest, f.Name)
		// reject paths escaping the show folder
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return "", fmt.Errorf("show pack entry %q escapes destination", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", fmt.Errorf("extract show pack: %w", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return "", fmt.Errorf("extract show pack: %w", err)
		}
		if err := extractFile(f, target); err != nil {
			return "", err
		}
	}

	if _, err := os.Stat(filepath.Join(dest, "config.json")); err != nil {
		os.RemoveAll(dest)
		return "", fmt.Errorf("INVALID_SHOW_PACK: missing config.json")
	}

	l.logger.Info("Show pack installed", slog.String("showId", showID))
	return showID, nil
}

func extractFile(f *zip.File, target string) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("extract %q: %w", f.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("extract %q: %w", f.Name, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("extract %q: %w", f.Name, err)
	}
	return nil
}

// Delete removes a show pack and all its assets.
func (l *Library) Delete(showID string) error {
	if showID == "" || strings.ContainsAny(showID, "/\\") {
		return fmt.Errorf("invalid show id %q", showID)
	}
	if err := os.RemoveAll(filepath.Join(l.dir, showID)); err != nil {
		return fmt.Errorf("delete show %q: %w", showID, err)
	}
	l.logger.Info("Show pack deleted", slog.String("showId", showID))
	return nil
}
