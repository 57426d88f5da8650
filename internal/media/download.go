package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pders01/pixels/internal/debuglog"
	"github.com/pders01/pixels/internal/storage"
	"github.com/pders01/pixels/internal/validation"
)

const maxImageBytes = 64 << 20

var ErrNoImageURL = errors.New("image has no downloadable URL")

// Downloader saves full-size images to disk.
type Downloader struct {
	client    *http.Client
	userAgent string
	urls      *validation.URLValidator
	paths     *validation.PathHandler
}

// NewDownloader accepts download directories under the usual user folders
// and any of allowedDirs.
func NewDownloader(httpClient *http.Client, userAgent string, allowedDirs ...string) *Downloader {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Downloader{
		client:    httpClient,
		userAgent: userAgent,
		urls:      validation.NewImageURLValidator(),
		paths:     validation.NewSecurePathHandler(allowedDirs...),
	}
}

// WithURLValidator replaces the image URL validator.
func (d *Downloader) WithURLValidator(v *validation.URLValidator) *Downloader {
	d.urls = v
	return d
}

// Download fetches the largest available rendition of img into dir as
// pixabay-<id><ext> and returns the file path.
func (d *Downloader) Download(ctx context.Context, img storage.Image, dir string) (string, error) {
	src := img.LargeImageURL
	if src == "" {
		src = img.WebformatURL
	}
	if src == "" {
		return "", ErrNoImageURL
	}
	src, err := d.urls.ValidateAndNormalize(src)
	if err != nil {
		return "", fmt.Errorf("image url: %w", err)
	}
	dir, err = d.paths.DownloadDir(dir)
	if err != nil {
		return "", fmt.Errorf("download dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", err
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: unexpected status %d", src, resp.StatusCode)
	}

	name := validation.SafeFileName("pixabay-"+img.ID) + extension(src, resp.Header.Get("Content-Type"))
	dest := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, ".pixels-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxImageBytes+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	if n > maxImageBytes {
		return "", fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("saving %s: %w", dest, err)
	}

	debuglog.WithFields(debuglog.Fields{"id": img.ID, "bytes": n, "path": dest}).Infof("image downloaded")
	return dest, nil
}

var imageExts = map[string]string{
	".jpg": ".jpg", ".jpeg": ".jpg", ".png": ".png", ".gif": ".gif",
	".webp": ".webp", ".svg": ".svg", ".tif": ".tif", ".tiff": ".tif",
}

// extension prefers the URL's own image extension, then the content type.
func extension(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if ext, ok := imageExts[strings.ToLower(path.Ext(u.Path))]; ok {
			return ext
		}
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "image/jpeg":
			return ".jpg"
		case "image/png":
			return ".png"
		case "image/gif":
			return ".gif"
		case "image/webp":
			return ".webp"
		}
		if exts, _ := mime.ExtensionsByType(mt); len(exts) > 0 {
			return exts[0]
		}
	}
	return ".jpg"
}
