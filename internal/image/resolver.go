// Package image resolves remote image tarballs to files on local disk.
//
// Downloads are cached by filename: the local name is the final path
// segment of the source URL, and an existing file of that name is reused
// as-is without re-download or content validation. Retrying failed
// downloads is the caller's concern, not this package's.
package image

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// fetchFunc downloads rawURL to the file at dest.
type fetchFunc func(ctx context.Context, rawURL, dest string) error

// Resolver ensures a usable local copy of a remote tarball exists.
type Resolver struct {
	fetch fetchFunc
}

// NewResolver returns a Resolver that downloads over HTTP.
func NewResolver() *Resolver {
	return &Resolver{fetch: httpFetch}
}

// newResolverWithFetch allows tests to substitute the download mechanism.
func newResolverWithFetch(fetch fetchFunc) *Resolver {
	return &Resolver{fetch: fetch}
}

// Resolve returns the local path for rawURL, downloading into destDir only
// when no file with the derived name exists there yet.
//
// After a download the file's presence is re-checked; a missing file is a
// failure even if the fetch itself reported success.
func (r *Resolver) Resolve(ctx context.Context, rawURL, destDir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("cannot derive a filename from URL %q", rawURL)
	}

	dest := filepath.Join(destDir, name)
	if _, err := os.Stat(dest); err == nil {
		log.Debug("tarball already exists, skipping download", "path", dest)
		return dest, nil
	}

	log.Debug("downloading image", "url", rawURL, "path", dest)
	if err := r.fetch(ctx, rawURL, dest); err != nil {
		log.Error("failed to download image", "url", rawURL, "err", err)
		return "", fmt.Errorf("failed to download %s: %w", rawURL, err)
	}

	if _, err := os.Stat(dest); err != nil {
		log.Error("downloaded file not found on disk", "path", dest)
		return "", fmt.Errorf("downloaded file missing at %s: %w", dest, err)
	}

	return dest, nil
}

// httpFetch performs a plain GET of rawURL streamed to the file at dest.
// A partial file left by a failed copy is removed.
func httpFetch(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dest, err)
	}

	return nil
}
