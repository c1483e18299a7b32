// Package localfs implements media.StorageProvider on the local filesystem.
// Writing <root>/<key> on disk makes the file available at <publicBaseURL>/<key>.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/media"
)

// Provider stores uploaded attachments under a root directory that is served
// over HTTP by the file route.
type Provider struct {
	root          string
	publicBaseURL string
}

// New creates a filesystem storage provider.
// root is the directory holding uploaded files (e.g. "data/files").
func New(root, publicBaseURL string) (*Provider, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Provider{root: abs, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// Root returns the absolute directory served by the file route.
func (p *Provider) Root() string {
	return p.root
}

// Put writes data under the storage root.
func (p *Provider) Put(_ context.Context, key string, reader io.Reader, _ string) error {
	dest, err := p.hostPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Open reads a stored file.
func (p *Provider) Open(_ context.Context, key string) (io.ReadCloser, error) {
	dest, err := p.hostPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(dest)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Delete removes a stored file. Missing files are not an error.
func (p *Provider) Delete(_ context.Context, key string) error {
	dest, err := p.hostPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// AccessPath returns the public URL of a storage key.
func (p *Provider) AccessPath(key string) string {
	return p.publicBaseURL + "/" + strings.TrimLeft(filepath.ToSlash(key), "/")
}

// Ping checks that the storage root is still a writable directory.
func (p *Provider) Ping(_ context.Context) error {
	info, err := os.Stat(p.root)
	if err != nil {
		return fmt.Errorf("stat storage root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root is not a directory: %s", p.root)
	}
	return nil
}

// hostPath converts a storage key into the on-disk file path.
func (p *Provider) hostPath(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("storage key is required")
	}
	clean := filepath.Clean(key)
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: absolute key %s", media.ErrPathTraversal, key)
	}
	if strings.HasPrefix(clean, ".."+string(filepath.Separator)) || clean == ".." {
		return "", fmt.Errorf("%w: %s", media.ErrPathTraversal, key)
	}
	joined := filepath.Join(p.root, clean)
	if !strings.HasPrefix(joined, p.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: key escapes storage root: %s", media.ErrPathTraversal, key)
	}
	return joined, nil
}
