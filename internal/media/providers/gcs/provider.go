// Package gcs implements media.StorageProvider on Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const writeTimeout = 2 * time.Minute

// Provider stores attachments as objects in one bucket.
type Provider struct {
	client    *storage.Client
	bucket    string
	cdnDomain string
}

// New creates a GCS provider. Credentials follow the client library's
// default lookup unless opts override them.
func New(ctx context.Context, bucket, cdnDomain string, opts ...option.ClientOption) (*Provider, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Provider{client: client, bucket: bucket, cdnDomain: strings.TrimSpace(cdnDomain)}, nil
}

// Put uploads the reader as one object with the declared content type.
func (p *Provider) Put(ctx context.Context, key string, reader io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	w := p.client.Bucket(p.bucket).Object(objectKey(key)).NewWriter(ctx)
	if ct := strings.TrimSpace(contentType); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, reader); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close object writer: %w", err)
	}
	return nil
}

// Open reads an object.
func (p *Provider) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := p.client.Bucket(p.bucket).Object(objectKey(key)).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	return r, nil
}

// Delete removes an object. Missing objects are not an error.
func (p *Provider) Delete(ctx context.Context, key string) error {
	err := p.client.Bucket(p.bucket).Object(objectKey(key)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// AccessPath returns the public URL of an object, preferring the CDN domain.
func (p *Provider) AccessPath(key string) string {
	return publicURL(p.bucket, p.cdnDomain, key)
}

// Ping checks that the bucket is reachable.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.client.Bucket(p.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("bucket attrs: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}

func publicURL(bucket, cdnDomain, key string) string {
	key = objectKey(key)
	if cdnDomain != "" {
		cdnDomain = strings.TrimPrefix(strings.TrimPrefix(cdnDomain, "https://"), "http://")
		return fmt.Sprintf("https://%s/%s", strings.TrimRight(cdnDomain, "/"), key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}

func objectKey(key string) string {
	return strings.TrimLeft(strings.TrimSpace(key), "/")
}
