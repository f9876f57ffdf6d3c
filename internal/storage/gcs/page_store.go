// Package gcs provides a PageStore backed by Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

const htmlContentType = "text/html; charset=utf-8"

// Config captures the bucket and optional object prefix pages are written under.
type Config struct {
	Bucket string
	Prefix string
}

// PageStore writes pages as objects in a GCS bucket.
type PageStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// New creates a GCS-backed page store.
func New(client *storage.Client, cfg Config) (*PageStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &PageStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// WritePage uploads data and returns a gs:// URI.
func (s *PageStore) WritePage(ctx context.Context, name string, data []byte) (string, error) {
	key, err := s.objectName(name)
	if err != nil {
		return "", err
	}
	writer := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = htmlContentType
	writer.ChunkSize = 0
	if _, err := writer.Write(data); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return "", fmt.Errorf("write object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, key), nil
}

// Clean deletes every object under prefix.
func (s *PageStore) Clean(ctx context.Context, prefix string) error {
	key, err := s.objectName(prefix)
	if err != nil {
		return err
	}
	bucket := s.client.Bucket(s.bucket)
	it := bucket.Objects(ctx, &storage.Query{Prefix: key + "/"})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("list objects: %w", err)
		}
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("delete %s: %w", attrs.Name, err)
		}
	}
}

func (s *PageStore) objectName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("path is required")
	}
	cleaned := path.Clean("/" + name)
	if cleaned != "/"+strings.Trim(name, "/") {
		return "", fmt.Errorf("path traversal detected")
	}
	return path.Join(s.prefix, strings.TrimPrefix(cleaned, "/")), nil
}
