// Package gcsfetch pulls statement files referenced by gs:// URIs so an
// import session can mix local paths and Cloud Storage objects.
package gcsfetch

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
)

// IsGCSURI reports whether the input names a Cloud Storage object.
func IsGCSURI(s string) bool {
	return strings.HasPrefix(s, "gs://")
}

// SplitURI parses "gs://bucket/path/to/file" into bucket and object name.
func SplitURI(uri string) (bucket, object string, err error) {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("gcsfetch: malformed uri %q", uri)
	}
	return parts[0], parts[1], nil
}

// Filename extracts the base filename from a gs:// URI, used as the grid
// extractor's format hint.
func Filename(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

// Fetch downloads the object behind a gs:// URI.
func Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := SplitURI(uri)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcsfetch: create storage client: %w", err)
	}
	defer client.Close()

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcsfetch: open %s: %w", uri, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gcsfetch: read %s: %w", uri, err)
	}
	return data, nil
}
