// Package sink writes command results to a stream, the local filesystem, or
// S3-compatible object storage.
package sink

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
)

// Sink stores one named object.
type Sink interface {
	Name() string
	Kind() string
	Write(ctx context.Context, path string, data io.Reader) error
}

// Open resolves target to a Sink and the object path to write within it.
// An empty target or "-" writes to w. A target of the form s3://bucket/key
// uploads to S3 using s3cfg. Anything else is a local file path.
func Open(ctx context.Context, target string, w io.Writer, s3cfg S3Config) (Sink, string, error) {
	switch {
	case target == "" || target == "-":
		return NewStreamSink(w), "", nil
	case strings.HasPrefix(target, "s3://"):
		bucket, key, err := parseS3Target(target)
		if err != nil {
			return nil, "", err
		}
		s3cfg.Bucket = bucket
		s, err := NewS3Sink(ctx, s3cfg)
		if err != nil {
			return nil, "", err
		}
		return s, key, nil
	default:
		s, err := NewFilesystemSinkFromPath(filepath.Dir(target))
		if err != nil {
			return nil, "", err
		}
		return s, filepath.Base(target), nil
	}
}

// parseS3Target splits s3://bucket/key. Both parts are required.
func parseS3Target(target string) (bucket, key string, err error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 target %q: %w", target, err)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("invalid s3 target %q: want s3://bucket/key", target)
	}
	return bucket, key, nil
}
