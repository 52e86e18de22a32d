package snapshot

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// Scheme is the kind of storage a destination points to.
type Scheme string

const (
	SchemeFile Scheme = "file"
	SchemeS3   Scheme = "s3"
)

// Destination is a parsed export target.
type Destination struct {
	Scheme Scheme
	Bucket string // s3 only
	Path   string // object key for s3, file path otherwise
}

// String returns the destination as a path or s3:// URL.
func (d Destination) String() string {
	if d.Scheme == SchemeS3 {
		return "s3://" + d.Bucket + "/" + d.Path
	}
	return d.Path
}

// FileName is the default document name for env at now.
func FileName(env string, now time.Time) string {
	return fmt.Sprintf("catalog-%s-%s.json", env, now.UTC().Format("20060102T150405Z"))
}

// ParseDestination accepts a local path or s3://bucket/key. An empty path or
// key, or one ending in "/", gets FileName(env, now) appended.
func ParseDestination(raw, env string, now time.Time) (Destination, error) {
	if strings.HasPrefix(raw, "s3://") {
		u, err := url.Parse(raw)
		if err != nil {
			return Destination{}, fmt.Errorf("%w: %w", ErrInvalidDestination, err)
		}
		if u.Host == "" {
			return Destination{}, fmt.Errorf("%w: missing bucket in %q", ErrInvalidDestination, raw)
		}
		key := strings.TrimPrefix(u.Path, "/")
		if strings.Contains(key, "..") {
			return Destination{}, fmt.Errorf("%w: %q", ErrInvalidDestination, raw)
		}
		if key == "" || strings.HasSuffix(key, "/") {
			key += FileName(env, now)
		}
		return Destination{Scheme: SchemeS3, Bucket: u.Host, Path: key}, nil
	}

	if strings.Contains(raw, "://") {
		return Destination{}, fmt.Errorf("%w: unsupported scheme in %q", ErrInvalidDestination, raw)
	}
	path := raw
	if path == "" || strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		path = filepath.Join(path, FileName(env, now))
	}
	return Destination{Scheme: SchemeFile, Path: filepath.Clean(path)}, nil
}

// NewSink opens the sink for d. cfg is only used for s3 destinations.
func NewSink(ctx context.Context, d Destination, cfg S3Config, opts ...S3Option) (Sink, error) {
	switch d.Scheme {
	case SchemeS3:
		cfg.Bucket = d.Bucket
		return NewS3Sink(ctx, cfg, d.Path, opts...)
	case SchemeFile:
		return NewFileSink(d.Path), nil
	default:
		return nil, fmt.Errorf("%w: unknown scheme %q", ErrInvalidDestination, d.Scheme)
	}
}
