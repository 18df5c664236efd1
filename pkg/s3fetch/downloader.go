// Package s3fetch downloads metadata files from S3 so they can be opened as
// local streams.
package s3fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/eunmann/mdstream/pkg/logging"
)

// DownloaderConfig configures the S3 Download Manager.
type DownloaderConfig struct {
	// Concurrency is the number of concurrent download parts per object and
	// of objects fetched at once by FetchAll.
	// Default: clamp(NumCPU, 4, 16).
	Concurrency int

	// PartSize is the size of each download part in bytes.
	// Default: 16MB.
	PartSize int64
}

// DefaultDownloaderConfig returns sensible defaults based on the current machine.
func DefaultDownloaderConfig() DownloaderConfig {
	concurrency := runtime.NumCPU()
	if concurrency < 4 {
		concurrency = 4
	}
	if concurrency > 16 {
		concurrency = 16
	}

	return DownloaderConfig{
		Concurrency: concurrency,
		PartSize:    16 * 1024 * 1024,
	}
}

func (c DownloaderConfig) withDefaults() DownloaderConfig {
	def := DefaultDownloaderConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.PartSize <= 0 {
		c.PartSize = def.PartSize
	}
	return c
}

// ObjectDownloader is the part of manager.Downloader used by Client.
type ObjectDownloader interface {
	Download(ctx context.Context, w io.WriterAt, input *s3.GetObjectInput, options ...func(*manager.Downloader)) (int64, error)
}

// Client fetches S3 objects into local files.
type Client struct {
	downloader ObjectDownloader
	config     DownloaderConfig
}

// NewClient creates a Client using the default AWS configuration chain.
func NewClient(ctx context.Context, cfg DownloaderConfig) (*Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewClientWithConfig(awsCfg, cfg), nil
}

// NewClientWithConfig creates a Client with a custom AWS config.
func NewClientWithConfig(awsCfg aws.Config, cfg DownloaderConfig) *Client {
	cfg = cfg.withDefaults()
	mgr := manager.NewDownloader(s3.NewFromConfig(awsCfg), func(d *manager.Downloader) {
		d.Concurrency = cfg.Concurrency
		d.PartSize = cfg.PartSize
	})
	return NewClientWithDownloader(mgr, cfg)
}

// NewClientWithDownloader creates a Client around an existing downloader.
func NewClientWithDownloader(d ObjectDownloader, cfg DownloaderConfig) *Client {
	return &Client{downloader: d, config: cfg.withDefaults()}
}

// DownloadResult contains information about a completed download.
type DownloadResult struct {
	URI             string
	LocalPath       string
	BytesDownloaded int64
	Duration        time.Duration
}

// Fetch downloads the object named by uri into destDir, keeping the final
// component of its key as the file name.
func (c *Client) Fetch(ctx context.Context, uri, destDir string) (*DownloadResult, error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}
	localPath := filepath.Join(destDir, localName(key))

	start := time.Now()
	file, err := os.Create(localPath)
	if err != nil {
		return nil, fmt.Errorf("create destination file: %w", err)
	}

	n, err := c.downloader.Download(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if cerr := file.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close destination file: %w", cerr)
	}
	if err != nil {
		os.Remove(localPath)
		return nil, fmt.Errorf("download %s: %w", uri, err)
	}

	result := &DownloadResult{
		URI:             uri,
		LocalPath:       localPath,
		BytesDownloaded: n,
		Duration:        time.Since(start),
	}
	logging.L().Debug().
		Str("uri", uri).
		Str("path", localPath).
		Int64("bytes", n).
		Dur("duration", result.Duration).
		Msg("object downloaded")
	return result, nil
}
