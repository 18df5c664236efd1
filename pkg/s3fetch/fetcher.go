package s3fetch

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// FetchAll downloads every uri concurrently into its own subdirectory of
// destDir, so objects with the same base name do not collide. Results are
// in the order of uris. The first failure cancels the remaining downloads.
func (c *Client) FetchAll(ctx context.Context, uris []string, destDir string) ([]*DownloadResult, error) {
	results := make([]*DownloadResult, len(uris))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Concurrency)

	for i, uri := range uris {
		g.Go(func() error {
			res, err := c.Fetch(ctx, uri, filepath.Join(destDir, strconv.Itoa(i)))
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("wait for downloads: %w", err)
	}
	return results, nil
}
