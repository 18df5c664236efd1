package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/eunmann/mdstream/pkg/s3fetch"
)

// newS3Client is replaced in tests.
var newS3Client = func(ctx context.Context) (*s3fetch.Client, error) {
	return s3fetch.NewClient(ctx, s3fetch.DefaultDownloaderConfig())
}

// localInputs returns a local path for every input, downloading s3:// URIs
// into a temporary directory first. cleanup removes the downloads and is
// never nil.
func localInputs(ctx context.Context, inputs []string) (paths []string, cleanup func(), err error) {
	cleanup = func() {}

	var uris []string
	for _, in := range inputs {
		if s3fetch.IsURI(in) {
			uris = append(uris, in)
		}
	}
	if len(uris) == 0 {
		return inputs, cleanup, nil
	}

	client, err := newS3Client(ctx)
	if err != nil {
		return nil, cleanup, err
	}

	dir, err := os.MkdirTemp("", "mdstream-s3-*")
	if err != nil {
		return nil, cleanup, fmt.Errorf("create download dir: %w", err)
	}
	cleanup = func() { os.RemoveAll(dir) }

	results, err := client.FetchAll(ctx, uris, dir)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	local := make(map[string]string, len(results))
	for _, res := range results {
		local[res.URI] = res.LocalPath
	}

	paths = make([]string, len(inputs))
	for i, in := range inputs {
		if p, ok := local[in]; ok {
			paths[i] = p
		} else {
			paths[i] = in
		}
	}
	return paths, cleanup, nil
}
