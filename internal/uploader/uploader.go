// Package uploader pushes a submission's files to the blob store before its
// progress update record is written. All files of one submission move
// concurrently and a single failure aborts the rest, so a record is never
// persisted with a partial attachment set.
package uploader

import (
	"context"
	"io"
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// BlobStore is the write side of the object storage service.
type BlobStore interface {
	Upload(ctx context.Context, path string, data io.Reader) (string, error)
}

type File struct {
	Path string
	Size int64
	Data io.Reader
}

type Result struct {
	Path string
	URL  string
}

// ProgressFunc receives the aggregate transfer percentage across all files of
// the submission, recomputed on every read.
type ProgressFunc func(percent int)

// UploadAll transfers every file concurrently and returns one result per file
// in input order. The first failure cancels the remaining transfers; in that
// case the returned results hold only the uploads that finished before the
// abort, so the caller can reclaim them with compensating deletes.
func UploadAll(ctx context.Context, store BlobStore, files []File, onProgress ProgressFunc) ([]Result, error) {
	if len(files) == 0 {
		return nil, nil
	}

	var totalBytes int64
	for _, f := range files {
		totalBytes += f.Size
	}

	var completedBytes atomic.Int64
	report := func() {
		if onProgress == nil || totalBytes <= 0 {
			return
		}
		percent := math.Round(float64(completedBytes.Load()) / float64(totalBytes) * 100)
		onProgress(int(percent))
	}

	results := make([]Result, len(files))
	var done = make([]atomic.Bool, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			reader := &countingReader{r: f.Data, count: &completedBytes, onRead: report}
			url, err := store.Upload(ctx, f.Path, reader)
			if err != nil {
				return err
			}
			results[i] = Result{Path: f.Path, URL: url}
			done[i].Store(true)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var completed []Result
		for i := range results {
			if done[i].Load() {
				completed = append(completed, results[i])
			}
		}
		return completed, err
	}

	return results, nil
}

type countingReader struct {
	r      io.Reader
	count  *atomic.Int64
	onRead func()
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.count.Add(int64(n))
		c.onRead()
	}
	return n, err
}
