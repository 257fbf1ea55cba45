package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/syllable-catalog/internal/errors"
	"github.com/tphakala/syllable-catalog/internal/logger"
)

// newHasher returns the hash for the configured checksum algorithm.
func (ix *Indexer) newHasher() (func() hash.Hash, error) {
	switch algo := strings.ToLower(ix.settings.Ingest.Checksum); algo {
	case "sha256":
		return sha256.New, nil
	default:
		return nil, errors.Newf("unsupported checksum algorithm %q", ix.settings.Ingest.Checksum).
			Component(componentName).
			Category(errors.CategoryValidation).
			Build()
	}
}

// ComputeChecksums hashes every path with the configured algorithm and
// returns hex digests keyed by path. Files are streamed in fixed-size blocks
// by a bounded pool of workers. The first failure cancels the remaining
// work; a file that has vanished is a not-found error.
func (ix *Indexer) ComputeChecksums(ctx context.Context, paths []string) (map[string]string, error) {
	newHash, err := ix.newHasher()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	sums := make(map[string]string, len(paths))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)

	for _, path := range paths {
		g.Go(func() error {
			sum, n, err := checksumFile(gctx, path, newHash())
			if err != nil {
				return err
			}
			if ix.metrics != nil {
				ix.metrics.RecordChecksumBytes(n)
			}
			ix.log.Debug("computed checksum",
				logger.String("path", path),
				logger.String("checksum", sum))

			mu.Lock()
			sums[path] = sum
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	ix.log.Info("checksums computed",
		logger.Int("files", len(sums)),
		logger.Int("workers", ix.workers),
		logger.Duration("elapsed", time.Since(start)))
	return sums, nil
}

// checksumFile streams path through h and returns the hex digest and the
// number of bytes read.
func checksumFile(ctx context.Context, path string, h hash.Hash) (string, int64, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", 0, errors.NotFoundError(fmt.Errorf("cannot compute checksum, file not found: %s", path), componentName)
	}
	if err != nil {
		return "", 0, errors.New(fmt.Errorf("cannot open %s for checksum: %w", path, err)).
			Component(componentName).
			Category(errors.CategoryFileIO).
			Build()
	}
	defer f.Close()

	buf := make([]byte, checksumBlockSize)
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return "", total, errors.New(fmt.Errorf("checksum of %s interrupted: %w", path, err)).
				Component(componentName).
				Category(errors.CategoryState).
				Context("file", path).
				Build()
		}
		n, rerr := f.Read(buf)
		if n > 0 {
			_, _ = h.Write(buf[:n]) // hash.Hash writes never fail
			total += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", total, errors.New(fmt.Errorf("checksum computation failed for %s: %w", path, rerr)).
				Component(componentName).
				Category(errors.CategoryFileIO).
				Build()
		}
	}
	return hex.EncodeToString(h.Sum(nil)), total, nil
}
