package indexer

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/syllable-catalog/internal/conf"
	"github.com/tphakala/syllable-catalog/internal/errors"
)

var hexDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestComputeChecksums(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	small := filepath.Join(dir, "small.h5")
	require.NoError(t, os.WriteFile(small, []byte("hello"), 0o600))

	// spans several read blocks with a partial tail
	large := filepath.Join(dir, "large.h5")
	data := make([]byte, 3*checksumBlockSize+123)
	_, err := rand.Read(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(large, data, 0o600))
	want := sha256.Sum256(data)

	empty := filepath.Join(dir, "empty.h5")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))

	ix := New(conf.Default(), nil, WithChecksumWorkers(2))
	sums, err := ix.ComputeChecksums(context.Background(), []string{small, large, empty})
	require.NoError(t, err)
	require.Len(t, sums, 3)

	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", sums[small])
	assert.Equal(t, hex.EncodeToString(want[:]), sums[large])
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", sums[empty])
	for _, s := range sums {
		assert.Regexp(t, hexDigest, s)
	}
}

func TestComputeChecksums_MissingFileIsNotFound(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	paths := make([]string, 0, 9)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		p := filepath.Join(dir, name+".h5")
		require.NoError(t, os.WriteFile(p, []byte(name), 0o600))
		paths = append(paths, p)
	}
	gone := filepath.Join(dir, "gone.h5")
	paths = append(paths, gone)

	ix := New(conf.Default(), nil, WithChecksumWorkers(3))
	sums, err := ix.ComputeChecksums(context.Background(), paths)
	require.Error(t, err)
	assert.Nil(t, sums)
	assert.True(t, errors.IsNotFound(err))
	assert.False(t, errors.IsValidation(err))
	assert.Contains(t, err.Error(), gone)
}

func TestComputeChecksums_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "a.h5")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(conf.Default(), nil).ComputeChecksums(ctx, []string{path})
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, errors.IsCategory(err, errors.CategoryState))
	assert.Contains(t, err.Error(), path)

	var ee *errors.EnhancedError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, componentName, ee.GetComponent())
	assert.Equal(t, path, ee.GetContext()["file"])
}

func TestComputeChecksums_UnsupportedAlgorithm(t *testing.T) {
	settings := conf.Default()
	settings.Ingest.Checksum = "md5"

	_, err := New(settings, nil).ComputeChecksums(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
