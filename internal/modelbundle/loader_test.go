package modelbundle

import (
	"archive/zip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T, dir, name string, meta Metadata, withHMM, withPolicy, withComment bool) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	if withHMM {
		w, err := zw.Create(hmmBlobName)
		require.NoError(t, err)
		_, err = w.Write([]byte("hmm-weights"))
		require.NoError(t, err)
	}
	if withPolicy {
		w, err := zw.Create(policyBlobName)
		require.NoError(t, err)
		_, err = w.Write([]byte("policy-weights"))
		require.NoError(t, err)
	}
	if withComment {
		b, err := json.Marshal(meta)
		require.NoError(t, err)
		require.NoError(t, zw.SetComment(string(b)))
	}
	require.NoError(t, zw.Close())
	return path
}

func TestLoaderLoadsValidArchive(t *testing.T) {
	dir := t.TempDir()
	meta := validMetadata()
	path := writeArchive(t, dir, "eurusd.bundle", meta, true, true, true)

	loader := New(NewMockBackendFactory())
	bundle, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "EURUSD", bundle.Metadata.Symbol)
	require.NotNil(t, bundle.Backend)
}

func TestLoaderRejectsArchiveWithoutComment(t *testing.T) {
	dir := t.TempDir()
	path := writeArchive(t, dir, "nocomment.bundle", validMetadata(), true, true, false)

	loader := New(NewMockBackendFactory())
	_, err := loader.Load(path)
	require.Error(t, err)
}

func TestLoaderRejectsArchiveMissingBlob(t *testing.T) {
	dir := t.TempDir()
	path := writeArchive(t, dir, "missingblob.bundle", validMetadata(), true, false, true)

	loader := New(NewMockBackendFactory())
	_, err := loader.Load(path)
	require.Error(t, err)
}

func TestLoaderRejectsInvalidMetadata(t *testing.T) {
	dir := t.TempDir()
	bad := validMetadata()
	bad.FormatVersion = "0.1"
	path := writeArchive(t, dir, "badmeta.bundle", bad, true, true, true)

	loader := New(NewMockBackendFactory())
	_, err := loader.Load(path)
	require.Error(t, err)
}

func TestLoadMetadataOnlyDoesNotBuildBackend(t *testing.T) {
	dir := t.TempDir()
	path := writeArchive(t, dir, "meta-only.bundle", validMetadata(), true, true, true)

	loader := New(NewMockBackendFactory())
	meta, err := loader.LoadMetadataOnly(path)
	require.NoError(t, err)
	assert.Equal(t, "EURUSD", meta.Symbol)
}

func TestCostParamsProjectsFromMetadata(t *testing.T) {
	b := &Bundle{Metadata: validMetadata()}
	cp := b.CostParams()
	assert.Equal(t, b.Metadata.Point, cp.Point)
	assert.Equal(t, b.Metadata.PipValue, cp.PipValue)
	assert.Equal(t, b.Metadata.LotSizes, cp.LotSizes)
}
