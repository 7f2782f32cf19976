// Package modelbundle loads a single archive per (symbol, timeframe)
// holding two opaque inference blobs plus a metadata record stashed in
// the archive's comment field.
package modelbundle

import (
	"archive/zip"
	"encoding/json"
	"io"

	"github.com/Rajchodisetti/oracle-core/internal/errs"
	"github.com/Rajchodisetti/oracle-core/internal/vposition"
)

const (
	hmmBlobName    = "hmm.weights"
	policyBlobName = "policy.weights"
)

// InferenceBackend is the opaque (features) -> action_index contract.
// Re-implementing the ML primitives is out of scope; production bundles
// wrap a real runtime, tests use a deterministic stub.
type InferenceBackend interface {
	HMMPredict(features [3]float64) int
	PolicyPredict(features []float64, deterministic bool) int
}

// BackendFactory builds an InferenceBackend from a bundle's validated
// metadata and its two opaque blobs. Swappable for tests.
type BackendFactory func(meta Metadata, hmmBlob, policyBlob []byte) (InferenceBackend, error)

// Bundle is a fully loaded, validated model: metadata plus a ready
// inference backend.
type Bundle struct {
	Metadata Metadata
	Backend  InferenceBackend
}

// CostParams projects the bundle's frozen training-time execution costs
// into the shape the Virtual Position consumes.
func (b *Bundle) CostParams() vposition.CostParams {
	return vposition.CostParams{
		SpreadPoints:     b.Metadata.SpreadPoints,
		SlippagePoints:   b.Metadata.SlippagePoints,
		CommissionPerLot: b.Metadata.CommissionPerLot,
		Point:            b.Metadata.Point,
		PipValue:         b.Metadata.PipValue,
		Digits:           b.Metadata.Digits,
		LotSizes:         b.Metadata.LotSizes,
	}
}

// Loader reads model archives from disk.
type Loader struct {
	backendFactory BackendFactory
}

func New(backendFactory BackendFactory) *Loader {
	return &Loader{backendFactory: backendFactory}
}

// Load opens the archive at path, validates its metadata, and builds an
// inference backend from its two blobs.
func (l *Loader) Load(path string) (*Bundle, error) {
	meta, hmmBlob, policyBlob, err := l.readArchive(path)
	if err != nil {
		return nil, err
	}
	if err := meta.Validate(); err != nil {
		return nil, errs.Wrap(errs.ModelLoadFailed, "invalid metadata in "+path, err)
	}
	backend, err := l.backendFactory(*meta, hmmBlob, policyBlob)
	if err != nil {
		return nil, errs.Wrap(errs.ModelLoadFailed, "backend init failed for "+path, err)
	}
	return &Bundle{Metadata: *meta, Backend: backend}, nil
}

// LoadMetadataOnly reads and validates the metadata without constructing
// an inference backend — used by inspection tooling.
func (l *Loader) LoadMetadataOnly(path string) (*Metadata, error) {
	meta, _, _, err := l.readArchive(path)
	if err != nil {
		return nil, err
	}
	if err := meta.Validate(); err != nil {
		return nil, errs.Wrap(errs.ModelLoadFailed, "invalid metadata in "+path, err)
	}
	return meta, nil
}

func (l *Loader) readArchive(path string) (*Metadata, []byte, []byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, nil, errs.Wrap(errs.ModelLoadFailed, "cannot open archive "+path, err)
	}
	defer zr.Close()

	if zr.Comment == "" {
		return nil, nil, nil, errs.New(errs.ModelLoadFailed, "archive has no metadata comment: "+path)
	}

	var meta Metadata
	if err := json.Unmarshal([]byte(zr.Comment), &meta); err != nil {
		return nil, nil, nil, errs.Wrap(errs.ModelLoadFailed, "malformed metadata JSON in "+path, err)
	}

	hmmBlob, err := readZipFile(&zr.Reader, hmmBlobName)
	if err != nil {
		return nil, nil, nil, errs.Wrap(errs.ModelLoadFailed, "missing hmm blob in "+path, err)
	}
	policyBlob, err := readZipFile(&zr.Reader, policyBlobName)
	if err != nil {
		return nil, nil, nil, errs.Wrap(errs.ModelLoadFailed, "missing policy blob in "+path, err)
	}

	return &meta, hmmBlob, policyBlob, nil
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
