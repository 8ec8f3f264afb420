package modelstore

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/phishguard/internal/classifier"
	"github.com/nao1215/phishguard/internal/features"
)

// ErrModelUnavailable is returned by Load when the model files are missing,
// corrupt, of an unknown version, or built for a different feature schema.
var ErrModelUnavailable = errors.New("model unavailable")

// FormatVersion is the current on-disk format version.
const FormatVersion uint16 = 1

const (
	forestMagic = "PGFM"
	scalerMagic = "PGSC"

	headerSize = 4 + 2
	digestSize = 32
	// int32 feature, float64 threshold, int32 left, int32 right, float64 value
	nodeSize = 4 + 8 + 4 + 4 + 8
)

// Default file names inside a model directory.
const (
	DefaultModelFile  = "phishing_model.bin"
	DefaultScalerFile = "scaler.bin"
)

// Store reads and writes a model at fixed paths.
type Store struct {
	ModelPath  string
	ScalerPath string
}

// New returns a Store using the default file names inside dir.
func New(dir string) *Store {
	return &Store{
		ModelPath:  filepath.Join(dir, DefaultModelFile),
		ScalerPath: filepath.Join(dir, DefaultScalerFile),
	}
}

// Save writes both files of m atomically.
func (s *Store) Save(m *classifier.Model) error {
	if err := writeAtomic(s.ScalerPath, encodeScaler(m.Scaler())); err != nil {
		return fmt.Errorf("failed to save scaler: %w", err)
	}
	if err := writeAtomic(s.ModelPath, encodeForest(m.Forest())); err != nil {
		return fmt.Errorf("failed to save forest: %w", err)
	}
	return nil
}

// Load reads and validates both files. Every failure wraps
// ErrModelUnavailable.
func (s *Store) Load() (*classifier.Model, error) {
	scaler, err := s.loadScaler()
	if err != nil {
		return nil, fmt.Errorf("%w: scaler %s: %w", ErrModelUnavailable, s.ScalerPath, err)
	}
	forest, err := s.loadForest()
	if err != nil {
		return nil, fmt.Errorf("%w: forest %s: %w", ErrModelUnavailable, s.ModelPath, err)
	}
	if scaler.Width() != features.Width || forest.Width != features.Width {
		return nil, fmt.Errorf("%w: stored width %d/%d, feature schema has %d",
			ErrModelUnavailable, scaler.Width(), forest.Width, features.Width)
	}
	m, err := classifier.NewModel(scaler, forest)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	return m, nil
}

// Exists reports whether both model files are present.
func (s *Store) Exists() bool {
	for _, p := range []string{s.ModelPath, s.ScalerPath} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// Checksum returns the hex SHA3-256 digest of the forest file.
func (s *Store) Checksum() (string, error) {
	data, err := os.ReadFile(s.ModelPath)
	if err != nil {
		return "", err
	}
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func (s *Store) loadScaler() (*classifier.Scaler, error) {
	payload, err := readVerified(s.ScalerPath, scalerMagic)
	if err != nil {
		return nil, err
	}
	r := bytes.NewReader(payload)

	var width uint32
	if err := binary.Read(r, binary.LittleEndian, &width); err != nil {
		return nil, err
	}
	if int64(width)*16 != int64(r.Len()) {
		return nil, fmt.Errorf("payload size %d does not match width %d", r.Len(), width)
	}
	mean := make([]float64, width)
	scale := make([]float64, width)
	if err := binary.Read(r, binary.LittleEndian, mean); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, scale); err != nil {
		return nil, err
	}
	return &classifier.Scaler{Mean: mean, Scale: scale}, nil
}

func (s *Store) loadForest() (*classifier.Forest, error) {
	payload, err := readVerified(s.ModelPath, forestMagic)
	if err != nil {
		return nil, err
	}
	r := bytes.NewReader(payload)

	var width, count uint32
	if err := binary.Read(r, binary.LittleEndian, &width); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	// Each tree needs at least its node count and one node.
	if int64(count)*(4+nodeSize) > int64(r.Len()) {
		return nil, fmt.Errorf("tree count %d exceeds payload", count)
	}

	f := &classifier.Forest{Width: int(width), Trees: make([]classifier.Tree, count)}
	for t := range f.Trees {
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		if int64(n)*nodeSize > int64(r.Len()) || n > math.MaxInt32 {
			return nil, fmt.Errorf("tree %d node count %d exceeds payload", t, n)
		}
		nodes := make([]classifier.Node, n)
		for i := range nodes {
			if err := readNode(r, &nodes[i]); err != nil {
				return nil, err
			}
		}
		f.Trees[t].Nodes = nodes
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after forest", r.Len())
	}
	return f, nil
}

func readNode(r io.Reader, n *classifier.Node) error {
	var buf [nodeSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	le := binary.LittleEndian
	n.Feature = int32(le.Uint32(buf[0:4]))
	n.Threshold = math.Float64frombits(le.Uint64(buf[4:12]))
	n.Left = int32(le.Uint32(buf[12:16]))
	n.Right = int32(le.Uint32(buf[16:20]))
	n.Value = math.Float64frombits(le.Uint64(buf[20:28]))
	return nil
}

func encodeScaler(s *classifier.Scaler) []byte {
	var buf bytes.Buffer
	writeHeader(&buf, scalerMagic)
	le := binary.LittleEndian
	buf.Write(le.AppendUint32(nil, uint32(s.Width())))
	for _, v := range s.Mean {
		buf.Write(le.AppendUint64(nil, math.Float64bits(v)))
	}
	for _, v := range s.Scale {
		buf.Write(le.AppendUint64(nil, math.Float64bits(v)))
	}
	return seal(buf.Bytes())
}

func encodeForest(f *classifier.Forest) []byte {
	le := binary.LittleEndian
	var buf bytes.Buffer
	writeHeader(&buf, forestMagic)
	buf.Write(le.AppendUint32(nil, uint32(f.Width)))
	buf.Write(le.AppendUint32(nil, uint32(len(f.Trees))))
	for _, t := range f.Trees {
		buf.Write(le.AppendUint32(nil, uint32(len(t.Nodes))))
		for _, n := range t.Nodes {
			b := make([]byte, 0, nodeSize)
			b = le.AppendUint32(b, uint32(n.Feature))
			b = le.AppendUint64(b, math.Float64bits(n.Threshold))
			b = le.AppendUint32(b, uint32(n.Left))
			b = le.AppendUint32(b, uint32(n.Right))
			b = le.AppendUint64(b, math.Float64bits(n.Value))
			buf.Write(b)
		}
	}
	return seal(buf.Bytes())
}

func writeHeader(buf *bytes.Buffer, magic string) {
	buf.WriteString(magic)
	buf.Write(binary.LittleEndian.AppendUint16(nil, FormatVersion))
}

// seal appends the SHA3-256 digest of data.
func seal(data []byte) []byte {
	sum := sha3.Sum256(data)
	return append(data, sum[:]...)
}

// readVerified reads path, checks magic, version and digest, and returns the
// payload between header and digest.
func readVerified(path, magic string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < headerSize+digestSize {
		return nil, fmt.Errorf("file too short (%d bytes)", len(data))
	}
	if string(data[:4]) != magic {
		return nil, fmt.Errorf("bad magic %q, want %q", data[:4], magic)
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != FormatVersion {
		return nil, fmt.Errorf("unsupported format version %d", v)
	}
	body := data[:len(data)-digestSize]
	sum := sha3.Sum256(body)
	if !bytes.Equal(sum[:], data[len(data)-digestSize:]) {
		return nil, errors.New("checksum mismatch")
	}
	return body[headerSize:], nil
}

// writeAtomic writes data to a temporary file in the target directory and
// renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
