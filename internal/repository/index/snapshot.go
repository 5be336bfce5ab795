package index

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/adidev/chatbot/internal/domain"
)

// Snapshot file layout (all integers little-endian):
//
//	magic   [4]byte "AIDX"
//	version uint32
//	dim     uint32
//	count   uint32
//	records: id, source, text (uint32 length + UTF-8 bytes),
//	         chunk_index uint32, dim float32 embedding values
//
// Embeddings round-trip bit-for-bit via math.Float32bits.
var snapshotMagic = [4]byte{'A', 'I', 'D', 'X'}

const snapshotVersion = 1

// maxSnapshotString bounds decoded string lengths so a corrupt length prefix
// cannot trigger a huge allocation.
const maxSnapshotString = 16 << 20

// maxSnapshotDim bounds the embedding dimensionality for the same reason.
// Real embedding models top out in the low thousands.
const maxSnapshotDim = 1 << 16

// Save writes the index to path. The snapshot is written to a temporary file
// and renamed into place, so readers never observe a half-written file.
func (x *Index) Save(path string) error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	w := bufio.NewWriter(tmp)
	if err := x.encode(w); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot from path into a fresh index.
// A structurally invalid or unrecognized snapshot yields domain.ErrIndexCorrupt.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	x := New()
	if err := x.decode(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return x, nil
}

func (x *Index) encode(w io.Writer) error {
	if _, err := w.Write(snapshotMagic[:]); err != nil {
		return err
	}
	for _, v := range []uint32{snapshotVersion, uint32(x.dim), uint32(len(x.passages))} {
		if err := writeUint32(w, v); err != nil {
			return err
		}
	}
	for _, p := range x.passages {
		for _, s := range []string{p.ID, p.Source, p.Text} {
			if err := writeString(w, s); err != nil {
				return err
			}
		}
		if err := writeUint32(w, uint32(p.ChunkIndex)); err != nil {
			return err
		}
		for _, f := range p.Embedding {
			if err := writeUint32(w, math.Float32bits(f)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (x *Index) decode(r io.Reader) error {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return corrupt("read magic: %v", err)
	}
	if magic != snapshotMagic {
		return corrupt("bad magic %q", magic[:])
	}

	version, err := readUint32(r)
	if err != nil {
		return corrupt("read version: %v", err)
	}
	if version != snapshotVersion {
		return corrupt("unsupported format version %d", version)
	}

	dim, err := readUint32(r)
	if err != nil {
		return corrupt("read dimension: %v", err)
	}
	count, err := readUint32(r)
	if err != nil {
		return corrupt("read count: %v", err)
	}
	if count > 0 && dim == 0 {
		return corrupt("non-empty snapshot with zero dimension")
	}
	if dim > maxSnapshotDim {
		return corrupt("dimension %d exceeds limit", dim)
	}

	// count is untrusted header data; grow the slice as records decode
	// instead of preallocating from it.
	var passages []domain.Passage
	for i := uint32(0); i < count; i++ {
		var p domain.Passage
		if p.ID, err = readString(r); err != nil {
			return corrupt("passage %d id: %v", i, err)
		}
		if p.Source, err = readString(r); err != nil {
			return corrupt("passage %d source: %v", i, err)
		}
		if p.Text, err = readString(r); err != nil {
			return corrupt("passage %d text: %v", i, err)
		}
		chunkIdx, err := readUint32(r)
		if err != nil {
			return corrupt("passage %d chunk index: %v", i, err)
		}
		p.ChunkIndex = int(chunkIdx)

		p.Embedding = make([]float32, dim)
		for j := range p.Embedding {
			bits, err := readUint32(r)
			if err != nil {
				return corrupt("passage %d embedding: %v", i, err)
			}
			p.Embedding[j] = math.Float32frombits(bits)
		}
		passages = append(passages, p)
	}

	// Trailing bytes mean the writer and reader disagree about the format.
	if _, err := readUint32(r); !errors.Is(err, io.EOF) {
		return corrupt("trailing data after %d passages", count)
	}

	if count > 0 {
		x.dim = int(dim)
	}
	x.passages = passages
	return nil
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, domain.ErrIndexCorrupt)...)
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeString(w io.Writer, s string) error {
	if err := writeUint32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	if n > maxSnapshotString {
		return "", fmt.Errorf("string length %d exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
