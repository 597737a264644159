package gridfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

// Reader is an open UTG file. The payload stays in the mapped (or loaded)
// file data; the typed accessors copy it out at the requested precision.
type Reader struct {
	Header  *Header
	data    []byte
	mmapped bool
}

// Open maps a UTG file read-only and validates its structure. If mmap is
// unavailable, it falls back to ReadAt-based loading. The returned reader
// must be closed to release any mapping.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size64 := stat.Size()
	if size64 < 0 {
		return nil, ErrCorruptFile
	}
	if size64 > int64(int(^uint(0)>>1)) {
		// Cannot index this file safely as []byte on this architecture.
		return nil, ErrCorruptFile
	}
	size := int(size64)
	if size < utgHeaderSize {
		return nil, ErrCorruptFile
	}

	// Prefer mmap where available for a zero-copy payload view.
	data, err := unix.Mmap(
		int(f.Fd()),
		0,
		size,
		unix.PROT_READ,
		unix.MAP_SHARED,
	)
	if err == nil {
		r, parseErr := parseFileData(data, true)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, parseErr
		}
		return r, nil
	}

	// Fallback path that does not require mmap support.
	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return parseFileData(data, false)
}

// OpenReaderAt loads and validates a UTG from a random-access reader
// without mmap.
func OpenReaderAt(r io.ReaderAt, size int64) (*Reader, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, ErrCorruptFile
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return parseFileData(data, false)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	if size < 0 {
		return nil, ErrCorruptFile
	}
	if size == 0 {
		return []byte{}, nil
	}
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

func parseFileData(data []byte, mmapped bool) (*Reader, error) {
	if len(data) < utgHeaderSize {
		return nil, ErrCorruptFile
	}
	hdr, ok := decodeHeader(data[:utgHeaderSize])
	if !ok {
		return nil, ErrCorruptFile
	}
	if string(hdr.Magic[:]) != MagicUTG {
		return nil, ErrInvalidMagic
	}
	if !hdr.Compatible() {
		return nil, fmt.Errorf("%w: major %d", ErrUnsupportedVersion, hdr.Major)
	}
	if !hdr.Valid() {
		return nil, ErrCorruptFile
	}

	// Payload bounds, overflow-safe.
	start := hdr.PayloadOffset
	end := start + hdr.PayloadSize
	if end < start {
		return nil, fmt.Errorf("%w: payload offset overflow", ErrCorruptFile)
	}
	if start < utgHeaderSize {
		return nil, fmt.Errorf("%w: payload overlaps header", ErrCorruptFile)
	}
	if end > uint64(len(data)) {
		return nil, fmt.Errorf("%w: payload out of bounds", ErrCorruptFile)
	}
	if (start % utgAlign) != 0 {
		return nil, fmt.Errorf("%w: payload not %d-byte aligned", ErrCorruptFile, utgAlign)
	}

	return &Reader{
		Header:  &hdr,
		data:    data,
		mmapped: mmapped,
	}, nil
}

// Close releases file resources and any mmap backing.
func (r *Reader) Close() error {
	if r == nil {
		return nil
	}
	if r.data != nil {
		var err error
		if r.mmapped {
			err = unix.Munmap(r.data)
		}
		r.data = nil
		r.Header = nil
		r.mmapped = false
		return err
	}
	r.Header = nil
	return nil
}

// payload returns the raw payload bytes. The slice aliases the file data
// and must not be retained after Close.
func (r *Reader) payload() []byte {
	if r == nil || r.data == nil || r.Header == nil {
		return nil
	}
	start := r.Header.PayloadOffset
	end := start + r.Header.PayloadSize
	// Safe because parseFileData rejected out-of-bounds payloads.
	return r.data[int(start):int(end)]
}

// Float64 decodes the payload into a fresh []float64 regardless of the
// on-disk element kind.
func (r *Reader) Float64() []float64 {
	raw := r.payload()
	if raw == nil {
		return nil
	}
	n := int(r.Header.GridLen)
	out := make([]float64, n)
	switch r.Header.Elem {
	case KindFloat32:
		for i := range n {
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
		}
	case KindFloat64:
		for i := range n {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
		}
	}
	return out
}

// Float32 decodes the payload into a fresh []float32 regardless of the
// on-disk element kind.
func (r *Reader) Float32() []float32 {
	raw := r.payload()
	if raw == nil {
		return nil
	}
	n := int(r.Header.GridLen)
	out := make([]float32, n)
	switch r.Header.Elem {
	case KindFloat32:
		for i := range n {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
	case KindFloat64:
		for i := range n {
			out[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:])))
		}
	}
	return out
}

// Grid assembles the in-memory form of the file.
func (r *Reader) Grid() Grid {
	h := r.Header
	if h == nil {
		return Grid{}
	}
	return Grid{
		Profile:  h.Profile,
		Elem:     h.Elem,
		RefRatio: h.RefRatio,
		U1:       h.U1,
		U2:       h.U2,
		Values:   r.Float64(),
	}
}
