package gridfile

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func sampleGrid(elem Kind) Grid {
	return Grid{
		Profile:  ProfileQuadratic,
		Elem:     elem,
		RefRatio: 0.1,
		U1:       0.4,
		U2:       0.26,
		Values:   []float64{1.0, 0.9375, 0.75, 0.4375, 0.0},
	}
}

func TestWriteOpenRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profile.utg")
	g := sampleGrid(KindFloat64)
	if err := Write(path, g); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			t.Fatalf("close: %v", cerr)
		}
	}()

	h := r.Header
	if h.Major != CurrentMajor || h.Minor != CurrentMinor {
		t.Fatalf("version mismatch: %d.%d", h.Major, h.Minor)
	}
	if h.GridLen != uint32(len(g.Values)) {
		t.Fatalf("grid length got %d want %d", h.GridLen, len(g.Values))
	}
	if h.PayloadOffset%utgAlign != 0 {
		t.Fatalf("payload offset %d not aligned", h.PayloadOffset)
	}

	if diff := cmp.Diff(g, r.Grid()); diff != "" {
		t.Fatalf("grid mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripFloat32Payload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profile32.utg")
	g := sampleGrid(KindFloat32)
	if err := Write(path, g); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = r.Close() }()

	if r.Header.Elem != KindFloat32 {
		t.Fatalf("element kind got %v want float32", r.Header.Elem)
	}
	if r.Header.PayloadSize != uint64(len(g.Values))*4 {
		t.Fatalf("payload size got %d", r.Header.PayloadSize)
	}

	f32 := r.Float32()
	f64 := r.Float64()
	for i, v := range g.Values {
		if f32[i] != float32(v) {
			t.Fatalf("float32[%d] got %v want %v", i, f32[i], float32(v))
		}
		if math.Abs(f64[i]-v) > 1e-7 {
			t.Fatalf("float64[%d] got %v want %v", i, f64[i], v)
		}
	}
}

func TestOpenReaderAtNoMmap(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profile.utg")
	if err := Write(path, sampleGrid(KindFloat64)); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	r, err := OpenReaderAt(f, st.Size())
	if err != nil {
		t.Fatalf("open readerat: %v", err)
	}
	defer func() { _ = r.Close() }()

	if r.mmapped {
		t.Fatalf("OpenReaderAt should not mmap")
	}
	if got := r.Float64(); len(got) != 5 {
		t.Fatalf("payload length got %d want 5", len(got))
	}
}

func TestHeaderEncodingLittleEndian(t *testing.T) {
	t.Parallel()

	h := Header{
		Magic:         [4]byte{'U', 'T', 'G', 0},
		Major:         0x1122,
		Minor:         0x3344,
		Flags:         0x55667788,
		GridLen:       7,
		Elem:          KindFloat64,
		Profile:       ProfileUniform,
		RefRatio:      0.25,
		U1:            0.5,
		U2:            -0.125,
		PayloadOffset: 0x0102030405060708,
		PayloadSize:   56,
	}
	var raw [utgHeaderSize]byte
	if !encodeHeader(raw[:], h) {
		t.Fatalf("encode header failed")
	}
	if raw[4] != 0x22 || raw[5] != 0x11 {
		t.Fatalf("major is not little-endian: %x", raw[4:6])
	}
	if raw[48] != 0x08 || raw[55] != 0x01 {
		t.Fatalf("payload offset is not little-endian: %x", raw[48:56])
	}

	decoded, ok := decodeHeader(raw[:])
	if !ok {
		t.Fatalf("decode header failed")
	}
	if decoded != h {
		t.Fatalf("header round-trip mismatch: got %+v want %+v", decoded, h)
	}
}

func corruptedCopy(t *testing.T, mutate func([]byte)) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bad.utg")
	if err := Write(path, sampleGrid(KindFloat64)); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	mutate(data)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	return path
}

func TestOpenRejectsBadMagic(t *testing.T) {
	t.Parallel()

	path := corruptedCopy(t, func(data []byte) { data[0] = 'X' })
	if _, err := Open(path); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("got %v want ErrInvalidMagic", err)
	}
}

func TestOpenRejectsFutureMajor(t *testing.T) {
	t.Parallel()

	path := corruptedCopy(t, func(data []byte) { data[4] = 0xFF })
	if _, err := Open(path); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("got %v want ErrUnsupportedVersion", err)
	}
}

func TestOpenRejectsZeroLengthGrid(t *testing.T) {
	t.Parallel()

	path := corruptedCopy(t, func(data []byte) {
		data[12], data[13], data[14], data[15] = 0, 0, 0, 0
	})
	if _, err := Open(path); !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("got %v want ErrCorruptFile", err)
	}
}

func TestOpenRejectsTruncatedPayload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "short.utg")
	if err := Write(path, sampleGrid(KindFloat64)); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if err := os.WriteFile(path, data[:len(data)-8], 0o644); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if _, err := Open(path); !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("got %v want ErrCorruptFile", err)
	}
}

func TestCreateRejectsEmptyGrid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.utg")
	if err := Write(path, Grid{Elem: KindFloat64}); err == nil {
		t.Fatal("empty grid accepted")
	}
}

func TestMetaSidecarRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profile.utg")
	want := Meta{
		Name:      "quadratic reference",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Profile:   "quadratic",
		Points:    501,
		RefRatio:  0.1,
		U1:        0.4,
		U2:        0.26,
	}
	if err := WriteMeta(path, want); err != nil {
		t.Fatalf("write meta: %v", err)
	}

	got, err := ReadMeta(path)
	if err != nil {
		t.Fatalf("read meta: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("meta mismatch (-want +got):\n%s", diff)
	}
}
