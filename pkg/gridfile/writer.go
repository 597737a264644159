package gridfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Write creates path and stores g as a UTG container.
func Write(path string, g Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Create(f, g); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Create streams g into f, then patches the header once the payload size
// is known. The file is truncated first so the on-disk size always
// matches what the header claims.
func Create(f *os.File, g Grid) error {
	if f == nil {
		return errors.New("gridfile: nil file")
	}
	if len(g.Values) == 0 {
		return errors.New("gridfile: empty grid")
	}
	if uint64(len(g.Values)) > math.MaxUint32 {
		return errors.New("gridfile: grid length exceeds format limit")
	}
	elem := g.Elem
	if elem == 0 {
		elem = KindFloat64
	}
	if elem.Size() == 0 {
		return fmt.Errorf("gridfile: unknown element kind %d", elem)
	}

	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	// Reserve fixed header bytes (actual bytes, not a seek hole), then
	// align the payload start.
	if err := writeZeros(f, utgHeaderSize); err != nil {
		return err
	}
	if err := alignTo(f, utgAlign); err != nil {
		return err
	}
	payloadOffset, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	payload := make([]byte, 0, len(g.Values)*elem.Size())
	switch elem {
	case KindFloat32:
		for _, v := range g.Values {
			payload = binary.LittleEndian.AppendUint32(payload, math.Float32bits(float32(v)))
		}
	case KindFloat64:
		for _, v := range g.Values {
			payload = binary.LittleEndian.AppendUint64(payload, math.Float64bits(v))
		}
	}
	if err := writeFull(f, payload); err != nil {
		return err
	}

	fileSize, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := f.Truncate(fileSize); err != nil {
		return err
	}

	var hdr Header
	copy(hdr.Magic[:], MagicUTG)
	hdr.Major = CurrentMajor
	hdr.Minor = CurrentMinor
	hdr.GridLen = uint32(len(g.Values))
	hdr.Elem = elem
	hdr.Profile = g.Profile
	hdr.RefRatio = g.RefRatio
	hdr.U1 = g.U1
	hdr.U2 = g.U2
	hdr.PayloadOffset = uint64(payloadOffset)
	hdr.PayloadSize = uint64(len(payload))

	// Patch header at start of file.
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	var hdrBuf [utgHeaderSize]byte
	if !encodeHeader(hdrBuf[:], hdr) {
		return errors.New("gridfile: encode header failed")
	}
	if err := writeFull(f, hdrBuf[:]); err != nil {
		return err
	}

	return f.Sync()
}

func alignTo(f *os.File, n int64) error {
	if n <= 1 {
		return nil
	}
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	mod := pos % n
	if mod == 0 {
		return nil
	}
	return writeZeros(f, int(n-mod))
}

func writeZeros(f *os.File, n int) error {
	if n <= 0 {
		return nil
	}
	buf := make([]byte, min(n, 4096))
	for n > 0 {
		chunk := min(n, len(buf))
		if err := writeFull(f, buf[:chunk]); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

func writeFull(f *os.File, p []byte) error {
	for len(p) > 0 {
		n, err := f.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}
