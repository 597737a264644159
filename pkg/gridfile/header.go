package gridfile

import (
	"encoding/binary"
	"math"
)

// Header is the fixed 64-byte UTG file header.
//
// Layout (little-endian):
//
//	0   magic "UTG\0"
//	4   major, 6 minor
//	8   flags
//	12  grid length (samples)
//	16  element kind, 17 profile kind, 18..23 reserved
//	24  reference radius ratio
//	32  limb-darkening u1, 40 u2
//	48  payload offset, 56 payload size
type Header struct {
	Magic         [4]byte
	Major         uint16
	Minor         uint16
	Flags         uint32
	GridLen       uint32
	Elem          Kind
	Profile       Profile
	RefRatio      float64
	U1            float64
	U2            float64
	PayloadOffset uint64
	PayloadSize   uint64
}

func (h *Header) Valid() bool {
	if string(h.Magic[:]) != MagicUTG {
		return false
	}
	if h.GridLen == 0 {
		return false
	}
	if h.Elem.Size() == 0 {
		return false
	}
	if h.PayloadSize != uint64(h.GridLen)*uint64(h.Elem.Size()) {
		return false
	}
	return true
}

func (h *Header) Compatible() bool {
	return h.Major == CurrentMajor
}

func encodeHeader(dst []byte, h Header) bool {
	if len(dst) < utgHeaderSize {
		return false
	}
	copy(dst[0:4], h.Magic[:])
	binary.LittleEndian.PutUint16(dst[4:6], h.Major)
	binary.LittleEndian.PutUint16(dst[6:8], h.Minor)
	binary.LittleEndian.PutUint32(dst[8:12], h.Flags)
	binary.LittleEndian.PutUint32(dst[12:16], h.GridLen)
	dst[16] = byte(h.Elem)
	dst[17] = byte(h.Profile)
	for i := 18; i < 24; i++ {
		dst[i] = 0
	}
	binary.LittleEndian.PutUint64(dst[24:32], math.Float64bits(h.RefRatio))
	binary.LittleEndian.PutUint64(dst[32:40], math.Float64bits(h.U1))
	binary.LittleEndian.PutUint64(dst[40:48], math.Float64bits(h.U2))
	binary.LittleEndian.PutUint64(dst[48:56], h.PayloadOffset)
	binary.LittleEndian.PutUint64(dst[56:64], h.PayloadSize)
	return true
}

func decodeHeader(src []byte) (Header, bool) {
	var h Header
	if len(src) < utgHeaderSize {
		return h, false
	}
	copy(h.Magic[:], src[0:4])
	h.Major = binary.LittleEndian.Uint16(src[4:6])
	h.Minor = binary.LittleEndian.Uint16(src[6:8])
	h.Flags = binary.LittleEndian.Uint32(src[8:12])
	h.GridLen = binary.LittleEndian.Uint32(src[12:16])
	h.Elem = Kind(src[16])
	h.Profile = Profile(src[17])
	h.RefRatio = math.Float64frombits(binary.LittleEndian.Uint64(src[24:32]))
	h.U1 = math.Float64frombits(binary.LittleEndian.Uint64(src[32:40]))
	h.U2 = math.Float64frombits(binary.LittleEndian.Uint64(src[40:48]))
	h.PayloadOffset = binary.LittleEndian.Uint64(src[48:56])
	h.PayloadSize = binary.LittleEndian.Uint64(src[56:64])
	return h, true
}
