// Package gridfile implements the UTG container format.
//
// UTG is a single-payload, memory-mappable container for one-dimensional
// transit model grids. The fixed 64-byte header records how the payload is
// typed and how the profile was synthesized; the payload is the grid
// samples, tightly packed little-endian at a 64-byte-aligned offset.
package gridfile

const (
	// MagicUTG is the file magic for all UTG containers, encoded as "UTG\0".
	MagicUTG = "UTG\x00"

	// CurrentMajor changes only on breaking format changes.
	CurrentMajor uint16 = 1

	// CurrentMinor may add optional header fields in the reserved space.
	CurrentMinor uint16 = 0
)

const (
	utgHeaderSize = 64
	utgAlign      = 64
)

// Kind is the on-disk element type of the payload.
type Kind uint8

const (
	KindFloat32 Kind = 1
	KindFloat64 Kind = 2
)

// Size returns the byte width of one payload element, or 0 for an
// unknown kind.
func (k Kind) Size() int {
	switch k {
	case KindFloat32:
		return 4
	case KindFloat64:
		return 8
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	default:
		return "unknown"
	}
}

// Profile records which limb-darkening law produced the grid.
type Profile uint8

const (
	ProfileUnknown   Profile = 0
	ProfileUniform   Profile = 1
	ProfileQuadratic Profile = 2
)

func (p Profile) String() string {
	switch p {
	case ProfileUniform:
		return "uniform"
	case ProfileQuadratic:
		return "quadratic"
	default:
		return "unknown"
	}
}

// ParseProfile maps a config name to a Profile.
func ParseProfile(name string) (Profile, bool) {
	switch name {
	case "uniform":
		return ProfileUniform, true
	case "quadratic":
		return ProfileQuadratic, true
	case "", "unknown":
		return ProfileUnknown, true
	default:
		return ProfileUnknown, false
	}
}

// Grid is the in-memory form of a UTG file. Values are held in float64
// regardless of the on-disk Elem kind; conversion happens at the container
// boundary, never inside the evaluator.
type Grid struct {
	Profile  Profile
	Elem     Kind
	RefRatio float64
	U1, U2   float64
	Values   []float64
}
