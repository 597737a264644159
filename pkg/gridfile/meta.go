package gridfile

import (
	"os"
	"time"

	json "github.com/goccy/go-json"
)

// Meta is the optional JSON sidecar written next to a UTG file. It repeats
// the synthesis parameters in a form other tooling can read without a UTG
// decoder.
type Meta struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Profile   string    `json:"profile"`
	Points    int       `json:"points"`
	RefRatio  float64   `json:"ref_radius_ratio"`
	U1        float64   `json:"u1"`
	U2        float64   `json:"u2"`
}

// SidecarPath returns the sidecar location for a UTG path.
func SidecarPath(path string) string {
	return path + ".json"
}

// WriteMeta stores m next to the UTG file at path.
func WriteMeta(path string, m Meta) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(SidecarPath(path), append(data, '\n'), 0o644)
}

// ReadMeta loads the sidecar for the UTG file at path.
func ReadMeta(path string) (Meta, error) {
	var m Meta
	data, err := os.ReadFile(SidecarPath(path))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(data, &m)
	return m, err
}
