// Package batchio reads and writes the JSON batch files consumed by the
// eval command: {"z": [...], "r": [...]} in, {"n", "strategy",
// "precision", "delta"} out.
package batchio

import (
	"fmt"
	"io"
	"math"
	"os"

	json "github.com/goccy/go-json"

	"github.com/umbra-photometry/umbra/pkg/transit"
)

// Batch holds one evaluation request: parallel separation and radius
// ratio vectors.
type Batch struct {
	Z []float64 `json:"z"`
	R []float64 `json:"r"`
}

// Validate applies the batch contract shared with the evaluator.
func (b Batch) Validate() error {
	if len(b.Z) != len(b.R) {
		return fmt.Errorf("%w (len(z)=%d, len(r)=%d)", transit.ErrLengthMismatch, len(b.Z), len(b.R))
	}
	if int64(len(b.Z)) > math.MaxInt32 {
		return fmt.Errorf("%w (size=%d)", transit.ErrBatchTooLarge, len(b.Z))
	}
	return nil
}

// ReadBatch decodes and validates a batch document.
func ReadBatch(r io.Reader) (Batch, error) {
	var b Batch
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return Batch{}, fmt.Errorf("decode batch: %w", err)
	}
	if err := b.Validate(); err != nil {
		return Batch{}, err
	}
	return b, nil
}

// ReadBatchFile loads a batch document from disk.
func ReadBatchFile(path string) (Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return Batch{}, err
	}
	defer f.Close()
	return ReadBatch(f)
}

// ReadGrid loads grid samples from JSON: either a bare array or an
// object carrying a "values" field.
func ReadGrid(r io.Reader) ([]float64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var values []float64
	if err := json.Unmarshal(data, &values); err != nil {
		var doc struct {
			Values []float64 `json:"values"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("grid JSON must be an array or an object with a values field: %w", err)
		}
		values = doc.Values
	}
	if len(values) == 0 {
		return nil, transit.ErrEmptyGrid
	}
	return values, nil
}

// ReadGridFile loads grid samples from a JSON file on disk.
func ReadGridFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadGrid(f)
}

// Result is the evaluation output document.
type Result struct {
	N         int       `json:"n"`
	Strategy  string    `json:"strategy"`
	Precision string    `json:"precision"`
	ElapsedUS int64     `json:"elapsed_us,omitempty"`
	Delta     []float64 `json:"delta"`
}

// EncodeResult writes res as a single JSON document followed by a
// newline.
func EncodeResult(w io.Writer, res Result) error {
	enc := json.NewEncoder(w)
	return enc.Encode(res)
}

// WriteResultFile stores res at path.
func WriteResultFile(path string, res Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeResult(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
