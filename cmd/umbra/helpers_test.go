package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/umbra-photometry/umbra/pkg/gridfile"
)

func TestLoadGridValues(t *testing.T) {
	restore := func() {
		gridPath = ""
		gridJSON = ""
	}
	restore()
	defer restore()

	t.Run("neither source set", func(t *testing.T) {
		restore()
		if _, _, err := loadGridValues(); err == nil {
			t.Fatalf("expected an error with no grid source")
		}
	})

	t.Run("both sources set", func(t *testing.T) {
		restore()
		gridPath = "a.utg"
		gridJSON = "a.json"
		if _, _, err := loadGridValues(); err == nil {
			t.Fatalf("expected an error with both grid sources")
		}
	})

	t.Run("json grid", func(t *testing.T) {
		restore()
		path := filepath.Join(t.TempDir(), "grid.json")
		if err := os.WriteFile(path, []byte(`{"values": [1, 0.5, 0]}`), 0o644); err != nil {
			t.Fatalf("write grid: %v", err)
		}
		gridJSON = path

		values, source, err := loadGridValues()
		if err != nil {
			t.Fatalf("loadGridValues returned error: %v", err)
		}
		if source != path {
			t.Fatalf("unexpected source: got %q want %q", source, path)
		}
		if len(values) != 3 || values[0] != 1 || values[2] != 0 {
			t.Fatalf("unexpected values: %v", values)
		}
	})

	t.Run("utg grid", func(t *testing.T) {
		restore()
		path := filepath.Join(t.TempDir(), "grid.utg")
		want := []float64{1, 0.75, 0.5, 0.25, 0}
		err := gridfile.Write(path, gridfile.Grid{
			Profile:  gridfile.ProfileUniform,
			Elem:     gridfile.KindFloat64,
			RefRatio: 0.1,
			Values:   want,
		})
		if err != nil {
			t.Fatalf("write utg: %v", err)
		}
		gridPath = path

		values, source, err := loadGridValues()
		if err != nil {
			t.Fatalf("loadGridValues returned error: %v", err)
		}
		if source != path {
			t.Fatalf("unexpected source: got %q want %q", source, path)
		}
		if len(values) != len(want) {
			t.Fatalf("unexpected length: got %d want %d", len(values), len(want))
		}
		for i := range want {
			if values[i] != want[i] {
				t.Fatalf("values[%d]: got %g want %g", i, values[i], want[i])
			}
		}
	})
}

func TestLoadConfigOverridePath(t *testing.T) {
	restore := configFile
	defer func() { configFile = restore }()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "grid: /data/q.utg\nstrategy: parallel\nrate: 2.5\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	configFile = path

	cfg := LoadConfig()
	if cfg.Grid != "/data/q.utg" {
		t.Fatalf("unexpected grid: got %q", cfg.Grid)
	}
	if cfg.Strategy != "parallel" {
		t.Fatalf("unexpected strategy: got %q", cfg.Strategy)
	}
	if cfg.Rate == nil || *cfg.Rate != 2.5 {
		t.Fatalf("unexpected rate: got %v", cfg.Rate)
	}
	if cfg.Precision != "" {
		t.Fatalf("expected precision to stay unset, got %q", cfg.Precision)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	restore := configFile
	defer func() { configFile = restore }()

	configFile = filepath.Join(t.TempDir(), "absent.yaml")
	cfg := LoadConfig()
	if cfg != (Config{}) {
		t.Fatalf("expected zero config for a missing file, got %+v", cfg)
	}
}

func TestParseElem(t *testing.T) {
	cases := []struct {
		name    string
		want    gridfile.Kind
		wantErr bool
	}{
		{name: "float64", want: gridfile.KindFloat64},
		{name: "f64", want: gridfile.KindFloat64},
		{name: "", want: gridfile.KindFloat64},
		{name: "Float32", want: gridfile.KindFloat32},
		{name: " f32 ", want: gridfile.KindFloat32},
		{name: "int8", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseElem(tc.name)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseElem(%q): expected error", tc.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseElem(%q): %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("parseElem(%q): got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestNonIncreasing(t *testing.T) {
	if !nonIncreasing([]float64{1, 0.5, 0.5, 0}) {
		t.Fatalf("expected non-increasing sequence to pass")
	}
	if nonIncreasing([]float64{0, 1}) {
		t.Fatalf("expected increasing sequence to fail")
	}
	if !nonIncreasing(nil) {
		t.Fatalf("expected empty sequence to pass")
	}
}

func TestBitIdentical(t *testing.T) {
	a := []float64{0, 0.25, 1}
	if !bitIdentical(a, []float64{0, 0.25, 1}) {
		t.Fatalf("expected equal slices to be bit identical")
	}
	if bitIdentical(a, a[:2]) {
		t.Fatalf("expected length mismatch to fail")
	}
	// +0 and -0 compare equal but have different bit patterns.
	if bitIdentical([]float64{0}, []float64{math.Copysign(0, -1)}) {
		t.Fatalf("expected signed zeros to differ")
	}
}

func TestFormatUS(t *testing.T) {
	if got := formatUS(500); got != "500µs" {
		t.Fatalf("formatUS(500): got %q", got)
	}
	if got := formatUS(1500); got != "1.5ms" {
		t.Fatalf("formatUS(1500): got %q", got)
	}
}
