package georef

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildGeoTransform(t *testing.T) {
	ext := Extent{MinX: 10, MinY: 40, MaxX: 15, MaxY: 45, Kind: Geographic}
	gt, ok := BuildGeoTransform(ext, 500, 500)
	if !ok {
		t.Fatalf("transform not built for a valid extent")
	}
	want := GeoTransform{10, 0.01, 0, 45, 0, -0.01}
	if gt != want {
		t.Errorf("geotransform = %v, want %v", gt, want)
	}
}

func TestBuildGeoTransformUTM(t *testing.T) {
	ext := Extent{MinX: 399960, MinY: 4990200, MaxX: 509760, MaxY: 5100000, Kind: Projected}
	gt, ok := BuildGeoTransform(ext, 10980, 10980)
	if !ok {
		t.Fatalf("transform not built for a valid extent")
	}
	if gt[1] != 10 || gt[5] != -10 {
		t.Errorf("pixel sizes = %v, %v, want 10, -10", gt[1], gt[5])
	}
	if gt[0] != 399960 || gt[3] != 5100000 {
		t.Errorf("origin = %v, %v, want upper-left corner", gt[0], gt[3])
	}
	if gt[2] != 0 || gt[4] != 0 {
		t.Errorf("rotation terms must stay zero: %v", gt)
	}
}

func TestBuildGeoTransformZeroDimensions(t *testing.T) {
	ext := Extent{MinX: 10, MinY: 40, MaxX: 15, MaxY: 45}
	for _, dims := range [][2]int{{0, 500}, {500, 0}, {0, 0}, {-1, 500}} {
		if _, ok := BuildGeoTransform(ext, dims[0], dims[1]); ok {
			t.Errorf("transform built for dimensions %v", dims)
		}
	}
}

func TestGeoTransformString(t *testing.T) {
	gt := GeoTransform{10, 0.01, 0, 45, 0, -0.01}
	want := "10.000000000000,0.010000000000,0.000000000000,45.000000000000,0.000000000000,-0.010000000000"
	if got := gt.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestLoadDefaultsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.yaml")
	body := "geographic_box: [0, -10, 20, 10]\nutm_pixel_size: 10\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	defs, err := LoadDefaults(path)
	if err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	if defs.GeographicBox != [4]float64{0, -10, 20, 10} {
		t.Errorf("geographic box not overridden: %v", defs.GeographicBox)
	}
	if defs.UTMPixelSize != 10 {
		t.Errorf("pixel size not overridden: %v", defs.UTMPixelSize)
	}
	// Keys absent from the file keep the built-in values.
	if defs.UTMOriginX != 500000 || defs.UTMGridSize != 512 {
		t.Errorf("unset keys lost the built-ins: %+v", defs)
	}

	if _, err := LoadDefaults(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("missing defaults file must error")
	}
}

func TestLoadDefaultsRejectsBadSizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.yaml")
	if err := os.WriteFile(path, []byte("utm_grid_size: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDefaults(path); err == nil {
		t.Errorf("zero grid size must be rejected")
	}
}
