package georef

import (
	"math"
	"testing"

	"github.com/eoscience/eopfzarr/metadata"
)

func TestExtentFromProjBBox(t *testing.T) {
	attrs := metadata.Tree{
		"stac_discovery": map[string]interface{}{
			"properties": map[string]interface{}{
				"proj:bbox": []interface{}{399960.0, 4990200.0, 509760.0, 5100000.0},
			},
		},
	}
	srs := &SpatialRef{EPSG: 32632}
	ext, _ := ResolveExtent(attrs, srs, NewDefaults(), false)
	if ext.Kind != Projected {
		t.Errorf("proj:bbox extent not projected")
	}
	if ext.MinX != 399960 || ext.MaxY != 5100000 {
		t.Errorf("proj:bbox not used directly: %+v", ext)
	}
}

func TestProjBBoxIgnoredForGeographicCRS(t *testing.T) {
	attrs := metadata.Tree{
		"proj:bbox": []interface{}{399960.0, 4990200.0, 509760.0, 5100000.0},
		"stac_discovery": map[string]interface{}{
			"properties": map[string]interface{}{
				"bbox": []interface{}{10.0, 40.0, 15.0, 45.0},
			},
		},
	}
	srs := &SpatialRef{EPSG: 4326}
	ext, _ := ResolveExtent(attrs, srs, NewDefaults(), false)
	if ext.Kind != Geographic || ext.MinX != 10 || ext.MaxY != 45 {
		t.Errorf("geographic CRS must take the STAC bbox: %+v", ext)
	}
}

func TestExtentFromBoundsAliases(t *testing.T) {
	for _, bounds := range []map[string]interface{}{
		{"minx": 10.0, "maxx": 15.0, "miny": 40.0, "maxy": 45.0},
		{"left": 10.0, "right": 15.0, "bottom": 40.0, "top": 45.0},
	} {
		attrs := metadata.Tree{"bounds": bounds}
		ext, _ := ResolveExtent(attrs, &SpatialRef{EPSG: 4326}, NewDefaults(), false)
		if ext.MinX != 10 || ext.MaxX != 15 || ext.MinY != 40 || ext.MaxY != 45 {
			t.Errorf("bounds aliases %v misread: %+v", bounds, ext)
		}
	}
}

func TestExtentFromCornerPointsSwaps(t *testing.T) {
	attrs := metadata.Tree{
		"geo_ref_points": map[string]interface{}{
			// Corners deliberately reversed.
			"ul": map[string]interface{}{"x": 15.0, "y": 40.0},
			"lr": map[string]interface{}{"x": 10.0, "y": 45.0},
		},
	}
	ext, _ := ResolveExtent(attrs, &SpatialRef{EPSG: 4326}, NewDefaults(), false)
	if ext.MinX != 10 || ext.MaxX != 15 || ext.MinY != 40 || ext.MaxY != 45 {
		t.Errorf("reversed corners not swapped: %+v", ext)
	}
}

func TestGeographicBoundsReprojectedForUTM(t *testing.T) {
	attrs := metadata.Tree{
		"stac_discovery": map[string]interface{}{
			"properties": map[string]interface{}{
				"bbox": []interface{}{8.0, 51.0, 10.0, 52.0},
			},
		},
	}
	srs := &SpatialRef{EPSG: 32632}
	ext, geo := ResolveExtent(attrs, srs, NewDefaults(), false)

	if ext.Kind != Projected {
		t.Fatalf("UTM extent not projected: %+v", ext)
	}
	if ext.MinX >= ext.MaxX || ext.MinY >= ext.MaxY {
		t.Errorf("degenerate projected extent: %+v", ext)
	}
	// Zone 32 eastings stay within the UTM band, northings in the
	// northern-hemisphere range for ~51N.
	if ext.MinX < 100000 || ext.MaxX > 900000 {
		t.Errorf("implausible eastings: %+v", ext)
	}
	if ext.MinY < 5000000 || ext.MaxY > 6500000 {
		t.Errorf("implausible northings: %+v", ext)
	}
	// The auxiliary output keeps the original geographic bounds.
	if geo.Min[0] != 8 || geo.Max[1] != 52 {
		t.Errorf("auxiliary geographic bounds lost: %+v", geo)
	}
}

func TestNoMetadataUsesDefaults(t *testing.T) {
	defs := NewDefaults()

	ext, geo := ResolveExtent(metadata.Tree{}, &SpatialRef{EPSG: 4326}, defs, false)
	if ext != defs.GeographicExtent() {
		t.Errorf("default geographic extent not used: %+v", ext)
	}
	if geo != defs.GeographicBound() {
		t.Errorf("default geographic bound not used: %+v", geo)
	}

	ext, _ = ResolveExtent(metadata.Tree{}, &SpatialRef{EPSG: 32632}, defs, false)
	if ext != defs.UTMExtent() {
		t.Errorf("default UTM extent not used: %+v", ext)
	}
	if ext.MinX != 500000 || ext.MaxY != 5000000 {
		t.Errorf("documented UTM defaults changed: %+v", ext)
	}
	if ext.MaxX != 500000+512*30.0 || ext.MinY != 5000000-512*30.0 {
		t.Errorf("UTM default box not derived from pixel/grid size: %+v", ext)
	}
}

func TestZeroBoundsObjectIsAbsent(t *testing.T) {
	attrs := metadata.Tree{
		"bounds": map[string]interface{}{"minx": 0.0, "maxx": 0.0, "miny": 0.0, "maxy": 0.0},
	}
	defs := NewDefaults()
	ext, _ := ResolveExtent(attrs, &SpatialRef{EPSG: 4326}, defs, false)
	if ext != defs.GeographicExtent() {
		t.Errorf("all-zero bounds should fall through to defaults: %+v", ext)
	}
}

func TestGeographicEquivalentOfProjectedExtent(t *testing.T) {
	attrs := metadata.Tree{
		"proj:bbox": []interface{}{399960.0, 5600040.0, 509760.0, 5700000.0},
	}
	srs := &SpatialRef{EPSG: 32632}
	_, geo := ResolveExtent(attrs, srs, NewDefaults(), false)
	if geo.Min[0] < 3 || geo.Max[0] > 15 || geo.Min[1] < 49 || geo.Max[1] > 53 {
		t.Errorf("implausible geographic equivalent for zone 32: %+v", geo)
	}
	if math.IsNaN(geo.Min[0]) || math.IsNaN(geo.Max[1]) {
		t.Errorf("non-finite geographic equivalent: %+v", geo)
	}
}
