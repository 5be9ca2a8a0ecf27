package georef

import (
	"strings"
	"testing"

	"github.com/eoscience/eopfzarr/metadata"
)

func TestExplicitEPSGBeatsTileHint(t *testing.T) {
	attrs := metadata.Tree{"proj:epsg": 32633.0}
	srs := ResolveSpatialRef(attrs, "S2A_MSIL2A_20230501_T18TWL", false)
	if srs.EPSG != 32633 {
		t.Errorf("explicit EPSG lost to tile hint: %d", srs.EPSG)
	}
}

func TestWKTBeatsEPSG(t *testing.T) {
	attrs := metadata.Tree{
		"spatial_ref": wgs84WKT,
		"proj:epsg":   32632.0,
	}
	srs := ResolveSpatialRef(attrs, "", false)
	if srs.WKT != wgs84WKT || srs.EPSG != 4326 {
		t.Errorf("WKT source did not win: EPSG=%d", srs.EPSG)
	}
}

func TestEPSGFromStacProperties(t *testing.T) {
	attrs := metadata.Tree{
		"stac_discovery": map[string]interface{}{
			"properties": map[string]interface{}{"proj:epsg": "32719"},
		},
	}
	srs := ResolveSpatialRef(attrs, "", false)
	if srs.EPSG != 32719 {
		t.Errorf("STAC properties EPSG missed: %d", srs.EPSG)
	}
}

func TestEPSGFromNestedChild(t *testing.T) {
	attrs := metadata.Tree{
		"other_metadata": map[string]interface{}{
			"grid": map[string]interface{}{"epsg": 32755.0},
		},
	}
	srs := ResolveSpatialRef(attrs, "", false)
	if srs.EPSG != 32755 {
		t.Errorf("bounded recursive scan missed code: %d", srs.EPSG)
	}
}

func TestGeometryCRSCode(t *testing.T) {
	attrs := metadata.Tree{
		"stac_discovery": map[string]interface{}{
			"geometry": map[string]interface{}{
				"crs": map[string]interface{}{
					"properties": map[string]interface{}{"code": 32632.0},
				},
			},
		},
	}
	srs := ResolveSpatialRef(attrs, "", false)
	if srs.EPSG != 32632 {
		t.Errorf("geometry CRS code missed: %d", srs.EPSG)
	}
}

func TestTileNameInference(t *testing.T) {
	cases := []struct {
		hint string
		want int
	}{
		{"S2B_MSIL1C_20240101_T32TNS_B02", 32632},
		{"S2B_MSIL1C_20240101_T18CVT_B02", 32718},
		{"product_T01NAA", 32601},
		{"no tile here", 4326},
		{"T99XYZ out of range", 4326},
	}
	for _, c := range cases {
		srs := ResolveSpatialRef(metadata.Tree{}, c.hint, false)
		if srs.EPSG != c.want {
			t.Errorf("hint %q: expected EPSG %d, got %d", c.hint, c.want, srs.EPSG)
		}
	}
}

func TestTileNameFromStac(t *testing.T) {
	attrs := metadata.Tree{
		"stac_discovery": map[string]interface{}{
			"properties": map[string]interface{}{"s2:mgrs_tile": "T33SVB"},
		},
	}
	srs := ResolveSpatialRef(attrs, "", false)
	if srs.EPSG != 32633 {
		t.Errorf("stac tile band S should be north (>=N): %d", srs.EPSG)
	}
}

func TestDefaultIsWGS84(t *testing.T) {
	srs := ResolveSpatialRef(metadata.Tree{}, "", false)
	if srs.EPSG != 4326 {
		t.Errorf("empty tree should default to 4326: %d", srs.EPSG)
	}
	if !strings.Contains(srs.WKT, `AUTHORITY["EPSG","4326"]`) {
		t.Errorf("default WKT lacks EPSG authority: %v", srs.WKT)
	}
}

func TestUTMClassification(t *testing.T) {
	cases := []struct {
		epsg int
		utm  bool
	}{
		{32601, true}, {32660, true}, {32701, true}, {32760, true},
		{32600, false}, {32661, false}, {32700, false}, {32761, false},
		{4326, false}, {3857, false}, {0, false},
	}
	for _, c := range cases {
		srs := &SpatialRef{EPSG: c.epsg}
		if srs.IsProjectedUTM() != c.utm {
			t.Errorf("EPSG %d: expected isProjectedUTM=%v", c.epsg, c.utm)
		}
	}
}

func TestResolveIdempotent(t *testing.T) {
	attrs := metadata.Tree{
		"a": map[string]interface{}{"epsg": 32601.0},
		"b": map[string]interface{}{"epsg": 32702.0},
	}
	first := ResolveSpatialRef(attrs, "", false)
	second := ResolveSpatialRef(attrs, "", false)
	if first.EPSG != second.EPSG || first.WKT != second.WKT {
		t.Errorf("resolution not idempotent: %v vs %v", first, second)
	}
	// Sorted child order makes the shallow scan deterministic.
	if first.EPSG != 32601 {
		t.Errorf("shallow scan order unexpected: %d", first.EPSG)
	}
}

func TestUTMWKTSynthesis(t *testing.T) {
	srs := ResolveSpatialRef(metadata.Tree{"epsg": 32632.0}, "", false)
	if !strings.Contains(srs.WKT, `AUTHORITY["EPSG","32632"]`) {
		t.Errorf("UTM WKT lacks authority: %v", srs.WKT)
	}
	if !strings.Contains(srs.WKT, `PARAMETER["central_meridian",9]`) {
		t.Errorf("zone 32 central meridian wrong: %v", srs.WKT)
	}

	srs = ResolveSpatialRef(metadata.Tree{"epsg": 32733.0}, "", false)
	if !strings.Contains(srs.WKT, `PARAMETER["false_northing",10000000]`) {
		t.Errorf("southern zone lacks false northing: %v", srs.WKT)
	}
}
