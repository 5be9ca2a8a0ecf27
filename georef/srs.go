package georef

import (
	"fmt"
	"log"
	"regexp"
	"strconv"

	"github.com/eoscience/eopfzarr/metadata"
)

// SpatialRef is a resolved spatial reference descriptor. Resolution
// never leaves it empty: when no source applies it falls back to
// EPSG:4326.
type SpatialRef struct {
	EPSG int
	WKT  string
}

// IsProjectedUTM reports whether the descriptor is a WGS84 UTM zone
// (EPSG 32601-32660 north, 32701-32760 south). This classification
// gates which extent-resolution branch is used.
func (s *SpatialRef) IsProjectedUTM() bool {
	return (s.EPSG >= 32601 && s.EPSG <= 32660) || (s.EPSG >= 32701 && s.EPSG <= 32760)
}

// UTMZone returns the zone number and hemisphere for a UTM descriptor.
func (s *SpatialRef) UTMZone() (zone int, north bool) {
	if s.EPSG >= 32601 && s.EPSG <= 32660 {
		return s.EPSG - 32600, true
	}
	if s.EPSG >= 32701 && s.EPSG <= 32760 {
		return s.EPSG - 32700, false
	}
	return 0, false
}

// srsSource is one strategy of the ordered fallback chain. Each is a
// pure function; a nil result moves resolution to the next source.
type srsSource struct {
	name string
	fn   func(attrs metadata.Tree, hint string) *SpatialRef
}

var srsSources = []srsSource{
	{"wkt", wktSource},
	{"epsg", epsgSource},
	{"geometry-crs", geometrySource},
	{"tile-name", tileSource},
}

// ResolveSpatialRef derives a spatial reference from the attribute
// tree, with the resource display name as a tile-inference hint. The
// sources are tried strictly in order; the WGS84 default closes the
// chain so the result is never empty.
func ResolveSpatialRef(attrs metadata.Tree, hint string, verbose bool) *SpatialRef {
	for _, src := range srsSources {
		srs := src.fn(attrs, hint)
		if srs == nil {
			continue
		}
		if verbose {
			log.Printf("georef: spatial reference from %v source: EPSG:%d", src.name, srs.EPSG)
		}
		if srs.WKT == "" {
			srs.WKT = wktForEPSG(srs.EPSG)
		}
		return srs
	}

	if verbose {
		log.Printf("georef: no spatial reference source matched, defaulting to WGS84")
	}
	return &SpatialRef{EPSG: 4326, WKT: wgs84WKT}
}

func stacProperties(attrs metadata.Tree) metadata.Tree {
	stac := attrs.Child("stac_discovery")
	if stac == nil {
		return nil
	}
	return stac.Child("properties")
}

func wktSource(attrs metadata.Tree, _ string) *SpatialRef {
	wkt := attrs.GetString("spatial_ref", "")
	if wkt == "" {
		if props := stacProperties(attrs); props != nil {
			wkt = props.GetString("spatial_ref", "")
		}
	}
	if wkt == "" {
		return nil
	}
	return &SpatialRef{EPSG: wktEPSG(wkt), WKT: wkt}
}

func epsgSource(attrs metadata.Tree, _ string) *SpatialRef {
	if props := stacProperties(attrs); props != nil {
		if code := epsgAt(props); code != 0 {
			return &SpatialRef{EPSG: code}
		}
	}
	if code := epsgAt(attrs); code != 0 {
		return &SpatialRef{EPSG: code}
	}
	for _, key := range attrs.ChildKeys() {
		if code := epsgAt(attrs.Child(key)); code != 0 {
			return &SpatialRef{EPSG: code}
		}
	}
	if code := epsgDeep(attrs, 3); code != 0 {
		return &SpatialRef{EPSG: code}
	}
	return nil
}

func geometrySource(attrs metadata.Tree, _ string) *SpatialRef {
	stac := attrs.Child("stac_discovery")
	if stac == nil {
		return nil
	}
	geom := stac.Child("geometry")
	if geom == nil {
		return nil
	}
	crs := geom.Child("crs")
	if crs == nil {
		return nil
	}
	props := crs.Child("properties")
	if props == nil {
		return nil
	}
	if code := props.GetInt("code", 0); code != 0 {
		return &SpatialRef{EPSG: code}
	}
	return nil
}

// tilePattern matches an MGRS-style tile token: "T" + two-digit zone +
// latitude-band letter.
var tilePattern = regexp.MustCompile(`T([0-9]{2})([A-Z])`)

func tileSource(attrs metadata.Tree, hint string) *SpatialRef {
	candidates := []string{hint}
	if props := stacProperties(attrs); props != nil {
		for _, key := range []string{"s2:mgrs_tile", "mgrs_tile", "tile_id"} {
			if tile := props.GetString(key, ""); tile != "" {
				candidates = append(candidates, tile)
			}
		}
	}

	for _, cand := range candidates {
		m := tilePattern.FindStringSubmatch(cand)
		if m == nil {
			continue
		}
		zone, _ := strconv.Atoi(m[1])
		if zone < 1 || zone > 60 {
			continue
		}
		// MGRS latitude bands N..X are north of the equator.
		if m[2][0] >= 'N' {
			return &SpatialRef{EPSG: 32600 + zone}
		}
		return &SpatialRef{EPSG: 32700 + zone}
	}
	return nil
}

// epsgAt reads an EPSG code at the conventional keys of one node,
// accepting integers and numeric strings.
func epsgAt(t metadata.Tree) int {
	if t == nil {
		return 0
	}
	if code := t.GetInt("proj:epsg", 0); code != 0 {
		return code
	}
	return t.GetInt("epsg", 0)
}

// epsgDeep scans nested trees depth-first to a bounded depth.
func epsgDeep(t metadata.Tree, depth int) int {
	if t == nil || depth <= 0 {
		return 0
	}
	for _, key := range t.ChildKeys() {
		child := t.Child(key)
		if code := epsgAt(child); code != 0 {
			return code
		}
		if code := epsgDeep(child, depth-1); code != 0 {
			return code
		}
	}
	return 0
}

var wktAuthority = regexp.MustCompile(`AUTHORITY\["EPSG",\s*"?([0-9]+)"?\]`)

// wktEPSG extracts the outermost authority code of a WKT string, which
// is the last AUTHORITY node in well-formed single-line WKT.
func wktEPSG(wkt string) int {
	matches := wktAuthority.FindAllStringSubmatch(wkt, -1)
	if len(matches) == 0 {
		return 0
	}
	code, _ := strconv.Atoi(matches[len(matches)-1][1])
	return code
}

const wgs84WKT = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]]`

// wktForEPSG synthesizes WKT for the codes this layer can produce on
// its own: WGS84 and the WGS84 UTM zones. Other codes keep an empty
// WKT and are carried by their EPSG alone.
func wktForEPSG(epsg int) string {
	if epsg == 4326 {
		return wgs84WKT
	}
	srs := SpatialRef{EPSG: epsg}
	zone, north := srs.UTMZone()
	if zone == 0 {
		return ""
	}
	hemi := "N"
	falseNorthing := 0
	if !north {
		hemi = "S"
		falseNorthing = 10000000
	}
	return fmt.Sprintf(`PROJCS["WGS 84 / UTM zone %d%s",%s,PROJECTION["Transverse_Mercator"],PARAMETER["latitude_of_origin",0],PARAMETER["central_meridian",%d],PARAMETER["scale_factor",0.9996],PARAMETER["false_easting",500000],PARAMETER["false_northing",%d],UNIT["metre",1,AUTHORITY["EPSG","9001"]],AXIS["Easting",EAST],AXIS["Northing",NORTH],AUTHORITY["EPSG","%d"]]`,
		zone, hemi, wgs84WKT, zone*6-183, falseNorthing, epsg)
}
