package georef

import (
	"log"
	"math"

	"github.com/eoscience/eopfzarr/metadata"
	"github.com/paulmach/orb"
	"github.com/wroge/wgs84"
)

type CRSKind int

const (
	Geographic CRSKind = iota
	Projected
)

// Extent is a resolved bounding box in the coordinates of the resolved
// spatial reference. MinX<MaxX and MinY<MaxY always hold.
type Extent struct {
	MinX, MinY, MaxX, MaxY float64
	Kind                   CRSKind
}

func (e Extent) normalized() Extent {
	if e.MinX > e.MaxX {
		e.MinX, e.MaxX = e.MaxX, e.MinX
	}
	if e.MinY > e.MaxY {
		e.MinY, e.MaxY = e.MaxY, e.MinY
	}
	return e
}

func (e Extent) bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{e.MinX, e.MinY},
		Max: orb.Point{e.MaxX, e.MaxY},
	}
}

// ResolveExtent derives the bounding extent for the resolved spatial
// reference, plus the geographic-equivalent bounds as auxiliary output
// for consumers that want lon/lat regardless of the transform CRS.
// Resolution never fails; every dead end lands on a documented default
// from defs.
func ResolveExtent(attrs metadata.Tree, srs *SpatialRef, defs *Defaults, verbose bool) (Extent, orb.Bound) {
	isUTM := srs.IsProjectedUTM()

	// Projected bounding box, only meaningful for a projected CRS and
	// used without reprojection.
	if isUTM {
		if box, ok := projBBox(attrs); ok {
			if verbose {
				log.Printf("georef: extent from proj:bbox %v", box)
			}
			ext := Extent{box[0], box[1], box[2], box[3], Projected}.normalized()
			return ext, geographicEquivalent(ext, srs, defs)
		}
	}

	raw, found := rawBounds(attrs, verbose)
	if !found {
		if isUTM {
			if verbose {
				log.Printf("georef: no bounds found, using default UTM extent for EPSG:%d", srs.EPSG)
			}
			return defs.UTMExtent(), defs.GeographicBound()
		}
		if verbose {
			log.Printf("georef: no bounds found, using default geographic extent")
		}
		ext := defs.GeographicExtent()
		return ext, ext.bound()
	}

	if isUTM {
		if looksGeographic(raw) {
			if ext, ok := reprojectToUTM(raw, srs); ok {
				return ext, raw.bound()
			}
			if verbose {
				log.Printf("georef: reprojection to EPSG:%d failed, using default UTM extent", srs.EPSG)
			}
			return defs.UTMExtent(), raw.bound()
		}
		raw.Kind = Projected
		return raw, geographicEquivalent(raw, srs, defs)
	}

	raw.Kind = Geographic
	return raw, raw.bound()
}

// projBBox finds a proj:bbox array inside the discovery properties or
// at the tree root.
func projBBox(attrs metadata.Tree) ([]float64, bool) {
	if props := stacProperties(attrs); props != nil {
		if box, ok := props.GetFloatArray("proj:bbox", 4); ok {
			return box, true
		}
	}
	return attrs.GetFloatArray("proj:bbox", 4)
}

// rawBounds walks the non-projected bound sources in order: an aliased
// bounds object, a four-corner point object, then a STAC geographic
// bbox. The returned extent is normalized but not yet classified.
func rawBounds(attrs metadata.Tree, verbose bool) (Extent, bool) {
	if bounds := attrs.Child("bounds"); bounds != nil {
		ext := Extent{
			MinX: bounds.GetFloat("minx", bounds.GetFloat("left", 0)),
			MaxX: bounds.GetFloat("maxx", bounds.GetFloat("right", 0)),
			MinY: bounds.GetFloat("miny", bounds.GetFloat("bottom", 0)),
			MaxY: bounds.GetFloat("maxy", bounds.GetFloat("top", 0)),
		}
		if !ext.zero() {
			if verbose {
				log.Printf("georef: extent from bounds object")
			}
			return ext.normalized(), true
		}
	}

	if points := attrs.Child("geo_ref_points"); points != nil {
		ul := points.Child("ul")
		lr := points.Child("lr")
		if ul != nil && lr != nil {
			ext := Extent{
				MinX: ul.GetFloat("x", 0),
				MaxY: ul.GetFloat("y", 0),
				MaxX: lr.GetFloat("x", 0),
				MinY: lr.GetFloat("y", 0),
			}
			if !ext.zero() {
				if verbose {
					log.Printf("georef: extent from geo_ref_points")
				}
				return ext.normalized(), true
			}
		}
	}

	if props := stacProperties(attrs); props != nil {
		if box, ok := props.GetFloatArray("bbox", 4); ok {
			if verbose {
				log.Printf("georef: extent from STAC bbox")
			}
			return Extent{MinX: box[0], MinY: box[1], MaxX: box[2], MaxY: box[3]}.normalized(), true
		}
	}

	return Extent{}, false
}

func (e Extent) zero() bool {
	return e.MinX == 0 && e.MinY == 0 && e.MaxX == 0 && e.MaxY == 0
}

func looksGeographic(e Extent) bool {
	return math.Abs(e.MinX) <= 180 && math.Abs(e.MaxX) <= 180 &&
		math.Abs(e.MinY) <= 90 && math.Abs(e.MaxY) <= 90
}

// reprojectToUTM transforms the four corners of a geographic extent
// into the descriptor's UTM zone and rebuilds min/max from them.
func reprojectToUTM(geo Extent, srs *SpatialRef) (Extent, bool) {
	zone, north := srs.UTMZone()
	if zone == 0 {
		return Extent{}, false
	}
	forward := wgs84.LonLat().To(wgs84.UTM(float64(zone), north))

	corners := [4][2]float64{
		{geo.MinX, geo.MinY},
		{geo.MinX, geo.MaxY},
		{geo.MaxX, geo.MinY},
		{geo.MaxX, geo.MaxY},
	}
	ext := Extent{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1), Kind: Projected}
	for _, c := range corners {
		east, nrth, _ := forward(c[0], c[1], 0)
		if !finite(east) || !finite(nrth) {
			return Extent{}, false
		}
		ext.MinX = math.Min(ext.MinX, east)
		ext.MaxX = math.Max(ext.MaxX, east)
		ext.MinY = math.Min(ext.MinY, nrth)
		ext.MaxY = math.Max(ext.MaxY, nrth)
	}
	if ext.MinX >= ext.MaxX || ext.MinY >= ext.MaxY {
		return Extent{}, false
	}
	return ext, true
}

// geographicEquivalent maps a projected extent back to lon/lat bounds
// for the auxiliary output, falling back to the default geographic box
// when the inverse transform misbehaves.
func geographicEquivalent(ext Extent, srs *SpatialRef, defs *Defaults) orb.Bound {
	zone, north := srs.UTMZone()
	if zone == 0 {
		return defs.GeographicBound()
	}
	inverse := wgs84.UTM(float64(zone), north).To(wgs84.LonLat())

	corners := [4][2]float64{
		{ext.MinX, ext.MinY},
		{ext.MinX, ext.MaxY},
		{ext.MaxX, ext.MinY},
		{ext.MaxX, ext.MaxY},
	}
	bound := orb.Bound{
		Min: orb.Point{math.Inf(1), math.Inf(1)},
		Max: orb.Point{math.Inf(-1), math.Inf(-1)},
	}
	for _, c := range corners {
		lon, lat, _ := inverse(c[0], c[1], 0)
		if !finite(lon) || !finite(lat) {
			return defs.GeographicBound()
		}
		bound.Min[0] = math.Min(bound.Min[0], lon)
		bound.Min[1] = math.Min(bound.Min[1], lat)
		bound.Max[0] = math.Max(bound.Max[0], lon)
		bound.Max[1] = math.Max(bound.Max[1], lat)
	}
	return bound
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
