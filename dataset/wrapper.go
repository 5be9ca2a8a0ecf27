package dataset

import (
	"fmt"
	"log"
	"sort"

	"github.com/paulmach/orb"

	"github.com/eoscience/eopfzarr/cache"
	"github.com/eoscience/eopfzarr/georef"
	"github.com/eoscience/eopfzarr/metadata"
	"github.com/eoscience/eopfzarr/store"
	"github.com/eoscience/eopfzarr/zarrpath"
)

// Caches are the driver-level TTL caches shared by every open wrapper.
// Keys are the resolved main path plus the node path where relevant.
type Caches struct {
	Attrs  *cache.Cache[metadata.Tree]
	Geo    *cache.Cache[geoInfo]
	Subs   *cache.Cache[[]SubdatasetEntry]
	Exists *cache.Cache[bool]
}

func NewCaches(ceiling int, verbose bool) *Caches {
	return &Caches{
		Attrs:  cache.New[metadata.Tree](ceiling, verbose),
		Geo:    cache.New[geoInfo](ceiling, verbose),
		Subs:   cache.New[[]SubdatasetEntry](ceiling, verbose),
		Exists: cache.New[bool](ceiling, verbose),
	}
}

// Sweep runs one eviction pass over every cache tier.
func (c *Caches) Sweep() int {
	return c.Attrs.Sweep() + c.Geo.Sweep() + c.Subs.Sweep() + c.Exists.Sweep()
}

// geoInfo is the memoized georeferencing verdict for one dataset.
type geoInfo struct {
	SRS          *georef.SpatialRef
	Extent       georef.Extent
	GeoBound     orb.Bound
	Transform    georef.GeoTransform
	HasTransform bool
	Derived      map[string]string
}

// Wrapper is the dataset facade handed to callers: the inner store
// plus resolved georeferencing and the merged metadata dictionary.
// All derivations are lazy and memoized through the shared caches.
type Wrapper struct {
	inner   store.Store
	path    zarrpath.ResolvedPath
	loader  *metadata.Loader
	defs    *georef.Defaults
	caches  *Caches
	verbose bool

	attrs     metadata.Tree
	attrsDone bool
	geo       *geoInfo
	subs      []SubdatasetEntry
	subsDone  bool
	closed    bool
}

// Attrs returns the merged attribute tree: the root document with this
// node's document overlaid on top, so node-level keys win.
func (w *Wrapper) Attrs() metadata.Tree {
	if w.attrsDone {
		return w.attrs
	}
	key := w.attrsKey()
	if tree, ok := w.caches.Attrs.Get(key); ok {
		w.attrs, w.attrsDone = tree, true
		return tree
	}

	merged := metadata.Tree{}
	if root, ok := w.loader.Load(w.path.MainPath, ""); ok {
		for k, v := range root {
			merged[k] = v
		}
	}
	if w.path.IsSubdataset {
		if node, ok := w.loader.Load(w.path.MainPath, w.path.SubPath); ok {
			for k, v := range node {
				merged[k] = v
			}
		}
	}

	w.caches.Attrs.Put(key, merged, cache.ClassMetadata)
	w.attrs, w.attrsDone = merged, true
	return merged
}

func (w *Wrapper) attrsKey() string {
	return w.path.MainPath + "\x00" + w.path.SubPath
}

func (w *Wrapper) geoinfo() *geoInfo {
	if w.geo != nil {
		return w.geo
	}
	key := w.attrsKey()
	if info, ok := w.caches.Geo.Get(key); ok {
		w.geo = &info
		return w.geo
	}

	info := w.resolveGeo()
	w.caches.Geo.Put(key, info, cache.ClassMetadata)
	w.geo = &info
	return w.geo
}

func (w *Wrapper) resolveGeo() geoInfo {
	attrs := w.Attrs()
	srs := georef.ResolveSpatialRef(attrs, w.path.MainPath, w.verbose)
	ext, bound := georef.ResolveExtent(attrs, srs, w.defs, w.verbose)
	gt, hasGT := georef.BuildGeoTransform(ext, w.inner.RasterXSize(), w.inner.RasterYSize())

	if w.verbose {
		log.Printf("dataset: %v resolved to EPSG:%d, extent %+v", w.path.MainPath, srs.EPSG, ext)
	}

	derived := map[string]string{
		"EOPF_PRODUCT": "YES",
		"EPSG":         fmt.Sprintf("%d", srs.EPSG),
		"proj:epsg":    fmt.Sprintf("%d", srs.EPSG),
	}
	if srs.WKT != "" {
		derived["spatial_ref"] = srs.WKT
	}
	if hasGT {
		derived["geo_transform"] = gt.String()
	}
	if ext.Kind == georef.Projected {
		derived["utm_easting_min"] = fmt.Sprintf("%.2f", ext.MinX)
		derived["utm_easting_max"] = fmt.Sprintf("%.2f", ext.MaxX)
		derived["utm_northing_min"] = fmt.Sprintf("%.2f", ext.MinY)
		derived["utm_northing_max"] = fmt.Sprintf("%.2f", ext.MaxY)
	}
	derived["geospatial_lon_min"] = fmt.Sprintf("%.6f", bound.Min[0])
	derived["geospatial_lon_max"] = fmt.Sprintf("%.6f", bound.Max[0])
	derived["geospatial_lat_min"] = fmt.Sprintf("%.6f", bound.Min[1])
	derived["geospatial_lat_max"] = fmt.Sprintf("%.6f", bound.Max[1])

	return geoInfo{
		SRS:          srs,
		Extent:       ext,
		GeoBound:     bound,
		Transform:    gt,
		HasTransform: hasGT,
		Derived:      derived,
	}
}

// SpatialRef reports the resolved spatial reference. It never returns
// nil.
func (w *Wrapper) SpatialRef() *georef.SpatialRef {
	return w.geoinfo().SRS
}

// GeoTransform reports the derived transform. The second return is
// false when the raster has no usable pixel dimensions.
func (w *Wrapper) GeoTransform() (georef.GeoTransform, bool) {
	info := w.geoinfo()
	return info.Transform, info.HasTransform
}

// Extent reports the resolved bounding box plus its geographic
// equivalent.
func (w *Wrapper) Extent() (georef.Extent, orb.Bound) {
	info := w.geoinfo()
	return info.Extent, info.GeoBound
}

// SetSpatialRef accepts and discards a caller-provided reference. The
// resolved reference is authoritative.
func (w *Wrapper) SetSpatialRef(*georef.SpatialRef) error { return nil }

// SetGeoTransform accepts and discards a caller-provided transform.
func (w *Wrapper) SetGeoTransform(georef.GeoTransform) error { return nil }

// Metadata returns the merged default-domain dictionary: the inner
// store's items, scalar attributes from the merged tree, then the
// derived georeferencing items, later layers winning.
func (w *Wrapper) Metadata() map[string]string {
	items := make(map[string]string)
	for k, v := range w.inner.Metadata() {
		items[k] = v
	}
	for k, v := range w.Attrs() {
		switch val := v.(type) {
		case string:
			items[k] = val
		case float64:
			items[k] = trimFloat(val)
		case bool:
			items[k] = fmt.Sprintf("%v", val)
		}
	}
	for k, v := range w.geoinfo().Derived {
		items[k] = v
	}
	return items
}

// MetadataItem looks one key up across the merged dictionary.
func (w *Wrapper) MetadataItem(key string) (string, bool) {
	v, ok := w.Metadata()[key]
	return v, ok
}

// MetadataKeys returns the merged keys in sorted order.
func (w *Wrapper) MetadataKeys() []string {
	items := w.Metadata()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MetadataDomain returns a named metadata dictionary. The empty domain
// is the merged default dictionary, SUBDATASETS the rewritten catalog,
// and the georeferencing domains mirror the resolved reference for
// consumers that read it from metadata.
func (w *Wrapper) MetadataDomain(domain string) map[string]string {
	switch domain {
	case "":
		return w.Metadata()
	case "SUBDATASETS":
		return SubdatasetMetadata(w.Subdatasets())
	case "GEOLOCATION", "GEOREFERENCING":
		info := w.geoinfo()
		items := map[string]string{
			"SRS": info.SRS.WKT,
		}
		if info.HasTransform {
			items["GEOTRANSFORM"] = info.Transform.String()
		}
		return items
	}
	return nil
}

// Subdatasets returns the rewritten catalog for this dataset. An array
// node has none.
func (w *Wrapper) Subdatasets() []SubdatasetEntry {
	if w.subsDone {
		return w.subs
	}
	key := w.attrsKey()
	if entries, ok := w.caches.Subs.Get(key); ok {
		w.subs, w.subsDone = entries, true
		return entries
	}

	entries := RewriteSubdatasets(w.inner.Subdatasets())
	w.caches.Subs.Put(key, entries, cache.ClassMetadata)
	w.subs, w.subsDone = entries, true
	return entries
}

// FileExists reports whether a path exists. Remote verdicts are served
// from the existence cache; local paths are checked directly every
// time so the answer reflects the current filesystem state.
func (w *Wrapper) FileExists(path string) bool {
	if !metadata.IsRemotePath(path) {
		return w.loader.Exists(path)
	}
	if exists, ok := w.caches.Exists.Get(path); ok {
		return exists
	}
	exists := w.loader.Exists(path)
	w.caches.Exists.Put(path, exists, cache.ClassNetwork)
	return exists
}

func (w *Wrapper) RasterXSize() int { return w.inner.RasterXSize() }
func (w *Wrapper) RasterYSize() int { return w.inner.RasterYSize() }
func (w *Wrapper) RasterCount() int { return w.inner.RasterCount() }

func (w *Wrapper) DataType(band int) string { return w.inner.DataType(band) }

func (w *Wrapper) BlockSize(band int) (int, int) { return w.inner.BlockSize(band) }

// ReadBlock passes a block read straight through to the inner store.
func (w *Wrapper) ReadBlock(band, bx, by int, buf []byte) error {
	if w.closed {
		return fmt.Errorf("dataset %v is closed", w.path.MainPath)
	}
	return w.inner.ReadBlock(band, bx, by, buf)
}

// Description reports the resolved identifier this wrapper was opened
// with.
func (w *Wrapper) Description() string {
	if w.path.IsSubdataset {
		return zarrpath.Prefix + store.ZarrName(w.path.MainPath, w.path.SubPath)[len(zarrpath.InnerPrefix):]
	}
	return zarrpath.Prefix + w.path.MainPath
}

// Close releases the inner store. The first call releases the handle;
// later calls are no-ops.
func (w *Wrapper) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.inner.Close()
}

func trimFloat(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
