package georef

import (
	"fmt"
	"math"
	"strings"
)

// GeoTransform is the 6-parameter affine mapping from pixel to world
// coordinates: [originX, pixelWidth, 0, originY, 0, -pixelHeight].
// Rotation terms are always zero; rotated grids are not supported.
type GeoTransform [6]float64

// BuildGeoTransform derives the transform for a north-up grid from an
// extent and the raster pixel dimensions. Zero or negative dimensions
// mean no transform is possible, which is not an error.
func BuildGeoTransform(ext Extent, width, height int) (GeoTransform, bool) {
	if width <= 0 || height <= 0 {
		return GeoTransform{}, false
	}
	return GeoTransform{
		ext.MinX,
		(ext.MaxX - ext.MinX) / float64(width),
		0,
		ext.MaxY,
		0,
		-math.Abs((ext.MaxY - ext.MinY) / float64(height)),
	}, true
}

// String renders the transform as the comma-joined 12-decimal form
// published in the metadata dictionary.
func (gt GeoTransform) String() string {
	parts := make([]string, len(gt))
	for i, v := range gt {
		parts[i] = fmt.Sprintf("%.12f", v)
	}
	return strings.Join(parts, ",")
}
