package georef

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v2"
)

// Defaults holds the documented fallback boxes used when no bounding
// information can be recovered from the metadata. The UTM values
// reproduce the product-specific defaults of the reference products
// (zone origin 500000/5000000, 30 m pixels over a 512-pixel grid);
// they are deliberately named and loadable from a YAML file rather
// than baked into the resolution logic.
type Defaults struct {
	GeographicBox [4]float64 `yaml:"geographic_box"` // minLon, minLat, maxLon, maxLat
	UTMOriginX    float64    `yaml:"utm_origin_x"`
	UTMOriginY    float64    `yaml:"utm_origin_y"`
	UTMPixelSize  float64    `yaml:"utm_pixel_size"`
	UTMGridSize   int        `yaml:"utm_grid_size"`
}

func NewDefaults() *Defaults {
	return &Defaults{
		GeographicBox: [4]float64{10, 40, 15, 45},
		UTMOriginX:    500000,
		UTMOriginY:    5000000,
		UTMPixelSize:  30,
		UTMGridSize:   512,
	}
}

// LoadDefaults overlays a YAML defaults file on the built-in values.
func LoadDefaults(path string) (*Defaults, error) {
	defs := NewDefaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, defs); err != nil {
		return nil, fmt.Errorf("malformed defaults file %v: %v", path, err)
	}
	if defs.UTMPixelSize <= 0 || defs.UTMGridSize <= 0 {
		return nil, fmt.Errorf("defaults file %v: pixel and grid sizes must be positive", path)
	}
	return defs, nil
}

func (d *Defaults) GeographicExtent() Extent {
	return Extent{
		MinX: d.GeographicBox[0],
		MinY: d.GeographicBox[1],
		MaxX: d.GeographicBox[2],
		MaxY: d.GeographicBox[3],
		Kind: Geographic,
	}
}

// UTMExtent is the default projected box: the UTM origin as the upper
// left corner of a UTMGridSize-sided grid of UTMPixelSize pixels.
func (d *Defaults) UTMExtent() Extent {
	span := float64(d.UTMGridSize) * d.UTMPixelSize
	return Extent{
		MinX: d.UTMOriginX,
		MaxX: d.UTMOriginX + span,
		MinY: d.UTMOriginY - span,
		MaxY: d.UTMOriginY,
		Kind: Projected,
	}
}

func (d *Defaults) GeographicBound() orb.Bound {
	return d.GeographicExtent().bound()
}
