package main

/* eopfinfo opens an EOPF-Zarr dataset identifier and dumps the
   resolved georeferencing and merged metadata as JSON. It exists for
   inspecting what the driver derives for a given product without
   attaching a full raster consumer. */

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/eoscience/eopfzarr/config"
	"github.com/eoscience/eopfzarr/registry"
)

var (
	configFile = flag.String("conf", "", "Service config file (JSON).")
	optIn      = flag.Bool("process", false, "Claim bare paths without the EOPFZARR: prefix.")
	verbose    = flag.Bool("v", false, "Verbose mode for more outputs.")
)

type report struct {
	Identifier   string            `json:"identifier"`
	Description  string            `json:"description"`
	RasterXSize  int               `json:"raster_x_size"`
	RasterYSize  int               `json:"raster_y_size"`
	RasterCount  int               `json:"raster_count"`
	EPSG         int               `json:"epsg"`
	WKT          string            `json:"wkt,omitempty"`
	GeoTransform []float64         `json:"geo_transform,omitempty"`
	Extent       []float64         `json:"extent"`
	LonLatBounds []float64         `json:"lonlat_bounds"`
	Metadata     map[string]string `json:"metadata"`
	Subdatasets  map[string]string `json:"subdatasets,omitempty"`
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <identifier>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	identifier := flag.Arg(0)

	cfg := &config.ServiceConfig{}
	if *configFile != "" {
		var err error
		cfg, err = config.LoadConfigFile(*configFile)
		if err != nil {
			log.Fatalf("%v", err)
		}
	}
	if *verbose {
		cfg.Verbose = true
	}

	reg, err := registry.New(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer reg.Shutdown()

	req := registry.OpenRequest{Identifier: identifier}
	if *optIn {
		req.Options = map[string]string{registry.ProcessOption: "YES"}
	}
	ds, err := reg.Open(req)
	if err != nil {
		log.Fatalf("failed to open %v: %v", identifier, err)
	}
	defer ds.Close()

	srs := ds.SpatialRef()
	ext, bound := ds.Extent()
	out := report{
		Identifier:   identifier,
		Description:  ds.Description(),
		RasterXSize:  ds.RasterXSize(),
		RasterYSize:  ds.RasterYSize(),
		RasterCount:  ds.RasterCount(),
		EPSG:         srs.EPSG,
		WKT:          srs.WKT,
		Extent:       []float64{ext.MinX, ext.MinY, ext.MaxX, ext.MaxY},
		LonLatBounds: []float64{bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1]},
		Metadata:     ds.Metadata(),
	}
	if gt, ok := ds.GeoTransform(); ok {
		out.GeoTransform = gt[:]
	}
	if subs := ds.Subdatasets(); len(subs) > 0 {
		out.Subdatasets = ds.MetadataDomain("SUBDATASETS")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		log.Fatalf("%v", err)
	}
}
