// Package registry is the driver entry point: it decides which
// identifiers belong to this driver and opens them through the dataset
// facade.
package registry

import (
	"errors"
	"log"
	"strings"

	"github.com/eoscience/eopfzarr/cache"
	"github.com/eoscience/eopfzarr/config"
	"github.com/eoscience/eopfzarr/dataset"
	"github.com/eoscience/eopfzarr/georef"
	"github.com/eoscience/eopfzarr/metadata"
	"github.com/eoscience/eopfzarr/store"
	"github.com/eoscience/eopfzarr/zarrpath"
)

// ProcessOption is the open option that opts a bare path into this
// driver.
const ProcessOption = "EOPF_PROCESS"

var ErrUpdateNotSupported = errors.New("update access is not supported")
var ErrNotIdentified = errors.New("dataset not identified")

// markerKeys are the root-attribute keys whose presence marks a store
// as one of ours.
var markerKeys = []string{"stac_discovery", "eopf_category", "eopf:resolutions"}

// OpenRequest carries one open call's identifier, access mode and open
// options.
type OpenRequest struct {
	Identifier string
	Update     bool
	Options    map[string]string
}

// Registry identifies and opens datasets. Identification verdicts for
// bare paths are cached per registry.
type Registry struct {
	loader    *metadata.Loader
	defs      *georef.Defaults
	caches    *dataset.Caches
	openStore store.OpenFunc
	verbose   bool

	identified *cache.Cache[bool]
}

// New builds a registry from the service configuration. A nil config
// selects the built-in behavior throughout.
func New(cfg *config.ServiceConfig) (*Registry, error) {
	if cfg == nil {
		cfg = &config.ServiceConfig{}
	}
	defs, err := cfg.Defaults()
	if err != nil {
		return nil, err
	}

	ceiling := cfg.Ceiling()
	verbose := cfg.Verbose
	loader := cfg.Loader()
	loader.Network = cache.New[[]byte](ceiling, verbose)
	loader.Existence = cache.New[bool](ceiling, verbose)

	r := &Registry{
		loader:     loader,
		defs:       defs,
		caches:     dataset.NewCaches(ceiling, verbose),
		openStore:  store.OpenLocal,
		verbose:    verbose,
		identified: cache.New[bool](ceiling, verbose),
	}
	r.setTTLs(cfg)
	return r, nil
}

func (r *Registry) setTTLs(cfg *config.ServiceConfig) {
	meta, net := cfg.MetadataTTL(), cfg.NetworkTTL()
	r.caches.Attrs.SetTTL(cache.ClassMetadata, meta)
	r.caches.Geo.SetTTL(cache.ClassMetadata, meta)
	r.caches.Subs.SetTTL(cache.ClassMetadata, meta)
	r.caches.Exists.SetTTL(cache.ClassNetwork, net)
	r.loader.Network.SetTTL(cache.ClassNetwork, net)
	r.loader.Existence.SetTTL(cache.ClassNetwork, net)
	r.identified.SetTTL(cache.ClassMetadata, meta)
}

// Identify reports whether this driver handles the request. Update
// access is always declined.
func (r *Registry) Identify(req OpenRequest) bool {
	if req.Update {
		return false
	}
	if strings.HasPrefix(strings.ToUpper(req.Identifier), zarrpath.Prefix) {
		return true
	}
	if !optedIn(req.Options) {
		return false
	}

	rp := zarrpath.Parse(req.Identifier)
	if rp.MainPath == "" {
		return false
	}
	if verdict, ok := r.identified.Get(rp.MainPath); ok {
		return verdict
	}
	verdict := r.inspect(rp.MainPath)
	r.identified.Put(rp.MainPath, verdict, cache.ClassMetadata)
	return verdict
}

// inspect probes a bare path's root attributes for EOPF markers.
func (r *Registry) inspect(mainPath string) bool {
	attrs, ok := r.loader.Load(mainPath, "")
	if !ok {
		return false
	}
	for _, key := range markerKeys {
		if _, present := attrs[key]; present {
			if r.verbose {
				log.Printf("registry: %v identified by marker %v", mainPath, key)
			}
			return true
		}
	}
	return false
}

// Open identifies and opens the request.
func (r *Registry) Open(req OpenRequest) (*dataset.Wrapper, error) {
	if req.Update {
		return nil, ErrUpdateNotSupported
	}
	if !r.Identify(req) {
		return nil, ErrNotIdentified
	}
	return dataset.Open(req.Identifier, dataset.Options{
		Verbose:   r.verbose,
		OpenStore: r.openStore,
		Loader:    r.loader,
		Defaults:  r.defs,
		Caches:    r.caches,
	})
}

// Sweep runs one eviction pass over every cache the registry owns.
func (r *Registry) Sweep() int {
	return r.caches.Sweep() + r.loader.Network.Sweep() +
		r.loader.Existence.Sweep() + r.identified.Sweep()
}

// Shutdown drops all cached state.
func (r *Registry) Shutdown() {
	r.caches.Attrs.Clear()
	r.caches.Geo.Clear()
	r.caches.Subs.Clear()
	r.caches.Exists.Clear()
	r.loader.Network.Clear()
	r.loader.Existence.Clear()
	r.identified.Clear()
}

func optedIn(options map[string]string) bool {
	switch strings.ToUpper(options[ProcessOption]) {
	case "YES", "TRUE", "1":
		return true
	}
	return false
}
