package dataset

import (
	"fmt"
	"log"

	"github.com/eoscience/eopfzarr/georef"
	"github.com/eoscience/eopfzarr/metadata"
	"github.com/eoscience/eopfzarr/store"
	"github.com/eoscience/eopfzarr/zarrpath"
)

// Options configures Open. Zero-value fields pick the local store,
// fresh caches and the built-in defaults.
type Options struct {
	Verbose   bool
	OpenStore store.OpenFunc
	Loader    *metadata.Loader
	Defaults  *georef.Defaults
	Caches    *Caches
}

func (o Options) withDefaults() Options {
	if o.OpenStore == nil {
		o.OpenStore = store.OpenLocal
	}
	if o.Loader == nil {
		o.Loader = metadata.NewLoader(o.Verbose)
	}
	if o.Defaults == nil {
		o.Defaults = georef.NewDefaults()
	}
	if o.Caches == nil {
		o.Caches = NewCaches(0, o.Verbose)
	}
	return o
}

// Open resolves an identifier and opens the inner store behind it.
// Missing metadata, unresolvable references and absent bounds are all
// absorbed downstream; the inner store failing to open is the one
// fatal condition.
func Open(identifier string, opts Options) (*Wrapper, error) {
	opts = opts.withDefaults()
	rp := zarrpath.Parse(identifier)
	if rp.MainPath == "" {
		return nil, fmt.Errorf("empty dataset identifier %q", identifier)
	}
	if opts.Verbose {
		log.Printf("dataset: opening %v (sub %q, remote %v)", rp.MainPath, rp.SubPath, rp.IsRemote)
	}

	opener := &store.Opener{Open: opts.OpenStore, Verbose: opts.Verbose}
	var (
		inner store.Store
		err   error
	)
	if rp.IsSubdataset {
		inner, err = opener.OpenSub(rp)
	} else {
		inner, err = opener.OpenMain(rp)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %v: %v", identifier, err)
	}

	return &Wrapper{
		inner:   inner,
		path:    rp,
		loader:  opts.Loader,
		defs:    opts.Defaults,
		caches:  opts.Caches,
		verbose: opts.Verbose,
	}, nil
}
