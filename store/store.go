package store

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/eoscience/eopfzarr/zarrpath"
)

// Subdataset is one entry of the inner store's native child-resource
// listing. Name carries the inner ZARR: prefix.
type Subdataset struct {
	Name string
	Desc string
}

// Store is the inner array-store handle. The wrapper treats it as a
// black box: it never decodes chunk payloads itself and forwards all
// pixel access verbatim.
type Store interface {
	Description() string
	RasterXSize() int
	RasterYSize() int
	RasterCount() int
	DataType(band int) string
	BlockSize(band int) (x, y int)
	ReadBlock(band, blockX, blockY int, buf []byte) error
	Subdatasets() []Subdataset
	Metadata() map[string]string
	Close() error
}

// OpenFunc opens a Store for a plain path or a ZARR:"path":sub name.
type OpenFunc func(name string) (Store, error)

var ErrSubdatasetNotMatched = errors.New("subdataset not matched")

// Opener opens main datasets and sub-resources against an OpenFunc.
type Opener struct {
	Open    OpenFunc
	Verbose bool
}

// OpenMain opens the resolved main path.
func (o *Opener) OpenMain(rp zarrpath.ResolvedPath) (Store, error) {
	return o.Open(rp.MainPath)
}

// OpenSub opens a sub-resource. The joined main/sub path is tried
// first, then the sub path is matched against the parent's subdataset
// listing. A listing entry matches when the tail of its ZARR:"path":sub
// name equals the requested sub path, ignoring a leading separator on
// either side.
func (o *Opener) OpenSub(rp zarrpath.ResolvedPath) (Store, error) {
	direct := rp.MainPath
	if !strings.HasSuffix(direct, "/") && !strings.HasSuffix(direct, "\\") {
		direct += "/"
	}
	direct += rp.SubPath

	ds, err := o.Open(direct)
	if err == nil {
		return ds, nil
	}
	if o.Verbose {
		log.Printf("store: direct subdataset open failed for %v, trying parent listing", direct)
	}

	parent, err := o.Open(rp.MainPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parent dataset %v: %v", rp.MainPath, err)
	}
	defer parent.Close()

	want := strings.TrimLeft(rp.SubPath, "/\\")
	for _, sds := range parent.Subdatasets() {
		_, sub, ok := SplitZarrName(sds.Name)
		if !ok {
			continue
		}
		if strings.TrimLeft(sub, "/\\") != want {
			continue
		}
		ds, err := o.Open(sds.Name)
		if err == nil {
			return ds, nil
		}
		if o.Verbose {
			log.Printf("store: matched subdataset %v failed to open: %v", sds.Name, err)
		}
	}

	return nil, ErrSubdatasetNotMatched
}

// SplitZarrName splits a ZARR:"main":sub subdataset name. ok is false
// for names without the inner prefix.
func SplitZarrName(name string) (main, sub string, ok bool) {
	if len(name) < len(zarrpath.InnerPrefix) ||
		!strings.EqualFold(name[:len(zarrpath.InnerPrefix)], zarrpath.InnerPrefix) {
		return "", "", false
	}
	rest := name[len(zarrpath.InnerPrefix):]

	if strings.HasPrefix(rest, `"`) {
		end := strings.Index(rest[1:], `"`)
		if end < 0 {
			return "", "", false
		}
		main = rest[1 : end+1]
		tail := rest[end+2:]
		sub = strings.TrimPrefix(tail, ":")
		return main, sub, true
	}

	// Unquoted form: main:sub with the main part free of colons.
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		return rest[:i], rest[i+1:], true
	}
	return rest, "", true
}

// ZarrName builds the inner store's canonical subdataset name.
func ZarrName(main, sub string) string {
	if sub == "" {
		return fmt.Sprintf(`%s"%s"`, zarrpath.InnerPrefix, main)
	}
	if !strings.HasPrefix(sub, "/") {
		sub = "/" + sub
	}
	return fmt.Sprintf(`%s"%s":%s`, zarrpath.InnerPrefix, main, sub)
}
