package store

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// arrayMeta is the Zarr v2 .zarray document, reduced to the fields the
// wrapper needs for shape and chunk addressing.
type arrayMeta struct {
	Chunks     []int           `json:"chunks"`
	Compressor json.RawMessage `json:"compressor"`
	DType      string          `json:"dtype"`
	Shape      []int           `json:"shape"`
	ZarrFormat int             `json:"zarr_format"`
}

func (m *arrayMeta) compressed() bool {
	return len(m.Compressor) > 0 && string(m.Compressor) != "null"
}

// Local is a filesystem-backed Zarr v2 store. It serves shape, the
// child-array listing and raw uncompressed chunks; codecs are out of
// scope and compressed chunks are an explicit error.
type Local struct {
	root   string
	sub    string
	meta   *arrayMeta
	arrays []string
	attrs  map[string]string
}

// OpenLocal opens a plain directory path or a ZARR:"main":sub name.
func OpenLocal(name string) (Store, error) {
	main, sub, ok := SplitZarrName(name)
	if !ok {
		main = name
	}
	sub = strings.Trim(sub, "/")

	if _, err := os.Stat(main); err != nil {
		return nil, fmt.Errorf("path does not exist: %v", main)
	}

	l := &Local{root: main, sub: sub}
	l.attrs = loadScalarAttrs(filepath.Join(main, ".zattrs"))

	arrayRoot := main
	if sub != "" {
		arrayRoot = filepath.Join(main, filepath.FromSlash(sub))
	}

	meta, err := loadArrayMeta(filepath.Join(arrayRoot, ".zarray"))
	if err == nil {
		l.meta = meta
		return l, nil
	}
	if sub != "" {
		return nil, fmt.Errorf("no array at %v: %v", arrayRoot, err)
	}

	// Group root: enumerate child arrays.
	l.arrays, err = listArrays(main)
	if err != nil {
		return nil, err
	}
	if len(l.arrays) == 0 {
		return nil, fmt.Errorf("no zarr arrays under %v", main)
	}
	return l, nil
}

func loadArrayMeta(path string) (*arrayMeta, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta arrayMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("malformed .zarray at %v: %v", path, err)
	}
	if len(meta.Shape) == 0 || len(meta.Chunks) != len(meta.Shape) {
		return nil, fmt.Errorf("inconsistent shape/chunks in %v", path)
	}
	return &meta, nil
}

// listArrays returns the relative slash-separated paths of all child
// arrays, preferring the consolidated .zmetadata key list over a
// directory walk. Paths are sorted for stable listings.
func listArrays(root string) ([]string, error) {
	var arrays []string

	raw, err := os.ReadFile(filepath.Join(root, ".zmetadata"))
	if err == nil {
		var doc struct {
			Metadata map[string]json.RawMessage `json:"metadata"`
		}
		if json.Unmarshal(raw, &doc) == nil && doc.Metadata != nil {
			for key := range doc.Metadata {
				if strings.HasSuffix(key, "/.zarray") {
					arrays = append(arrays, strings.TrimSuffix(key, "/.zarray"))
				}
			}
			sort.Strings(arrays)
			return arrays, nil
		}
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != ".zarray" {
			return err
		}
		rel, relErr := filepath.Rel(root, filepath.Dir(path))
		if relErr == nil && rel != "." {
			arrays = append(arrays, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(arrays)
	return arrays, nil
}

func loadScalarAttrs(path string) map[string]string {
	attrs := map[string]string{}
	raw, err := os.ReadFile(path)
	if err != nil {
		return attrs
	}
	var doc map[string]interface{}
	if json.Unmarshal(raw, &doc) != nil {
		return attrs
	}
	for key, val := range doc {
		switch v := val.(type) {
		case string:
			attrs[key] = v
		case float64:
			attrs[key] = strconv.FormatFloat(v, 'g', -1, 64)
		case bool:
			attrs[key] = strconv.FormatBool(v)
		}
	}
	return attrs
}

func (l *Local) Description() string {
	if l.sub != "" {
		return filepath.Join(l.root, filepath.FromSlash(l.sub))
	}
	return l.root
}

func (l *Local) RasterXSize() int {
	if l.meta == nil {
		return 0
	}
	return l.meta.Shape[len(l.meta.Shape)-1]
}

func (l *Local) RasterYSize() int {
	if l.meta == nil {
		return 0
	}
	if len(l.meta.Shape) < 2 {
		return 1
	}
	return l.meta.Shape[len(l.meta.Shape)-2]
}

func (l *Local) RasterCount() int {
	if l.meta == nil {
		return 0
	}
	if len(l.meta.Shape) >= 3 {
		return l.meta.Shape[0]
	}
	return 1
}

func (l *Local) DataType(band int) string {
	if l.meta == nil {
		return ""
	}
	return dtypeName(l.meta.DType)
}

func (l *Local) BlockSize(band int) (int, int) {
	if l.meta == nil {
		return 0, 0
	}
	bx := l.meta.Chunks[len(l.meta.Chunks)-1]
	by := 1
	if len(l.meta.Chunks) >= 2 {
		by = l.meta.Chunks[len(l.meta.Chunks)-2]
	}
	return bx, by
}

// ReadBlock copies one raw chunk into buf. Missing chunk files are
// fill-value chunks and leave buf zeroed.
func (l *Local) ReadBlock(band, blockX, blockY int, buf []byte) error {
	if l.meta == nil {
		return fmt.Errorf("dataset %v has no raster bands", l.root)
	}
	if l.meta.compressed() {
		return fmt.Errorf("compressed chunks are not supported by the local store")
	}
	if band < 1 || band > l.RasterCount() {
		return fmt.Errorf("band %d out of range", band)
	}

	var key string
	switch len(l.meta.Shape) {
	case 1:
		key = strconv.Itoa(blockX)
	case 2:
		key = fmt.Sprintf("%d.%d", blockY, blockX)
	default:
		key = fmt.Sprintf("%d.%d.%d", band-1, blockY, blockX)
	}

	if size := DTypeSize(l.meta.DType); size > 0 {
		bx, by := l.BlockSize(band)
		if need := bx * by * size; len(buf) < need {
			return fmt.Errorf("buffer too small for chunk %v: %d < %d", key, len(buf), need)
		}
	}

	arrayRoot := l.root
	if l.sub != "" {
		arrayRoot = filepath.Join(l.root, filepath.FromSlash(l.sub))
	}
	raw, err := os.ReadFile(filepath.Join(arrayRoot, key))
	if os.IsNotExist(err) {
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}
	if err != nil {
		return err
	}
	if len(raw) > len(buf) {
		return fmt.Errorf("chunk %v larger than buffer: %d > %d", key, len(raw), len(buf))
	}
	copy(buf, raw)
	return nil
}

func (l *Local) Subdatasets() []Subdataset {
	var subs []Subdataset
	for _, rel := range l.arrays {
		desc := rel
		if meta, err := loadArrayMeta(filepath.Join(l.root, filepath.FromSlash(rel), ".zarray")); err == nil {
			h, w := 1, meta.Shape[len(meta.Shape)-1]
			if len(meta.Shape) >= 2 {
				h = meta.Shape[len(meta.Shape)-2]
			}
			desc = fmt.Sprintf("[%dx%d] /%s (%s)", h, w, rel, dtypeName(meta.DType))
		}
		subs = append(subs, Subdataset{
			Name: ZarrName(l.root, rel),
			Desc: desc,
		})
	}
	return subs
}

func (l *Local) Metadata() map[string]string {
	out := make(map[string]string, len(l.attrs))
	for key, val := range l.attrs {
		out[key] = val
	}
	return out
}

func (l *Local) Close() error {
	return nil
}

// dtypeName maps a numpy-style dtype string to a plain type name, in
// the spirit of the Zarr v2 data-type encoding.
func dtypeName(dtype string) string {
	if len(dtype) < 3 {
		return dtype
	}
	size, err := strconv.Atoi(dtype[2:])
	if err != nil {
		return dtype
	}
	bits := size * 8
	switch dtype[1] {
	case 'b':
		return "Bool"
	case 'i':
		return fmt.Sprintf("Int%d", bits)
	case 'u':
		return fmt.Sprintf("UInt%d", bits)
	case 'f':
		return fmt.Sprintf("Float%d", bits)
	}
	return dtype
}

// DTypeSize returns the per-element byte size of a numpy-style dtype
// string, or 0 when it cannot be determined.
func DTypeSize(dtype string) int {
	if len(dtype) < 3 {
		return 0
	}
	size, err := strconv.Atoi(dtype[2:])
	if err != nil {
		return 0
	}
	return size
}
