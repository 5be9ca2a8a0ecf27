package zarrpath

import (
	"testing"
)

func TestParseQuotedWithSubdataset(t *testing.T) {
	p := Parse(`EOPFZARR:"/data/x.zarr":b/c`)
	if p.MainPath != "/data/x.zarr" {
		t.Errorf("unexpected main path: %v", p.MainPath)
	}
	if p.SubPath != "b/c" {
		t.Errorf("unexpected sub path: %v", p.SubPath)
	}
	if !p.IsSubdataset {
		t.Errorf("expected subdataset flag: %+v", p)
	}
	if p.IsRemote || p.IsVirtual {
		t.Errorf("local path flagged remote: %+v", p)
	}
}

func TestParseQuotedWithoutSubdataset(t *testing.T) {
	p := Parse(`EOPFZARR:"/data/x.zarr"`)
	if p.MainPath != "/data/x.zarr" || p.SubPath != "" || p.IsSubdataset {
		t.Errorf("unexpected parse: %+v", p)
	}
}

func TestParseURLNeverSplitOnColons(t *testing.T) {
	p := Parse("https://host:8080/products/x.zarr")
	if p.MainPath != "https://host:8080/products/x.zarr" {
		t.Errorf("URL was split: %+v", p)
	}
	if p.IsSubdataset {
		t.Errorf("URL flagged as subdataset: %+v", p)
	}
	if !p.IsRemote || !p.IsVirtual {
		t.Errorf("URL not flagged remote: %+v", p)
	}
}

func TestParseQuotedURLFoldsSubPath(t *testing.T) {
	p := Parse(`EOPFZARR:"https://host/x.zarr":/measurements/b02`)
	if p.MainPath != "https://host/x.zarr/measurements/b02" {
		t.Errorf("unexpected main path: %v", p.MainPath)
	}
	if p.IsSubdataset {
		t.Errorf("remote sub-open must stay a single main path: %+v", p)
	}
}

func TestParseVirtualPath(t *testing.T) {
	p := Parse("/vsicurl/https://host/x.zarr")
	if !p.IsVirtual {
		t.Errorf("vsi path not flagged virtual: %+v", p)
	}
	if p.MainPath != "/vsicurl/https://host/x.zarr" {
		t.Errorf("vsi path changed: %v", p.MainPath)
	}
}

func TestParseDriveLetterNotASeparator(t *testing.T) {
	p := Parse(`C:\data\x.zarr`)
	if p.MainPath != `C:\data\x.zarr` || p.IsSubdataset {
		t.Errorf("drive colon mistaken for separator: %+v", p)
	}

	p = Parse(`C:\data\x.zarr:band1`)
	if p.MainPath != `C:\data\x.zarr` || p.SubPath != "band1" {
		t.Errorf("drive path with subdataset misparsed: %+v", p)
	}
}

func TestParseBareColonSplit(t *testing.T) {
	p := Parse("EOPFZARR:/data/x.zarr")
	if p.MainPath != "/data/x.zarr" || p.IsSubdataset {
		t.Errorf("prefix strip failed: %+v", p)
	}

	p = Parse("/data/x.zarr:measurements")
	if p.MainPath != "/data/x.zarr" || p.SubPath != "measurements" || !p.IsSubdataset {
		t.Errorf("bare split failed: %+v", p)
	}
}

func TestParseNormalizesPaths(t *testing.T) {
	p := Parse(`"/C:/data/x.zarr"`)
	if p.MainPath != "C:/data/x.zarr" {
		t.Errorf("leading separator before drive kept: %v", p.MainPath)
	}

	p = Parse(`"/data/x.zarr/"`)
	if p.MainPath != "/data/x.zarr" {
		t.Errorf("trailing separator kept: %v", p.MainPath)
	}
}

func TestStripPrefixCaseInsensitive(t *testing.T) {
	if StripPrefix("eopfzarr:/a") != "/a" {
		t.Errorf("case-insensitive strip failed")
	}
	if StripPrefix("/a") != "/a" {
		t.Errorf("prefix-free path changed")
	}
}
