package zarrpath

import (
	"strings"
)

// Prefix is the identifier prefix claimed by this layer. The inner
// store publishes its subdatasets under InnerPrefix.
const Prefix = "EOPFZARR:"
const InnerPrefix = "ZARR:"

// ResolvedPath is the outcome of parsing a composite resource
// identifier such as EOPFZARR:"/data/x.zarr":measurements/b02.
type ResolvedPath struct {
	MainPath     string
	SubPath      string
	IsRemote     bool
	IsVirtual    bool
	IsSubdataset bool
}

// Parse splits a raw identifier into main path, optional sub-resource
// path and remote/virtual flags. Ambiguous input degrades to "whole
// string is the main path" rather than erroring.
func Parse(full string) ResolvedPath {
	var result ResolvedPath

	path := StripPrefix(full)

	// If a quoted substring is present its contents are the main path
	// for classification purposes, colons inside it notwithstanding.
	quoted, tail, hasQuote := splitQuoted(path)

	checkPath := path
	if hasQuote {
		checkPath = quoted
	}

	result.IsRemote = strings.Contains(checkPath, "://")
	result.IsVirtual = result.IsRemote || hasVSIPrefix(checkPath)

	if result.IsRemote || result.IsVirtual {
		result.MainPath = checkPath
		// Remote identifiers legitimately contain colons, so the only
		// recognised sub-resource form is the quoted one. The
		// sub-resource is folded into the main path because remote
		// stores address children as plain sub-paths.
		if hasQuote && strings.HasPrefix(tail, ":") {
			sub := strings.TrimPrefix(tail[1:], "/")
			if !strings.HasSuffix(result.MainPath, "/") {
				result.MainPath += "/"
			}
			result.MainPath += sub
		}
		return result
	}

	if hasQuote {
		result.MainPath = normalize(quoted)
		if strings.HasPrefix(tail, ":") {
			result.SubPath = tail[1:]
			result.IsSubdataset = true
		}
		return result
	}

	main, sub, ok := splitColon(path)
	if ok {
		result.MainPath = normalize(main)
		result.SubPath = sub
		result.IsSubdataset = true
		return result
	}

	result.MainPath = normalize(path)
	return result
}

// StripPrefix removes a leading layer prefix, case-insensitively.
func StripPrefix(path string) string {
	if len(path) >= len(Prefix) && strings.EqualFold(path[:len(Prefix)], Prefix) {
		return path[len(Prefix):]
	}
	return path
}

func hasVSIPrefix(path string) bool {
	return len(path) >= 4 && strings.EqualFold(path[:4], "/vsi")
}

// splitQuoted extracts the contents of the first "..." pair and
// whatever follows the closing quote.
func splitQuoted(path string) (quoted, tail string, ok bool) {
	start := strings.IndexByte(path, '"')
	if start < 0 {
		return "", "", false
	}
	end := strings.IndexByte(path[start+1:], '"')
	if end < 0 || end == 0 {
		return "", "", false
	}
	end += start + 1
	return path[start+1 : end], path[end+1:], true
}

// splitColon splits on the first colon that is not a single-letter
// drive designator.
func splitColon(path string) (main, sub string, ok bool) {
	i := strings.IndexByte(path, ':')
	if i == 1 && isDriveLetter(path[0]) {
		j := strings.IndexByte(path[2:], ':')
		if j < 0 {
			return path, "", false
		}
		i = j + 2
	}
	if i < 0 {
		return path, "", false
	}
	return path[:i], path[i+1:], true
}

func isDriveLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// normalize strips a spurious leading separator before a drive
// designator (/C:/data) and trailing separators, leaving roots alone.
func normalize(path string) string {
	if len(path) >= 3 && isSep(path[0]) && isDriveLetter(path[1]) && path[2] == ':' {
		path = path[1:]
	}
	for len(path) > 1 && isSep(path[len(path)-1]) {
		if len(path) == 3 && path[1] == ':' {
			break
		}
		path = path[:len(path)-1]
	}
	return path
}

func isSep(c byte) bool {
	return c == '/' || c == '\\'
}
