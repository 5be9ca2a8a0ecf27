package metadata

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/nci/gomemcache/memcache"

	"github.com/eoscience/eopfzarr/cache"
)

const ConsolidatedDoc = ".zmetadata"
const AttrsDoc = ".zattrs"

// Loader loads attribute documents for store nodes: the consolidated
// .zmetadata first, a per-node .zattrs second. Absent and malformed
// documents are the same non-event; callers get an empty verdict and
// run their resolvers against an empty tree.
type Loader struct {
	HTTP     *http.Client
	Memcache *memcache.Client
	Verbose  bool

	// Network holds raw remote documents, Existence remote probe
	// results. Both are optional; local reads bypass them.
	Network   *cache.Cache[[]byte]
	Existence *cache.Cache[bool]
}

func NewLoader(verbose bool) *Loader {
	return &Loader{
		HTTP:      http.DefaultClient,
		Verbose:   verbose,
		Network:   cache.New[[]byte](cache.DefaultCeiling, verbose),
		Existence: cache.New[bool](cache.DefaultCeiling, verbose),
	}
}

// Load returns the attribute tree for node (empty string for the root
// node) under rootPath. The second return is false when no usable
// document was found.
func (l *Loader) Load(rootPath, node string) (Tree, bool) {
	if tree, ok := l.loadConsolidated(rootPath, node); ok {
		return tree, true
	}

	nodeRoot := joinPath(rootPath, node)
	raw, ok := l.fetch(joinPath(nodeRoot, AttrsDoc))
	if !ok {
		return nil, false
	}
	tree, ok := parseTree(raw)
	if !ok {
		if l.Verbose {
			log.Printf("metadata: malformed %v under %v, treating as absent", AttrsDoc, nodeRoot)
		}
		return nil, false
	}
	return tree, true
}

// loadConsolidated pulls this node's attribute object out of the
// consolidated document, which keys every node's documents by path
// under a "metadata" section.
func (l *Loader) loadConsolidated(rootPath, node string) (Tree, bool) {
	raw, ok := l.fetch(joinPath(rootPath, ConsolidatedDoc))
	if !ok {
		return nil, false
	}
	doc, ok := parseTree(raw)
	if !ok {
		if l.Verbose {
			log.Printf("metadata: malformed %v under %v, treating as absent", ConsolidatedDoc, rootPath)
		}
		return nil, false
	}
	section, ok := doc.GetObject("metadata")
	if !ok {
		return nil, false
	}

	key := AttrsDoc
	if node != "" {
		key = strings.Trim(node, "/") + "/" + AttrsDoc
	}
	return section.GetObject(key)
}

// Exists reports whether a path exists. Local paths are checked
// directly; remote paths are probed with a HEAD request.
func (l *Loader) Exists(path string) bool {
	if url, remote := remoteURL(path); remote {
		if l.Existence != nil {
			if exists, ok := l.Existence.Get(url); ok {
				return exists
			}
		}
		exists := false
		if resp, err := l.httpClient().Head(url); err == nil {
			resp.Body.Close()
			exists = resp.StatusCode < 400
		}
		if l.Existence != nil {
			l.Existence.Put(url, exists, cache.ClassNetwork)
		}
		return exists
	}
	_, err := os.Stat(path)
	return err == nil
}

func (l *Loader) fetch(path string) ([]byte, bool) {
	url, remote := remoteURL(path)
	if !remote {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, false
		}
		return raw, true
	}

	if l.Network != nil {
		if raw, ok := l.Network.Get(url); ok {
			return raw, true
		}
	}

	var cacheKey string
	if l.Memcache != nil {
		hash := md5.Sum([]byte(url))
		cacheKey = hex.EncodeToString(hash[:])
		if item, err := l.Memcache.Get(cacheKey); err == nil {
			return item.Value, true
		}
	}

	if l.Verbose {
		log.Printf("metadata: fetching %v", url)
	}
	resp, err := l.httpClient().Get(url)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false
	}

	if l.Network != nil {
		l.Network.Put(url, raw, cache.ClassNetwork)
	}
	if l.Memcache != nil {
		l.Memcache.Set(&memcache.Item{Key: cacheKey, Value: raw})
	}
	return raw, true
}

func (l *Loader) httpClient() *http.Client {
	if l.HTTP != nil {
		return l.HTTP
	}
	return http.DefaultClient
}

func parseTree(raw []byte) (Tree, bool) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false
	}
	return Tree(doc), true
}

// IsRemotePath reports whether path addresses a network resource,
// directly or through the /vsicurl/ virtual prefix.
func IsRemotePath(path string) bool {
	_, remote := remoteURL(path)
	return remote
}

// remoteURL maps a remote or virtual path to a fetchable URL. The
// /vsicurl/ virtual prefix wraps a plain URL.
func remoteURL(path string) (string, bool) {
	if strings.HasPrefix(path, "/vsicurl/") {
		return path[len("/vsicurl/"):], true
	}
	if strings.Contains(path, "://") {
		return path, true
	}
	return "", false
}

// joinPath joins with URL separators for remote paths and the platform
// separator otherwise.
func joinPath(root, name string) string {
	if name == "" {
		return root
	}
	if _, remote := remoteURL(root); remote {
		return strings.TrimSuffix(root, "/") + "/" + strings.Trim(name, "/")
	}
	return filepath.Join(root, filepath.FromSlash(name))
}
