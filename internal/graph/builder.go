// Package graph maintains the project-wide relationship graph: a directed
// multigraph over file paths, derived purely from code models. Files are
// keyed by path rather than linked by pointer, so cyclic imports never form
// a live object cycle.
package graph

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/codescribe/codescribe-go/internal/model"
)

type fileNode struct {
	path     string
	language model.Language
	imports  []string
	refs     []string // resource ids referenced from code

	// resourceIDs is the set of ids an XML file declares.
	resourceIDs map[string]bool
}

// Builder aggregates per-file models into the graph and answers context
// queries. Concurrent reads share a lock; writes are exclusive and replace
// a file's edge set atomically.
type Builder struct {
	mu     sync.RWMutex
	logger *slog.Logger

	files    map[string]*fileNode
	outbound map[string][]model.DependencyEdge
	inbound  map[string][]model.DependencyEdge

	// declIndex maps fully-qualified class names to the declaring file.
	// On a duplicate declaration the first-seen file wins and the conflict
	// is logged.
	declIndex map[string]string
}

func NewBuilder() *Builder {
	return &Builder{
		logger:    slog.Default().With("component", "graph"),
		files:     make(map[string]*fileNode),
		outbound:  make(map[string][]model.DependencyEdge),
		inbound:   make(map[string][]model.DependencyEdge),
		declIndex: make(map[string]string),
	}
}

// AddFile registers a file's model and returns its derived outgoing edges.
// Re-adding a path replaces its previous node and edges in one step; other
// files whose imports the new file satisfies are relinked under the same
// lock, so readers never observe a half-updated edge set.
func (b *Builder) AddFile(f *model.FileEntity) []model.DependencyEdge {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.files[f.Path]; exists {
		b.removeLocked(f.Path)
	}

	node := &fileNode{
		path:     f.Path,
		language: f.Language,
		refs:     f.ResourceRefs,
	}
	for _, imp := range f.Imports {
		node.imports = append(node.imports, imp.Path)
	}
	if f.Language == model.LangXML {
		node.resourceIDs = make(map[string]bool, len(f.Classes))
		for _, c := range f.Classes {
			node.resourceIDs[c.Name] = true
		}
	}
	b.files[f.Path] = node

	for _, qn := range f.QualifiedClassNames() {
		if owner, taken := b.declIndex[qn]; taken && owner != f.Path {
			b.logger.Warn("duplicate class declaration, keeping first-seen file",
				"class", qn, "kept", owner, "ignored", f.Path)
			continue
		}
		b.declIndex[qn] = f.Path
	}

	b.relinkLocked(f.Path)

	// Files added earlier may import classes this file just declared.
	for path := range b.files {
		if path != f.Path {
			b.relinkLocked(path)
		}
	}

	return append([]model.DependencyEdge(nil), b.outbound[f.Path]...)
}

// RemoveFile drops the file and every edge touching it.
func (b *Builder) RemoveFile(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(path)
}

func (b *Builder) removeLocked(path string) {
	delete(b.files, path)
	for _, e := range b.outbound[path] {
		b.inbound[e.To] = dropEdges(b.inbound[e.To], path, true)
	}
	delete(b.outbound, path)
	for _, e := range b.inbound[path] {
		b.outbound[e.From] = dropEdges(b.outbound[e.From], path, false)
	}
	delete(b.inbound, path)
	for qn, owner := range b.declIndex {
		if owner == path {
			delete(b.declIndex, qn)
		}
	}
}

func dropEdges(edges []model.DependencyEdge, path string, byFrom bool) []model.DependencyEdge {
	kept := edges[:0]
	for _, e := range edges {
		if byFrom && e.From == path {
			continue
		}
		if !byFrom && e.To == path {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// relinkLocked recomputes one file's outgoing edges from current knowledge,
// replacing the old set wholesale.
func (b *Builder) relinkLocked(path string) {
	node := b.files[path]
	if node == nil {
		return
	}

	for _, e := range b.outbound[path] {
		b.inbound[e.To] = dropEdges(b.inbound[e.To], path, true)
	}

	var edges []model.DependencyEdge
	seen := make(map[model.DependencyEdge]bool)
	add := func(e model.DependencyEdge) {
		if !seen[e] {
			seen[e] = true
			edges = append(edges, e)
		}
	}

	for _, imp := range node.imports {
		target, ok := b.declIndex[imp]
		if !ok || target == path {
			continue
		}
		add(model.DependencyEdge{From: path, To: target, Kind: model.EdgeImport})
		if other := b.files[target]; other != nil && crossLanguage(node.language, other.language) {
			add(model.DependencyEdge{From: path, To: target, Kind: model.EdgeCrossLanguageCall})
		}
	}

	for _, ref := range node.refs {
		for target, other := range b.files {
			if target != path && other.resourceIDs[ref] {
				add(model.DependencyEdge{From: path, To: target, Kind: model.EdgeResourceReference})
			}
		}
	}

	b.outbound[path] = edges
	for _, e := range edges {
		b.inbound[e.To] = append(b.inbound[e.To], e)
	}
}

func crossLanguage(a, b model.Language) bool {
	if a == b {
		return false
	}
	code := func(l model.Language) bool { return l == model.LangJava || l == model.LangKotlin }
	return code(a) && code(b)
}

// Neighbors returns all edges touching path, outgoing first.
func (b *Builder) Neighbors(path string) []model.DependencyEdge {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := append([]model.DependencyEdge(nil), b.outbound[path]...)
	return append(out, b.inbound[path]...)
}

// EdgeCount returns the total number of edges in the graph.
func (b *Builder) EdgeCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, edges := range b.outbound {
		n += len(edges)
	}
	return n
}

// Context selects the files most relevant to analyzing path: its direct
// inbound and outbound neighbors, ordered by strongest edge kind then
// alphabetically, truncated to maxItems. Only direct neighbors are
// inspected, never the transitive closure, so cycles cannot loop it.
func (b *Builder) Context(path string, maxItems int) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	best := make(map[string]int)
	consider := func(neighbor string, kind model.EdgeKind) {
		if neighbor == path {
			return
		}
		if p := kind.Priority(); p > best[neighbor] {
			best[neighbor] = p
		}
	}
	for _, e := range b.outbound[path] {
		consider(e.To, e.Kind)
	}
	for _, e := range b.inbound[path] {
		consider(e.From, e.Kind)
	}

	neighbors := make([]string, 0, len(best))
	for n := range best {
		neighbors = append(neighbors, n)
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if best[neighbors[i]] != best[neighbors[j]] {
			return best[neighbors[i]] > best[neighbors[j]]
		}
		return neighbors[i] < neighbors[j]
	})

	if maxItems >= 0 && len(neighbors) > maxItems {
		neighbors = neighbors[:maxItems]
	}
	return neighbors
}

// Layers computes a best-effort topological layering: files depended upon
// come in earlier layers. Members of cycles cannot be ordered and end up
// grouped in the final layer, sorted for determinism; a cycle never makes
// this fail.
func (b *Builder) Layers() [][]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	// outdegree toward still-unplaced files; edges point from dependent to
	// dependency, so zero outdegree means "depends on nothing unplaced".
	degree := make(map[string]int, len(b.files))
	for path := range b.files {
		deps := make(map[string]bool)
		for _, e := range b.outbound[path] {
			if e.To != path {
				deps[e.To] = true
			}
		}
		degree[path] = len(deps)
	}

	placed := make(map[string]bool)
	var layers [][]string
	for len(placed) < len(b.files) {
		var layer []string
		for path, d := range degree {
			if !placed[path] && d == 0 {
				layer = append(layer, path)
			}
		}
		if len(layer) == 0 {
			// Everything left is cyclic; emit as one unordered group.
			for path := range degree {
				if !placed[path] {
					layer = append(layer, path)
				}
			}
			sort.Strings(layer)
			layers = append(layers, layer)
			break
		}
		sort.Strings(layer)
		layers = append(layers, layer)
		for _, path := range layer {
			placed[path] = true
		}
		for path := range degree {
			if placed[path] {
				continue
			}
			deps := make(map[string]bool)
			for _, e := range b.outbound[path] {
				if e.To != path && !placed[e.To] {
					deps[e.To] = true
				}
			}
			degree[path] = len(deps)
		}
	}
	return layers
}
