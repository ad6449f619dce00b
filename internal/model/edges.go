package model

// EdgeKind classifies an inter-file dependency.
type EdgeKind string

const (
	EdgeImport            EdgeKind = "import"
	EdgeResourceReference EdgeKind = "resource_reference"
	EdgeCrossLanguageCall EdgeKind = "cross_language_call"
)

// Priority orders edge kinds for context selection: cross-language calls
// outrank plain imports, which outrank resource references.
func (k EdgeKind) Priority() int {
	switch k {
	case EdgeCrossLanguageCall:
		return 3
	case EdgeImport:
		return 2
	case EdgeResourceReference:
		return 1
	default:
		return 0
	}
}

// DependencyEdge is one directed edge of the relationship graph. Edges are
// derived purely from current code models; a file's outgoing edge set is
// replaced wholesale whenever its model changes.
type DependencyEdge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind EdgeKind `json:"kind"`
}
