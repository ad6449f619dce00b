package extract

import (
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codescribe/codescribe-go/internal/model"
)

func nodeText(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return string(src[n.StartByte():n.EndByte()])
}

func nodeSpan(n *sitter.Node) model.Span {
	return model.Span{Start: n.StartByte(), End: n.EndByte()}
}

func firstChildOfType(n *sitter.Node, types ...string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		for _, t := range types {
			if child.Type() == t {
				return child
			}
		}
	}
	return nil
}

func childrenOfType(n *sitter.Node, types ...string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		for _, t := range types {
			if child.Type() == t {
				out = append(out, child)
			}
		}
	}
	return out
}

// resourceRefPattern matches R.<type>.<name> references in Java and Kotlin
// bodies. Method bodies are otherwise not parsed for call edges; resource id
// literals are the one sanctioned exception.
var resourceRefPattern = regexp.MustCompile(`\bR\.(?:id|layout|string|drawable|color|dimen|menu)\.(\w+)`)

func scanResourceRefs(content []byte) []string {
	matches := resourceRefPattern.FindAllSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var refs []string
	for _, m := range matches {
		name := string(m[1])
		if !seen[name] {
			seen[name] = true
			refs = append(refs, name)
		}
	}
	return refs
}
