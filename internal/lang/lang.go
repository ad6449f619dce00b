// Package lang classifies source files by path. It is the leaf of the
// pipeline: everything downstream trusts its language tag.
package lang

import (
	"path/filepath"
	"strings"

	"github.com/codescribe/codescribe-go/internal/model"
)

var extensions = map[string]model.Language{
	".java": model.LangJava,
	".kt":   model.LangKotlin,
	".kts":  model.LangKotlin,
	".xml":  model.LangXML,
}

// Detect returns the language for a file path. Unrecognized extensions map
// to LangUnknown, never to an error; such files still flow through the
// pipeline with an empty model.
func Detect(path string) model.Language {
	ext := strings.ToLower(filepath.Ext(path))
	if l, ok := extensions[ext]; ok {
		return l
	}
	return model.LangUnknown
}

// IsSource reports whether the path carries one of the supported languages.
func IsSource(path string) bool {
	return Detect(path) != model.LangUnknown
}
