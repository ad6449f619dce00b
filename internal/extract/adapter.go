// Package extract normalizes per-language parse trees into the unified code
// model. Java and Kotlin go through tree-sitter; XML resources are decoded
// into synthetic id-bearing entities just deep enough for edge derivation.
package extract

import (
	"context"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/kotlin"

	apperrors "github.com/codescribe/codescribe-go/internal/errors"
	"github.com/codescribe/codescribe-go/internal/lang"
	"github.com/codescribe/codescribe-go/internal/model"
)

// Version identifies the extractor logic. It feeds the content fingerprint,
// so bumping it invalidates every cached result.
const Version = "v1"

// Adapter turns raw file bytes into a FileEntity. Safe for concurrent use:
// each Extract call creates its own tree-sitter parser (CGO parsers are not
// shareable across goroutines).
type Adapter struct {
	logger *slog.Logger
}

func NewAdapter() *Adapter {
	return &Adapter{logger: slog.Default().With("component", "extract")}
}

// Extract builds the code model for one file. Unknown file types yield an
// empty FileEntity tagged unknown, never an error. Recoverable syntax errors
// yield a best-effort model with the degraded regions noted in Metadata;
// only a tree the parser cannot produce at all is a ParseError.
func (a *Adapter) Extract(ctx context.Context, path string, content []byte) (*model.FileEntity, error) {
	language := lang.Detect(path)

	switch language {
	case model.LangJava, model.LangKotlin:
		return a.extractTree(ctx, path, content, language)
	case model.LangXML:
		return extractXML(path, content), nil
	default:
		return &model.FileEntity{
			Path:     path,
			Language: model.LangUnknown,
			Span:     model.Span{Start: 0, End: uint32(len(content))},
		}, nil
	}
}

func (a *Adapter) extractTree(ctx context.Context, path string, content []byte, language model.Language) (*model.FileEntity, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	switch language {
	case model.LangJava:
		parser.SetLanguage(java.GetLanguage())
	case model.LangKotlin:
		parser.SetLanguage(kotlin.GetLanguage())
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, apperrors.ParseError(err, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, apperrors.ParseErrorf("no parse tree for %s", path)
	}

	var file *model.FileEntity
	switch language {
	case model.LangJava:
		file = extractJava(path, root, content)
	case model.LangKotlin:
		file = extractKotlin(path, root, content)
	}
	file.ResourceRefs = scanResourceRefs(content)

	if root.HasError() {
		if file.Metadata == nil {
			file.Metadata = make(map[string]string)
		}
		file.Metadata["degraded"] = "syntax errors, model is best-effort"
		a.logger.Warn("partial parse", "path", path, "language", language)
	}

	return file, nil
}
