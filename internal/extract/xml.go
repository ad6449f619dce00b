package extract

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/codescribe/codescribe-go/internal/model"
)

// extractXML builds the degenerate model for a resource file: one synthetic
// class entity per element carrying an id-like attribute (android:id, id, or
// name for values resources). That is all edge derivation needs; full XML
// semantics stay out of scope. Malformed XML keeps whatever was decoded
// before the error and notes the degradation in Metadata.
func extractXML(path string, content []byte) *model.FileEntity {
	file := &model.FileEntity{
		Path:     path,
		Language: model.LangXML,
		Span:     model.Span{Start: 0, End: uint32(len(content))},
	}

	decoder := xml.NewDecoder(bytes.NewReader(content))
	for {
		tok, err := decoder.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				if file.Metadata == nil {
					file.Metadata = make(map[string]string)
				}
				file.Metadata["degraded"] = err.Error()
			}
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if id := idAttribute(start); id != "" {
			file.Classes = append(file.Classes, model.ClassEntity{
				Name:         id,
				Language:     model.LangXML,
				DeclaredType: start.Name.Local,
			})
		}
	}
	return file
}

func idAttribute(el xml.StartElement) string {
	for _, attr := range el.Attr {
		switch attr.Name.Local {
		case "id", "name":
			return stripIDPrefix(attr.Value)
		}
	}
	return ""
}

// stripIDPrefix reduces "@+id/submit_button" and "@id/submit_button" to the
// bare name that R.id references use.
func stripIDPrefix(v string) string {
	v = strings.TrimPrefix(v, "@+")
	v = strings.TrimPrefix(v, "@")
	if idx := strings.IndexByte(v, '/'); idx >= 0 {
		v = v[idx+1:]
	}
	return v
}
