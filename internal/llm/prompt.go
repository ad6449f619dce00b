package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codescribe/codescribe-go/internal/model"
)

// BuildPrompt renders the analysis request for one file: its own
// structural summary followed by summaries of the files it depends
// on, most relevant first.
func BuildPrompt(file *model.FileEntity, contextSummaries []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "File: %s\n", file.Path)
	fmt.Fprintf(&b, "Language: %s\n", file.Language)
	if file.Package != "" {
		fmt.Fprintf(&b, "Package: %s\n", file.Package)
	}
	b.WriteString("\nStructure:\n")
	b.WriteString(model.Summary(file))

	if len(file.ResourceRefs) > 0 {
		b.WriteString("\nResource references: ")
		b.WriteString(strings.Join(file.ResourceRefs, ", "))
		b.WriteString("\n")
	}

	if len(contextSummaries) > 0 {
		b.WriteString("\nDependencies:\n")
		for _, s := range contextSummaries {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}

	b.WriteString("\nDescribe this file as JSON.\n")
	return b.String()
}

// responsePayload matches the JSON shape requested from the service.
type responsePayload struct {
	Purpose      string   `json:"purpose"`
	Components   []string `json:"components"`
	Interactions []string `json:"interactions"`
	Parameters   []string `json:"parameters"`
}

// ParseResponse converts a raw service response into an analysis
// result. Responses that are not valid JSON are kept rather than
// discarded: the raw text becomes the purpose and the result is
// marked unstructured.
func ParseResponse(path string, fp model.Fingerprint, raw string) *model.AnalysisResult {
	r := &model.AnalysisResult{
		FilePath:    path,
		Valid:       true,
		Fingerprint: fp,
	}

	text := stripFences(raw)

	var payload responsePayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		r.Purpose = strings.TrimSpace(raw)
		r.Metadata = map[string]string{"unstructured": "true"}
		return r
	}

	r.Purpose = strings.TrimSpace(payload.Purpose)
	r.Components = payload.Components
	r.Interactions = payload.Interactions
	r.Parameters = payload.Parameters
	return r
}

// stripFences removes a markdown code fence wrapper if the model
// added one despite the JSON instruction.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
