// Package report assembles per-file analysis results into a single
// deterministic project document.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/codescribe/codescribe-go/internal/graph"
	"github.com/codescribe/codescribe-go/internal/model"
)

// FileSection is one file's entry in the project report.
type FileSection struct {
	Path         string            `json:"path"`
	Purpose      string            `json:"purpose,omitempty"`
	Components   []string          `json:"components,omitempty"`
	Interactions []string          `json:"interactions,omitempty"`
	Parameters   []string          `json:"parameters,omitempty"`
	Dependencies []string          `json:"dependencies,omitempty"`
	ErrorKind    model.ErrorKind   `json:"error_kind,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Project is the assembled report. Field order and slice order are
// deterministic: the same inputs always produce the same document.
type Project struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Model       string        `json:"model,omitempty"`
	Files       []FileSection `json:"files"`
	Failed      []FileSection `json:"failed,omitempty"`
	Layers      [][]string    `json:"layers,omitempty"`
	EdgeCount   int           `json:"edge_count"`
}

// Assemble merges analysis results with graph structure. Files are
// sorted by path; failed analyses are listed separately so partial
// runs stay visible instead of silently shrinking the report.
func Assemble(results map[string]*model.AnalysisResult, g *graph.Builder, modelID string) *Project {
	paths := make([]string, 0, len(results))
	for p := range results {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	p := &Project{
		GeneratedAt: time.Now().UTC(),
		Model:       modelID,
		EdgeCount:   g.EdgeCount(),
		Layers:      g.Layers(),
	}

	for _, path := range paths {
		r := results[path]
		section := FileSection{
			Path:         path,
			Purpose:      r.Purpose,
			Components:   r.Components,
			Interactions: r.Interactions,
			Parameters:   r.Parameters,
			ErrorKind:    r.ErrorKind,
			Metadata:     r.Metadata,
		}
		for _, e := range g.Neighbors(path) {
			if e.From != path {
				continue
			}
			section.Dependencies = append(section.Dependencies,
				fmt.Sprintf("%s (%s)", e.To, e.Kind))
		}
		sort.Strings(section.Dependencies)

		if r.ErrorKind != model.ErrorNone {
			p.Failed = append(p.Failed, section)
		} else {
			p.Files = append(p.Files, section)
		}
	}
	return p
}

// RenderMarkdown writes the project report as a markdown document.
func RenderMarkdown(p *Project) string {
	var b strings.Builder

	b.WriteString("# Project Documentation\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", p.GeneratedAt.Format(time.RFC3339))
	if p.Model != "" {
		fmt.Fprintf(&b, "Analysis model: %s\n\n", p.Model)
	}
	fmt.Fprintf(&b, "Files analyzed: %d | Failed: %d | Dependency edges: %d\n\n",
		len(p.Files), len(p.Failed), p.EdgeCount)

	if len(p.Layers) > 0 {
		b.WriteString("## Dependency Layers\n\n")
		b.WriteString("Files in later layers depend on earlier layers.\n\n")
		for i, layer := range p.Layers {
			fmt.Fprintf(&b, "%d. %s\n", i+1, strings.Join(layer, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Files\n\n")
	for _, f := range p.Files {
		renderFile(&b, f)
	}

	if len(p.Failed) > 0 {
		b.WriteString("## Not Analyzed\n\n")
		for _, f := range p.Failed {
			fmt.Fprintf(&b, "- `%s`: %s\n", f.Path, f.ErrorKind)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func renderFile(b *strings.Builder, f FileSection) {
	fmt.Fprintf(b, "### %s\n\n", f.Path)
	if f.Purpose != "" {
		fmt.Fprintf(b, "%s\n\n", f.Purpose)
	}
	writeList(b, "Components", f.Components)
	writeList(b, "Interactions", f.Interactions)
	writeList(b, "Parameters", f.Parameters)
	writeList(b, "Depends on", f.Dependencies)
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}
