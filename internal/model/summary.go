package model

import (
	"fmt"
	"strings"
)

// Summary renders a short structural digest of a file: class and method
// names only. It is what the orchestrator hands to the analysis service for
// a neighbor whose own analysis has not completed, so context assembly never
// waits on another file.
func Summary(f *FileEntity) string {
	if f == nil {
		return ""
	}
	if len(f.Classes) == 0 {
		return fmt.Sprintf("%s (%s, no declarations)", f.Path, f.Language)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s): ", f.Path, f.Language)
	for i, c := range f.Classes {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(c.Name)
		if len(c.Supertypes) > 0 {
			fmt.Fprintf(&b, " : %s", strings.Join(c.Supertypes, ", "))
		}
		if len(c.Methods) > 0 {
			names := make([]string, 0, len(c.Methods))
			for _, m := range c.Methods {
				name := m.Name
				for _, mod := range m.Modifiers {
					if mod == "suspend" {
						name = "suspend " + name
						break
					}
				}
				names = append(names, name)
			}
			fmt.Fprintf(&b, " [%s]", strings.Join(names, ", "))
		}
	}
	return b.String()
}
