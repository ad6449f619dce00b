package model

// Language identifies the source language a file was parsed as.
type Language string

const (
	LangJava    Language = "java"
	LangKotlin  Language = "kotlin"
	LangXML     Language = "xml"
	LangUnknown Language = "unknown"
)

// EntityKind tags the variants of the code model.
type EntityKind string

const (
	KindFile       EntityKind = "file"
	KindClass      EntityKind = "class"
	KindMethod     EntityKind = "method"
	KindField      EntityKind = "field"
	KindImport     EntityKind = "import"
	KindAnnotation EntityKind = "annotation"
)

// Span is a half-open byte range into the owning file's content.
type Span struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

// CodeEntity is implemented by every node of the code model.
type CodeEntity interface {
	Kind() EntityKind
	EntityName() string
}

// FileEntity is the root of a single file's model. It exclusively owns its
// entity subtree; a re-parse rebuilds the whole tree, never patches it.
type FileEntity struct {
	Path     string   `json:"path"`
	Language Language `json:"language"`
	Package  string   `json:"package,omitempty"`
	Span     Span     `json:"span"`

	Imports []ImportEntity `json:"imports,omitempty"`
	Classes []ClassEntity  `json:"classes,omitempty"`

	// ResourceRefs holds resource identifiers referenced from code
	// (e.g. R.id.submit_button), matched against XML synthetic entities
	// during edge derivation.
	ResourceRefs []string `json:"resource_refs,omitempty"`

	// Metadata records degraded or unrecognized parse regions so partial
	// results stay visible instead of being silently dropped.
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (f *FileEntity) Kind() EntityKind   { return KindFile }
func (f *FileEntity) EntityName() string { return f.Path }

// ClassEntity covers class-like declarations: Java classes, interfaces and
// enums, Kotlin classes and objects, and the synthetic entities an XML
// resource file contributes for id-bearing elements.
type ClassEntity struct {
	Name         string             `json:"name"`
	Language     Language           `json:"language"`
	Span         Span               `json:"span"`
	Modifiers    []string           `json:"modifiers,omitempty"`
	DeclaredType string             `json:"declared_type,omitempty"`
	Supertypes   []string           `json:"supertypes,omitempty"`
	Annotations  []AnnotationEntity `json:"annotations,omitempty"`
	Methods      []MethodEntity     `json:"methods,omitempty"`
	Fields       []FieldEntity      `json:"fields,omitempty"`
}

func (c *ClassEntity) Kind() EntityKind   { return KindClass }
func (c *ClassEntity) EntityName() string { return c.Name }

// Param is one (name, type) pair of a method signature.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// MethodEntity covers methods, constructors and Kotlin functions. A suspend
// or async marker is preserved verbatim in Modifiers, the entity shape does
// not change.
type MethodEntity struct {
	Name        string             `json:"name"`
	Language    Language           `json:"language"`
	Span        Span               `json:"span"`
	Modifiers   []string           `json:"modifiers,omitempty"`
	Params      []Param            `json:"params,omitempty"`
	ReturnType  string             `json:"return_type,omitempty"`
	Annotations []AnnotationEntity `json:"annotations,omitempty"`
}

func (m *MethodEntity) Kind() EntityKind   { return KindMethod }
func (m *MethodEntity) EntityName() string { return m.Name }

// FieldEntity is a class-level field or property.
type FieldEntity struct {
	Name         string             `json:"name"`
	Language     Language           `json:"language"`
	Span         Span               `json:"span"`
	Modifiers    []string           `json:"modifiers,omitempty"`
	DeclaredType string             `json:"declared_type,omitempty"`
	Annotations  []AnnotationEntity `json:"annotations,omitempty"`
}

func (f *FieldEntity) Kind() EntityKind   { return KindField }
func (f *FieldEntity) EntityName() string { return f.Name }

// ImportEntity preserves the dotted import path as written, unresolved.
type ImportEntity struct {
	Path string `json:"path"`
	Span Span   `json:"span"`
}

func (i *ImportEntity) Kind() EntityKind   { return KindImport }
func (i *ImportEntity) EntityName() string { return i.Path }

// AnnotationEntity is an annotation attached to a class, method or field.
type AnnotationEntity struct {
	Name string `json:"name"`
	Span Span   `json:"span"`
}

func (a *AnnotationEntity) Kind() EntityKind   { return KindAnnotation }
func (a *AnnotationEntity) EntityName() string { return a.Name }

// QualifiedClassNames returns package-qualified names for every class the
// file declares. The graph builder indexes these to resolve import edges.
func (f *FileEntity) QualifiedClassNames() []string {
	names := make([]string, 0, len(f.Classes))
	for _, c := range f.Classes {
		if f.Package != "" {
			names = append(names, f.Package+"."+c.Name)
		} else {
			names = append(names, c.Name)
		}
	}
	return names
}
