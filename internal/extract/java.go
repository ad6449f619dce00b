package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codescribe/codescribe-go/internal/model"
)

// extractJava maps a tree-sitter Java parse tree onto the code model.
// Dispatch is a closed match over the node kinds we understand; anything
// else at top level is recorded in Metadata instead of silently dropped.
func extractJava(path string, root *sitter.Node, src []byte) *model.FileEntity {
	file := &model.FileEntity{
		Path:     path,
		Language: model.LangJava,
		Span:     model.Span{Start: root.StartByte(), End: root.EndByte()},
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		switch node.Type() {
		case "package_declaration":
			if id := firstChildOfType(node, "scoped_identifier", "identifier"); id != nil {
				file.Package = nodeText(id, src)
			}
		case "import_declaration":
			file.Imports = append(file.Imports, javaImport(node, src))
		case "class_declaration", "interface_declaration", "enum_declaration":
			javaClass(node, src, "", &file.Classes)
		case "line_comment", "block_comment":
			// ignore
		default:
			if file.Metadata == nil {
				file.Metadata = make(map[string]string)
			}
			file.Metadata["unrecognized:"+node.Type()] = nodeText(node, src)
		}
	}

	return file
}

func javaImport(node *sitter.Node, src []byte) model.ImportEntity {
	path := ""
	if id := firstChildOfType(node, "scoped_identifier", "identifier"); id != nil {
		path = nodeText(id, src)
	}
	if firstChildOfType(node, "asterisk") != nil {
		path += ".*"
	}
	return model.ImportEntity{Path: path, Span: nodeSpan(node)}
}

// javaClass appends the declaration (and, flattened, its nested classes) to
// out. Nested classes get Outer.Inner names so the file owns a flat list.
func javaClass(node *sitter.Node, src []byte, prefix string, out *[]model.ClassEntity) {
	name := nodeText(node.ChildByFieldName("name"), src)
	if name == "" {
		return
	}
	if prefix != "" {
		name = prefix + "." + name
	}

	cls := model.ClassEntity{
		Name:         name,
		Language:     model.LangJava,
		Span:         nodeSpan(node),
		DeclaredType: node.Type(),
	}
	cls.Modifiers, cls.Annotations = javaModifiers(node, src)

	if sup := node.ChildByFieldName("superclass"); sup != nil {
		if t := sup.NamedChild(0); t != nil {
			cls.Supertypes = append(cls.Supertypes, nodeText(t, src))
		}
	}
	if ifaces := node.ChildByFieldName("interfaces"); ifaces != nil {
		if list := firstChildOfType(ifaces, "type_list"); list != nil {
			for i := 0; i < int(list.NamedChildCount()); i++ {
				cls.Supertypes = append(cls.Supertypes, nodeText(list.NamedChild(i), src))
			}
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := body.NamedChild(i)
			switch member.Type() {
			case "method_declaration", "constructor_declaration":
				cls.Methods = append(cls.Methods, javaMethod(member, src))
			case "field_declaration":
				cls.Fields = append(cls.Fields, javaFields(member, src)...)
			case "class_declaration", "interface_declaration", "enum_declaration":
				javaClass(member, src, name, out)
			}
		}
	}

	*out = append(*out, cls)
}

func javaMethod(node *sitter.Node, src []byte) model.MethodEntity {
	m := model.MethodEntity{
		Name:       nodeText(node.ChildByFieldName("name"), src),
		Language:   model.LangJava,
		Span:       nodeSpan(node),
		ReturnType: nodeText(node.ChildByFieldName("type"), src),
	}
	m.Modifiers, m.Annotations = javaModifiers(node, src)

	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(i)
			if p.Type() != "formal_parameter" && p.Type() != "spread_parameter" {
				continue
			}
			m.Params = append(m.Params, model.Param{
				Name: nodeText(p.ChildByFieldName("name"), src),
				Type: nodeText(p.ChildByFieldName("type"), src),
			})
		}
	}
	return m
}

func javaFields(node *sitter.Node, src []byte) []model.FieldEntity {
	declType := nodeText(node.ChildByFieldName("type"), src)
	mods, anns := javaModifiers(node, src)

	var fields []model.FieldEntity
	for _, decl := range childrenOfType(node, "variable_declarator") {
		fields = append(fields, model.FieldEntity{
			Name:         nodeText(decl.ChildByFieldName("name"), src),
			Language:     model.LangJava,
			Span:         nodeSpan(node),
			DeclaredType: declType,
			Modifiers:    mods,
			Annotations:  anns,
		})
	}
	return fields
}

// javaModifiers splits a declaration's modifiers node into keyword strings
// and annotation entities. Keywords arrive as anonymous tokens.
func javaModifiers(node *sitter.Node, src []byte) ([]string, []model.AnnotationEntity) {
	modsNode := firstChildOfType(node, "modifiers")
	if modsNode == nil {
		return nil, nil
	}

	var mods []string
	var anns []model.AnnotationEntity
	for i := 0; i < int(modsNode.ChildCount()); i++ {
		child := modsNode.Child(i)
		switch child.Type() {
		case "marker_annotation", "annotation":
			if name := child.ChildByFieldName("name"); name != nil {
				anns = append(anns, model.AnnotationEntity{Name: nodeText(name, src), Span: nodeSpan(child)})
			}
		default:
			mods = append(mods, child.Type())
		}
	}
	return mods, anns
}
