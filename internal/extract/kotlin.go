package extract

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codescribe/codescribe-go/internal/model"
)

// extractKotlin maps a tree-sitter Kotlin parse tree onto the code model.
// Top-level functions and properties are attached to a synthetic file facade
// class named <Base>Kt, matching the JVM facade the compiler would emit.
func extractKotlin(path string, root *sitter.Node, src []byte) *model.FileEntity {
	file := &model.FileEntity{
		Path:     path,
		Language: model.LangKotlin,
		Span:     model.Span{Start: root.StartByte(), End: root.EndByte()},
	}

	var facade *model.ClassEntity

	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		switch node.Type() {
		case "package_header":
			if id := firstChildOfType(node, "identifier"); id != nil {
				file.Package = nodeText(id, src)
			}
		case "import_list":
			for _, imp := range childrenOfType(node, "import_header") {
				file.Imports = append(file.Imports, kotlinImport(imp, src))
			}
		case "import_header":
			file.Imports = append(file.Imports, kotlinImport(node, src))
		case "class_declaration", "object_declaration":
			if cls := kotlinClass(node, src); cls != nil {
				file.Classes = append(file.Classes, *cls)
			}
		case "function_declaration":
			if facade == nil {
				facade = newFacade(path)
			}
			facade.Methods = append(facade.Methods, kotlinFunction(node, src))
		case "property_declaration":
			if facade == nil {
				facade = newFacade(path)
			}
			if f := kotlinProperty(node, src); f != nil {
				facade.Fields = append(facade.Fields, *f)
			}
		}
	}

	if facade != nil {
		file.Classes = append(file.Classes, *facade)
	}
	return file
}

func newFacade(path string) *model.ClassEntity {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &model.ClassEntity{
		Name:         base + "Kt",
		Language:     model.LangKotlin,
		DeclaredType: "file_facade",
	}
}

func kotlinImport(node *sitter.Node, src []byte) model.ImportEntity {
	path := ""
	if id := firstChildOfType(node, "identifier"); id != nil {
		path = nodeText(id, src)
	}
	if strings.HasSuffix(strings.TrimSpace(nodeText(node, src)), ".*") {
		path += ".*"
	}
	return model.ImportEntity{Path: path, Span: nodeSpan(node)}
}

func kotlinClass(node *sitter.Node, src []byte) *model.ClassEntity {
	name := firstChildOfType(node, "type_identifier")
	if name == nil {
		return nil
	}

	cls := &model.ClassEntity{
		Name:         nodeText(name, src),
		Language:     model.LangKotlin,
		Span:         nodeSpan(node),
		DeclaredType: node.Type(),
	}
	cls.Modifiers, cls.Annotations = kotlinModifiers(node, src)

	for _, spec := range childrenOfType(node, "delegation_specifier") {
		// Constructor invocation of the supertype keeps only the type name.
		text := nodeText(spec, src)
		if idx := strings.IndexByte(text, '('); idx >= 0 {
			text = text[:idx]
		}
		cls.Supertypes = append(cls.Supertypes, strings.TrimSpace(text))
	}

	if body := firstChildOfType(node, "class_body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := body.NamedChild(i)
			switch member.Type() {
			case "function_declaration":
				cls.Methods = append(cls.Methods, kotlinFunction(member, src))
			case "property_declaration":
				if f := kotlinProperty(member, src); f != nil {
					cls.Fields = append(cls.Fields, *f)
				}
			}
		}
	}
	return cls
}

func kotlinFunction(node *sitter.Node, src []byte) model.MethodEntity {
	m := model.MethodEntity{
		Language:   model.LangKotlin,
		Span:       nodeSpan(node),
		ReturnType: "Unit",
	}
	if name := firstChildOfType(node, "simple_identifier"); name != nil {
		m.Name = nodeText(name, src)
	}
	m.Modifiers, m.Annotations = kotlinModifiers(node, src)

	if params := firstChildOfType(node, "function_value_parameters"); params != nil {
		for _, p := range childrenOfType(params, "parameter") {
			param := model.Param{}
			if id := firstChildOfType(p, "simple_identifier"); id != nil {
				param.Name = nodeText(id, src)
			}
			if t := firstChildOfType(p, "user_type", "nullable_type", "function_type", "parenthesized_type"); t != nil {
				param.Type = nodeText(t, src)
			}
			m.Params = append(m.Params, param)
		}
	}

	// Declared return type follows the parameter list; default stays Unit.
	if t := firstChildOfType(node, "user_type", "nullable_type", "function_type", "parenthesized_type"); t != nil {
		m.ReturnType = nodeText(t, src)
	}
	return m
}

func kotlinProperty(node *sitter.Node, src []byte) *model.FieldEntity {
	decl := firstChildOfType(node, "variable_declaration")
	if decl == nil {
		return nil
	}
	f := &model.FieldEntity{
		Language: model.LangKotlin,
		Span:     nodeSpan(node),
	}
	if id := firstChildOfType(decl, "simple_identifier"); id != nil {
		f.Name = nodeText(id, src)
	}
	if t := firstChildOfType(decl, "user_type", "nullable_type", "function_type"); t != nil {
		f.DeclaredType = nodeText(t, src)
	}
	f.Modifiers, f.Annotations = kotlinModifiers(node, src)
	return f
}

// kotlinModifiers collects keyword modifiers (suspend, override, data, ...)
// verbatim along with annotations. suspend stays a plain modifier string;
// it never changes the entity shape.
func kotlinModifiers(node *sitter.Node, src []byte) ([]string, []model.AnnotationEntity) {
	modsNode := firstChildOfType(node, "modifiers")
	if modsNode == nil {
		return nil, nil
	}

	var mods []string
	var anns []model.AnnotationEntity
	for i := 0; i < int(modsNode.NamedChildCount()); i++ {
		child := modsNode.NamedChild(i)
		if child.Type() == "annotation" {
			name := strings.TrimPrefix(nodeText(child, src), "@")
			if idx := strings.IndexByte(name, '('); idx >= 0 {
				name = name[:idx]
			}
			anns = append(anns, model.AnnotationEntity{Name: strings.TrimSpace(name), Span: nodeSpan(child)})
			continue
		}
		mods = append(mods, nodeText(child, src))
	}
	return mods, anns
}
