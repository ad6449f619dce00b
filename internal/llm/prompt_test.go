package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescribe/codescribe-go/internal/model"
)

func TestBuildPrompt_IncludesStructureAndContext(t *testing.T) {
	file := &model.FileEntity{
		Path:     "src/Main.java",
		Language: model.LangJava,
		Package:  "com.example",
		Classes:  []model.ClassEntity{{Name: "Main", Methods: []model.MethodEntity{{Name: "run"}}}},
	}

	prompt := BuildPrompt(file, []string{"src/Util.java: utility helpers"})
	assert.Contains(t, prompt, "File: src/Main.java")
	assert.Contains(t, prompt, "Package: com.example")
	assert.Contains(t, prompt, "Main")
	assert.Contains(t, prompt, "run")
	assert.Contains(t, prompt, "src/Util.java: utility helpers")
}

func TestBuildPrompt_NoDependencies(t *testing.T) {
	file := &model.FileEntity{Path: "src/A.java", Language: model.LangJava}
	prompt := BuildPrompt(file, nil)
	assert.NotContains(t, prompt, "Dependencies:")
}

func TestParseResponse_ValidJSON(t *testing.T) {
	fp := model.ComputeFingerprint([]byte("x"), "v1", "m")
	raw := `{"purpose": "entry point", "components": ["Main"], "interactions": ["calls Util"], "parameters": []}`

	r := ParseResponse("src/Main.java", fp, raw)
	require.True(t, r.Valid)
	assert.Equal(t, "entry point", r.Purpose)
	assert.Equal(t, []string{"Main"}, r.Components)
	assert.Equal(t, []string{"calls Util"}, r.Interactions)
	assert.Empty(t, r.Metadata)
	assert.Equal(t, fp, r.Fingerprint)
}

func TestParseResponse_FencedJSON(t *testing.T) {
	raw := "```json\n{\"purpose\": \"fenced\"}\n```"
	r := ParseResponse("src/A.java", "fp", raw)
	assert.Equal(t, "fenced", r.Purpose)
	assert.Empty(t, r.Metadata)
}

func TestParseResponse_UnstructuredFallback(t *testing.T) {
	raw := "This file is the application entry point."
	r := ParseResponse("src/A.java", "fp", raw)

	assert.True(t, r.Valid, "Unparseable responses are kept, not discarded")
	assert.Equal(t, raw, r.Purpose)
	assert.Equal(t, "true", r.Metadata["unstructured"])
}
