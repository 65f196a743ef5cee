package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestTestFileName(t *testing.T) {
	tests := []struct {
		route    string
		expected string
	}{
		{"generatedRoute.js", "test_generatedRoute.test.js"},
		{"usersRoute.js", "test_usersRoute.test.js"},
		{"routes/users.js", "test_routes/users.test.js"},
		{"router.ts", "test_router.ts"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, TestFileName(tt.route), tt.route)
	}
}

func TestFileNameForUsesOverrides(t *testing.T) {
	spec := &RouteSpecification{FileNames: FileNames{Route: "usersRoute.js", Swagger: "  "}}

	assert.Equal(t, "usersRoute.js", spec.FileNameFor(KindRoute))
	assert.Equal(t, "generatedController.js", spec.FileNameFor(KindController))
	assert.Equal(t, "generatedService.js", spec.FileNameFor(KindService))
	assert.Equal(t, "swaggerDocs.json", spec.FileNameFor(KindSwagger))
}

func TestKindFromFileName(t *testing.T) {
	tests := map[string]ArtifactKind{
		"generatedRoute.js":                 KindRoute,
		"generatedController.js":            KindController,
		"generatedService.js":               KindService,
		"swaggerDocs.json":                  KindSwagger,
		"tests/test_generatedRoute.test.js": KindTest,
		"README.md":                         "",
	}
	for name, want := range tests {
		assert.Equal(t, want, KindFromFileName(name), name)
	}
}

func TestStageKindRoundTrip(t *testing.T) {
	for _, stage := range Stages {
		assert.Equal(t, stage, stage.Kind().Stage())
	}
	assert.Equal(t, StateTestsGenerated, StateAfter(StageTests))
	assert.Equal(t, StateLoadedSpec, StateAfter(Stage("unknown")))
}

func TestLogicalStepAcceptsScalarAndMapping(t *testing.T) {
	doc := `
- fetch all users
- step: filter
  description: drop inactive users
`
	var steps []LogicalStep
	assert.NoError(t, yaml.Unmarshal([]byte(doc), &steps))
	assert.Equal(t, []LogicalStep{
		{Step: "fetch all users"},
		{Step: "filter", Description: "drop inactive users"},
	}, steps)
}

func TestBundleCompleteness(t *testing.T) {
	b := NewArtifactBundle()
	assert.False(t, b.Complete())

	for _, k := range BundleKinds {
		b.Add(&GeneratedArtifact{Kind: k, FileName: k.DefaultFileName(), Content: "x"})
	}
	assert.True(t, b.Complete())
	assert.Len(t, b.All(), 4)

	b.Test = &GeneratedArtifact{Kind: KindTest, FileName: "t", Content: "x"}
	assert.Len(t, b.All(), 5)
	assert.Same(t, b.Test, b.Get(KindTest))

	var nilBundle *ArtifactBundle
	assert.Nil(t, nilBundle.All())
	assert.False(t, nilBundle.Complete())
}

func TestValidationIssueString(t *testing.T) {
	issue := ValidationIssue{Index: 3, Message: "Invalid HTTP method"}
	assert.Equal(t, "entry 3 (unknown): Invalid HTTP method", issue.String())
}

func TestRunSummaryCounts(t *testing.T) {
	s := NewRunSummary("run", "specs.yaml")
	s.Entries = []*EntryResult{
		{State: StateTestsGenerated, Bundle: NewArtifactBundle()},
		{State: StateControllerGenerated},
	}
	assert.Equal(t, 1, s.Succeeded())
	assert.Equal(t, 1, s.Failed())
	assert.Equal(t, 0, s.ArtifactCount())
}
