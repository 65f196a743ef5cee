package model

import (
	"path"
	"strings"
)

// ArtifactKind identifies the type of a generated file
type ArtifactKind string

const (
	KindRoute      ArtifactKind = "route"
	KindController ArtifactKind = "controller"
	KindService    ArtifactKind = "service"
	KindSwagger    ArtifactKind = "swagger"
	KindTest       ArtifactKind = "test"
)

// BundleKinds are the kinds produced before the test stage, in generation order
var BundleKinds = []ArtifactKind{KindRoute, KindController, KindService, KindSwagger}

// TestsDir is the output subdirectory for generated test suites
const TestsDir = "tests"

// DefaultFileName returns the filename used when a specification has no override
func (k ArtifactKind) DefaultFileName() string {
	switch k {
	case KindRoute:
		return "generatedRoute.js"
	case KindController:
		return "generatedController.js"
	case KindService:
		return "generatedService.js"
	case KindSwagger:
		return "swaggerDocs.json"
	}
	return ""
}

// Stage returns the pipeline stage that produces this kind
func (k ArtifactKind) Stage() Stage {
	switch k {
	case KindRoute:
		return StageRoute
	case KindController:
		return StageController
	case KindService:
		return StageService
	case KindSwagger:
		return StageDocs
	case KindTest:
		return StageTests
	}
	return ""
}

// KindFromFileName infers the artifact kind of a file in the output tree.
// Returns "" when nothing matches.
func KindFromFileName(name string) ArtifactKind {
	base := strings.ToLower(path.Base(strings.ReplaceAll(name, "\\", "/")))
	switch {
	case strings.Contains(base, ".test.") || strings.HasPrefix(base, "test_"):
		return KindTest
	case strings.Contains(base, "swagger") || strings.HasSuffix(base, ".json"):
		return KindSwagger
	case strings.Contains(base, "controller"):
		return KindController
	case strings.Contains(base, "service"):
		return KindService
	case strings.Contains(base, "route") || strings.Contains(base, "router"):
		return KindRoute
	}
	return ""
}

// TestFileName derives the test suite filename from the route filename:
// "generatedRoute.js" becomes "test_generatedRoute.test.js"
func TestFileName(routeFileName string) string {
	return "test_" + strings.ReplaceAll(routeFileName, ".js", ".test.js")
}

// Stage is one step of the generation pipeline
type Stage string

const (
	StageRoute      Stage = "route"
	StageController Stage = "controller"
	StageService    Stage = "service"
	StageDocs       Stage = "docs"
	StageTests      Stage = "tests"
)

// Stages lists every stage in execution order
var Stages = []Stage{StageRoute, StageController, StageService, StageDocs, StageTests}

// Kind returns the artifact kind produced by this stage
func (s Stage) Kind() ArtifactKind {
	switch s {
	case StageRoute:
		return KindRoute
	case StageController:
		return KindController
	case StageService:
		return KindService
	case StageDocs:
		return KindSwagger
	case StageTests:
		return KindTest
	}
	return ""
}

// State is the lifecycle position of one specification entry
type State string

const (
	StateLoadedSpec          State = "LoadedSpec"
	StateRouteGenerated      State = "RouteGenerated"
	StateControllerGenerated State = "ControllerGenerated"
	StateServiceGenerated    State = "ServiceGenerated"
	StateDocsGenerated       State = "DocsGenerated"
	StateTestsGenerated      State = "TestsGenerated"
)

// StateAfter returns the state reached once stage completes
func StateAfter(stage Stage) State {
	switch stage {
	case StageRoute:
		return StateRouteGenerated
	case StageController:
		return StateControllerGenerated
	case StageService:
		return StateServiceGenerated
	case StageDocs:
		return StateDocsGenerated
	case StageTests:
		return StateTestsGenerated
	}
	return StateLoadedSpec
}

// GeneratedArtifact is the text output of one stage plus its destination
type GeneratedArtifact struct {
	Kind     ArtifactKind `json:"kind"`
	FileName string       `json:"file_name"`
	Path     string       `json:"path"`
	Content  string       `json:"content"`
}

// ArtifactBundle collects the artifacts produced for one specification entry
type ArtifactBundle struct {
	Artifacts map[ArtifactKind]*GeneratedArtifact `json:"artifacts"`
	Test      *GeneratedArtifact                  `json:"test,omitempty"`
}

// NewArtifactBundle creates an empty bundle
func NewArtifactBundle() *ArtifactBundle {
	return &ArtifactBundle{Artifacts: make(map[ArtifactKind]*GeneratedArtifact, len(BundleKinds))}
}

// Add stores an artifact under its kind
func (b *ArtifactBundle) Add(a *GeneratedArtifact) {
	b.Artifacts[a.Kind] = a
}

// Get returns the artifact for kind, or nil
func (b *ArtifactBundle) Get(kind ArtifactKind) *GeneratedArtifact {
	if b == nil {
		return nil
	}
	if kind == KindTest {
		return b.Test
	}
	return b.Artifacts[kind]
}

// Complete reports whether all four pre-test artifacts are present
func (b *ArtifactBundle) Complete() bool {
	if b == nil {
		return false
	}
	for _, k := range BundleKinds {
		if a := b.Artifacts[k]; a == nil || a.Content == "" || a.FileName == "" {
			return false
		}
	}
	return true
}

// All returns the artifacts in generation order, test last
func (b *ArtifactBundle) All() []*GeneratedArtifact {
	if b == nil {
		return nil
	}
	out := make([]*GeneratedArtifact, 0, len(BundleKinds)+1)
	for _, k := range BundleKinds {
		if a := b.Artifacts[k]; a != nil {
			out = append(out, a)
		}
	}
	if b.Test != nil {
		out = append(out, b.Test)
	}
	return out
}
