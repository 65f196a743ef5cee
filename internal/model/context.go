package model

import (
	"encoding/json"
	"sort"
)

// ProjectContext is the read-only reference data passed to every prompt.
// JSON documents are kept pretty-printed; absent documents render as "{}".
type ProjectContext struct {
	ProjectInfo      string
	DBSchema         string
	Middleware       string
	ProjectStructure string

	ExampleRoute      string
	ExampleController string
	ExampleService    string
	ExampleTest       string
	ExampleSwagger    string
}

// EmptyJSON is the rendering of a missing JSON reference document
const EmptyJSON = "{}"

// NewProjectContext returns a context with every document empty
func NewProjectContext() *ProjectContext {
	return &ProjectContext{
		ProjectInfo:      EmptyJSON,
		DBSchema:         EmptyJSON,
		Middleware:       EmptyJSON,
		ProjectStructure: EmptyJSON,
	}
}

// Example returns the example artifact for kind
func (c *ProjectContext) Example(kind ArtifactKind) string {
	switch kind {
	case KindRoute:
		return c.ExampleRoute
	case KindController:
		return c.ExampleController
	case KindService:
		return c.ExampleService
	case KindTest:
		return c.ExampleTest
	case KindSwagger:
		return c.ExampleSwagger
	}
	return ""
}

// MiddlewareNames lists the names in the middleware catalog.
// The catalog may be a list of names, a list of {name: ...} objects,
// or an object keyed by name (optionally grouped under "middleware"/"utils").
func (c *ProjectContext) MiddlewareNames() []string {
	var raw interface{}
	if err := json.Unmarshal([]byte(c.Middleware), &raw); err != nil {
		return nil
	}

	seen := make(map[string]bool)
	collectNames(raw, seen, 0)

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func collectNames(v interface{}, seen map[string]bool, depth int) {
	if depth > 2 {
		return
	}
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			switch it := item.(type) {
			case string:
				seen[it] = true
			case map[string]interface{}:
				if name, ok := it["name"].(string); ok {
					seen[name] = true
				}
			}
		}
	case map[string]interface{}:
		for key, val := range t {
			switch key {
			case "middleware", "utils", "middlewares", "utilities":
				collectNames(val, seen, depth+1)
			default:
				if _, isList := val.([]interface{}); !isList {
					seen[key] = true
				}
			}
		}
	}
}

// SchemaTables returns table name → column names from the database schema,
// expecting {"tables": {"users": {"columns": [{"name": "id"}, ...]}}}
func (c *ProjectContext) SchemaTables() map[string][]string {
	var doc struct {
		Tables map[string]struct {
			Columns []struct {
				Name string `json:"name"`
			} `json:"columns"`
		} `json:"tables"`
	}
	if err := json.Unmarshal([]byte(c.DBSchema), &doc); err != nil {
		return nil
	}

	out := make(map[string][]string, len(doc.Tables))
	for table, def := range doc.Tables {
		cols := make([]string, 0, len(def.Columns))
		for _, col := range def.Columns {
			if col.Name != "" {
				cols = append(cols, col.Name)
			}
		}
		out[table] = cols
	}
	return out
}
