package review

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route-forge/internal/model"
)

const cleanRoute = `/** Users routes */
const express = require('express');
const router = express.Router();
const { validateUser } = require('../middleware/validate');
const userController = require('../controllers/userController');

router.get('/users', validateUser, async (req, res, next) => {
  try {
    await userController.getUsers(req, res);
  } catch (err) {
    next(err);
  }
});

module.exports = router;
`

func TestReviewCleanRoute(t *testing.T) {
	assert.Empty(t, Review(cleanRoute, model.KindRoute))
	assert.Empty(t, Suggest(cleanRoute, model.KindRoute))
}

func TestReviewGeneralChecks(t *testing.T) {
	text := "const user_name = 1;\n function Fetch() {\n console.log(user_name); // TODO\n}"

	issues := Review(text, model.KindRoute)

	assert.Contains(t, issues, "Code contains TODO comments")
	assert.Contains(t, issues, "Code contains console.log statements")
	assert.Contains(t, issues, "Route file doesn't use Express router")
	assert.Contains(t, issues, "Route file doesn't export the router")
	assert.Contains(t, issues, "Consider using async/await for asynchronous operations")
	assert.Contains(t, issues, "Consider adding try-catch blocks for error handling")
	assert.Contains(t, issues, "'user_name' is not in camelCase")
	assert.Contains(t, issues, "'Fetch' is not in camelCase")
	assert.Contains(t, issues, "Indentation should be 2 spaces")
	assert.Contains(t, issues, "File should end with a newline")
	assert.Contains(t, issues, "Missing JSDoc comments")
}

func TestReviewKindSpecific(t *testing.T) {
	t.Run("controller without exports", func(t *testing.T) {
		issues := Review("const a = 1;\n", model.KindController)
		assert.Contains(t, issues, "Controller doesn't export any functions")
	})

	t.Run("controller with exports", func(t *testing.T) {
		issues := Review("exports.getUsers = async () => {};\n", model.KindController)
		assert.NotContains(t, issues, "Controller doesn't export any functions")
	})

	t.Run("service without class or function", func(t *testing.T) {
		issues := Review("const a = 1;\n", model.KindService)
		assert.Contains(t, issues, "Service file doesn't define any classes or functions")
	})

	t.Run("service with class", func(t *testing.T) {
		issues := Review("class UserService {}\n", model.KindService)
		assert.NotContains(t, issues, "Service file doesn't define any classes or functions")
	})

	t.Run("swagger is left to docs check", func(t *testing.T) {
		assert.Nil(t, Review("{}", model.KindSwagger))
	})
}

func TestReviewLongLines(t *testing.T) {
	text := "const a = '" + strings.Repeat("x", 80) + "';\n"
	assert.Contains(t, Review(text, model.KindTest), "Some lines are longer than 80 characters")
	assert.NotContains(t, Review("const a = 1;\n", model.KindTest), "Some lines are longer than 80 characters")
}

func TestReviewReportsIdentifierOnce(t *testing.T) {
	text := "let Bad = 1;\nlet Bad = 2;\n"
	count := 0
	for _, issue := range Review(text, model.KindTest) {
		if issue == "'Bad' is not in camelCase" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind model.ArtifactKind
		want []string
	}{
		{
			name: "controller without await or transaction",
			text: "exports.get = () => {}",
			kind: model.KindController,
			want: []string{
				"Consider using async/await for database operations",
				"Consider using database transactions for data integrity",
			},
		},
		{
			name: "service with both",
			text: "await db.transaction(async (t) => {})",
			kind: model.KindService,
			want: nil,
		},
		{
			name: "route without validation",
			text: "router.get('/x', h)",
			kind: model.KindRoute,
			want: []string{"Consider adding input validation to the route"},
		},
		{
			name: "tests get no suggestions",
			text: "describe('x', () => {})",
			kind: model.KindTest,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Suggest(tt.text, tt.kind))
		})
	}
}

func TestSchemaUsage(t *testing.T) {
	tables := map[string][]string{
		"users":  {"id", "email", "created_at"},
		"orders": {"id", "total"},
	}
	text := "SELECT id, email FROM Users"

	issues := SchemaUsage(text, tables)

	assert.Equal(t, []string{
		"The column 'created_at' of table 'users' is defined in the schema but not used in the code",
	}, issues)
	assert.Empty(t, SchemaUsage("nothing relevant", tables))
}

func TestMiddlewareUsage(t *testing.T) {
	used := MiddlewareUsage("router.use(AuthMiddleware)", []string{"authMiddleware", "rateLimiter", ""})
	assert.Equal(t, []string{"authMiddleware"}, used)
}

func TestDocs(t *testing.T) {
	ctx := context.Background()

	t.Run("not json", func(t *testing.T) {
		issues := Docs(ctx, "paths: {}")
		require.Len(t, issues, 1)
		assert.Contains(t, issues[0], "not valid JSON")
	})

	t.Run("valid openapi 3", func(t *testing.T) {
		doc := `{"openapi":"3.0.0","info":{"title":"Users","version":"1.0.0"},"paths":{"/users":{"get":{"responses":{"200":{"description":"ok"}}}}}}`
		assert.Empty(t, Docs(ctx, doc))
	})

	t.Run("invalid openapi 3", func(t *testing.T) {
		doc := `{"openapi":"3.0.0","paths":{}}`
		issues := Docs(ctx, doc)
		require.Len(t, issues, 1)
		assert.Contains(t, issues[0], "OpenAPI document is invalid")
	})

	t.Run("swagger 2 fragment with paths", func(t *testing.T) {
		assert.Empty(t, Docs(ctx, `{"swagger":"2.0","paths":{"/users":{}}}`))
	})

	t.Run("fragment without paths", func(t *testing.T) {
		assert.Equal(t, []string{"Swagger document has no paths"}, Docs(ctx, `{"swagger":"2.0"}`))
	})
}

func TestEntryReportsUnusedMiddleware(t *testing.T) {
	spec := &model.RouteSpecification{
		RouteDetails: model.RouteDetails{Path: "/users", Method: "GET"},
		Middleware:   []string{"validateUser", "authenticate"},
	}
	bundle := model.NewArtifactBundle()
	bundle.Add(&model.GeneratedArtifact{Kind: model.KindRoute, FileName: "userRoute.js", Path: "out/userRoute.js", Content: cleanRoute})

	findings := Entry(context.Background(), spec, bundle, nil)

	require.Len(t, findings, 1)
	assert.Equal(t, model.SeveritySuggestion, findings[0].Severity)
	assert.Equal(t, "out/userRoute.js", findings[0].File)
	assert.Contains(t, findings[0].Message, "authenticate")
}

func TestEntryChecksMiddlewareCatalog(t *testing.T) {
	spec := &model.RouteSpecification{
		RouteDetails: model.RouteDetails{Path: "/users", Method: "GET"},
		Middleware:   []string{"validateUser", "rateLimiter"},
	}
	bundle := model.NewArtifactBundle()
	bundle.Add(&model.GeneratedArtifact{Kind: model.KindRoute, FileName: "userRoute.js", Path: "out/userRoute.js", Content: cleanRoute})

	project := model.NewProjectContext()
	project.Middleware = `{"middleware": {"ValidateUser": {"file": "middleware/validate.js"}, "authenticateJWT": {}}}`

	findings := Entry(context.Background(), spec, bundle, project)

	var messages []string
	for _, f := range findings {
		messages = append(messages, f.Message)
	}
	assert.Contains(t, messages, "Declared middleware 'rateLimiter' is not in the middleware catalog")
	assert.Contains(t, messages, "Declared middleware 'rateLimiter' is not used by the route")
	assert.NotContains(t, messages, "Declared middleware 'validateUser' is not in the middleware catalog")

	t.Run("empty catalog is not checked", func(t *testing.T) {
		findings := Entry(context.Background(), spec, bundle, model.NewProjectContext())
		for _, f := range findings {
			assert.NotContains(t, f.Message, "middleware catalog")
		}
	})
}

func TestDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "out/userRoute.js", []byte(cleanRoute), 0644))
	require.NoError(t, afero.WriteFile(fs, "out/userController.js", []byte("exports.getUsers = () => {}\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "out/swaggerDocs.json", []byte("not json"), 0644))
	require.NoError(t, afero.WriteFile(fs, "out/tests/test_userRoute.test.js", []byte(cleanRoute), 0644))
	require.NoError(t, afero.WriteFile(fs, "out/report.json", []byte("{}"), 0644))
	require.NoError(t, afero.WriteFile(fs, "out/route-forge.db", []byte("x"), 0644))

	project := model.NewProjectContext()
	project.DBSchema = `{"tables": {"users": {"columns": [{"name": "id"}, {"name": "email"}]}}}`

	findings, err := Dir(context.Background(), fs, "out", project)
	require.NoError(t, err)

	files := map[string]bool{}
	for _, f := range findings {
		files[f.File] = true
	}
	assert.True(t, files["out/userController.js"])
	assert.True(t, files["out/swaggerDocs.json"])
	assert.False(t, files["out/report.json"])
	assert.False(t, files["out/route-forge.db"])
	assert.False(t, files["out/userRoute.js"], "clean route has no findings")

	var controller []string
	for _, f := range findings {
		if f.File == "out/userController.js" && f.Severity == model.SeverityIssue {
			controller = append(controller, f.Message)
		}
	}
	assert.Contains(t, controller, "The column 'id' of table 'users' is defined in the schema but not used in the code")

	issues, suggestions := Count(findings)
	assert.Equal(t, len(findings), issues+suggestions)
	assert.Positive(t, suggestions)
}

func TestDirMissingRoot(t *testing.T) {
	_, err := Dir(context.Background(), afero.NewMemMapFs(), "missing", nil)
	assert.Error(t, err)
}
