package prompt

import "route-forge/internal/model"

// Profile selects the model a stage is sent to
type Profile string

const (
	ProfilePrimary   Profile = "primary"
	ProfileAuxiliary Profile = "auxiliary"
)

// Template is the fixed text of one stage. System and User may both
// reference placeholders; every placeholder must be listed in Placeholders.
type Template struct {
	Stage        model.Stage
	Profile      Profile
	System       string
	User         string
	Placeholders []string
}

const routeSystem = "You are an expert API developer. Your task is to generate a route file based on given specifications."

const routeUser = `Given the following route details:
{route_details}

And this example route file:
{example_route}

Project information:
{project_info}

Project structure:
{project_structure}

Generate a route file that follows the style and structure of the example, implementing the specified route details. Ensure proper error handling and follow RESTful principles.

Generated Route File:`

const controllerSystem = "You are an expert API developer. Your task is to generate a controller file based on a given route file."

const controllerUser = `Given the following route file:
{route_file}

And this example controller file:
{example_controller}

Project information:
{project_info}

Project structure:
{project_structure}

Route path:
{route_path}

Generate a controller file that follows the style and structure of the example, implementing the necessary methods to handle the routes defined in the route file. Ensure proper error handling and follow best practices for controller design.

IMPORTANT: You MUST include the route path '{route_path}' in your comments or method names. For example, create a method named 'handleUserRequest' for a '/users' route.

Generated Controller File:`

const serviceSystem = "You are an expert API developer. Your task is to generate a service file based on given route and controller files."

const serviceUser = `Given the following route file:
{route_file}

And the following controller file:
{controller_file}

And this example service file:
{example_service}

Project information:
{project_info}

Database schema:
{db_schema}

Project structure:
{project_structure}

Generate a service file that follows the style and structure of the example, implementing the necessary methods to handle the business logic required by the controller. Ensure proper error handling, database interactions based on the provided schema, and follow best practices for service layer design.

Generated Service File:`

const docsSystem = `Given the following route file:
{route_file}

And the following example Swagger documentation:
{example_swagger}

Generate Swagger documentation that describes the API endpoints defined in the route file, following the style and structure of the example Swagger documentation.

Generated Swagger Documentation:`

const docsUser = "Generate the Swagger documentation based on the route provided."

const testsSystem = "You are an expert in writing comprehensive Jest test suites for API routes."

const testsUser = `Given the following route file:
{route_file}

The following controller file:
{controller_file}

The following service file:
{service_file}

And this example test file:
{example_test_file}

Project structure:
{project_structure}

Generate a complete Jest test suite that covers all potential cases for the given route, controller, and service. Include tests for happy paths, error cases, edge cases, and any middleware functionality. Ensure proper mocking of dependencies and external services.

Generated Test Suite:`

var templates = map[model.Stage]Template{
	model.StageRoute: {
		Stage:        model.StageRoute,
		Profile:      ProfilePrimary,
		System:       routeSystem,
		User:         routeUser,
		Placeholders: []string{"route_details", "example_route", "project_info", "project_structure"},
	},
	model.StageController: {
		Stage:        model.StageController,
		Profile:      ProfilePrimary,
		System:       controllerSystem,
		User:         controllerUser,
		Placeholders: []string{"route_file", "example_controller", "project_info", "project_structure", "route_path"},
	},
	model.StageService: {
		Stage:        model.StageService,
		Profile:      ProfilePrimary,
		System:       serviceSystem,
		User:         serviceUser,
		Placeholders: []string{"route_file", "controller_file", "example_service", "project_info", "db_schema", "project_structure"},
	},
	model.StageDocs: {
		Stage:        model.StageDocs,
		Profile:      ProfileAuxiliary,
		System:       docsSystem,
		User:         docsUser,
		Placeholders: []string{"route_file", "example_swagger"},
	},
	model.StageTests: {
		Stage:        model.StageTests,
		Profile:      ProfilePrimary,
		System:       testsSystem,
		User:         testsUser,
		Placeholders: []string{"route_file", "controller_file", "service_file", "example_test_file", "project_structure"},
	},
}

// TemplateFor returns the template registered for stage
func TemplateFor(stage model.Stage) (Template, bool) {
	t, ok := templates[stage]
	return t, ok
}
