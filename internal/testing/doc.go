// Package testing runs YAML API test scenarios against configured services.
//
// # Architecture Overview
//
//	                ┌─────────────────┐
//	                │  apiauto run    │ (CLI Command)
//	                │   (cmd/run.go)  │
//	                └─────────┬───────┘
//	                          │
//	                ┌─────────▼───────┐
//	                │   TestRunner    │ (Core Engine)
//	                └─────────┬───────┘
//	                          │
//	          ┌───────────────┼───────────────┐
//	          │               │               │
//	┌─────────▼────┐  ┌───────▼───────┐  ┌────▼──────┐
//	│apiclient.Client│ │ScenarioLoader │  │ Reporter  │
//	└──────────────┘  └───────────────┘  └───────────┘
//
// # Core Components
//
// TestRunner executes scenarios sequentially or with bounded parallelism,
// honours fail-fast, and retries steps with optional exponential backoff.
// Each scenario gets its own client from a ClientFactory, so cookies and the
// login token never leak between scenarios.
//
// TestScenarioLoader reads scenarios from a YAML file or a directory tree and
// filters them by name and tags.
//
// TestReporter renders progress. The CLI reporter prints emoji progress
// lines and a summary table; the structured reporter keeps results in memory
// for the MCP server; the quiet and JSON reporters serve CI pipelines.
//
// ScenarioWatcher reruns scenarios when their files change.
//
// # Scenario Format
//
//	name: create-user
//	service: users            # host key in the active environment
//	login: {}                 # POST api/login with the configured credentials
//	tags: [smoke]
//	variables:
//	  user_name: alice
//	steps:
//	  - id: create
//	    request:
//	      method: POST
//	      path: /api/users
//	      body:
//	        name: "{{ user_name }}"
//	    expected:
//	      status: 201
//	      body:
//	        id: only_digits
//	    store:
//	      user_id: id           # JMESPath over the response body
//	  - id: get
//	    request:
//	      method: GET
//	      path: /api/users/{{ user_id }}
//	    expected:
//	      body:
//	        name: "{{ user_name }}"
//	    retry:
//	      count: 3
//	      delay: 1s
//	      backoff_multiplier: 2
//	cleanup:
//	  - id: delete
//	    request:
//	      method: DELETE
//	      path: /api/users/{{ user_id }}
//	    expected:
//	      status: 204
//
// Expected bodies are matched with the response matcher: keys missing from
// the expectation produce warnings, and string values may be directives such
// as skip, only_digits or match_regex/.../. Set exact_body to require
// equality instead.
//
// Cleanup steps always run, with their own timeout, and see every value the
// main steps stored.
//
// # Results
//
// Steps and scenarios end PASSED, FAILED (an expectation was not met),
// ERROR (the request could not be sent, or a placeholder could not be
// resolved) or SKIPPED. Detailed JSON reports omit credentials.
package testing
