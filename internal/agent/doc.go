// Package agent exposes apiauto over the Model Context Protocol so AI
// assistants can turn curl commands into tests and run API scenarios.
//
// The server speaks MCP over stdio and registers two groups of tools.
//
// Generation tools work on a curl command:
//
//	parse_curl                                    descriptor as JSON
//	generate_tests                                RSpec text for a test type
//	generate_k6_script                            k6 script written to the perf directory
//	manage_spec_file                              create, update or append a spec file
//	analyze_framework                             RSpec project layout
//	generate_complete_tests                       parse, generate and write in one call
//	generate_non_functional_tests_file            non-functional spec next to a base spec
//	generate_functional_and_non_functional_split  both files at once
//	match_response                                structural match of two JSON documents
//
// Scenario tools drive the runner in internal/testing:
//
//	run_scenarios       run YAML scenarios, results as JSON
//	list_scenarios      scenarios with step counts and tags
//	validate_scenarios  structure, JMESPath and placeholder checks
//	get_results         results of the last run
//
// Every failure is reported as a tool error result. The server never returns
// a protocol error for a bad argument or a failed write.
//
// Relative file paths are resolved against the server's root directory.
//
// Usage:
//
//	srv, err := agent.NewServer(cfg, agent.Options{Root: "."})
//	if err != nil {
//	    return err
//	}
//	return srv.Serve()
package agent
