// Package mock provides a mock HTTP API for exercising test scenarios without
// a real backend.
//
// A mock API is a list of routes. Each route names a method and a path, where
// segments like {id} capture path parameters, and a list of responses. The
// first response whose condition matches the request is returned; when none
// matches, the first response is the fallback.
//
// Conditions and placeholders can reference path parameters and query
// parameters by name, the decoded JSON request body under "body", the
// request "method" and "path", and the current time as "now".
//
// Configuration Format:
//
//	routes:
//	  - method: POST
//	    path: /api/users
//	    responses:
//	      - condition:
//	          body.name: taken
//	        status: 409
//	        body:
//	          error: "name {{ body.name }} is taken"
//	      - status: 201
//	        body:
//	          id: 42
//	          name: "{{ body.name }}"
//	          created_at: "{{ now }}"
//	  - method: GET
//	    path: /api/users/{id}
//	    responses:
//	      - delay: 100ms
//	        body:
//	          id: "{{ id }}"
//
// Server implements http.Handler and records every request it receives.
// HTTPServer serves it on a TCP port, which is what `apiauto mock` runs.
package mock
