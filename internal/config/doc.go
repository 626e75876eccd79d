// Package config loads the configuration of the API test suite.
//
// Configuration lives in a single YAML file, apiauto.yaml by default:
//
//	default_environment: dev
//	environments:
//	  dev:
//	    hosts:
//	      reqres: reqres.in
//	headers:
//	  Accept: application/json
//	credentials:
//	  username: test123@mailinator.com
//	  password: secret
//	retry:
//	  count: 2
//	  sleep: 1s
//	timeout: 30s
//	spec_dir: spec/api
//	perf_dir: perf
//	scenario_dir: scenarios
//
// A .env file next to the config file is loaded first, without overriding
// variables that are already set. The environment then overrides the file:
// APP_ENV picks the environment, USERNAME and PASSWORD replace the
// credentials, RETRY_COUNT and RETRY_SLEEP replace the retry settings.
// The lowercase spellings of these variables are accepted too.
//
// A missing config file is not an error; GetDefaultConfig is used instead.
package config
