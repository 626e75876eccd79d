// Package logging provides the subsystem-tagged logging used across apiauto.
//
// It is a thin layer over Go's standard slog package: every entry carries a
// subsystem attribute and an optional error attribute, and level filtering is
// done by the handler configured at startup.
//
// # Log Levels
//   - **Debug**: Detailed information for debugging scenario runs and parsing
//   - **Info**: General progress messages (config loaded, files written)
//   - **Warn**: Non-fatal diagnostics such as unexpected keys in a matched response
//   - **Error**: Failures with the causing error attached
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Config", "Loaded configuration from %s", path)
//	logging.Warn("Matcher", "%s is not expected", key)
//	logging.Error("Runner", err, "Scenario %s failed", name)
//
// # Subsystem Organization
//
//   - **Config**: Configuration and environment loading
//   - **Matcher**: Structural response matching diagnostics
//   - **SpecFile**: Generated spec and script file writes
//   - **APIClient**: Outgoing HTTP requests of the test helpers
//   - **TestFramework**: Scenario loading and execution
//   - **Agent**: MCP tool server operations
//
// Before Init has been called, warnings and errors are written to stderr and
// lower levels are dropped.
package logging
