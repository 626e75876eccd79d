// Package cli holds the output helpers shared by the apiauto commands:
// output format flags, JSON and YAML rendering, tables and a progress
// spinner that only draws on terminals.
package cli
