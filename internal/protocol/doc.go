// Package protocol implements the arm's newline-delimited command protocol.
//
// This package handles line reassembly from the raw TCP byte stream and
// parsing of servo command lines. The wire format is deliberately loose
// JSON: a flat object with a "type":"servo" marker and any subset of
// "servo1".."servo4" integer fields, for example:
//
//	{"type":"servo","servo1":90,"servo3":45}
//
// Tolerance rules, fixed by the installed client base:
//
//   - fields may appear in any order, and any subset may be present
//   - whitespace after a colon is accepted
//   - a malformed field value drops only that field, never the line
//   - a missing closing brace on the final field parses to end of line
//   - unknown keys are ignored
//
// Because of these rules the parser is a per-field substring scan, not a
// JSON grammar; a strict decoder would reject traffic real clients produce.
//
// All parsing is pure and allocation-light. Errors returned here are
// classifications that the session logs and survives, never faults.
package protocol
