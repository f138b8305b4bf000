// Package harness runs scenario-driven end-to-end tests against the full
// stack: store, identity, session and synchronizer wired together the way
// a live connection wires them.
//
// Scenarios are YAML files describing a sequence of user-level steps
// (signup, login, add, toggle, delete, filter, logout). The harness
// executes the steps against a fresh database with deterministic id and
// time generators, records a trace of the synchronizer's observable state
// after every step, and compares the trace against a golden file.
//
// A step that is expected to fail declares expect_error; the harness
// verifies the failure and records it in the trace instead of aborting.
//
// Golden files live in testdata/golden/{scenario}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
