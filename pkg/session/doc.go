// Package session wires a composed guardrail policy into a per-turn chat
// loop. The rule-flow language itself is interpreted externally; this package
// only installs composed artifacts into a FlowRuntime and drives one turn at
// a time, degrading turn-level failures to an error without ending the
// session.
package session
