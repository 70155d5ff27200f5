// Package llm provides thin clients for the external text-completion
// capability the verification pipeline and chat session run on.
//
// The capability itself stays external: these clients do nothing beyond
// shipping a prompt to an HTTP completion endpoint and returning the text.
// Provider selection is explicit configuration, never ambient state.
package llm
