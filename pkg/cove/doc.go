// Package cove implements chain-of-verification: a three-stage fact-checking
// pass over a generated response using only an external text-completion
// capability.
//
// The stages run strictly in order. Plan asks the completer for verification
// questions about the draft response; Execute answers each accepted question
// with an independent, stateless completion; Synthesize folds the question and
// answer pairs back into one corrected response. When planning yields no
// questions the draft is returned unchanged and the later stages never run.
package cove
