// Package rules models the structured (non-flow) part of a guardrail policy
// as a typed settings tree and implements the deep merge used to layer
// fragment settings onto a base configuration.
//
// A tree value is exactly one of scalar, list, or branch. Making the kind
// explicit keeps the merge's conflict rule checkable: a source value whose
// kind disagrees with an already-populated destination value fails with
// domain.ErrConfigConflict instead of silently clobbering.
package rules
