// Package compose builds one runtime guardrail policy out of the operator's
// fragment selection: rule settings are deep-merged onto a base configuration,
// flow scripts are concatenated in selection order, and action module
// references are collected for loading.
//
// Composition is all-or-nothing. A merge conflict aborts the whole build, so
// no partially merged policy ever reaches the rule-flow runtime.
package compose
