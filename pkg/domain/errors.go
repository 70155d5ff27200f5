package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors
var (
	ErrConfigConflict  = errors.New("rule settings conflict")
	ErrModuleLoad      = errors.New("action module load failed")
	ErrCompletion      = errors.New("completion request failed")
	ErrProviderUnknown = errors.New("unknown completion provider")
)

// ValueKind identifies the shape of a rule settings value. The merge contract
// treats a kind disagreement between source and destination as a conflict
// rather than silently overwriting.
type ValueKind string

const (
	KindScalar ValueKind = "scalar"
	KindList   ValueKind = "list"
	KindBranch ValueKind = "branch"
)

// ConflictError reports a kind mismatch found while merging rule settings.
// Path holds the keys from the tree root down to the conflicting key.
type ConflictError struct {
	Path       []string
	SourceKind ValueKind
	DestKind   ValueKind
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("rule settings conflict at %q: source is %s, destination is %s",
		strings.Join(e.Path, "."), e.SourceKind, e.DestKind)
}

func (e *ConflictError) Unwrap() error { return ErrConfigConflict }

// ModuleLoadError reports an action module reference that could not be
// resolved or whose loader failed.
type ModuleLoadError struct {
	Ref string
	Err error
}

func (e *ModuleLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load action module %q: %v", e.Ref, e.Err)
	}
	return fmt.Sprintf("load action module %q: no such module", e.Ref)
}

func (e *ModuleLoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrModuleLoad}
	}
	return []error{ErrModuleLoad, e.Err}
}

// CompletionError reports a failed call to the external text-completion
// capability, tagged with the pipeline stage that issued it.
type CompletionError struct {
	Stage string
	Err   error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed during %s: %v", e.Stage, e.Err)
}

func (e *CompletionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCompletion}
	}
	return []error{ErrCompletion, e.Err}
}
