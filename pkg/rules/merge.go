package rules

import (
	"github.com/guardstack/guardstack/pkg/domain"
)

// Merge layers the source tree onto the destination tree, mutating the
// destination. Later merges therefore stack onto earlier ones and onto the
// base the destination was seeded with.
//
// Per key: branches recurse, lists append source items not already present
// (deep equality, first-occurrence order preserved), and scalars overwrite:
// the last merge wins. A kind disagreement between source and an
// already-populated destination fails with a *domain.ConflictError; the
// destination may be partially updated at that point and must be discarded by
// the caller.
func Merge(src, dst Tree) error {
	return mergeTree(src, dst, nil)
}

func mergeTree(src, dst Tree, path []string) error {
	for key, sv := range src {
		keyPath := append(append([]string(nil), path...), key)
		dv, exists := dst[key]

		switch sv.kind {
		case domain.KindBranch:
			if !exists {
				dv = Branch(Tree{})
				dst[key] = dv
			} else if dv.kind != domain.KindBranch {
				return conflict(keyPath, sv.kind, dv.kind)
			}
			if err := mergeTree(sv.branch, dv.branch, keyPath); err != nil {
				return err
			}

		case domain.KindList:
			if !exists {
				dv = List()
				dst[key] = dv
			} else if dv.kind != domain.KindList {
				return conflict(keyPath, sv.kind, dv.kind)
			}
			for _, item := range sv.list {
				if !containsEqual(dv.list, item) {
					dv.list = append(dv.list, item.Clone())
				}
			}

		default:
			if exists && dv.kind != domain.KindScalar {
				return conflict(keyPath, sv.kind, dv.kind)
			}
			dst[key] = sv.Clone()
		}
	}
	return nil
}

func containsEqual(items []*Value, candidate *Value) bool {
	for _, item := range items {
		if item.Equal(candidate) {
			return true
		}
	}
	return false
}

func conflict(path []string, srcKind, dstKind domain.ValueKind) error {
	return &domain.ConflictError{
		Path:       append([]string(nil), path...),
		SourceKind: srcKind,
		DestKind:   dstKind,
	}
}
