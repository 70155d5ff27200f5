package catalog

import "sort"

// Overlay layers one catalog over another: ids present in the overlay shadow
// the base. Used to extend the built-in library with operator-defined
// fragments from a catalog file.
type Overlay struct {
	over Catalog
	base Catalog
}

// NewOverlay creates an overlay catalog.
func NewOverlay(over, base Catalog) *Overlay {
	return &Overlay{over: over, base: base}
}

// Get returns the fragment for the given id, preferring the overlay.
func (o *Overlay) Get(id string) (Fragment, bool) {
	if f, ok := o.over.Get(id); ok {
		return f, true
	}
	return o.base.Get(id)
}

// List returns all fragments from both catalogs ordered by id, with overlay
// fragments shadowing base fragments of the same id.
func (o *Overlay) List() []Fragment {
	seen := make(map[string]struct{})
	var out []Fragment
	for _, f := range o.over.List() {
		seen[f.ID] = struct{}{}
		out = append(out, f)
	}
	for _, f := range o.base.List() {
		if _, shadowed := seen[f.ID]; shadowed {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
