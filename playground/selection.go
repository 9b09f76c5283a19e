package playground

import (
	"github.com/wippyai/dbn-playground/catalog"
	"github.com/wippyai/dbn-playground/errors"
)

// State is the user-visible playground state: the selected example name and
// the editable source text.
type State struct {
	Selected string
	Text     string
}

// Select replaces the text with the content of the named example. The text
// is emptied when the example's content was never fetched.
func Select(cat *catalog.Catalog, st State, name string) (State, error) {
	ex, ok := cat.Lookup(name)
	if !ok {
		return st, errors.NotFound(errors.PhaseSelect, "example", name)
	}
	st.Selected = name
	st.Text = ex.Text()
	return st, nil
}
