// Package playground is the orchestration core shared by the front ends.
//
// A Session is produced by Bootstrap, which loads the engine and fetches the
// example catalog concurrently. Only a successful engine load yields a
// Binding, and a Runner can only be built from a Binding, so no run can be
// triggered before the engine is ready.
//
// The two user interactions are modelled as events:
//
//	d := session.Dispatcher(board)
//	st, _ := d.Dispatch(ctx, session.Initial(), playground.SelectionChanged{Name: "lines.dbn"})
//	st, _ = d.Dispatch(ctx, st, playground.RunRequested{Source: st.Text})
//
// Engine return values are converted once by Classify into an Image or a
// Failure. After a run, either image surfaces or the error surface are
// populated, never both.
//
// The secondary entry point is only invoked after the primary produced an
// image, and its raw return is shown without classification: the engine is
// assumed not to fail on the secondary output for a source that compiled.
package playground
