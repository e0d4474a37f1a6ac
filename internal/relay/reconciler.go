package relay

// Reconciler diffs a desired relay set against the currently running one.
type Reconciler struct{}

func NewReconciler() *Reconciler { return &Reconciler{} }

// Reconcile consumes current (the running list) and updated (the desired
// set, as freshly-parsed records with no runtime handles) and returns
// (keepOrNew, cleanup). current is left empty — every record it held ends
// up in exactly one of the two outputs.
//
// For each record d in updated, a record e in current with the same
// LocalMount is "promoted" (kept, with d's on_demand hot-applied) iff
// materially equivalent; otherwise e (if any) is demoted into cleanup and d
// is deep-copied into a fresh record, inheriting any source handle d
// carries (the source handle is transferred, never duplicated, since only
// one worker may ever own a given slot). Output order is the reverse of
// updated's order (LIFO push); order carries no semantic weight.
func (rc *Reconciler) Reconcile(current *List, updated []*Record) (keepOrNew *List, cleanup *List) {
	keepOrNew = NewList()
	cleanup = NewList()

	for _, d := range updated {
		if e, ok := current.Remove(d.LocalMount); ok {
			if e.MateriallyEquivalent(d) {
				e.OnDemand = d.OnDemand
				keepOrNew.Prepend(e)
				continue
			}
			cleanup.Append(e)
		}

		introduced := d.Clone()
		introduced.Source = d.Source
		d.Source = nil
		keepOrNew.Prepend(introduced)
	}

	for _, r := range current.Drain() {
		cleanup.Append(r)
	}
	return keepOrNew, cleanup
}
