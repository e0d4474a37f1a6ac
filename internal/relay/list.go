package relay

// List is an ordered collection of *Record, unique by LocalMount. Two
// instances exist in the supervisor: one for statically-configured relays,
// one for master-discovered relays.
type List struct {
	records []*Record
	index   map[string]int
}

func NewList() *List {
	return &List{index: make(map[string]int)}
}

// Find returns the record registered under mount, if any.
func (l *List) Find(mount string) (*Record, bool) {
	i, ok := l.index[mount]
	if !ok {
		return nil, false
	}
	return l.records[i], true
}

// Append adds r to the end of the list. The caller must ensure LocalMount is
// not already present.
func (l *List) Append(r *Record) {
	l.index[r.LocalMount] = len(l.records)
	l.records = append(l.records, r)
}

// Prepend adds r to the front of the list. The reconciler builds its
// keep-or-new list with it, so that list ends up in reverse input order.
func (l *List) Prepend(r *Record) {
	l.records = append([]*Record{r}, l.records...)
	l.reindex()
}

// Remove unlinks and returns the record registered under mount.
func (l *List) Remove(mount string) (*Record, bool) {
	i, ok := l.index[mount]
	if !ok {
		return nil, false
	}
	r := l.records[i]
	l.records = append(l.records[:i], l.records[i+1:]...)
	l.reindex()
	return r, true
}

func (l *List) reindex() {
	for i, r := range l.records {
		l.index[r.LocalMount] = i
	}
}

// Records returns the list's records in order. The returned slice must not
// be mutated by the caller.
func (l *List) Records() []*Record {
	return l.records
}

// Len returns the number of records currently linked.
func (l *List) Len() int {
	return len(l.records)
}

// Drain removes and returns every record currently in the list, leaving it
// empty. Used by the reconciler to move every record left unmatched in the
// running list into the cleanup list.
func (l *List) Drain() []*Record {
	out := l.records
	l.records = nil
	l.index = make(map[string]int)
	return out
}
