package relay

import "testing"

func TestListAppendFindRemove(t *testing.T) {
	t.Parallel()

	l := NewList()
	a := &Record{LocalMount: "/a"}
	b := &Record{LocalMount: "/b"}
	l.Append(a)
	l.Append(b)

	if got, ok := l.Find("/a"); !ok || got != a {
		t.Fatalf("Find(/a) = %v, %v", got, ok)
	}

	removed, ok := l.Remove("/a")
	if !ok || removed != a {
		t.Fatalf("Remove(/a) = %v, %v", removed, ok)
	}
	if _, ok := l.Find("/a"); ok {
		t.Fatal("Find(/a) should fail after removal")
	}
	if got, ok := l.Find("/b"); !ok || got != b {
		t.Fatalf("Find(/b) after unrelated removal = %v, %v", got, ok)
	}
}

func TestListPrependOrderAndReindex(t *testing.T) {
	t.Parallel()

	l := NewList()
	a := &Record{LocalMount: "/a"}
	b := &Record{LocalMount: "/b"}
	c := &Record{LocalMount: "/c"}
	l.Append(a)
	l.Prepend(b)
	l.Prepend(c)

	want := []*Record{c, b, a}
	got := l.Records()
	if len(got) != len(want) {
		t.Fatalf("Records() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Records()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if r, ok := l.Find("/b"); !ok || r != b {
		t.Fatalf("Find(/b) after Prepend reindex = %v, %v", r, ok)
	}
}

func TestListDrainEmptiesAndReturnsAll(t *testing.T) {
	t.Parallel()

	l := NewList()
	a := &Record{LocalMount: "/a"}
	b := &Record{LocalMount: "/b"}
	l.Append(a)
	l.Append(b)

	drained := l.Drain()
	if len(drained) != 2 {
		t.Fatalf("Drain() len = %d, want 2", len(drained))
	}
	if l.Len() != 0 {
		t.Fatalf("Len() after Drain = %d, want 0", l.Len())
	}
	if _, ok := l.Find("/a"); ok {
		t.Fatal("Find(/a) should fail after Drain")
	}
}
