package box2d

import "testing"

func TestArenaStaleHandles(t *testing.T) {
	var arena b2Arena[*B2Body]

	a, b := &B2Body{}, &B2Body{}
	ha := arena.alloc(a)
	hb := arena.alloc(b)

	if ha.IsNull() || hb.IsNull() {
		t.Fatal("allocated handles must not be null")
	}
	if got := arena.get(ha); got != a {
		t.Fatalf("get(%s) = %p, want %p", ha, got, a)
	}
	if arena.len() != 2 {
		t.Fatalf("len = %d, want 2", arena.len())
	}

	arena.release(ha)
	if got := arena.get(ha); got != nil {
		t.Fatalf("released handle %s still resolves", ha)
	}

	// The slot is recycled with a new generation.
	c := &B2Body{}
	hc := arena.alloc(c)
	if hc.index() != ha.index() {
		t.Fatalf("slot %d not recycled, got %d", ha.index(), hc.index())
	}
	if hc.generation == ha.generation {
		t.Fatal("recycled slot kept its generation")
	}
	if got := arena.get(ha); got != nil {
		t.Fatal("stale handle resolves to the new occupant")
	}
	if got := arena.get(hc); got != c {
		t.Fatal("new handle does not resolve")
	}

	var null b2Handle
	if !null.IsNull() || arena.get(null) != nil {
		t.Fatal("the zero handle must be null and resolve to nothing")
	}
	if null.String() != "null" {
		t.Fatalf("null handle prints %q", null.String())
	}
}

func TestArenaEachSkipsReleased(t *testing.T) {
	var arena b2Arena[*B2Body]

	var handles []b2Handle
	for i := 0; i < 5; i++ {
		handles = append(handles, arena.alloc(&B2Body{serial: uint64(i)}))
	}
	arena.release(handles[1])
	arena.release(handles[3])

	var seen []uint64
	arena.each(func(b *B2Body) bool {
		seen = append(seen, b.serial)
		return true
	})

	want := []uint64{0, 2, 4}
	if len(seen) != len(want) {
		t.Fatalf("visited %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("visited %v, want %v", seen, want)
		}
	}

	n := 0
	arena.each(func(*B2Body) bool {
		n++
		return false
	})
	if n != 1 {
		t.Fatalf("each kept going after false: %d visits", n)
	}
}
