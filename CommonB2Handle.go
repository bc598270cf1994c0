package box2d

import "fmt"

// b2Handle addresses a slot in a world arena. index1 is the slot index plus
// one so the zero value is the null handle.
type b2Handle struct {
	index1     int32
	generation uint32
}

func (h b2Handle) IsNull() bool {
	return h.index1 == 0
}

func (h b2Handle) index() int {
	return int(h.index1) - 1
}

func (h b2Handle) String() string {
	if h.IsNull() {
		return "null"
	}
	return fmt.Sprintf("%d:%d", h.index(), h.generation)
}

// B2BodyId is a stable handle to a body owned by a world.
type B2BodyId struct{ b2Handle }

// B2FixtureId is a stable handle to a fixture owned by a body.
type B2FixtureId struct{ b2Handle }

// B2JointId is a stable handle to a joint owned by a world.
type B2JointId struct{ b2Handle }

// B2ContactId is a stable handle to a contact owned by the contact manager.
type B2ContactId struct{ b2Handle }

type b2ArenaSlot[T comparable] struct {
	item       T
	generation uint32
}

// b2Arena stores entities densely. T is a pointer or interface type whose
// zero value marks a free slot. Released slots are recycled and their
// generation is bumped so outstanding handles go stale.
type b2Arena[T comparable] struct {
	slots []b2ArenaSlot[T]
	free  []int32
	count int
}

func (a *b2Arena[T]) alloc(item T) b2Handle {
	var index int32
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		index = int32(len(a.slots))
		a.slots = append(a.slots, b2ArenaSlot[T]{generation: 1})
	}

	slot := &a.slots[index]
	slot.item = item
	a.count++
	return b2Handle{index1: index + 1, generation: slot.generation}
}

func (a *b2Arena[T]) get(h b2Handle) T {
	var zero T
	i := h.index()
	if i < 0 || i >= len(a.slots) {
		return zero
	}

	slot := &a.slots[i]
	if slot.generation != h.generation {
		return zero
	}
	return slot.item
}

func (a *b2Arena[T]) release(h b2Handle) {
	var zero T
	i := h.index()
	B2Assert(i >= 0 && i < len(a.slots))

	slot := &a.slots[i]
	B2Assert(slot.generation == h.generation && slot.item != zero)
	slot.item = zero
	slot.generation++
	a.free = append(a.free, int32(i))
	a.count--
}

// each visits live items in slot order until fn returns false. Items
// released during the visit are skipped.
func (a *b2Arena[T]) each(fn func(T) bool) {
	var zero T
	for i := 0; i < len(a.slots); i++ {
		if item := a.slots[i].item; item != zero {
			if !fn(item) {
				return
			}
		}
	}
}

func (a *b2Arena[T]) len() int {
	return a.count
}
