package box2d_test

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/ByteArena/box2d/v3"
)

func square(cx, cy, h float64) box2d.B2AABB {
	return box2d.MakeB2AABB(box2d.MakeB2Vec2(cx-h, cy-h), box2d.MakeB2Vec2(cx+h, cy+h))
}

func TestDynamicTreeQuery(t *testing.T) {
	tree := box2d.MakeB2DynamicTree()

	ids := map[int]int{}
	for i := 0; i < 10; i++ {
		id := tree.CreateProxy(square(float64(i)*3, 0, 0.5), i)
		ids[id] = i
	}
	if !tree.Validate() {
		t.Fatal("tree invalid after inserts")
	}

	var hits []int
	tree.Query(func(proxyId int) bool {
		hits = append(hits, tree.GetUserData(proxyId).(int))
		return true
	}, box2d.MakeB2AABB(box2d.MakeB2Vec2(5, -1), box2d.MakeB2Vec2(10, 1)))
	slices.Sort(hits)

	if want := []int{2, 3}; !slices.Equal(hits, want) {
		t.Fatalf("query hit %v, want %v", hits, want)
	}

	// Returning false stops the query.
	n := 0
	tree.Query(func(int) bool {
		n++
		return false
	}, box2d.MakeB2AABB(box2d.MakeB2Vec2(-100, -100), box2d.MakeB2Vec2(100, 100)))
	if n != 1 {
		t.Fatalf("query visited %d proxies after stop", n)
	}
}

func TestDynamicTreeRayCast(t *testing.T) {
	tree := box2d.MakeB2DynamicTree()
	for i := 0; i < 5; i++ {
		tree.CreateProxy(square(float64(i)*4, 0, 1), i)
	}

	input := box2d.B2RayCastInput{P1: box2d.MakeB2Vec2(-10, 0), P2: box2d.MakeB2Vec2(30, 0), MaxFraction: 1}

	var all []int
	tree.RayCast(func(in box2d.B2RayCastInput, proxyId int) float64 {
		all = append(all, tree.GetUserData(proxyId).(int))
		return in.MaxFraction
	}, input)
	slices.Sort(all)
	if want := []int{0, 1, 2, 3, 4}; !slices.Equal(all, want) {
		t.Fatalf("ray visited %v, want %v", all, want)
	}

	// Clipping to the hit fraction prunes proxies beyond it.
	var clipped []int
	tree.RayCast(func(in box2d.B2RayCastInput, proxyId int) float64 {
		i := tree.GetUserData(proxyId).(int)
		clipped = append(clipped, i)
		if i == 1 {
			return (4.0 - 1.0 + 10.0) / 40.0
		}
		return in.MaxFraction
	}, input)
	k := slices.Index(clipped, 1)
	if k < 0 {
		t.Fatalf("ray missed proxy 1: %v", clipped)
	}
	for _, i := range clipped[k+1:] {
		if i >= 2 {
			t.Fatalf("proxy %d visited after the ray was clipped at proxy 1: %v", i, clipped)
		}
	}

	// Returning zero terminates.
	n := 0
	tree.RayCast(func(box2d.B2RayCastInput, int) float64 {
		n++
		return 0
	}, input)
	if n != 1 {
		t.Fatalf("ray visited %d proxies after termination", n)
	}
}

func TestDynamicTreeMoveAndDestroy(t *testing.T) {
	tree := box2d.MakeB2DynamicTree()
	rng := rand.New(rand.NewSource(7))

	var proxies []int
	for i := 0; i < 200; i++ {
		x, y := rng.Float64()*100, rng.Float64()*100
		proxies = append(proxies, tree.CreateProxy(square(x, y, 0.5), i))
	}

	// A small move stays inside the fat AABB.
	fat := tree.GetFatAABB(proxies[0])
	if tree.MoveProxy(proxies[0], square(fat.GetCenter().X+0.01, fat.GetCenter().Y, 0.5), box2d.MakeB2Vec2(0.01, 0)) {
		t.Fatal("small move reinserted the proxy")
	}

	for i, id := range proxies {
		if i%3 == 0 {
			x, y := rng.Float64()*100, rng.Float64()*100
			if !tree.MoveProxy(id, square(x, y, 0.5), box2d.MakeB2Vec2(1, 0)) {
				t.Fatalf("proxy %d moved far but was not reinserted", id)
			}
			if !tree.GetFatAABB(id).Contains(square(x, y, 0.5)) {
				t.Fatalf("fat AABB of %d does not contain its new box", id)
			}
		}
	}
	if !tree.Validate() {
		t.Fatal("tree invalid after moves")
	}

	for i, id := range proxies {
		if i%2 == 0 {
			tree.DestroyProxy(id)
		}
	}
	if !tree.Validate() {
		t.Fatal("tree invalid after removals")
	}

	if b := tree.GetMaxBalance(); b > 2 {
		t.Fatalf("max balance = %d, want at most 2", b)
	}
	if r := tree.GetAreaRatio(); r < 1 {
		t.Fatalf("area ratio = %v, want at least 1", r)
	}
	if h := tree.GetHeight(); h < 7 || h > 20 {
		t.Fatalf("height = %d for 100 proxies", h)
	}
}

func TestBroadPhasePairs(t *testing.T) {
	bp := box2d.MakeB2BroadPhase()

	a := bp.CreateProxy(square(0, 0, 1), "a")
	bp.CreateProxy(square(1.5, 0, 1), "b")
	bp.CreateProxy(square(10, 0, 1), "c")

	if bp.GetProxyCount() != 3 {
		t.Fatalf("proxy count = %d", bp.GetProxyCount())
	}

	var pairs [][2]string
	bp.UpdatePairs(func(userDataA, userDataB any) {
		p := [2]string{userDataA.(string), userDataB.(string)}
		if p[0] > p[1] {
			p[0], p[1] = p[1], p[0]
		}
		pairs = append(pairs, p)
	})

	if len(pairs) != 1 || pairs[0] != [2]string{"a", "b"} {
		t.Fatalf("pairs = %v, want [[a b]]", pairs)
	}

	// No moves, no new pairs.
	pairs = nil
	bp.UpdatePairs(func(userDataA, userDataB any) {
		pairs = append(pairs, [2]string{userDataA.(string), userDataB.(string)})
	})
	if len(pairs) != 0 {
		t.Fatalf("idle update reported %v", pairs)
	}

	bp.MoveProxy(a, square(10, 1, 1), box2d.MakeB2Vec2(10, 1))
	pairs = nil
	bp.UpdatePairs(func(userDataA, userDataB any) {
		p := [2]string{userDataA.(string), userDataB.(string)}
		if p[0] > p[1] {
			p[0], p[1] = p[1], p[0]
		}
		pairs = append(pairs, p)
	})
	if len(pairs) != 1 || pairs[0] != [2]string{"a", "c"} {
		t.Fatalf("pairs after move = %v, want [[a c]]", pairs)
	}
}
