package box2d

import "testing"

// restingBox returns a world holding a box resting on a static slab and
// the touching contact between them.
func restingBox(t *testing.T) (*B2World, *B2Body, *B2Body, *B2Contact) {
	t.Helper()
	world := NewB2World(MakeB2Vec2(0, -10))

	gd := MakeB2BodyDef()
	ground, err := world.CreateBody(&gd)
	if err != nil {
		t.Fatal(err)
	}
	slab, err := NewB2BoxShape(5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ground.CreateFixtureFromShape(slab, 0); err != nil {
		t.Fatal(err)
	}

	bd := MakeB2BodyDef()
	bd.Type = B2_dynamicBody
	bd.Position = MakeB2Vec2(0, 0.99)
	box, err := world.CreateBody(&bd)
	if err != nil {
		t.Fatal(err)
	}
	shape, err := NewB2BoxShape(0.5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := box.CreateFixtureFromShape(shape, 1); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := world.Step(1.0/60.0, 8, 3); err != nil {
			t.Fatal(err)
		}
	}

	contacts := world.GetContacts()
	if len(contacts) != 1 || !contacts[0].IsTouching() {
		t.Fatalf("contacts = %v, want one touching contact", contacts)
	}
	return world, ground, box, contacts[0]
}

func TestWarmStartFollowsFeatureKeys(t *testing.T) {
	_, _, _, c := restingBox(t)

	if c.manifold.PointCount != 2 {
		t.Fatalf("box on slab has %d points, want 2", c.manifold.PointCount)
	}

	keys := [2]uint32{c.manifold.Points[0].Id.Key(), c.manifold.Points[1].Id.Key()}
	if keys[0] == keys[1] {
		t.Fatal("points share a feature key")
	}

	type impulse struct{ normal, tangent float64 }
	want := map[uint32]impulse{}
	for i := 0; i < 2; i++ {
		p := &c.manifold.Points[i]
		p.NormalImpulse = float64(10 * (i + 1))
		p.TangentImpulse = float64(i + 1)
		want[p.Id.Key()] = impulse{p.NormalImpulse, p.TangentImpulse}
	}

	// Store the cached points in the opposite order.
	c.manifold.Points[0], c.manifold.Points[1] = c.manifold.Points[1], c.manifold.Points[0]

	c.update(nil)

	if c.manifold.PointCount != 2 {
		t.Fatalf("update produced %d points", c.manifold.PointCount)
	}
	if c.manifold.Points[0].Id.Key() != keys[0] {
		t.Fatal("recomputed manifold changed point order")
	}
	for i := 0; i < 2; i++ {
		p := c.manifold.Points[i]
		got := impulse{p.NormalImpulse, p.TangentImpulse}
		if got != want[p.Id.Key()] {
			t.Fatalf("point %d (key %#x) impulses %+v, want %+v", i, p.Id.Key(), got, want[p.Id.Key()])
		}
	}
}

func TestContactOutlivesFatBoundsWhileShapesOverlap(t *testing.T) {
	world, ground, box, c := restingBox(t)
	cm := &world.contactManager

	groundProxy := ground.GetFixtures()[0].proxies[0].proxyId
	boxProxy := box.GetFixtures()[0].proxies[0].proxyId

	// Push the box proxy away while the body stays where it is.
	far := MakeB2AABB(MakeB2Vec2(100, 100), MakeB2Vec2(101, 101))
	cm.broadPhase.MoveProxy(boxProxy, far, MakeB2Vec2(100, 100))
	if cm.broadPhase.TestOverlap(groundProxy, boxProxy) {
		t.Fatal("fat AABBs still overlap")
	}

	cm.Collide()

	if world.GetContact(c.Id()) != c || !c.IsTouching() {
		t.Fatal("contact destroyed while the shapes still overlap")
	}

	// Once the shapes separate too, the contact goes.
	box.xf.P = MakeB2Vec2(50, 50)
	cm.Collide()

	if world.GetContact(c.Id()) != nil || world.GetContactCount() != 0 {
		t.Fatal("contact survived separated shapes")
	}
}
