package box2d_test

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/ByteArena/box2d/v3"
	"github.com/pmezard/go-difflib/difflib"
)

const (
	timeStep           = 1.0 / 60.0
	velocityIterations = 8
	positionIterations = 3
)

func mustBody(t *testing.T, world *box2d.B2World, def box2d.B2BodyDef) *box2d.B2Body {
	t.Helper()
	body, err := world.CreateBody(&def)
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func mustFixture(t *testing.T, body *box2d.B2Body, shape box2d.B2Shape, density float64) *box2d.B2Fixture {
	t.Helper()
	fixture, err := body.CreateFixtureFromShape(shape, density)
	if err != nil {
		t.Fatal(err)
	}
	return fixture
}

func dynamicAt(x, y float64) box2d.B2BodyDef {
	bd := box2d.MakeB2BodyDef()
	bd.Type = box2d.B2_dynamicBody
	bd.Position = box2d.MakeB2Vec2(x, y)
	return bd
}

func staticAt(x, y float64) box2d.B2BodyDef {
	bd := box2d.MakeB2BodyDef()
	bd.Position = box2d.MakeB2Vec2(x, y)
	return bd
}

func newGround(t *testing.T, world *box2d.B2World) *box2d.B2Body {
	t.Helper()
	ground := mustBody(t, world, staticAt(0, 0))
	mustFixture(t, ground, mustEdge(t, box2d.MakeB2Vec2(-40, 0), box2d.MakeB2Vec2(40, 0)), 0)
	return ground
}

func step(t *testing.T, world *box2d.B2World, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := world.Step(timeStep, velocityIterations, positionIterations); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
}

func TestRestIsIdempotent(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, 0))
	world.SetIslandWorkers(3)

	var bodies []*box2d.B2Body
	for i := 0; i < 6; i++ {
		bd := dynamicAt(float64(i)*3, float64(i%2))
		bd.Angle = 0.3 * float64(i)
		body := mustBody(t, world, bd)
		if i%2 == 0 {
			mustFixture(t, body, mustBox(t, 0.5, 1), 1)
		} else {
			mustFixture(t, body, mustCircle(t, box2d.MakeB2Vec2(0, 0), 0.75), 2)
		}
		bodies = append(bodies, body)
	}

	type pose struct {
		p box2d.B2Vec2
		a float64
	}
	before := make([]pose, len(bodies))
	for i, b := range bodies {
		before[i] = pose{b.GetPosition(), b.GetAngle()}
	}

	step(t, world, 240)

	for i, b := range bodies {
		got := pose{b.GetPosition(), b.GetAngle()}
		if !nearVec(got.p, before[i].p, 1e-12) || !near(got.a, before[i].a, 1e-12) {
			t.Fatalf("body %d moved from %+v to %+v", i, before[i], got)
		}
		if b.GetLinearVelocity() != (box2d.B2Vec2{}) || b.GetAngularVelocity() != 0 {
			t.Fatalf("body %d picked up velocity %v %v", i, b.GetLinearVelocity(), b.GetAngularVelocity())
		}
	}
}

func TestCircleSettlesAndSleeps(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))
	newGround(t, world)

	ball := mustBody(t, world, dynamicAt(0, 2))
	mustFixture(t, ball, mustCircle(t, box2d.MakeB2Vec2(0, 0), 0.5), 1)

	asleepAt := -1
	for i := 0; i < 600 && asleepAt < 0; i++ {
		step(t, world, 1)
		if !ball.IsAwake() {
			asleepAt = i
		}
	}
	if asleepAt < 0 {
		t.Fatalf("ball still awake at %v, velocity %v", ball.GetPosition(), ball.GetLinearVelocity())
	}

	var touching []*box2d.B2Contact
	for _, c := range ball.GetContacts() {
		if c.IsTouching() {
			touching = append(touching, c)
		}
	}
	if len(touching) != 1 {
		t.Fatalf("ball has %d touching contacts, want 1", len(touching))
	}
	wm := touching[0].GetWorldManifold()
	if sep := wm.Separations[0]; math.Abs(sep) > 2*box2d.B2_linearSlop {
		t.Fatalf("separation %v after settling", sep)
	}

	rest := ball.GetPosition()
	step(t, world, 120)
	if ball.IsAwake() {
		t.Fatal("ball woke up without a disturbance")
	}
	if ball.GetPosition() != rest {
		t.Fatalf("sleeping ball moved from %v to %v", rest, ball.GetPosition())
	}

	// A disturbance wakes it.
	ball.ApplyLinearImpulseToCenter(box2d.MakeB2Vec2(1, 0), true)
	if !ball.IsAwake() {
		t.Fatal("impulse did not wake the ball")
	}
}

func TestFilteredPairsNeverTouch(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, 0))

	begins := map[[2]string]int{}
	world.SetContactListener(box2d.B2ContactListenerFuncs{
		OnBeginContact: func(c *box2d.B2Contact) {
			a := c.GetFixtureA().GetUserData().(string)
			b := c.GetFixtureB().GetUserData().(string)
			if a > b {
				a, b = b, a
			}
			begins[[2]string{a, b}]++
		},
	})

	newFixture := func(name string, x float64, filter box2d.B2Filter) *box2d.B2Fixture {
		body := mustBody(t, world, dynamicAt(x, 0))
		fd := box2d.MakeB2FixtureDef()
		fd.Shape = mustBox(t, 0.5, 0.5)
		fd.Density = 1
		fd.Filter = filter
		fd.UserData = name
		f, err := body.CreateFixture(&fd)
		if err != nil {
			t.Fatal(err)
		}
		return f
	}

	grouped := box2d.MakeB2Filter()
	grouped.GroupIndex = -1

	masked := box2d.MakeB2Filter()
	masked.CategoryBits = 0x0002
	masked.MaskBits = 0xFFFF &^ 0x0004
	excluded := box2d.MakeB2Filter()
	excluded.CategoryBits = 0x0004

	newFixture("g1", 0, grouped)
	newFixture("g2", 0.2, grouped)
	m := newFixture("m", 10, masked)
	e := newFixture("e", 10.2, excluded)

	step(t, world, 30)

	for _, c := range world.GetContacts() {
		a := c.GetFixtureA().GetUserData().(string)
		b := c.GetFixtureB().GetUserData().(string)
		if c.GetManifold().PointCount != 0 {
			t.Fatalf("filtered pair %s/%s has manifold points", a, b)
		}
	}
	if len(begins) != 0 {
		t.Fatalf("begin contact for filtered pairs: %v", begins)
	}

	// Opening the mask lets the pair collide on the next step.
	masked.MaskBits = 0xFFFF
	m.SetFilterData(masked)
	if m.GetFilterData() != masked {
		t.Fatal("filter data not stored")
	}
	e.GetBody().SetAwake(true)

	// The pair is found on the next step and touches on the one after.
	step(t, world, 2)
	if begins[[2]string{"e", "m"}] != 1 {
		t.Fatalf("begin contacts after refilter: %v", begins)
	}
	if begins[[2]string{"g1", "g2"}] != 0 {
		t.Fatal("grouped pair collided")
	}
}

func stackResidual(t *testing.T, warm bool) float64 {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))
	world.SetWarmStarting(warm)
	newGround(t, world)

	var boxes []*box2d.B2Body
	for i := 0; i < 5; i++ {
		bd := dynamicAt(0, 0.5+float64(i))
		bd.AllowSleep = false
		box := mustBody(t, world, bd)
		mustFixture(t, box, mustBox(t, 0.5, 0.5), 1)
		boxes = append(boxes, box)
	}

	step(t, world, 180)

	residual := 0.0
	for _, b := range boxes {
		residual += b.GetLinearVelocity().Length() + math.Abs(b.GetAngularVelocity())
	}
	return residual
}

func TestWarmStartingConverges(t *testing.T) {
	warm := stackResidual(t, true)
	cold := stackResidual(t, false)
	if warm > cold {
		t.Fatalf("warm started residual %v exceeds cold residual %v", warm, cold)
	}
}

func TestRevoluteAnchorsStayTogether(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))
	pivot := mustBody(t, world, staticAt(0, 10))

	prev := pivot
	var joints []box2d.B2Joint
	for i := 0; i < 4; i++ {
		link := mustBody(t, world, dynamicAt(float64(i)+0.5, 10))
		mustFixture(t, link, mustBox(t, 0.5, 0.125), 20)

		jd := box2d.MakeB2RevoluteJointDef()
		jd.Initialize(prev, link, box2d.MakeB2Vec2(float64(i), 10))
		j, err := world.CreateJoint(&jd)
		if err != nil {
			t.Fatal(err)
		}
		joints = append(joints, j)
		prev = link
	}

	for i := 0; i < 600; i++ {
		// Push the free end around.
		f := box2d.MakeB2Vec2(50*math.Cos(float64(i)*0.1), 50*math.Sin(float64(i)*0.07))
		prev.ApplyForce(f, prev.GetWorldPoint(box2d.MakeB2Vec2(0.5, 0)), true)
		step(t, world, 1)
	}

	for i, j := range joints {
		if d := box2d.B2Vec2Distance(j.GetAnchorA(), j.GetAnchorB()); d > 0.02 {
			t.Fatalf("joint %d anchors %v apart", i, d)
		}
	}
}

type goodbyes struct {
	fixtures []*box2d.B2Fixture
	joints   []box2d.B2Joint
}

func (g *goodbyes) SayGoodbyeToFixture(f *box2d.B2Fixture) { g.fixtures = append(g.fixtures, f) }
func (g *goodbyes) SayGoodbyeToJoint(j box2d.B2Joint)      { g.joints = append(g.joints, j) }

func TestDestroyBodyCascades(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))
	listener := &goodbyes{}
	world.SetDestructionListener(listener)
	ground := newGround(t, world)

	box := mustBody(t, world, dynamicAt(0, 0.5))
	mustFixture(t, box, mustBox(t, 0.5, 0.5), 1)
	mustFixture(t, box, mustCircle(t, box2d.MakeB2Vec2(0, 0.5), 0.25), 1)

	neighbour := mustBody(t, world, dynamicAt(1, 0.5))
	mustFixture(t, neighbour, mustBox(t, 0.5, 0.5), 1)

	jd := box2d.MakeB2DistanceJointDef()
	jd.Initialize(ground, box, box2d.MakeB2Vec2(0, 5), box.GetPosition())
	if _, err := world.CreateJoint(&jd); err != nil {
		t.Fatal(err)
	}

	step(t, world, 10)

	if len(box.GetContacts()) == 0 {
		t.Fatal("box has no contacts before destruction")
	}
	region := box.GetFixtures()[0].GetAABB(0)
	region.Combine(box.GetFixtures()[1].GetAABB(0))
	id := box.Id()

	if err := world.DestroyBody(box); err != nil {
		t.Fatal(err)
	}

	if len(listener.fixtures) != 2 || len(listener.joints) != 1 {
		t.Fatalf("goodbyes: %d fixtures, %d joints", len(listener.fixtures), len(listener.joints))
	}
	if world.GetBody(id) != nil {
		t.Fatal("destroyed body still resolves")
	}
	if world.GetJointCount() != 0 || len(ground.GetJoints()) != 0 {
		t.Fatal("joint survived its body")
	}
	for _, c := range world.GetContacts() {
		if c.GetBodyA() == box || c.GetBodyB() == box {
			t.Fatal("contact still references the destroyed body")
		}
	}
	for _, c := range neighbour.GetContacts() {
		if c.GetBodyA() == box || c.GetBodyB() == box {
			t.Fatal("neighbour keeps a contact with the destroyed body")
		}
	}

	world.QueryAABB(func(f *box2d.B2Fixture) bool {
		for _, gone := range listener.fixtures {
			if f == gone {
				t.Fatal("query found a destroyed fixture")
			}
		}
		return true
	}, region)

	if err := world.DestroyBody(box); !errors.Is(err, box2d.ErrStaleHandle) {
		t.Fatalf("second destroy: %v, want ErrStaleHandle", err)
	}

	step(t, world, 10)
}

func TestWorldLockedInCallbacks(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))
	ground := newGround(t, world)

	ball := mustBody(t, world, dynamicAt(0, 0.5))
	mustFixture(t, ball, mustCircle(t, box2d.MakeB2Vec2(0, 0), 0.5), 1)

	var errs []error
	lockedInCallback := false
	world.SetContactListener(box2d.B2ContactListenerFuncs{
		OnBeginContact: func(c *box2d.B2Contact) {
			bd := box2d.MakeB2BodyDef()
			_, err := world.CreateBody(&bd)
			errs = append(errs, err)
			errs = append(errs, world.DestroyBody(ground))
			errs = append(errs, world.Step(timeStep, 1, 1))
			lockedInCallback = world.IsLocked()
		},
	})

	step(t, world, 5)

	if len(errs) != 3 {
		t.Fatalf("begin contact made %d calls, want 3", len(errs))
	}
	for i, err := range errs {
		if !errors.Is(err, box2d.ErrWorldLocked) {
			t.Fatalf("call %d: %v, want ErrWorldLocked", i, err)
		}
	}
	if !lockedInCallback {
		t.Fatal("world not locked in callback")
	}
	if world.IsLocked() {
		t.Fatal("world still locked after step")
	}

	var queryErr error
	world.QueryAABB(func(f *box2d.B2Fixture) bool {
		queryErr = f.GetBody().DestroyFixture(f)
		return false
	}, box2d.MakeB2AABB(box2d.MakeB2Vec2(-1, -1), box2d.MakeB2Vec2(1, 1)))
	if !errors.Is(queryErr, box2d.ErrWorldLocked) {
		t.Fatalf("destroy fixture in query: %v, want ErrWorldLocked", queryErr)
	}
	if world.GetBodyCount() != 2 {
		t.Fatalf("bodies = %d, want 2", world.GetBodyCount())
	}
}

func TestContactEvents(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))
	newGround(t, world)

	box := mustBody(t, world, dynamicAt(0, 2))
	mustFixture(t, box, mustBox(t, 0.5, 0.5), 1)

	var begin, end, pre, post int
	var maxImpulse float64
	world.SetContactListener(box2d.B2ContactListenerFuncs{
		OnBeginContact: func(*box2d.B2Contact) { begin++ },
		OnEndContact:   func(*box2d.B2Contact) { end++ },
		OnPreSolve:     func(*box2d.B2Contact, box2d.B2Manifold) { pre++ },
		OnPostSolve: func(c *box2d.B2Contact, impulse *box2d.B2ContactImpulse) {
			post++
			if impulse.Count != c.GetManifold().PointCount {
				t.Errorf("impulse has %d points, manifold %d", impulse.Count, c.GetManifold().PointCount)
			}
			for i := 0; i < impulse.Count; i++ {
				maxImpulse = math.Max(maxImpulse, impulse.NormalImpulses[i])
			}
		},
	})

	step(t, world, 90)
	if begin != 1 || end != 0 {
		t.Fatalf("after landing: %d begins, %d ends", begin, end)
	}
	if pre == 0 || post == 0 || maxImpulse <= 0 {
		t.Fatalf("solver callbacks: %d pre, %d post, max impulse %v", pre, post, maxImpulse)
	}

	if err := box.SetTransform(box2d.MakeB2Vec2(0, 10), 0); err != nil {
		t.Fatal(err)
	}
	step(t, world, 1)
	if end != 1 {
		t.Fatalf("after lifting: %d ends, want 1", end)
	}
}

func TestSensorReportsOverlapWithoutResponse(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))

	trigger := mustBody(t, world, staticAt(0, 0))
	fd := box2d.MakeB2FixtureDef()
	fd.Shape = mustBox(t, 2, 2)
	fd.IsSensor = true
	if _, err := trigger.CreateFixture(&fd); err != nil {
		t.Fatal(err)
	}

	ball := mustBody(t, world, dynamicAt(0, 4))
	mustFixture(t, ball, mustCircle(t, box2d.MakeB2Vec2(0, 0), 0.25), 1)

	begins, ends := 0, 0
	world.SetContactListener(box2d.B2ContactListenerFuncs{
		OnBeginContact: func(*box2d.B2Contact) { begins++ },
		OnEndContact:   func(*box2d.B2Contact) { ends++ },
	})

	step(t, world, 120)
	if begins != 1 || ends != 1 {
		t.Fatalf("sensor events: %d begins, %d ends, want 1 and 1", begins, ends)
	}
	if y := ball.GetPosition().Y; y > -2 {
		t.Fatalf("ball stopped at y=%v inside a sensor", y)
	}
}

func TestBulletDoesNotTunnel(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, 0))

	wall := mustBody(t, world, staticAt(0, 0))
	mustFixture(t, wall, mustEdge(t, box2d.MakeB2Vec2(0, -5), box2d.MakeB2Vec2(0, 5)), 0)

	bd := dynamicAt(-20, 0)
	bd.LinearVelocity = box2d.MakeB2Vec2(500, 0)
	bd.Bullet = true
	bullet := mustBody(t, world, bd)
	mustFixture(t, bullet, mustCircle(t, box2d.MakeB2Vec2(0, 0), 0.1), 1)

	for i := 0; i < 30; i++ {
		step(t, world, 1)
		if x := bullet.GetPosition().X; x > 0 {
			t.Fatalf("step %d: bullet passed the wall, x=%v", i, x)
		}
	}
}

func TestRayCastProtocol(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, 0))

	var fixtures []*box2d.B2Fixture
	for i := 0; i < 3; i++ {
		body := mustBody(t, world, staticAt(float64(i)*4, 0))
		fixtures = append(fixtures, mustFixture(t, body, mustBox(t, 1, 1), 0))
	}

	p1, p2 := box2d.MakeB2Vec2(-5, 0), box2d.MakeB2Vec2(15, 0)

	hit, ok := world.RayCastClosest(p1, p2)
	if !ok || hit.Fixture != fixtures[0] {
		t.Fatalf("closest hit = %+v, %v", hit, ok)
	}
	if !nearVec(hit.Point, box2d.MakeB2Vec2(-1, 0), 1e-9) || !nearVec(hit.Normal, box2d.MakeB2Vec2(-1, 0), 1e-9) {
		t.Fatalf("closest point %v normal %v", hit.Point, hit.Normal)
	}
	if !near(hit.Fraction, 0.2, 1e-9) {
		t.Fatalf("closest fraction = %v", hit.Fraction)
	}

	all := world.RayCastAll(p1, p2)
	if len(all) != 3 {
		t.Fatalf("all hits = %d, want 3", len(all))
	}
	for i, h := range all {
		if h.Fixture != fixtures[i] {
			t.Fatalf("hit %d is not fixture %d", i, i)
		}
	}

	// Negative skips, zero terminates.
	var seen []*box2d.B2Fixture
	world.RayCast(func(f *box2d.B2Fixture, _, _ box2d.B2Vec2, fraction float64) float64 {
		seen = append(seen, f)
		if f == fixtures[0] {
			return -1
		}
		return fraction
	}, p1, p2)
	if !containsFixture(seen, fixtures[1]) {
		t.Fatal("skipping fixture 0 hid fixture 1")
	}

	n := 0
	world.RayCast(func(*box2d.B2Fixture, box2d.B2Vec2, box2d.B2Vec2, float64) float64 {
		n++
		return 0
	}, p1, p2)
	if n != 1 {
		t.Fatalf("terminated ray reported %d hits", n)
	}

	if _, ok := world.RayCastClosest(p1, p1); ok {
		t.Fatal("zero length ray hit")
	}
	if hits := world.RayCastAll(box2d.MakeB2Vec2(0, 5), box2d.MakeB2Vec2(8, 5)); len(hits) != 0 {
		t.Fatalf("ray above the boxes hit %d fixtures", len(hits))
	}
}

func containsFixture(fs []*box2d.B2Fixture, f *box2d.B2Fixture) bool {
	for _, x := range fs {
		if x == f {
			return true
		}
	}
	return false
}

func TestQueryAABB(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, 0))

	for i := 0; i < 5; i++ {
		body := mustBody(t, world, staticAt(float64(i)*3, 0))
		mustFixture(t, body, mustCircle(t, box2d.MakeB2Vec2(0, 0), 0.5), 0)
	}

	var xs []float64
	world.QueryAABB(func(f *box2d.B2Fixture) bool {
		xs = append(xs, f.GetBody().GetPosition().X)
		return true
	}, box2d.MakeB2AABB(box2d.MakeB2Vec2(2, -1), box2d.MakeB2Vec2(7, 1)))
	sort.Float64s(xs)

	if len(xs) != 2 || xs[0] != 3 || xs[1] != 6 {
		t.Fatalf("query found bodies at %v, want [3 6]", xs)
	}

	n := 0
	world.QueryAABB(func(*box2d.B2Fixture) bool {
		n++
		return false
	}, box2d.MakeB2AABB(box2d.MakeB2Vec2(-10, -10), box2d.MakeB2Vec2(20, 10)))
	if n != 1 {
		t.Fatalf("stopped query visited %d fixtures", n)
	}
}

func TestShiftOrigin(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))
	newGround(t, world)

	box := mustBody(t, world, dynamicAt(5, 0.5))
	mustFixture(t, box, mustBox(t, 0.5, 0.5), 1)
	step(t, world, 30)

	before := box.GetPosition()
	if err := world.ShiftOrigin(box2d.MakeB2Vec2(5, 0)); err != nil {
		t.Fatal(err)
	}
	if got := box.GetPosition(); !nearVec(got, box2d.B2Vec2Sub(before, box2d.MakeB2Vec2(5, 0)), 1e-12) {
		t.Fatalf("shifted position = %v, before %v", got, before)
	}

	found := false
	world.QueryAABB(func(f *box2d.B2Fixture) bool {
		found = found || f.GetBody() == box
		return true
	}, box2d.MakeB2AABB(box2d.MakeB2Vec2(-0.1, 0.4), box2d.MakeB2Vec2(0.1, 0.6)))
	if !found {
		t.Fatal("broad-phase not shifted with the bodies")
	}

	step(t, world, 30)
	if y := box.GetPosition().Y; !near(y, 0.5, 0.02) {
		t.Fatalf("box fell through after the shift: y=%v", y)
	}
}

func TestCreateBodyRejectsInvalidDef(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))

	bd := dynamicAt(math.Inf(1), 0)
	if _, err := world.CreateBody(&bd); !errors.Is(err, box2d.ErrInvalidBody) {
		t.Fatalf("infinite position: %v, want ErrInvalidBody", err)
	}

	bd = dynamicAt(0, 0)
	bd.LinearDamping = -1
	if _, err := world.CreateBody(&bd); !errors.Is(err, box2d.ErrInvalidBody) {
		t.Fatalf("negative damping: %v, want ErrInvalidBody", err)
	}
	if world.GetBodyCount() != 0 {
		t.Fatal("invalid bodies were created")
	}
}

// buildCharacters builds a few independent islands of resting and falling
// shapes.
func buildCharacters(t *testing.T, world *box2d.B2World) map[string]*box2d.B2Body {
	characters := make(map[string]*box2d.B2Body)

	// Ground body
	characters["00_ground"] = newGround(t, world)

	// Collinear edges with no adjacency information.
	{
		ground := mustBody(t, world, staticAt(0, 0))
		mustFixture(t, ground, mustEdge(t, box2d.MakeB2Vec2(-8, 1), box2d.MakeB2Vec2(-6, 1)), 0)
		mustFixture(t, ground, mustEdge(t, box2d.MakeB2Vec2(-6, 1), box2d.MakeB2Vec2(-4, 1)), 0)
		mustFixture(t, ground, mustEdge(t, box2d.MakeB2Vec2(-4, 1), box2d.MakeB2Vec2(-2, 1)), 0)
		characters["01_colinearground"] = ground
	}

	// Square tiles.
	{
		ground := mustBody(t, world, staticAt(0, 0))
		for _, x := range []float64{4, 6, 8} {
			tile, err := box2d.NewB2OrientedBoxShape(1, 1, box2d.MakeB2Vec2(x, 3), 0)
			if err != nil {
				t.Fatal(err)
			}
			mustFixture(t, ground, tile, 0)
		}
		characters["02_squaretiles"] = ground
	}

	character := func(name string, x, y float64, fixedRotation bool, shape box2d.B2Shape, friction float64) {
		bd := dynamicAt(x, y)
		bd.FixedRotation = fixedRotation
		bd.AllowSleep = false
		body := mustBody(t, world, bd)

		fd := box2d.MakeB2FixtureDef()
		fd.Shape = shape
		fd.Density = 20
		if friction > 0 {
			fd.Friction = friction
		}
		if _, err := body.CreateFixture(&fd); err != nil {
			t.Fatal(err)
		}
		characters[name] = body
	}

	character("03_squarecharacter1", -3, 8, true, mustBox(t, 0.5, 0.5), 0)
	character("04_squarecharacter2", -5, 5, true, mustBox(t, 0.25, 0.25), 0)

	hexagon := make([]box2d.B2Vec2, 6)
	for i := range hexagon {
		angle := float64(i) * math.Pi / 3
		hexagon[i] = box2d.MakeB2Vec2(0.5*math.Cos(angle), 0.5*math.Sin(angle))
	}
	hex, err := box2d.NewB2PolygonShape(hexagon)
	if err != nil {
		t.Fatal(err)
	}
	character("05_hexagoncharacter", -5, 8, true, hex, 0)
	character("06_circlecharacter1", 3, 5, true, mustCircle(t, box2d.MakeB2Vec2(0, 0), 0.5), 0)
	character("07_circlecharacter2", -7, 6, false, mustCircle(t, box2d.MakeB2Vec2(0, 0), 0.25), 1)

	// Pyramids far apart so each forms its own island.
	for p := 0; p < 3; p++ {
		cx := 15 + float64(p)*8
		for row := 0; row < 4; row++ {
			for col := 0; col < 4-row; col++ {
				x := cx + float64(col) - 0.5*float64(3-row)
				y := 0.5 + float64(row)
				bd := dynamicAt(x, y)
				bd.Angle = 0.01 * float64(col-row)
				body := mustBody(t, world, bd)
				mustFixture(t, body, mustBox(t, 0.5, 0.5), 5)
				characters[fmt.Sprintf("%02d_pyramid%d_%d_%d", 8+p, p, row, col)] = body
			}
		}
	}

	return characters
}

func trace(t *testing.T, workers int) string {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))
	world.SetIslandWorkers(workers)

	characters := buildCharacters(t, world)

	names := make([]string, 0, len(characters))
	for name := range characters {
		names = append(names, name)
	}
	sort.Strings(names)

	var out strings.Builder
	for i := 0; i < 120; i++ {
		step(t, world, 1)

		for _, name := range names {
			body := characters[name]
			p := body.GetPosition()
			fmt.Fprintf(&out, "%v(%s): %.9f %.9f %.9f\n", i, name, p.X, p.Y, body.GetAngle())
		}
	}
	return out.String()
}

func TestIslandWorkersAreDeterministic(t *testing.T) {
	expected := trace(t, 1)

	for _, workers := range []int{2, 4, 8} {
		output := trace(t, workers)
		if output == expected {
			continue
		}

		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(expected),
			B:        difflib.SplitLines(output),
			FromFile: "1 worker",
			ToFile:   fmt.Sprintf("%d workers", workers),
			Context:  0,
		}
		text, _ := difflib.GetUnifiedDiffString(diff)
		t.Fatalf("%d workers diverge from a serial step:\n%s", workers, text)
	}
}

func TestStepReportsIslandSolveFailure(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))
			world.SetIslandWorkers(workers)
			newGround(t, world)
			boxAt(t, world, -10, 0.5, 0.5, 0.5, 1)
			victim := boxAt(t, world, 10, 0.5, 0.5, 0.5, 1).GetFixtures()[0]

			// An emptied manifold on a touching contact trips the solver.
			world.SetContactListener(box2d.B2ContactListenerFuncs{
				OnPreSolve: func(c *box2d.B2Contact, old box2d.B2Manifold) {
					if c.GetFixtureA() == victim || c.GetFixtureB() == victim {
						c.GetManifold().PointCount = 0
					}
				},
			})

			var err error
			for i := 0; i < 10 && err == nil; i++ {
				err = world.Step(timeStep, velocityIterations, positionIterations)
			}
			if !errors.Is(err, box2d.ErrIslandSolve) {
				t.Fatalf("err = %v, want ErrIslandSolve", err)
			}
			if world.IsLocked() {
				t.Fatal("world still locked after a failed step")
			}

			world.SetContactListener(box2d.B2ContactListenerFuncs{})
			if err := world.Step(timeStep, velocityIterations, positionIterations); err != nil {
				t.Fatalf("step after the fault: %v", err)
			}
		})
	}
}
