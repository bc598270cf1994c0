package box2d_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/ByteArena/box2d/v3"
)

func mustJoint(t *testing.T, world *box2d.B2World, def box2d.B2JointDefInterface) box2d.B2Joint {
	t.Helper()
	j, err := world.CreateJoint(def)
	if err != nil {
		t.Fatal(err)
	}
	return j
}

func circleAt(t *testing.T, world *box2d.B2World, x, y, r float64) *box2d.B2Body {
	t.Helper()
	body := mustBody(t, world, dynamicAt(x, y))
	mustFixture(t, body, mustCircle(t, box2d.MakeB2Vec2(0, 0), r), 1)
	return body
}

func boxAt(t *testing.T, world *box2d.B2World, x, y, hx, hy, density float64) *box2d.B2Body {
	t.Helper()
	body := mustBody(t, world, dynamicAt(x, y))
	mustFixture(t, body, mustBox(t, hx, hy), density)
	return body
}

// buildJointZoo builds a world holding one joint of every kind. Bodies
// are spread along x so the mechanisms do not interact.
func buildJointZoo(t *testing.T) *box2d.B2World {
	t.Helper()
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))
	ground := newGround(t, world)

	wheel := circleAt(t, world, -10, 5, 0.5)
	rd := box2d.MakeB2RevoluteJointDef()
	rd.Initialize(ground, wheel, wheel.GetPosition())
	rd.EnableMotor = true
	rd.MotorSpeed = 1
	rd.MaxMotorTorque = 100
	revolute := mustJoint(t, world, &rd)

	slider := boxAt(t, world, -6, 5, 0.5, 0.5, 1)
	pd := box2d.MakeB2PrismaticJointDef()
	pd.Initialize(ground, slider, slider.GetPosition(), box2d.MakeB2Vec2(0, 1))
	pd.EnableLimit = true
	pd.LowerTranslation = -1
	pd.UpperTranslation = 1
	prismatic := mustJoint(t, world, &pd)

	gd := box2d.MakeB2GearJointDef()
	gd.Joint1 = revolute.Id()
	gd.Joint2 = prismatic.Id()
	gd.Ratio = 2
	mustJoint(t, world, &gd)

	bob := circleAt(t, world, -2, 5, 0.25)
	dd := box2d.MakeB2DistanceJointDef()
	dd.Initialize(ground, bob, box2d.MakeB2Vec2(-2, 8), bob.GetPosition())
	mustJoint(t, world, &dd)

	left := boxAt(t, world, 2, 4, 0.25, 0.25, 1)
	right := boxAt(t, world, 4, 4, 0.25, 0.25, 2)
	ud := box2d.MakeB2PulleyJointDef()
	ud.Initialize(left, right, box2d.MakeB2Vec2(2, 8), box2d.MakeB2Vec2(4, 8), left.GetPosition(), right.GetPosition(), 1)
	mustJoint(t, world, &ud)

	dragged := circleAt(t, world, 8, 5, 0.5)
	md := box2d.MakeB2MouseJointDef()
	md.BodyA = ground.Id()
	md.BodyB = dragged.Id()
	md.Target = box2d.MakeB2Vec2(8, 6)
	md.MaxForce = 100
	md.Stiffness = 50
	md.Damping = 5
	mustJoint(t, world, &md)

	tyre := circleAt(t, world, 12, 1, 0.5)
	wd := box2d.MakeB2WheelJointDef()
	wd.Initialize(ground, tyre, tyre.GetPosition(), box2d.MakeB2Vec2(0, 1))
	wd.Stiffness = 20
	wd.Damping = 2
	wd.EnableMotor = true
	wd.MotorSpeed = -5
	wd.MaxMotorTorque = 10
	mustJoint(t, world, &wd)

	beamA := boxAt(t, world, 16, 5, 0.5, 0.5, 1)
	beamB := boxAt(t, world, 17, 5, 0.5, 0.5, 1)
	ed := box2d.MakeB2WeldJointDef()
	ed.Initialize(beamA, beamB, box2d.MakeB2Vec2(16.5, 5))
	mustJoint(t, world, &ed)

	puck := boxAt(t, world, 20, 0.5, 0.5, 0.5, 1)
	fd := box2d.MakeB2FrictionJointDef()
	fd.Initialize(ground, puck, puck.GetPosition())
	fd.MaxForce = 10
	fd.MaxTorque = 10
	mustJoint(t, world, &fd)

	weight := circleAt(t, world, 24, 5, 0.25)
	od := box2d.MakeB2RopeJointDef()
	od.Initialize(ground, weight, box2d.MakeB2Vec2(24, 8), weight.GetPosition())
	mustJoint(t, world, &od)

	follower := boxAt(t, world, 28, 5, 0.5, 0.5, 1)
	nd := box2d.MakeB2MotorJointDef()
	nd.Initialize(ground, follower)
	nd.MaxForce = 100
	nd.MaxTorque = 100
	mustJoint(t, world, &nd)

	return world
}

func TestJointKindsStayFinite(t *testing.T) {
	world := buildJointZoo(t)

	kinds := map[box2d.B2JointType]int{}
	for _, j := range world.GetJoints() {
		kinds[j.GetType()]++
	}
	if len(kinds) != 11 {
		t.Fatalf("zoo holds %d joint kinds: %v", len(kinds), kinds)
	}

	step(t, world, 240)

	for _, b := range world.GetBodies() {
		if !b.GetPosition().IsValid() || !box2d.B2IsValid(b.GetAngle()) {
			t.Fatalf("%s left the reals: %v %v", b, b.GetPosition(), b.GetAngle())
		}
	}
	for _, j := range world.GetJoints() {
		if f := j.GetReactionForce(1 / timeStep); !f.IsValid() {
			t.Fatalf("%s reaction force %v", j, f)
		}
	}
}

func TestRevoluteLimitAndMotor(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, 0))
	ground := mustBody(t, world, staticAt(0, 0))
	rod := boxAt(t, world, 1, 0, 1, 0.1, 1)

	jd := box2d.MakeB2RevoluteJointDef()
	jd.Initialize(ground, rod, box2d.MakeB2Vec2(0, 0))
	jd.EnableLimit = true
	jd.LowerAngle = 0
	jd.UpperAngle = math.Pi / 4
	jd.EnableMotor = true
	jd.MotorSpeed = 2
	jd.MaxMotorTorque = 1000
	j := mustJoint(t, world, &jd).(*box2d.B2RevoluteJoint)

	step(t, world, 240)

	if a := j.GetJointAngle(); a > math.Pi/4+0.03 || a < math.Pi/4-0.05 {
		t.Fatalf("joint angle = %v, want the upper limit %v", a, math.Pi/4)
	}
	if d := box2d.B2Vec2Distance(j.GetAnchorA(), j.GetAnchorB()); d > 0.01 {
		t.Fatalf("anchors %v apart", d)
	}
}

func TestPrismaticLimit(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))
	ground := mustBody(t, world, staticAt(0, 5))
	slider := boxAt(t, world, 0, 5, 0.5, 0.5, 1)

	jd := box2d.MakeB2PrismaticJointDef()
	jd.Initialize(ground, slider, slider.GetPosition(), box2d.MakeB2Vec2(0, 1))
	jd.EnableLimit = true
	jd.LowerTranslation = -1
	jd.UpperTranslation = 1
	j := mustJoint(t, world, &jd).(*box2d.B2PrismaticJoint)

	step(t, world, 120)

	if tr := j.GetJointTranslation(); !near(tr, -1, 0.02) {
		t.Fatalf("translation = %v, want the lower limit", tr)
	}
	if x := slider.GetPosition().X; !near(x, 0, 0.01) {
		t.Fatalf("slider drifted off the axis to x = %v", x)
	}
}

func TestDistanceJointKeepsLength(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))
	ground := mustBody(t, world, staticAt(0, 10))
	bob := circleAt(t, world, 3, 10, 0.25)

	jd := box2d.MakeB2DistanceJointDef()
	jd.Initialize(ground, bob, ground.GetPosition(), bob.GetPosition())
	j := mustJoint(t, world, &jd)

	lowest := bob.GetPosition().Y
	for i := 0; i < 180; i++ {
		step(t, world, 1)
		if d := box2d.B2Vec2Distance(j.GetAnchorA(), j.GetAnchorB()); !near(d, 3, 0.02) {
			t.Fatalf("step %d: rod length %v, want 3", i, d)
		}
		lowest = min(lowest, bob.GetPosition().Y)
	}
	if !near(lowest, 7, 0.05) {
		t.Fatalf("pendulum bottomed out at y = %v, want 7", lowest)
	}
}

func TestRopeLimitsLength(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))
	ground := mustBody(t, world, staticAt(0, 10))
	weight := circleAt(t, world, 1, 9, 0.25)

	jd := box2d.MakeB2RopeJointDef()
	jd.Initialize(ground, weight, ground.GetPosition(), weight.GetPosition())
	jd.MaxLength = 3
	j := mustJoint(t, world, &jd).(*box2d.B2RopeJoint)

	if j.IsTaut() {
		t.Fatal("slack rope reported taut")
	}

	for i := 0; i < 240; i++ {
		step(t, world, 1)
		if d := box2d.B2Vec2Distance(j.GetAnchorA(), j.GetAnchorB()); d > 3+0.05 {
			t.Fatalf("step %d: rope stretched to %v", i, d)
		}
	}
	if !j.IsTaut() {
		t.Fatal("hanging weight left the rope slack")
	}
}

func TestWeldHoldsRelativePose(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))
	wall := mustBody(t, world, staticAt(0, 10))
	beam := boxAt(t, world, 1, 10, 0.5, 0.1, 1)

	jd := box2d.MakeB2WeldJointDef()
	jd.Initialize(wall, beam, box2d.MakeB2Vec2(0.5, 10))
	mustJoint(t, world, &jd)

	step(t, world, 120)

	if !nearVec(beam.GetPosition(), box2d.MakeB2Vec2(1, 10), 0.05) || !near(beam.GetAngle(), 0, 0.05) {
		t.Fatalf("welded beam sagged to %v angle %v", beam.GetPosition(), beam.GetAngle())
	}
}

func TestMouseJointPullsToTarget(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, 0))
	ground := mustBody(t, world, staticAt(0, 0))
	body := circleAt(t, world, 0, 0, 0.5)

	mass := body.GetMass()
	omega := 2 * math.Pi * 5

	jd := box2d.MakeB2MouseJointDef()
	jd.BodyA = ground.Id()
	jd.BodyB = body.Id()
	jd.Target = body.GetPosition()
	jd.MaxForce = 1000 * mass
	jd.Stiffness = mass * omega * omega
	jd.Damping = 2 * mass * 0.7 * omega
	j := mustJoint(t, world, &jd).(*box2d.B2MouseJoint)

	step(t, world, 60)
	body.SetAwake(false)

	j.SetTarget(box2d.MakeB2Vec2(3, 0))
	if !body.IsAwake() {
		t.Fatal("moving the target did not wake the body")
	}

	step(t, world, 300)

	if !nearVec(body.GetPosition(), box2d.MakeB2Vec2(3, 0), 0.01) {
		t.Fatalf("body at %v, want the target (3, 0)", body.GetPosition())
	}
}

func TestPulleyConservesLength(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))
	light := boxAt(t, world, -2, 4, 0.25, 0.25, 1)
	heavy := boxAt(t, world, 2, 4, 0.25, 0.25, 3)

	jd := box2d.MakeB2PulleyJointDef()
	jd.Initialize(light, heavy, box2d.MakeB2Vec2(-2, 8), box2d.MakeB2Vec2(2, 8), light.GetPosition(), heavy.GetPosition(), 1)
	j := mustJoint(t, world, &jd).(*box2d.B2PulleyJoint)

	total := j.GetLengthA() + j.GetLengthB()
	step(t, world, 60)

	if got := j.GetCurrentLengthA() + j.GetCurrentLengthB(); !near(got, total, 0.05) {
		t.Fatalf("rope length %v, want %v", got, total)
	}
	if heavy.GetPosition().Y >= light.GetPosition().Y {
		t.Fatalf("heavy side at %v did not sink below light side at %v", heavy.GetPosition(), light.GetPosition())
	}
}

func TestMotorJointDrivesOffset(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, 0))
	ground := mustBody(t, world, staticAt(0, 0))
	body := boxAt(t, world, 0, 0, 0.5, 0.5, 1)

	jd := box2d.MakeB2MotorJointDef()
	jd.Initialize(ground, body)
	jd.MaxForce = 1000
	jd.MaxTorque = 1000
	j := mustJoint(t, world, &jd).(*box2d.B2MotorJoint)

	j.SetLinearOffset(box2d.MakeB2Vec2(2, 0))
	j.SetAngularOffset(0.5)
	step(t, world, 240)

	if !nearVec(body.GetPosition(), box2d.MakeB2Vec2(2, 0), 0.01) || !near(body.GetAngle(), 0.5, 0.01) {
		t.Fatalf("body at %v angle %v, want (2, 0) angle 0.5", body.GetPosition(), body.GetAngle())
	}
}

func TestFrictionJointSlowsBody(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, 0))
	ground := mustBody(t, world, staticAt(0, 0))

	bd := dynamicAt(0, 5)
	bd.LinearVelocity = box2d.MakeB2Vec2(5, 0)
	bd.AngularVelocity = 2
	body := mustBody(t, world, bd)
	mustFixture(t, body, mustBox(t, 0.5, 0.5), 1)

	jd := box2d.MakeB2FrictionJointDef()
	jd.Initialize(ground, body, body.GetPosition())
	jd.MaxForce = 10
	jd.MaxTorque = 10
	mustJoint(t, world, &jd)

	step(t, world, 60)

	if v := body.GetLinearVelocity().Length(); v > 1e-3 {
		t.Fatalf("linear speed %v after friction", v)
	}
	if w := body.GetAngularVelocity(); math.Abs(w) > 1e-3 {
		t.Fatalf("angular speed %v after friction", w)
	}
	// 5 m/s under a 10 m/s^2 deceleration travels about 1.25 m.
	if x := body.GetPosition().X; x < 1.1 || x > 1.3 {
		t.Fatalf("stopped at x = %v", x)
	}
}

func gearPair(t *testing.T, world *box2d.B2World, ratio float64) (box2d.B2Joint, box2d.B2Joint, box2d.B2Joint) {
	t.Helper()
	ground := mustBody(t, world, staticAt(0, 0))
	big := circleAt(t, world, 0, 0, 1)
	small := circleAt(t, world, 3, 0, 0.5)

	r1 := box2d.MakeB2RevoluteJointDef()
	r1.Initialize(ground, big, big.GetPosition())
	r1.EnableMotor = true
	r1.MotorSpeed = 1
	r1.MaxMotorTorque = 100
	j1 := mustJoint(t, world, &r1)

	r2 := box2d.MakeB2RevoluteJointDef()
	r2.Initialize(ground, small, small.GetPosition())
	j2 := mustJoint(t, world, &r2)

	gd := box2d.MakeB2GearJointDef()
	gd.Joint1 = j1.Id()
	gd.Joint2 = j2.Id()
	gd.Ratio = ratio
	gear := mustJoint(t, world, &gd)

	return j1, j2, gear
}

func TestGearCouplesJoints(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, 0))
	j1, j2, gear := gearPair(t, world, 2)

	if gear.GetBodyA() != j1.GetBodyB() || gear.GetBodyB() != j2.GetBodyB() {
		t.Fatal("gear bodies not taken from the driving joints")
	}

	step(t, world, 120)

	a1 := j1.(*box2d.B2RevoluteJoint).GetJointAngle()
	a2 := j2.(*box2d.B2RevoluteJoint).GetJointAngle()
	if math.Abs(a1) < 0.5 {
		t.Fatalf("driven wheel barely turned: %v", a1)
	}
	if c := a1 + 2*a2; !near(c, 0, 0.02) {
		t.Fatalf("gear constraint drifted: %v + 2*%v = %v", a1, a2, c)
	}
}

func TestDestroyJointCascadesToGears(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, 0))
	listener := &goodbyes{}
	world.SetDestructionListener(listener)

	j1, j2, gear := gearPair(t, world, 1)

	if err := world.DestroyJoint(j1); err != nil {
		t.Fatal(err)
	}
	if len(listener.joints) != 1 || listener.joints[0] != gear {
		t.Fatalf("listener heard %v, want the gear only", listener.joints)
	}
	if world.GetJointCount() != 1 || world.GetJoint(j2.Id()) != j2 {
		t.Fatalf("joint count %d after cascade", world.GetJointCount())
	}
	if world.GetJoint(gear.Id()) != nil {
		t.Fatal("gear still resolves")
	}
	if err := world.DestroyJoint(gear); !errors.Is(err, box2d.ErrStaleHandle) {
		t.Fatalf("destroying the gear twice: %v", err)
	}

	step(t, world, 10)
}

func TestCreateJointRejectsInvalidDefs(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))
	ground := mustBody(t, world, staticAt(0, 0))
	a := circleAt(t, world, 0, 5, 0.5)
	b := circleAt(t, world, 2, 5, 0.5)

	gone := circleAt(t, world, 4, 5, 0.5)
	goneId := gone.Id()
	if err := world.DestroyBody(gone); err != nil {
		t.Fatal(err)
	}

	dd := box2d.MakeB2DistanceJointDef()
	dd.Initialize(a, b, a.GetPosition(), b.GetPosition())
	distance := mustJoint(t, world, &dd)

	rd := box2d.MakeB2RevoluteJointDef()
	rd.Initialize(ground, a, a.GetPosition())
	revolute := mustJoint(t, world, &rd)

	staleDef := box2d.MakeB2RevoluteJointDef()
	staleDef.Initialize(ground, b, b.GetPosition())
	stale := mustJoint(t, world, &staleDef)
	if err := world.DestroyJoint(stale); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		def  func() box2d.B2JointDefInterface
		want error
	}{
		{"same body", func() box2d.B2JointDefInterface {
			d := box2d.MakeB2WeldJointDef()
			d.Initialize(a, a, a.GetPosition())
			return &d
		}, box2d.ErrInvalidJointDef},
		{"no bodies", func() box2d.B2JointDefInterface {
			d := box2d.MakeB2WeldJointDef()
			return &d
		}, box2d.ErrInvalidBody},
		{"destroyed body", func() box2d.B2JointDefInterface {
			d := box2d.MakeB2RopeJointDef()
			d.BodyA = ground.Id()
			d.BodyB = goneId
			return &d
		}, box2d.ErrInvalidBody},
		{"inverted prismatic limits", func() box2d.B2JointDefInterface {
			d := box2d.MakeB2PrismaticJointDef()
			d.Initialize(ground, a, a.GetPosition(), box2d.MakeB2Vec2(1, 0))
			d.LowerTranslation, d.UpperTranslation = 1, -1
			return &d
		}, box2d.ErrInvalidJointDef},
		{"inverted revolute limits", func() box2d.B2JointDefInterface {
			d := box2d.MakeB2RevoluteJointDef()
			d.Initialize(ground, b, b.GetPosition())
			d.LowerAngle, d.UpperAngle = 1, -1
			return &d
		}, box2d.ErrInvalidJointDef},
		{"negative rope length", func() box2d.B2JointDefInterface {
			d := box2d.MakeB2RopeJointDef()
			d.Initialize(a, b, a.GetPosition(), b.GetPosition())
			d.MaxLength = -1
			return &d
		}, box2d.ErrInvalidJointDef},
		{"negative mouse force", func() box2d.B2JointDefInterface {
			d := box2d.MakeB2MouseJointDef()
			d.BodyA, d.BodyB = ground.Id(), a.Id()
			d.Target = a.GetPosition()
			d.MaxForce = -1
			return &d
		}, box2d.ErrInvalidJointDef},
		{"gear on a distance joint", func() box2d.B2JointDefInterface {
			d := box2d.MakeB2GearJointDef()
			d.Joint1 = revolute.Id()
			d.Joint2 = distance.Id()
			return &d
		}, box2d.ErrInvalidJointDef},
		{"gear on a destroyed joint", func() box2d.B2JointDefInterface {
			d := box2d.MakeB2GearJointDef()
			d.Joint1 = revolute.Id()
			d.Joint2 = stale.Id()
			return &d
		}, box2d.ErrStaleHandle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := world.GetJointCount()
			j, err := world.CreateJoint(tt.def())
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if j != nil || world.GetJointCount() != before {
				t.Fatal("rejected joint was registered")
			}
		})
	}
}

func TestJointSuppressesCollisionBetweenItsBodies(t *testing.T) {
	for _, collide := range []bool{false, true} {
		t.Run(fmt.Sprintf("collideConnected=%v", collide), func(t *testing.T) {
			world := box2d.NewB2World(box2d.MakeB2Vec2(0, 0))
			a := boxAt(t, world, 0, 0, 0.5, 0.5, 1)
			b := boxAt(t, world, 0.8, 0, 0.5, 0.5, 1)

			jd := box2d.MakeB2RevoluteJointDef()
			jd.Initialize(a, b, box2d.MakeB2Vec2(0.4, 0))
			jd.CollideConnected = collide
			mustJoint(t, world, &jd)

			step(t, world, 3)

			if collide && world.GetContactCount() != 1 {
				t.Fatalf("%d contacts, want the jointed pair", world.GetContactCount())
			}
			if !collide && world.GetContactCount() != 0 {
				t.Fatalf("%d contacts between jointed bodies", world.GetContactCount())
			}
		})
	}
}
