package box2d

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// b2WorldDump is the document written by Dump and read by LoadWorld.
// Bodies and joints are listed in creation order; joints refer to bodies
// and to other joints by their position in those lists.
type b2WorldDump struct {
	Gravity           B2Vec2        `yaml:"gravity"`
	AllowSleep        bool          `yaml:"allowSleep"`
	WarmStarting      bool          `yaml:"warmStarting"`
	ContinuousPhysics bool          `yaml:"continuousPhysics"`
	SubStepping       bool          `yaml:"subStepping"`
	AutoClearForces   bool          `yaml:"autoClearForces"`
	Bodies            []b2BodyDump  `yaml:"bodies"`
	Joints            []b2JointDump `yaml:"joints,omitempty"`
}

type b2BodyDump struct {
	B2BodyDef `yaml:",inline"`
	Fixtures  []b2FixtureDump `yaml:"fixtures,omitempty"`

	// MassData is written only for bodies whose mass was set with
	// SetMassData. It is applied after the fixtures.
	MassData *b2MassDump `yaml:"massData,omitempty"`
}

type b2MassDump struct {
	Mass    float64 `yaml:"mass"`
	Center  B2Vec2  `yaml:"center"`
	Inertia float64 `yaml:"inertia"`
}

type b2FixtureDump struct {
	B2FixtureDef `yaml:",inline"`
	Shape        b2ShapeDump `yaml:"shape"`
}

// b2ShapeDump describes a shape by its defining points. Hand-written
// scenes may describe a box polygon through halfExtents instead of
// vertices.
type b2ShapeDump struct {
	Type        B2ShapeType `yaml:"type"`
	Radius      float64     `yaml:"radius,omitempty"`
	Center      B2Vec2      `yaml:"center,omitempty"`
	Vertices    []B2Vec2    `yaml:"vertices,omitempty"`
	OneSided    bool        `yaml:"oneSided,omitempty"`
	HalfExtents B2Vec2      `yaml:"halfExtents,omitempty"`
	Angle       float64     `yaml:"angle,omitempty"`
}

type b2JointDump struct {
	Type             B2JointType `yaml:"type"`
	BodyA            int         `yaml:"bodyA"`
	BodyB            int         `yaml:"bodyB"`
	CollideConnected *bool       `yaml:"collideConnected,omitempty"`
	Joint1           *int        `yaml:"joint1,omitempty"`
	Joint2           *int        `yaml:"joint2,omitempty"`
	Params           yaml.Node   `yaml:"params,omitempty"`
}

func (v B2Vec2) MarshalYAML() (any, error) {
	var node yaml.Node
	if err := node.Encode([]float64{v.X, v.Y}); err != nil {
		return nil, err
	}
	node.Style = yaml.FlowStyle
	return &node, nil
}

func (v *B2Vec2) UnmarshalYAML(node *yaml.Node) error {
	var xy []float64
	if err := node.Decode(&xy); err != nil {
		return err
	}
	if len(xy) != 2 {
		return fmt.Errorf("box2d: line %d: vector has %d components", node.Line, len(xy))
	}
	*v = MakeB2Vec2(xy[0], xy[1])
	return nil
}

func (t B2BodyType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *B2BodyType) UnmarshalText(text []byte) error {
	for _, bt := range []B2BodyType{B2_staticBody, B2_kinematicBody, B2_dynamicBody} {
		if bt.String() == string(text) {
			*t = bt
			return nil
		}
	}
	return fmt.Errorf("box2d: unknown body type %q", text)
}

func (t B2ShapeType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *B2ShapeType) UnmarshalText(text []byte) error {
	for _, st := range []B2ShapeType{B2Shape_Type_Circle, B2Shape_Type_Edge, B2Shape_Type_Polygon} {
		if st.String() == string(text) {
			*t = st
			return nil
		}
	}
	return fmt.Errorf("box2d: unknown shape type %q", text)
}

func (t B2JointType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *B2JointType) UnmarshalText(text []byte) error {
	for i, name := range b2JointTypeNames {
		if i != int(B2_unknownJoint) && name == string(text) {
			*t = B2JointType(i)
			return nil
		}
	}
	return fmt.Errorf("box2d: unknown joint type %q", text)
}

// Omitted body fields take the MakeB2BodyDef defaults.
func (d *b2BodyDump) UnmarshalYAML(node *yaml.Node) error {
	type plain b2BodyDump
	p := plain{B2BodyDef: MakeB2BodyDef()}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*d = b2BodyDump(p)
	return nil
}

// Omitted fixture fields take the MakeB2FixtureDef defaults.
func (d *b2FixtureDump) UnmarshalYAML(node *yaml.Node) error {
	type plain b2FixtureDump
	p := plain{B2FixtureDef: MakeB2FixtureDef()}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*d = b2FixtureDump(p)
	return nil
}

func dumpShape(shape B2Shape) b2ShapeDump {
	switch s := shape.(type) {
	case *B2CircleShape:
		return b2ShapeDump{Type: B2Shape_Type_Circle, Radius: s.GetRadius(), Center: s.GetPosition()}
	case *B2EdgeShape:
		if s.IsOneSided() {
			return b2ShapeDump{
				Type:     B2Shape_Type_Edge,
				Vertices: []B2Vec2{s.GetVertex0(), s.GetVertex1(), s.GetVertex2(), s.GetVertex3()},
				OneSided: true,
			}
		}
		return b2ShapeDump{Type: B2Shape_Type_Edge, Vertices: []B2Vec2{s.GetVertex1(), s.GetVertex2()}}
	case *B2PolygonShape:
		return b2ShapeDump{Type: B2Shape_Type_Polygon, Vertices: append([]B2Vec2(nil), s.GetVertices()...)}
	}
	panic(fmt.Sprintf("box2d: cannot dump shape %T", shape))
}

func (d b2ShapeDump) build() (B2Shape, error) {
	switch d.Type {
	case B2Shape_Type_Circle:
		return NewB2CircleShape(d.Center, d.Radius)

	case B2Shape_Type_Edge:
		switch {
		case d.OneSided && len(d.Vertices) == 4:
			return NewB2OneSidedEdgeShape(d.Vertices[0], d.Vertices[1], d.Vertices[2], d.Vertices[3])
		case !d.OneSided && len(d.Vertices) == 2:
			return NewB2EdgeShape(d.Vertices[0], d.Vertices[1])
		}
		return nil, fmt.Errorf("box2d: edge with %d vertices (one-sided %v): %w", len(d.Vertices), d.OneSided, ErrDegenerateEdge)

	case B2Shape_Type_Polygon:
		if len(d.Vertices) == 0 {
			return NewB2OrientedBoxShape(d.HalfExtents.X, d.HalfExtents.Y, d.Center, d.Angle)
		}
		return newB2PolygonFromHull(d.Vertices)
	}
	return nil, fmt.Errorf("box2d: unknown shape type %d", d.Type)
}

// newJointDef returns the default definition for a joint type.
func newJointDef(t B2JointType) B2JointDefInterface {
	switch t {
	case B2_revoluteJoint:
		def := MakeB2RevoluteJointDef()
		return &def
	case B2_prismaticJoint:
		def := MakeB2PrismaticJointDef()
		return &def
	case B2_distanceJoint:
		def := MakeB2DistanceJointDef()
		return &def
	case B2_pulleyJoint:
		def := MakeB2PulleyJointDef()
		return &def
	case B2_mouseJoint:
		def := MakeB2MouseJointDef()
		return &def
	case B2_gearJoint:
		def := MakeB2GearJointDef()
		return &def
	case B2_wheelJoint:
		def := MakeB2WheelJointDef()
		return &def
	case B2_weldJoint:
		def := MakeB2WeldJointDef()
		return &def
	case B2_frictionJoint:
		def := MakeB2FrictionJointDef()
		return &def
	case B2_ropeJoint:
		def := MakeB2RopeJointDef()
		return &def
	case B2_motorJoint:
		def := MakeB2MotorJointDef()
		return &def
	}
	return nil
}

// Dump writes the world as a YAML construction sequence that LoadWorld
// replays. User data and listeners are not written. Mass set with
// SetMassData is written and reapplied after the fixtures. Body states are
// written as definitions so a replayed body starts from the dumped
// transform and velocity.
func (world *B2World) Dump(w io.Writer) error {
	doc := b2WorldDump{
		Gravity:           world.gravity,
		AllowSleep:        world.allowSleep,
		WarmStarting:      world.warmStarting,
		ContinuousPhysics: world.continuousPhysics,
		SubStepping:       world.subStepping,
		AutoClearForces:   world.autoClearForces,
	}

	bodyIndex := make(map[B2BodyId]int, world.bodies.len())
	for i, b := range world.GetBodies() {
		bodyIndex[b.id] = i

		bd := b2BodyDump{B2BodyDef: B2BodyDef{
			Type:            b.bodyType,
			Position:        b.GetPosition(),
			Angle:           b.GetAngle(),
			LinearVelocity:  b.linearVelocity,
			AngularVelocity: b.angularVelocity,
			LinearDamping:   b.linearDamping,
			AngularDamping:  b.angularDamping,
			AllowSleep:      b.IsSleepingAllowed(),
			Awake:           b.IsAwake(),
			FixedRotation:   b.IsFixedRotation(),
			Bullet:          b.IsBullet(),
			Enabled:         b.IsEnabled(),
			GravityScale:    b.gravityScale,
		}}

		for _, f := range b.GetFixtures() {
			bd.Fixtures = append(bd.Fixtures, b2FixtureDump{
				B2FixtureDef: B2FixtureDef{
					Friction:             f.friction,
					Restitution:          f.restitution,
					RestitutionThreshold: f.restitutionThreshold,
					Density:              f.density,
					IsSensor:             f.isSensor,
					Filter:               f.filter,
				},
				Shape: dumpShape(f.shape),
			})
		}

		if b.flags&b2Body_massOverrideFlag != 0 {
			md := b.GetMassData()
			bd.MassData = &b2MassDump{Mass: md.Mass, Center: md.Center, Inertia: md.I}
		}

		doc.Bodies = append(doc.Bodies, bd)
	}

	jointIndex := make(map[B2JointId]int, world.joints.len())
	for i, j := range world.GetJoints() {
		jointIndex[j.Id()] = i

		def := j.def()
		jd := def.jointDef()
		collide := jd.CollideConnected

		rec := b2JointDump{
			Type:             jd.Type,
			BodyA:            bodyIndex[jd.BodyA],
			BodyB:            bodyIndex[jd.BodyB],
			CollideConnected: &collide,
		}

		if gear, ok := def.(*B2GearJointDef); ok {
			j1, j2 := jointIndex[gear.Joint1], jointIndex[gear.Joint2]
			rec.Joint1, rec.Joint2 = &j1, &j2
		}

		if err := rec.Params.Encode(def); err != nil {
			return fmt.Errorf("box2d: dump %s: %w", j, err)
		}

		doc.Joints = append(doc.Joints, rec)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("box2d: dump: %w", err)
	}
	return enc.Close()
}

// LoadWorld builds a world from a document written by Dump or written by
// hand in the same format.
func LoadWorld(r io.Reader) (*B2World, error) {
	doc := b2WorldDump{
		AllowSleep:        true,
		WarmStarting:      true,
		ContinuousPhysics: true,
		AutoClearForces:   true,
	}

	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("box2d: load world: %w", err)
	}

	world := NewB2World(doc.Gravity)
	world.SetAllowSleeping(doc.AllowSleep)
	world.SetWarmStarting(doc.WarmStarting)
	world.SetContinuousPhysics(doc.ContinuousPhysics)
	world.SetSubStepping(doc.SubStepping)
	world.SetAutoClearForces(doc.AutoClearForces)

	bodies := make([]*B2Body, len(doc.Bodies))
	for i := range doc.Bodies {
		bd := &doc.Bodies[i]

		body, err := world.CreateBody(&bd.B2BodyDef)
		if err != nil {
			return nil, fmt.Errorf("box2d: load body %d: %w", i, err)
		}

		for k := range bd.Fixtures {
			fd := &bd.Fixtures[k]

			shape, err := fd.Shape.build()
			if err != nil {
				return nil, fmt.Errorf("box2d: load body %d fixture %d: %w", i, k, err)
			}

			def := fd.B2FixtureDef
			def.Shape = shape
			if _, err := body.CreateFixture(&def); err != nil {
				return nil, fmt.Errorf("box2d: load body %d fixture %d: %w", i, k, err)
			}
		}

		if md := bd.MassData; md != nil {
			if err := body.SetMassData(B2MassData{Mass: md.Mass, Center: md.Center, I: md.Inertia}); err != nil {
				return nil, fmt.Errorf("box2d: load body %d mass: %w", i, err)
			}
		}

		// The dumped velocity belongs to the final center of mass.
		body.linearVelocity = bd.LinearVelocity

		bodies[i] = body
	}

	bodyId := func(index int) (B2BodyId, error) {
		if index < 0 || index >= len(bodies) {
			return B2BodyId{}, fmt.Errorf("box2d: body index %d out of range: %w", index, ErrInvalidBody)
		}
		return bodies[index].Id(), nil
	}

	joints := make([]B2Joint, 0, len(doc.Joints))
	for i, rec := range doc.Joints {
		def := newJointDef(rec.Type)
		if def == nil {
			return nil, fmt.Errorf("box2d: load joint %d: %s: %w", i, rec.Type, ErrInvalidJointDef)
		}

		if !rec.Params.IsZero() {
			if err := rec.Params.Decode(def); err != nil {
				return nil, fmt.Errorf("box2d: load %s joint %d: %w", rec.Type, i, err)
			}
		}

		jd := def.jointDef()
		if rec.CollideConnected != nil {
			jd.CollideConnected = *rec.CollideConnected
		}

		if gear, ok := def.(*B2GearJointDef); ok {
			if rec.Joint1 == nil || rec.Joint2 == nil || *rec.Joint1 >= i || *rec.Joint2 >= i || *rec.Joint1 < 0 || *rec.Joint2 < 0 {
				return nil, fmt.Errorf("box2d: load gear joint %d: joints must be listed before the gear: %w", i, ErrInvalidJointDef)
			}
			gear.Joint1 = joints[*rec.Joint1].Id()
			gear.Joint2 = joints[*rec.Joint2].Id()
		} else {
			var err error
			if jd.BodyA, err = bodyId(rec.BodyA); err != nil {
				return nil, fmt.Errorf("box2d: load %s joint %d: %w", rec.Type, i, err)
			}
			if jd.BodyB, err = bodyId(rec.BodyB); err != nil {
				return nil, fmt.Errorf("box2d: load %s joint %d: %w", rec.Type, i, err)
			}
		}

		j, err := world.CreateJoint(def)
		if err != nil {
			return nil, fmt.Errorf("box2d: load %s joint %d: %w", rec.Type, i, err)
		}
		joints = append(joints, j)
	}

	return world, nil
}
