package box2d

import (
	"fmt"
)

// B2GearJointDef requires two existing revolute or prismatic joints (any
// combination will work). The bodies of the gear are taken from those
// joints: BodyA and BodyB are overwritten on creation.
type B2GearJointDef struct {
	B2JointDef `yaml:"-"`

	// The first revolute/prismatic joint attached to the gear joint.
	Joint1 B2JointId `yaml:"-"`

	// The second revolute/prismatic joint attached to the gear joint.
	Joint2 B2JointId `yaml:"-"`

	// The gear ratio. See B2GearJoint.
	Ratio float64 `yaml:"ratio"`
}

func MakeB2GearJointDef() B2GearJointDef {
	return B2GearJointDef{
		B2JointDef: B2JointDef{Type: B2_gearJoint},
		Ratio:      1.0,
	}
}

// gearSource returns the joint referenced by a gear definition if it can
// drive a gear.
func gearSource(world *B2World, id B2JointId) (B2Joint, error) {
	j := world.joints.get(id.b2Handle)
	if j == nil {
		return nil, fmt.Errorf("box2d: gear joint source %s: %w", id, ErrStaleHandle)
	}
	if t := j.GetType(); t != B2_revoluteJoint && t != B2_prismaticJoint {
		return nil, fmt.Errorf("box2d: gear joint source is a %s joint: %w", t, ErrInvalidJointDef)
	}
	return j, nil
}

// resolveBodies fills BodyA and BodyB from the two source joints. Body A
// of the gear is body B of joint 1, body B of the gear is body B of
// joint 2.
func (def *B2GearJointDef) resolveBodies(world *B2World) error {
	joint1, err := gearSource(world, def.Joint1)
	if err != nil {
		return err
	}
	joint2, err := gearSource(world, def.Joint2)
	if err != nil {
		return err
	}
	def.BodyA = joint1.base().bodyB
	def.BodyB = joint2.base().bodyB
	return nil
}

// b2GearSide is the geometry one source joint contributes to a gear. The
// moving body is A or B of the gear, the base body is C or D.
type b2GearSide struct {
	joint          B2JointId
	jointType      B2JointType
	base           B2BodyId
	localAnchor    B2Vec2
	localAnchorC   B2Vec2
	localAxisC     B2Vec2
	referenceAngle float64

	// Solver temp
	lc      B2Vec2
	invMass float64
	invI    float64
	jv      B2Vec2
	jw      float64
	jwBase  float64
}

func makeB2GearSide(j B2Joint) b2GearSide {
	side := b2GearSide{
		joint:     j.Id(),
		jointType: j.GetType(),
		base:      j.base().bodyA,
	}

	switch src := j.(type) {
	case *B2RevoluteJoint:
		side.localAnchorC = src.localAnchorA
		side.localAnchor = src.localAnchorB
		side.referenceAngle = src.referenceAngle
	case *B2PrismaticJoint:
		side.localAnchorC = src.localAnchorA
		side.localAnchor = src.localAnchorB
		side.referenceAngle = src.referenceAngle
		side.localAxisC = src.localXAxisA
	}

	return side
}

// coordinate returns the joint coordinate of the side: the relative angle
// for a revolute joint, the translation along the axis for a prismatic one.
func (side *b2GearSide) coordinate(cMoving B2Vec2, aMoving float64, cBase B2Vec2, aBase float64, lcMoving, lcBase B2Vec2) float64 {
	if side.jointType == B2_revoluteJoint {
		return aMoving - aBase - side.referenceAngle
	}

	qMoving := MakeB2RotFromAngle(aMoving)
	qBase := MakeB2RotFromAngle(aBase)

	pC := B2Vec2Sub(side.localAnchorC, lcBase)
	r := B2RotVec2Mul(qMoving, B2Vec2Sub(side.localAnchor, lcMoving))
	p := B2RotVec2MulT(qBase, B2Vec2Add(r, B2Vec2Sub(cMoving, cBase)))
	return B2Vec2Dot(B2Vec2Sub(p, pC), side.localAxisC)
}

// jacobian returns the linear and angular Jacobian terms of the side scaled
// by ratio, and the side's contribution to the effective mass.
func (side *b2GearSide) jacobian(ratio float64, aMoving, aBase float64, mMoving, iMoving, mBase, iBase float64, lcMoving, lcBase B2Vec2) (jv B2Vec2, jw, jwBase, mass float64) {
	if side.jointType == B2_revoluteJoint {
		return B2Vec2{}, ratio, ratio, ratio * ratio * (iMoving + iBase)
	}

	qMoving := MakeB2RotFromAngle(aMoving)
	qBase := MakeB2RotFromAngle(aBase)

	u := B2RotVec2Mul(qBase, side.localAxisC)
	rC := B2RotVec2Mul(qBase, B2Vec2Sub(side.localAnchorC, lcBase))
	r := B2RotVec2Mul(qMoving, B2Vec2Sub(side.localAnchor, lcMoving))

	jv = B2Vec2MulScalar(ratio, u)
	jwBase = ratio * B2Vec2Cross(rC, u)
	jw = ratio * B2Vec2Cross(r, u)
	mass = ratio*ratio*(mBase+mMoving) + iBase*jwBase*jwBase + iMoving*jw*jw
	return jv, jw, jwBase, mass
}

func (def *B2GearJointDef) create(world *B2World) (B2Joint, error) {
	if !B2IsValid(def.Ratio) {
		return nil, fmt.Errorf("box2d: gear joint ratio %v: %w", def.Ratio, ErrInvalidJointDef)
	}
	joint1, err := gearSource(world, def.Joint1)
	if err != nil {
		return nil, err
	}
	joint2, err := gearSource(world, def.Joint2)
	if err != nil {
		return nil, err
	}

	joint := &B2GearJoint{
		b2JointBase: makeB2JointBase(world, &def.B2JointDef),
		side1:       makeB2GearSide(joint1),
		side2:       makeB2GearSide(joint2),
		ratio:       def.Ratio,
	}
	joint.bodyA = joint1.base().bodyB
	joint.bodyB = joint2.base().bodyB

	bA, bB := joint.GetBodyA(), joint.GetBodyB()
	bC, bD := joint.GetBodyC(), joint.GetBodyD()

	coordinateA := joint.side1.coordinate(bA.xf.P, bA.sweep.A, bC.xf.P, bC.sweep.A, B2Vec2{}, B2Vec2{})
	coordinateB := joint.side2.coordinate(bB.xf.P, bB.sweep.A, bD.xf.P, bD.sweep.A, B2Vec2{}, B2Vec2{})
	joint.constant = coordinateA + joint.ratio*coordinateB

	return joint, nil
}

// B2GearJoint connects two revolute or prismatic joints together. A gear
// ratio binds their motions:
// coordinate1 + ratio * coordinate2 = constant
// The ratio can be negative or positive. If one joint is a revolute joint
// and the other joint is a prismatic joint, then the ratio will have units
// of length or units of 1/length. Destroying either source joint destroys
// the gear joint.
type B2GearJoint struct {
	b2JointBase

	// Body A is connected to body C through joint 1.
	// Body B is connected to body D through joint 2.
	side1 b2GearSide
	side2 b2GearSide

	// Solver shared
	constant float64
	ratio    float64
	impulse  float64

	// Solver temp
	indexC, indexD int
	mass           float64
}

// Gear Joint:
// C0 = (coordinate1 + ratio * coordinate2)_initial
// C = (coordinate1 + ratio * coordinate2) - C0 = 0
// J = [J1 ratio * J2]
// K = J * invM * JT
//   = J1 * invM1 * J1T + ratio * ratio * J2 * invM2 * J2T
//
// Revolute:
// coordinate = rotation
// Cdot = angularVelocity
// J = [0 0 1]
// K = J * invM * JT = invI
//
// Prismatic:
// coordinate = dot(p - pg, ug)
// Cdot = dot(v + cross(w, r), ug)
// J = [ug cross(r, ug)]
// K = J * invM * JT = invMass + invI * cross(r, ug)^2

// GetJoint1 returns the first source joint.
func (joint *B2GearJoint) GetJoint1() B2JointId {
	return joint.side1.joint
}

// GetJoint2 returns the second source joint.
func (joint *B2GearJoint) GetJoint2() B2JointId {
	return joint.side2.joint
}

// GetBodyC returns the base body of joint 1.
func (joint *B2GearJoint) GetBodyC() *B2Body {
	return joint.world.bodies.get(joint.side1.base.b2Handle)
}

// GetBodyD returns the base body of joint 2.
func (joint *B2GearJoint) GetBodyD() *B2Body {
	return joint.world.bodies.get(joint.side2.base.b2Handle)
}

// dependsOn reports whether the gear is driven by the given joint.
func (joint *B2GearJoint) dependsOn(id B2JointId) bool {
	return joint.side1.joint == id || joint.side2.joint == id
}

func (joint *B2GearJoint) initVelocityConstraints(data *B2SolverData) {
	joint.prepare(data)

	bC, bD := joint.GetBodyC(), joint.GetBodyD()
	joint.indexC = data.indexOf(bC)
	joint.indexD = data.indexOf(bD)
	lcC, lcD := bC.sweep.LocalCenter, bD.sweep.LocalCenter
	mC, mD := bC.invMass, bD.invMass
	iC, iD := bC.invI, bD.invI

	aA := data.Positions[joint.indexA].A
	aB := data.Positions[joint.indexB].A
	aC := data.Positions[joint.indexC].A
	aD := data.Positions[joint.indexD].A

	s1, s2 := &joint.side1, &joint.side2
	var mass1, mass2 float64
	s1.jv, s1.jw, s1.jwBase, mass1 = s1.jacobian(1.0, aA, aC, joint.invMassA, joint.invIA, mC, iC, joint.localCenterA, lcC)
	s2.jv, s2.jw, s2.jwBase, mass2 = s2.jacobian(joint.ratio, aB, aD, joint.invMassB, joint.invIB, mD, iD, joint.localCenterB, lcD)
	s1.lc, s1.invMass, s1.invI = lcC, mC, iC
	s2.lc, s2.invMass, s2.invI = lcD, mD, iD

	// Compute effective mass.
	joint.mass = b2InvOrZero(mass1 + mass2)

	if data.Step.WarmStarting {
		joint.applyImpulse(data, joint.impulse)
	} else {
		joint.impulse = 0.0
	}
}

// applyImpulse adds the gear impulse to the four body velocities.
func (joint *B2GearJoint) applyImpulse(data *B2SolverData, impulse float64) {
	s1, s2 := &joint.side1, &joint.side2

	vA, wA, vB, wB := joint.loadVelocities(data)
	vC, wC := data.Velocities[joint.indexC].V, data.Velocities[joint.indexC].W
	vD, wD := data.Velocities[joint.indexD].V, data.Velocities[joint.indexD].W

	vA.OperatorPlusInplace(B2Vec2MulScalar(joint.invMassA*impulse, s1.jv))
	wA += joint.invIA * impulse * s1.jw
	vB.OperatorPlusInplace(B2Vec2MulScalar(joint.invMassB*impulse, s2.jv))
	wB += joint.invIB * impulse * s2.jw
	vC.OperatorMinusInplace(B2Vec2MulScalar(s1.invMass*impulse, s1.jv))
	wC -= s1.invI * impulse * s1.jwBase
	vD.OperatorMinusInplace(B2Vec2MulScalar(s2.invMass*impulse, s2.jv))
	wD -= s2.invI * impulse * s2.jwBase

	joint.storeVelocities(data, vA, wA, vB, wB)
	data.Velocities[joint.indexC] = B2Velocity{V: vC, W: wC}
	data.Velocities[joint.indexD] = B2Velocity{V: vD, W: wD}
}

func (joint *B2GearJoint) solveVelocityConstraints(data *B2SolverData) {
	s1, s2 := &joint.side1, &joint.side2

	vA, wA, vB, wB := joint.loadVelocities(data)
	vC, wC := data.Velocities[joint.indexC].V, data.Velocities[joint.indexC].W
	vD, wD := data.Velocities[joint.indexD].V, data.Velocities[joint.indexD].W

	Cdot := B2Vec2Dot(s1.jv, B2Vec2Sub(vA, vC)) + B2Vec2Dot(s2.jv, B2Vec2Sub(vB, vD))
	Cdot += (s1.jw*wA - s1.jwBase*wC) + (s2.jw*wB - s2.jwBase*wD)

	impulse := -joint.mass * Cdot
	joint.impulse += impulse

	joint.applyImpulse(data, impulse)
}

func (joint *B2GearJoint) solvePositionConstraints(data *B2SolverData) bool {
	s1, s2 := &joint.side1, &joint.side2

	cA, aA, cB, aB := joint.loadPositions(data)
	cC, aC := data.Positions[joint.indexC].C, data.Positions[joint.indexC].A
	cD, aD := data.Positions[joint.indexD].C, data.Positions[joint.indexD].A

	coordinateA := s1.coordinate(cA, aA, cC, aC, joint.localCenterA, s1.lc)
	coordinateB := s2.coordinate(cB, aB, cD, aD, joint.localCenterB, s2.lc)

	JvAC, JwA, JwC, mass1 := s1.jacobian(1.0, aA, aC, joint.invMassA, joint.invIA, s1.invMass, s1.invI, joint.localCenterA, s1.lc)
	JvBD, JwB, JwD, mass2 := s2.jacobian(joint.ratio, aB, aD, joint.invMassB, joint.invIB, s2.invMass, s2.invI, joint.localCenterB, s2.lc)

	C := (coordinateA + joint.ratio*coordinateB) - joint.constant

	impulse := 0.0
	if mass := mass1 + mass2; mass > 0.0 {
		impulse = -C / mass
	}

	cA.OperatorPlusInplace(B2Vec2MulScalar(joint.invMassA*impulse, JvAC))
	aA += joint.invIA * impulse * JwA
	cB.OperatorPlusInplace(B2Vec2MulScalar(joint.invMassB*impulse, JvBD))
	aB += joint.invIB * impulse * JwB
	cC.OperatorMinusInplace(B2Vec2MulScalar(s1.invMass*impulse, JvAC))
	aC -= s1.invI * impulse * JwC
	cD.OperatorMinusInplace(B2Vec2MulScalar(s2.invMass*impulse, JvBD))
	aD -= s2.invI * impulse * JwD

	joint.storePositions(data, cA, aA, cB, aB)
	data.Positions[joint.indexC] = B2Position{C: cC, A: aC}
	data.Positions[joint.indexD] = B2Position{C: cD, A: aD}

	// The gear error is carried by the source joints.
	return true
}

func (joint *B2GearJoint) GetAnchorA() B2Vec2 {
	return joint.GetBodyA().GetWorldPoint(joint.side1.localAnchor)
}

func (joint *B2GearJoint) GetAnchorB() B2Vec2 {
	return joint.GetBodyB().GetWorldPoint(joint.side2.localAnchor)
}

func (joint *B2GearJoint) GetReactionForce(inv_dt float64) B2Vec2 {
	return B2Vec2MulScalar(inv_dt*joint.impulse, joint.side1.jv)
}

func (joint *B2GearJoint) GetReactionTorque(inv_dt float64) float64 {
	return inv_dt * joint.impulse * joint.side1.jw
}

// SetRatio sets the gear ratio.
func (joint *B2GearJoint) SetRatio(ratio float64) {
	B2Assert(B2IsValid(ratio))
	joint.ratio = ratio
}

func (joint *B2GearJoint) GetRatio() float64 {
	return joint.ratio
}

func (joint *B2GearJoint) def() B2JointDefInterface {
	return &B2GearJointDef{
		B2JointDef: joint.defBase(),
		Joint1:     joint.side1.joint,
		Joint2:     joint.side2.joint,
		Ratio:      joint.ratio,
	}
}
