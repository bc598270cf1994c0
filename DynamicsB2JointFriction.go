package box2d

import (
	"fmt"
)

// B2FrictionJointDef defines a top-down friction joint.
type B2FrictionJointDef struct {
	B2JointDef `yaml:"-"`

	// The local anchor point relative to bodyA's origin.
	LocalAnchorA B2Vec2 `yaml:"localAnchorA"`

	// The local anchor point relative to bodyB's origin.
	LocalAnchorB B2Vec2 `yaml:"localAnchorB"`

	// The maximum friction force in N.
	MaxForce float64 `yaml:"maxForce"`

	// The maximum friction torque in N-m.
	MaxTorque float64 `yaml:"maxTorque"`
}

func MakeB2FrictionJointDef() B2FrictionJointDef {
	return B2FrictionJointDef{
		B2JointDef: B2JointDef{Type: B2_frictionJoint},
	}
}

// Initialize the bodies, anchors, axis, and reference angle using the
// world anchor and world axis.
func (def *B2FrictionJointDef) Initialize(bA, bB *B2Body, anchor B2Vec2) {
	def.BodyA = bA.Id()
	def.BodyB = bB.Id()
	def.LocalAnchorA = bA.GetLocalPoint(anchor)
	def.LocalAnchorB = bB.GetLocalPoint(anchor)
}

func (def *B2FrictionJointDef) create(world *B2World) (B2Joint, error) {
	if !B2IsValid(def.MaxForce) || def.MaxForce < 0.0 || !B2IsValid(def.MaxTorque) || def.MaxTorque < 0.0 {
		return nil, fmt.Errorf("box2d: friction joint max force %v torque %v: %w", def.MaxForce, def.MaxTorque, ErrInvalidJointDef)
	}

	return &B2FrictionJoint{
		b2JointBase:  makeB2JointBase(world, &def.B2JointDef),
		localAnchorA: def.LocalAnchorA,
		localAnchorB: def.LocalAnchorB,
		maxForce:     def.MaxForce,
		maxTorque:    def.MaxTorque,
	}, nil
}

// B2FrictionJoint is used for top-down friction. It provides 2D
// translational friction and angular friction.
type B2FrictionJoint struct {
	b2JointBase

	localAnchorA B2Vec2
	localAnchorB B2Vec2

	// Solver shared
	linearImpulse  B2Vec2
	angularImpulse float64
	maxForce       float64
	maxTorque      float64

	// Solver temp
	rA          B2Vec2
	rB          B2Vec2
	linearMass  B2Mat22
	angularMass float64
}

// Point-to-point constraint
// Cdot = v2 - v1
//      = v2 + cross(w2, r2) - v1 - cross(w1, r1)
// J = [-I -r1_skew I r2_skew ]
// Identity used:
// w k % (rx i + ry j) = w * (-ry i + rx j)

// Angle constraint
// Cdot = w2 - w1
// J = [0 0 -1 0 0 1]
// K = invI1 + invI2

// b2PointMass is the effective mass matrix of a point-to-point constraint.
func b2PointMass(mA, mB, iA, iB float64, rA, rB B2Vec2) B2Mat22 {
	var K B2Mat22
	K.Ex.X = mA + mB + iA*rA.Y*rA.Y + iB*rB.Y*rB.Y
	K.Ex.Y = -iA*rA.X*rA.Y - iB*rB.X*rB.Y
	K.Ey.X = K.Ex.Y
	K.Ey.Y = mA + mB + iA*rA.X*rA.X + iB*rB.X*rB.X
	return K
}

// b2ClampImpulse bounds the accumulated impulse to a maximum length.
func b2ClampImpulse(accumulated *B2Vec2, maxImpulse float64) {
	if accumulated.LengthSquared() > maxImpulse*maxImpulse {
		accumulated.Normalize()
		accumulated.OperatorScalarMulInplace(maxImpulse)
	}
}

func (joint *B2FrictionJoint) initVelocityConstraints(data *B2SolverData) {
	joint.prepare(data)

	_, aA, _, aB := joint.loadPositions(data)
	vA, wA, vB, wB := joint.loadVelocities(data)

	qA := MakeB2RotFromAngle(aA)
	qB := MakeB2RotFromAngle(aB)

	// Compute the effective mass matrix.
	joint.rA = B2RotVec2Mul(qA, B2Vec2Sub(joint.localAnchorA, joint.localCenterA))
	joint.rB = B2RotVec2Mul(qB, B2Vec2Sub(joint.localAnchorB, joint.localCenterB))

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	joint.linearMass = b2PointMass(mA, mB, iA, iB, joint.rA, joint.rB).GetInverse()
	joint.angularMass = b2InvOrZero(iA + iB)

	if data.Step.WarmStarting {
		// Scale impulses to support a variable time step.
		joint.linearImpulse.OperatorScalarMulInplace(data.Step.DtRatio)
		joint.angularImpulse *= data.Step.DtRatio

		P := joint.linearImpulse
		vA.OperatorMinusInplace(B2Vec2MulScalar(mA, P))
		wA -= iA * (B2Vec2Cross(joint.rA, P) + joint.angularImpulse)
		vB.OperatorPlusInplace(B2Vec2MulScalar(mB, P))
		wB += iB * (B2Vec2Cross(joint.rB, P) + joint.angularImpulse)
	} else {
		joint.linearImpulse.SetZero()
		joint.angularImpulse = 0.0
	}

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *B2FrictionJoint) solveVelocityConstraints(data *B2SolverData) {
	vA, wA, vB, wB := joint.loadVelocities(data)

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	h := data.Step.Dt

	// Solve angular friction
	{
		Cdot := wB - wA
		impulse := -joint.angularMass * Cdot

		oldImpulse := joint.angularImpulse
		maxImpulse := h * joint.maxTorque
		joint.angularImpulse = B2FloatClamp(joint.angularImpulse+impulse, -maxImpulse, maxImpulse)
		impulse = joint.angularImpulse - oldImpulse

		wA -= iA * impulse
		wB += iB * impulse
	}

	// Solve linear friction
	{
		Cdot := B2Vec2Sub(
			B2Vec2Add(vB, B2Vec2CrossScalarVector(wB, joint.rB)),
			B2Vec2Add(vA, B2Vec2CrossScalarVector(wA, joint.rA)),
		)

		impulse := B2Vec2Mat22Mul(joint.linearMass, Cdot).OperatorNegate()
		oldImpulse := joint.linearImpulse
		joint.linearImpulse.OperatorPlusInplace(impulse)
		b2ClampImpulse(&joint.linearImpulse, h*joint.maxForce)
		impulse = B2Vec2Sub(joint.linearImpulse, oldImpulse)

		vA.OperatorMinusInplace(B2Vec2MulScalar(mA, impulse))
		wA -= iA * B2Vec2Cross(joint.rA, impulse)

		vB.OperatorPlusInplace(B2Vec2MulScalar(mB, impulse))
		wB += iB * B2Vec2Cross(joint.rB, impulse)
	}

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *B2FrictionJoint) solvePositionConstraints(data *B2SolverData) bool {
	return true
}

func (joint *B2FrictionJoint) GetAnchorA() B2Vec2 {
	return joint.GetBodyA().GetWorldPoint(joint.localAnchorA)
}

func (joint *B2FrictionJoint) GetAnchorB() B2Vec2 {
	return joint.GetBodyB().GetWorldPoint(joint.localAnchorB)
}

func (joint *B2FrictionJoint) GetReactionForce(inv_dt float64) B2Vec2 {
	return B2Vec2MulScalar(inv_dt, joint.linearImpulse)
}

func (joint *B2FrictionJoint) GetReactionTorque(inv_dt float64) float64 {
	return inv_dt * joint.angularImpulse
}

// The local anchor point relative to bodyA's origin.
func (joint *B2FrictionJoint) GetLocalAnchorA() B2Vec2 {
	return joint.localAnchorA
}

// The local anchor point relative to bodyB's origin.
func (joint *B2FrictionJoint) GetLocalAnchorB() B2Vec2 {
	return joint.localAnchorB
}

// SetMaxForce sets the maximum friction force in N.
func (joint *B2FrictionJoint) SetMaxForce(force float64) {
	B2Assert(B2IsValid(force) && force >= 0.0)
	joint.maxForce = force
}

func (joint *B2FrictionJoint) GetMaxForce() float64 {
	return joint.maxForce
}

// SetMaxTorque sets the maximum friction torque in N*m.
func (joint *B2FrictionJoint) SetMaxTorque(torque float64) {
	B2Assert(B2IsValid(torque) && torque >= 0.0)
	joint.maxTorque = torque
}

func (joint *B2FrictionJoint) GetMaxTorque() float64 {
	return joint.maxTorque
}

func (joint *B2FrictionJoint) def() B2JointDefInterface {
	return &B2FrictionJointDef{
		B2JointDef:   joint.defBase(),
		LocalAnchorA: joint.localAnchorA,
		LocalAnchorB: joint.localAnchorB,
		MaxForce:     joint.maxForce,
		MaxTorque:    joint.maxTorque,
	}
}
