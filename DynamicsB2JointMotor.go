package box2d

import (
	"fmt"
)

// B2MotorJointDef is used to create a motor joint.
type B2MotorJointDef struct {
	B2JointDef `yaml:"-"`

	// Position of bodyB minus the position of bodyA, in bodyA's frame, in meters.
	LinearOffset B2Vec2 `yaml:"linearOffset"`

	// The bodyB angle minus bodyA angle in radians.
	AngularOffset float64 `yaml:"angularOffset"`

	// The maximum motor force in N.
	MaxForce float64 `yaml:"maxForce"`

	// The maximum motor torque in N-m.
	MaxTorque float64 `yaml:"maxTorque"`

	// Position correction factor in the range [0,1].
	CorrectionFactor float64 `yaml:"correctionFactor"`
}

func MakeB2MotorJointDef() B2MotorJointDef {
	return B2MotorJointDef{
		B2JointDef:       B2JointDef{Type: B2_motorJoint},
		MaxForce:         1.0,
		MaxTorque:        1.0,
		CorrectionFactor: 0.3,
	}
}

// Initialize the bodies and offsets using the current transforms.
func (def *B2MotorJointDef) Initialize(bA, bB *B2Body) {
	def.BodyA = bA.Id()
	def.BodyB = bB.Id()
	def.LinearOffset = bA.GetLocalPoint(bB.GetPosition())
	def.AngularOffset = bB.GetAngle() - bA.GetAngle()
}

func (def *B2MotorJointDef) create(world *B2World) (B2Joint, error) {
	if def.CorrectionFactor < 0.0 || def.CorrectionFactor > 1.0 {
		return nil, fmt.Errorf("box2d: motor joint correction factor %v: %w", def.CorrectionFactor, ErrInvalidJointDef)
	}
	if !B2IsValid(def.MaxForce) || def.MaxForce < 0.0 || !B2IsValid(def.MaxTorque) || def.MaxTorque < 0.0 {
		return nil, fmt.Errorf("box2d: motor joint max force %v torque %v: %w", def.MaxForce, def.MaxTorque, ErrInvalidJointDef)
	}

	return &B2MotorJoint{
		b2JointBase:      makeB2JointBase(world, &def.B2JointDef),
		linearOffset:     def.LinearOffset,
		angularOffset:    def.AngularOffset,
		maxForce:         def.MaxForce,
		maxTorque:        def.MaxTorque,
		correctionFactor: def.CorrectionFactor,
	}, nil
}

// B2MotorJoint is used to control the relative motion between two bodies.
// A typical usage is to control the movement of a dynamic body with
// respect to the ground.
type B2MotorJoint struct {
	b2JointBase

	// Solver shared
	linearOffset     B2Vec2
	angularOffset    float64
	linearImpulse    B2Vec2
	angularImpulse   float64
	maxForce         float64
	maxTorque        float64
	correctionFactor float64

	// Solver temp
	rA           B2Vec2
	rB           B2Vec2
	linearError  B2Vec2
	angularError float64
	linearMass   B2Mat22
	angularMass  float64
}

// Point-to-point constraint
// Cdot = v2 - v1
//      = v2 + cross(w2, r2) - v1 - cross(w1, r1)
// J = [-I -r1_skew I r2_skew ]
// Identity used:
// w k % (rx i + ry j) = w * (-ry i + rx j)
//
// r1 = offset - c1
// r2 = -c2

// Angle constraint
// Cdot = w2 - w1
// J = [0 0 -1 0 0 1]
// K = invI1 + invI2

func (joint *B2MotorJoint) initVelocityConstraints(data *B2SolverData) {
	joint.prepare(data)

	cA, aA, cB, aB := joint.loadPositions(data)
	vA, wA, vB, wB := joint.loadVelocities(data)

	qA := MakeB2RotFromAngle(aA)
	qB := MakeB2RotFromAngle(aB)

	// Compute the effective mass matrix.
	joint.rA = B2RotVec2Mul(qA, B2Vec2Sub(joint.linearOffset, joint.localCenterA))
	joint.rB = B2RotVec2Mul(qB, joint.localCenterB.OperatorNegate())

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	joint.linearMass = b2PointMass(mA, mB, iA, iB, joint.rA, joint.rB).GetInverse()
	joint.angularMass = b2InvOrZero(iA + iB)

	joint.linearError = B2Vec2Sub(B2Vec2Sub(B2Vec2Add(cB, joint.rB), cA), joint.rA)
	joint.angularError = aB - aA - joint.angularOffset

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

func (joint *B2MotorJoint) solveVelocityConstraints(data *B2SolverData) {
	vA, wA, vB, wB := joint.loadVelocities(data)

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	h := data.Step.Dt
	inv_h := data.Step.Inv_dt

	// Solve angular friction
	{
		Cdot := wB - wA + inv_h*joint.correctionFactor*joint.angularError
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
		Cdot := B2Vec2Add(
			B2Vec2Sub(
				B2Vec2Add(vB, B2Vec2CrossScalarVector(wB, joint.rB)),
				B2Vec2Add(vA, B2Vec2CrossScalarVector(wA, joint.rA)),
			),
			B2Vec2MulScalar(inv_h*joint.correctionFactor, joint.linearError),
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

func (joint *B2MotorJoint) solvePositionConstraints(data *B2SolverData) bool {
	return true
}

func (joint *B2MotorJoint) GetAnchorA() B2Vec2 {
	return joint.GetBodyA().GetPosition()
}

func (joint *B2MotorJoint) GetAnchorB() B2Vec2 {
	return joint.GetBodyB().GetPosition()
}

func (joint *B2MotorJoint) GetReactionForce(inv_dt float64) B2Vec2 {
	return B2Vec2MulScalar(inv_dt, joint.linearImpulse)
}

func (joint *B2MotorJoint) GetReactionTorque(inv_dt float64) float64 {
	return inv_dt * joint.angularImpulse
}

// SetLinearOffset sets the target linear offset, in frame A, in meters.
func (joint *B2MotorJoint) SetLinearOffset(linearOffset B2Vec2) {
	if !B2Vec2Equals(linearOffset, joint.linearOffset) {
		joint.wakeBodies()
		joint.linearOffset = linearOffset
	}
}

func (joint *B2MotorJoint) GetLinearOffset() B2Vec2 {
	return joint.linearOffset
}

// SetAngularOffset sets the target angular offset, in radians.
func (joint *B2MotorJoint) SetAngularOffset(angularOffset float64) {
	if angularOffset != joint.angularOffset {
		joint.wakeBodies()
		joint.angularOffset = angularOffset
	}
}

func (joint *B2MotorJoint) GetAngularOffset() float64 {
	return joint.angularOffset
}

// SetMaxForce sets the maximum friction force in N.
func (joint *B2MotorJoint) SetMaxForce(force float64) {
	B2Assert(B2IsValid(force) && force >= 0.0)
	joint.maxForce = force
}

func (joint *B2MotorJoint) GetMaxForce() float64 {
	return joint.maxForce
}

// SetMaxTorque sets the maximum friction torque in N*m.
func (joint *B2MotorJoint) SetMaxTorque(torque float64) {
	B2Assert(B2IsValid(torque) && torque >= 0.0)
	joint.maxTorque = torque
}

func (joint *B2MotorJoint) GetMaxTorque() float64 {
	return joint.maxTorque
}

// SetCorrectionFactor sets the position correction factor in the range [0,1].
func (joint *B2MotorJoint) SetCorrectionFactor(factor float64) {
	B2Assert(B2IsValid(factor) && 0.0 <= factor && factor <= 1.0)
	joint.correctionFactor = factor
}

func (joint *B2MotorJoint) GetCorrectionFactor() float64 {
	return joint.correctionFactor
}

func (joint *B2MotorJoint) def() B2JointDefInterface {
	return &B2MotorJointDef{
		B2JointDef:       joint.defBase(),
		LinearOffset:     joint.linearOffset,
		AngularOffset:    joint.angularOffset,
		MaxForce:         joint.maxForce,
		MaxTorque:        joint.maxTorque,
		CorrectionFactor: joint.correctionFactor,
	}
}
