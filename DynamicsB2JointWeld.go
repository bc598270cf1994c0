package box2d

import (
	"math"
)

// B2WeldJointDef requires defining a common anchor point on both bodies
// and the relative body angle. The position of the anchor point is
// important for computing the reaction torque.
type B2WeldJointDef struct {
	B2JointDef `yaml:"-"`

	// The local anchor point relative to bodyA's origin.
	LocalAnchorA B2Vec2 `yaml:"localAnchorA"`

	// The local anchor point relative to bodyB's origin.
	LocalAnchorB B2Vec2 `yaml:"localAnchorB"`

	// The bodyB angle minus bodyA angle in the reference state (radians).
	ReferenceAngle float64 `yaml:"referenceAngle"`

	// The rotational stiffness in N*m. Disable softness with a value of 0.
	Stiffness float64 `yaml:"stiffness"`

	// The rotational damping in N*m*s.
	Damping float64 `yaml:"damping"`
}

func MakeB2WeldJointDef() B2WeldJointDef {
	return B2WeldJointDef{
		B2JointDef: B2JointDef{Type: B2_weldJoint},
	}
}

// Initialize the bodies, anchors, reference angle, stiffness, and damping.
func (def *B2WeldJointDef) Initialize(bA, bB *B2Body, anchor B2Vec2) {
	def.BodyA = bA.Id()
	def.BodyB = bB.Id()
	def.LocalAnchorA = bA.GetLocalPoint(anchor)
	def.LocalAnchorB = bB.GetLocalPoint(anchor)
	def.ReferenceAngle = bB.GetAngle() - bA.GetAngle()
}

func (def *B2WeldJointDef) create(world *B2World) (B2Joint, error) {
	return &B2WeldJoint{
		b2JointBase:    makeB2JointBase(world, &def.B2JointDef),
		localAnchorA:   def.LocalAnchorA,
		localAnchorB:   def.LocalAnchorB,
		referenceAngle: def.ReferenceAngle,
		stiffness:      def.Stiffness,
		damping:        def.Damping,
	}, nil
}

// B2WeldJoint essentially glues two bodies together. A weld joint may
// distort somewhat because the island constraint solver is approximate.
type B2WeldJoint struct {
	b2JointBase

	stiffness float64
	damping   float64
	bias      float64

	// Solver shared
	localAnchorA   B2Vec2
	localAnchorB   B2Vec2
	referenceAngle float64
	gamma          float64
	impulse        B2Vec3

	// Solver temp
	rA   B2Vec2
	rB   B2Vec2
	mass B2Mat33
}

// Point-to-point constraint
// C = p2 - p1
// Cdot = v2 - v1
//      = v2 + cross(w2, r2) - v1 - cross(w1, r1)
// J = [-I -r1_skew I r2_skew ]
// Identity used:
// w k % (rx i + ry j) = w * (-ry i + rx j)

// Angle constraint
// C = angle2 - angle1 - referenceAngle
// Cdot = w2 - w1
// J = [0 0 -1 0 0 1]
// K = invI1 + invI2

// b2WeldMass is the effective mass matrix of the point and angle
// constraints for the given arms.
func b2WeldMass(mA, mB, iA, iB float64, rA, rB B2Vec2) B2Mat33 {
	var K B2Mat33
	K.Ex.X = mA + mB + rA.Y*rA.Y*iA + rB.Y*rB.Y*iB
	K.Ey.X = -rA.Y*rA.X*iA - rB.Y*rB.X*iB
	K.Ez.X = -rA.Y*iA - rB.Y*iB
	K.Ex.Y = K.Ey.X
	K.Ey.Y = mA + mB + rA.X*rA.X*iA + rB.X*rB.X*iB
	K.Ez.Y = rA.X*iA + rB.X*iB
	K.Ex.Z = K.Ez.X
	K.Ey.Z = K.Ez.Y
	K.Ez.Z = iA + iB
	return K
}

func (joint *B2WeldJoint) initVelocityConstraints(data *B2SolverData) {
	joint.prepare(data)

	_, aA, _, aB := joint.loadPositions(data)
	vA, wA, vB, wB := joint.loadVelocities(data)

	qA := MakeB2RotFromAngle(aA)
	qB := MakeB2RotFromAngle(aB)

	joint.rA = B2RotVec2Mul(qA, B2Vec2Sub(joint.localAnchorA, joint.localCenterA))
	joint.rB = B2RotVec2Mul(qB, B2Vec2Sub(joint.localAnchorB, joint.localCenterB))

	// J = [-I -r1_skew I r2_skew]
	//     [ 0       -1 0       1]
	// r_skew = [-ry; rx]

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	K := b2WeldMass(mA, mB, iA, iB, joint.rA, joint.rB)

	if joint.stiffness > 0.0 {
		joint.mass = K.GetInverse22()

		invM := iA + iB
		C := aB - aA - joint.referenceAngle
		joint.gamma, joint.bias = b2SoftConstraint(C, joint.stiffness, joint.damping, data.Step.Dt)

		invM += joint.gamma
		joint.mass.Ez.Z = b2InvOrZero(invM)
	} else if K.Ez.Z == 0.0 {
		joint.mass = K.GetInverse22()
		joint.gamma = 0.0
		joint.bias = 0.0
	} else {
		joint.mass = K.GetSymInverse33()
		joint.gamma = 0.0
		joint.bias = 0.0
	}

	if data.Step.WarmStarting {
		// Scale impulses to support a variable time step.
		joint.impulse = B2Vec3MultScalar(data.Step.DtRatio, joint.impulse)

		P := MakeB2Vec2(joint.impulse.X, joint.impulse.Y)

		vA.OperatorMinusInplace(B2Vec2MulScalar(mA, P))
		wA -= iA * (B2Vec2Cross(joint.rA, P) + joint.impulse.Z)

		vB.OperatorPlusInplace(B2Vec2MulScalar(mB, P))
		wB += iB * (B2Vec2Cross(joint.rB, P) + joint.impulse.Z)
	} else {
		joint.impulse.SetZero()
	}

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *B2WeldJoint) solveVelocityConstraints(data *B2SolverData) {
	vA, wA, vB, wB := joint.loadVelocities(data)

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	if joint.stiffness > 0.0 {
		Cdot2 := wB - wA

		impulse2 := -joint.mass.Ez.Z * (Cdot2 + joint.bias + joint.gamma*joint.impulse.Z)
		joint.impulse.Z += impulse2

		wA -= iA * impulse2
		wB += iB * impulse2

		Cdot1 := B2Vec2Sub(
			B2Vec2Add(vB, B2Vec2CrossScalarVector(wB, joint.rB)),
			B2Vec2Add(vA, B2Vec2CrossScalarVector(wA, joint.rA)),
		)

		impulse1 := B2Vec2Mul22(joint.mass, Cdot1).OperatorNegate()
		joint.impulse.X += impulse1.X
		joint.impulse.Y += impulse1.Y

		P := impulse1

		vA.OperatorMinusInplace(B2Vec2MulScalar(mA, P))
		wA -= iA * B2Vec2Cross(joint.rA, P)

		vB.OperatorPlusInplace(B2Vec2MulScalar(mB, P))
		wB += iB * B2Vec2Cross(joint.rB, P)
	} else {
		Cdot1 := B2Vec2Sub(
			B2Vec2Add(vB, B2Vec2CrossScalarVector(wB, joint.rB)),
			B2Vec2Add(vA, B2Vec2CrossScalarVector(wA, joint.rA)),
		)
		Cdot2 := wB - wA
		Cdot := MakeB2Vec3(Cdot1.X, Cdot1.Y, Cdot2)

		impulse := B2Vec3Mat33Mul(joint.mass, Cdot).OperatorNegate()
		joint.impulse.OperatorPlusInplace(impulse)

		P := MakeB2Vec2(impulse.X, impulse.Y)

		vA.OperatorMinusInplace(B2Vec2MulScalar(mA, P))
		wA -= iA * (B2Vec2Cross(joint.rA, P) + impulse.Z)

		vB.OperatorPlusInplace(B2Vec2MulScalar(mB, P))
		wB += iB * (B2Vec2Cross(joint.rB, P) + impulse.Z)
	}

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *B2WeldJoint) solvePositionConstraints(data *B2SolverData) bool {
	cA, aA, cB, aB := joint.loadPositions(data)

	qA := MakeB2RotFromAngle(aA)
	qB := MakeB2RotFromAngle(aB)

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	rA := B2RotVec2Mul(qA, B2Vec2Sub(joint.localAnchorA, joint.localCenterA))
	rB := B2RotVec2Mul(qB, B2Vec2Sub(joint.localAnchorB, joint.localCenterB))

	var positionError, angularError float64

	K := b2WeldMass(mA, mB, iA, iB, rA, rB)

	C1 := B2Vec2Sub(B2Vec2Sub(B2Vec2Add(cB, rB), cA), rA)
	positionError = C1.Length()

	if joint.stiffness > 0.0 {
		angularError = 0.0

		P := K.Solve22(C1).OperatorNegate()

		cA.OperatorMinusInplace(B2Vec2MulScalar(mA, P))
		aA -= iA * B2Vec2Cross(rA, P)

		cB.OperatorPlusInplace(B2Vec2MulScalar(mB, P))
		aB += iB * B2Vec2Cross(rB, P)
	} else {
		C2 := aB - aA - joint.referenceAngle
		angularError = math.Abs(C2)

		C := MakeB2Vec3(C1.X, C1.Y, C2)

		var impulse B2Vec3
		if K.Ez.Z > 0.0 {
			impulse = K.Solve33(C).OperatorNegate()
		} else {
			impulse2 := K.Solve22(C1).OperatorNegate()
			impulse = MakeB2Vec3(impulse2.X, impulse2.Y, 0.0)
		}

		P := MakeB2Vec2(impulse.X, impulse.Y)

		cA.OperatorMinusInplace(B2Vec2MulScalar(mA, P))
		aA -= iA * (B2Vec2Cross(rA, P) + impulse.Z)

		cB.OperatorPlusInplace(B2Vec2MulScalar(mB, P))
		aB += iB * (B2Vec2Cross(rB, P) + impulse.Z)
	}

	joint.storePositions(data, cA, aA, cB, aB)

	return positionError <= B2_linearSlop && angularError <= B2_angularSlop
}

func (joint *B2WeldJoint) GetAnchorA() B2Vec2 {
	return joint.GetBodyA().GetWorldPoint(joint.localAnchorA)
}

func (joint *B2WeldJoint) GetAnchorB() B2Vec2 {
	return joint.GetBodyB().GetWorldPoint(joint.localAnchorB)
}

func (joint *B2WeldJoint) GetReactionForce(inv_dt float64) B2Vec2 {
	return B2Vec2MulScalar(inv_dt, MakeB2Vec2(joint.impulse.X, joint.impulse.Y))
}

func (joint *B2WeldJoint) GetReactionTorque(inv_dt float64) float64 {
	return inv_dt * joint.impulse.Z
}

// The local anchor point relative to bodyA's origin.
func (joint *B2WeldJoint) GetLocalAnchorA() B2Vec2 {
	return joint.localAnchorA
}

// The local anchor point relative to bodyB's origin.
func (joint *B2WeldJoint) GetLocalAnchorB() B2Vec2 {
	return joint.localAnchorB
}

func (joint *B2WeldJoint) GetReferenceAngle() float64 {
	return joint.referenceAngle
}

// SetStiffness sets the rotational stiffness in N*m.
func (joint *B2WeldJoint) SetStiffness(stiffness float64) {
	joint.stiffness = stiffness
}

func (joint *B2WeldJoint) GetStiffness() float64 {
	return joint.stiffness
}

// SetDamping sets the rotational damping in N*m*s.
func (joint *B2WeldJoint) SetDamping(damping float64) {
	joint.damping = damping
}

func (joint *B2WeldJoint) GetDamping() float64 {
	return joint.damping
}

func (joint *B2WeldJoint) def() B2JointDefInterface {
	return &B2WeldJointDef{
		B2JointDef:     joint.defBase(),
		LocalAnchorA:   joint.localAnchorA,
		LocalAnchorB:   joint.localAnchorB,
		ReferenceAngle: joint.referenceAngle,
		Stiffness:      joint.stiffness,
		Damping:        joint.damping,
	}
}
