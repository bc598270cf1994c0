package box2d

import (
	"fmt"
	"math"
)

// B2RopeJointDef requires two body anchor points and a maximum length.
// By default the connected objects will not collide.
type B2RopeJointDef struct {
	B2JointDef `yaml:"-"`

	// The local anchor point relative to bodyA's origin.
	LocalAnchorA B2Vec2 `yaml:"localAnchorA"`

	// The local anchor point relative to bodyB's origin.
	LocalAnchorB B2Vec2 `yaml:"localAnchorB"`

	// The maximum length of the rope. It must be larger than
	// B2_linearSlop or the joint will have no effect.
	MaxLength float64 `yaml:"maxLength"`
}

func MakeB2RopeJointDef() B2RopeJointDef {
	return B2RopeJointDef{
		B2JointDef:   B2JointDef{Type: B2_ropeJoint},
		LocalAnchorA: MakeB2Vec2(-1.0, 0.0),
		LocalAnchorB: MakeB2Vec2(1.0, 0.0),
	}
}

// Initialize the bodies and anchors using world space anchors. The
// maximum length is the current distance between the anchors.
func (def *B2RopeJointDef) Initialize(bA, bB *B2Body, anchorA, anchorB B2Vec2) {
	def.BodyA = bA.Id()
	def.BodyB = bB.Id()
	def.LocalAnchorA = bA.GetLocalPoint(anchorA)
	def.LocalAnchorB = bB.GetLocalPoint(anchorB)
	def.MaxLength = B2Vec2Distance(anchorA, anchorB)
}

func (def *B2RopeJointDef) create(world *B2World) (B2Joint, error) {
	if !B2IsValid(def.MaxLength) || def.MaxLength < 0.0 {
		return nil, fmt.Errorf("box2d: rope joint max length %v: %w", def.MaxLength, ErrInvalidJointDef)
	}

	return &B2RopeJoint{
		b2JointBase:  makeB2JointBase(world, &def.B2JointDef),
		localAnchorA: def.LocalAnchorA,
		localAnchorB: def.LocalAnchorB,
		maxLength:    def.MaxLength,
	}, nil
}

// B2RopeJoint enforces a maximum distance between two points on two
// bodies. It has no other effect. Changing the maximum length during the
// simulation gives non-physical behavior; use a B2DistanceJoint to
// dynamically control length.
type B2RopeJoint struct {
	b2JointBase

	// Solver shared
	localAnchorA B2Vec2
	localAnchorB B2Vec2
	maxLength    float64
	length       float64
	impulse      float64

	// Solver temp
	u    B2Vec2
	rA   B2Vec2
	rB   B2Vec2
	mass float64
}

// Limit:
// C = norm(pB - pA) - L
// u = (pB - pA) / norm(pB - pA)
// Cdot = dot(u, vB + cross(wB, rB) - vA - cross(wA, rA))
// J = [-u -cross(rA, u) u cross(rB, u)]
// K = J * invM * JT
//   = invMassA + invIA * cross(rA, u)^2 + invMassB + invIB * cross(rB, u)^2

func (joint *B2RopeJoint) initVelocityConstraints(data *B2SolverData) {
	joint.prepare(data)

	cA, aA, cB, aB := joint.loadPositions(data)
	vA, wA, vB, wB := joint.loadVelocities(data)

	qA := MakeB2RotFromAngle(aA)
	qB := MakeB2RotFromAngle(aB)

	joint.rA = B2RotVec2Mul(qA, B2Vec2Sub(joint.localAnchorA, joint.localCenterA))
	joint.rB = B2RotVec2Mul(qB, B2Vec2Sub(joint.localAnchorB, joint.localCenterB))
	joint.u = B2Vec2Sub(B2Vec2Sub(B2Vec2Add(cB, joint.rB), cA), joint.rA)

	joint.length = joint.u.Length()

	if joint.length > B2_linearSlop {
		joint.u.OperatorScalarMulInplace(1.0 / joint.length)
	} else {
		joint.u.SetZero()
		joint.mass = 0.0
		joint.impulse = 0.0
		return
	}

	// Compute effective mass.
	crA := B2Vec2Cross(joint.rA, joint.u)
	crB := B2Vec2Cross(joint.rB, joint.u)
	invMass := joint.invMassA + joint.invIA*crA*crA + joint.invMassB + joint.invIB*crB*crB
	joint.mass = b2InvOrZero(invMass)

	if data.Step.WarmStarting {
		// Scale the impulse to support a variable time step.
		joint.impulse *= data.Step.DtRatio

		P := B2Vec2MulScalar(joint.impulse, joint.u)
		vA.OperatorMinusInplace(B2Vec2MulScalar(joint.invMassA, P))
		wA -= joint.invIA * B2Vec2Cross(joint.rA, P)
		vB.OperatorPlusInplace(B2Vec2MulScalar(joint.invMassB, P))
		wB += joint.invIB * B2Vec2Cross(joint.rB, P)
	} else {
		joint.impulse = 0.0
	}

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *B2RopeJoint) solveVelocityConstraints(data *B2SolverData) {
	vA, wA, vB, wB := joint.loadVelocities(data)

	// Cdot = dot(u, v + cross(w, r))
	vpA := B2Vec2Add(vA, B2Vec2CrossScalarVector(wA, joint.rA))
	vpB := B2Vec2Add(vB, B2Vec2CrossScalarVector(wB, joint.rB))
	C := joint.length - joint.maxLength
	Cdot := B2Vec2Dot(joint.u, B2Vec2Sub(vpB, vpA))

	// Predictive constraint.
	if C < 0.0 {
		Cdot += data.Step.Inv_dt * C
	}

	impulse := -joint.mass * Cdot
	oldImpulse := joint.impulse
	joint.impulse = min(0.0, joint.impulse+impulse)
	impulse = joint.impulse - oldImpulse

	P := B2Vec2MulScalar(impulse, joint.u)
	vA.OperatorMinusInplace(B2Vec2MulScalar(joint.invMassA, P))
	wA -= joint.invIA * B2Vec2Cross(joint.rA, P)
	vB.OperatorPlusInplace(B2Vec2MulScalar(joint.invMassB, P))
	wB += joint.invIB * B2Vec2Cross(joint.rB, P)

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *B2RopeJoint) solvePositionConstraints(data *B2SolverData) bool {
	cA, aA, cB, aB := joint.loadPositions(data)

	qA := MakeB2RotFromAngle(aA)
	qB := MakeB2RotFromAngle(aB)

	rA := B2RotVec2Mul(qA, B2Vec2Sub(joint.localAnchorA, joint.localCenterA))
	rB := B2RotVec2Mul(qB, B2Vec2Sub(joint.localAnchorB, joint.localCenterB))
	u := B2Vec2Sub(B2Vec2Sub(B2Vec2Add(cB, rB), cA), rA)

	length := u.Normalize()
	C := B2FloatClamp(length-joint.maxLength, 0.0, B2_maxLinearCorrection)

	impulse := -joint.mass * C
	P := B2Vec2MulScalar(impulse, u)

	cA.OperatorMinusInplace(B2Vec2MulScalar(joint.invMassA, P))
	aA -= joint.invIA * B2Vec2Cross(rA, P)
	cB.OperatorPlusInplace(B2Vec2MulScalar(joint.invMassB, P))
	aB += joint.invIB * B2Vec2Cross(rB, P)

	joint.storePositions(data, cA, aA, cB, aB)

	return length-joint.maxLength < B2_linearSlop
}

func (joint *B2RopeJoint) GetAnchorA() B2Vec2 {
	return joint.GetBodyA().GetWorldPoint(joint.localAnchorA)
}

func (joint *B2RopeJoint) GetAnchorB() B2Vec2 {
	return joint.GetBodyB().GetWorldPoint(joint.localAnchorB)
}

func (joint *B2RopeJoint) GetReactionForce(inv_dt float64) B2Vec2 {
	return B2Vec2MulScalar(inv_dt*joint.impulse, joint.u)
}

func (joint *B2RopeJoint) GetReactionTorque(inv_dt float64) float64 {
	return 0.0
}

// The local anchor point relative to bodyA's origin.
func (joint *B2RopeJoint) GetLocalAnchorA() B2Vec2 {
	return joint.localAnchorA
}

// The local anchor point relative to bodyB's origin.
func (joint *B2RopeJoint) GetLocalAnchorB() B2Vec2 {
	return joint.localAnchorB
}

func (joint *B2RopeJoint) SetMaxLength(length float64) {
	joint.maxLength = length
}

func (joint *B2RopeJoint) GetMaxLength() float64 {
	return joint.maxLength
}

// IsTaut reports whether the rope was at its maximum length during the
// last solve.
func (joint *B2RopeJoint) IsTaut() bool {
	return joint.length-joint.maxLength > -B2_linearSlop && math.Abs(joint.impulse) > 0.0
}

func (joint *B2RopeJoint) def() B2JointDefInterface {
	return &B2RopeJointDef{
		B2JointDef:   joint.defBase(),
		LocalAnchorA: joint.localAnchorA,
		LocalAnchorB: joint.localAnchorB,
		MaxLength:    joint.maxLength,
	}
}
