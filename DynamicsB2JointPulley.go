package box2d

import (
	"fmt"
	"math"
)

// B2PulleyJointDef requires two ground anchors, two dynamic body anchor
// points, and a pulley ratio.
type B2PulleyJointDef struct {
	B2JointDef `yaml:"-"`

	// The first ground anchor in world coordinates. This point never moves.
	GroundAnchorA B2Vec2 `yaml:"groundAnchorA"`

	// The second ground anchor in world coordinates. This point never moves.
	GroundAnchorB B2Vec2 `yaml:"groundAnchorB"`

	// The local anchor point relative to bodyA's origin.
	LocalAnchorA B2Vec2 `yaml:"localAnchorA"`

	// The local anchor point relative to bodyB's origin.
	LocalAnchorB B2Vec2 `yaml:"localAnchorB"`

	// The reference length for the segment attached to bodyA.
	LengthA float64 `yaml:"lengthA"`

	// The reference length for the segment attached to bodyB.
	LengthB float64 `yaml:"lengthB"`

	// The pulley ratio, used to simulate a block-and-tackle.
	Ratio float64 `yaml:"ratio"`
}

func MakeB2PulleyJointDef() B2PulleyJointDef {
	return B2PulleyJointDef{
		B2JointDef:    B2JointDef{Type: B2_pulleyJoint, CollideConnected: true},
		GroundAnchorA: MakeB2Vec2(-1.0, 1.0),
		GroundAnchorB: MakeB2Vec2(1.0, 1.0),
		LocalAnchorA:  MakeB2Vec2(-1.0, 0.0),
		LocalAnchorB:  MakeB2Vec2(1.0, 0.0),
		Ratio:         1.0,
	}
}

// Initialize the bodies, anchors, lengths and ratio using
// the world anchors.
func (def *B2PulleyJointDef) Initialize(bA, bB *B2Body, groundA, groundB, anchorA, anchorB B2Vec2, ratio float64) {
	def.BodyA = bA.Id()
	def.BodyB = bB.Id()
	def.GroundAnchorA = groundA
	def.GroundAnchorB = groundB
	def.LocalAnchorA = bA.GetLocalPoint(anchorA)
	def.LocalAnchorB = bB.GetLocalPoint(anchorB)
	def.LengthA = B2Vec2Distance(anchorA, groundA)
	def.LengthB = B2Vec2Distance(anchorB, groundB)
	def.Ratio = ratio
}

func (def *B2PulleyJointDef) create(world *B2World) (B2Joint, error) {
	if !B2IsValid(def.Ratio) || def.Ratio <= B2_epsilon {
		return nil, fmt.Errorf("box2d: pulley joint ratio %v: %w", def.Ratio, ErrInvalidJointDef)
	}

	return &B2PulleyJoint{
		b2JointBase:   makeB2JointBase(world, &def.B2JointDef),
		groundAnchorA: def.GroundAnchorA,
		groundAnchorB: def.GroundAnchorB,
		localAnchorA:  def.LocalAnchorA,
		localAnchorB:  def.LocalAnchorB,
		lengthA:       def.LengthA,
		lengthB:       def.LengthB,
		ratio:         def.Ratio,
		constant:      def.LengthA + def.Ratio*def.LengthB,
	}, nil
}

// B2PulleyJoint connects two bodies to two fixed ground points such that
// length1 + ratio * length2 <= constant. The force transmitted is scaled
// by the ratio. Pulleys often work better combined with prismatic joints,
// and the anchor points should be covered with static shapes so neither
// side reaches zero length.
type B2PulleyJoint struct {
	b2JointBase

	groundAnchorA B2Vec2
	groundAnchorB B2Vec2
	lengthA       float64
	lengthB       float64

	// Solver shared
	localAnchorA B2Vec2
	localAnchorB B2Vec2
	constant     float64
	ratio        float64
	impulse      float64

	// Solver temp
	uA   B2Vec2
	uB   B2Vec2
	rA   B2Vec2
	rB   B2Vec2
	mass float64
}

// Pulley:
// length1 = norm(p1 - s1)
// length2 = norm(p2 - s2)
// C0 = (length1 + ratio * length2)_initial
// C = C0 - (length1 + ratio * length2)
// u1 = (p1 - s1) / norm(p1 - s1)
// u2 = (p2 - s2) / norm(p2 - s2)
// Cdot = -dot(u1, v1 + cross(w1, r1)) - ratio * dot(u2, v2 + cross(w2, r2))
// J = -[u1 cross(r1, u1) ratio * u2  ratio * cross(r2, u2)]
// K = J * invM * JT
//   = invMass1 + invI1 * cross(r1, u1)^2 + ratio^2 * (invMass2 + invI2 * cross(r2, u2)^2)

// pulleyAxes returns the unit rope directions from the ground anchors and
// the segment lengths. A segment shorter than ten slops has a zero axis.
func (joint *B2PulleyJoint) pulleyAxes(cA, cB, rA, rB B2Vec2) (uA, uB B2Vec2, lengthA, lengthB float64) {
	uA = B2Vec2Sub(B2Vec2Add(cA, rA), joint.groundAnchorA)
	uB = B2Vec2Sub(B2Vec2Add(cB, rB), joint.groundAnchorB)

	lengthA = uA.Length()
	lengthB = uB.Length()

	if lengthA > 10.0*B2_linearSlop {
		uA.OperatorScalarMulInplace(1.0 / lengthA)
	} else {
		uA.SetZero()
	}

	if lengthB > 10.0*B2_linearSlop {
		uB.OperatorScalarMulInplace(1.0 / lengthB)
	} else {
		uB.SetZero()
	}

	return uA, uB, lengthA, lengthB
}

func (joint *B2PulleyJoint) effectiveMass(rA, rB, uA, uB B2Vec2) float64 {
	ruA := B2Vec2Cross(rA, uA)
	ruB := B2Vec2Cross(rB, uB)

	mA := joint.invMassA + joint.invIA*ruA*ruA
	mB := joint.invMassB + joint.invIB*ruB*ruB

	return b2InvOrZero(mA + joint.ratio*joint.ratio*mB)
}

func (joint *B2PulleyJoint) initVelocityConstraints(data *B2SolverData) {
	joint.prepare(data)

	cA, aA, cB, aB := joint.loadPositions(data)
	vA, wA, vB, wB := joint.loadVelocities(data)

	qA := MakeB2RotFromAngle(aA)
	qB := MakeB2RotFromAngle(aB)

	joint.rA = B2RotVec2Mul(qA, B2Vec2Sub(joint.localAnchorA, joint.localCenterA))
	joint.rB = B2RotVec2Mul(qB, B2Vec2Sub(joint.localAnchorB, joint.localCenterB))
	joint.uA, joint.uB, _, _ = joint.pulleyAxes(cA, cB, joint.rA, joint.rB)
	joint.mass = joint.effectiveMass(joint.rA, joint.rB, joint.uA, joint.uB)

	if data.Step.WarmStarting {
		// Scale impulses to support variable time steps.
		joint.impulse *= data.Step.DtRatio

		PA := B2Vec2MulScalar(-joint.impulse, joint.uA)
		PB := B2Vec2MulScalar(-joint.ratio*joint.impulse, joint.uB)

		vA.OperatorPlusInplace(B2Vec2MulScalar(joint.invMassA, PA))
		wA += joint.invIA * B2Vec2Cross(joint.rA, PA)
		vB.OperatorPlusInplace(B2Vec2MulScalar(joint.invMassB, PB))
		wB += joint.invIB * B2Vec2Cross(joint.rB, PB)
	} else {
		joint.impulse = 0.0
	}

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *B2PulleyJoint) solveVelocityConstraints(data *B2SolverData) {
	vA, wA, vB, wB := joint.loadVelocities(data)

	vpA := B2Vec2Add(vA, B2Vec2CrossScalarVector(wA, joint.rA))
	vpB := B2Vec2Add(vB, B2Vec2CrossScalarVector(wB, joint.rB))

	Cdot := -B2Vec2Dot(joint.uA, vpA) - joint.ratio*B2Vec2Dot(joint.uB, vpB)
	impulse := -joint.mass * Cdot
	joint.impulse += impulse

	PA := B2Vec2MulScalar(-impulse, joint.uA)
	PB := B2Vec2MulScalar(-joint.ratio*impulse, joint.uB)
	vA.OperatorPlusInplace(B2Vec2MulScalar(joint.invMassA, PA))
	wA += joint.invIA * B2Vec2Cross(joint.rA, PA)
	vB.OperatorPlusInplace(B2Vec2MulScalar(joint.invMassB, PB))
	wB += joint.invIB * B2Vec2Cross(joint.rB, PB)

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *B2PulleyJoint) solvePositionConstraints(data *B2SolverData) bool {
	cA, aA, cB, aB := joint.loadPositions(data)

	qA := MakeB2RotFromAngle(aA)
	qB := MakeB2RotFromAngle(aB)

	rA := B2RotVec2Mul(qA, B2Vec2Sub(joint.localAnchorA, joint.localCenterA))
	rB := B2RotVec2Mul(qB, B2Vec2Sub(joint.localAnchorB, joint.localCenterB))
	uA, uB, lengthA, lengthB := joint.pulleyAxes(cA, cB, rA, rB)
	mass := joint.effectiveMass(rA, rB, uA, uB)

	C := joint.constant - lengthA - joint.ratio*lengthB
	linearError := math.Abs(C)

	impulse := -mass * C

	PA := B2Vec2MulScalar(-impulse, uA)
	PB := B2Vec2MulScalar(-joint.ratio*impulse, uB)

	cA.OperatorPlusInplace(B2Vec2MulScalar(joint.invMassA, PA))
	aA += joint.invIA * B2Vec2Cross(rA, PA)
	cB.OperatorPlusInplace(B2Vec2MulScalar(joint.invMassB, PB))
	aB += joint.invIB * B2Vec2Cross(rB, PB)

	joint.storePositions(data, cA, aA, cB, aB)

	return linearError < B2_linearSlop
}

func (joint *B2PulleyJoint) GetAnchorA() B2Vec2 {
	return joint.GetBodyA().GetWorldPoint(joint.localAnchorA)
}

func (joint *B2PulleyJoint) GetAnchorB() B2Vec2 {
	return joint.GetBodyB().GetWorldPoint(joint.localAnchorB)
}

func (joint *B2PulleyJoint) GetReactionForce(inv_dt float64) B2Vec2 {
	return B2Vec2MulScalar(inv_dt*joint.impulse, joint.uB)
}

func (joint *B2PulleyJoint) GetReactionTorque(inv_dt float64) float64 {
	return 0.0
}

func (joint *B2PulleyJoint) GetGroundAnchorA() B2Vec2 {
	return joint.groundAnchorA
}

func (joint *B2PulleyJoint) GetGroundAnchorB() B2Vec2 {
	return joint.groundAnchorB
}

// GetLengthA returns the reference length of segment A.
func (joint *B2PulleyJoint) GetLengthA() float64 {
	return joint.lengthA
}

// GetLengthB returns the reference length of segment B.
func (joint *B2PulleyJoint) GetLengthB() float64 {
	return joint.lengthB
}

func (joint *B2PulleyJoint) GetRatio() float64 {
	return joint.ratio
}

// GetCurrentLengthA returns the current length of segment A.
func (joint *B2PulleyJoint) GetCurrentLengthA() float64 {
	return B2Vec2Distance(joint.GetAnchorA(), joint.groundAnchorA)
}

// GetCurrentLengthB returns the current length of segment B.
func (joint *B2PulleyJoint) GetCurrentLengthB() float64 {
	return B2Vec2Distance(joint.GetAnchorB(), joint.groundAnchorB)
}

func (joint *B2PulleyJoint) ShiftOrigin(newOrigin B2Vec2) {
	joint.groundAnchorA.OperatorMinusInplace(newOrigin)
	joint.groundAnchorB.OperatorMinusInplace(newOrigin)
}

func (joint *B2PulleyJoint) def() B2JointDefInterface {
	return &B2PulleyJointDef{
		B2JointDef:    joint.defBase(),
		GroundAnchorA: joint.groundAnchorA,
		GroundAnchorB: joint.groundAnchorB,
		LocalAnchorA:  joint.localAnchorA,
		LocalAnchorB:  joint.localAnchorB,
		LengthA:       joint.lengthA,
		LengthB:       joint.lengthB,
		Ratio:         joint.ratio,
	}
}
