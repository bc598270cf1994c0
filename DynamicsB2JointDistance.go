package box2d

import (
	"fmt"
	"math"
)

// B2DistanceJointDef requires defining an anchor point on both bodies and
// the non-zero distance of the distance joint. The definition uses local
// anchor points so that the initial configuration can violate the
// constraint slightly. This helps when saving and loading a game.
type B2DistanceJointDef struct {
	B2JointDef `yaml:"-"`

	// The local anchor point relative to bodyA's origin.
	LocalAnchorA B2Vec2 `yaml:"localAnchorA"`

	// The local anchor point relative to bodyB's origin.
	LocalAnchorB B2Vec2 `yaml:"localAnchorB"`

	// The rest length of this joint. Clamped to a stable minimum value.
	Length float64 `yaml:"length"`

	// Minimum length. Clamped to a stable minimum value.
	MinLength float64 `yaml:"minLength"`

	// Maximum length. Must be greater than or equal to the minimum length.
	MaxLength float64 `yaml:"maxLength"`

	// The linear stiffness in N/m.
	Stiffness float64 `yaml:"stiffness"`

	// The linear damping in N*s/m.
	Damping float64 `yaml:"damping"`
}

func MakeB2DistanceJointDef() B2DistanceJointDef {
	return B2DistanceJointDef{
		B2JointDef: B2JointDef{Type: B2_distanceJoint},
		Length:     1.0,
		MaxLength:  B2_maxFloat,
	}
}

// Initialize the bodies, anchors, and rest length using world space
// anchors. The minimum and maximum lengths are set to the rest length.
func (def *B2DistanceJointDef) Initialize(bA, bB *B2Body, anchorA, anchorB B2Vec2) {
	def.BodyA = bA.Id()
	def.BodyB = bB.Id()
	def.LocalAnchorA = bA.GetLocalPoint(anchorA)
	def.LocalAnchorB = bB.GetLocalPoint(anchorB)
	def.Length = max(B2Vec2Distance(anchorA, anchorB), B2_linearSlop)
	def.MinLength = def.Length
	def.MaxLength = def.Length
}

func (def *B2DistanceJointDef) create(world *B2World) (B2Joint, error) {
	if !B2IsValid(def.Length) || !B2IsValid(def.MinLength) || def.MaxLength < def.MinLength {
		return nil, fmt.Errorf("box2d: distance joint lengths [%v, %v]: %w", def.MinLength, def.MaxLength, ErrInvalidJointDef)
	}

	joint := &B2DistanceJoint{
		b2JointBase:  makeB2JointBase(world, &def.B2JointDef),
		localAnchorA: def.LocalAnchorA,
		localAnchorB: def.LocalAnchorB,
		length:       max(def.Length, B2_linearSlop),
		minLength:    max(def.MinLength, B2_linearSlop),
		stiffness:    def.Stiffness,
		damping:      def.Damping,
	}
	joint.maxLength = max(def.MaxLength, joint.minLength)
	return joint, nil
}

// B2DistanceJoint constrains two points on two bodies to remain at a
// fixed distance from each other. You can view this as a massless, rigid
// rod. With a stiffness it becomes a spring, and with distinct minimum and
// maximum lengths it only acts at the limits.
type B2DistanceJoint struct {
	b2JointBase

	stiffness float64
	damping   float64
	bias      float64

	// Solver shared
	localAnchorA  B2Vec2
	localAnchorB  B2Vec2
	gamma         float64
	impulse       float64
	lowerImpulse  float64
	upperImpulse  float64
	length        float64
	minLength     float64
	maxLength     float64
	currentLength float64

	// Solver temp
	u        B2Vec2
	rA       B2Vec2
	rB       B2Vec2
	softMass float64
	mass     float64
}

// The local anchor point relative to bodyA's origin.
func (joint *B2DistanceJoint) GetLocalAnchorA() B2Vec2 {
	return joint.localAnchorA
}

// The local anchor point relative to bodyB's origin.
func (joint *B2DistanceJoint) GetLocalAnchorB() B2Vec2 {
	return joint.localAnchorB
}

// SetLength sets the rest length and returns the clamped value.
func (joint *B2DistanceJoint) SetLength(length float64) float64 {
	joint.impulse = 0.0
	joint.length = B2FloatClamp(length, B2_linearSlop, B2_maxFloat)
	return joint.length
}

func (joint *B2DistanceJoint) GetLength() float64 {
	return joint.length
}

// SetMinLength sets the minimum length and returns the clamped value.
func (joint *B2DistanceJoint) SetMinLength(minLength float64) float64 {
	joint.lowerImpulse = 0.0
	joint.minLength = B2FloatClamp(minLength, B2_linearSlop, joint.maxLength)
	return joint.minLength
}

func (joint *B2DistanceJoint) GetMinLength() float64 {
	return joint.minLength
}

// SetMaxLength sets the maximum length and returns the clamped value.
func (joint *B2DistanceJoint) SetMaxLength(maxLength float64) float64 {
	joint.upperImpulse = 0.0
	joint.maxLength = max(maxLength, joint.minLength)
	return joint.maxLength
}

func (joint *B2DistanceJoint) GetMaxLength() float64 {
	return joint.maxLength
}

// GetCurrentLength returns the distance between the anchors.
func (joint *B2DistanceJoint) GetCurrentLength() float64 {
	return B2Vec2Distance(joint.GetAnchorA(), joint.GetAnchorB())
}

func (joint *B2DistanceJoint) SetStiffness(stiffness float64) {
	joint.stiffness = stiffness
}

func (joint *B2DistanceJoint) GetStiffness() float64 {
	return joint.stiffness
}

func (joint *B2DistanceJoint) SetDamping(damping float64) {
	joint.damping = damping
}

func (joint *B2DistanceJoint) GetDamping() float64 {
	return joint.damping
}

// C = norm(p2 - p1) - L
// u = (p2 - p1) / norm(p2 - p1)
// Cdot = dot(u, v2 + cross(w2, r2) - v1 - cross(w1, r1))
// J = [-u -cross(r1, u) u cross(r2, u)]
// K = J * invM * JT
//   = invMass1 + invI1 * cross(r1, u)^2 + invMass2 + invI2 * cross(r2, u)^2

func (joint *B2DistanceJoint) initVelocityConstraints(data *B2SolverData) {
	joint.prepare(data)

	cA, aA, cB, aB := joint.loadPositions(data)
	vA, wA, vB, wB := joint.loadVelocities(data)

	qA := MakeB2RotFromAngle(aA)
	qB := MakeB2RotFromAngle(aB)

	joint.rA = B2RotVec2Mul(qA, B2Vec2Sub(joint.localAnchorA, joint.localCenterA))
	joint.rB = B2RotVec2Mul(qB, B2Vec2Sub(joint.localAnchorB, joint.localCenterB))
	joint.u = B2Vec2Sub(B2Vec2Sub(B2Vec2Add(cB, joint.rB), cA), joint.rA)

	// Handle singularity.
	joint.currentLength = joint.u.Length()
	if joint.currentLength > B2_linearSlop {
		joint.u.OperatorScalarMulInplace(1.0 / joint.currentLength)
	} else {
		joint.u.SetZero()
		joint.mass = 0.0
		joint.impulse = 0.0
		joint.lowerImpulse = 0.0
		joint.upperImpulse = 0.0
	}

	crAu := B2Vec2Cross(joint.rA, joint.u)
	crBu := B2Vec2Cross(joint.rB, joint.u)
	invMass := joint.invMassA + joint.invIA*crAu*crAu + joint.invMassB + joint.invIB*crBu*crBu
	joint.mass = b2InvOrZero(invMass)

	if joint.stiffness > 0.0 && joint.minLength < joint.maxLength {
		// soft
		C := joint.currentLength - joint.length
		joint.gamma, joint.bias = b2SoftConstraint(C, joint.stiffness, joint.damping, data.Step.Dt)
		invMass += joint.gamma
		joint.softMass = b2InvOrZero(invMass)
	} else {
		// rigid
		joint.gamma = 0.0
		joint.bias = 0.0
		joint.softMass = joint.mass
	}

	if data.Step.WarmStarting {
		// Scale the impulse to support a variable time step.
		joint.impulse *= data.Step.DtRatio
		joint.lowerImpulse *= data.Step.DtRatio
		joint.upperImpulse *= data.Step.DtRatio

		P := B2Vec2MulScalar(joint.impulse+joint.lowerImpulse-joint.upperImpulse, joint.u)
		vA.OperatorMinusInplace(B2Vec2MulScalar(joint.invMassA, P))
		wA -= joint.invIA * B2Vec2Cross(joint.rA, P)
		vB.OperatorPlusInplace(B2Vec2MulScalar(joint.invMassB, P))
		wB += joint.invIB * B2Vec2Cross(joint.rB, P)
	} else {
		joint.impulse = 0.0
		joint.lowerImpulse = 0.0
		joint.upperImpulse = 0.0
	}

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *B2DistanceJoint) applyImpulse(impulse float64, vA *B2Vec2, wA *float64, vB *B2Vec2, wB *float64) {
	P := B2Vec2MulScalar(impulse, joint.u)
	vA.OperatorMinusInplace(B2Vec2MulScalar(joint.invMassA, P))
	*wA -= joint.invIA * B2Vec2Cross(joint.rA, P)
	vB.OperatorPlusInplace(B2Vec2MulScalar(joint.invMassB, P))
	*wB += joint.invIB * B2Vec2Cross(joint.rB, P)
}

func (joint *B2DistanceJoint) solveVelocityConstraints(data *B2SolverData) {
	vA, wA, vB, wB := joint.loadVelocities(data)

	// Cdot = dot(u, v + cross(w, r))
	cdot := func() float64 {
		vpA := B2Vec2Add(vA, B2Vec2CrossScalarVector(wA, joint.rA))
		vpB := B2Vec2Add(vB, B2Vec2CrossScalarVector(wB, joint.rB))
		return B2Vec2Dot(joint.u, B2Vec2Sub(vpB, vpA))
	}

	if joint.minLength < joint.maxLength {
		if joint.stiffness > 0.0 {
			impulse := -joint.softMass * (cdot() + joint.bias + joint.gamma*joint.impulse)
			joint.impulse += impulse
			joint.applyImpulse(impulse, &vA, &wA, &vB, &wB)
		}

		// lower
		{
			C := joint.currentLength - joint.minLength
			bias := max(0.0, C) * data.Step.Inv_dt

			impulse := -joint.mass * (cdot() + bias)
			oldImpulse := joint.lowerImpulse
			joint.lowerImpulse = max(0.0, joint.lowerImpulse+impulse)
			impulse = joint.lowerImpulse - oldImpulse
			joint.applyImpulse(impulse, &vA, &wA, &vB, &wB)
		}

		// upper
		{
			C := joint.maxLength - joint.currentLength
			bias := max(0.0, C) * data.Step.Inv_dt

			impulse := -joint.mass * (-cdot() + bias)
			oldImpulse := joint.upperImpulse
			joint.upperImpulse = max(0.0, joint.upperImpulse+impulse)
			impulse = joint.upperImpulse - oldImpulse
			joint.applyImpulse(-impulse, &vA, &wA, &vB, &wB)
		}
	} else {
		// Equal limits
		impulse := -joint.mass * cdot()
		joint.impulse += impulse
		joint.applyImpulse(impulse, &vA, &wA, &vB, &wB)
	}

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *B2DistanceJoint) solvePositionConstraints(data *B2SolverData) bool {
	cA, aA, cB, aB := joint.loadPositions(data)

	qA := MakeB2RotFromAngle(aA)
	qB := MakeB2RotFromAngle(aB)

	rA := B2RotVec2Mul(qA, B2Vec2Sub(joint.localAnchorA, joint.localCenterA))
	rB := B2RotVec2Mul(qB, B2Vec2Sub(joint.localAnchorB, joint.localCenterB))
	u := B2Vec2Sub(B2Vec2Sub(B2Vec2Add(cB, rB), cA), rA)

	length := u.Normalize()
	var C float64
	switch {
	case joint.minLength == joint.maxLength:
		C = length - joint.minLength
	case length < joint.minLength:
		C = length - joint.minLength
	case joint.maxLength < length:
		C = length - joint.maxLength
	default:
		return true
	}

	impulse := -joint.mass * C
	P := B2Vec2MulScalar(impulse, u)

	cA.OperatorMinusInplace(B2Vec2MulScalar(joint.invMassA, P))
	aA -= joint.invIA * B2Vec2Cross(rA, P)
	cB.OperatorPlusInplace(B2Vec2MulScalar(joint.invMassB, P))
	aB += joint.invIB * B2Vec2Cross(rB, P)

	joint.storePositions(data, cA, aA, cB, aB)

	return math.Abs(C) < B2_linearSlop
}

func (joint *B2DistanceJoint) GetAnchorA() B2Vec2 {
	return joint.GetBodyA().GetWorldPoint(joint.localAnchorA)
}

func (joint *B2DistanceJoint) GetAnchorB() B2Vec2 {
	return joint.GetBodyB().GetWorldPoint(joint.localAnchorB)
}

func (joint *B2DistanceJoint) GetReactionForce(inv_dt float64) B2Vec2 {
	return B2Vec2MulScalar(inv_dt*(joint.impulse+joint.lowerImpulse-joint.upperImpulse), joint.u)
}

func (joint *B2DistanceJoint) GetReactionTorque(inv_dt float64) float64 {
	return 0.0
}

func (joint *B2DistanceJoint) def() B2JointDefInterface {
	return &B2DistanceJointDef{
		B2JointDef:   joint.defBase(),
		LocalAnchorA: joint.localAnchorA,
		LocalAnchorB: joint.localAnchorB,
		Length:       joint.length,
		MinLength:    joint.minLength,
		MaxLength:    joint.maxLength,
		Stiffness:    joint.stiffness,
		Damping:      joint.damping,
	}
}
