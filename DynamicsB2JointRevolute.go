package box2d

import (
	"fmt"
	"math"
)

// B2RevoluteJointDef requires defining an anchor point where the bodies
// are joined. The definition uses local anchor points so that the initial
// configuration can violate the constraint slightly. You also need to
// specify the initial relative angle for joint limits. This helps when
// saving and loading a game.
// The local anchor points are measured from the body's origin rather than
// the center of mass because:
// 1. you might not know where the center of mass will be.
// 2. if you add/remove shapes from a body and recompute the mass,
// the joints will be broken.
type B2RevoluteJointDef struct {
	B2JointDef `yaml:"-"`

	// The local anchor point relative to bodyA's origin.
	LocalAnchorA B2Vec2 `yaml:"localAnchorA"`

	// The local anchor point relative to bodyB's origin.
	LocalAnchorB B2Vec2 `yaml:"localAnchorB"`

	// The bodyB angle minus bodyA angle in the reference state (radians).
	ReferenceAngle float64 `yaml:"referenceAngle"`

	// A flag to enable joint limits.
	EnableLimit bool `yaml:"enableLimit"`

	// The lower angle for the joint limit (radians).
	LowerAngle float64 `yaml:"lowerAngle"`

	// The upper angle for the joint limit (radians).
	UpperAngle float64 `yaml:"upperAngle"`

	// A flag to enable the joint motor.
	EnableMotor bool `yaml:"enableMotor"`

	// The desired motor speed. Usually in radians per second.
	MotorSpeed float64 `yaml:"motorSpeed"`

	// The maximum motor torque used to achieve the desired motor speed.
	// Usually in N-m.
	MaxMotorTorque float64 `yaml:"maxMotorTorque"`
}

func MakeB2RevoluteJointDef() B2RevoluteJointDef {
	return B2RevoluteJointDef{
		B2JointDef: B2JointDef{Type: B2_revoluteJoint},
	}
}

// Initialize the bodies, anchors, and reference angle using a world
// anchor point.
func (def *B2RevoluteJointDef) Initialize(bA, bB *B2Body, anchor B2Vec2) {
	def.BodyA = bA.Id()
	def.BodyB = bB.Id()
	def.LocalAnchorA = bA.GetLocalPoint(anchor)
	def.LocalAnchorB = bB.GetLocalPoint(anchor)
	def.ReferenceAngle = bB.GetAngle() - bA.GetAngle()
}

func (def *B2RevoluteJointDef) create(world *B2World) (B2Joint, error) {
	if def.LowerAngle > def.UpperAngle {
		return nil, fmt.Errorf("box2d: revolute joint limits [%v, %v]: %w", def.LowerAngle, def.UpperAngle, ErrInvalidJointDef)
	}

	return &B2RevoluteJoint{
		b2JointBase:    makeB2JointBase(world, &def.B2JointDef),
		localAnchorA:   def.LocalAnchorA,
		localAnchorB:   def.LocalAnchorB,
		referenceAngle: def.ReferenceAngle,
		lowerAngle:     def.LowerAngle,
		upperAngle:     def.UpperAngle,
		maxMotorTorque: def.MaxMotorTorque,
		motorSpeed:     def.MotorSpeed,
		enableLimit:    def.EnableLimit,
		enableMotor:    def.EnableMotor,
	}, nil
}

// B2RevoluteJoint constrains two bodies to share a common point while they
// are free to rotate about the point. The relative rotation about the
// shared point is the joint angle. You can limit the relative rotation
// with a joint limit that specifies a lower and upper angle. You can use a
// motor to drive the relative rotation about the shared point. A maximum
// motor torque is provided so that infinite forces are not generated.
type B2RevoluteJoint struct {
	b2JointBase

	// Solver shared
	localAnchorA   B2Vec2
	localAnchorB   B2Vec2
	impulse        B2Vec2
	motorImpulse   float64
	lowerImpulse   float64
	upperImpulse   float64
	enableMotor    bool
	maxMotorTorque float64
	motorSpeed     float64
	enableLimit    bool
	referenceAngle float64
	lowerAngle     float64
	upperAngle     float64

	// Solver temp
	rA        B2Vec2
	rB        B2Vec2
	K         B2Mat22
	angle     float64
	axialMass float64
}

// Point-to-point constraint
// C = p2 - p1
// Cdot = v2 - v1
//      = v2 + cross(w2, r2) - v1 - cross(w1, r1)
// J = [-I -r1_skew I r2_skew ]
// Identity used:
// w k % (rx i + ry j) = w * (-ry i + rx j)

// Motor constraint
// Cdot = w2 - w1
// J = [0 0 -1 0 0 1]
// K = invI1 + invI2

func (joint *B2RevoluteJoint) initVelocityConstraints(data *B2SolverData) {
	joint.prepare(data)

	_, aA, _, aB := joint.loadPositions(data)
	vA, wA, vB, wB := joint.loadVelocities(data)

	qA := MakeB2RotFromAngle(aA)
	qB := MakeB2RotFromAngle(aB)

	joint.rA = B2RotVec2Mul(qA, B2Vec2Sub(joint.localAnchorA, joint.localCenterA))
	joint.rB = B2RotVec2Mul(qB, B2Vec2Sub(joint.localAnchorB, joint.localCenterB))

	// J = [-I -r1_skew I r2_skew]
	// r_skew = [-ry; rx]

	// Matlab
	// K = [ mA+mB+iA*rA.y*rA.y+iB*rB.y*rB.y,  -iA*rA.y*rA.x-iB*rB.y*rB.x,          -iA*rA.y-iB*rB.y]
	//     [  -iA*rA.y*rA.x-iB*rB.y*rB.x, mA+mB+iA*rA.x*rA.x+iB*rB.x*rB.x,           iA*rA.x+iB*rB.x]
	//     [          -iA*rA.y-iB*rB.y,           iA*rA.x+iB*rB.x,                   iA+iB]

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	joint.K.Ex.X = mA + mB + joint.rA.Y*joint.rA.Y*iA + joint.rB.Y*joint.rB.Y*iB
	joint.K.Ey.X = -joint.rA.Y*joint.rA.X*iA - joint.rB.Y*joint.rB.X*iB
	joint.K.Ex.Y = joint.K.Ey.X
	joint.K.Ey.Y = mA + mB + joint.rA.X*joint.rA.X*iA + joint.rB.X*joint.rB.X*iB

	joint.axialMass = iA + iB
	fixedRotation := false
	if joint.axialMass > 0.0 {
		joint.axialMass = 1.0 / joint.axialMass
	} else {
		fixedRotation = true
	}

	joint.angle = aB - aA - joint.referenceAngle
	if !joint.enableLimit || fixedRotation {
		joint.lowerImpulse = 0.0
		joint.upperImpulse = 0.0
	}

	if !joint.enableMotor || fixedRotation {
		joint.motorImpulse = 0.0
	}

	if data.Step.WarmStarting {
		// Scale impulses to support a variable time step.
		joint.impulse.OperatorScalarMulInplace(data.Step.DtRatio)
		joint.motorImpulse *= data.Step.DtRatio
		joint.lowerImpulse *= data.Step.DtRatio
		joint.upperImpulse *= data.Step.DtRatio

		axialImpulse := joint.motorImpulse + joint.lowerImpulse - joint.upperImpulse
		P := joint.impulse

		vA.OperatorMinusInplace(B2Vec2MulScalar(mA, P))
		wA -= iA * (B2Vec2Cross(joint.rA, P) + axialImpulse)

		vB.OperatorPlusInplace(B2Vec2MulScalar(mB, P))
		wB += iB * (B2Vec2Cross(joint.rB, P) + axialImpulse)
	} else {
		joint.impulse.SetZero()
		joint.motorImpulse = 0.0
		joint.lowerImpulse = 0.0
		joint.upperImpulse = 0.0
	}

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *B2RevoluteJoint) solveVelocityConstraints(data *B2SolverData) {
	vA, wA, vB, wB := joint.loadVelocities(data)

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	fixedRotation := iA+iB == 0.0

	// Solve motor constraint.
	if joint.enableMotor && !fixedRotation {
		Cdot := wB - wA - joint.motorSpeed
		impulse := -joint.axialMass * Cdot
		oldImpulse := joint.motorImpulse
		maxImpulse := data.Step.Dt * joint.maxMotorTorque
		joint.motorImpulse = B2FloatClamp(joint.motorImpulse+impulse, -maxImpulse, maxImpulse)
		impulse = joint.motorImpulse - oldImpulse

		wA -= iA * impulse
		wB += iB * impulse
	}

	if joint.enableLimit && !fixedRotation {
		// Lower limit
		{
			C := joint.angle - joint.lowerAngle
			Cdot := wB - wA
			impulse := -joint.axialMass * (Cdot + max(C, 0.0)*data.Step.Inv_dt)
			oldImpulse := joint.lowerImpulse
			joint.lowerImpulse = max(joint.lowerImpulse+impulse, 0.0)
			impulse = joint.lowerImpulse - oldImpulse

			wA -= iA * impulse
			wB += iB * impulse
		}

		// Upper limit
		// Signs are flipped to keep C positive when the constraint is satisfied.
		{
			C := joint.upperAngle - joint.angle
			Cdot := wA - wB
			impulse := -joint.axialMass * (Cdot + max(C, 0.0)*data.Step.Inv_dt)
			oldImpulse := joint.upperImpulse
			joint.upperImpulse = max(joint.upperImpulse+impulse, 0.0)
			impulse = joint.upperImpulse - oldImpulse

			wA += iA * impulse
			wB -= iB * impulse
		}
	}

	// Solve point to point constraint
	{
		Cdot := B2Vec2Sub(
			B2Vec2Add(vB, B2Vec2CrossScalarVector(wB, joint.rB)),
			B2Vec2Add(vA, B2Vec2CrossScalarVector(wA, joint.rA)),
		)
		impulse := joint.K.Solve(Cdot.OperatorNegate())

		joint.impulse.OperatorPlusInplace(impulse)

		vA.OperatorMinusInplace(B2Vec2MulScalar(mA, impulse))
		wA -= iA * B2Vec2Cross(joint.rA, impulse)

		vB.OperatorPlusInplace(B2Vec2MulScalar(mB, impulse))
		wB += iB * B2Vec2Cross(joint.rB, impulse)
	}

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *B2RevoluteJoint) solvePositionConstraints(data *B2SolverData) bool {
	cA, aA, cB, aB := joint.loadPositions(data)

	angularError := 0.0
	positionError := 0.0

	fixedRotation := joint.invIA+joint.invIB == 0.0

	// Solve angular limit constraint
	if joint.enableLimit && !fixedRotation {
		angle := aB - aA - joint.referenceAngle
		C := 0.0

		if math.Abs(joint.upperAngle-joint.lowerAngle) < 2.0*B2_angularSlop {
			// Prevent large angular corrections
			C = B2FloatClamp(angle-joint.lowerAngle, -B2_maxAngularCorrection, B2_maxAngularCorrection)
		} else if angle <= joint.lowerAngle {
			// Prevent large angular corrections and allow some slop.
			C = B2FloatClamp(angle-joint.lowerAngle+B2_angularSlop, -B2_maxAngularCorrection, 0.0)
		} else if angle >= joint.upperAngle {
			// Prevent large angular corrections and allow some slop.
			C = B2FloatClamp(angle-joint.upperAngle-B2_angularSlop, 0.0, B2_maxAngularCorrection)
		}

		limitImpulse := -joint.axialMass * C
		aA -= joint.invIA * limitImpulse
		aB += joint.invIB * limitImpulse
		angularError = math.Abs(C)
	}

	// Solve point to point constraint.
	{
		qA := MakeB2RotFromAngle(aA)
		qB := MakeB2RotFromAngle(aB)
		rA := B2RotVec2Mul(qA, B2Vec2Sub(joint.localAnchorA, joint.localCenterA))
		rB := B2RotVec2Mul(qB, B2Vec2Sub(joint.localAnchorB, joint.localCenterB))

		C := B2Vec2Sub(B2Vec2Sub(B2Vec2Add(cB, rB), cA), rA)
		positionError = C.Length()

		mA, mB := joint.invMassA, joint.invMassB
		iA, iB := joint.invIA, joint.invIB

		var K B2Mat22
		K.Ex.X = mA + mB + iA*rA.Y*rA.Y + iB*rB.Y*rB.Y
		K.Ex.Y = -iA*rA.X*rA.Y - iB*rB.X*rB.Y
		K.Ey.X = K.Ex.Y
		K.Ey.Y = mA + mB + iA*rA.X*rA.X + iB*rB.X*rB.X

		impulse := K.Solve(C).OperatorNegate()

		cA.OperatorMinusInplace(B2Vec2MulScalar(mA, impulse))
		aA -= iA * B2Vec2Cross(rA, impulse)

		cB.OperatorPlusInplace(B2Vec2MulScalar(mB, impulse))
		aB += iB * B2Vec2Cross(rB, impulse)
	}

	joint.storePositions(data, cA, aA, cB, aB)

	return positionError <= B2_linearSlop && angularError <= B2_angularSlop
}

func (joint *B2RevoluteJoint) GetAnchorA() B2Vec2 {
	return joint.GetBodyA().GetWorldPoint(joint.localAnchorA)
}

func (joint *B2RevoluteJoint) GetAnchorB() B2Vec2 {
	return joint.GetBodyB().GetWorldPoint(joint.localAnchorB)
}

func (joint *B2RevoluteJoint) GetReactionForce(inv_dt float64) B2Vec2 {
	return B2Vec2MulScalar(inv_dt, joint.impulse)
}

func (joint *B2RevoluteJoint) GetReactionTorque(inv_dt float64) float64 {
	return inv_dt * (joint.motorImpulse + joint.lowerImpulse - joint.upperImpulse)
}

// The local anchor point relative to bodyA's origin.
func (joint *B2RevoluteJoint) GetLocalAnchorA() B2Vec2 {
	return joint.localAnchorA
}

// The local anchor point relative to bodyB's origin.
func (joint *B2RevoluteJoint) GetLocalAnchorB() B2Vec2 {
	return joint.localAnchorB
}

// Get the reference angle.
func (joint *B2RevoluteJoint) GetReferenceAngle() float64 {
	return joint.referenceAngle
}

// GetJointAngle returns the current joint angle in radians.
func (joint *B2RevoluteJoint) GetJointAngle() float64 {
	return joint.GetBodyB().sweep.A - joint.GetBodyA().sweep.A - joint.referenceAngle
}

// GetJointSpeed returns the current joint angle speed in radians per second.
func (joint *B2RevoluteJoint) GetJointSpeed() float64 {
	return joint.GetBodyB().angularVelocity - joint.GetBodyA().angularVelocity
}

func (joint *B2RevoluteJoint) IsMotorEnabled() bool {
	return joint.enableMotor
}

func (joint *B2RevoluteJoint) EnableMotor(flag bool) {
	if flag != joint.enableMotor {
		joint.wakeBodies()
		joint.enableMotor = flag
	}
}

// GetMotorTorque returns the current motor torque given the inverse time
// step. Unit is N*m.
func (joint *B2RevoluteJoint) GetMotorTorque(inv_dt float64) float64 {
	return inv_dt * joint.motorImpulse
}

func (joint *B2RevoluteJoint) SetMotorSpeed(speed float64) {
	if speed != joint.motorSpeed {
		joint.wakeBodies()
		joint.motorSpeed = speed
	}
}

func (joint *B2RevoluteJoint) GetMotorSpeed() float64 {
	return joint.motorSpeed
}

func (joint *B2RevoluteJoint) SetMaxMotorTorque(torque float64) {
	if torque != joint.maxMotorTorque {
		joint.wakeBodies()
		joint.maxMotorTorque = torque
	}
}

func (joint *B2RevoluteJoint) GetMaxMotorTorque() float64 {
	return joint.maxMotorTorque
}

func (joint *B2RevoluteJoint) IsLimitEnabled() bool {
	return joint.enableLimit
}

func (joint *B2RevoluteJoint) EnableLimit(flag bool) {
	if flag != joint.enableLimit {
		joint.wakeBodies()
		joint.enableLimit = flag
		joint.lowerImpulse = 0.0
		joint.upperImpulse = 0.0
	}
}

func (joint *B2RevoluteJoint) GetLowerLimit() float64 {
	return joint.lowerAngle
}

func (joint *B2RevoluteJoint) GetUpperLimit() float64 {
	return joint.upperAngle
}

// SetLimits sets the joint limits in radians.
func (joint *B2RevoluteJoint) SetLimits(lower, upper float64) {
	B2Assert(lower <= upper)

	if lower != joint.lowerAngle || upper != joint.upperAngle {
		joint.wakeBodies()
		joint.lowerImpulse = 0.0
		joint.upperImpulse = 0.0
		joint.lowerAngle = lower
		joint.upperAngle = upper
	}
}

func (joint *B2RevoluteJoint) def() B2JointDefInterface {
	return &B2RevoluteJointDef{
		B2JointDef:     joint.defBase(),
		LocalAnchorA:   joint.localAnchorA,
		LocalAnchorB:   joint.localAnchorB,
		ReferenceAngle: joint.referenceAngle,
		EnableLimit:    joint.enableLimit,
		LowerAngle:     joint.lowerAngle,
		UpperAngle:     joint.upperAngle,
		EnableMotor:    joint.enableMotor,
		MotorSpeed:     joint.motorSpeed,
		MaxMotorTorque: joint.maxMotorTorque,
	}
}
