package box2d

import (
	"fmt"
	"math"
)

// B2WheelJointDef requires defining a line of motion using an axis and an
// anchor point. The definition uses local anchor points and a local axis so
// that the initial configuration can violate the constraint slightly. The
// joint translation is zero when the local anchor points coincide in world
// space.
type B2WheelJointDef struct {
	B2JointDef `yaml:"-"`

	// The local anchor point relative to bodyA's origin.
	LocalAnchorA B2Vec2 `yaml:"localAnchorA"`

	// The local anchor point relative to bodyB's origin.
	LocalAnchorB B2Vec2 `yaml:"localAnchorB"`

	// The local translation axis in bodyA.
	LocalAxisA B2Vec2 `yaml:"localAxisA"`

	// Enable/disable the joint limit.
	EnableLimit bool `yaml:"enableLimit"`

	// The lower translation limit, usually in meters.
	LowerTranslation float64 `yaml:"lowerTranslation"`

	// The upper translation limit, usually in meters.
	UpperTranslation float64 `yaml:"upperTranslation"`

	// Enable/disable the joint motor.
	EnableMotor bool `yaml:"enableMotor"`

	// The maximum motor torque, usually in N-m.
	MaxMotorTorque float64 `yaml:"maxMotorTorque"`

	// The desired motor speed in radians per second.
	MotorSpeed float64 `yaml:"motorSpeed"`

	// Suspension stiffness. Typically in units N/m.
	Stiffness float64 `yaml:"stiffness"`

	// Suspension damping. Typically in units of N*s/m.
	Damping float64 `yaml:"damping"`
}

func MakeB2WheelJointDef() B2WheelJointDef {
	return B2WheelJointDef{
		B2JointDef: B2JointDef{Type: B2_wheelJoint},
		LocalAxisA: MakeB2Vec2(1.0, 0.0),
	}
}

// Initialize the bodies, anchors, axis, and reference angle using the
// world anchor and world axis.
func (def *B2WheelJointDef) Initialize(bA, bB *B2Body, anchor, axis B2Vec2) {
	def.BodyA = bA.Id()
	def.BodyB = bB.Id()
	def.LocalAnchorA = bA.GetLocalPoint(anchor)
	def.LocalAnchorB = bB.GetLocalPoint(anchor)
	def.LocalAxisA = bA.GetLocalVector(axis)
}

func (def *B2WheelJointDef) create(world *B2World) (B2Joint, error) {
	if def.LowerTranslation > def.UpperTranslation {
		return nil, fmt.Errorf("box2d: wheel joint limits [%v, %v]: %w", def.LowerTranslation, def.UpperTranslation, ErrInvalidJointDef)
	}

	axis := def.LocalAxisA
	if axis.Normalize() < B2_epsilon {
		return nil, fmt.Errorf("box2d: wheel joint axis %v: %w", def.LocalAxisA, ErrInvalidJointDef)
	}

	return &B2WheelJoint{
		b2JointBase:      makeB2JointBase(world, &def.B2JointDef),
		localAnchorA:     def.LocalAnchorA,
		localAnchorB:     def.LocalAnchorB,
		localXAxisA:      axis,
		localYAxisA:      B2Vec2CrossScalarVector(1.0, axis),
		lowerTranslation: def.LowerTranslation,
		upperTranslation: def.UpperTranslation,
		enableLimit:      def.EnableLimit,
		maxMotorTorque:   def.MaxMotorTorque,
		motorSpeed:       def.MotorSpeed,
		enableMotor:      def.EnableMotor,
		stiffness:        def.Stiffness,
		damping:          def.Damping,
	}, nil
}

// B2WheelJoint provides two degrees of freedom: translation along an axis
// fixed in bodyA and rotation in the plane. In other words, it is a point
// to line constraint with a rotational motor and a linear spring/damper.
// The spring/damper is initialized upon creation. This joint is designed
// for vehicle suspensions.
type B2WheelJoint struct {
	b2JointBase

	localAnchorA B2Vec2
	localAnchorB B2Vec2
	localXAxisA  B2Vec2
	localYAxisA  B2Vec2

	impulse       float64
	motorImpulse  float64
	springImpulse float64

	lowerImpulse     float64
	upperImpulse     float64
	translation      float64
	lowerTranslation float64
	upperTranslation float64

	maxMotorTorque float64
	motorSpeed     float64

	enableLimit bool
	enableMotor bool

	stiffness float64
	damping   float64

	// Solver temp
	ax, ay   B2Vec2
	sAx, sBx float64
	sAy, sBy float64

	mass       float64
	motorMass  float64
	axialMass  float64
	springMass float64

	bias  float64
	gamma float64
}

// Linear constraint (point-to-line)
// d = pB - pA = xB + rB - xA - rA
// C = dot(ay, d)
// Cdot = dot(d, cross(wA, ay)) + dot(ay, vB + cross(wB, rB) - vA - cross(wA, rA))
//      = -dot(ay, vA) - dot(cross(d + rA, ay), wA) + dot(ay, vB) + dot(cross(rB, ay), vB)
// J = [-ay, -cross(d + rA, ay), ay, cross(rB, ay)]
//
// Spring linear constraint
// C = dot(ax, d)
// Cdot = = -dot(ax, vA) - dot(cross(d + rA, ax), wA) + dot(ax, vB) + dot(cross(rB, ax), vB)
// J = [-ax -cross(d+rA, ax) ax cross(rB, ax)]
//
// Motor rotational constraint
// Cdot = wB - wA
// J = [0 0 -1 0 0 1]

func (joint *B2WheelJoint) initVelocityConstraints(data *B2SolverData) {
	joint.prepare(data)

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	cA, aA, cB, aB := joint.loadPositions(data)
	vA, wA, vB, wB := joint.loadVelocities(data)

	qA := MakeB2RotFromAngle(aA)
	qB := MakeB2RotFromAngle(aB)

	// Compute the effective masses.
	rA := B2RotVec2Mul(qA, B2Vec2Sub(joint.localAnchorA, joint.localCenterA))
	rB := B2RotVec2Mul(qB, B2Vec2Sub(joint.localAnchorB, joint.localCenterB))
	d := B2Vec2Sub(B2Vec2Sub(B2Vec2Add(cB, rB), cA), rA)

	// Point to line constraint
	{
		joint.ay = B2RotVec2Mul(qA, joint.localYAxisA)
		joint.sAy = B2Vec2Cross(B2Vec2Add(d, rA), joint.ay)
		joint.sBy = B2Vec2Cross(rB, joint.ay)

		joint.mass = mA + mB + iA*joint.sAy*joint.sAy + iB*joint.sBy*joint.sBy
		if joint.mass > 0.0 {
			joint.mass = 1.0 / joint.mass
		}
	}

	// Spring constraint
	joint.ax = B2RotVec2Mul(qA, joint.localXAxisA)
	joint.sAx = B2Vec2Cross(B2Vec2Add(d, rA), joint.ax)
	joint.sBx = B2Vec2Cross(rB, joint.ax)

	invMass := mA + mB + iA*joint.sAx*joint.sAx + iB*joint.sBx*joint.sBx
	if invMass > 0.0 {
		joint.axialMass = 1.0 / invMass
	} else {
		joint.axialMass = 0.0
	}

	joint.springMass = 0.0
	joint.bias = 0.0
	joint.gamma = 0.0

	if joint.stiffness > 0.0 && invMass > 0.0 {
		C := B2Vec2Dot(d, joint.ax)
		joint.gamma, joint.bias = b2SoftConstraint(C, joint.stiffness, joint.damping, data.Step.Dt)

		joint.springMass = invMass + joint.gamma
		if joint.springMass > 0.0 {
			joint.springMass = 1.0 / joint.springMass
		}
	} else {
		joint.springImpulse = 0.0
	}

	if joint.enableLimit {
		joint.translation = B2Vec2Dot(joint.ax, d)
	} else {
		joint.lowerImpulse = 0.0
		joint.upperImpulse = 0.0
	}

	if joint.enableMotor {
		joint.motorMass = iA + iB
		if joint.motorMass > 0.0 {
			joint.motorMass = 1.0 / joint.motorMass
		}
	} else {
		joint.motorMass = 0.0
		joint.motorImpulse = 0.0
	}

	if data.Step.WarmStarting {
		// Account for variable time step.
		joint.impulse *= data.Step.DtRatio
		joint.springImpulse *= data.Step.DtRatio
		joint.motorImpulse *= data.Step.DtRatio

		axialImpulse := joint.springImpulse + joint.lowerImpulse - joint.upperImpulse
		P := B2Vec2Add(B2Vec2MulScalar(joint.impulse, joint.ay), B2Vec2MulScalar(axialImpulse, joint.ax))
		LA := joint.impulse*joint.sAy + axialImpulse*joint.sAx + joint.motorImpulse
		LB := joint.impulse*joint.sBy + axialImpulse*joint.sBx + joint.motorImpulse

		vA.OperatorMinusInplace(B2Vec2MulScalar(mA, P))
		wA -= iA * LA

		vB.OperatorPlusInplace(B2Vec2MulScalar(mB, P))
		wB += iB * LB
	} else {
		joint.impulse = 0.0
		joint.springImpulse = 0.0
		joint.motorImpulse = 0.0
		joint.lowerImpulse = 0.0
		joint.upperImpulse = 0.0
	}

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *B2WheelJoint) solveVelocityConstraints(data *B2SolverData) {
	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	vA, wA, vB, wB := joint.loadVelocities(data)

	axialSpeed := func() float64 {
		return B2Vec2Dot(joint.ax, B2Vec2Sub(vB, vA)) + joint.sBx*wB - joint.sAx*wA
	}

	applyAxial := func(impulse float64) {
		P := B2Vec2MulScalar(impulse, joint.ax)
		vA.OperatorMinusInplace(B2Vec2MulScalar(mA, P))
		wA -= iA * impulse * joint.sAx
		vB.OperatorPlusInplace(B2Vec2MulScalar(mB, P))
		wB += iB * impulse * joint.sBx
	}

	// Solve spring constraint
	{
		impulse := -joint.springMass * (axialSpeed() + joint.bias + joint.gamma*joint.springImpulse)
		joint.springImpulse += impulse
		applyAxial(impulse)
	}

	// Solve rotational motor constraint
	{
		Cdot := wB - wA - joint.motorSpeed
		impulse := -joint.motorMass * Cdot

		oldImpulse := joint.motorImpulse
		maxImpulse := data.Step.Dt * joint.maxMotorTorque
		joint.motorImpulse = B2FloatClamp(joint.motorImpulse+impulse, -maxImpulse, maxImpulse)
		impulse = joint.motorImpulse - oldImpulse

		wA -= iA * impulse
		wB += iB * impulse
	}

	if joint.enableLimit {
		// Lower limit
		{
			C := joint.translation - joint.lowerTranslation
			impulse := -joint.axialMass * (axialSpeed() + max(C, 0.0)*data.Step.Inv_dt)
			oldImpulse := joint.lowerImpulse
			joint.lowerImpulse = max(joint.lowerImpulse+impulse, 0.0)
			impulse = joint.lowerImpulse - oldImpulse
			applyAxial(impulse)
		}

		// Upper limit
		// Signs are flipped to keep C positive when the constraint is satisfied.
		{
			C := joint.upperTranslation - joint.translation
			impulse := -joint.axialMass * (-axialSpeed() + max(C, 0.0)*data.Step.Inv_dt)
			oldImpulse := joint.upperImpulse
			joint.upperImpulse = max(joint.upperImpulse+impulse, 0.0)
			impulse = joint.upperImpulse - oldImpulse
			applyAxial(-impulse)
		}
	}

	// Solve point to line constraint
	{
		Cdot := B2Vec2Dot(joint.ay, B2Vec2Sub(vB, vA)) + joint.sBy*wB - joint.sAy*wA
		impulse := -joint.mass * Cdot
		joint.impulse += impulse

		P := B2Vec2MulScalar(impulse, joint.ay)
		LA := impulse * joint.sAy
		LB := impulse * joint.sBy

		vA.OperatorMinusInplace(B2Vec2MulScalar(mA, P))
		wA -= iA * LA

		vB.OperatorPlusInplace(B2Vec2MulScalar(mB, P))
		wB += iB * LB
	}

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *B2WheelJoint) solvePositionConstraints(data *B2SolverData) bool {
	cA, aA, cB, aB := joint.loadPositions(data)

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	// frame returns the anchor arms and separation for the current
	// positions.
	frame := func() (qA B2Rot, rA, rB, d B2Vec2) {
		qA = MakeB2RotFromAngle(aA)
		qB := MakeB2RotFromAngle(aB)

		rA = B2RotVec2Mul(qA, B2Vec2Sub(joint.localAnchorA, joint.localCenterA))
		rB = B2RotVec2Mul(qB, B2Vec2Sub(joint.localAnchorB, joint.localCenterB))
		d = B2Vec2Add(B2Vec2Sub(cB, cA), B2Vec2Sub(rB, rA))
		return qA, rA, rB, d
	}

	apply := func(impulse float64, axis B2Vec2, sA, sB float64) {
		P := B2Vec2MulScalar(impulse, axis)
		cA.OperatorMinusInplace(B2Vec2MulScalar(mA, P))
		aA -= iA * impulse * sA
		cB.OperatorPlusInplace(B2Vec2MulScalar(mB, P))
		aB += iB * impulse * sB
	}

	linearError := 0.0

	if joint.enableLimit {
		qA, rA, rB, d := frame()

		ax := B2RotVec2Mul(qA, joint.localXAxisA)
		sAx := B2Vec2Cross(B2Vec2Add(d, rA), ax)
		sBx := B2Vec2Cross(rB, ax)

		C := 0.0
		translation := B2Vec2Dot(ax, d)
		if math.Abs(joint.upperTranslation-joint.lowerTranslation) < 2.0*B2_linearSlop {
			C = translation
		} else if translation <= joint.lowerTranslation {
			C = min(translation-joint.lowerTranslation, 0.0)
		} else if translation >= joint.upperTranslation {
			C = max(translation-joint.upperTranslation, 0.0)
		}

		if C != 0.0 {
			invMass := mA + mB + iA*sAx*sAx + iB*sBx*sBx
			impulse := 0.0
			if invMass != 0.0 {
				impulse = -C / invMass
			}

			apply(impulse, ax, sAx, sBx)
			linearError = math.Abs(C)
		}
	}

	// Solve perpendicular constraint
	{
		qA, rA, rB, d := frame()

		ay := B2RotVec2Mul(qA, joint.localYAxisA)
		sAy := B2Vec2Cross(B2Vec2Add(d, rA), ay)
		sBy := B2Vec2Cross(rB, ay)

		C := B2Vec2Dot(d, ay)

		invMass := mA + mB + iA*sAy*sAy + iB*sBy*sBy
		impulse := 0.0
		if invMass != 0.0 {
			impulse = -C / invMass
		}

		apply(impulse, ay, sAy, sBy)
		linearError = max(linearError, math.Abs(C))
	}

	joint.storePositions(data, cA, aA, cB, aB)

	return linearError <= B2_linearSlop
}

func (joint *B2WheelJoint) GetAnchorA() B2Vec2 {
	return joint.GetBodyA().GetWorldPoint(joint.localAnchorA)
}

func (joint *B2WheelJoint) GetAnchorB() B2Vec2 {
	return joint.GetBodyB().GetWorldPoint(joint.localAnchorB)
}

func (joint *B2WheelJoint) GetReactionForce(inv_dt float64) B2Vec2 {
	axial := joint.springImpulse + joint.lowerImpulse - joint.upperImpulse
	return B2Vec2MulScalar(inv_dt, B2Vec2Add(B2Vec2MulScalar(joint.impulse, joint.ay), B2Vec2MulScalar(axial, joint.ax)))
}

func (joint *B2WheelJoint) GetReactionTorque(inv_dt float64) float64 {
	return inv_dt * joint.motorImpulse
}

// The local anchor point relative to bodyA's origin.
func (joint *B2WheelJoint) GetLocalAnchorA() B2Vec2 {
	return joint.localAnchorA
}

// The local anchor point relative to bodyB's origin.
func (joint *B2WheelJoint) GetLocalAnchorB() B2Vec2 {
	return joint.localAnchorB
}

// The local joint axis relative to bodyA.
func (joint *B2WheelJoint) GetLocalAxisA() B2Vec2 {
	return joint.localXAxisA
}

// GetJointTranslation returns the current joint translation, usually in
// meters.
func (joint *B2WheelJoint) GetJointTranslation() float64 {
	bA := joint.GetBodyA()
	bB := joint.GetBodyB()

	pA := bA.GetWorldPoint(joint.localAnchorA)
	pB := bB.GetWorldPoint(joint.localAnchorB)
	d := B2Vec2Sub(pB, pA)
	axis := bA.GetWorldVector(joint.localXAxisA)

	return B2Vec2Dot(d, axis)
}

// GetJointLinearSpeed returns the current joint linear speed, usually in
// meters per second.
func (joint *B2WheelJoint) GetJointLinearSpeed() float64 {
	return b2AxialJointSpeed(joint.GetBodyA(), joint.GetBodyB(), joint.localAnchorA, joint.localAnchorB, joint.localXAxisA)
}

// GetJointAngle returns the current joint angle in radians.
func (joint *B2WheelJoint) GetJointAngle() float64 {
	return joint.GetBodyB().sweep.A - joint.GetBodyA().sweep.A
}

// GetJointAngularSpeed returns the current joint angular speed in radians
// per second.
func (joint *B2WheelJoint) GetJointAngularSpeed() float64 {
	return joint.GetBodyB().angularVelocity - joint.GetBodyA().angularVelocity
}

func (joint *B2WheelJoint) IsLimitEnabled() bool {
	return joint.enableLimit
}

func (joint *B2WheelJoint) EnableLimit(flag bool) {
	if flag != joint.enableLimit {
		joint.wakeBodies()
		joint.enableLimit = flag
		joint.lowerImpulse = 0.0
		joint.upperImpulse = 0.0
	}
}

func (joint *B2WheelJoint) GetLowerLimit() float64 {
	return joint.lowerTranslation
}

func (joint *B2WheelJoint) GetUpperLimit() float64 {
	return joint.upperTranslation
}

// SetLimits sets the joint translation limits, usually in meters.
func (joint *B2WheelJoint) SetLimits(lower, upper float64) {
	B2Assert(lower <= upper)

	if lower != joint.lowerTranslation || upper != joint.upperTranslation {
		joint.wakeBodies()
		joint.lowerTranslation = lower
		joint.upperTranslation = upper
		joint.lowerImpulse = 0.0
		joint.upperImpulse = 0.0
	}
}

func (joint *B2WheelJoint) IsMotorEnabled() bool {
	return joint.enableMotor
}

func (joint *B2WheelJoint) EnableMotor(flag bool) {
	if flag != joint.enableMotor {
		joint.wakeBodies()
		joint.enableMotor = flag
	}
}

// SetMotorSpeed sets the motor speed, usually in radians per second.
func (joint *B2WheelJoint) SetMotorSpeed(speed float64) {
	if speed != joint.motorSpeed {
		joint.wakeBodies()
		joint.motorSpeed = speed
	}
}

func (joint *B2WheelJoint) GetMotorSpeed() float64 {
	return joint.motorSpeed
}

// SetMaxMotorTorque sets the maximum motor torque, usually in N-m.
func (joint *B2WheelJoint) SetMaxMotorTorque(torque float64) {
	if torque != joint.maxMotorTorque {
		joint.wakeBodies()
		joint.maxMotorTorque = torque
	}
}

func (joint *B2WheelJoint) GetMaxMotorTorque() float64 {
	return joint.maxMotorTorque
}

// GetMotorTorque returns the current motor torque given the inverse time
// step, usually in N-m.
func (joint *B2WheelJoint) GetMotorTorque(inv_dt float64) float64 {
	return inv_dt * joint.motorImpulse
}

// SetStiffness sets the suspension stiffness, usually in N/m.
func (joint *B2WheelJoint) SetStiffness(stiffness float64) {
	joint.stiffness = stiffness
}

func (joint *B2WheelJoint) GetStiffness() float64 {
	return joint.stiffness
}

// SetDamping sets the suspension damping, usually in N*s/m.
func (joint *B2WheelJoint) SetDamping(damping float64) {
	joint.damping = damping
}

func (joint *B2WheelJoint) GetDamping() float64 {
	return joint.damping
}

func (joint *B2WheelJoint) def() B2JointDefInterface {
	return &B2WheelJointDef{
		B2JointDef:       joint.defBase(),
		LocalAnchorA:     joint.localAnchorA,
		LocalAnchorB:     joint.localAnchorB,
		LocalAxisA:       joint.localXAxisA,
		EnableLimit:      joint.enableLimit,
		LowerTranslation: joint.lowerTranslation,
		UpperTranslation: joint.upperTranslation,
		EnableMotor:      joint.enableMotor,
		MaxMotorTorque:   joint.maxMotorTorque,
		MotorSpeed:       joint.motorSpeed,
		Stiffness:        joint.stiffness,
		Damping:          joint.damping,
	}
}
