package box2d

import (
	"fmt"
	"math"
)

// B2PrismaticJointDef requires defining a line of motion using an axis and
// an anchor point. The definition uses local anchor points and a local
// axis so that the initial configuration can violate the constraint
// slightly. The joint translation is zero when the local anchor points
// coincide in world space. Using local anchors and a local axis helps when
// saving and loading a game.
type B2PrismaticJointDef struct {
	B2JointDef `yaml:"-"`

	// The local anchor point relative to bodyA's origin.
	LocalAnchorA B2Vec2 `yaml:"localAnchorA"`

	// The local anchor point relative to bodyB's origin.
	LocalAnchorB B2Vec2 `yaml:"localAnchorB"`

	// The local translation unit axis in bodyA.
	LocalAxisA B2Vec2 `yaml:"localAxisA"`

	// The constrained angle between the bodies: bodyB_angle - bodyA_angle.
	ReferenceAngle float64 `yaml:"referenceAngle"`

	// Enable/disable the joint limit.
	EnableLimit bool `yaml:"enableLimit"`

	// The lower translation limit, usually in meters.
	LowerTranslation float64 `yaml:"lowerTranslation"`

	// The upper translation limit, usually in meters.
	UpperTranslation float64 `yaml:"upperTranslation"`

	// Enable/disable the joint motor.
	EnableMotor bool `yaml:"enableMotor"`

	// The maximum motor force, usually in N.
	MaxMotorForce float64 `yaml:"maxMotorForce"`

	// The desired motor speed in meters per second.
	MotorSpeed float64 `yaml:"motorSpeed"`
}

func MakeB2PrismaticJointDef() B2PrismaticJointDef {
	return B2PrismaticJointDef{
		B2JointDef: B2JointDef{Type: B2_prismaticJoint},
		LocalAxisA: MakeB2Vec2(1.0, 0.0),
	}
}

// Initialize the bodies, anchors, axis, and reference angle using the
// world anchor and unit world axis.
func (def *B2PrismaticJointDef) Initialize(bA, bB *B2Body, anchor, axis B2Vec2) {
	def.BodyA = bA.Id()
	def.BodyB = bB.Id()
	def.LocalAnchorA = bA.GetLocalPoint(anchor)
	def.LocalAnchorB = bB.GetLocalPoint(anchor)
	def.LocalAxisA = bA.GetLocalVector(axis)
	def.ReferenceAngle = bB.GetAngle() - bA.GetAngle()
}

func (def *B2PrismaticJointDef) create(world *B2World) (B2Joint, error) {
	if def.LowerTranslation > def.UpperTranslation {
		return nil, fmt.Errorf("box2d: prismatic joint limits [%v, %v]: %w", def.LowerTranslation, def.UpperTranslation, ErrInvalidJointDef)
	}

	axis := def.LocalAxisA
	if axis.Normalize() < B2_epsilon {
		return nil, fmt.Errorf("box2d: prismatic joint axis %v: %w", def.LocalAxisA, ErrInvalidJointDef)
	}

	return &B2PrismaticJoint{
		b2JointBase:      makeB2JointBase(world, &def.B2JointDef),
		localAnchorA:     def.LocalAnchorA,
		localAnchorB:     def.LocalAnchorB,
		localXAxisA:      axis,
		localYAxisA:      B2Vec2CrossScalarVector(1.0, axis),
		referenceAngle:   def.ReferenceAngle,
		lowerTranslation: def.LowerTranslation,
		upperTranslation: def.UpperTranslation,
		maxMotorForce:    def.MaxMotorForce,
		motorSpeed:       def.MotorSpeed,
		enableLimit:      def.EnableLimit,
		enableMotor:      def.EnableMotor,
	}, nil
}

// B2PrismaticJoint provides one degree of freedom: translation along an
// axis fixed in bodyA. Relative rotation is prevented. You can use a joint
// limit to restrict the range of motion and a joint motor to drive the
// motion or to model joint friction.
type B2PrismaticJoint struct {
	b2JointBase

	localAnchorA     B2Vec2
	localAnchorB     B2Vec2
	localXAxisA      B2Vec2
	localYAxisA      B2Vec2
	referenceAngle   float64
	impulse          B2Vec2
	motorImpulse     float64
	lowerImpulse     float64
	upperImpulse     float64
	lowerTranslation float64
	upperTranslation float64
	maxMotorForce    float64
	motorSpeed       float64
	enableLimit      bool
	enableMotor      bool

	// Solver temp
	axis        B2Vec2
	perp        B2Vec2
	s1, s2      float64
	a1, a2      float64
	K           B2Mat22
	translation float64
	axialMass   float64
}

// Linear constraint (point-to-line)
// d = p2 - p1 = x2 + r2 - x1 - r1
// C = dot(perp, d)
// Cdot = dot(d, cross(w1, perp)) + dot(perp, v2 + cross(w2, r2) - v1 - cross(w1, r1))
//      = -dot(perp, v1) - dot(cross(d + r1, perp), w1) + dot(perp, v2) + dot(cross(r2, perp), v2)
// J = [-perp, -cross(d + r1, perp), perp, cross(r2,perp)]
//
// Angular constraint
// C = a2 - a1 + a_initial
// Cdot = w2 - w1
// J = [0 0 -1 0 0 1]
//
// K = J * invM * JT
//
// J = [-a -s1 a s2]
//     [0  -1  0  1]
// a = perp
// s1 = cross(d + r1, a) = cross(p2 - x1, a)
// s2 = cross(r2, a) = cross(p2 - x2, a)
//
// Motor/Limit linear constraint
// C = dot(ax1, d)
// Cdot = -dot(ax1, v1) - dot(cross(d + r1, ax1), w1) + dot(ax1, v2) + dot(cross(r2, ax1), v2)
// J = [-ax1 -cross(d+r1,ax1) ax1 cross(r2,ax1)]
//
// Predictive limit is applied even when the limit is not active.
// Prevents a constraint speed that can lead to a constraint error in one time step.
// Want C2 = C1 + h * Cdot >= 0
// Or:
// Cdot + C1/h >= 0
// I do not apply a negative constraint error because that is handled in position correction.
// So:
// Cdot + max(C1, 0)/h >= 0

func (joint *B2PrismaticJoint) initVelocityConstraints(data *B2SolverData) {
	joint.prepare(data)

	cA, aA, cB, aB := joint.loadPositions(data)
	vA, wA, vB, wB := joint.loadVelocities(data)

	qA := MakeB2RotFromAngle(aA)
	qB := MakeB2RotFromAngle(aB)

	// Compute the effective masses.
	rA := B2RotVec2Mul(qA, B2Vec2Sub(joint.localAnchorA, joint.localCenterA))
	rB := B2RotVec2Mul(qB, B2Vec2Sub(joint.localAnchorB, joint.localCenterB))
	d := B2Vec2Add(B2Vec2Sub(cB, cA), B2Vec2Sub(rB, rA))

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	// Compute motor Jacobian and effective mass.
	{
		joint.axis = B2RotVec2Mul(qA, joint.localXAxisA)
		joint.a1 = B2Vec2Cross(B2Vec2Add(d, rA), joint.axis)
		joint.a2 = B2Vec2Cross(rB, joint.axis)

		joint.axialMass = b2InvOrZero(mA + mB + iA*joint.a1*joint.a1 + iB*joint.a2*joint.a2)
	}

	// Prismatic constraint.
	{
		joint.perp = B2RotVec2Mul(qA, joint.localYAxisA)

		joint.s1 = B2Vec2Cross(B2Vec2Add(d, rA), joint.perp)
		joint.s2 = B2Vec2Cross(rB, joint.perp)

		k11 := mA + mB + iA*joint.s1*joint.s1 + iB*joint.s2*joint.s2
		k12 := iA*joint.s1 + iB*joint.s2
		k22 := iA + iB
		if k22 == 0.0 {
			// For bodies with fixed rotation.
			k22 = 1.0
		}

		joint.K = MakeB2Mat22FromScalars(k11, k12, k12, k22)
	}

	if joint.enableLimit {
		joint.translation = B2Vec2Dot(joint.axis, d)
	} else {
		joint.lowerImpulse = 0.0
		joint.upperImpulse = 0.0
	}

	if !joint.enableMotor {
		joint.motorImpulse = 0.0
	}

	if data.Step.WarmStarting {
		// Account for variable time step.
		joint.impulse.OperatorScalarMulInplace(data.Step.DtRatio)
		joint.motorImpulse *= data.Step.DtRatio
		joint.lowerImpulse *= data.Step.DtRatio
		joint.upperImpulse *= data.Step.DtRatio

		axialImpulse := joint.motorImpulse + joint.lowerImpulse - joint.upperImpulse
		P := B2Vec2Add(B2Vec2MulScalar(joint.impulse.X, joint.perp), B2Vec2MulScalar(axialImpulse, joint.axis))
		LA := joint.impulse.X*joint.s1 + joint.impulse.Y + axialImpulse*joint.a1
		LB := joint.impulse.X*joint.s2 + joint.impulse.Y + axialImpulse*joint.a2

		vA.OperatorMinusInplace(B2Vec2MulScalar(mA, P))
		wA -= iA * LA

		vB.OperatorPlusInplace(B2Vec2MulScalar(mB, P))
		wB += iB * LB
	} else {
		joint.impulse.SetZero()
		joint.motorImpulse = 0.0
		joint.lowerImpulse = 0.0
		joint.upperImpulse = 0.0
	}

	joint.storeVelocities(data, vA, wA, vB, wB)
}

// axialSpeed is the relative velocity along the joint axis.
func (joint *B2PrismaticJoint) axialSpeed(vA B2Vec2, wA float64, vB B2Vec2, wB float64) float64 {
	return B2Vec2Dot(joint.axis, B2Vec2Sub(vB, vA)) + joint.a2*wB - joint.a1*wA
}

func (joint *B2PrismaticJoint) solveVelocityConstraints(data *B2SolverData) {
	vA, wA, vB, wB := joint.loadVelocities(data)

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	applyAxial := func(impulse float64) {
		P := B2Vec2MulScalar(impulse, joint.axis)
		vA.OperatorMinusInplace(B2Vec2MulScalar(mA, P))
		wA -= iA * impulse * joint.a1
		vB.OperatorPlusInplace(B2Vec2MulScalar(mB, P))
		wB += iB * impulse * joint.a2
	}

	// Solve linear motor constraint
	if joint.enableMotor {
		Cdot := joint.axialSpeed(vA, wA, vB, wB)
		impulse := joint.axialMass * (joint.motorSpeed - Cdot)
		oldImpulse := joint.motorImpulse
		maxImpulse := data.Step.Dt * joint.maxMotorForce
		joint.motorImpulse = B2FloatClamp(joint.motorImpulse+impulse, -maxImpulse, maxImpulse)
		impulse = joint.motorImpulse - oldImpulse

		applyAxial(impulse)
	}

	if joint.enableLimit {
		// Lower limit
		{
			C := joint.translation - joint.lowerTranslation
			Cdot := joint.axialSpeed(vA, wA, vB, wB)
			impulse := -joint.axialMass * (Cdot + max(C, 0.0)*data.Step.Inv_dt)
			oldImpulse := joint.lowerImpulse
			joint.lowerImpulse = max(joint.lowerImpulse+impulse, 0.0)
			impulse = joint.lowerImpulse - oldImpulse

			applyAxial(impulse)
		}

		// Upper limit
		// Signs are flipped to keep C positive when the constraint is satisfied.
		{
			C := joint.upperTranslation - joint.translation
			Cdot := -joint.axialSpeed(vA, wA, vB, wB)
			impulse := -joint.axialMass * (Cdot + max(C, 0.0)*data.Step.Inv_dt)
			oldImpulse := joint.upperImpulse
			joint.upperImpulse = max(joint.upperImpulse+impulse, 0.0)
			impulse = joint.upperImpulse - oldImpulse

			applyAxial(-impulse)
		}
	}

	// Solve the prismatic constraint in block form.
	{
		Cdot := B2Vec2{
			X: B2Vec2Dot(joint.perp, B2Vec2Sub(vB, vA)) + joint.s2*wB - joint.s1*wA,
			Y: wB - wA,
		}

		df := joint.K.Solve(Cdot.OperatorNegate())
		joint.impulse.OperatorPlusInplace(df)

		P := B2Vec2MulScalar(df.X, joint.perp)
		LA := df.X*joint.s1 + df.Y
		LB := df.X*joint.s2 + df.Y

		vA.OperatorMinusInplace(B2Vec2MulScalar(mA, P))
		wA -= iA * LA

		vB.OperatorPlusInplace(B2Vec2MulScalar(mB, P))
		wB += iB * LB
	}

	joint.storeVelocities(data, vA, wA, vB, wB)
}

// A velocity based solver computes reaction forces (impulses) using the
// velocity constraint solver. Under this context, the position solver is
// not there to resolve forces. It is only there to cope with integration
// error.
//
// Therefore, the pseudo impulses in the position solver do not have any
// physical meaning. Thus it is okay if they suck.
//
// We could take the active state from the velocity solver. However, the
// joint might push past the limit when the velocity solver indicates the
// limit is inactive.
func (joint *B2PrismaticJoint) solvePositionConstraints(data *B2SolverData) bool {
	cA, aA, cB, aB := joint.loadPositions(data)

	qA := MakeB2RotFromAngle(aA)
	qB := MakeB2RotFromAngle(aB)

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	// Compute fresh Jacobians
	rA := B2RotVec2Mul(qA, B2Vec2Sub(joint.localAnchorA, joint.localCenterA))
	rB := B2RotVec2Mul(qB, B2Vec2Sub(joint.localAnchorB, joint.localCenterB))
	d := B2Vec2Sub(B2Vec2Sub(B2Vec2Add(cB, rB), cA), rA)

	axis := B2RotVec2Mul(qA, joint.localXAxisA)
	a1 := B2Vec2Cross(B2Vec2Add(d, rA), axis)
	a2 := B2Vec2Cross(rB, axis)
	perp := B2RotVec2Mul(qA, joint.localYAxisA)

	s1 := B2Vec2Cross(B2Vec2Add(d, rA), perp)
	s2 := B2Vec2Cross(rB, perp)

	C1 := B2Vec2{
		X: B2Vec2Dot(perp, d),
		Y: aB - aA - joint.referenceAngle,
	}

	linearError := math.Abs(C1.X)
	angularError := math.Abs(C1.Y)

	active := false
	C2 := 0.0
	if joint.enableLimit {
		translation := B2Vec2Dot(axis, d)
		if math.Abs(joint.upperTranslation-joint.lowerTranslation) < 2.0*B2_linearSlop {
			C2 = translation
			linearError = max(linearError, math.Abs(translation))
			active = true
		} else if translation <= joint.lowerTranslation {
			C2 = min(translation-joint.lowerTranslation, 0.0)
			linearError = max(linearError, joint.lowerTranslation-translation)
			active = true
		} else if translation >= joint.upperTranslation {
			C2 = max(translation-joint.upperTranslation, 0.0)
			linearError = max(linearError, translation-joint.upperTranslation)
			active = true
		}
	}

	k11 := mA + mB + iA*s1*s1 + iB*s2*s2
	k12 := iA*s1 + iB*s2
	k22 := iA + iB
	if k22 == 0.0 {
		// For fixed rotation
		k22 = 1.0
	}

	var impulse B2Vec3
	if active {
		k13 := iA*s1*a1 + iB*s2*a2
		k23 := iA*a1 + iB*a2
		k33 := mA + mB + iA*a1*a1 + iB*a2*a2

		K := B2Mat33{
			Ex: MakeB2Vec3(k11, k12, k13),
			Ey: MakeB2Vec3(k12, k22, k23),
			Ez: MakeB2Vec3(k13, k23, k33),
		}

		impulse = K.Solve33(MakeB2Vec3(C1.X, C1.Y, C2).OperatorNegate())
	} else {
		K := MakeB2Mat22FromScalars(k11, k12, k12, k22)

		impulse1 := K.Solve(C1.OperatorNegate())
		impulse = MakeB2Vec3(impulse1.X, impulse1.Y, 0.0)
	}

	P := B2Vec2Add(B2Vec2MulScalar(impulse.X, perp), B2Vec2MulScalar(impulse.Z, axis))
	LA := impulse.X*s1 + impulse.Y + impulse.Z*a1
	LB := impulse.X*s2 + impulse.Y + impulse.Z*a2

	cA.OperatorMinusInplace(B2Vec2MulScalar(mA, P))
	aA -= iA * LA
	cB.OperatorPlusInplace(B2Vec2MulScalar(mB, P))
	aB += iB * LB

	joint.storePositions(data, cA, aA, cB, aB)

	return linearError <= B2_linearSlop && angularError <= B2_angularSlop
}

func (joint *B2PrismaticJoint) GetAnchorA() B2Vec2 {
	return joint.GetBodyA().GetWorldPoint(joint.localAnchorA)
}

func (joint *B2PrismaticJoint) GetAnchorB() B2Vec2 {
	return joint.GetBodyB().GetWorldPoint(joint.localAnchorB)
}

func (joint *B2PrismaticJoint) GetReactionForce(inv_dt float64) B2Vec2 {
	axial := joint.motorImpulse + joint.lowerImpulse - joint.upperImpulse
	return B2Vec2MulScalar(inv_dt, B2Vec2Add(B2Vec2MulScalar(joint.impulse.X, joint.perp), B2Vec2MulScalar(axial, joint.axis)))
}

func (joint *B2PrismaticJoint) GetReactionTorque(inv_dt float64) float64 {
	return inv_dt * joint.impulse.Y
}

// The local anchor point relative to bodyA's origin.
func (joint *B2PrismaticJoint) GetLocalAnchorA() B2Vec2 {
	return joint.localAnchorA
}

// The local anchor point relative to bodyB's origin.
func (joint *B2PrismaticJoint) GetLocalAnchorB() B2Vec2 {
	return joint.localAnchorB
}

// The local joint axis relative to bodyA.
func (joint *B2PrismaticJoint) GetLocalAxisA() B2Vec2 {
	return joint.localXAxisA
}

func (joint *B2PrismaticJoint) GetReferenceAngle() float64 {
	return joint.referenceAngle
}

// GetJointTranslation returns the current joint translation, usually in
// meters.
func (joint *B2PrismaticJoint) GetJointTranslation() float64 {
	bA := joint.GetBodyA()
	bB := joint.GetBodyB()

	pA := bA.GetWorldPoint(joint.localAnchorA)
	pB := bB.GetWorldPoint(joint.localAnchorB)
	d := B2Vec2Sub(pB, pA)
	axis := bA.GetWorldVector(joint.localXAxisA)

	return B2Vec2Dot(d, axis)
}

// GetJointSpeed returns the current joint translation speed, usually in
// meters per second.
func (joint *B2PrismaticJoint) GetJointSpeed() float64 {
	return b2AxialJointSpeed(joint.GetBodyA(), joint.GetBodyB(), joint.localAnchorA, joint.localAnchorB, joint.localXAxisA)
}

// b2AxialJointSpeed is the translation speed along an axis fixed in bodyA.
func b2AxialJointSpeed(bA, bB *B2Body, localAnchorA, localAnchorB, localAxisA B2Vec2) float64 {
	rA := B2RotVec2Mul(bA.xf.Q, B2Vec2Sub(localAnchorA, bA.sweep.LocalCenter))
	rB := B2RotVec2Mul(bB.xf.Q, B2Vec2Sub(localAnchorB, bB.sweep.LocalCenter))
	p1 := B2Vec2Add(bA.sweep.C, rA)
	p2 := B2Vec2Add(bB.sweep.C, rB)
	d := B2Vec2Sub(p2, p1)
	axis := B2RotVec2Mul(bA.xf.Q, localAxisA)

	vA := bA.linearVelocity
	vB := bB.linearVelocity
	wA := bA.angularVelocity
	wB := bB.angularVelocity

	return B2Vec2Dot(d, B2Vec2CrossScalarVector(wA, axis)) +
		B2Vec2Dot(axis, B2Vec2Sub(
			B2Vec2Add(vB, B2Vec2CrossScalarVector(wB, rB)),
			B2Vec2Add(vA, B2Vec2CrossScalarVector(wA, rA)),
		))
}

func (joint *B2PrismaticJoint) IsLimitEnabled() bool {
	return joint.enableLimit
}

func (joint *B2PrismaticJoint) EnableLimit(flag bool) {
	if flag != joint.enableLimit {
		joint.wakeBodies()
		joint.enableLimit = flag
		joint.lowerImpulse = 0.0
		joint.upperImpulse = 0.0
	}
}

func (joint *B2PrismaticJoint) GetLowerLimit() float64 {
	return joint.lowerTranslation
}

func (joint *B2PrismaticJoint) GetUpperLimit() float64 {
	return joint.upperTranslation
}

// SetLimits sets the joint limits, usually in meters.
func (joint *B2PrismaticJoint) SetLimits(lower, upper float64) {
	B2Assert(lower <= upper)

	if lower != joint.lowerTranslation || upper != joint.upperTranslation {
		joint.wakeBodies()
		joint.lowerTranslation = lower
		joint.upperTranslation = upper
		joint.lowerImpulse = 0.0
		joint.upperImpulse = 0.0
	}
}

func (joint *B2PrismaticJoint) IsMotorEnabled() bool {
	return joint.enableMotor
}

func (joint *B2PrismaticJoint) EnableMotor(flag bool) {
	if flag != joint.enableMotor {
		joint.wakeBodies()
		joint.enableMotor = flag
	}
}

// SetMotorSpeed sets the motor speed, usually in meters per second.
func (joint *B2PrismaticJoint) SetMotorSpeed(speed float64) {
	if speed != joint.motorSpeed {
		joint.wakeBodies()
		joint.motorSpeed = speed
	}
}

func (joint *B2PrismaticJoint) GetMotorSpeed() float64 {
	return joint.motorSpeed
}

// SetMaxMotorForce sets the maximum motor force, usually in N.
func (joint *B2PrismaticJoint) SetMaxMotorForce(force float64) {
	if force != joint.maxMotorForce {
		joint.wakeBodies()
		joint.maxMotorForce = force
	}
}

func (joint *B2PrismaticJoint) GetMaxMotorForce() float64 {
	return joint.maxMotorForce
}

// GetMotorForce returns the current motor force given the inverse time
// step, usually in N.
func (joint *B2PrismaticJoint) GetMotorForce(inv_dt float64) float64 {
	return inv_dt * joint.motorImpulse
}

func (joint *B2PrismaticJoint) def() B2JointDefInterface {
	return &B2PrismaticJointDef{
		B2JointDef:       joint.defBase(),
		LocalAnchorA:     joint.localAnchorA,
		LocalAnchorB:     joint.localAnchorB,
		LocalAxisA:       joint.localXAxisA,
		ReferenceAngle:   joint.referenceAngle,
		EnableLimit:      joint.enableLimit,
		LowerTranslation: joint.lowerTranslation,
		UpperTranslation: joint.upperTranslation,
		EnableMotor:      joint.enableMotor,
		MaxMotorForce:    joint.maxMotorForce,
		MotorSpeed:       joint.motorSpeed,
	}
}
