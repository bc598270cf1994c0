package box2d

import (
	"fmt"
)

// B2MouseJointDef requires a world target point, tuning parameters, and
// the time step.
type B2MouseJointDef struct {
	B2JointDef `yaml:"-"`

	// The initial world target point. This is assumed to coincide with the
	// body anchor initially.
	Target B2Vec2 `yaml:"target"`

	// The maximum constraint force that can be exerted to move the
	// candidate body. Usually you will express as some multiple of the
	// weight (multiplier * mass * gravity).
	MaxForce float64 `yaml:"maxForce"`

	// The linear stiffness in N/m.
	Stiffness float64 `yaml:"stiffness"`

	// The linear damping in N*s/m.
	Damping float64 `yaml:"damping"`
}

func MakeB2MouseJointDef() B2MouseJointDef {
	return B2MouseJointDef{
		B2JointDef: B2JointDef{Type: B2_mouseJoint},
	}
}

func (def *B2MouseJointDef) create(world *B2World) (B2Joint, error) {
	if !def.Target.IsValid() {
		return nil, fmt.Errorf("box2d: mouse joint target %v: %w", def.Target, ErrInvalidJointDef)
	}
	if !B2IsValid(def.MaxForce) || def.MaxForce < 0.0 || !B2IsValid(def.Stiffness) || def.Stiffness < 0.0 || !B2IsValid(def.Damping) || def.Damping < 0.0 {
		return nil, fmt.Errorf("box2d: mouse joint tuning: %w", ErrInvalidJointDef)
	}

	joint := &B2MouseJoint{
		b2JointBase: makeB2JointBase(world, &def.B2JointDef),
		targetA:     def.Target,
		maxForce:    def.MaxForce,
		stiffness:   def.Stiffness,
		damping:     def.Damping,
	}
	joint.localAnchorB = B2TransformVec2MulT(joint.GetBodyB().GetTransform(), joint.targetA)
	return joint, nil
}

// B2MouseJoint makes a point on a body track a specified world point. This
// is a soft constraint with a maximum force. This allows the constraint to
// stretch without applying huge forces.
// NOTE: this joint is not documented in the manual because it was
// developed to be used in the testbed. If you want to learn how to use the
// mouse joint, look at the testbed.
type B2MouseJoint struct {
	b2JointBase

	localAnchorB B2Vec2
	targetA      B2Vec2
	stiffness    float64
	damping      float64
	beta         float64

	// Solver shared
	impulse  B2Vec2
	maxForce float64
	gamma    float64

	// Solver temp
	rB   B2Vec2
	mass B2Mat22
	C    B2Vec2
}

// p = attached point, m = mouse point
// C = p - m
// Cdot = v
//      = v + cross(w, r)
// J = [I r_skew]
// Identity used:
// w k % (rx i + ry j) = w * (-ry i + rx j)

func (joint *B2MouseJoint) initVelocityConstraints(data *B2SolverData) {
	joint.prepare(data)

	cB := data.Positions[joint.indexB].C
	aB := data.Positions[joint.indexB].A
	vB := data.Velocities[joint.indexB].V
	wB := data.Velocities[joint.indexB].W

	qB := MakeB2RotFromAngle(aB)

	d := joint.damping
	k := joint.stiffness

	// magic formulas
	// gamma has units of inverse mass.
	// beta has units of inverse time.
	h := data.Step.Dt
	joint.gamma = b2InvOrZero(h * (d + h*k))
	joint.beta = h * k * joint.gamma

	// Compute the effective mass matrix.
	joint.rB = B2RotVec2Mul(qB, B2Vec2Sub(joint.localAnchorB, joint.localCenterB))

	// K    = [(1/m1 + 1/m2) * eye(2) - skew(r1) * invI1 * skew(r1) - skew(r2) * invI2 * skew(r2)]
	//      = [1/m1+1/m2     0    ] + invI1 * [r1.y*r1.y -r1.x*r1.y] + invI2 * [r1.y*r1.y -r1.x*r1.y]
	//        [    0     1/m1+1/m2]           [-r1.x*r1.y r1.x*r1.x]           [-r1.x*r1.y r1.x*r1.x]
	var K B2Mat22
	K.Ex.X = joint.invMassB + joint.invIB*joint.rB.Y*joint.rB.Y + joint.gamma
	K.Ex.Y = -joint.invIB * joint.rB.X * joint.rB.Y
	K.Ey.X = K.Ex.Y
	K.Ey.Y = joint.invMassB + joint.invIB*joint.rB.X*joint.rB.X + joint.gamma

	joint.mass = K.GetInverse()

	joint.C = B2Vec2Sub(B2Vec2Add(cB, joint.rB), joint.targetA)
	joint.C.OperatorScalarMulInplace(joint.beta)

	// Cheat with some damping
	wB *= max(0.0, 1.0-0.02*(60.0*h))

	if data.Step.WarmStarting {
		joint.impulse.OperatorScalarMulInplace(data.Step.DtRatio)
		vB.OperatorPlusInplace(B2Vec2MulScalar(joint.invMassB, joint.impulse))
		wB += joint.invIB * B2Vec2Cross(joint.rB, joint.impulse)
	} else {
		joint.impulse.SetZero()
	}

	data.Velocities[joint.indexB] = B2Velocity{V: vB, W: wB}
}

func (joint *B2MouseJoint) solveVelocityConstraints(data *B2SolverData) {
	vB := data.Velocities[joint.indexB].V
	wB := data.Velocities[joint.indexB].W

	// Cdot = v + cross(w, r)
	Cdot := B2Vec2Add(vB, B2Vec2CrossScalarVector(wB, joint.rB))
	impulse := B2Vec2Mat22Mul(joint.mass, B2Vec2Add(B2Vec2Add(Cdot, joint.C), B2Vec2MulScalar(joint.gamma, joint.impulse)).OperatorNegate())

	oldImpulse := joint.impulse
	joint.impulse.OperatorPlusInplace(impulse)
	maxImpulse := data.Step.Dt * joint.maxForce
	if joint.impulse.LengthSquared() > maxImpulse*maxImpulse {
		joint.impulse.OperatorScalarMulInplace(maxImpulse / joint.impulse.Length())
	}
	impulse = B2Vec2Sub(joint.impulse, oldImpulse)

	vB.OperatorPlusInplace(B2Vec2MulScalar(joint.invMassB, impulse))
	wB += joint.invIB * B2Vec2Cross(joint.rB, impulse)

	data.Velocities[joint.indexB] = B2Velocity{V: vB, W: wB}
}

func (joint *B2MouseJoint) solvePositionConstraints(data *B2SolverData) bool {
	return true
}

// GetAnchorA returns the target point.
func (joint *B2MouseJoint) GetAnchorA() B2Vec2 {
	return joint.targetA
}

func (joint *B2MouseJoint) GetAnchorB() B2Vec2 {
	return joint.GetBodyB().GetWorldPoint(joint.localAnchorB)
}

func (joint *B2MouseJoint) GetReactionForce(inv_dt float64) B2Vec2 {
	return B2Vec2MulScalar(inv_dt, joint.impulse)
}

func (joint *B2MouseJoint) GetReactionTorque(inv_dt float64) float64 {
	return 0.0
}

// SetTarget updates the target point and wakes the dragged body.
func (joint *B2MouseJoint) SetTarget(target B2Vec2) {
	if !B2Vec2Equals(target, joint.targetA) {
		joint.GetBodyB().SetAwake(true)
		joint.targetA = target
	}
}

func (joint *B2MouseJoint) GetTarget() B2Vec2 {
	return joint.targetA
}

// SetMaxForce sets the maximum force in Newtons.
func (joint *B2MouseJoint) SetMaxForce(force float64) {
	joint.maxForce = force
}

func (joint *B2MouseJoint) GetMaxForce() float64 {
	return joint.maxForce
}

// SetStiffness sets the linear stiffness in N/m.
func (joint *B2MouseJoint) SetStiffness(stiffness float64) {
	joint.stiffness = stiffness
}

func (joint *B2MouseJoint) GetStiffness() float64 {
	return joint.stiffness
}

// SetDamping sets the linear damping in N*s/m.
func (joint *B2MouseJoint) SetDamping(damping float64) {
	joint.damping = damping
}

func (joint *B2MouseJoint) GetDamping() float64 {
	return joint.damping
}

func (joint *B2MouseJoint) ShiftOrigin(newOrigin B2Vec2) {
	joint.targetA.OperatorMinusInplace(newOrigin)
}

func (joint *B2MouseJoint) def() B2JointDefInterface {
	return &B2MouseJointDef{
		B2JointDef: joint.defBase(),
		Target:     joint.targetA,
		MaxForce:   joint.maxForce,
		Stiffness:  joint.stiffness,
		Damping:    joint.damping,
	}
}
