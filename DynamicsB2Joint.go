package box2d

import (
	"fmt"
)

// B2JointType identifies the kind of a joint.
type B2JointType uint8

const (
	B2_unknownJoint B2JointType = iota
	B2_revoluteJoint
	B2_prismaticJoint
	B2_distanceJoint
	B2_pulleyJoint
	B2_mouseJoint
	B2_gearJoint
	B2_wheelJoint
	B2_weldJoint
	B2_frictionJoint
	B2_ropeJoint
	B2_motorJoint
)

var b2JointTypeNames = [...]string{
	B2_unknownJoint:   "unknown",
	B2_revoluteJoint:  "revolute",
	B2_prismaticJoint: "prismatic",
	B2_distanceJoint:  "distance",
	B2_pulleyJoint:    "pulley",
	B2_mouseJoint:     "mouse",
	B2_gearJoint:      "gear",
	B2_wheelJoint:     "wheel",
	B2_weldJoint:      "weld",
	B2_frictionJoint:  "friction",
	B2_ropeJoint:      "rope",
	B2_motorJoint:     "motor",
}

func (t B2JointType) String() string {
	if int(t) < len(b2JointTypeNames) {
		return b2JointTypeNames[t]
	}
	return fmt.Sprintf("B2JointType(%d)", uint8(t))
}

// B2JointDef holds the data common to all joint definitions. It is embedded
// by the concrete definitions.
type B2JointDef struct {

	// The joint type is set automatically for concrete joint types.
	Type B2JointType

	// Use this to attach application specific data to your joints.
	UserData any

	// The first attached body.
	BodyA B2BodyId

	// The second attached body.
	BodyB B2BodyId

	// Set this flag to true if the attached bodies should collide.
	CollideConnected bool
}

func (def *B2JointDef) jointDef() *B2JointDef {
	return def
}

// B2JointDefInterface is implemented by the concrete joint definitions
// of this package.
type B2JointDefInterface interface {
	jointDef() *B2JointDef

	// create builds the joint once the common fields were validated.
	create(world *B2World) (B2Joint, error)
}

// B2Joint is a constraint between two bodies. The set of joint kinds is
// closed: only the types of this package implement it.
type B2Joint interface {
	Id() B2JointId
	GetType() B2JointType

	GetBodyA() *B2Body
	GetBodyB() *B2Body

	// Get the anchor point on bodyA in world coordinates.
	GetAnchorA() B2Vec2

	// Get the anchor point on bodyB in world coordinates.
	GetAnchorB() B2Vec2

	// Get the reaction force on bodyB at the joint anchor in Newtons.
	GetReactionForce(inv_dt float64) B2Vec2

	// Get the reaction torque on bodyB in N*m.
	GetReactionTorque(inv_dt float64) float64

	GetUserData() any
	SetUserData(data any)

	// GetCollideConnected reports whether the attached bodies may collide.
	GetCollideConnected() bool

	// IsEnabled reports whether both bodies are enabled.
	IsEnabled() bool

	// Shift the origin for any points stored in world coordinates.
	ShiftOrigin(newOrigin B2Vec2)

	String() string

	base() *b2JointBase
	def() B2JointDefInterface

	initVelocityConstraints(data *B2SolverData)
	solveVelocityConstraints(data *B2SolverData)

	// solvePositionConstraints returns true when the position errors are
	// within tolerance.
	solvePositionConstraints(data *B2SolverData) bool
}

// b2JointBase carries the state shared by every joint kind.
type b2JointBase struct {
	id        B2JointId
	serial    uint64
	world     *B2World
	jointType B2JointType

	bodyA B2BodyId
	bodyB B2BodyId

	collideConnected bool
	islandFlag       bool

	userData any

	// Solver temp
	indexA       int
	indexB       int
	localCenterA B2Vec2
	localCenterB B2Vec2
	invMassA     float64
	invMassB     float64
	invIA        float64
	invIB        float64
}

func makeB2JointBase(world *B2World, def *B2JointDef) b2JointBase {
	return b2JointBase{
		world:            world,
		jointType:        def.Type,
		bodyA:            def.BodyA,
		bodyB:            def.BodyB,
		collideConnected: def.CollideConnected,
		userData:         def.UserData,
	}
}

func (j *b2JointBase) base() *b2JointBase {
	return j
}

func (j *b2JointBase) Id() B2JointId {
	return j.id
}

func (j *b2JointBase) GetType() B2JointType {
	return j.jointType
}

func (j *b2JointBase) GetBodyA() *B2Body {
	return j.world.bodies.get(j.bodyA.b2Handle)
}

func (j *b2JointBase) GetBodyB() *B2Body {
	return j.world.bodies.get(j.bodyB.b2Handle)
}

func (j *b2JointBase) GetUserData() any {
	return j.userData
}

func (j *b2JointBase) SetUserData(data any) {
	j.userData = data
}

func (j *b2JointBase) GetCollideConnected() bool {
	return j.collideConnected
}

func (j *b2JointBase) IsEnabled() bool {
	return j.GetBodyA().IsEnabled() && j.GetBodyB().IsEnabled()
}

func (j *b2JointBase) ShiftOrigin(newOrigin B2Vec2) {}

func (j *b2JointBase) String() string {
	return fmt.Sprintf("%s joint(%s %s-%s)", j.jointType, j.id, j.bodyA, j.bodyB)
}

func (j *b2JointBase) otherBody(id B2BodyId) B2BodyId {
	if j.bodyA == id {
		return j.bodyB
	}
	return j.bodyA
}

func (j *b2JointBase) defBase() B2JointDef {
	return B2JointDef{
		Type:             j.jointType,
		UserData:         j.userData,
		BodyA:            j.bodyA,
		BodyB:            j.bodyB,
		CollideConnected: j.collideConnected,
	}
}

func (j *b2JointBase) wakeBodies() {
	j.GetBodyA().SetAwake(true)
	j.GetBodyB().SetAwake(true)
}

// prepare caches the island indices and mass properties of both bodies
// for the current solve.
func (j *b2JointBase) prepare(data *B2SolverData) {
	bA := j.GetBodyA()
	bB := j.GetBodyB()

	j.indexA = data.indexOf(bA)
	j.indexB = data.indexOf(bB)
	j.localCenterA = bA.sweep.LocalCenter
	j.localCenterB = bB.sweep.LocalCenter
	j.invMassA = bA.invMass
	j.invMassB = bB.invMass
	j.invIA = bA.invI
	j.invIB = bB.invI
}

func (j *b2JointBase) loadVelocities(data *B2SolverData) (vA B2Vec2, wA float64, vB B2Vec2, wB float64) {
	return data.Velocities[j.indexA].V, data.Velocities[j.indexA].W,
		data.Velocities[j.indexB].V, data.Velocities[j.indexB].W
}

func (j *b2JointBase) storeVelocities(data *B2SolverData, vA B2Vec2, wA float64, vB B2Vec2, wB float64) {
	data.Velocities[j.indexA] = B2Velocity{V: vA, W: wA}
	data.Velocities[j.indexB] = B2Velocity{V: vB, W: wB}
}

func (j *b2JointBase) loadPositions(data *B2SolverData) (cA B2Vec2, aA float64, cB B2Vec2, aB float64) {
	return data.Positions[j.indexA].C, data.Positions[j.indexA].A,
		data.Positions[j.indexB].C, data.Positions[j.indexB].A
}

func (j *b2JointBase) storePositions(data *B2SolverData, cA B2Vec2, aA float64, cB B2Vec2, aB float64) {
	data.Positions[j.indexA] = B2Position{C: cA, A: aA}
	data.Positions[j.indexB] = B2Position{C: cB, A: aB}
}

// B2LinearStiffness converts a frequency and damping ratio into a linear
// stiffness and damping for the effective mass of the two bodies.
func B2LinearStiffness(frequencyHertz, dampingRatio float64, bodyA, bodyB *B2Body) (stiffness, damping float64) {
	massA := bodyA.GetMass()
	massB := bodyB.GetMass()

	var mass float64
	switch {
	case massA > 0.0 && massB > 0.0:
		mass = massA * massB / (massA + massB)
	case massA > 0.0:
		mass = massA
	default:
		mass = massB
	}

	omega := 2.0 * B2_pi * frequencyHertz
	stiffness = mass * omega * omega
	damping = 2.0 * mass * dampingRatio * omega
	return stiffness, damping
}

// B2AngularStiffness converts a frequency and damping ratio into an angular
// stiffness and damping for the effective inertia of the two bodies.
func B2AngularStiffness(frequencyHertz, dampingRatio float64, bodyA, bodyB *B2Body) (stiffness, damping float64) {
	IA := bodyA.GetInertia()
	IB := bodyB.GetInertia()

	var I float64
	switch {
	case IA > 0.0 && IB > 0.0:
		I = IA * IB / (IA + IB)
	case IA > 0.0:
		I = IA
	default:
		I = IB
	}

	omega := 2.0 * B2_pi * frequencyHertz
	stiffness = I * omega * omega
	damping = 2.0 * I * dampingRatio * omega
	return stiffness, damping
}

// b2SoftConstraint returns the gamma and bias coefficients of a
// mass-spring-damper blended into an impulse solve.
func b2SoftConstraint(C, stiffness, damping, h float64) (gamma, bias float64) {
	gamma = h * (damping + h*stiffness)
	if gamma != 0.0 {
		gamma = 1.0 / gamma
	}
	bias = C * h * stiffness * gamma
	return gamma, bias
}

func b2InvOrZero(x float64) float64 {
	if x != 0.0 {
		return 1.0 / x
	}
	return 0.0
}
