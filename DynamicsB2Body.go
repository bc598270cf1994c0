package box2d

import (
	"fmt"
)

// B2BodyType is the body type.
// static: zero mass, zero velocity, may be manually moved
// kinematic: zero mass, non-zero velocity set by user, moved by solver
// dynamic: positive mass, non-zero velocity determined by forces, moved by solver
type B2BodyType uint8

const (
	B2_staticBody B2BodyType = iota
	B2_kinematicBody
	B2_dynamicBody
)

func (t B2BodyType) String() string {
	switch t {
	case B2_staticBody:
		return "static"
	case B2_kinematicBody:
		return "kinematic"
	case B2_dynamicBody:
		return "dynamic"
	}
	return fmt.Sprintf("B2BodyType(%d)", uint8(t))
}

// B2BodyDef holds all the data needed to construct a rigid body.
// You can safely re-use body definitions. Fixtures are added to a body after construction.
type B2BodyDef struct {

	// The body type: static, kinematic, or dynamic.
	// Note: if a dynamic body would have zero mass, the mass is set to one.
	Type B2BodyType `yaml:"type"`

	// The world position of the body. Avoid creating bodies at the origin
	// since this can lead to many overlapping shapes.
	Position B2Vec2 `yaml:"position"`

	// The world angle of the body in radians.
	Angle float64 `yaml:"angle"`

	// The linear velocity of the body's origin in world co-ordinates.
	LinearVelocity B2Vec2 `yaml:"linearVelocity"`

	// The angular velocity of the body.
	AngularVelocity float64 `yaml:"angularVelocity"`

	// Linear damping is use to reduce the linear velocity. The damping parameter
	// can be larger than 1.0 but the damping effect becomes sensitive to the
	// time step when the damping parameter is large.
	// Units are 1/time
	LinearDamping float64 `yaml:"linearDamping"`

	// Angular damping is use to reduce the angular velocity.
	// Units are 1/time
	AngularDamping float64 `yaml:"angularDamping"`

	// Set this flag to false if this body should never fall asleep. Note that
	// this increases CPU usage.
	AllowSleep bool `yaml:"allowSleep"`

	// Is this body initially awake or sleeping?
	Awake bool `yaml:"awake"`

	// Should this body be prevented from rotating? Useful for characters.
	FixedRotation bool `yaml:"fixedRotation"`

	// Is this a fast moving body that should be swept against everything
	// it may hit? Only considered on dynamic bodies.
	Bullet bool `yaml:"bullet"`

	// Does this body start out enabled?
	Enabled bool `yaml:"enabled"`

	// Use this to store application specific body data.
	UserData any `yaml:"-"`

	// Scale the gravity applied to this body.
	GravityScale float64 `yaml:"gravityScale"`
}

// MakeB2BodyDef sets the body definition default values.
func MakeB2BodyDef() B2BodyDef {
	return B2BodyDef{
		AllowSleep:   true,
		Awake:        true,
		Type:         B2_staticBody,
		Enabled:      true,
		GravityScale: 1.0,
	}
}

const (
	b2Body_islandFlag uint16 = 1 << iota
	b2Body_awakeFlag
	b2Body_autoSleepFlag
	b2Body_bulletFlag
	b2Body_fixedRotationFlag
	b2Body_enabledFlag
	b2Body_massOverrideFlag
)

// B2Body is a rigid body. Bodies are created and owned by a B2World.
type B2Body struct {
	id     B2BodyId
	serial uint64
	world  *B2World

	bodyType B2BodyType
	flags    uint16

	// Index within the island being solved. Static bodies are looked up
	// through the island instead since they may anchor several islands.
	islandIndex int

	xf    B2Transform // the body origin transform
	sweep B2Sweep     // the swept motion for CCD

	linearVelocity  B2Vec2
	angularVelocity float64

	force  B2Vec2
	torque float64

	fixtures []B2FixtureId
	joints   []B2JointId
	contacts []B2ContactId

	mass, invMass float64

	// Rotational inertia about the center of mass.
	I, invI float64

	linearDamping  float64
	angularDamping float64
	gravityScale   float64

	sleepTime float64

	userData any
}

func newB2Body(world *B2World, bd *B2BodyDef) *B2Body {
	body := &B2Body{world: world}

	if bd.Bullet {
		body.flags |= b2Body_bulletFlag
	}
	if bd.FixedRotation {
		body.flags |= b2Body_fixedRotationFlag
	}
	if bd.AllowSleep {
		body.flags |= b2Body_autoSleepFlag
	}
	if bd.Awake && bd.Type != B2_staticBody {
		body.flags |= b2Body_awakeFlag
	}
	if bd.Enabled {
		body.flags |= b2Body_enabledFlag
	}

	body.xf.Set(bd.Position, bd.Angle)

	body.sweep.C0 = body.xf.P
	body.sweep.C = body.xf.P
	body.sweep.A0 = bd.Angle
	body.sweep.A = bd.Angle

	body.linearVelocity = bd.LinearVelocity
	body.angularVelocity = bd.AngularVelocity

	body.linearDamping = bd.LinearDamping
	body.angularDamping = bd.AngularDamping
	body.gravityScale = bd.GravityScale

	body.bodyType = bd.Type

	if body.bodyType == B2_dynamicBody {
		body.mass = 1.0
		body.invMass = 1.0
	}

	body.userData = bd.UserData
	return body
}

func validateBodyDef(bd *B2BodyDef) error {
	switch {
	case !bd.Position.IsValid(), !B2IsValid(bd.Angle):
		return fmt.Errorf("box2d: body transform is not finite: %w", ErrInvalidBody)
	case !bd.LinearVelocity.IsValid(), !B2IsValid(bd.AngularVelocity):
		return fmt.Errorf("box2d: body velocity is not finite: %w", ErrInvalidBody)
	case !B2IsValid(bd.LinearDamping), bd.LinearDamping < 0,
		!B2IsValid(bd.AngularDamping), bd.AngularDamping < 0:
		return fmt.Errorf("box2d: body damping must be non-negative: %w", ErrInvalidBody)
	case !B2IsValid(bd.GravityScale):
		return fmt.Errorf("box2d: body gravity scale is not finite: %w", ErrInvalidBody)
	case bd.Type > B2_dynamicBody:
		return fmt.Errorf("box2d: unknown body type %d: %w", bd.Type, ErrInvalidBody)
	}
	return nil
}

func (body *B2Body) Id() B2BodyId {
	return body.id
}

func (body *B2Body) GetType() B2BodyType {
	return body.bodyType
}

func (body *B2Body) GetTransform() B2Transform {
	return body.xf
}

func (body *B2Body) GetPosition() B2Vec2 {
	return body.xf.P
}

func (body *B2Body) GetAngle() float64 {
	return body.sweep.A
}

func (body *B2Body) GetWorldCenter() B2Vec2 {
	return body.sweep.C
}

func (body *B2Body) GetLocalCenter() B2Vec2 {
	return body.sweep.LocalCenter
}

func (body *B2Body) SetLinearVelocity(v B2Vec2) {
	if body.bodyType == B2_staticBody {
		return
	}

	if B2Vec2Dot(v, v) > 0.0 {
		body.SetAwake(true)
	}

	body.linearVelocity = v
}

func (body *B2Body) GetLinearVelocity() B2Vec2 {
	return body.linearVelocity
}

func (body *B2Body) SetAngularVelocity(w float64) {
	if body.bodyType == B2_staticBody {
		return
	}

	if w*w > 0.0 {
		body.SetAwake(true)
	}

	body.angularVelocity = w
}

func (body *B2Body) GetAngularVelocity() float64 {
	return body.angularVelocity
}

func (body *B2Body) GetMass() float64 {
	return body.mass
}

// GetInertia returns the rotational inertia of the body about the local origin.
func (body *B2Body) GetInertia() float64 {
	return body.I + body.mass*B2Vec2Dot(body.sweep.LocalCenter, body.sweep.LocalCenter)
}

func (body *B2Body) GetMassData() B2MassData {
	return B2MassData{
		Mass:   body.mass,
		I:      body.GetInertia(),
		Center: body.sweep.LocalCenter,
	}
}

func (body *B2Body) GetWorldPoint(localPoint B2Vec2) B2Vec2 {
	return B2TransformVec2Mul(body.xf, localPoint)
}

func (body *B2Body) GetWorldVector(localVector B2Vec2) B2Vec2 {
	return B2RotVec2Mul(body.xf.Q, localVector)
}

func (body *B2Body) GetLocalPoint(worldPoint B2Vec2) B2Vec2 {
	return B2TransformVec2MulT(body.xf, worldPoint)
}

func (body *B2Body) GetLocalVector(worldVector B2Vec2) B2Vec2 {
	return B2RotVec2MulT(body.xf.Q, worldVector)
}

func (body *B2Body) GetLinearVelocityFromWorldPoint(worldPoint B2Vec2) B2Vec2 {
	return B2Vec2Add(body.linearVelocity, B2Vec2CrossScalarVector(body.angularVelocity, B2Vec2Sub(worldPoint, body.sweep.C)))
}

func (body *B2Body) GetLinearVelocityFromLocalPoint(localPoint B2Vec2) B2Vec2 {
	return body.GetLinearVelocityFromWorldPoint(body.GetWorldPoint(localPoint))
}

func (body *B2Body) GetLinearDamping() float64 {
	return body.linearDamping
}

func (body *B2Body) SetLinearDamping(linearDamping float64) {
	body.linearDamping = linearDamping
}

func (body *B2Body) GetAngularDamping() float64 {
	return body.angularDamping
}

func (body *B2Body) SetAngularDamping(angularDamping float64) {
	body.angularDamping = angularDamping
}

func (body *B2Body) GetGravityScale() float64 {
	return body.gravityScale
}

func (body *B2Body) SetGravityScale(scale float64) {
	body.gravityScale = scale
}

func (body *B2Body) SetBullet(flag bool) {
	if flag {
		body.flags |= b2Body_bulletFlag
	} else {
		body.flags &^= b2Body_bulletFlag
	}
}

func (body *B2Body) IsBullet() bool {
	return body.flags&b2Body_bulletFlag != 0
}

// SetAwake wakes or sleeps the body. A sleeping body has zero velocity and
// accumulates no forces. Static bodies are never awake.
func (body *B2Body) SetAwake(flag bool) {
	if body.bodyType == B2_staticBody {
		return
	}

	if flag {
		body.flags |= b2Body_awakeFlag
		body.sleepTime = 0.0
	} else {
		body.flags &^= b2Body_awakeFlag
		body.sleepTime = 0.0
		body.linearVelocity.SetZero()
		body.angularVelocity = 0.0
		body.force.SetZero()
		body.torque = 0.0
	}
}

func (body *B2Body) IsAwake() bool {
	return body.flags&b2Body_awakeFlag != 0
}

func (body *B2Body) IsEnabled() bool {
	return body.flags&b2Body_enabledFlag != 0
}

func (body *B2Body) IsFixedRotation() bool {
	return body.flags&b2Body_fixedRotationFlag != 0
}

func (body *B2Body) SetSleepingAllowed(flag bool) {
	if flag {
		body.flags |= b2Body_autoSleepFlag
	} else {
		body.flags &^= b2Body_autoSleepFlag
		body.SetAwake(true)
	}
}

func (body *B2Body) IsSleepingAllowed() bool {
	return body.flags&b2Body_autoSleepFlag != 0
}

// GetFixtures returns the fixtures of the body in creation order.
func (body *B2Body) GetFixtures() []*B2Fixture {
	fixtures := make([]*B2Fixture, 0, len(body.fixtures))
	for _, id := range body.fixtures {
		fixtures = append(fixtures, body.world.fixtures.get(id.b2Handle))
	}
	return fixtures
}

// GetJoints returns the joints attached to the body.
func (body *B2Body) GetJoints() []B2Joint {
	joints := make([]B2Joint, 0, len(body.joints))
	for _, id := range body.joints {
		joints = append(joints, body.world.joints.get(id.b2Handle))
	}
	return joints
}

// GetContacts returns the contacts the body participates in, touching or not.
func (body *B2Body) GetContacts() []*B2Contact {
	contacts := make([]*B2Contact, 0, len(body.contacts))
	for _, id := range body.contacts {
		contacts = append(contacts, body.world.contactManager.contacts.get(id.b2Handle))
	}
	return contacts
}

func (body *B2Body) SetUserData(data any) {
	body.userData = data
}

func (body *B2Body) GetUserData() any {
	return body.userData
}

func (body *B2Body) GetWorld() *B2World {
	return body.world
}

func (body *B2Body) String() string {
	return fmt.Sprintf("body(%s %s)", body.id, body.bodyType)
}

// ApplyForce applies a force at a world point. If the force is not applied
// at the center of mass, it will generate a torque and affect the angular
// velocity. Sleeping bodies ignore the force unless wake is set.
func (body *B2Body) ApplyForce(force B2Vec2, point B2Vec2, wake bool) {
	if body.bodyType != B2_dynamicBody {
		return
	}

	if wake && !body.IsAwake() {
		body.SetAwake(true)
	}

	// Don't accumulate a force if the body is sleeping.
	if body.IsAwake() {
		body.force.OperatorPlusInplace(force)
		body.torque += B2Vec2Cross(B2Vec2Sub(point, body.sweep.C), force)
	}
}

func (body *B2Body) ApplyForceToCenter(force B2Vec2, wake bool) {
	if body.bodyType != B2_dynamicBody {
		return
	}

	if wake && !body.IsAwake() {
		body.SetAwake(true)
	}

	if body.IsAwake() {
		body.force.OperatorPlusInplace(force)
	}
}

func (body *B2Body) ApplyTorque(torque float64, wake bool) {
	if body.bodyType != B2_dynamicBody {
		return
	}

	if wake && !body.IsAwake() {
		body.SetAwake(true)
	}

	if body.IsAwake() {
		body.torque += torque
	}
}

// ApplyLinearImpulse applies an impulse at a point. This immediately
// modifies the velocity.
func (body *B2Body) ApplyLinearImpulse(impulse B2Vec2, point B2Vec2, wake bool) {
	if body.bodyType != B2_dynamicBody {
		return
	}

	if wake && !body.IsAwake() {
		body.SetAwake(true)
	}

	// Don't accumulate velocity if the body is sleeping
	if body.IsAwake() {
		body.linearVelocity.OperatorPlusInplace(B2Vec2MulScalar(body.invMass, impulse))
		body.angularVelocity += body.invI * B2Vec2Cross(B2Vec2Sub(point, body.sweep.C), impulse)
	}
}

func (body *B2Body) ApplyLinearImpulseToCenter(impulse B2Vec2, wake bool) {
	if body.bodyType != B2_dynamicBody {
		return
	}

	if wake && !body.IsAwake() {
		body.SetAwake(true)
	}

	if body.IsAwake() {
		body.linearVelocity.OperatorPlusInplace(B2Vec2MulScalar(body.invMass, impulse))
	}
}

func (body *B2Body) ApplyAngularImpulse(impulse float64, wake bool) {
	if body.bodyType != B2_dynamicBody {
		return
	}

	if wake && !body.IsAwake() {
		body.SetAwake(true)
	}

	if body.IsAwake() {
		body.angularVelocity += body.invI * impulse
	}
}

func (body *B2Body) synchronizeTransform() {
	body.xf.Q.Set(body.sweep.A)
	body.xf.P = B2Vec2Sub(body.sweep.C, B2RotVec2Mul(body.xf.Q, body.sweep.LocalCenter))
}

// advance moves the body to the new safe time. This doesn't sync the broad-phase.
func (body *B2Body) advance(alpha float64) {
	body.sweep.Advance(alpha)
	body.sweep.C = body.sweep.C0
	body.sweep.A = body.sweep.A0
	body.synchronizeTransform()
}

// SetType changes the body type. Attached contacts are destroyed and
// recreated on the next step where appropriate.
func (body *B2Body) SetType(bodyType B2BodyType) error {
	if body.world.IsLocked() {
		return ErrWorldLocked
	}

	if body.bodyType == bodyType {
		return nil
	}

	body.bodyType = bodyType

	body.ResetMassData()

	if body.bodyType == B2_staticBody {
		body.linearVelocity.SetZero()
		body.angularVelocity = 0.0
		body.sweep.A0 = body.sweep.A
		body.sweep.C0 = body.sweep.C
		body.flags &^= b2Body_awakeFlag
		body.synchronizeFixtures()
	}

	body.SetAwake(true)

	body.force.SetZero()
	body.torque = 0.0

	body.destroyContacts()

	// Touch the proxies so that new contacts will be created (when appropriate)
	broadPhase := &body.world.contactManager.broadPhase
	for _, fixture := range body.GetFixtures() {
		for _, proxy := range fixture.proxies {
			broadPhase.TouchProxy(proxy.proxyId)
		}
	}

	return nil
}

// CreateFixture attaches a fixture to the body. The body's mass is updated
// when the fixture has a positive density. Contacts are not created until
// the next time step.
func (body *B2Body) CreateFixture(def *B2FixtureDef) (*B2Fixture, error) {
	if body.world.IsLocked() {
		return nil, ErrWorldLocked
	}

	if err := validateFixtureDef(def); err != nil {
		return nil, err
	}

	fixture := newB2Fixture(body, def)
	fixture.id = B2FixtureId{body.world.fixtures.alloc(fixture)}
	fixture.serial = body.world.nextSerial()

	if body.IsEnabled() {
		fixture.createProxies(&body.world.contactManager.broadPhase, body.xf)
	}

	body.fixtures = append(body.fixtures, fixture.id)

	// Adjust mass properties if needed.
	if fixture.density > 0.0 {
		body.ResetMassData()
	}

	// Let the world know we have a new fixture. This will cause new contacts
	// to be created at the beginning of the next time step.
	body.world.newContacts = true

	return fixture, nil
}

// CreateFixtureFromShape is a shortcut for a fixture with default material
// and the given density.
func (body *B2Body) CreateFixtureFromShape(shape B2Shape, density float64) (*B2Fixture, error) {
	def := MakeB2FixtureDef()
	def.Shape = shape
	def.Density = density

	return body.CreateFixture(&def)
}

// DestroyFixture removes a fixture from the body. Contacts that reference
// the fixture are destroyed and the mass is recomputed. The destruction
// listener is not called.
func (body *B2Body) DestroyFixture(fixture *B2Fixture) error {
	if fixture == nil {
		return nil
	}

	if body.world.IsLocked() {
		return ErrWorldLocked
	}

	if fixture.body != body.id || body.world.fixtures.get(fixture.id.b2Handle) != fixture {
		return fmt.Errorf("box2d: fixture %s is not attached to %s: %w", fixture.id, body, ErrStaleHandle)
	}

	body.destroyFixture(fixture)

	body.ResetMassData()
	return nil
}

// destroyFixture detaches a fixture without recomputing the mass.
func (body *B2Body) destroyFixture(fixture *B2Fixture) {
	cm := &body.world.contactManager

	for _, c := range body.GetContacts() {
		if c.fixtureA == fixture.id || c.fixtureB == fixture.id {
			cm.destroy(c)
		}
	}

	if body.IsEnabled() {
		fixture.destroyProxies(&cm.broadPhase)
	}

	body.fixtures = removeHandle(body.fixtures, fixture.id)
	body.world.fixtures.release(fixture.id.b2Handle)
	fixture.body = B2BodyId{}
}

func (body *B2Body) destroyContacts() {
	cm := &body.world.contactManager
	for _, c := range body.GetContacts() {
		cm.destroy(c)
	}
	body.contacts = body.contacts[:0]
}

// ResetMassData recomputes the mass from the fixture densities. This
// normally does not need to be called unless SetMassData overrode the mass.
func (body *B2Body) ResetMassData() {
	// Compute mass data from shapes. Each shape has its own density.
	body.flags &^= b2Body_massOverrideFlag
	body.mass = 0.0
	body.invMass = 0.0
	body.I = 0.0
	body.invI = 0.0
	body.sweep.LocalCenter.SetZero()

	// Static and kinematic bodies have zero mass.
	if body.bodyType == B2_staticBody || body.bodyType == B2_kinematicBody {
		body.sweep.C0 = body.xf.P
		body.sweep.C = body.xf.P
		body.sweep.A0 = body.sweep.A
		return
	}

	// Accumulate mass over all fixtures.
	localCenter := MakeB2Vec2(0, 0)
	for _, f := range body.GetFixtures() {
		if f.density == 0.0 {
			continue
		}

		massData := f.GetMassData()
		body.mass += massData.Mass
		localCenter.OperatorPlusInplace(B2Vec2MulScalar(massData.Mass, massData.Center))
		body.I += massData.I
	}

	// Compute center of mass.
	if body.mass > 0.0 {
		body.invMass = 1.0 / body.mass
		localCenter.OperatorScalarMulInplace(body.invMass)
	} else {
		// Force all dynamic bodies to have a positive mass.
		body.mass = 1.0
		body.invMass = 1.0
	}

	if body.I > 0.0 && !body.IsFixedRotation() {
		// Center the inertia about the center of mass.
		body.I -= body.mass * B2Vec2Dot(localCenter, localCenter)
		B2Assert(body.I > 0.0)
		body.invI = 1.0 / body.I
	} else {
		body.I = 0.0
		body.invI = 0.0
	}

	body.moveCenterOfMass(localCenter)
}

// SetMassData overrides the mass properties. Only dynamic bodies are
// affected. The inertia is given about the local origin. Adding or
// destroying a fixture recomputes the mass from the fixtures again.
func (body *B2Body) SetMassData(massData B2MassData) error {
	if body.world.IsLocked() {
		return ErrWorldLocked
	}

	if body.bodyType != B2_dynamicBody {
		return nil
	}

	body.invMass = 0.0
	body.I = 0.0
	body.invI = 0.0

	body.mass = massData.Mass
	if body.mass <= 0.0 {
		body.mass = 1.0
	}

	body.invMass = 1.0 / body.mass

	if massData.I > 0.0 && !body.IsFixedRotation() {
		body.I = massData.I - body.mass*B2Vec2Dot(massData.Center, massData.Center)
		B2Assert(body.I > 0.0)
		body.invI = 1.0 / body.I
	}

	body.flags |= b2Body_massOverrideFlag
	body.moveCenterOfMass(massData.Center)
	return nil
}

func (body *B2Body) moveCenterOfMass(localCenter B2Vec2) {
	oldCenter := body.sweep.C
	body.sweep.LocalCenter = localCenter
	body.sweep.C = B2TransformVec2Mul(body.xf, body.sweep.LocalCenter)
	body.sweep.C0 = body.sweep.C

	// Update center of mass velocity.
	body.linearVelocity.OperatorPlusInplace(B2Vec2CrossScalarVector(
		body.angularVelocity,
		B2Vec2Sub(body.sweep.C, oldCenter),
	))
}

// shouldCollide reports whether contacts between the two bodies are allowed
// by their types and the joints that connect them.
func (body *B2Body) shouldCollide(other *B2Body) bool {
	// At least one body should be dynamic.
	if body.bodyType != B2_dynamicBody && other.bodyType != B2_dynamicBody {
		return false
	}

	// Does a joint prevent collision?
	for _, id := range body.joints {
		j := body.world.joints.get(id.b2Handle)
		if j.base().otherBody(body.id) == other.id && !j.GetCollideConnected() {
			return false
		}
	}

	return true
}

// SetTransform teleports the body origin. Contacts are updated on the next
// step and a dynamic body is woken.
func (body *B2Body) SetTransform(position B2Vec2, angle float64) error {
	if body.world.IsLocked() {
		return ErrWorldLocked
	}

	body.xf.Set(position, angle)

	body.sweep.C = B2TransformVec2Mul(body.xf, body.sweep.LocalCenter)
	body.sweep.A = angle

	body.sweep.C0 = body.sweep.C
	body.sweep.A0 = angle

	broadPhase := &body.world.contactManager.broadPhase
	for _, f := range body.GetFixtures() {
		f.synchronize(broadPhase, body.xf, body.xf)
	}

	body.SetAwake(true)

	// Check for new contacts the next step
	body.world.newContacts = true
	return nil
}

func (body *B2Body) synchronizeFixtures() {
	xf1 := body.sweep.GetTransform(0.0)

	broadPhase := &body.world.contactManager.broadPhase
	for _, f := range body.GetFixtures() {
		f.synchronize(broadPhase, xf1, body.xf)
	}
}

// SetEnabled adds or removes the body from the simulation. A disabled body
// has no broad-phase proxies and no contacts. Its joints are kept.
func (body *B2Body) SetEnabled(flag bool) error {
	if body.world.IsLocked() {
		return ErrWorldLocked
	}

	if flag == body.IsEnabled() {
		return nil
	}

	broadPhase := &body.world.contactManager.broadPhase
	if flag {
		body.flags |= b2Body_enabledFlag

		for _, f := range body.GetFixtures() {
			f.createProxies(broadPhase, body.xf)
		}

		// Contacts are created at the beginning of the next step.
		body.world.newContacts = true
	} else {
		body.flags &^= b2Body_enabledFlag

		for _, f := range body.GetFixtures() {
			f.destroyProxies(broadPhase)
		}

		body.destroyContacts()
	}

	return nil
}

func (body *B2Body) SetFixedRotation(flag bool) {
	if body.IsFixedRotation() == flag {
		return
	}

	if flag {
		body.flags |= b2Body_fixedRotationFlag
	} else {
		body.flags &^= b2Body_fixedRotationFlag
	}

	body.angularVelocity = 0.0

	body.ResetMassData()
}

func removeHandle[H comparable](ids []H, id H) []H {
	for i := range ids {
		if ids[i] == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
