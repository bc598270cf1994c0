package box2d

import (
	"fmt"
	"math"
)

// B2Filter holds contact filtering data.
type B2Filter struct {
	// The collision category bits. Normally you would just set one bit.
	CategoryBits uint16 `yaml:"categoryBits"`

	// The collision mask bits. This states the categories that this
	// shape would accept for collision.
	MaskBits uint16 `yaml:"maskBits"`

	// Collision groups allow a certain group of objects to never collide (negative)
	// or always collide (positive). Zero means no collision group. Non-zero group
	// filtering always wins against the mask bits.
	GroupIndex int16 `yaml:"groupIndex"`
}

func MakeB2Filter() B2Filter {
	return B2Filter{
		CategoryBits: 0x0001,
		MaskBits:     0xFFFF,
		GroupIndex:   0,
	}
}

// B2ShouldCollide is the default filter rule.
func B2ShouldCollide(filterA, filterB B2Filter) bool {
	if filterA.GroupIndex == filterB.GroupIndex && filterA.GroupIndex != 0 {
		return filterA.GroupIndex > 0
	}

	return (filterA.MaskBits&filterB.CategoryBits) != 0 && (filterA.CategoryBits&filterB.MaskBits) != 0
}

// B2FixtureDef is used to create a fixture. You can reuse fixture
// definitions safely.
type B2FixtureDef struct {

	// The shape, this must be set. The shape is cloned.
	Shape B2Shape `yaml:"-"`

	// Use this to store application specific fixture data.
	UserData any `yaml:"-"`

	// The friction coefficient, usually in the range [0,1].
	Friction float64 `yaml:"friction"`

	// The restitution (elasticity) usually in the range [0,1].
	Restitution float64 `yaml:"restitution"`

	// Restitution velocity threshold, usually in m/s. Collisions above this
	// speed have restitution applied (will bounce).
	RestitutionThreshold float64 `yaml:"restitutionThreshold"`

	// The density, usually in kg/m^2.
	Density float64 `yaml:"density"`

	// A sensor shape collects contact information but never generates a collision
	// response.
	IsSensor bool `yaml:"isSensor"`

	// Contact filtering data.
	Filter B2Filter `yaml:"filter"`
}

// MakeB2FixtureDef sets the default fixture definition values.
func MakeB2FixtureDef() B2FixtureDef {
	return B2FixtureDef{
		Friction:             0.2,
		RestitutionThreshold: B2_velocityThreshold,
		Filter:               MakeB2Filter(),
	}
}

func validateFixtureDef(def *B2FixtureDef) error {
	switch {
	case def == nil || def.Shape == nil:
		return fmt.Errorf("box2d: fixture has no shape: %w", ErrInvalidFixtureDef)
	case !B2IsValid(def.Density) || def.Density < 0:
		return fmt.Errorf("box2d: fixture density %v: %w", def.Density, ErrInvalidFixtureDef)
	case !B2IsValid(def.Friction) || def.Friction < 0:
		return fmt.Errorf("box2d: fixture friction %v: %w", def.Friction, ErrInvalidFixtureDef)
	case !B2IsValid(def.Restitution) || def.Restitution < 0:
		return fmt.Errorf("box2d: fixture restitution %v: %w", def.Restitution, ErrInvalidFixtureDef)
	case !B2IsValid(def.RestitutionThreshold) || def.RestitutionThreshold < 0:
		return fmt.Errorf("box2d: fixture restitution threshold %v: %w", def.RestitutionThreshold, ErrInvalidFixtureDef)
	}
	return nil
}

// b2FixtureProxy connects a fixture child to the broad-phase.
type b2FixtureProxy struct {
	aabb       B2AABB
	fixture    *B2Fixture
	childIndex int
	proxyId    int
}

// B2Fixture attaches a shape to a body for collision detection. A fixture
// inherits its transform from its parent body. Fixtures hold additional
// non-geometric data such as friction, collision filters, etc.
// Fixtures are created via B2Body.CreateFixture.
type B2Fixture struct {
	id     B2FixtureId
	serial uint64
	world  *B2World
	body   B2BodyId

	shape B2Shape

	density              float64
	friction             float64
	restitution          float64
	restitutionThreshold float64

	proxies []*b2FixtureProxy

	filter B2Filter

	isSensor bool

	userData any
}

func newB2Fixture(body *B2Body, def *B2FixtureDef) *B2Fixture {
	return &B2Fixture{
		world:                body.world,
		body:                 body.id,
		shape:                def.Shape.Clone(),
		density:              def.Density,
		friction:             def.Friction,
		restitution:          def.Restitution,
		restitutionThreshold: def.RestitutionThreshold,
		filter:               def.Filter,
		isSensor:             def.IsSensor,
		userData:             def.UserData,
	}
}

func (fix *B2Fixture) Id() B2FixtureId {
	return fix.id
}

func (fix *B2Fixture) GetType() B2ShapeType {
	return fix.shape.GetType()
}

// GetShape returns the fixture's shape. Shapes are immutable.
func (fix *B2Fixture) GetShape() B2Shape {
	return fix.shape
}

func (fix *B2Fixture) IsSensor() bool {
	return fix.isSensor
}

// SetSensor sets if this fixture is a sensor. The touching state of
// existing contacts is recomputed on the next step.
func (fix *B2Fixture) SetSensor(sensor bool) {
	if sensor != fix.isSensor {
		if body := fix.GetBody(); body != nil {
			body.SetAwake(true)
		}
		fix.isSensor = sensor
	}
}

func (fix *B2Fixture) GetFilterData() B2Filter {
	return fix.filter
}

// SetFilterData sets the contact filtering data. This will not update
// contacts until the next time step when either parent body is active and
// awake.
func (fix *B2Fixture) SetFilterData(filter B2Filter) {
	fix.filter = filter
	fix.Refilter()
}

// Refilter flags existing contacts for filtering on the next step and
// touches the proxies so new pairs are considered.
func (fix *B2Fixture) Refilter() {
	body := fix.GetBody()
	if body == nil {
		return
	}

	for _, c := range body.GetContacts() {
		if c.fixtureA == fix.id || c.fixtureB == fix.id {
			c.FlagForFiltering()
		}
	}

	broadPhase := &fix.world.contactManager.broadPhase
	for _, proxy := range fix.proxies {
		broadPhase.TouchProxy(proxy.proxyId)
	}
}

func (fix *B2Fixture) GetUserData() any {
	return fix.userData
}

func (fix *B2Fixture) SetUserData(data any) {
	fix.userData = data
}

// GetBody returns the parent body, or nil once the fixture was destroyed.
func (fix *B2Fixture) GetBody() *B2Body {
	if fix.body.IsNull() {
		return nil
	}
	return fix.world.bodies.get(fix.body.b2Handle)
}

func (fix *B2Fixture) GetBodyId() B2BodyId {
	return fix.body
}

func (fix *B2Fixture) SetDensity(density float64) {
	B2Assert(B2IsValid(density) && density >= 0.0)
	fix.density = density
}

func (fix *B2Fixture) GetDensity() float64 {
	return fix.density
}

func (fix *B2Fixture) GetFriction() float64 {
	return fix.friction
}

// SetFriction does not change the friction of existing contacts.
func (fix *B2Fixture) SetFriction(friction float64) {
	fix.friction = friction
}

func (fix *B2Fixture) GetRestitution() float64 {
	return fix.restitution
}

// SetRestitution does not change the restitution of existing contacts.
func (fix *B2Fixture) SetRestitution(restitution float64) {
	fix.restitution = restitution
}

func (fix *B2Fixture) GetRestitutionThreshold() float64 {
	return fix.restitutionThreshold
}

func (fix *B2Fixture) SetRestitutionThreshold(threshold float64) {
	fix.restitutionThreshold = threshold
}

// TestPoint tests a world point for containment in this fixture.
func (fix *B2Fixture) TestPoint(p B2Vec2) bool {
	return fix.shape.TestPoint(fix.GetBody().GetTransform(), p)
}

// RayCast casts a ray against this fixture's child shape.
func (fix *B2Fixture) RayCast(input B2RayCastInput, childIndex int) (B2RayCastOutput, bool) {
	return fix.shape.RayCast(input, fix.GetBody().GetTransform(), childIndex)
}

// GetMassData returns the mass data for this fixture. The rotational
// inertia is about the shape's origin.
func (fix *B2Fixture) GetMassData() B2MassData {
	return fix.shape.ComputeMass(fix.density)
}

// GetAABB returns the fixture's AABB as stored in the broad-phase. It is
// enlarged over the last step's motion and empty when the body is disabled.
func (fix *B2Fixture) GetAABB(childIndex int) B2AABB {
	if childIndex < 0 || childIndex >= len(fix.proxies) {
		return B2AABB{}
	}
	return fix.proxies[childIndex].aabb
}

func (fix *B2Fixture) String() string {
	return fmt.Sprintf("fixture(%s %s)", fix.id, fix.shape.GetType())
}

func (fix *B2Fixture) createProxies(broadPhase *B2BroadPhase, xf B2Transform) {
	B2Assert(len(fix.proxies) == 0)

	// Create proxies in the broad-phase.
	childCount := fix.shape.GetChildCount()
	for i := 0; i < childCount; i++ {
		proxy := &b2FixtureProxy{
			aabb:       fix.shape.ComputeAABB(xf, i),
			fixture:    fix,
			childIndex: i,
		}
		proxy.proxyId = broadPhase.CreateProxy(proxy.aabb, proxy)
		fix.proxies = append(fix.proxies, proxy)
	}
}

func (fix *B2Fixture) destroyProxies(broadPhase *B2BroadPhase) {
	// Destroy proxies in the broad-phase.
	for _, proxy := range fix.proxies {
		broadPhase.DestroyProxy(proxy.proxyId)
		proxy.proxyId = B2_nullProxy
	}

	fix.proxies = fix.proxies[:0]
}

// synchronize moves the proxies to cover the swept motion from transform1
// to transform2.
func (fix *B2Fixture) synchronize(broadPhase *B2BroadPhase, transform1, transform2 B2Transform) {
	for _, proxy := range fix.proxies {
		// Compute an AABB that covers the swept shape (may miss some rotation effect).
		aabb1 := fix.shape.ComputeAABB(transform1, proxy.childIndex)
		aabb2 := fix.shape.ComputeAABB(transform2, proxy.childIndex)

		proxy.aabb.CombineTwo(aabb1, aabb2)

		displacement := B2Vec2Sub(aabb2.GetCenter(), aabb1.GetCenter())

		broadPhase.MoveProxy(proxy.proxyId, proxy.aabb, displacement)
	}
}

// mixFriction is the friction mixing law. Either fixture can drive the
// friction to zero.
func mixFriction(friction1, friction2 float64) float64 {
	return math.Sqrt(friction1 * friction2)
}

// mixRestitution is the restitution mixing law. Anything bounces off an
// inelastic surface.
func mixRestitution(restitution1, restitution2 float64) float64 {
	return max(restitution1, restitution2)
}

// mixRestitutionThreshold favors the lowest threshold.
func mixRestitutionThreshold(threshold1, threshold2 float64) float64 {
	return min(threshold1, threshold2)
}
