package box2d

import (
	"fmt"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"
)

// B2World manages all physics entities, dynamic simulation, and queries.
// Bodies, fixtures and joints live in arenas addressed by generation
// checked ids. A world is not safe for concurrent use.
type B2World struct {
	bodies   b2Arena[*B2Body]
	fixtures b2Arena[*B2Fixture]
	joints   b2Arena[B2Joint]

	contactManager B2ContactManager

	gravity    B2Vec2
	allowSleep bool

	destructionListener B2DestructionListener
	debugDraw           B2Draw

	// This is used to compute the time step ratio to
	// support a variable time step.
	inv_dt0 float64

	locked          bool
	newContacts     bool
	autoClearForces bool

	// These are for debugging the solver.
	warmStarting      bool
	continuousPhysics bool
	subStepping       bool

	stepComplete bool

	islandWorkers int
	islands       []*b2Island
	toiIsland     *b2Island

	serial uint64

	profile B2Profile
}

// NewB2World constructs a world with the given gravity.
func NewB2World(gravity B2Vec2) *B2World {
	world := &B2World{
		gravity:           gravity,
		allowSleep:        true,
		autoClearForces:   true,
		warmStarting:      true,
		continuousPhysics: true,
		stepComplete:      true,
		islandWorkers:     1,
		toiIsland:         newB2Island(),
	}
	world.contactManager = makeB2ContactManager(world)
	return world
}

func (world *B2World) nextSerial() uint64 {
	world.serial++
	return world.serial
}

// IsLocked reports whether the world is in the middle of a time step or a
// query callback.
func (world *B2World) IsLocked() bool {
	return world.locked
}

// lock marks the world busy for the duration of a callback section and
// returns the function that restores the previous state.
func (world *B2World) lock() func() {
	was := world.locked
	world.locked = true
	return func() { world.locked = was }
}

// SetDestructionListener registers the listener notified of implicit
// fixture and joint destruction.
func (world *B2World) SetDestructionListener(listener B2DestructionListener) {
	world.destructionListener = listener
}

// SetContactFilter registers a contact filter. Nil restores the default
// filter.
func (world *B2World) SetContactFilter(filter B2ContactFilter) {
	if filter == nil {
		filter = B2DefaultContactFilter{}
	}
	world.contactManager.contactFilter = filter
}

func (world *B2World) SetContactListener(listener B2ContactListener) {
	world.contactManager.contactListener = listener
}

// SetDebugDraw registers the debug draw target used by DebugDraw.
func (world *B2World) SetDebugDraw(draw B2Draw) {
	world.debugDraw = draw
}

func (world *B2World) SetGravity(gravity B2Vec2) {
	world.gravity = gravity
}

func (world *B2World) GetGravity() B2Vec2 {
	return world.gravity
}

// SetAllowSleeping enables or disables sleep. Disabling wakes every body.
func (world *B2World) SetAllowSleeping(flag bool) {
	if flag == world.allowSleep {
		return
	}

	world.allowSleep = flag
	if !world.allowSleep {
		world.bodies.each(func(b *B2Body) bool {
			b.SetAwake(true)
			return true
		})
	}
}

func (world *B2World) GetAllowSleeping() bool {
	return world.allowSleep
}

func (world *B2World) SetWarmStarting(flag bool) {
	world.warmStarting = flag
}

func (world *B2World) GetWarmStarting() bool {
	return world.warmStarting
}

func (world *B2World) SetContinuousPhysics(flag bool) {
	world.continuousPhysics = flag
}

func (world *B2World) GetContinuousPhysics() bool {
	return world.continuousPhysics
}

func (world *B2World) SetSubStepping(flag bool) {
	world.subStepping = flag
}

func (world *B2World) GetSubStepping() bool {
	return world.subStepping
}

// SetAutoClearForces sets whether forces are cleared after each step.
func (world *B2World) SetAutoClearForces(flag bool) {
	world.autoClearForces = flag
}

func (world *B2World) GetAutoClearForces() bool {
	return world.autoClearForces
}

// SetIslandWorkers sets how many islands may be solved concurrently. Values
// below 2 solve islands on the calling goroutine.
func (world *B2World) SetIslandWorkers(n int) {
	world.islandWorkers = max(n, 1)
}

func (world *B2World) GetIslandWorkers() int {
	return world.islandWorkers
}

// GetProfile returns the timings of the last step.
func (world *B2World) GetProfile() B2Profile {
	return world.profile
}

// CreateBody creates a rigid body. No reference to the definition is kept.
func (world *B2World) CreateBody(def *B2BodyDef) (*B2Body, error) {
	if world.locked {
		return nil, ErrWorldLocked
	}

	if err := validateBodyDef(def); err != nil {
		return nil, err
	}

	body := newB2Body(world, def)
	body.id = B2BodyId{world.bodies.alloc(body)}
	body.serial = world.nextSerial()
	return body, nil
}

// DestroyBody destroys a body with its fixtures, contacts and joints. The
// destruction listener hears about the joints and fixtures.
func (world *B2World) DestroyBody(body *B2Body) error {
	if world.locked {
		return ErrWorldLocked
	}

	if body == nil || world.bodies.get(body.id.b2Handle) != body {
		return fmt.Errorf("box2d: destroy body: %w", ErrStaleHandle)
	}

	// Delete the attached joints.
	for _, id := range slices.Clone(body.joints) {
		j := world.joints.get(id.b2Handle)
		if j == nil {
			// Already removed with a gear it drove.
			continue
		}

		if world.destructionListener != nil {
			world.destructionListener.SayGoodbyeToJoint(j)
		}

		world.destroyJoint(j)
	}

	// Delete the attached contacts.
	body.destroyContacts()

	// Delete the attached fixtures. This destroys broad-phase proxies.
	for _, f := range body.GetFixtures() {
		if world.destructionListener != nil {
			world.destructionListener.SayGoodbyeToFixture(f)
		}

		body.destroyFixture(f)
	}

	world.bodies.release(body.id.b2Handle)
	return nil
}

// CreateJoint creates a joint to constrain bodies together. No reference
// to the definition is kept. Contacts between the bodies are flagged for
// filtering when the joint does not collide connected bodies.
func (world *B2World) CreateJoint(def B2JointDefInterface) (B2Joint, error) {
	if world.locked {
		return nil, ErrWorldLocked
	}

	if gear, ok := def.(*B2GearJointDef); ok {
		if err := gear.resolveBodies(world); err != nil {
			return nil, err
		}
	}

	jd := def.jointDef()
	if jd.Type == B2_unknownJoint {
		return nil, fmt.Errorf("box2d: joint definition has no type: %w", ErrInvalidJointDef)
	}

	bodyA := world.bodies.get(jd.BodyA.b2Handle)
	bodyB := world.bodies.get(jd.BodyB.b2Handle)
	if bodyA == nil || bodyB == nil {
		return nil, fmt.Errorf("box2d: %s joint bodies %s %s: %w", jd.Type, jd.BodyA, jd.BodyB, ErrInvalidBody)
	}
	if bodyA == bodyB {
		return nil, fmt.Errorf("box2d: %s joint connects %s to itself: %w", jd.Type, bodyA, ErrInvalidJointDef)
	}

	j, err := def.create(world)
	if err != nil {
		return nil, err
	}

	base := j.base()
	base.id = B2JointId{world.joints.alloc(j)}
	base.serial = world.nextSerial()

	// Connect to the bodies.
	bodyA.joints = append(bodyA.joints, base.id)
	bodyB.joints = append(bodyB.joints, base.id)

	// If the joint prevents collisions, then flag any contacts for filtering.
	if !base.collideConnected {
		world.flagContactsBetween(bodyA, bodyB)
	}

	base.wakeBodies()
	return j, nil
}

// DestroyJoint destroys a joint and every gear joint it drives. The
// destruction listener hears about the gears only. This may cause the
// connected bodies to begin colliding.
func (world *B2World) DestroyJoint(j B2Joint) error {
	if world.locked {
		return ErrWorldLocked
	}

	if j == nil || world.joints.get(j.Id().b2Handle) != j {
		return fmt.Errorf("box2d: destroy joint: %w", ErrStaleHandle)
	}

	world.destroyJoint(j)
	return nil
}

func (world *B2World) destroyJoint(j B2Joint) {
	base := j.base()

	// Gears lose their meaning without the joints driving them.
	var gears []B2Joint
	world.joints.each(func(other B2Joint) bool {
		if gear, ok := other.(*B2GearJoint); ok && gear.dependsOn(base.id) {
			gears = append(gears, gear)
		}
		return true
	})
	for _, gear := range gears {
		if world.destructionListener != nil {
			world.destructionListener.SayGoodbyeToJoint(gear)
		}
		world.destroyJoint(gear)
	}

	bodyA := base.GetBodyA()
	bodyB := base.GetBodyB()

	// Wake up connected bodies.
	bodyA.SetAwake(true)
	bodyB.SetAwake(true)

	bodyA.joints = removeHandle(bodyA.joints, base.id)
	bodyB.joints = removeHandle(bodyB.joints, base.id)

	world.joints.release(base.id.b2Handle)

	// If the joint prevented collisions, then flag any contacts for filtering.
	if !base.collideConnected {
		world.flagContactsBetween(bodyA, bodyB)
	}
}

func (world *B2World) flagContactsBetween(bodyA, bodyB *B2Body) {
	for _, c := range bodyB.GetContacts() {
		if c.otherBody(bodyB.id) == bodyA {
			c.FlagForFiltering()
		}
	}
}

// GetBody returns the body for an id, or nil if the body was destroyed.
func (world *B2World) GetBody(id B2BodyId) *B2Body {
	return world.bodies.get(id.b2Handle)
}

// GetFixture returns the fixture for an id, or nil if it was destroyed.
func (world *B2World) GetFixture(id B2FixtureId) *B2Fixture {
	return world.fixtures.get(id.b2Handle)
}

// GetJoint returns the joint for an id, or nil if it was destroyed.
func (world *B2World) GetJoint(id B2JointId) B2Joint {
	return world.joints.get(id.b2Handle)
}

// GetContact returns the contact for an id, or nil if it was destroyed.
func (world *B2World) GetContact(id B2ContactId) *B2Contact {
	return world.contactManager.contacts.get(id.b2Handle)
}

// GetBodies returns the live bodies in creation order.
func (world *B2World) GetBodies() []*B2Body {
	bodies := make([]*B2Body, 0, world.bodies.len())
	world.bodies.each(func(b *B2Body) bool {
		bodies = append(bodies, b)
		return true
	})
	slices.SortFunc(bodies, func(a, b *B2Body) int { return compareSerial(a.serial, b.serial) })
	return bodies
}

// GetJoints returns the live joints in creation order.
func (world *B2World) GetJoints() []B2Joint {
	joints := make([]B2Joint, 0, world.joints.len())
	world.joints.each(func(j B2Joint) bool {
		joints = append(joints, j)
		return true
	})
	slices.SortFunc(joints, func(a, b B2Joint) int { return compareSerial(a.base().serial, b.base().serial) })
	return joints
}

// GetContacts returns the live contacts, touching or not.
func (world *B2World) GetContacts() []*B2Contact {
	contacts := make([]*B2Contact, 0, world.contactManager.contacts.len())
	world.contactManager.contacts.each(func(c *B2Contact) bool {
		contacts = append(contacts, c)
		return true
	})
	return contacts
}

func compareSerial(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (world *B2World) GetBodyCount() int {
	return world.bodies.len()
}

func (world *B2World) GetJointCount() int {
	return world.joints.len()
}

func (world *B2World) GetContactCount() int {
	return world.contactManager.GetContactCount()
}

// GetProxyCount returns the number of broad-phase proxies.
func (world *B2World) GetProxyCount() int {
	return world.contactManager.broadPhase.GetProxyCount()
}

// GetTreeHeight returns the height of the dynamic tree.
func (world *B2World) GetTreeHeight() int {
	return world.contactManager.broadPhase.GetTreeHeight()
}

// GetTreeBalance returns the balance of the dynamic tree.
func (world *B2World) GetTreeBalance() int {
	return world.contactManager.broadPhase.GetTreeBalance()
}

// GetTreeQuality returns the ratio of the sum of the node areas to the
// root area.
func (world *B2World) GetTreeQuality() float64 {
	return world.contactManager.broadPhase.GetTreeQuality()
}

// nextIsland hands out the island for the n-th connected group of the step.
func (world *B2World) nextIsland(n int) *b2Island {
	if n == len(world.islands) {
		world.islands = append(world.islands, newB2Island())
	}
	island := world.islands[n]
	island.clear()
	return island
}

// jointBodies returns the bodies a joint couples, including the base
// bodies of a gear.
func jointBodies(j B2Joint) []*B2Body {
	if gear, ok := j.(*B2GearJoint); ok {
		return []*B2Body{gear.GetBodyA(), gear.GetBodyB(), gear.GetBodyC(), gear.GetBodyD()}
	}
	return []*B2Body{j.GetBodyA(), j.GetBodyB()}
}

// buildIslands flood fills the awake bodies into islands over touching
// contacts and joints. Static bodies are anchors: they join every island
// that touches them but never propagate.
func (world *B2World) buildIslands() []*b2Island {
	cm := &world.contactManager

	// Clear all the island flags.
	world.bodies.each(func(b *B2Body) bool {
		b.flags &^= b2Body_islandFlag
		return true
	})
	cm.contacts.each(func(c *B2Contact) bool {
		c.flags &^= b2Contact_islandFlag
		return true
	})
	world.joints.each(func(j B2Joint) bool {
		j.base().islandFlag = false
		return true
	})

	count := 0
	stack := make([]*B2Body, 0, world.bodies.len())

	world.bodies.each(func(seed *B2Body) bool {
		if seed.flags&b2Body_islandFlag != 0 {
			return true
		}

		if !seed.IsAwake() || !seed.IsEnabled() {
			return true
		}

		// The seed can be dynamic or kinematic.
		if seed.bodyType == B2_staticBody {
			return true
		}

		island := world.nextIsland(count)
		count++

		stack = append(stack[:0], seed)
		seed.flags |= b2Body_islandFlag

		// Perform a depth first search (DFS) on the constraint graph.
		for len(stack) > 0 {
			b := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			island.addBody(b)

			// Make sure the body is awake (without resetting sleep timer).
			b.flags |= b2Body_awakeFlag

			visit := func(other *B2Body) {
				if other.bodyType == B2_staticBody {
					island.addAnchor(other)
					return
				}

				if other.flags&b2Body_islandFlag != 0 {
					return
				}

				stack = append(stack, other)
				other.flags |= b2Body_islandFlag
			}

			// Search all contacts connected to this body.
			for _, id := range b.contacts {
				contact := cm.contacts.get(id.b2Handle)

				// Has this contact already been added to an island?
				if contact.flags&b2Contact_islandFlag != 0 {
					continue
				}

				// Is this contact solid and touching?
				if !contact.IsEnabled() || !contact.IsTouching() {
					continue
				}

				// Skip sensors.
				if contact.GetFixtureA().isSensor || contact.GetFixtureB().isSensor {
					continue
				}

				island.addContact(contact)
				contact.flags |= b2Contact_islandFlag

				visit(contact.otherBody(b.id))
			}

			// Search all joints connect to this body.
			for _, id := range b.joints {
				j := world.joints.get(id.b2Handle)
				base := j.base()
				if base.islandFlag {
					continue
				}

				coupled := jointBodies(j)

				// Don't simulate joints connected to disabled bodies.
				enabled := true
				for _, other := range coupled {
					enabled = enabled && other.IsEnabled()
				}
				if !enabled {
					continue
				}

				island.addJoint(j)
				base.islandFlag = true

				for _, other := range coupled {
					if other != b {
						visit(other)
					}
				}
			}
		}

		return true
	})

	return world.islands[:count]
}

// solveIsland turns an assertion raised by the island solver into an
// error so it reaches the Step caller whichever goroutine ran the island.
func solveIsland(i int, island *b2Island, step B2TimeStep, gravity B2Vec2, allowSleep bool) (profile B2Profile, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("box2d: island %d: %v: %w", i, r, ErrIslandSolve)
		}
	}()
	return island.solve(step, gravity, allowSleep), nil
}

// solve builds the islands of the step, solves them, and commits the
// motion to the broad-phase.
func (world *B2World) solve(step B2TimeStep) error {
	world.profile.SolveInit = 0.0
	world.profile.SolveVelocity = 0.0
	world.profile.SolvePosition = 0.0

	islands := world.buildIslands()
	profiles := make([]B2Profile, len(islands))

	allowSleep := world.allowSleep
	gravity := world.gravity

	var err error
	if world.islandWorkers > 1 && len(islands) > 1 {
		// Islands share no mutable state.
		var g errgroup.Group
		g.SetLimit(world.islandWorkers)
		for i, island := range islands {
			i, island := i, island
			g.Go(func() error {
				var err error
				profiles[i], err = solveIsland(i, island, step, gravity, allowSleep)
				return err
			})
		}
		err = g.Wait()
	} else {
		for i, island := range islands {
			if profiles[i], err = solveIsland(i, island, step, gravity, allowSleep); err != nil {
				break
			}
		}
	}
	if err != nil {
		return err
	}

	listener := world.contactManager.contactListener
	for i, island := range islands {
		world.profile.accumulate(profiles[i])
		island.flushReports(listener)
	}

	{
		timer := MakeB2Timer()

		// Synchronize fixtures, check for out of range bodies.
		world.bodies.each(func(b *B2Body) bool {
			// If a body was not in an island then it did not move.
			if b.flags&b2Body_islandFlag == 0 || b.bodyType == B2_staticBody {
				return true
			}

			// Update fixtures (for broad-phase).
			b.synchronizeFixtures()
			return true
		})

		// Look for new contacts.
		world.contactManager.FindNewContacts()
		world.profile.Broadphase = timer.GetMilliseconds()
	}
	return nil
}

// computeTOI returns the cached or freshly computed time of impact of a
// contact as a fraction of the step, and false when the contact does not
// need continuous handling.
func (world *B2World) computeTOI(c *B2Contact) (float64, bool) {
	if c.flags&b2Contact_toiFlag != 0 {
		// This contact has a valid cached TOI.
		return c.toi, true
	}

	fA := c.GetFixtureA()
	fB := c.GetFixtureB()

	// Is there a sensor?
	if fA.isSensor || fB.isSensor {
		return 1.0, false
	}

	bA := fA.GetBody()
	bB := fB.GetBody()

	typeA := bA.bodyType
	typeB := bB.bodyType
	B2Assert(typeA == B2_dynamicBody || typeB == B2_dynamicBody)

	activeA := bA.IsAwake() && typeA != B2_staticBody
	activeB := bB.IsAwake() && typeB != B2_staticBody

	// Is at least one body active (awake and dynamic or kinematic)?
	if !activeA && !activeB {
		return 1.0, false
	}

	collideA := bA.IsBullet() || typeA != B2_dynamicBody
	collideB := bB.IsBullet() || typeB != B2_dynamicBody

	// Are these two non-bullet dynamic bodies?
	if !collideA && !collideB {
		return 1.0, false
	}

	// Compute the TOI for this contact.
	// Put the sweeps onto the same time interval.
	alpha0 := bA.sweep.Alpha0

	if bA.sweep.Alpha0 < bB.sweep.Alpha0 {
		alpha0 = bB.sweep.Alpha0
		bA.sweep.Advance(alpha0)
	} else if bB.sweep.Alpha0 < bA.sweep.Alpha0 {
		alpha0 = bA.sweep.Alpha0
		bB.sweep.Advance(alpha0)
	}

	B2Assert(alpha0 < 1.0)

	// Compute the time of impact in interval [0, minTOI]
	input := B2TOIInput{
		ProxyA: MakeB2DistanceProxy(fA.shape, c.indexA),
		ProxyB: MakeB2DistanceProxy(fB.shape, c.indexB),
		SweepA: bA.sweep,
		SweepB: bB.sweep,
		TMax:   1.0,
	}

	output := B2TimeOfImpact(&input)

	// Beta is the fraction of the remaining portion of the step.
	alpha := 1.0
	if output.State == B2TOIOutput_Touching {
		alpha = math.Min(alpha0+(1.0-alpha0)*output.T, 1.0)
	}

	c.toi = alpha
	c.flags |= b2Contact_toiFlag
	return alpha, true
}

// solveTOI finds TOI contacts and solves them, earliest first.
func (world *B2World) solveTOI(step B2TimeStep) {
	cm := &world.contactManager
	listener := cm.contactListener
	island := world.toiIsland

	if world.stepComplete {
		world.bodies.each(func(b *B2Body) bool {
			b.flags &^= b2Body_islandFlag
			b.sweep.Alpha0 = 0.0
			return true
		})

		cm.contacts.each(func(c *B2Contact) bool {
			// Invalidate TOI
			c.flags &^= b2Contact_toiFlag | b2Contact_islandFlag
			c.toiCount = 0
			c.toi = 1.0
			return true
		})
	}

	// Find TOI events and solve them.
	for {
		// Find the first TOI.
		var minContact *B2Contact
		minAlpha := 1.0

		cm.contacts.each(func(c *B2Contact) bool {
			// Is this contact disabled?
			if !c.IsEnabled() {
				return true
			}

			// Prevent excessive sub-stepping.
			if c.toiCount > B2_maxSubSteps {
				return true
			}

			alpha, ok := world.computeTOI(c)
			if ok && alpha < minAlpha {
				// This is the minimum TOI found so far.
				minContact = c
				minAlpha = alpha
			}
			return true
		})

		if minContact == nil || 1.0-10.0*B2_epsilon < minAlpha {
			// No more TOI events. Done!
			world.stepComplete = true
			break
		}

		// Advance the bodies to the TOI.
		bA := minContact.GetBodyA()
		bB := minContact.GetBodyB()

		backup1 := bA.sweep
		backup2 := bB.sweep

		bA.advance(minAlpha)
		bB.advance(minAlpha)

		// The TOI contact likely has some new contact points.
		minContact.update(listener)
		minContact.flags &^= b2Contact_toiFlag
		minContact.toiCount++

		// Is the contact solid?
		if !minContact.IsEnabled() || !minContact.IsTouching() {
			// Restore the sweeps.
			minContact.SetEnabled(false)
			bA.sweep = backup1
			bB.sweep = backup2
			bA.synchronizeTransform()
			bB.synchronizeTransform()
			continue
		}

		bA.SetAwake(true)
		bB.SetAwake(true)

		// Build the island
		island.clear()
		island.addBody(bA)
		island.addBody(bB)
		island.addContact(minContact)

		bA.flags |= b2Body_islandFlag
		bB.flags |= b2Body_islandFlag
		minContact.flags |= b2Contact_islandFlag

		// Get contacts on bodyA and bodyB.
		for _, body := range [2]*B2Body{bA, bB} {
			if body.bodyType == B2_dynamicBody {
				world.gatherTOIContacts(island, body, minAlpha)
			}
		}

		dt := (1.0 - minAlpha) * step.Dt
		subStep := B2TimeStep{
			Dt:                 dt,
			Inv_dt:             1.0 / dt,
			DtRatio:            1.0,
			PositionIterations: 20,
			VelocityIterations: step.VelocityIterations,
			WarmStarting:       false,
		}
		island.solveTOI(subStep, island.indexOf(bA), island.indexOf(bB))
		island.flushReports(listener)

		// Reset island flags and synchronize broad-phase proxies.
		for _, body := range append(slices.Clone(island.bodies), island.anchors...) {
			body.flags &^= b2Body_islandFlag

			if body.bodyType != B2_dynamicBody {
				continue
			}

			body.synchronizeFixtures()

			// Invalidate all contact TOIs on this displaced body.
			for _, c := range body.GetContacts() {
				c.flags &^= b2Contact_toiFlag | b2Contact_islandFlag
			}
		}

		// Commit fixture proxy movements to the broad-phase so that new contacts are created.
		// Also, some contacts can be destroyed.
		cm.FindNewContacts()

		if world.subStepping {
			world.stepComplete = false
			break
		}
	}
}

// gatherTOIContacts adds the solid contacts of body with static, kinematic
// or bullet bodies to the TOI island, advancing those bodies to alpha.
func (world *B2World) gatherTOIContacts(island *b2Island, body *B2Body, alpha float64) {
	listener := world.contactManager.contactListener

	for _, contact := range body.GetContacts() {
		if island.bodyCount() == 2*B2_maxTOIContacts || len(island.contacts) == B2_maxTOIContacts {
			break
		}

		// Has this contact already been added to the island?
		if contact.flags&b2Contact_islandFlag != 0 {
			continue
		}

		// Only add static, kinematic, or bullet bodies.
		other := contact.otherBody(body.id)
		if other.bodyType == B2_dynamicBody && !body.IsBullet() && !other.IsBullet() {
			continue
		}

		// Skip sensors.
		if contact.GetFixtureA().isSensor || contact.GetFixtureB().isSensor {
			continue
		}

		// Tentatively advance the body to the TOI.
		backup := other.sweep
		if other.flags&b2Body_islandFlag == 0 {
			other.advance(alpha)
		}

		// Update the contact points
		contact.update(listener)

		// Was the contact disabled by the user? Are there contact points?
		if !contact.IsEnabled() || !contact.IsTouching() {
			other.sweep = backup
			other.synchronizeTransform()
			continue
		}

		// Add the contact to the island
		contact.flags |= b2Contact_islandFlag
		island.addContact(contact)

		// Has the other body already been added to the island?
		if other.flags&b2Body_islandFlag != 0 {
			continue
		}

		// Add the other body to the island.
		other.flags |= b2Body_islandFlag

		if other.bodyType != B2_staticBody {
			other.SetAwake(true)
		}

		island.addBody(other)
	}
}

// Step advances the world by dt. This performs collision detection,
// integration, and constraint solution. Calling it from a callback of the
// same world returns ErrWorldLocked. An assertion raised while solving an
// island is returned wrapped in ErrIslandSolve.
func (world *B2World) Step(dt float64, velocityIterations int, positionIterations int) error {
	if world.locked {
		return ErrWorldLocked
	}

	stepTimer := MakeB2Timer()

	// If new fixtures were added, we need to find the new contacts.
	if world.newContacts {
		world.contactManager.FindNewContacts()
		world.newContacts = false
	}

	world.locked = true
	defer func() { world.locked = false }()

	step := B2TimeStep{
		Dt:                 dt,
		VelocityIterations: velocityIterations,
		PositionIterations: positionIterations,
		WarmStarting:       world.warmStarting,
	}
	if dt > 0.0 {
		step.Inv_dt = 1.0 / dt
	}
	step.DtRatio = world.inv_dt0 * dt

	// Update contacts. This is where some contacts are destroyed.
	{
		timer := MakeB2Timer()
		world.contactManager.Collide()
		world.profile.Collide = timer.GetMilliseconds()
	}

	// Integrate velocities, solve velocity constraints, and integrate positions.
	if world.stepComplete && step.Dt > 0.0 {
		timer := MakeB2Timer()
		if err := world.solve(step); err != nil {
			return err
		}
		world.profile.Solve = timer.GetMilliseconds()
	}

	// Handle TOI events.
	if world.continuousPhysics && step.Dt > 0.0 {
		timer := MakeB2Timer()
		world.solveTOI(step)
		world.profile.SolveTOI = timer.GetMilliseconds()
	}

	if step.Dt > 0.0 {
		world.inv_dt0 = step.Inv_dt
	}

	if world.autoClearForces {
		world.ClearForces()
	}

	world.profile.Step = stepTimer.GetMilliseconds()
	return nil
}

// ClearForces zeroes the accumulated forces of every body. Step calls it
// unless auto clearing is disabled, which allows a force to be applied
// over several sub-steps.
func (world *B2World) ClearForces() {
	world.bodies.each(func(b *B2Body) bool {
		b.force.SetZero()
		b.torque = 0.0
		return true
	})
}

// QueryAABB calls back for every fixture whose fat AABB overlaps aabb.
// The world is locked during the callbacks.
func (world *B2World) QueryAABB(callback B2QueryCallback, aabb B2AABB) {
	defer world.lock()()

	broadPhase := &world.contactManager.broadPhase
	broadPhase.Query(func(proxyId int) bool {
		proxy := broadPhase.GetUserData(proxyId).(*b2FixtureProxy)
		return callback(proxy.fixture)
	}, aabb)
}

// RayCast calls back for every fixture hit by the segment from point1 to
// point2. The callback controls the cast through its return value. A zero
// length segment hits nothing. The world is locked during the callbacks.
func (world *B2World) RayCast(callback B2RayCastCallback, point1 B2Vec2, point2 B2Vec2) {
	if B2Vec2Equals(point1, point2) {
		return
	}

	defer world.lock()()

	broadPhase := &world.contactManager.broadPhase
	input := B2RayCastInput{P1: point1, P2: point2, MaxFraction: 1.0}

	broadPhase.RayCast(func(input B2RayCastInput, proxyId int) float64 {
		proxy := broadPhase.GetUserData(proxyId).(*b2FixtureProxy)
		fixture := proxy.fixture

		output, hit := fixture.RayCast(input, proxy.childIndex)
		if !hit {
			return input.MaxFraction
		}

		fraction := output.Fraction
		point := B2Vec2Add(B2Vec2MulScalar(1.0-fraction, input.P1), B2Vec2MulScalar(fraction, input.P2))
		return callback(fixture, point, output.Normal, fraction)
	}, input)
}

// B2RayHit is a fixture intersected by a ray.
type B2RayHit struct {
	Fixture  *B2Fixture
	Point    B2Vec2
	Normal   B2Vec2
	Fraction float64
}

// RayCastClosest returns the first fixture along the segment.
func (world *B2World) RayCastClosest(point1, point2 B2Vec2) (B2RayHit, bool) {
	var closest B2RayHit
	found := false

	world.RayCast(func(fixture *B2Fixture, point, normal B2Vec2, fraction float64) float64 {
		closest = B2RayHit{Fixture: fixture, Point: point, Normal: normal, Fraction: fraction}
		found = true
		return fraction
	}, point1, point2)

	return closest, found
}

// RayCastAll returns every fixture along the segment ordered by distance
// from point1.
func (world *B2World) RayCastAll(point1, point2 B2Vec2) []B2RayHit {
	var hits []B2RayHit

	world.RayCast(func(fixture *B2Fixture, point, normal B2Vec2, fraction float64) float64 {
		hits = append(hits, B2RayHit{Fixture: fixture, Point: point, Normal: normal, Fraction: fraction})
		return 1.0
	}, point1, point2)

	slices.SortFunc(hits, func(a, b B2RayHit) int {
		switch {
		case a.Fraction < b.Fraction:
			return -1
		case a.Fraction > b.Fraction:
			return 1
		}
		return 0
	})
	return hits
}

// ShiftOrigin moves the world origin. Useful for large worlds. The body
// shift formula is: position -= newOrigin.
func (world *B2World) ShiftOrigin(newOrigin B2Vec2) error {
	if world.locked {
		return ErrWorldLocked
	}

	world.bodies.each(func(b *B2Body) bool {
		b.xf.P.OperatorMinusInplace(newOrigin)
		b.sweep.C0.OperatorMinusInplace(newOrigin)
		b.sweep.C.OperatorMinusInplace(newOrigin)
		return true
	})

	world.joints.each(func(j B2Joint) bool {
		j.ShiftOrigin(newOrigin)
		return true
	})

	world.contactManager.broadPhase.ShiftOrigin(newOrigin)
	return nil
}
