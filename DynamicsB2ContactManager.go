package box2d

// b2PairKey identifies a fixture-child pair independent of argument order.
type b2PairKey struct {
	fixtureA, fixtureB b2Handle
	indexA, indexB     int
}

func makeB2PairKey(fixtureA B2FixtureId, indexA int, fixtureB B2FixtureId, indexB int) b2PairKey {
	if fixtureB.index1 < fixtureA.index1 || (fixtureB.index1 == fixtureA.index1 && indexB < indexA) {
		fixtureA, fixtureB = fixtureB, fixtureA
		indexA, indexB = indexB, indexA
	}
	return b2PairKey{fixtureA: fixtureA.b2Handle, fixtureB: fixtureB.b2Handle, indexA: indexA, indexB: indexB}
}

// B2ContactManager owns the broad-phase and the contacts created from its
// pairs.
type B2ContactManager struct {
	world *B2World

	broadPhase B2BroadPhase
	contacts   b2Arena[*B2Contact]
	pairs      map[b2PairKey]B2ContactId

	contactFilter   B2ContactFilter
	contactListener B2ContactListener
}

func makeB2ContactManager(world *B2World) B2ContactManager {
	return B2ContactManager{
		world:         world,
		broadPhase:    MakeB2BroadPhase(),
		pairs:         make(map[b2PairKey]B2ContactId),
		contactFilter: B2DefaultContactFilter{},
	}
}

func (cm *B2ContactManager) GetContactCount() int {
	return cm.contacts.len()
}

// shouldCollide applies the body rules and the user filter to a pair.
func (cm *B2ContactManager) shouldCollide(fixtureA, fixtureB *B2Fixture, bodyA, bodyB *B2Body) bool {
	// Does a joint override collision? Is at least one body dynamic?
	if !bodyB.shouldCollide(bodyA) {
		return false
	}

	// Check user filtering.
	if cm.contactFilter != nil && !cm.contactFilter.ShouldCollide(fixtureA, fixtureB) {
		return false
	}

	return true
}

// addPair is the broad-phase callback.
func (cm *B2ContactManager) addPair(proxyUserDataA, proxyUserDataB any) {
	proxyA := proxyUserDataA.(*b2FixtureProxy)
	proxyB := proxyUserDataB.(*b2FixtureProxy)

	fixtureA := proxyA.fixture
	fixtureB := proxyB.fixture

	indexA := proxyA.childIndex
	indexB := proxyB.childIndex

	// Are the fixtures on the same body?
	if fixtureA.body == fixtureB.body {
		return
	}

	// Does a contact already exist?
	key := makeB2PairKey(fixtureA.id, indexA, fixtureB.id, indexB)
	if _, ok := cm.pairs[key]; ok {
		return
	}

	bodyA := fixtureA.GetBody()
	bodyB := fixtureB.GetBody()
	if !cm.shouldCollide(fixtureA, fixtureB, bodyA, bodyB) {
		return
	}

	// Call the factory.
	c := newB2Contact(fixtureA, indexA, fixtureB, indexB)
	if c == nil {
		return
	}

	c.id = B2ContactId{cm.contacts.alloc(c)}
	cm.pairs[key] = c.id

	// Connect to the bodies.
	bodyA.contacts = append(bodyA.contacts, c.id)
	bodyB.contacts = append(bodyB.contacts, c.id)
}

// FindNewContacts commits the broad-phase moves and creates contacts for
// new pairs.
func (cm *B2ContactManager) FindNewContacts() {
	cm.broadPhase.UpdatePairs(cm.addPair)
}

// destroy removes a contact, reporting EndContact if it was touching.
func (cm *B2ContactManager) destroy(c *B2Contact) {
	fixtureA := c.GetFixtureA()
	fixtureB := c.GetFixtureB()
	bodyA := c.GetBodyA()
	bodyB := c.GetBodyB()

	if cm.contactListener != nil && c.IsTouching() {
		cm.contactListener.EndContact(c)
	}

	if c.manifold.PointCount > 0 && !fixtureA.isSensor && !fixtureB.isSensor {
		bodyA.SetAwake(true)
		bodyB.SetAwake(true)
	}

	delete(cm.pairs, makeB2PairKey(c.fixtureA, c.indexA, c.fixtureB, c.indexB))

	bodyA.contacts = removeHandle(bodyA.contacts, c.id)
	bodyB.contacts = removeHandle(bodyB.contacts, c.id)

	cm.contacts.release(c.id.b2Handle)
}

// Collide is the top level collision call for the time step. Here all the
// narrow phase collision is processed for the world contact list.
func (cm *B2ContactManager) Collide() {
	cm.contacts.each(func(c *B2Contact) bool {
		fixtureA := c.GetFixtureA()
		fixtureB := c.GetFixtureB()
		bodyA := c.GetBodyA()
		bodyB := c.GetBodyB()

		// Is this contact flagged for filtering?
		if c.flags&b2Contact_filterFlag != 0 {
			if !cm.shouldCollide(fixtureA, fixtureB, bodyA, bodyB) {
				cm.destroy(c)
				return true
			}

			// Clear the filtering flag.
			c.flags &^= b2Contact_filterFlag
		}

		activeA := bodyA.IsAwake() && bodyA.bodyType != B2_staticBody
		activeB := bodyB.IsAwake() && bodyB.bodyType != B2_staticBody

		// At least one body must be awake and it must be dynamic or kinematic.
		if !activeA && !activeB {
			return true
		}

		proxyA := fixtureA.proxies[c.indexA]
		proxyB := fixtureB.proxies[c.indexB]

		// Here we destroy contacts that cease to overlap in the broad-phase,
		// once the tight bounds confirm the separation.
		if !cm.broadPhase.TestOverlap(proxyA.proxyId, proxyB.proxyId) {
			aabbA := fixtureA.shape.ComputeAABB(bodyA.xf, c.indexA)
			aabbB := fixtureB.shape.ComputeAABB(bodyB.xf, c.indexB)
			if !B2TestOverlapAABB(aabbA, aabbB) {
				cm.destroy(c)
				return true
			}
		}

		// The contact persists.
		c.update(cm.contactListener)
		return true
	})
}
