package box2d

import (
	"math"
)

// b2ContactReport is a post-solve notification held back until every
// island of the step has been solved.
type b2ContactReport struct {
	contact *B2Contact
	impulse B2ContactImpulse
}

// b2Island is a set of bodies connected by touching contacts and joints,
// solved together. Non-static bodies belong to exactly one island per step
// and are addressed by their islandIndex. Static bodies are anchors: they
// may appear in several islands, so each island indexes them itself and
// never writes their state back.
type b2Island struct {
	bodies   []*B2Body
	anchors  []*B2Body
	contacts []*B2Contact
	joints   []B2Joint

	anchorIndex map[*B2Body]int

	positions  []B2Position
	velocities []B2Velocity

	reports []b2ContactReport
}

func newB2Island() *b2Island {
	return &b2Island{anchorIndex: make(map[*B2Body]int)}
}

func (island *b2Island) clear() {
	island.bodies = island.bodies[:0]
	island.anchors = island.anchors[:0]
	island.contacts = island.contacts[:0]
	island.joints = island.joints[:0]
	island.reports = island.reports[:0]
	clear(island.anchorIndex)
}

func (island *b2Island) addBody(body *B2Body) {
	if body.bodyType == B2_staticBody {
		island.addAnchor(body)
		return
	}
	body.islandIndex = len(island.bodies)
	island.bodies = append(island.bodies, body)
}

func (island *b2Island) addAnchor(body *B2Body) {
	if _, ok := island.anchorIndex[body]; ok {
		return
	}
	island.anchorIndex[body] = len(island.anchors)
	island.anchors = append(island.anchors, body)
}

func (island *b2Island) addContact(contact *B2Contact) {
	island.contacts = append(island.contacts, contact)
}

func (island *b2Island) addJoint(joint B2Joint) {
	island.joints = append(island.joints, joint)
}

// indexOf returns the solver index of a body of this island. Anchors follow
// the members.
func (island *b2Island) indexOf(body *B2Body) int {
	if body.bodyType == B2_staticBody {
		k, ok := island.anchorIndex[body]
		B2Assert(ok)
		return len(island.bodies) + k
	}
	return body.islandIndex
}

func (island *b2Island) bodyCount() int {
	return len(island.bodies) + len(island.anchors)
}

// loadState fills the solver arrays from the bodies. Anchors are at rest.
func (island *b2Island) loadState() {
	n := island.bodyCount()
	if cap(island.positions) < n {
		island.positions = make([]B2Position, n)
		island.velocities = make([]B2Velocity, n)
	}
	island.positions = island.positions[:n]
	island.velocities = island.velocities[:n]
	clear(island.velocities)

	for i, b := range island.bodies {
		island.positions[i] = B2Position{C: b.sweep.C, A: b.sweep.A}
		island.velocities[i] = B2Velocity{V: b.linearVelocity, W: b.angularVelocity}
	}

	for k, b := range island.anchors {
		island.positions[len(island.bodies)+k] = B2Position{C: b.sweep.C, A: b.sweep.A}
	}
}

func (island *b2Island) solverData(step B2TimeStep) B2SolverData {
	return B2SolverData{
		Step:       step,
		Positions:  island.positions,
		Velocities: island.velocities,
		island:     island,
	}
}

func (island *b2Island) contactSolver(step B2TimeStep) B2ContactSolver {
	return MakeB2ContactSolver(&B2ContactSolverDef{
		Step:       step,
		Contacts:   island.contacts,
		Positions:  island.positions,
		Velocities: island.velocities,
		island:     island,
	})
}

// integratePositions advances positions by the solved velocities, clamping
// large motions.
func (island *b2Island) integratePositions(h float64) {
	for i := range island.bodies {
		c := island.positions[i].C
		a := island.positions[i].A
		v := island.velocities[i].V
		w := island.velocities[i].W

		// Check for large velocities
		translation := B2Vec2MulScalar(h, v)
		if B2Vec2Dot(translation, translation) > B2_maxTranslationSquared {
			ratio := B2_maxTranslation / translation.Length()
			v.OperatorScalarMulInplace(ratio)
		}

		rotation := h * w
		if rotation*rotation > B2_maxRotationSquared {
			ratio := B2_maxRotation / math.Abs(rotation)
			w *= ratio
		}

		// Integrate
		c.OperatorPlusInplace(B2Vec2MulScalar(h, v))
		a += h * w

		island.positions[i] = B2Position{C: c, A: a}
		island.velocities[i] = B2Velocity{V: v, W: w}
	}
}

// solve runs the discrete solver on the island. It touches only the
// island's own bodies, contacts and joints so islands can be solved
// concurrently. Post-solve reports are queued on the island.
func (island *b2Island) solve(step B2TimeStep, gravity B2Vec2, allowSleep bool) B2Profile {
	var profile B2Profile
	timer := MakeB2Timer()

	h := step.Dt

	// Integrate velocities and apply damping. Initialize the body state.
	island.loadState()
	for i, b := range island.bodies {
		// Store positions for continuous collision.
		b.sweep.C0 = b.sweep.C
		b.sweep.A0 = b.sweep.A

		if b.bodyType != B2_dynamicBody {
			continue
		}

		v := island.velocities[i].V
		w := island.velocities[i].W

		// Integrate velocities.
		v.OperatorPlusInplace(B2Vec2MulScalar(h, B2Vec2Add(
			B2Vec2MulScalar(b.gravityScale, gravity),
			B2Vec2MulScalar(b.invMass, b.force),
		)))
		w += h * b.invI * b.torque

		// Apply damping. This is a Pade approximation of
		// v2 = v1 * exp(-c * dt), stable for any step.
		v.OperatorScalarMulInplace(1.0 / (1.0 + h*b.linearDamping))
		w *= 1.0 / (1.0 + h*b.angularDamping)

		island.velocities[i] = B2Velocity{V: v, W: w}
	}

	timer.Reset()

	solverData := island.solverData(step)

	// Initialize velocity constraints.
	contactSolver := island.contactSolver(step)
	contactSolver.InitializeVelocityConstraints()

	if step.WarmStarting {
		contactSolver.WarmStart()
	}

	for _, j := range island.joints {
		j.initVelocityConstraints(&solverData)
	}

	profile.SolveInit = timer.GetMilliseconds()

	// Solve velocity constraints
	timer.Reset()
	for i := 0; i < step.VelocityIterations; i++ {
		for _, j := range island.joints {
			j.solveVelocityConstraints(&solverData)
		}

		contactSolver.SolveVelocityConstraints()
	}

	// Store impulses for warm starting
	contactSolver.StoreImpulses()
	profile.SolveVelocity = timer.GetMilliseconds()

	island.integratePositions(h)

	// Solve position constraints
	timer.Reset()
	positionSolved := false
	for i := 0; i < step.PositionIterations; i++ {
		contactsOkay := contactSolver.SolvePositionConstraints()

		jointsOkay := true
		for _, j := range island.joints {
			jointOkay := j.solvePositionConstraints(&solverData)
			jointsOkay = jointsOkay && jointOkay
		}

		if contactsOkay && jointsOkay {
			// Exit early if the position errors are small.
			positionSolved = true
			break
		}
	}

	// Copy state buffers back to the bodies
	for i, body := range island.bodies {
		body.sweep.C = island.positions[i].C
		body.sweep.A = island.positions[i].A
		body.linearVelocity = island.velocities[i].V
		body.angularVelocity = island.velocities[i].W
		body.synchronizeTransform()
	}

	profile.SolvePosition = timer.GetMilliseconds()

	island.report(&contactSolver)

	if allowSleep {
		island.updateSleep(h, positionSolved)
	}

	return profile
}

// updateSleep accumulates the sleep timers and puts the whole island to
// sleep once every body has rested long enough.
func (island *b2Island) updateSleep(h float64, positionSolved bool) {
	minSleepTime := B2_maxFloat

	const linTolSqr = B2_linearSleepTolerance * B2_linearSleepTolerance
	const angTolSqr = B2_angularSleepTolerance * B2_angularSleepTolerance

	for _, b := range island.bodies {
		if !b.IsSleepingAllowed() ||
			b.angularVelocity*b.angularVelocity > angTolSqr ||
			B2Vec2Dot(b.linearVelocity, b.linearVelocity) > linTolSqr {
			b.sleepTime = 0.0
			minSleepTime = 0.0
		} else {
			b.sleepTime += h
			minSleepTime = math.Min(minSleepTime, b.sleepTime)
		}
	}

	if minSleepTime >= B2_timeToSleep && positionSolved {
		for _, b := range island.bodies {
			b.SetAwake(false)
		}
	}
}

// solveTOI resolves the penetration of a time of impact event. Only the two
// TOI bodies are moved by the position pass; the velocity pass then runs on
// the whole mini-island without warm starting.
func (island *b2Island) solveTOI(subStep B2TimeStep, toiIndexA, toiIndexB int) {
	island.loadState()

	contactSolver := island.contactSolver(subStep)

	// Solve position constraints.
	for i := 0; i < subStep.PositionIterations; i++ {
		if contactSolver.SolveTOIPositionConstraints(toiIndexA, toiIndexB) {
			break
		}
	}

	// Leap of faith to new safe state.
	for _, index := range [2]int{toiIndexA, toiIndexB} {
		if index < len(island.bodies) {
			body := island.bodies[index]
			body.sweep.C0 = island.positions[index].C
			body.sweep.A0 = island.positions[index].A
		}
	}

	// No warm starting is needed for TOI events because warm
	// starting impulses were applied in the discrete solver.
	contactSolver.InitializeVelocityConstraints()

	// Solve velocity constraints.
	for i := 0; i < subStep.VelocityIterations; i++ {
		contactSolver.SolveVelocityConstraints()
	}

	// Don't store the TOI contact forces for warm starting
	// because they can be quite large.

	island.integratePositions(subStep.Dt)

	// Sync bodies
	for i, body := range island.bodies {
		body.sweep.C = island.positions[i].C
		body.sweep.A = island.positions[i].A
		body.linearVelocity = island.velocities[i].V
		body.angularVelocity = island.velocities[i].W
		body.synchronizeTransform()
	}

	island.report(&contactSolver)
}

func (island *b2Island) report(solver *B2ContactSolver) {
	for i, c := range island.contacts {
		island.reports = append(island.reports, b2ContactReport{
			contact: c,
			impulse: solver.impulses(i),
		})
	}
}

// flushReports delivers the queued post-solve reports in island order.
func (island *b2Island) flushReports(listener B2ContactListener) {
	if listener != nil {
		for i := range island.reports {
			listener.PostSolve(island.reports[i].contact, &island.reports[i].impulse)
		}
	}
	island.reports = island.reports[:0]
}
