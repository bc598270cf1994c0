package box2d

import (
	"math"
)

type B2VelocityConstraintPoint struct {
	RA             B2Vec2
	RB             B2Vec2
	NormalImpulse  float64
	TangentImpulse float64
	NormalMass     float64
	TangentMass    float64
	VelocityBias   float64
}

type B2ContactVelocityConstraint struct {
	Points       [B2_maxManifoldPoints]B2VelocityConstraintPoint
	Normal       B2Vec2
	NormalMass   B2Mat22
	K            B2Mat22
	IndexA       int
	IndexB       int
	InvMassA     float64
	InvMassB     float64
	InvIA        float64
	InvIB        float64
	Friction     float64
	Restitution  float64
	Threshold    float64
	TangentSpeed float64
	PointCount   int
	ContactIndex int
}

type B2ContactPositionConstraint struct {
	LocalPoints  [B2_maxManifoldPoints]B2Vec2
	LocalNormal  B2Vec2
	LocalPoint   B2Vec2
	IndexA       int
	IndexB       int
	InvMassA     float64
	InvMassB     float64
	LocalCenterA B2Vec2
	LocalCenterB B2Vec2
	InvIA        float64
	InvIB        float64
	Type         uint8
	RadiusA      float64
	RadiusB      float64
	PointCount   int
}

type B2ContactSolverDef struct {
	Step       B2TimeStep
	Contacts   []*B2Contact
	Positions  []B2Position
	Velocities []B2Velocity

	island *b2Island
}

// The block solver is used for two-point manifolds. The condition number
// guard below falls back to a single point when K is poorly conditioned.
const b2BlockSolve = true

// B2ContactSolver runs sequential impulses over the touching contacts of
// one island.
type B2ContactSolver struct {
	step                B2TimeStep
	positions           []B2Position
	velocities          []B2Velocity
	positionConstraints []B2ContactPositionConstraint
	velocityConstraints []B2ContactVelocityConstraint
	contacts            []*B2Contact
}

// MakeB2ContactSolver initializes the position independent portions of the
// constraints.
func MakeB2ContactSolver(def *B2ContactSolverDef) B2ContactSolver {
	count := len(def.Contacts)
	solver := B2ContactSolver{
		step:                def.Step,
		positions:           def.Positions,
		velocities:          def.Velocities,
		positionConstraints: make([]B2ContactPositionConstraint, count),
		velocityConstraints: make([]B2ContactVelocityConstraint, count),
		contacts:            def.Contacts,
	}

	for i, contact := range solver.contacts {
		fixtureA := contact.GetFixtureA()
		fixtureB := contact.GetFixtureB()
		radiusA := fixtureA.shape.GetRadius()
		radiusB := fixtureB.shape.GetRadius()
		bodyA := contact.GetBodyA()
		bodyB := contact.GetBodyB()
		manifold := &contact.manifold

		pointCount := manifold.PointCount
		B2Assert(pointCount > 0)

		indexA := def.island.indexOf(bodyA)
		indexB := def.island.indexOf(bodyB)

		vc := &solver.velocityConstraints[i]
		vc.Friction = contact.friction
		vc.Restitution = contact.restitution
		vc.Threshold = contact.restitutionThreshold
		vc.TangentSpeed = contact.tangentSpeed
		vc.IndexA = indexA
		vc.IndexB = indexB
		vc.InvMassA = bodyA.invMass
		vc.InvMassB = bodyB.invMass
		vc.InvIA = bodyA.invI
		vc.InvIB = bodyB.invI
		vc.ContactIndex = i
		vc.PointCount = pointCount
		vc.K.SetZero()
		vc.NormalMass.SetZero()

		pc := &solver.positionConstraints[i]
		pc.IndexA = indexA
		pc.IndexB = indexB
		pc.InvMassA = bodyA.invMass
		pc.InvMassB = bodyB.invMass
		pc.LocalCenterA = bodyA.sweep.LocalCenter
		pc.LocalCenterB = bodyB.sweep.LocalCenter
		pc.InvIA = bodyA.invI
		pc.InvIB = bodyB.invI
		pc.LocalNormal = manifold.LocalNormal
		pc.LocalPoint = manifold.LocalPoint
		pc.PointCount = pointCount
		pc.RadiusA = radiusA
		pc.RadiusB = radiusB
		pc.Type = manifold.Type

		for j := 0; j < pointCount; j++ {
			cp := &manifold.Points[j]
			vcp := &vc.Points[j]

			if solver.step.WarmStarting {
				vcp.NormalImpulse = solver.step.DtRatio * cp.NormalImpulse
				vcp.TangentImpulse = solver.step.DtRatio * cp.TangentImpulse
			}

			pc.LocalPoints[j] = cp.LocalPoint
		}
	}

	return solver
}

// Initialize position dependent portions of the velocity constraints.
func (solver *B2ContactSolver) InitializeVelocityConstraints() {
	for i := 0; i < len(solver.contacts); i++ {
		vc := &solver.velocityConstraints[i]
		pc := &solver.positionConstraints[i]

		radiusA := pc.RadiusA
		radiusB := pc.RadiusB
		manifold := &solver.contacts[vc.ContactIndex].manifold

		indexA := vc.IndexA
		indexB := vc.IndexB

		mA := vc.InvMassA
		mB := vc.InvMassB
		iA := vc.InvIA
		iB := vc.InvIB
		localCenterA := pc.LocalCenterA
		localCenterB := pc.LocalCenterB

		cA := solver.positions[indexA].C
		aA := solver.positions[indexA].A
		vA := solver.velocities[indexA].V
		wA := solver.velocities[indexA].W

		cB := solver.positions[indexB].C
		aB := solver.positions[indexB].A
		vB := solver.velocities[indexB].V
		wB := solver.velocities[indexB].W

		B2Assert(manifold.PointCount > 0)

		xfA := b2TransformFromCenter(cA, aA, localCenterA)
		xfB := b2TransformFromCenter(cB, aB, localCenterB)

		var worldManifold B2WorldManifold
		worldManifold.Initialize(manifold, xfA, radiusA, xfB, radiusB)

		vc.Normal = worldManifold.Normal

		pointCount := vc.PointCount
		for j := 0; j < pointCount; j++ {
			vcp := &vc.Points[j]

			vcp.RA = B2Vec2Sub(worldManifold.Points[j], cA)
			vcp.RB = B2Vec2Sub(worldManifold.Points[j], cB)

			rnA := B2Vec2Cross(vcp.RA, vc.Normal)
			rnB := B2Vec2Cross(vcp.RB, vc.Normal)

			kNormal := mA + mB + iA*rnA*rnA + iB*rnB*rnB

			if kNormal > 0.0 {
				vcp.NormalMass = 1.0 / kNormal
			} else {
				vcp.NormalMass = 0.0
			}

			tangent := B2Vec2CrossVectorScalar(vc.Normal, 1.0)

			rtA := B2Vec2Cross(vcp.RA, tangent)
			rtB := B2Vec2Cross(vcp.RB, tangent)

			kTangent := mA + mB + iA*rtA*rtA + iB*rtB*rtB

			if kTangent > 0.0 {
				vcp.TangentMass = 1.0 / kTangent
			} else {
				vcp.TangentMass = 0.0
			}

			// Setup a velocity bias for restitution.
			vcp.VelocityBias = 0.0
			vRel := B2Vec2Dot(vc.Normal, b2RelativeVelocity(vA, wA, vcp.RA, vB, wB, vcp.RB))
			if vRel < -vc.Threshold {
				vcp.VelocityBias = -vc.Restitution * vRel
			}
		}

		// If we have two points, then prepare the block solver.
		if vc.PointCount == 2 && b2BlockSolve {
			vcp1 := &vc.Points[0]
			vcp2 := &vc.Points[1]

			rn1A := B2Vec2Cross(vcp1.RA, vc.Normal)
			rn1B := B2Vec2Cross(vcp1.RB, vc.Normal)
			rn2A := B2Vec2Cross(vcp2.RA, vc.Normal)
			rn2B := B2Vec2Cross(vcp2.RB, vc.Normal)

			k11 := mA + mB + iA*rn1A*rn1A + iB*rn1B*rn1B
			k22 := mA + mB + iA*rn2A*rn2A + iB*rn2B*rn2B
			k12 := mA + mB + iA*rn1A*rn2A + iB*rn1B*rn2B

			// Ensure a reasonable condition number.
			k_maxConditionNumber := 1000.0
			if k11*k11 < k_maxConditionNumber*(k11*k22-k12*k12) {
				// K is safe to invert.
				vc.K.Ex.Set(k11, k12)
				vc.K.Ey.Set(k12, k22)
				vc.NormalMass = vc.K.GetInverse()
			} else {
				// The constraints are redundant, just use one.
				vc.PointCount = 1
			}
		}
	}
}

func (solver *B2ContactSolver) WarmStart() {
	// Warm start.
	for i := 0; i < len(solver.contacts); i++ {
		vc := &solver.velocityConstraints[i]

		indexA := vc.IndexA
		indexB := vc.IndexB
		mA := vc.InvMassA
		iA := vc.InvIA
		mB := vc.InvMassB
		iB := vc.InvIB
		pointCount := vc.PointCount

		vA := solver.velocities[indexA].V
		wA := solver.velocities[indexA].W
		vB := solver.velocities[indexB].V
		wB := solver.velocities[indexB].W

		normal := vc.Normal
		tangent := B2Vec2CrossVectorScalar(normal, 1.0)

		for j := 0; j < pointCount; j++ {
			vcp := &vc.Points[j]
			P := B2Vec2Add(B2Vec2MulScalar(vcp.NormalImpulse, normal), B2Vec2MulScalar(vcp.TangentImpulse, tangent))
			wA -= iA * B2Vec2Cross(vcp.RA, P)
			vA.OperatorMinusInplace(B2Vec2MulScalar(mA, P))
			wB += iB * B2Vec2Cross(vcp.RB, P)
			vB.OperatorPlusInplace(B2Vec2MulScalar(mB, P))
		}

		solver.velocities[indexA].V = vA
		solver.velocities[indexA].W = wA
		solver.velocities[indexB].V = vB
		solver.velocities[indexB].W = wB
	}
}

func (solver *B2ContactSolver) SolveVelocityConstraints() {
	for i := 0; i < len(solver.contacts); i++ {
		vc := &solver.velocityConstraints[i]

		indexA := vc.IndexA
		indexB := vc.IndexB
		mA := vc.InvMassA
		iA := vc.InvIA
		mB := vc.InvMassB
		iB := vc.InvIB
		pointCount := vc.PointCount

		vA := solver.velocities[indexA].V
		wA := solver.velocities[indexA].W
		vB := solver.velocities[indexB].V
		wB := solver.velocities[indexB].W

		normal := vc.Normal
		tangent := B2Vec2CrossVectorScalar(normal, 1.0)
		friction := vc.Friction

		B2Assert(pointCount == 1 || pointCount == 2)

		// Solve tangent constraints first because non-penetration is more important
		// than friction.
		for j := 0; j < pointCount; j++ {
			vcp := &vc.Points[j]

			// Relative velocity at contact
			dv := b2RelativeVelocity(vA, wA, vcp.RA, vB, wB, vcp.RB)

			// Compute tangent force
			vt := B2Vec2Dot(dv, tangent) - vc.TangentSpeed
			lambda := vcp.TangentMass * (-vt)

			// b2Clamp the accumulated force
			maxFriction := friction * vcp.NormalImpulse
			newImpulse := B2FloatClamp(vcp.TangentImpulse+lambda, -maxFriction, maxFriction)
			lambda = newImpulse - vcp.TangentImpulse
			vcp.TangentImpulse = newImpulse

			// Apply contact impulse
			P := B2Vec2MulScalar(lambda, tangent)

			vA.OperatorMinusInplace(B2Vec2MulScalar(mA, P))
			wA -= iA * B2Vec2Cross(vcp.RA, P)

			vB.OperatorPlusInplace(B2Vec2MulScalar(mB, P))
			wB += iB * B2Vec2Cross(vcp.RB, P)
		}

		// Solve normal constraints
		if pointCount == 1 || !b2BlockSolve {
			for j := 0; j < pointCount; j++ {
				vcp := &vc.Points[j]

				// Relative velocity at contact
				dv := b2RelativeVelocity(vA, wA, vcp.RA, vB, wB, vcp.RB)

				// Compute normal impulse
				vn := B2Vec2Dot(dv, normal)
				lambda := -vcp.NormalMass * (vn - vcp.VelocityBias)

				// b2Clamp the accumulated impulse
				newImpulse := math.Max(vcp.NormalImpulse+lambda, 0.0)
				lambda = newImpulse - vcp.NormalImpulse
				vcp.NormalImpulse = newImpulse

				// Apply contact impulse
				P := B2Vec2MulScalar(lambda, normal)
				vA.OperatorMinusInplace(B2Vec2MulScalar(mA, P))
				wA -= iA * B2Vec2Cross(vcp.RA, P)

				vB.OperatorPlusInplace(B2Vec2MulScalar(mB, P))
				wB += iB * B2Vec2Cross(vcp.RB, P)
			}
		} else {
			// Block solver for the two-point patch. Build the mini LCP
			//
			// vn = A * x + b, vn >= 0, x >= 0 and vn_i * x_i = 0 with i = 1..2
			//
			// A = J * W * JT and J = ( -n, -r1 x n, n, r2 x n )
			// b = vn0 - velocityBias
			//
			// and solve it by total enumeration (Murty). The accumulated
			// impulse a is substituted so only the total impulse is clamped:
			//
			// x = a + d, vn = A * x + b', b' = b - A * a

			cp1 := &vc.Points[0]
			cp2 := &vc.Points[1]

			a := MakeB2Vec2(cp1.NormalImpulse, cp2.NormalImpulse)
			B2Assert(a.X >= 0.0 && a.Y >= 0.0)

			// Relative velocity at contact
			dv1 := b2RelativeVelocity(vA, wA, cp1.RA, vB, wB, cp1.RB)
			dv2 := b2RelativeVelocity(vA, wA, cp2.RA, vB, wB, cp2.RB)

			// Compute normal velocity
			vn1 := B2Vec2Dot(dv1, normal)
			vn2 := B2Vec2Dot(dv2, normal)

			b := MakeB2Vec2(vn1-cp1.VelocityBias, vn2-cp2.VelocityBias)

			// Compute b'
			b.OperatorMinusInplace(B2Vec2Mat22Mul(vc.K, a))

			x, ok := b2SolveBlock(vc, b)
			if ok {
				// Get the incremental impulse
				d := B2Vec2Sub(x, a)

				// Apply incremental impulse
				P1 := B2Vec2MulScalar(d.X, normal)
				P2 := B2Vec2MulScalar(d.Y, normal)
				vA.OperatorMinusInplace(B2Vec2MulScalar(mA, B2Vec2Add(P1, P2)))
				wA -= iA * (B2Vec2Cross(cp1.RA, P1) + B2Vec2Cross(cp2.RA, P2))

				vB.OperatorPlusInplace(B2Vec2MulScalar(mB, B2Vec2Add(P1, P2)))
				wB += iB * (B2Vec2Cross(cp1.RB, P1) + B2Vec2Cross(cp2.RB, P2))

				// Accumulate
				cp1.NormalImpulse = x.X
				cp2.NormalImpulse = x.Y
			}
		}

		solver.velocities[indexA].V = vA
		solver.velocities[indexA].W = wA
		solver.velocities[indexB].V = vB
		solver.velocities[indexB].W = wB
	}
}

func (solver *B2ContactSolver) StoreImpulses() {
	for i := 0; i < len(solver.contacts); i++ {
		vc := &solver.velocityConstraints[i]
		manifold := &solver.contacts[vc.ContactIndex].manifold

		for j := 0; j < vc.PointCount; j++ {
			manifold.Points[j].NormalImpulse = vc.Points[j].NormalImpulse
			manifold.Points[j].TangentImpulse = vc.Points[j].TangentImpulse
		}
	}
}

type b2PositionSolverManifold struct {
	Normal     B2Vec2
	Point      B2Vec2
	Separation float64
}

func (solvermanifold *b2PositionSolverManifold) initialize(pc *B2ContactPositionConstraint, xfA B2Transform, xfB B2Transform, index int) {

	B2Assert(pc.PointCount > 0)

	switch pc.Type {
	case B2Manifold_Type_Circles:
		{
			pointA := B2TransformVec2Mul(xfA, pc.LocalPoint)
			pointB := B2TransformVec2Mul(xfB, pc.LocalPoints[0])
			solvermanifold.Normal = B2Vec2Sub(pointB, pointA)
			solvermanifold.Normal.Normalize()
			solvermanifold.Point = B2Vec2MulScalar(0.5, B2Vec2Add(pointA, pointB))
			solvermanifold.Separation = B2Vec2Dot(B2Vec2Sub(pointB, pointA), solvermanifold.Normal) - pc.RadiusA - pc.RadiusB
		}

	case B2Manifold_Type_FaceA:
		{
			solvermanifold.Normal = B2RotVec2Mul(xfA.Q, pc.LocalNormal)
			planePoint := B2TransformVec2Mul(xfA, pc.LocalPoint)

			clipPoint := B2TransformVec2Mul(xfB, pc.LocalPoints[index])
			solvermanifold.Separation = B2Vec2Dot(B2Vec2Sub(clipPoint, planePoint), solvermanifold.Normal) - pc.RadiusA - pc.RadiusB
			solvermanifold.Point = clipPoint
		}

	case B2Manifold_Type_FaceB:
		{
			solvermanifold.Normal = B2RotVec2Mul(xfB.Q, pc.LocalNormal)
			planePoint := B2TransformVec2Mul(xfB, pc.LocalPoint)

			clipPoint := B2TransformVec2Mul(xfA, pc.LocalPoints[index])
			solvermanifold.Separation = B2Vec2Dot(B2Vec2Sub(clipPoint, planePoint), solvermanifold.Normal) - pc.RadiusA - pc.RadiusB
			solvermanifold.Point = clipPoint

			// Ensure normal points from A to B
			solvermanifold.Normal = solvermanifold.Normal.OperatorNegate()
		}
	}
}

// SolvePositionConstraints runs one sequential pass of pseudo-impulses over
// the penetration of every contact. It reports whether the island is
// within tolerance.
func (solver *B2ContactSolver) SolvePositionConstraints() bool {
	minSeparation := 0.0

	for i := range solver.positionConstraints {
		pc := &solver.positionConstraints[i]
		separation := solver.solvePositionConstraint(pc, pc.InvMassA, pc.InvIA, pc.InvMassB, pc.InvIB, B2_baumgarte)
		minSeparation = math.Min(minSeparation, separation)
	}

	// We can't expect minSeparation >= -b2_linearSlop because we don't
	// push the separation above -b2_linearSlop.
	return minSeparation >= -3.0*B2_linearSlop
}

// SolveTOIPositionConstraints is the position pass of a time of impact
// sub-step. Only the two TOI bodies move; everything else acts as static.
func (solver *B2ContactSolver) SolveTOIPositionConstraints(toiIndexA int, toiIndexB int) bool {
	minSeparation := 0.0

	for i := range solver.positionConstraints {
		pc := &solver.positionConstraints[i]

		mA, iA := 0.0, 0.0
		if pc.IndexA == toiIndexA || pc.IndexA == toiIndexB {
			mA = pc.InvMassA
			iA = pc.InvIA
		}

		mB, iB := 0.0, 0.0
		if pc.IndexB == toiIndexA || pc.IndexB == toiIndexB {
			mB = pc.InvMassB
			iB = pc.InvIB
		}

		separation := solver.solvePositionConstraint(pc, mA, iA, mB, iB, B2_toiBaumgarte)
		minSeparation = math.Min(minSeparation, separation)
	}

	return minSeparation >= -1.5*B2_linearSlop
}

// solvePositionConstraint pushes the bodies of one contact apart and
// returns the deepest separation it saw.
func (solver *B2ContactSolver) solvePositionConstraint(pc *B2ContactPositionConstraint, mA, iA, mB, iB, baumgarte float64) float64 {
	minSeparation := 0.0

	cA := solver.positions[pc.IndexA].C
	aA := solver.positions[pc.IndexA].A

	cB := solver.positions[pc.IndexB].C
	aB := solver.positions[pc.IndexB].A

	// Solve normal constraints
	for j := 0; j < pc.PointCount; j++ {
		xfA := b2TransformFromCenter(cA, aA, pc.LocalCenterA)
		xfB := b2TransformFromCenter(cB, aB, pc.LocalCenterB)

		var psm b2PositionSolverManifold
		psm.initialize(pc, xfA, xfB, j)
		normal := psm.Normal

		rA := B2Vec2Sub(psm.Point, cA)
		rB := B2Vec2Sub(psm.Point, cB)

		// Track max constraint error.
		minSeparation = math.Min(minSeparation, psm.Separation)

		// Prevent large corrections and allow slop.
		C := B2FloatClamp(baumgarte*(psm.Separation+B2_linearSlop), -B2_maxLinearCorrection, 0.0)

		// Compute the effective mass.
		rnA := B2Vec2Cross(rA, normal)
		rnB := B2Vec2Cross(rB, normal)
		K := mA + mB + iA*rnA*rnA + iB*rnB*rnB

		// Compute normal impulse
		impulse := 0.0
		if K > 0.0 {
			impulse = -C / K
		}

		P := B2Vec2MulScalar(impulse, normal)

		cA.OperatorMinusInplace(B2Vec2MulScalar(mA, P))
		aA -= iA * B2Vec2Cross(rA, P)

		cB.OperatorPlusInplace(B2Vec2MulScalar(mB, P))
		aB += iB * B2Vec2Cross(rB, P)
	}

	solver.positions[pc.IndexA].C = cA
	solver.positions[pc.IndexA].A = aA

	solver.positions[pc.IndexB].C = cB
	solver.positions[pc.IndexB].A = aB

	return minSeparation
}

// impulses returns the solved impulses of one contact for reporting.
func (solver *B2ContactSolver) impulses(i int) B2ContactImpulse {
	vc := &solver.velocityConstraints[i]
	impulse := B2ContactImpulse{Count: vc.PointCount}
	for j := 0; j < vc.PointCount; j++ {
		impulse.NormalImpulses[j] = vc.Points[j].NormalImpulse
		impulse.TangentImpulses[j] = vc.Points[j].TangentImpulse
	}
	return impulse
}

// b2TransformFromCenter rebuilds a body transform from its center of mass
// position and angle.
func b2TransformFromCenter(c B2Vec2, a float64, localCenter B2Vec2) B2Transform {
	var xf B2Transform
	xf.Q.Set(a)
	xf.P = B2Vec2Sub(c, B2RotVec2Mul(xf.Q, localCenter))
	return xf
}

// b2SolveBlock enumerates the four complementarity cases of the two-point
// LCP and returns the first new total impulse that satisfies one. When no
// case applies the impulses are left unchanged. This is hit sometimes, but
// it doesn't seem to matter.
func b2SolveBlock(vc *B2ContactVelocityConstraint, b B2Vec2) (B2Vec2, bool) {
	cp1 := &vc.Points[0]
	cp2 := &vc.Points[1]

	// Case 1: vn = 0
	//
	// 0 = A * x + b'
	//
	// Solve for x:
	//
	// x = - inv(A) * b'
	x := B2Vec2Mat22Mul(vc.NormalMass, b).OperatorNegate()
	if x.X >= 0.0 && x.Y >= 0.0 {
		return x, true
	}

	// Case 2: vn1 = 0 and x2 = 0
	//
	//   0 = a11 * x1 + a12 * 0 + b1'
	// vn2 = a21 * x1 + a22 * 0 + b2'
	x = MakeB2Vec2(-cp1.NormalMass*b.X, 0.0)
	vn2 := vc.K.Ex.Y*x.X + b.Y
	if x.X >= 0.0 && vn2 >= 0.0 {
		return x, true
	}

	// Case 3: vn2 = 0 and x1 = 0
	//
	// vn1 = a11 * 0 + a12 * x2 + b1'
	//   0 = a21 * 0 + a22 * x2 + b2'
	x = MakeB2Vec2(0.0, -cp2.NormalMass*b.Y)
	vn1 := vc.K.Ey.X*x.Y + b.X
	if x.Y >= 0.0 && vn1 >= 0.0 {
		return x, true
	}

	// Case 4: x1 = 0 and x2 = 0
	//
	// vn1 = b1
	// vn2 = b2;
	if b.X >= 0.0 && b.Y >= 0.0 {
		return MakeB2Vec2(0.0, 0.0), true
	}

	return B2Vec2{}, false
}

// b2RelativeVelocity is the velocity of the contact point on B relative to A.
func b2RelativeVelocity(vA B2Vec2, wA float64, rA B2Vec2, vB B2Vec2, wB float64, rB B2Vec2) B2Vec2 {
	return B2Vec2Sub(
		B2Vec2Add(vB, B2Vec2CrossScalarVector(wB, rB)),
		B2Vec2Add(vA, B2Vec2CrossScalarVector(wA, rA)),
	)
}
