package box2d

import (
	"math"
)

// Input parameters for B2TimeOfImpact
type B2TOIInput struct {
	ProxyA B2DistanceProxy
	ProxyB B2DistanceProxy
	SweepA B2Sweep
	SweepB B2Sweep
	TMax   float64 // defines sweep interval [0, tMax]
}

type B2TOIState uint8

const (
	B2TOIOutput_Unknown B2TOIState = iota
	B2TOIOutput_Failed
	B2TOIOutput_Overlapped
	B2TOIOutput_Touching
	B2TOIOutput_Separated
)

// Output parameters for B2TimeOfImpact.
type B2TOIOutput struct {
	State      B2TOIState
	T          float64
	Iterations int
}

type b2SeparationFunctionType uint8

const (
	b2SeparationFunction_points b2SeparationFunctionType = iota
	b2SeparationFunction_faceA
	b2SeparationFunction_faceB
)

type b2SeparationFunction struct {
	proxyA, proxyB *B2DistanceProxy
	sweepA, sweepB B2Sweep
	fnType         b2SeparationFunctionType
	localPoint     B2Vec2
	axis           B2Vec2
}

func (fcn *b2SeparationFunction) initialize(cache *B2SimplexCache, proxyA *B2DistanceProxy, sweepA B2Sweep, proxyB *B2DistanceProxy, sweepB B2Sweep, t1 float64) float64 {
	fcn.proxyA = proxyA
	fcn.proxyB = proxyB
	count := cache.Count
	B2Assert(0 < count && count < 3)

	fcn.sweepA = sweepA
	fcn.sweepB = sweepB

	xfA := fcn.sweepA.GetTransform(t1)
	xfB := fcn.sweepB.GetTransform(t1)

	if count == 1 {
		fcn.fnType = b2SeparationFunction_points
		pointA := B2TransformVec2Mul(xfA, proxyA.GetVertex(cache.IndexA[0]))
		pointB := B2TransformVec2Mul(xfB, proxyB.GetVertex(cache.IndexB[0]))
		fcn.axis = B2Vec2Sub(pointB, pointA)
		return fcn.axis.Normalize()
	}

	if cache.IndexA[0] == cache.IndexA[1] {
		// Two points on B and one on A.
		fcn.fnType = b2SeparationFunction_faceB
		localPointB1 := proxyB.GetVertex(cache.IndexB[0])
		localPointB2 := proxyB.GetVertex(cache.IndexB[1])

		fcn.axis = B2Vec2CrossVectorScalar(B2Vec2Sub(localPointB2, localPointB1), 1.0)
		fcn.axis.Normalize()
		normal := B2RotVec2Mul(xfB.Q, fcn.axis)

		fcn.localPoint = B2Vec2MulScalar(0.5, B2Vec2Add(localPointB1, localPointB2))
		pointB := B2TransformVec2Mul(xfB, fcn.localPoint)
		pointA := B2TransformVec2Mul(xfA, proxyA.GetVertex(cache.IndexA[0]))

		s := B2Vec2Dot(B2Vec2Sub(pointA, pointB), normal)
		if s < 0.0 {
			fcn.axis = fcn.axis.OperatorNegate()
			s = -s
		}
		return s
	}

	// Two points on A and one or two points on B.
	fcn.fnType = b2SeparationFunction_faceA
	localPointA1 := proxyA.GetVertex(cache.IndexA[0])
	localPointA2 := proxyA.GetVertex(cache.IndexA[1])

	fcn.axis = B2Vec2CrossVectorScalar(B2Vec2Sub(localPointA2, localPointA1), 1.0)
	fcn.axis.Normalize()
	normal := B2RotVec2Mul(xfA.Q, fcn.axis)

	fcn.localPoint = B2Vec2MulScalar(0.5, B2Vec2Add(localPointA1, localPointA2))
	pointA := B2TransformVec2Mul(xfA, fcn.localPoint)
	pointB := B2TransformVec2Mul(xfB, proxyB.GetVertex(cache.IndexB[0]))

	s := B2Vec2Dot(B2Vec2Sub(pointB, pointA), normal)
	if s < 0.0 {
		fcn.axis = fcn.axis.OperatorNegate()
		s = -s
	}
	return s
}

// findMinSeparation finds the deepest points at time t and returns their
// separation along with the witness indices.
func (fcn *b2SeparationFunction) findMinSeparation(t float64) (indexA, indexB int, separation float64) {
	xfA := fcn.sweepA.GetTransform(t)
	xfB := fcn.sweepB.GetTransform(t)

	switch fcn.fnType {
	case b2SeparationFunction_points:
		axisA := B2RotVec2MulT(xfA.Q, fcn.axis)
		axisB := B2RotVec2MulT(xfB.Q, fcn.axis.OperatorNegate())

		indexA = fcn.proxyA.GetSupport(axisA)
		indexB = fcn.proxyB.GetSupport(axisB)

		pointA := B2TransformVec2Mul(xfA, fcn.proxyA.GetVertex(indexA))
		pointB := B2TransformVec2Mul(xfB, fcn.proxyB.GetVertex(indexB))

		return indexA, indexB, B2Vec2Dot(B2Vec2Sub(pointB, pointA), fcn.axis)

	case b2SeparationFunction_faceA:
		normal := B2RotVec2Mul(xfA.Q, fcn.axis)
		pointA := B2TransformVec2Mul(xfA, fcn.localPoint)

		axisB := B2RotVec2MulT(xfB.Q, normal.OperatorNegate())

		indexA = -1
		indexB = fcn.proxyB.GetSupport(axisB)

		pointB := B2TransformVec2Mul(xfB, fcn.proxyB.GetVertex(indexB))
		return indexA, indexB, B2Vec2Dot(B2Vec2Sub(pointB, pointA), normal)

	case b2SeparationFunction_faceB:
		normal := B2RotVec2Mul(xfB.Q, fcn.axis)
		pointB := B2TransformVec2Mul(xfB, fcn.localPoint)

		axisA := B2RotVec2MulT(xfA.Q, normal.OperatorNegate())

		indexB = -1
		indexA = fcn.proxyA.GetSupport(axisA)

		pointA := B2TransformVec2Mul(xfA, fcn.proxyA.GetVertex(indexA))
		return indexA, indexB, B2Vec2Dot(B2Vec2Sub(pointA, pointB), normal)
	}

	B2Assert(false)
	return -1, -1, 0.0
}

// evaluate computes the separation of the given witness points at time t.
func (fcn *b2SeparationFunction) evaluate(indexA, indexB int, t float64) float64 {
	xfA := fcn.sweepA.GetTransform(t)
	xfB := fcn.sweepB.GetTransform(t)

	switch fcn.fnType {
	case b2SeparationFunction_points:
		pointA := B2TransformVec2Mul(xfA, fcn.proxyA.GetVertex(indexA))
		pointB := B2TransformVec2Mul(xfB, fcn.proxyB.GetVertex(indexB))
		return B2Vec2Dot(B2Vec2Sub(pointB, pointA), fcn.axis)

	case b2SeparationFunction_faceA:
		normal := B2RotVec2Mul(xfA.Q, fcn.axis)
		pointA := B2TransformVec2Mul(xfA, fcn.localPoint)
		pointB := B2TransformVec2Mul(xfB, fcn.proxyB.GetVertex(indexB))
		return B2Vec2Dot(B2Vec2Sub(pointB, pointA), normal)

	case b2SeparationFunction_faceB:
		normal := B2RotVec2Mul(xfB.Q, fcn.axis)
		pointB := B2TransformVec2Mul(xfB, fcn.localPoint)
		pointA := B2TransformVec2Mul(xfA, fcn.proxyA.GetVertex(indexA))
		return B2Vec2Dot(B2Vec2Sub(pointA, pointB), normal)
	}

	B2Assert(false)
	return 0.0
}

// B2TimeOfImpact computes the upper bound on time before two shapes
// penetrate. Time is represented as a fraction between [0,tMax]. This uses a
// swept separating axis and may miss some intermediate, non-tunneling
// collision. If you change the time interval, you should call this function
// again.
// Note: use B2Distance to compute the contact point and normal at the time
// of impact.
//
// CCD via the local separating axis method. This seeks progression
// by computing the largest time at which separation is maintained.
func B2TimeOfImpact(input *B2TOIInput) B2TOIOutput {
	output := B2TOIOutput{
		State: B2TOIOutput_Unknown,
		T:     input.TMax,
	}

	proxyA := &input.ProxyA
	proxyB := &input.ProxyB

	sweepA := input.SweepA
	sweepB := input.SweepB

	// Large rotations can make the root finder fail, so we normalize the
	// sweep angles.
	sweepA.Normalize()
	sweepB.Normalize()

	tMax := input.TMax

	totalRadius := proxyA.radius + proxyB.radius
	target := math.Max(B2_linearSlop, totalRadius-3.0*B2_linearSlop)
	tolerance := 0.25 * B2_linearSlop
	B2Assert(target > tolerance)

	t1 := 0.0
	const k_maxIterations = 20
	iter := 0

	// Prepare input for distance query.
	var cache B2SimplexCache
	distanceInput := B2DistanceInput{
		ProxyA:   input.ProxyA,
		ProxyB:   input.ProxyB,
		UseRadii: false,
	}

	// The outer loop progressively attempts to compute new separating axes.
	// This loop terminates when an axis is repeated (no progress is made).
	for {
		xfA := sweepA.GetTransform(t1)
		xfB := sweepB.GetTransform(t1)

		// Get the distance between shapes. We can also use the results
		// to get a separating axis.
		distanceInput.TransformA = xfA
		distanceInput.TransformB = xfB
		distanceOutput := B2Distance(&cache, &distanceInput)

		// If the shapes are overlapped, we give up on continuous collision.
		if distanceOutput.Distance <= 0.0 {
			// Failure!
			output.State = B2TOIOutput_Overlapped
			output.T = 0.0
			break
		}

		if distanceOutput.Distance < target+tolerance {
			// Victory!
			output.State = B2TOIOutput_Touching
			output.T = t1
			break
		}

		// Initialize the separating axis.
		var fcn b2SeparationFunction
		fcn.initialize(&cache, proxyA, sweepA, proxyB, sweepB, t1)

		// Compute the TOI on the separating axis. We do this by successively
		// resolving the deepest point. This loop is bounded by the number of vertices.
		done := false
		t2 := tMax
		pushBackIter := 0
		for {
			// Find the deepest point at t2. Store the witness point indices.
			indexA, indexB, s2 := fcn.findMinSeparation(t2)

			// Is the final configuration separated?
			if s2 > target+tolerance {
				// Victory!
				output.State = B2TOIOutput_Separated
				output.T = tMax
				done = true
				break
			}

			// Has the separation reached tolerance?
			if s2 > target-tolerance {
				// Advance the sweeps
				t1 = t2
				break
			}

			// Compute the initial separation of the witness points.
			s1 := fcn.evaluate(indexA, indexB, t1)

			// Check for initial overlap. This might happen if the root finder
			// runs out of iterations.
			if s1 < target-tolerance {
				output.State = B2TOIOutput_Failed
				output.T = t1
				done = true
				break
			}

			// Check for touching
			if s1 <= target+tolerance {
				// Victory! t1 should hold the TOI (could be 0.0).
				output.State = B2TOIOutput_Touching
				output.T = t1
				done = true
				break
			}

			// Compute 1D root of: f(x) - target = 0
			rootIterCount := 0
			a1 := t1
			a2 := t2

			for rootIterCount < 50 {
				// Use a mix of the secant rule and bisection.
				var t float64
				if rootIterCount&1 != 0 {
					// Secant rule to improve convergence.
					t = a1 + (target-s1)*(a2-a1)/(s2-s1)
				} else {
					// Bisection to guarantee progress.
					t = 0.5 * (a1 + a2)
				}

				rootIterCount++

				s := fcn.evaluate(indexA, indexB, t)

				if math.Abs(s-target) < tolerance {
					// t2 holds a tentative value for t1
					t2 = t
					break
				}

				// Ensure we continue to bracket the root.
				if s > target {
					a1 = t
					s1 = s
				} else {
					a2 = t
					s2 = s
				}
			}

			pushBackIter++

			if pushBackIter == B2_maxPolygonVertices {
				break
			}
		}

		iter++

		if done {
			break
		}

		if iter == k_maxIterations {
			// Root finder got stuck. Semi-victory.
			output.State = B2TOIOutput_Failed
			output.T = t1
			break
		}
	}

	output.Iterations = iter
	return output
}
