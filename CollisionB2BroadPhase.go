package box2d

import (
	"slices"
)

// B2BroadPhaseAddPairCallback receives the user data of both proxies of a
// new candidate pair.
type B2BroadPhaseAddPairCallback func(userDataA, userDataB any)

type B2Pair struct {
	ProxyIdA int
	ProxyIdB int
}

const B2_nullProxy = -1

// The broad-phase is used for computing pairs and performing volume queries
// and ray casts. This broad-phase does not persist pairs. Instead, this
// reports potentially new pairs. It is up to the client to consume the new
// pairs and to track subsequent overlap.
type B2BroadPhase struct {
	tree B2DynamicTree

	proxyCount int

	moveBuffer []int
	pairBuffer []B2Pair

	queryProxyId int
}

func MakeB2BroadPhase() B2BroadPhase {
	return B2BroadPhase{
		tree:       MakeB2DynamicTree(),
		moveBuffer: make([]int, 0, 16),
		pairBuffer: make([]B2Pair, 0, 16),
	}
}

// This is used to sort pairs.
func b2PairCompare(pair1, pair2 B2Pair) int {
	if pair1.ProxyIdA != pair2.ProxyIdA {
		return pair1.ProxyIdA - pair2.ProxyIdA
	}
	return pair1.ProxyIdB - pair2.ProxyIdB
}

// CreateProxy creates a proxy with an initial AABB. Pairs are not reported
// until UpdatePairs is called.
func (bp *B2BroadPhase) CreateProxy(aabb B2AABB, userData any) int {
	proxyId := bp.tree.CreateProxy(aabb, userData)
	bp.proxyCount++
	bp.bufferMove(proxyId)
	return proxyId
}

// DestroyProxy destroys a proxy. It is up to the client to remove any pairs.
func (bp *B2BroadPhase) DestroyProxy(proxyId int) {
	bp.unBufferMove(proxyId)
	bp.proxyCount--
	bp.tree.DestroyProxy(proxyId)
}

// MoveProxy is called as many times as you like, then when you are done
// call UpdatePairs to finalize the proxy pairs (for your time step).
func (bp *B2BroadPhase) MoveProxy(proxyId int, aabb B2AABB, displacement B2Vec2) {
	if bp.tree.MoveProxy(proxyId, aabb, displacement) {
		bp.bufferMove(proxyId)
	}
}

// TouchProxy forces a pair query for the proxy on the next update.
func (bp *B2BroadPhase) TouchProxy(proxyId int) {
	bp.bufferMove(proxyId)
}

func (bp *B2BroadPhase) GetFatAABB(proxyId int) B2AABB {
	return bp.tree.GetFatAABB(proxyId)
}

func (bp *B2BroadPhase) GetUserData(proxyId int) any {
	return bp.tree.GetUserData(proxyId)
}

// TestOverlap tests overlap of fat AABBs.
func (bp *B2BroadPhase) TestOverlap(proxyIdA, proxyIdB int) bool {
	return B2TestOverlapAABB(bp.tree.GetFatAABB(proxyIdA), bp.tree.GetFatAABB(proxyIdB))
}

func (bp *B2BroadPhase) GetProxyCount() int {
	return bp.proxyCount
}

func (bp *B2BroadPhase) GetTreeHeight() int {
	return bp.tree.GetHeight()
}

func (bp *B2BroadPhase) GetTreeBalance() int {
	return bp.tree.GetMaxBalance()
}

func (bp *B2BroadPhase) GetTreeQuality() float64 {
	return bp.tree.GetAreaRatio()
}

// UpdatePairs updates the pairs. This results in pair callbacks. This can
// only add pairs.
func (bp *B2BroadPhase) UpdatePairs(addPair B2BroadPhaseAddPairCallback) {
	// Reset pair buffer
	bp.pairBuffer = bp.pairBuffer[:0]

	// Perform tree queries for all moving proxies.
	for _, proxyId := range bp.moveBuffer {
		bp.queryProxyId = proxyId
		if proxyId == B2_nullProxy {
			continue
		}

		// We have to query the tree with the fat AABB so that
		// we don't fail to create a pair that may touch later.
		fatAABB := bp.tree.GetFatAABB(proxyId)

		// Query tree, create pairs and add them pair buffer.
		bp.tree.Query(bp.queryCallback, fatAABB)
	}

	// Sort the pair buffer to expose duplicates.
	slices.SortFunc(bp.pairBuffer, b2PairCompare)

	// Send pairs to caller
	for i := 0; i < len(bp.pairBuffer); {
		primaryPair := bp.pairBuffer[i]
		userDataA := bp.tree.GetUserData(primaryPair.ProxyIdA)
		userDataB := bp.tree.GetUserData(primaryPair.ProxyIdB)

		addPair(userDataA, userDataB)
		i++

		// Skip any duplicate pairs.
		for i < len(bp.pairBuffer) && bp.pairBuffer[i] == primaryPair {
			i++
		}
	}

	// Clear move flags
	for _, proxyId := range bp.moveBuffer {
		if proxyId == B2_nullProxy {
			continue
		}
		bp.tree.ClearMoved(proxyId)
	}

	// Reset move buffer
	bp.moveBuffer = bp.moveBuffer[:0]
}

// Query an AABB for overlapping proxies. The callback is called for each
// proxy that overlaps the supplied AABB.
func (bp *B2BroadPhase) Query(callback B2TreeQueryCallback, aabb B2AABB) {
	bp.tree.Query(callback, aabb)
}

// RayCast casts a ray against the proxies in the tree.
func (bp *B2BroadPhase) RayCast(callback B2TreeRayCastCallback, input B2RayCastInput) {
	bp.tree.RayCast(callback, input)
}

// ShiftOrigin shifts the world origin. Useful for large worlds.
func (bp *B2BroadPhase) ShiftOrigin(newOrigin B2Vec2) {
	bp.tree.ShiftOrigin(newOrigin)
}

func (bp *B2BroadPhase) bufferMove(proxyId int) {
	bp.moveBuffer = append(bp.moveBuffer, proxyId)
}

func (bp *B2BroadPhase) unBufferMove(proxyId int) {
	for i := range bp.moveBuffer {
		if bp.moveBuffer[i] == proxyId {
			bp.moveBuffer[i] = B2_nullProxy
		}
	}
}

// This is called from B2DynamicTree.Query when we are gathering pairs.
func (bp *B2BroadPhase) queryCallback(proxyId int) bool {
	// A proxy cannot form a pair with itself.
	if proxyId == bp.queryProxyId {
		return true
	}

	moved := bp.tree.WasMoved(proxyId)
	if moved && proxyId > bp.queryProxyId {
		// Both proxies are moving. Avoid duplicate pairs.
		return true
	}

	bp.pairBuffer = append(bp.pairBuffer, B2Pair{
		ProxyIdA: min(proxyId, bp.queryProxyId),
		ProxyIdB: max(proxyId, bp.queryProxyId),
	})

	return true
}
