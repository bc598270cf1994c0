package box2d

import (
	"math"
)

// B2TreeQueryCallback is invoked for each leaf overlapping the query box.
// Return false to terminate the query.
type B2TreeQueryCallback func(proxyId int) bool

// B2TreeRayCastCallback is invoked for each leaf whose box the ray crosses.
// The returned value follows the ray-cast fraction protocol: 0 terminates,
// a positive value clips the ray, a negative value ignores the proxy.
type B2TreeRayCastCallback func(input B2RayCastInput, proxyId int) float64

const B2_nullNode = -1

// A node in the dynamic tree. The client does not interact with this directly.
type b2TreeNode struct {
	// Enlarged AABB
	aabb B2AABB

	userData any

	// parent when allocated, next when free
	parent int

	child1 int
	child2 int

	// leaf = 0, free node = -1
	height int

	moved bool
}

func (node *b2TreeNode) isLeaf() bool {
	return node.child1 == B2_nullNode
}

// A dynamic AABB tree broad-phase, inspired by Nathanael Presson's btDbvt.
// A dynamic tree arranges data in a binary tree to accelerate
// queries such as volume queries and ray casts. Leafs are proxies
// with an AABB. In the tree we expand the proxy AABB by B2_aabbExtension
// so that the proxy AABB is bigger than the client object. This allows the client
// object to move by small amounts without triggering a tree update.
//
// Nodes are pooled and relocatable, so we use node indices rather than pointers.
type B2DynamicTree struct {
	root int

	nodes     []b2TreeNode
	nodeCount int

	freeList int

	insertionCount int
}

func MakeB2DynamicTree() B2DynamicTree {
	tree := B2DynamicTree{
		root:     B2_nullNode,
		freeList: B2_nullNode,
	}
	tree.grow(16)
	return tree
}

// grow doubles the node pool and threads the new nodes onto the free list.
func (tree *B2DynamicTree) grow(capacity int) {
	start := len(tree.nodes)
	tree.nodes = append(tree.nodes, make([]b2TreeNode, capacity-start)...)

	// Build a linked list for the free list. The parent
	// pointer becomes the "next" pointer.
	for i := start; i < capacity-1; i++ {
		tree.nodes[i].parent = i + 1
		tree.nodes[i].height = -1
	}
	tree.nodes[capacity-1].parent = tree.freeList
	tree.nodes[capacity-1].height = -1
	tree.freeList = start
}

// Allocate a node from the pool. Grow the pool if necessary.
func (tree *B2DynamicTree) allocateNode() int {
	// Expand the node pool as needed.
	if tree.freeList == B2_nullNode {
		B2Assert(tree.nodeCount == len(tree.nodes))
		tree.grow(2 * len(tree.nodes))
	}

	// Peel a node off the free list.
	nodeId := tree.freeList
	node := &tree.nodes[nodeId]
	tree.freeList = node.parent
	node.parent = B2_nullNode
	node.child1 = B2_nullNode
	node.child2 = B2_nullNode
	node.height = 0
	node.userData = nil
	node.moved = false
	tree.nodeCount++

	return nodeId
}

// Return a node to the pool.
func (tree *B2DynamicTree) freeNode(nodeId int) {
	B2Assert(0 <= nodeId && nodeId < len(tree.nodes))
	B2Assert(0 < tree.nodeCount)
	tree.nodes[nodeId].parent = tree.freeList
	tree.nodes[nodeId].height = -1
	tree.nodes[nodeId].userData = nil
	tree.freeList = nodeId
	tree.nodeCount--
}

// CreateProxy creates a proxy in the tree as a leaf node. We return the
// index of the node instead of a pointer so that we can grow the node pool.
func (tree *B2DynamicTree) CreateProxy(aabb B2AABB, userData any) int {
	proxyId := tree.allocateNode()

	// Fatten the aabb.
	r := MakeB2Vec2(B2_aabbExtension, B2_aabbExtension)
	node := &tree.nodes[proxyId]
	node.aabb.LowerBound = B2Vec2Sub(aabb.LowerBound, r)
	node.aabb.UpperBound = B2Vec2Add(aabb.UpperBound, r)
	node.userData = userData
	node.height = 0
	node.moved = true

	tree.insertLeaf(proxyId)

	return proxyId
}

// DestroyProxy destroys a proxy. This asserts if the id is invalid.
func (tree *B2DynamicTree) DestroyProxy(proxyId int) {
	B2Assert(0 <= proxyId && proxyId < len(tree.nodes))
	B2Assert(tree.nodes[proxyId].isLeaf())

	tree.removeLeaf(proxyId)
	tree.freeNode(proxyId)
}

// MoveProxy moves a proxy with a swept AABB. If the proxy has moved
// outside of its fattened AABB, or the fattened AABB became much larger
// than needed, then the proxy is removed from the tree and re-inserted.
// Otherwise the function returns immediately.
// Returns true if the proxy was re-inserted.
func (tree *B2DynamicTree) MoveProxy(proxyId int, aabb B2AABB, displacement B2Vec2) bool {
	B2Assert(0 <= proxyId && proxyId < len(tree.nodes))
	B2Assert(tree.nodes[proxyId].isLeaf())

	// Extend AABB
	r := MakeB2Vec2(B2_aabbExtension, B2_aabbExtension)
	fatAABB := B2AABB{
		LowerBound: B2Vec2Sub(aabb.LowerBound, r),
		UpperBound: B2Vec2Add(aabb.UpperBound, r),
	}

	// Predict AABB movement
	d := B2Vec2MulScalar(B2_aabbMultiplier, displacement)

	if d.X < 0.0 {
		fatAABB.LowerBound.X += d.X
	} else {
		fatAABB.UpperBound.X += d.X
	}

	if d.Y < 0.0 {
		fatAABB.LowerBound.Y += d.Y
	} else {
		fatAABB.UpperBound.Y += d.Y
	}

	treeAABB := tree.nodes[proxyId].aabb
	if treeAABB.Contains(aabb) {
		// The tree AABB still contains the object, but it might be too large.
		// Perhaps the object was moving fast but has since gone to sleep.
		// The huge AABB is larger than the new fat AABB.
		huge := B2Vec2MulScalar(4.0, r)
		hugeAABB := B2AABB{
			LowerBound: B2Vec2Sub(fatAABB.LowerBound, huge),
			UpperBound: B2Vec2Add(fatAABB.UpperBound, huge),
		}

		if hugeAABB.Contains(treeAABB) {
			// The tree AABB contains the object AABB and the tree AABB is
			// not too large. No tree update needed.
			return false
		}

		// Otherwise the tree AABB is huge and needs to be shrunk
	}

	tree.removeLeaf(proxyId)

	tree.nodes[proxyId].aabb = fatAABB

	tree.insertLeaf(proxyId)

	tree.nodes[proxyId].moved = true

	return true
}

// GetUserData returns the proxy user data or nil if the id is invalid.
func (tree *B2DynamicTree) GetUserData(proxyId int) any {
	B2Assert(0 <= proxyId && proxyId < len(tree.nodes))
	return tree.nodes[proxyId].userData
}

func (tree *B2DynamicTree) WasMoved(proxyId int) bool {
	B2Assert(0 <= proxyId && proxyId < len(tree.nodes))
	return tree.nodes[proxyId].moved
}

func (tree *B2DynamicTree) ClearMoved(proxyId int) {
	B2Assert(0 <= proxyId && proxyId < len(tree.nodes))
	tree.nodes[proxyId].moved = false
}

// GetFatAABB returns the fat AABB for a proxy.
func (tree *B2DynamicTree) GetFatAABB(proxyId int) B2AABB {
	B2Assert(0 <= proxyId && proxyId < len(tree.nodes))
	return tree.nodes[proxyId].aabb
}

// Query an AABB for overlapping proxies. The callback is called for each
// proxy that overlaps the supplied AABB.
func (tree *B2DynamicTree) Query(callback B2TreeQueryCallback, aabb B2AABB) {
	stack := b2GrowableStack[int]{items: make([]int, 0, 64)}
	stack.Push(tree.root)

	for stack.GetCount() > 0 {
		nodeId := stack.Pop()
		if nodeId == B2_nullNode {
			continue
		}

		node := &tree.nodes[nodeId]

		if B2TestOverlapAABB(node.aabb, aabb) {
			if node.isLeaf() {
				if !callback(nodeId) {
					return
				}
			} else {
				stack.Push(node.child1)
				stack.Push(node.child2)
			}
		}
	}
}

// RayCast casts a ray against the proxies in the tree. This relies on the
// callback to perform an exact ray-cast in the case were the proxy contains
// a shape. The callback also performs any collision filtering. This has
// performance roughly equal to k * log(n), where k is the number of
// collisions and n is the number of proxies in the tree.
func (tree *B2DynamicTree) RayCast(callback B2TreeRayCastCallback, input B2RayCastInput) {
	p1 := input.P1
	p2 := input.P2
	r := B2Vec2Sub(p2, p1)
	if r.LengthSquared() <= 0.0 {
		return
	}
	r.Normalize()

	// v is perpendicular to the segment.
	v := B2Vec2CrossScalarVector(1.0, r)
	abs_v := B2Vec2Abs(v)

	// Separating axis for segment (Gino, p80).
	// |dot(v, p1 - c)| > dot(|v|, h)

	maxFraction := input.MaxFraction

	// Build a bounding box for the segment.
	t := B2Vec2Add(p1, B2Vec2MulScalar(maxFraction, B2Vec2Sub(p2, p1)))
	segmentAABB := B2AABB{LowerBound: B2Vec2Min(p1, t), UpperBound: B2Vec2Max(p1, t)}

	stack := b2GrowableStack[int]{items: make([]int, 0, 64)}
	stack.Push(tree.root)

	for stack.GetCount() > 0 {
		nodeId := stack.Pop()
		if nodeId == B2_nullNode {
			continue
		}

		node := &tree.nodes[nodeId]

		if !B2TestOverlapAABB(node.aabb, segmentAABB) {
			continue
		}

		// Separating axis for segment (Gino, p80).
		// |dot(v, p1 - c)| > dot(|v|, h)
		c := node.aabb.GetCenter()
		h := node.aabb.GetExtents()
		separation := math.Abs(B2Vec2Dot(v, B2Vec2Sub(p1, c))) - B2Vec2Dot(abs_v, h)
		if separation > 0.0 {
			continue
		}

		if node.isLeaf() {
			subInput := B2RayCastInput{
				P1:          input.P1,
				P2:          input.P2,
				MaxFraction: maxFraction,
			}

			value := callback(subInput, nodeId)

			if value == 0.0 {
				// The client has terminated the ray cast.
				return
			}

			if value > 0.0 {
				// Update segment bounding box.
				maxFraction = value
				t := B2Vec2Add(p1, B2Vec2MulScalar(maxFraction, B2Vec2Sub(p2, p1)))
				segmentAABB.LowerBound = B2Vec2Min(p1, t)
				segmentAABB.UpperBound = B2Vec2Max(p1, t)
			}
		} else {
			stack.Push(node.child1)
			stack.Push(node.child2)
		}
	}
}

func (tree *B2DynamicTree) insertLeaf(leaf int) {
	tree.insertionCount++

	if tree.root == B2_nullNode {
		tree.root = leaf
		tree.nodes[tree.root].parent = B2_nullNode
		return
	}

	// Find the best sibling for this node
	leafAABB := tree.nodes[leaf].aabb
	index := tree.root
	for !tree.nodes[index].isLeaf() {
		child1 := tree.nodes[index].child1
		child2 := tree.nodes[index].child2

		area := tree.nodes[index].aabb.GetPerimeter()

		var combinedAABB B2AABB
		combinedAABB.CombineTwo(tree.nodes[index].aabb, leafAABB)
		combinedArea := combinedAABB.GetPerimeter()

		// Cost of creating a new parent for this node and the new leaf
		cost := 2.0 * combinedArea

		// Minimum cost of pushing the leaf further down the tree
		inheritanceCost := 2.0 * (combinedArea - area)

		// Cost of descending into child1 and child2
		cost1 := tree.descendCost(child1, leafAABB) + inheritanceCost
		cost2 := tree.descendCost(child2, leafAABB) + inheritanceCost

		// Descend according to the minimum cost.
		if cost < cost1 && cost < cost2 {
			break
		}

		// Descend
		if cost1 < cost2 {
			index = child1
		} else {
			index = child2
		}
	}

	sibling := index

	// Create a new parent.
	oldParent := tree.nodes[sibling].parent
	newParent := tree.allocateNode()
	tree.nodes[newParent].parent = oldParent
	tree.nodes[newParent].userData = nil
	tree.nodes[newParent].aabb.CombineTwo(leafAABB, tree.nodes[sibling].aabb)
	tree.nodes[newParent].height = tree.nodes[sibling].height + 1

	if oldParent != B2_nullNode {
		// The sibling was not the root.
		if tree.nodes[oldParent].child1 == sibling {
			tree.nodes[oldParent].child1 = newParent
		} else {
			tree.nodes[oldParent].child2 = newParent
		}
	} else {
		// The sibling was the root.
		tree.root = newParent
	}

	tree.nodes[newParent].child1 = sibling
	tree.nodes[newParent].child2 = leaf
	tree.nodes[sibling].parent = newParent
	tree.nodes[leaf].parent = newParent

	// Walk back up the tree fixing heights and AABBs
	tree.refit(tree.nodes[leaf].parent)
}

func (tree *B2DynamicTree) descendCost(child int, leafAABB B2AABB) float64 {
	var aabb B2AABB
	aabb.CombineTwo(leafAABB, tree.nodes[child].aabb)
	if tree.nodes[child].isLeaf() {
		return aabb.GetPerimeter()
	}

	oldArea := tree.nodes[child].aabb.GetPerimeter()
	newArea := aabb.GetPerimeter()
	return newArea - oldArea
}

// refit walks from index to the root rebalancing and recomputing bounds.
func (tree *B2DynamicTree) refit(index int) {
	for index != B2_nullNode {
		index = tree.balance(index)

		child1 := tree.nodes[index].child1
		child2 := tree.nodes[index].child2

		B2Assert(child1 != B2_nullNode)
		B2Assert(child2 != B2_nullNode)

		tree.nodes[index].height = 1 + max(tree.nodes[child1].height, tree.nodes[child2].height)
		tree.nodes[index].aabb.CombineTwo(tree.nodes[child1].aabb, tree.nodes[child2].aabb)

		index = tree.nodes[index].parent
	}
}

func (tree *B2DynamicTree) removeLeaf(leaf int) {
	if leaf == tree.root {
		tree.root = B2_nullNode
		return
	}

	parent := tree.nodes[leaf].parent
	grandParent := tree.nodes[parent].parent
	sibling := tree.nodes[parent].child1
	if sibling == leaf {
		sibling = tree.nodes[parent].child2
	}

	if grandParent != B2_nullNode {
		// Destroy parent and connect sibling to grandParent.
		if tree.nodes[grandParent].child1 == parent {
			tree.nodes[grandParent].child1 = sibling
		} else {
			tree.nodes[grandParent].child2 = sibling
		}
		tree.nodes[sibling].parent = grandParent
		tree.freeNode(parent)

		// Adjust ancestor bounds.
		tree.refit(grandParent)
	} else {
		tree.root = sibling
		tree.nodes[sibling].parent = B2_nullNode
		tree.freeNode(parent)
	}
}

// Perform a left or right rotation if node A is imbalanced.
// Returns the new root index.
func (tree *B2DynamicTree) balance(iA int) int {
	B2Assert(iA != B2_nullNode)

	A := &tree.nodes[iA]
	if A.isLeaf() || A.height < 2 {
		return iA
	}

	iB := A.child1
	iC := A.child2

	B := &tree.nodes[iB]
	C := &tree.nodes[iC]

	balance := C.height - B.height

	// Rotate C up
	if balance > 1 {
		iF := C.child1
		iG := C.child2
		F := &tree.nodes[iF]
		G := &tree.nodes[iG]

		// Swap A and C
		C.child1 = iA
		C.parent = A.parent
		A.parent = iC

		// A's old parent should point to C
		if C.parent != B2_nullNode {
			if tree.nodes[C.parent].child1 == iA {
				tree.nodes[C.parent].child1 = iC
			} else {
				B2Assert(tree.nodes[C.parent].child2 == iA)
				tree.nodes[C.parent].child2 = iC
			}
		} else {
			tree.root = iC
		}

		// Rotate
		if F.height > G.height {
			C.child2 = iF
			A.child2 = iG
			G.parent = iA
			A.aabb.CombineTwo(B.aabb, G.aabb)
			C.aabb.CombineTwo(A.aabb, F.aabb)

			A.height = 1 + max(B.height, G.height)
			C.height = 1 + max(A.height, F.height)
		} else {
			C.child2 = iG
			A.child2 = iF
			F.parent = iA
			A.aabb.CombineTwo(B.aabb, F.aabb)
			C.aabb.CombineTwo(A.aabb, G.aabb)

			A.height = 1 + max(B.height, F.height)
			C.height = 1 + max(A.height, G.height)
		}

		return iC
	}

	// Rotate B up
	if balance < -1 {
		iD := B.child1
		iE := B.child2

		D := &tree.nodes[iD]
		E := &tree.nodes[iE]

		// Swap A and B
		B.child1 = iA
		B.parent = A.parent
		A.parent = iB

		// A's old parent should point to B
		if B.parent != B2_nullNode {
			if tree.nodes[B.parent].child1 == iA {
				tree.nodes[B.parent].child1 = iB
			} else {
				B2Assert(tree.nodes[B.parent].child2 == iA)
				tree.nodes[B.parent].child2 = iB
			}
		} else {
			tree.root = iB
		}

		// Rotate
		if D.height > E.height {
			B.child2 = iD
			A.child1 = iE
			E.parent = iA
			A.aabb.CombineTwo(C.aabb, E.aabb)
			B.aabb.CombineTwo(A.aabb, D.aabb)

			A.height = 1 + max(C.height, E.height)
			B.height = 1 + max(A.height, D.height)
		} else {
			B.child2 = iE
			A.child1 = iD
			D.parent = iA
			A.aabb.CombineTwo(C.aabb, D.aabb)
			B.aabb.CombineTwo(A.aabb, E.aabb)

			A.height = 1 + max(C.height, D.height)
			B.height = 1 + max(A.height, E.height)
		}

		return iB
	}

	return iA
}

// GetHeight returns the height of the root node.
func (tree *B2DynamicTree) GetHeight() int {
	if tree.root == B2_nullNode {
		return 0
	}

	return tree.nodes[tree.root].height
}

// GetAreaRatio gets the ratio of the sum of the node areas to the root area.
func (tree *B2DynamicTree) GetAreaRatio() float64 {
	if tree.root == B2_nullNode {
		return 0.0
	}

	rootArea := tree.nodes[tree.root].aabb.GetPerimeter()

	totalArea := 0.0
	for i := range tree.nodes {
		node := &tree.nodes[i]
		if node.height < 0 {
			// Free node in pool
			continue
		}

		totalArea += node.aabb.GetPerimeter()
	}

	return totalArea / rootArea
}

// GetMaxBalance gets the maximum balance of an node in the tree. The balance
// is the difference in height of the two children of a node.
func (tree *B2DynamicTree) GetMaxBalance() int {
	maxBalance := 0
	for i := range tree.nodes {
		node := &tree.nodes[i]
		if node.height <= 1 {
			continue
		}

		B2Assert(!node.isLeaf())

		balance := tree.nodes[node.child2].height - tree.nodes[node.child1].height
		if balance < 0 {
			balance = -balance
		}
		maxBalance = max(maxBalance, balance)
	}

	return maxBalance
}

func (tree *B2DynamicTree) computeHeight(nodeId int) int {
	node := &tree.nodes[nodeId]
	if node.isLeaf() {
		return 0
	}

	return 1 + max(tree.computeHeight(node.child1), tree.computeHeight(node.child2))
}

func (tree *B2DynamicTree) validateStructure(index int) bool {
	if index == B2_nullNode {
		return true
	}

	if index == tree.root && tree.nodes[index].parent != B2_nullNode {
		return false
	}

	node := &tree.nodes[index]
	child1 := node.child1
	child2 := node.child2

	if node.isLeaf() {
		return child2 == B2_nullNode && node.height == 0
	}

	if child1 < 0 || child1 >= len(tree.nodes) || child2 < 0 || child2 >= len(tree.nodes) {
		return false
	}
	if tree.nodes[child1].parent != index || tree.nodes[child2].parent != index {
		return false
	}

	return tree.validateStructure(child1) && tree.validateStructure(child2)
}

func (tree *B2DynamicTree) validateMetrics(index int) bool {
	if index == B2_nullNode {
		return true
	}

	node := &tree.nodes[index]
	if node.isLeaf() {
		return node.height == 0
	}

	child1 := node.child1
	child2 := node.child2

	height := 1 + max(tree.nodes[child1].height, tree.nodes[child2].height)
	if node.height != height {
		return false
	}

	var aabb B2AABB
	aabb.CombineTwo(tree.nodes[child1].aabb, tree.nodes[child2].aabb)
	if aabb.LowerBound != node.aabb.LowerBound || aabb.UpperBound != node.aabb.UpperBound {
		return false
	}

	return tree.validateMetrics(child1) && tree.validateMetrics(child2)
}

// Validate checks the structure, heights, bounds and free list of the tree.
func (tree *B2DynamicTree) Validate() bool {
	if !tree.validateStructure(tree.root) || !tree.validateMetrics(tree.root) {
		return false
	}

	freeCount := 0
	for freeIndex := tree.freeList; freeIndex != B2_nullNode; freeIndex = tree.nodes[freeIndex].parent {
		if freeIndex < 0 || freeIndex >= len(tree.nodes) {
			return false
		}
		freeCount++
	}

	if tree.root != B2_nullNode && tree.GetHeight() != tree.computeHeight(tree.root) {
		return false
	}

	return tree.nodeCount+freeCount == len(tree.nodes)
}

// ShiftOrigin shifts the world origin. Useful for large worlds.
// The shift formula is: position -= newOrigin
func (tree *B2DynamicTree) ShiftOrigin(newOrigin B2Vec2) {
	for i := range tree.nodes {
		tree.nodes[i].aabb.LowerBound.OperatorMinusInplace(newOrigin)
		tree.nodes[i].aabb.UpperBound.OperatorMinusInplace(newOrigin)
	}
}
