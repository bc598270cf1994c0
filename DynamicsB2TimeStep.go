package box2d

// B2Profile holds profiling data for the last step. Times are in milliseconds.
type B2Profile struct {
	Step          float64
	Collide       float64
	Solve         float64
	SolveInit     float64
	SolveVelocity float64
	SolvePosition float64
	Broadphase    float64
	SolveTOI      float64
}

func (p *B2Profile) accumulate(o B2Profile) {
	p.SolveInit += o.SolveInit
	p.SolveVelocity += o.SolveVelocity
	p.SolvePosition += o.SolvePosition
}

// B2TimeStep is an internal structure.
type B2TimeStep struct {
	Dt                 float64 // time step
	Inv_dt             float64 // inverse time step (0 if dt == 0).
	DtRatio            float64 // dt * inv_dt0
	VelocityIterations int
	PositionIterations int
	WarmStarting       bool
}

// B2Position is an internal structure.
type B2Position struct {
	C B2Vec2
	A float64
}

// B2Velocity is an internal structure.
type B2Velocity struct {
	V B2Vec2
	W float64
}

// B2SolverData is handed to joints while an island is solved. Body state is
// addressed through island-local indices.
type B2SolverData struct {
	Step       B2TimeStep
	Positions  []B2Position
	Velocities []B2Velocity

	island *b2Island
}

func (data *B2SolverData) indexOf(b *B2Body) int {
	return data.island.indexOf(b)
}
