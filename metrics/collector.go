// Package metrics exports the state of a box2d world to Prometheus.
package metrics

import (
	"sync"

	"github.com/ByteArena/box2d/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector keeps the figures of the last observed step. The simulation
// goroutine calls Observe after each step; scrapes read the copy so they
// never touch the world.
type Collector struct {
	mu sync.Mutex

	profile     box2d.B2Profile
	bodies      int
	awake       int
	contacts    int
	touching    int
	joints      int
	proxies     int
	treeHeight  int
	treeQuality float64

	steps        prometheus.Counter
	stepDuration prometheus.Histogram

	bodiesDesc      *prometheus.Desc
	awakeDesc       *prometheus.Desc
	contactsDesc    *prometheus.Desc
	touchingDesc    *prometheus.Desc
	jointsDesc      *prometheus.Desc
	proxiesDesc     *prometheus.Desc
	treeHeightDesc  *prometheus.Desc
	treeQualityDesc *prometheus.Desc
	phaseDesc       *prometheus.Desc
}

func NewCollector(namespace string) *Collector {
	gauge := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}

	return &Collector{
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Number of observed world steps",
		}),
		stepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Time spent in a world step",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
		}),

		bodiesDesc:      gauge("bodies", "Number of bodies"),
		awakeDesc:       gauge("awake_bodies", "Number of awake bodies"),
		contactsDesc:    gauge("contacts", "Number of contacts whose fat AABBs overlap"),
		touchingDesc:    gauge("touching_contacts", "Number of touching contacts"),
		jointsDesc:      gauge("joints", "Number of joints"),
		proxiesDesc:     gauge("proxies", "Number of broad-phase proxies"),
		treeHeightDesc:  gauge("tree_height", "Height of the broad-phase tree"),
		treeQualityDesc: gauge("tree_quality", "Ratio of summed node perimeters to the root perimeter"),
		phaseDesc:       gauge("step_phase_seconds", "Time spent in each phase of the last step", "phase"),
	}
}

// Observe records the world after a step. It must not run concurrently
// with the step.
func (c *Collector) Observe(world *box2d.B2World) {
	awake := 0
	for _, b := range world.GetBodies() {
		if b.IsAwake() {
			awake++
		}
	}

	touching := 0
	for _, contact := range world.GetContacts() {
		if contact.IsTouching() {
			touching++
		}
	}

	profile := world.GetProfile()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.profile = profile
	c.bodies = world.GetBodyCount()
	c.awake = awake
	c.contacts = world.GetContactCount()
	c.touching = touching
	c.joints = world.GetJointCount()
	c.proxies = world.GetProxyCount()
	c.treeHeight = world.GetTreeHeight()
	c.treeQuality = world.GetTreeQuality()

	c.steps.Inc()
	c.stepDuration.Observe(profile.Step / 1000.0)
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.steps.Describe(ch)
	c.stepDuration.Describe(ch)

	ch <- c.bodiesDesc
	ch <- c.awakeDesc
	ch <- c.contactsDesc
	ch <- c.touchingDesc
	ch <- c.jointsDesc
	ch <- c.proxiesDesc
	ch <- c.treeHeightDesc
	ch <- c.treeQualityDesc
	ch <- c.phaseDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.steps.Collect(ch)
	c.stepDuration.Collect(ch)

	gauge := func(desc *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, labels...)
	}

	gauge(c.bodiesDesc, float64(c.bodies))
	gauge(c.awakeDesc, float64(c.awake))
	gauge(c.contactsDesc, float64(c.contacts))
	gauge(c.touchingDesc, float64(c.touching))
	gauge(c.jointsDesc, float64(c.joints))
	gauge(c.proxiesDesc, float64(c.proxies))
	gauge(c.treeHeightDesc, float64(c.treeHeight))
	gauge(c.treeQualityDesc, c.treeQuality)

	// Profile timings are in milliseconds.
	for _, phase := range []struct {
		name string
		ms   float64
	}{
		{"collide", c.profile.Collide},
		{"solve", c.profile.Solve},
		{"solve_init", c.profile.SolveInit},
		{"solve_velocity", c.profile.SolveVelocity},
		{"solve_position", c.profile.SolvePosition},
		{"broadphase", c.profile.Broadphase},
		{"solve_toi", c.profile.SolveTOI},
	} {
		gauge(c.phaseDesc, phase.ms/1000.0, phase.name)
	}
}
