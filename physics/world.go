// Package physics simulates the sandbox: a static ground plane and unit
// boxes of mass 1, advanced with bounded fixed-size sub-steps.
package physics

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// BoxMass is the mass of every box body.
	BoxMass = 1

	sleepLinearThreshold  = 0.8
	sleepAngularThreshold = 1.0
	sleepDelay            = 2.0 // seconds at rest before a body is deactivated
)

// Config holds the world's fixed parameters.
type Config struct {
	Gravity          float32       `yaml:"gravity"`
	SubStep          time.Duration `yaml:"sub_step"`
	MaxSubSteps      int           `yaml:"max_sub_steps"`
	GroundFriction   float32       `yaml:"ground_friction"`
	BoxFriction      float32       `yaml:"box_friction"`
	SolverIterations int           `yaml:"solver_iterations"`
	Seed             uint64        `yaml:"seed"`
}

// DefaultConfig returns the sandbox defaults.
func DefaultConfig() Config {
	return Config{
		Gravity:          -9.8,
		SubStep:          15 * time.Millisecond,
		MaxSubSteps:      5,
		GroundFriction:   1.5,
		BoxFriction:      1.1,
		SolverIterations: 10,
	}
}

// EntityID indexes the world's entity collection.
type EntityID int

// Entity is a box body plus its render color.
type Entity struct {
	Body  *Body
	Color mgl32.Vec3
}

// Transform returns the world transform of the entity's body.
func (e Entity) Transform() mgl32.Mat4 {
	return e.Body.Transform()
}

// InterpolatedTransform is the body's transform extrapolated by dt seconds,
// normally World.InterpolationTime.
func (e Entity) InterpolatedTransform(dt float32) mgl32.Mat4 {
	return e.Body.InterpolatedTransform(dt)
}

// World owns the ground, every box body and the entity collection.
// Entities are only ever appended, or dropped all at once by Load.
type World struct {
	cfg         Config
	rng         *rand.Rand
	initialized bool

	gravity  mgl32.Vec3
	ground   *Body
	boxShape *BoxShape

	bodies     []*Body // every registered body, ground first
	broadphase sweepAndPrune
	solver     sequentialImpulse
	localTime  float64

	entities []Entity

	// scratch
	pairs    [][2]*Body
	contacts []contact
}

// NewWorld returns an uninitialized world drawing random values from rng.
func NewWorld(cfg Config, rng *rand.Rand) *World {
	return &World{cfg: cfg, rng: rng}
}

func (w *World) mustBeInitialized(op string) {
	if !w.initialized {
		panic(fmt.Sprintf("physics: %s called before Initialize", op))
	}
}

// Initialize builds the simulation context and the static ground. It must
// be called exactly once, before anything else.
func (w *World) Initialize() {
	if w.initialized {
		panic("physics: Initialize called twice")
	}
	w.gravity = mgl32.Vec3{0, w.cfg.Gravity, 0}
	w.solver = sequentialImpulse{iterations: max(w.cfg.SolverIterations, 1)}

	w.ground = newPlaneBody(&PlaneShape{Normal: mgl32.Vec3{0, 1, 0}}, w.cfg.GroundFriction)
	w.bodies = append(w.bodies, w.ground)

	w.boxShape = &BoxShape{HalfExtents: mgl32.Vec3{0.5, 0.5, 0.5}}
	w.initialized = true
}

// Initialized reports whether Initialize has run.
func (w *World) Initialized() bool { return w.initialized }

// Gravity returns the constant gravity vector.
func (w *World) Gravity() mgl32.Vec3 { return w.gravity }

// Ground returns the static ground body.
func (w *World) Ground() *Body { return w.ground }

// NumBodies returns the number of bodies registered in the simulation,
// including the ground.
func (w *World) NumBodies() int { return len(w.bodies) }

// Entities returns the boxes in insertion order. The slice is owned by the
// world and must not be modified; it is invalidated by the next spawn or Load.
func (w *World) Entities() []Entity { return w.entities }

// Entity returns the entity with the given id.
func (w *World) Entity(id EntityID) Entity {
	if id < 0 || int(id) >= len(w.entities) {
		panic(fmt.Sprintf("physics: unknown entity %d", id))
	}
	return w.entities[id]
}

// Orientation converts yaw (about Y), pitch (about X) and roll (about Z),
// in radians, to Ry·Rx·Rz.
func Orientation(yaw, pitch, roll float32) mgl32.Quat {
	qy := mgl32.QuatRotate(yaw, mgl32.Vec3{0, 1, 0})
	qx := mgl32.QuatRotate(pitch, mgl32.Vec3{1, 0, 0})
	qz := mgl32.QuatRotate(roll, mgl32.Vec3{0, 0, 1})
	return qy.Mul(qx).Mul(qz)
}

// EulerAngles is the inverse of Orientation. Pitch is in [-π/2, π/2].
func EulerAngles(q mgl32.Quat) (yaw, pitch, roll float32) {
	m := q.Normalize().Mat4().Mat3()
	sp := mgl32.Clamp(-m.At(1, 2), -1, 1)
	pitch = math32.Asin(sp)
	if math32.Abs(sp) > 0.99999 {
		// gimbal lock: fold roll into yaw
		return math32.Atan2(-m.At(2, 0), m.At(0, 0)), pitch, 0
	}
	yaw = math32.Atan2(m.At(0, 2), m.At(2, 2))
	roll = math32.Atan2(m.At(1, 0), m.At(1, 1))
	return yaw, pitch, roll
}

// SpawnBox adds a dynamic box at the given pose.
func (w *World) SpawnBox(pos mgl32.Vec3, yaw, pitch, roll float32, color mgl32.Vec3) EntityID {
	w.mustBeInitialized("SpawnBox")
	body := newBoxBody(w.boxShape, BoxMass, w.cfg.BoxFriction, pos, Orientation(yaw, pitch, roll))
	w.bodies = append(w.bodies, body)
	w.broadphase.add(body)
	w.entities = append(w.entities, Entity{Body: body, Color: color})
	return EntityID(len(w.entities) - 1)
}

// SpawnRandomBox adds a box with a random color and a random yaw in [0°, 90°).
func (w *World) SpawnRandomBox(pos mgl32.Vec3) EntityID {
	color := mgl32.Vec3{w.rng.Float32(), w.rng.Float32(), w.rng.Float32()}
	yaw := w.rng.Float32() * mgl32.DegToRad(90)
	return w.SpawnBox(pos, yaw, 0, 0, color)
}

// ApplyImpulse applies an instantaneous impulse through the box's centre.
func (w *World) ApplyImpulse(id EntityID, impulse mgl32.Vec3) {
	w.mustBeInitialized("ApplyImpulse")
	w.Entity(id).Body.ApplyCentralImpulse(impulse)
}

// Step advances the simulation by elapsed seconds of wall time in sub-steps
// of subStep seconds. Time is accumulated across calls; at most
// cfg.MaxSubSteps sub-steps run per call and any excess time is dropped.
// It returns the number of sub-steps taken.
func (w *World) Step(elapsed, subStep float32) int {
	w.mustBeInitialized("Step")
	if subStep <= 0 {
		panic("physics: non-positive sub-step")
	}

	w.localTime += float64(elapsed)
	n := 0
	if w.localTime >= float64(subStep) {
		n = int(w.localTime / float64(subStep))
		w.localTime -= float64(n) * float64(subStep)
	}
	if limit := max(w.cfg.MaxSubSteps, 1); n > limit {
		n = limit
	}
	for i := 0; i < n; i++ {
		w.singleStep(subStep)
	}
	return n
}

// InterpolationTime is the accumulated time not yet consumed by a sub-step.
// Renderers draw poses advanced by it.
func (w *World) InterpolationTime() float32 {
	return float32(w.localTime)
}

func (w *World) singleStep(h float32) {
	dynamic := w.bodies[1:]

	for _, b := range dynamic {
		if b.awakeDynamic() {
			b.LinearVelocity = b.LinearVelocity.Add(w.gravity.Mul(h))
		}
		b.updateCache(b.sweptMargin(h))
	}

	// broadphase: box pairs by sweep and prune, boxes against the ground
	w.pairs = w.broadphase.pairs(w.pairs[:0])
	for _, b := range dynamic {
		if b.awakeDynamic() {
			w.pairs = append(w.pairs, [2]*Body{w.ground, b})
		}
	}

	w.contacts = w.contacts[:0]
	for _, p := range w.pairs {
		n := len(w.contacts)
		w.contacts = collide(p[0], p[1], h, w.contacts)
		if len(w.contacts) > n {
			wakeTouching(p[0], p[1])
		}
	}

	w.solver.prepare(w.contacts, h)
	w.solver.solve(w.contacts)

	for _, b := range dynamic {
		if !b.awakeDynamic() {
			continue
		}
		b.integrate(h)
		w.updateSleep(b, h)
	}
}

// wakeTouching wakes a sleeping body touched by a moving one. A body that
// is already counting down to sleep leaves its sleeping neighbours alone.
func wakeTouching(a, b *Body) {
	switch {
	case a.moving() && b.sleeping:
		b.wake()
	case b.moving() && a.sleeping:
		a.wake()
	}
}

func (w *World) updateSleep(b *Body, h float32) {
	if b.LinearVelocity.Len() < sleepLinearThreshold && b.AngularVelocity.Len() < sleepAngularThreshold {
		b.sleepTime += h
		if b.sleepTime >= sleepDelay {
			b.sleeping = true
			b.LinearVelocity = mgl32.Vec3{}
			b.AngularVelocity = mgl32.Vec3{}
		}
		return
	}
	b.sleepTime = 0
}
