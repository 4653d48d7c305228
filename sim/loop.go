// Package sim drives the sandbox: one iteration polls input, steps the
// physics world and the camera with the same clamped elapsed time, and
// renders the result.
package sim

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/toxichemicals/GO/holy-boxes/camera"
	"github.com/toxichemicals/GO/holy-boxes/physics"
)

var logger = log.New(os.Stderr, "sim: ", log.LstdFlags|log.Lmsgprefix)

// Config holds the loop's timing and shooting parameters.
type Config struct {
	MaxFrameTime  time.Duration `yaml:"max_frame_time"`
	ShootCooldown time.Duration `yaml:"shoot_cooldown"`
	ShootDistance float32       `yaml:"shoot_distance"`
	ShootImpulse  float32       `yaml:"shoot_impulse"`
}

func DefaultConfig() Config {
	return Config{
		MaxFrameTime:  250 * time.Millisecond,
		ShootCooldown: 200 * time.Millisecond,
		ShootDistance: 10,
		ShootImpulse:  60,
	}
}

// Deps are the components a Loop composes. Effects and Clock are optional.
type Deps struct {
	Input    Input
	Target   RenderTarget
	Renderer Renderer
	World    *physics.World
	Camera   *camera.Controller
	Saver    Saver
	Effects  Effects
	Clock    func() time.Time
}

// Loop is the frame driver. It runs on the thread owning the graphics context.
type Loop struct {
	cfg     Config
	subStep float32
	Deps

	last      time.Time
	cooldown  float32
	wireframe bool
}

// NewLoop returns a loop stepping physics in sub-steps of subStep.
func NewLoop(cfg Config, subStep time.Duration, deps Deps) *Loop {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Loop{
		cfg:     cfg,
		subStep: float32(subStep.Seconds()),
		Deps:    deps,
	}
}

// Wireframe reports whether boxes are drawn as wireframes.
func (l *Loop) Wireframe() bool { return l.wireframe }

// Iterate runs a single iteration and reports whether the loop should go on.
func (l *Loop) Iterate() (bool, error) {
	f := l.Input.Poll()
	if f.Quit {
		return false, nil
	}

	l.Camera.ApplyMovementInput(f.Ahead, f.Right)
	l.Camera.ApplyRotationInput(f.Yaw, f.Pitch)
	if f.ResetPose {
		l.Camera.ResetPose()
	}
	if f.ToggleWireframe {
		l.wireframe = !l.wireframe
	}
	if f.ReloadShaders {
		if err := l.Renderer.ReloadShaders(); err != nil {
			logger.Printf("reload shaders: %v", err)
		}
	}

	dt := l.elapsed()

	l.cooldown -= dt
	if f.Shoot && l.cooldown <= 0 {
		l.shoot()
		l.cooldown = float32(l.cfg.ShootCooldown.Seconds())
	}

	l.World.Step(dt, l.subStep)
	l.Camera.Tick(dt)

	width, height := l.Target.Size()
	scene := Scene{
		View:      l.Camera.View(),
		Eye:       l.Camera.Position(),
		Entities:  l.World.Entities(),
		Lead:      l.World.InterpolationTime(),
		Wireframe: l.wireframe,
	}
	if err := l.Renderer.Render(scene, width, height); err != nil {
		return false, errors.Wrap(err, "render")
	}
	l.Target.SwapBuffers()
	return true, nil
}

// elapsed returns the seconds since the previous iteration, clamped to
// MaxFrameTime so a stall does not turn into a large simulation jump.
func (l *Loop) elapsed() float32 {
	now := l.Clock()
	if l.last.IsZero() {
		l.last = now
	}
	d := now.Sub(l.last)
	l.last = now
	if d > l.cfg.MaxFrameTime {
		d = l.cfg.MaxFrameTime
	}
	if d < 0 {
		d = 0
	}
	return float32(d.Seconds())
}

// shoot launches a random box from in front of the camera.
func (l *Loop) shoot() {
	fwd := l.Camera.Forward()
	pos := l.Camera.Position().Add(fwd.Mul(l.cfg.ShootDistance))
	id := l.World.SpawnRandomBox(pos)
	l.World.ApplyImpulse(id, fwd.Mul(l.cfg.ShootImpulse))
	if l.Effects != nil {
		l.Effects.Shoot()
	}
}

// Run iterates until the input asks to quit or ctx is done, then persists
// the entity collection once. A render error stops the loop without saving.
func (l *Loop) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		ok, err := l.Iterate()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	if ctx.Err() != nil {
		logger.Printf("interrupted: %v", context.Cause(ctx))
	}
	return l.persist(context.WithoutCancel(ctx))
}

func (l *Loop) persist(ctx context.Context) error {
	records := l.World.Snapshot()
	if err := l.Saver.Save(ctx, records); err != nil {
		return errors.Wrap(err, "save boxes")
	}
	logger.Printf("saved %d boxes", len(records))
	return nil
}
