package sim

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/toxichemicals/GO/holy-boxes/physics"
)

// Frame is what the input collaborator delivers once per iteration.
// Axes are in [-1, 1]; actions are edge triggered.
type Frame struct {
	Ahead, Right float32 // movement axes
	Yaw, Pitch   float32 // rotation axes

	Shoot           bool
	ResetPose       bool
	ToggleWireframe bool
	ReloadShaders   bool

	Quit bool
}

// Input polls the window system.
type Input interface {
	Poll() Frame
}

// RenderTarget is the drawable surface.
type RenderTarget interface {
	// Size returns the drawable size in pixels.
	Size() (width, height int)
	SwapBuffers()
}

// Scene is everything a renderer reads for one frame.
type Scene struct {
	View     mgl32.Mat4
	Eye      mgl32.Vec3
	Entities []physics.Entity
	// Lead is how far past the last physics sub-step entities are drawn.
	Lead      float32
	Wireframe bool
}

// Renderer draws a scene into a surface of the given size.
type Renderer interface {
	Render(scene Scene, width, height int) error
	ReloadShaders() error
}

// Saver persists the entity collection at shutdown.
type Saver interface {
	Save(ctx context.Context, records []physics.Record) error
}

// Effects plays feedback for discrete actions. It may be nil.
type Effects interface {
	Shoot()
}
