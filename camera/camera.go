// Package camera implements the free-fly camera: yaw/pitch in degrees plus a
// position, integrated from normalized input axes once per frame.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxPitch bounds the pitch in both directions so the view never flips.
const MaxPitch = 89.0

var worldUp = mgl32.Vec3{0, 1, 0}

// Config holds speeds and the home pose.
type Config struct {
	RotationSpeed float32    `yaml:"rotation_speed"` // degrees per second at full input
	MoveSpeed     float32    `yaml:"move_speed"`     // units per second at full input
	HomeYaw       float32    `yaml:"yaw"`
	HomePitch     float32    `yaml:"pitch"`
	HomePosition  mgl32.Vec3 `yaml:"position,flow"`
}

func DefaultConfig() Config {
	return Config{
		RotationSpeed: 60,
		MoveSpeed:     10,
		HomeYaw:       -45,
		HomePitch:     -30,
		HomePosition:  mgl32.Vec3{-50, 50, 50},
	}
}

// Controller is the camera state. The basis vectors and view matrix are
// derived from yaw, pitch and position and recomputed on every Tick.
type Controller struct {
	cfg Config

	yaw, pitch float32
	position   mgl32.Vec3

	// input intents in [-1, 1]
	inYaw, inPitch    float32
	inAhead, inStrafe float32

	forward, right, up mgl32.Vec3
	view               mgl32.Mat4
}

// New returns a controller at the home pose.
func New(cfg Config) *Controller {
	c := &Controller{cfg: cfg}
	c.ResetPose()
	return c
}

// ApplyRotationInput stores the yaw and pitch rate intents.
func (c *Controller) ApplyRotationInput(yawRate, pitchRate float32) {
	c.inYaw = mgl32.Clamp(yawRate, -1, 1)
	c.inPitch = mgl32.Clamp(pitchRate, -1, 1)
}

// ApplyMovementInput stores the forward and strafe intents.
func (c *Controller) ApplyMovementInput(forwardRate, strafeRate float32) {
	c.inAhead = mgl32.Clamp(forwardRate, -1, 1)
	c.inStrafe = mgl32.Clamp(strafeRate, -1, 1)
}

// Tick integrates dt seconds of input. Rotation is applied first and the
// movement uses the basis of the updated orientation.
func (c *Controller) Tick(dt float32) {
	c.yaw += c.inYaw * dt * c.cfg.RotationSpeed
	c.pitch += c.inPitch * dt * c.cfg.RotationSpeed
	c.pitch = mgl32.Clamp(c.pitch, -MaxPitch, MaxPitch)

	c.updateBasis()

	step := dt * c.cfg.MoveSpeed
	c.position = c.position.
		Add(c.forward.Mul(c.inAhead * step)).
		Add(c.right.Mul(c.inStrafe * step))

	c.view = mgl32.LookAtV(c.position, c.position.Add(c.forward), c.up)
}

// ResetPose moves the camera back to the home pose.
func (c *Controller) ResetPose() {
	c.yaw = c.cfg.HomeYaw
	c.pitch = mgl32.Clamp(c.cfg.HomePitch, -MaxPitch, MaxPitch)
	c.position = c.cfg.HomePosition
	c.updateBasis()
	c.view = mgl32.LookAtV(c.position, c.position.Add(c.forward), c.up)
}

func (c *Controller) updateBasis() {
	yaw, pitch := mgl32.DegToRad(c.yaw), mgl32.DegToRad(c.pitch)
	c.forward = mgl32.Vec3{
		math32.Cos(pitch) * math32.Cos(yaw),
		math32.Sin(pitch),
		math32.Cos(pitch) * math32.Sin(yaw),
	}.Normalize()
	c.right = c.forward.Cross(worldUp)
	c.up = c.right.Cross(c.forward)
}

func (c *Controller) Yaw() float32         { return c.yaw }
func (c *Controller) Pitch() float32       { return c.pitch }
func (c *Controller) Position() mgl32.Vec3 { return c.position }
func (c *Controller) Forward() mgl32.Vec3  { return c.forward }
func (c *Controller) Right() mgl32.Vec3    { return c.right }
func (c *Controller) Up() mgl32.Vec3       { return c.up }
func (c *Controller) View() mgl32.Mat4     { return c.view }
