package camera

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func TestHomePose(t *testing.T) {
	c := New(DefaultConfig())
	if c.Yaw() != -45 || c.Pitch() != -30 {
		t.Fatalf("home yaw/pitch = %v/%v", c.Yaw(), c.Pitch())
	}
	if c.Position() != (mgl32.Vec3{-50, 50, 50}) {
		t.Fatalf("home position = %v", c.Position())
	}
	// looking down towards the origin
	if f := c.Forward(); f[1] >= 0 || f[0] <= 0 || f[2] >= 0 {
		t.Errorf("home forward = %v", f)
	}
}

func TestYawIntegration(t *testing.T) {
	c := New(DefaultConfig())
	start := c.Yaw()
	c.ApplyRotationInput(1, 0)
	for i := 0; i < 3; i++ {
		c.Tick(1.0)
	}
	if got := c.Yaw(); math32.Abs(got-(start+180)) > 1e-4 {
		t.Fatalf("yaw = %v, want %v", got, start+180)
	}
}

func TestPitchAlwaysClamped(t *testing.T) {
	c := New(DefaultConfig())
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		c.ApplyRotationInput(rng.Float32()*2-1, rng.Float32()*4-2)
		c.Tick(rng.Float32() * 3)
		if p := c.Pitch(); p < -MaxPitch || p > MaxPitch {
			t.Fatalf("tick %d: pitch %v out of range", i, p)
		}
	}

	c.ApplyRotationInput(0, 1)
	c.Tick(100)
	if c.Pitch() != MaxPitch {
		t.Errorf("pitch = %v, want %v", c.Pitch(), MaxPitch)
	}
	c.ApplyRotationInput(0, -1)
	c.Tick(100)
	if c.Pitch() != -MaxPitch {
		t.Errorf("pitch = %v, want %v", c.Pitch(), -float32(MaxPitch))
	}
}

func TestMovementUsesUpdatedBasis(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HomeYaw, cfg.HomePitch = 0, 0
	cfg.HomePosition = mgl32.Vec3{}
	c := New(cfg)

	// turn 90° and move in the same tick: the move follows the new heading
	c.ApplyRotationInput(1, 0)
	c.ApplyMovementInput(1, 0)
	c.Tick(1.5)

	want := mgl32.Vec3{0, 0, 15}
	if got := c.Position(); got.Sub(want).Len() > 1e-4 {
		t.Fatalf("position = %v, want %v", got, want)
	}
}

func TestStrafe(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HomeYaw, cfg.HomePitch = 0, 0
	cfg.HomePosition = mgl32.Vec3{}
	c := New(cfg)

	c.ApplyMovementInput(0, 1)
	c.Tick(0.5)
	// facing +x, right is +z
	if got := c.Position(); got.Sub(mgl32.Vec3{0, 0, 5}).Len() > 1e-4 {
		t.Fatalf("position = %v", got)
	}
}

func TestBasisIsOrthogonal(t *testing.T) {
	c := New(DefaultConfig())
	c.ApplyRotationInput(0.3, 0.7)
	c.Tick(0.4)

	f, r, u := c.Forward(), c.Right(), c.Up()
	if math32.Abs(f.Len()-1) > 1e-5 {
		t.Errorf("|forward| = %v", f.Len())
	}
	if math32.Abs(f.Dot(r)) > 1e-5 || math32.Abs(f.Dot(u)) > 1e-5 || math32.Abs(r.Dot(u)) > 1e-5 {
		t.Errorf("basis not orthogonal: f=%v r=%v u=%v", f, r, u)
	}
	if u[1] <= 0 {
		t.Errorf("up points down: %v", u)
	}
}

func TestViewMatchesLookAt(t *testing.T) {
	c := New(DefaultConfig())
	c.ApplyMovementInput(1, -1)
	c.Tick(0.1)

	want := mgl32.LookAtV(c.Position(), c.Position().Add(c.Forward()), c.Up())
	if !matNear(c.View(), want, 1e-5) {
		t.Fatalf("view = %v, want %v", c.View(), want)
	}
	// the eye maps to the origin of view space
	eye := c.View().Mul4x1(c.Position().Vec4(1))
	if eye.Vec3().Len() > 1e-3 {
		t.Errorf("eye in view space = %v", eye)
	}
}

// matNear compares element-wise with an absolute tolerance.
func matNear(a, b mgl32.Mat4, tol float32) bool {
	for i := range a {
		if math32.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestResetPose(t *testing.T) {
	c := New(DefaultConfig())
	c.ApplyRotationInput(1, 1)
	c.ApplyMovementInput(1, 1)
	c.Tick(2)
	c.ResetPose()
	if c.Yaw() != -45 || c.Pitch() != -30 || c.Position() != (mgl32.Vec3{-50, 50, 50}) {
		t.Fatalf("pose after reset = %v %v %v", c.Yaw(), c.Pitch(), c.Position())
	}
}
