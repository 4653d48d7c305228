package core

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/toxichemicals/GO/holy-boxes/sim"
)

// Keyboard turns glfw key state into loop frames.
//
//	W/S        move ahead/back      Left/Right  yaw
//	A/D        strafe               Up/Down     pitch
//	Space      shoot                F1          toggle wireframe
//	F2         reset camera         F5          reload shaders
//	Escape     quit
type Keyboard struct {
	window *glfw.Window
	// discrete actions received since the last Poll
	pending sim.Frame
}

// NewKeyboard listens for key events on c's window.
func NewKeyboard(c *Core) *Keyboard {
	k := &Keyboard{window: c.window}
	c.window.SetKeyCallback(k.onKey)
	return k
}

func (k *Keyboard) onKey(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action == glfw.Release {
		return
	}
	// holding space keeps shooting at the key repeat rate
	if key == glfw.KeySpace {
		k.pending.Shoot = true
		return
	}
	if action != glfw.Press {
		return
	}
	switch key {
	case glfw.KeyF1:
		k.pending.ToggleWireframe = !k.pending.ToggleWireframe
	case glfw.KeyF2:
		k.pending.ResetPose = true
	case glfw.KeyF5:
		k.pending.ReloadShaders = true
	case glfw.KeyEscape:
		k.pending.Quit = true
	}
}

// Poll processes window events and returns the frame's input.
func (k *Keyboard) Poll() sim.Frame {
	glfw.PollEvents()

	f := k.pending
	k.pending = sim.Frame{}

	f.Ahead = k.axis(glfw.KeyW, glfw.KeyS)
	f.Right = k.axis(glfw.KeyD, glfw.KeyA)
	f.Yaw = k.axis(glfw.KeyRight, glfw.KeyLeft)
	f.Pitch = k.axis(glfw.KeyUp, glfw.KeyDown)
	f.Quit = f.Quit || k.window.ShouldClose()
	return f
}

func (k *Keyboard) axis(pos, neg glfw.Key) float32 {
	var v float32
	if k.window.GetKey(pos) == glfw.Press {
		v++
	}
	if k.window.GetKey(neg) == glfw.Press {
		v--
	}
	return v
}
