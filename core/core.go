// Package core owns the window, the OpenGL context, keyboard input and the
// scene renderer.
package core

import (
	"fmt"
	"log"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"

	"github.com/toxichemicals/GO/holy-boxes/config"
)

// Core wraps the glfw window and its OpenGL context. All methods must be
// called from the main thread.
type Core struct {
	cfg    config.Window
	window *glfw.Window

	fpsFrames     int
	fpsLastUpdate time.Time
}

// NewCore creates a Core; nothing is opened until Init.
func NewCore(cfg config.Window) *Core {
	return &Core{cfg: cfg}
}

// Init initializes glfw, opens the window and loads OpenGL.
func (c *Core) Init() error {
	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize GLFW")
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Samples, c.cfg.Samples)
	glfw.WindowHint(glfw.SRGBCapable, glfw.True)

	window, err := glfw.CreateWindow(c.cfg.Width, c.cfg.Height, c.cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return errors.Wrap(err, "failed to create GLFW window")
	}
	c.window = window
	c.window.MakeContextCurrent()
	if c.cfg.VSync {
		glfw.SwapInterval(1)
	}

	if err := gl.Init(); err != nil {
		c.window.Destroy()
		glfw.Terminate()
		return errors.Wrap(err, "failed to initialize OpenGL")
	}

	c.fpsLastUpdate = time.Now()
	width, height := c.Size()
	log.Printf("OpenGL %s, %s", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))
	log.Printf("%dx%d drawable, %d-sample anti-aliasing", width, height, c.cfg.Samples)
	return nil
}

// Size returns the drawable size in pixels, which differs from the window
// size on high-DPI screens.
func (c *Core) Size() (int, int) {
	return c.window.GetFramebufferSize()
}

// SwapBuffers shows the frame just rendered and refreshes the frame rate
// in the window title once a second.
func (c *Core) SwapBuffers() {
	c.window.SwapBuffers()

	c.fpsFrames++
	if elapsed := time.Since(c.fpsLastUpdate); elapsed >= time.Second {
		fps := float64(c.fpsFrames) / elapsed.Seconds()
		c.window.SetTitle(fmt.Sprintf("%s | FPS: %.2f", c.cfg.Title, fps))
		c.fpsFrames = 0
		c.fpsLastUpdate = time.Now()
	}
}

// Shutdown destroys the window and terminates glfw.
func (c *Core) Shutdown() {
	if c.window != nil {
		c.window.Destroy()
		c.window = nil
	}
	glfw.Terminate()
}
