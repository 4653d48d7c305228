package core

import (
	"embed"
	"log"
	"path/filepath"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/pkg/errors"

	"github.com/toxichemicals/GO/holy-boxes/config"
	"github.com/toxichemicals/GO/holy-boxes/shader"
	"github.com/toxichemicals/GO/holy-boxes/shader/gldriver"
	"github.com/toxichemicals/GO/holy-boxes/sim"
)

//go:embed shaders
var builtinShaders embed.FS

// Renderer draws the ground grid and the boxes. It needs a current OpenGL
// context for its whole lifetime.
type Renderer struct {
	cfg config.Render

	ground, box         *shader.Program
	groundMesh, boxMesh mesh
}

// NewRenderer sets up GL state, meshes and the built-in programs. When
// cfg.ShaderDir is set, stage files found there replace the built-in ones.
func NewRenderer(cfg config.Render) (*Renderer, error) {
	bg, err := cfg.Background()
	if err != nil {
		return nil, err
	}

	drv := gldriver.Driver{}
	r := &Renderer{
		cfg:    cfg,
		ground: shader.New(drv, "ground"),
		box:    shader.New(drv, "box"),
	}
	for _, p := range r.programs() {
		n, err := p.LoadFS(builtinShaders, "shaders/"+p.Name())
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, errors.Errorf("no built-in sources for %s", p.Name())
		}
	}
	if cfg.ShaderDir != "" {
		if err := r.ReloadShaders(); err != nil {
			return nil, err
		}
	}

	for _, p := range r.programs() {
		if err := p.EnsureReady(); err != nil {
			return nil, errors.Wrapf(err, "build %s", p.Name())
		}
		p.ActiveUniforms()
	}

	r.groundMesh = newMesh(groundVertices, 3)
	r.boxMesh = newMesh(cubeVertices, 3, 3)

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.FRAMEBUFFER_SRGB)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.ClearColor(bg.X(), bg.Y(), bg.Z(), 1)
	return r, nil
}

func (r *Renderer) programs() []*shader.Program {
	return []*shader.Program{r.ground, r.box}
}

// ReloadShaders re-reads <shader_dir>/<program>.<ext> for every program.
// Changed stages are recompiled on the next frame.
func (r *Renderer) ReloadShaders() error {
	if r.cfg.ShaderDir == "" {
		log.Println("no shader_dir configured, keeping built-in shaders")
		return nil
	}
	for _, p := range r.programs() {
		n, err := p.LoadFiles(filepath.Join(r.cfg.ShaderDir, p.Name()))
		if err != nil {
			return err
		}
		log.Printf("%s: %d stage files in %s, dirty: %v", p.Name(), n, r.cfg.ShaderDir, p.Dirty())
	}
	return nil
}

// Render draws scene into a width x height surface. A program that fails
// to build aborts the frame with its error.
func (r *Renderer) Render(scene sim.Scene, width, height int) error {
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	viewProjection := r.cfg.Projection(width, height).Mul4(scene.View)

	if err := r.ground.Activate(); err != nil {
		return err
	}
	r.ground.SetMat4("viewProjection", viewProjection)
	gl.Enable(gl.BLEND)
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	r.groundMesh.draw()
	gl.Disable(gl.BLEND)

	if err := r.box.Activate(); err != nil {
		return err
	}
	r.box.SetVec3("viewPos", scene.Eye)
	r.box.SetMat4("viewProjection", viewProjection)
	if scene.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	}
	for _, e := range scene.Entities {
		r.box.SetMat4("model", e.InterpolatedTransform(scene.Lead))
		r.box.SetVec3("objectColor", e.Color)
		r.boxMesh.draw()
	}
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	return nil
}

// Delete releases meshes and programs.
func (r *Renderer) Delete() {
	r.groundMesh.delete()
	r.boxMesh.delete()
	for _, p := range r.programs() {
		p.Delete()
	}
}
