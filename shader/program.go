// Package shader manages GPU program objects built from up to five stage
// sources. Stages are compiled lazily: SetSource only stores text, and the
// first Activate after a change compiles what changed and re-links.
package shader

import (
	"io"
	"io/fs"
	"log"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

var logger = log.New(os.Stderr, "shader: ", log.LstdFlags|log.Lmsgprefix)

// SetLogOutput redirects the package logger.
func SetLogOutput(w io.Writer) {
	logger.SetOutput(w)
}

type slot struct {
	handle uint32
	source string
	status stageStatus
	err    error // set when status == stageFailed
}

// Program is a shader program object and its stage objects.
// It is not safe for concurrent use; all calls must come from the thread
// that owns the graphics context.
type Program struct {
	name   string
	drv    Driver
	handle uint32
	stages [StageCount]slot

	linkAttempted bool
	linked        bool
	linkErr       error

	// uniform locations of the current link; -1 marks a name already reported missing
	locations map[string]int32
}

// New returns an empty program. No driver object is allocated until the
// first SetSource.
func New(drv Driver, name string) *Program {
	return &Program{
		name:      name,
		drv:       drv,
		locations: make(map[string]int32),
	}
}

func (p *Program) Name() string   { return p.name }
func (p *Program) Handle() uint32 { return p.handle }

// Linked reports whether the last link attempt succeeded.
func (p *Program) Linked() bool { return p.linked }

// SetSource stores or replaces the source of a stage and marks it dirty.
func (p *Program) SetSource(stage Stage, source string) {
	if stage < 0 || stage >= StageCount {
		panic(errors.Errorf("shader: invalid stage %d", stage))
	}
	if p.handle == 0 {
		p.handle = p.drv.CreateProgram()
	}
	s := &p.stages[stage]
	if s.handle == 0 {
		s.handle = p.drv.CreateShader(stage)
		p.drv.AttachShader(p.handle, s.handle)
	}
	p.drv.ShaderSource(s.handle, source)
	s.source = source
	s.status = stagePending
	s.err = nil
}

// LoadFile sets the source of stage from a file. A missing file is reported
// as (false, nil).
func (p *Program) LoadFile(stage Stage, path string) (bool, error) {
	return p.loadWith(os.ReadFile, stage, path)
}

// LoadFiles loads every stage whose file prefix+Ext exists and returns how
// many stages were loaded. Missing stages are left untouched.
func (p *Program) LoadFiles(prefix string) (int, error) {
	return p.loadAll(os.ReadFile, prefix)
}

// LoadFS is LoadFiles reading from fsys.
func (p *Program) LoadFS(fsys fs.FS, prefix string) (int, error) {
	return p.loadAll(func(name string) ([]byte, error) {
		return fs.ReadFile(fsys, name)
	}, prefix)
}

func (p *Program) loadAll(read func(string) ([]byte, error), prefix string) (int, error) {
	n := 0
	for _, stage := range Stages() {
		ok, err := p.loadWith(read, stage, prefix+stage.Ext())
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (p *Program) loadWith(read func(string) ([]byte, error), stage Stage, path string) (bool, error) {
	src, err := read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "read %s shader %s", stage, path)
	}
	// an unchanged file keeps the stage's compile state
	if s := &p.stages[stage]; s.status != stageEmpty && s.source == string(src) {
		return true, nil
	}
	p.SetSource(stage, string(src))
	return true, nil
}

// Dirty returns the stages whose current source has not compiled successfully.
func (p *Program) Dirty() []Stage {
	var out []Stage
	for i := range p.stages {
		if st := p.stages[i].status; st == stagePending || st == stageFailed {
			out = append(out, Stage(i))
		}
	}
	return out
}

// EnsureReady compiles pending stages and links the program when something
// was compiled or no link was attempted yet. A program that is up to date
// returns its previous result without touching the driver.
//
// A stage that failed to compile keeps its error until its source changes.
func (p *Program) EnsureReady() error {
	if p.handle == 0 || !p.hasSources() {
		return errors.Errorf("program %q has no sources", p.name)
	}

	compiled := false
	for i := range p.stages {
		s := &p.stages[i]
		switch s.status {
		case stageFailed:
			return s.err
		case stagePending:
			ok, infoLog := p.drv.CompileShader(s.handle)
			if infoLog != "" {
				logger.Printf("%s: %s shader log:\n%s", p.name, Stage(i), infoLog)
			}
			if !ok {
				s.status = stageFailed
				s.err = &CompileError{Stage: Stage(i), Log: infoLog}
				logger.Printf("%s: %s shader failed to compile", p.name, Stage(i))
				return s.err
			}
			s.status = stageCompiled
			compiled = true
		}
	}

	if !compiled && p.linkAttempted {
		return p.linkErr
	}

	ok, infoLog := p.drv.LinkProgram(p.handle)
	p.linkAttempted = true
	clear(p.locations)
	if infoLog != "" {
		logger.Printf("%s: program log:\n%s", p.name, infoLog)
	}
	if !ok {
		p.linked = false
		p.linkErr = &LinkError{Log: infoLog}
		logger.Printf("%s: program failed to link", p.name)
		return p.linkErr
	}
	p.linked = true
	p.linkErr = nil
	return nil
}

func (p *Program) hasSources() bool {
	for i := range p.stages {
		if p.stages[i].status != stageEmpty {
			return true
		}
	}
	return false
}

// Activate readies the program and makes it the current one. On error the
// previously active program is left in place and nothing should be drawn.
func (p *Program) Activate() error {
	if err := p.EnsureReady(); err != nil {
		return errors.Wrapf(err, "activate %s", p.name)
	}
	p.drv.UseProgram(p.handle)
	return nil
}

func (p *Program) location(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := p.drv.UniformLocation(p.handle, name)
	if loc < 0 {
		logger.Printf("%s: no such uniform: %s", p.name, name)
		loc = -1
	}
	p.locations[name] = loc
	return loc
}

// The uniform setters upload to the current program; p must be the active
// one. Unknown names are logged once per link and otherwise ignored.

func (p *Program) SetFloat(name string, v float32) {
	if loc := p.location(name); loc >= 0 {
		p.drv.Uniform1f(loc, v)
	}
}

func (p *Program) SetVec2(name string, v mgl32.Vec2) {
	if loc := p.location(name); loc >= 0 {
		p.drv.Uniform2f(loc, v)
	}
}

func (p *Program) SetVec3(name string, v mgl32.Vec3) {
	if loc := p.location(name); loc >= 0 {
		p.drv.Uniform3f(loc, v)
	}
}

func (p *Program) SetVec4(name string, v mgl32.Vec4) {
	if loc := p.location(name); loc >= 0 {
		p.drv.Uniform4f(loc, v)
	}
}

func (p *Program) SetMat4(name string, m mgl32.Mat4) {
	if loc := p.location(name); loc >= 0 {
		p.drv.UniformMatrix4f(loc, m)
	}
}

// ActiveUniforms lists the active uniforms of the linked program and logs them.
func (p *Program) ActiveUniforms() []string {
	if p.handle == 0 {
		return nil
	}
	names := p.drv.ActiveUniforms(p.handle)
	logger.Printf("%s: active uniforms: %d", p.name, len(names))
	for i, n := range names {
		logger.Printf("%s:   %d) %s", p.name, i+1, n)
	}
	return names
}

// Reset detaches and deletes every stage object but keeps the program
// object, so a new set of sources can be loaded from scratch. The program
// counts as never linked until it is readied again.
func (p *Program) Reset() {
	for i := range p.stages {
		s := &p.stages[i]
		if s.handle != 0 {
			p.drv.DetachShader(p.handle, s.handle)
			p.drv.DeleteShader(s.handle)
		}
		*s = slot{}
	}
	p.linkAttempted = false
	p.linked = false
	p.linkErr = nil
	clear(p.locations)
}

// Delete releases the stage objects and the program object.
func (p *Program) Delete() {
	p.Reset()
	if p.handle != 0 {
		p.drv.DeleteProgram(p.handle)
	}
	p.handle = 0
}
