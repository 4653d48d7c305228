package shader

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/go-gl/mathgl/mgl32"
)

// fakeDriver records calls and lets tests script compile/link outcomes.
type fakeDriver struct {
	next     uint32
	sources  map[uint32]string
	attached map[uint32]bool
	deleted  map[uint32]bool
	used     uint32

	// sources containing this marker fail to compile
	badMarker string
	linkFails bool

	compiles int
	links    int
	lookups  int

	uniforms map[string]int32
	uploads  map[int32]any
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		sources:   make(map[uint32]string),
		attached:  make(map[uint32]bool),
		deleted:   make(map[uint32]bool),
		badMarker: "#error",
		uniforms:  map[string]int32{"model": 0, "viewProjection": 1, "objectColor": 2, "time": 3, "uv": 4, "tint": 5},
		uploads:   make(map[int32]any),
	}
}

func (d *fakeDriver) handle() uint32 {
	d.next++
	return d.next
}

func (d *fakeDriver) CreateProgram() uint32           { return d.handle() }
func (d *fakeDriver) DeleteProgram(program uint32)    { d.deleted[program] = true }
func (d *fakeDriver) CreateShader(stage Stage) uint32 { return d.handle() }
func (d *fakeDriver) DeleteShader(shader uint32)      { d.deleted[shader] = true }
func (d *fakeDriver) AttachShader(_, shader uint32)   { d.attached[shader] = true }
func (d *fakeDriver) DetachShader(_, shader uint32)   { delete(d.attached, shader) }
func (d *fakeDriver) ShaderSource(s uint32, src string) {
	d.sources[s] = src
}

func (d *fakeDriver) CompileShader(s uint32) (bool, string) {
	d.compiles++
	if strings.Contains(d.sources[s], d.badMarker) {
		return false, "0:1(1): error: syntax error"
	}
	return true, ""
}

func (d *fakeDriver) LinkProgram(uint32) (bool, string) {
	d.links++
	if d.linkFails {
		return false, "error: unresolved varying"
	}
	return true, ""
}

func (d *fakeDriver) UseProgram(program uint32) { d.used = program }

func (d *fakeDriver) UniformLocation(_ uint32, name string) int32 {
	d.lookups++
	if loc, ok := d.uniforms[name]; ok {
		return loc
	}
	return -1
}

func (d *fakeDriver) ActiveUniforms(uint32) []string { return []string{"model", "viewProjection"} }

func (d *fakeDriver) Uniform1f(loc int32, v float32)          { d.uploads[loc] = v }
func (d *fakeDriver) Uniform2f(loc int32, v mgl32.Vec2)       { d.uploads[loc] = v }
func (d *fakeDriver) Uniform3f(loc int32, v mgl32.Vec3)       { d.uploads[loc] = v }
func (d *fakeDriver) Uniform4f(loc int32, v mgl32.Vec4)       { d.uploads[loc] = v }
func (d *fakeDriver) UniformMatrix4f(loc int32, m mgl32.Mat4) { d.uploads[loc] = m }

func quietLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetLogOutput(&buf)
	t.Cleanup(func() { SetLogOutput(os.Stderr) })
	return &buf
}

func TestSetSourceIsLazy(t *testing.T) {
	quietLogs(t)
	drv := newFakeDriver()
	p := New(drv, "box")

	if p.Handle() != 0 {
		t.Fatal("program object allocated before any source")
	}
	p.SetSource(Vertex, "void main() {}")
	p.SetSource(Fragment, "void main() {}")

	if p.Handle() == 0 {
		t.Fatal("program object not allocated on first SetSource")
	}
	if drv.compiles != 0 || drv.links != 0 {
		t.Fatalf("SetSource compiled or linked: compiles=%d links=%d", drv.compiles, drv.links)
	}
	if got := p.Dirty(); len(got) != 2 || got[0] != Vertex || got[1] != Fragment {
		t.Fatalf("Dirty() = %v, want [Vertex Fragment]", got)
	}
}

func TestEnsureReadyIdempotent(t *testing.T) {
	quietLogs(t)
	drv := newFakeDriver()
	p := New(drv, "box")
	p.SetSource(Vertex, "v")
	p.SetSource(Fragment, "f")

	if err := p.EnsureReady(); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	if drv.compiles != 2 || drv.links != 1 {
		t.Fatalf("first pass: compiles=%d links=%d, want 2/1", drv.compiles, drv.links)
	}
	if err := p.EnsureReady(); err != nil {
		t.Fatalf("second EnsureReady: %v", err)
	}
	if drv.compiles != 2 || drv.links != 1 {
		t.Fatalf("second pass touched the driver: compiles=%d links=%d", drv.compiles, drv.links)
	}
	if len(p.Dirty()) != 0 || !p.Linked() {
		t.Fatalf("after ready: dirty=%v linked=%v", p.Dirty(), p.Linked())
	}
}

func TestHotReloadRecompilesOnlyChangedStage(t *testing.T) {
	quietLogs(t)
	drv := newFakeDriver()
	p := New(drv, "ground")
	p.SetSource(Vertex, "v")
	p.SetSource(Fragment, "f")
	if err := p.EnsureReady(); err != nil {
		t.Fatal(err)
	}

	p.SetSource(Fragment, "f2")
	if err := p.EnsureReady(); err != nil {
		t.Fatal(err)
	}
	if drv.compiles != 3 {
		t.Errorf("compiles = %d, want 3", drv.compiles)
	}
	if drv.links != 2 {
		t.Errorf("links = %d, want 2", drv.links)
	}
}

func TestCompileFailure(t *testing.T) {
	logs := quietLogs(t)
	drv := newFakeDriver()
	p := New(drv, "box")
	p.SetSource(Vertex, "v")
	p.SetSource(Fragment, "#error broken")

	err := p.EnsureReady()
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("EnsureReady error = %v, want *CompileError", err)
	}
	if ce.Stage != Fragment || !strings.Contains(ce.Log, "syntax error") {
		t.Fatalf("CompileError = %+v", ce)
	}
	if drv.links != 0 {
		t.Fatal("linked after a compile failure")
	}
	if !strings.Contains(logs.String(), "Fragment shader failed to compile") {
		t.Errorf("log does not name the stage: %q", logs.String())
	}
	if got := p.Dirty(); len(got) != 1 || got[0] != Fragment {
		t.Fatalf("Dirty() = %v, want [Fragment]", got)
	}

	// cached until the source changes
	compiles := drv.compiles
	if err := p.EnsureReady(); !errors.As(err, &ce) {
		t.Fatalf("second EnsureReady = %v", err)
	}
	if drv.compiles != compiles {
		t.Fatal("failed stage recompiled without a new source")
	}

	p.SetSource(Fragment, "f")
	if err := p.EnsureReady(); err != nil {
		t.Fatalf("after fix: %v", err)
	}
	if !p.Linked() {
		t.Fatal("not linked after fix")
	}
}

func TestLinkFailure(t *testing.T) {
	quietLogs(t)
	drv := newFakeDriver()
	drv.linkFails = true
	p := New(drv, "box")
	p.SetSource(Vertex, "v")

	err := p.Activate()
	var le *LinkError
	if !errors.As(err, &le) {
		t.Fatalf("Activate error = %v, want *LinkError", err)
	}
	if drv.used != 0 {
		t.Fatal("program made current after failed link")
	}
	if err := p.EnsureReady(); !errors.As(err, &le) || drv.links != 1 {
		t.Fatalf("second call: err=%v links=%d", err, drv.links)
	}
}

func TestEnsureReadyWithoutSources(t *testing.T) {
	p := New(newFakeDriver(), "empty")
	if err := p.EnsureReady(); err == nil {
		t.Fatal("expected error for a program without sources")
	}
}

func TestActivateUsesProgram(t *testing.T) {
	quietLogs(t)
	drv := newFakeDriver()
	p := New(drv, "box")
	p.SetSource(Vertex, "v")
	if err := p.Activate(); err != nil {
		t.Fatal(err)
	}
	if drv.used != p.Handle() {
		t.Fatalf("used = %d, want %d", drv.used, p.Handle())
	}
}

func TestUniforms(t *testing.T) {
	logs := quietLogs(t)
	drv := newFakeDriver()
	p := New(drv, "box")
	p.SetSource(Vertex, "v")
	if err := p.Activate(); err != nil {
		t.Fatal(err)
	}

	m := mgl32.Translate3D(1, 2, 3)
	p.SetMat4("model", m)
	p.SetVec3("objectColor", mgl32.Vec3{1, 0, 0})
	p.SetFloat("time", 2.5)
	p.SetVec2("uv", mgl32.Vec2{1, 2})
	p.SetVec4("tint", mgl32.Vec4{1, 1, 1, 0.5})

	if drv.uploads[0] != m {
		t.Errorf("model upload = %v", drv.uploads[0])
	}
	if drv.uploads[2] != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("objectColor upload = %v", drv.uploads[2])
	}
	if drv.uploads[3] != float32(2.5) {
		t.Errorf("time upload = %v", drv.uploads[3])
	}
	if drv.uploads[5] != (mgl32.Vec4{1, 1, 1, 0.5}) {
		t.Errorf("tint upload = %v", drv.uploads[5])
	}

	lookups := drv.lookups
	p.SetMat4("model", m)
	if drv.lookups != lookups {
		t.Error("location not cached")
	}

	n := len(drv.uploads)
	p.SetFloat("missing", 1)
	p.SetFloat("missing", 1)
	if len(drv.uploads) != n {
		t.Error("missing uniform uploaded")
	}
	if c := strings.Count(logs.String(), "no such uniform: missing"); c != 1 {
		t.Errorf("missing uniform warned %d times, want 1", c)
	}
}

func TestResetDeletesStages(t *testing.T) {
	quietLogs(t)
	drv := newFakeDriver()
	p := New(drv, "box")
	p.SetSource(Vertex, "v")
	p.SetSource(Fragment, "#error")
	prog := p.Handle()

	p.Reset()
	if len(drv.attached) != 0 {
		t.Fatalf("stages still attached: %v", drv.attached)
	}
	if len(p.Dirty()) != 0 {
		t.Fatalf("dirty after reset: %v", p.Dirty())
	}
	if p.Handle() != prog || drv.deleted[prog] {
		t.Fatal("Reset must keep the program object")
	}

	p.SetSource(Vertex, "v")
	p.SetSource(Fragment, "f")
	if err := p.EnsureReady(); err != nil {
		t.Fatal(err)
	}

	p.Delete()
	if !drv.deleted[prog] || p.Handle() != 0 {
		t.Fatal("Delete did not release the program")
	}
}

func TestResetForgetsLink(t *testing.T) {
	quietLogs(t)
	drv := newFakeDriver()
	p := New(drv, "box")
	p.SetSource(Vertex, "v")
	p.SetSource(Fragment, "f")
	if err := p.EnsureReady(); err != nil {
		t.Fatal(err)
	}
	p.SetFloat("time", 1)
	lookups := drv.lookups

	p.Reset()
	if p.Linked() {
		t.Fatal("still linked after Reset")
	}
	if err := p.EnsureReady(); err == nil {
		t.Fatal("EnsureReady succeeded with every stage reset")
	}
	if err := p.Activate(); err == nil {
		t.Fatal("Activate succeeded with every stage reset")
	}

	p.SetSource(Vertex, "v2")
	p.SetSource(Fragment, "f2")
	links := drv.links
	if err := p.EnsureReady(); err != nil {
		t.Fatal(err)
	}
	if drv.links != links+1 || !p.Linked() {
		t.Fatalf("links = %d, want %d", drv.links, links+1)
	}
	// locations from the previous link are looked up again
	p.SetFloat("time", 2)
	if drv.lookups != lookups+1 {
		t.Fatalf("lookups = %d, want %d", drv.lookups, lookups+1)
	}
}

func TestLoadFiles(t *testing.T) {
	quietLogs(t)
	dir := t.TempDir()
	prefix := filepath.Join(dir, "box")
	for _, ext := range []string{".vert", ".frag", ".geom"} {
		if err := os.WriteFile(prefix+ext, []byte("src"+ext), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	drv := newFakeDriver()
	p := New(drv, "box")
	n, err := p.LoadFiles(prefix)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("loaded %d stages, want 3", n)
	}
	if got := p.Dirty(); len(got) != 3 || got[2] != Geometry {
		t.Fatalf("Dirty() = %v", got)
	}

	ok, err := p.LoadFile(TessControl, prefix+".tesc")
	if ok || err != nil {
		t.Fatalf("LoadFile(missing) = %v, %v", ok, err)
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"shaders/ground.vert": {Data: []byte("v")},
		"shaders/ground.frag": {Data: []byte("f")},
		"shaders/box.vert":    {Data: []byte("other")},
	}
	p := New(newFakeDriver(), "ground")
	n, err := p.LoadFS(fsys, "shaders/ground")
	if err != nil || n != 2 {
		t.Fatalf("LoadFS = %d, %v", n, err)
	}
}

func TestReloadSkipsUnchangedFiles(t *testing.T) {
	quietLogs(t)
	fsys := fstest.MapFS{
		"box.vert": {Data: []byte("v")},
		"box.frag": {Data: []byte("f")},
	}
	drv := newFakeDriver()
	p := New(drv, "box")
	if _, err := p.LoadFS(fsys, "box"); err != nil {
		t.Fatal(err)
	}
	if err := p.EnsureReady(); err != nil {
		t.Fatal(err)
	}

	fsys["box.frag"] = &fstest.MapFile{Data: []byte("f2")}
	if _, err := p.LoadFS(fsys, "box"); err != nil {
		t.Fatal(err)
	}
	if got := p.Dirty(); len(got) != 1 || got[0] != Fragment {
		t.Fatalf("Dirty() = %v, want [Fragment]", got)
	}
	if err := p.EnsureReady(); err != nil {
		t.Fatal(err)
	}
	if drv.compiles != 3 || drv.links != 2 {
		t.Fatalf("compiles=%d links=%d, want 3 and 2", drv.compiles, drv.links)
	}
}

func TestActiveUniforms(t *testing.T) {
	logs := quietLogs(t)
	p := New(newFakeDriver(), "box")
	if got := p.ActiveUniforms(); got != nil {
		t.Fatalf("ActiveUniforms before any source = %v", got)
	}
	p.SetSource(Vertex, "v")
	if err := p.EnsureReady(); err != nil {
		t.Fatal(err)
	}
	got := p.ActiveUniforms()
	if len(got) != 2 || got[0] != "model" || got[1] != "viewProjection" {
		t.Fatalf("ActiveUniforms = %v", got)
	}
	if !strings.Contains(logs.String(), "2) viewProjection") {
		t.Errorf("uniforms not logged:\n%s", logs)
	}
}

func TestStageNames(t *testing.T) {
	tests := []struct {
		stage Stage
		name  string
		ext   string
	}{
		{Vertex, "Vertex", ".vert"},
		{Fragment, "Fragment", ".frag"},
		{Geometry, "Geometry", ".geom"},
		{TessControl, "Tessellation Control", ".tesc"},
		{TessEvaluation, "Tessellation Evaluation", ".tese"},
		{StageCount, "Unknown", ""},
	}
	for _, tt := range tests {
		if tt.stage.String() != tt.name || tt.stage.Ext() != tt.ext {
			t.Errorf("%d: got %q %q", tt.stage, tt.stage.String(), tt.stage.Ext())
		}
	}
}
