// Package gldriver implements shader.Driver on top of OpenGL 4.1 core.
// Every call must be made on the thread that owns the current context.
package gldriver

import (
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/toxichemicals/GO/holy-boxes/shader"
)

var stageEnums = [shader.StageCount]uint32{
	gl.VERTEX_SHADER,
	gl.FRAGMENT_SHADER,
	gl.GEOMETRY_SHADER,
	gl.TESS_CONTROL_SHADER,
	gl.TESS_EVALUATION_SHADER,
}

// Driver issues the calls directly against the current GL context.
type Driver struct{}

var _ shader.Driver = Driver{}

func (Driver) CreateProgram() uint32 { return gl.CreateProgram() }

func (Driver) DeleteProgram(program uint32) { gl.DeleteProgram(program) }

func (Driver) CreateShader(stage shader.Stage) uint32 {
	return gl.CreateShader(stageEnums[stage])
}

func (Driver) DeleteShader(s uint32) { gl.DeleteShader(s) }

func (Driver) AttachShader(program, s uint32) { gl.AttachShader(program, s) }

func (Driver) DetachShader(program, s uint32) { gl.DetachShader(program, s) }

// ShaderSource passes the source with an explicit length, so no NUL
// terminator is needed.
func (Driver) ShaderSource(s uint32, source string) {
	csources, free := gl.Strs(source)
	length := int32(len(source))
	gl.ShaderSource(s, 1, csources, &length)
	free()
}

func (Driver) CompileShader(s uint32) (bool, string) {
	gl.CompileShader(s)

	var status, logLength int32
	gl.GetShaderiv(s, gl.COMPILE_STATUS, &status)
	gl.GetShaderiv(s, gl.INFO_LOG_LENGTH, &logLength)
	var infoLog string
	if logLength > 0 {
		buf := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(s, logLength, nil, gl.Str(buf))
		infoLog = strings.TrimRight(buf, "\x00")
	}
	return status == gl.TRUE, infoLog
}

func (Driver) LinkProgram(program uint32) (bool, string) {
	gl.LinkProgram(program)

	var status, logLength int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
	var infoLog string
	if logLength > 0 {
		buf := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(buf))
		infoLog = strings.TrimRight(buf, "\x00")
	}
	return status == gl.TRUE, infoLog
}

func (Driver) UseProgram(program uint32) { gl.UseProgram(program) }

func (Driver) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (Driver) ActiveUniforms(program uint32) []string {
	var count int32
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORMS, &count)

	names := make([]string, 0, count)
	buf := make([]uint8, 256)
	for i := int32(0); i < count; i++ {
		var length, size int32
		var xtype uint32
		gl.GetActiveUniform(program, uint32(i), int32(len(buf)), &length, &size, &xtype, &buf[0])
		names = append(names, string(buf[:length]))
	}
	return names
}

func (Driver) Uniform1f(loc int32, v float32) { gl.Uniform1f(loc, v) }

func (Driver) Uniform2f(loc int32, v mgl32.Vec2) { gl.Uniform2fv(loc, 1, &v[0]) }

func (Driver) Uniform3f(loc int32, v mgl32.Vec3) { gl.Uniform3fv(loc, 1, &v[0]) }

func (Driver) Uniform4f(loc int32, v mgl32.Vec4) { gl.Uniform4fv(loc, 1, &v[0]) }

func (Driver) UniformMatrix4f(loc int32, m mgl32.Mat4) {
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}
