package shader

import "github.com/go-gl/mathgl/mgl32"

// Driver is the slice of the graphics API a Program needs. The production
// implementation lives in shader/gldriver; tests use an in-memory fake.
//
// Handles are opaque non-zero values. Compile and link report the driver's
// status together with its info log, which may be non-empty on success.
type Driver interface {
	CreateProgram() uint32
	DeleteProgram(program uint32)
	CreateShader(stage Stage) uint32
	DeleteShader(shader uint32)
	AttachShader(program, shader uint32)
	DetachShader(program, shader uint32)
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32) (ok bool, infoLog string)
	LinkProgram(program uint32) (ok bool, infoLog string)
	UseProgram(program uint32)

	// UniformLocation returns -1 when the program has no active uniform by that name.
	UniformLocation(program uint32, name string) int32
	ActiveUniforms(program uint32) []string

	Uniform1f(location int32, v float32)
	Uniform2f(location int32, v mgl32.Vec2)
	Uniform3f(location int32, v mgl32.Vec3)
	Uniform4f(location int32, v mgl32.Vec4)
	UniformMatrix4f(location int32, m mgl32.Mat4)
}
