package shader

import "fmt"

// CompileError carries the compiler diagnostic of a stage that failed to compile.
type CompileError struct {
	Stage Stage
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s shader failed to compile:\n%s", e.Stage, e.Log)
}

// LinkError carries the linker diagnostic of a program that failed to link.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("shader program failed to link:\n%s", e.Log)
}
