package shader

// Stage identifies one of the programmable pipeline stages a Program can hold.
type Stage int

const (
	Vertex Stage = iota
	Fragment
	Geometry
	TessControl
	TessEvaluation

	// StageCount is the number of stage slots in a Program.
	StageCount
)

var stageNames = [StageCount]string{
	"Vertex",
	"Fragment",
	"Geometry",
	"Tessellation Control",
	"Tessellation Evaluation",
}

// Canonical file extensions, used by LoadFiles and LoadFS.
var stageExts = [StageCount]string{
	".vert", ".frag", ".geom", ".tesc", ".tese",
}

func (s Stage) String() string {
	if s < 0 || s >= StageCount {
		return "Unknown"
	}
	return stageNames[s]
}

// Ext returns the canonical filename extension for the stage, including the dot.
func (s Stage) Ext() string {
	if s < 0 || s >= StageCount {
		return ""
	}
	return stageExts[s]
}

// Stages returns every stage in slot order.
func Stages() []Stage {
	return []Stage{Vertex, Fragment, Geometry, TessControl, TessEvaluation}
}

// stageStatus is the lifecycle of a single stage slot.
type stageStatus uint8

const (
	stageEmpty    stageStatus = iota // no source ever set
	stagePending                     // source set, not compiled yet
	stageCompiled                    // last compile succeeded
	stageFailed                      // last compile failed; retried only after a new source
)
