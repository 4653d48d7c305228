package physics

import "github.com/go-gl/mathgl/mgl32"

// Record is the persisted form of a box: position, Euler orientation in
// radians (see Orientation) and color.
type Record struct {
	X, Y, Z          float32
	Yaw, Pitch, Roll float32
	Red, Green, Blue float32
}

// DefaultRecord is the value of a record whose fields were never set.
func DefaultRecord() Record {
	return Record{Red: 1}
}

// Snapshot exports every entity, in entity order.
func (w *World) Snapshot() []Record {
	out := make([]Record, 0, len(w.entities))
	for _, e := range w.entities {
		p := e.Body.Position
		yaw, pitch, roll := EulerAngles(e.Body.Orientation)
		out = append(out, Record{
			X: p[0], Y: p[1], Z: p[2],
			Yaw: yaw, Pitch: pitch, Roll: roll,
			Red: e.Color[0], Green: e.Color[1], Blue: e.Color[2],
		})
	}
	return out
}

// Load drops every box and spawns one per record, in order.
func (w *World) Load(records []Record) {
	w.mustBeInitialized("Load")
	clear(w.bodies[1:])
	w.bodies = w.bodies[:1]
	w.broadphase.clear()
	w.solver.reset()
	w.entities = nil
	w.localTime = 0

	for _, r := range records {
		w.SpawnBox(
			mgl32.Vec3{r.X, r.Y, r.Z},
			r.Yaw, r.Pitch, r.Roll,
			mgl32.Vec3{r.Red, r.Green, r.Blue},
		)
	}
}
