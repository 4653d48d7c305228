// Package export writes the persisted boxes as a glTF 2.0 scene.
package export

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/toxichemicals/GO/holy-boxes/physics"
)

// cubeFaces lists each face normal with two in-plane axes whose cross
// product is the normal, so corners come out counter-clockwise.
var cubeFaces = [6][3][3]float32{
	{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {0, 0, 1}, {1, 0, 0}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {0, 1, 0}, {1, 0, 0}},
}

// unitCube returns positions, normals and indices of an axis aligned cube
// with edge length 1 centered on the origin.
func unitCube() ([][3]float32, [][3]float32, []uint16) {
	var (
		positions [][3]float32
		normals   [][3]float32
		indices   []uint16
	)
	signs := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, face := range cubeFaces {
		n, u, v := face[0], face[1], face[2]
		base := uint16(len(positions))
		for _, s := range signs {
			var p [3]float32
			for i := range p {
				p[i] = 0.5 * (n[i] + s[0]*u[i] + s[1]*v[i])
			}
			positions = append(positions, p)
			normals = append(normals, n)
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return positions, normals, indices
}

// Scene builds a document holding one cube mesh per distinct color, all
// sharing the same geometry accessors, and one node per record.
func Scene(records []physics.Record) *gltf.Document {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "holy-boxes"

	positions, normals, indices := unitCube()
	attrs := gltf.PrimitiveAttributes{
		gltf.POSITION: modeler.WritePosition(doc, positions),
		gltf.NORMAL:   modeler.WriteNormal(doc, normals),
	}
	idx := modeler.WriteIndices(doc, indices)

	meshes := map[[3]float32]int{}
	for _, r := range records {
		color := [3]float32{r.Red, r.Green, r.Blue}
		m, ok := meshes[color]
		if !ok {
			mat := len(doc.Materials)
			doc.Materials = append(doc.Materials, &gltf.Material{
				PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
					BaseColorFactor: &[4]float64{float64(r.Red), float64(r.Green), float64(r.Blue), 1},
					MetallicFactor:  gltf.Float(0),
					RoughnessFactor: gltf.Float(0.8),
				},
			})
			m = len(doc.Meshes)
			doc.Meshes = append(doc.Meshes, &gltf.Mesh{
				Name: "box",
				Primitives: []*gltf.Primitive{{
					Attributes: attrs,
					Indices:    gltf.Index(idx),
					Material:   gltf.Index(mat),
				}},
			})
			meshes[color] = m
		}

		q := physics.Orientation(r.Yaw, r.Pitch, r.Roll)
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes))
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Mesh:        gltf.Index(m),
			Translation: [3]float64{float64(r.X), float64(r.Y), float64(r.Z)},
			Rotation:    [4]float64{float64(q.V[0]), float64(q.V[1]), float64(q.V[2]), float64(q.W)},
			Scale:       [3]float64{1, 1, 1},
		})
	}
	return doc
}

// Write encodes doc to w, as a .glb container when binary is set.
func Write(w io.Writer, doc *gltf.Document, binary bool) error {
	if !binary {
		embed(doc)
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = binary
	return errors.Wrap(enc.Encode(doc), "encode gltf")
}

// File writes the records to path. A .glb extension selects the binary
// container, anything else embeds the buffer in JSON.
func File(path string, records []physics.Record) error {
	doc := Scene(records)
	var err error
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		err = gltf.SaveBinary(doc, path)
	} else {
		embed(doc)
		err = gltf.Save(doc, path)
	}
	return errors.Wrapf(err, "export %s", path)
}

// embed stores the buffers as data URIs inside the JSON document.
func embed(doc *gltf.Document) {
	for _, b := range doc.Buffers {
		b.EmbeddedResource()
	}
}
