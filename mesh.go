package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/seqsense/structviewer/resource"
	"github.com/seqsense/structviewer/structure"
)

// Structure mesh vertices are interleaved as x, y, z, u, v, shade.
const (
	floatsPerVertex = 6
	vertexStride    = floatsPerVertex * 4
)

// blockResources is the part of the resource manager used to build meshes.
type blockResources interface {
	BlockDefinition(id string) (*resource.BlockDefinition, bool)
	BlockModel(id string) (*resource.BlockModel, bool)
	Atlas() *resource.Atlas
	BlockFlags(id string) resource.BlockFlags
}

var faceShade = map[resource.Direction]float32{
	resource.Up:    1.0,
	resource.Down:  0.5,
	resource.North: 0.8,
	resource.South: 0.8,
	resource.West:  0.6,
	resource.East:  0.6,
}

var blockCenter = mgl32.Vec3{0.5, 0.5, 0.5}

// buildStructureMesh returns triangles of all visible block faces.
// Faces with a cullface touching an opaque neighbour are skipped.
func buildStructureMesh(s *structure.Structure, res blockResources) []float32 {
	var out []float32
	atlas := res.Atlas()
	for _, b := range s.Blocks() {
		if b.State.IsAir() {
			continue
		}
		def, ok := res.BlockDefinition(b.State.Name)
		if !ok {
			continue
		}
		for _, v := range def.Models(b.State.Properties) {
			model, ok := res.BlockModel(v.Model)
			if !ok {
				continue
			}
			rot := variantRotation(v)
			for i := range model.Elements {
				e := &model.Elements[i]
				for _, d := range resource.Directions {
					f, ok := e.Faces[d]
					if !ok {
						continue
					}
					if f.CullFace != "" && culled(s, res, b.Pos, rotateDirection(f.CullFace, rot)) {
						continue
					}
					out = appendFace(out, b.Pos, e, d, f, rot, atlas.UV(model.ResolveTexture(f.Texture)))
				}
			}
		}
	}
	return out
}

func variantRotation(v resource.ModelVariant) mgl32.Mat3 {
	return mgl32.Rotate3DY(mgl32.DegToRad(-float32(v.Y))).
		Mul3(mgl32.Rotate3DX(mgl32.DegToRad(-float32(v.X))))
}

func rotateDirection(d resource.Direction, rot mgl32.Mat3) resource.Direction {
	n := d.Normal()
	r := rot.Mul3x1(mgl32.Vec3{float32(n[0]), float32(n[1]), float32(n[2])})
	rd, ok := resource.DirectionOf([3]int{
		int(math.Round(float64(r[0]))),
		int(math.Round(float64(r[1]))),
		int(math.Round(float64(r[2]))),
	})
	if !ok {
		return d
	}
	return rd
}

func culled(s *structure.Structure, res blockResources, pos [3]int, d resource.Direction) bool {
	n := d.Normal()
	neighbor, ok := s.BlockAt([3]int{pos[0] + n[0], pos[1] + n[1], pos[2] + n[2]})
	if !ok {
		return false
	}
	return res.BlockFlags(neighbor.Name).Opaque
}

func appendFace(out []float32, pos [3]int, e *resource.Element, d resource.Direction, f *resource.Face, rot mgl32.Mat3, cell [4]float32) []float32 {
	corners := faceCorners(d, e.From, e.To)

	var elemRot mgl32.Mat3
	if e.Rotation != nil && e.Rotation.Angle != 0 {
		a := mgl32.DegToRad(e.Rotation.Angle)
		switch e.Rotation.Axis {
		case "x":
			elemRot = mgl32.Rotate3DX(a)
		case "y":
			elemRot = mgl32.Rotate3DY(a)
		case "z":
			elemRot = mgl32.Rotate3DZ(a)
		}
	}
	origin := mgl32.Vec3{}
	if e.Rotation != nil {
		origin = mgl32.Vec3(e.Rotation.Origin)
	}

	base := mgl32.Vec3{float32(pos[0]), float32(pos[1]), float32(pos[2])}
	var p [4]mgl32.Vec3
	for i, c := range corners {
		if elemRot != (mgl32.Mat3{}) {
			c = elemRot.Mul3x1(c.Sub(origin)).Add(origin)
		}
		c = c.Mul(1.0 / 16)
		p[i] = rot.Mul3x1(c.Sub(blockCenter)).Add(blockCenter).Add(base)
	}

	uv := e.FaceUV(d)
	uvs := [4]mgl32.Vec2{{uv[0], uv[1]}, {uv[2], uv[1]}, {uv[2], uv[3]}, {uv[0], uv[3]}}
	steps := ((f.Rotation/90)%4 + 4) % 4
	var t [4]mgl32.Vec2
	for i := range t {
		s := uvs[(i+4-steps)%4]
		t[i] = mgl32.Vec2{
			cell[0] + s[0]/16*(cell[2]-cell[0]),
			cell[1] + s[1]/16*(cell[3]-cell[1]),
		}
	}

	shade := float32(1)
	if e.Shade == nil || *e.Shade {
		shade = faceShade[rotateDirection(d, rot)]
	}

	for _, i := range [6]int{0, 1, 2, 0, 2, 3} {
		out = append(out, p[i][0], p[i][1], p[i][2], t[i][0], t[i][1], shade)
	}
	return out
}

// faceCorners returns the corners of a face in 1/16 units, ordered
// top-left, top-right, bottom-right, bottom-left as seen from outside.
func faceCorners(d resource.Direction, from, to [3]float32) [4]mgl32.Vec3 {
	f, t := from, to
	switch d {
	case resource.Down:
		return [4]mgl32.Vec3{{f[0], f[1], t[2]}, {t[0], f[1], t[2]}, {t[0], f[1], f[2]}, {f[0], f[1], f[2]}}
	case resource.Up:
		return [4]mgl32.Vec3{{f[0], t[1], f[2]}, {t[0], t[1], f[2]}, {t[0], t[1], t[2]}, {f[0], t[1], t[2]}}
	case resource.North:
		return [4]mgl32.Vec3{{t[0], t[1], f[2]}, {f[0], t[1], f[2]}, {f[0], f[1], f[2]}, {t[0], f[1], f[2]}}
	case resource.South:
		return [4]mgl32.Vec3{{f[0], t[1], t[2]}, {t[0], t[1], t[2]}, {t[0], f[1], t[2]}, {f[0], f[1], t[2]}}
	case resource.West:
		return [4]mgl32.Vec3{{f[0], t[1], f[2]}, {f[0], t[1], t[2]}, {f[0], f[1], t[2]}, {f[0], f[1], f[2]}}
	case resource.East:
		return [4]mgl32.Vec3{{t[0], t[1], t[2]}, {t[0], t[1], f[2]}, {t[0], f[1], f[2]}, {t[0], f[1], t[2]}}
	}
	return [4]mgl32.Vec3{}
}

// buildGridMesh returns line segments (x, y, z pairs) of the floor grid
// under the structure and its bounding box.
func buildGridMesh(size [3]int) []float32 {
	sx, sy, sz := float32(size[0]), float32(size[1]), float32(size[2])
	var out []float32
	line := func(x0, y0, z0, x1, y1, z1 float32) {
		out = append(out, x0, y0, z0, x1, y1, z1)
	}
	for x := 0; x <= size[0]; x++ {
		line(float32(x), 0, 0, float32(x), 0, sz)
	}
	for z := 0; z <= size[2]; z++ {
		line(0, 0, float32(z), sx, 0, float32(z))
	}
	for _, c := range [4][2]float32{{0, 0}, {sx, 0}, {sx, sz}, {0, sz}} {
		line(c[0], 0, c[1], c[0], sy, c[1])
	}
	line(0, sy, 0, sx, sy, 0)
	line(sx, sy, 0, sx, sy, sz)
	line(sx, sy, sz, 0, sy, sz)
	line(0, sy, sz, 0, sy, 0)
	return out
}
