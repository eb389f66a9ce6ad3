package resource

import (
	"strings"

	"github.com/seqsense/structviewer/structure"
)

const maxTextureRefDepth = 16

// Direction is a block face direction.
type Direction string

const (
	Down  Direction = "down"
	Up    Direction = "up"
	North Direction = "north"
	South Direction = "south"
	West  Direction = "west"
	East  Direction = "east"
)

// Directions lists all face directions.
var Directions = []Direction{Down, Up, North, South, West, East}

// Normal returns the unit vector of the direction. North is -Z and east is +X.
func (d Direction) Normal() [3]int {
	switch d {
	case Down:
		return [3]int{0, -1, 0}
	case Up:
		return [3]int{0, 1, 0}
	case North:
		return [3]int{0, 0, -1}
	case South:
		return [3]int{0, 0, 1}
	case West:
		return [3]int{-1, 0, 0}
	case East:
		return [3]int{1, 0, 0}
	}
	return [3]int{}
}

// DirectionOf returns the direction of an axis aligned unit vector.
func DirectionOf(n [3]int) (Direction, bool) {
	for _, d := range Directions {
		if d.Normal() == n {
			return d, true
		}
	}
	return "", false
}

// Face is one textured face of an element.
type Face struct {
	Texture   string      `json:"texture"`
	UV        *[4]float32 `json:"uv"`
	CullFace  Direction   `json:"cullface"`
	Rotation  int         `json:"rotation"`
	TintIndex *int        `json:"tintindex"`
}

// ElementRotation rotates an element around an axis through Origin.
type ElementRotation struct {
	Origin  [3]float32 `json:"origin"`
	Axis    string     `json:"axis"`
	Angle   float32    `json:"angle"`
	Rescale bool       `json:"rescale"`
}

// Element is an axis aligned box in 1/16 block units.
type Element struct {
	From     [3]float32          `json:"from"`
	To       [3]float32          `json:"to"`
	Rotation *ElementRotation    `json:"rotation"`
	Shade    *bool               `json:"shade"`
	Faces    map[Direction]*Face `json:"faces"`
}

// FaceUV returns the face's UV rectangle in 1/16 units, defaulting to the
// projection of the element onto the face.
func (e *Element) FaceUV(d Direction) [4]float32 {
	if f, ok := e.Faces[d]; ok && f.UV != nil {
		return *f.UV
	}
	from, to := e.From, e.To
	switch d {
	case Down:
		return [4]float32{from[0], 16 - to[2], to[0], 16 - from[2]}
	case Up:
		return [4]float32{from[0], from[2], to[0], to[2]}
	case North:
		return [4]float32{16 - to[0], 16 - to[1], 16 - from[0], 16 - from[1]}
	case South:
		return [4]float32{from[0], 16 - to[1], to[0], 16 - from[1]}
	case West:
		return [4]float32{from[2], 16 - to[1], to[2], 16 - from[1]}
	case East:
		return [4]float32{16 - to[2], 16 - to[1], 16 - from[2], 16 - from[1]}
	}
	return [4]float32{0, 0, 16, 16}
}

// BlockModel is a block model. Models returned by Manager.BlockModel have
// their parent chain merged in.
type BlockModel struct {
	Parent   string            `json:"parent"`
	Textures map[string]string `json:"textures"`
	Elements []Element         `json:"elements"`
}

// ResolveTexture follows #references and returns the texture id, or an
// empty string if the reference cannot be resolved.
func (m *BlockModel) ResolveTexture(ref string) string {
	for i := 0; i < maxTextureRefDepth; i++ {
		if !strings.HasPrefix(ref, "#") {
			return structure.NormalizeID(ref)
		}
		next, ok := m.Textures[ref[1:]]
		if !ok {
			return ""
		}
		ref = next
	}
	return ""
}

func (m *BlockModel) isFullCube() bool {
	for _, e := range m.Elements {
		if e.Rotation != nil && e.Rotation.Angle != 0 {
			continue
		}
		if e.From == [3]float32{0, 0, 0} && e.To == [3]float32{16, 16, 16} {
			return true
		}
	}
	return false
}
