package resource

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sort"

	"golang.org/x/image/draw"

	"github.com/seqsense/structviewer/structure"
)

// AtlasCellSize is the edge length in pixels of one texture in the atlas.
const AtlasCellSize = 16

var (
	missingColor0 = color.NRGBA{R: 0xf8, G: 0x00, B: 0xf8, A: 0xff}
	missingColor1 = color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xff}
)

// Atlas packs all block textures into one square image.
// Cell 0 holds the missing texture pattern.
type Atlas struct {
	Image *image.NRGBA

	cells   int
	uv      map[string][4]float32
	missing [4]float32
}

func newAtlas(textures map[string][]byte) (*Atlas, error) {
	ids := make([]string, 0, len(textures))
	for id := range textures {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	cells := 1
	for cells*cells < len(ids)+1 {
		cells *= 2
	}
	px := cells * AtlasCellSize
	a := &Atlas{
		Image: image.NewNRGBA(image.Rect(0, 0, px, px)),
		cells: cells,
		uv:    make(map[string][4]float32, len(ids)),
	}

	a.missing = a.cellUV(0)
	drawMissing(a.Image, a.cellRect(0))

	for i, id := range ids {
		img, err := png.Decode(bytes.NewReader(textures[id]))
		if err != nil {
			return nil, fmt.Errorf("decoding texture %s: %w", id, err)
		}
		b := img.Bounds()
		// Animated textures are vertical strips of square frames.
		src := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+b.Dx())
		if src.Max.Y > b.Max.Y {
			src.Max.Y = b.Max.Y
		}
		dst := a.cellRect(i + 1)
		draw.NearestNeighbor.Scale(a.Image, dst, img, src, draw.Src, nil)
		a.uv[id] = a.cellUV(i + 1)
	}
	return a, nil
}

func drawMissing(img *image.NRGBA, r image.Rectangle) {
	half := r.Dx() / 2
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := missingColor0
			if ((x-r.Min.X) < half) != ((y-r.Min.Y) < half) {
				c = missingColor1
			}
			img.SetNRGBA(x, y, c)
		}
	}
}

func (a *Atlas) cellRect(i int) image.Rectangle {
	x := (i % a.cells) * AtlasCellSize
	y := (i / a.cells) * AtlasCellSize
	return image.Rect(x, y, x+AtlasCellSize, y+AtlasCellSize)
}

func (a *Atlas) cellUV(i int) [4]float32 {
	r := a.cellRect(i)
	s := float32(a.Size())
	return [4]float32{
		float32(r.Min.X) / s, float32(r.Min.Y) / s,
		float32(r.Max.X) / s, float32(r.Max.Y) / s,
	}
}

// Size returns the edge length of the atlas image in pixels.
func (a *Atlas) Size() int {
	return a.cells * AtlasCellSize
}

// UV returns the normalized rectangle (u0, v0, u1, v1) of a texture.
// Unknown textures map to the missing texture cell.
func (a *Atlas) UV(id string) [4]float32 {
	if uv, ok := a.uv[structure.NormalizeID(id)]; ok {
		return uv
	}
	return a.missing
}

// Has returns true if the atlas contains the texture.
func (a *Atlas) Has(id string) bool {
	_, ok := a.uv[structure.NormalizeID(id)]
	return ok
}
