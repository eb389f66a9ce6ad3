// Package structure decodes Minecraft Java Edition structure files.
package structure

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/gzip"
)

const defaultNamespace = "minecraft:"

// ErrEmpty is returned when the payload carries no structure data.
var ErrEmpty = errors.New("empty nbt data")

var gzipMagic = []byte{0x1f, 0x8b}

// BlockState is a block name with its state properties.
type BlockState struct {
	Name       string
	Properties map[string]string
}

// Is returns true if the state names the given block.
// The default namespace may be omitted on both sides.
func (b BlockState) Is(name string) bool {
	return NormalizeID(b.Name) == NormalizeID(name)
}

// IsAir returns true for the air variants.
func (b BlockState) IsAir() bool {
	switch NormalizeID(b.Name) {
	case "minecraft:air", "minecraft:cave_air", "minecraft:void_air":
		return true
	}
	return false
}

func (b BlockState) String() string {
	if len(b.Properties) == 0 {
		return b.Name
	}
	keys := make([]string, 0, len(b.Properties))
	for k := range b.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	props := make([]string, 0, len(keys))
	for _, k := range keys {
		props = append(props, k+"="+b.Properties[k])
	}
	return b.Name + "[" + strings.Join(props, ",") + "]"
}

// Block is a placed block.
type Block struct {
	Pos   [3]int
	State BlockState
}

// Structure is a box of blocks.
type Structure struct {
	size   [3]int
	blocks []Block
	index  map[[3]int]int
}

// New returns an empty structure of the given size.
func New(size [3]int) *Structure {
	return &Structure{
		size:  size,
		index: make(map[[3]int]int),
	}
}

// Size returns the bounding size of the structure.
func (s *Structure) Size() [3]int {
	return s.size
}

// Blocks returns the placed blocks in insertion order.
func (s *Structure) Blocks() []Block {
	return s.blocks
}

// AddBlock places a block, replacing the one already at pos.
func (s *Structure) AddBlock(pos [3]int, state BlockState) {
	if i, ok := s.index[pos]; ok {
		s.blocks[i].State = state
		return
	}
	s.index[pos] = len(s.blocks)
	s.blocks = append(s.blocks, Block{Pos: pos, State: state})
}

// BlockAt returns the block state at pos.
func (s *Structure) BlockAt(pos [3]int) (BlockState, bool) {
	i, ok := s.index[pos]
	if !ok {
		return BlockState{}, false
	}
	return s.blocks[i].State, true
}

type nbtBlockState struct {
	Name       string            `nbt:"Name"`
	Properties map[string]string `nbt:"Properties"`
}

type nbtBlock struct {
	State int32   `nbt:"state"`
	Pos   []int32 `nbt:"pos"`
}

type nbtStructure struct {
	DataVersion int32             `nbt:"DataVersion"`
	Size        []int32           `nbt:"size"`
	Palette     []nbtBlockState   `nbt:"palette"`
	Palettes    [][]nbtBlockState `nbt:"palettes"`
	Blocks      []nbtBlock        `nbt:"blocks"`
}

// Decode parses a structure file. Gzip compressed payloads are
// decompressed first.
func Decode(b []byte) (*Structure, error) {
	if len(b) == 0 {
		return nil, ErrEmpty
	}
	var r io.Reader = bytes.NewReader(b)
	if bytes.HasPrefix(b, gzipMagic) {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("decompressing structure: %w", err)
		}
		defer zr.Close()
		r = bufio.NewReader(zr)
	}

	var raw nbtStructure
	if _, err := nbt.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("decoding structure: %w", err)
	}
	return fromNBT(&raw)
}

func fromNBT(raw *nbtStructure) (*Structure, error) {
	if len(raw.Size) != 3 {
		return nil, fmt.Errorf("invalid structure size: %v", raw.Size)
	}
	var size [3]int
	for i, v := range raw.Size {
		if v < 0 {
			return nil, fmt.Errorf("invalid structure size: %v", raw.Size)
		}
		size[i] = int(v)
	}

	palette := raw.Palette
	if len(palette) == 0 && len(raw.Palettes) > 0 {
		palette = raw.Palettes[0]
	}

	s := New(size)
	for _, blk := range raw.Blocks {
		if blk.State < 0 || int(blk.State) >= len(palette) {
			return nil, fmt.Errorf("block state %d out of palette range %d", blk.State, len(palette))
		}
		if len(blk.Pos) != 3 {
			return nil, fmt.Errorf("invalid block position: %v", blk.Pos)
		}
		p := palette[blk.State]
		s.AddBlock(
			[3]int{int(blk.Pos[0]), int(blk.Pos[1]), int(blk.Pos[2])},
			BlockState{Name: p.Name, Properties: p.Properties},
		)
	}
	return s, nil
}

// NormalizeID prefixes the default namespace if the id has none.
func NormalizeID(id string) string {
	if strings.Contains(id, ":") {
		return id
	}
	return defaultNamespace + id
}
