// Package resource unpacks block asset bundles and serves block definitions,
// block models, the texture atlas and block flags to the renderer.
package resource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zip"

	"github.com/seqsense/structviewer/structure"
)

const (
	assetsPrefix   = "assets/minecraft/"
	propertiesFile = "properties.json"
	maxParentDepth = 32
)

// Fetcher downloads a resource.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// BlockFlags describes how a block interacts with its neighbours.
type BlockFlags struct {
	Opaque bool `json:"opaque"`
}

// Manager holds the unpacked contents of an asset bundle.
// It is safe for concurrent use.
type Manager struct {
	definitions map[string]*BlockDefinition
	rawModels   map[string]*BlockModel
	properties  map[string]BlockFlags
	atlas       *Atlas

	mu     sync.Mutex
	models map[string]*BlockModel
	flags  map[string]BlockFlags
}

// Fetch downloads a bundle and unpacks it.
func Fetch(ctx context.Context, f Fetcher, url string) (*Manager, error) {
	b, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching bundle: %w", err)
	}
	return Load(b)
}

// Load unpacks a zip encoded bundle held in memory.
//
// Entries are looked up with and without the assets/minecraft/ prefix:
// blockstates/<name>.json, models/<path>.json, textures/<path>.png, and an
// optional properties.json mapping block ids to flags.
func Load(b []byte) (*Manager, error) {
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("opening bundle: %w", err)
	}

	m := &Manager{
		definitions: make(map[string]*BlockDefinition),
		rawModels:   make(map[string]*BlockModel),
		properties:  make(map[string]BlockFlags),
		models:      make(map[string]*BlockModel),
		flags:       make(map[string]BlockFlags),
	}
	textures := make(map[string][]byte)

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := strings.TrimPrefix(f.Name, assetsPrefix)
		dir, rest, _ := strings.Cut(name, "/")
		ext := path.Ext(name)

		switch {
		case name == propertiesFile:
			data, err := readEntry(f)
			if err != nil {
				return nil, err
			}
			var props map[string]BlockFlags
			if err := json.Unmarshal(data, &props); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", f.Name, err)
			}
			for id, p := range props {
				m.properties[structure.NormalizeID(id)] = p
			}
		case dir == "blockstates" && ext == ".json":
			data, err := readEntry(f)
			if err != nil {
				return nil, err
			}
			def := &BlockDefinition{}
			if err := json.Unmarshal(data, def); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", f.Name, err)
			}
			m.definitions[structure.NormalizeID(strings.TrimSuffix(rest, ext))] = def
		case dir == "models" && ext == ".json":
			data, err := readEntry(f)
			if err != nil {
				return nil, err
			}
			model := &BlockModel{}
			if err := json.Unmarshal(data, model); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", f.Name, err)
			}
			m.rawModels[structure.NormalizeID(strings.TrimSuffix(rest, ext))] = model
		case dir == "textures" && ext == ".png":
			data, err := readEntry(f)
			if err != nil {
				return nil, err
			}
			textures[structure.NormalizeID(strings.TrimSuffix(rest, ext))] = data
		}
	}

	atlas, err := newAtlas(textures)
	if err != nil {
		return nil, err
	}
	m.atlas = atlas
	return m, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	return b, nil
}

// BlockDefinition returns the block state definition of a block.
func (m *Manager) BlockDefinition(id string) (*BlockDefinition, bool) {
	d, ok := m.definitions[structure.NormalizeID(id)]
	return d, ok
}

// BlockModel returns the model with its parent chain flattened.
func (m *Manager) BlockModel(id string) (*BlockModel, bool) {
	id = structure.NormalizeID(id)

	m.mu.Lock()
	defer m.mu.Unlock()
	if model, ok := m.models[id]; ok {
		return model, model != nil
	}
	model := m.flatten(id)
	m.models[id] = model
	return model, model != nil
}

func (m *Manager) flatten(id string) *BlockModel {
	var chain []*BlockModel
	for i := 0; i < maxParentDepth; i++ {
		raw, ok := m.rawModels[id]
		if !ok {
			break
		}
		chain = append(chain, raw)
		if raw.Parent == "" {
			break
		}
		id = structure.NormalizeID(raw.Parent)
	}
	if len(chain) == 0 {
		return nil
	}

	out := &BlockModel{Textures: make(map[string]string)}
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].Textures {
			out.Textures[k] = v
		}
		if len(chain[i].Elements) > 0 {
			out.Elements = chain[i].Elements
		}
	}
	return out
}

// Atlas returns the texture atlas.
func (m *Manager) Atlas() *Atlas {
	return m.atlas
}

// BlockFlags returns the flags of a block. Flags not listed in the bundle's
// properties are derived from the block's default model: a block whose model
// has a full cube element is opaque.
func (m *Manager) BlockFlags(id string) BlockFlags {
	id = structure.NormalizeID(id)
	if f, ok := m.properties[id]; ok {
		return f
	}
	if (structure.BlockState{Name: id}).IsAir() {
		return BlockFlags{}
	}

	m.mu.Lock()
	f, ok := m.flags[id]
	m.mu.Unlock()
	if ok {
		return f
	}

	def, ok := m.definitions[id]
	if ok {
		for _, v := range def.DefaultModels() {
			model, ok := m.BlockModel(v.Model)
			if !ok {
				continue
			}
			if model.isFullCube() {
				f.Opaque = true
				break
			}
		}
	}

	m.mu.Lock()
	m.flags[id] = f
	m.mu.Unlock()
	return f
}
