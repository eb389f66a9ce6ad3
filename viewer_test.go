package main

import (
	"bytes"
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/Tnze/go-mc/nbt"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/seqsense/structviewer/structure"
)

type fakeRenderer struct {
	viewports [][4]int
	calls     []string
	views     []mgl32.Mat4
	released  int
}

func (r *fakeRenderer) Release() { r.released++ }

func (r *fakeRenderer) SetViewport(x, y, w, h int) {
	r.viewports = append(r.viewports, [4]int{x, y, w, h})
}

func (r *fakeRenderer) DrawGrid(view mgl32.Mat4) {
	r.calls = append(r.calls, "grid")
	r.views = append(r.views, view)
}

func (r *fakeRenderer) DrawStructure(view mgl32.Mat4) {
	r.calls = append(r.calls, "structure")
}

type fakeGraphics struct {
	clientW, clientH int
	w, h             int

	sink        eventSink
	frames      []func()
	cursors     []cursor
	renderers   []*fakeRenderer
	rendererErr error
}

func (g *fakeGraphics) ClientWidth() int   { return g.clientW }
func (g *fakeGraphics) ClientHeight() int  { return g.clientH }
func (g *fakeGraphics) Width() int         { return g.w }
func (g *fakeGraphics) Height() int        { return g.h }
func (g *fakeGraphics) SetWidth(w int)     { g.w = w }
func (g *fakeGraphics) SetHeight(h int)    { g.h = h }
func (g *fakeGraphics) listen(s eventSink) { g.sink = s }
func (g *fakeGraphics) requestFrame(fn func()) {
	g.frames = append(g.frames, fn)
}
func (g *fakeGraphics) setCursor(c cursor) { g.cursors = append(g.cursors, c) }

func (g *fakeGraphics) newRenderer(s *structure.Structure, res blockResources) (renderer, error) {
	if g.rendererErr != nil {
		return nil, g.rendererErr
	}
	r := &fakeRenderer{}
	g.renderers = append(g.renderers, r)
	return r, nil
}

type fakeMountPoint struct {
	src       string
	hasSrc    bool
	gfx       *fakeGraphics
	attachErr error
}

func (p *fakeMountPoint) Source() (string, bool) { return p.src, p.hasSrc }

func (p *fakeMountPoint) Attach() (graphics, error) {
	if p.attachErr != nil {
		return nil, p.attachErr
	}
	return p.gfx, nil
}

type testPaletteEntry struct {
	Name string `nbt:"Name"`
}

type testBlockEntry struct {
	State int32   `nbt:"state"`
	Pos   []int32 `nbt:"pos"`
}

type testStructureFile struct {
	DataVersion int32              `nbt:"DataVersion"`
	Size        []int32            `nbt:"size"`
	Palette     []testPaletteEntry `nbt:"palette"`
	Blocks      []testBlockEntry   `nbt:"blocks"`
}

func structureBytes(t *testing.T) []byte {
	t.Helper()
	data := testStructureFile{
		DataVersion: 3465,
		Size:        []int32{2, 1, 1},
		Palette:     []testPaletteEntry{{Name: "minecraft:stone"}},
		Blocks: []testBlockEntry{
			{State: 0, Pos: []int32{0, 0, 0}},
			{State: 0, Pos: []int32{1, 0, 0}},
		},
	}
	buf := &bytes.Buffer{}
	if err := nbt.NewEncoder(buf).Encode(data, ""); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestViewer(t *testing.T) (*viewer, *fakeGraphics) {
	t.Helper()
	g := &fakeGraphics{clientW: 640, clientH: 480, w: 300, h: 150}
	v, err := newViewer(
		&fakeMountPoint{src: "a.nbt", hasSrc: true, gfx: g},
		viewerDeps{
			ctx:     context.Background(),
			camera:  testCameraConfig,
			fetcher: &mapFetcher{files: map[string][]byte{"a.nbt": structureBytes(t)}},
			log:     discardLogger,
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	return v, g
}

func readyTestViewer(t *testing.T) (*viewer, *fakeGraphics) {
	t.Helper()
	v, g := newTestViewer(t)
	v.ready(structure.New([3]int{2, 1, 1}))
	v.frame()
	return v, g
}

func TestNewViewer_Error(t *testing.T) {
	testCases := map[string]struct {
		p        *fakeMountPoint
		expected error
	}{
		"NoContext": {
			p:        &fakeMountPoint{src: "a.nbt", hasSrc: true, attachErr: errors.New("webgl2 unsupported")},
			expected: errNoGraphicsContext,
		},
		"NoSource": {
			p:        &fakeMountPoint{gfx: &fakeGraphics{}},
			expected: errMissingSource,
		},
		"EmptySource": {
			p:        &fakeMountPoint{hasSrc: true, gfx: &fakeGraphics{}},
			expected: errMissingSource,
		},
		"NoContextAndSource": {
			p:        &fakeMountPoint{attachErr: errors.New("webgl2 unsupported")},
			expected: errNoGraphicsContext,
		},
	}
	for name, tt := range testCases {
		tt := tt
		t.Run(name, func(t *testing.T) {
			_, err := newViewer(tt.p, viewerDeps{camera: testCameraConfig, log: discardLogger})
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected error %v, got %v", tt.expected, err)
			}
		})
	}
	if errors.Is(errMissingSource, errNoGraphicsContext) || errors.Is(errNoGraphicsContext, errMissingSource) {
		t.Error("Construction errors must be distinct")
	}
}

func TestMount(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g := &fakeGraphics{clientW: 10, clientH: 10}
	points := []mountPoint{
		&fakeMountPoint{src: "a.nbt", hasSrc: true, gfx: g},
		&fakeMountPoint{gfx: &fakeGraphics{}},
		&fakeMountPoint{src: "b.nbt", hasSrc: true, attachErr: errors.New("unsupported")},
	}
	viewers, err := mount(points, viewerDeps{
		ctx:     ctx,
		camera:  testCameraConfig,
		fetcher: &mapFetcher{},
		log:     discardLogger,
	})
	if len(viewers) != 3 {
		t.Fatalf("Expected a handle per mount point, got %d", len(viewers))
	}
	if viewers[0] == nil || viewers[1] != nil || viewers[2] != nil {
		t.Errorf("Unexpected handles: %v", viewers)
	}
	if !errors.Is(err, errMissingSource) || !errors.Is(err, errNoGraphicsContext) {
		t.Errorf("Expected both construction errors, got %v", err)
	}
	if g.sink == nil {
		t.Error("Mounted viewer must listen to host events")
	}
}

func TestViewer_Load(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		v, _ := newTestViewer(t)
		v.load(context.Background())
		select {
		case s := <-v.chLoaded:
			if s.Size() != [3]int{2, 1, 1} {
				t.Errorf("Unexpected size: %v", s.Size())
			}
			if len(s.Blocks()) != 2 {
				t.Errorf("Expected 2 blocks, got %d", len(s.Blocks()))
			}
		default:
			t.Fatal("Structure must be handed to the run loop")
		}
	})

	testCases := map[string][]byte{
		"Empty":  {},
		"Broken": {0x1f, 0x8b, 0x00},
	}
	for name, b := range testCases {
		b := b
		t.Run(name, func(t *testing.T) {
			v, _ := newTestViewer(t)
			v.fetch = &mapFetcher{files: map[string][]byte{"a.nbt": b}}
			v.load(context.Background())
			select {
			case <-v.chLoaded:
				t.Fatal("Broken structure must not be loaded")
			default:
			}
		})
	}

	t.Run("FetchError", func(t *testing.T) {
		v, _ := newTestViewer(t)
		v.fetch = &mapFetcher{err: errors.New("404")}
		v.load(context.Background())
		select {
		case <-v.chLoaded:
			t.Fatal("Nothing must be loaded")
		default:
		}
	})
}

func TestViewer_NotReady(t *testing.T) {
	v, g := newTestViewer(t)
	v.dispatch(inputEvent{kind: inputWheel, deltaY: 10000})
	if len(g.frames) != 1 {
		t.Fatalf("Expected a frame request, got %d", len(g.frames))
	}
	v.frame()
	if v.cam.distance != testCameraConfig.MaxDistance {
		t.Errorf("Camera must be normalized, got distance %g", v.cam.distance)
	}
	if g.w != 300 || g.h != 150 {
		t.Errorf("Unready viewer must not touch the surface, got %dx%d", g.w, g.h)
	}
}

func TestViewer_Ready(t *testing.T) {
	v, g := newTestViewer(t)
	v.ready(structure.New([3]int{2, 1, 1}))
	if len(g.renderers) != 1 {
		t.Fatalf("Expected a renderer, got %d", len(g.renderers))
	}
	r := g.renderers[0]
	if len(r.viewports) != 1 || r.viewports[0] != [4]int{0, 0, 300, 150} {
		t.Errorf("Renderer must get the current surface size, got %v", r.viewports)
	}
	if len(g.frames) != 1 {
		t.Fatalf("Expected the first frame request, got %d", len(g.frames))
	}

	v.frame()
	if g.w != 640 || g.h != 480 {
		t.Errorf("Expected surface 640x480, got %dx%d", g.w, g.h)
	}
	if r.viewports[len(r.viewports)-1] != [4]int{0, 0, 640, 480} {
		t.Errorf("Unexpected viewport: %v", r.viewports)
	}
	if len(r.calls) != 2 || r.calls[0] != "grid" || r.calls[1] != "structure" {
		t.Errorf("Expected grid then structure, got %v", r.calls)
	}
	if !r.views[0].ApproxEqual(v.cam.view([3]int{2, 1, 1})) {
		t.Error("Unexpected view matrix")
	}
}

func TestViewer_RendererError(t *testing.T) {
	v, g := newTestViewer(t)
	g.rendererErr = errContextLost
	v.ready(structure.New([3]int{1, 1, 1}))
	if v.renderer != nil {
		t.Error("Viewer must stay unready")
	}
	if len(g.frames) != 0 {
		t.Errorf("No frame must be requested, got %d", len(g.frames))
	}
}

func TestViewer_Reload(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		v, g := readyTestViewer(t)
		old := g.renderers[0]
		v.ready(structure.New([3]int{4, 4, 4}))
		if old.released != 1 {
			t.Errorf("Old renderer must be released once, got %d", old.released)
		}
		if len(g.renderers) != 2 || v.renderer != g.renderers[1] {
			t.Fatal("Viewer must draw with the new renderer")
		}
		if g.renderers[1].released != 0 {
			t.Error("New renderer must not be released")
		}
	})
	t.Run("RendererError", func(t *testing.T) {
		v, g := readyTestViewer(t)
		old := g.renderers[0]
		nCalls := len(old.calls)
		g.rendererErr = errContextLost
		v.ready(structure.New([3]int{4, 4, 4}))
		if old.released != 1 {
			t.Errorf("Old renderer must be released once, got %d", old.released)
		}
		if v.renderer != nil {
			t.Fatal("Viewer must be unready after a failed reload")
		}
		if g.cursors[len(g.cursors)-1] != cursorAuto {
			t.Errorf("Unexpected cursor: %v", g.cursors)
		}
		v.dispatch(inputEvent{kind: inputWheel, deltaY: 100})
		v.frame()
		if len(old.calls) != nCalls {
			t.Errorf("Old renderer must not draw after a failed reload, got %v", old.calls)
		}

		g.rendererErr = nil
		v.ready(v.structure)
		if v.renderer == nil || v.structure.Size() != [3]int{4, 4, 4} {
			t.Error("Viewer must recover with the latest structure")
		}
	})
}

func TestViewer_FrameAfterStop(t *testing.T) {
	v, g := readyTestViewer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		v.run(ctx)
		close(done)
	}()
	cancel()
	<-done

	g.frames = nil
	v.pending = false
	v.requestRedraw()
	if len(g.frames) != 1 {
		t.Fatalf("Expected a frame request, got %d", len(g.frames))
	}
	fired := make(chan struct{})
	go func() {
		g.frames[0]()
		close(fired)
	}()
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("Frame callback must not block after the viewer stopped")
	}
}

func TestViewerList(t *testing.T) {
	var l viewerList
	a, b := &viewer{}, &viewer{}
	if i := l.add(a); i != 0 {
		t.Errorf("Expected index 0, got %d", i)
	}
	if i := l.add(nil, b); i != 1 {
		t.Errorf("Expected index 1, got %d", i)
	}

	testCases := map[string]struct {
		index    int
		expected *viewer
		err      error
	}{
		"First":      {index: 0, expected: a},
		"Second":     {index: 2, expected: b},
		"Failed":     {index: 1, err: errNoViewer},
		"Negative":   {index: -1, err: errNoViewer},
		"OutOfRange": {index: 3, err: errNoViewer},
	}
	for name, tt := range testCases {
		tt := tt
		t.Run(name, func(t *testing.T) {
			v, err := l.get(tt.index)
			if !errors.Is(err, tt.err) {
				t.Fatalf("Expected error %v, got %v", tt.err, err)
			}
			if v != tt.expected {
				t.Errorf("Expected %p, got %p", tt.expected, v)
			}
		})
	}
}

func TestViewer_Resize(t *testing.T) {
	v, g := readyTestViewer(t)
	if v.resize() {
		t.Error("First resize after a frame must not change anything")
	}
	if v.resize() {
		t.Error("Second resize must not change anything")
	}
	g.clientW = 800
	if !v.resize() {
		t.Error("Resize must report a client size change")
	}
	if v.resize() {
		t.Error("Resize must be idempotent")
	}
}

func TestViewer_Dispatch(t *testing.T) {
	v, g := readyTestViewer(t)
	g.frames = nil
	g.cursors = nil

	v.dispatch(inputEvent{kind: inputMouseDown, x: 10, y: 10})
	v.dispatch(inputEvent{kind: inputMouseMove, x: 10, y: 110})
	if math.Abs(v.cam.pitch-1.8) > 1e-9 || v.cam.yaw != 0.5 {
		t.Errorf("Expected pitch 1.8 and yaw 0.5, got %g %g", v.cam.pitch, v.cam.yaw)
	}
	v.dispatch(inputEvent{kind: inputMouseMove, x: 20, y: 110})
	v.dispatch(inputEvent{kind: inputMouseMove, x: 30, y: 110})
	if len(g.frames) != 1 {
		t.Errorf("Redraws must be coalesced, got %d frame requests", len(g.frames))
	}

	v.frame()
	if v.cam.pitch != math.Pi/2 {
		t.Errorf("Pitch must be clamped after redraw, got %g", v.cam.pitch)
	}

	v.dispatch(inputEvent{kind: inputMouseUp, x: 30, y: 110})
	yaw, pitch := v.cam.yaw, v.cam.pitch
	v.dispatch(inputEvent{kind: inputMouseMove, x: 300, y: 300})
	if v.cam.yaw != yaw || v.cam.pitch != pitch {
		t.Error("Move after release must not change the camera")
	}
	if len(g.frames) != 1 {
		t.Errorf("Move after release must not request a redraw, got %d", len(g.frames))
	}

	expectedCursors := []cursor{cursorGrabbing, cursorGrab}
	if len(g.cursors) != len(expectedCursors) {
		t.Fatalf("Expected cursors %v, got %v", expectedCursors, g.cursors)
	}
	for i := range expectedCursors {
		if g.cursors[i] != expectedCursors[i] {
			t.Errorf("Expected cursors %v, got %v", expectedCursors, g.cursors)
		}
	}
}

func TestViewer_Wheel(t *testing.T) {
	testCases := map[string]struct {
		distance float64
		deltaY   float64
		expected float64
	}{
		"Zoom":     {distance: 4, deltaY: 200, expected: 6},
		"ClampIn":  {distance: 19, deltaY: 200, expected: 20},
		"ClampOut": {distance: 2, deltaY: -200, expected: 1},
	}
	for name, tt := range testCases {
		tt := tt
		t.Run(name, func(t *testing.T) {
			v, _ := readyTestViewer(t)
			v.cam.distance = tt.distance
			v.dispatch(inputEvent{kind: inputWheel, deltaY: tt.deltaY})
			v.frame()
			if math.Abs(v.cam.distance-tt.expected) > 1e-9 {
				t.Errorf("Expected distance %g, got %g", tt.expected, v.cam.distance)
			}
		})
	}
}

func TestViewer_CameraRange(t *testing.T) {
	v, _ := readyTestViewer(t)
	rnd := rand.New(rand.NewSource(1))
	kinds := []inputKind{
		inputMouseDown, inputMouseMove, inputMouseMove, inputMouseUp,
		inputTouchStart, inputTouchMove, inputTouchCancel, inputWheel,
	}
	for i := 0; i < 1000; i++ {
		v.dispatch(inputEvent{
			kind:    kinds[rnd.Intn(len(kinds))],
			x:       rnd.Float64()*4000 - 2000,
			y:       rnd.Float64()*4000 - 2000,
			button:  rnd.Intn(3),
			touches: 1 + rnd.Intn(2),
			deltaY:  rnd.Float64()*6000 - 3000,
		})
		if rnd.Intn(3) == 0 {
			v.frame()
			c := v.cam
			if c.pitch < -math.Pi/2 || math.Pi/2 < c.pitch {
				t.Fatalf("Pitch out of range: %g", c.pitch)
			}
			if math.Abs(c.yaw) >= 2*math.Pi {
				t.Fatalf("Yaw out of range: %g", c.yaw)
			}
			if c.distance < 1 || 20 < c.distance {
				t.Fatalf("Distance out of range: %g", c.distance)
			}
		}
	}
}

func TestViewer_ContextLost(t *testing.T) {
	v, g := readyTestViewer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go v.run(ctx)

	v.contextLost()
	// Commands are served by the run loop in order, so the loss has been
	// handled once this returns.
	if _, err := v.runCommand(ctx, "camera"); err != nil {
		t.Fatal(err)
	}
	if v.renderer != nil {
		t.Error("Renderer must be dropped on context loss")
	}

	v.contextRestored()
	if _, err := v.runCommand(ctx, "camera"); err != nil {
		t.Fatal(err)
	}
	if len(g.renderers) != 2 {
		t.Errorf("Renderer must be rebuilt on restore, got %d renderers", len(g.renderers))
	}
	if g.cursors[len(g.cursors)-1] != cursorGrab {
		t.Errorf("Unexpected cursor: %v", g.cursors)
	}
}

func TestViewer_Show(t *testing.T) {
	v, g := readyTestViewer(t)
	if err := v.show(context.Background(), []byte{0x0a}); err == nil {
		t.Error("Expected decode error")
	}
	if err := v.show(context.Background(), structureBytes(t)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	s := <-v.chLoaded
	v.ready(s)
	if len(g.renderers) != 2 {
		t.Errorf("Expected a renderer for the new structure, got %d", len(g.renderers))
	}
	if v.structure.Size() != [3]int{2, 1, 1} || len(v.structure.Blocks()) != 2 {
		t.Error("Viewer must display the new structure")
	}
}
