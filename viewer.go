package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/seqsense/structviewer/resource"
	"github.com/seqsense/structviewer/structure"
)

var (
	errNoGraphicsContext = errors.New("no WebGL context")
	errMissingSource     = errors.New("missing structure source")
	errContextLost       = errors.New("WebGL context lost")
	errNoViewer          = errors.New("no such viewer")
)

// renderer draws a structure on a graphics context.
type renderer interface {
	SetViewport(x, y, width, height int)
	// DrawGrid clears the frame and draws the floor grid and bounding box.
	DrawGrid(view mgl32.Mat4)
	DrawStructure(view mgl32.Mat4)
	// Release frees the GPU objects. The renderer must not be used after.
	Release()
}

// eventSink receives host events. Implementations must not block the
// caller for long since it runs on the browser event loop.
type eventSink interface {
	post(e inputEvent)
	contextLost()
	contextRestored()
}

// graphics is the drawing surface of a viewer host.
type graphics interface {
	ClientWidth() int
	ClientHeight() int
	Width() int
	Height() int
	SetWidth(int)
	SetHeight(int)

	listen(sink eventSink)
	// requestFrame calls fn once before the next repaint.
	requestFrame(fn func())
	setCursor(c cursor)
	newRenderer(s *structure.Structure, res blockResources) (renderer, error)
}

// mountPoint is a host element that can become a viewer.
type mountPoint interface {
	// Source returns the structure file URL.
	Source() (string, bool)
	// Attach acquires the host's graphics context.
	Attach() (graphics, error)
}

type viewerDeps struct {
	ctx       context.Context
	camera    cameraConfig
	resources blockResources
	fetcher   resource.Fetcher
	log       *slog.Logger
}

type commandRequest struct {
	line string
	res  chan commandResult
}

type commandResult struct {
	out string
	err error
}

// viewer binds one host to a camera and a renderer. All fields except the
// channels are owned by the run goroutine.
type viewer struct {
	gfx   graphics
	src   string
	cam   *camera
	ctrl  *controller
	res   blockResources
	fetch resource.Fetcher
	log   *slog.Logger

	renderer  renderer
	structure *structure.Structure
	pending   bool

	chInput    chan inputEvent
	chLoaded   chan *structure.Structure
	chFrame    chan struct{}
	chLost     chan struct{}
	chRestored chan struct{}
	chCommand  chan commandRequest
}

// mount creates a viewer for each mount point. The returned slice has one
// entry per point, nil where construction failed; the errors are joined.
func mount(points []mountPoint, deps viewerDeps) ([]*viewer, error) {
	viewers := make([]*viewer, len(points))
	var errs []error
	for i, p := range points {
		v, err := newViewer(p, deps)
		if err != nil {
			errs = append(errs, fmt.Errorf("viewer %d: %w", i, err))
			continue
		}
		v.start(deps.ctx)
		viewers[i] = v
	}
	return viewers, errors.Join(errs...)
}

// viewerList holds the handles given out to the page. Failed mounts keep
// their slot as nil so indices stay stable.
type viewerList struct {
	mu      sync.Mutex
	viewers []*viewer
}

// add appends viewers and returns the index of the first one.
func (l *viewerList) add(vs ...*viewer) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := len(l.viewers)
	l.viewers = append(l.viewers, vs...)
	return i
}

func (l *viewerList) get(i int) (*viewer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.viewers) || l.viewers[i] == nil {
		return nil, fmt.Errorf("%w: %d", errNoViewer, i)
	}
	return l.viewers[i], nil
}

func newViewer(p mountPoint, deps viewerDeps) (*viewer, error) {
	gfx, err := p.Attach()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errNoGraphicsContext, err)
	}
	src, ok := p.Source()
	if !ok || src == "" {
		return nil, errMissingSource
	}
	cam := newCamera(deps.camera)
	log := deps.log
	if log == nil {
		log = slog.Default()
	}
	return &viewer{
		gfx:   gfx,
		src:   src,
		cam:   cam,
		ctrl:  newController(cam, deps.camera.Sensitivity),
		res:   deps.resources,
		fetch: deps.fetcher,
		log:   log.With("src", src),

		chInput:    make(chan inputEvent),
		chLoaded:   make(chan *structure.Structure, 1),
		chFrame:    make(chan struct{}, 1),
		chLost:     make(chan struct{}),
		chRestored: make(chan struct{}),
		chCommand:  make(chan commandRequest),
	}, nil
}

func (v *viewer) start(ctx context.Context) {
	v.gfx.setCursor(cursorGrab)
	v.gfx.listen(v)
	go v.run(ctx)
	go v.load(ctx)
}

func (v *viewer) post(e inputEvent) { v.chInput <- e }
func (v *viewer) contextLost()      { v.chLost <- struct{}{} }
func (v *viewer) contextRestored()  { v.chRestored <- struct{}{} }

func (v *viewer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-v.chInput:
			v.dispatch(e)
		case s := <-v.chLoaded:
			v.ready(s)
		case <-v.chFrame:
			v.frame()
		case <-v.chLost:
			v.log.Warn("renderer dropped", "error", errContextLost)
			v.release()
			v.gfx.setCursor(cursorAuto)
		case <-v.chRestored:
			if v.structure != nil && v.renderer == nil {
				v.ready(v.structure)
			}
		case req := <-v.chCommand:
			out, err := v.command(req.line)
			req.res <- commandResult{out: out, err: err}
		}
	}
}

// load fetches and decodes the structure file and hands it to the run loop.
func (v *viewer) load(ctx context.Context) {
	b, err := v.fetch.Fetch(ctx, v.src)
	if err != nil {
		v.log.Error("failed to fetch structure", "error", err)
		return
	}
	if err := v.show(ctx, b); err != nil {
		v.log.Error("failed to decode structure", "error", err)
	}
}

// show decodes a structure file and hands it to the run loop, replacing the
// structure on display.
func (v *viewer) show(ctx context.Context, b []byte) error {
	s, err := structure.Decode(b)
	if err != nil {
		return err
	}
	select {
	case v.chLoaded <- s:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ready replaces the structure on display. If the renderer can't be
// created the viewer stays unready until the next load or context restore.
func (v *viewer) ready(s *structure.Structure) {
	v.release()
	v.structure = s
	r, err := v.gfx.newRenderer(s, v.res)
	if err != nil {
		v.log.Error("failed to create renderer", "error", err)
		v.gfx.setCursor(cursorAuto)
		return
	}
	v.renderer = r
	r.SetViewport(0, 0, v.gfx.Width(), v.gfx.Height())
	v.gfx.setCursor(cursorGrab)
	size := s.Size()
	v.log.Info("structure loaded",
		"size", fmt.Sprintf("%dx%dx%d", size[0], size[1], size[2]),
		"blocks", len(s.Blocks()),
	)
	v.requestRedraw()
}

func (v *viewer) release() {
	if v.renderer == nil {
		return
	}
	v.renderer.Release()
	v.renderer = nil
}

func (v *viewer) dispatch(e inputEvent) {
	wasDragging := v.ctrl.dragging()
	if v.ctrl.handle(e) {
		v.requestRedraw()
	}
	if d := v.ctrl.dragging(); d != wasDragging {
		if d {
			v.gfx.setCursor(cursorGrabbing)
		} else {
			v.gfx.setCursor(cursorGrab)
		}
	}
}

// requestRedraw schedules a frame unless one is already pending.
// chFrame holds the single pending frame so the callback never blocks,
// even after the run loop has exited.
func (v *viewer) requestRedraw() {
	if v.pending {
		return
	}
	v.pending = true
	v.gfx.requestFrame(func() {
		v.chFrame <- struct{}{}
	})
}

func (v *viewer) frame() {
	v.pending = false
	v.render()
}

// resize matches the drawing buffer to the displayed size of the host and
// returns true if it changed.
func (v *viewer) resize() bool {
	w, h := v.gfx.ClientWidth(), v.gfx.ClientHeight()
	if v.gfx.Width() == w && v.gfx.Height() == h {
		return false
	}
	v.gfx.SetWidth(w)
	v.gfx.SetHeight(h)
	if v.renderer != nil {
		v.renderer.SetViewport(0, 0, w, h)
	}
	return true
}

func (v *viewer) render() {
	if v.renderer == nil {
		v.cam.normalize()
		return
	}
	v.resize()
	v.cam.normalize()
	view := v.cam.view(v.structure.Size())
	v.renderer.DrawGrid(view)
	v.renderer.DrawStructure(view)
}

// runCommand executes a console command on the run goroutine.
func (v *viewer) runCommand(ctx context.Context, line string) (string, error) {
	req := commandRequest{line: line, res: make(chan commandResult, 1)}
	select {
	case v.chCommand <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case r := <-req.res:
		return r.out, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
