package main

import (
	"errors"
	"log/slog"
	"syscall/js"

	webgl "github.com/seqsense/webgl-go"

	"github.com/seqsense/structviewer/structure"
)

var errNotCanvas = errors.New("host element is not a canvas")

// canvasHost is a viewer host element on the page.
type canvasHost struct {
	el  js.Value
	cfg *config
	log *slog.Logger
}

func (h *canvasHost) Source() (string, bool) {
	v := h.el.Call("getAttribute", h.cfg.SourceAttribute)
	if v.IsNull() || v.IsUndefined() {
		return "", false
	}
	return v.String(), true
}

func (h *canvasHost) Attach() (graphics, error) {
	if h.el.Get("getContext").Type() != js.TypeFunction {
		return nil, errNotCanvas
	}
	gl, err := webgl.New(h.el)
	if err != nil {
		return nil, err
	}
	showDebugInfo(gl, h.log)
	return &webglGraphics{
		Canvas: gl.Canvas,
		gl:     gl,
		cfg:    h.cfg.Render,
	}, nil
}

type webglGraphics struct {
	webgl.Canvas
	gl  *webgl.WebGL
	cfg renderConfig
}

func (g *webglGraphics) element() js.Value {
	return js.Value(g.Canvas)
}

func (g *webglGraphics) listen(s eventSink) {
	mouse := func(kind inputKind) func(webgl.MouseEvent) {
		return func(e webgl.MouseEvent) {
			if preventsDefault(kind) {
				e.PreventDefault()
			}
			s.post(inputEvent{
				kind:   kind,
				x:      float64(e.OffsetX),
				y:      float64(e.OffsetY),
				button: int(e.Button),
			})
		}
	}
	g.OnMouseDown(mouse(inputMouseDown))
	g.OnMouseMove(mouse(inputMouseMove))
	g.OnMouseUp(mouse(inputMouseUp))
	g.OnContextMenu(mouse(inputContextMenu))
	g.OnWheel(func(e webgl.WheelEvent) {
		if preventsDefault(inputWheel) {
			e.PreventDefault()
		}
		s.post(inputEvent{
			kind:   inputWheel,
			deltaY: wheelPixels(e.DeltaY, deltaMode(e.DeltaMode), g.ClientHeight()),
		})
	})

	g.element().Get("style").Set("touchAction", "none")
	g.onTouch("touchstart", inputTouchStart, s)
	g.onTouch("touchmove", inputTouchMove, s)
	g.onTouch("touchend", inputTouchEnd, s)
	g.onTouch("touchcancel", inputTouchCancel, s)

	js.Global().Call("addEventListener", "resize",
		js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			if preventsDefault(inputResize) {
				args[0].Call("preventDefault")
			}
			s.post(inputEvent{kind: inputResize})
			return nil
		}),
	)

	g.OnWebGLContextLost(func(e webgl.WebGLContextEvent) {
		// Allows the browser to restore the context.
		e.PreventDefault()
		s.contextLost()
	})
	g.OnWebGLContextRestored(func(e webgl.WebGLContextEvent) {
		s.contextRestored()
	})
}

func (g *webglGraphics) onTouch(name string, kind inputKind, s eventSink) {
	g.element().Call("addEventListener", name,
		js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			event := args[0]
			if preventsDefault(kind) {
				event.Call("preventDefault")
			}
			e := inputEvent{
				kind:    kind,
				touches: event.Get("touches").Length(),
			}
			if touches := event.Get("targetTouches"); touches.Length() > 0 {
				rect := g.element().Call("getBoundingClientRect")
				t := touches.Index(0)
				e.x = t.Get("clientX").Float() - rect.Get("left").Float()
				e.y = t.Get("clientY").Float() - rect.Get("top").Float()
			}
			s.post(e)
			return nil
		}),
		map[string]interface{}{"passive": false},
	)
}

func (g *webglGraphics) requestFrame(fn func()) {
	var cb js.Func
	cb = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		cb.Release()
		fn()
		return nil
	})
	js.Global().Call("requestAnimationFrame", cb)
}

func (g *webglGraphics) setCursor(c cursor) {
	g.element().Get("style").Set("cursor", string(c))
}

func (g *webglGraphics) newRenderer(s *structure.Structure, res blockResources) (renderer, error) {
	return newGLRenderer(g.gl, g.cfg, s, res)
}
