package main

type inputKind int

const (
	inputMouseDown inputKind = iota
	inputMouseMove
	inputMouseUp
	inputTouchStart
	inputTouchMove
	inputTouchEnd
	inputTouchCancel
	inputWheel
	inputContextMenu
	inputResize
)

func (k inputKind) String() string {
	switch k {
	case inputMouseDown:
		return "mousedown"
	case inputMouseMove:
		return "mousemove"
	case inputMouseUp:
		return "mouseup"
	case inputTouchStart:
		return "touchstart"
	case inputTouchMove:
		return "touchmove"
	case inputTouchEnd:
		return "touchend"
	case inputTouchCancel:
		return "touchcancel"
	case inputWheel:
		return "wheel"
	case inputContextMenu:
		return "contextmenu"
	case inputResize:
		return "resize"
	}
	return "unknown"
}

const buttonPrimary = 0

// inputEvent is a pointer, wheel or resize event in host element pixels.
// Touch events carry the first target touch in x and y.
type inputEvent struct {
	kind    inputKind
	x, y    float64
	button  int
	touches int
	deltaY  float64
}

type drag struct {
	x, y   float64
	button int
}

// controller turns input events into camera motion.
type controller struct {
	cam         *camera
	sensitivity float64
	drag        *drag
}

func newController(cam *camera, sensitivity float64) *controller {
	return &controller{cam: cam, sensitivity: sensitivity}
}

type transition struct {
	// apply updates the state and returns true if a redraw is needed.
	apply func(c *controller, e inputEvent) bool
	// preventDefault suppresses the browser's default handling.
	preventDefault bool
}

var transitions = map[inputKind]transition{
	inputMouseDown:   {apply: (*controller).press},
	inputMouseMove:   {apply: (*controller).move},
	inputMouseUp:     {apply: (*controller).release},
	inputTouchStart:  {apply: (*controller).touchStart},
	inputTouchMove:   {apply: (*controller).move},
	inputTouchEnd:    {apply: (*controller).release},
	inputTouchCancel: {apply: (*controller).release, preventDefault: true},
	inputWheel:       {apply: (*controller).wheel, preventDefault: true},
	inputContextMenu: {apply: (*controller).none, preventDefault: true},
	inputResize:      {apply: (*controller).redraw, preventDefault: true},
}

// preventsDefault returns true if the browser's default action for the
// event kind must be suppressed.
func preventsDefault(k inputKind) bool {
	return transitions[k].preventDefault
}

// handle applies the event and returns true if a redraw is needed.
func (c *controller) handle(e inputEvent) bool {
	t, ok := transitions[e.kind]
	if !ok {
		return false
	}
	return t.apply(c, e)
}

func (c *controller) dragging() bool {
	return c.drag != nil
}

func (c *controller) press(e inputEvent) bool {
	c.drag = &drag{x: e.x, y: e.y, button: e.button}
	return false
}

func (c *controller) touchStart(e inputEvent) bool {
	if e.touches != 1 {
		return false
	}
	c.drag = &drag{x: e.x, y: e.y, button: buttonPrimary}
	return false
}

func (c *controller) move(e inputEvent) bool {
	if c.drag == nil {
		return false
	}
	if c.drag.button == buttonPrimary {
		c.cam.rotate(
			(e.x-c.drag.x)/c.sensitivity,
			(e.y-c.drag.y)/c.sensitivity,
		)
	}
	c.drag.x, c.drag.y = e.x, e.y
	return true
}

func (c *controller) release(inputEvent) bool {
	c.drag = nil
	return false
}

func (c *controller) wheel(e inputEvent) bool {
	c.cam.zoom(e.deltaY / c.sensitivity)
	return true
}

func (c *controller) none(inputEvent) bool {
	return false
}

func (c *controller) redraw(inputEvent) bool {
	return true
}
