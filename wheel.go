package main

// deltaMode is the unit of a wheel event delta (WheelEvent.deltaMode).
type deltaMode int

const (
	deltaPixel deltaMode = iota
	deltaLine
	deltaPage
)

// lineHeight is the pixel height of one scroll line, matching the default
// used by browsers that report line deltas.
const lineHeight = 16

// wheelPixels converts a wheel delta to pixels. Page deltas scroll by the
// height of the host element.
func wheelPixels(d float64, mode deltaMode, pageHeight int) float64 {
	switch mode {
	case deltaLine:
		return d * lineHeight
	case deltaPage:
		if pageHeight <= 0 {
			return d * lineHeight
		}
		return d * float64(pageHeight)
	default:
		return d
	}
}
