package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// camera orbits the center of the structure.
type camera struct {
	yaw, pitch, distance float64

	cfg cameraConfig
}

func newCamera(cfg cameraConfig) *camera {
	c := &camera{cfg: cfg}
	c.reset()
	return c
}

func (c *camera) reset() {
	c.yaw = c.cfg.Yaw
	c.pitch = c.cfg.Pitch
	c.distance = c.cfg.Distance
}

func (c *camera) rotate(dYaw, dPitch float64) {
	c.yaw += dYaw
	c.pitch += dPitch
}

func (c *camera) zoom(d float64) {
	c.distance += d
}

// normalize wraps yaw into (-2π, 2π) and clamps pitch and distance.
func (c *camera) normalize() {
	c.yaw = math.Mod(c.yaw, 2*math.Pi)
	c.pitch = math.Max(-math.Pi/2, math.Min(math.Pi/2, c.pitch))
	c.distance = math.Max(c.cfg.MinDistance, math.Min(c.cfg.MaxDistance, c.distance))
}

// view returns the view matrix looking at the center of a structure of the
// given size from the current orbit position.
func (c *camera) view(size [3]int) mgl32.Mat4 {
	return mgl32.Translate3D(0, 0, -float32(c.distance)).
		Mul4(mgl32.HomogRotate3DX(float32(c.pitch))).
		Mul4(mgl32.HomogRotate3DY(float32(c.yaw))).
		Mul4(mgl32.Translate3D(
			-float32(size[0])/2,
			-float32(size[1])/2,
			-float32(size[2])/2,
		))
}
