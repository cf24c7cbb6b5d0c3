package geometry

import (
	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/screen"
)

// CameraConfig positions an orthographic camera.
type CameraConfig struct {
	Center core.Vec3 // Middle of the image plane
	LookAt core.Vec3 // Point the camera faces
	Up     core.Vec3 // Approximate up direction
	Width  float64   // World extent of the image along the camera's right axis
	Height float64   // World extent along the camera's up axis
}

// Camera is an orthographic eye. Every ray leaves the image plane along
// the same direction, and scene points map to the plane by dropping their
// depth.
type Camera struct {
	origin  core.Vec3
	forward core.Vec3
	right   core.Vec3
	up      core.Vec3
	window  screen.Window
}

// NewCamera creates a camera from config.
func NewCamera(config CameraConfig) *Camera {
	forward := config.LookAt.Subtract(config.Center).Normalize()
	right := config.Up.Cross(forward.Negate()).Normalize()
	up := forward.Negate().Cross(right)
	return &Camera{
		origin:  config.Center,
		forward: forward,
		right:   right,
		up:      up,
		window: screen.Window{
			MinX: -config.Width / 2, MinY: -config.Height / 2,
			MaxX: config.Width / 2, MaxY: config.Height / 2,
		},
	}
}

// Window returns the image plane extent in screen coordinates.
func (c *Camera) Window() screen.Window {
	return c.window
}

// Forward returns the viewing direction.
func (c *Camera) Forward() core.Vec3 {
	return c.forward
}

// Project returns the screen position of point and its distance in front of
// the image plane. ok is false for points behind the camera or outside the
// window.
func (c *Camera) Project(point core.Vec3) (x, y, depth float64, ok bool) {
	local := point.Subtract(c.origin)
	x, y, depth = local.Dot(c.right), local.Dot(c.up), local.Dot(c.forward)
	return x, y, depth, depth > 0 && c.window.Contains(x, y)
}

// GetRay returns the ray through screen position (x, y).
func (c *Camera) GetRay(x, y float64) core.Ray {
	origin := c.origin.Add(c.right.Multiply(x)).Add(c.up.Multiply(y))
	return core.NewRay(origin, c.forward)
}
