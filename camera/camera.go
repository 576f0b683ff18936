// Package camera builds projection and view matrices for a Vulkan clip
// space: Y points down and depth runs from 0 to 1.
package camera

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
)

// Up is the default up direction. World space is Y-down.
var Up = mgl32.Vec3{0, -1, 0}

type Camera struct {
	projection  mgl32.Mat4
	view        mgl32.Mat4
	inverseView mgl32.Mat4
}

func New() *Camera {
	return &Camera{
		projection:  mgl32.Ident4(),
		view:        mgl32.Ident4(),
		inverseView: mgl32.Ident4(),
	}
}

func (c *Camera) SetOrthographicProjection(left, right, top, bottom, near, far float32) {
	c.projection = mgl32.Ident4()
	c.projection.Set(0, 0, 2/(right-left))
	c.projection.Set(1, 1, 2/(bottom-top))
	c.projection.Set(2, 2, 1/(far-near))
	c.projection.Set(0, 3, -(right+left)/(right-left))
	c.projection.Set(1, 3, -(bottom+top)/(bottom-top))
	c.projection.Set(2, 3, -near/(far-near))
}

// SetPerspectiveProjection sets a perspective projection with a vertical
// field of view in radians.
func (c *Camera) SetPerspectiveProjection(fovY, aspect, near, far float32) error {
	if math.Abs(float64(aspect)) <= float64(mgl32.Epsilon) {
		return errors.AssertionFailedf("aspect ratio must be non-zero, got %v", aspect)
	}

	tanHalfFovY := float32(math.Tan(float64(fovY) / 2))
	c.projection = mgl32.Mat4{}
	c.projection.Set(0, 0, 1/(aspect*tanHalfFovY))
	c.projection.Set(1, 1, 1/tanHalfFovY)
	c.projection.Set(2, 2, far/(far-near))
	c.projection.Set(3, 2, 1)
	c.projection.Set(2, 3, -(far*near)/(far-near))
	return nil
}

// SetViewDirection points the camera at position along direction.
func (c *Camera) SetViewDirection(position, direction, up mgl32.Vec3) {
	w := direction.Normalize()
	u := w.Cross(up).Normalize()
	v := w.Cross(u)
	c.setView(position, u, v, w)
}

func (c *Camera) SetViewTarget(position, target, up mgl32.Vec3) {
	c.SetViewDirection(position, target.Sub(position), up)
}

// SetViewYXZ orients the camera with Euler angles applied in Y, X, Z
// order, matching scene.Transform.
func (c *Camera) SetViewYXZ(position, rotation mgl32.Vec3) {
	c3, s3 := cos(rotation.Z()), sin(rotation.Z())
	c2, s2 := cos(rotation.X()), sin(rotation.X())
	c1, s1 := cos(rotation.Y()), sin(rotation.Y())

	u := mgl32.Vec3{c1*c3 + s1*s2*s3, c2 * s3, c1*s2*s3 - c3*s1}
	v := mgl32.Vec3{c3*s1*s2 - c1*s3, c2 * c3, c1*c3*s2 + s1*s3}
	w := mgl32.Vec3{c2 * s1, -s2, c1 * c2}
	c.setView(position, u, v, w)
}

// setView stores the view for the orthonormal camera basis u, v, w and
// its inverse.
func (c *Camera) setView(position, u, v, w mgl32.Vec3) {
	c.view = mgl32.Mat4{
		u.X(), v.X(), w.X(), 0,
		u.Y(), v.Y(), w.Y(), 0,
		u.Z(), v.Z(), w.Z(), 0,
		-u.Dot(position), -v.Dot(position), -w.Dot(position), 1,
	}
	c.inverseView = mgl32.Mat4{
		u.X(), u.Y(), u.Z(), 0,
		v.X(), v.Y(), v.Z(), 0,
		w.X(), w.Y(), w.Z(), 0,
		position.X(), position.Y(), position.Z(), 1,
	}
}

func (c *Camera) Projection() mgl32.Mat4  { return c.projection }
func (c *Camera) View() mgl32.Mat4        { return c.view }
func (c *Camera) InverseView() mgl32.Mat4 { return c.inverseView }

// Position is the camera position in world space.
func (c *Camera) Position() mgl32.Vec3 { return c.inverseView.Col(3).Vec3() }

func cos(a float32) float32 { return float32(math.Cos(float64(a))) }
func sin(a float32) float32 { return float32(math.Sin(float64(a))) }
