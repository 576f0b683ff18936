// Package input drives scene objects from the keyboard.
package input

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vermicelli-engine/vermicelli/scene"
	"github.com/veandco/go-sdl2/sdl"
)

// KeyState reports whether a key is currently held down.
type KeyState interface {
	Pressed(key sdl.Scancode) bool
}

type KeyMap struct {
	MoveLeft, MoveRight   sdl.Scancode
	MoveForward, MoveBack sdl.Scancode
	MoveUp, MoveDown      sdl.Scancode
	LookLeft, LookRight   sdl.Scancode
	LookUp, LookDown      sdl.Scancode
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		MoveLeft:    sdl.SCANCODE_A,
		MoveRight:   sdl.SCANCODE_D,
		MoveForward: sdl.SCANCODE_W,
		MoveBack:    sdl.SCANCODE_S,
		MoveUp:      sdl.SCANCODE_SPACE,
		MoveDown:    sdl.SCANCODE_LSHIFT,
		LookLeft:    sdl.SCANCODE_LEFT,
		LookRight:   sdl.SCANCODE_RIGHT,
		LookUp:      sdl.SCANCODE_UP,
		LookDown:    sdl.SCANCODE_DOWN,
	}
}

// MaxPitch bounds how far the controller looks up or down, in radians.
const MaxPitch = 1.5

type KeyboardController struct {
	Keys      KeyMap
	MoveSpeed float32
	LookSpeed float32
}

func NewKeyboardController() *KeyboardController {
	return &KeyboardController{
		Keys:      DefaultKeyMap(),
		MoveSpeed: 3,
		LookSpeed: 1.5,
	}
}

// MoveInPlaneXZ turns obj with the look keys and moves it with the move
// keys. Forward and right stay in the XZ plane whatever the pitch.
func (c *KeyboardController) MoveInPlaneXZ(keys KeyState, dt float32, obj *scene.Object) {
	axis := func(plus, minus sdl.Scancode) float32 {
		var v float32
		if keys.Pressed(plus) {
			v++
		}
		if keys.Pressed(minus) {
			v--
		}
		return v
	}

	rotate := mgl32.Vec3{
		axis(c.Keys.LookUp, c.Keys.LookDown),
		axis(c.Keys.LookRight, c.Keys.LookLeft),
		0,
	}
	if rotate.Dot(rotate) > mgl32.Epsilon {
		obj.Transform.Rotation = obj.Transform.Rotation.Add(rotate.Normalize().Mul(c.LookSpeed * dt))
	}

	rot := &obj.Transform.Rotation
	rot[0] = mgl32.Clamp(rot[0], -MaxPitch, MaxPitch)
	rot[1] = wrapAngle(rot[1])

	yaw := rot[1]
	forward := mgl32.Vec3{float32(math.Sin(float64(yaw))), 0, float32(math.Cos(float64(yaw)))}
	right := mgl32.Vec3{forward.Z(), 0, -forward.X()}
	up := mgl32.Vec3{0, -1, 0}

	move := forward.Mul(axis(c.Keys.MoveForward, c.Keys.MoveBack)).
		Add(right.Mul(axis(c.Keys.MoveRight, c.Keys.MoveLeft))).
		Add(up.Mul(axis(c.Keys.MoveUp, c.Keys.MoveDown)))
	if move.Dot(move) > mgl32.Epsilon {
		obj.Transform.Translation = obj.Transform.Translation.Add(move.Normalize().Mul(c.MoveSpeed * dt))
	}
}

// wrapAngle maps a into [0, 2π).
func wrapAngle(a float32) float32 {
	a = float32(math.Mod(float64(a), 2*math.Pi))
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		return 0
	}
	return a
}
