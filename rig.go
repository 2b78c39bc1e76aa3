package meshview

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/meshview/render"
)

// Rig drives the camera from frame input.
type Rig interface {
	// Update advances the rig by one frame.
	Update(in FrameInput)
	// Frame positions the rig so that geometry with the given half
	// extents around the origin is in view.
	Frame(bounds mgl32.Vec3)
	// Apply writes the rig pose into c. Projection parameters are left
	// alone.
	Apply(c *render.Camera)
}

var worldUp = mgl32.Vec3{0, 0, 1}

// FlyRig is a free-flying camera in a Z-up world. Dragging turns the
// camera, the movement keys translate it relative to where it looks.
type FlyRig struct {
	Position mgl32.Vec3
	// Yaw is measured in degrees counter-clockwise from +X around +Z.
	Yaw float32
	// Pitch is measured in degrees above the horizon.
	Pitch float32

	// Speed is the movement speed in units per second.
	Speed float32
	// Boost multiplies Speed while KeyBoost is held.
	Boost float32
	// LookSpeed converts drag pixels to degrees. Positive values turn the
	// view against the drag direction.
	LookSpeed float32
}

const (
	flyMaxPitch = 89.9
	// maxDrag bounds the rotation a single frame of dragging can cause.
	maxDrag = 359
)

// NewFlyRig returns a fly rig hovering 100 units above the origin and
// looking down at 45 degrees.
func NewFlyRig() *FlyRig {
	return &FlyRig{
		Position:  mgl32.Vec3{0, 0, 100},
		Yaw:       135,
		Pitch:     -45,
		Speed:     100,
		Boost:     10,
		LookSpeed: 1.0 / 3.0,
	}
}

// Update implements Rig.
func (r *FlyRig) Update(in FrameInput) {
	r.Yaw += mgl32.Clamp(in.DragX, -maxDrag, maxDrag) * -r.LookSpeed
	r.Pitch += mgl32.Clamp(in.DragY, -maxDrag, maxDrag) * -r.LookSpeed
	r.Yaw = wrapDegrees(r.Yaw)
	r.Pitch = mgl32.Clamp(r.Pitch, -flyMaxPitch, flyMaxPitch)

	local := mgl32.Vec3{
		in.Keys.axis(KeyRight, KeyLeft),
		in.Keys.axis(KeyForward, KeyBack),
		in.Keys.axis(KeyUp, KeyDown),
	}
	if l := local.Len(); l > 1 {
		local = local.Mul(1 / l)
	}
	if local.Len() == 0 || in.DT <= 0 {
		return
	}

	forward, right, up := r.basis()
	move := right.Mul(local.X()).Add(forward.Mul(local.Y())).Add(up.Mul(local.Z()))
	speed := r.Speed * in.DT
	if in.Keys.Has(KeyBoost) {
		speed *= r.Boost
	}
	r.Position = r.Position.Add(move.Mul(speed))
}

// Frame implements Rig. The rig moves to (h, h, 2z) with h the larger
// horizontal half extent halved, and turns to face the origin.
func (r *FlyRig) Frame(bounds mgl32.Vec3) {
	if bounds == (mgl32.Vec3{}) {
		return
	}
	h := max(bounds.X(), bounds.Y()) / 2
	r.Position = mgl32.Vec3{h, h, bounds.Z() * 2}
	r.LookAt(mgl32.Vec3{})
}

// LookAt turns the rig to face target without moving it.
func (r *FlyRig) LookAt(target mgl32.Vec3) {
	d := target.Sub(r.Position)
	if d.Len() == 0 {
		return
	}
	horiz := float32(math.Hypot(float64(d.X()), float64(d.Y())))
	r.Yaw = wrapDegrees(mgl32.RadToDeg(float32(math.Atan2(float64(d.Y()), float64(d.X())))))
	r.Pitch = mgl32.Clamp(mgl32.RadToDeg(float32(math.Atan2(float64(d.Z()), float64(horiz)))), -flyMaxPitch, flyMaxPitch)
}

// Apply implements Rig.
func (r *FlyRig) Apply(c *render.Camera) {
	forward, _, _ := r.basis()
	c.Eye = r.Position
	c.Target = r.Position.Add(forward)
	c.Up = worldUp
}

// Forward returns the unit view direction.
func (r *FlyRig) Forward() mgl32.Vec3 {
	f, _, _ := r.basis()
	return f
}

func (r *FlyRig) basis() (forward, right, up mgl32.Vec3) {
	yaw := float64(mgl32.DegToRad(r.Yaw))
	pitch := float64(mgl32.DegToRad(r.Pitch))
	forward = mgl32.Vec3{
		float32(math.Cos(pitch) * math.Cos(yaw)),
		float32(math.Cos(pitch) * math.Sin(yaw)),
		float32(math.Sin(pitch)),
	}
	right = forward.Cross(worldUp).Normalize()
	up = right.Cross(forward)
	return forward, right, up
}

func wrapDegrees(d float32) float32 {
	d = float32(math.Mod(float64(d), 360))
	if d < 0 {
		d += 360
	}
	return d
}

// OrbitRig circles a target point. Dragging changes yaw and pitch,
// scrolling changes the distance.
type OrbitRig struct {
	Target mgl32.Vec3
	// Yaw and Pitch are in radians.
	Yaw, Pitch float32
	Distance   float32
}

const (
	orbitMinDistance = 0.01
	orbitMaxPitch    = math.Pi / 2 * 0.9999
)

// NewOrbitRig returns an orbit rig 5 units in front of the origin.
func NewOrbitRig() *OrbitRig {
	return &OrbitRig{Distance: 5}
}

// Update implements Rig.
func (r *OrbitRig) Update(in FrameInput) {
	r.Yaw = float32(math.Mod(float64(r.Yaw+in.DragX/100), 2*math.Pi))
	r.Pitch = mgl32.Clamp(r.Pitch-in.DragY/100, -orbitMaxPitch, orbitMaxPitch)
	r.Distance = max(r.Distance-in.Scroll/50, orbitMinDistance)
}

// Frame implements Rig. The distance becomes twice the length of the
// bounds so the whole model fits in a 60 degree view.
func (r *OrbitRig) Frame(bounds mgl32.Vec3) {
	if l := bounds.Len(); l > 0 {
		r.Distance = 2 * l
	}
}

// Apply implements Rig.
func (r *OrbitRig) Apply(c *render.Camera) {
	c.Eye = r.Target.Add(r.Eye())
	c.Target = r.Target
	c.Up = worldUp
}

// Eye returns the camera offset from the target.
func (r *OrbitRig) Eye() mgl32.Vec3 {
	arm := mgl32.Vec3{0, -r.Distance, 0}
	return mgl32.Rotate3DZ(-r.Yaw).Mul3(mgl32.Rotate3DX(r.Pitch)).Mul3x1(arm)
}
