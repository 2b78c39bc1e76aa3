package meshview

// Keys is the set of camera keys held down during a frame.
type Keys uint16

const (
	KeyForward Keys = 1 << iota // W
	KeyBack                     // S
	KeyLeft                     // A
	KeyRight                    // D
	KeyUp                       // Q
	KeyDown                     // E
	KeyBoost                    // Shift
)

// Has reports whether every key in k2 is held.
func (k Keys) Has(k2 Keys) bool { return k&k2 == k2 }

// axis returns +1 when pos is held, -1 when neg is held, 0 otherwise.
// pos wins when both are held.
func (k Keys) axis(pos, neg Keys) float32 {
	switch {
	case k.Has(pos):
		return 1
	case k.Has(neg):
		return -1
	default:
		return 0
	}
}

// FrameInput is the per-frame input a host feeds to Viewer.Prepare.
type FrameInput struct {
	// DT is the time since the previous frame, in seconds.
	DT float32

	// DragX and DragY are the pointer drag delta in pixels since the
	// previous frame.
	DragX, DragY float32

	// Scroll is the vertical scroll delta in pixels.
	Scroll float32

	Keys Keys

	// Aspect is the width / height of the viewport. Zero keeps the
	// previous aspect ratio.
	Aspect float32
}
