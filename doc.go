// Package meshview is a real-time viewer core for indexed triangle meshes.
//
// # Overview
//
// meshview collects geometry produced by an external scene importer into
// named groups, uploads each group to the GPU once, and draws every group
// with a single instanced draw call per frame under one point light.
// Windowing, file dialogs and asset parsing stay with the host; the
// viewer only needs a GPU device and a render pass each frame.
//
// # Quick Start
//
//	import "github.com/gogpu/meshview"
//
//	v, err := meshview.New(device, queue)
//	if err != nil {
//	    return err
//	}
//	defer v.Close()
//
//	// Load phase: any time between frames.
//	if err := v.Load("building", importer.GLTF{}, data, nil); err != nil {
//	    return err
//	}
//
//	// Every frame:
//	if err := v.Prepare(meshview.FrameInput{DT: dt, Aspect: w / h}); err != nil {
//	    return err
//	}
//	v.Paint(pass)
//
// # Frame Phases
//
// Prepare runs before the render pass is opened. It may allocate GPU
// buffers and writes the camera, light and model rotation uniforms.
// Paint runs inside the render pass and only records commands: it never
// allocates or mutates state.
//
// # Groups
//
// Adding geometry to an existing group merges it into that group's mesh,
// so a group is always drawn with one draw call no matter how many assets
// were added to it. Set replaces a group; Clear drops everything.
//
// # Camera
//
// A Rig turns per-frame input into a camera. FlyRig is a free-flying
// camera (drag to look, WASD/QE to move, shift to move faster). OrbitRig
// circles the origin. Adding geometry re-frames the rig around the
// combined bounds of all groups.
//
// # Concurrency
//
// Viewer is not safe for concurrent use. Only SetLogger and Logger may be
// called from any goroutine.
package meshview

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
