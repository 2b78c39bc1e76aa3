// Package manifest reads the YAML scene description used by the meshview
// command: which model files to load, into which groups, and where to
// place their instances.
//
//	lod: 100
//	width: 1280
//	height: 720
//	rig: fly
//	assets:
//	  - path: terrain.glb
//	    group: terrain
//	  - path: tree.gltf
//	    group: trees
//	    instances:
//	      - position: [10, 0, 0]
//	        rotation_deg: [0, 0, 45]
//	        scale: 2
package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/meshview/importer"
	"github.com/gogpu/meshview/mesh"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("manifest: invalid")

// Defaults applied to omitted fields.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// Rig names accepted in the rig field.
const (
	RigFly   = "fly"
	RigOrbit = "orbit"
	RigFixed = "fixed"
)

// Manifest is a parsed scene description.
type Manifest struct {
	// LOD is the level-of-detail distance for assets without their own.
	LOD    float32 `yaml:"lod"`
	Width  uint32  `yaml:"width"`
	Height uint32  `yaml:"height"`
	Rig    string  `yaml:"rig"`
	Assets []Asset `yaml:"assets"`
}

// Asset is one model file.
type Asset struct {
	Path  string `yaml:"path"`
	Group string `yaml:"group"`
	// LOD overrides Manifest.LOD when set.
	LOD *float32 `yaml:"lod,omitempty"`
	// Replace swaps out the group instead of merging into it.
	Replace   bool       `yaml:"replace"`
	Instances []Instance `yaml:"instances"`
}

// Instance is one placement of an asset.
type Instance struct {
	Position []float32 `yaml:"position"`
	// RotationDeg holds the X, Y and Z angles in degrees. See EulerZYX.
	RotationDeg []float32 `yaml:"rotation_deg"`
	Scale       float32   `yaml:"scale"`
}

// Parse decodes and validates a manifest. Unknown fields are errors.
// Relative asset paths are left as written.
func Parse(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty manifest", ErrInvalid)
		}
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Width == 0 {
		m.Width = DefaultWidth
	}
	if m.Height == 0 {
		m.Height = DefaultHeight
	}
	if m.Rig == "" {
		m.Rig = RigFly
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads the manifest at path. Relative asset paths are resolved
// against the directory holding the manifest.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range m.Assets {
		if !filepath.IsAbs(m.Assets[i].Path) {
			m.Assets[i].Path = filepath.Join(dir, m.Assets[i].Path)
		}
	}
	return m, nil
}

// Validate checks field values.
func (m *Manifest) Validate() error {
	switch m.Rig {
	case RigFly, RigOrbit, RigFixed:
	default:
		return fmt.Errorf("%w: unknown rig %q", ErrInvalid, m.Rig)
	}
	if m.LOD < 0 {
		return fmt.Errorf("%w: negative lod %v", ErrInvalid, m.LOD)
	}
	if len(m.Assets) == 0 {
		return fmt.Errorf("%w: no assets", ErrInvalid)
	}
	for i, a := range m.Assets {
		if err := a.validate(); err != nil {
			return fmt.Errorf("asset %d: %w", i, err)
		}
	}
	return nil
}

func (a *Asset) validate() error {
	if a.Path == "" {
		return fmt.Errorf("%w: missing path", ErrInvalid)
	}
	if importer.KindOf(a.Path) == importer.KindUnknown {
		return fmt.Errorf("%w: %q is not a supported model file", ErrInvalid, a.Path)
	}
	if a.LOD != nil && *a.LOD < 0 {
		return fmt.Errorf("%w: negative lod %v", ErrInvalid, *a.LOD)
	}
	for i, inst := range a.Instances {
		if err := inst.validate(); err != nil {
			return fmt.Errorf("instance %d: %w", i, err)
		}
	}
	return nil
}

func (in *Instance) validate() error {
	if in.Position != nil && len(in.Position) != 3 {
		return fmt.Errorf("%w: position needs 3 components, got %d", ErrInvalid, len(in.Position))
	}
	if in.RotationDeg != nil && len(in.RotationDeg) != 3 {
		return fmt.Errorf("%w: rotation_deg needs 3 components, got %d", ErrInvalid, len(in.RotationDeg))
	}
	if in.Scale < 0 {
		return fmt.Errorf("%w: negative scale %v", ErrInvalid, in.Scale)
	}
	return nil
}

// EffectiveLOD returns the asset LOD, falling back to def.
func (a *Asset) EffectiveLOD(def float32) float32 {
	if a.LOD != nil {
		return *a.LOD
	}
	return def
}

// Transforms converts the instances into mesh placements. No instances
// yields nil, which the mesh package treats as a single identity
// placement.
func (a *Asset) Transforms() []mesh.InstanceTransform {
	if len(a.Instances) == 0 {
		return nil
	}
	out := make([]mesh.InstanceTransform, len(a.Instances))
	for i, in := range a.Instances {
		out[i] = in.Transform()
	}
	return out
}

// Transform converts in into a mesh placement. A zero scale means 1.
func (in Instance) Transform() mesh.InstanceTransform {
	t := mesh.DefaultInstance()
	if len(in.Position) == 3 {
		t.Position = mgl32.Vec3{in.Position[0], in.Position[1], in.Position[2]}
	}
	if len(in.RotationDeg) == 3 {
		t.Rotation = EulerZYX(in.RotationDeg[0], in.RotationDeg[1], in.RotationDeg[2])
	}
	if in.Scale != 0 {
		t.Scale = in.Scale
	}
	return t
}

// EulerZYX returns Rz * Ry * Rx for angles in degrees: a turn of z about
// Z, then y about the turned Y axis, then x about the resulting X axis.
func EulerZYX(x, y, z float32) mgl32.Quat {
	qx := mgl32.QuatRotate(mgl32.DegToRad(x), mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(mgl32.DegToRad(y), mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(mgl32.DegToRad(z), mgl32.Vec3{0, 0, 1})
	return qz.Mul(qy).Mul(qx)
}
