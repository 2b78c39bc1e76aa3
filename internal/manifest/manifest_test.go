package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const sample = `
lod: 100
width: 640
rig: orbit
assets:
  - path: terrain.glb
    group: terrain
  - path: /abs/tree.gltf
    group: trees
    lod: 20
    replace: true
    instances:
      - position: [10, 0, 0]
        rotation_deg: [0, 0, 90]
        scale: 2
      - position: [-10, 0, 0]
`

func TestParse(t *testing.T) {
	m, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.LOD != 100 || m.Width != 640 || m.Height != DefaultHeight || m.Rig != RigOrbit {
		t.Errorf("header = lod %v, %dx%d, rig %q", m.LOD, m.Width, m.Height, m.Rig)
	}
	if len(m.Assets) != 2 {
		t.Fatalf("got %d assets, want 2", len(m.Assets))
	}

	terrain, trees := m.Assets[0], m.Assets[1]
	if terrain.EffectiveLOD(m.LOD) != 100 || trees.EffectiveLOD(m.LOD) != 20 {
		t.Errorf("lods = %v, %v; want 100, 20", terrain.EffectiveLOD(m.LOD), trees.EffectiveLOD(m.LOD))
	}
	if terrain.Replace || !trees.Replace {
		t.Errorf("replace = %v, %v; want false, true", terrain.Replace, trees.Replace)
	}
	if terrain.Transforms() != nil {
		t.Error("asset without instances should yield nil transforms")
	}

	ts := trees.Transforms()
	if len(ts) != 2 {
		t.Fatalf("got %d transforms, want 2", len(ts))
	}
	if ts[0].Position != (mgl32.Vec3{10, 0, 0}) || ts[0].Scale != 2 {
		t.Errorf("first transform = %+v", ts[0])
	}
	if got := ts[0].Rotation.Rotate(mgl32.Vec3{1, 0, 0}); !got.ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, 1e-5) {
		t.Errorf("90 degrees about Z maps +X to %v, want +Y", got)
	}
	if ts[1].Scale != 1 || ts[1].Rotation != mgl32.QuatIdent() {
		t.Errorf("second transform = %+v, want unit scale and no rotation", ts[1])
	}
}

func TestParseDefaults(t *testing.T) {
	m, err := Parse(strings.NewReader("assets:\n  - path: a.glb\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.Width != DefaultWidth || m.Height != DefaultHeight {
		t.Errorf("size = %dx%d, want defaults", m.Width, m.Height)
	}
	if m.Rig != RigFly {
		t.Errorf("rig = %q, want %q", m.Rig, RigFly)
	}
	if m.Assets[0].Group != "" {
		t.Errorf("group = %q, want default group", m.Assets[0].Group)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"no assets", "lod: 1\n"},
		{"missing path", "assets:\n  - group: a\n"},
		{"unsupported kind", "assets:\n  - path: a.obj\n"},
		{"unknown rig", "rig: drone\nassets:\n  - path: a.glb\n"},
		{"negative lod", "lod: -1\nassets:\n  - path: a.glb\n"},
		{"negative asset lod", "assets:\n  - path: a.glb\n    lod: -2\n"},
		{"short position", "assets:\n  - path: a.glb\n    instances:\n      - position: [1, 2]\n"},
		{"long rotation", "assets:\n  - path: a.glb\n    instances:\n      - rotation_deg: [1, 2, 3, 4]\n"},
		{"negative scale", "assets:\n  - path: a.glb\n    instances:\n      - scale: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.yaml))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Parse error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestParseUnknownField(t *testing.T) {
	_, err := Parse(strings.NewReader("assets:\n  - path: a.glb\n    colour: red\n"))
	if err == nil {
		t.Fatal("Parse accepted an unknown field")
	}
}

func TestLoadResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if want := filepath.Join(dir, "terrain.glb"); m.Assets[0].Path != want {
		t.Errorf("relative path = %q, want %q", m.Assets[0].Path, want)
	}
	if m.Assets[1].Path != "/abs/tree.gltf" {
		t.Errorf("absolute path rewritten to %q", m.Assets[1].Path)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load error = %v, want os.ErrNotExist", err)
	}
}

func TestEulerZYX(t *testing.T) {
	tests := []struct {
		name    string
		x, y, z float32
		in      mgl32.Vec3
		want    mgl32.Vec3
	}{
		{"identity", 0, 0, 0, mgl32.Vec3{1, 2, 3}, mgl32.Vec3{1, 2, 3}},
		{"x", 90, 0, 0, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
		{"y", 0, 90, 0, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}},
		{"z then x", 90, 0, 90, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EulerZYX(tt.x, tt.y, tt.z).Rotate(tt.in)
			if !got.ApproxEqualThreshold(tt.want, 1e-5) {
				t.Errorf("EulerZYX(%v, %v, %v) maps %v to %v, want %v", tt.x, tt.y, tt.z, tt.in, got, tt.want)
			}
		})
	}
}
