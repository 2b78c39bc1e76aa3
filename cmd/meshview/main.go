// Command meshview loads the models listed in a scene manifest and renders
// one frame of them to an image file.
//
// Usage:
//
//	meshview -manifest scene.yaml -out frame.png -thumb thumb.png
//
// The output format follows the file extension: .png, .bmp or .tiff.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/schollz/progressbar/v3"

	"github.com/gogpu/meshview"
	"github.com/gogpu/meshview/importer"
	"github.com/gogpu/meshview/internal/manifest"
	"github.com/gogpu/meshview/internal/workpool"
	"github.com/gogpu/meshview/render"
	"github.com/gogpu/meshview/snapshot"
)

var (
	errUsage   = errors.New("usage")
	errVersion = errors.New("version requested")
)

type config struct {
	manifest  string
	out       string
	thumb     string
	thumbSize int
	width     uint
	height    uint
	backend   string
	shader    string
	yaw       float64
	pitch     float64
	workers   int
	verbose   bool
	quiet     bool
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("meshview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.manifest, "manifest", "", "scene manifest (YAML), required")
	fs.StringVar(&cfg.out, "out", "frame.png", "output image (.png, .bmp, .tiff)")
	fs.StringVar(&cfg.thumb, "thumb", "", "optional thumbnail image")
	fs.IntVar(&cfg.thumbSize, "thumb-size", 256, "longest side of the thumbnail in pixels")
	fs.UintVar(&cfg.width, "width", 0, "image width, overrides the manifest")
	fs.UintVar(&cfg.height, "height", 0, "image height, overrides the manifest")
	fs.StringVar(&cfg.backend, "backend", "vulkan", "GPU backend: vulkan or noop")
	fs.StringVar(&cfg.shader, "shader", "wgsl", "shader format: wgsl or spirv")
	fs.Float64Var(&cfg.yaw, "yaw", 0, "model rotation about Z in degrees")
	fs.Float64Var(&cfg.pitch, "pitch", 0, "model rotation about X in degrees")
	fs.IntVar(&cfg.workers, "j", 0, "decode workers, 0 means GOMAXPROCS")
	fs.BoolVar(&cfg.verbose, "v", false, "debug logging to stderr")
	fs.BoolVar(&cfg.quiet, "q", false, "no progress bar")
	version := fs.Bool("version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if *version {
		return cfg, errVersion
	}
	if cfg.manifest == "" {
		fs.Usage()
		return cfg, fmt.Errorf("%w: -manifest is required", errUsage)
	}
	return cfg, nil
}

func shaderFormat(name string) (render.ShaderFormat, error) {
	switch name {
	case "wgsl":
		return render.ShaderWGSL, nil
	case "spirv", "spv":
		return render.ShaderSPIRV, nil
	default:
		return 0, fmt.Errorf("%w: unknown shader format %q", errUsage, name)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cfg, err := parseFlags(args, stderr)
	if errors.Is(err, errVersion) {
		_, err = fmt.Fprintf(stdout, "meshview %s\n", meshview.Version)
		return err
	}
	if err != nil {
		return err
	}

	if cfg.verbose {
		l := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		meshview.SetLogger(l)
		snapshot.SetLogger(l)
	}

	m, err := manifest.Load(cfg.manifest)
	if err != nil {
		return err
	}
	width, height := m.Width, m.Height
	if cfg.width > 0 {
		width = uint32(cfg.width) //nolint:gosec // flag value, checked by the driver
	}
	if cfg.height > 0 {
		height = uint32(cfg.height) //nolint:gosec // flag value, checked by the driver
	}

	backend, err := render.ParseBackend(cfg.backend)
	if err != nil {
		return err
	}
	shader, err := shaderFormat(cfg.shader)
	if err != nil {
		return err
	}

	dev, err := render.OpenDevice(backend)
	if err != nil {
		return err
	}
	defer dev.Close()

	opts := []meshview.Option{
		meshview.WithLOD(m.LOD),
		meshview.WithShaderFormat(shader),
		meshview.WithTargetFormat(snapshot.ColorFormat),
	}
	switch m.Rig {
	case manifest.RigOrbit:
		opts = append(opts, meshview.WithRig(meshview.NewOrbitRig()))
	case manifest.RigFixed:
		opts = append(opts, meshview.WithRig(nil))
	}
	v, err := meshview.New(dev.Device, dev.Queue, opts...)
	if err != nil {
		return err
	}
	defer v.Close()

	if err := loadAssets(v, m, cfg.workers, progressWriter(stderr, cfg.quiet)); err != nil {
		return err
	}
	if cfg.yaw != 0 || cfg.pitch != 0 {
		v.SetModelRotation(modelRotation(cfg.yaw, cfg.pitch))
	}

	r, err := snapshot.New(dev.Device, dev.Queue, width, height)
	if err != nil {
		return err
	}
	defer r.Close()

	img, err := r.Capture(v, meshview.FrameInput{})
	if err != nil {
		return err
	}
	if err := snapshot.Save(cfg.out, img); err != nil {
		return fmt.Errorf("write %s: %w", cfg.out, err)
	}
	if cfg.thumb != "" {
		if err := snapshot.Save(cfg.thumb, snapshot.Thumbnail(img, cfg.thumbSize)); err != nil {
			return fmt.Errorf("write %s: %w", cfg.thumb, err)
		}
	}
	if !cfg.quiet {
		_, _ = fmt.Fprintf(stdout, "rendered %d group(s) at %dx%d to %s\n", v.Cache().Len(), width, height, cfg.out)
	}
	return nil
}

func progressWriter(stderr io.Writer, quiet bool) io.Writer {
	if quiet {
		return io.Discard
	}
	return stderr
}

// loadAssets decodes every asset of m on a worker pool and adds the
// results to v in manifest order. Files listed more than once are decoded
// once per level of detail.
func loadAssets(v *meshview.Viewer, m *manifest.Manifest, workers int, progress io.Writer) error {
	bar := progressbar.NewOptions(len(m.Assets),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("loading assets"),
		progressbar.OptionShowCount(),
	)
	defer func() {
		_ = bar.Close()
	}()

	sources := make(map[importer.Kind]*importer.Cached)
	jobs := make([]importer.Job, len(m.Assets))
	for i, a := range m.Assets {
		kind := importer.KindOf(a.Path)
		src, ok := sources[kind]
		if !ok {
			s, err := importer.SourceFor(kind)
			if err != nil {
				return fmt.Errorf("%s: %w", a.Path, err)
			}
			src = importer.NewCached(s, 0)
			sources[kind] = src
		}
		data, err := os.ReadFile(a.Path)
		if err != nil {
			return err
		}
		jobs[i] = importer.Job{
			Source:    src,
			Data:      data,
			LOD:       a.EffectiveLOD(m.LOD),
			Instances: a.Transforms(),
		}
	}

	pool := workpool.New(workers)
	defer pool.Close()
	results := importer.LoadAll(pool, jobs, func() { _ = bar.Add(1) })
	_ = bar.Finish()

	for kind, src := range sources {
		st := src.Stats()
		meshview.Logger().Debug("meshview: import cache", "kind", kind, "hits", st.Hits, "misses", st.Misses)
	}

	for i, r := range results {
		a := m.Assets[i]
		if r.Err != nil {
			return fmt.Errorf("%s: %w", a.Path, r.Err)
		}
		add := v.Add
		if a.Replace {
			add = v.Set
		}
		if err := add(a.Group, r.Mesh); err != nil {
			return fmt.Errorf("%s: %w", a.Path, err)
		}
	}
	return nil
}

// modelRotation turns by yaw degrees about Z and then by pitch degrees
// about the turned X axis.
func modelRotation(yaw, pitch float64) mgl32.Quat {
	qz := mgl32.QuatRotate(mgl32.DegToRad(float32(yaw)), mgl32.Vec3{0, 0, 1})
	qx := mgl32.QuatRotate(mgl32.DegToRad(float32(pitch)), mgl32.Vec3{1, 0, 0})
	return qz.Mul(qx)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "meshview: %v\n", err)
		}
		os.Exit(1)
	}
}
