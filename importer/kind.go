package importer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedKind is returned by SourceFor for kinds without a source.
var ErrUnsupportedKind = errors.New("importer: unsupported asset kind")

// Kind identifies an asset format. The set is closed.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindGLTF
	KindGLB
)

// String returns the conventional file extension of k without the dot.
func (k Kind) String() string {
	switch k {
	case KindGLTF:
		return "gltf"
	case KindGLB:
		return "glb"
	default:
		return "unknown"
	}
}

// KindOf resolves the asset kind from a file name.
func KindOf(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf":
		return KindGLTF
	case ".glb":
		return KindGLB
	default:
		return KindUnknown
	}
}

// SourceFor returns the importer for kind.
func SourceFor(kind Kind) (Source, error) {
	switch kind {
	case KindGLTF, KindGLB:
		return GLTF{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
}
