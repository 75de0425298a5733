package lod

import (
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

const ErrTypeInvalidScene = "invalid_scene"

// Scene overrides the default target orbit. Missing fields keep the default
// values.
type Scene struct {
	Center   *[3]float64 `yaml:"center"`
	Start    *[3]float64 `yaml:"start"`
	Rotation *[3]float64 `yaml:"rotation"`
}

// LoadScene reads a YAML scene file.
func LoadScene(path string) (Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scene{}, errors.New("reading scene file failed").
			WithTag("path", path).
			Wrap(err)
	}
	return ParseScene(data)
}

func ParseScene(data []byte) (Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scene{}, errors.New("parsing scene failed").
			WithType(ErrTypeInvalidScene).
			Wrap(err)
	}
	return s, nil
}

// Orbit returns the orbit described by the scene for an octree of the given
// height.
func (s Scene) Orbit(height int) *Orbit {
	o := DefaultOrbit(height)
	step := DefaultOrbitStep

	if s.Center != nil {
		o.Center = mgl64.Vec3(*s.Center)
	}
	if s.Start != nil {
		o.Position = mgl64.Vec3(*s.Start)
	}
	if s.Rotation != nil {
		step = mgl64.Vec3(*s.Rotation)
	}
	return NewOrbit(o.Center, o.Position, step)
}
