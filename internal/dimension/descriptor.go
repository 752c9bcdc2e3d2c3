// Package dimension holds the world parameter descriptor (min_y, height,
// logical_height, and registry sizes) that the chunk model and the
// paletted-container codec need but terrain generation treats as opaque
// configuration. Unlike the teacher's hardcoded 256-block world, the
// descriptor is data loaded from an embedded YAML table so a new
// dimension (or a test "flat" world) doesn't require a code change.
package dimension

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Descriptor is the set of world-shape parameters a Chunk is built from.
type Descriptor struct {
	Name           string `yaml:"name"`
	MinY           int32  `yaml:"min_y"`
	Height         int32  `yaml:"height"`
	LogicalHeight  int32  `yaml:"logical_height"`
	BlockRegistry  int    `yaml:"block_registry_size"`
	BiomeRegistry  int    `yaml:"biome_registry_size"`
}

// SectionCount returns the fixed number of 16-block-tall sections a chunk
// of this dimension owns.
func (d Descriptor) SectionCount() int {
	return int(d.Height) / 16
}

// MinSectionY returns the section index (can be negative) of the lowest
// section.
func (d Descriptor) MinSectionY() int32 {
	return d.MinY / 16
}

//go:embed dimensions.yaml
var dimensionsYAML []byte

type registry struct {
	Dimensions []Descriptor `yaml:"dimensions"`
}

var byName map[string]Descriptor

func init() {
	var reg registry
	if err := yaml.Unmarshal(dimensionsYAML, &reg); err != nil {
		panic(fmt.Errorf("dimension: parse embedded descriptor table: %w", err))
	}
	byName = make(map[string]Descriptor, len(reg.Dimensions))
	for _, d := range reg.Dimensions {
		if d.Height%16 != 0 {
			panic(fmt.Errorf("dimension %q: height %d not a multiple of 16", d.Name, d.Height))
		}
		if d.MinY%16 != 0 {
			panic(fmt.Errorf("dimension %q: min_y %d not a multiple of 16", d.Name, d.MinY))
		}
		byName[d.Name] = d
	}
}

// Lookup returns the named descriptor, or false if it isn't in the
// embedded table.
func Lookup(name string) (Descriptor, bool) {
	d, ok := byName[name]
	return d, ok
}

// Overworld is the default 1.21.7 overworld descriptor.
func Overworld() Descriptor {
	d, ok := byName["overworld"]
	if !ok {
		panic("dimension: embedded table missing \"overworld\"")
	}
	return d
}
