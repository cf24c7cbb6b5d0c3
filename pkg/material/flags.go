package material

import (
	"strings"

	"github.com/df07/go-lightsampler/pkg/core"
)

// Flags selects scattering components. Each bit is one component; a mask of
// several bits selects their union.
type Flags uint8

const (
	DiffuseReflection Flags = 1 << iota
	GlossyReflection
	SpecularReflection
	DiffuseTransmission
	GlossyTransmission
	SpecularTransmission

	Diffuse  = DiffuseReflection | DiffuseTransmission
	Glossy   = GlossyReflection | GlossyTransmission
	Specular = SpecularReflection | SpecularTransmission

	Reflection   = DiffuseReflection | GlossyReflection | SpecularReflection
	Transmission = DiffuseTransmission | GlossyTransmission | SpecularTransmission

	AllComponents = Reflection | Transmission
)

// NumComponents is the number of distinct scattering components.
const NumComponents = 6

var componentNames = [NumComponents]string{"DR", "GR", "SR", "DT", "GT", "ST"}

// String lists the selected components, e.g. "DR|GT".
func (f Flags) String() string {
	if f == 0 {
		return "-"
	}
	if f&AllComponents == AllComponents {
		return "X"
	}
	var parts []string
	for i := 0; i < NumComponents; i++ {
		if f&(1<<i) != 0 {
			parts = append(parts, componentNames[i])
		}
	}
	return strings.Join(parts, "|")
}

// Components holds a color per scattering component, indexed by bit position.
type Components [NumComponents]core.Vec3

// Sum adds the colors of the components selected by flags.
func (c *Components) Sum(flags Flags) core.Vec3 {
	var result core.Vec3
	for i := 0; i < NumComponents; i++ {
		if flags&(1<<i) != 0 {
			result = result.Add(c[i])
		}
	}
	return result
}

// Set stores color for a single-component flag.
func (c *Components) Set(component Flags, color core.Vec3) {
	for i := 0; i < NumComponents; i++ {
		if component == 1<<i {
			c[i] = color
			return
		}
	}
}
