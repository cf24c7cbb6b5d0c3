package density

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownAdaptation is returned for an adaptation method that is neither
// none nor variable.
var ErrUnknownAdaptation = errors.New("density: unknown adaptation method")

// Adaptation selects how the kernel width is chosen during reconstruction.
type Adaptation int

const (
	// AdaptationNone uses one kernel width for every hit.
	AdaptationNone Adaptation = iota
	// AdaptationVariable sizes each kernel from a reference reconstruction.
	AdaptationVariable
)

func (a Adaptation) String() string {
	switch a {
	case AdaptationNone:
		return "none"
	case AdaptationVariable:
		return "variable"
	default:
		return fmt.Sprintf("adaptation(%d)", int(a))
	}
}

// ParseAdaptation maps a method name to its Adaptation value.
func ParseAdaptation(name string) (Adaptation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return AdaptationNone, nil
	case "variable":
		return AdaptationVariable, nil
	default:
		return AdaptationNone, fmt.Errorf("%q: %w", name, ErrUnknownAdaptation)
	}
}

// Config controls hit scaling and reconstruction.
type Config struct {
	TotalSamples    int        // Total light paths traced for the image
	SamplesPerPixel float64    // TotalSamples divided by the pixel count (0 = derive)
	Adaptation      Adaptation // Kernel width selection
	BaseSize        float64    // Relative kernel size for variable reconstruction
}

// DefaultConfig returns a fixed-width configuration for totalSamples paths.
func DefaultConfig(totalSamples int) Config {
	return Config{
		TotalSamples: totalSamples,
		Adaptation:   AdaptationNone,
		BaseSize:     0.05,
	}
}

// Validate resets an unknown adaptation method to AdaptationNone. The
// offending value is logged and returned as an error.
func (c *Config) Validate() error {
	if c.TotalSamples < 1 {
		c.TotalSamples = 1
	}
	switch c.Adaptation {
	case AdaptationNone, AdaptationVariable:
		return nil
	}
	err := fmt.Errorf("%v: %w", c.Adaptation, ErrUnknownAdaptation)
	logger.Errorf("%v, falling back to %v", err, AdaptationNone)
	c.Adaptation = AdaptationNone
	return err
}
