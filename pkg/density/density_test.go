package density

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/log"
	"github.com/df07/go-lightsampler/pkg/screen"
)

// newTestScreen returns a 64x64 screen with one unit per pixel.
func newTestScreen() *screen.Buffer {
	return screen.New(64, 64, screen.Window{MinX: 0, MinY: 0, MaxX: 64, MaxY: 64})
}

func TestKernel_IntegratesToOne(t *testing.T) {
	for _, h := range []float64{0.5, 1, 3.7} {
		k := Kernel{H: h}
		steps := 800
		d := 2 * h / float64(steps)
		total := 0.0
		for i := 0; i < steps; i++ {
			for j := 0; j < steps; j++ {
				x := -h + (float64(i)+0.5)*d
				y := -h + (float64(j)+0.5)*d
				total += k.Evaluate(x, y) * d * d
			}
		}
		if math.Abs(total-1) > 1e-3 {
			t.Errorf("h=%f: expected integral 1, got %f", h, total)
		}
		if k.Evaluate(h, 0) != 0 || k.Evaluate(h, h) != 0 {
			t.Errorf("h=%f: kernel should vanish at and beyond h", h)
		}
	}
}

func TestReconstruct_SplatConservation(t *testing.T) {
	one := core.NewVec3(1, 1, 1)

	for h := 1; h <= 5; h++ {
		t.Run(fmt.Sprintf("h=%d", h), func(t *testing.T) {
			s := newTestScreen()
			cfg := DefaultConfig(1000)
			cfg.SamplesPerPixel = 64 / float64(h*h)

			// Averaged over sub-pixel positions the kernel sum is exact up to
			// quadrature error.
			const n = 8
			total := 0.0
			for a := 0; a < n; a++ {
				for b := 0; b < n; b++ {
					buf := NewBuffer(s, cfg)
					if kh := buf.FixedKernel().H; math.Abs(kh-float64(h)) > 1e-12 {
						t.Fatalf("expected kernel width %d, got %f", h, kh)
					}
					buf.Add(32+(float64(a)+0.5)/n, 32+(float64(b)+0.5)/n, one)
					if err := buf.Reconstruct(context.Background(), s); err != nil {
						t.Fatal(err)
					}
					total += s.Sum().X
				}
			}
			total /= n * n
			if math.Abs(total-1) > 5e-3 {
				t.Errorf("expected averaged weight 1, got %f", total)
			}

			// A single hit carries the lattice discretization error, which
			// shrinks as the kernel widens.
			if h >= 3 {
				buf := NewBuffer(s, cfg)
				buf.Add(32.5, 32.5, one)
				if err := buf.Reconstruct(context.Background(), s); err != nil {
					t.Fatal(err)
				}
				if got := s.Sum().X; math.Abs(got-1) > 0.02 {
					t.Errorf("single hit: expected weight 1, got %f", got)
				}
			}
		})
	}
}

func TestAdd_Filtering(t *testing.T) {
	buf := NewBuffer(newTestScreen(), DefaultConfig(100))

	tests := []struct {
		name  string
		x, y  float64
		c     core.Vec3
		added bool
	}{
		{"bright", 10, 10, core.NewVec3(1, 0, 0), true},
		{"dim", 10, 10, core.NewVec3(1e-7, 1e-7, 1e-7), false},
		{"negative", 10, 10, core.NewVec3(-1, -1, -1), false},
		{"outside", 64, 10, core.NewVec3(1, 1, 1), false},
		{"corner", 0, 0, core.NewVec3(1, 1, 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buf.Add(tt.x, tt.y, tt.c); got != tt.added {
				t.Errorf("expected added=%v, got %v", tt.added, got)
			}
		})
	}
	if buf.Count() != 2 {
		t.Errorf("expected 2 hits, got %d", buf.Count())
	}

	// Stored colours carry pixel area and sample count
	buf.Each(func(h Hit) {
		if h.X == 10 && h.Color.X != 100 {
			t.Errorf("expected stored colour 100, got %f", h.Color.X)
		}
	})

	buf.Reset()
	if buf.Count() != 0 {
		t.Errorf("expected empty buffer after Reset, got %d", buf.Count())
	}
}

func TestReconstruct_ZeroesDestination(t *testing.T) {
	s := newTestScreen()
	s.Set(3, 3, core.NewVec3(5, 5, 5))

	buf := NewBuffer(s, DefaultConfig(100))
	if err := buf.Reconstruct(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	if !s.Sum().IsZero() {
		t.Errorf("expected empty reconstruction, got sum %v", s.Sum())
	}
}

func TestMerge(t *testing.T) {
	s := newTestScreen()
	cfg := DefaultConfig(4096)
	a := NewBuffer(s, cfg)
	b := NewBuffer(s, cfg)
	all := NewBuffer(s, cfg)

	for i := 0; i < 20; i++ {
		x, y := 3.1*float64(i)+0.7, 2.9*float64(i)+1.3
		c := core.NewVec3(1, float64(i), 0.5)
		all.Add(x, y, c)
		if i%2 == 0 {
			a.Add(x, y, c)
		} else {
			b.Add(x, y, c)
		}
	}
	a.Merge(b)
	if a.Count() != all.Count() {
		t.Fatalf("expected %d hits after merge, got %d", all.Count(), a.Count())
	}

	merged := newTestScreen()
	expected := newTestScreen()
	if err := a.Reconstruct(context.Background(), merged); err != nil {
		t.Fatal(err)
	}
	if err := all.Reconstruct(context.Background(), expected); err != nil {
		t.Fatal(err)
	}
	for i := range merged.Pixels {
		d := merged.Pixels[i].Subtract(expected.Pixels[i])
		if math.Abs(d.X)+math.Abs(d.Y)+math.Abs(d.Z) > 1e-9 {
			t.Fatalf("pixel %d: merged %v != expected %v", i, merged.Pixels[i], expected.Pixels[i])
		}
	}
}

func TestReconstructVariable(t *testing.T) {
	one := core.NewVec3(1, 1, 1)
	cfg := DefaultConfig(4096)
	cfg.SamplesPerPixel = 1

	t.Run("kernel width", func(t *testing.T) {
		buf := NewBuffer(newTestScreen(), cfg)
		k, ok := buf.VariableKernel(1, 1, 4.0/64)
		if !ok || math.Abs(k.H-4) > 1e-12 {
			t.Errorf("expected width 4, got %f (ok=%v)", k.H, ok)
		}
		k, ok = buf.VariableKernel(4, 1, 4.0/64)
		if !ok || math.Abs(k.H-8) > 1e-12 {
			t.Errorf("expected width 8 for a hit four times brighter than the reference, got %f", k.H)
		}
		k, _ = buf.VariableKernel(1, 1, 1e-6)
		if k.H != 1 {
			t.Errorf("expected width floored at one pixel, got %f", k.H)
		}
		if _, ok := buf.VariableKernel(1, 1e-9, 1); ok {
			t.Error("expected negligible reference to drop the hit")
		}
	})

	t.Run("sample density", func(t *testing.T) {
		dense := cfg
		dense.SamplesPerPixel = 32
		buf := NewBuffer(newTestScreen(), dense)

		// 32^-0.3 == 2^-1.5
		scale := 1 / math.Sqrt(8)
		tests := []struct {
			name     string
			cAverage float64
			baseSize float64
			expected float64
		}{
			{"reference brightness", 1, 4.0 / 64, 4 * scale},
			{"four times brighter", 4, 4.0 / 64, 8 * scale},
			{"wide base", 1, 16.0 / 64, 16 * scale},
			{"one pixel floor", 1, 2.0 / 64, 1},
		}
		for _, tt := range tests {
			k, ok := buf.VariableKernel(tt.cAverage, 1, tt.baseSize)
			if !ok || math.Abs(k.H-tt.expected) > 1e-12 {
				t.Errorf("%s: expected width %f, got %f (ok=%v)", tt.name, tt.expected, k.H, ok)
			}
		}
	})

	t.Run("uniform reference", func(t *testing.T) {
		s := newTestScreen()
		reference := newTestScreen()
		for i := range reference.Pixels {
			reference.Pixels[i] = one
		}
		buf := NewBuffer(s, cfg)
		buf.Add(32.5, 32.5, one)
		if err := buf.ReconstructVariable(context.Background(), s, reference, 4.0/64); err != nil {
			t.Fatal(err)
		}
		if got := s.Sum().X; math.Abs(got-1) > 0.01 {
			t.Errorf("expected weight 1, got %f", got)
		}
	})

	t.Run("dark reference", func(t *testing.T) {
		s := newTestScreen()
		buf := NewBuffer(s, cfg)
		buf.Add(32.5, 32.5, one)
		if err := buf.ReconstructVariable(context.Background(), s, newTestScreen(), 0.1); err != nil {
			t.Fatal(err)
		}
		if !s.Sum().IsZero() {
			t.Errorf("expected nothing splatted, got %v", s.Sum())
		}
	})

	t.Run("configured", func(t *testing.T) {
		s := newTestScreen()
		variable := cfg
		variable.Adaptation = AdaptationVariable
		variable.BaseSize = 2.0 / 64
		buf := NewBuffer(s, variable)
		for j := 0; j < 64; j++ {
			for i := 0; i < 64; i++ {
				buf.Add(float64(i)+0.5, float64(j)+0.5, one)
			}
		}
		if err := buf.ReconstructConfigured(context.Background(), s); err != nil {
			t.Fatal(err)
		}
		got := s.Sum().X / 4096
		if got < 0.85 || got > 1.02 {
			t.Errorf("expected close to unit weight per hit, got %f", got)
		}
	})
}

func TestReconstruct_Canceled(t *testing.T) {
	s := newTestScreen()
	buf := NewBuffer(s, DefaultConfig(10))
	buf.Add(5, 5, core.NewVec3(1, 1, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := buf.Reconstruct(ctx, s); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	var sink bytes.Buffer
	defer log.Redirect(&sink)()

	cfg := DefaultConfig(10)
	cfg.Adaptation = Adaptation(7)
	err := cfg.Validate()
	if !errors.Is(err, ErrUnknownAdaptation) {
		t.Fatalf("expected ErrUnknownAdaptation, got %v", err)
	}
	if cfg.Adaptation != AdaptationNone {
		t.Errorf("expected reset to none, got %v", cfg.Adaptation)
	}
	if !strings.Contains(sink.String(), "unknown adaptation method") {
		t.Errorf("expected error to be logged, got %q", sink.String())
	}

	sink.Reset()
	bad := DefaultConfig(0)
	bad.Adaptation = Adaptation(9)
	buf := NewBuffer(newTestScreen(), bad)
	if got := buf.Config(); got.Adaptation != AdaptationNone || got.TotalSamples != 1 {
		t.Errorf("expected the buffer to keep the validated config, got %+v", got)
	}
	if !strings.Contains(sink.String(), "adaptation(9)") {
		t.Errorf("expected NewBuffer to log the rejected method, got %q", sink.String())
	}

	tests := []struct {
		name     string
		expected Adaptation
		err      bool
	}{
		{"none", AdaptationNone, false},
		{"", AdaptationNone, false},
		{"Variable", AdaptationVariable, false},
		{"adaptive", AdaptationNone, true},
	}
	for _, tt := range tests {
		got, err := ParseAdaptation(tt.name)
		if got != tt.expected || (err != nil) != tt.err {
			t.Errorf("ParseAdaptation(%q) = %v, %v", tt.name, got, err)
		}
	}
}
