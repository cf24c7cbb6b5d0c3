package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-lightsampler/pkg/core"
)

func TestBox_FacesPointOutward(t *testing.T) {
	box := NewBox(core.NewVec3(1, 2, 3), core.NewVec3(1, 2, 0.5), 0.3, gray)
	for i, face := range box.Faces() {
		center := face.Corner.Add(face.U.Multiply(0.5)).Add(face.V.Multiply(0.5))
		if face.Normal.Dot(center.Subtract(box.Center)) <= 0 {
			t.Errorf("face %d normal %v points inward", i, face.Normal)
		}
	}
}

func TestBox_Hit(t *testing.T) {
	box := NewAxisAlignedBox(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1), gray)

	tests := []struct {
		name string
		ray  core.Ray
		hit  bool
		t    float64
	}{
		{"front face", core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1)), true, 4},
		{"side face", core.NewRay(core.NewVec3(-3, 0.2, 0.1), core.NewVec3(1, 0, 0)), true, 2},
		{"from inside", core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0)), true, 1},
		{"miss", core.NewRay(core.NewVec3(0, 3, 5), core.NewVec3(0, 0, -1)), false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := box.Hit(tt.ray, 0.001, 1000)
			if ok != tt.hit {
				t.Fatalf("expected hit=%v, got %v", tt.hit, ok)
			}
			if ok && math.Abs(hit.T-tt.t) > 1e-9 {
				t.Errorf("expected t=%f, got %f", tt.t, hit.T)
			}
		})
	}
}

func TestBox_RotatedBoundingBox(t *testing.T) {
	box := NewBox(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1), math.Pi/4, gray)
	bbox := box.BoundingBox()
	if math.Abs(bbox.Max.X-math.Sqrt2) > 1e-9 || math.Abs(bbox.Max.Y-1) > 1e-9 {
		t.Errorf("unexpected bounds %v", bbox)
	}
}
