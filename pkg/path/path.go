// Package path models the vertices of bidirectional light paths.
package path

import (
	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/material"
)

// Node is one path vertex. Components holds the BSDF (or, at an endpoint,
// EDF) value at the vertex split by scattering component.
type Node struct {
	Point      core.Vec3
	Normal     core.Vec3
	Hit        *material.HitRecord
	Material   *material.Material
	Components material.Components
}

// NewSurfaceNode creates a node for hit with its components evaluated for a
// particle arriving along in and leaving along out.
func NewSurfaceNode(hit *material.HitRecord, in, out core.Vec3) Node {
	n := Node{
		Point:    hit.Point,
		Normal:   hit.ShadingNormal(),
		Hit:      hit,
		Material: hit.Material(),
	}
	if n.Material != nil && n.Material.BSDF != nil {
		n.Material.BSDF.EvaluateComponents(hit, in, out, material.AllComponents, &n.Components)
	}
	return n
}

// NewEndpointNode creates a path endpoint carrying c. Light origins carry
// their emitted radiance and eye origins the camera importance. Emission is
// diffuse only, so c is stored as the diffuse reflection component.
func NewEndpointNode(point, normal core.Vec3, c core.Vec3) Node {
	n := Node{Point: point, Normal: normal}
	n.Components.Set(material.DiffuseReflection, c)
	return n
}

// Bipath is a bidirectional path: a light subpath starting at the light
// origin and an eye subpath starting at the eye origin.
type Bipath struct {
	Light []Node
	Eye   []Node
}

// Length returns the total number of vertices.
func (b *Bipath) Length() int {
	return len(b.Light) + len(b.Eye)
}

// Reset empties both subpaths and keeps their storage.
func (b *Bipath) Reset() {
	b.Light = b.Light[:0]
	b.Eye = b.Eye[:0]
}

// Scale multiplies every component by s.
func (n *Node) Scale(s float64) {
	for i := range n.Components {
		n.Components[i] = n.Components[i].Multiply(s)
	}
}
