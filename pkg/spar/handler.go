// Package spar classifies bidirectional paths by the scattering components
// at their vertices.
//
// A Handler turns strategy expressions such as "(L)(X)*(D)(E)" into flag
// chains, grouped by path length, and sums the chains matching a path. A
// Spar names one handler and a SparList adds the contributions of several,
// so that each sampling strategy accounts for a disjoint set of paths.
package spar

import (
	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/log"
	"github.com/df07/go-lightsampler/pkg/path"
)

var logger = log.New("spar")

// Handler holds one chain list per path length up to a maximum.
type Handler struct {
	maxLength int
	lists     []ChainList // lists[n] holds chains of length n
}

// NewHandler creates an empty handler for paths of up to maxLength vertices.
func NewHandler(maxLength int) *Handler {
	h := &Handler{}
	h.Init(maxLength)
	return h
}

// Init drops every chain and sets the maximum path length.
func (h *Handler) Init(maxLength int) {
	h.maxLength = max(0, maxLength)
	h.lists = make([]ChainList, h.maxLength+1)
}

// MaxLength returns the longest path the handler classifies.
func (h *Handler) MaxLength() int {
	return h.maxLength
}

// AddRegExp expands expr and adds every matching chain. A malformed
// expression resets the handler to an empty state.
func (h *Handler) AddRegExp(expr string) error {
	parsed, err := parseExpression(expr)
	if err != nil {
		logger.Errorf("%v, clearing all chains", err)
		h.Init(h.maxLength)
		return err
	}

	added := 0
	parsed.expand(h.maxLength, func(chain FlagChain) {
		if h.lists[chain.Len()].Add(chain) {
			added++
		}
	})
	logger.Debugf("%q expanded to %d chains", expr, added)
	return nil
}

// AddChain adds a single chain directly.
func (h *Handler) AddChain(chain FlagChain) bool {
	if chain.Len() > h.maxLength {
		return false
	}
	return h.lists[chain.Len()].Add(chain)
}

// List returns the chains for paths of length n, or nil beyond the maximum.
func (h *Handler) List(n int) *ChainList {
	if n < 0 || n > h.maxLength {
		return nil
	}
	return &h.lists[n]
}

// Count returns the number of chains over all lengths.
func (h *Handler) Count() int {
	total := 0
	for i := range h.lists {
		total += h.lists[i].Len()
	}
	return total
}

// Simplify merges combinable chains in every list.
func (h *Handler) Simplify() {
	for i := range h.lists {
		h.lists[i].Simplify()
	}
}

// Compute returns the contribution of p according to the chains of its
// length. Paths longer than the maximum contribute nothing.
func (h *Handler) Compute(p *path.Bipath) core.Vec3 {
	list := h.List(p.Length())
	if list == nil {
		return core.Vec3{}
	}
	return list.Compute(p)
}

// Spar is a named group of sampling strategies.
type Spar struct {
	Name    string
	Handler *Handler
}

// NewSpar creates a spar matching exprs for paths of up to maxLength
// vertices.
func NewSpar(name string, maxLength int, exprs ...string) (*Spar, error) {
	s := &Spar{Name: name, Handler: NewHandler(maxLength)}
	for _, expr := range exprs {
		if err := s.Handler.AddRegExp(expr); err != nil {
			return nil, err
		}
	}
	s.Handler.Simplify()
	return s, nil
}

// SparList sums the contributions of several spars.
type SparList []*Spar

// Compute returns the summed contribution of p over every spar.
func (l SparList) Compute(p *path.Bipath) core.Vec3 {
	var result core.Vec3
	for _, s := range l {
		result = result.Add(s.Handler.Compute(p))
	}
	return result
}

// Find returns the spar called name, or nil.
func (l SparList) Find(name string) *Spar {
	for _, s := range l {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Standard spar names.
const (
	LightDiffuse = "LD" // light tracing connections through a diffuse vertex
	EyeLight     = "EL" // eye paths reaching the light or non-diffuse vertices
)

// StandardSpars returns the light tracing spar (paths whose vertex next to
// the eye is diffuse) and the eye spar (the light seen directly, or through
// a glossy or specular vertex next to the eye).
func StandardSpars(maxLength int) (SparList, error) {
	ld, err := NewSpar(LightDiffuse, maxLength, "(L)(X)*(D)(E)")
	if err != nil {
		return nil, err
	}
	el, err := NewSpar(EyeLight, maxLength, "(L)(E)", "(L)(X)*(G S)(E)")
	if err != nil {
		return nil, err
	}
	return SparList{ld, el}, nil
}
