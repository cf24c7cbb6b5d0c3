package spar

import (
	"strings"

	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/material"
	"github.com/df07/go-lightsampler/pkg/path"
)

// FlagChain selects, per path vertex, which scattering components count
// toward a contribution. Position 0 is the light origin and the last
// position is the eye origin.
type FlagChain struct {
	Flags    []material.Flags
	Subtract bool
}

// NewFlagChain creates a chain of length positions with no components
// selected.
func NewFlagChain(length int, subtract bool) FlagChain {
	return FlagChain{Flags: make([]material.Flags, length), Subtract: subtract}
}

// Len returns the number of vertices the chain applies to.
func (c FlagChain) Len() int {
	return len(c.Flags)
}

// Clone returns a deep copy.
func (c FlagChain) Clone() FlagChain {
	flags := make([]material.Flags, len(c.Flags))
	copy(flags, c.Flags)
	return FlagChain{Flags: flags, Subtract: c.Subtract}
}

// Equal reports whether both chains select the same components with the
// same sign.
func (c FlagChain) Equal(other FlagChain) bool {
	if c.Subtract != other.Subtract || len(c.Flags) != len(other.Flags) {
		return false
	}
	for i, f := range c.Flags {
		if other.Flags[i] != f {
			return false
		}
	}
	return true
}

// Compute multiplies the selected component sums of each vertex of p: the
// light subpath forward, then the eye subpath from its far end back to the
// eye. A chain whose length differs from the path contributes nothing.
func (c FlagChain) Compute(p *path.Bipath) core.Vec3 {
	if len(c.Flags) != p.Length() {
		return core.Vec3{}
	}
	result := core.NewVec3(1, 1, 1)
	i := 0
	for k := range p.Light {
		result = result.MultiplyVec(p.Light[k].Components.Sum(c.Flags[i]))
		i++
	}
	for k := len(p.Eye) - 1; k >= 0; k-- {
		result = result.MultiplyVec(p.Eye[k].Components.Sum(c.Flags[i]))
		i++
	}
	if c.Subtract {
		return result.Negate()
	}
	return result
}

// String renders the chain as groups, e.g. "(DR)(X)(DR|GT)", prefixed with
// "-" when subtracting.
func (c FlagChain) String() string {
	var sb strings.Builder
	if c.Subtract {
		sb.WriteByte('-')
	}
	for _, f := range c.Flags {
		sb.WriteByte('(')
		sb.WriteString(f.String())
		sb.WriteByte(')')
	}
	return sb.String()
}

// Combine merges two chains that differ in at most one position by taking
// the union of every position. Chains of different length or sign cannot
// be combined.
func Combine(a, b FlagChain) (FlagChain, bool) {
	if len(a.Flags) != len(b.Flags) || a.Subtract != b.Subtract {
		return FlagChain{}, false
	}
	differences := 0
	for i := range a.Flags {
		if a.Flags[i] != b.Flags[i] {
			differences++
			if differences > 1 {
				return FlagChain{}, false
			}
		}
	}
	merged := a.Clone()
	for i := range merged.Flags {
		merged.Flags[i] |= b.Flags[i]
	}
	return merged, true
}

// ChainList is a set of chains of one length whose contributions add up.
type ChainList struct {
	chains []FlagChain
}

// Add stores a copy of chain unless an equal chain is already present.
func (l *ChainList) Add(chain FlagChain) bool {
	for _, c := range l.chains {
		if c.Equal(chain) {
			return false
		}
	}
	l.chains = append(l.chains, chain.Clone())
	return true
}

// Len returns the number of chains.
func (l *ChainList) Len() int {
	return len(l.chains)
}

// Chains returns the stored chains. The slice must not be modified.
func (l *ChainList) Chains() []FlagChain {
	return l.chains
}

// Compute sums the contributions of every chain for p.
func (l *ChainList) Compute(p *path.Bipath) core.Vec3 {
	var result core.Vec3
	for _, c := range l.chains {
		result = result.Add(c.Compute(p))
	}
	chainEvaluations.Add(float64(len(l.chains)))
	return result
}

// Simplify merges combinable chains in a single greedy pass: each chain is
// merged into the first chain already kept that it combines with, or kept
// as is. The result is not guaranteed to be minimal.
func (l *ChainList) Simplify() {
	var kept []FlagChain
	for _, c := range l.chains {
		merged := false
		for i := range kept {
			if m, ok := Combine(kept[i], c); ok {
				kept[i] = m
				merged = true
				break
			}
		}
		if !merged {
			kept = append(kept, c)
		}
	}
	l.chains = kept
}

// Clear removes every chain.
func (l *ChainList) Clear() {
	l.chains = nil
}
