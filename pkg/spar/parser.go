package spar

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/df07/go-lightsampler/pkg/material"
)

// ErrMalformedExpression is returned for strategy expressions that do not
// parse.
var ErrMalformedExpression = errors.New("spar: malformed expression")

// repeat says how often a group may occur.
type repeat int

const (
	repeatOnce repeat = iota
	repeatAny         // *
)

// item is one group of an expression with its repetition.
type item struct {
	flags  material.Flags
	repeat repeat
}

// expression is a parsed strategy expression.
type expression struct {
	items    []item
	subtract bool
}

// letterFlags maps expression letters to the components they select. L and
// E mark the light and eye endpoints and select everything.
var letterFlags = map[rune]material.Flags{
	'S': material.Specular,
	'G': material.Glossy,
	'D': material.Diffuse,
	'X': material.AllComponents,
	'L': material.AllComponents,
	'E': material.AllComponents,
}

func parseError(expr string, pos int, format string, args ...interface{}) error {
	return fmt.Errorf("%q at %d: %s: %w", expr, pos, fmt.Sprintf(format, args...), ErrMalformedExpression)
}

// parseExpression parses expressions such as "(L)(X)*(DR)(E)". Each group
// in parentheses lists letters S, G, D, X, L or E, each optionally followed
// by R (reflection only) or T (transmission only); the group selects the
// union. A single letter may stand without parentheses. A group may be
// followed by * (zero or more) or + (one or more). A leading - makes the
// expression subtract its contribution.
func parseExpression(expr string) (expression, error) {
	var result expression
	runes := []rune(expr)
	pos := 0

	skipSpace := func() {
		for pos < len(runes) && unicode.IsSpace(runes[pos]) {
			pos++
		}
	}

	// letter parses one letter with its optional R/T suffix.
	letter := func() (material.Flags, error) {
		flags, ok := letterFlags[unicode.ToUpper(runes[pos])]
		if !ok {
			return 0, parseError(expr, pos, "unexpected %q", runes[pos])
		}
		pos++
		if pos < len(runes) {
			switch unicode.ToUpper(runes[pos]) {
			case 'R':
				flags &= material.Reflection
				pos++
			case 'T':
				flags &= material.Transmission
				pos++
			}
		}
		return flags, nil
	}

	skipSpace()
	if pos < len(runes) && runes[pos] == '-' {
		result.subtract = true
		pos++
	}

	for {
		skipSpace()
		if pos >= len(runes) {
			break
		}

		var flags material.Flags
		if runes[pos] == '(' {
			open := pos
			pos++
			for {
				skipSpace()
				if pos >= len(runes) {
					return expression{}, parseError(expr, open, "unclosed group")
				}
				if runes[pos] == ')' {
					pos++
					break
				}
				f, err := letter()
				if err != nil {
					return expression{}, err
				}
				flags |= f
			}
			if flags == 0 {
				return expression{}, parseError(expr, open, "empty group")
			}
		} else {
			f, err := letter()
			if err != nil {
				return expression{}, err
			}
			flags = f
		}

		skipSpace()
		if pos < len(runes) && (runes[pos] == '*' || runes[pos] == '+') {
			if runes[pos] == '+' {
				result.items = append(result.items, item{flags: flags, repeat: repeatOnce})
			}
			result.items = append(result.items, item{flags: flags, repeat: repeatAny})
			pos++
		} else {
			result.items = append(result.items, item{flags: flags, repeat: repeatOnce})
		}
	}

	if len(result.items) == 0 {
		return expression{}, parseError(expr, 0, "no groups")
	}
	return result, nil
}

// expand calls fn with every chain of at most maxLength positions the
// expression matches. Starred groups are repeated as often as fits. The
// chain passed to fn is reused and must be cloned to be kept.
func (e expression) expand(maxLength int, fn func(FlagChain)) {
	fixed := 0
	for _, it := range e.items {
		if it.repeat == repeatOnce {
			fixed++
		}
	}
	if fixed > maxLength {
		return
	}

	current := make([]material.Flags, 0, maxLength)
	var walk func(index int, spare int)
	walk = func(index int, spare int) {
		if index == len(e.items) {
			fn(FlagChain{Flags: current, Subtract: e.subtract})
			return
		}
		it := e.items[index]
		if it.repeat == repeatOnce {
			current = append(current, it.flags)
			walk(index+1, spare)
			current = current[:len(current)-1]
			return
		}
		mark := len(current)
		for n := 0; n <= spare; n++ {
			walk(index+1, spare-n)
			current = append(current, it.flags)
		}
		current = current[:mark]
	}
	walk(0, maxLength-fixed)
}
