// Package names generates display names that are unique within a room.
package names

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// ErrNamespaceExhausted is returned when no free name was found within as many
// draws as the namespace has entries.
var ErrNamespaceExhausted = errors.New("username space exhausted")

var (
	DefaultAdjectives = []string{"Cool", "Brave", "Swift", "Wise", "Bold", "Clever", "Fierce", "Gentle"}
	DefaultNouns      = []string{"Fox", "Wolf", "Eagle", "Tiger", "Bear", "Lion", "Hawk", "Deer"}
)

const DefaultTagDigits = 4

// Source is the randomness an Allocator draws from. *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Global draws from the process-wide math/rand/v2 generator.
var Global Source = globalSource{}

// Allocator draws names of the form <Adjective><Noun><Tag>, where Tag is a
// zero-padded number of TagDigits digits (omitted when TagDigits is 0).
type Allocator struct {
	adjectives []string
	nouns      []string
	tagDigits  int
	tagSpace   int
	rand       Source
}

// NewAllocator builds an allocator over the given word lists. A nil src uses the
// process-wide generator.
func NewAllocator(adjectives, nouns []string, tagDigits int, src Source) (*Allocator, error) {
	if len(adjectives) == 0 || len(nouns) == 0 {
		return nil, fmt.Errorf("names: adjective and noun lists must not be empty")
	}
	if tagDigits < 0 || tagDigits > 9 {
		return nil, fmt.Errorf("names: tag digits must be between 0 and 9, got %d", tagDigits)
	}
	if src == nil {
		src = Global
	}
	return &Allocator{
		adjectives: adjectives,
		nouns:      nouns,
		tagDigits:  tagDigits,
		tagSpace:   int(math.Pow10(tagDigits)),
		rand:       src,
	}, nil
}

// Default returns the allocator with the stock word lists and a 4 digit tag.
func Default(src Source) *Allocator {
	a, _ := NewAllocator(DefaultAdjectives, DefaultNouns, DefaultTagDigits, src)
	return a
}

// Space is the number of distinct names this allocator can produce.
func (a *Allocator) Space() int {
	return len(a.adjectives) * len(a.nouns) * a.tagSpace
}

// Generate returns a name for which taken reports false. It samples at random
// first and then walks the whole space, so ErrNamespaceExhausted means every
// name is taken.
func (a *Allocator) Generate(taken func(string) bool) (string, error) {
	space := a.Space()
	for range space {
		name := a.draw()
		if !taken(name) {
			return name, nil
		}
	}

	start := a.rand.IntN(space)
	for i := range space {
		name := a.nameAt((start + i) % space)
		if !taken(name) {
			return name, nil
		}
	}
	return "", ErrNamespaceExhausted
}

// nameAt maps an index in [0, Space()) to its name.
func (a *Allocator) nameAt(k int) string {
	tag := k % a.tagSpace
	k /= a.tagSpace
	name := a.adjectives[k/len(a.nouns)] + a.nouns[k%len(a.nouns)]
	if a.tagDigits == 0 {
		return name
	}
	return fmt.Sprintf("%s%0*d", name, a.tagDigits, tag)
}

func (a *Allocator) draw() string {
	name := a.adjectives[a.rand.IntN(len(a.adjectives))] + a.nouns[a.rand.IntN(len(a.nouns))]
	if a.tagDigits == 0 {
		return name
	}
	return fmt.Sprintf("%s%0*d", name, a.tagDigits, a.rand.IntN(a.tagSpace))
}
