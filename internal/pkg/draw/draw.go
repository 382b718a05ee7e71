// Package draw samples winning ticket numbers.
//
// Sampling goes through math/rand/v2 bounded integers, which reject the biased tail
// instead of scaling a float, so every ticket in [1, total] is equally likely. The
// default source reads from crypto/rand.
package draw

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"math/rand/v2"
)

var ErrNegativeTotal = errors.New("total tickets must not be negative")

type Drawer struct {
	rng *rand.Rand
}

// New returns a Drawer backed by crypto/rand. It is safe for concurrent use.
func New() *Drawer {
	return NewWithSource(cryptoSource{})
}

// NewWithSource returns a Drawer using src. Tests use it to pin draws; src must be safe
// for concurrent use if the Drawer is shared.
func NewWithSource(src rand.Source) *Drawer {
	return &Drawer{rng: rand.New(src)}
}

// DrawWinner returns a ticket number in [1, total], or nil when total is 0.
func (d *Drawer) DrawWinner(total int) (*int, error) {
	if total < 0 {
		return nil, ErrNegativeTotal
	}
	if total == 0 {
		return nil, nil
	}

	ticket := d.rng.IntN(total) + 1

	return &ticket, nil
}

type cryptoSource struct{}

func (cryptoSource) Uint64() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic("draw: crypto/rand unavailable: " + err.Error())
	}

	return binary.LittleEndian.Uint64(b[:])
}
