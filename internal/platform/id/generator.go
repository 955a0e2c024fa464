package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

const alphanumericAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// AlphanumericGenerator creates fixed-length upper-case alphanumeric IDs,
// used for federation session serials.
type AlphanumericGenerator struct {
	length int
}

func NewAlphanumericGenerator(length int) *AlphanumericGenerator {
	if length < 1 {
		length = 15
	}
	return &AlphanumericGenerator{length: length}
}

func (g *AlphanumericGenerator) NewID() (string, error) {
	max := big.NewInt(int64(len(alphanumericAlphabet)))
	out := make([]byte, g.length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random index: %w", err)
		}
		out[i] = alphanumericAlphabet[n.Int64()]
	}
	return string(out), nil
}
