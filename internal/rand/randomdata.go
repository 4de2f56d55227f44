// Package rand produces random test data: labels, coordinates and counts.
//
// All functions are safe for concurrent use. The generator is seeded once
// from the clock, unless Seed is called first.
package rand

import (
	"bytes"
	"math/rand"
	"sync"
	"time"
)

var (
	onceSource  sync.Once
	rgen        *rand.Rand
	onceLetters sync.Once
	randMutex   sync.Mutex
	letters     []byte
)

// Seed makes the generated sequence reproducible
func Seed(seed int64) {
	onceSource.Do(func() {})
	randMutex.Lock()
	rgen = rand.New(rand.NewSource(seed)) // #nosec
	randMutex.Unlock()
}

// LetterString returns a random string picked in the [0-9]|[a-z] range
func LetterString(n int) string {
	onceLetters.Do(makeLetters)
	buf := randBytes(n)
	for i, b := range buf {
		buf[i] = letters[b]
	}
	return string(buf)
}

// Intn returns a random int in [0, n)
func Intn(n int) int {
	onceSource.Do(seed)
	randMutex.Lock()
	defer randMutex.Unlock()
	return rgen.Intn(n)
}

// Float64 returns a random float in [min, max)
func Float64(min, max float64) float64 {
	onceSource.Do(seed)
	randMutex.Lock()
	defer randMutex.Unlock()
	return min + rgen.Float64()*(max-min)
}

// Position returns random 3D coordinates in a cube of the given side
func Position(side float64) [3]float64 {
	return [3]float64{Float64(0, side), Float64(0, side), Float64(0, side)}
}

func seed() {
	rgen = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec
}

func randBytes(n int) []byte {
	onceSource.Do(seed)
	buf := make([]byte, n)
	randMutex.Lock()
	_, _ = rgen.Read(buf)
	randMutex.Unlock()
	return buf
}

func makeLetters() {
	// pads with "a" to cover the 256 values of a byte: "a" is slightly more frequent
	letters = bytes.Repeat([]byte("abcdefghijklmnopqrstuvwxyz0123456789a"), 7)
}
