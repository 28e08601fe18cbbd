package simulation

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// streamStride separates the per-generator seeds derived from one run seed.
const streamStride uint64 = 0x9e3779b97f4a7c15

// Streams holds one independent random source per generator so wind and
// storm can be generated concurrently without sharing state.
type Streams struct {
	Wind  rand.Source
	Storm rand.Source
	Burst rand.Source
}

// NewStreams derives the three generator sources from a run seed.
// The same seed always yields the same streams.
func NewStreams(seed uint64) Streams {
	stride := streamStride
	return Streams{
		Wind:  rand.NewSource(seed),
		Storm: rand.NewSource(seed + stride),
		Burst: rand.NewSource(seed + 2*stride),
	}
}

func uniform(lo, hi float64, src rand.Source) distuv.Uniform {
	return distuv.Uniform{Min: lo, Max: hi, Src: src}
}
