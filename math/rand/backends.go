package rand

import (
	"math"
	stdrand "math/rand"
)

var xorshiftMaxUint = float64(math.MaxUint32)

// xorshiftGenerator is Marsaglia's 128-bit xorshift.
type xorshiftGenerator struct {
	w, x, y, z uint32
}

func (gen *xorshiftGenerator) Init(seed uint64) {
	gen.x = 123456789
	gen.y = 362436069
	gen.z = 521288629
	gen.w = uint32(seed)
	if gen.w == 0 {
		gen.w = uint32(seed >> 32)
	}
	if gen.w == 0 {
		gen.w = 88675123
	}
}

func (gen *xorshiftGenerator) Next() float64 {
	t := gen.x ^ (gen.x << 11)
	gen.x, gen.y, gen.z = gen.y, gen.z, gen.w
	gen.w = gen.w ^ (gen.w >> 19) ^ (t ^ (t >> 8))
	res := float64(math.MaxUint32-gen.w) / xorshiftMaxUint
	if res == 1.0 {
		return gen.Next()
	}
	return res
}

func (gen *xorshiftGenerator) NextSequence(target []float64) {
	for i := 0; i < len(target); i++ {
		target[i] = gen.Next()
	}
}

// golangGenerator wraps the standard library generator.
type golangGenerator struct {
	r *stdrand.Rand
}

func (gen *golangGenerator) Init(seed uint64) {
	gen.r = stdrand.New(stdrand.NewSource(int64(seed)))
}

func (gen *golangGenerator) Next() float64 {
	return gen.r.Float64()
}

func (gen *golangGenerator) NextSequence(target []float64) {
	for i := range target {
		target[i] = gen.r.Float64()
	}
}
