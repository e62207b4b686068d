package collab

import "math"

// Biome is the coarse terrain classification the sampler emits.
type Biome string

const (
	BiomeOcean    Biome = "ocean"
	BiomeBeach    Biome = "beach"
	BiomePlains   Biome = "plains"
	BiomeForest   Biome = "forest"
	BiomeMountain Biome = "mountain"
)

// SampleBiome deterministically classifies a hex tile from its
// coordinates and a world seed, standing in for the full noise-based
// terrain generator — deterministic so the same seed always reproduces
// the same world without persisting every tile's biome explicitly.
func SampleBiome(seed int64, tile HexCoord) Biome {
	elevation := fractalNoise(seed, float64(tile.Q), float64(tile.R))
	switch {
	case elevation < 0.25:
		return BiomeOcean
	case elevation < 0.32:
		return BiomeBeach
	case elevation < 0.6:
		return BiomePlains
	case elevation < 0.8:
		return BiomeForest
	default:
		return BiomeMountain
	}
}

// fractalNoise combines a few octaves of a hashed-coordinate pseudo-noise
// into a smoother, more terrain-like signal in [0, 1).
func fractalNoise(seed int64, x, y float64) float64 {
	var total, amplitude, frequency, max float64
	amplitude = 1
	frequency = 0.08
	for octave := 0; octave < 4; octave++ {
		total += amplitude * hashNoise(seed, x*frequency, y*frequency)
		max += amplitude
		amplitude *= 0.5
		frequency *= 2
	}
	return total / max
}

// hashNoise returns a pseudo-random value in [0, 1) for a coordinate,
// smoothly interpolated between lattice points.
func hashNoise(seed int64, x, y float64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0

	v00 := latticeValue(seed, int64(x0), int64(y0))
	v10 := latticeValue(seed, int64(x0)+1, int64(y0))
	v01 := latticeValue(seed, int64(x0), int64(y0)+1)
	v11 := latticeValue(seed, int64(x0)+1, int64(y0)+1)

	top := lerp(v00, v10, smoothstep(fx))
	bottom := lerp(v01, v11, smoothstep(fx))
	return lerp(top, bottom, smoothstep(fy))
}

func latticeValue(seed, x, y int64) float64 {
	h := seed*374761393 + x*668265263 + y*2147483647
	h = (h ^ (h >> 13)) * 1274126177
	h = h ^ (h >> 16)
	if h < 0 {
		h = -h
	}
	return float64(h%1000000) / 1000000
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func smoothstep(t float64) float64 { return t * t * (3 - 2*t) }
