package force

// Linear congruential generator parameters (Numerical Recipes)
const (
	lcgA = 1664525
	lcgC = 1013904223
	lcgM = 4294967296
)

// lcg returns a deterministic source of floats in [0, 1)
func lcg(seed uint64) func() float64 {
	s := seed % lcgM
	return func() float64 {
		s = (lcgA*s + lcgC) % lcgM
		return float64(s) / lcgM
	}
}

// jiggle returns a tiny random offset used to separate coincident nodes
func jiggle(random func() float64) float64 {
	return (random() - 0.5) * 1e-6
}
