package recommend

import "math"

// CosineSimilarity returns u·v / (|u| |v|), or 0 when either vector has zero
// magnitude or the lengths differ.
func CosineSimilarity(u []float64, v []float32) float64 {
	if len(u) != len(v) {
		return 0
	}
	var dot, normU, normV float64
	for i := range u {
		b := float64(v[i])
		dot += u[i] * b
		normU += u[i] * u[i]
		normV += b * b
	}
	if normU == 0 || normV == 0 {
		return 0
	}
	return dot / (math.Sqrt(normU) * math.Sqrt(normV))
}

func meanVector(vectors [][]float32, dim int) []float64 {
	if len(vectors) == 0 {
		return nil
	}
	mean := make([]float64, dim)
	for _, vec := range vectors {
		for i, v := range vec {
			mean[i] += float64(v)
		}
	}
	n := float64(len(vectors))
	for i := range mean {
		mean[i] /= n
	}
	return mean
}
