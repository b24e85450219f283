package demo

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strconv"
)

const (
	embeddingDims     = 384
	embeddingModel    = "all-MiniLM-L6-v2"
	embeddingArch     = "BERT-based transformer"
	maxSequenceLength = 256
	sampleSize        = 10
)

// mockEmbedding derives a stable pseudo-embedding from text. Each token nudges
// every dimension by a hash-derived amount.
func mockEmbedding(text string, tokens []string) []float64 {
	rng := rand.New(rand.NewSource(int64(hash64(text))))
	vec := make([]float64, embeddingDims)
	for i := range vec {
		val := rng.NormFloat64() * 0.3
		for _, token := range tokens {
			influence := float64(hash64(token+strconv.Itoa(i))%100) / 1000
			if rng.Intn(2) == 0 {
				influence = -influence
			}
			val += influence
		}
		vec[i] = round(math.Max(-1, math.Min(1, val)), 6)
	}
	return vec
}

func hash64(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func magnitude(vec []float64) float64 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float64) float64 {
	denom := magnitude(a) * magnitude(b)
	if denom == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += a[i] * b[i]
	}
	return dot / denom
}

type vectorStats struct {
	min, max, mean, stdDev float64
	nearZeroPct            float64
}

func describeVector(vec []float64) vectorStats {
	if len(vec) == 0 {
		return vectorStats{}
	}
	stats := vectorStats{min: vec[0], max: vec[0]}
	var sum float64
	nearZero := 0
	for _, v := range vec {
		stats.min = math.Min(stats.min, v)
		stats.max = math.Max(stats.max, v)
		sum += v
		if math.Abs(v) < 0.01 {
			nearZero++
		}
	}
	n := float64(len(vec))
	stats.mean = sum / n
	var variance float64
	for _, v := range vec {
		variance += (v - stats.mean) * (v - stats.mean)
	}
	stats.stdDev = math.Sqrt(variance / n)
	stats.nearZeroPct = float64(nearZero) / n * 100
	return stats
}
