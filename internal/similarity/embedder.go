package similarity

import (
	"context"
	"math"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
)

// Embedder turns texts into dense vectors. Implementations must be safe for
// concurrent use and deterministic for a given input.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Cosine returns the cosine similarity of a and b clamped to [0,1].
// Vectors of different length or zero norm score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	c := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(0, math.Min(1, c))
}

func defaultStopWords() []string {
	return model.DefaultTables().StopWords
}
