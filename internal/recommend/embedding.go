package recommend

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyVector   = errors.New("embedding has zero dimensions")
	ErrDimMismatch   = errors.New("embedding dimension mismatch")
	ErrDuplicateItem = errors.New("duplicate article id in embedding table")
	ErrLenMismatch   = errors.New("ids and vectors length mismatch")
	ErrNonFinite     = errors.New("embedding component is NaN or Inf")
)

// EmbeddingTable holds one vector per article. Iteration order is load order and
// it is never mutated after NewEmbeddingTable returns.
type EmbeddingTable struct {
	ids     []int64
	vectors [][]float32
	pos     map[int64]int
	dim     int
}

func NewEmbeddingTable(ids []int64, vectors [][]float32) (*EmbeddingTable, error) {
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("%w: %d ids, %d vectors", ErrLenMismatch, len(ids), len(vectors))
	}
	t := &EmbeddingTable{
		ids:     make([]int64, len(ids)),
		vectors: make([][]float32, len(vectors)),
		pos:     make(map[int64]int, len(ids)),
	}
	for i, id := range ids {
		vec := vectors[i]
		if i == 0 {
			t.dim = len(vec)
			if t.dim == 0 {
				return nil, fmt.Errorf("article %d: %w", id, ErrEmptyVector)
			}
		}
		if len(vec) != t.dim {
			return nil, fmt.Errorf("article %d: %w: got %d, want %d", id, ErrDimMismatch, len(vec), t.dim)
		}
		if _, ok := t.pos[id]; ok {
			return nil, fmt.Errorf("article %d: %w", id, ErrDuplicateItem)
		}
		clone := make([]float32, len(vec))
		for j, v := range vec {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return nil, fmt.Errorf("article %d component %d: %w", id, j, ErrNonFinite)
			}
			clone[j] = v
		}
		t.ids[i] = id
		t.vectors[i] = clone
		t.pos[id] = i
	}
	return t, nil
}

func (t *EmbeddingTable) Dim() int {
	return t.dim
}

func (t *EmbeddingTable) Len() int {
	return len(t.ids)
}

func (t *EmbeddingTable) Contains(id int64) bool {
	_, ok := t.pos[id]
	return ok
}

// Vector returns the stored vector. Callers must not modify it.
func (t *EmbeddingTable) Vector(id int64) ([]float32, bool) {
	i, ok := t.pos[id]
	if !ok {
		return nil, false
	}
	return t.vectors[i], true
}

func (t *EmbeddingTable) IDs() []int64 {
	out := make([]int64, len(t.ids))
	copy(out, t.ids)
	return out
}
