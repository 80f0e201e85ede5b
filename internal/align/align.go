// Package align finds, for every sentence of a source text, its most similar
// sentence in a target text and reports the sentences without an adequate match.
//
// The test is best-match per source sentence, not a one-to-one assignment: several
// source sentences may share the same target sentence as their best match.
package align

import (
	"fmt"

	"github.com/hyperjump/awase/internal/vector"
)

// Verdict is the alignment outcome for one source sentence.
type Verdict struct {
	Index         int     `json:"index"`
	Sentence      string  `json:"sentence"`
	MaxSimilarity float64 `json:"max_similarity"`
	// BestMatch is the index of the most similar target sentence, or -1 when the target is empty.
	BestMatch int  `json:"best_match"`
	Aligned   bool `json:"aligned"`
}

// Judge scores every source sentence against all target embeddings. A sentence
// is aligned when its maximum similarity is at least threshold. When the target
// is empty every source sentence is unaligned with a similarity of 0.
func Judge(source []string, sourceEmb, targetEmb [][]float32, threshold float64) ([]Verdict, error) {
	if len(source) != len(sourceEmb) {
		return nil, fmt.Errorf("%d sentences but %d embeddings", len(source), len(sourceEmb))
	}
	verdicts := make([]Verdict, len(source))
	for i, emb := range sourceEmb {
		row, err := vector.Score(emb, targetEmb)
		if err != nil {
			return nil, fmt.Errorf("sentence %d: %w", i, err)
		}
		best, at := vector.Max(row)
		verdicts[i] = Verdict{
			Index:         i,
			Sentence:      source[i],
			MaxSimilarity: best,
			BestMatch:     at,
			Aligned:       at >= 0 && best >= threshold,
		}
	}
	return verdicts, nil
}

// Diff returns the unaligned source sentences and their indices in ascending
// order. Both slices are non-nil and have equal length.
func Diff(source []string, sourceEmb, targetEmb [][]float32, threshold float64) ([]string, []int, error) {
	verdicts, err := Judge(source, sourceEmb, targetEmb, threshold)
	if err != nil {
		return nil, nil, err
	}
	sentences, indices := Unaligned(verdicts)
	return sentences, indices, nil
}

// Unaligned extracts the sentences and indices of the unaligned verdicts.
func Unaligned(verdicts []Verdict) ([]string, []int) {
	sentences := []string{}
	indices := []int{}
	for _, v := range verdicts {
		if v.Aligned {
			continue
		}
		sentences = append(sentences, v.Sentence)
		indices = append(indices, v.Index)
	}
	return sentences, indices
}
