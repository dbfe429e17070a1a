package capability

import (
	"context"
	"fmt"
	"math"

	"CredibilityScanner/internal/domain"
	"CredibilityScanner/internal/ports"
)

const (
	verifiedThreshold = 0.75
	relatedThreshold  = 0.5
)

// SemanticVerifier scores claims against a reference corpus by nearest
// neighbour cosine similarity over sentence embeddings.
type SemanticVerifier struct {
	embedder ports.Embedder
}

// NewSemanticVerifier wraps an embedding model.
func NewSemanticVerifier(embedder ports.Embedder) *SemanticVerifier {
	return &SemanticVerifier{embedder: embedder}
}

// VerifyClaims returns one verification per claim, in claim order. Empty
// claims or an empty corpus yield an empty list and no error.
func (v *SemanticVerifier) VerifyClaims(ctx context.Context, claims, corpus []string) ([]domain.ClaimVerification, error) {
	if len(claims) == 0 || len(corpus) == 0 {
		return []domain.ClaimVerification{}, nil
	}
	if v == nil || v.embedder == nil {
		return nil, fail("embedder", ReasonUnavailable, ErrNotConfigured)
	}

	inputs := make([]string, 0, len(claims)+len(corpus))
	inputs = append(inputs, claims...)
	inputs = append(inputs, corpus...)

	vectors, err := v.embedder.Embed(ctx, inputs)
	if err != nil {
		return nil, invocation("embedder", err)
	}
	if len(vectors) != len(inputs) {
		return nil, fail("embedder", ReasonRuntime,
			fmt.Errorf("expected %d embeddings, got %d", len(inputs), len(vectors)))
	}

	claimVecs, refVecs := vectors[:len(claims)], vectors[len(claims):]
	results := make([]domain.ClaimVerification, 0, len(claims))
	for i, claim := range claims {
		best, bestScore := 0, math.Inf(-1)
		for j, ref := range refVecs {
			score := CosineSimilarity(claimVecs[i], ref)
			if score > bestScore {
				best, bestScore = j, score
			}
		}
		results = append(results, domain.ClaimVerification{
			Claim:            claim,
			MatchedReference: corpus[best],
			Similarity:       bestScore,
			Status:           ClaimStatusFor(bestScore),
		})
	}
	return results, nil
}

// ClaimStatusFor buckets a similarity score.
func ClaimStatusFor(similarity float64) domain.ClaimStatus {
	switch {
	case similarity > verifiedThreshold:
		return domain.ClaimVerified
	case similarity > relatedThreshold:
		return domain.ClaimRelated
	default:
		return domain.ClaimUnverified
	}
}

// CosineSimilarity returns 0 for mismatched or zero-length vectors and for
// vectors holding non-finite components.
func CosineSimilarity(a, b []float32) float64 {
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
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0
	}
	return sim
}
