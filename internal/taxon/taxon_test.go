package taxon

import (
	"math"
	"testing"

	"taxem/internal/candidate"
)

func TestMergeAveragesAcrossSources(t *testing.T) {
	cands := []candidate.Candidate{
		{Source: candidate.SourceReadClassifier, TaxID: "562", Name: "Escherichia coli", Likelihood: 0.8},
		{Source: candidate.SourcePairwiseAlignment, TaxID: "562", Name: "Escherichia coli", Likelihood: 0.6},
	}
	merged := Merge(cands)
	if len(merged) != 1 {
		t.Fatalf("expected 1 merged candidate, got %d", len(merged))
	}
	got := merged[0]
	if math.Abs(got.MergedLikelihood-0.7) > 1e-12 {
		t.Fatalf("merged likelihood = %v, want 0.7", got.MergedLikelihood)
	}
	if got.NumSources() != 2 {
		t.Fatalf("num sources = %d, want 2", got.NumSources())
	}
	if got.SourceList() != "kraken2,blast" {
		t.Fatalf("source list = %q", got.SourceList())
	}
	if got.Representative.Source != candidate.SourceReadClassifier || got.Representative.Likelihood != 0.8 {
		t.Fatalf("representative should be the strongest observation: %+v", got.Representative)
	}
}

func TestMergeRepeatedSourceCountsOnce(t *testing.T) {
	cands := []candidate.Candidate{
		{Source: candidate.SourceReadClassifier, TaxID: "562", Likelihood: 0.9},
		{Source: candidate.SourceReadClassifier, TaxID: "562", Likelihood: 0.3},
		{Source: candidate.SourceReadClassifier, TaxID: "562", Likelihood: 0.6},
	}
	merged := Merge(cands)
	if len(merged) != 1 {
		t.Fatalf("expected 1 merged candidate, got %d", len(merged))
	}
	if merged[0].NumSources() != 1 {
		t.Fatalf("repeated source should count once, got %d", merged[0].NumSources())
	}
	if len(merged[0].Contributions) != 3 {
		t.Fatalf("expected every observation recorded, got %d", len(merged[0].Contributions))
	}
	if math.Abs(merged[0].MergedLikelihood-0.6) > 1e-12 {
		t.Fatalf("merged likelihood = %v, want 0.6", merged[0].MergedLikelihood)
	}
}

func TestMergeKeysAndOrder(t *testing.T) {
	cands := []candidate.Candidate{
		{Source: candidate.SourceReadClassifier, TaxID: "1280", Name: "Staphylococcus aureus", Likelihood: 0.2},
		{Source: candidate.SourceReadClassifier, Name: "", Likelihood: 0.99},
		{Source: candidate.SourcePairwiseAlignment, TaxID: "562", Name: "Escherichia coli", Likelihood: 0.5},
		{Source: candidate.SourceGenomeSimilarity, Reference: "GCF_1", Name: "GCF_1", Likelihood: 0.4},
		{Source: candidate.SourceGenomeSimilarity, Reference: "GCF_1", Name: "GCF_1", Likelihood: 0.4},
		{Source: candidate.SourcePairwiseAlignment, TaxID: "1280", Name: "Staphylococcus aureus", Likelihood: 0.7},
	}
	merged := Merge(cands)

	wantKeys := []string{"1280", "562", "GCF_1"}
	if len(merged) != len(wantKeys) {
		t.Fatalf("expected %d merged candidates, got %d", len(wantKeys), len(merged))
	}
	for i, key := range wantKeys {
		if merged[i].Key != key {
			t.Fatalf("position %d key = %q, want %q", i, merged[i].Key, key)
		}
	}
	if merged[0].Representative.Source != candidate.SourcePairwiseAlignment {
		t.Fatalf("expected later stronger observation to represent, got %+v", merged[0].Representative)
	}

	tie := merged[2]
	if tie.Representative.Likelihood != 0.4 || len(tie.Contributions) != 2 {
		t.Fatalf("unexpected tie merge: %+v", tie)
	}

	likelihoods := Likelihoods(merged)
	want := []float64{0.45, 0.5, 0.4}
	for i := range want {
		if math.Abs(likelihoods[i]-want[i]) > 1e-12 {
			t.Fatalf("likelihood %d = %v, want %v", i, likelihoods[i], want[i])
		}
	}
}

func TestMergeTiesKeepEarliestRepresentative(t *testing.T) {
	first := candidate.Candidate{Source: candidate.SourcePairwiseAlignment, TaxID: "562", Name: "first", Likelihood: 0.5}
	second := candidate.Candidate{Source: candidate.SourceGenomeSimilarity, TaxID: "562", Name: "second", Likelihood: 0.5}
	merged := Merge([]candidate.Candidate{first, second})
	if merged[0].Representative.Name != "first" {
		t.Fatalf("tie should keep the earliest observation, got %q", merged[0].Representative.Name)
	}
}

func TestMergeEmpty(t *testing.T) {
	if got := Merge(nil); len(got) != 0 {
		t.Fatalf("expected no candidates, got %d", len(got))
	}
	if got := Likelihoods(nil); len(got) != 0 {
		t.Fatalf("expected no likelihoods, got %d", len(got))
	}
}
