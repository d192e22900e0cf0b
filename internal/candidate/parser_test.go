package candidate

import (
	"math"
	"strings"
	"testing"
)

func TestParseReadClassifier(t *testing.T) {
	input := strings.Join([]string{
		"C\tread1\t562\t0.85\tEscherichia coli",
		"U\tread2\t0\t0.00\tunclassified",
		"C\tread3\t1280\t0.05\tStaphylococcus aureus",
		"C\tread4\t1351\tnot-a-number\tEnterococcus faecalis",
		"C\tread5\t28901",
		"",
		"C\tread6\t590\t\tSalmonella",
		"C\tread7\t287\t1.5\tPseudomonas aeruginosa",
		"C\tread8\t1280\t0.10\t Staphylococcus aureus \textra",
	}, "\n")

	res := ParseReadClassifier(strings.NewReader(input), 0.1)
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(res.Candidates), res.Candidates)
	}
	first := res.Candidates[0]
	if first.Source != SourceReadClassifier || first.TaxID != "562" || first.Name != "Escherichia coli" {
		t.Fatalf("unexpected first candidate: %+v", first)
	}
	if first.Likelihood != 0.85 || first.Confidence != 0.85 {
		t.Fatalf("likelihood should equal confidence, got %+v", first)
	}
	if second := res.Candidates[1]; second.Name != "Staphylococcus aureus" || second.Likelihood != 0.10 {
		t.Fatalf("threshold must be inclusive and names trimmed, got %+v", second)
	}
	if res.Rows != 8 {
		t.Fatalf("expected 8 non-blank rows, got %d", res.Rows)
	}
	if res.Malformed != 3 {
		t.Fatalf("expected 3 malformed rows, got %d", res.Malformed)
	}
	if res.Filtered() != 3 {
		t.Fatalf("expected 3 rows below threshold or unclassified, got %d", res.Filtered())
	}
}

func TestParsePairwiseAlignment(t *testing.T) {
	input := strings.Join([]string{
		"562,Escherichia coli,0.0,1450,2600,99.5",
		"1280,Staphylococcus aureus,1e-50,1400,2400,69.9",
		"1351,Enterococcus faecalis,1.0,1300,2000,80",
		"590,Salmonella enterica,abc,1300,2000,95",
		"287,Pseudomonas aeruginosa,0.1,1300",
		"9606;9605,\"Homo sapiens, partial\",0,100,50,70",
		"1423,Bacillus subtilis,-1,1300,2000,90",
	}, "\n")

	res := ParsePairwiseAlignment(strings.NewReader(input), 70)
	if len(res.Candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d: %+v", len(res.Candidates), res.Candidates)
	}

	tests := []struct {
		taxid string
		name  string
		want  float64
	}{
		{"562", "Escherichia coli", 0.995},
		{"1351", "Enterococcus faecalis", 0.4},
		{"9606;9605", "Homo sapiens, partial", 0.7},
	}
	for i, tt := range tests {
		got := res.Candidates[i]
		if got.TaxID != tt.taxid || got.Name != tt.name {
			t.Errorf("candidate %d: got %s/%s want %s/%s", i, got.TaxID, got.Name, tt.taxid, tt.name)
		}
		if math.Abs(got.Likelihood-tt.want) > 1e-12 {
			t.Errorf("candidate %d likelihood = %v, want %v", i, got.Likelihood, tt.want)
		}
		if got.Source != SourcePairwiseAlignment {
			t.Errorf("candidate %d source = %s", i, got.Source)
		}
	}
	if res.Candidates[0].AlignmentLength != 1450 || res.Candidates[0].Score != 2600 || res.Candidates[0].Identity != 99.5 {
		t.Fatalf("metrics not carried: %+v", res.Candidates[0].Metrics)
	}
	if res.Malformed != 3 {
		t.Fatalf("expected 3 malformed rows, got %d", res.Malformed)
	}
}

func TestParseGenomeSimilarity(t *testing.T) {
	input := strings.Join([]string{
		"/refs/GCF_000005845.2_ASM584v2_genomic.fna\tquery.fa\t96\t90\t100",
		"/refs/low.fna\tquery.fa\t79.9\t90\t100",
		"/refs/zero.fna\tquery.fa\t95\t10\t0",
		"/refs/over.fna\tquery.fa\t95\t120\t100",
		"/refs/bad.fna\tquery.fa\tx\t1\t2",
		"refs/plain\tquery.fa\t80\t1\t2",
	}, "\n")

	res := ParseGenomeSimilarity(strings.NewReader(input), 80)
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(res.Candidates), res.Candidates)
	}
	first := res.Candidates[0]
	if first.Reference != "GCF_000005845.2_ASM584v2_genomic" || first.Name != first.Reference || first.TaxID != "" {
		t.Fatalf("unexpected reference naming: %+v", first)
	}
	if first.Likelihood != 0.864 {
		t.Fatalf("likelihood = %v, want exactly 0.864", first.Likelihood)
	}
	if first.Coverage != 90 || first.Similarity != 96 || first.FragmentsAligned != 90 || first.TotalFragments != 100 {
		t.Fatalf("unexpected metrics: %+v", first.Metrics)
	}
	if second := res.Candidates[1]; second.Reference != "plain" || second.Likelihood != 0.4 {
		t.Fatalf("unexpected second candidate: %+v", second)
	}
	if res.Malformed != 3 {
		t.Fatalf("expected 3 malformed rows, got %d", res.Malformed)
	}
}

func TestParsersBindThresholds(t *testing.T) {
	parsers := Parsers(Thresholds{MinConfidence: 0.9, MinPercentIdentity: 99, MinPercentSimilarity: 99})
	if len(parsers) != len(Sources) {
		t.Fatalf("expected a parser per source, got %d", len(parsers))
	}
	kraken := parsers[SourceReadClassifier](strings.NewReader("C\tr\t562\t0.85\tEscherichia coli\n"))
	if len(kraken.Candidates) != 0 {
		t.Fatalf("read-classifier threshold not applied: %+v", kraken.Candidates)
	}
	blast := parsers[SourcePairwiseAlignment](strings.NewReader("562,Escherichia coli,0,1,1,99.5\n"))
	if len(blast.Candidates) != 1 {
		t.Fatalf("pairwise threshold misapplied: %+v", blast.Candidates)
	}
	ani := parsers[SourceGenomeSimilarity](strings.NewReader("a.fna\tq\t98\t1\t1\n"))
	if len(ani.Candidates) != 0 {
		t.Fatalf("genome threshold not applied: %+v", ani.Candidates)
	}
}

func TestLikelihoodsStayWithinUnitInterval(t *testing.T) {
	cases := []struct {
		name string
		got  float64
	}{
		{"perfect pairwise", PairwiseScore(100, 0)},
		{"large evalue", PairwiseScore(100, 1e6)},
		{"full genome", GenomeScore(100, 10, 10)},
		{"empty genome", GenomeScore(100, 0, 10)},
	}
	for _, tc := range cases {
		if tc.got < 0 || tc.got > 1 {
			t.Errorf("%s: likelihood %v outside [0,1]", tc.name, tc.got)
		}
	}
}

func TestCandidateKeyPrecedence(t *testing.T) {
	tests := []struct {
		name string
		c    Candidate
		want string
	}{
		{"taxid wins", Candidate{TaxID: "562", Reference: "ref", Name: "E. coli"}, "562"},
		{"reference next", Candidate{Reference: "ref", Name: "E. coli"}, "ref"},
		{"name last", Candidate{Name: "E. coli"}, "E. coli"},
		{"no key", Candidate{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Key(); got != tt.want {
				t.Fatalf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeNameComposesUnicode(t *testing.T) {
	decomposed := "Escherichia cole\u0301"
	composed := "Escherichia col\u00e9"
	if normalizeName(" "+decomposed+" ") != composed {
		t.Fatalf("expected NFC-normalized name")
	}
}
