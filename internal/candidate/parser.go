package candidate

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// maxLineBytes bounds a single input line; read-classifier rows can carry long
// k-mer mapping columns.
const maxLineBytes = 4 << 20

// ParseResult reports the candidates a parser kept along with row accounting.
type ParseResult struct {
	Candidates []Candidate
	// Rows counts every non-blank row seen.
	Rows int
	// Malformed counts rows skipped because they could not be interpreted.
	Malformed int
	// ReadErr is set when the stream ended early; rows parsed before the
	// failure are still returned.
	ReadErr error
}

// Filtered returns the number of well-formed rows rejected by the threshold.
func (r ParseResult) Filtered() int {
	return r.Rows - r.Malformed - len(r.Candidates)
}

// Parser converts one source's raw output into candidates.
type Parser func(r io.Reader) ParseResult

// Thresholds are the per-source inclusion floors.
type Thresholds struct {
	MinConfidence        float64
	MinPercentIdentity   float64
	MinPercentSimilarity float64
}

// Parsers returns the closed source-to-parser dispatch table, each parser
// bound to its own threshold.
func Parsers(th Thresholds) map[Source]Parser {
	return map[Source]Parser{
		SourceReadClassifier: func(r io.Reader) ParseResult {
			return ParseReadClassifier(r, th.MinConfidence)
		},
		SourcePairwiseAlignment: func(r io.Reader) ParseResult {
			return ParsePairwiseAlignment(r, th.MinPercentIdentity)
		},
		SourceGenomeSimilarity: func(r io.Reader) ParseResult {
			return ParseGenomeSimilarity(r, th.MinPercentSimilarity)
		},
	}
}

// ParseReadClassifier reads tab-separated per-read calls:
// status flag, read id, taxon id, confidence, taxon name, ...
// Only rows flagged "C" with confidence >= minConfidence are kept; the
// confidence is the likelihood.
func ParseReadClassifier(r io.Reader, minConfidence float64) ParseResult {
	var res ParseResult
	res.ReadErr = scanLines(r, func(line string) {
		res.Rows++
		parts := strings.Split(line, "\t")
		if len(parts) < 5 {
			res.Malformed++
			return
		}
		confidence := 0.0
		if raw := strings.TrimSpace(parts[3]); raw != "" {
			value, ok := parseUnit(raw, 0, 1)
			if !ok {
				res.Malformed++
				return
			}
			confidence = value
		}
		if strings.TrimSpace(parts[0]) != "C" || confidence < minConfidence {
			return
		}
		res.Candidates = append(res.Candidates, Candidate{
			Source:     SourceReadClassifier,
			TaxID:      strings.TrimSpace(parts[2]),
			Name:       normalizeName(parts[4]),
			Likelihood: confidence,
			Metrics:    Metrics{Confidence: confidence},
		})
	})
	return res
}

// ParsePairwiseAlignment reads comma-separated hits:
// taxon id, name, e-value, alignment length, score, percent identity.
// Rows with identity >= minIdentity are kept.
func ParsePairwiseAlignment(r io.Reader, minIdentity float64) ParseResult {
	var res ParseResult

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				res.Rows++
				res.Malformed++
				continue
			}
			res.ReadErr = err
			break
		}
		if isBlankRecord(row) {
			continue
		}
		res.Rows++
		if len(row) < 6 {
			res.Malformed++
			continue
		}
		evalue, okE := parseFloat(row[2])
		length, errL := strconv.Atoi(strings.TrimSpace(row[3]))
		score, okS := parseFloat(row[4])
		identity, okI := parseUnit(row[5], 0, 100)
		if !okE || errL != nil || !okS || !okI || evalue < 0 {
			res.Malformed++
			continue
		}
		if identity < minIdentity {
			continue
		}
		res.Candidates = append(res.Candidates, Candidate{
			Source:     SourcePairwiseAlignment,
			TaxID:      strings.TrimSpace(row[0]),
			Name:       normalizeName(row[1]),
			Likelihood: PairwiseScore(identity, evalue),
			Metrics: Metrics{
				EValue:          evalue,
				AlignmentLength: length,
				Score:           score,
				Identity:        identity,
			},
		})
	}
	return res
}

// ParseGenomeSimilarity reads tab-separated hits:
// reference path, query path, percent similarity, fragments aligned, total fragments.
// The reference name is the reference file stem. Rows with similarity >=
// minSimilarity are kept.
func ParseGenomeSimilarity(r io.Reader, minSimilarity float64) ParseResult {
	var res ParseResult
	res.ReadErr = scanLines(r, func(line string) {
		res.Rows++
		parts := strings.Split(line, "\t")
		if len(parts) < 5 {
			res.Malformed++
			return
		}
		reference := referenceStem(parts[0])
		similarity, okS := parseUnit(parts[2], 0, 100)
		aligned, errA := strconv.Atoi(strings.TrimSpace(parts[3]))
		total, errT := strconv.Atoi(strings.TrimSpace(parts[4]))
		if reference == "" || !okS || errA != nil || errT != nil || total <= 0 || aligned < 0 || aligned > total {
			res.Malformed++
			return
		}
		if similarity < minSimilarity {
			return
		}
		res.Candidates = append(res.Candidates, Candidate{
			Source:     SourceGenomeSimilarity,
			Reference:  reference,
			Name:       reference,
			Likelihood: GenomeScore(similarity, aligned, total),
			Metrics: Metrics{
				Similarity:       similarity,
				FragmentsAligned: aligned,
				TotalFragments:   total,
				Coverage:         float64(aligned) / float64(total) * 100,
			},
		})
	})
	return res
}

func scanLines(r io.Reader, fn func(line string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fn(line)
	}
	return scanner.Err()
}

func parseFloat(raw string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

func parseUnit(raw string, lo, hi float64) (float64, bool) {
	value, ok := parseFloat(raw)
	if !ok || value < lo || value > hi {
		return 0, false
	}
	return value, true
}

func referenceStem(path string) string {
	base := filepath.Base(strings.TrimSpace(path))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return normalizeName(stem)
}

func isBlankRecord(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
