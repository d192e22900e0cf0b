package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"taxem/internal/classify"
	"taxem/internal/decide"
)

// Run is one recorded classify invocation.
type Run struct {
	ID              string      `json:"id"`
	SampleID        string      `json:"sample_id"`
	ClusterID       string      `json:"cluster_id"`
	CreatedAt       time.Time   `json:"created_at"`
	OutputPrefix    string      `json:"output_prefix,omitempty"`
	Method          string      `json:"method"`
	Classification  string      `json:"classification"`
	TaxID           string      `json:"taxid,omitempty"`
	Reference       string      `json:"reference,omitempty"`
	Confidence      float64     `json:"confidence"`
	ConfidenceLevel decide.Tier `json:"confidence_level"`
	IsNovel         bool        `json:"is_novel"`
	Sources         string      `json:"sources,omitempty"`
	NumSources      int         `json:"num_sources"`
	Iterations      int         `json:"iterations"`
	Converged       bool        `json:"converged"`
	MaxChange       float64     `json:"max_change"`
	NumCandidates   int         `json:"num_candidates"`
	Candidates      []Candidate `json:"candidates,omitempty"`
}

// Candidate is one ranked taxon stored with a run.
type Candidate struct {
	Position         int     `json:"position"`
	Key              string  `json:"key"`
	Name             string  `json:"name"`
	TaxID            string  `json:"taxid,omitempty"`
	Reference        string  `json:"reference,omitempty"`
	Sources          string  `json:"sources"`
	MergedLikelihood float64 `json:"merged_likelihood"`
	Posterior        float64 `json:"posterior"`
}

// Filter narrows List results.
type Filter struct {
	SampleID string
	// Limit caps the number of runs returned; zero or negative means no cap.
	Limit int
}

// timestampLayout keeps a fixed width so created_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = "id, sample_id, cluster_id, created_at, output_prefix, method, classification, taxid, reference, confidence, confidence_level, is_novel, sources, num_sources, iterations, converged, max_change, num_candidates"

// Record stores out and its candidates in one transaction.
func (s *Store) Record(ctx context.Context, out classify.Outcome, outputPrefix string) (*Run, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(out.RunID) == "" {
		return nil, errors.New("run id is required")
	}
	run := runFromOutcome(out, outputPrefix, time.Now().UTC())

	err := s.withLock(ctx, func() error {
		return retryOnBusy(ctx, func() error { return s.insert(ctx, run) })
	})
	if err != nil {
		return nil, fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return run, nil
}

func (s *Store) insert(ctx context.Context, run *Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.SampleID,
		run.ClusterID,
		run.CreatedAt.UTC().Format(timestampLayout),
		nullableString(run.OutputPrefix),
		run.Method,
		run.Classification,
		nullableString(run.TaxID),
		nullableString(run.Reference),
		run.Confidence,
		string(run.ConfidenceLevel),
		boolToInt(run.IsNovel),
		nullableString(run.Sources),
		run.NumSources,
		run.Iterations,
		boolToInt(run.Converged),
		run.MaxChange,
		run.NumCandidates,
	)
	if err != nil {
		return err
	}

	for _, c := range run.Candidates {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_candidates (
                run_id, position, taxon_key, name, taxid, reference, sources, merged_likelihood, posterior
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			c.Position,
			c.Key,
			c.Name,
			nullableString(c.TaxID),
			nullableString(c.Reference),
			c.Sources,
			c.MergedLikelihood,
			c.Posterior,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// List returns recorded runs, newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if sample := strings.TrimSpace(filter.SampleID); sample != "" {
		query += ` WHERE sample_id = ?`
		args = append(args, sample)
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Get fetches one run with its candidates. A missing run yields ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, strings.TrimSpace(id))
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT position, taxon_key, name, taxid, reference, sources, merged_likelihood, posterior
         FROM run_candidates WHERE run_id = ? ORDER BY position`,
		run.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("get run candidates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c         Candidate
			taxID     sql.NullString
			reference sql.NullString
		)
		if err := rows.Scan(&c.Position, &c.Key, &c.Name, &taxID, &reference, &c.Sources, &c.MergedLikelihood, &c.Posterior); err != nil {
			return nil, fmt.Errorf("scan run candidate: %w", err)
		}
		c.TaxID = taxID.String
		c.Reference = reference.String
		run.Candidates = append(run.Candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run candidates: %w", err)
	}
	return run, nil
}

func runFromOutcome(out classify.Outcome, outputPrefix string, now time.Time) *Run {
	c := out.Classification
	run := &Run{
		ID:              out.RunID,
		SampleID:        out.SampleID,
		ClusterID:       out.ClusterID,
		CreatedAt:       now,
		OutputPrefix:    outputPrefix,
		Method:          c.Method,
		Classification:  c.Name,
		TaxID:           c.TaxID,
		Reference:       c.Reference,
		Confidence:      c.Confidence,
		ConfidenceLevel: c.Tier,
		IsNovel:         c.IsNovel,
		Sources:         c.Sources,
		NumSources:      c.NumSources,
		Iterations:      out.EM.Iterations,
		Converged:       out.EM.Converged,
		MaxChange:       out.EM.MaxChange,
		NumCandidates:   len(out.Candidates),
	}
	for i, cand := range out.Candidates {
		rep := cand.Representative
		run.Candidates = append(run.Candidates, Candidate{
			Position:         i,
			Key:              cand.Key,
			Name:             rep.Name,
			TaxID:            rep.TaxID,
			Reference:        rep.Reference,
			Sources:          cand.SourceList(),
			MergedLikelihood: cand.MergedLikelihood,
			Posterior:        out.Posterior(i),
		})
	}
	return run
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run          Run
		createdRaw   string
		outputPrefix sql.NullString
		taxID        sql.NullString
		reference    sql.NullString
		tier         string
		isNovel      int
		sources      sql.NullString
		converged    int
	)
	if err := scanner.Scan(
		&run.ID,
		&run.SampleID,
		&run.ClusterID,
		&createdRaw,
		&outputPrefix,
		&run.Method,
		&run.Classification,
		&taxID,
		&reference,
		&run.Confidence,
		&tier,
		&isNovel,
		&sources,
		&run.NumSources,
		&run.Iterations,
		&converged,
		&run.MaxChange,
		&run.NumCandidates,
	); err != nil {
		return nil, err
	}
	created, err := time.Parse(timestampLayout, createdRaw)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	run.CreatedAt = created
	run.OutputPrefix = outputPrefix.String
	run.TaxID = taxID.String
	run.Reference = reference.String
	run.ConfidenceLevel = decide.Tier(tier)
	run.IsNovel = isNovel != 0
	run.Sources = sources.String
	run.Converged = converged != 0
	return &run, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
