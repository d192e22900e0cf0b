package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taxem/internal/history"
	"taxem/internal/testsupport"
)

func writeKrakenFixture(t *testing.T, dir string) string {
	t.Helper()
	return testsupport.WriteLines(t, filepath.Join(dir, "inputs", "kraken.tsv"),
		"C\tr1\t562\t0.95\tEscherichia coli",
		"C\tr2\t1280\t0.40\tStaphylococcus aureus",
		"U\tr3\t0\t0.00\tunclassified",
	)
}

func TestClassifyWritesAllReports(t *testing.T) {
	env := setupCLITestEnv(t)
	kraken := writeKrakenFixture(t, env.baseDir)
	prefix := filepath.Join(env.baseDir, "out", "barcode01_7")

	out, _, err := runCLI(t, env.configPath, "classify",
		"--sample-id", "barcode01",
		"--cluster-id", "7",
		"--kraken2", kraken,
		"--blast", filepath.Join(env.baseDir, "inputs", "missing.csv"),
		"--output-prefix", prefix,
	)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	requireContains(t, out, "Best match: Escherichia coli")
	requireContains(t, out, "(high)")
	requireContains(t, out, "Potentially novel: no")

	csvData := readFile(t, prefix+"_classification.csv")
	lines := strings.Split(strings.TrimSpace(csvData), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", csvData)
	}
	if want := "barcode01,7,EM_probabilistic,Escherichia coli,1.0000,high,false,562,kraken2"; lines[1] != want {
		t.Fatalf("csv row = %q, want %q", lines[1], want)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(readFile(t, prefix+"_classification.json")), &doc); err != nil {
		t.Fatalf("decode json report: %v", err)
	}
	if doc["num_candidates"] != float64(2) {
		t.Fatalf("num_candidates = %v", doc["num_candidates"])
	}

	requireContains(t, readFile(t, prefix+"_combined.txt"), "BEST CLASSIFICATION")

	if _, err := os.Stat(env.cfg.History.Path); !os.IsNotExist(err) {
		t.Fatalf("history should not be created without --record, stat err=%v", err)
	}
}

func TestClassifyWithoutEvidenceSucceeds(t *testing.T) {
	env := setupCLITestEnv(t)
	prefix := filepath.Join(env.baseDir, "empty")

	out, _, err := runCLI(t, env.configPath, "classify",
		"--sample-id", "barcode02",
		"--cluster-id", "0",
		"--output-prefix", prefix,
	)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	requireContains(t, out, "Best match: Unclassified")
	requireContains(t, out, "(unknown)")
	requireContains(t, readFile(t, prefix+"_classification.csv"), "barcode02,0,EM_probabilistic,Unclassified,0.0000,unknown,true,,")
}

func TestClassifyFlagOverridesConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	kraken := testsupport.WriteLines(t, filepath.Join(env.baseDir, "kraken.tsv"),
		"C\tr1\t1\t0.9\tTaxon one",
		"C\tr2\t2\t0.85\tTaxon two",
	)
	prefix := filepath.Join(env.baseDir, "capped")

	out, _, err := runCLI(t, env.configPath, "classify",
		"--sample-id", "s",
		"--cluster-id", "1",
		"--kraken2", kraken,
		"--max-em-iterations", "3",
		"--output-prefix", prefix,
	)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	requireContains(t, out, "EM iterations: 3 (converged: no)")
}

func TestClassifyRejectsInvalidInvocations(t *testing.T) {
	env := setupCLITestEnv(t)
	prefix := filepath.Join(env.baseDir, "out")

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing prefix", args: []string{"classify", "--sample-id", "s", "--cluster-id", "1"}},
		{name: "missing sample", args: []string{"classify", "--cluster-id", "1", "--output-prefix", prefix}},
		{name: "bad novelty", args: []string{"classify", "--sample-id", "s", "--cluster-id", "1", "--output-prefix", prefix, "--novelty-threshold", "2"}},
		{name: "bad iterations", args: []string{"classify", "--sample-id", "s", "--cluster-id", "1", "--output-prefix", prefix, "--max-em-iterations", "0"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := runCLI(t, env.configPath, tc.args...); err == nil {
				t.Fatalf("expected error for %v", tc.args)
			}
		})
	}
	if _, err := os.Stat(prefix + "_classification.csv"); !os.IsNotExist(err) {
		t.Fatalf("no report should be written on invalid invocations, stat err=%v", err)
	}
}

func TestClassifyRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	kraken := writeKrakenFixture(t, env.baseDir)
	prefix := filepath.Join(env.baseDir, "out", "barcode01_7")

	if _, _, err := runCLI(t, env.configPath, "classify",
		"--sample-id", "barcode01",
		"--cluster-id", "7",
		"--kraken2", kraken,
		"--output-prefix", prefix,
		"--record",
	); err != nil {
		t.Fatalf("classify: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "history", "list", "--json")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	var runs []history.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode runs: %v (%q)", err, out)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(runs))
	}
	run := runs[0]
	if run.SampleID != "barcode01" || run.Classification != "Escherichia coli" || run.OutputPrefix != prefix {
		t.Fatalf("unexpected run: %+v", run)
	}

	out, _, err = runCLI(t, env.configPath, "history", "show", run.ID)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, run.ID)
	requireContains(t, out, "Staphylococcus aureus")

	out, _, err = runCLI(t, env.configPath, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "Classification")
	requireContains(t, out, "barcode01")
}

func TestClassifyRecordsWhenConfigEnablesHistory(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHistory())
	prefix := filepath.Join(env.baseDir, "unclassified")

	if _, _, err := runCLI(t, env.configPath, "classify",
		"--sample-id", "s", "--cluster-id", "3", "--output-prefix", prefix,
	); err != nil {
		t.Fatalf("classify: %v", err)
	}
	out, _, err := runCLI(t, env.configPath, "history", "list", "--sample", "s")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "Unclassified")
}

func TestClassifyWritesReportsWhenHistoryDirectoryUnusable(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHistory())
	blocker := testsupport.WriteLines(t, filepath.Join(env.baseDir, "blocker"), "not a directory")
	env.cfg.History.Path = filepath.Join(blocker, "sub", "history.db")
	writeTestConfig(t, env.configPath, env.cfg)
	kraken := writeKrakenFixture(t, env.baseDir)
	prefix := filepath.Join(env.baseDir, "out", "barcode01_7")

	out, _, err := runCLI(t, env.configPath, "classify",
		"--sample-id", "barcode01",
		"--cluster-id", "7",
		"--kraken2", kraken,
		"--output-prefix", prefix,
	)
	if err != nil {
		t.Fatalf("classify should succeed without history: %v", err)
	}
	requireContains(t, out, "Best match: Escherichia coli")
	for _, suffix := range []string{"_classification.csv", "_classification.json", "_combined.txt"} {
		if _, err := os.Stat(prefix + suffix); err != nil {
			t.Fatalf("expected %s to be written: %v", suffix, err)
		}
	}
}

func TestClassifyCopiesLogsToConfiguredFile(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := filepath.Join(env.baseDir, "logs", "taxem.log")
	content := "[history]\npath = \"" + env.cfg.History.Path + "\"\n\n[logging]\nlevel = \"info\"\nformat = \"json\"\nfile = \"" + logPath + "\"\n"
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, stderr, err := runCLI(t, env.configPath, "classify",
		"--sample-id", "s", "--cluster-id", "1",
		"--output-prefix", filepath.Join(env.baseDir, "logged"),
	)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	logged := readFile(t, logPath)
	requireContains(t, logged, `"msg":"classification decision"`)
	requireContains(t, stderr, `"msg":"classification decision"`)
}

func TestClassifyFallsBackToStderrWhenLogFileUnusable(t *testing.T) {
	env := setupCLITestEnv(t)
	blocker := testsupport.WriteLines(t, filepath.Join(env.baseDir, "blocker"), "x")
	content := "[history]\npath = \"" + env.cfg.History.Path + "\"\n\n[logging]\nlevel = \"warn\"\nfile = \"" + filepath.Join(blocker, "taxem.log") + "\"\n"
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	prefix := filepath.Join(env.baseDir, "fallback")

	_, stderr, err := runCLI(t, env.configPath, "classify",
		"--sample-id", "s", "--cluster-id", "1", "--output-prefix", prefix,
	)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	requireContains(t, stderr, "log file unavailable")
	if _, err := os.Stat(prefix + "_classification.csv"); err != nil {
		t.Fatalf("expected csv output: %v", err)
	}
}
