package aggregate

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"taxem/internal/logging"
)

func writeReport(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunAggregatesInSortedOrder(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeReport(t, dir, "b.json", `{"meta":{"id":"s","cluster_id":"2"}}`),
		writeReport(t, dir, "a.json", `{"meta":{"id":"s","cluster_id":"1"}}`),
		writeReport(t, dir, "c.json", `{"meta":`),
		writeReport(t, dir, "d.json", `[1,2]`),
		filepath.Join(dir, "missing.json"),
	}
	output := filepath.Join(dir, "aggregated.json")

	res, err := Run(context.Background(), paths, output, logging.NewNop())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(res.Reports))
	}
	if len(res.Skipped) != 3 {
		t.Fatalf("expected 3 skipped, got %v", res.Skipped)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var decoded []struct {
		Meta struct {
			ClusterID string `json:"cluster_id"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(decoded) != 2 || decoded[0].Meta.ClusterID != "1" || decoded[1].Meta.ClusterID != "2" {
		t.Fatalf("unexpected aggregate order: %+v", decoded)
	}
}

func TestWriteEmptyArray(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := buf.String(); got != "[]\n" {
		t.Fatalf("expected empty array, got %q", got)
	}
}

func TestLoadHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	path := writeReport(t, dir, "a.json", `{}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, []string{path}, logging.NewNop()); err == nil {
		t.Fatal("expected cancellation error")
	}
}
