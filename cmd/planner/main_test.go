package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testdata = "../../internal/problem/testdata"

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestPlanCommandText(t *testing.T) {
	out, _, err := execute(t, "plan", filepath.Join(testdata, "satellite-problem01.pddl"))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 6 {
		t.Fatalf("output lines = %d, want 6:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "satellite-problem01.pddl: 5 steps, 11 nodes expanded, ") {
		t.Fatalf("summary line = %q", lines[0])
	}
	if lines[1] != "(switchOn instrument0 satellite0)" {
		t.Fatalf("first step = %q", lines[1])
	}
}

func TestPlanCommandJSON(t *testing.T) {
	out, _, err := execute(t, "plan", "--json", filepath.Join(testdata, "blocks-problem01.pddl"))
	if err != nil {
		t.Fatalf("plan --json: %v", err)
	}
	var got planJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if got.Domain != "blocks" || len(got.Plan) != 6 || got.NodesExpanded != 15 || got.RunID == "" {
		t.Fatalf("plan --json = %+v", got)
	}
}

func TestPlanCommandInfeasible(t *testing.T) {
	out, _, err := execute(t, "plan", filepath.Join(testdata, "satellite-problem03-infeasible.pddl"))
	if !errors.Is(err, errNoPlan) {
		t.Fatalf("plan error = %v, want errNoPlan", err)
	}
	if !strings.Contains(out, "FAILED") {
		t.Fatalf("output = %q, want FAILED", out)
	}
}

func TestPlanCommandRejectsUnknownDomain(t *testing.T) {
	if _, _, err := execute(t, "plan", "--domain", "logistics", filepath.Join(testdata, "blocks-problem01.pddl")); err == nil {
		t.Fatalf("plan --domain logistics: want error")
	}
}

func TestPlanCommandMaxExpansions(t *testing.T) {
	out, _, err := execute(t, "plan", "--max-expansions", "2", filepath.Join(testdata, "satellite-problem01.pddl"))
	if !errors.Is(err, errNoPlan) {
		t.Fatalf("plan error = %v, want errNoPlan", err)
	}
	if !strings.Contains(out, "expansion limit") {
		t.Fatalf("output = %q, want expansion limit reason", out)
	}
}

func TestBatchAndHistoryCommands(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.txt")
	dbPath := filepath.Join(dir, "runs.db")

	_, stderr, err := execute(t, "batch", "--workers", "2", "--report", reportPath, "--db", dbPath, testdata)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if !strings.Contains(stderr, "tested 5 problems, 1 failed") {
		t.Fatalf("batch summary = %q", stderr)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 6 {
		t.Fatalf("report lines = %d, want 6:\n%s", len(lines), data)
	}
	if lines[0] != "File Name, Plan Length, CPU Time, Nodes Expanded" {
		t.Fatalf("report header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[3], "satellite-problem01.pddl,\t5,\t") || !strings.HasSuffix(lines[3], "sec,\t11") {
		t.Fatalf("report row = %q", lines[3])
	}

	out, _, err := execute(t, "history", "--db", dbPath, "--limit", "0")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "5 runs recorded, 20.0% failed") {
		t.Fatalf("history output = %q", out)
	}
	if !strings.Contains(out, "satellite-problem03-infeasible.pddl") {
		t.Fatalf("history output missing infeasible run:\n%s", out)
	}
}

func TestHistoryRequiresDatabase(t *testing.T) {
	if _, _, err := execute(t, "history"); err == nil {
		t.Fatalf("history without db: want error")
	}
}
