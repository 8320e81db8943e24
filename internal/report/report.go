// Package report renders batch planning results.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"
)

// Header is the first line of every batch report.
const Header = "File Name, Plan Length, CPU Time, Nodes Expanded"

// Failed replaces the plan length of a run that found no plan.
const Failed = "FAILED"

// Row is one problem's result.
type Row struct {
	Name          string
	PlanLength    int
	Failed        bool
	Duration      time.Duration
	NodesExpanded int
}

// Write renders rows as a batch report.
func Write(w io.Writer, rows []Row) error {
	if _, err := fmt.Fprintln(w, Header); err != nil {
		return err
	}
	for _, r := range rows {
		length := strconv.Itoa(r.PlanLength)
		if r.Failed {
			length = Failed
		}
		secs := strconv.FormatFloat(r.Duration.Seconds(), 'f', -1, 64)
		if _, err := fmt.Fprintf(w, "%s,\t%s,\t%ssec,\t%d\n", r.Name, length, secs, r.NodesExpanded); err != nil {
			return err
		}
	}
	return nil
}

// Summary counts a batch's outcomes.
type Summary struct {
	Tested        int
	Failed        int
	NodesExpanded int
	Duration      time.Duration
}

// Summarize totals rows.
func Summarize(rows []Row) Summary {
	var s Summary
	for _, r := range rows {
		s.Tested++
		if r.Failed {
			s.Failed++
		}
		s.NodesExpanded += r.NodesExpanded
		s.Duration += r.Duration
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("tested %d problems, %d failed, %d nodes expanded in %s", s.Tested, s.Failed, s.NodesExpanded, s.Duration)
}
