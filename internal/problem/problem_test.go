package problem

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/signalsfoundry/tasking-planner/internal/blocks"
	"github.com/signalsfoundry/tasking-planner/kb"
	"github.com/signalsfoundry/tasking-planner/model"
)

func openTestdata(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("open %s: %v", name, err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestParseSatellite(t *testing.T) {
	s, g, err := ParseSatellite(openTestdata(t, "satellite-problem01.pddl"), "")
	if err != nil {
		t.Fatalf("ParseSatellite: %v", err)
	}
	if s.Name != "strips-sat-x-1" {
		t.Fatalf("Name = %q, want strips-sat-x-1", s.Name)
	}

	inst, ok := s.Instrument("instrument0")
	if !ok {
		t.Fatalf("instrument0 missing")
	}
	want := &model.Instrument{
		ID:                 "instrument0",
		OnBoard:            "satellite0",
		Supports:           []model.Mode{"image1"},
		CalibrationTargets: []model.Direction{"star1"},
	}
	if diff := cmp.Diff(want, inst); diff != "" {
		t.Fatalf("instrument mismatch (-want +got):\n%s", diff)
	}
	if d, _ := s.Pointing("satellite0"); d != "planet3" {
		t.Fatalf("pointing = %v, want planet3", d)
	}
	if s.Fuel("satellite0") != 112 || s.DataCapacity("satellite0") != 1000 {
		t.Fatalf("fuel/capacity = %v/%v, want 112/1000", s.Fuel("satellite0"), s.DataCapacity("satellite0"))
	}
	if v, ok := s.SlewTime("star1", "planet3"); !ok || v != 18.17 {
		t.Fatalf("slew_time(star1, planet3) = %v, %v", v, ok)
	}
	if v, ok := s.DataCost(model.ImageKey{Direction: "planet3", Mode: "image1"}); !ok || v != 120 {
		t.Fatalf("data(planet3, image1) = %v, %v", v, ok)
	}

	if diff := cmp.Diff([]model.ImageKey{{Direction: "planet3", Mode: "image1"}}, g.Images()); diff != "" {
		t.Fatalf("goal images mismatch (-want +got):\n%s", diff)
	}
	if len(g.PointingGoals()) != 0 {
		t.Fatalf("unexpected pointing goals %v", g.PointingGoals())
	}
}

func TestParseSatellite_GoalOrderAndOverrideName(t *testing.T) {
	_, g, err := ParseSatellite(openTestdata(t, "satellite-problem02.pddl"), "p2")
	if err != nil {
		t.Fatalf("ParseSatellite: %v", err)
	}
	if g.Name != "p2" {
		t.Fatalf("goal name = %q, want p2", g.Name)
	}
	wantImages := []model.ImageKey{
		{Direction: "planet3", Mode: "image1"},
		{Direction: "phenomenon4", Mode: "spectrograph2"},
	}
	if diff := cmp.Diff(wantImages, g.Images()); diff != "" {
		t.Fatalf("goal images mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]kb.PointingGoal{{Satellite: "satellite0", Direction: "star0"}}, g.PointingGoals()); diff != "" {
		t.Fatalf("pointing goals mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSatellite_Errors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want error
	}{
		{"unbalanced", "(define (problem x) (:init (pointing s d)", ErrSyntax},
		{"extra close", "(define (problem x)))", ErrSyntax},
		{"no init", "(define (problem x) (:goal (and)))", ErrMissingSection},
		{"no goal", "(define (problem x) (:init (pointing s d)))", ErrMissingSection},
		{"bad number", "(define (problem x) (:init (= (fuel s) lots)) (:goal (and)))", ErrSyntax},
		{"bad arity", "(define (problem x) (:init (on_board i)) (:goal (and)))", ErrSyntax},
		{"no pointing", "(define (problem x) (:init (on_board i s)) (:goal (and)))", kb.ErrIncompleteState},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParseSatellite(strings.NewReader(tc.src), "")
			if !errors.Is(err, tc.want) {
				t.Fatalf("ParseSatellite error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestParseBlocks(t *testing.T) {
	s, g, err := ParseBlocks(openTestdata(t, "blocks-problem01.pddl"), "")
	if err != nil {
		t.Fatalf("ParseBlocks: %v", err)
	}
	if diff := cmp.Diff([]blocks.Block{"c", "b", "a"}, s.Blocks()); diff != "" {
		t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
	}
	if s.Clear("a") {
		t.Fatalf("a must be marked covered")
	}
	if p, _ := s.Pos("c"); p != "a" {
		t.Fatalf("pos(c) = %v, want a", p)
	}
	if g.Len() != 2 {
		t.Fatalf("goal has %d blocks, want 2", g.Len())
	}
}

func TestParseBlocks_SingleLineUppercase(t *testing.T) {
	s, g, err := ParseBlocks(openTestdata(t, "blocks-problem02.pddl"), "")
	if err != nil {
		t.Fatalf("ParseBlocks: %v", err)
	}
	if s.Name != "blocks-4-0" {
		t.Fatalf("Name = %q, want blocks-4-0", s.Name)
	}
	if len(s.Blocks()) != 4 || g.Len() != 3 {
		t.Fatalf("blocks/goal = %d/%d, want 4/3", len(s.Blocks()), g.Len())
	}
}

func TestParseBlocks_UnknownGoalBlock(t *testing.T) {
	src := "(define (problem x) (:init (on-table a) (clear a)) (:goal (and (on a z))))"
	_, _, err := ParseBlocks(strings.NewReader(src), "")
	if !errors.Is(err, blocks.ErrUnknownBlock) {
		t.Fatalf("ParseBlocks error = %v, want ErrUnknownBlock", err)
	}
}

func TestDetectDomain(t *testing.T) {
	cases := []struct {
		file string
		want Domain
	}{
		{"satellite-problem01.pddl", DomainSatellite},
		{"satellite-problem03-infeasible.pddl", DomainSatellite},
		{"blocks-problem01.pddl", DomainBlocks},
		{"blocks-problem02.pddl", DomainBlocks},
	}
	for _, tc := range cases {
		data, err := os.ReadFile(filepath.Join("testdata", tc.file))
		if err != nil {
			t.Fatalf("read %s: %v", tc.file, err)
		}
		got, err := DetectDomain(data)
		if err != nil || got != tc.want {
			t.Errorf("DetectDomain(%s) = %v, %v; want %v", tc.file, got, err, tc.want)
		}
	}

	if got, err := DetectDomain([]byte("(:init (handempty))")); err != nil || got != DomainBlocks {
		t.Errorf("keyword fallback = %v, %v; want blocks", got, err)
	}
	if _, err := DetectDomain([]byte("(define (problem x))")); !errors.Is(err, ErrUnknownDomain) {
		t.Errorf("DetectDomain error = %v, want ErrUnknownDomain", err)
	}
}

func TestParseDomain(t *testing.T) {
	if d, ok := ParseDomain(" Blocks "); !ok || d != DomainBlocks {
		t.Fatalf("ParseDomain = %v, %v", d, ok)
	}
	if _, ok := ParseDomain("logistics"); ok {
		t.Fatalf("ParseDomain accepted an unknown domain")
	}
	if !IsScenario("x/y.YML") || IsScenario("p.pddl") {
		t.Fatalf("IsScenario misclassified extensions")
	}
}

func TestParseSatellite_PoweredInstrumentHoldsPower(t *testing.T) {
	const src = `(define (problem p) (:domain satellite)
(:init (on_board i0 s0) (on_board i1 s0) (pointing s0 d0) (power_on i0))
(:goal (and (pointing s0 d0))))`
	s, _, err := ParseSatellite(strings.NewReader(src), "")
	if err != nil {
		t.Fatalf("ParseSatellite: %v", err)
	}
	if s.PowerAvail("s0") {
		t.Fatalf("power_avail(s0) = true with i0 powered, want false")
	}

	const conflicting = `(define (problem p) (:domain satellite)
(:init (on_board i0 s0) (pointing s0 d0) (power_on i0) (power_avail s0))
(:goal (and (pointing s0 d0))))`
	if _, _, err := ParseSatellite(strings.NewReader(conflicting), ""); !errors.Is(err, kb.ErrInconsistentPower) {
		t.Fatalf("ParseSatellite error = %v, want ErrInconsistentPower", err)
	}
}
