package problem

import (
	"errors"
	"strings"
	"testing"

	"github.com/signalsfoundry/tasking-planner/model"
)

func TestLoadScenario_BuildDerivesMissingSlews(t *testing.T) {
	sc, err := LoadScenario(openTestdata(t, "scenario.yaml"))
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	s, g, derived, err := sc.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// explicit entries survive derivation
	if v, _ := s.SlewTime("star1", "star0"); v != 30 {
		t.Fatalf("slew(star1, star0) = %v, want 30", v)
	}
	// star0 <-> planet3 is 90 degrees at 1 deg/s plus 2s settle
	if v, ok := s.SlewTime("star0", "planet3"); !ok || v != 92 {
		t.Fatalf("slew(star0, planet3) = %v, %v; want 92", v, ok)
	}
	if derived.Derived != 4 {
		t.Fatalf("Derived = %d, want 4", derived.Derived)
	}

	if !s.PowerAvail("sat0") {
		t.Fatalf("power_avail should default to true")
	}
	if g.Len() != 2 {
		t.Fatalf("goal atoms = %d, want 2", g.Len())
	}
	if d, _ := g.Pointing("sat0"); d != model.Direction("star0") {
		t.Fatalf("goal pointing = %v, want star0", d)
	}
}

func TestLoadScenario_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":           ``,
		"no satellites":   "name: x\n",
		"unknown field":   "name: x\nsatellites: [{id: s, pointing: d}]\nbogus: 1\n",
		"bad kind":        "name: x\nsatellites: [{id: s, pointing: d}]\ndirections: [{id: d, kind: moon}]\n",
		"negative fuel":   "name: x\nsatellites: [{id: s, pointing: d, fuel: -1}]\n",
		"self slew":       "name: x\nsatellites: [{id: s, pointing: d}]\nslew_times: [{from: a, to: a, seconds: 1}]\n",
		"dup satellite":   "name: x\nsatellites: [{id: s, pointing: d}, {id: s, pointing: d}]\n",
		"unknown pointer": "name: x\nsatellites: [{id: s, pointing: d}]\ngoal: {pointing: [{satellite: q, direction: d}]}\n",
		"no modes":        "name: x\nsatellites: [{id: s, pointing: d, instruments: [{id: i}]}]\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadScenario(strings.NewReader(src))
			if !errors.Is(err, ErrInvalidScenario) {
				t.Fatalf("LoadScenario error = %v, want ErrInvalidScenario", err)
			}
		})
	}
}
