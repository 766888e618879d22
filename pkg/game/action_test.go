package game

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/xhedwig/ofdp-sdg/pkg/topology"
)

func TestAssignmentJSON(t *testing.T) {
	a := Assignment{1: Help, 2: Defense}

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"1":"help","2":"defense"}` {
		t.Errorf("Unexpected JSON %s", data)
	}

	var back Assignment
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !back.Equal(a) {
		t.Errorf("Round trip changed assignment: %v", back)
	}

	if err := json.Unmarshal([]byte(`{"1":"attack"}`), &back); err == nil {
		t.Error("Unknown action should be rejected")
	}
	if _, err := json.Marshal(Assignment{1: Action(5)}); err == nil {
		t.Error("Invalid action should not marshal")
	}
}

func TestAssignmentActive(t *testing.T) {
	a := Assignment{5: Help, 1: Defense, 3: Help, 2: Help}
	if got := a.Active(); !reflect.DeepEqual(got, []topology.NodeID{2, 3, 5}) {
		t.Errorf("Active() = %v", got)
	}

	c := a.Clone()
	c[1] = Help
	if a[1] != Defense {
		t.Error("Clone must be independent")
	}
	if a.Equal(c) {
		t.Error("Modified clone should differ")
	}
}
