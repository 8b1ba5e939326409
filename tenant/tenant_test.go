package tenant_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/xraph/tenancy/tenant"
)

var allStates = []tenant.State{
	tenant.StateNew, tenant.StatePending, tenant.StateActive,
	tenant.StateInactive, tenant.StateRemoving, tenant.StateRemoved,
}

func TestGuards(t *testing.T) {
	tests := []struct {
		name    string
		pred    func(tenant.State) bool
		allowed []tenant.State
	}{
		{"CanUpdate", tenant.CanUpdate, []tenant.State{tenant.StateNew, tenant.StatePending, tenant.StateActive, tenant.StateInactive}},
		{"CanSubmit", tenant.CanSubmit, []tenant.State{tenant.StateNew, tenant.StateInactive}},
		{"CanEnable", tenant.CanEnable, []tenant.State{tenant.StatePending, tenant.StateInactive}},
		{"CanDisable", tenant.CanDisable, []tenant.State{tenant.StateActive}},
		{"CanCreateDefaults", tenant.CanCreateDefaults, []tenant.State{tenant.StateActive}},
		{"CanBeginRemoval", tenant.CanBeginRemoval, []tenant.State{tenant.StateNew, tenant.StateInactive}},
		{"CanRemove", tenant.CanRemove, []tenant.State{tenant.StateRemoving}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, s := range allStates {
				want := false
				for _, a := range tt.allowed {
					if a == s {
						want = true
					}
				}
				if got := tt.pred(s); got != want {
					t.Errorf("%s(%s) = %v, want %v", tt.name, s, got, want)
				}
			}
		})
	}
}

func TestEnableDisableIntent(t *testing.T) {
	if !tenant.CanEnable(tenant.StateInactive) {
		t.Error("inactive tenants must be re-enabled")
	}
	if tenant.CanEnable(tenant.StateActive) {
		t.Error("active tenants cannot be enabled")
	}
	if !tenant.CanDisable(tenant.StateActive) {
		t.Error("active tenants must be disabled")
	}
}

func TestRemovedIsTerminal(t *testing.T) {
	if got := tenant.Transitions(tenant.StateRemoved); len(got) != 0 {
		t.Fatalf("expected no transitions from removed, got %v", got)
	}
}

func TestNext(t *testing.T) {
	s := tenant.StateNew
	for _, tr := range []tenant.Transition{tenant.TransitionSubmit, tenant.TransitionEnable, tenant.TransitionDisable, tenant.TransitionBeginRemoval, tenant.TransitionRemove} {
		next, ok := tenant.Next(s, tr)
		if !ok {
			t.Fatalf("%s from %s rejected", tr, s)
		}
		s = next
	}
	if s != tenant.StateRemoved {
		t.Fatalf("expected removed, got %s", s)
	}

	if next, ok := tenant.Next(tenant.StateNew, tenant.TransitionDisable); ok || next != tenant.StateNew {
		t.Fatalf("disable from new: got (%s, %v)", next, ok)
	}
	if _, ok := tenant.Next(tenant.StateActive, tenant.Transition("explode")); ok {
		t.Fatal("unknown transition accepted")
	}
}

func TestValidateID(t *testing.T) {
	valid := []string{"ab", "acme", "tenant42", strings.Repeat("a", 24)}
	for _, id := range valid {
		if err := tenant.ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q): unexpected error %v", id, err)
		}
	}

	invalid := []string{"", "a", strings.Repeat("a", 25), "Acme", "ac-me", "ac me", "acme#x", "ünï"}
	for _, id := range invalid {
		err := tenant.ValidateID(id)
		if !errors.Is(err, tenant.ErrInvalidID) {
			t.Errorf("ValidateID(%q): expected ErrInvalidID, got %v", id, err)
		}
	}
}

func TestNormalizeID(t *testing.T) {
	if got := tenant.NormalizeID("  AcMe "); got != "acme" {
		t.Fatalf("expected acme, got %q", got)
	}
}

func TestStateJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		State tenant.State `json:"state"`
	}{tenant.StateInactive})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"state":"inactive"}` {
		t.Fatalf("unexpected json %s", data)
	}

	var back struct {
		State tenant.State `json:"state"`
	}
	if err := json.Unmarshal([]byte(`{"state":"Pending"}`), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.State != tenant.StatePending {
		t.Fatalf("expected pending, got %s", back.State)
	}

	if err := json.Unmarshal([]byte(`{"state":"deleted"}`), &back); err == nil {
		t.Fatal("expected error for unknown state")
	}
}

func TestBuildSearchIndex(t *testing.T) {
	tn := &tenant.Tenant{ID: "acme", Name: "Acme Corp", Description: "Rockets"}
	tn.BuildSearchIndex()
	if tn.SearchIndex != "acme~acme corp~rockets" {
		t.Fatalf("unexpected index %q", tn.SearchIndex)
	}
}
