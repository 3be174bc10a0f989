package admission

import (
	"testing"
	"time"
)

func TestDefaultPolicies(t *testing.T) {
	table, err := NewPolicyTable(nil)
	if err != nil {
		t.Fatalf("NewPolicyTable(nil) error = %v", err)
	}

	tests := []struct {
		name   string
		limit  int
		window time.Duration
		lock   time.Duration
		keyBy  KeyBy
		auth   bool
	}{
		{PolicyAuthLogin, 20, 15 * time.Minute, 0, KeyByOrigin, false},
		{PolicyAuthRegister, 20, 15 * time.Minute, 0, KeyByOrigin, false},
		{PolicyIssueCreate, 20, 15 * time.Minute, 5 * time.Second, KeyBySubject, true},
		{PolicyIssueRead, 0, 0, 0, KeyBySubject, true},
		{PolicyPostCreate, 10, time.Minute, 5 * time.Second, KeyBySubject, true},
		{PolicyProfileRead, 100, 15 * time.Minute, 0, KeyBySubject, true},
		{PolicyProfileUpdate, 20, 15 * time.Minute, 5 * time.Second, KeyBySubject, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := table.Lookup(tt.name)
			if !ok {
				t.Fatalf("Lookup(%q) missing", tt.name)
			}
			if p.Limit != tt.limit || p.Window != tt.window || p.Lock != tt.lock || p.KeyBy != tt.keyBy || p.Authenticate != tt.auth {
				t.Errorf("policy = %+v", p)
			}
		})
	}

	if n := len(table.Names()); n != 12 {
		t.Errorf("len(Names()) = %d, want 12", n)
	}
}

func TestNewPolicyTable_Overrides(t *testing.T) {
	limit := 5
	window := time.Minute
	lock := time.Duration(0)

	table, err := NewPolicyTable(map[string]Override{
		PolicyIssueCreate: {Limit: &limit, Window: &window, Lock: &lock},
	})
	if err != nil {
		t.Fatalf("NewPolicyTable() error = %v", err)
	}
	p, _ := table.Lookup(PolicyIssueCreate)
	if p.Limit != 5 || p.Window != time.Minute || p.Locking() || !p.Authenticate {
		t.Errorf("overridden policy = %+v", p)
	}

	if _, err := NewPolicyTable(map[string]Override{"issue.purge": {Limit: &limit}}); err == nil {
		t.Error("unknown policy override accepted")
	}

	negative := -1
	if _, err := NewPolicyTable(map[string]Override{PolicyPostCreate: {Limit: &negative}}); err == nil {
		t.Error("negative limit accepted")
	}

	zero := time.Duration(0)
	if _, err := NewPolicyTable(map[string]Override{PolicyPostCreate: {Window: &zero}}); err == nil {
		t.Error("zero window with a limit accepted")
	}

	lockLogin := 5 * time.Second
	if _, err := NewPolicyTable(map[string]Override{PolicyAuthLogin: {Lock: &lockLogin}}); err == nil {
		t.Error("lock on an unauthenticated policy accepted")
	}
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       Policy
		wantErr bool
	}{
		{"valid", Policy{Name: "x", Limit: 1, Window: time.Second, KeyBy: KeyByOrigin}, false},
		{"no name", Policy{KeyBy: KeyByOrigin}, true},
		{"bad key_by", Policy{Name: "x", KeyBy: "tenant"}, true},
		{"subject without auth", Policy{Name: "x", KeyBy: KeyBySubject}, true},
		{"negative lock", Policy{Name: "x", KeyBy: KeyBySubject, Authenticate: true, Lock: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
