package admission

import (
	"fmt"
	"sort"
	"time"
)

// Built-in policy names.
const (
	PolicyAuthLogin     = "auth.login"
	PolicyAuthRegister  = "auth.register"
	PolicyAuthPassword  = "auth.password"
	PolicyIssueCreate   = "issue.create"
	PolicyIssueRead     = "issue.read"
	PolicyIssueUpdate   = "issue.update"
	PolicyIssueDelete   = "issue.delete"
	PolicyPostCreate    = "post.create"
	PolicyPostRead      = "post.read"
	PolicyPostLike      = "post.like"
	PolicyProfileRead   = "profile.read"
	PolicyProfileUpdate = "profile.update"
)

// KeyBy selects what partitions a policy's rate-limit windows.
type KeyBy string

const (
	KeyBySubject KeyBy = "subject"
	KeyByOrigin  KeyBy = "origin"
)

// Policy is the admission rule for one endpoint class.
// Limit <= 0 disables rate limiting; Lock <= 0 disables the single-flight lock.
type Policy struct {
	Name         string
	Limit        int
	Window       time.Duration
	Lock         time.Duration
	KeyBy        KeyBy
	Authenticate bool
}

// Limited reports whether the policy enforces a quota.
func (p Policy) Limited() bool { return p.Limit > 0 }

// Locking reports whether the policy takes a single-flight lock.
func (p Policy) Locking() bool { return p.Lock > 0 }

// Validate checks that the policy is internally consistent.
func (p Policy) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("policy name is required")
	}
	if p.Limit < 0 {
		return fmt.Errorf("policy %s: limit must not be negative", p.Name)
	}
	if p.Limited() && p.Window <= 0 {
		return fmt.Errorf("policy %s: window must be positive when limit is set", p.Name)
	}
	if p.Lock < 0 {
		return fmt.Errorf("policy %s: lock must not be negative", p.Name)
	}
	switch p.KeyBy {
	case KeyBySubject:
		if !p.Authenticate {
			return fmt.Errorf("policy %s: subject keying requires authentication", p.Name)
		}
	case KeyByOrigin:
	default:
		return fmt.Errorf("policy %s: unknown key_by %q", p.Name, p.KeyBy)
	}
	if p.Locking() && !p.Authenticate {
		return fmt.Errorf("policy %s: single-flight lock requires authentication", p.Name)
	}
	return nil
}

const authWindow = 15 * time.Minute

// DefaultPolicies returns the built-in policy set.
func DefaultPolicies() map[string]Policy {
	list := []Policy{
		{Name: PolicyAuthLogin, Limit: 20, Window: authWindow, KeyBy: KeyByOrigin},
		{Name: PolicyAuthRegister, Limit: 20, Window: authWindow, KeyBy: KeyByOrigin},
		{Name: PolicyAuthPassword, Limit: 20, Window: authWindow, KeyBy: KeyByOrigin},
		{Name: PolicyIssueCreate, Limit: 20, Window: authWindow, Lock: 5 * time.Second, KeyBy: KeyBySubject, Authenticate: true},
		{Name: PolicyIssueRead, KeyBy: KeyBySubject, Authenticate: true},
		{Name: PolicyIssueUpdate, Lock: 5 * time.Second, KeyBy: KeyBySubject, Authenticate: true},
		{Name: PolicyIssueDelete, KeyBy: KeyBySubject, Authenticate: true},
		{Name: PolicyPostCreate, Limit: 10, Window: time.Minute, Lock: 5 * time.Second, KeyBy: KeyBySubject, Authenticate: true},
		{Name: PolicyPostRead, KeyBy: KeyBySubject, Authenticate: true},
		{Name: PolicyPostLike, KeyBy: KeyBySubject, Authenticate: true},
		{Name: PolicyProfileRead, Limit: 100, Window: authWindow, KeyBy: KeyBySubject, Authenticate: true},
		{Name: PolicyProfileUpdate, Limit: 20, Window: authWindow, Lock: 5 * time.Second, KeyBy: KeyBySubject, Authenticate: true},
	}
	out := make(map[string]Policy, len(list))
	for _, p := range list {
		out[p.Name] = p
	}
	return out
}

// Override adjusts the quota and lock of a built-in policy.
// Nil fields keep the built-in value.
type Override struct {
	Limit  *int
	Window *time.Duration
	Lock   *time.Duration
}

// PolicyTable is an immutable set of policies.
type PolicyTable struct {
	policies map[string]Policy
}

// NewPolicyTable builds a table from the built-in policies with overrides
// applied. Overrides may only name built-in policies; authentication and
// keying are fixed per policy.
func NewPolicyTable(overrides map[string]Override) (*PolicyTable, error) {
	policies := DefaultPolicies()
	for name, o := range overrides {
		p, ok := policies[name]
		if !ok {
			return nil, fmt.Errorf("unknown admission policy %q", name)
		}
		if o.Limit != nil {
			p.Limit = *o.Limit
		}
		if o.Window != nil {
			p.Window = *o.Window
		}
		if o.Lock != nil {
			p.Lock = *o.Lock
		}
		policies[name] = p
	}
	for _, p := range policies {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return &PolicyTable{policies: policies}, nil
}

// Lookup returns the policy called name.
func (t *PolicyTable) Lookup(name string) (Policy, bool) {
	p, ok := t.policies[name]
	return p, ok
}

// Names returns the policy names in sorted order.
func (t *PolicyTable) Names() []string {
	names := make([]string, 0, len(t.policies))
	for name := range t.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
