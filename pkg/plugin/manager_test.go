package plugin

import (
	"context"
	"strings"
	"testing"

	"StreamForge/pkg/compat"
)

type stubPlugin struct {
	info    Info
	started bool
	stopped bool
}

func (s *stubPlugin) Info() Info                     { return s.info }
func (s *stubPlugin) Configure(map[string]any) error { return nil }
func (s *stubPlugin) Init(*ExecutionContext) error   { return nil }
func (s *stubPlugin) Start(*ExecutionContext) error  { s.started = true; return nil }
func (s *stubPlugin) Stop(*ExecutionContext) error   { s.stopped = true; return nil }

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(ManagerConfig{})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestRegisterAcceptsCompatibleVersions(t *testing.T) {
	host := compat.Current()
	for _, version := range []string{host.String(), "2"} {
		m := newTestManager(t)
		p := &stubPlugin{info: Info{ID: "p1", Name: "mapper", Version: version, Category: TypeProcessor}}
		if err := m.Register("p1", p, nil, IsolationPolicy{}); err != nil {
			t.Fatalf("register with version %q: %v", version, err)
		}
		state, err := m.State("p1")
		if err != nil || state != StateRegistered {
			t.Fatalf("state after register: %v, %v", state, err)
		}
	}
}

func TestRegisterRejectsIncompatibleVersion(t *testing.T) {
	m := newTestManager(t)
	p := &stubPlugin{info: Info{ID: "p1", Version: "3.0", Category: TypeProcessor}}
	err := m.Register("p1", p, nil, IsolationPolicy{})
	if err == nil {
		t.Fatal("expected registration to fail for incompatible version")
	}
	if !strings.Contains(err.Error(), "requires pipeline version") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegisterRejectsMinorMismatch(t *testing.T) {
	m := newTestManager(t)
	p := &stubPlugin{info: Info{ID: "p1", Version: "2.2", Category: TypeProcessor}}
	if err := m.Register("p1", p, nil, IsolationPolicy{}); err == nil {
		t.Fatal("expected registration to fail when both minors are present and differ")
	}
}

func TestRegisterRejectsMalformedVersion(t *testing.T) {
	for _, version := range []string{"", "2.1.0", "-1", "a.b"} {
		m := newTestManager(t)
		p := &stubPlugin{info: Info{ID: "p1", Version: version, Category: TypeProcessor}}
		err := m.Register("p1", p, nil, IsolationPolicy{})
		if err == nil {
			t.Fatalf("expected registration to fail for version %q", version)
		}
	}
}

func TestLifecycle(t *testing.T) {
	m := newTestManager(t)
	p := &stubPlugin{info: Info{ID: "p1", Version: "2.1", Category: TypeSink}}
	if err := m.Register("p1", p, nil, IsolationPolicy{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	ctx := context.Background()
	if err := m.Start(ctx, "p1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !p.started {
		t.Fatal("plugin was not started")
	}
	if err := m.Stop(ctx, "p1"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !p.stopped {
		t.Fatal("plugin was not stopped")
	}
}

func TestListSnapshots(t *testing.T) {
	m := newTestManager(t)
	p := &stubPlugin{info: Info{ID: "p1", Name: "mapper", Version: "2.1", Category: TypeProcessor}}
	if err := m.Register("p1", p, nil, IsolationPolicy{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	snapshots := m.List()
	if len(snapshots) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(snapshots))
	}
	got := snapshots[0]
	if got.ID != "p1" || got.Version != "2.1" || got.State != StateRegistered || got.Type != TypeProcessor {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

func TestCapabilityPolicyEnforced(t *testing.T) {
	m := newTestManager(t)
	p := &stubPlugin{info: Info{
		ID:           "p1",
		Version:      "2.1",
		Category:     TypeSource,
		Capabilities: []Capability{CapabilityNetwork},
	}}
	if err := m.Register("p1", p, nil, IsolationPolicy{}); err == nil {
		t.Fatal("expected registration to fail without an isolation policy")
	}
	if err := m.Register("p1", p, nil, IsolationPolicy{
		DeniedCapabilities: []Capability{CapabilityNetwork},
	}); err == nil {
		t.Fatal("expected registration to fail for denied capability")
	}
	if err := m.Register("p1", p, nil, IsolationPolicy{
		AllowedCapabilities: []Capability{CapabilityNetwork},
	}); err != nil {
		t.Fatalf("register with allowed capability: %v", err)
	}
}
