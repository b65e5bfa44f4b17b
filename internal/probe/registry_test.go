package probe

import (
	"context"
	"net"
	"testing"
)

func TestRegistry_DuplicateNameRejected(t *testing.T) {
	reg := NewRegistry(testLogger())

	spec := Spec{Name: "cpu", Kind: KindExec, Command: "/usr/bin/true", TimeoutMS: 1000}
	if err := reg.Register(spec); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := reg.Register(spec); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if reg.Len() != 1 {
		t.Errorf("expected 1 spec, got %d", reg.Len())
	}
}

func TestRegistry_ValidationRejectsBadSpecs(t *testing.T) {
	reg := NewRegistry(testLogger())

	cases := []struct {
		name string
		spec Spec
	}{
		{"missing name", Spec{Kind: KindExec, Command: "/usr/bin/true", TimeoutMS: 1000}},
		{"bad name chars", Spec{Name: "cpu usage!", Kind: KindExec, Command: "/usr/bin/true", TimeoutMS: 1000}},
		{"unknown kind", Spec{Name: "x", Kind: Kind("teleport"), TimeoutMS: 1000}},
		{"exec without command", Spec{Name: "x", Kind: KindExec, TimeoutMS: 1000}},
		{"tcp without target", Spec{Name: "x", Kind: KindTCP, TimeoutMS: 1000}},
		{"zero timeout", Spec{Name: "x", Kind: KindExec, Command: "/usr/bin/true"}},
	}

	for _, tc := range cases {
		if err := reg.Register(tc.spec); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestRegistry_ListPreservesOrder(t *testing.T) {
	reg := NewRegistry(testLogger())

	names := []string{"zeta", "alpha", "mid"}
	for _, name := range names {
		spec := Spec{Name: name, Kind: KindExec, Command: "/usr/bin/true", TimeoutMS: 1000}
		if err := reg.Register(spec); err != nil {
			t.Fatalf("failed to register %s: %v", name, err)
		}
	}

	list := reg.List()
	if len(list) != len(names) {
		t.Fatalf("expected %d specs, got %d", len(names), len(list))
	}
	for i, name := range names {
		if list[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, list[i].Name)
		}
	}
}

func TestTCPRunner_Reachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer l.Close()

	runner := NewTCPRunner(testLogger())
	result := runner.Run(context.Background(), Spec{
		Name:      "local",
		Kind:      KindTCP,
		Target:    l.Addr().String(),
		TimeoutMS: 1000,
	})

	if !result.OK {
		t.Fatalf("expected success, got %s: %s", result.Failure, result.Message)
	}
	if result.Value["connected"] != true {
		t.Errorf("expected connected=true payload, got %v", result.Value)
	}
}
