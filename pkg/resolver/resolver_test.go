package resolver

import (
	"errors"
	"testing"

	"svgtrav/pkg/dom"
)

func TestEnterLeave(t *testing.T) {
	s := New()
	a, b := dom.NewElement("g"), dom.NewElement("rect")
	if err := s.Enter(a); err != nil {
		t.Fatalf("enter a: %v", err)
	}
	if err := s.Enter(b); err != nil {
		t.Fatalf("enter b: %v", err)
	}
	if s.Depth() != 2 || !s.Contains(a) {
		t.Errorf("unexpected stack state depth=%d", s.Depth())
	}
	if err := s.Leave(a); !errors.Is(err, ErrUnbalanced) {
		t.Errorf("expected ErrUnbalanced leaving a before b, got %v", err)
	}
	s.Leave(b)
	s.Leave(a)
	if s.Depth() != 0 {
		t.Errorf("expected empty stack, got %d", s.Depth())
	}
}

func TestCycleDetected(t *testing.T) {
	s := New()
	a := dom.NewElement("g")
	a.Attributes["id"] = "a"
	s.Enter(a)
	if err := s.Enter(a); !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
	if s.Depth() != 1 {
		t.Error("a failed enter must not push")
	}
}

func TestShadowMapsToReal(t *testing.T) {
	s := New()
	a := dom.NewElement("g")
	clone := dom.CloneShadow(a)
	s.Enter(a)
	if err := s.Enter(clone); !errors.Is(err, ErrCycle) {
		t.Errorf("a clone of an entered node is a cycle, got %v", err)
	}
	if err := s.Leave(clone); err != nil {
		t.Errorf("leaving through the clone should pop its source: %v", err)
	}
}
