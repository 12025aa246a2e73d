package flow

import (
	"testing"

	"github.com/routectl/routectl/internal/topo"
)

func sampleRule(inPort string) Rule {
	return Rule{
		Switch:  "s1",
		InPort:  topo.PortID(inPort),
		OutPort: "out",
		Priority: 10,
		EthSrc:  "a",
		EthDst:  "b",
	}
}

func TestSetAddDeduplicatesByKey(t *testing.T) {
	s := NewSet()
	r := sampleRule("in")

	if !s.Add(r) {
		t.Error("first Add() should return true")
	}
	if s.Add(r) {
		t.Error("second Add() of an identical rule should return false")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestSetMergeCountsAddedAndDuplicates(t *testing.T) {
	s := NewSet()
	r1 := sampleRule("in1")
	r2 := sampleRule("in2")

	added, dup := s.Merge([]Rule{r1, r2, r1})
	if added != 2 || dup != 1 {
		t.Errorf("Merge() = added=%d dup=%d, want added=2 dup=1", added, dup)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestSetSliceReturnsAllRules(t *testing.T) {
	s := NewSet()
	s.Add(sampleRule("in1"))
	s.Add(sampleRule("in2"))

	if len(s.Slice()) != 2 {
		t.Errorf("len(Slice()) = %d, want 2", len(s.Slice()))
	}
}
