package topo

import "testing"

func TestGraphAddVertexIsIdempotent(t *testing.T) {
	g := newGraph()
	a := g.addVertex("sw1", NodeSwitch)
	b := g.addVertex("sw1", NodeSwitch)
	if a != b {
		t.Errorf("addVertex called twice with same key returned different ids: %d, %d", a, b)
	}
	if g.NumVertices() != 1 {
		t.Errorf("NumVertices() = %d, want 1", g.NumVertices())
	}
}

func TestGraphAddEdgeIsUndirected(t *testing.T) {
	g := newGraph()
	a := g.addVertex("sw1", NodeSwitch)
	b := g.addVertex("sw2", NodeSwitch)
	g.addEdge(a, b, 3.5)

	neighborsA := g.Neighbors(a)
	if len(neighborsA) != 1 || neighborsA[0].to != b || neighborsA[0].weight != 3.5 {
		t.Errorf("Neighbors(a) = %+v, want one edge to b weight 3.5", neighborsA)
	}
	neighborsB := g.Neighbors(b)
	if len(neighborsB) != 1 || neighborsB[0].to != a || neighborsB[0].weight != 3.5 {
		t.Errorf("Neighbors(b) = %+v, want one edge to a weight 3.5", neighborsB)
	}
}

func TestGraphSwitchIndices(t *testing.T) {
	g := newGraph()
	g.addVertex("h1", NodeHost)
	sw := g.addVertex("sw1", NodeSwitch)
	g.addVertex("h2", NodeHost)

	indices := g.SwitchIndices()
	if len(indices) != 1 || indices[0] != sw {
		t.Errorf("SwitchIndices() = %v, want [%d]", indices, sw)
	}
}

func TestGraphIndexOfAndKeyOf(t *testing.T) {
	g := newGraph()
	id := g.addVertex("sw1", NodeSwitch)

	got, ok := g.IndexOf("sw1")
	if !ok || got != id {
		t.Errorf("IndexOf(sw1) = %d, %v, want %d, true", got, ok, id)
	}
	if g.KeyOf(id) != "sw1" {
		t.Errorf("KeyOf(%d) = %q, want sw1", id, g.KeyOf(id))
	}
	if g.KindOf(id) != NodeSwitch {
		t.Errorf("KindOf(%d) = %v, want NodeSwitch", id, g.KindOf(id))
	}

	if _, ok := g.IndexOf("missing"); ok {
		t.Error("IndexOf(missing) should return ok=false")
	}
}
