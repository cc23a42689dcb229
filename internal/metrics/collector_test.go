package metrics

import "testing"

func TestCounter_IncAdd(t *testing.T) {
	c := NewMetricsCollector()
	ctr := c.Counter("deliveries_total", "Total delivery attempts")
	ctr.Inc()
	ctr.Add(4)
	if got := ctr.Value(); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}

func TestCounter_SameInstance(t *testing.T) {
	c := NewMetricsCollector()
	a := c.Counter("x", "")
	b := c.Counter("x", "")
	a.Inc()
	if b.Value() != 1 {
		t.Fatal("Counter should return the same instance for the same name")
	}
}

func TestSnapshot_Sorted(t *testing.T) {
	c := NewMetricsCollector()
	c.Counter("zeta", "").Inc()
	c.Counter("alpha", "").Add(2)

	snap := c.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 counters, got %d", len(snap))
	}
	if snap[0].Name != "alpha" || snap[0].Value != 2 {
		t.Fatalf("unexpected first entry: %+v", snap[0])
	}
	if snap[1].Name != "zeta" || snap[1].Value != 1 {
		t.Fatalf("unexpected second entry: %+v", snap[1])
	}
}
