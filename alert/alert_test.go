package alert

import "testing"

func TestOnPrice_HighAlertFiresWhenBidCrossesUp(t *testing.T) {
	b := New()
	id := b.SetAlert("1", Set{Kind: High, Threshold: 1.10}, "")

	if fired := b.OnPrice("1", 1.05, 1.06); fired != nil {
		t.Fatalf("expected no alert fired yet, got %v", fired)
	}
	fired := b.OnPrice("1", 1.11, 1.12)
	if len(fired) != 1 || fired[0] != id {
		t.Fatalf("expected alert %s fired, got %v", id, fired)
	}
	if fired := b.OnPrice("1", 1.20, 1.21); fired != nil {
		t.Fatalf("expected alert removed after firing, got %v", fired)
	}
}

func TestOnPrice_LowAlertFiresWhenBidCrossesDown(t *testing.T) {
	b := New()
	id := b.SetAlert("1", Set{Kind: Low, Threshold: 1.00}, "")

	fired := b.OnPrice("1", 0.99, 1.00)
	if len(fired) != 1 || fired[0] != id {
		t.Fatalf("expected alert %s fired, got %v", id, fired)
	}
}

func TestModifyAlert_ChangesThresholdKeepsKind(t *testing.T) {
	b := New()
	id := b.SetAlert("1", Set{Kind: High, Threshold: 1.10}, "")

	set, ok := b.ModifyAlert(id, 1.20)
	if !ok || set.Kind != High || set.Threshold != 1.20 {
		t.Fatalf("unexpected modified set: %+v ok=%v", set, ok)
	}

	if fired := b.OnPrice("1", 1.15, 1.16); fired != nil {
		t.Fatalf("expected no fire below new threshold, got %v", fired)
	}
	if fired := b.OnPrice("1", 1.21, 1.22); len(fired) != 1 {
		t.Fatalf("expected fire at new threshold, got %v", fired)
	}
}

func TestRemoveAlert_CancelsBeforeFiring(t *testing.T) {
	b := New()
	id := b.SetAlert("1", Set{Kind: High, Threshold: 1.10}, "")

	set, ok := b.RemoveAlert(id)
	if !ok || set.Threshold != 1.10 {
		t.Fatalf("unexpected removed set: %+v ok=%v", set, ok)
	}
	if fired := b.OnPrice("1", 1.50, 1.51); fired != nil {
		t.Fatalf("expected removed alert not to fire, got %v", fired)
	}
}

func TestRemoveAlert_UnknownIDReturnsFalse(t *testing.T) {
	b := New()
	if _, ok := b.RemoveAlert("nope"); ok {
		t.Fatal("expected removing unknown id to report false")
	}
}
