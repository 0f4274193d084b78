package store

import "testing"

func TestRecordExecutionReport_Persists(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if err := s.RecordExecutionReport("cl1", "ord1", "", "1", "1", "2", "F", 1, 1, 0, 1.2345, 1, 1.2345, "", "20260101-00:00:00.000"); err != nil {
		t.Fatalf("RecordExecutionReport failed: %v", err)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM execution_reports WHERE cl_ord_id = ?", "cl1").Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestRecordSpotPrice_Upserts(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if err := s.RecordSpotPrice("1", 1.0, 1.1); err != nil {
		t.Fatalf("RecordSpotPrice failed: %v", err)
	}
	if err := s.RecordSpotPrice("1", 2.0, 2.1); err != nil {
		t.Fatalf("RecordSpotPrice second write failed: %v", err)
	}

	var bid, ask float64
	if err := s.db.QueryRow("SELECT bid, ask FROM spot_prices WHERE symbol = ?", "1").Scan(&bid, &ask); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if bid != 2.0 || ask != 2.1 {
		t.Fatalf("expected upserted price 2.0/2.1, got %v/%v", bid, ask)
	}
}

func TestDepthEntry_UpsertThenRemove(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if err := s.RecordDepthEntry("1", "e1", "0", 1.0, 10); err != nil {
		t.Fatalf("RecordDepthEntry failed: %v", err)
	}
	if err := s.RemoveDepthEntry("1", "e1"); err != nil {
		t.Fatalf("RemoveDepthEntry failed: %v", err)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM depth_entries WHERE symbol = ? AND entry_id = ?", "1", "e1").Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected entry removed, got count %d", count)
	}
}
