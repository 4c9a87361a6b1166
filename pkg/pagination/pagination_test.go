package pagination

import "testing"

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default limit, got %d", got)
	}
	if got := NormalizeLimit(500); got != MaxLimit {
		t.Fatalf("expected max limit, got %d", got)
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("expected buffered limit 11, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	encoded := EncodeCursor(Cursor{ID: 981})
	cursor, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if cursor == nil || cursor.ID != 981 {
		t.Fatalf("unexpected cursor %+v", cursor)
	}

	if c, err := ParseCursor(""); err != nil || c != nil {
		t.Fatalf("empty cursor should be nil, got %+v err=%v", c, err)
	}
	if _, err := ParseCursor("not base64 !!"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestTrim(t *testing.T) {
	rows := []uint64{9, 8, 7}
	page := Trim(rows, 2, func(v uint64) uint64 { return v })
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}
	cursor, err := ParseCursor(page.NextCursor)
	if err != nil || cursor.ID != 8 {
		t.Fatalf("expected next cursor at 8, got %+v err=%v", cursor, err)
	}

	last := Trim(rows[:1], 2, func(v uint64) uint64 { return v })
	if last.NextCursor != "" {
		t.Fatalf("expected no next cursor on the final page")
	}
	empty := Trim[uint64](nil, 2, func(v uint64) uint64 { return v })
	if empty.Items == nil {
		t.Fatal("items should serialize as an empty list")
	}
}
