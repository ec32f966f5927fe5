package service

import (
	"testing"
	"time"
)

func TestIDClock_UniqueWithinMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1760400000123)
	c := newIDClock(func() time.Time { return fixed })

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, at := c.next()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
		if !at.Equal(fixed) {
			t.Fatalf("timestamp should not be bumped, got %v", at)
		}
	}
	if first, _ := newIDClock(func() time.Time { return fixed }).next(); first != "1760400000123" {
		t.Fatalf("unexpected first id %s", first)
	}
}

func TestIDClock_RecordID(t *testing.T) {
	c := newIDClock(func() time.Time { return time.UnixMilli(1760400000123) })
	id := c.recordID()
	if id != "M-000123" {
		t.Fatalf("unexpected record id %s", id)
	}
}
