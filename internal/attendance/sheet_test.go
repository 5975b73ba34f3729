package attendance

import (
	"errors"
	"testing"
	"time"
)

var testDay = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func TestAddDatePicksNextFree(t *testing.T) {
	sheet := NewSheet("varsity")
	AddAthlete(sheet, "Ada", "Lovelace", "open")

	d1 := AddDate(sheet, testDay)
	if d1 != "2024-01-01" {
		t.Fatalf("first AddDate = %s, want 2024-01-01", d1)
	}
	d2 := AddDate(sheet, testDay)
	if d2 != "2024-01-02" {
		t.Fatalf("second AddDate = %s, want 2024-01-02 (next free)", d2)
	}
	for _, d := range sheet.Dates {
		for id := range sheet.Records {
			if v, ok := sheet.Records[id][d]; !ok || v {
				t.Errorf("records[%s][%s] = %v,%v, want false backfill", id, d, v, ok)
			}
		}
	}
}

// TestAddDateLookaheadExhausted fills today plus the whole lookahead
// window and verifies another AddDate does not duplicate a key.
func TestAddDateLookaheadExhausted(t *testing.T) {
	sheet := NewSheet("varsity")
	for i := 0; i <= addDateLookahead; i++ {
		AddDate(sheet, testDay)
	}
	before := len(sheet.Dates)

	AddDate(sheet, testDay)
	if len(sheet.Dates) != before {
		t.Fatalf("dates grew to %d after exhausted lookahead, want %d", len(sheet.Dates), before)
	}
	seen := map[string]bool{}
	for _, d := range sheet.Dates {
		if seen[d] {
			t.Fatalf("duplicate date key %s", d)
		}
		seen[d] = true
	}
}

// TestRenameDatePreservesMarks covers the core case: one date, one marked
// athlete; after rename the mark follows the new key and the old key is
// gone everywhere.
func TestRenameDatePreservesMarks(t *testing.T) {
	sheet := NewSheet("varsity")
	a := AddAthlete(sheet, "Ada", "Lovelace", "open")
	sheet.Dates = []string{"2024-01-01"}
	sheet.Records[a.ID]["2024-01-01"] = true

	if err := RenameDate(sheet, "2024-01-01", "2024-01-08"); err != nil {
		t.Fatal(err)
	}
	if sheet.HasDate("2024-01-01") {
		t.Error("old date still on sheet")
	}
	if !sheet.Records[a.ID]["2024-01-08"] {
		t.Error("mark lost across rename")
	}
	if _, ok := sheet.Records[a.ID]["2024-01-01"]; ok {
		t.Error("old date entry still present in records")
	}
}

func TestRenameDateDuplicate(t *testing.T) {
	sheet := NewSheet("varsity")
	sheet.Dates = []string{"2024-01-01", "2024-01-08"}

	err := RenameDate(sheet, "2024-01-01", "2024-01-08")
	if !errors.Is(err, ErrDuplicateDate) {
		t.Fatalf("err = %v, want ErrDuplicateDate", err)
	}
	// Rename to self is a no-op, not a collision.
	if err := RenameDate(sheet, "2024-01-01", "2024-01-01"); err != nil {
		t.Fatalf("self-rename: %v", err)
	}
}

func TestToggle(t *testing.T) {
	sheet := NewSheet("varsity")
	a := AddAthlete(sheet, "Ada", "Lovelace", "open")
	AddDate(sheet, testDay)
	d := sheet.Dates[0]

	Toggle(sheet, a.ID, d)
	if !sheet.Records[a.ID][d] {
		t.Error("toggle did not mark present")
	}
	Toggle(sheet, a.ID, d)
	if sheet.Records[a.ID][d] {
		t.Error("second toggle did not mark absent")
	}
}

func TestRemoveAthlete(t *testing.T) {
	sheet := NewSheet("varsity")
	a := AddAthlete(sheet, "Ada", "Lovelace", "open")
	b := AddAthlete(sheet, "Grace", "Hopper", "open")
	AddDate(sheet, testDay)

	RemoveAthlete(sheet, a.ID)
	if _, ok := sheet.Records[a.ID]; ok {
		t.Error("removed athlete still has a record entry")
	}
	if len(sheet.Athletes) != 1 || sheet.Athletes[0].ID != b.ID {
		t.Errorf("athletes = %+v, want only %s", sheet.Athletes, b.ID)
	}
}

// TestMatrixInvariantUnderEditSequence drives a mixed sequence of every
// structural op and checks the full-matrix and unique-date invariants
// after each step.
func TestMatrixInvariantUnderEditSequence(t *testing.T) {
	sheet := NewSheet("varsity")

	assertInvariants := func(step string) {
		t.Helper()
		seen := map[string]bool{}
		for _, d := range sheet.Dates {
			if seen[d] {
				t.Fatalf("%s: duplicate date %s", step, d)
			}
			seen[d] = true
		}
		for _, a := range sheet.Athletes {
			for _, d := range sheet.Dates {
				if _, ok := sheet.Records[a.ID][d]; !ok {
					t.Fatalf("%s: records[%s][%s] undefined", step, a.ID, d)
				}
			}
		}
		for id, marks := range sheet.Records {
			onRoster := false
			for _, a := range sheet.Athletes {
				if a.ID == id {
					onRoster = true
				}
			}
			if !onRoster {
				t.Fatalf("%s: record entry for off-roster athlete %s", step, id)
			}
			for d := range marks {
				if !seen[d] {
					t.Fatalf("%s: record entry for removed date %s", step, d)
				}
			}
		}
	}

	a := AddAthlete(sheet, "Ada", "Lovelace", "open")
	assertInvariants("addAthlete")
	d1 := AddDate(sheet, testDay)
	assertInvariants("addDate")
	AddAthlete(sheet, "Grace", "Hopper", "junior")
	assertInvariants("addAthlete2")
	d2 := AddDate(sheet, testDay)
	assertInvariants("addDate2")
	Toggle(sheet, a.ID, d1)
	assertInvariants("toggle")
	if err := RenameDate(sheet, d1, "2024-02-01"); err != nil {
		t.Fatal(err)
	}
	assertInvariants("renameDate")
	RemoveDate(sheet, d2)
	assertInvariants("removeDate")
	RemoveAthlete(sheet, a.ID)
	assertInvariants("removeAthlete")
}

// TestNormalizeBackfills verifies a sparse persisted document is repaired
// on load.
func TestNormalizeBackfills(t *testing.T) {
	sheet := NewSheet("varsity")
	sheet.Dates = []string{"2024-01-01", "2024-01-08"}
	a := AddAthlete(sheet, "Ada", "Lovelace", "open")
	// Simulate a partial document: drop one entry, add a stray one.
	delete(sheet.Records[a.ID], "2024-01-08")
	sheet.Records["ghost"] = map[string]bool{"2024-01-01": true}

	Normalize(sheet)

	if _, ok := sheet.Records[a.ID]["2024-01-08"]; !ok {
		t.Error("missing entry not backfilled")
	}
	if _, ok := sheet.Records["ghost"]; ok {
		t.Error("off-roster record entry survived normalize")
	}
}
