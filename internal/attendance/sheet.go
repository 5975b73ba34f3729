// Package attendance maintains a team's athlete×date presence matrix.
// Structural edits keep the sheet fully backfilled (every athlete has an
// entry for every date) with unique date keys; the sheet persists as one
// document, saved whole.
package attendance

import (
	"errors"
	"fmt"
	"time"

	"github.com/claude/liftledger/internal/models"
	"github.com/google/uuid"
)

// ErrDuplicateDate is returned by RenameDate when the target date already
// exists elsewhere on the sheet.
var ErrDuplicateDate = errors.New("date already exists on sheet")

// DateKey is the calendar-date key format used on sheets.
const DateKey = "2006-01-02"

// addDateLookahead bounds the forward scan for the next free date.
const addDateLookahead = 14

// NewSheet returns an empty sheet for a team.
func NewSheet(team string) *models.AttendanceSheet {
	return &models.AttendanceSheet{
		Team:    team,
		Records: make(map[string]map[string]bool),
	}
}

// Normalize backfills missing record entries and drops entries for dates
// or athletes no longer on the sheet, restoring the full-matrix invariant
// after server-side edits or partial documents.
func Normalize(sheet *models.AttendanceSheet) {
	if sheet.Records == nil {
		sheet.Records = make(map[string]map[string]bool)
	}
	onSheet := make(map[string]bool, len(sheet.Dates))
	for _, d := range sheet.Dates {
		onSheet[d] = true
	}
	for id := range sheet.Records {
		keep := false
		for _, a := range sheet.Athletes {
			if a.ID == id {
				keep = true
				break
			}
		}
		if !keep {
			delete(sheet.Records, id)
			continue
		}
		for d := range sheet.Records[id] {
			if !onSheet[d] {
				delete(sheet.Records[id], d)
			}
		}
	}
	for _, a := range sheet.Athletes {
		if sheet.Records[a.ID] == nil {
			sheet.Records[a.ID] = make(map[string]bool, len(sheet.Dates))
		}
		for _, d := range sheet.Dates {
			if _, ok := sheet.Records[a.ID][d]; !ok {
				sheet.Records[a.ID][d] = false
			}
		}
	}
}

// AddDate appends the next unused date, scanning forward from today up to
// the lookahead bound and falling back to today when every candidate is
// taken. Every athlete is backfilled with a false entry. Returns the date
// added.
func AddDate(sheet *models.AttendanceSheet, today time.Time) string {
	date := today.Format(DateKey)
	for i := 0; i <= addDateLookahead; i++ {
		candidate := today.AddDate(0, 0, i).Format(DateKey)
		if !sheet.HasDate(candidate) {
			date = candidate
			break
		}
	}
	if sheet.HasDate(date) {
		// Lookahead exhausted; the sheet keeps unique keys, so bail out
		// without duplicating today.
		return date
	}
	sheet.Dates = append(sheet.Dates, date)
	for _, a := range sheet.Athletes {
		ensureRow(sheet, a.ID)[date] = false
	}
	return date
}

// RemoveDate drops the date column and every athlete's entry for it.
func RemoveDate(sheet *models.AttendanceSheet, date string) {
	for i, d := range sheet.Dates {
		if d == date {
			sheet.Dates = append(sheet.Dates[:i], sheet.Dates[i+1:]...)
			break
		}
	}
	for _, marks := range sheet.Records {
		delete(marks, date)
	}
}

// RenameDate moves every athlete's mark from oldDate to newDate,
// preserving values and backfilling false where no entry existed. Fails
// with ErrDuplicateDate when newDate is already a different column.
func RenameDate(sheet *models.AttendanceSheet, oldDate, newDate string) error {
	if oldDate == newDate {
		return nil
	}
	if sheet.HasDate(newDate) {
		return fmt.Errorf("renaming %s to %s: %w", oldDate, newDate, ErrDuplicateDate)
	}
	found := false
	for i, d := range sheet.Dates {
		if d == oldDate {
			sheet.Dates[i] = newDate
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("date %s not on sheet", oldDate)
	}
	for _, a := range sheet.Athletes {
		marks := ensureRow(sheet, a.ID)
		v, ok := marks[oldDate]
		if !ok {
			v = false
		}
		delete(marks, oldDate)
		marks[newDate] = v
	}
	return nil
}

// Toggle flips the presence mark for one athlete on one date.
func Toggle(sheet *models.AttendanceSheet, athleteID, date string) {
	marks := ensureRow(sheet, athleteID)
	marks[date] = !marks[date]
}

// AddAthlete appends a new roster row with a generated id and a false
// entry for every existing date. Returns the new row.
func AddAthlete(sheet *models.AttendanceSheet, first, last, level string) models.AttendanceRow {
	row := models.AttendanceRow{
		ID:        uuid.NewString(),
		FirstName: first,
		LastName:  last,
		Level:     level,
	}
	sheet.Athletes = append(sheet.Athletes, row)
	marks := ensureRow(sheet, row.ID)
	for _, d := range sheet.Dates {
		marks[d] = false
	}
	return row
}

// RemoveAthlete drops the roster row and its entire record map entry.
func RemoveAthlete(sheet *models.AttendanceSheet, athleteID string) {
	for i, a := range sheet.Athletes {
		if a.ID == athleteID {
			sheet.Athletes = append(sheet.Athletes[:i], sheet.Athletes[i+1:]...)
			break
		}
	}
	delete(sheet.Records, athleteID)
}

func ensureRow(sheet *models.AttendanceSheet, athleteID string) map[string]bool {
	if sheet.Records == nil {
		sheet.Records = make(map[string]map[string]bool)
	}
	if sheet.Records[athleteID] == nil {
		sheet.Records[athleteID] = make(map[string]bool)
	}
	return sheet.Records[athleteID]
}
