package models

// AttendanceRow is one athlete line on a team's attendance sheet. The id
// is generated when the row is added and is unrelated to sign-in identity;
// coaches track athletes who may never have an account.
type AttendanceRow struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Level     string `json:"level,omitempty"`
}

// AttendanceSheet is the per-team athlete×date presence matrix, persisted
// as a single document and replaced whole on save.
//
// Structural invariants, preserved by every edit:
//   - every (athlete, date) pair in the row/date lists has an entry in
//     Records, defaulting to false when newly added
//   - date keys are unique within the sheet
type AttendanceSheet struct {
	Team     string                     `json:"team"`
	Dates    []string                   `json:"dates"`
	Athletes []AttendanceRow            `json:"athletes"`
	Records  map[string]map[string]bool `json:"records"`
}

// HasDate reports whether the date key is already on the sheet.
func (s *AttendanceSheet) HasDate(date string) bool {
	for _, d := range s.Dates {
		if d == date {
			return true
		}
	}
	return false
}

// HasAthlete reports whether a roster row with the given id exists.
func (s *AttendanceSheet) HasAthlete(athleteID string) bool {
	for _, row := range s.Athletes {
		if row.ID == athleteID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the sheet. Edits stay local until a save
// round-trip confirms, so callers copy before mutating shared state.
func (s *AttendanceSheet) Clone() *AttendanceSheet {
	out := &AttendanceSheet{
		Team:     s.Team,
		Dates:    append([]string(nil), s.Dates...),
		Athletes: append([]AttendanceRow(nil), s.Athletes...),
		Records:  make(map[string]map[string]bool, len(s.Records)),
	}
	for id, marks := range s.Records {
		m := make(map[string]bool, len(marks))
		for d, v := range marks {
			m[d] = v
		}
		out.Records[id] = m
	}
	return out
}
