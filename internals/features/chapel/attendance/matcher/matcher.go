// Package matcher classifies raw scan rows against a level roster. It is a
// pure function: same roster + same rows always produce the same output, which
// is what makes the preview/confirm split safe.
package matcher

import (
	"strings"

	"github.com/google/uuid"

	"chapelku_backend/internals/features/chapel/attendance/dto"
)

const (
	ReasonNoRosterEntry       = "no_roster_entry"
	ReasonAmbiguousIdentifier = "ambiguous_identifier"
	ReasonMalformedRow        = "malformed_row"
)

// identifier fields probed on each raw row, in order
var identifierFields = []string{"matric_number", "matric", "identifier"}

type RosterEntry struct {
	StudentID    uuid.UUID
	MatricNumber string
	Name         string
	Level        int
	Gender       string
}

type Result struct {
	Matched   []dto.AbsenteeRecord
	Unmatched []dto.UnmatchedRow
	Absent    []dto.AbsenteeRecord
}

// Match resolves each raw row to exactly one roster entry or marks it
// unmatched with a reason. It never guesses: identifiers shared by more than
// one roster entry are ambiguous, full stop. The absentee set is the roster
// minus everyone matched, in roster order.
func Match(roster []RosterEntry, rows []map[string]string) Result {
	index := make(map[string][]int, len(roster))
	for i, entry := range roster {
		key := Normalize(entry.MatricNumber)
		index[key] = append(index[key], i)
	}

	res := Result{
		Matched:   []dto.AbsenteeRecord{},
		Unmatched: []dto.UnmatchedRow{},
		Absent:    []dto.AbsenteeRecord{},
	}
	matchedRoster := make(map[int]bool, len(roster))

	for _, row := range rows {
		id, ok := rowIdentifier(row)
		if !ok {
			res.Unmatched = append(res.Unmatched, dto.UnmatchedRow{Row: row, Reason: ReasonMalformedRow})
			continue
		}
		candidates := index[Normalize(id)]
		switch len(candidates) {
		case 0:
			res.Unmatched = append(res.Unmatched, dto.UnmatchedRow{Row: row, Reason: ReasonNoRosterEntry})
		case 1:
			i := candidates[0]
			if !matchedRoster[i] {
				matchedRoster[i] = true
				res.Matched = append(res.Matched, toRecord(roster[i]))
			}
		default:
			res.Unmatched = append(res.Unmatched, dto.UnmatchedRow{Row: row, Reason: ReasonAmbiguousIdentifier})
		}
	}

	for i, entry := range roster {
		if !matchedRoster[i] {
			res.Absent = append(res.Absent, toRecord(entry))
		}
	}
	return res
}

// Normalize is the canonical identifier form: trimmed, lowercased.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// UniqueID is the stable dedup identity carried in every document entry.
func UniqueID(studentID uuid.UUID) string { return studentID.String() }

func rowIdentifier(row map[string]string) (string, bool) {
	for _, f := range identifierFields {
		if v, ok := row[f]; ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}

func toRecord(e RosterEntry) dto.AbsenteeRecord {
	return dto.AbsenteeRecord{
		StudentID:    e.StudentID,
		MatricNumber: e.MatricNumber,
		StudentName:  e.Name,
		Level:        e.Level,
		Gender:       e.Gender,
		UniqueID:     UniqueID(e.StudentID),
	}
}
