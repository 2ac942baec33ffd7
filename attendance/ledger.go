/*
ledger.go - Append-only attendance ledger

CRITICAL INVARIANTS:
  1. APPEND-ONLY: entries are never modified or removed.
  2. BOUND: every entry's (PersonID, PersonType) resolved to exactly one
     existing person in the implied category when it was written.
  3. ELIGIBLE: PersonType is Student or Teacher. Tutors and
     administrators have no attendance.

REGISTER FLOW:
  1. Reject ineligible types (InvalidArgument)
  2. Resolve the person (NotFound)
  3. Build the record with ledger-local id = len(ledger) + 1
  4. Append and save the full snapshot
  5. Return the record

HISTORY:
  History resolves the person first. An unknown person is NotFound; a
  known person without entries gets an empty slice.
*/
package attendance

import "context"

// Register appends an attendance entry for the person (pt, personID).
//
// On ErrStorageWrite the returned record is the one that would have been
// stored; it was not persisted.
func (r *Registry) Register(ctx context.Context, pt PersonType, personID int, date, status string) (AttendanceRecord, error) {
	if !pt.AttendanceEligible() {
		return AttendanceRecord{}, &InvalidArgumentError{Field: "personType", Value: pt, Reason: "must be Student or Teacher"}
	}

	var created AttendanceRecord
	err := r.mutate(ctx, "register attendance", func(s Snapshot) (Snapshot, error) {
		if _, err := Resolve(s, pt, personID); err != nil {
			return s, err
		}
		next, rec := s.WithAttendance(AttendanceRecord{
			PersonID:   personID,
			PersonType: pt,
			Date:       date,
			Status:     status,
		})
		created = rec
		return next, nil
	})
	if err != nil {
		return created, err
	}

	r.logger.InfoContext(ctx, "attendance registered",
		"id", created.ID, "person_type", pt, "person_id", personID, "date", date, "status", status)
	return created, nil
}

// History returns the entries of one person in ledger order.
func (r *Registry) History(ctx context.Context, pt PersonType, personID int) ([]AttendanceRecord, error) {
	s := r.read(ctx)
	if _, err := Resolve(s, pt, personID); err != nil {
		return nil, err
	}
	return historyOf(s.Attendance, pt, personID), nil
}

// historyOf filters ledger on both person id and type.
func historyOf(ledger []AttendanceRecord, pt PersonType, personID int) []AttendanceRecord {
	out := []AttendanceRecord{}
	for _, rec := range ledger {
		if rec.PersonID != personID {
			continue
		}
		// Stored types are compared through the parser so that entries
		// written with a different casing or label still match.
		stored, err := ParsePersonType(string(rec.PersonType))
		if err != nil || stored != pt {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// ListAttendance returns the whole ledger in insertion order.
func (r *Registry) ListAttendance(ctx context.Context) []AttendanceRecord {
	return r.read(ctx).Attendance
}
