/*
Package attendance provides the attendance ledger for an institution.

PURPOSE:
  Tracks people (students, teachers, tutors, administrators), events and
  attendance records. Everything except the ledger is a plain create/list
  collection; the ledger binds every entry to a person that resolved at
  the time of registration and feeds the statistics.

KEY CONCEPTS IN THIS FILE (types.go):
  - Category: a named collection inside the Snapshot
  - PersonType: closed set of person kinds, mapped to a Category
  - Person / Event: records with a category-local integer id
  - AttendanceRecord: an immutable ledger entry
  - Snapshot: the complete state of every collection

IDENTIFIERS:
  Ids are assigned as count-of-category + 1 and are only unique inside
  their own category. Student 1 and Teacher 1 are different people.
  Resolution always uses this id; external identifiers (a student number,
  a staff code) may be stored as attributes but never resolve a person.

SEE ALSO:
  - store.go: Store interface and the Registry's load/mutate/save cycle with single-writer discipline
  - resolver.go: (PersonType, id) -> Person
  - ledger.go: Register and History
  - stats.go: Summary over the ledger
*/
package attendance

import (
	"encoding/json"
	"strings"
)

// =============================================================================
// CATEGORY - Named collections in the snapshot
// =============================================================================

type Category string

const (
	CategoryStudents       Category = "students"
	CategoryTeachers       Category = "teachers"
	CategoryTutors         Category = "tutors"
	CategoryAdministrators Category = "administrators"
	CategoryEvents         Category = "events"
	CategoryAttendance     Category = "attendance"
)

// =============================================================================
// PERSON TYPE - Closed enumeration
// =============================================================================

type PersonType string

const (
	Student       PersonType = "Student"
	Teacher       PersonType = "Teacher"
	Tutor         PersonType = "Tutor"
	Administrator PersonType = "Administrator"
)

// PersonTypes lists every person type in display order.
var PersonTypes = []PersonType{Student, Teacher, Tutor, Administrator}

// personTypeInfo is the lookup table behind every PersonType decision.
type personTypeInfo struct {
	category  Category
	hasStatus bool // students and teachers carry Active/Inactive
	attends   bool // eligible for attendance registration
}

var personTypeTable = map[PersonType]personTypeInfo{
	Student:       {category: CategoryStudents, hasStatus: true, attends: true},
	Teacher:       {category: CategoryTeachers, hasStatus: true, attends: true},
	Tutor:         {category: CategoryTutors},
	Administrator: {category: CategoryAdministrators},
}

// personTypeAliases maps lowercased labels to their PersonType. The Spanish
// labels are accepted for data created by the earlier deployment.
var personTypeAliases = map[string]PersonType{
	"student":        Student,
	"students":       Student,
	"estudiante":     Student,
	"teacher":        Teacher,
	"teachers":       Teacher,
	"profesor":       Teacher,
	"tutor":          Tutor,
	"tutors":         Tutor,
	"administrator":  Administrator,
	"administrators": Administrator,
	"admin":          Administrator,
	"admins":         Administrator,
	"administrador":  Administrator,
}

// ParsePersonType parses a label case-insensitively.
// Unknown labels yield an InvalidArgumentError.
func ParsePersonType(s string) (PersonType, error) {
	if pt, ok := personTypeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return pt, nil
	}
	return "", &InvalidArgumentError{Field: "personType", Value: s, Reason: "unknown person type"}
}

// Valid reports whether pt is one of the enumerated person types.
func (pt PersonType) Valid() bool {
	_, ok := personTypeTable[pt]
	return ok
}

// Category returns the collection backing pt, or "" for an unknown type.
func (pt PersonType) Category() Category {
	return personTypeTable[pt].category
}

// AttendanceEligible reports whether attendance may be registered for pt.
func (pt PersonType) AttendanceEligible() bool {
	return personTypeTable[pt].attends
}

func (pt PersonType) hasStatus() bool {
	return personTypeTable[pt].hasStatus
}

// =============================================================================
// PERSON / EVENT
// =============================================================================

type PersonStatus string

const (
	StatusActive   PersonStatus = "Active"
	StatusInactive PersonStatus = "Inactive"
)

// Attributes are the free-form fields supplied when a record is created.
type Attributes map[string]any

// Person is a student, teacher, tutor or administrator.
// Status is nil for tutors and administrators.
type Person struct {
	ID         int
	Status     *PersonStatus
	Attributes Attributes
}

// Event is a scheduled institutional event.
type Event struct {
	ID         int
	Attributes Attributes
}

// Reserved keys cannot be supplied as attributes; they belong to the record.
var reservedKeys = []string{"id", "status"}

// sanitize copies attrs without the reserved keys.
func (a Attributes) sanitize() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	for _, k := range reservedKeys {
		delete(out, k)
	}
	return out
}

// MarshalJSON flattens attributes next to id and status:
//
//	{"id":1,"name":"Ana","status":"Active"}
func (p Person) MarshalJSON() ([]byte, error) {
	flat := p.Attributes.sanitize()
	flat["id"] = p.ID
	if p.Status != nil {
		flat["status"] = *p.Status
	}
	return json.Marshal(flat)
}

func (p *Person) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID     int           `json:"id"`
		Status *PersonStatus `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var attrs Attributes
	if err := json.Unmarshal(data, &attrs); err != nil {
		return err
	}
	*p = Person{ID: raw.ID, Status: raw.Status, Attributes: attrs.sanitize()}
	return nil
}

func (e Event) MarshalJSON() ([]byte, error) {
	flat := e.Attributes.sanitize()
	flat["id"] = e.ID
	return json.Marshal(flat)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var attrs Attributes
	if err := json.Unmarshal(data, &attrs); err != nil {
		return err
	}
	*e = Event{ID: raw.ID, Attributes: attrs.sanitize()}
	return nil
}

// =============================================================================
// ATTENDANCE RECORD - Immutable ledger entry
// =============================================================================

const (
	Justified   = "Justified"
	Unjustified = "Unjustified"
)

// AttendanceRecord is one dated entry in the ledger.
// Once appended it is never modified or removed.
type AttendanceRecord struct {
	ID         int        `json:"id"`
	PersonID   int        `json:"personId"`
	PersonType PersonType `json:"personType"`
	Date       string     `json:"date"`
	Status     string     `json:"status"`
}

// =============================================================================
// SNAPSHOT - Complete state of every collection
// =============================================================================

// Snapshot is a value: mutations go through With* methods, which return a
// new Snapshot and leave the receiver untouched.
type Snapshot struct {
	Students       []Person           `json:"students"`
	Teachers       []Person           `json:"teachers"`
	Tutors         []Person           `json:"tutors"`
	Administrators []Person           `json:"administrators"`
	Events         []Event            `json:"events"`
	Attendance     []AttendanceRecord `json:"attendance"`
}

// EmptySnapshot is the default state when nothing has been persisted.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Students:       []Person{},
		Teachers:       []Person{},
		Tutors:         []Person{},
		Administrators: []Person{},
		Events:         []Event{},
		Attendance:     []AttendanceRecord{},
	}
}

// Normalize replaces nil collections with empty ones so a partially
// populated document behaves like the default.
func (s Snapshot) Normalize() Snapshot {
	if s.Students == nil {
		s.Students = []Person{}
	}
	if s.Teachers == nil {
		s.Teachers = []Person{}
	}
	if s.Tutors == nil {
		s.Tutors = []Person{}
	}
	if s.Administrators == nil {
		s.Administrators = []Person{}
	}
	if s.Events == nil {
		s.Events = []Event{}
	}
	if s.Attendance == nil {
		s.Attendance = []AttendanceRecord{}
	}
	return s
}

// People returns the collection for pt. Callers must not mutate it.
func (s Snapshot) People(pt PersonType) []Person {
	switch pt.Category() {
	case CategoryStudents:
		return s.Students
	case CategoryTeachers:
		return s.Teachers
	case CategoryTutors:
		return s.Tutors
	case CategoryAdministrators:
		return s.Administrators
	}
	return nil
}

// withPeople returns a copy of s whose collection for pt is people.
func (s Snapshot) withPeople(pt PersonType, people []Person) Snapshot {
	switch pt.Category() {
	case CategoryStudents:
		s.Students = people
	case CategoryTeachers:
		s.Teachers = people
	case CategoryTutors:
		s.Tutors = people
	case CategoryAdministrators:
		s.Administrators = people
	}
	return s
}

// WithPerson appends a new person of type pt and returns the new snapshot
// together with the stored record.
func (s Snapshot) WithPerson(pt PersonType, attrs Attributes) (Snapshot, Person) {
	existing := s.People(pt)
	p := Person{ID: len(existing) + 1, Attributes: attrs.sanitize()}
	if pt.hasStatus() {
		active := StatusActive
		p.Status = &active
	}
	return s.withPeople(pt, appendCopy(existing, p)), p
}

// WithEvent appends a new event.
func (s Snapshot) WithEvent(attrs Attributes) (Snapshot, Event) {
	e := Event{ID: len(s.Events) + 1, Attributes: attrs.sanitize()}
	s.Events = appendCopy(s.Events, e)
	return s, e
}

// WithAttendance appends rec to the ledger, assigning its ledger-local id.
func (s Snapshot) WithAttendance(rec AttendanceRecord) (Snapshot, AttendanceRecord) {
	rec.ID = len(s.Attendance) + 1
	s.Attendance = appendCopy(s.Attendance, rec)
	return s, rec
}

// appendCopy appends v to a fresh backing array so that snapshots never
// share writable storage.
func appendCopy[T any](xs []T, v T) []T {
	out := make([]T, len(xs), len(xs)+1)
	copy(out, xs)
	return append(out, v)
}
