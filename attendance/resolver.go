package attendance

// Resolve locates the person of type pt whose category-local id equals id.
//
// Only attendance-eligible types resolve; any other type is an
// InvalidArgumentError rather than a miss. If a category ever holds
// duplicate ids the first match in insertion order wins.
func Resolve(s Snapshot, pt PersonType, id int) (Person, error) {
	if !pt.AttendanceEligible() {
		return Person{}, &InvalidArgumentError{Field: "personType", Value: pt, Reason: "must be Student or Teacher"}
	}
	for _, p := range s.People(pt) {
		if p.ID == id {
			return p, nil
		}
	}
	return Person{}, &PersonNotFoundError{Type: pt, ID: id}
}
