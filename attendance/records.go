package attendance

import "context"

// AddPerson inserts a person of type pt with the next category-local id.
func (r *Registry) AddPerson(ctx context.Context, pt PersonType, attrs Attributes) (Person, error) {
	if !pt.Valid() {
		return Person{}, &InvalidArgumentError{Field: "personType", Value: pt, Reason: "unknown person type"}
	}
	var created Person
	err := r.mutate(ctx, "add "+string(pt.Category()), func(s Snapshot) (Snapshot, error) {
		next, p := s.WithPerson(pt, attrs)
		created = p
		return next, nil
	})
	return created, err
}

// ListPeople returns every person of type pt in insertion order.
func (r *Registry) ListPeople(ctx context.Context, pt PersonType) ([]Person, error) {
	if !pt.Valid() {
		return nil, &InvalidArgumentError{Field: "personType", Value: pt, Reason: "unknown person type"}
	}
	return r.read(ctx).People(pt), nil
}

// AddEvent inserts an event with the next event id.
func (r *Registry) AddEvent(ctx context.Context, attrs Attributes) (Event, error) {
	var created Event
	err := r.mutate(ctx, "add events", func(s Snapshot) (Snapshot, error) {
		next, e := s.WithEvent(attrs)
		created = e
		return next, nil
	})
	return created, err
}

func (r *Registry) ListEvents(ctx context.Context) []Event {
	return r.read(ctx).Events
}
