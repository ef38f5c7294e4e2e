package attrs

// Subscribe registers fn under name. A second subscription with the same
// name replaces the first but keeps its position.
func (s *Store) Subscribe(name string, fn func(Change)) {
	for i := range s.subs {
		if s.subs[i].name == name {
			s.subs[i].fn = fn
			return
		}
	}
	s.subs = append(s.subs, subscription{name: name, fn: fn})
}

// Unsubscribe removes the named subscription and reports whether it existed.
func (s *Store) Unsubscribe(name string) bool {
	for i := range s.subs {
		if s.subs[i].name == name {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Subscribers returns subscription names in registration order.
func (s *Store) Subscribers() []string {
	names := make([]string, len(s.subs))
	for i, sub := range s.subs {
		names[i] = sub.name
	}
	return names
}

// notify runs on a copy so callbacks may unsubscribe themselves.
func (s *Store) notify(c Change) {
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	for _, sub := range subs {
		sub.fn(c)
	}
}
