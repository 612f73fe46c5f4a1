package event

// Subscription is the handle returned by Hub.Listen.
type Subscription struct {
	hub       *Hub
	ids       []uint64
	cancelled bool
}

// Cancel removes the subscriptions created by Listen. It is safe to call more
// than once.
func (s *Subscription) Cancel() {
	if s == nil || s.cancelled {
		return
	}
	s.cancelled = true
	for name := range s.hub.events {
		for _, id := range s.ids {
			s.hub.removeID(name, id)
		}
	}
}

// Active reports whether Cancel has not been called yet.
func (s *Subscription) Active() bool {
	return s != nil && !s.cancelled
}
