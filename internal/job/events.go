package job

// Event types.
const (
	EventJobStarted   = "job_started"
	EventJobCompleted = "job_completed"
	EventJobFailed    = "job_failed"
)

const subscriberBuffer = 32

// Event reports a job status change.
type Event struct {
	Type string `json:"type"`
	Job  Job    `json:"job"`
}

// Subscribe returns a channel of job events and a func that ends the
// subscription. A subscriber that falls behind misses events rather than
// stalling workers.
func (s *Service) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (s *Service) publish(typ string, j Job) {
	ev := Event{Type: typ, Job: j}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
