package engine

// Observer receives entity notifications for one engine. Calls are synchronous
// and happen after the change is committed.
type Observer interface {
	// SessionStarted is called with fresh entities when the engine starts or restarts
	SessionStarted(m *GameManager)
	PlayerMoved(from, to Position)
	PlayerFacingChanged(old, new Direction)
	BoxMoved(index int, from, to Position)
	BoxStateChanged(index int, old, new BoxState)
}

// EventType names an entity notification
type EventType string

const (
	EventSessionStarted EventType = "session_started"
	EventPlayerMoved    EventType = "player_moved"
	EventPlayerFacing   EventType = "player_facing"
	EventBoxMoved       EventType = "box_moved"
	EventBoxState       EventType = "box_state"
)

// Event is a recorded entity notification. Box is -1 for player and session events.
type Event struct {
	Type   EventType `json:"type"`
	Box    int       `json:"box"`
	From   Position  `json:"from"`
	To     Position  `json:"to"`
	Facing Direction `json:"facing,omitempty"`
	State  BoxState  `json:"state,omitempty"`
}

// EventRecorder buffers notifications until drained
type EventRecorder struct {
	events []Event
}

// Drain returns the buffered events and empties the buffer
func (r *EventRecorder) Drain() []Event {
	events := r.events
	r.events = nil
	return events
}

func (r *EventRecorder) SessionStarted(m *GameManager) {
	p := m.Player().Position()
	r.events = append(r.events, Event{Type: EventSessionStarted, Box: -1, From: p, To: p, Facing: m.Player().Facing()})
}

func (r *EventRecorder) PlayerMoved(from, to Position) {
	r.events = append(r.events, Event{Type: EventPlayerMoved, Box: -1, From: from, To: to})
}

func (r *EventRecorder) PlayerFacingChanged(old, new Direction) {
	r.events = append(r.events, Event{Type: EventPlayerFacing, Box: -1, Facing: new})
}

func (r *EventRecorder) BoxMoved(index int, from, to Position) {
	r.events = append(r.events, Event{Type: EventBoxMoved, Box: index, From: from, To: to})
}

func (r *EventRecorder) BoxStateChanged(index int, old, new BoxState) {
	r.events = append(r.events, Event{Type: EventBoxState, Box: index, State: new})
}

// subscribe wires an observer to the manager's current entities
func subscribe(m *GameManager, o Observer) {
	m.Player().OnMoved(o.PlayerMoved)
	m.Player().OnFacingChanged(o.PlayerFacingChanged)
	for _, b := range m.Boxes() {
		idx := b.Index()
		b.OnMoved(func(from, to Position) { o.BoxMoved(idx, from, to) })
		b.OnStateChanged(func(old, new BoxState) { o.BoxStateChanged(idx, old, new) })
	}
	o.SessionStarted(m)
}
