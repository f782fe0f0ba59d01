package retriever

// EventType discriminates the events emitted while answering a question.
type EventType string

const (
	// EventStatus narrates pipeline progress; zero or more per question.
	EventStatus EventType = "status"

	// EventAnswer carries one generated text fragment, Done=false.
	EventAnswer EventType = "answer"

	// EventDone terminates a successful run with citations and keywords.
	EventDone EventType = "done"

	// EventCancelled terminates a run whose cancellation was observed.
	EventCancelled EventType = "cancelled"

	// EventError terminates a run whose final generation failed.
	EventError EventType = "error"
)

// Source is one deduplicated citation attached to a done event.
type Source struct {
	Filename   string  `json:"filename"`
	Number     int64   `json:"page"`
	Similarity float64 `json:"similarity"`
	Label      string  `json:"label"`
	Section    string  `json:"section"`
}

// Event is one element of the answer stream. Exactly one terminal event
// (done, cancelled or error) is produced per invocation; Done is set on
// exactly that event.
type Event struct {
	Type        EventType `json:"type"`
	Content     string    `json:"content,omitempty"`
	Done        bool      `json:"done"`
	Sources     []Source  `json:"sources,omitempty"`
	Keywords    []string  `json:"keywords,omitempty"`
	FoundInDocs bool      `json:"found_in_docs"`
}

// IsTerminal reports whether no further events follow this one.
func (e Event) IsTerminal() bool {
	switch e.Type {
	case EventDone, EventCancelled, EventError:
		return true
	}
	return false
}
