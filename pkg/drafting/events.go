package drafting

type (
	// Sent once per command with the number of work items.
	EventSetTotal int

	// Sent when a work item has started.
	EventStarted string

	// Sent when a work item has finished, successfully or not.
	EventFinished struct {
		Err  error
		Name string
	}

	// Sent when a work item was passed over.
	EventSkipped struct {
		Name   string
		Reason string
	}

	// Sent when all work has completed.
	EventDone struct {
		Err error
	}
)
