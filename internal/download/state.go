package download

import "fmt"

// TransitionEvent drives the tracked download state machine.
type TransitionEvent string

const (
	// EventBlocked records that the download needs a human decision.
	EventBlocked TransitionEvent = "blocked"
	// EventReadyToImport records that the download is resolved and complete.
	EventReadyToImport TransitionEvent = "ready_to_import"
	// EventImportStarted records that an import attempt has begun.
	EventImportStarted TransitionEvent = "import_started"
	// EventImportRetry puts a failed import attempt back in the queue.
	EventImportRetry TransitionEvent = "import_retry"
	// EventImported records a verified successful import.
	EventImported TransitionEvent = "imported"
)

// Effect is a side effect the caller must carry out after an accepted
// transition. Emitting effects here, once per transition, is what keeps
// notifications from firing on every polling cycle.
type Effect int

const (
	EffectNone Effect = iota
	// EffectNotifyManualInteraction publishes the manual-interaction event,
	// subject to the tracked download's notified-once flag.
	EffectNotifyManualInteraction
	// EffectPublishCompletion publishes the download-completed event.
	EffectPublishCompletion
)

// Transition is the single place tracked download states change. It returns
// the new state and the side effect the caller owes; an invalid pairing
// returns an error and leaves the caller's state untouched.
//
// Imported is terminal: no event moves a download out of it, so a download
// can never regress and be imported twice. The only route into Imported is
// ImportPending -> Importing -> Imported.
func Transition(current State, ev TransitionEvent) (State, Effect, error) {
	switch current {
	case StateDownloading:
		switch ev {
		case EventBlocked:
			return StateImportBlocked, EffectNotifyManualInteraction, nil
		case EventReadyToImport:
			return StateImportPending, EffectNone, nil
		}

	case StateImportBlocked:
		switch ev {
		case EventBlocked:
			// Still blocked on the next cycle; the notification already went out.
			return StateImportBlocked, EffectNone, nil
		case EventReadyToImport:
			return StateImportPending, EffectNone, nil
		}

	case StateImportPending:
		switch ev {
		case EventImportStarted:
			return StateImporting, EffectNone, nil
		case EventBlocked:
			return StateImportBlocked, EffectNotifyManualInteraction, nil
		}

	case StateImporting:
		switch ev {
		case EventImported:
			return StateImported, EffectPublishCompletion, nil
		case EventImportRetry:
			return StateImportPending, EffectNone, nil
		case EventBlocked:
			return StateImportBlocked, EffectNotifyManualInteraction, nil
		}

	case StateImported:
		// Terminal.
	}

	return current, EffectNone, fmt.Errorf("invalid transition %s -> %s: %w", current, ev, ErrInvalidTransition)
}

// Apply runs Transition against the tracked download and mutates its state
// on success.
func (t *TrackedDownload) Apply(ev TransitionEvent) (Effect, error) {
	next, effect, err := Transition(t.State, ev)
	if err != nil {
		return EffectNone, err
	}
	t.State = next
	return effect, nil
}
