// Package detector decides from an availability history whether the latest
// sample is a transition worth telling someone about.
package detector

import (
	"github.com/jonesrussell/north-cloud/restock/internal/availability"
	"github.com/jonesrussell/north-cloud/restock/internal/domain"
)

// Kind classifies a decision.
type Kind int

const (
	NoTransition Kind = iota
	Transition
	NotifyAvailable
	NotifyBackorder
)

func (k Kind) String() string {
	switch k {
	case NoTransition:
		return "no_transition"
	case Transition:
		return "transition"
	case NotifyAvailable:
		return "notify_available"
	case NotifyBackorder:
		return "notify_backorder"
	default:
		return "unknown"
	}
}

// Decision is the detector's verdict. From, To and RecordID are set for
// every kind except NoTransition.
type Decision struct {
	Kind Kind
	From availability.Code
	To   availability.Code
	// RecordID is the ID of the newest sample, the one that changed. It
	// identifies this transition among later ones of the same kind.
	RecordID int64
}

// Notify reports whether the decision calls for a notification.
func (d Decision) Notify() bool {
	return d.Kind == NotifyAvailable || d.Kind == NotifyBackorder
}

// Evaluate compares the two newest samples of history, which must be ordered
// oldest first. A change to Available or Backorder asks for a notification;
// any other change is a plain transition.
func Evaluate(history []domain.AvailabilityRecord) Decision {
	if len(history) < 2 {
		return Decision{Kind: NoTransition}
	}

	latest := history[len(history)-1]
	newest := latest.Code
	previous := history[len(history)-2].Code
	if newest == previous {
		return Decision{Kind: NoTransition}
	}

	d := Decision{Kind: Transition, From: previous, To: newest, RecordID: latest.ID}
	switch newest {
	case availability.Available:
		d.Kind = NotifyAvailable
	case availability.Backorder:
		d.Kind = NotifyBackorder
	}
	return d
}
