package ledger

import (
	"log"
	"time"
)

// State is what the ledger knows about one record's notification history.
// SentAt is non-nil if and only if Sent is true; absence is nil, never a
// zero date.
type State struct {
	Sent   bool       `json:"sent"`
	SentAt *time.Time `json:"sentAt,omitempty"`
}

// Entry pairs a CVE identifier with its state for persistence.
type Entry struct {
	CveID  string     `json:"cveID"`
	Sent   bool       `json:"sent"`
	SentAt *time.Time `json:"sentAt,omitempty"`
}

// Ledger maps CVE identifiers to notification state, preserving the order
// in which identities were first seen. A run has exactly one owner mutating
// it; the ledger itself does no locking.
type Ledger struct {
	states map[string]State
	order  []string
}

func New() *Ledger {
	return &Ledger{states: map[string]State{}}
}

func FromEntries(entries []Entry) *Ledger {
	l := New()
	for _, e := range entries {
		if _, ok := l.states[e.CveID]; ok {
			continue
		}
		l.states[e.CveID] = State{Sent: e.Sent, SentAt: e.SentAt}
		l.order = append(l.order, e.CveID)
	}
	return l
}

// Track records a CVE identity on first sight with a default unsent state
// and reports whether the identity was previously unseen.
func (l *Ledger) Track(cveID string) bool {
	if _, ok := l.states[cveID]; ok {
		return false
	}
	l.states[cveID] = State{}
	l.order = append(l.order, cveID)
	return true
}

// Lookup returns the known state for cveID, or a default unsent state for
// an unseen identity. It never inserts.
func (l *Ledger) Lookup(cveID string) State {
	return l.states[cveID]
}

// MarkSent transitions cveID to sent at the given time and reports whether
// the state changed. Marking an already-sent record is a no-op: SentAt
// never moves once set.
func (l *Ledger) MarkSent(cveID string, at time.Time) bool {
	state, ok := l.states[cveID]
	if !ok {
		l.order = append(l.order, cveID)
	} else if state.Sent {
		log.Printf("%s already marked sent at %s, ignoring", cveID, state.SentAt)
		return false
	}

	at = at.UTC()
	l.states[cveID] = State{Sent: true, SentAt: &at}
	return true
}

// Snapshot returns every tracked entry in first-seen order.
func (l *Ledger) Snapshot() []Entry {
	entries := make([]Entry, 0, len(l.order))
	for _, id := range l.order {
		state := l.states[id]
		entries = append(entries, Entry{CveID: id, Sent: state.Sent, SentAt: state.SentAt})
	}
	return entries
}

func (l *Ledger) Len() int {
	return len(l.order)
}
