package reconcile

import (
	"log"
	"strings"
	"time"

	"github.com/cheggaaa/pb"
	"golang.org/x/exp/slices"

	"github.com/exaybachay-ak/CISA-KEV-Notifications/config"
	"github.com/exaybachay-ak/CISA-KEV-Notifications/kev"
	"github.com/exaybachay-ak/CISA-KEV-Notifications/ledger"
	"github.com/exaybachay-ak/CISA-KEV-Notifications/scope"
)

// Reconcile merges the fetched records into the ledger, classifies every
// record that has not been notified yet, and collects the batch to notify.
// Records are processed in ascending dateAdded order (ties broken by CVE
// ID), which fixes the order entries appear in the batched notification.
// The second return value reports whether the ledger changed: a previously
// unseen identity was tracked or a record was marked sent.
//
// Records already marked sent are terminal and are never re-evaluated.
// Excluded and out-of-scope records stay unsent and are classified again on
// every run against the then-current config, so terms added later notify
// about older entries.
func Reconcile(records []kev.Vulnerability, cfg config.Config, led *ledger.Ledger, now time.Time) ([]kev.Vulnerability, bool) {
	sorted := make([]kev.Vulnerability, len(records))
	copy(sorted, records)
	slices.SortFunc(sorted, func(a, b kev.Vulnerability) int {
		if c := a.DateAdded.Compare(b.DateAdded); c != 0 {
			return c
		}
		return strings.Compare(a.CveID, b.CveID)
	})

	var toNotify []kev.Vulnerability
	var changed bool
	var skipped int

	bar := pb.StartNew(len(sorted))
	for _, v := range sorted {
		if led.Track(v.CveID) {
			changed = true
		}
		if led.Lookup(v.CveID).Sent {
			skipped++
			bar.Increment()
			continue
		}

		if scope.Classify(v, cfg) == scope.InScope {
			toNotify = append(toNotify, v)
			if led.MarkSent(v.CveID, now) {
				changed = true
			}
		}
		bar.Increment()
	}
	bar.Finish()

	if skipped > 0 {
		log.Printf("skipped %d already-notified entries", skipped)
	}
	return toNotify, changed
}
