package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exaybachay-ak/CISA-KEV-Notifications/ledger"
)

func TestTrack(t *testing.T) {
	l := ledger.New()

	assert.True(t, l.Track("CVE-2021-0001"))
	assert.False(t, l.Track("CVE-2021-0001"))
	assert.Equal(t, 1, l.Len())

	state := l.Lookup("CVE-2021-0001")
	assert.False(t, state.Sent)
	assert.Nil(t, state.SentAt)
}

func TestLookupUnseen(t *testing.T) {
	l := ledger.New()

	state := l.Lookup("CVE-2021-9999")
	assert.False(t, state.Sent)
	assert.Nil(t, state.SentAt)
	assert.Equal(t, 0, l.Len(), "Lookup must not insert")
}

func TestMarkSent(t *testing.T) {
	now := time.Date(2021, 12, 10, 12, 0, 0, 0, time.UTC)
	later := now.Add(24 * time.Hour)

	l := ledger.New()
	l.Track("CVE-2021-0001")

	assert.True(t, l.MarkSent("CVE-2021-0001", now))

	state := l.Lookup("CVE-2021-0001")
	assert.True(t, state.Sent)
	require.NotNil(t, state.SentAt)
	assert.Equal(t, now, *state.SentAt)

	// sent is terminal: a second mark never moves SentAt
	assert.False(t, l.MarkSent("CVE-2021-0001", later))
	state = l.Lookup("CVE-2021-0001")
	assert.True(t, state.Sent)
	assert.Equal(t, now, *state.SentAt)
}

func TestMarkSentUntracked(t *testing.T) {
	now := time.Date(2021, 12, 10, 12, 0, 0, 0, time.UTC)

	l := ledger.New()
	assert.True(t, l.MarkSent("CVE-2021-0001", now))
	assert.Equal(t, 1, l.Len())
	assert.True(t, l.Lookup("CVE-2021-0001").Sent)
}

func TestSnapshotOrder(t *testing.T) {
	now := time.Date(2021, 12, 10, 12, 0, 0, 0, time.UTC)

	l := ledger.New()
	l.Track("CVE-2021-0002")
	l.Track("CVE-2021-0001")
	l.Track("CVE-2021-0003")
	l.MarkSent("CVE-2021-0001", now)

	entries := l.Snapshot()
	require.Len(t, entries, 3)
	assert.Equal(t, "CVE-2021-0002", entries[0].CveID)
	assert.Equal(t, "CVE-2021-0001", entries[1].CveID)
	assert.Equal(t, "CVE-2021-0003", entries[2].CveID)

	assert.False(t, entries[0].Sent)
	assert.Nil(t, entries[0].SentAt)
	assert.True(t, entries[1].Sent)
	require.NotNil(t, entries[1].SentAt)
	assert.Equal(t, now, *entries[1].SentAt)
}

func TestFromEntries(t *testing.T) {
	now := time.Date(2021, 12, 10, 12, 0, 0, 0, time.UTC)

	l := ledger.FromEntries([]ledger.Entry{
		{CveID: "CVE-2021-0001", Sent: true, SentAt: &now},
		{CveID: "CVE-2021-0002"},
		{CveID: "CVE-2021-0001"}, // duplicate identities keep the first state
	})

	assert.Equal(t, 2, l.Len())
	assert.True(t, l.Lookup("CVE-2021-0001").Sent)
	assert.False(t, l.Lookup("CVE-2021-0002").Sent)
}
