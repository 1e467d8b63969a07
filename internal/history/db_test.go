package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_WALMode(t *testing.T) {
	db := openTest(t)

	var journalMode string
	require.NoError(t, db.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Append(Entry{Kind: KindCheckinManual}))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	entries, err := db.Recent(10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAppendAndRecent(t *testing.T) {
	db := openTest(t)
	at := time.Date(2026, 2, 3, 4, 5, 6, 789, time.UTC)

	require.NoError(t, db.Append(Entry{At: at, Kind: KindRequestSent, Channel: "email"}))
	require.NoError(t, db.Append(Entry{At: at.Add(time.Minute), Kind: KindRecipientResult,
		Channel: "discord", Recipient: "discord:42", Detail: "success"}))
	require.NoError(t, db.Append(Entry{At: at.Add(2 * time.Minute), Kind: KindEscalationFired}))

	entries, err := db.Recent(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, KindEscalationFired, entries[0].Kind)
	assert.Empty(t, entries[0].Channel)

	assert.Equal(t, KindRecipientResult, entries[1].Kind)
	assert.Equal(t, "discord:42", entries[1].Recipient)
	assert.Equal(t, "success", entries[1].Detail)
	assert.Equal(t, at.Add(time.Minute), entries[1].At)
	assert.Len(t, entries[1].ID, 26)
}

func TestAppend_DefaultsTimeAndID(t *testing.T) {
	db := openTest(t)
	before := time.Now().Add(-time.Second)

	require.NoError(t, db.Append(Entry{Kind: KindCheckinDetected}))

	entries, err := db.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.True(t, entries[0].At.After(before))
}

func TestNop(t *testing.T) {
	var log Log = Nop{}
	assert.NoError(t, log.Append(Entry{Kind: KindCheckinManual}))
	entries, err := log.Recent(5)
	assert.NoError(t, err)
	assert.Empty(t, entries)
}
