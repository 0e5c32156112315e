package migrations

import (
	"io"
	"strings"
	"testing"

	iofs "github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readMigration(t *testing.T, version uint, up bool) string {
	t.Helper()
	src, err := iofs.New(FS, ".")
	require.NoError(t, err)
	defer src.Close()

	var r io.ReadCloser
	if up {
		r, _, err = src.ReadUp(version)
	} else {
		r, _, err = src.ReadDown(version)
	}
	require.NoError(t, err)
	defer r.Close()
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(body)
}

func TestMigrationVersionsHaveUpAndDown(t *testing.T) {
	src, err := iofs.New(FS, ".")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)
	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)

	for _, v := range []uint{1, 2} {
		assert.NotEmpty(t, readMigration(t, v, true))
		assert.NotEmpty(t, readMigration(t, v, false))
	}
}

// The base schema must accept legacy private rows without a pair key so the
// dedupe migration has something to merge.
func TestBaseSchemaLeavesPairKeyUnconstrained(t *testing.T) {
	base := readMigration(t, 1, true)

	assert.Contains(t, base, "ALTER TABLE conversations ADD COLUMN IF NOT EXISTS pair_key")
	assert.NotContains(t, base, "ck_conversations_pair_key")
	assert.NotContains(t, base, "uq_conversations_pair_key")
}

func TestDedupeRunsBeforePairConstraints(t *testing.T) {
	dedupe := readMigration(t, 2, true)

	counters := strings.Index(dedupe, "unread_count = k.unread_count + d.unread")
	moveMessages := strings.Index(dedupe, "UPDATE messages msg")
	deleteDuplicates := strings.Index(dedupe, "DELETE FROM conversations c")
	backfill := strings.Index(dedupe, "SET pair_key = m.key")
	check := strings.Index(dedupe, "ADD CONSTRAINT ck_conversations_pair_key")
	unique := strings.Index(dedupe, "CREATE UNIQUE INDEX IF NOT EXISTS uq_conversations_pair_key")

	for name, pos := range map[string]int{
		"counters": counters, "messages": moveMessages, "delete": deleteDuplicates,
		"backfill": backfill, "check": check, "unique": unique,
	} {
		require.GreaterOrEqual(t, pos, 0, "missing statement %s", name)
	}
	assert.Less(t, counters, deleteDuplicates, "unread counters must be carried before duplicates cascade away")
	assert.Less(t, moveMessages, deleteDuplicates)
	assert.Less(t, deleteDuplicates, backfill)
	assert.Less(t, backfill, check)
	assert.Less(t, backfill, unique)

	down := readMigration(t, 2, false)
	assert.Contains(t, down, "DROP INDEX IF EXISTS uq_conversations_pair_key")
	assert.Contains(t, down, "DROP CONSTRAINT IF EXISTS ck_conversations_pair_key")
}
