package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashingRoundTrip(t *testing.T) {
	var user User
	require.NoError(t, user.SetPassword("correct horse"))

	assert.NotEqual(t, "correct horse", user.PasswordHash)
	assert.True(t, user.CheckPassword("correct horse"))
	assert.False(t, user.CheckPassword("wrong horse"))
}

func TestPasswordHashNeverSerialized(t *testing.T) {
	var user User
	require.NoError(t, user.SetPassword("secret"))

	data, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(data), user.PasswordHash)
}

func TestEntryKindJSON(t *testing.T) {
	data, err := json.Marshal(DirectoryEntry{Name: "results", Kind: KindDirectory})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"directory"`)

	var entry DirectoryEntry
	require.NoError(t, json.Unmarshal([]byte(`{"name":"genome.fasta","kind":"file"}`), &entry))
	assert.Equal(t, KindFile, entry.Kind)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"symlink"}`), &entry))
}
