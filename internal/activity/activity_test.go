package activity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_PreservesOrder(t *testing.T) {
	t.Parallel()

	l := Open(filepath.Join(t.TempDir(), "sent_emails.json"))
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Append(NewRecord(fmt.Sprintf("r%d@example.com", i), "", "Subject", nil)))
	}

	records, err := l.Read()
	require.NoError(t, err)
	require.Len(t, records, 5)
	for i, rec := range records {
		assert.Equal(t, fmt.Sprintf("r%d@example.com", i), rec.Recipient)
		assert.Equal(t, NoCompany, rec.Company)
		assert.True(t, rec.Success)
		assert.Nil(t, rec.Error)
		assert.NotEmpty(t, rec.ID)
	}
}

func TestAppend_FileFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log.json")
	l := Open(path)
	require.NoError(t, l.Append(NewRecord("a@b.com", "Acme", "Hello", errors.New("recipient: 550 no such user"))))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "a@b.com", raw[0]["recipient"])
	assert.Equal(t, "Acme", raw[0]["company"])
	assert.Equal(t, false, raw[0]["success"])
	assert.Equal(t, "recipient: 550 no such user", raw[0]["error"])
	assert.Contains(t, raw[0], "timestamp")
	assert.NotContains(t, raw[0], "bcc")

	require.NoError(t, l.Append(NewRecord("c@d.com", "", "Hi", nil)))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)
	assert.Nil(t, raw[1]["error"])
	assert.Contains(t, raw[1], "error")
}

func TestAppend_CorruptFileStartsOver(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	l := Open(path)
	_, err := l.Read()
	assert.Error(t, err)

	require.NoError(t, l.Append(NewRecord("a@b.com", "", "Hello", nil)))
	records, err := l.Read()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestAppend_Unwritable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	l := Open(filepath.Join(blocker, "log.json"))
	assert.Error(t, l.Append(NewRecord("a@b.com", "", "Hello", nil)))
}

func TestRead_MissingFile(t *testing.T) {
	t.Parallel()

	records, err := Open(filepath.Join(t.TempDir(), "none.json")).Read()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecent(t *testing.T) {
	t.Parallel()

	l := Open(filepath.Join(t.TempDir(), "log.json"))
	for i := 0; i < 4; i++ {
		require.NoError(t, l.Append(NewRecord(fmt.Sprintf("r%d@x.com", i), "", "s", nil)))
	}

	recent, err := l.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "r3@x.com", recent[0].Recipient)
	assert.Equal(t, "r2@x.com", recent[1].Recipient)

	all, err := l.Recent(0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "r0@x.com", all[3].Recipient)
}

func TestNewRecord(t *testing.T) {
	t.Parallel()

	rec := NewRecord("a@b.com", "  Acme ", "Hello", errors.New("auth: 535"))
	assert.Equal(t, "Acme", rec.Company)
	assert.False(t, rec.Success)
	assert.Equal(t, "auth: 535", rec.Failure())
	assert.Empty(t, NewRecord("a@b.com", "", "", nil).Failure())
}

func TestAppend_ReadErrorKeepsFile(t *testing.T) {
	t.Parallel()

	// A directory at the log path cannot be read as a file.
	path := filepath.Join(t.TempDir(), "log.json")
	require.NoError(t, os.Mkdir(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "keep"), []byte("x"), 0o644))

	err := Open(path).Append(NewRecord("a@b.com", "", "Hello", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read activity log")
	assert.FileExists(t, filepath.Join(path, "keep"))
}
