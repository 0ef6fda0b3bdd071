package calibration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierluma/videowall/internal/display"
	"github.com/atelierluma/videowall/internal/identity"
)

func wallAttrs(x int) display.Attributes {
	return display.Attributes{
		Output: "DP-1",
		X:      x,
		Y:      0,
		Width:  1920,
		Height: 1080,
		Serial: 1001,
		Vendor: 0x22F0,
		Model:  0x286C,
	}
}

func threeScreenMapping() *Mapping {
	left := wallAttrs(0)
	center := wallAttrs(1920)
	right := wallAttrs(3840)
	return &Mapping{
		SchemaVersion: SchemaVersion,
		Entries: []Entry{
			{Label: "LEFT", Identity: identity.ForAttributes(left), Attributes: left},
			{Label: "CENTER", Identity: identity.ForAttributes(center), Attributes: center},
			{Label: "RIGHT", Identity: identity.ForAttributes(right), Attributes: right},
		},
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "calibration.json"))
	want := threeScreenMapping()

	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_SaveOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "calibration.json"))

	require.NoError(t, store.Save(threeScreenMapping()))

	updated := threeScreenMapping()
	updated.Entries = updated.Entries[:2]
	require.NoError(t, store.Save(updated))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, got.Entries, 2)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_LoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope.json"))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_LoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewStore(path).Load()
	var corrupt *CorruptError
	require.ErrorAs(t, err, &corrupt)
}

func TestStore_LoadRejectsUnknownSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schema_version": 99, "entries": [{"label": "CENTER", "identity": "x"}]}`), 0644))

	_, err := NewStore(path).Load()
	var corrupt *CorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Error(), "schema_version")
}

func TestStore_LoadRejectsDuplicateLabel(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "calibration.json"))
	m := threeScreenMapping()
	m.Entries[1].Label = "LEFT"

	err := store.Save(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate label")
}

func TestStore_LoadRejectsDuplicateIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	data := `{"schema_version": 1, "entries": [` +
		`{"label": "LEFT", "identity": "aa"}, {"label": "CENTER", "identity": "aa"}]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	_, err := NewStore(path).Load()
	var corrupt *CorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Error(), "duplicate identity")
}
