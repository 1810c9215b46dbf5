package detect

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/vigil/internal/models"
	"github.com/your-org/vigil/internal/store"
)

func TestMetadataPath(t *testing.T) {
	assert.Equal(t,
		"/uploads/vid1_annotated_metadata.json",
		MetadataPath("/uploads/vid1_annotated.mp4", "_metadata.json"),
	)
	assert.Equal(t,
		"/uploads/noext_metadata.json",
		MetadataPath("/uploads/noext", "_metadata.json"),
	)
}

func TestLoadPersons(t *testing.T) {
	t.Run("valid metadata", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vid1_annotated_metadata.json")
		doc := `{
  "video_file": "vid1_annotated.mp4",
  "total_frames": 300,
  "fps": 30,
  "persons": [
    {
      "person_id": "P001",
      "first_detected_frame": 1,
      "last_detected_frame": 300,
      "frames_detected": 300,
      "average_confidence": 0.94,
      "identification": {"nid": "1234567890", "name": "john"}
    },
    {
      "person_id": "P002",
      "first_detected_frame": 1,
      "last_detected_frame": 150,
      "frames_detected": 150,
      "average_confidence": 0.85,
      "identification": null
    }
  ]
}`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

		persons := loadPersons(path)
		require.Len(t, persons, 2)
		assert.Equal(t, "P001", persons[0].PersonID)
		require.NotNil(t, persons[0].Identification)
		assert.Equal(t, "1234567890", persons[0].Identification.NID)
		assert.Nil(t, persons[1].Identification)
	})

	t.Run("missing file yields nil", func(t *testing.T) {
		assert.Nil(t, loadPersons(filepath.Join(t.TempDir(), "absent.json")))
	})

	t.Run("unparsable file yields nil", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))
		assert.Nil(t, loadPersons(path))
	})
}

func TestCrossReference(t *testing.T) {
	registry, err := store.NewIdentityStore(filepath.Join(t.TempDir(), "nid-bank.json"))
	require.NoError(t, err)
	require.NoError(t, registry.Create(models.IdentityEntry{
		PersonKey:      "pk-1",
		NID:            "1234567890",
		DisplayName:    "John Doe",
		PhotoReference: "1234567890.jpg",
		RegisteredAt:   time.Now().UTC(),
	}))

	persons := []models.PersonDetection{
		{PersonID: "P001", Identification: &models.Identification{NID: "1234567890", Name: "stale name"}},
		{PersonID: "P002", Identification: &models.Identification{NID: "0000000000", Name: "ghost"}},
		{PersonID: "P003"},
	}

	out := crossReference(persons, registry)
	require.Len(t, out, 3)

	// Registry hit refreshes the display name.
	require.NotNil(t, out[0].Identification)
	assert.Equal(t, "John Doe", out[0].Identification.Name)

	// Identification with no registry entry resolves to unknown.
	assert.Nil(t, out[1].Identification)
	assert.False(t, out[1].Identified())

	// Already-unknown person stays unknown.
	assert.Nil(t, out[2].Identification)
}
