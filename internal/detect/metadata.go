package detect

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/your-org/vigil/internal/models"
	"github.com/your-org/vigil/internal/store"
)

// detectorMetadata mirrors the JSON document the detector writes next to the
// annotated video.
type detectorMetadata struct {
	VideoFile           string                   `json:"video_file"`
	TotalFrames         int                      `json:"total_frames"`
	FPS                 float64                  `json:"fps"`
	Persons             []models.PersonDetection `json:"persons"`
	ProcessingTimestamp string                   `json:"processing_timestamp"`
}

// MetadataPath derives the sibling metadata file from the output path by
// replacing the extension with the metadata suffix.
func MetadataPath(outputPath, suffix string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + suffix
}

// loadPersons reads the detector's metadata file. A missing or unparsable
// file means detection succeeded without structured data, so it returns nil
// rather than an error.
func loadPersons(path string) []models.PersonDetection {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("read detector metadata", "path", path, "error", err)
		}
		return nil
	}

	var meta detectorMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		slog.Warn("unparsable detector metadata, completing without persons", "path", path, "error", err)
		return nil
	}
	return meta.Persons
}

// crossReference resolves each person's identification against the registry.
// A registry hit refreshes the display name; an identification that no entry
// resolves against is dropped, leaving the person unknown.
func crossReference(persons []models.PersonDetection, registry *store.IdentityStore) []models.PersonDetection {
	for i := range persons {
		ident := persons[i].Identification
		if ident == nil {
			continue
		}
		entry, err := registry.FindByNID(ident.NID)
		if err != nil {
			slog.Warn("identity lookup failed", "nid", ident.NID, "error", err)
			continue
		}
		if entry == nil {
			persons[i].Identification = nil
			continue
		}
		persons[i].Identification = &models.Identification{
			NID:  entry.NID,
			Name: entry.DisplayName,
		}
	}
	return persons
}
