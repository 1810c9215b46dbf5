package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/vigil/internal/detect"
	"github.com/your-org/vigil/internal/models"
	"github.com/your-org/vigil/internal/observability"
	"github.com/your-org/vigil/internal/store"
	"github.com/your-org/vigil/pkg/dto"
)

type FootageHandler struct {
	footage        *store.FootageStore
	supervisor     *detect.Supervisor
	uploadsDir     string
	outputSuffix   string
	metadataSuffix string
	// Notify, when set, is called after admission so lifecycle events reach
	// the WS hub. Set by the router.
	Notify func(event string, f *models.Footage)
}

func NewFootageHandler(footage *store.FootageStore, supervisor *detect.Supervisor, uploadsDir, outputSuffix, metadataSuffix string) *FootageHandler {
	return &FootageHandler{
		footage:        footage,
		supervisor:     supervisor,
		uploadsDir:     uploadsDir,
		outputSuffix:   outputSuffix,
		metadataSuffix: metadataSuffix,
	}
}

// Upload admits a new footage item: it buffers the upload to disk, creates
// the record in Processing, and queues the detection job. The response is
// written before the detector starts.
func (h *FootageHandler) Upload(c *gin.Context) {
	cameraID := strings.TrimSpace(c.PostForm("cameraId"))
	cameraLocation := strings.TrimSpace(c.PostForm("cameraLocation"))
	if cameraID == "" || cameraLocation == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cameraId and cameraLocation are required"})
		return
	}

	file, err := c.FormFile("videoFootage")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no video file uploaded"})
		return
	}

	id := strings.TrimSpace(c.PostForm("footageId"))
	if id == "" {
		id = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	// The id becomes a filename; strip any path components.
	id = filepath.Base(id)

	existing, err := h.footage.Get(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "footage already exists with this id"})
		return
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".mp4"
	}
	storedName := id + ext
	storedPath := filepath.Join(h.uploadsDir, storedName)

	// Buffer under a unique name first. Two racing admissions of the same id
	// then write disjoint files, and the loser's cleanup cannot touch the
	// record the winner just created.
	partPath := filepath.Join(h.uploadsDir, id+".part-"+uuid.NewString())
	if err := c.SaveUploadedFile(file, partPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store uploaded file failed"})
		return
	}

	annotatedName := id + h.outputSuffix
	record := models.Footage{
		ID:             id,
		CameraID:       cameraID,
		CameraLocation: cameraLocation,
		OriginalArtifact: models.Artifact{
			FileName: storedName,
			Path:     storedPath,
		},
		AnnotatedArtifact: models.AnnotatedArtifact{
			FileName: annotatedName,
			Path:     filepath.Join(h.uploadsDir, annotatedName),
		},
		Status:     models.FootageStatusProcessing,
		UploadedAt: time.Now().UTC(),
	}

	if err := h.footage.Create(record); err != nil {
		if removeErr := os.Remove(partPath); removeErr != nil {
			slog.Warn("remove upload after rejected admission", "path", partPath, "error", removeErr)
		}
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "footage already exists with this id"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := os.Rename(partPath, storedPath); err != nil {
		if removeErr := os.Remove(partPath); removeErr != nil {
			slog.Warn("remove upload after failed rename", "path", partPath, "error", removeErr)
		}
		if _, delErr := h.footage.Delete(id); delErr != nil {
			slog.Error("roll back admitted record", "footage_id", id, "error", delErr)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store uploaded file failed"})
		return
	}

	observability.FootageAdmitted.Inc()
	slog.Info("footage admitted", "footage_id", id, "camera_id", cameraID)

	if h.Notify != nil {
		h.Notify("footage_uploaded", &record)
	}

	h.supervisor.Submit(detect.Job{
		FootageID:  id,
		InputPath:  record.OriginalArtifact.Path,
		OutputPath: record.AnnotatedArtifact.Path,
	})

	c.JSON(http.StatusCreated, footageToResponse(&record))
}

// maxPageSize bounds the limit query so page arithmetic stays in range.
const maxPageSize = 100

func (h *FootageHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	records, err := h.footage.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	total := len(records)
	totalPages := (total + limit - 1) / limit

	// Any page past the end is an empty page. The guard also keeps
	// (page-1)*limit from overflowing on absurd page values.
	start := total
	if page-1 <= total/limit {
		start = (page - 1) * limit
		if start > total {
			start = total
		}
	}
	end := start + limit
	if end > total {
		end = total
	}

	resp := make([]dto.FootageResponse, 0, end-start)
	for i := start; i < end; i++ {
		resp = append(resp, footageToResponse(&records[i]))
	}

	c.JSON(http.StatusOK, dto.FootageListResponse{
		Data: resp,
		Pagination: dto.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

func (h *FootageHandler) ListAll(c *gin.Context) {
	records, err := h.footage.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.FootageResponse, 0, len(records))
	for i := range records {
		resp = append(resp, footageToResponse(&records[i]))
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *FootageHandler) Get(c *gin.Context) {
	record, err := h.footage.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "footage not found"})
		return
	}

	c.JSON(http.StatusOK, footageToResponse(record))
}

// Delete removes the record and best-effort reclaims every file it
// references. Unlink failures are logged, never surfaced.
func (h *FootageHandler) Delete(c *gin.Context) {
	removed, err := h.footage.Delete(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "footage not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	paths := []string{
		removed.OriginalArtifact.Path,
		removed.AnnotatedArtifact.Path,
		detect.MetadataPath(removed.AnnotatedArtifact.Path, h.metadataSuffix),
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			slog.Warn("delete footage artifact", "path", p, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func footageToResponse(f *models.Footage) dto.FootageResponse {
	persons := make([]dto.PersonDetectionResponse, 0, len(f.AnnotatedArtifact.Persons))
	for _, p := range f.AnnotatedArtifact.Persons {
		pr := dto.PersonDetectionResponse{
			PersonID:           p.PersonID,
			FirstDetectedFrame: p.FirstDetectedFrame,
			LastDetectedFrame:  p.LastDetectedFrame,
			FramesDetected:     p.FramesDetected,
			AverageConfidence:  p.AverageConfidence,
		}
		if p.Identification != nil {
			pr.Identification = &dto.IdentificationResponse{
				NID:  p.Identification.NID,
				Name: p.Identification.Name,
			}
		}
		persons = append(persons, pr)
	}
	if len(persons) == 0 {
		persons = nil
	}

	resp := dto.FootageResponse{
		ID:             f.ID,
		CameraID:       f.CameraID,
		CameraLocation: f.CameraLocation,
		OriginalArtifact: dto.ArtifactResponse{
			FileName: f.OriginalArtifact.FileName,
			Path:     f.OriginalArtifact.Path,
		},
		AnnotatedArtifact: dto.AnnotatedArtifactResponse{
			FileName: f.AnnotatedArtifact.FileName,
			Path:     f.AnnotatedArtifact.Path,
			Status:   string(f.Status),
			Persons:  persons,
			Error:    f.AnnotatedArtifact.Error,
		},
		Status:     string(f.Status),
		UploadedAt: f.UploadedAt.Format(time.RFC3339),
	}
	if f.CompletedAt != nil {
		resp.CompletedAt = f.CompletedAt.Format(time.RFC3339)
	}
	return resp
}
