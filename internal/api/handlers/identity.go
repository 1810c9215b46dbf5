package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/vigil/internal/models"
	"github.com/your-org/vigil/internal/store"
	"github.com/your-org/vigil/pkg/dto"
)

type IdentityHandler struct {
	identities *store.IdentityStore
	photosDir  string
}

func NewIdentityHandler(identities *store.IdentityStore, photosDir string) *IdentityHandler {
	return &IdentityHandler{identities: identities, photosDir: photosDir}
}

func (h *IdentityHandler) List(c *gin.Context) {
	entries, err := h.identities.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.IdentityResponse, 0, len(entries))
	for i := range entries {
		resp = append(resp, identityToResponse(&entries[i]))
	}

	c.JSON(http.StatusOK, dto.IdentityListResponse{Data: resp, Total: len(resp)})
}

// Register inserts a new NID bank entry with its photo. A duplicate NID is
// rejected with 409 and the photo uploaded alongside it is not retained.
func (h *IdentityHandler) Register(c *gin.Context) {
	nid := strings.TrimSpace(c.PostForm("nid"))
	name := strings.TrimSpace(c.PostForm("name"))
	if nid == "" || name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nid and name are required"})
		return
	}

	photo, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file required"})
		return
	}

	existing, err := h.identities.FindByNID(nid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "nid already registered"})
		return
	}

	ext := filepath.Ext(photo.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	photoName := filepath.Base(nid) + ext
	photoPath := filepath.Join(h.photosDir, photoName)

	if err := c.SaveUploadedFile(photo, photoPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store photo failed"})
		return
	}

	entry := models.IdentityEntry{
		PersonKey:      uuid.New().String(),
		NID:            nid,
		DisplayName:    name,
		PhotoReference: photoName,
		RegisteredAt:   time.Now().UTC(),
	}

	if err := h.identities.Create(entry); err != nil {
		if removeErr := os.Remove(photoPath); removeErr != nil {
			slog.Warn("remove photo after rejected registration", "path", photoPath, "error", removeErr)
		}
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "nid already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, identityToResponse(&entry))
}

func (h *IdentityHandler) Photo(c *gin.Context) {
	entry, err := h.identities.FindByNID(c.Param("nid"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "nid not found"})
		return
	}

	path := filepath.Join(h.photosDir, entry.PhotoReference)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "photo not found"})
		return
	}

	c.File(path)
}

func (h *IdentityHandler) Delete(c *gin.Context) {
	removed, err := h.identities.Delete(c.Param("nid"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "nid not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if removed.PhotoReference != "" {
		path := filepath.Join(h.photosDir, removed.PhotoReference)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("delete registry photo", "path", path, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func identityToResponse(e *models.IdentityEntry) dto.IdentityResponse {
	return dto.IdentityResponse{
		PersonKey:    e.PersonKey,
		NID:          e.NID,
		Name:         e.DisplayName,
		PhotoURL:     "/nid-bank/photo/" + e.NID,
		RegisteredAt: e.RegisteredAt.Format(time.RFC3339),
	}
}
