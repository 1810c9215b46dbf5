package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/your-org/vigil/internal/store"
)

const videoContentType = "video/mp4"

type VideoHandler struct {
	footage *store.FootageStore
}

func NewVideoHandler(footage *store.FootageStore) *VideoHandler {
	return &VideoHandler{footage: footage}
}

// Stream serves the requested artifact variant with byte-range support.
// Reads are side-effect free; the artifact path is never mutated once the
// record reaches a terminal state, so concurrent readers are safe.
func (h *VideoHandler) Stream(c *gin.Context) {
	record, err := h.footage.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "footage not found"})
		return
	}

	var path string
	switch c.DefaultQuery("type", "original") {
	case "original":
		path = record.OriginalArtifact.Path
	case "annotated":
		path = record.AnnotatedArtifact.Path
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be original or annotated"})
		return
	}
	if path == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not available"})
		return
	}

	f, err := os.Open(path)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not available"})
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stat artifact failed"})
		return
	}
	size := info.Size()

	start, end, ok := parseRange(c.GetHeader("Range"), size)
	if !ok {
		c.Header("Accept-Ranges", "bytes")
		c.DataFromReader(http.StatusOK, size, videoContentType, f, nil)
		return
	}
	if start < 0 {
		c.Header("Content-Range", fmt.Sprintf("bytes */%d", size))
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "seek artifact failed"})
		return
	}

	length := end - start + 1
	c.Header("Accept-Ranges", "bytes")
	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	c.DataFromReader(http.StatusPartialContent, length, videoContentType, io.LimitReader(f, length), nil)
}

// parseRange handles the single-range forms bytes=a-b, bytes=a- and
// bytes=-n. ok is false when no usable range was requested (serve the full
// body); a negative start signals an unsatisfiable range.
func parseRange(header string, size int64) (start, end int64, ok bool) {
	if header == "" || !strings.HasPrefix(header, "bytes=") {
		return 0, 0, false
	}
	spec := strings.TrimPrefix(header, "bytes=")
	if strings.Contains(spec, ",") {
		// Multipart ranges are not supported; serve the full body.
		return 0, 0, false
	}

	first, last, found := strings.Cut(spec, "-")
	if !found {
		return 0, 0, false
	}

	if first == "" {
		// Suffix form: last n bytes.
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, true
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	if start >= size {
		return -1, 0, true
	}

	end = size - 1
	if last != "" {
		end, err = strconv.ParseInt(last, 10, 64)
		if err != nil || end < start {
			return 0, 0, false
		}
		if end >= size {
			end = size - 1
		}
	}
	return start, end, true
}
