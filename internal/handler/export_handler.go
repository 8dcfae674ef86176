package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/formula-ihu/quiz-api/internal/service"
)

type exporter interface {
	Write(ctx context.Context, format service.ExportFormat, w io.Writer) error
}

// ExportHandler serves the admin result downloads.
type ExportHandler struct {
	exports exporter
	now     func() time.Time
}

// NewExportHandler creates the export handler
func NewExportHandler(exports exporter) *ExportHandler {
	return &ExportHandler{exports: exports, now: time.Now}
}

// Export renders all submissions in the requested format.
// GET /quiz/export/:format (csv|pdf|scoring|xlsx)
func (h *ExportHandler) Export(c *gin.Context) {
	format, ok := service.ParseExportFormat(c.Param("format"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown export format %q", c.Param("format"))})
		return
	}

	// rendered into memory first so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := h.exports.Write(c.Request.Context(), format, &buf); err != nil {
		handleQuizError(c, err)
		return
	}

	filename := format.Filename(h.now())
	log.Printf("[ExportHandler] Serving %s (%d bytes)", filename, buf.Len())

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Content-Length", strconv.Itoa(buf.Len()))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
