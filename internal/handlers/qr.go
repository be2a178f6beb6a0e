package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"

	"github.com/cristianadrielbraun/qrblock/internal/courses"
	"github.com/cristianadrielbraun/qrblock/internal/logging"
	"github.com/cristianadrielbraun/qrblock/internal/qr"
)

const (
	defaultSize = 150
	maxSize     = 2000

	// The malformed max-age directive is what existing caches and proxies
	// have always been sent for these images.
	cacheControl = "public, max-age:2628000"
)

// QRCodeHandler serves the QR code for a course, rendering it into the
// cache first if needed.
//
//	GET /course/:id/qrcode?format=svg|png&size=150&download=1
func (h *Handler) QRCodeHandler(c *gin.Context) {
	courseID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || courseID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
		return
	}

	format, err := qr.ParseFormat(c.DefaultQuery("format", "svg"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	size, err := parseSize(c.Query("size"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	download := isTruthy(c.Query("download"))

	course, err := h.courses.Course(c.Request.Context(), courseID)
	if err != nil {
		if errors.Is(err, courses.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
			return
		}
		logging.Error("course lookup failed", "course", courseID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "course lookup failed"})
		return
	}

	req := qr.RenderRequest{
		TargetURL:     courses.CourseURL(h.wwwroot, courseID),
		Label:         course.FullName,
		Format:        format,
		SizePx:        size,
		LogoContextID: h.contextID,
		CourseID:      courseID,
	}
	entry, err := h.renderer.EnsureRendered(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to generate QR code: %v", err)})
		return
	}

	file, err := os.Open(entry.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read QR code file"})
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read QR code file"})
		return
	}

	headers := map[string]string{"Cache-Control": cacheControl}
	if download {
		headers["Content-Disposition"] = fmt.Sprintf(`attachment; filename="%s"`, DownloadFilename(req.Label, format))
	}
	c.DataFromReader(http.StatusOK, info.Size(), format.ContentType(), file, headers)
}

// DownloadFilename is the attachment name offered for a course's code.
func DownloadFilename(label string, f qr.Format) string {
	return "QR Code-" + SanitizeFilename(label) + "." + f.Ext()
}

// SanitizeFilename strips characters that are unsafe in file names and in
// a quoted header parameter.
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) || strings.ContainsRune(`\/:*?"<>|`, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

func parseSize(s string) (int, error) {
	if s == "" {
		return defaultSize, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxSize {
		return 0, fmt.Errorf("size must be an integer between 1 and %d", maxSize)
	}
	return n, nil
}

func isTruthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
