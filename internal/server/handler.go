package server

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "media-pipeline/internal/common/errors"
	"media-pipeline/internal/pipeline/router"
)

const intentHeader = "X-Intent"

//go:embed index.html
var indexPage []byte

func (s *Server) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexPage)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) ready(c *gin.Context) {
	checks := make(map[string]string, len(s.checks))
	status := http.StatusOK
	for name, check := range s.checks {
		if err := check(c.Request.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	c.JSON(status, gin.H{
		"status": state,
		"checks": checks,
		"time":   time.Now().Format(time.RFC3339),
	})
}

// process stores the upload in a temp file that keeps the original
// extension, routes it and removes the file on every path.
func (s *Server) process(c *gin.Context) {
	if s.cfg.MaxUploadMB > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(s.cfg.MaxUploadMB)<<20)
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("file is required"))
		return
	}

	req := router.Request{}
	if voice := strings.TrimSpace(c.PostForm("voice")); voice != "" {
		req.Voice = &voice
	}
	if raw := strings.TrimSpace(c.PostForm("rate")); raw != "" {
		rate, err := strconv.Atoi(raw)
		if err != nil {
			s.handleError(c, apperrors.NewInvalidInputError("rate must be an integer"))
			return
		}
		req.Rate = &rate
	}

	tmp, err := os.CreateTemp("", "upload-*"+strings.ToLower(filepath.Ext(file.Filename)))
	if err != nil {
		s.handleError(c, apperrors.NewInternalError(err))
		return
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		s.handleError(c, apperrors.NewInternalError(err))
		return
	}
	req.InputPath = tmpPath

	result, err := s.processor.Route(c.Request.Context(), req)
	if err != nil {
		s.handleError(c, err)
		return
	}

	if result.Kind != router.KindText {
		c.JSON(http.StatusOK, result.Payload)
		return
	}

	if result.Intent != nil {
		if header, err := json.Marshal(result.Intent); err == nil {
			c.Header(intentHeader, string(header))
		}
	}
	c.Header("Content-Disposition", `attachment; filename="reply.wav"`)
	c.Data(http.StatusOK, "audio/wav", result.Audio)
}

func (s *Server) handleError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"requestId": c.GetString("requestId"),
			"code":      apperrors.CodeOf(err),
			"error":     err,
		})
	}
	c.JSON(status, errorResponse(err.Error()))
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
