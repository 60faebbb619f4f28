package server

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/virajbhatt/cardintel/constants"
	"github.com/virajbhatt/cardintel/internal/common"
	"github.com/virajbhatt/cardintel/internal/pipeline"
)

// extractCardHandler accepts a multipart front image (required) and back
// image (optional), stages them in the temp dir, and runs the pipeline.
// The pipeline owns the staged files and deletes them on every path.
func (s *Server) extractCardHandler(c *gin.Context) {
	requesterID := common.RequesterIDFromContext(c.Request.Context())

	frontHeader, err := c.FormFile("front_image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "front_image is required"})
		return
	}
	front, err := s.stageUpload(c, frontHeader, constants.SideFront)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store front image"})
		return
	}

	var back *pipeline.CardImage
	if backHeader, err := c.FormFile("back_image"); err == nil {
		back, err = s.stageUpload(c, backHeader, constants.SideBack)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store back image"})
			return
		}
	}

	result, err := s.pipeline.Process(c.Request.Context(), pipeline.Request{
		RequesterID: requesterID,
		Front:       front,
		Back:        back,
	})
	if err != nil {
		// Validation failures only; external services were never called.
		if errors.Is(err, pipeline.ErrMissingFront) || errors.Is(err, pipeline.ErrImageType) || errors.Is(err, pipeline.ErrImageSize) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.log.Error("extract request failed",
			"req_id", common.RequestIDFromContext(c.Request.Context()),
			"requester_id", requesterID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "card extraction failed"})
		return
	}

	c.JSON(statusCode(result.Status), result)
}

// usageHandler reports both rate-limit window states without consuming quota.
func (s *Server) usageHandler(c *gin.Context) {
	requesterID := common.RequesterIDFromContext(c.Request.Context())
	decision := s.limiter.CheckAllLimits(c.Request.Context(), requesterID)
	c.JSON(http.StatusOK, decision)
}

func (s *Server) stageUpload(c *gin.Context, fh *multipart.FileHeader, side constants.ImageSide) (*pipeline.CardImage, error) {
	ext := filepath.Ext(fh.Filename)
	dst := filepath.Join(s.tempDir, uuid.New().String()+ext)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		s.log.Error("upload staging failed", "side", side, "error", err)
		return nil, err
	}
	return &pipeline.CardImage{
		Path:        dst,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Side:        side,
	}, nil
}

func statusCode(st pipeline.Status) int {
	switch st {
	case pipeline.StatusSuccess:
		return http.StatusOK
	case pipeline.StatusRateLimited:
		return http.StatusTooManyRequests
	case pipeline.StatusExtractionFailed, pipeline.StatusParseFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func contextWithTimeout(c *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), d)
}
