package server

import (
	"io"
	"net/http"

	docdomain "github.com/agencydesk/agencydesk/internal/document/domain"
	"github.com/gin-gonic/gin"
)

// maxUploadBytes bounds a single document upload.
const maxUploadBytes = 20 << 20

func (s *Server) UploadDocument(c *gin.Context) {
	authed, ok := authedFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	botID, err := parseID(c.Param("botId"))
	if err != nil {
		AbortWithError(c, newValidationError("botId", "invalid_bot_id", "invalid bot id"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "missing_file", "file part is required"))
		return
	}
	if fileHeader.Size > maxUploadBytes {
		AbortWithError(c, newValidationError("file", "file_too_large", "file exceeds the upload size limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	doc, err := s.documentSvc.Upload(c.Request.Context(), authed, docdomain.UploadInput{
		BotID:    botID,
		Filename: fileHeader.Filename,
		Content:  content,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": doc})
}

func (s *Server) ListDocuments(c *gin.Context) {
	authed, ok := authedFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	botID, err := parseID(c.Param("botId"))
	if err != nil {
		AbortWithError(c, newValidationError("botId", "invalid_bot_id", "invalid bot id"))
		return
	}

	docs, err := s.documentSvc.List(c.Request.Context(), authed, botID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": docs})
}

func (s *Server) ListExtractions(c *gin.Context) {
	authed, ok := authedFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	botID, err := parseID(c.Param("botId"))
	if err != nil {
		AbortWithError(c, newValidationError("botId", "invalid_bot_id", "invalid bot id"))
		return
	}

	records, err := s.documentSvc.ListExtractions(c.Request.Context(), authed, botID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records})
}
