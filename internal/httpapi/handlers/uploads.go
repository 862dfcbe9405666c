package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/common"
)

// 25 MB, matching the backend's own upload cap.
const maxUploadBytes = 25 << 20

func (h *Handler) UploadDocument(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10007, "file field required")
		return
	}

	src, err := fh.Open()
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10008, "unreadable file")
		return
	}
	defer src.Close()

	offence := c.PostForm("offence_number")

	doc, job, err := h.Uploads.Save(c.Request.Context(), uid, fh.Filename, src, offence)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50006, "failed to store upload")
		return
	}

	common.OK(c, gin.H{
		"doc_id":   doc.ID,
		"job_id":   job.ID,
		"filename": doc.Filename,
		"status":   job.Status,
	})
}

func (h *Handler) ListDocuments(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}

	docs, err := h.Uploads.ListDocuments(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50006, "failed to list documents")
		return
	}

	out := make([]gin.H, 0, len(docs))
	for _, d := range docs {
		out = append(out, gin.H{
			"doc_id":                  d.ID,
			"filename":                d.Filename,
			"offence_number":          d.OffenceNumber,
			"brain_doc_id":            d.BrainDocID,
			"chunks_indexed":          d.ChunksIndexed,
			"detected_offence_number": d.DetectedOffenceNumber,
			"created_at":              d.CreatedAt,
		})
	}
	common.OK(c, gin.H{"documents": out})
}

func (h *Handler) GetIngestJob(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}

	jobID := c.Param("job_id")
	if jobID == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "job_id required")
		return
	}

	j, err := h.Uploads.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40402, "job not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	if j.UserID != uid {
		// hide existence
		common.Fail(c, http.StatusNotFound, 40402, "job not found")
		return
	}

	common.OK(c, gin.H{
		"job": gin.H{
			"id":          j.ID,
			"document_id": j.DocumentID,
			"status":      j.Status,
			"error":       j.Error,
			"created_at":  j.CreatedAt,
			"updated_at":  j.UpdatedAt,
		},
	})
}
