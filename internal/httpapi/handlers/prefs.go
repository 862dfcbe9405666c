package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/common"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/prefs"
)

func (h *Handler) GetJurisdiction(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}

	j, err := h.Prefs.GetJurisdiction(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50005, "failed to load preferences")
		return
	}

	common.OK(c, gin.H{
		"language":       j.Language,
		"country":        j.Country,
		"province":       j.Province,
		"case_number":    j.CaseNumber,
		"setup_complete": j.IsSetupComplete(),
	})
}

type putJurisdictionReq struct {
	Language   string `json:"language"`
	Country    string `json:"country"`
	Province   string `json:"province"`
	CaseNumber string `json:"case_number"`
}

func (h *Handler) PutJurisdiction(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}

	var req putJurisdictionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	j := prefs.Jurisdiction{
		Language:   req.Language,
		Country:    req.Country,
		Province:   req.Province,
		CaseNumber: req.CaseNumber,
	}
	if err := h.Prefs.SetJurisdiction(c.Request.Context(), uid, j); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50005, "failed to save preferences")
		return
	}

	common.OK(c, gin.H{"setup_complete": j.IsSetupComplete()})
}

func (h *Handler) GetLawCategory(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}

	sel, err := h.Prefs.GetCategory(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50005, "failed to load preferences")
		return
	}

	common.OK(c, gin.H{
		"category":     sel.Category,
		"law_type":     sel.LawType,
		"jurisdiction": sel.Jurisdiction,
	})
}

type putCategoryReq struct {
	Category     string `json:"category" binding:"required"`
	LawType      string `json:"law_type"`
	Jurisdiction string `json:"jurisdiction"`
}

func (h *Handler) PutLawCategory(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}

	var req putCategoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	sel := prefs.CategorySelection{
		Category:     req.Category,
		LawType:      req.LawType,
		Jurisdiction: req.Jurisdiction,
	}
	if err := h.Prefs.SetCategory(c.Request.Context(), uid, sel); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50005, "failed to save preferences")
		return
	}

	common.OK(c, gin.H{"category": sel.Category})
}

// ClearPreferences wipes both blobs, sending the user back through
// onboarding.
func (h *Handler) ClearPreferences(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}

	if err := h.Prefs.Clear(c.Request.Context(), uid); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50005, "failed to clear preferences")
		return
	}

	common.OK(c, gin.H{"cleared": true})
}
