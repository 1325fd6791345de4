package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lextrack/lextrack/internal/cases"
	"github.com/lextrack/lextrack/internal/common"
)

func (h *Handler) ListCases(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	list, err := h.CaseSvc.List(c.Request.Context(), user.ID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50008, "failed to list cases")
		return
	}
	common.OK(c, gin.H{"cases": list})
}

func (h *Handler) CreateCase(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req cases.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	created, err := h.CaseSvc.Create(c.Request.Context(), user, req)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50009, "failed to create case")
		return
	}
	common.OK(c, gin.H{"case": created})
}

func (h *Handler) DeleteCase(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	err := h.CaseSvc.Delete(c.Request.Context(), user.ID, c.Param("case_id"))
	if err != nil {
		if errors.Is(err, cases.ErrCaseNotFound) {
			common.Fail(c, http.StatusNotFound, 40403, "case not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50008, "failed to delete case")
		return
	}
	common.OK(c, nil)
}

func (h *Handler) ResearchCase(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	res, err := h.CaseSvc.Research(c.Request.Context(), user.ID, c.Param("case_id"))
	if err != nil {
		if errors.Is(err, cases.ErrCaseNotFound) {
			common.Fail(c, http.StatusNotFound, 40403, "case not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50010, "failed to research case")
		return
	}
	common.OK(c, gin.H{"research": res})
}
