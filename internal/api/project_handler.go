package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/radarjoki/backend/internal/auth"
	"github.com/radarjoki/backend/internal/domain"
	"github.com/radarjoki/backend/internal/relay"
	"github.com/radarjoki/backend/internal/store"
)

type createProjectInput struct {
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description" binding:"required"`
	Budget        float64  `json:"budget" binding:"required,gt=0"`
	Priced        *float64 `json:"priced"`
	IsOpenBidding bool     `json:"isOpenBidding"`
}

type updateProjectInput struct {
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	Budget        *float64 `json:"budget"`
	Priced        *float64 `json:"priced"`
	IsOpenBidding *bool    `json:"isOpenBidding"`
	IsCompleted   *bool    `json:"isCompleted"`
}

type bidInput struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

func (h *Handler) listProjects(c *gin.Context) {
	claims := auth.ClaimsFrom(c)
	projects, err := h.store.ProjectsByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("project list failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to fetch projects")
		return
	}
	respondOK(c, "", gin.H{"projects": projects})
}

func (h *Handler) createProject(c *gin.Context) {
	var in createProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid project payload")
		return
	}

	claims := auth.ClaimsFrom(c)
	project := &domain.Project{
		Title:         in.Title,
		Description:   in.Description,
		Budget:        in.Budget,
		Priced:        in.Priced,
		IsOpenBidding: in.IsOpenBidding,
		UserID:        claims.UserID,
	}
	if err := h.store.CreateProject(c.Request.Context(), project); err != nil {
		h.logger.Error("project insert failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to create project")
		return
	}

	h.broadcaster.Broadcast(relay.EventNewProject, gin.H{
		"id":            project.ID,
		"title":         project.Title,
		"budget":        project.Budget,
		"username":      claims.Username,
		"isOpenBidding": project.IsOpenBidding,
	})

	respondCreated(c, "Project created successfully", project)
}

func (h *Handler) getProject(c *gin.Context) {
	project, err := h.store.ProjectByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Project not found")
			return
		}
		h.logger.Error("project fetch failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to fetch project")
		return
	}
	respondOK(c, "", gin.H{"project": project})
}

func (h *Handler) updateProject(c *gin.Context) {
	var in updateProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid project payload")
		return
	}

	ctx := c.Request.Context()
	claims := auth.ClaimsFrom(c)
	project, err := h.store.ProjectByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Project not found")
			return
		}
		h.logger.Error("project fetch failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to update project")
		return
	}
	if project.UserID != claims.UserID {
		respondError(c, http.StatusForbidden, "You can only update your own projects")
		return
	}

	if in.Title != nil {
		project.Title = *in.Title
	}
	if in.Description != nil {
		project.Description = *in.Description
	}
	if in.Budget != nil {
		project.Budget = *in.Budget
	}
	if in.Priced != nil {
		project.Priced = in.Priced
	}
	if in.IsOpenBidding != nil {
		project.IsOpenBidding = *in.IsOpenBidding
	}
	if in.IsCompleted != nil {
		project.IsCompleted = *in.IsCompleted
	}

	if err := h.store.UpdateProject(ctx, project); err != nil {
		h.logger.Error("project update failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to update project")
		return
	}

	h.broadcaster.Broadcast(relay.EventProjectUpdate, gin.H{
		"id":            project.ID,
		"title":         project.Title,
		"budget":        project.Budget,
		"priced":        project.Priced,
		"isOpenBidding": project.IsOpenBidding,
		"isCompleted":   project.IsCompleted,
		"username":      claims.Username,
	})

	respondOK(c, "Project updated successfully", gin.H{"project": project})
}

func (h *Handler) deleteProject(c *gin.Context) {
	ctx := c.Request.Context()
	claims := auth.ClaimsFrom(c)
	project, err := h.store.ProjectByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Project not found")
			return
		}
		h.logger.Error("project fetch failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to delete project")
		return
	}
	if project.UserID != claims.UserID {
		respondError(c, http.StatusForbidden, "You can only delete your own projects")
		return
	}

	if err := h.store.DeleteProject(ctx, project.ID); err != nil {
		h.logger.Error("project delete failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to delete project")
		return
	}
	respondOK(c, "Project deleted successfully", nil)
}

func (h *Handler) placeBid(c *gin.Context) {
	var in bidInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid bid payload")
		return
	}

	ctx := c.Request.Context()
	claims := auth.ClaimsFrom(c)
	project, err := h.store.ProjectByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Project not found")
			return
		}
		h.logger.Error("project fetch failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to place bid")
		return
	}
	if !project.IsOpenBidding {
		respondError(c, http.StatusBadRequest, "Project is not open for bidding")
		return
	}
	if project.IsCompleted {
		respondError(c, http.StatusBadRequest, "Project is already completed")
		return
	}

	project.Priced = &in.Amount
	if err := h.store.UpdateProject(ctx, project); err != nil {
		h.logger.Error("bid update failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to place bid")
		return
	}

	h.broadcaster.Broadcast(relay.EventNewBid, gin.H{
		"projectId": project.ID,
		"title":     project.Title,
		"amount":    in.Amount,
		"username":  claims.Username,
	})

	respondOK(c, "Bid placed successfully", gin.H{"project": project})
}
