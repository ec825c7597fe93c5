package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/radarjoki/backend/internal/store"
)

type messageInput struct {
	Content string `json:"content" binding:"required"`
}

func (h *Handler) createMessage(c *gin.Context) {
	var in messageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid message payload")
		return
	}

	ctx := c.Request.Context()
	projectID := c.Param("id")
	project, err := h.store.ProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Project not found")
			return
		}
		h.logger.Error("project fetch failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to create message")
		return
	}
	if project.Message != nil {
		respondError(c, http.StatusBadRequest, "Project already has a message")
		return
	}

	message, err := h.store.CreateMessage(ctx, projectID, in.Content)
	if err != nil {
		h.logger.Error("message insert failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to create message")
		return
	}
	respondCreated(c, "Message created successfully", message)
}

func (h *Handler) getMessage(c *gin.Context) {
	message, err := h.store.MessageByProjectID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Message not found")
			return
		}
		h.logger.Error("message fetch failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to fetch message")
		return
	}
	respondOK(c, "", gin.H{"message": message})
}

func (h *Handler) updateMessage(c *gin.Context) {
	var in messageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid message payload")
		return
	}

	message, err := h.store.UpdateMessage(c.Request.Context(), c.Param("id"), in.Content)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Message not found")
			return
		}
		h.logger.Error("message update failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to update message")
		return
	}
	respondOK(c, "Message updated successfully", message)
}

func (h *Handler) deleteMessage(c *gin.Context) {
	if err := h.store.DeleteMessage(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Message not found")
			return
		}
		h.logger.Error("message delete failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to delete message")
		return
	}
	respondOK(c, "Message deleted successfully", nil)
}
