package handler

import (
	"context"
	"net/http"

	"go.mau.fi/whatsmeow/types"

	"mahabharata-landing/pkg/logger"
)

// GroupLister lists the WhatsApp groups available as notification targets
type GroupLister interface {
	GetJoinedGroups(ctx context.Context) ([]*types.GroupInfo, error)
}

// GroupsHandler handles group-related requests
type GroupsHandler struct {
	lister GroupLister
	logger *logger.Logger
}

// NewGroupsHandler creates a new groups handler; lister is nil when
// notifications are disabled
func NewGroupsHandler(lister GroupLister, log *logger.Logger) *GroupsHandler {
	return &GroupsHandler{
		lister: lister,
		logger: log,
	}
}

// GroupInfo represents group information for API response
type GroupInfo struct {
	JID          string `json:"jid"`
	Name         string `json:"name"`
	Topic        string `json:"topic,omitempty"`
	Participants int    `json:"participants"`
	IsAnnounce   bool   `json:"is_announce"`
}

// ListGroups handles GET /api/v1/notify/groups
func (h *GroupsHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		sendErrorResponse(w, CodeNotifyDisabled, "WhatsApp notifications are disabled", http.StatusServiceUnavailable)
		return
	}

	groups, err := h.lister.GetJoinedGroups(r.Context())
	if err != nil {
		h.logger.Error("Failed to get joined groups", "error", err)
		sendErrorResponse(w, CodeInternal, "Failed to retrieve groups", http.StatusInternalServerError)
		return
	}

	groupsList := make([]GroupInfo, 0, len(groups))
	for _, group := range groups {
		groupsList = append(groupsList, GroupInfo{
			JID:          group.JID.String(),
			Name:         group.Name,
			Topic:        group.Topic,
			Participants: len(group.Participants),
			IsAnnounce:   group.IsAnnounce,
		})
	}

	h.logger.Info("Groups list retrieved", "total", len(groupsList))
	sendSuccessResponse(w, http.StatusOK, "Groups retrieved successfully", groupsList)
}
