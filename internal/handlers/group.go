package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
)

// Group name validation: alphanumeric, hyphens, underscores, 1-50 chars
var groupNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,50}$`)

// CreateGroupRequest represents the group creation request.
type CreateGroupRequest struct {
	Name    string `json:"name"`
	Creator string `json:"creator,omitempty"`
}

// GroupResponse represents a group with its members.
type GroupResponse struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// CreateGroup handles group creation. Creating an existing group is a
// no-op apart from adding the creator.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !groupNameRegex.MatchString(req.Name) {
		h.Error(w, http.StatusBadRequest, "name must be 1-50 characters, alphanumeric with hyphens and underscores only")
		return
	}

	creator := sanitizeName(req.Creator)
	if err := h.chat.CreateGroup(r.Context(), req.Name, creator); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to create group")
		return
	}

	h.JSON(w, http.StatusCreated, GroupResponse{
		Name:    req.Name,
		Members: h.chat.MembersOf(req.Name),
	})
}

// AddMemberRequest represents the add-member request.
type AddMemberRequest struct {
	Username string `json:"username"`
}

// AddMember handles adding a user to a group (idempotent).
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "name")

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	username := sanitizeName(req.Username)
	if username == "" {
		h.Error(w, http.StatusBadRequest, "username is required")
		return
	}

	if err := h.chat.AddMember(r.Context(), group, username); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to add member")
		return
	}

	h.JSON(w, http.StatusOK, GroupResponse{
		Name:    group,
		Members: h.chat.MembersOf(group),
	})
}

// GroupListResponse represents the list of all groups.
type GroupListResponse struct {
	Groups []string `json:"groups"`
}

// ListGroups returns all known group names.
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups := h.chat.Groups()
	if groups == nil {
		groups = []string{}
	}
	h.JSON(w, http.StatusOK, GroupListResponse{Groups: groups})
}

// GetMembers returns a group's member snapshot.
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "name")
	members := h.chat.MembersOf(group)
	if members == nil {
		members = []string{}
	}
	h.JSON(w, http.StatusOK, GroupResponse{Name: group, Members: members})
}

// UserGroupsResponse represents the groups a user belongs to.
type UserGroupsResponse struct {
	Username string   `json:"username"`
	Groups   []string `json:"groups"`
}

// GetUserGroups returns the groups a user is a member of.
func (h *Handler) GetUserGroups(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "user")
	groups := h.chat.GroupsOf(username)
	if groups == nil {
		groups = []string{}
	}
	h.JSON(w, http.StatusOK, UserGroupsResponse{Username: username, Groups: groups})
}
