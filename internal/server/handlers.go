package server

import (
	"errors"
	"net/http"

	"github.com/andresjosehr/dollarspy/internal/model"
	"github.com/gin-gonic/gin"
)

// ReplaceRequest is the body of POST /monitored.
type ReplaceRequest struct {
	Groups *[]model.Group `json:"groups"`
}

// AddRequest is the body of PUT /monitored/:id.
type AddRequest struct {
	Name string `json:"name"`
}

// Health reports liveness without touching the transport.
func (s *Server) Health(c *gin.Context) {
	respondOK(c, nil)
}

// Status returns the transport connection state.
func (s *Server) Status(c *gin.Context) {
	state, err := s.transport.ConnectionState(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondOK(c, gin.H{"state": state})
}

// Groups lists every transport group flagged with registry membership.
func (s *Server) Groups(c *gin.Context) {
	ctx := c.Request.Context()

	groups, err := s.transport.ListAllGroups(ctx)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	monitored, err := s.registry.List(ctx)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	ids := make(map[string]struct{}, len(monitored))
	for _, g := range monitored {
		ids[g.ID] = struct{}{}
	}

	result := make([]model.GroupStatus, 0, len(groups))
	for _, g := range groups {
		_, ok := ids[g.ID]
		result = append(result, model.GroupStatus{ID: g.ID, Name: g.Name, Monitored: ok})
	}

	respondOK(c, gin.H{"groups": result})
}

// ListMonitored returns the registry contents.
func (s *Server) ListMonitored(c *gin.Context) {
	groups, err := s.registry.List(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondOK(c, gin.H{"groups": groups})
}

// ReplaceMonitored overwrites the registry with the posted groups.
func (s *Server) ReplaceMonitored(c *gin.Context) {
	var req ReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if req.Groups == nil {
		respondError(c, http.StatusInternalServerError, errors.New("groups is required"))
		return
	}

	saved, err := s.registry.ReplaceAll(c.Request.Context(), *req.Groups)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	s.logger.Info("Monitored groups replaced", "saved", saved)
	respondOK(c, gin.H{"saved": saved})
}

// GetMonitored reports whether one group is monitored.
func (s *Server) GetMonitored(c *gin.Context) {
	id := c.Param("id")

	ok, err := s.registry.Contains(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondOK(c, gin.H{"id": id, "monitored": ok})
}

// AddMonitored adds one group; added is false when it was already present.
func (s *Server) AddMonitored(c *gin.Context) {
	var req AddRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusInternalServerError, err)
			return
		}
	}

	added, err := s.registry.Add(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondOK(c, gin.H{"added": added})
}

// RemoveMonitored removes one group; removed is false when it was absent.
func (s *Server) RemoveMonitored(c *gin.Context) {
	removed, err := s.registry.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondOK(c, gin.H{"removed": removed})
}
