package discovery

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sparkmatch/discovery/internal/db"
	svcErr "github.com/sparkmatch/discovery/internal/errors"
	"github.com/sparkmatch/discovery/internal/repository"
	"github.com/sparkmatch/discovery/internal/server"
)

// Handler exposes the discovery engine over the gateway's JSON API.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type likeRequest struct {
	TargetID uint64 `json:"target_id" binding:"required"`
	Type     string `json:"type"`
}

type passRequest struct {
	TargetID uint64 `json:"target_id" binding:"required"`
}

type favoriteRequest struct {
	TargetID uint64 `json:"target_id" binding:"required"`
}

// Discover handles GET /api/discover.
func (h *Handler) Discover(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	limit, err := parseLimit(c)
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.svc.FindCandidates(c.Request.Context(), server.UserID(c), filter, cursorParam(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Like handles POST /api/like. Type defaults to "like"; "superlike" is the
// only other accepted value here, a pass goes through its own endpoint.
func (h *Handler) Like(c *gin.Context) {
	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, svcErr.Validation("target_id is required"))
		return
	}

	kind := db.InteractionKind(req.Type)
	if req.Type == "" {
		kind = db.KindLike
	}
	if kind != db.KindLike && kind != db.KindSuperlike {
		respondError(c, svcErr.Validation("type must be like or superlike"))
		return
	}

	result, err := h.svc.CreateInteraction(c.Request.Context(), server.UserID(c), req.TargetID, kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Pass handles POST /api/pass.
func (h *Handler) Pass(c *gin.Context) {
	var req passRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, svcErr.Validation("target_id is required"))
		return
	}

	result, err := h.svc.CreateInteraction(c.Request.Context(), server.UserID(c), req.TargetID, db.KindPass)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Matches handles GET /api/matches.
func (h *Handler) Matches(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.svc.GetMatches(c.Request.Context(), server.UserID(c), cursorParam(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// AddFavorite handles POST /api/favorites.
func (h *Handler) AddFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, svcErr.Validation("target_id is required"))
		return
	}

	favorite, err := h.svc.AddFavorite(c.Request.Context(), server.UserID(c), req.TargetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorite": favorite})
}

// RemoveFavorite handles DELETE /api/favorites/:target_id.
func (h *Handler) RemoveFavorite(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("target_id"), 10, 64)
	if err != nil {
		respondError(c, svcErr.Validation("target_id must be a valid id"))
		return
	}

	removed, err := h.svc.RemoveFavorite(c.Request.Context(), server.UserID(c), targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// ListFavorites handles GET /api/favorites.
func (h *Handler) ListFavorites(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.svc.GetFavorites(c.Request.Context(), server.UserID(c), cursorParam(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListAdmirers handles GET /api/liked-you.
func (h *Handler) ListAdmirers(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.svc.ListAdmirers(c.Request.Context(), server.UserID(c), cursorParam(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CountAdmirers handles GET /api/liked-you/count.
func (h *Handler) CountAdmirers(c *gin.Context) {
	count, err := h.svc.CountAdmirers(c.Request.Context(), server.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

//
// request parsing
//

func parseFilter(c *gin.Context) (repository.CandidateFilter, error) {
	var f repository.CandidateFilter
	var err error

	if f.AgeMin, err = queryInt(c, "age_min"); err != nil {
		return f, err
	}
	if f.AgeMax, err = queryInt(c, "age_max"); err != nil {
		return f, err
	}
	if f.HeightMin, err = queryInt(c, "height_min"); err != nil {
		return f, err
	}
	if f.HeightMax, err = queryInt(c, "height_max"); err != nil {
		return f, err
	}
	if v := c.Query("goal"); v != "" {
		f.Goal = &v
	}
	if v := c.Query("education"); v != "" {
		f.Education = &v
	}
	if v := c.Query("verified_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, svcErr.Validation("verified_only must be a boolean")
		}
		f.VerifiedOnly = b
	}
	return f, nil
}

func queryInt(c *gin.Context, name string) (*int, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, svcErr.Validation(name + " must be an integer")
	}
	return &n, nil
}

func parseLimit(c *gin.Context) (int, error) {
	v := c.Query("limit")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, svcErr.Validation("limit must be an integer")
	}
	return n, nil
}

func cursorParam(c *gin.Context) *string {
	if v := c.Query("cursor"); v != "" {
		return &v
	}
	return nil
}

func respondError(c *gin.Context, err error) {
	kind, msg := svcErr.Public(err)
	c.JSON(svcErr.HTTPStatus(err), gin.H{
		"error": gin.H{"kind": kind, "message": msg},
	})
}
