package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emberdate/engine/internal/app"
	"github.com/emberdate/engine/internal/db"
	svcErr "github.com/emberdate/engine/internal/errors"
	"github.com/emberdate/engine/internal/matching"
	"github.com/emberdate/engine/internal/repository"
	"github.com/emberdate/engine/internal/session"
)

// Server is the thin HTTP façade over the engine. It owns no durable
// state, only the in-memory session registry; authentication happens
// upstream and arrives as a pre-validated X-User-ID header.
type Server struct {
	appCtx     *app.AppContext
	controller *session.Controller
	matching   *matching.Service
	blocks     *repository.BlockRepository
	users      *repository.UserRepository
	registry   *Registry
}

// New wires the façade from its collaborators.
func New(
	appCtx *app.AppContext,
	controller *session.Controller,
	matchingSvc *matching.Service,
	blocks *repository.BlockRepository,
	users *repository.UserRepository,
) *Server {
	return &Server{
		appCtx:     appCtx,
		controller: controller,
		matching:   matchingSvc,
		blocks:     blocks,
		users:      users,
		registry:   NewRegistry(),
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.health)

	v1 := r.Group("/v1")
	{
		v1.POST("/sessions", s.beginSession)
		v1.GET("/sessions/:id", s.getSession)
		v1.DELETE("/sessions/:id", s.endSession)
		v1.POST("/sessions/:id/swipes", s.submitSwipe)
		v1.POST("/sessions/:id/match-dismissal", s.dismissMatch)
		v1.POST("/sessions/:id/detail-toggle", s.toggleDetail)

		v1.GET("/me/admirers", s.listAdmirers)
		v1.GET("/me/admirers/new", s.listNewAdmirers)
		v1.GET("/me/admirers/count", s.countAdmirers)
		v1.GET("/me/matches", s.listMatches)
		v1.POST("/me/blocks", s.createBlock)
		v1.DELETE("/me/blocks/:blocked_id", s.deleteBlock)

		v1.DELETE("/users/:id", s.deleteUser)
	}
	return r
}

// Run starts serving on addr, blocking until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

// --- helpers ---

// identity extracts the validated user id the auth layer placed in the
// X-User-ID header.
func identity(c *gin.Context) (uint64, bool) {
	raw := c.GetHeader("X-User-ID")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid X-User-ID"})
		return 0, false
	}
	return id, true
}

// ownedSession resolves the :id session and checks the caller owns it.
func (s *Server) ownedSession(c *gin.Context) (*session.Session, bool) {
	userID, ok := identity(c)
	if !ok {
		return nil, false
	}
	sess, ok := s.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	if sess.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your session"})
		return nil, false
	}
	return sess, true
}

func fail(c *gin.Context, err error) {
	c.JSON(svcErr.HTTPStatus(err), gin.H{"error": err.Error()})
}

func (s *Server) health(c *gin.Context) {
	if err := s.appCtx.RedisCache.Ping(c.Request.Context()); err != nil {
		s.appCtx.Logger.Warn("health check failed", "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- session handlers ---

func (s *Server) beginSession(c *gin.Context) {
	userID, ok := identity(c)
	if !ok {
		return
	}

	sess, err := s.controller.Begin(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	s.registry.Put(sess)
	c.JSON(http.StatusCreated, sess.Snapshot())
}

func (s *Server) getSession(c *gin.Context) {
	sess, ok := s.ownedSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (s *Server) endSession(c *gin.Context) {
	sess, ok := s.ownedSession(c)
	if !ok {
		return
	}
	s.registry.Remove(sess.ID)
	c.Status(http.StatusNoContent)
}

type swipeRequest struct {
	Action string `json:"action" binding:"required"`
}

func (s *Server) submitSwipe(c *gin.Context) {
	sess, ok := s.ownedSession(c)
	if !ok {
		return
	}

	var req swipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action is required"})
		return
	}

	snap, err := s.controller.SubmitSwipe(c.Request.Context(), sess, db.SwipeAction(req.Action))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) dismissMatch(c *gin.Context) {
	sess, ok := s.ownedSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.controller.DismissMatch(sess))
}

func (s *Server) toggleDetail(c *gin.Context) {
	sess, ok := s.ownedSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.controller.ToggleDetail(sess))
}

// --- listing handlers ---

// pageParams reads the limit/page_token query parameters.
func pageParams(c *gin.Context) (int, *string) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	var token *string
	if raw := c.Query("page_token"); raw != "" {
		token = &raw
	}
	return limit, token
}

func admirersResponse(c *gin.Context, admirers []matching.Admirer, next *string) {
	resp := gin.H{"admirers": admirers}
	if next != nil {
		resp["next_page_token"] = *next
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listAdmirers(c *gin.Context) {
	userID, ok := identity(c)
	if !ok {
		return
	}

	limit, token := pageParams(c)
	admirers, next, err := s.matching.ListAdmirers(c.Request.Context(), userID, token, limit)
	if err != nil {
		fail(c, err)
		return
	}
	admirersResponse(c, admirers, next)
}

func (s *Server) listNewAdmirers(c *gin.Context) {
	userID, ok := identity(c)
	if !ok {
		return
	}

	limit, token := pageParams(c)
	admirers, next, err := s.matching.ListNewAdmirers(c.Request.Context(), userID, token, limit)
	if err != nil {
		fail(c, err)
		return
	}
	admirersResponse(c, admirers, next)
}

func (s *Server) countAdmirers(c *gin.Context) {
	userID, ok := identity(c)
	if !ok {
		return
	}
	count, err := s.matching.CountAdmirers(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (s *Server) listMatches(c *gin.Context) {
	userID, ok := identity(c)
	if !ok {
		return
	}
	matches, err := s.matching.ListMatches(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// --- block handlers ---

type blockRequest struct {
	BlockedID uint64 `json:"blocked_id" binding:"required"`
}

func (s *Server) createBlock(c *gin.Context) {
	userID, ok := identity(c)
	if !ok {
		return
	}

	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "blocked_id is required"})
		return
	}

	block, err := s.blocks.Create(c.Request.Context(), userID, req.BlockedID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"blocker_id": block.BlockerID,
		"blocked_id": block.BlockedID,
		"created_at": block.CreatedAt,
	})
}

func (s *Server) deleteBlock(c *gin.Context) {
	userID, ok := identity(c)
	if !ok {
		return
	}
	blockedID, err := strconv.ParseUint(c.Param("blocked_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "blocked_id must be a valid uint64"})
		return
	}
	if err := s.blocks.Delete(c.Request.Context(), userID, blockedID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- account handlers ---

// deleteUser removes an account and cascades its swipes, blocks, and
// matches. Callers may only delete themselves.
func (s *Server) deleteUser(c *gin.Context) {
	userID, ok := identity(c)
	if !ok {
		return
	}
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a valid uint64"})
		return
	}
	if targetID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "can only delete your own account"})
		return
	}
	if err := s.users.Delete(c.Request.Context(), targetID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
