package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/containerd/errdefs"
	"github.com/containerd/log"
	"github.com/gin-gonic/gin"

	"github.com/idelchi/topdirs/internal/fsusage"
	"github.com/idelchi/topdirs/internal/report"
	"github.com/idelchi/topdirs/internal/topdirs"
)

// topDirsQuery is the query string of GET /api/topdirs.
type topDirsQuery struct {
	Path string `form:"path" binding:"required"`
	Top  int    `form:"top"  binding:"omitempty,min=1,max=1000"`
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.healthz)
		api.GET("/topdirs", s.topDirs)
	}
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// topDirs returns the ranking for a path, from cache when still fresh.
func (s *Server) topDirs(c *gin.Context) {
	var query topDirsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	ctx := c.Request.Context()

	root, err := topdirs.ValidateRoot(query.Path)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})

		return
	}

	top := query.Top
	if top == 0 {
		top = topdirs.DefaultTopN
	}

	if rep, ok := s.cache.get(root, top); ok {
		c.JSON(http.StatusOK, rep)

		return
	}

	result, err := s.runner.Do(ctx, root, top)
	if err != nil {
		log.G(ctx).WithError(err).WithField("path", root).Error("analysis failed")
		c.JSON(statusFor(err), gin.H{"error": err.Error()})

		return
	}

	usage, err := fsusage.Of(root)
	if err != nil {
		log.G(ctx).WithError(err).Debug("filesystem usage unavailable")
	}

	rep := report.New(result, usage)
	s.cache.put(root, top, rep)

	c.JSON(http.StatusOK, rep)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, topdirs.ErrInvalidRoot), errdefs.IsInvalidArgument(err):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
