package middleware

import (
	stderrors "errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/filecrate/filecrate/internal/permissions"
	"github.com/filecrate/filecrate/pkg/errors"
	"github.com/filecrate/filecrate/pkg/logger"
	"github.com/filecrate/filecrate/pkg/metrics"
	"github.com/filecrate/filecrate/pkg/response"
)

// CtxFileIDKey carries the resolved file identifier past a successful
// guard check so handlers do not re-parse the request.
const CtxFileIDKey = "fileID"

// Guard enforces a declared permission level before a file operation
// executes. Routes that are not about a single file simply do not attach
// the guard; there is no "no id means allow" fallback.
type Guard struct {
	evaluator *permissions.Evaluator
	log       *zap.Logger
}

// NewGuard constructs the request-boundary enforcement point.
func NewGuard(evaluator *permissions.Evaluator) (*Guard, error) {
	if evaluator == nil {
		return nil, stderrors.New("guard: evaluator is required")
	}
	return &Guard{evaluator: evaluator, log: logger.WithModule("guard")}, nil
}

// RequireLevel returns middleware that denies the request unless the
// authenticated principal holds the given level on the target file. The
// check fails closed: missing identity, missing file reference and store
// faults are all denials.
func (g *Guard) RequireLevel(required permissions.Level) gin.HandlerFunc {
	return func(c *gin.Context) {
		principalID := c.GetString(CtxUserIDKey)
		if principalID == "" {
			metrics.PermissionChecks.WithLabelValues(required.String(), "deny").Inc()
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		fileID := resolveFileID(c)
		if fileID == "" {
			metrics.PermissionChecks.WithLabelValues(required.String(), "deny").Inc()
			g.log.Warn("permission check without resource reference",
				zap.String("principal", principalID),
				zap.String("required", required.String()),
				zap.String("path", c.Request.URL.Path),
			)
			response.Error(c, errors.ErrMissingResourceReference)
			c.Abort()
			return
		}

		decision, err := g.evaluator.Evaluate(c.Request.Context(), principalID, fileID, required)
		if err != nil {
			// Operational fault, not a policy decision. Still a deny.
			metrics.PermissionChecks.WithLabelValues(required.String(), "error").Inc()
			g.log.Error("permission evaluation unavailable",
				zap.String("principal", principalID),
				zap.String("file", fileID),
				zap.String("required", required.String()),
				zap.Error(err),
			)
			response.Error(c, errors.ErrEvaluationUnavailable)
			c.Abort()
			return
		}

		if !decision.Allowed {
			metrics.PermissionChecks.WithLabelValues(required.String(), "deny").Inc()
			g.log.Info("permission denied",
				zap.String("principal", principalID),
				zap.String("file", fileID),
				zap.String("reason", string(decision.Reason)),
				zap.String("held", decision.Held.String()),
				zap.String("required", decision.Required.String()),
			)
			if decision.Reason == permissions.ReasonResourceNotFound {
				response.Error(c, errors.ErrNotFound)
			} else {
				response.Error(c, errors.ErrForbidden)
			}
			c.Abort()
			return
		}

		metrics.PermissionChecks.WithLabelValues(required.String(), "allow").Inc()
		c.Set(CtxFileIDKey, fileID)
		c.Next()
	}
}

type fileRefBody struct {
	FileID string `json:"file_id"`
}

// resolveFileID extracts the target file identifier with a fixed
// precedence: path parameter, then query parameter, then JSON body
// field. First non-empty match wins.
func resolveFileID(c *gin.Context) string {
	if id := strings.TrimSpace(c.Param("id")); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.Query("file_id")); id != "" {
		return id
	}

	if c.ContentType() == binding.MIMEJSON && c.Request.Body != nil {
		// BindBodyWith buffers the body so handlers can re-bind it.
		var ref fileRefBody
		if err := c.ShouldBindBodyWith(&ref, binding.JSON); err == nil {
			return strings.TrimSpace(ref.FileID)
		}
	}
	return ""
}
