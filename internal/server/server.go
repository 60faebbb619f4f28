package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/virajbhatt/cardintel/internal/common"
	"github.com/virajbhatt/cardintel/internal/pipeline"
	"github.com/virajbhatt/cardintel/internal/quota"
)

// Server wires the extraction pipeline into the HTTP surface. Auth is an
// upstream concern; requester identity arrives via the X-Requester-ID header.
type Server struct {
	pipeline *pipeline.Processor
	limiter  *quota.Limiter
	pool     *pgxpool.Pool
	tempDir  string
	log      *slog.Logger
}

func New(proc *pipeline.Processor, limiter *quota.Limiter, pool *pgxpool.Pool, tempDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		pipeline: proc,
		limiter:  limiter,
		pool:     pool,
		tempDir:  tempDir,
		log:      logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = 16 << 20

	r.GET("/health", s.healthHandler)

	api := r.Group("/api")
	api.Use(requireRequesterID())
	api.POST("/cards/extract", s.extractCardHandler)
	api.GET("/usage", s.usageHandler)

	return r
}

// requireRequesterID rejects requests without an identity header and stores
// the identity plus a fresh request id on the request context.
func requireRequesterID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requesterID := c.GetHeader("X-Requester-ID")
		if requesterID == "" {
			c.JSON(400, gin.H{"error": "X-Requester-ID header is required"})
			c.Abort()
			return
		}
		ctx := common.WithRequesterID(c.Request.Context(), requesterID)
		ctx = common.WithRequestID(ctx, uuid.New().String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, 3*time.Second)
	defer cancel()
	if err := s.pool.Ping(ctx); err != nil {
		c.JSON(503, gin.H{"status": "degraded", "db": err.Error()})
		return
	}
	c.JSON(200, gin.H{"status": "ok", "db": "up"})
}
