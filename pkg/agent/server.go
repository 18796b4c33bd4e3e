package agent

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aescanero/warden/internal/config"
)

// NewHTTPServer builds the agent's own HTTP server: a banner endpoint
// and the health endpoint the coordinator records the address of.
func NewHTTPServer(cfg *config.AgentConfig, a *Agent, logger *zap.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":   "warden agent " + a.Name(),
			"worker_id": a.WorkerID(),
			"status":    "running",
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"worker_id": a.WorkerID(),
			"name":      a.Name(),
		})
	})

	return &http.Server{
		Addr:    cfg.GetWorkerAddr(),
		Handler: router,
	}
}
