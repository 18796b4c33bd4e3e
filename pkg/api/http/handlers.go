package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aescanero/warden/pkg/domain"
)

// WorkerRegisterRequest represents a worker registration request
type WorkerRegisterRequest struct {
	WorkerID string `json:"worker_id"`
	Name     string `json:"name" binding:"required"`
	Host     string `json:"host" binding:"required"`
	Port     int    `json:"port" binding:"required"`
}

// WorkerRegisterResponse represents a worker registration response
type WorkerRegisterResponse struct {
	WorkerID     string `json:"worker_id"`
	Status       string `json:"status"`
	RegisteredAt string `json:"registered_at"`
}

// WorkerResponse represents the worker data returned by status queries
type WorkerResponse struct {
	WorkerID        string `json:"worker_id"`
	Name            string `json:"name"`
	Host            string `json:"host"`
	Port            int    `json:"port"`
	Status          string `json:"status"`
	LastHeartbeatAt string `json:"last_heartbeat_at,omitempty"`
	RegisteredAt    string `json:"registered_at"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// handleRoot handles the root banner endpoint
func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "warden coordinator",
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"checks": gin.H{
			"registry": "ok",
		},
	})
}

// handleRegisterWorker handles worker registration
func (s *Server) handleRegisterWorker(c *gin.Context) {
	var req WorkerRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Error("invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	record, err := s.registry.Register(c.Request.Context(), &domain.RegisterRequest{
		WorkerID: req.WorkerID,
		Name:     req.Name,
		Host:     req.Host,
		Port:     req.Port,
	})
	if err != nil {
		s.logger.Error("failed to register worker", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "REGISTRATION_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, WorkerRegisterResponse{
		WorkerID:     record.WorkerID,
		Status:       string(record.Status),
		RegisteredAt: record.RegisteredAt.Format(time.RFC3339),
	})
}

// handleListWorkers handles listing all workers
func (s *Server) handleListWorkers(c *gin.Context) {
	records, err := s.registry.List(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to list workers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "STORAGE_ERROR",
				Message: "Failed to retrieve workers",
				Details: err.Error(),
			},
		})
		return
	}

	workers := make([]WorkerResponse, len(records))
	for i, record := range records {
		workers[i] = workerRecordToResponse(record)
	}

	c.JSON(http.StatusOK, gin.H{
		"workers": workers,
		"total":   len(workers),
	})
}

// handleGetWorker handles getting a specific worker
func (s *Server) handleGetWorker(c *gin.Context) {
	workerID := c.Param("id")

	record, err := s.registry.Get(c.Request.Context(), workerID)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownWorker) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: ErrorDetail{
					Code:    "WORKER_NOT_FOUND",
					Message: "Worker not found",
				},
			})
			return
		}

		s.logger.Error("failed to get worker",
			zap.String("worker_id", workerID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "STORAGE_ERROR",
				Message: "Failed to retrieve worker",
				Details: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, workerRecordToResponse(record))
}

// handleRemoveWorker handles the administrative worker delete
func (s *Server) handleRemoveWorker(c *gin.Context) {
	workerID := c.Param("id")

	if err := s.registry.Remove(c.Request.Context(), workerID); err != nil {
		s.logger.Error("failed to remove worker",
			zap.String("worker_id", workerID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "REMOVAL_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"worker_id": workerID,
		"status":    "removed",
	})
}

// workerRecordToResponse converts a domain record to the API format
func workerRecordToResponse(record *domain.WorkerRecord) WorkerResponse {
	resp := WorkerResponse{
		WorkerID:     record.WorkerID,
		Name:         record.Name,
		Host:         record.Host,
		Port:         record.Port,
		Status:       string(record.Status),
		RegisteredAt: record.RegisteredAt.Format(time.RFC3339),
	}

	if record.LastHeartbeatAt != nil {
		resp.LastHeartbeatAt = record.LastHeartbeatAt.Format(time.RFC3339)
	}

	return resp
}
