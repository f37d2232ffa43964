package health

import (
	"context"
	"database/sql"
)

type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
}

type HealthStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// DBHealthChecker reports unhealthy when the database cannot be pinged
type DBHealthChecker struct {
	db *sql.DB
}

func NewDBHealthChecker(db *sql.DB) *DBHealthChecker {
	return &DBHealthChecker{db: db}
}

func (h *DBHealthChecker) Check(ctx context.Context) HealthStatus {
	if err := h.db.PingContext(ctx); err != nil {
		return HealthStatus{Status: "unhealthy", Error: err.Error()}
	}
	return HealthStatus{Status: "healthy"}
}

// MockHealthChecker reports a fixed status
type MockHealthChecker struct {
	Status HealthStatus
}

func NewMockHealthChecker() *MockHealthChecker {
	return &MockHealthChecker{Status: HealthStatus{Status: "healthy"}}
}

func (mh *MockHealthChecker) Check(ctx context.Context) HealthStatus {
	return mh.Status
}
