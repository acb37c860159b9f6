package monitor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"camwatch/internal/config"
	"camwatch/internal/logger"
	"camwatch/internal/loki"
)

// Monitor watches the camera host's streaming service: it restarts the
// service when systemd reports it down, prunes old recordings, and
// forwards the service's journal to Loki.
type Monitor struct {
	cfg    *config.Config
	logger *logger.Logger
	loki   *loki.Client
}

func New(cfg *config.Config, logger *logger.Logger, loki *loki.Client) *Monitor {
	return &Monitor{
		cfg:    cfg,
		logger: logger,
		loki:   loki,
	}
}

// Run starts the health, maintenance and journal loops and blocks until
// the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.pushLine("Pi Camera Monitor started.", map[string]string{"level": "info", "action": "startup"})
	m.logger.Info("Monitor started for service: %s", m.cfg.MonitorService)

	go m.healthLoop(ctx)
	go m.maintenanceLoop(ctx)
	go m.journalLoop(ctx)

	<-ctx.Done()

	m.pushLine("Pi Camera Monitor stopped.", map[string]string{"level": "info", "action": "shutdown"})
	m.logger.Info("Monitor stopped")
}

// healthLoop checks the service state every HealthInterval seconds,
// starting with an immediate check, and triggers a restart when the
// service is not active.
func (m *Monitor) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(m.cfg.HealthInterval) * time.Second)
	defer ticker.Stop()

	for {
		status := m.serviceStatus(ctx)
		if status != "active" && status != "activating" {
			m.restartService(ctx, status)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// serviceStatus queries systemd for the service state ("active",
// "inactive", "failed"...).
func (m *Monitor) serviceStatus(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "systemctl", "is-active", m.cfg.MonitorService).Output()
	if ctx.Err() == context.DeadlineExceeded {
		return "timeout"
	}
	status := strings.TrimSpace(string(out))
	if status == "" && err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return status
}

func (m *Monitor) restartService(ctx context.Context, status string) {
	m.pushLine(fmt.Sprintf("Service %s is %s. Attempting restart.", m.cfg.MonitorService, status),
		map[string]string{"level": "error", "action": "restart"})

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := exec.CommandContext(ctx, "systemctl", "restart", m.cfg.MonitorService).Run(); err != nil {
		m.pushLine(fmt.Sprintf("Failed to restart %s: %v", m.cfg.MonitorService, err),
			map[string]string{"level": "critical", "action": "restart"})
		return
	}

	m.pushLine(fmt.Sprintf("Service %s restarted successfully.", m.cfg.MonitorService),
		map[string]string{"level": "info", "action": "restart"})
}

// maintenanceLoop prunes expired recordings every MaintenanceInterval
// seconds, starting with an immediate pass.
func (m *Monitor) maintenanceLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(m.cfg.MaintenanceInterval) * time.Second)
	defer ticker.Stop()

	retention := time.Duration(m.cfg.RetentionHours) * time.Hour

	for {
		m.runMaintenance(retention)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runMaintenance performs one retention pass and reports the outcome.
func (m *Monitor) runMaintenance(retention time.Duration) {
	removed, freed, err := CleanupRecordings(m.cfg.RecordingsDir, retention, time.Now())
	if err != nil {
		m.pushLine(fmt.Sprintf("Storage maintenance failed: %v", err),
			map[string]string{"level": "error", "action": "cleanup"})
		return
	}
	if removed > 0 {
		msg := fmt.Sprintf("Storage maintenance: removed %d segments, freed %.2f MB",
			removed, float64(freed)/(1024*1024))
		m.pushLine(msg, map[string]string{"level": "info", "action": "cleanup"})
		m.logger.Info("%s", msg)
	}
}

// pushLine forwards a line to Loki and logs shipping failures locally.
func (m *Monitor) pushLine(message string, labels map[string]string) {
	if err := m.loki.PushLine(message, labels); err != nil {
		m.logger.Error("Loki push failed: %v", err)
	}
}
