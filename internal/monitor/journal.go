package monitor

import (
	"bufio"
	"context"
	"encoding/json"
	"os/exec"
)

// priorityLevels maps syslog priorities from journald to Loki level labels.
var priorityLevels = map[string]string{
	"0": "emergency",
	"1": "alert",
	"2": "critical",
	"3": "error",
	"4": "warning",
	"5": "notice",
	"6": "info",
	"7": "debug",
}

// journalLoop follows the service's journal and forwards each entry to
// Loki with a level label derived from the syslog priority. When
// journalctl exits (or cannot start), the loop ends; the supervisor
// restart covers recovery.
func (m *Monitor) journalLoop(ctx context.Context) {
	m.logger.Info("Starting journal log stream for %s", m.cfg.MonitorService)

	cmd := exec.CommandContext(ctx, "journalctl",
		"-u", m.cfg.MonitorService, "-f", "-o", "json", "-n", "0")

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		m.logger.Error("Failed to open journal pipe: %v", err)
		return
	}
	if err := cmd.Start(); err != nil {
		m.logger.Error("Failed to start journalctl: %v", err)
		return
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		var entry struct {
			Message  string `json:"MESSAGE"`
			Priority string `json:"PRIORITY"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}

		level, ok := priorityLevels[entry.Priority]
		if !ok {
			level = "info"
		}

		m.pushLine(entry.Message, map[string]string{
			"level":  level,
			"source": "journald",
			"unit":   m.cfg.MonitorService,
		})
	}

	cmd.Wait()
	m.logger.Warning("Journal stream for %s ended", m.cfg.MonitorService)
}
