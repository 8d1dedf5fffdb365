package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/owizdom/mind-agent/internal/types"
)

// RegisterInstance registers a polling agent instance. Re-registering an
// existing instance ID marks it running again with a fresh heartbeat.
func (s *SQLiteStorage) RegisterInstance(ctx context.Context, instance *types.AgentInstance) error {
	if err := instance.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_instances (instance_id, hostname, pid, status, started_at, last_heartbeat, version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(instance_id) DO UPDATE SET
			status = excluded.status,
			started_at = excluded.started_at,
			last_heartbeat = excluded.last_heartbeat
	`, instance.InstanceID, instance.Hostname, instance.PID, instance.Status,
		instance.StartedAt, instance.LastHeartbeat, instance.Version)
	if err != nil {
		return fmt.Errorf("failed to register instance: %w", err)
	}
	return nil
}

// UpdateHeartbeat refreshes an instance's heartbeat timestamp
func (s *SQLiteStorage) UpdateHeartbeat(ctx context.Context, instanceID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE agent_instances SET last_heartbeat = ? WHERE instance_id = ?
	`, time.Now(), instanceID)
	if err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check heartbeat update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("instance %s not found", instanceID)
	}
	return nil
}

// MarkInstanceStopped marks an instance as stopped
func (s *SQLiteStorage) MarkInstanceStopped(ctx context.Context, instanceID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE agent_instances SET status = ? WHERE instance_id = ?
	`, types.AgentStatusStopped, instanceID)
	if err != nil {
		return fmt.Errorf("failed to mark instance stopped: %w", err)
	}
	return nil
}

// GetActiveInstances returns instances currently registered as running
func (s *SQLiteStorage) GetActiveInstances(ctx context.Context) ([]*types.AgentInstance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT instance_id, hostname, pid, status, started_at, last_heartbeat, version
		FROM agent_instances
		WHERE status = ?
		ORDER BY started_at DESC
	`, types.AgentStatusRunning)
	if err != nil {
		return nil, fmt.Errorf("failed to get active instances: %w", err)
	}
	defer rows.Close()

	var instances []*types.AgentInstance
	for rows.Next() {
		var inst types.AgentInstance
		err := rows.Scan(&inst.InstanceID, &inst.Hostname, &inst.PID, &inst.Status,
			&inst.StartedAt, &inst.LastHeartbeat, &inst.Version)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instance: %w", err)
		}
		instances = append(instances, &inst)
	}
	return instances, rows.Err()
}

// CleanupStaleInstances marks running instances with heartbeats older than
// staleSeconds as stopped. Returns the number of instances cleaned.
func (s *SQLiteStorage) CleanupStaleInstances(ctx context.Context, staleSeconds int) (int, error) {
	cutoff := time.Now().Add(-time.Duration(staleSeconds) * time.Second)
	result, err := s.db.ExecContext(ctx, `
		UPDATE agent_instances SET status = ?
		WHERE status = ? AND last_heartbeat < ?
	`, types.AgentStatusStopped, types.AgentStatusRunning, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup stale instances: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleaned instances: %w", err)
	}
	return int(affected), nil
}
