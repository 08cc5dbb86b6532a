package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dockhand/internal/service"
)

// Record is the durable projection of a service instance, used solely for
// recovery across process restarts. It is not the source of truth for
// liveness: the runtime is. Ports and the effective configuration are stored
// JSON-encoded for cross-implementation compatibility.
type Record struct {
	ServiceID        string `yaml:"serviceId" json:"service_id"`
	Kind             string `yaml:"kind" json:"kind"`
	Name             string `yaml:"name" json:"name"`
	ResourceIdentity string `yaml:"resourceIdentity" json:"resource_identity"`
	Owner            string `yaml:"owner,omitempty" json:"owner"`
	NodeID           string `yaml:"nodeId,omitempty" json:"node_id"`
	Endpoint         string `yaml:"endpoint,omitempty" json:"endpoint"`
	Ports            string `yaml:"ports,omitempty" json:"ports"`
	CreatedAt        int64  `yaml:"createdAt" json:"created_at"` // epoch millis
	Config           string `yaml:"config,omitempty" json:"config"`
}

// Store is the contract for durable service records. Implementations are
// best-effort durability for faster recovery, not a transactional guarantee;
// callers log and swallow failures.
type Store interface {
	// Upsert inserts or replaces the record keyed by its service id.
	Upsert(ctx context.Context, rec Record) error

	// LoadAll returns every persisted record.
	LoadAll(ctx context.Context) ([]Record, error)

	// Delete removes the record with the given service id. Deleting an
	// unknown id is a no-op.
	Delete(ctx context.Context, serviceID string) error
}

// FromInstance projects an instance into its durable record.
func FromInstance(inst service.Instance) (Record, error) {
	ports, err := json.Marshal(inst.Ports)
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode ports for %s: %w", inst.ID, err)
	}
	config, err := json.Marshal(inst.Config)
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode config for %s: %w", inst.ID, err)
	}

	return Record{
		ServiceID:        inst.ID,
		Kind:             string(inst.Kind),
		Name:             inst.Name,
		ResourceIdentity: inst.Identity,
		Owner:            inst.Owner,
		NodeID:           inst.NodeID,
		Endpoint:         inst.Endpoint,
		Ports:            string(ports),
		CreatedAt:        inst.CreatedAt.UnixMilli(),
		Config:           string(config),
	}, nil
}

// ToInstance rebuilds an instance from a durable record. Status and health
// come back unknown; the reconciler refreshes them from the runtime, since a
// persisted record may be stale.
func (r Record) ToInstance() (service.Instance, error) {
	kind, err := service.ParseKind(r.Kind)
	if err != nil {
		return service.Instance{}, fmt.Errorf("record %s: %w", r.ServiceID, err)
	}

	var ports []service.PortMapping
	if r.Ports != "" {
		if err := json.Unmarshal([]byte(r.Ports), &ports); err != nil {
			return service.Instance{}, fmt.Errorf("record %s: failed to decode ports: %w", r.ServiceID, err)
		}
	}

	var config service.Definition
	if r.Config != "" {
		if err := json.Unmarshal([]byte(r.Config), &config); err != nil {
			return service.Instance{}, fmt.Errorf("record %s: failed to decode config: %w", r.ServiceID, err)
		}
	}

	return service.Instance{
		ID:        r.ServiceID,
		Kind:      kind,
		Name:      r.Name,
		Identity:  r.ResourceIdentity,
		Owner:     r.Owner,
		NodeID:    r.NodeID,
		Endpoint:  r.Endpoint,
		Ports:     ports,
		CreatedAt: time.UnixMilli(r.CreatedAt),
		Status:    service.StatusUnknown,
		Health:    service.HealthUnknown,
		Config:    config,
	}, nil
}
