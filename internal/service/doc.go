// Package service defines the data model of the provisioning engine: service
// kinds, desired-state definitions, observed-state instances, the status and
// health axes, per-kind defaults, and the in-memory registry.
//
// # Definitions and instances
//
// A Definition is what a caller asks for; an Instance is what the engine
// observed after provisioning. The two are linked by the deterministic
// resource identity "<kind>-<name>", which is also used as the runtime object
// name so that discovery can re-derive ownership from the runtime alone.
//
// # Effective configuration
//
// ApplyDefaults merges kind defaults under a caller definition field by field.
// Explicit caller values always win. The merged definition is stored on the
// instance as its effective configuration and persisted with it.
//
// # Registry
//
// Registry is the only mutable shared structure in the engine. It is safe for
// concurrent readers and writers and enforces (kind, name) uniqueness on every
// upsert.
package service
