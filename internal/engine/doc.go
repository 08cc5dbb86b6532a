// Package engine implements the provisioning orchestrator. It owns the
// end-to-end lifecycle of service instances: resolving definitions against
// kind defaults, creating and starting runtime objects under deterministic
// names, gating on health, and keeping the registry and record store in sync.
//
// Discovery runs lazily before the first operation, so the engine converges
// with whatever a previous process incarnation left behind before it acts.
package engine
