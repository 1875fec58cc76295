package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	Author    string    `json:"author"`
	Fields    []string  `json:"fields"`
	StoreType string    `json:"store_type"`
	Syncing   bool      `json:"syncing"`
	SyncState SyncState `json:"sync_state"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	storeType := "unknown"
	var fields []string
	if s.store != nil {
		storeType = "store"
		if comp, ok := s.store.(introspection.Component); ok {
			storeType = comp.ComponentType()
		}
		fields = s.store.Schema().Names()
	}

	return ServiceState{
		Author:    s.author,
		Fields:    fields,
		StoreType: storeType,
		Syncing:   s.syncer != nil,
		SyncState: s.syncState,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
