package config

const (
	RoutingOffline = "offline"
	RoutingNone    = "none"
)

// Routing defines configuration options for routing
type Routing struct {
	// Type sets default routing mode.
	Type string
}
