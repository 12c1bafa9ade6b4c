// Package timeouts defines shared timeout constants used across the arena
// process. Centralizing these values prevents drift between the transport
// boundaries and makes the durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long the gateway HTTP server waits for request
// headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the gateway HTTP server waits for in-flight
// requests during graceful shutdown.
const Shutdown = 5 * time.Second

// OTelShutdown caps the time spent flushing pending trace spans when a
// service command exits.
const OTelShutdown = 5 * time.Second
