package store

import "time"

// Config aggregates backend configuration. The engine only ever talks to one
// relational warehouse; there is no columnar/cache/queue backend to configure
type Config struct {
	AppName string

	PG PGConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// Guard/boot knobs. openPG does not read them: it makes up to 20 ping
	// attempts with a 3s timeout each
	ConnectRetries int
	PingTimeout    time.Duration
}
