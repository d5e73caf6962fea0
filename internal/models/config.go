package models

import "time"

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig
	Custody    CustodyConfig
	ProfileAPI ProfileAPIConfig
	TiersFile  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// CustodyConfig holds key custody settings. MasterKeyHex is the
// hex-encoded 256-bit key that encrypts custodial private keys at rest.
type CustodyConfig struct {
	MasterKeyHex string
}

// ProfileAPIConfig holds remote profile service settings. Profile sync is
// best-effort; an empty BaseURL disables it entirely.
type ProfileAPIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
}
