package api

import "time"

// v0 contains public types shared by the orchestrator, its backends and callers.

// AccountRecord is one account created by a provisioning backend. It is
// read-only once a backend returns it.
type AccountRecord struct {
	Username          string         `json:"username" yaml:"username"`
	Password          string         `json:"password" yaml:"password"`
	Email             string         `json:"email,omitempty" yaml:"email,omitempty"`
	PhoneNumber       string         `json:"phone_number,omitempty" yaml:"phone_number,omitempty"`
	Status            string         `json:"status" yaml:"status"`
	LoginVerified     bool           `json:"login_verified" yaml:"login_verified"`
	DeviceFingerprint map[string]any `json:"device_fingerprint,omitempty" yaml:"device_fingerprint,omitempty"`
}

// FailureRecord is a single creation that did not succeed. Index is the
// position of the attempt within its chunk.
type FailureRecord struct {
	Index  int    `json:"index" yaml:"index"`
	Reason string `json:"reason" yaml:"reason"`
}

type FieldUniqueness struct {
	Total    int  `json:"total"`
	Distinct int  `json:"distinct"`
	Clean    bool `json:"clean"`
}

// UniquenessReport holds total vs distinct counts per identity field.
type UniquenessReport struct {
	Username FieldUniqueness `json:"username"`
	Password FieldUniqueness `json:"password"`
	Email    FieldUniqueness `json:"email"`
}

// Clean reports whether every identity field is free of duplicates.
func (u UniquenessReport) Clean() bool {
	return u.Username.Clean && u.Password.Clean && u.Email.Clean
}

type Metrics struct {
	SuccessRate           float64       `json:"success_rate"`
	LoginVerifiedRate     float64       `json:"login_verified_rate"`
	AvgDurationPerCreated time.Duration `json:"-"`
	Elapsed               time.Duration `json:"-"`
	AvgSecondsPerCreated  float64       `json:"avg_seconds_per_created"`
	ElapsedSeconds        float64       `json:"elapsed_seconds"`
}

type ArchiveResult struct {
	Driver   string `json:"driver"`
	Location string `json:"location,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SessionReport is what a caller receives after a provisioning run, whether
// it completed or aborted.
type SessionReport struct {
	SessionID       string           `json:"session_id"`
	TotalRequested  int              `json:"total_requested"`
	ChunkPlan       []int            `json:"chunk_plan"`
	ChunksCompleted int              `json:"chunks_completed"`
	Created         []AccountRecord  `json:"created"`
	Failed          []FailureRecord  `json:"failed"`
	Uniqueness      UniquenessReport `json:"uniqueness"`
	Metrics         Metrics          `json:"metrics"`
	Aborted         bool             `json:"aborted"`
	AbortReason     string           `json:"abort_reason,omitempty"`
	Output          string           `json:"output,omitempty"`
	PersistError    string           `json:"persist_error,omitempty"`
	Archive         *ArchiveResult   `json:"archive,omitempty"`
}

type FleetHealth string

const (
	FleetHealthy  FleetHealth = "healthy"
	FleetDegraded FleetHealth = "degraded"
)

// FleetStatus is recomputed on every probe and never persisted.
type FleetStatus struct {
	Status      FleetHealth `json:"status"`
	DeviceCount int         `json:"device_count"`
	Devices     []string    `json:"devices"`
	FarmHost    string      `json:"farm_host"`
	ProbeError  string      `json:"probe_error,omitempty"`
}

// HealthResponse is the body served by GET /health.
type HealthResponse struct {
	Status   FleetHealth `json:"status"`
	ADB      ADBStatus   `json:"adb"`
	FarmHost string      `json:"farmHost"`
}

type ADBStatus struct {
	OK      bool     `json:"ok"`
	Count   *int     `json:"count,omitempty"`
	Devices []string `json:"devices,omitempty"`
	Error   string   `json:"error,omitempty"`
}
