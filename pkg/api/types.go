package api

import (
	"github.com/segmentio/ksuid"

	"github.com/ssargent/famblob/pkg/device"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind   string
	Port   int
	APIKey string // Empty disables API key checks
}

// SnapshotStore is the storage the snapshot service persists frames in
type SnapshotStore interface {
	Create(data []byte) (*ksuid.KSUID, error)
	Read(id *ksuid.KSUID) ([]byte, error)
	Update(id *ksuid.KSUID, data []byte) error
	Delete(id *ksuid.KSUID) error
	List() ([]ksuid.KSUID, error)
	Close() error
}

// SnapshotInfo describes a stored snapshot
type SnapshotInfo struct {
	ID         string `json:"id"`
	Size       int    `json:"size"`
	AppVersion uint16 `json:"app_version"`
	Compressed bool   `json:"compressed"`
	RawSize    uint32 `json:"raw_size"`
	Timestamp  uint64 `json:"timestamp"`
	MsrCount   int    `json:"msr_count"`
	CpuidCount int    `json:"cpuid_count"`
}

// SnapshotResponse is a decoded snapshot
type SnapshotResponse struct {
	SnapshotInfo
	State device.VcpuStateDoc `json:"state"`
}
