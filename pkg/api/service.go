package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/famblob/pkg/codec"
	"github.com/ssargent/famblob/pkg/device"
	"github.com/ssargent/famblob/pkg/snapshot"
	"github.com/ssargent/famblob/pkg/storage"
	"github.com/ssargent/famblob/pkg/versionize"
)

// Service errors, mapped to HTTP status codes by the handlers
var (
	ErrInvalidID      = errors.New("invalid snapshot id")
	ErrInvalidRequest = errors.New("invalid request")
)

// SnapshotService encodes vCPU state into snapshot frames and keeps them in a
// SnapshotStore
type SnapshotService struct {
	store          SnapshotStore
	codec          *snapshot.Codec
	vm             *versionize.VersionMap
	defaultVersion uint16
	metrics        *Metrics
}

// NewSnapshotService creates a service. appVersion 0 selects the newest
// version known to vm. metrics may be nil.
func NewSnapshotService(store SnapshotStore, c *snapshot.Codec, vm *versionize.VersionMap, appVersion uint16, metrics *Metrics) *SnapshotService {
	if appVersion == 0 {
		appVersion = vm.LatestVersion()
	}
	return &SnapshotService{
		store:          store,
		codec:          c,
		vm:             vm,
		defaultVersion: appVersion,
		metrics:        metrics,
	}
}

// Put stores doc at appVersion (0 for the default) and returns its info
func (s *SnapshotService) Put(ctx context.Context, doc device.VcpuStateDoc, appVersion uint16) (*SnapshotInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	state, err := doc.State()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	frame, err := s.encode(state, appVersion)
	if err != nil {
		return nil, err
	}

	id, err := s.store.Create(frame)
	if err != nil {
		return nil, fmt.Errorf("store snapshot: %w", err)
	}
	log.Debug().Str("id", id.String()).Int("bytes", len(frame)).Msg("snapshot stored")
	return s.info(id.String(), frame, state)
}

// Replace overwrites the snapshot stored under id
func (s *SnapshotService) Replace(ctx context.Context, id string, doc device.VcpuStateDoc, appVersion uint16) (*SnapshotInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	kid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	state, err := doc.State()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	frame, err := s.encode(state, appVersion)
	if err != nil {
		return nil, err
	}
	if err := s.store.Update(kid, frame); err != nil {
		return nil, err
	}
	return s.info(kid.String(), frame, state)
}

// Get decodes the snapshot stored under id
func (s *SnapshotService) Get(ctx context.Context, id string) (*SnapshotResponse, error) {
	frame, err := s.GetRaw(ctx, id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	state := device.NewVcpuState()
	_, err = s.codec.Decode(frame, state, s.vm)
	s.metrics.RecordCodecOperation("decode", err == nil, len(frame), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", id, err)
	}

	si, err := s.info(id, frame, state)
	if err != nil {
		return nil, err
	}
	return &SnapshotResponse{SnapshotInfo: *si, State: state.Doc()}, nil
}

// GetRaw returns the stored frame bytes for id
func (s *SnapshotService) GetRaw(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	kid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.store.Read(kid)
}

// Delete removes the snapshot stored under id
func (s *SnapshotService) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kid, err := parseID(id)
	if err != nil {
		return err
	}
	return s.store.Delete(kid)
}

// List returns the ids of all stored snapshots, oldest first
func (s *SnapshotService) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids, err := s.store.List()
	if err != nil {
		return nil, err
	}
	s.metrics.UpdateSnapshotCount(len(ids))

	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out, nil
}

func (s *SnapshotService) encode(state *device.VcpuState, appVersion uint16) ([]byte, error) {
	if appVersion == 0 {
		appVersion = s.defaultVersion
	}
	start := time.Now()
	frame, err := s.codec.Encode(state, s.vm, appVersion)
	s.metrics.RecordCodecOperation("encode", err == nil, len(frame), time.Since(start))
	if errors.Is(err, snapshot.ErrUnsupportedVersion) || errors.Is(err, snapshot.ErrPayloadTooLarge) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return frame, err
}

func parseID(id string) (*ksuid.KSUID, error) {
	kid, err := ksuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidID, id, err)
	}
	return &kid, nil
}

func (s *SnapshotService) info(id string, frame []byte, state *device.VcpuState) (*SnapshotInfo, error) {
	h, err := codec.DecodeBlob[snapshot.Header](frame)
	if err != nil {
		return nil, err
	}
	cpuid := state.Cpuid.Len()
	if versionize.VersionOf[device.VcpuState](s.vm, h.AppVersion) < 2 {
		cpuid = 0
	}
	return &SnapshotInfo{
		ID:         id,
		Size:       len(frame),
		AppVersion: h.AppVersion,
		Compressed: h.Compressed(),
		RawSize:    h.RawSize,
		Timestamp:  h.Timestamp,
		MsrCount:   state.Msrs.Len(),
		CpuidCount: cpuid,
	}, nil
}

// isNotFound reports whether err means the snapshot does not exist
func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
