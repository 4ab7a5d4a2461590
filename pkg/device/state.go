package device

import (
	"fmt"
	"io"

	"github.com/ssargent/famblob/pkg/codec"
	"github.com/ssargent/famblob/pkg/versionize"
)

// CurrentStateVersion is the newest VcpuState schema.
//
//	1: Regs, Msrs
//	2: Regs, Msrs, Cpuid
const CurrentStateVersion = 2

// VcpuState is the saved state of a single vCPU.
type VcpuState struct {
	Regs  Regs
	Msrs  *Msrs
	Cpuid *Cpuid
}

// NewVcpuState returns a state with empty MSR and CPUID lists.
func NewVcpuState() *VcpuState {
	return &VcpuState{
		Msrs:  codec.NewFamWrapper[MsrsHeader, MsrEntry](),
		Cpuid: codec.NewFamWrapper[CpuidHeader, CpuidEntry](),
	}
}

// DefaultVersionMap maps application version 1 to VcpuState v1 and
// application version 2 to VcpuState v2.
func DefaultVersionMap() *versionize.VersionMap {
	vm := versionize.NewVersionMap().NewVersion()
	if err := versionize.SetVersion[VcpuState](vm, 2); err != nil {
		// SetVersion only rejects version 0.
		panic(err)
	}
	return vm
}

func schemaVersion(vm *versionize.VersionMap, appVersion uint16) (uint16, error) {
	v := versionize.VersionOf[VcpuState](vm, appVersion)
	if v > CurrentStateVersion {
		return 0, versionize.NewError("resolve", "device.VcpuState", versionize.ErrInvalidVersion,
			fmt.Errorf("schema version %d, newest known is %d", v, CurrentStateVersion))
	}
	return v, nil
}

// Serialize writes the fields that exist in the schema selected by vm for
// targetVersion.
func (s *VcpuState) Serialize(w io.Writer, vm *versionize.VersionMap, targetVersion uint16) error {
	v, err := schemaVersion(vm, targetVersion)
	if err != nil {
		return err
	}
	if err := codec.WriteBlob(w, s.Regs); err != nil {
		return fmt.Errorf("regs: %w", err)
	}
	if err := codec.EncodeFam(w, s.Msrs, vm, targetVersion); err != nil {
		return fmt.Errorf("msrs: %w", err)
	}
	if v >= 2 {
		if err := codec.EncodeFam(w, s.Cpuid, vm, targetVersion); err != nil {
			return fmt.Errorf("cpuid: %w", err)
		}
	}
	return nil
}

// Deserialize reads a state written at sourceVersion. Fields newer than the
// source schema are left empty. s is only modified on success.
func (s *VcpuState) Deserialize(r io.Reader, vm *versionize.VersionMap, sourceVersion uint16) error {
	v, err := schemaVersion(vm, sourceVersion)
	if err != nil {
		return err
	}

	regs, err := codec.ReadBlob[Regs](r)
	if err != nil {
		return fmt.Errorf("regs: %w", err)
	}
	msrs, err := codec.DecodeFam[MsrsHeader, MsrEntry](r, vm, sourceVersion)
	if err != nil {
		return fmt.Errorf("msrs: %w", err)
	}
	cpuid := codec.NewFamWrapper[CpuidHeader, CpuidEntry]()
	if v >= 2 {
		if cpuid, err = codec.DecodeFam[CpuidHeader, CpuidEntry](r, vm, sourceVersion); err != nil {
			return fmt.Errorf("cpuid: %w", err)
		}
	}

	s.Regs = regs
	s.Msrs = msrs
	s.Cpuid = cpuid
	return nil
}

// Version returns CurrentStateVersion.
func (*VcpuState) Version() uint16 {
	return CurrentStateVersion
}

// VcpuStateDoc is the human editable form of a VcpuState used by the CLI
// and the HTTP API.
type VcpuStateDoc struct {
	Regs  Regs         `json:"regs" yaml:"regs"`
	Msrs  []MsrEntry   `json:"msrs" yaml:"msrs"`
	Cpuid []CpuidEntry `json:"cpuid,omitempty" yaml:"cpuid,omitempty"`
}

// Doc converts s to its document form.
func (s *VcpuState) Doc() VcpuStateDoc {
	doc := VcpuStateDoc{Regs: s.Regs, Msrs: []MsrEntry{}}
	if s.Msrs != nil {
		doc.Msrs = s.Msrs.Entries()
	}
	if s.Cpuid != nil && s.Cpuid.Len() > 0 {
		doc.Cpuid = s.Cpuid.Entries()
	}
	return doc
}

// State builds a VcpuState from the document. Lists longer than the
// hardware limits are rejected with codec.ErrSizeLimitExceeded.
func (d VcpuStateDoc) State() (*VcpuState, error) {
	msrs, err := codec.FromEntries[MsrsHeader](d.Msrs)
	if err != nil {
		return nil, fmt.Errorf("msrs: %w", err)
	}
	cpuid, err := codec.FromEntries[CpuidHeader](d.Cpuid)
	if err != nil {
		return nil, fmt.Errorf("cpuid: %w", err)
	}
	return &VcpuState{Regs: d.Regs, Msrs: msrs, Cpuid: cpuid}, nil
}
