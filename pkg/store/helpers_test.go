package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ssargent/famblob/pkg/device"
)

func testState(t *testing.T, msrs int) *device.VcpuState {
	t.Helper()
	doc := device.VcpuStateDoc{Regs: device.Regs{Rip: uint64(msrs)}}
	for i := 0; i < msrs; i++ {
		doc.Msrs = append(doc.Msrs, device.MsrEntry{Index: uint32(i), Data: uint64(i) << 8})
	}
	s, err := doc.State()
	require.NoError(t, err)
	return s
}

func decodeState(t *testing.T, e *Entry) *device.VcpuState {
	t.Helper()
	s := device.NewVcpuState()
	require.NoError(t, e.Frame.Decode(s, device.DefaultVersionMap()))
	return s
}
