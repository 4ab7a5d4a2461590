// Package device defines the vCPU state types that famblob snapshots carry:
// MSR lists and CPUID tables as FAM structures, general purpose registers as
// a plain blob, and the versioned VcpuState aggregate.
package device
