package device

import "github.com/ssargent/famblob/pkg/codec"

const (
	// MaxMsrEntries bounds the number of MSRs in a single Msrs list.
	MaxMsrEntries = 256
	// MaxCpuidEntries bounds the number of leaves in a single Cpuid table.
	MaxCpuidEntries = 80
)

// MsrEntry is a single model specific register value.
type MsrEntry struct {
	Index    uint32 `json:"index" yaml:"index"`
	Reserved uint32 `json:"reserved,omitempty" yaml:"reserved,omitempty"`
	Data     uint64 `json:"data" yaml:"data"`
}

// MsrsHeader is the fixed part of an MSR list.
type MsrsHeader struct {
	NMsrs uint32
	Pad   uint32
}

func (h MsrsHeader) FamLen() int { return int(h.NMsrs) }

func (h MsrsHeader) WithFamLen(n int) MsrsHeader {
	h.NMsrs = uint32(n)
	return h
}

func (MsrsHeader) FamMaxLen() int { return MaxMsrEntries }

// Msrs is a list of MSR entries.
type Msrs = codec.FamWrapper[MsrsHeader, MsrEntry]

// CpuidEntry is a single CPUID leaf.
type CpuidEntry struct {
	Function uint32    `json:"function" yaml:"function"`
	Index    uint32    `json:"index" yaml:"index"`
	Flags    uint32    `json:"flags,omitempty" yaml:"flags,omitempty"`
	Eax      uint32    `json:"eax" yaml:"eax"`
	Ebx      uint32    `json:"ebx" yaml:"ebx"`
	Ecx      uint32    `json:"ecx" yaml:"ecx"`
	Edx      uint32    `json:"edx" yaml:"edx"`
	Padding  [3]uint32 `json:"-" yaml:"-"`
}

// CpuidHeader is the fixed part of a CPUID table.
type CpuidHeader struct {
	Nent    uint32
	Padding uint32
}

func (h CpuidHeader) FamLen() int { return int(h.Nent) }

func (h CpuidHeader) WithFamLen(n int) CpuidHeader {
	h.Nent = uint32(n)
	return h
}

func (CpuidHeader) FamMaxLen() int { return MaxCpuidEntries }

// Cpuid is a CPUID table.
type Cpuid = codec.FamWrapper[CpuidHeader, CpuidEntry]

// Regs holds the general purpose registers of a vCPU.
type Regs struct {
	Rax    uint64 `json:"rax" yaml:"rax"`
	Rbx    uint64 `json:"rbx" yaml:"rbx"`
	Rcx    uint64 `json:"rcx" yaml:"rcx"`
	Rdx    uint64 `json:"rdx" yaml:"rdx"`
	Rsi    uint64 `json:"rsi" yaml:"rsi"`
	Rdi    uint64 `json:"rdi" yaml:"rdi"`
	Rsp    uint64 `json:"rsp" yaml:"rsp"`
	Rbp    uint64 `json:"rbp" yaml:"rbp"`
	R8     uint64 `json:"r8" yaml:"r8"`
	R9     uint64 `json:"r9" yaml:"r9"`
	R10    uint64 `json:"r10" yaml:"r10"`
	R11    uint64 `json:"r11" yaml:"r11"`
	R12    uint64 `json:"r12" yaml:"r12"`
	R13    uint64 `json:"r13" yaml:"r13"`
	R14    uint64 `json:"r14" yaml:"r14"`
	R15    uint64 `json:"r15" yaml:"r15"`
	Rip    uint64 `json:"rip" yaml:"rip"`
	Rflags uint64 `json:"rflags" yaml:"rflags"`
}
