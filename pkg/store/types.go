package store

import (
	"time"

	"github.com/ssargent/famblob/pkg/snapshot"
)

// LogWriterConfig holds configuration for the journal writer
type LogWriterConfig struct {
	FilePath      string          // Path to the journal file
	FsyncInterval time.Duration   // How often to fsync (0 = every write)
	BufferSize    int             // Write buffer size
	Codec         *snapshot.Codec // Frame codec, nil for an uncompressed default
}

// LogReaderConfig holds configuration for the journal reader
type LogReaderConfig struct {
	FilePath    string          // Path to the journal file
	StartOffset int64           // Offset to start reading from
	Codec       *snapshot.Codec // Frame codec, nil for an uncompressed default
}

// Entry is a snapshot frame together with its position in the journal
type Entry struct {
	Offset int64
	Frame  *snapshot.Frame
}

// Size returns the number of bytes the entry occupies on disk
func (e *Entry) Size() int64 {
	return e.Frame.Header.FrameSize()
}

// EntryIterator provides streaming access to journal entries
type EntryIterator interface {
	Next() bool
	Entry() *Entry
	Err() error
	Close() error
}

// Errors
var (
	ErrCorruption = &JournalError{"journal corruption detected"}
	ErrClosed     = &JournalError{"journal closed"}
)

// JournalError represents a journal error
type JournalError struct {
	Message string
}

func (e *JournalError) Error() string {
	return e.Message
}

func codecOrDefault(c *snapshot.Codec) *snapshot.Codec {
	if c == nil {
		return snapshot.NewCodec(false)
	}
	return c
}
