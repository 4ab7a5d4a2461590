package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/ssargent/famblob/pkg/snapshot"
)

// LogReader provides sequential access to the frames of a journal
type LogReader struct {
	file   *os.File
	reader *bufio.Reader
	codec  *snapshot.Codec
	offset int64
	config LogReaderConfig
}

// NewLogReader creates a new journal reader for the specified file
func NewLogReader(config LogReaderConfig) (*LogReader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	if config.StartOffset > 0 {
		if _, err := file.Seek(config.StartOffset, 0); err != nil {
			file.Close()
			return nil, err
		}
	}

	return &LogReader{
		file:   file,
		reader: bufio.NewReader(file),
		codec:  codecOrDefault(config.Codec),
		offset: config.StartOffset,
		config: config,
	}, nil
}

// ReadNext reads the frame at the current offset. It returns io.EOF at a
// clean end of the journal and ErrCorruption for a torn or damaged frame.
func (r *LogReader) ReadNext() (*Entry, error) {
	entry, err := readEntry(r.codec, r.reader, r.offset)
	if err != nil {
		return nil, err
	}
	r.offset += entry.Size()
	return entry, nil
}

// ReadAt reads the frame at a specific offset without moving the sequential
// read position
func (r *LogReader) ReadAt(offset int64) (*Entry, error) {
	// Always reopen the file to ensure we see the latest data
	file, err := os.Open(r.config.FilePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if _, err := file.Seek(offset, 0); err != nil {
		return nil, err
	}

	entry, err := readEntry(r.codec, bufio.NewReader(file), offset)
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: no frame at offset %d", ErrCorruption, offset)
	}
	return entry, err
}

// Seek sets the read offset
func (r *LogReader) Seek(offset int64) error {
	if _, err := r.file.Seek(offset, 0); err != nil {
		return err
	}

	r.reader = bufio.NewReader(r.file) // Recreate reader to clear buffer
	r.offset = offset
	return nil
}

// Offset returns the current read offset
func (r *LogReader) Offset() int64 {
	return r.offset
}

// Iterator returns a streaming iterator over the remaining frames
func (r *LogReader) Iterator() EntryIterator {
	return &logEntryIterator{reader: r}
}

// Close closes the journal reader
func (r *LogReader) Close() error {
	return r.file.Close()
}

func readEntry(c *snapshot.Codec, rd io.Reader, offset int64) (*Entry, error) {
	frame, err := c.ReadFrame(rd)
	if err != nil {
		var pathErr *os.PathError
		switch {
		case errors.Is(err, io.EOF):
			// Nothing at all was read: clean end of journal.
			return nil, io.EOF
		case errors.As(err, &pathErr):
			return nil, err
		default:
			return nil, fmt.Errorf("%w at offset %d: %w", ErrCorruption, offset, err)
		}
	}
	return &Entry{Offset: offset, Frame: frame}, nil
}

// Recover scans the journal and truncates anything after the last intact
// frame. It returns the size of the valid prefix. A missing file is not an
// error.
func Recover(path string, c *snapshot.Codec) (int64, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer file.Close()

	c = codecOrDefault(c)
	rd := bufio.NewReader(file)
	var valid int64
	for {
		entry, err := readEntry(c, rd, valid)
		if errors.Is(err, io.EOF) {
			return valid, nil
		}
		if errors.Is(err, ErrCorruption) {
			log.Debug().Err(err).Str("path", path).Int64("valid_size", valid).Msg("truncating damaged journal tail")
			if err := file.Truncate(valid); err != nil {
				return 0, err
			}
			return valid, file.Sync()
		}
		if err != nil {
			return 0, err
		}
		valid += entry.Size()
	}
}

// logEntryIterator implements EntryIterator for streaming access
type logEntryIterator struct {
	reader *LogReader
	entry  *Entry
	err    error
}

func (it *logEntryIterator) Next() bool {
	it.entry, it.err = it.reader.ReadNext()
	return it.err == nil
}

func (it *logEntryIterator) Entry() *Entry {
	return it.entry
}

// Err returns the error that stopped iteration, nil at a clean end
func (it *logEntryIterator) Err() error {
	if errors.Is(it.err, io.EOF) {
		return nil
	}
	return it.err
}

func (it *logEntryIterator) Close() error {
	// Don't close the underlying reader as it's owned by the caller
	return nil
}
