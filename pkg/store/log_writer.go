package store

import (
	"bufio"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ssargent/famblob/pkg/snapshot"
	"github.com/ssargent/famblob/pkg/versionize"
)

// LogWriter handles append-only writes of snapshot frames to the journal
type LogWriter struct {
	file       *os.File
	writer     *bufio.Writer
	codec      *snapshot.Codec
	fsyncTimer *time.Timer
	config     LogWriterConfig
	mutex      sync.Mutex
	offset     int64 // Current write offset
	closed     bool
}

// NewLogWriter opens the journal for appending. A torn frame left at the end
// of an existing journal is truncated away first.
func NewLogWriter(config LogWriterConfig) (*LogWriter, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0750); err != nil {
		return nil, err
	}

	c := codecOrDefault(config.Codec)
	if _, err := Recover(config.FilePath, c); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	// Seek to end for append behavior
	end, err := file.Seek(0, 2)
	if err != nil {
		file.Close()
		return nil, err
	}

	writer := &LogWriter{
		file:   file,
		writer: bufio.NewWriterSize(file, config.BufferSize),
		codec:  c,
		config: config,
		offset: end,
	}

	// Set up fsync timer if interval is configured
	if config.FsyncInterval > 0 {
		writer.fsyncTimer = time.AfterFunc(config.FsyncInterval, func() {
			writer.mutex.Lock()
			defer writer.mutex.Unlock()
			if !writer.closed {
				if err := writer.sync(); err != nil {
					log.Debug().Err(err).Str("path", config.FilePath).Msg("journal background sync failed")
				}
			}
		})
	}

	return writer, nil
}

// Append encodes obj at appVersion and appends it, returning the frame offset
func (w *LogWriter) Append(obj versionize.Serializer, vm *versionize.VersionMap, appVersion uint16) (int64, error) {
	frame, err := w.codec.Encode(obj, vm, appVersion)
	if err != nil {
		return 0, err
	}
	return w.AppendFrame(frame)
}

// AppendFrame appends an already encoded frame and returns its offset
func (w *LogWriter) AppendFrame(frame []byte) (int64, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return 0, ErrClosed
	}

	n, err := w.writer.Write(frame)
	if err != nil {
		return 0, err
	}

	// Calculate the offset where this frame starts
	frameOffset := w.offset
	w.offset += int64(n)

	// Sync immediately if no fsync interval configured
	if w.config.FsyncInterval == 0 {
		if err := w.sync(); err != nil {
			return 0, err
		}
	} else if w.fsyncTimer != nil {
		w.fsyncTimer.Reset(w.config.FsyncInterval)
	}

	return frameOffset, nil
}

// Sync forces a fsync to disk
func (w *LogWriter) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.sync()
}

func (w *LogWriter) sync() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close flushes, syncs and closes the journal
func (w *LogWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.fsyncTimer != nil {
		w.fsyncTimer.Stop()
	}

	if err := w.sync(); err != nil {
		w.file.Close()
		return err
	}

	return w.file.Close()
}

// Size returns the current size of the journal
func (w *LogWriter) Size() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.offset
}

// Path returns the file path
func (w *LogWriter) Path() string {
	return w.config.FilePath
}
