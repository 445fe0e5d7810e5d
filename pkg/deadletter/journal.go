package deadletter

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/dd0wney/cluso-graphsink/pkg/metrics"
)

// JournalFile is the file name used inside the journal directory.
const JournalFile = "deadletter.journal"

// Journal is an append-only local file of failed batches.
//
// Entry format: [Seq:8][DataLen:4][Data:N][Checksum:4][Timestamp:8], where
// Data is snappy-compressed JSON and Checksum is the CRC32 of Data.
type Journal struct {
	file    *os.File
	writer  *bufio.Writer
	path    string
	seq     uint64
	metrics *metrics.Registry
	closed  bool
	mu      sync.Mutex
}

// JournalEntry is one replayed journal record.
type JournalEntry struct {
	Seq       uint64
	Timestamp int64
	Batch     FailedBatch
}

// OpenJournal opens or creates the journal in dir.
func OpenJournal(dir string, opts ...Option) (*Journal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	path := filepath.Join(dir, JournalFile)
	entries, err := ReadJournal(path)
	if err != nil {
		return nil, fmt.Errorf("failed to recover journal: %w", err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}

	j := &Journal{
		file:    file,
		writer:  bufio.NewWriter(file),
		path:    path,
		metrics: applyOptions(opts).metrics,
	}
	if len(entries) > 0 {
		j.seq = entries[len(entries)-1].Seq
	}
	return j, nil
}

// Record appends batch to the journal and flushes it to the OS.
func (j *Journal) Record(_ context.Context, batch FailedBatch) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrClosed
	}

	batch.stamp()
	data, err := encode(batch)
	if err != nil {
		j.metrics.RecordDeadLetter("journal", "error", 0)
		return fmt.Errorf("failed to encode batch: %w", err)
	}

	j.seq++
	if err := j.writeEntry(j.seq, data, batch.Time.Unix()); err != nil {
		j.metrics.RecordDeadLetter("journal", "error", 0)
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	j.metrics.RecordDeadLetter("journal", "success", len(data))
	return nil
}

func (j *Journal) writeEntry(seq uint64, data []byte, ts int64) error {
	if err := binary.Write(j.writer, binary.BigEndian, seq); err != nil {
		return err
	}
	if err := binary.Write(j.writer, binary.BigEndian, uint32(len(data))); err != nil {
		return err
	}
	if _, err := j.writer.Write(data); err != nil {
		return err
	}
	if err := binary.Write(j.writer, binary.BigEndian, crc32.ChecksumIEEE(data)); err != nil {
		return err
	}
	if err := binary.Write(j.writer, binary.BigEndian, ts); err != nil {
		return err
	}
	return j.writer.Flush()
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

// Close syncs and closes the journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true

	if err := j.writer.Flush(); err != nil {
		return err
	}
	if err := j.file.Sync(); err != nil {
		return err
	}
	return j.file.Close()
}

// ReadJournal replays every entry of the journal at path. A missing file
// yields no entries.
func ReadJournal(path string) ([]JournalEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	var entries []JournalEntry

	for {
		var entry JournalEntry

		if err := binary.Read(reader, binary.BigEndian, &entry.Seq); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		var dataLen uint32
		if err := binary.Read(reader, binary.BigEndian, &dataLen); err != nil {
			return nil, err
		}

		data := make([]byte, dataLen)
		if _, err := io.ReadFull(reader, data); err != nil {
			return nil, err
		}

		var checksum uint32
		if err := binary.Read(reader, binary.BigEndian, &checksum); err != nil {
			return nil, err
		}
		if crc32.ChecksumIEEE(data) != checksum {
			return nil, fmt.Errorf("checksum mismatch for entry %d", entry.Seq)
		}

		if err := binary.Read(reader, binary.BigEndian, &entry.Timestamp); err != nil {
			return nil, err
		}

		entry.Batch, err = decode(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode entry %d: %w", entry.Seq, err)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
