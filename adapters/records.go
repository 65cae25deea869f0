package adapters

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/yoavf/as-i-was-saying/model"
)

// backwardChunkSize is how much of a file is read per step when walking
// JSONL records from the end.
const backwardChunkSize = 64 * 1024

// Record is one decoded top-level record.
type Record struct {
	Raw map[string]any

	// End is the byte offset just past the record's line. It is zero for
	// records that come from a single JSON document.
	End int64
}

// openSession opens a session file, mapping a missing file to
// ErrSessionFileNotFound.
func openSession(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSessionFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open session file: %w", err)
	}
	return file, nil
}

// decodeLine decodes one JSONL line. Blank, malformed or non-object lines
// are reported as not ok.
func decodeLine(line []byte) (map[string]any, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, false
	}
	var raw map[string]any
	if err := decodeJSON(line, &raw); err != nil || raw == nil {
		return nil, false
	}
	return raw, true
}

// ReadRecords calls fn for each record of the file in physical order until
// fn returns false. Malformed JSONL lines are skipped.
func ReadRecords(path string, format Format, fn func(Record) bool) error {
	if format == FormatDocument {
		messages, err := ReadDocument(path)
		if err != nil {
			return err
		}
		for _, message := range messages {
			if !fn(Record{Raw: message}) {
				return nil
			}
		}
		return nil
	}

	file, err := openSession(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := bufio.NewReaderSize(file, 1024*1024)
	var offset int64
	for {
		line, readErr := reader.ReadBytes('\n')
		offset += int64(len(line))
		if raw, ok := decodeLine(line); ok {
			if !fn(Record{Raw: raw, End: offset}) {
				return nil
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("failed to read session file: %w", readErr)
		}
	}
}

// ReadRecordsBackward calls fn for each JSONL record that starts at or
// after floor, last record first, until fn returns false. floor must be a
// line boundary such as a Record.End from a forward pass.
func ReadRecordsBackward(path string, floor int64, fn func(Record) bool) error {
	file, err := openSession(path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat session file: %w", err)
	}

	end := info.Size()
	pos := end
	var carry []byte
	emit := func(line []byte, lineEnd int64) bool {
		raw, ok := decodeLine(line)
		if !ok {
			return true
		}
		return fn(Record{Raw: raw, End: lineEnd})
	}

	// carryEnd is the offset just past the bytes held in carry.
	carryEnd := end
	for pos > floor {
		n := int64(backwardChunkSize)
		if pos-floor < n {
			n = pos - floor
		}
		pos -= n

		chunk := make([]byte, n, n+int64(len(carry)))
		if _, err := file.ReadAt(chunk, pos); err != nil && err != io.EOF {
			return fmt.Errorf("failed to read session file: %w", err)
		}
		buf := append(chunk, carry...)
		bufEnd := carryEnd

		for {
			i := bytes.LastIndexByte(buf, '\n')
			if i < 0 {
				break
			}
			line := buf[i+1:]
			if !emit(line, bufEnd) {
				return nil
			}
			bufEnd -= int64(len(line)) + 1
			buf = buf[:i]
		}
		carry = buf
		carryEnd = bufEnd
	}

	if len(carry) > 0 {
		emit(carry, carryEnd)
	}
	return nil
}

// ReadDocument reads a single-document session file and returns its
// message objects. Non-object entries are skipped.
func ReadDocument(path string) ([]map[string]any, error) {
	data, err := readSessionFile(path)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := decodeJSON(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse session document: %w", err)
	}

	var messages []map[string]any
	for _, item := range sliceField(doc, "messages") {
		if message, ok := item.(map[string]any); ok {
			messages = append(messages, message)
		}
	}
	return messages, nil
}

func readSessionFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSessionFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	return data, nil
}

// CollectEvents reads and normalizes every record of a session file.
func CollectEvents(path string, adapter Adapter) ([]model.Event, error) {
	var events []model.Event
	err := ReadRecords(path, adapter.Layout().Format, func(record Record) bool {
		events = append(events, adapter.Normalize(record.Raw)...)
		return true
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
