package redact

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gowebpki/jcs"
)

// AnonymizeStats reports what AnonymizeFile wrote.
type AnonymizeStats struct {
	Records int
	Skipped int
}

// AnonymizeOptions returns the options used for fixture anonymization:
// home paths, hosts, emails, credentials and UUIDs are replaced and long
// strings truncated.
func AnonymizeOptions(maxLen int) Options {
	return Options{UUIDs: true, MaxLen: maxLen}
}

// AnonymizeFile redacts a session file into dst. JSONL input is handled
// line by line and malformed lines are dropped; a .json document is
// redacted whole and indented. Output objects use canonical JSON (RFC 8785)
// so fixtures diff cleanly.
func AnonymizeFile(src, dst string, opts Options) (AnonymizeStats, error) {
	in, err := os.Open(src)
	if err != nil {
		return AnonymizeStats{}, fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	var out bytes.Buffer
	r := New(opts)
	var stats AnonymizeStats
	if strings.EqualFold(filepath.Ext(src), ".json") {
		stats, err = r.anonymizeDocument(in, &out)
	} else {
		stats, err = r.anonymizeLines(in, &out)
	}
	if err != nil {
		return stats, err
	}

	if dir := filepath.Dir(dst); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return stats, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(dst, out.Bytes(), 0o644); err != nil {
		return stats, fmt.Errorf("failed to write output: %w", err)
	}
	return stats, nil
}

func (r *Redactor) anonymizeLines(in io.Reader, out *bytes.Buffer) (AnonymizeStats, error) {
	var stats AnonymizeStats
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var value any
		if err := decode(line, &value); err != nil {
			stats.Skipped++
			continue
		}
		canonical, err := r.canonical(value)
		if err != nil {
			return stats, err
		}
		out.Write(canonical)
		out.WriteByte('\n')
		stats.Records++
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read input: %w", err)
	}
	return stats, nil
}

func (r *Redactor) anonymizeDocument(in io.Reader, out *bytes.Buffer) (AnonymizeStats, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return AnonymizeStats{}, fmt.Errorf("failed to read input: %w", err)
	}
	var value any
	if err := decode(data, &value); err != nil {
		return AnonymizeStats{}, fmt.Errorf("failed to parse input: %w", err)
	}
	canonical, err := r.canonical(value)
	if err != nil {
		return AnonymizeStats{}, err
	}
	if err := json.Indent(out, canonical, "", "  "); err != nil {
		return AnonymizeStats{}, fmt.Errorf("failed to indent output: %w", err)
	}
	out.WriteByte('\n')
	return AnonymizeStats{Records: 1}, nil
}

// canonical redacts value and encodes it with sorted keys. Records whose
// numbers would not survive a round trip through float64 skip the JCS
// number formatting and keep their literals.
func (r *Redactor) canonical(value any) ([]byte, error) {
	redacted := r.Redact(value)
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(redacted); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	encoded := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	if !exactNumbers(redacted) {
		return encoded, nil
	}
	canonical, err := jcs.Transform(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize record: %w", err)
	}
	return canonical, nil
}

// exactNumbers reports whether every number in value keeps its value when
// written as the shortest float64 representation.
func exactNumbers(value any) bool {
	switch v := value.(type) {
	case json.Number:
		literal, ok := new(big.Rat).SetString(v.String())
		if !ok {
			return false
		}
		f, err := v.Float64()
		if err != nil {
			return false
		}
		shortest, ok := new(big.Rat).SetString(strconv.FormatFloat(f, 'g', -1, 64))
		return ok && literal.Cmp(shortest) == 0
	case map[string]any:
		for _, item := range v {
			if !exactNumbers(item) {
				return false
			}
		}
	case []any:
		for _, item := range v {
			if !exactNumbers(item) {
				return false
			}
		}
	}
	return true
}

func decode(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		return err
	}
	if decoder.More() {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}
