package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A missing
// file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count, next := 0, 0
	for scanner.Scan() {
		ring[next] = scanner.Text()
		next = (next + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	if count < maxLines {
		return append([]string(nil), ring[:count]...), nil
	}
	lines := make([]string, 0, count)
	lines = append(lines, ring[next:]...)
	lines = append(lines, ring[:next]...)
	return lines, nil
}

// Field is one extra key of a structured log line.
type Field struct {
	Key   string
	Value string
}

// Entry is a decoded zerolog JSON line. Lines that are not JSON keep their
// text in Message and have an empty Level.
type Entry struct {
	Time    time.Time
	Level   string
	Message string
	Fields  []Field
}

// Parse decodes one zerolog line. Extra fields are sorted by key.
func Parse(line string) Entry {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return Entry{Message: trimmed}
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return Entry{Message: trimmed}
	}

	var entry Entry
	for key, value := range raw {
		text := rawText(value)
		switch key {
		case "time":
			if ts, err := time.Parse(time.RFC3339, text); err == nil {
				entry.Time = ts
			}
		case "level":
			entry.Level = text
		case "message":
			entry.Message = text
		default:
			entry.Fields = append(entry.Fields, Field{Key: key, Value: text})
		}
	}
	sort.Slice(entry.Fields, func(i, j int) bool { return entry.Fields[i].Key < entry.Fields[j].Key })
	return entry
}

func rawText(value json.RawMessage) string {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s
	}
	return string(value)
}

// Format renders an entry as one readable line:
//
//	15:04:05 WARN  submit failed  error="..." id=r1
func Format(entry Entry) string {
	if entry.Level == "" && entry.Time.IsZero() {
		return entry.Message
	}
	var b strings.Builder
	if !entry.Time.IsZero() {
		b.WriteString(entry.Time.In(time.Local).Format("15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", strings.ToUpper(orDefault(entry.Level, "info")))
	if entry.Message != "" {
		b.WriteByte(' ')
		b.WriteString(entry.Message)
	}
	for _, f := range entry.Fields {
		b.WriteString("  ")
		b.WriteString(f.Key)
		b.WriteByte('=')
		if strings.ContainsAny(f.Value, " \t") {
			b.WriteString(fmt.Sprintf("%q", f.Value))
		} else {
			b.WriteString(f.Value)
		}
	}
	return b.String()
}

// Tail reads the last maxLines of path and formats each one.
func Tail(path string, maxLines int) ([]Entry, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, Parse(line))
	}
	return entries, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
