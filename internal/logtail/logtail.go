package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one parsed log line.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	// Attrs is the remainder of the line after the message (text format) or
	// the raw JSON object (json format).
	Attrs string
	Raw   string
	// Parsed is false for continuation or foreign lines.
	Parsed bool
}

const textTimeLayout = "2006-01-02 15:04:05"

var shortLevels = map[string]slog.Level{
	"DBG": slog.LevelDebug,
	"INF": slog.LevelInfo,
	"WRN": slog.LevelWarn,
	"ERR": slog.LevelError,
}

// Parse understands both formats the logging package writes: tint text
// lines ("2006-01-02 15:04:05 WRN msg key=value") and slog JSON objects.
func Parse(line string) Entry {
	e := Entry{Raw: line, Level: slog.LevelInfo}
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return e
	}

	if strings.HasPrefix(trimmed, "{") && gjson.Valid(trimmed) {
		obj := gjson.Parse(trimmed)
		if ts := obj.Get("time"); ts.Exists() {
			e.Time, _ = time.Parse(time.RFC3339Nano, ts.String())
		}
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(obj.Get("level").String())); err == nil {
			e.Level = lvl
		}
		e.Message = obj.Get("msg").String()
		e.Attrs = trimmed
		e.Parsed = true
		return e
	}

	if len(trimmed) < len(textTimeLayout)+4 {
		return e
	}
	ts, err := time.ParseInLocation(textTimeLayout, trimmed[:len(textTimeLayout)], time.Local)
	if err != nil {
		return e
	}
	rest := strings.TrimSpace(trimmed[len(textTimeLayout):])
	code, rest, _ := strings.Cut(rest, " ")
	lvl, ok := parseLevelCode(code)
	if !ok {
		return e
	}
	e.Time = ts
	e.Level = lvl
	e.Message, e.Attrs = splitMessage(rest)
	e.Parsed = true
	return e
}

// parseLevelCode accepts tint's three-letter codes including offsets such
// as "WRN+2".
func parseLevelCode(code string) (slog.Level, bool) {
	base, offset, hasOffset := strings.Cut(code, "+")
	if !hasOffset {
		base, offset, hasOffset = strings.Cut(code, "-")
		if hasOffset {
			offset = "-" + offset
		}
	}
	lvl, ok := shortLevels[base]
	if !ok {
		return 0, false
	}
	if hasOffset {
		var n int
		if _, err := fmt.Sscanf(offset, "%d", &n); err == nil {
			lvl += slog.Level(n)
		}
	}
	return lvl, true
}

// splitMessage separates the free-text message from trailing key=value
// attributes.
func splitMessage(rest string) (string, string) {
	fields := strings.Fields(rest)
	for i, f := range fields {
		if k, _, ok := strings.Cut(f, "="); ok && k != "" && !strings.ContainsAny(k, `"'`) {
			return strings.Join(fields[:i], " "), strings.Join(fields[i:], " ")
		}
	}
	return rest, ""
}

// Filter keeps parsed entries at or above min. Unparsed lines directly
// after a kept entry are kept with it.
func Filter(lines []string, min slog.Level) []Entry {
	out := make([]Entry, 0, len(lines))
	keeping := false
	for _, line := range lines {
		e := Parse(line)
		if !e.Parsed {
			if keeping {
				out = append(out, e)
			}
			continue
		}
		keeping = e.Level >= min
		if keeping {
			out = append(out, e)
		}
	}
	return out
}
