package dataprep

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// ParseSpeakers reads a pipe-delimited speaker metadata table and
// returns the speaker-id to gender mapping.
//
// Only lines whose first non-space rune is a digit are records; headers
// and comment lines (";ID |SEX | ...") fall through this check and are
// ignored. Record fields are `speaker_id | gender | ...` with
// surrounding whitespace trimmed.
func ParseSpeakers(r io.Reader) (map[string]string, error) {
	genders := make(map[string]string)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || !unicode.IsDigit(rune(line[0])) {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 2 {
			return nil, fmt.Errorf("dataprep: speakers line %d: expected `id | gender | ...`, got %q", lineNo, line)
		}
		id := strings.TrimSpace(fields[0])
		gender := strings.TrimSpace(fields[1])
		if gender == "" {
			return nil, fmt.Errorf("dataprep: speakers line %d: empty gender for speaker %s", lineNo, id)
		}
		genders[id] = gender
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dataprep: read speakers: %w", err)
	}
	return genders, nil
}

// LoadSpeakers parses the speaker table from a file.
func LoadSpeakers(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataprep: open speakers file: %w", err)
	}
	defer f.Close()
	return ParseSpeakers(f)
}
