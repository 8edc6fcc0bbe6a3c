package sessionlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const fieldCount = 9

// Format renders rec as a record line:
//
//	<elapsed>; <ax>; <ay>; <az>; <rh>; <pa>; <temp>; <lux>; <volts>\r\n
//
// Integer fields are plain decimals; the three trailing values carry
// three decimals.
func Format(rec Record) []byte {
	return fmt.Appendf(nil, "%d; %d; %d; %d; %d; %d; %.3f; %.3f; %.3f\r\n",
		rec.ElapsedMs,
		rec.AccelX, rec.AccelY, rec.AccelZ,
		rec.Humidity,
		rec.Pressure,
		rec.Temperature,
		rec.Light,
		rec.Battery)
}

// ParseRecord parses one record line. The line terminator is optional.
func ParseRecord(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return Record{}, fmt.Errorf("%w: empty line", ErrMalformedRecord)
	}

	fields := strings.Split(line, ";")
	if len(fields) != fieldCount {
		return Record{}, fmt.Errorf("%w: %d fields, want %d", ErrMalformedRecord, len(fields), fieldCount)
	}

	var ints [6]int64
	for i := range ints {
		v, err := strconv.ParseInt(strings.TrimSpace(fields[i]), 10, 64)
		if err != nil {
			return Record{}, fmt.Errorf("%w: field %d: %v", ErrMalformedRecord, i+1, err)
		}
		ints[i] = v
	}

	var floats [3]float64
	for i := range floats {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[6+i]), 64)
		if err != nil {
			return Record{}, fmt.Errorf("%w: field %d: %v", ErrMalformedRecord, 7+i, err)
		}
		floats[i] = v
	}

	return Record{
		ElapsedMs:   ints[0],
		AccelX:      ints[1],
		AccelY:      ints[2],
		AccelZ:      ints[3],
		Humidity:    ints[4],
		Pressure:    ints[5],
		Temperature: floats[0],
		Light:       floats[1],
		Battery:     floats[2],
	}, nil
}

// ReadFile parses the records of a session file starting at offset.
//
// Returns:
//   - the records that parsed; malformed lines are skipped and counted
//   - the offset just past the last complete line read
//   - the number of skipped lines
//   - an error if the file cannot be read or is too large
//
// A trailing partial line (power lost mid-write) is not consumed, so the
// returned offset can be used to resume.
func ReadFile(path string, offset int64) ([]Record, int64, int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, 0, 0, fmt.Errorf("%w: size=%d, max=%d", ErrFileTooLarge, info.Size(), MaxFileSize)
	}
	if offset < 0 || offset > info.Size() {
		return nil, 0, 0, fmt.Errorf("%w: %d", ErrInvalidOffset, offset)
	}

	// #nosec G304: path comes from discovery on the configured medium
	f, err := os.Open(path) // nolint:gosec
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to seek to offset %d: %w", offset, err)
	}

	records := make([]Record, 0, 128)
	skipped := 0
	pos := offset
	r := bufio.NewReaderSize(f, 64*1024)

	for {
		line, err := r.ReadString('\n')
		if err == io.EOF {
			// Partial trailing line is left for a later read.
			break
		}
		if err != nil {
			return records, pos, skipped, fmt.Errorf("failed to read at offset %d: %w", pos, err)
		}
		pos += int64(len(line))

		if len(line) > MaxLineLength {
			skipped++
			continue
		}
		rec, parseErr := ParseRecord(line)
		if parseErr != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	return records, pos, skipped, nil
}
