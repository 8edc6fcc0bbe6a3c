package sessionlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/sdlogger/pkg/logger"
)

func sampleRecord() Record {
	return Record{
		ElapsedMs:   3000,
		AccelX:      -12,
		AccelY:      4,
		AccelZ:      1003,
		Humidity:    41,
		Pressure:    100812,
		Temperature: 23.5,
		Light:       312.25,
		Battery:     3.912,
	}
}

func TestFormat(t *testing.T) {
	got := string(Format(sampleRecord()))
	assert.Equal(t, "3000; -12; 4; 1003; 41; 100812; 23.500; 312.250; 3.912\r\n", got)

	zero := string(Format(Record{}))
	assert.Equal(t, "0; 0; 0; 0; 0; 0; 0.000; 0.000; 0.000\r\n", zero)
}

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord("3000; -12; 4; 1003; 41; 100812; 23.500; 312.250; 3.912\r\n")
	require.NoError(t, err)
	assert.Equal(t, sampleRecord(), rec)

	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"crlf only", "\r\n"},
		{"too few fields", "1; 2; 3"},
		{"too many fields", "1; 2; 3; 4; 5; 6; 7; 8; 9; 10"},
		{"float in integer field", "1.5; 2; 3; 4; 5; 6; 7; 8; 9"},
		{"text in float field", "1; 2; 3; 4; 5; 6; 7; x; 9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecord(tt.line)
			assert.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}

func TestWriterAppendAdvancesOffset(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(Config{Dir: dir}, logger.Noop())
	require.NoError(t, err)

	var offset int64
	var want []byte
	for cycle := int64(1); cycle <= 3; cycle++ {
		rec := sampleRecord()
		rec.ElapsedMs = cycle * 1000
		line := Format(rec)

		n, err := w.Append(6, line, offset)
		require.NoError(t, err)
		assert.Equal(t, len(line), n)
		offset += int64(n)
		want = append(want, line...)
	}

	data, err := os.ReadFile(filepath.Join(dir, "data_6.csv")) // nolint:gosec
	require.NoError(t, err)
	assert.Equal(t, want, data)

	size, err := w.Size(6)
	require.NoError(t, err)
	assert.Equal(t, offset, size)
}

func TestWriterAppendAtOffsetOverwrites(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(Config{Dir: dir, Sync: true}, nil)
	require.NoError(t, err)

	_, err = w.Append(1, []byte("aaaa\r\n"), 0)
	require.NoError(t, err)
	_, err = w.Append(1, []byte("bb\r\n"), 0)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "data_1.csv")) // nolint:gosec
	require.NoError(t, err)
	assert.Equal(t, "bb\r\n\r\n", string(data))
}

func TestWriterRejectsBadInput(t *testing.T) {
	w, err := NewWriter(Config{Dir: t.TempDir()}, logger.Noop())
	require.NoError(t, err)

	_, err = w.Append(1, []byte("x"), -1)
	assert.ErrorIs(t, err, ErrInvalidOffset)

	_, err = w.Append(1, nil, 0)
	assert.ErrorIs(t, err, ErrEmptyRecord)
}

func TestWriterMissingMedium(t *testing.T) {
	w, err := NewWriter(Config{Dir: filepath.Join(t.TempDir(), "gone")}, logger.Noop())
	require.NoError(t, err)

	n, err := w.Append(1, []byte("x\r\n"), 0)
	assert.Error(t, err)
	assert.Zero(t, n)

	size, err := w.Size(1)
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestWriterFileName(t *testing.T) {
	w, err := NewWriter(Config{Dir: "/media/sd"}, logger.Noop())
	require.NoError(t, err)
	assert.Equal(t, "data_0.csv", w.FileName(0))
	assert.Equal(t, "data_65536.csv", w.FileName(65536))

	w, err = NewWriter(Config{Dir: "/media/sd", Pattern: "LOG%d.TXT"}, logger.Noop())
	require.NoError(t, err)
	assert.Equal(t, "LOG12.TXT", w.FileName(12))
}

func TestValidatePattern(t *testing.T) {
	assert.NoError(t, ValidatePattern("data_%d.csv"))
	assert.ErrorIs(t, ValidatePattern("data.csv"), ErrInvalidPattern)
	assert.ErrorIs(t, ValidatePattern("%d_%d.csv"), ErrInvalidPattern)
	assert.ErrorIs(t, ValidatePattern("data_%s.csv"), ErrInvalidPattern)
	assert.ErrorIs(t, ValidatePattern("logs/data_%d.csv"), ErrInvalidPattern)

	_, err := NewWriter(Config{Pattern: "data.csv"}, nil)
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data_2.csv")

	a := sampleRecord()
	b := sampleRecord()
	b.ElapsedMs = 4000
	content := string(Format(a)) + "garbage line\r\n" + string(Format(b)) + "5000; 1; 2"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	records, offset, skipped, err := ReadFile(path, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, a, records[0])
	assert.Equal(t, b, records[1])
	assert.Equal(t, 1, skipped)
	assert.Equal(t, int64(len(content)-len("5000; 1; 2")), offset, "partial trailing line is not consumed")

	// Resume from the returned offset once the line is completed.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600) // nolint:gosec
	require.NoError(t, err)
	_, err = f.WriteString("; 3; 4; 5; 6.000; 7.000; 8.000\r\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	records, _, _, err = ReadFile(path, offset)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(5000), records[0].ElapsedMs)
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()
	_, _, _, err := ReadFile(filepath.Join(dir, "missing.csv"), 0)
	assert.Error(t, err)

	path := filepath.Join(dir, "data_1.csv")
	require.NoError(t, os.WriteFile(path, []byte("x\r\n"), 0o600))
	_, _, _, err = ReadFile(path, 99)
	assert.ErrorIs(t, err, ErrInvalidOffset)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"data_10.csv", "data_2.csv", "data_007.csv", "index.xdk", "notes.txt", "data_x.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("1; 2; 3; 4; 5; 6; 7; 8; 9\r\n"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "data_3.csv"), 0o700))

	files, err := Discover(dir, "", logger.Noop())
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, uint32(2), files[0].Index)
	assert.Equal(t, "data_2.csv", files[0].Name)
	assert.Equal(t, uint32(10), files[1].Index)
	assert.Equal(t, filepath.Join(dir, "data_10.csv"), files[1].Path)
	assert.Positive(t, files[1].Size)
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"), DefaultPattern, nil)
	assert.Error(t, err)
}
