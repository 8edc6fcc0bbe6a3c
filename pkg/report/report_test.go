package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/sdlogger/pkg/errcode"
	"github.com/0xmhha/sdlogger/pkg/logger"
	"github.com/0xmhha/sdlogger/pkg/metrics"
)

func TestReporterLogsAndCounts(t *testing.T) {
	var buf bytes.Buffer
	r := New(logger.NewWriter(&buf, logger.Config{Level: "debug"}))

	counter := metrics.Errors.WithLabelValues("write_failed", "error")
	before := testutil.ToFloat64(counter)

	r.Report(errcode.Wrap(errcode.WriteFailed, "append", errors.New("short write")))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
	out := buf.String()
	assert.True(t, strings.Contains(out, "level=ERROR"), out)
	assert.True(t, strings.Contains(out, "code=write_failed"), out)
	assert.True(t, strings.Contains(out, "short write"), out)
}

func TestReporterLevelFollowsSeverity(t *testing.T) {
	var buf bytes.Buffer
	r := New(logger.NewWriter(&buf, logger.Config{Level: "debug"}))

	r.Report(errcode.Wrap(errcode.SensorNotReady, "sample", errors.New("warming up")))

	assert.Contains(t, buf.String(), "level=WARN")
}

func TestReporterIgnoresNil(t *testing.T) {
	var buf bytes.Buffer
	r := New(logger.NewWriter(&buf, logger.Config{Level: "debug"}))

	r.Report(nil)

	assert.Empty(t, buf.String())
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	rec.Report(nil)
	rec.Report(errcode.Wrap(errcode.MediumIO, "probe", errors.New("eio")))
	rec.Report(errcode.SensorRead)

	entries := rec.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, errcode.MediumIO, entries[0].Code)
	assert.Equal(t, errcode.Err, entries[0].Severity)
	assert.Equal(t, []errcode.Code{errcode.MediumIO, errcode.SensorRead}, rec.Codes())
}

func TestMulti(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	Multi{a, b}.Report(errcode.BatteryRead)

	assert.Len(t, a.Entries(), 1)
	assert.Len(t, b.Entries(), 1)
}
