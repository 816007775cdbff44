package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingHandler struct {
	slog.Handler
	err error
}

func (h failingHandler) Handle(context.Context, slog.Record) error { return h.err }

func console(t *testing.T, buf *bytes.Buffer, level slog.Level, format string) slog.Handler {
	t.Helper()
	h, err := NewConsoleHandler(buf, level, format)
	require.NoError(t, err)
	return h
}

func TestFanout_RespectsEachHandlersLevel(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	log := slog.New(fanout{
		console(t, &debugBuf, slog.LevelDebug, FormatText),
		console(t, &warnBuf, slog.LevelWarn, FormatText),
	})

	log.Debug("list item loaded", "list_item.id", "abc")
	log.Warn("token rejected")

	assert.Contains(t, debugBuf.String(), "list item loaded")
	assert.Contains(t, debugBuf.String(), "token rejected")
	assert.NotContains(t, warnBuf.String(), "list item loaded")
	assert.Contains(t, warnBuf.String(), "token rejected")
}

func TestFanout_Enabled(t *testing.T) {
	h := fanout{console(t, &bytes.Buffer{}, slog.LevelWarn, FormatText)}

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestFanout_WithAttrsPropagates(t *testing.T) {
	var buf bytes.Buffer
	h := fanout{slog.NewTextHandler(&buf, nil)}

	slog.New(h).With("user.id", "u1").WithGroup("req").Info("hello", "path", "/api/auth/me")

	assert.Contains(t, buf.String(), "user.id=u1")
	assert.Contains(t, buf.String(), "req.path=/api/auth/me")
}

func TestFanout_JoinsErrorsAndKeepsGoing(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("exporter down")
	h := fanout{
		failingHandler{Handler: slog.NewTextHandler(&bytes.Buffer{}, nil), err: boom},
		slog.NewTextHandler(&buf, nil),
	}

	var r slog.Record
	r.Level = slog.LevelInfo
	r.Message = "still delivered"
	err := h.Handle(context.Background(), r)

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "still delivered")
}

func TestNewConsoleHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	slog.New(console(t, &buf, slog.LevelInfo, "JSON")).Info("user registered", "user.id", "u1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "user registered", line["msg"])
	assert.Equal(t, "u1", line["user.id"])
	assert.Regexp(t, `^logger/logger_test\.go:\d+$`, line["source"])
}

func TestNewConsoleHandler_UnknownFormat(t *testing.T) {
	_, err := NewConsoleHandler(&bytes.Buffer{}, slog.LevelInfo, "xml")
	assert.EqualError(t, err, `unknown log format "xml"`)
}
