package handler

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sala-api/internal/dto"
)

func TestWriteEventFramesServerSentEvent(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	event := dto.Event{ID: "evt-1", Topic: "students:updated", At: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)}
	require.NoError(t, writeEvent(w, event))

	lines := strings.Split(buf.String(), "\n")
	require.Equal(t, "id: evt-1", lines[0])
	require.Equal(t, "event: invalidate", lines[1])
	require.True(t, strings.HasPrefix(lines[2], "data: {"))
	require.Contains(t, lines[2], `"students:updated"`)
	require.True(t, strings.HasSuffix(buf.String(), "\n\n"))
}

func TestWriteKeepAliveIsComment(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeKeepAlive(bufio.NewWriter(&buf)))
	require.True(t, strings.HasPrefix(buf.String(), ": keep-alive "))
}

func TestParseUintList(t *testing.T) {
	ids, err := parseUintList(" 3, 1 ,3,")
	require.NoError(t, err)
	require.Equal(t, []uint{3, 1, 3}, ids)

	_, err = parseUintList("1,x")
	require.Error(t, err)

	ids, err = parseUintList("")
	require.NoError(t, err)
	require.Empty(t, ids)
}
