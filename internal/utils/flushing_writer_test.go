package utils_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/lakemove/internal/utils"
)

func TestFlushingWriterFlushesBufferedWriter(testInstance *testing.T) {
	var destination bytes.Buffer
	bufferedWriter := bufio.NewWriterSize(&destination, 4096)

	flushingWriter := utils.NewFlushingWriter(bufferedWriter)
	_, writeError := flushingWriter.Write([]byte("Step 3/10: clone\n"))
	require.NoError(testInstance, writeError)

	require.Equal(testInstance, "Step 3/10: clone\n", destination.String())
}

func TestNewFlushingWriterDoesNotDoubleWrap(testInstance *testing.T) {
	var destination bytes.Buffer
	wrapped := utils.NewFlushingWriter(&destination)
	require.Same(testInstance, wrapped, utils.NewFlushingWriter(wrapped))
}
