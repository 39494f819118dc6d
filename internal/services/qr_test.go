package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateQR(t *testing.T) {
	png, err := NewQRService(quietLogger()).GenerateQR("vless://id@example.com:443?type=tcp#x")
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))
}
