//go:build linux

package joystick

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenMissing(t *testing.T) {
	dev, err := Open(255)
	require.Nil(t, dev)
	require.Error(t, err)
	require.True(t, os.IsNotExist(err))
}
