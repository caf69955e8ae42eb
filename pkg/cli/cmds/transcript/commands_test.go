package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/robotalks/morse.go/pkg/transcript"
)

func TestFormat(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 6000000, time.Local)
	e := &transcript.Entry{
		Time:      at,
		Direction: transcript.Sent,
		Remote:    "02:00:00:00:00:02",
		Pattern:   "-.-",
		Text:      "K",
	}
	assert.Equal(t, `03:04:05.006 -> 02:00:00:00:00:02 -.-    "K"`, Format(e))
	e.Direction = transcript.Received
	assert.Equal(t, `03:04:05.006 <- 02:00:00:00:00:02 -.-    "K"`, Format(e))
}
