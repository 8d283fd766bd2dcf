package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHolder(t *testing.T) {
	var h Holder
	assert.Equal(t, Ready, h.Load())
	assert.True(t, h.CAS(Ready, Running))
	assert.False(t, h.CAS(Ready, Running))
	assert.Equal(t, "running", h.Load().String())
	h.Store(Closed)
	assert.Equal(t, Closed, h.Load())
	assert.Equal(t, "unknown", Status(9).String())
}
