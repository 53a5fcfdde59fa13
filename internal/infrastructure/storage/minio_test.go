package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	at := time.Unix(1714575600, 0)
	assert.Equal(t, "raw/a-1/m-1/1714575600.json", ObjectKey("a-1", "m-1", at))
}
