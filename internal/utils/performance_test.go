package utils

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestOperationTimer(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	OperationTimer("simulate", log)()

	assert.Contains(t, buf.String(), `"operation":"simulate"`)
	assert.Contains(t, buf.String(), `"level":"debug"`)
	assert.NotContains(t, buf.String(), `"slow"`)
}

func TestMeasureDBQuery(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	MeasureDBQuery("delete_stale_previews", log)(3)

	assert.Contains(t, buf.String(), `"query":"delete_stale_previews"`)
	assert.Contains(t, buf.String(), `"rows_affected":3`)
}
