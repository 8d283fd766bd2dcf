package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RuiFG/streaming/element"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenario = `
log:
  level: error
window:
  kind: fixed
  size: 20ms
allowed_lateness: 60ms
accumulation: accumulating
shards: 2
script:
  - {kind: element, key: red, value: 3, timestamp: 3}
  - {kind: element, key: blue, value: 1, timestamp: 30}
  - {kind: watermark, time: 65}
  - {kind: element, key: red, value: 4, timestamp: 5}
  - {kind: watermark, time: 122}
  - {kind: element, key: red, value: 4, timestamp: 5}
  - {kind: drain}
`

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "replay.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func decode(t *testing.T, out string) []element.Record[string, float64] {
	var records []element.Record[string, float64]
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var record element.Record[string, float64]
		require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(line, &record))
		records = append(records, record)
	}
	return records
}

func TestRun_JSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), &out, &runFlags{config: writeConfig(t, scenario), format: "json"}))

	records := decode(t, out.String())
	require.Len(t, records, 5)
	assert.Equal(t, "blue", records[0].Key)
	assert.Equal(t, "ON_TIME", records[0].Timing)
	assert.Equal(t, "blue", records[1].Key)
	assert.True(t, records[1].IsLast)
	var red []float64
	for _, record := range records[2:] {
		assert.Equal(t, "red", record.Key)
		red = append(red, record.Value)
	}
	assert.Equal(t, []float64{3, 7, 7}, red)
	assert.True(t, records[4].IsLast)
	assert.Equal(t, "LATE", records[4].Timing)
}

func TestRun_TableWithNutsStore(t *testing.T) {
	content := scenario + `
combine: count
store:
  kind: nutsdb
  dir: ` + t.TempDir() + `
`
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), &out, &runFlags{config: writeConfig(t, content)}))
	table := out.String()
	assert.Contains(t, table, "ON TIME INDEX")
	assert.Contains(t, table, "[0:20)")
	assert.Contains(t, table, "LATE")
}

func TestRun_Rejects(t *testing.T) {
	tests := map[string]struct {
		config string
		flags  runFlags
	}{
		"missing file":    {flags: runFlags{config: filepath.Join(t.TempDir(), "missing.yml")}},
		"unknown combine": {config: "combine: median"},
		"unknown format":  {config: "combine: sum", flags: runFlags{format: "xml"}},
		"unknown profile": {config: "combine: sum", flags: runFlags{profile: "block"}},
		"bad trigger":     {config: "trigger: {kind: after_all, triggers: [{kind: never}]}"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			flags := tt.flags
			if flags.config == "" {
				flags.config = writeConfig(t, tt.config+"\nlog: {level: error}\n")
			}
			assert.Error(t, run(context.Background(), &bytes.Buffer{}, &flags))
		})
	}
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	Command.SetOut(&out)
	Command.SetArgs([]string{"version"})
	require.NoError(t, Command.Execute())
	assert.Equal(t, Version+"\n", out.String())
}
