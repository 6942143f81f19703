package config_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/m-mizutani/cupnotifier/pkg/cli/config"
	"github.com/m-mizutani/gt"
)

func TestWriteSchema(t *testing.T) {
	var buf bytes.Buffer
	gt.NoError(t, config.WriteSchema(&buf))

	var schema struct {
		Schema     string                    `json:"$schema"`
		Title      string                    `json:"title"`
		Required   []string                  `json:"required"`
		Properties map[string]map[string]any `json:"properties"`
	}
	gt.NoError(t, json.Unmarshal(buf.Bytes(), &schema))

	gt.Value(t, schema.Title).Equal("Config")
	gt.A(t, schema.Required).Length(1)
	gt.String(t, schema.Schema).Contains("json-schema.org")

	cron, ok := schema.Properties["cron"]
	gt.True(t, ok)
	gt.Value(t, cron["default"]).Equal(any("0 0 0 * * *"))
	gt.Value(t, cron["description"]).Equal(any("Cron pattern to use, seconds first"))

	_, ok = schema.Properties["webhook_url"]
	gt.True(t, ok)
	_, ok = schema.Properties["webhook_url_file"]
	gt.True(t, ok)

	sink := schema.Properties["sink"]
	gt.A(t, sink["enum"].([]any)).Length(2)
}
