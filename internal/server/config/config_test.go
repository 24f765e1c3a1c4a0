package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c := &Config{}
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddr)
	assert.Equal(t, 30*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, "uploads", c.UploadRoot)
	assert.Equal(t, "/app/bin/fhe_search_engine", c.EngineBin)
	assert.Equal(t, "./bin/fhe_search_engine", c.EngineBinFallback)
	assert.Equal(t, 100*1024*1024, c.EngineOutputLimit)
	assert.NotEmpty(t, c.DatabaseDSN)
	assert.NotEmpty(t, c.SecretKey)
}

func TestParseFlags_Overrides(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"server", "-a", ":9999", "-t", "5", "-u", "/data/uploads"}

	c := &Config{}
	c.LoadDefaults()
	parseFlags(c)

	assert.Equal(t, ":9999", c.EndpointAddr)
	assert.Equal(t, 5*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, "/data/uploads", c.UploadRoot)
}

func TestParseFlags_IgnoresUnknown(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"server", "-z", "whatever", "-a", ":7070"}

	c := &Config{}
	c.LoadDefaults()
	parseFlags(c)

	assert.Equal(t, ":7070", c.EndpointAddr)
}

func TestParseJson_Overlay(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	require.NoError(t, err)
	_, err = f.WriteString(`{
		"endpoint_addr": ":6060",
		"access_token_validity_minutes": 15,
		"engine_bin": "/opt/engine/fhe_search_engine"
	}`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"server", "-c", f.Name()}

	c := &Config{}
	c.LoadDefaults()
	parseJson(c)

	assert.Equal(t, ":6060", c.EndpointAddr)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, "/opt/engine/fhe_search_engine", c.EngineBin)
	// untouched fields keep their defaults
	assert.Equal(t, "uploads", c.UploadRoot)
}

func TestParseJson_NoFlagIsNoop(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"server"}

	c := &Config{}
	c.LoadDefaults()
	want := *c
	parseJson(c)

	assert.Equal(t, want, *c)
}
