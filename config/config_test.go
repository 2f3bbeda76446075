package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetGet(t *testing.T) {
	cfg := ReadConfig(":memory:")
	expected := "value"
	cfg.Set("test", expected)
	actual := cfg.Get("test", "NOPE")
	assert.Equal(t, expected, actual, "Config did not store values")
}

func TestSetGetArray(t *testing.T) {
	cfg := ReadConfig(":memory:")
	expected := []string{"a", "b", "c"}
	cfg.SetArray("test", expected)
	actual := cfg.GetArray("test", []string{"NOPE"})
	assert.Equal(t, expected, actual, "Config did not store values")
}

func TestGetFallback(t *testing.T) {
	cfg := ReadConfig(":memory:")
	assert.Equal(t, "fallback", cfg.Get("nosuchkey", "fallback"))
	assert.Equal(t, 42, cfg.GetInt("nosuchkey", 42))
}

func TestSetOverwrites(t *testing.T) {
	cfg := ReadConfig(":memory:")
	cfg.Set("test", "one")
	cfg.Set("test", "two")
	assert.Equal(t, "two", cfg.Get("test", ""))
}

func TestDefaultsSeeded(t *testing.T) {
	cfg := ReadConfig(":memory:")
	assert.Equal(t, 1, cfg.GetInt("init", 0))
	assert.Equal(t, 10, cfg.GetInt("automod.maxwarnings", 0))
}
