package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("WM_TEST_STR", "hello")
	t.Setenv("WM_TEST_INT", "42")
	t.Setenv("WM_TEST_BAD_INT", "many")
	t.Setenv("WM_TEST_BOOL", "true")
	t.Setenv("WM_TEST_DUR", "250ms")
	t.Setenv("WM_TEST_DATE", "2024-03-01")
	t.Setenv("WM_TEST_STAMP", "2024-03-01T12:34:00+09:00")
	t.Setenv("WM_TEST_LIST", "INBOX, Archive ,")

	assert.Equal(t, "hello", getEnv("WM_TEST_STR", "x"))
	assert.Equal(t, "x", getEnv("WM_TEST_UNSET", "x"))

	assert.Equal(t, 42, getEnvAsInt("WM_TEST_INT", 7))
	assert.Equal(t, 7, getEnvAsInt("WM_TEST_BAD_INT", 7))

	assert.True(t, getEnvAsBool("WM_TEST_BOOL", false))
	assert.False(t, getEnvAsBool("WM_TEST_UNSET", false))

	assert.Equal(t, 250*time.Millisecond, getEnvAsDuration("WM_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, getEnvAsDuration("WM_TEST_UNSET", time.Second))

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), getEnvAsDate("WM_TEST_DATE", time.Time{}))
	stamp := getEnvAsDate("WM_TEST_STAMP", time.Time{})
	assert.Equal(t, int64(1709264040), stamp.Unix())
	assert.True(t, getEnvAsDate("WM_TEST_UNSET", time.Time{}).IsZero())

	assert.Equal(t, []string{"INBOX", "Archive"}, getEnvAsList("WM_TEST_LIST", "INBOX"))
	assert.Equal(t, []string{"INBOX"}, getEnvAsList("WM_TEST_UNSET", "INBOX"))
}
