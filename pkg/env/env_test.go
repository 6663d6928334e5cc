package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFallsBackWhenBlank(t *testing.T) {
	t.Setenv("ORDERDESK_TEST_VALUE", "  ")
	assert.Equal(t, "fallback", Get("ORDERDESK_TEST_VALUE", "fallback"))

	t.Setenv("ORDERDESK_TEST_VALUE", "console")
	assert.Equal(t, "console", Get("ORDERDESK_TEST_VALUE", "json"))
}

func TestGetBool(t *testing.T) {
	t.Setenv("ORDERDESK_TEST_FLAG", "true")
	assert.True(t, GetBool("ORDERDESK_TEST_FLAG", false))

	t.Setenv("ORDERDESK_TEST_FLAG", "nope")
	assert.True(t, GetBool("ORDERDESK_TEST_FLAG", true))

	t.Setenv("ORDERDESK_TEST_FLAG", "")
	assert.False(t, GetBool("ORDERDESK_TEST_FLAG", false))
}
