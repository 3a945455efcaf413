package testkit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatus checks the response code and prints the body on mismatch.
func AssertStatus(t *testing.T, want int, res *Response) bool {
	t.Helper()
	return assert.Equal(t, want, res.Code, "HTTP status mismatch\nbody: %s", res.Body.String())
}

// AssertJSONEqual compares two JSON documents after normalising both
// through unmarshal, so key order and whitespace never matter.
func AssertJSONEqual(t *testing.T, expected string, actual []byte) bool {
	t.Helper()

	var expVal, actVal any
	require.NoError(t, json.Unmarshal([]byte(expected), &expVal), "expected is not valid JSON")
	if !assert.NoError(t, json.Unmarshal(actual, &actVal), "actual is not valid JSON\nbody: %s", string(actual)) {
		return false
	}
	return assert.Equal(t, expVal, actVal, "JSON body mismatch")
}
