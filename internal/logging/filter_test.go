package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fake credentials are assembled at runtime so secret scanners stay quiet.
func fakeJWT() string {
	return "eyJ" + "hbGciOiJIUzI1NiJ9" + "." + "eyJzdWIiOiJ0ZXN0b25seSJ9" + "." + "c2lnbmF0dXJlLXRlc3Q"
}
func fakeOpaqueToken() string { return "TESTONLY" + "opaque0123456789" }

func TestContainsSensitiveData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"bearer header", "Authorization: Bearer " + fakeOpaqueToken(), true},
		{"bare jwt", "token expired: " + fakeJWT(), true},
		{"env assignment", "PERPETUA_TOKEN=" + fakeOpaqueToken(), true},
		{"api key", "api_key=" + fakeOpaqueToken(), true},
		{"password", "password: " + "testonly-pass", true},
		{"plain message", "created goal for B07Y5L9WLP", false},
		{"short bearer word", "bearer of bad news", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, ContainsSensitiveData(tc.input))
		})
	}
}

func TestFilterSensitiveValue(t *testing.T) {
	t.Parallel()

	t.Run("redacts bearer header", func(t *testing.T) {
		t.Parallel()
		got := FilterSensitiveValue("request failed: Authorization: Bearer " + fakeJWT())
		assert.NotContains(t, got, fakeJWT())
		assert.Contains(t, got, RedactedValue)
		assert.Contains(t, got, "request failed")
	})

	t.Run("redacts env echo", func(t *testing.T) {
		t.Parallel()
		got := FilterSensitiveValue("PERPETUA_TOKEN=" + fakeOpaqueToken() + " loaded")
		assert.NotContains(t, got, fakeOpaqueToken())
		assert.Contains(t, got, "loaded")
	})

	t.Run("leaves ordinary text", func(t *testing.T) {
		t.Parallel()
		msg := "HTTP 422: name already exists"
		assert.Equal(t, msg, FilterSensitiveValue(msg))
	})
}

func TestSafeValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RedactedValue, SafeValue("api_token", "anything"))
	assert.Equal(t, RedactedValue, SafeValue("Authorization", "anything"))
	assert.Equal(t, "https://api.perpetua.io/v2", SafeValue("base_url", "https://api.perpetua.io/v2"))
	assert.True(t, IsSensitiveFieldName("Session-Cookie"))
	assert.False(t, IsSensitiveFieldName("company_id"))
}

func TestFilteringWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fw := NewFilteringWriter(&buf)

	line := []byte(`{"level":"error","error":"Bearer ` + fakeJWT() + `"}` + "\n")
	n, err := fw.Write(line)
	require.NoError(t, err)
	assert.Equal(t, len(line), n)
	assert.NotContains(t, buf.String(), fakeJWT())
	assert.Contains(t, buf.String(), RedactedValue)
}

func TestFilteringWriter_WithZerolog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(NewFilteringWriter(&buf)).Hook(NewSensitiveDataHook())

	logger.Error().Msg("create failed with Bearer " + fakeOpaqueToken())

	out := buf.String()
	assert.NotContains(t, out, fakeOpaqueToken())
	assert.Contains(t, out, `"contains_filtered_data":true`)
}
