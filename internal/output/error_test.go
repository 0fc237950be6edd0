package output

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	snaperr "github.com/gadrian78/he-tokens-snapshot/pkg/errors"
)

// TestFormatErrorText verifies the structured text rendering.
func TestFormatErrorText(t *testing.T) {
	err := snaperr.WithSuggestion(
		snaperr.WithDetails(snaperr.ErrTokenNotFound, map[string]string{"symbol": "LIO"}),
		`did you mean "LEO"?`)

	var sb strings.Builder
	require.NoError(t, FormatError(&sb, err, FormatText))
	out := sb.String()

	assert.Contains(t, out, "Error: token not found")
	assert.Contains(t, out, "symbol: LIO")
	assert.Contains(t, out, `Suggestion: did you mean "LEO"?`)
}

// TestFormatErrorJSON verifies the machine-readable shape.
func TestFormatErrorJSON(t *testing.T) {
	err := snaperr.WithDetails(snaperr.ErrAccountResolution, map[string]string{"account": "ghost"})

	var sb strings.Builder
	require.NoError(t, FormatError(&sb, err, FormatJSON))

	var parsed ErrorOutput
	require.NoError(t, json.Unmarshal([]byte(sb.String()), &parsed))
	assert.Equal(t, "ACCOUNT_RESOLUTION", parsed.Error.Code)
	assert.Equal(t, "ghost", parsed.Error.Details["account"])
	assert.Equal(t, snaperr.ExitNotFound, parsed.Error.ExitCode)
}

// TestFormatErrorGeneric verifies plain errors still render.
func TestFormatErrorGeneric(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, FormatError(&sb, errors.New("boom"), FormatText))
	assert.Equal(t, "Error: boom\n", sb.String())

	sb.Reset()
	require.NoError(t, FormatError(&sb, errors.New("boom"), FormatJSON))
	var parsed ErrorOutput
	require.NoError(t, json.Unmarshal([]byte(sb.String()), &parsed))
	assert.Equal(t, "GENERAL_ERROR", parsed.Error.Code)
}

// TestFormatErrorNil verifies a nil error writes nothing.
func TestFormatErrorNil(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, FormatError(&sb, nil, FormatText))
	assert.Empty(t, sb.String())
}
