package amtrak

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jsFunction returns the source of a named function in the page script
func jsFunction(t *testing.T, name string) string {
	t.Helper()
	m := regexp.MustCompile(`(?s)function ` + name + `\(el\) \{.*?\n  \}`).FindString(agentSource)
	require.NotEmpty(t, m, name)
	return m
}

func TestAgentDisabledStateIgnoresClassMarkers(t *testing.T) {
	body := jsFunction(t, "isDisabled")
	assert.Contains(t, body, "el.disabled")
	assert.Contains(t, body, "aria-disabled")
	assert.NotContains(t, body, "classOf")
}

func TestAgentForcedSubmitClearsDisabledClasses(t *testing.T) {
	strip := jsFunction(t, "clearDisabledClasses")
	assert.Contains(t, strip, "/disabled/.test(tokens[i])")

	submit := regexp.MustCompile(`(?s)caps\['submit'\] = function.*?\n  \};`).FindString(agentSource)
	require.NotEmpty(t, submit)
	assert.Contains(t, submit, "if (looksDisabled(el))")
	assert.Contains(t, submit, "clearDisabledClasses(el)")
	assert.Contains(t, submit, "if (isDisabled(el)) return")
}
