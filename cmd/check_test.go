package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFiles(t *testing.T) (configFile, policyFile string) {
	t.Helper()
	dir := t.TempDir()

	configFile = filepath.Join(dir, "palisade.hcl")
	require.NoError(t, os.WriteFile(configFile, []byte(`
node_size  = 200000
cache_size = 20000
offline    = true
`), 0o644))

	policyFile = filepath.Join(dir, "policy.csv")
	require.NoError(t, os.WriteFile(policyFile, []byte(
		"1,,enabled,deny,wan,lan,10.1.1.0/25,any,any,,,,,\n"+
			"2,,enabled,allow,wan,lan,10.1.1.0/25,192.168.1.0/24,tcp/80,,,,,\n"), 0o644))
	return configFile, policyFile
}

func TestRunCheckReportsAnomalies(t *testing.T) {
	configFile, policyFile := writeTestFiles(t)

	anomalies, err := RunCheck(configFile, policyFile, "", false, false)
	require.NoError(t, err)
	assert.Equal(t, 1, anomalies)
}

func TestRunCheckMissingPolicy(t *testing.T) {
	configFile, _ := writeTestFiles(t)
	_, err := RunCheck(configFile, filepath.Join(t.TempDir(), "nope.csv"), "", false, false)
	assert.Error(t, err)
}

func TestRunCompareEquivalent(t *testing.T) {
	configFile, policyFile := writeTestFiles(t)

	equivalent, err := RunCompare(configFile, policyFile, policyFile, "")
	require.NoError(t, err)
	assert.True(t, equivalent)
}

func TestRunCompareDiffering(t *testing.T) {
	configFile, policyFile := writeTestFiles(t)

	other := filepath.Join(t.TempDir(), "other.csv")
	require.NoError(t, os.WriteFile(other, []byte(
		"1,,enabled,allow,any,any,any,any,udp/53,,,,,\n"), 0o644))

	equivalent, err := RunCompare(configFile, policyFile, other, "")
	require.NoError(t, err)
	assert.False(t, equivalent)
}
