package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cvescope/internal/core/domain"
)

func TestSessionsCmd_ListEmpty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	output, err := executeCommand("sessions", "list")

	require.NoError(t, err)
	assert.Contains(t, output, "No sessions yet.")
}

func TestSessionsCmd_List(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ctx := context.Background()

	_, err := ts.history.NewSession(ctx)
	require.NoError(t, err)
	_, err = ts.history.RecordAnalysis(ctx, "", &domain.Analysis{
		CVEID: "CVE-2021-44228", Found: true, Report: log4shellReport,
	})
	require.NoError(t, err)

	output, err := executeCommand("sessions")

	require.NoError(t, err)
	assert.Contains(t, output, "Sessions (1):")
	assert.Contains(t, output, "Messages: 2")
	assert.Contains(t, output, "CVEs:     CVE-2021-44228")
	assert.Contains(t, output, "Analyze CVE-2021-44228")
}

func TestSessionsCmd_ShowCurrent(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	id, err := ts.history.RecordAnalysis(context.Background(), "", &domain.Analysis{
		CVEID: "CVE-2021-44228", Found: true, Report: log4shellReport,
	})
	require.NoError(t, err)

	output, err := executeCommand("sessions", "show")

	require.NoError(t, err)
	assert.Contains(t, output, "Session "+id)
	assert.Contains(t, output, "user:\nAnalyze CVE-2021-44228")
}

func TestSessionsCmd_ShowNoCurrent(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	output, err := executeCommand("sessions", "show")

	require.NoError(t, err)
	assert.Contains(t, output, "No current session.")
}

func TestSessionsCmd_ShowUnknown(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("sessions", "show", "missing")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "session not found: missing")
}

func TestSessionsCmd_New(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	output, err := executeCommand("sessions", "new")
	require.NoError(t, err)

	current, err := ts.history.GetSession(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, output, "Started session "+current.ID)
}

func TestSessionsCmd_ServiceNotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	historyService = nil

	_, err := executeCommand("sessions", "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "history service not configured")
}
