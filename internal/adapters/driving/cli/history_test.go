package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCmd_Subcommands(t *testing.T) {
	var names []string
	for _, c := range historyCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"list", "show"}, names)
	assert.Equal(t, "n", historyListCmd.Flags().Lookup("limit").Shorthand)
}

func TestHistoryList_Empty(t *testing.T) {
	defer setupTestServices()()

	out, err := execute(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved analyses.")
}

func TestHistoryList_Text(t *testing.T) {
	defer setupTestServices()()
	saveRecord(sampleIssues())

	out, err := execute(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "rec-7")
	assert.Contains(t, out, "local_patterns")
	assert.Contains(t, out, "2 issue(s)")
	assert.Contains(t, out, "subscription.pdf")
}

func TestHistoryList_JSON(t *testing.T) {
	defer setupTestServices()()
	saveRecord(sampleIssues())

	out, err := execute(t, "history", "list", "--json")
	require.NoError(t, err)

	var summaries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "rec-7", summaries[0]["id"])
	assert.Equal(t, "subscription.pdf", summaries[0]["fileName"])
	assert.EqualValues(t, 2, summaries[0]["issueCount"])
}

func TestHistoryShow(t *testing.T) {
	defer setupTestServices()()
	saveRecord(sampleIssues())

	out, err := execute(t, "history", "show", "rec-7")
	require.NoError(t, err)
	assert.Contains(t, out, "subscription.pdf: 2 issue(s) on 2 page(s)")
	assert.Contains(t, out, "rec-7, method local_patterns")
	assert.Contains(t, out, "[cross_reference] Section 9.2 does not exist")
}

func TestHistoryShow_JSON(t *testing.T) {
	defer setupTestServices()()
	saveRecord(sampleIssues())

	out, err := execute(t, "history", "show", "rec-7", "--json")
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "subscription.pdf", payload["fileName"])
	assert.Len(t, payload["issues"], 2)
}

func TestHistoryShow_NotFound(t *testing.T) {
	defer setupTestServices()()

	_, err := execute(t, "history", "show", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis missing not found")
}
