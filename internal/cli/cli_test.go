package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestValidateText(t *testing.T) {
	out, err := execute(t, "validate", "testdata/pump.yaml")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "validate", []byte(out))
}

func TestValidateJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", "testdata/pump.yaml")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, float64(4), data["conditions"])
	assert.Equal(t, float64(3), data["states"])
	assert.Equal(t, float64(2), data["elements"])
}

func TestValidateBrokenCatalog(t *testing.T) {
	out, err := execute(t, "validate", "testdata/broken.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_CATALOG]")
	assert.Contains(t, out, "unknown state type")
}

func TestValidateBrokenCatalogJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", "testdata/broken.yaml")
	require.Error(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_CATALOG", resp.Error.Code)
}

func TestValidateMissingFile(t *testing.T) {
	_, err := execute(t, "validate", "testdata/nope.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestStatesText(t *testing.T) {
	out, err := execute(t, "states", "testdata/pump.yaml")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "states", []byte(out))
}

func TestStatesJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "states", "testdata/pump.yaml")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)

	raw, rerr := json.Marshal(resp.Data)
	require.NoError(t, rerr)
	var listings []StateListing
	require.NoError(t, json.Unmarshal(raw, &listings))

	require.Len(t, listings, 3)
	assert.Equal(t, "pump_fault", listings[0].ID)
	assert.Equal(t, "pump_off", listings[1].ID)
	assert.Equal(t, "pump_on", listings[2].ID)
	assert.Equal(t, 2, listings[2].Transitions)
}

func TestConditionsText(t *testing.T) {
	out, err := execute(t, "conditions", "testdata/pump.yaml")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "conditions", []byte(out))
}

func TestConditionsJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "conditions", "testdata/pump.yaml")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	raw, rerr := json.Marshal(resp.Data)
	require.NoError(t, rerr)
	var listings []ConditionListing
	require.NoError(t, json.Unmarshal(raw, &listings))

	require.Len(t, listings, 4)
	assert.Equal(t, "business_hours", listings[0].ID)
	assert.Equal(t, "time", listings[0].Kind)
	assert.Equal(t, "threshold", listings[3].Kind)
	assert.Equal(t, "temperature > 30", listings[3].Expression)
}

func TestRunText(t *testing.T) {
	out, err := execute(t, "run", "testdata/pump.yaml", "--scenario", "testdata/scenario.yaml")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "run", []byte(out))
}

func TestRunJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "run", "testdata/pump.yaml", "--scenario", "testdata/scenario.yaml")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)

	raw, rerr := json.Marshal(resp.Data)
	require.NoError(t, rerr)
	var report RunReport
	require.NoError(t, json.Unmarshal(raw, &report))

	assert.Equal(t, "pump-overheat", report.Scenario)
	assert.Equal(t, 2, report.EventsEmitted)
	assert.Equal(t, 2, report.ResultsOK)
	assert.Equal(t, 0, report.ResultsFailed)
	require.Len(t, report.Transitions, 2)
	assert.True(t, report.Transitions[0].OK)
	assert.True(t, report.Transitions[1].OK)
	assert.Equal(t, "pump_fault", report.FinalStates["pump-1"])
	assert.Equal(t, "pump_off", report.FinalStates["pump-2"])
}

func TestRunMissingScenarioFlag(t *testing.T) {
	_, err := execute(t, "run", "testdata/pump.yaml")
	require.Error(t, err)
}

func TestRunBadScenario(t *testing.T) {
	_, err := execute(t, "run", "testdata/pump.yaml", "--scenario", "testdata/nope.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "validate", "testdata/pump.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
