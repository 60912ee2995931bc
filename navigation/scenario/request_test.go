package scenario

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRequest(t *testing.T, body string) *Request {
	t.Helper()
	var req Request
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return &req
}

func TestRequest_ToCommand(t *testing.T) {
	req := decodeRequest(t, `{
		"maxX": 5, "maxY": 5,
		"programs": [
			{"startX": 1, "startY": 2, "orientation": "n", "instructions": "lmlmlmlmm"},
			{"startX": 3, "startY": 3, "orientation": "E", "instructions": ""}
		],
		"policy": "wrap",
		"occupancy": true
	}`)

	cmd, err := req.ToCommand()
	require.NoError(t, err)

	assert.Equal(t, GridSize{MaxX: 5, MaxY: 5}, cmd.Grid)
	require.Len(t, cmd.Programs, 2)
	assert.Equal(t, 'N', cmd.Programs[0].Orientation)
	assert.Equal(t, "LMLMLMLMM", cmd.Programs[0].Instructions)
	assert.Equal(t, "", cmd.Programs[1].Instructions)
	assert.Equal(t, "wrap", cmd.Policy)
	require.NotNil(t, cmd.Occupancy)
	assert.True(t, *cmd.Occupancy)
	assert.Nil(t, cmd.OccupyFinal)
}

func TestRequest_ToCommand_CollectsAllErrors(t *testing.T) {
	req := decodeRequest(t, `{
		"maxX": -1,
		"programs": [
			{"startX": -2, "startY": 0, "orientation": "Q", "instructions": "LMX"},
			{"startY": 1, "orientation": "NE"}
		]
	}`)

	_, err := req.ToCommand()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)

	fields := map[string]string{}
	for _, d := range verr.Details {
		fields[d.Field] = d.Message
	}

	assert.Equal(t, "must be greater than or equal to 0", fields["maxX"])
	assert.Equal(t, "is required", fields["maxY"])
	assert.Equal(t, "must be greater than or equal to 0", fields["programs[0].startX"])
	assert.Equal(t, "must be one of N, E, S, W", fields["programs[0].orientation"])
	assert.Equal(t, "must contain only L, R or M", fields["programs[0].instructions"])
	assert.Equal(t, "is required", fields["programs[1].startX"])
	assert.Equal(t, "must be one of N, E, S, W", fields["programs[1].orientation"])
	assert.Equal(t, "is required", fields["programs[1].instructions"])
	assert.Len(t, verr.Details, 8)

	assert.Contains(t, err.Error(), "validation failed: maxX:")
}

func TestRequest_ToCommand_NoPrograms(t *testing.T) {
	req := decodeRequest(t, `{"maxX": 1, "maxY": 1, "programs": []}`)

	_, err := req.ToCommand()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []FieldError{{Field: "programs", Message: "must contain at least one program"}}, verr.Details)
}

func TestNewRequest_RoundTrip(t *testing.T) {
	cmd, err := ParseRaw(sampleRaw)
	require.NoError(t, err)

	back, err := NewRequest(cmd).ToCommand()
	require.NoError(t, err)
	assert.Equal(t, cmd, back)
}

func TestCommand_MarshalJSON(t *testing.T) {
	cmd := Command{
		Grid:     GridSize{MaxX: 2, MaxY: 3},
		Programs: []RobotProgram{{StartX: 1, StartY: 1, Orientation: 'W', Instructions: "M"}},
	}
	data, err := json.Marshal(cmd)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"grid": {"maxX": 2, "maxY": 3},
		"programs": [{"startX": 1, "startY": 1, "orientation": "W", "instructions": "M"}]
	}`, string(data))
	assert.Equal(t, 1, cmd.RobotCount())

	var decoded Command
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, cmd, decoded)

	err = json.Unmarshal([]byte(`{"programs":[{"orientation":"Q"}]}`), &decoded)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
