package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasks-api/internal/models"
)

func newValidator(t *testing.T) *TaskValidator {
	t.Helper()
	v, err := NewTaskValidator()
	require.NoError(t, err)
	return v
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	require.Error(t, err)
	var verr *Error
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestValidate_Create(t *testing.T) {
	v := newValidator(t)

	task, err := v.Validate(map[string]any{"description": "  buy milk "}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, models.Task{Description: "buy milk"}, task)

	task, err = v.Validate(map[string]any{"description": "ship it", "completed": true, "id": 99.0}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, models.Task{Description: "ship it", Completed: true}, task)
}

func TestValidate_CreateErrors(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name  string
		input any
		want  map[string][]string
	}{
		{
			name:  "missing description",
			input: map[string]any{},
			want:  map[string][]string{"description": {msgRequired}},
		},
		{
			name:  "blank description",
			input: map[string]any{"description": "   "},
			want:  map[string][]string{"description": {msgBlank}},
		},
		{
			name:  "null description",
			input: map[string]any{"description": nil},
			want:  map[string][]string{"description": {msgNull}},
		},
		{
			name:  "non string description",
			input: map[string]any{"description": []any{"a"}},
			want:  map[string][]string{"description": {msgString}},
		},
		{
			name:  "boolean description",
			input: map[string]any{"description": true},
			want:  map[string][]string{"description": {msgString}},
		},
		{
			name:  "object description",
			input: map[string]any{"description": map[string]any{"a": "b"}},
			want:  map[string][]string{"description": {msgString}},
		},
		{
			name:  "too long description",
			input: map[string]any{"description": strings.Repeat("a", MaxDescriptionLength+1)},
			want:  map[string][]string{"description": {"Ensure this field has no more than 1000 characters."}},
		},
		{
			name:  "non boolean completed",
			input: map[string]any{"description": "x", "completed": "maybe"},
			want:  map[string][]string{"completed": {msgBoolean}},
		},
		{
			name:  "mixed case completed",
			input: map[string]any{"description": "x", "completed": "tRuE"},
			want:  map[string][]string{"completed": {msgBoolean}},
		},
		{
			name:  "missing description and bad completed",
			input: map[string]any{"completed": 7.0},
			want: map[string][]string{
				"description": {msgRequired},
				"completed":   {msgBoolean},
			},
		},
		{
			name:  "list body",
			input: []any{},
			want:  map[string][]string{NonFieldErrors: {"Invalid data. Expected a dictionary, but got list."}},
		},
		{
			name:  "string body",
			input: "hello",
			want:  map[string][]string{NonFieldErrors: {"Invalid data. Expected a dictionary, but got str."}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.input, nil, false)
			assert.Equal(t, tt.want, fieldErrors(t, err))
		})
	}
}

func TestValidate_MaxLengthBoundary(t *testing.T) {
	v := newValidator(t)

	_, err := v.Validate(map[string]any{"description": strings.Repeat("a", MaxDescriptionLength)}, nil, false)
	assert.NoError(t, err)
}

func TestValidate_CoercesCompleted(t *testing.T) {
	v := newValidator(t)

	for _, in := range []any{true, "true", "True", "TRUE", "t", "Y", "1", "yes", "YES", "on", "On", 1.0} {
		task, err := v.Validate(map[string]any{"description": "x", "completed": in}, nil, false)
		require.NoError(t, err, "%v", in)
		assert.True(t, task.Completed, "%v", in)
	}

	for _, in := range []any{false, "false", "False", "F", "n", "0", "no", "NO", "off", "OFF", 0.0} {
		task, err := v.Validate(map[string]any{"description": "x", "completed": in}, nil, false)
		require.NoError(t, err, "%v", in)
		assert.False(t, task.Completed, "%v", in)
	}
}

func TestValidate_NumericDescription(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		input any
		want  string
	}{
		{42.0, "42"},
		{-7.0, "-7"},
		{4.5, "4.5"},
		{1234567.0, "1234567"},
		{json.Number("3.10"), "3.10"},
	}

	for _, tt := range tests {
		task, err := v.Validate(map[string]any{"description": tt.input}, nil, false)
		require.NoError(t, err, "%v", tt.input)
		assert.Equal(t, tt.want, task.Description, "%v", tt.input)
	}
}

func TestValidate_Partial(t *testing.T) {
	v := newValidator(t)
	existing := &models.Task{ID: 3, Description: "buy milk"}

	task, err := v.Validate(map[string]any{"completed": true}, existing, true)
	require.NoError(t, err)
	assert.Equal(t, models.Task{ID: 3, Description: "buy milk", Completed: true}, task)
	assert.False(t, existing.Completed, "existing task must not be modified")

	task, err = v.Validate(map[string]any{}, existing, true)
	require.NoError(t, err)
	assert.Equal(t, *existing, task)

	_, err = v.Validate(map[string]any{"description": ""}, existing, true)
	assert.Equal(t, map[string][]string{"description": {msgBlank}}, fieldErrors(t, err))
}

func TestValidate_FullUpdateKeepsAbsentOptionalFields(t *testing.T) {
	v := newValidator(t)
	existing := &models.Task{ID: 5, Description: "old", Completed: true}

	task, err := v.Validate(map[string]any{"description": "new"}, existing, false)
	require.NoError(t, err)
	assert.Equal(t, models.Task{ID: 5, Description: "new", Completed: true}, task)

	_, err = v.Validate(map[string]any{"completed": false}, existing, false)
	assert.Equal(t, map[string][]string{"description": {msgRequired}}, fieldErrors(t, err))
}

func TestError_String(t *testing.T) {
	err := &Error{}
	err.add("description", msgRequired)
	err.add("completed", msgBoolean)
	err.add("completed", msgBoolean)

	assert.Equal(t, "completed: Must be a valid boolean.; description: This field is required.", err.Error())
}
