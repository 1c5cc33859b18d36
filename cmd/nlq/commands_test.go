package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propsearch/internal/service"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCompileCommand(t *testing.T) {
	out, err := execute(t, "compile",
		"--raw", `{"listing_type":"rent","bedrooms":"3","location":"Gulberg, Lahore"}`,
		"3 bed house for rent in Gulberg")
	require.NoError(t, err)

	var got compileOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Parameters, service.ParamCount)
	assert.Equal(t, "gulberg, lahore", got.Parameters[service.ParamLocation])
	assert.Equal(t, "rent", got.Parameters[service.ParamListingType])
	assert.EqualValues(t, 3, got.Parameters[service.ParamBedroomsExact])
}

func TestCompileCommand_PriceOverride(t *testing.T) {
	out, err := execute(t, "compile", "--raw", `{"price":{"max":100}}`,
		"--price-min", "10", "--price-max", "20", "flat")
	require.NoError(t, err)

	var got compileOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.EqualValues(t, 10, got.Parameters[service.ParamPriceMin])
	assert.EqualValues(t, 20, got.Parameters[service.ParamPriceMax])
	assert.Nil(t, got.Parameters[service.ParamPriceExact])
}

func TestCompileCommand_BadJSON(t *testing.T) {
	_, err := execute(t, "compile", "--raw", "not json")
	require.Error(t, err)
}

func TestDistanceCommand(t *testing.T) {
	out, err := execute(t, "distance", "31.5204", "74.3587", "31.5204", "74.3587")
	require.NoError(t, err)
	assert.Equal(t, "0.000 km\n", out)

	_, err = execute(t, "distance", "a", "1", "2", "3")
	require.Error(t, err)
}
