package pkg

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_ZeroValueIsUnset(t *testing.T) {
	var o Optional[int]
	v, ok := o.Get()
	assert.False(t, ok)
	assert.Equal(t, 0, v)
	assert.False(t, o.IsSet())
	assert.Nil(t, o.Ptr())
	assert.Equal(t, 7, o.OrElse(7))
	assert.Equal(t, "<unset>", o.String())
}

func TestOptional_Some(t *testing.T) {
	o := Some(0.0)
	v, ok := o.Get()
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)
	assert.Equal(t, 0.0, o.OrElse(12.5))
	require.NotNil(t, o.Ptr())
	assert.Equal(t, 0.0, *o.Ptr())
}

func TestOptionalFromPtr(t *testing.T) {
	assert.False(t, OptionalFromPtr[int](nil).IsSet())

	n := 9
	o := OptionalFromPtr(&n)
	n = 10
	v, ok := o.Get()
	assert.True(t, ok)
	assert.Equal(t, 9, v)
}

func TestOptional_JSON(t *testing.T) {
	type set struct {
		Reps     Optional[int]     `json:"reps"`
		WeightKg Optional[float64] `json:"weightKg"`
	}

	b, err := json.Marshal(set{Reps: Some(10)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"reps":10,"weightKg":null}`, string(b))

	var decoded set
	require.NoError(t, json.Unmarshal([]byte(`{"reps":null,"weightKg":52.5}`), &decoded))
	assert.False(t, decoded.Reps.IsSet())
	w, ok := decoded.WeightKg.Get()
	assert.True(t, ok)
	assert.Equal(t, 52.5, w)

	// missing field stays unset
	decoded = set{}
	require.NoError(t, json.Unmarshal([]byte(`{"reps":3}`), &decoded))
	assert.False(t, decoded.WeightKg.IsSet())

	require.Error(t, json.Unmarshal([]byte(`{"reps":"ten"}`), &decoded))
}
