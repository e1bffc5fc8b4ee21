package document

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueJSON(t *testing.T) {
	in := `{"b":[1,2.5,"<x>&",true,null,{}],"a":{"ar":"مرحبا"}}`
	var v Value
	require.NoError(t, json.Unmarshal([]byte(in), &v))
	assert.Equal(t, KindObject, v.Kind())

	out, err := v.MarshalJSON()
	require.NoError(t, err)
	// sorted keys, no HTML escaping, integral floats without fraction
	assert.Equal(t, `{"a":{"ar":"مرحبا"},"b":[1,2.5,"<x>&",true,null,{}]}`, string(out))
}

func TestValueJSON_Errors(t *testing.T) {
	var v Value
	assert.Error(t, json.Unmarshal([]byte(`{"a":1} {"b":2}`), &v))
	assert.Error(t, v.UnmarshalJSON([]byte(`{"a":`)))

	_, err := json.Marshal(Number(math.NaN()))
	assert.Error(t, err)
	_, err = json.Marshal(Object(map[string]Value{"x": Number(math.Inf(1))}))
	assert.Error(t, err)
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(map[string]any{"n": 3, "f": float32(1.5), "l": []any{"x", nil}, "big": int64(7)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":3,"f":1.5,"l":["x",null],"big":7}`, jsonOf(t, v))

	_, err = FromAny(struct{}{})
	assert.Error(t, err)
}

func TestValue_CloneAndEqual(t *testing.T) {
	a := MustParse(`{"x":[{"y":1}],"z":"s"}`)
	b := a.Clone()
	require.True(t, Equal(a, b))

	obj, _ := b.AsObject()
	obj["z"] = String("t")
	assert.False(t, Equal(a, b))
	assert.False(t, Equal(Number(math.NaN()), Number(math.NaN())))
	assert.True(t, Equal(Null(), Value{}))
	assert.False(t, Equal(Array(), EmptyObject()))
}
