package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{
		"zebra":  int64(1),
		"alpha":  int64(2),
		"_meta":  int64(3),
		"middle": int64(4),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"_meta":3,"alpha":2,"middle":4,"zebra":1}`, string(out))
}

func TestMarshalCanonical_NestedStructures(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{
		"groups": []any{"web", "db"},
		"vars":   map[string]any{"b": true, "a": nil},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"groups":["web","db"],"vars":{"a":null,"b":true}}`, string(out))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{"cmd": "a < b && c > d"})
	require.NoError(t, err)
	assert.Equal(t, `{"cmd":"a < b && c > d"}`, string(out))
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// e + combining acute (U+0301) must serialize identically to the
	// precomposed form (U+00E9).
	decomposed, err := MarshalCanonical("cafe\u0301")
	require.NoError(t, err)
	precomposed, err := MarshalCanonical("caf\u00e9")
	require.NoError(t, err)
	assert.Equal(t, precomposed, decomposed)
}

func TestMarshalCanonical_Numbers(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{
		"port":  float64(8080),
		"ratio": float64(0.5),
		"count": int64(3),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"count":3,"port":8080,"ratio":0.5}`, string(out))
}

func TestMarshalCanonical_Deterministic(t *testing.T) {
	doc := map[string]any{
		"c": []any{int64(1), int64(2)},
		"a": map[string]any{"y": "2", "x": "1"},
		"b": "s",
	}

	first, err := MarshalCanonical(doc)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(doc)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMarshalCanonical_UnsupportedType(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"ch": make(chan int)})
	require.Error(t, err)
}
