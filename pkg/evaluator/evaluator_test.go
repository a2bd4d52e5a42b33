package evaluator

import (
	"testing"
	"time"

	"angles/pkg/engine"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCall(t *testing.T) {
	t.Run("no args", func(t *testing.T) {
		call, err := ParseCall("set_name()")
		require.NoError(t, err)
		assert.Equal(t, "set_name", call.Name)
		assert.Empty(t, call.Args)
		assert.Empty(t, call.Kwargs)
	})

	t.Run("bare name", func(t *testing.T) {
		call, err := ParseCall("refresh")
		require.NoError(t, err)
		assert.Equal(t, "refresh", call.Name)
	})

	t.Run("positional", func(t *testing.T) {
		call, err := ParseCall(`set_name('Bob', 2, 1.5, True, None)`)
		require.NoError(t, err)
		assert.Equal(t, "set_name", call.Name)
		require.Len(t, call.Args, 5)
		assert.Equal(t, "Bob", call.Args[0])
		assert.Equal(t, 2, call.Args[1])
		assert.True(t, decimal.RequireFromString("1.5").Equal(call.Args[2].(decimal.Decimal)))
		assert.Equal(t, true, call.Args[3])
		assert.Nil(t, call.Args[4])
	})

	t.Run("kwargs", func(t *testing.T) {
		call, err := ParseCall(`greet(name="Bob", count=3)`)
		require.NoError(t, err)
		assert.Empty(t, call.Args)
		assert.Equal(t, map[string]any{"name": "Bob", "count": 3}, call.Kwargs)
	})

	t.Run("comma inside string and list", func(t *testing.T) {
		call, err := ParseCall(`f("a, b", [1, 2])`)
		require.NoError(t, err)
		assert.Equal(t, []any{"a, b", []any{1, 2}}, call.Args)
	})

	t.Run("dict", func(t *testing.T) {
		call, err := ParseCall(`f({"a": 1})`)
		require.NoError(t, err)
		assert.Equal(t, []any{map[string]any{"a": 1}}, call.Args)
	})

	t.Run("variable", func(t *testing.T) {
		call, err := ParseCall(`f(request.user)`)
		require.NoError(t, err)
		require.Len(t, call.Args, 1)
		v, ok := call.Args[0].(Variable)
		require.True(t, ok)
		assert.Equal(t, "request", v.Name)
		assert.Equal(t, "request.user", v.String())
	})

	t.Run("starred list", func(t *testing.T) {
		call, err := ParseCall(`f(*[1, 2])`)
		require.NoError(t, err)
		assert.Equal(t, []any{1, 2}, call.Args)
	})

	t.Run("negative number", func(t *testing.T) {
		call, err := ParseCall(`f(-1)`)
		require.NoError(t, err)
		assert.Equal(t, []any{-1}, call.Args)
	})

	t.Run("date string", func(t *testing.T) {
		call, err := ParseCall(`f("2025-01-22")`)
		require.NoError(t, err)
		got, ok := call.Args[0].(time.Time)
		require.True(t, ok)
		assert.Equal(t, 2025, got.Year())
	})

	t.Run("uuid string", func(t *testing.T) {
		call, err := ParseCall(`f("c1f8a3b6-3f8e-4bd4-9a1b-9d1d2d0d6b51")`)
		require.NoError(t, err)
		_, ok := call.Args[0].(uuid.UUID)
		assert.True(t, ok)
	})

	t.Run("errors", func(t *testing.T) {
		for _, input := range []string{"1abc()", "f(", "f(a b)", "f(x) + 1"} {
			_, err := ParseCall(input)
			assert.ErrorIs(t, err, engine.ErrParse, input)
		}
	})
}

func TestParseChain(t *testing.T) {
	portions, err := ParseChain("Book.objects.filter(id=1, price=2.5).first()")
	require.NoError(t, err)
	require.Len(t, portions, 4)

	assert.Equal(t, "Book", portions[0].Name)
	assert.Equal(t, "objects", portions[1].Name)
	assert.Equal(t, "filter", portions[2].Name)
	assert.Equal(t, 1, portions[2].Kwargs["id"])
	assert.Equal(t, "first", portions[3].Name)

	_, err = ParseChain("a..b")
	assert.ErrorIs(t, err, engine.ErrParse)
}
