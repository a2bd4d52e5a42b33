package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	reg := NewRegistry()
	reg.Register("csrf", Static("csrf_token"))
	reg.Register("verbatim", Static("verbatim"))
	reg.SetDefault(Mapper{Directive: "include", Include: true})
	return reg
}

func TestNewTag(t *testing.T) {
	reg := newTestRegistry()
	opts := TagOptions{KebabCase: true}

	t.Run("start tag", func(t *testing.T) {
		tag, err := NewTag(reg, opts, "<dj-verbatim>", "verbatim", "", 0)
		require.NoError(t, err)
		assert.Equal(t, "verbatim", tag.Name)
		assert.False(t, tag.IsEnd)
		assert.False(t, tag.IsSelfClosing)
		assert.True(t, tag.IsWrapped)
		assert.True(t, tag.HasMapper)
		assert.Equal(t, "verbatim", tag.Mapper.Directive)
	})

	t.Run("end tag", func(t *testing.T) {
		tag, err := NewTag(reg, opts, "</dj-verbatim>", "verbatim", "", 0)
		require.NoError(t, err)
		assert.True(t, tag.IsEnd)
	})

	t.Run("self closing", func(t *testing.T) {
		tag, err := NewTag(reg, opts, "<dj-csrf />", "csrf", "", 0)
		require.NoError(t, err)
		assert.True(t, tag.IsSelfClosing)
	})

	t.Run("shadow bang", func(t *testing.T) {
		tag, err := NewTag(reg, opts, "<dj-partial!>", "partial!", "", 0)
		require.NoError(t, err)
		assert.Equal(t, "partial", tag.Name)
		assert.True(t, tag.IsShadow)
	})

	t.Run("shadow attribute", func(t *testing.T) {
		tag, err := NewTag(reg, opts, "<dj-partial shadow x=1>", "partial", "shadow x=1", 0)
		require.NoError(t, err)
		assert.True(t, tag.IsShadow)
		assert.Equal(t, "x=1", tag.Attributes.String())
	})

	t.Run("no wrap", func(t *testing.T) {
		tag, err := NewTag(reg, opts, "<dj-partial no-wrap>", "partial", "no-wrap", 0)
		require.NoError(t, err)
		assert.False(t, tag.IsWrapped)
	})

	t.Run("shadow with no wrap", func(t *testing.T) {
		_, err := NewTag(reg, opts, "<dj-partial! no-wrap>", "partial!", "no-wrap", 0)
		assert.ErrorIs(t, err, ErrInvalidAttributeCombination)
	})

	t.Run("newlines in args", func(t *testing.T) {
		tag, err := NewTag(reg, opts, "<dj-partial\n a=1\n b=2>", "partial", "a=1\n b=2", 0)
		require.NoError(t, err)
		assert.Equal(t, "a=1 b=2", tag.Attributes.String())
	})

	t.Run("kebab case", func(t *testing.T) {
		tag, err := NewTag(reg, opts, "<dj-PartialOne>", "PartialOne", "", 0)
		require.NoError(t, err)
		assert.Equal(t, "partial-one", tag.Name)
	})

	t.Run("unknown name uses default", func(t *testing.T) {
		tag, err := NewTag(reg, opts, "<dj-partial>", "partial", "", 0)
		require.NoError(t, err)
		assert.True(t, tag.HasMapper)
		assert.True(t, tag.IsInclude())
	})

	t.Run("void element", func(t *testing.T) {
		tag, err := NewTag(reg, opts, "<br>", "br", "", 0)
		require.NoError(t, err)
		assert.True(t, tag.IsSelfClosing)
	})

	t.Run("bad attribute", func(t *testing.T) {
		_, err := NewTag(reg, opts, "<dj-partial a=b=c>", "partial", "a=b=c", 7)
		assert.ErrorIs(t, err, ErrParse)
	})
}

func TestNormalizeTagName(t *testing.T) {
	assert.Equal(t, "partial-one", NormalizeTagName("PartialOne", TagOptions{KebabCase: true}))
	assert.Equal(t, "component/partial", NormalizeTagName("component/partial", TagOptions{KebabCase: true}))
	assert.Equal(t, "partialone", NormalizeTagName("PartialOne", TagOptions{LowerCase: true}))
	assert.Equal(t, "PartialOne", NormalizeTagName("PartialOne", TagOptions{}))
}

func TestTagReparseAttributes(t *testing.T) {
	tag, err := NewTag(newTestRegistry(), TagOptions{}, "<dj-block 'content'>", "block", "'content'", 0)
	require.NoError(t, err)

	_, err = tag.PopValueOrFirstKey("name")
	require.NoError(t, err)
	assert.Equal(t, 0, tag.Attributes.Len())

	require.NoError(t, tag.ParseAttributes())
	assert.Equal(t, 1, tag.Attributes.Len())
}
