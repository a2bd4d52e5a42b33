package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetOuterHTML(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		start int
		want  string
		ok    bool
	}{
		{
			name:  "sibling after span",
			html:  "<span></span><div dj-if='True'><p>test</p></div><span></span>",
			start: 13,
			want:  "<div dj-if='True'><p>test</p></div>",
			ok:    true,
		},
		{
			name: "nested same name",
			html: "<div><div>1</div><div>2</div></div><div>3</div>",
			want: "<div><div>1</div><div>2</div></div>",
			ok:   true,
		},
		{
			name: "void element",
			html: "<img src='a.png'><p></p>",
			want: "<img src='a.png'>",
			ok:   true,
		},
		{
			name: "self closing",
			html: "<widget /><p></p>",
			want: "<widget />",
			ok:   true,
		},
		{
			name: "end tag is its own extent",
			html: "</div dj-endif>rest",
			want: "</div dj-endif>",
			ok:   true,
		},
		{
			name: "quoted gt",
			html: `<div title="a > b">x</div>`,
			want: `<div title="a > b">x</div>`,
			ok:   true,
		},
		{
			name: "apostrophe in text",
			html: "<p>Don't</p>tail",
			want: "<p>Don't</p>",
			ok:   true,
		},
		{
			name: "comment is skipped",
			html: "<div><!-- </div> --></div>",
			want: "<div><!-- </div> --></div>",
			ok:   true,
		},
		{
			name: "unclosed",
			html: "<div>open",
			want: "<div>",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := GetOuterHTML(tt.html, tt.start)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, tt.html[start:end])
		})
	}
}

func TestGetOuterHTMLNoTag(t *testing.T) {
	_, _, ok := GetOuterHTML("plain text", 0)
	assert.False(t, ok)
}

func TestReadTag(t *testing.T) {
	tag, ok := ReadTag("<br/>", 0)
	assert.True(t, ok)
	assert.Equal(t, "br", tag.Name)
	assert.True(t, tag.SelfClosing)

	tag, ok = ReadTag("</div dj-endif>", 0)
	assert.True(t, ok)
	assert.Equal(t, "div", tag.Name)
	assert.True(t, tag.IsEnd)

	_, ok = ReadTag("< b >", 0)
	assert.False(t, ok)
}
