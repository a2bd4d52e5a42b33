package engine

// TagQueue pairs end tags with their start tags.
type TagQueue struct {
	stack []*Tag
}

// Track records tag: non-self-closing start tags are pushed, end tags pop
// and must match the tag on top.
func (q *TagQueue) Track(tag *Tag) error {
	switch {
	case tag.IsEnd:
		return q.close(tag)
	case !tag.IsSelfClosing:
		q.stack = append(q.stack, tag)
	}
	return nil
}

func (q *TagQueue) close(end *Tag) error {
	if len(q.stack) == 0 {
		return NewInvalidEndTagError(end, nil)
	}

	last := q.stack[len(q.stack)-1]
	q.stack = q.stack[:len(q.stack)-1]
	end.Start = last

	if last.Name != end.Name {
		return NewInvalidEndTagError(end, last)
	}
	return nil
}

// Peek returns the innermost open tag.
func (q *TagQueue) Peek() (*Tag, bool) {
	if len(q.stack) == 0 {
		return nil, false
	}
	return q.stack[len(q.stack)-1], true
}

func (q *TagQueue) Len() int {
	return len(q.stack)
}
