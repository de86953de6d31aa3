package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeClampsWindow(t *testing.T) {
	p := Pagination{}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.PageSize)

	p = Pagination{Page: -3, PageSize: 9999}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 250, p.PageSize)
}

func TestOffsetAndLimit(t *testing.T) {
	p := Pagination{Page: 3, PageSize: 20}
	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, 20, p.Limit())
}

func TestBuildPageInfo(t *testing.T) {
	info := BuildPageInfo(Pagination{Page: 2, PageSize: 10}, 25)
	assert.EqualValues(t, 25, info.TotalCount)
	assert.EqualValues(t, 3, info.TotalPages)
	assert.True(t, info.HasMore)

	last := BuildPageInfo(Pagination{Page: 3, PageSize: 10}, 25)
	assert.False(t, last.HasMore)

	empty := BuildPageInfo(Pagination{Page: 1, PageSize: 10}, 0)
	assert.EqualValues(t, 0, empty.TotalPages)
	assert.False(t, empty.HasMore)
}
