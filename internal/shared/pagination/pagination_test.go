package pagination

import (
	"math"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		page, size string
		want       Params
	}{
		{"", "", Params{Page: 1, PageSize: 24}},
		{"3", "10", Params{Page: 3, PageSize: 10}},
		{"-2", "0", Params{Page: 1, PageSize: 24}},
		{"abc", "1000", Params{Page: 1, PageSize: MaxPageSize}},
		{" 2 ", " 5", Params{Page: 2, PageSize: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.page+"/"+tt.size, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.page, tt.size, DefaultStorefrontSize))
		})
	}
}

func TestParseBadDefault(t *testing.T) {
	assert.Equal(t, DefaultDashboardSize, Parse("", "", 0).PageSize)
}

func TestTotalPagesAndOffset(t *testing.T) {
	p := Params{Page: 3, PageSize: 10}
	assert.Equal(t, 20, p.Offset())
	assert.Equal(t, 1, p.TotalPages(0))
	assert.Equal(t, 1, p.TotalPages(10))
	assert.Equal(t, 2, p.TotalPages(11))
}

func TestClamp(t *testing.T) {
	for _, tc := range []struct{ page, total, want int }{
		{0, 5, 1}, {-4, 5, 1}, {3, 5, 3}, {9, 5, 5}, {2, 0, 1},
	} {
		t.Run(strconv.Itoa(tc.page), func(t *testing.T) {
			got := Params{Page: tc.page, PageSize: 10}.Clamp(tc.total)
			assert.Equal(t, tc.want, got.Page)
		})
	}
}

func TestWithinAndNewPageClampToRange(t *testing.T) {
	p := Parse("999", "2", DefaultDashboardSize)
	assert.Equal(t, 2, p.Within(3).Page)
	assert.Equal(t, 2, p.Within(3).Offset())
	assert.Equal(t, 1, p.Within(0).Page)

	pg := NewPage([]int{3}, p, 3)
	assert.Equal(t, 2, pg.Page)
	assert.Equal(t, 2, pg.TotalPages)
	assert.False(t, pg.HasNext)
	assert.True(t, pg.HasPrev)

	huge := Params{Page: math.MaxInt, PageSize: MaxPageSize}
	assert.Equal(t, 0, huge.Within(5).Offset())
}

func TestNewPageAndMap(t *testing.T) {
	pg := NewPage([]int{1, 2}, Params{Page: 1, PageSize: 2}, 5)
	assert.Equal(t, 3, pg.TotalPages)
	assert.True(t, pg.HasNext)
	assert.False(t, pg.HasPrev)

	strs := Map(pg, strconv.Itoa)
	assert.Equal(t, []string{"1", "2"}, strs.Items)
	assert.Equal(t, int64(5), strs.Total)

	empty := NewPage[int](nil, Params{Page: 1, PageSize: 2}, 0)
	assert.NotNil(t, empty.Items)
	assert.False(t, empty.HasNext)
}

func TestMapKeepsCounters(t *testing.T) {
	in := NewPage([]int{7, 8}, Params{Page: 2, PageSize: 2}, 6)
	got := Map(in, func(n int) string { return strconv.Itoa(n * 10) })

	want := Page[string]{
		Items:      []string{"70", "80"},
		Page:       2,
		PageSize:   2,
		Total:      6,
		TotalPages: 3,
		HasNext:    true,
		HasPrev:    true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Map() mismatch (-want +got):\n%s", diff)
	}
}
