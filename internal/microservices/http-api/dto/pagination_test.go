package dto

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Page
	}{
		{"defaults", "", Page{Limit: 10}},
		{"explicit", "limit=5&offset=20", Page{Limit: 5, Offset: 20}},
		{"capped", "limit=1000", Page{Limit: 100}},
		{"garbage", "limit=abc&offset=-3", Page{Limit: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ParsePage(q, 10, 100))
		})
	}
}

func TestNewPaginated_Links(t *testing.T) {
	base, err := url.Parse("http://api.test/api/v1/titles/?name=dune&limit=2&offset=2")
	require.NoError(t, err)

	page := NewPaginated([]int{3, 4}, 5, Page{Limit: 2, Offset: 2}, base)

	assert.EqualValues(t, 5, page.Count)
	require.NotNil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Equal(t, "http://api.test/api/v1/titles/?limit=2&name=dune&offset=4", *page.Next)
	assert.Equal(t, "http://api.test/api/v1/titles/?limit=2&name=dune", *page.Previous)
}

func TestNewPaginated_SinglePage(t *testing.T) {
	base, _ := url.Parse("http://api.test/api/v1/genres/")

	page := NewPaginated[string](nil, 0, Page{Limit: 10}, base)

	assert.Nil(t, page.Next)
	assert.Nil(t, page.Previous)
	assert.NotNil(t, page.Results)
	assert.Empty(t, page.Results)
}
