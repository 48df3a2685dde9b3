package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazar/offers"
)

func newListQueryContext(t *testing.T, rawQuery string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/offers/my?"+rawQuery, nil)
	return c, recorder
}

func TestBindListFilter(t *testing.T) {
	impl := &ServerImpl{}

	t.Run("sort_by 參數決定排序", func(t *testing.T) {
		c, _ := newListQueryContext(t, "sort_by=price_low")
		filter, ok := impl.bindListFilter(c)
		require.True(t, ok)
		assert.Equal(t, offers.SortPriceLow, filter.Sort)
	})

	t.Run("未指定排序時預設為最新", func(t *testing.T) {
		c, _ := newListQueryContext(t, "")
		filter, ok := impl.bindListFilter(c)
		require.True(t, ok)
		assert.Equal(t, offers.SortNewest, filter.Sort)
	})

	t.Run("不認識的排序鍵被拒絕", func(t *testing.T) {
		c, recorder := newListQueryContext(t, "sort_by=bogus")
		_, ok := impl.bindListFilter(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("每頁筆數上限為100", func(t *testing.T) {
		c, _ := newListQueryContext(t, "limit=500")
		filter, ok := impl.bindListFilter(c)
		require.True(t, ok)
		assert.Equal(t, 100, filter.Limit)
	})
}
