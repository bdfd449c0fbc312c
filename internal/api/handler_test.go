package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"

	"hallyu-journalist/internal/model"
	"hallyu-journalist/internal/storage"
)

func newTestRouter(store storage.ReadStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHandler(store, model.DefaultCategories), []string{"http://localhost:3000"})
}

func seeded(t *testing.T) *storage.Memory {
	t.Helper()
	ctx := context.Background()
	mem := storage.NewMemory()
	mem.UpsertItems(ctx, []model.NewsItem{
		{Category: model.KPop, Title: "low", Link: model.StringPtr("https://n.example/1"), Score: 5},
		{Category: model.KPop, Title: "high", Link: model.StringPtr("https://n.example/2"), Score: 9},
		{Category: model.KDrama, Keyword: "Queen of Tears", Title: "briefing", Score: 8},
	})
	mem.ReplaceRankings(ctx, model.KPop, []model.RankingEntry{{Rank: 1, Title: "high", MetaInfo: "k", Score: 9}})
	mem.ReplaceTrendingKeywords(ctx, []model.TrendingKeyword{{Keyword: "BTS", Count: 90, Rank: 1}})
	mem.UpsertArchive(ctx, []model.ArchiveRecord{{Category: model.KPop, Title: "a"}, {Category: model.KDrama, Title: "b"}})
	return mem
}

func do(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestGetNews_OrdersByScore(t *testing.T) {
	r := newTestRouter(seeded(t))
	w := do(r, "GET", "/news?category=k-pop&limit=10")
	assert.Equal(t, http.StatusOK, w.Code)

	var res NewsListResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 2, len(res.Items))
	assert.Equal(t, "high", res.Items[0].Title)
}

func TestGetNews_UnknownCategory(t *testing.T) {
	r := newTestRouter(seeded(t))
	w := do(r, "GET", "/news?category=k-food")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, "GET", "/news")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetNewsItem_NullLink(t *testing.T) {
	r := newTestRouter(seeded(t))
	w := do(r, "GET", "/news/3")
	assert.Equal(t, http.StatusOK, w.Code)

	var res map[string]any
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, nil, res["link"])
	assert.Equal(t, "Queen of Tears", res["keyword"])
}

func TestGetNewsItem_NotFoundAndInvalid(t *testing.T) {
	r := newTestRouter(seeded(t))
	assert.Equal(t, http.StatusNotFound, do(r, "GET", "/news/99").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, "GET", "/news/abc").Code)
}

func TestReactions(t *testing.T) {
	mem := seeded(t)
	r := newTestRouter(mem)
	assert.Equal(t, http.StatusOK, do(r, "POST", "/news/1/like").Code)
	w := do(r, "POST", "/news/1/dislike")
	assert.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Likes    int `json:"likes"`
		Dislikes int `json:"dislikes"`
	}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 1, res.Likes)
	assert.Equal(t, 1, res.Dislikes)
	assert.Equal(t, http.StatusNotFound, do(r, "POST", "/news/42/like").Code)
}

func TestGetRankingsAndKeywords(t *testing.T) {
	r := newTestRouter(seeded(t))
	w := do(r, "GET", "/rankings?category=k-pop")
	assert.Equal(t, http.StatusOK, w.Code)
	var rk RankingsResponse
	json.Unmarshal(w.Body.Bytes(), &rk)
	assert.Equal(t, 1, len(rk.Rankings))
	assert.Equal(t, "high", rk.Rankings[0].Title)

	w = do(r, "GET", "/keywords")
	assert.Equal(t, http.StatusOK, w.Code)
	var kws []KeywordResponse
	json.Unmarshal(w.Body.Bytes(), &kws)
	assert.Equal(t, "BTS", kws[0].Keyword)
}

func TestGetArchive_Paging(t *testing.T) {
	r := newTestRouter(seeded(t))
	w := do(r, "GET", "/archive?limit=1&offset=0")
	assert.Equal(t, http.StatusOK, w.Code)
	var res ArchiveListResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, len(res.Records))

	w = do(r, "GET", "/archive?category=k-drama")
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 1, res.Total)
}

type downStore struct{ *storage.Memory }

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func (downStore) ListNews(context.Context, model.Category, int) ([]model.NewsItem, error) {
	return nil, errors.New("connection refused")
}

func TestStoreErrors(t *testing.T) {
	r := newTestRouter(downStore{storage.NewMemory()})
	assert.Equal(t, http.StatusServiceUnavailable, do(r, "GET", "/health").Code)
	assert.Equal(t, http.StatusInternalServerError, do(r, "GET", "/news?category=k-pop").Code)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(storage.NewMemory())
	assert.Equal(t, http.StatusOK, do(r, "GET", "/health").Code)
}
