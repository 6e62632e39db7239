package api

import (
	"bytes"             // Byte buffers
	"fmt"               // Formatting
	"mime/multipart"    // Multipart uploads
	"net/http"          // HTTP status codes
	"net/http/httptest" // HTTP test helpers
	"testing"           // Go's testing package

	"srq_assessment/internal/domain" // Domain models

	"github.com/stretchr/testify/assert"  // Assertions
	"github.com/stretchr/testify/require" // Fatal assertions
)

const importCSV = `title,author,article,date,category
Grounding techniques,Dr. Sari,Name five things you can see.,2024-03-01,anxiety
Talking to someone,Dr. Budi,Reach out early.,"March 4, 2024",depression
Crystal healing,Dr. X,Not evidence based.,2024-03-05,astrology
`

func uploadCSV(env *testEnv, token, content string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "articles.csv")
	require.NoError(env.t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(env.t, err)
	require.NoError(env.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/articles/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return env.send(req, token)
}

func TestImportEndpointSkipsAndUpserts(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.createUser("editor@example.com", domain.RoleAdmin)
	_, user := env.createUser("reader@example.com", domain.RoleUser)

	assert.Equal(t, http.StatusForbidden, uploadCSV(env, user, importCSV).Code)

	w := uploadCSV(env, admin, importCSV)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, float64(2), resp["inserted"])
	assert.Equal(t, float64(0), resp["updated"])
	assert.Equal(t, float64(1), resp["skipped"])

	w = uploadCSV(env, admin, "title,author,article,date,category\nGrounding techniques,Dr. Sari,Updated body.,2024-03-09,Anxiety\n")
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode(t, w)
	assert.Equal(t, float64(0), resp["inserted"])
	assert.Equal(t, float64(1), resp["updated"])

	var stored []domain.Article
	require.NoError(t, env.db.Order("title").Find(&stored).Error)
	require.Len(t, stored, 2)
	assert.Equal(t, "Grounding techniques", stored[0].Title)
	assert.Equal(t, "Updated body.", stored[0].Article)

	w = uploadCSV(env, admin, "name,body\nx,y\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestArticleCRUD(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.createUser("writer@example.com", domain.RoleAdmin)
	body := map[string]any{"title": "Mindful walking", "author": "Dr. W", "article": "Walk slowly.", "date": "2024-05-01", "category": "Mindfulness"}

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/api/articles", body, "").Code)

	w := env.do(http.MethodPost, "/api/articles", body, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)["article"].(map[string]any)
	assert.Equal(t, "mindfulness", created["category"])
	path := fmt.Sprintf("/api/articles/%d", int(created["id"].(float64)))

	assert.Equal(t, http.StatusConflict, env.do(http.MethodPost, "/api/articles", body, admin).Code)
	body["category"] = "astrology"
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/articles", body, admin).Code)

	body["category"] = "general"
	body["title"] = "Mindful walking outdoors"
	w = env.do(http.MethodPut, path, body, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Mindful walking outdoors", decode(t, w)["article"].(map[string]any)["title"])

	w = env.do(http.MethodGet, "/api/articles?category=general", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])
	w = env.do(http.MethodGet, "/api/articles?search=outdoors", nil, "")
	assert.Equal(t, float64(1), decode(t, w)["total"])
	w = env.do(http.MethodGet, "/api/articles?category=anxiety", nil, "")
	assert.Equal(t, float64(0), decode(t, w)["total"])

	w = env.do(http.MethodGet, "/api/articles/categories", nil, "")
	assert.Len(t, decode(t, w)["categories"], len(domain.ArticleCategories))

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, path, nil, "").Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodDelete, path, nil, admin).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, path, nil, "").Code)
}
