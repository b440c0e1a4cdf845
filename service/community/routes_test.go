package community

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
	"github.com/pettopia/pettopia-server/cmd/utils"
)

type testServer struct {
	api     *fakeAPI
	history *memHistory
	pub     *recordingPublisher
	handler http.Handler
}

func newTestServer(t *testing.T, api *fakeAPI) *testServer {
	t.Helper()
	logger := quietLogger()
	f := newTestFeed(api, nil)
	pub := &recordingPublisher{}
	history := newMemHistory()

	h := NewCommunityHandler(api, f, NewLikes(api, pub, f.Invalidate, logger), history, logger)
	h.now = func() time.Time { return testNow }
	router := mux.NewRouter()
	h.RegisterRoutes(router)

	return &testServer{api: api, history: history, pub: pub, handler: utils.IdentityMiddleware(router)}
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": userID}).SignedString([]byte("upstream-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok
}

func (s *testServer) do(r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, r)
	return rec
}

func postForm(t *testing.T, auth string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		w.WriteField(k, v)
	}
	for name, content := range files {
		part, err := w.CreateFormFile("images", name)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte(content))
	}
	w.Close()
	req := httptest.NewRequest(http.MethodPost, "/community/posts", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return req
}

func TestCreatePostValidatesBeforeUpload(t *testing.T) {
	s := newTestServer(t, newFakeAPI())
	auth := bearer(t, "u1")

	rec := s.do(postForm(t, auth, map[string]string{
		"category": "gopy",
		"title":    "Short",
		"content":  "Twenty-five characters ok",
	}, nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var body utils.ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Errors["title"] == "" || len(body.Errors) != 1 {
		t.Errorf("errors = %v", body.Errors)
	}
	if len(s.api.created) != 0 {
		t.Fatal("community API called for an invalid post")
	}

	rec = s.do(postForm(t, auth, map[string]string{
		"category": "gopy",
		"title":    "Fifteen chars!!",
		"content":  "Twenty-five characters ok",
	}, map[string]string{"dog.jpg": "jpeg-bytes"}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	if len(s.api.created) != 1 {
		t.Fatalf("created %d posts", len(s.api.created))
	}
	got := s.api.created[0]
	if got.UserID != "u1" || got.Title != "Fifteen chars!!" || len(got.Tags) != 1 || got.Tags[0] != "gopy" || len(got.Images) != 1 {
		t.Errorf("forwarded post = %+v", got)
	}
}

func TestCreatePostRejectsBadImage(t *testing.T) {
	s := newTestServer(t, newFakeAPI())
	rec := s.do(postForm(t, bearer(t, "u1"), map[string]string{
		"category": "tuvan",
		"title":    "Fifteen chars!!",
		"content":  "Twenty-five characters ok",
	}, map[string]string{"notes.pdf": "%PDF"}))
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "images") {
		t.Errorf("status = %d body = %s", rec.Code, rec.Body)
	}
	if len(s.api.created) != 0 {
		t.Error("community API called with an invalid image")
	}
}

func TestInteractionsRequireLogin(t *testing.T) {
	s := newTestServer(t, newFakeAPI(testPost("p1", 0, testNow)))
	cases := []*http.Request{
		httptest.NewRequest(http.MethodPost, "/community/posts/p1/like", nil),
		httptest.NewRequest(http.MethodPost, "/community/posts/p1/comments", strings.NewReader(`{"content":"hello"}`)),
		httptest.NewRequest(http.MethodPost, "/community/posts/p1/favorite", nil),
		httptest.NewRequest(http.MethodGet, "/community/history", nil),
		postForm(t, "", map[string]string{
			"category": "gopy",
			"title":    "Fifteen chars!!",
			"content":  "Twenty-five characters ok",
		}, nil),
	}
	for _, req := range cases {
		rec := s.do(req)
		if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "đăng nhập") {
			t.Errorf("%s %s = %d %s", req.Method, req.URL.Path, rec.Code, rec.Body)
		}
	}
	if s.api.detailCalls != 0 || s.api.likeCalls != 0 || len(s.api.comments) != 0 || len(s.api.created) != 0 {
		t.Error("community API called for an anonymous interaction")
	}
}

func TestLikeRoute(t *testing.T) {
	s := newTestServer(t, newFakeAPI(testPost("p1", 1499, testNow)))

	req := httptest.NewRequest(http.MethodPost, "/community/posts/p1/like", nil)
	req.Header.Set("Authorization", bearer(t, "u1"))
	rec := s.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var body struct {
		Confirmed bool `json:"confirmed"`
		Post      struct {
			LikeCount int    `json:"likeCount"`
			LikeLabel string `json:"like_label"`
			Liked     bool   `json:"liked"`
		} `json:"post"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if !body.Confirmed || body.Post.LikeCount != 1500 || body.Post.LikeLabel != "1.5K" || !body.Post.Liked {
		t.Errorf("body = %+v", body)
	}
}

func TestLikeRouteFailureReturnsServerState(t *testing.T) {
	api := newFakeAPI(testPost("p1", 7, testNow))
	api.likeErr = &APIError{Status: http.StatusTooManyRequests, Message: "Chậm lại"}
	s := newTestServer(t, api)

	req := httptest.NewRequest(http.MethodPost, "/community/posts/p1/like", nil)
	req.Header.Set("Authorization", bearer(t, "u1"))
	rec := s.do(req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Message string `json:"message"`
		Post    struct {
			LikeCount int  `json:"likeCount"`
			Liked     bool `json:"liked"`
		} `json:"post"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Message != "Chậm lại" || body.Post.LikeCount != 7 || body.Post.Liked {
		t.Errorf("body = %+v", body)
	}
}

func TestCommentRoute(t *testing.T) {
	s := newTestServer(t, newFakeAPI(testPost("p1", 0, testNow)))

	blank := httptest.NewRequest(http.MethodPost, "/community/posts/p1/comments", strings.NewReader(`{"content":"   "}`))
	blank.Header.Set("Authorization", bearer(t, "u1"))
	if rec := s.do(blank); rec.Code != http.StatusBadRequest {
		t.Errorf("blank comment status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/community/posts/p1/comments", strings.NewReader(`{"content":" Bé dễ thương quá "}`))
	req.Header.Set("Authorization", bearer(t, "u1"))
	rec := s.do(req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var body struct {
		Post struct {
			CommentCount int `json:"commentCount"`
		} `json:"post"`
		Comments []struct {
			Content      string `json:"content"`
			AuthorAvatar string `json:"author_avatar"`
		} `json:"comments"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Post.CommentCount != 1 || len(body.Comments) != 1 || body.Comments[0].Content != "Bé dễ thương quá" {
		t.Errorf("body = %+v", body)
	}
	if got := body.Comments[0].AuthorAvatar; got != "https://api.dicebear.com/7.x/avataaars/svg?seed=user" {
		t.Errorf("authorless comment avatar = %q", got)
	}
}

func TestDetailRecordsViewAndFavorites(t *testing.T) {
	s := newTestServer(t, newFakeAPI(testPost("p1", 0, testNow, `["review"]`)))
	auth := bearer(t, "u1")

	get := httptest.NewRequest(http.MethodGet, "/community/posts/p1", nil)
	get.Header.Set("Authorization", auth)
	if rec := s.do(get); rec.Code != http.StatusOK {
		t.Fatalf("detail status = %d", rec.Code)
	}

	fav := httptest.NewRequest(http.MethodPost, "/community/posts/p1/favorite", nil)
	fav.Header.Set("Authorization", auth)
	rec := s.do(fav)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"favorite":true`) {
		t.Fatalf("favorite = %d %s", rec.Code, rec.Body)
	}

	for _, tab := range []string{"favorites", "history"} {
		req := httptest.NewRequest(http.MethodGet, "/community/history?tab="+tab, nil)
		req.Header.Set("Authorization", auth)
		rec := s.do(req)
		var body struct {
			Posts []struct {
				PostID string   `json:"post_id"`
				Tags   []string `json:"tags"`
			} `json:"posts"`
		}
		json.Unmarshal(rec.Body.Bytes(), &body)
		if rec.Code != http.StatusOK || len(body.Posts) != 1 || body.Posts[0].PostID != "p1" || body.Posts[0].Tags[0] != "review" {
			t.Errorf("%s: %d %s", tab, rec.Code, rec.Body)
		}
	}

	anon := s.do(httptest.NewRequest(http.MethodGet, "/community/posts/p1", nil))
	if anon.Code != http.StatusOK || strings.Contains(anon.Body.String(), `"favorite":true`) {
		t.Errorf("anonymous detail = %d %s", anon.Code, anon.Body)
	}
}

func TestDetailErrors(t *testing.T) {
	hidden := testPost("p2", 0, testNow)
	hidden.IsHidden = true
	s := newTestServer(t, newFakeAPI(hidden))

	for _, path := range []string{"/community/posts/missing", "/community/posts/p2"} {
		rec := s.do(httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, rec.Code)
		}
	}
}

func TestFeedRoutes(t *testing.T) {
	s := newTestServer(t, newFakeAPI(
		testPost("p1", 0, testNow.Add(-time.Hour), "gopy"),
		testPost("p2", 0, testNow.Add(-2*time.Hour), "tintuc"),
	))

	rec := s.do(httptest.NewRequest(http.MethodGet, "/community/posts?tab=tintuc&page=9", nil))
	var page FeedPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Posts.Page != 1 || len(page.Posts.Items) != 1 || page.Posts.Items[0].ID != "p2" {
		t.Errorf("page = %+v", page.Posts)
	}

	rec = s.do(httptest.NewRequest(http.MethodGet, "/community/trending", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("trending = %d %s", rec.Code, rec.Body)
	}

	rec = s.do(httptest.NewRequest(http.MethodGet, "/community/categories", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"id":"chiase"`) {
		t.Errorf("categories = %d %s", rec.Code, rec.Body)
	}
}
