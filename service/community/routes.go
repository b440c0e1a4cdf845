package community

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pettopia/pettopia-server/cmd/models"
	"github.com/pettopia/pettopia-server/cmd/utils"
	"github.com/pettopia/pettopia-server/service/feed"
	"github.com/sirupsen/logrus"
)

const (
	historyTabFavorites = "favorites"
	historyTabViewed    = "history"

	msgEmptyComment = "Vui lòng nhập nội dung bình luận."
	msgHistory      = "Không thể tải lịch sử."
	msgFavorite     = "Không thể cập nhật danh sách yêu thích."
)

// HistoryStore keeps per-user favorites and recently viewed posts.
type HistoryStore interface {
	ToggleFavorite(ctx context.Context, userID string, snap models.PostSnapshot, at time.Time) (bool, error)
	IsFavorite(ctx context.Context, userID, postID string) (bool, error)
	RecordView(ctx context.Context, userID string, snap models.PostSnapshot, at time.Time) error
	Favorites(ctx context.Context, userID string) ([]models.FavoritePost, error)
	RecentlyViewed(ctx context.Context, userID string) ([]models.ViewedPost, error)
}

type CommunityHandler struct {
	api     API
	feed    *Feed
	likes   *Likes
	history HistoryStore
	logger  *logrus.Logger
	now     func() time.Time
}

func NewCommunityHandler(api API, f *Feed, likes *Likes, history HistoryStore, logger *logrus.Logger) *CommunityHandler {
	return &CommunityHandler{
		api:     api,
		feed:    f,
		likes:   likes,
		history: history,
		logger:  logger,
		now:     time.Now,
	}
}

func (h *CommunityHandler) RegisterRoutes(router *mux.Router) {
	// Feed
	router.HandleFunc("/community/posts", h.GetPosts).Methods("GET")
	router.HandleFunc("/community/trending", h.GetTrending).Methods("GET")
	router.HandleFunc("/community/categories", h.GetCategories).Methods("GET")
	router.HandleFunc("/community/posts", utils.AuthMiddleware(h.CreatePost)).Methods("POST")
	router.HandleFunc("/community/posts/{id}", h.GetPost).Methods("GET")

	// Interactions
	router.HandleFunc("/community/posts/{id}/like", utils.AuthMiddleware(h.ToggleLike)).Methods("POST")
	router.HandleFunc("/community/posts/{id}/comments", utils.AuthMiddleware(h.AddComment)).Methods("POST")
	router.HandleFunc("/community/posts/{id}/favorite", utils.AuthMiddleware(h.ToggleFavorite)).Methods("POST")

	// History
	router.HandleFunc("/community/history", utils.AuthMiddleware(h.GetHistory)).Methods("GET")
}

// GetPosts returns one page of the feed for the selected tab and search query.
func (h *CommunityHandler) GetPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))

	result, err := h.feed.Page(r.Context(), SessionFromRequest(r), q.Get("tab"), q.Get("q"), page)
	if err != nil {
		h.writeUpstreamError(w, r, err, utils.MsgLoadPosts)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

func (h *CommunityHandler) GetTrending(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromRequest(r)
	utils.WriteJSON(w, http.StatusOK, feed.Cards(h.feed.Trending(r.Context(), sess), sess.UserID, h.now()))
}

func (h *CommunityHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, feed.Categories)
}

type commentView struct {
	models.Comment
	AuthorAvatar string `json:"author_avatar"`
	CreatedAgo   string `json:"created_ago"`
}

type postDetailResponse struct {
	Post     feed.PostCard `json:"post"`
	Comments []commentView `json:"comments"`
	Favorite bool          `json:"favorite"`
}

// GetPost returns a post with its comments. Signed-in readers get the post
// added to their recently viewed list.
func (h *CommunityHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromRequest(r)
	postID := mux.Vars(r)["id"]

	detail, err := h.loadDetail(r.Context(), sess, postID)
	if err != nil {
		h.writeUpstreamError(w, r, err, utils.MsgLoadPostDetail)
		return
	}
	if detail == nil {
		utils.WriteError(w, http.StatusNotFound, utils.MsgLoadPostDetail)
		return
	}

	resp := h.detailResponse(detail, sess.UserID)
	if sess.UserID != "" && h.history != nil {
		snap := models.SnapshotOf(detail.Post)
		if err := h.history.RecordView(r.Context(), sess.UserID, snap, h.now()); err != nil {
			h.logger.WithError(err).WithField("post_id", postID).Warn("recording post view failed")
		}
		fav, err := h.history.IsFavorite(r.Context(), sess.UserID, postID)
		if err != nil {
			h.logger.WithError(err).WithField("post_id", postID).Warn("favorite lookup failed")
		}
		resp.Favorite = fav
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

// CreatePost validates the signed-in author's form locally and forwards it,
// images included, to the community API.
func (h *CommunityHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromRequest(r)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.MsgInvalidForm)
		return
	}

	in := feed.NewPostInput{
		Category: strings.TrimSpace(r.FormValue("category")),
		Title:    strings.TrimSpace(r.FormValue("title")),
		Content:  strings.TrimSpace(r.FormValue("content")),
	}
	fieldErrs := feed.ValidateNewPost(in)

	files := r.MultipartForm.File["images"]
	if len(files) > utils.MaxImageCount {
		fieldErrs["images"] = "Chỉ được tải lên tối đa " + strconv.Itoa(utils.MaxImageCount) + " ảnh"
	}
	for _, fh := range files {
		if err := utils.ValidateImage(fh); err != nil {
			fieldErrs["images"] = fh.Filename + ": " + err.Error()
			break
		}
	}
	if len(fieldErrs) > 0 {
		utils.WriteFieldErrors(w, fieldErrs)
		return
	}

	images := make([]ImageUpload, 0, len(files))
	opened := make([]multipart.File, 0, len(files))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, utils.MsgInvalidForm)
			return
		}
		opened = append(opened, f)
		images = append(images, ImageUpload{Filename: fh.Filename, Body: f})
	}

	created, err := h.api.CreatePost(r.Context(), sess, NewPost{
		UserID:  sess.UserID,
		Title:   in.Title,
		Content: in.Content,
		Tags:    []string{in.Category},
		Images:  images,
	})
	if err != nil {
		h.writeUpstreamError(w, r, err, utils.MsgCreatePost)
		return
	}
	h.feed.Invalidate(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if len(created) == 0 {
		created = json.RawMessage("{}")
	}
	w.Write(created)
}

type likeResponse struct {
	Message   string         `json:"message,omitempty"`
	Post      *feed.PostCard `json:"post,omitempty"`
	Confirmed bool           `json:"confirmed"`
}

// ToggleLike flips the caller's like. With ?async=1 the optimistic post is
// returned at once and the outcome arrives over the websocket; otherwise the
// response waits for the community API.
func (h *CommunityHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromRequest(r)
	postID := mux.Vars(r)["id"]

	optimistic, confirmed, err := h.likes.Toggle(r.Context(), sess, postID)
	if errors.Is(err, feed.ErrNotAuthenticated) {
		utils.WriteError(w, http.StatusUnauthorized, utils.MsgLoginRequired)
		return
	}
	if err != nil {
		h.writeUpstreamError(w, r, err, utils.MsgLike)
		return
	}

	now := h.now()
	if r.URL.Query().Get("async") == "1" {
		card := feed.Card(optimistic, sess.UserID, now)
		utils.WriteJSON(w, http.StatusAccepted, likeResponse{Post: &card})
		return
	}

	select {
	case <-r.Context().Done():
		return
	case res := <-confirmed:
		if res.Err == nil {
			card := feed.Card(res.Post, sess.UserID, now)
			utils.WriteJSON(w, http.StatusOK, likeResponse{Post: &card, Confirmed: true})
			return
		}
		h.logRequestError(r, res.Err, "like toggle failed")
		resp := likeResponse{Message: messageFor(res.Err, utils.MsgLike)}
		if res.Post.ID != "" {
			card := feed.Card(res.Post, sess.UserID, now)
			resp.Post = &card
		}
		utils.WriteJSON(w, upstreamStatus(res.Err), resp)
	}
}

// AddComment posts a comment and answers with the refreshed post detail.
func (h *CommunityHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromRequest(r)
	postID := mux.Vars(r)["id"]

	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.MsgComment)
		return
	}
	content := strings.TrimSpace(body.Content)
	if content == "" {
		utils.WriteError(w, http.StatusBadRequest, msgEmptyComment)
		return
	}

	if _, err := h.api.CreateComment(r.Context(), sess, postID, sess.UserID, content); err != nil {
		h.writeUpstreamError(w, r, err, utils.MsgComment)
		return
	}
	h.feed.Invalidate(r.Context())

	detail, err := h.loadDetail(r.Context(), sess, postID)
	if err != nil {
		h.writeUpstreamError(w, r, err, utils.MsgLoadPostDetail)
		return
	}
	if detail == nil {
		utils.WriteError(w, http.StatusNotFound, utils.MsgLoadPostDetail)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, h.detailResponse(detail, sess.UserID))
}

func (h *CommunityHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromRequest(r)
	postID := mux.Vars(r)["id"]

	detail, err := h.loadDetail(r.Context(), sess, postID)
	if err != nil {
		h.writeUpstreamError(w, r, err, utils.MsgLoadPostDetail)
		return
	}
	if detail == nil {
		utils.WriteError(w, http.StatusNotFound, utils.MsgLoadPostDetail)
		return
	}

	fav, err := h.history.ToggleFavorite(r.Context(), sess.UserID, models.SnapshotOf(detail.Post), h.now())
	if err != nil {
		h.logRequestError(r, err, "toggling favorite failed")
		utils.WriteError(w, http.StatusInternalServerError, msgFavorite)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"post_id": postID, "favorite": fav})
}

type historyEntry struct {
	models.PostSnapshot
	At      time.Time `json:"at"`
	AtLabel string    `json:"at_label"`
}

// GetHistory lists the caller's favorites (default) or recently viewed posts.
func (h *CommunityHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromRequest(r)
	tab := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("tab")))
	if tab == "" {
		tab = historyTabFavorites
	}
	now := h.now()

	entries := []historyEntry{}
	switch tab {
	case historyTabFavorites:
		favorites, err := h.history.Favorites(r.Context(), sess.UserID)
		if err != nil {
			h.logRequestError(r, err, "loading favorites failed")
			utils.WriteError(w, http.StatusInternalServerError, msgHistory)
			return
		}
		for _, f := range favorites {
			entries = append(entries, historyEntry{PostSnapshot: f.PostSnapshot, At: f.FavoritedAt, AtLabel: feed.FormatTimeAgo(f.FavoritedAt, now)})
		}
	case historyTabViewed:
		viewed, err := h.history.RecentlyViewed(r.Context(), sess.UserID)
		if err != nil {
			h.logRequestError(r, err, "loading viewed posts failed")
			utils.WriteError(w, http.StatusInternalServerError, msgHistory)
			return
		}
		for _, v := range viewed {
			entries = append(entries, historyEntry{PostSnapshot: v.PostSnapshot, At: v.ViewedAt, AtLabel: feed.FormatTimeAgo(v.ViewedAt, now)})
		}
	default:
		utils.WriteError(w, http.StatusBadRequest, "Unknown history tab: "+tab)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{"tab": tab, "posts": entries})
}

// loadDetail fetches and normalizes a post. A hidden post yields nil.
func (h *CommunityHandler) loadDetail(ctx context.Context, sess Session, postID string) (*models.PostDetail, error) {
	detail, err := h.api.PostDetail(ctx, sess, postID)
	if err != nil {
		return nil, err
	}
	if detail.IsHidden {
		return nil, nil
	}
	detail.Post = feed.NormalizePost(detail.Post)
	return detail, nil
}

func (h *CommunityHandler) detailResponse(detail *models.PostDetail, userID string) postDetailResponse {
	now := h.now()
	comments := make([]commentView, len(detail.Comments))
	for i, c := range detail.Comments {
		comments[i] = commentView{Comment: c, AuthorAvatar: c.AuthorAvatar(), CreatedAgo: feed.FormatTimeAgo(c.CreatedAt, now)}
	}
	return postDetailResponse{
		Post:     feed.Card(detail.Post, userID, now),
		Comments: comments,
	}
}

func (h *CommunityHandler) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	h.logRequestError(r, err, "community api call failed")
	utils.WriteError(w, upstreamStatus(err), messageFor(err, fallback))
}

func (h *CommunityHandler) logRequestError(r *http.Request, err error, msg string) {
	h.logger.WithError(err).WithFields(logrus.Fields{
		"request_id": utils.GetRequestIDFromContext(r.Context()),
		"path":       r.URL.Path,
	}).Warn(msg)
}

// upstreamStatus keeps the community API's status, or reports 502 when the
// call never got an answer.
func upstreamStatus(err error) int {
	if status := StatusOf(err); status >= 400 {
		return status
	}
	return http.StatusBadGateway
}

func messageFor(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
