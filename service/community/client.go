package community

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/pettopia/pettopia-server/cmd/models"
	"github.com/pettopia/pettopia-server/cmd/utils"
)

// Session carries the caller's credentials for one request. It is built per
// incoming request and handed to every client call; the Client keeps none.
type Session struct {
	Token     string
	UserID    string
	RequestID string
}

// SessionFromRequest builds the session for an incoming BFF request.
func SessionFromRequest(r *http.Request) Session {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	return Session{
		Token:     utils.GetTokenFromContext(r.Context()),
		UserID:    userID,
		RequestID: utils.GetRequestIDFromContext(r.Context()),
	}
}

// APIError is a non-2xx answer from the community API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// StatusOf returns the upstream status behind err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// API is the community API as the rest of the service uses it.
type API interface {
	AllPosts(ctx context.Context, sess Session) ([]models.Post, error)
	TrendingPosts(ctx context.Context, sess Session, limit int) ([]models.Post, error)
	PostDetail(ctx context.Context, sess Session, id string) (*models.PostDetail, error)
	CreatePost(ctx context.Context, sess Session, in NewPost) (json.RawMessage, error)
	LikePost(ctx context.Context, sess Session, id string) error
	UnlikePost(ctx context.Context, sess Session, id string) error
	CreateComment(ctx context.Context, sess Session, postID, userID, content string) (*models.Comment, error)
}

// ImageUpload is one file of a new post.
type ImageUpload struct {
	Filename string
	Body     io.Reader
}

type NewPost struct {
	UserID  string
	Title   string
	Content string
	Tags    []string
	Images  []ImageUpload
}

// Client talks to the community endpoints under baseURL + "/communication".
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(apiBaseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: apiBaseURL + "/communication",
		http:    httpClient,
	}
}

func (c *Client) AllPosts(ctx context.Context, sess Session) ([]models.Post, error) {
	var posts []models.Post
	if err := c.do(ctx, sess, http.MethodGet, "/all", nil, "", &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) TrendingPosts(ctx context.Context, sess Session, limit int) ([]models.Post, error) {
	var posts []models.Post
	path := "/trending?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, sess, http.MethodGet, path, nil, "", &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) PostDetail(ctx context.Context, sess Session, id string) (*models.PostDetail, error) {
	var detail models.PostDetail
	if err := c.do(ctx, sess, http.MethodGet, "/post/"+url.PathEscape(id), nil, "", &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) LikePost(ctx context.Context, sess Session, id string) error {
	return c.do(ctx, sess, http.MethodPost, "/post/"+url.PathEscape(id)+"/like", nil, "", nil)
}

func (c *Client) UnlikePost(ctx context.Context, sess Session, id string) error {
	return c.do(ctx, sess, http.MethodPost, "/post/"+url.PathEscape(id)+"/unlike", nil, "", nil)
}

func (c *Client) CreateComment(ctx context.Context, sess Session, postID, userID, content string) (*models.Comment, error) {
	body, err := json.Marshal(map[string]string{"user_id": userID, "content": content})
	if err != nil {
		return nil, err
	}
	var comment models.Comment
	path := "/post/" + url.PathEscape(postID) + "/comment"
	if err := c.do(ctx, sess, http.MethodPost, path, bytes.NewReader(body), "application/json", &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// CreatePost submits the multipart form the community API expects and
// returns its answer as-is.
func (c *Client) CreatePost(ctx context.Context, sess Session, in NewPost) (json.RawMessage, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	fields := [][2]string{{"title", in.Title}, {"content", in.Content}}
	for _, tag := range in.Tags {
		fields = append(fields, [2]string{"tags[]", tag})
	}
	if in.UserID != "" {
		fields = append(fields, [2]string{"user_id", in.UserID})
	}
	for _, f := range fields {
		if err := form.WriteField(f[0], f[1]); err != nil {
			return nil, err
		}
	}
	for _, img := range in.Images {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, img.Filename))
		h.Set("Content-Type", utils.ImageContentType(img.Filename))
		part, err := form.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, img.Body); err != nil {
			return nil, fmt.Errorf("reading image %s: %w", img.Filename, err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	var created json.RawMessage
	if err := c.do(ctx, sess, http.MethodPost, "/post", &buf, form.FormDataContentType(), &created); err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Client) do(ctx context.Context, sess Session, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}
	if sess.RequestID != "" {
		req.Header.Set(utils.RequestIDHeader, sess.RequestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}

func errorFromResponse(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: "HTTP " + strconv.Itoa(resp.StatusCode)}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err == nil && body.Message != "" {
		apiErr.Message = body.Message
	}
	return apiErr
}
