package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/videotube/backend/internal/aggregate"
	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/storage"
)

const (
	aliceID = "5b0e1f0a-4c53-4d6e-9a51-1f1f6a3c0001"
	bobID   = "5b0e1f0a-4c53-4d6e-9a51-1f1f6a3c0002"
	videoID = "5b0e1f0a-4c53-4d6e-9a51-1f1f6a3c00a1"
)

type accountStoreStub struct {
	*auth.InMemoryCredentialStore
	views   []string
	viewErr error
}

func (s *accountStoreStub) Create(ctx context.Context, account models.Account) error {
	if _, err := s.FindByLogin(ctx, account.UserName); err == nil {
		return repositories.ErrConflict
	}
	s.Put(account)
	return nil
}

func (s *accountStoreStub) RecordView(_ context.Context, accountID, videoID string) error {
	if s.viewErr != nil {
		return s.viewErr
	}
	s.views = append(s.views, accountID+":"+videoID)
	return nil
}

type mediaStub struct {
	saved []storage.ImageKind
}

func (m *mediaStub) SaveImage(_ context.Context, kind storage.ImageKind, contentType string, r io.Reader) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", storage.ErrUnsupportedMedia
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	m.saved = append(m.saved, kind)
	return "https://media.example.com/" + string(kind) + "/x.png", nil
}

type aggregatorStub struct {
	profile     models.ChannelProfile
	stats       models.ChannelStats
	comments    []models.CommentView
	subscribers []models.RelatedAccount
	err         error

	feed      models.VideoFeed
	videos    []models.VideoSummary
	tweets    []models.TweetView
	gotViewer string
	gotPage   aggregate.Page
	gotFilter aggregate.VideoFilter
	gotSort   aggregate.VideoSort
}

func (a *aggregatorStub) ChannelProfile(_ context.Context, _ string, viewerID string) (models.ChannelProfile, error) {
	a.gotViewer = viewerID
	return a.profile, a.err
}

func (a *aggregatorStub) ChannelStats(_ context.Context, ownerID string) (models.ChannelStats, error) {
	a.gotViewer = ownerID
	return a.stats, a.err
}

func (a *aggregatorStub) VideoComments(_ context.Context, _ string, page aggregate.Page) ([]models.CommentView, error) {
	a.gotPage = page
	return a.comments, a.err
}

func (a *aggregatorStub) LikedVideos(context.Context, string) ([]models.LikedVideo, error) {
	return []models.LikedVideo{}, a.err
}

func (a *aggregatorStub) WatchHistory(context.Context, string) ([]models.WatchHistoryEntry, error) {
	return []models.WatchHistoryEntry{}, a.err
}

func (a *aggregatorStub) Subscribers(context.Context, string) ([]models.RelatedAccount, error) {
	return a.subscribers, a.err
}

func (a *aggregatorStub) SubscribedChannels(context.Context, string) ([]models.RelatedAccount, error) {
	return a.subscribers, a.err
}

func (a *aggregatorStub) Videos(_ context.Context, filter aggregate.VideoFilter, sort aggregate.VideoSort, page aggregate.Page) (models.VideoFeed, error) {
	a.gotFilter, a.gotSort, a.gotPage = filter, sort, page
	return a.feed, a.err
}

func (a *aggregatorStub) ChannelVideos(_ context.Context, ownerID string) ([]models.VideoSummary, error) {
	a.gotViewer = ownerID
	return a.videos, a.err
}

func (a *aggregatorStub) UserTweets(_ context.Context, ownerID string) ([]models.TweetView, error) {
	a.gotViewer = ownerID
	return a.tweets, a.err
}

type subscriptionStub struct {
	pairs map[string]bool
}

func (s *subscriptionStub) Toggle(_ context.Context, subscriberID, channelID string) (bool, error) {
	key := subscriberID + ">" + channelID
	s.pairs[key] = !s.pairs[key]
	return s.pairs[key], nil
}

type likeStub struct {
	target models.LikeTarget
	err    error
}

func (l *likeStub) Toggle(_ context.Context, _ string, target models.LikeTarget, _ string) (bool, error) {
	l.target = target
	return true, l.err
}

type contentStub struct {
	videos   []models.Video
	comments []models.Comment
	tweets   []models.Tweet
	err      error
}

func (c *contentStub) createVideo(v models.Video) error     { c.videos = append(c.videos, v); return c.err }
func (c *contentStub) createComment(m models.Comment) error { c.comments = append(c.comments, m); return c.err }
func (c *contentStub) createTweet(t models.Tweet) error     { c.tweets = append(c.tweets, t); return c.err }

type videoStoreFunc func(models.Video) error

func (f videoStoreFunc) Create(_ context.Context, v models.Video) error { return f(v) }

type commentStoreFunc func(models.Comment) error

func (f commentStoreFunc) Create(_ context.Context, c models.Comment) error { return f(c) }

type tweetStoreFunc func(models.Tweet) error

func (f tweetStoreFunc) Create(_ context.Context, t models.Tweet) error { return f(t) }

type limiterStub struct{ allow bool }

func (l limiterStub) Allow(string) bool { return l.allow }

type testEnv struct {
	router        http.Handler
	accounts      *accountStoreStub
	manager       *auth.Manager
	media         *mediaStub
	views         *aggregatorStub
	subscriptions *subscriptionStub
	likes         *likeStub
	content       *contentStub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	accounts := &accountStoreStub{InMemoryCredentialStore: auth.NewInMemoryCredentialStore()}
	accounts.Put(models.Account{ID: aliceID, UserName: "alice", Email: "alice@example.com", FullName: "Alice", PasswordHash: hash})
	accounts.Put(models.Account{ID: bobID, UserName: "bob", Email: "bob@example.com", FullName: "Bob", PasswordHash: hash})

	env := &testEnv{
		accounts:      accounts,
		manager:       auth.NewManager(auth.NewSigner(auth.AccessAudience, "access", time.Minute), auth.NewSigner(auth.RefreshAudience, "refresh", time.Hour), accounts),
		media:         &mediaStub{},
		views:         &aggregatorStub{},
		subscriptions: &subscriptionStub{pairs: make(map[string]bool)},
		likes:         &likeStub{},
		content:       &contentStub{},
	}

	env.router = NewRouter(Dependencies{
		Accounts:      accounts,
		Sessions:      env.manager,
		Media:         env.media,
		Views:         env.views,
		Subscriptions: env.subscriptions,
		Likes:         env.likes,
		Videos:        videoStoreFunc(env.content.createVideo),
		Comments:      commentStoreFunc(env.content.createComment),
		Tweets:        tweetStoreFunc(env.content.createTweet),
		Limiter:       limiterStub{allow: true},
		Cookies:       config.CookieConfig{Secure: true},
	})
	return env
}

func (e *testEnv) accessToken(t *testing.T, accountID string) string {
	t.Helper()
	tokens, err := e.manager.Issue(context.Background(), accountID)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}
	return tokens.AccessToken
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) authed(t *testing.T, method, path string, body io.Reader) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+e.accessToken(t, aliceID))
	return req
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.StatusCode != rec.Code {
		t.Fatalf("envelope status %d does not match response status %d", env.StatusCode, rec.Code)
	}
	return env
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(body)
}

func TestLoginWrongPasswordThenSuccess(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
		jsonBody(t, loginRequest{UserName: "alice", Password: "wrong-password"})))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
	if env.accounts.RefreshTokenOf(aliceID) != "" {
		t.Fatal("failed login must not persist a refresh token")
	}

	rec = env.do(httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
		jsonBody(t, loginRequest{UserName: "alice", Password: "password123"})))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected two cookies, got %d", len(cookies))
	}
	byName := map[string]*http.Cookie{}
	for _, c := range cookies {
		if !c.HttpOnly || !c.Secure {
			t.Fatalf("cookie %s must be HttpOnly and Secure", c.Name)
		}
		byName[c.Name] = c
	}

	payload := decodeEnvelope(t, rec)
	var body sessionResponse
	if err := json.Unmarshal(payload.Data, &body); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if body.AccessToken == "" || body.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", body.SessionTokens)
	}
	if byName[middleware.AccessCookie].Value != body.AccessToken || byName[refreshCookie].Value != body.RefreshToken {
		t.Fatal("cookies must carry the issued tokens")
	}
	if body.User == nil || body.User.ID != aliceID {
		t.Fatalf("expected public profile of alice, got %+v", body.User)
	}
	if strings.Contains(rec.Body.String(), "passwordHash") || strings.Contains(string(payload.Data), "$2a$") {
		t.Fatal("response leaked the password verifier")
	}
	if env.accounts.RefreshTokenOf(aliceID) != body.RefreshToken {
		t.Fatal("expected refresh token to be stored")
	}
}

func TestLoginUnknownAccount(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
		jsonBody(t, loginRequest{Email: "nobody@example.com", Password: "password123"})))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
	if got := decodeEnvelope(t, rec); got.Success || len(got.Data) != 0 {
		t.Fatalf("error envelope must not carry data: %+v", got)
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.router = NewRouter(Dependencies{Sessions: env.manager, Limiter: limiterStub{allow: false}})

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
		jsonBody(t, loginRequest{UserName: "alice", Password: "password123"})))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d got %d", http.StatusTooManyRequests, rec.Code)
	}
}

func TestRefreshPrefersCookieAndRejectsReuse(t *testing.T) {
	env := newTestEnv(t)
	issued, err := env.manager.Issue(context.Background(), aliceID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", jsonBody(t, refreshRequest{RefreshToken: "ignored"}))
	req.AddCookie(&http.Cookie{Name: refreshCookie, Value: issued.RefreshToken})
	rec := env.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if len(rec.Result().Cookies()) != 2 {
		t.Fatal("expected rotated cookies")
	}

	rec = env.do(httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", jsonBody(t, refreshRequest{RefreshToken: issued.RefreshToken})))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected reused token to be rejected with %d got %d", http.StatusUnauthorized, rec.Code)
	}

	rec = env.do(httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected missing token to be rejected with %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestLogoutRevokesAndClearsCookies(t *testing.T) {
	env := newTestEnv(t)
	issued, err := env.manager.Issue(context.Background(), aliceID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessCookie, Value: issued.AccessToken})
	rec := env.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 || c.Value != "" {
			t.Fatalf("expected cookie %s to be cleared, got %+v", c.Name, c)
		}
	}

	refresh := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	refresh.AddCookie(&http.Cookie{Name: refreshCookie, Value: issued.RefreshToken})
	if rec := env.do(refresh); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to be rejected, got %d", rec.Code)
	}
}

func TestSecuredRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/v1/users/me", "/api/v1/dashboard/stats", "/api/v1/likes/videos"} {
		rec := env.do(httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected status %d got %d", path, http.StatusUnauthorized, rec.Code)
		}
	}

	rec := env.do(env.authed(t, http.MethodGet, "/api/v1/users/me", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	var me models.PublicAccount
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.UserName != "alice" {
		t.Fatalf("unexpected account %+v", me)
	}
}

func multipartRegistration(t *testing.T, fields map[string]string, withAvatar bool) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if withAvatar {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="avatar"; filename="me.png"`)
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		_, _ = part.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	fields := map[string]string{"userName": "Carol", "email": "carol@example.com", "fullName": "Carol C", "password": "supersafe"}

	rec := env.do(multipartRegistration(t, fields, false))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected missing avatar to be rejected, got %d", rec.Code)
	}

	rec = env.do(multipartRegistration(t, fields, true))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	var created models.PublicAccount
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &created); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	if created.UserName != "carol" || created.Avatar == "" {
		t.Fatalf("unexpected account %+v", created)
	}
	if len(env.media.saved) != 1 || env.media.saved[0] != storage.KindAvatar {
		t.Fatalf("expected one avatar upload, got %v", env.media.saved)
	}

	if _, _, err := env.manager.Authenticate(context.Background(), "carol", "supersafe"); err != nil {
		t.Fatalf("registered password should authenticate: %v", err)
	}

	rec = env.do(multipartRegistration(t, fields, true))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected duplicate to conflict, got %d", rec.Code)
	}

	fields["userName"] = "dave"
	fields["email"] = "dave@example.com"
	for _, password := range []string{"short", strings.Repeat("p", 80)} {
		fields["password"] = password
		uploads := len(env.media.saved)
		if rec := env.do(multipartRegistration(t, fields, true)); rec.Code != http.StatusBadRequest {
			t.Fatalf("expected %d byte password to be rejected, got %d", len(password), rec.Code)
		}
		if len(env.media.saved) != uploads {
			t.Fatalf("rejected registration must not upload media, got %v", env.media.saved)
		}
	}
}

func TestSubscriptionToggle(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/v1/subscriptions/c/" + bobID

	rec := env.do(env.authed(t, http.MethodPost, path, nil))
	if rec.Code != http.StatusOK || decodeEnvelope(t, rec).Message != "subscribed successfully" {
		t.Fatalf("expected subscribe, got %d", rec.Code)
	}
	rec = env.do(env.authed(t, http.MethodPost, path, nil))
	if rec.Code != http.StatusOK || decodeEnvelope(t, rec).Message != "unsubscribed successfully" {
		t.Fatalf("expected unsubscribe, got %d", rec.Code)
	}

	if rec := env.do(env.authed(t, http.MethodPost, "/api/v1/subscriptions/c/"+aliceID, nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected self subscription to be rejected, got %d", rec.Code)
	}
	if rec := env.do(env.authed(t, http.MethodPost, "/api/v1/subscriptions/c/not-an-id", nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected malformed id to be rejected, got %d", rec.Code)
	}
}

func TestSubscribersListing(t *testing.T) {
	env := newTestEnv(t)
	env.views.subscribers = []models.RelatedAccount{{
		SubscriptionID: "sub-1",
		Account:        models.PublicAccount{ID: aliceID, UserName: "alice"},
	}}

	rec := env.do(env.authed(t, http.MethodGet, "/api/v1/subscriptions/c/"+bobID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	var listed []models.RelatedAccount
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &listed); err != nil {
		t.Fatalf("decode subscribers: %v", err)
	}
	if len(listed) != 1 || listed[0].Account.ID != aliceID {
		t.Fatalf("unexpected subscribers %+v", listed)
	}
}

func TestChannelProfilePassesViewer(t *testing.T) {
	env := newTestEnv(t)
	env.views.profile = models.ChannelProfile{UserName: "bob", IsSubscribed: true}

	rec := env.do(env.authed(t, http.MethodGet, "/api/v1/users/c/bob", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if env.views.gotViewer != aliceID {
		t.Fatalf("expected viewer %s, got %s", aliceID, env.views.gotViewer)
	}

	env.views.err = aggregate.ErrNotFound
	if rec := env.do(env.authed(t, http.MethodGet, "/api/v1/users/c/ghost", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestCommentsPagination(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/v1/comments/" + videoID

	if rec := env.do(env.authed(t, http.MethodGet, path+"?page=0", nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected invalid page to be rejected, got %d", rec.Code)
	}
	if rec := env.do(env.authed(t, http.MethodGet, path+"?limit=abc", nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected invalid limit to be rejected, got %d", rec.Code)
	}

	rec := env.do(env.authed(t, http.MethodGet, path+"?page=2&limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if env.views.gotPage != (aggregate.Page{Number: 2, Limit: 5}) {
		t.Fatalf("unexpected page %+v", env.views.gotPage)
	}

	env.views.err = aggregate.ErrNotFound
	if rec := env.do(env.authed(t, http.MethodGet, path, nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected empty first page to be %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestContentCreation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(env.authed(t, http.MethodPost, "/api/v1/comments/"+videoID, jsonBody(t, contentRequest{Content: "  nice  "})))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d", http.StatusCreated, rec.Code)
	}
	if len(env.content.comments) != 1 || env.content.comments[0].Content != "nice" || env.content.comments[0].OwnerID != aliceID {
		t.Fatalf("unexpected comments %+v", env.content.comments)
	}

	if rec := env.do(env.authed(t, http.MethodPost, "/api/v1/tweets", jsonBody(t, contentRequest{}))); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected empty tweet to be rejected, got %d", rec.Code)
	}

	rec = env.do(env.authed(t, http.MethodPost, "/api/v1/videos", jsonBody(t, createVideoRequest{
		Title: "Intro", VideoFile: "https://media.example.com/v.mp4", Thumbnail: "https://media.example.com/v.jpg", Duration: 12,
	})))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d", http.StatusCreated, rec.Code)
	}
	if len(env.content.videos) != 1 || !env.content.videos[0].IsPublished {
		t.Fatalf("unexpected videos %+v", env.content.videos)
	}

	env.content.err = repositories.ErrNotFound
	if rec := env.do(env.authed(t, http.MethodPost, "/api/v1/comments/"+videoID, jsonBody(t, contentRequest{Content: "lost"}))); rec.Code != http.StatusNotFound {
		t.Fatalf("expected unknown video to be %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestLikeToggleRoutesTarget(t *testing.T) {
	env := newTestEnv(t)

	for prefix, target := range map[string]models.LikeTarget{
		"v": models.LikeTargetVideo,
		"c": models.LikeTargetComment,
		"t": models.LikeTargetTweet,
	} {
		rec := env.do(env.authed(t, http.MethodPost, "/api/v1/likes/toggle/"+prefix+"/"+videoID, nil))
		if rec.Code != http.StatusOK || env.likes.target != target {
			t.Fatalf("%s: expected %s toggle, got %d %s", prefix, target, rec.Code, env.likes.target)
		}
	}

	env.likes.err = errors.New("db down")
	if rec := env.do(env.authed(t, http.MethodPost, "/api/v1/likes/toggle/v/"+videoID, nil)); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d got %d", http.StatusInternalServerError, rec.Code)
	}
}

func TestRecordView(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(env.authed(t, http.MethodPost, "/api/v1/users/history/"+videoID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if len(env.accounts.views) != 1 || env.accounts.views[0] != aliceID+":"+videoID {
		t.Fatalf("unexpected views %v", env.accounts.views)
	}

	env.accounts.viewErr = repositories.ErrNotFound
	if rec := env.do(env.authed(t, http.MethodPost, "/api/v1/users/history/"+videoID, nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

type pingerStub struct{ err error }

func (p pingerStub) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	router := NewRouter(Dependencies{Database: pingerStub{}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected json content type got %s", got)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected method not allowed got %d", rec.Code)
	}

	router = NewRouter(Dependencies{Database: pingerStub{err: errors.New("down")}})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected service unavailable got %d", rec.Code)
	}
}

func TestRefreshForDeletedAccountIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)

	orphan, _, err := auth.NewSigner(auth.RefreshAudience, "refresh", time.Hour).
		Sign(auth.Claims{AccountID: "5b0e1f0a-4c53-4d6e-9a51-1f1f6a3c0999"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", jsonBody(t, refreshRequest{RefreshToken: orphan})))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("failed refresh must not set cookies")
	}
}

func TestVideoFeedQueryParameters(t *testing.T) {
	env := newTestEnv(t)
	env.views.feed = models.VideoFeed{Videos: []models.FeedVideo{{VideoSummary: models.VideoSummary{ID: videoID, Title: "Intro"}}}, Page: 2, Limit: 5}

	rec := env.do(env.authed(t, http.MethodGet, "/api/v1/videos?page=2&limit=5&query=intro&sortBy=views&sortType=asc&userId="+bobID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if env.views.gotFilter != (aggregate.VideoFilter{Query: "intro", OwnerID: bobID}) {
		t.Fatalf("unexpected filter %+v", env.views.gotFilter)
	}
	if env.views.gotSort != (aggregate.VideoSort{Field: "views"}) {
		t.Fatalf("unexpected sort %+v", env.views.gotSort)
	}
	if env.views.gotPage != (aggregate.Page{Number: 2, Limit: 5}) {
		t.Fatalf("unexpected page %+v", env.views.gotPage)
	}

	var feed models.VideoFeed
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &feed); err != nil {
		t.Fatalf("decode feed: %v", err)
	}
	if len(feed.Videos) != 1 || feed.Videos[0].Title != "Intro" {
		t.Fatalf("unexpected feed %+v", feed)
	}

	for _, query := range []string{"sortBy=password_hash", "sortType=up", "limit=1000", "page=9223372036854775807"} {
		if rec := env.do(env.authed(t, http.MethodGet, "/api/v1/videos?"+query, nil)); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d got %d", query, http.StatusBadRequest, rec.Code)
		}
	}
}

func TestChannelVideosUsesSessionAccount(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(env.authed(t, http.MethodGet, "/api/v1/dashboard/videos", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if env.views.gotViewer != aliceID {
		t.Fatalf("expected owner %s, got %s", aliceID, env.views.gotViewer)
	}

	if rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/videos", nil)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestUserTweets(t *testing.T) {
	env := newTestEnv(t)
	env.views.tweets = []models.TweetView{{ID: "t1", Content: "hello", Owner: models.OwnerSummary{ID: bobID, UserName: "bob"}}}

	rec := env.do(env.authed(t, http.MethodGet, "/api/v1/tweets/u/"+bobID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	var tweets []models.TweetView
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &tweets); err != nil {
		t.Fatalf("decode tweets: %v", err)
	}
	if len(tweets) != 1 || tweets[0].Owner.UserName != "bob" || env.views.gotViewer != bobID {
		t.Fatalf("unexpected tweets %+v", tweets)
	}

	if rec := env.do(env.authed(t, http.MethodGet, "/api/v1/tweets/u/not-an-id", nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}
