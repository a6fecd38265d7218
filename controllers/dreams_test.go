package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"yuu/config"
	"yuu/controllers"
	"yuu/db"
	"yuu/models"
	"yuu/pipeline"
	"yuu/router"
	"yuu/tools"
	"yuu/workers"

	"github.com/gin-gonic/gin"
)

type nopRunner struct{}

func (nopRunner) Run(ctx context.Context, id string) error   { return nil }
func (nopRunner) Rerun(ctx context.Context, id string) error { return nil }

type testAPI struct {
	engine *gin.Engine
	store  *db.DreamStore
}

// newTestAPI monta a API com sqlite em memória; o pool não é iniciado,
// então os jobs só ocupam a fila (tamanho 1).
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { gdb.Close() })

	for _, u := range []models.User{
		{Email: "ana@example.com", Password: tools.HashPassword("ana@example.com", "secret123")},
		{Email: "bia@example.com", Password: tools.HashPassword("bia@example.com", "secret123")},
		{Email: "admin@example.com", Password: tools.HashPassword("admin@example.com", "secret123"), Admin: true},
	} {
		if err := gdb.Create(&u).Error; err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	var conf config.Configuration
	conf.Security.JwtSecret = "test-secret"
	conf.UploadFolder = t.TempDir()
	controllers.Configure(conf)

	store := db.NewDreamStore(gdb)
	pool := workers.NewAnalysisPool(nopRunner{}, pipeline.NewResolver(nil, nil), 1, 1, 0)

	r := gin.New()
	router.Initialize(r, conf, router.Deps{DB: gdb, Dreams: store, Pool: pool})
	return &testAPI{engine: r, store: store}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *testAPI) login(t *testing.T, email string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": email, "password": "secret123"})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", email, w.Code, w.Body.String())
	}
	var resp controllers.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp.Token
}

func (a *testAPI) createDream(t *testing.T, token string, in controllers.DreamInput) models.Dream {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/dreams", token, in)
	if w.Code != http.StatusCreated {
		t.Fatalf("create dream: %d %s", w.Code, w.Body.String())
	}
	var d models.Dream
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode dream: %v", err)
	}
	return d
}

func TestAnalyzeDreamAccepted(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "ana@example.com")
	d := api.createDream(t, token, controllers.DreamInput{TextContent: "I was flying over mountains"})

	if d.Status != models.DREAM_STATUS_CREATED || d.Analysis != nil {
		t.Fatalf("unexpected new dream %+v", d)
	}

	w := api.do(t, http.MethodPost, "/api/dreams/"+d.ID+"/analyze", token, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d %s", w.Code, w.Body.String())
	}
	var resp controllers.AcceptedResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "accepted" || resp.DreamID != d.ID {
		t.Fatalf("unexpected response %+v", resp)
	}

	// fila de tamanho 1 cheia: o próximo trigger é recusado
	w = api.do(t, http.MethodPost, "/api/dreams/"+d.ID+"/analyze", token, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d %s", w.Code, w.Body.String())
	}
}

func TestAnalyzeDreamPreconditions(t *testing.T) {
	api := newTestAPI(t)
	ana := api.login(t, "ana@example.com")
	bia := api.login(t, "bia@example.com")

	local := api.createDream(t, ana, controllers.DreamInput{AudioURL: "uploads/dream.m4a"})
	w := api.do(t, http.MethodPost, "/api/dreams/"+local.ID+"/analyze", ana, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for local audio, got %d", w.Code)
	}

	text := api.createDream(t, ana, controllers.DreamInput{TextContent: "a dark corridor"})
	if w := api.do(t, http.MethodPost, "/api/dreams/"+text.ID+"/analyze", bia, nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another user, got %d", w.Code)
	}
	if w := api.do(t, http.MethodPost, "/api/dreams/3f2b6f0e-8a51-4c1e-9d0e-1f6a2b3c4d5e/analyze", ana, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown dream, got %d", w.Code)
	}
	if w := api.do(t, http.MethodPost, "/api/dreams/not-a-uuid/analyze", ana, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed id, got %d", w.Code)
	}

	loaded, err := api.store.Load(context.Background(), text.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := api.store.Claim(context.Background(), loaded, false); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if w := api.do(t, http.MethodPost, "/api/dreams/"+text.ID+"/analyze", ana, nil); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 while processing, got %d", w.Code)
	}
}

func TestAnalyzeRequiresToken(t *testing.T) {
	api := newTestAPI(t)
	if w := api.do(t, http.MethodPost, "/api/dreams/3f2b6f0e-8a51-4c1e-9d0e-1f6a2b3c4d5e/analyze", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if w := api.do(t, http.MethodGet, "/api/me", "garbage.token.value", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", w.Code)
	}
}

func TestCreateDreamValidation(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "ana@example.com")

	if w := api.do(t, http.MethodPost, "/api/dreams", token, controllers.DreamInput{}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty dream, got %d", w.Code)
	}
	long := controllers.DreamInput{TextContent: strings.Repeat("a", models.DREAM_TEXT_MAX_LEN+1)}
	if w := api.do(t, http.MethodPost, "/api/dreams", token, long); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for long text, got %d", w.Code)
	}
}

func TestCreateDreamMultipartAudio(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "ana@example.com")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("payload", `{"language":"pt","share_policy":{"allow_research":true}}`)
	fw, err := mw.CreateFormFile("audio", "night.M4A")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write([]byte("fake audio"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/dreams", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", w.Code, w.Body.String())
	}
	var d models.Dream
	_ = json.Unmarshal(w.Body.Bytes(), &d)
	if filepath.Ext(d.AudioURL) != ".m4a" || d.Language != "pt" || !d.SharePolicy.AllowResearch {
		t.Fatalf("unexpected dream %+v", d)
	}

	// áudio local não é transcrito
	if w := api.do(t, http.MethodPost, "/api/dreams/"+d.ID+"/analyze", token, nil); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestGetAndListDreams(t *testing.T) {
	api := newTestAPI(t)
	ana := api.login(t, "ana@example.com")
	bia := api.login(t, "bia@example.com")

	d := api.createDream(t, ana, controllers.DreamInput{TextContent: "first"})
	api.createDream(t, ana, controllers.DreamInput{TextContent: "second"})
	api.createDream(t, bia, controllers.DreamInput{TextContent: "other"})

	if w := api.do(t, http.MethodGet, "/api/dreams/"+d.ID, ana, nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := api.do(t, http.MethodGet, "/api/dreams/"+d.ID, bia, nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	w := api.do(t, http.MethodGet, "/api/dreams/me?limit=10", ana, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list []models.Dream
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 2 {
		t.Fatalf("expected 2 dreams, got %d", len(list))
	}
	if w := api.do(t, http.MethodGet, "/api/dreams/me?limit=abc", ana, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", w.Code)
	}
}

func TestAdminReanalyze(t *testing.T) {
	api := newTestAPI(t)
	ana := api.login(t, "ana@example.com")
	admin := api.login(t, "admin@example.com")

	d := api.createDream(t, ana, controllers.DreamInput{TextContent: "stuck"})
	loaded, _ := api.store.Load(context.Background(), d.ID)
	if err := api.store.Claim(context.Background(), loaded, false); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}

	if w := api.do(t, http.MethodGet, "/api/admin/dreams?status=processing", ana, nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non admin, got %d", w.Code)
	}

	w := api.do(t, http.MethodGet, "/api/admin/dreams?status=processing", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list []models.Dream
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 1 || list[0].ID != d.ID {
		t.Fatalf("unexpected list %+v", list)
	}

	if w := api.do(t, http.MethodPost, "/api/admin/dreams/"+d.ID+"/reanalyze", admin, nil); w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d %s", w.Code, w.Body.String())
	}
	if w := api.do(t, http.MethodGet, "/api/admin/dreams?status=lost", admin, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", w.Code)
	}
}

func TestCreateUserAndMe(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/users", "", map[string]string{"email": "caio@example.com", "password": "123"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", w.Code)
	}
	w = api.do(t, http.MethodPost, "/api/users", "", map[string]string{"email": "caio@example.com", "password": "secret123"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "secret123") {
		t.Fatalf("password leaked in response")
	}

	token := api.login(t, "caio@example.com")
	w = api.do(t, http.MethodGet, "/api/me", token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "caio@example.com") {
		t.Fatalf("unexpected /me response %d %s", w.Code, w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health response %d %s", w.Code, w.Body.String())
	}
}
