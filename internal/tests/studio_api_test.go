// internal/tests/studio_api_test.go
package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/merchstudio/photostudio-backend/internal/config"
	"github.com/merchstudio/photostudio-backend/internal/models"
	"github.com/merchstudio/photostudio-backend/internal/router"
	"github.com/merchstudio/photostudio-backend/internal/studio"
	"github.com/merchstudio/photostudio-backend/internal/utils"
)

// wireImage is a generated image as the fake image service reports it.
type wireImage struct {
	ID               string `json:"id"`
	ProductID        string `json:"productId,omitempty"`
	ImageURL         string `json:"imageUrl"`
	CreatedAt        int64  `json:"createdAt"`
	GenerationStatus string `json:"generationStatus,omitempty"`
	ImageStatus      string `json:"imageStatus,omitempty"`
	ParentTaskID     string `json:"parentTaskId,omitempty"`
	Comments         string `json:"comments,omitempty"`
	Feedback         string `json:"feedback,omitempty"`
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// StudioAPITestSuite drives the full HTTP surface against fake upstream
// services: an asset host serving real PNG bytes for the dimension probe, a
// generated-image service, and a catalog handling both reads and media
// writes.
type StudioAPITestSuite struct {
	suite.Suite

	router  *gin.Engine
	manager *studio.Manager
	token   string

	assetServer   *httptest.Server
	imageServer   *httptest.Server
	catalogServer *httptest.Server

	drafts   []wireImage
	versions []wireImage

	mu         sync.Mutex
	deletedIDs [][]string
	testNum    int
	clientAddr string
}

func (suite *StudioAPITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	// Asset host: any path returns a real 640x480 PNG so the dimension
	// probe has something to decode.
	var pngBuf bytes.Buffer
	require.NoError(suite.T(), png.Encode(&pngBuf, image.NewRGBA(image.Rect(0, 0, 640, 480))))
	pngBytes := pngBuf.Bytes()
	suite.assetServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	}))

	suite.drafts = []wireImage{
		{
			ID:               "img-b",
			ProductID:        "prod-1",
			ImageURL:         suite.assetServer.URL + "/img-b.png",
			CreatedAt:        3000,
			GenerationStatus: "completed",
			ImageStatus:      "pending_review",
		},
		{
			ID:               "img-a",
			ProductID:        "prod-1",
			ImageURL:         suite.assetServer.URL + "/img-a.png",
			CreatedAt:        2000,
			GenerationStatus: "completed",
			ImageStatus:      "approved",
			ParentTaskID:     "task-9",
		},
		{
			ID:               "img-fail",
			ProductID:        "prod-1",
			ImageURL:         suite.assetServer.URL + "/fail.png",
			CreatedAt:        1000,
			GenerationStatus: "completed",
			ImageStatus:      "approved",
		},
	}
	suite.versions = []wireImage{
		{ID: "img-v2", ImageURL: suite.assetServer.URL + "/v2.png", CreatedAt: 400, GenerationStatus: "completed", ImageStatus: "pending_review", ParentTaskID: "task-9"},
		{ID: "img-v1", ImageURL: suite.assetServer.URL + "/v1.png", CreatedAt: 300, GenerationStatus: "completed", ImageStatus: "approved", ParentTaskID: "task-9"},
	}

	suite.imageServer = httptest.NewServer(http.HandlerFunc(suite.handleImageService))
	suite.catalogServer = httptest.NewServer(http.HandlerFunc(suite.handleCatalog))

	cfg := &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{Port: "8080"},
		JWT:         config.JWTConfig{SecretKey: "studio-api-test-secret", TokenTTL: 1},
		Catalog:     config.CatalogConfig{BaseURL: suite.catalogServer.URL, Version: "v3", CacheTTL: 60},
		ImageService: config.ImageServiceConfig{
			BaseURL: suite.imageServer.URL,
			Retries: -1,
		},
		Studio: config.StudioConfig{SessionTTL: 30, MaxLiveImages: 10, ProbeMaxBytes: 1 << 20, UploadMaxSize: 10 << 20},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"*"}},
	}

	suite.router, suite.manager = router.Initialize(nil, cfg)

	token, err := utils.GenerateInstanceToken("inst-test", "site-1", "user-1", 1)
	require.NoError(suite.T(), err)
	suite.token = token
}

func (suite *StudioAPITestSuite) TearDownSuite() {
	suite.manager.Shutdown()
	suite.catalogServer.Close()
	suite.imageServer.Close()
	suite.assetServer.Close()
}

// SetupTest hands every test its own client address so the per-IP rate
// limiters never interfere across tests.
func (suite *StudioAPITestSuite) SetupTest() {
	suite.mu.Lock()
	suite.testNum++
	suite.clientAddr = fmt.Sprintf("10.7.%d.%d:52000", suite.testNum/200, suite.testNum%200+1)
	suite.mu.Unlock()
}

func (suite *StudioAPITestSuite) handleImageService(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if r.URL.Path == "/v1/images" {
		switch r.Method {
		case http.MethodGet:
			images := suite.drafts
			if parent := r.URL.Query().Get("parentTaskId"); parent != "" {
				images = nil
				for _, v := range suite.versions {
					if v.ParentTaskID == parent {
						images = append(images, v)
					}
				}
			}
			writeJSON(w, map[string]interface{}{"images": images})
		case http.MethodDelete:
			var req struct {
				IDs []string `json:"ids"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			suite.mu.Lock()
			suite.deletedIDs = append(suite.deletedIDs, req.IDs)
			suite.mu.Unlock()
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/v1/images/") {
		id := strings.TrimPrefix(r.URL.Path, "/v1/images/")
		var req struct {
			Comments *string `json:"comments"`
			Feedback *string `json:"feedback"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		img := wireImage{ID: id, ImageURL: suite.assetServer.URL + "/" + id + ".png"}
		for _, d := range suite.drafts {
			if d.ID == id {
				img = d
				break
			}
		}
		if req.Comments != nil {
			img.Comments = *req.Comments
		}
		if req.Feedback != nil {
			img.Feedback = *req.Feedback
		}
		writeJSON(w, map[string]interface{}{"image": img})
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

func (suite *StudioAPITestSuite) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch {
	case r.URL.Path == "/v3/products/query" && r.Method == http.MethodPost:
		writeJSON(w, map[string]interface{}{
			"products": []map[string]interface{}{
				{
					"id": "prod-1",
					"media": map[string]interface{}{
						"itemsInfo": map[string]interface{}{
							"items": []map[string]interface{}{
								{
									"_id":       "m-1",
									"image":     map[string]string{"url": suite.assetServer.URL + "/m-1.png"},
									"thumbnail": map[string]string{"url": suite.assetServer.URL + "/m-1-thumb.png"},
								},
							},
						},
					},
				},
			},
			"pagingMetadata": map[string]interface{}{"hasNext": false},
		})

	case r.URL.Path == "/v1/products/prod-1/media" && r.Method == http.MethodPost:
		var req struct {
			MediaURL string `json:"mediaUrl"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if strings.Contains(req.MediaURL, "fail") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]interface{}{
			"media": map[string]string{"id": "m-2", "url": "https://cdn.example.com/final.png"},
		})

	case r.URL.Path == "/v1/products/prod-1/media/replace" && r.Method == http.MethodPost:
		writeJSON(w, map[string]interface{}{
			"media": map[string]string{"id": "m-1", "url": "https://cdn.example.com/replaced.png"},
		})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func (suite *StudioAPITestSuite) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(suite.T(), err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = suite.clientAddr
	req.Header.Set("Authorization", "Bearer "+suite.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *StudioAPITestSuite) parse(w *httptest.ResponseRecorder, out interface{}) apiEnvelope {
	var env apiEnvelope
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &env))
	if out != nil && len(env.Data) > 0 {
		require.NoError(suite.T(), json.Unmarshal(env.Data, out))
	}
	return env
}

func (suite *StudioAPITestSuite) openSession(productID string) string {
	body := map[string]string{}
	if productID != "" {
		body["product_id"] = productID
	}

	w := suite.do(http.MethodPost, "/v1/studio/sessions", body)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var snap studio.Snapshot
	suite.parse(w, &snap)
	require.NotEmpty(suite.T(), snap.SessionID)
	return snap.SessionID
}

func (suite *StudioAPITestSuite) fetchImages(sessionID string, body interface{}) studio.Snapshot {
	w := suite.do(http.MethodPost, "/v1/studio/sessions/"+sessionID+"/images/fetch", body)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var snap studio.Snapshot
	suite.parse(w, &snap)
	return snap
}

func (suite *StudioAPITestSuite) sessionSnapshot(sessionID string) (studio.Snapshot, int) {
	w := suite.do(http.MethodGet, "/v1/studio/sessions/"+sessionID, nil)
	if w.Code != http.StatusOK {
		return studio.Snapshot{}, w.Code
	}
	var snap studio.Snapshot
	suite.parse(w, &snap)
	return snap, w.Code
}

func findPreview(images []models.ImagePreview, id string) *models.ImagePreview {
	for i := range images {
		if images[i].ID == id {
			return &images[i]
		}
	}
	return nil
}

func (suite *StudioAPITestSuite) TestHealthCheck() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = suite.clientAddr
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "healthy")
}

func (suite *StudioAPITestSuite) TestRejectsMissingOrBadToken() {
	req := httptest.NewRequest(http.MethodPost, "/v1/studio/sessions", nil)
	req.RemoteAddr = suite.clientAddr
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/studio/sessions", nil)
	req.RemoteAddr = suite.clientAddr
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	var env apiEnvelope
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(suite.T(), env.Error)
	assert.Equal(suite.T(), "UNAUTHORIZED", env.Error.Code)
}

func (suite *StudioAPITestSuite) TestFullEditingFlow() {
	sessionID := suite.openSession("prod-1")

	// Fetch merges the product gallery with its drafts: gallery first by
	// position, then drafts newest first.
	snap := suite.fetchImages(sessionID, nil)
	require.Len(suite.T(), snap.Images, 4)
	assert.Equal(suite.T(), "m-1", snap.Images[0].ID)
	assert.True(suite.T(), snap.Images[0].IsLiveImage)
	assert.Equal(suite.T(), "img-b", snap.Images[1].ID)
	assert.Equal(suite.T(), "img-a", snap.Images[2].ID)
	assert.Equal(suite.T(), "img-fail", snap.Images[3].ID)
	assert.Equal(suite.T(), models.ImageStateConfirm, snap.Images[1].ImageState)
	assert.Equal(suite.T(), models.ImageStateSelected, snap.Images[2].ImageState)

	// Selecting probes the real PNG for its pixel size.
	w := suite.do(http.MethodPost, "/v1/studio/sessions/"+sessionID+"/images/img-a/select", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var selected struct {
		Layer   *models.Layer `json:"layer"`
		CanUndo bool          `json:"can_undo"`
		CanRedo bool          `json:"can_redo"`
	}
	suite.parse(w, &selected)
	require.NotNil(suite.T(), selected.Layer)
	assert.Equal(suite.T(), "img-a", selected.Layer.ID)
	assert.Equal(suite.T(), 640, selected.Layer.Width)
	assert.Equal(suite.T(), 480, selected.Layer.Height)
	assert.Equal(suite.T(), models.ImageStateEdit, selected.Layer.ImageState)
	assert.False(suite.T(), selected.CanUndo)

	// Publish answers immediately with an optimistic placeholder.
	w = suite.do(http.MethodPost, "/v1/studio/sessions/"+sessionID+"/images/img-a/publish", nil)
	require.Equal(suite.T(), http.StatusAccepted, w.Code, w.Body.String())

	var published struct {
		Image models.ImagePreview `json:"image"`
	}
	suite.parse(w, &published)
	assert.True(suite.T(), strings.HasPrefix(published.Image.ID, "live_"))
	assert.Equal(suite.T(), models.ImageStatePublishing, published.Image.ImageState)
	assert.True(suite.T(), published.Image.IsLiveImage)
	assert.Equal(suite.T(), 1, published.Image.Order)

	// The placeholder resolves once the catalog write lands.
	require.Eventually(suite.T(), func() bool {
		snap, code := suite.sessionSnapshot(sessionID)
		if code != http.StatusOK {
			return false
		}
		resolved := findPreview(snap.Images, published.Image.ID)
		return resolved != nil &&
			resolved.ImageState == models.ImageStateNone &&
			resolved.ImageURL == "https://cdn.example.com/final.png"
	}, 5*time.Second, 50*time.Millisecond)

	w = suite.do(http.MethodGet, "/v1/studio/sessions/"+sessionID+"/notifications", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	var drained struct {
		Notifications []studio.Notification `json:"notifications"`
	}
	suite.parse(w, &drained)
	require.NotEmpty(suite.T(), drained.Notifications)
	last := drained.Notifications[len(drained.Notifications)-1]
	assert.Equal(suite.T(), studio.NotificationSuccess, last.Level)

	w = suite.do(http.MethodDelete, "/v1/studio/sessions/"+sessionID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	_, code := suite.sessionSnapshot(sessionID)
	assert.Equal(suite.T(), http.StatusNotFound, code)
}

func (suite *StudioAPITestSuite) TestPublishFailureRollsBack() {
	sessionID := suite.openSession("prod-1")
	suite.fetchImages(sessionID, nil)

	w := suite.do(http.MethodPost, "/v1/studio/sessions/"+sessionID+"/images/img-fail/publish", nil)
	require.Equal(suite.T(), http.StatusAccepted, w.Code, w.Body.String())

	var published struct {
		Image models.ImagePreview `json:"image"`
	}
	suite.parse(w, &published)

	require.Eventually(suite.T(), func() bool {
		snap, code := suite.sessionSnapshot(sessionID)
		if code != http.StatusOK {
			return false
		}
		return findPreview(snap.Images, published.Image.ID) == nil && snap.Errors["api"] != ""
	}, 5*time.Second, 50*time.Millisecond)

	w = suite.do(http.MethodGet, "/v1/studio/sessions/"+sessionID+"/notifications", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	var drained struct {
		Notifications []studio.Notification `json:"notifications"`
	}
	suite.parse(w, &drained)
	require.NotEmpty(suite.T(), drained.Notifications)
	assert.Equal(suite.T(), studio.NotificationError, drained.Notifications[len(drained.Notifications)-1].Level)
}

func (suite *StudioAPITestSuite) TestPublishRequiresProduct() {
	sessionID := suite.openSession("")

	snap := suite.fetchImages(sessionID, map[string]string{"scope": "all"})
	require.Len(suite.T(), snap.Images, 3)
	assert.Nil(suite.T(), findPreview(snap.Images, "m-1"))

	w := suite.do(http.MethodPost, "/v1/studio/sessions/"+sessionID+"/images/img-a/publish", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code, w.Body.String())
}

func (suite *StudioAPITestSuite) TestUndoRedoAcrossSelections() {
	sessionID := suite.openSession("prod-1")
	suite.fetchImages(sessionID, nil)

	w := suite.do(http.MethodPost, "/v1/studio/sessions/"+sessionID+"/images/img-a/select", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	w = suite.do(http.MethodPost, "/v1/studio/sessions/"+sessionID+"/images/img-b/select", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var state struct {
		Layer   *models.Layer `json:"layer"`
		CanUndo bool          `json:"can_undo"`
		CanRedo bool          `json:"can_redo"`
	}

	w = suite.do(http.MethodPost, "/v1/studio/sessions/"+sessionID+"/history/undo", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	suite.parse(w, &state)
	require.NotNil(suite.T(), state.Layer)
	assert.Equal(suite.T(), "img-a", state.Layer.ID)
	assert.True(suite.T(), state.CanRedo)

	w = suite.do(http.MethodPost, "/v1/studio/sessions/"+sessionID+"/history/redo", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	suite.parse(w, &state)
	require.NotNil(suite.T(), state.Layer)
	assert.Equal(suite.T(), "img-b", state.Layer.ID)
	assert.False(suite.T(), state.CanRedo)

	// Redo at the top of the stack is a no-op.
	w = suite.do(http.MethodPost, "/v1/studio/sessions/"+sessionID+"/history/redo", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	suite.parse(w, &state)
	require.NotNil(suite.T(), state.Layer)
	assert.Equal(suite.T(), "img-b", state.Layer.ID)
}

func (suite *StudioAPITestSuite) TestDeleteImage() {
	sessionID := suite.openSession("prod-1")
	suite.fetchImages(sessionID, nil)

	w := suite.do(http.MethodDelete, "/v1/studio/sessions/"+sessionID+"/images/img-b", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	snap, code := suite.sessionSnapshot(sessionID)
	require.Equal(suite.T(), http.StatusOK, code)
	assert.Nil(suite.T(), findPreview(snap.Images, "img-b"))

	suite.mu.Lock()
	deleted := suite.deletedIDs
	suite.mu.Unlock()
	require.NotEmpty(suite.T(), deleted)
	assert.Equal(suite.T(), []string{"img-b"}, deleted[len(deleted)-1])
}

func (suite *StudioAPITestSuite) TestUpdateImageMeta() {
	sessionID := suite.openSession("prod-1")
	suite.fetchImages(sessionID, nil)

	w := suite.do(http.MethodPatch, "/v1/studio/sessions/"+sessionID+"/images/img-a",
		map[string]string{"comments": "solid", "feedback": "brighter next time"})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var updated struct {
		Image models.ImagePreview `json:"image"`
	}
	suite.parse(w, &updated)
	assert.Equal(suite.T(), "solid", updated.Image.Comments)
	assert.Equal(suite.T(), "brighter next time", updated.Image.Feedback)
}

func (suite *StudioAPITestSuite) TestImageVersions() {
	sessionID := suite.openSession("prod-1")
	suite.fetchImages(sessionID, nil)

	w := suite.do(http.MethodGet, "/v1/studio/sessions/"+sessionID+"/images/img-a/versions", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Versions []models.ImagePreview `json:"versions"`
	}
	suite.parse(w, &resp)
	require.Len(suite.T(), resp.Versions, 2)
	assert.Equal(suite.T(), "img-v2", resp.Versions[0].ID)
	assert.Equal(suite.T(), "img-v1", resp.Versions[1].ID)
}

func (suite *StudioAPITestSuite) TestStagedUpload() {
	sessionID := suite.openSession("prod-1")

	var pngBuf bytes.Buffer
	require.NoError(suite.T(), png.Encode(&pngBuf, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "shot.png")
	require.NoError(suite.T(), err)
	_, err = part.Write(pngBuf.Bytes())
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/studio/sessions/"+sessionID+"/uploads", body)
	req.RemoteAddr = suite.clientAddr
	req.Header.Set("Authorization", "Bearer "+suite.token)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var uploaded struct {
		Image  models.ImagePreview `json:"image"`
		Upload struct {
			Key      string `json:"key"`
			Checksum string `json:"checksum"`
		} `json:"upload"`
	}
	suite.parse(w, &uploaded)
	assert.Equal(suite.T(), models.ImageStateUploaded, uploaded.Image.ImageState)
	assert.True(suite.T(), strings.HasPrefix(uploaded.Upload.Key, "staging/"))
	assert.Equal(suite.T(), utils.HashBytes(pngBuf.Bytes()), uploaded.Upload.Checksum)

	snap, code := suite.sessionSnapshot(sessionID)
	require.Equal(suite.T(), http.StatusOK, code)
	assert.NotNil(suite.T(), findPreview(snap.Images, uploaded.Image.ID))
}

func (suite *StudioAPITestSuite) TestUploadRejectsNonImage() {
	sessionID := suite.openSession("prod-1")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "notes.png")
	require.NoError(suite.T(), err)
	_, err = part.Write([]byte("just some text pretending to be a png"))
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/studio/sessions/"+sessionID+"/uploads", body)
	req.RemoteAddr = suite.clientAddr
	req.Header.Set("Authorization", "Bearer "+suite.token)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *StudioAPITestSuite) TestSubscriptionFallsBackToFree() {
	w := suite.do(http.MethodGet, "/v1/studio/subscription", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var resp struct {
		Entitlement models.Entitlement `json:"entitlement"`
	}
	suite.parse(w, &resp)
	assert.Equal(suite.T(), models.PlanTierFree, resp.Entitlement.PlanTier)
	assert.True(suite.T(), resp.Entitlement.Active)
}

func (suite *StudioAPITestSuite) TestSessionOwnership() {
	sessionID := suite.openSession("prod-1")

	otherToken, err := utils.GenerateInstanceToken("inst-other", "site-2", "user-2", 1)
	require.NoError(suite.T(), err)

	req := httptest.NewRequest(http.MethodGet, "/v1/studio/sessions/"+sessionID, nil)
	req.RemoteAddr = suite.clientAddr
	req.Header.Set("Authorization", "Bearer "+otherToken)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	// Malformed and unknown session ids are rejected before any lookup.
	w = suite.do(http.MethodGet, "/v1/studio/sessions/not-a-uuid", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	w = suite.do(http.MethodGet, "/v1/studio/sessions/6b9c0d8e-7a65-4f6e-9e51-000000000000", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *StudioAPITestSuite) TestFetchScopeValidation() {
	sessionID := suite.openSession("prod-1")

	w := suite.do(http.MethodPost, "/v1/studio/sessions/"+sessionID+"/images/fetch",
		map[string]string{"scope": "bogus"})
	require.Equal(suite.T(), http.StatusBadRequest, w.Code)

	var env apiEnvelope
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(suite.T(), env.Error)
	assert.Equal(suite.T(), "VALIDATION_ERROR", env.Error.Code)
}

func (suite *StudioAPITestSuite) TestInvalidImageIDRejected() {
	sessionID := suite.openSession("prod-1")

	w := suite.do(http.MethodPost, "/v1/studio/sessions/"+sessionID+"/images/bad%20id/select", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *StudioAPITestSuite) TestEventsWithoutDatabase() {
	w := suite.do(http.MethodGet, "/v1/studio/events", nil)
	assert.Equal(suite.T(), http.StatusInternalServerError, w.Code)
}

func TestStudioAPISuite(t *testing.T) {
	suite.Run(t, new(StudioAPITestSuite))
}
