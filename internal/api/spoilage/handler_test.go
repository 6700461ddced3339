package spoilage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"smartkitchen/internal/domain/spoilage"
	spoilageservice "smartkitchen/internal/services/spoilage"
	"smartkitchen/pkg/errors"
)

// MockService is a mock for Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Detect(ctx context.Context, r io.Reader, itemType string) (*spoilage.Result, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(ctx, data, itemType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*spoilage.Result), args.Error(1)
}

func (m *MockService) Health() spoilageservice.Health {
	return m.Called().Get(0).(spoilageservice.Health)
}

func upload(t *testing.T, field string, content []byte, query string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "apple.jpg")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/detect-spoilage"+query, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(svc Service, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	NewHandler(svc, 0).Routes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestDetect(t *testing.T) {
	svc := new(MockService)
	svc.On("Detect", mock.Anything, []byte("image-bytes"), "Apple").Return(&spoilage.Result{
		Success:       true,
		ItemName:      "Apple",
		ItemType:      "Fruits",
		ItemModelUsed: "provided",
		SpoilageLevel: spoilage.LevelFresh,
		DaysRemaining: 7,
		ModelUsed:     spoilage.ModelHeuristic,
	}, nil)

	rec := serve(svc, upload(t, "file", []byte("image-bytes"), "?item_type=Apple"))

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, true, got["success"])
	assert.Equal(t, "Apple", got["item_name"])
	assert.Equal(t, "provided", got["item_model_used"])
	svc.AssertExpectations(t)
}

func TestDetect_MissingFile(t *testing.T) {
	svc := new(MockService)

	rec := serve(svc, upload(t, "image", []byte("x"), ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error processing image")
	assert.Contains(t, rec.Body.String(), "file")
	svc.AssertNotCalled(t, "Detect", mock.Anything, mock.Anything, mock.Anything)
}

func TestDetect_InvalidImage(t *testing.T) {
	svc := new(MockService)
	svc.On("Detect", mock.Anything, mock.Anything, "").
		Return(nil, errors.NewValidationError("file", "invalid image", nil))

	rec := serve(svc, upload(t, "file", []byte("not an image"), ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Contains(t, got["detail"], "Error processing image: ")
}

func TestDetect_InternalError(t *testing.T) {
	svc := new(MockService)
	svc.On("Detect", mock.Anything, mock.Anything, "").Return(nil, errors.ErrChainExhausted)

	rec := serve(svc, upload(t, "file", []byte("x"), ""))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Error processing image: "+errors.ErrChainExhausted.Error(), got["detail"])
}

func TestHealth(t *testing.T) {
	svc := new(MockService)
	svc.On("Health").Return(spoilageservice.Health{Status: "Complete Detection API is running", Device: "cpu"})

	rec := serve(svc, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"device":"cpu"`)
	assert.Contains(t, rec.Body.String(), `"yolo_detector_loaded":false`)
}
