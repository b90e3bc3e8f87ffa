package endorsement

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/boostly/internal/common"
)

type fakeEngine struct {
	created []CreateInput
	listed  uuid.UUID
	err     error
}

func (f *fakeEngine) Create(_ context.Context, in CreateInput) (*Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, in)
	return &Result{
		Endorsement:      Endorsement{ID: uuid.New(), RecognitionID: in.RecognitionID, EndorserID: in.EndorserID},
		EndorsementCount: 1,
	}, nil
}

func (f *fakeEngine) List(_ context.Context, recognitionID uuid.UUID, _, _ int) ([]*Endorsement, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.listed = recognitionID
	return []*Endorsement{}, nil
}

func newRouter(engine Engine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(engine).Register(r.Group("/api/v1"))
	return r
}

func TestCreateEndorsementHandler(t *testing.T) {
	engine := &fakeEngine{}
	r := newRouter(engine)
	recID, endorser := uuid.New(), uuid.New()

	body := `{"recognition_id":"` + recID.String() + `","endorser_id":"` + endorser.String() + `"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/endorsements", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	var out Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, recID, out.RecognitionID)
	assert.Equal(t, 1, out.EndorsementCount)
}

func TestCreateEndorsementDuplicate(t *testing.T) {
	r := newRouter(&fakeEngine{err: duplicate()})
	body := `{"recognition_id":"` + uuid.NewString() + `","endorser_id":"` + uuid.NewString() + `"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/endorsements", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), common.CodeDuplicateEndorsement)
}

func TestListEndorsementsHandler(t *testing.T) {
	engine := &fakeEngine{}
	r := newRouter(engine)
	recID := uuid.New()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/endorsements?recognition_id="+recID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, recID, engine.listed)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/endorsements", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	notFound := newRouter(&fakeEngine{err: common.RecognitionNotFound(recID)})
	rec = httptest.NewRecorder()
	notFound.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/endorsements?recognition_id="+recID.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
