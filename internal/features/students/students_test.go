package students

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
	"serotonyl.ru/boostly/internal/features/ledger"
	"serotonyl.ru/boostly/internal/features/quota"
	"serotonyl.ru/boostly/internal/testutil"
)

func TestNormalizeEnrollInput(t *testing.T) {
	in, err := NormalizeEnrollInput(EnrollInput{
		CampusUID:   "  S1001 ",
		Email:       " Ada@Example.EDU ",
		DisplayName: " <i>Ada</i> Lovelace ",
	})
	require.NoError(t, err)
	assert.Equal(t, "S1001", in.CampusUID)
	assert.Equal(t, "ada@example.edu", in.Email)
	assert.Equal(t, "Ada Lovelace", in.DisplayName)

	in, err = NormalizeEnrollInput(EnrollInput{CampusUID: "S1002", Email: "c@b.c", DisplayName: "Conan O'Brien & Co"})
	require.NoError(t, err)
	assert.Equal(t, "Conan O'Brien & Co", in.DisplayName)

	bad := []EnrollInput{
		{CampusUID: "", Email: "a@b.c", DisplayName: "A"},
		{CampusUID: "S1", Email: "nope", DisplayName: "A"},
		{CampusUID: "S1", Email: "a@b.c", DisplayName: "   "},
		{CampusUID: "S1", Email: "a@b.c", DisplayName: strings.Repeat("x", MaxDisplayNameLength+1)},
	}
	for _, b := range bad {
		_, err := NormalizeEnrollInput(b)
		assert.True(t, common.HasCode(err, common.CodeInvalidInput), "%+v", b)
	}
}

type fakeReader struct {
	student *Student
	view    *BalanceView
}

func (f *fakeReader) Get(_ context.Context, id uuid.UUID) (*Student, error) {
	if f.student == nil || f.student.ID != id {
		return nil, common.StudentNotFound(id)
	}
	return f.student, nil
}

func (f *fakeReader) Balance(ctx context.Context, id uuid.UUID) (*BalanceView, error) {
	if _, err := f.Get(ctx, id); err != nil {
		return nil, err
	}
	return f.view, nil
}

func TestBalanceHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	st := &Student{ID: uuid.New(), CampusUID: "S1", DisplayName: "Ada", Email: "ada@example.edu"}
	fake := &fakeReader{
		student: st,
		view: &BalanceView{
			Student:            st.Summary(),
			Balances:           ledger.Balances{Total: 70, Redeemable: 0},
			RemainingAllowance: 70,
		},
	}
	r := gin.New()
	NewHandler(fake).Register(r.Group("/api/v1"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/students/"+st.ID.String()+"/balance", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Balances struct {
			Total      int `json:"total_balance"`
			Redeemable int `json:"redeemable_balance"`
		} `json:"balances"`
		Remaining int `json:"remaining_allowance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 70, body.Balances.Total)
	assert.Equal(t, 70, body.Remaining)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/students/"+uuid.NewString()+"/balance", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/students/garbage", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnrollAndBalance(t *testing.T) {
	pool := testutil.NewPool(t)
	ctx := context.Background()
	svc := NewService(NewRepository(pool), ledger.NewRepository(pool), quota.NewRepository(pool))

	st, err := svc.Enroll(ctx, EnrollInput{CampusUID: "S2001", Email: "bianca@example.edu", DisplayName: "Bianca"})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, st.Status)

	_, err = svc.Enroll(ctx, EnrollInput{CampusUID: "S2001", Email: "other@example.edu", DisplayName: "Other"})
	assert.True(t, common.HasCode(err, common.CodeDuplicateStudent))

	found, err := svc.GetByCampusUID(ctx, "S2001")
	require.NoError(t, err)
	assert.Equal(t, st.ID, found.ID)

	_, err = svc.GetByCampusUID(ctx, "S404")
	assert.True(t, common.IsNotFound(err))

	view, err := svc.Balance(ctx, st.ID)
	require.NoError(t, err)
	assert.Zero(t, view.Balances.Total)
	assert.Nil(t, view.Quota)
	assert.Equal(t, quota.SendLimit, view.RemainingAllowance)
	assert.Equal(t, 0, testutil.CountRows(t, pool, "FROM monthly_quota"))
}
