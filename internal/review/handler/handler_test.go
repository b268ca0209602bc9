package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"crossgate/internal/review"
	"crossgate/internal/review/handler/mocks"
	"crossgate/internal/transfer"
	"crossgate/pkg/domain"
	dErrors "crossgate/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/review-mocks.go -package=mocks Service
type ReviewHandlerSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *ReviewHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
}

func TestReviewHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReviewHandlerSuite))
}

func newTestRouter(t *testing.T) (*chi.Mux, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(mockService, logger).Register(r)
	return r, mockService
}

func (s *ReviewHandlerSuite) TestHandleSubmit() {
	router, mockService := newTestRouter(s.T())
	transferID := domain.NewTransferID()
	reviewedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mockService.EXPECT().Submit(gomock.Any(), review.SubmitRequest{
		TransferID: transferID,
		Decision:   transfer.DecisionApprove,
		Comments:   "all in order",
	}).Return(&transfer.Transfer{
		ID:     transferID,
		Status: transfer.StatusCompleted,
		Submission: transfer.SubmissionState{
			Status:     transfer.ReviewApproved,
			ReviewerID: "admin-1",
			ReviewedAt: &reviewedAt,
		},
	}, nil)

	body, err := json.Marshal(map[string]any{
		"decision": "APPROVE",
		"comments": "all in order",
	})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/transfers/"+transferID.String()+"/review", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), transferID.String(), resp["id"])
	assert.Equal(s.T(), "COMPLETED", resp["status"])
}

func (s *ReviewHandlerSuite) TestHandleSubmitBadDecision() {
	router, _ := newTestRouter(s.T())
	transferID := domain.NewTransferID()

	req := httptest.NewRequest(http.MethodPost, "/transfers/"+transferID.String()+"/review",
		bytes.NewReader([]byte(`{"decision": "MAYBE"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), string(dErrors.CodeInvalidInput), resp["error"])
}

func (s *ReviewHandlerSuite) TestHandleSubmitMalformedID() {
	router, _ := newTestRouter(s.T())

	req := httptest.NewRequest(http.MethodPost, "/transfers/not-a-uuid/review",
		bytes.NewReader([]byte(`{"decision": "APPROVE"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *ReviewHandlerSuite) TestHandleSubmitTerminalSubmission() {
	router, mockService := newTestRouter(s.T())
	transferID := domain.NewTransferID()

	mockService.EXPECT().Submit(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeInvalidTransition, "cannot move APPROVED to APPROVED"))

	req := httptest.NewRequest(http.MethodPost, "/transfers/"+transferID.String()+"/review",
		bytes.NewReader([]byte(`{"decision": "APPROVE"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusConflict, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), string(dErrors.CodeInvalidTransition), resp["error"])
}

func (s *ReviewHandlerSuite) TestHandleGetNotFound() {
	router, mockService := newTestRouter(s.T())
	transferID := domain.NewTransferID()

	mockService.EXPECT().Get(gomock.Any(), transferID).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "transfer not found"))

	req := httptest.NewRequest(http.MethodGet, "/transfers/"+transferID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}

func (s *ReviewHandlerSuite) TestHandleList() {
	router, mockService := newTestRouter(s.T())

	mockService.EXPECT().List(gomock.Any()).Return([]*transfer.Transfer{
		{ID: domain.NewTransferID(), Status: transfer.StatusPending},
		{ID: domain.NewTransferID(), Status: transfer.StatusCompleted},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/transfers", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string][]map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(s.T(), resp["transfers"], 2)
}

func (s *ReviewHandlerSuite) TestHandleAuditTrailMalformedID() {
	router, _ := newTestRouter(s.T())

	req := httptest.NewRequest(http.MethodGet, "/transfers/zzz/audit", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}
