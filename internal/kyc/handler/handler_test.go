package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"kycgate/internal/identity"
	"kycgate/internal/kyc/handler/mocks"
	"kycgate/internal/kyc/models"
	"kycgate/internal/kyc/service"
	"kycgate/pkg/domain"
	dErrors "kycgate/pkg/domain-errors"
	"kycgate/pkg/testutil"
)

type KYCHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestKYCHandlerSuite(t *testing.T) {
	suite.Run(t, new(KYCHandlerSuite))
}

func (s *KYCHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.service, logger).Register(s.router)
}

func (s *KYCHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func sampleVerification(status domain.VerificationStatus) *models.Verification {
	now := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
	return models.NewVerification(
		domain.VerificationID("kyc_6f1c2a8e-8a43-4a7e-9f57-0d3c2d1b9a10"),
		"GACCOUNT", domain.NetworkStellar, domain.VerificationTypeIndividual,
		identity.Subject{FirstName: "Alice", LastName: "Smith", BVN: "12345678901", DocumentType: "bvn"},
		"hash",
		models.Outcome{Status: status, Provider: "internal_denylist", Score: 22, RiskLevel: domain.RiskLevelLow, Notes: "ok"},
		now,
	)
}

func (s *KYCHandlerSuite) TestHandleVerify() {
	s.Run("maps request into the service call", func() {
		s.service.EXPECT().Verify(gomock.Any(), service.VerifyRequest{
			AccountID: "GACCOUNT",
			Network:   domain.NetworkStellar,
			Type:      domain.VerificationTypeIndividual,
			Subject:   identity.Subject{FirstName: "Alice", BVN: "12345678901", DocumentType: "bvn"},
		}).Return(sampleVerification(domain.VerificationStatusVerified), nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/kyc/verifications", map[string]string{
			"accountId":        " GACCOUNT ",
			"network":          "Stellar",
			"verificationType": "individual",
			"firstName":        "Alice ",
			"bvn":              "12345678901",
			"documentType":     "bvn",
		}))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[VerifyResponse](s.T(), rr)
		s.Equal("kyc_6f1c2a8e-8a43-4a7e-9f57-0d3c2d1b9a10", resp.VerificationID)
		s.Equal("verified", resp.VerificationStatus)
		s.Equal("low", resp.RiskLevel)
		s.Require().NotNil(resp.RiskScore)
		s.Equal(float64(22), *resp.RiskScore)
		s.NotNil(resp.ExpiresAt)
	})

	s.Run("validation failure body carries details", func() {
		s.service.EXPECT().Verify(gomock.Any(), gomock.Any()).
			Return(nil, &identity.ValidationFailure{Details: []string{"BVN must be exactly 11 digits"}})

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/kyc/verifications", map[string]string{
			"accountId": "GACCOUNT", "network": "stellar", "verificationType": "individual", "bvn": "123",
		}))

		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		var body ValidationFailureResponse
		s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &body))
		s.Equal("Invalid ID format", body.Error)
		s.Equal([]string{"BVN must be exactly 11 digits"}, body.Details)
	})

	s.Run("missing account id never reaches the service", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/kyc/verifications", map[string]string{
			"network": "stellar", "verificationType": "individual",
		}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("unknown network is rejected", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/kyc/verifications", map[string]string{
			"accountId": "GACCOUNT", "network": "ethereum", "verificationType": "individual",
		}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
	})

	s.Run("empty body", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/kyc/verifications"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("internal errors hide their description", func() {
		s.service.EXPECT().Verify(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInternal, "failed to persist verification"))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/kyc/verifications", map[string]string{
			"accountId": "GACCOUNT", "network": "hedera", "verificationType": "business",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
		body := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal("internal_error", body.Error)
		s.Empty(body.ErrorDescription)
	})
}

func (s *KYCHandlerSuite) TestHandleGet() {
	s.Run("returns public projection without raw identity data", func() {
		v := sampleVerification(domain.VerificationStatusVerified)
		s.service.EXPECT().Get(gomock.Any(), v.ID).Return(v, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/kyc/verifications/"+v.ID.String()))
		testutil.AssertStatusOK(s.T(), rr)
		raw := rr.Body.String()
		s.NotContains(raw, "12345678901")
		s.NotContains(raw, "Alice")
		resp := testutil.UnmarshalResponse[VerificationResponse](s.T(), rr)
		s.Equal("verified", resp.VerificationStatus)
		s.Equal("internal_denylist", resp.Provider)
		s.Equal("bvn", resp.DocumentType)
	})

	s.Run("malformed id is rejected before the service", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/kyc/verifications/not-an-id"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("not found", func() {
		s.service.EXPECT().Get(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "verification not found"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/kyc/verifications/kyc_6f1c2a8e-8a43-4a7e-9f57-0d3c2d1b9a10"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})
}

func (s *KYCHandlerSuite) TestHandleList() {
	s.Run("parses filters and pagination", func() {
		s.service.EXPECT().List(gomock.Any(), models.ListQuery{
			Filter: models.Filter{
				AccountID: "GACCOUNT",
				Status:    domain.VerificationStatusVerified,
				Type:      domain.VerificationTypeBusiness,
				Network:   domain.NetworkHedera,
			},
			Limit:  10,
			Offset: 20,
		}).Return(models.ListResult{
			Items:  []*models.Verification{sampleVerification(domain.VerificationStatusVerified)},
			Total:  31,
			Limit:  10,
			Offset: 20,
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet,
			"/kyc/verifications?accountId=GACCOUNT&verificationStatus=verified&verificationType=business&network=hedera&limit=10&offset=20"))
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[ListResponse](s.T(), rr)
		s.Equal(31, resp.Total)
		s.True(resp.HasMore)
		s.Len(resp.Verifications, 1)
	})

	s.Run("invalid status filter", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/kyc/verifications?verificationStatus=approved"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
	})

	s.Run("service error", func() {
		s.service.EXPECT().List(gomock.Any(), gomock.Any()).
			Return(models.ListResult{}, dErrors.New(dErrors.CodeInternal, "boom"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/kyc/verifications"))
		testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
	})
}
