package customerservice

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"crm-gateway/internal/common/config"
	"crm-gateway/internal/common/errors"
	"crm-gateway/internal/common/logger"
	"crm-gateway/internal/crm/remote"
	"crm-gateway/internal/crm/remote/remotetest"
)

// ==========================
// Test Helpers
// ==========================

func newTestRouter(t *testing.T, cfg *Config) (http.Handler, *remotetest.MockRemote) {
	t.Helper()
	m := &remotetest.MockRemote{}
	t.Cleanup(func() { m.AssertExpectations(t) })

	h, err := NewHandler(HandlerOptions{
		CustomConfig: cfg,
		Remote:       m,
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	h.Routes(r)
	return r, m
}

func post(t *testing.T, router http.Handler, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/customer_service/create", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return rec, envelope
}

func strictBody() map[string]interface{} {
	return map[string]interface{}{
		"AccountId":                "001ACC",
		"CallType__c":              "Inbone",
		"ParentezcoDelCliente__c":  "Cliente",
		"Fast_Note__c":             "Called about benefits",
		"UltimoAnioDeAyuda__c":     "2023",
		"Communication_channel__c": "Phone",
		"TipoCliente__c":           "Cliente Actual",
		"TipoHumor_Cliente__c":     "Calmado",
	}
}

func encode(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

// ==========================
// Handler Creation Tests
// ==========================

func TestHandler_NewHandler(t *testing.T) {
	t.Run("defaults from app config", func(t *testing.T) {
		h, err := NewHandler(HandlerOptions{
			AppConfig: &config.Config{CustomerService: config.CustomerServiceConfig{StrictValidation: true}},
			Remote:    &remotetest.MockRemote{},
		})
		require.NoError(t, err)
		assert.Equal(t, "Customer_Service__c", h.config.Object)
		assert.True(t, h.config.StrictValidation)
	})

	t.Run("missing remote", func(t *testing.T) {
		_, err := NewHandler(HandlerOptions{CustomConfig: DefaultConfig()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires a remote CRM client")
	})

	t.Run("empty object", func(t *testing.T) {
		_, err := NewHandler(HandlerOptions{CustomConfig: &Config{}, Remote: &remotetest.MockRemote{}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "object is required")
	})
}

// ==========================
// Create Tests
// ==========================

func TestCreate(t *testing.T) {
	router, m := newTestRouter(t, DefaultConfig())
	m.On("Insert", mock.Anything, "Customer_Service__c", remote.Record{
		"Account__c":   "001ACC",
		"Fast_Note__c": "note",
	}).Return(remote.Record{"Id": "a01NEW"}, nil).Once()

	rec, body := post(t, router, `{"AccountId":"001ACC","Fast_Note__c":"note"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "created", body["status"])
	record := body["customer_service"].(map[string]interface{})
	assert.Equal(t, "a01NEW", record["Id"])
	assert.Equal(t, "001ACC", record["AccountId"])
	assert.NotContains(t, record, "Account__c")
}

func TestCreate_CRMIdWins(t *testing.T) {
	router, m := newTestRouter(t, DefaultConfig())
	m.On("Insert", mock.Anything, "Customer_Service__c", mock.Anything).Return(remote.Record{"Id": "a01NEW"}, nil).Once()

	_, body := post(t, router, `{"AccountId":"001ACC","Id":"caller-supplied"}`)

	assert.Equal(t, "a01NEW", body["customer_service"].(map[string]interface{})["Id"])
}

func TestCreate_MissingAccount(t *testing.T) {
	router, m := newTestRouter(t, DefaultConfig())

	rec, body := post(t, router, `{"Fast_Note__c":"note"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "field 'AccountId' is required", body["message"])
	m.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_RemoteFailures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"rejected", errors.NewRemoteRejectedError("salesforce", stderrors.New("INVALID_OR_NULL_FOR_RESTRICTED_PICKLIST")), http.StatusUnprocessableEntity},
		{"upstream", errors.NewUpstreamError("salesforce", stderrors.New("timeout")), http.StatusBadGateway},
		{"session", errors.NewSessionUnavailableError(stderrors.New("invalid_grant")), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := newTestRouter(t, DefaultConfig())
			m.On("Insert", mock.Anything, "Customer_Service__c", mock.Anything).Return(nil, tt.err).Once()

			rec, body := post(t, router, `{"AccountId":"001ACC"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "error", body["status"])
		})
	}
}

// ==========================
// Strict Validation Tests
// ==========================

func strictConfig() *Config {
	cfg := DefaultConfig()
	cfg.StrictValidation = true
	return cfg
}

func TestCreate_StrictAccepts(t *testing.T) {
	router, m := newTestRouter(t, strictConfig())
	m.On("Insert", mock.Anything, "Customer_Service__c", mock.Anything).Return(remote.Record{"Id": "a01NEW"}, nil).Once()

	rec, _ := post(t, router, encode(t, strictBody()))

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreate_StrictMissingField(t *testing.T) {
	router, _ := newTestRouter(t, strictConfig())
	input := strictBody()
	delete(input, "Fast_Note__c")

	rec, body := post(t, router, encode(t, input))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "field 'Fast_Note__c' is required", body["message"])
}

func TestCreate_StrictPicklist(t *testing.T) {
	router, m := newTestRouter(t, strictConfig())
	input := strictBody()
	input["CallType__c"] = "Outbound"

	rec, body := post(t, router, encode(t, input))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid value for field 'CallType__c'", body["message"])
	assert.Equal(t, "Outbound", body["provided_value"])
	assert.ElementsMatch(t, []interface{}{"Inbone", "Onbone"}, body["allowed_values"])
	m.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_RelaxedIgnoresPicklist(t *testing.T) {
	router, m := newTestRouter(t, DefaultConfig())
	m.On("Insert", mock.Anything, "Customer_Service__c", mock.Anything).Return(remote.Record{"Id": "a01NEW"}, nil).Once()

	rec, _ := post(t, router, `{"AccountId":"001ACC","CallType__c":"Outbound"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestGetCreateSchema(t *testing.T) {
	relaxed := GetCreateSchema(false)
	assert.Equal(t, []string{"AccountId"}, relaxed.Required)
	assert.Len(t, relaxed.Properties, 1)

	strict := GetCreateSchema(true)
	assert.Len(t, strict.Required, 8)
	assert.Len(t, strict.Properties, 7)
	assert.Contains(t, strict.Properties["TipoHumor_Cliente__c"].Enum, "Motivado")
}
