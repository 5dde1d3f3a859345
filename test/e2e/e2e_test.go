// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-gateway/internal/api"
	"crm-gateway/internal/common/auth"
	"crm-gateway/internal/common/config"
	"crm-gateway/internal/common/logger"
	"crm-gateway/internal/common/observability"
	"crm-gateway/internal/common/salesforce"
	"crm-gateway/internal/handlers/contact"
	customerservice "crm-gateway/internal/handlers/customer-service"
	scriptcase "crm-gateway/internal/handlers/script-case"
)

// ==========================
// Fake CRM
// ==========================

type fakeCRM struct {
	*httptest.Server

	mu       sync.Mutex
	seq      int
	token    string
	records  map[string][]map[string]interface{}
	accounts map[string]string

	tokenCalls atomic.Int32
	expireNext atomic.Bool
}

func newFakeCRM(t *testing.T) *fakeCRM {
	f := &fakeCRM{
		records:  map[string][]map[string]interface{}{},
		accounts: map[string]string{},
	}

	r := chi.NewRouter()
	r.Post("/services/oauth2/token", f.issueToken)
	r.Route("/services/data/{version}", func(r chi.Router) {
		r.Use(f.requireToken)
		r.Get("/query", f.query)
		r.Post("/sobjects/{object}/", f.insert)
		r.Patch("/sobjects/{object}/{id}", f.update)
	})

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Close)
	return f
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeCRM) issueToken(w http.ResponseWriter, r *http.Request) {
	n := f.tokenCalls.Add(1)

	f.mu.Lock()
	f.token = fmt.Sprintf("token-%d", n)
	token := f.token
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"instance_url": f.URL,
		"token_type":   "Bearer",
	})
}

func (f *fakeCRM) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		valid := r.Header.Get("Authorization") == "Bearer "+f.token
		f.mu.Unlock()

		if !valid || f.expireNext.CompareAndSwap(true, false) {
			writeJSON(w, http.StatusUnauthorized, []map[string]string{{
				"message":   "Session expired or invalid",
				"errorCode": "INVALID_SESSION_ID",
			}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeCRM) query(w http.ResponseWriter, r *http.Request) {
	soql := r.URL.Query().Get("q")

	f.mu.Lock()
	defer f.mu.Unlock()

	matches := []map[string]interface{}{}
	if strings.Contains(soql, " FROM Account ") {
		for name, id := range f.accounts {
			if strings.Contains(soql, fmt.Sprintf("Name = '%s'", name)) {
				matches = append(matches, map[string]interface{}{"Id": id})
			}
		}
	} else {
		for _, rec := range f.records["Contact"] {
			if strings.Contains(soql, fmt.Sprintf("FirstName = '%s'", rec["FirstName"])) &&
				strings.Contains(soql, fmt.Sprintf("LastName = '%s'", rec["LastName"])) {
				out := map[string]interface{}{
					"attributes": map[string]string{"type": "Contact"},
				}
				for k, v := range rec {
					out[k] = v
				}
				matches = append(matches, out)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalSize": len(matches),
		"done":      true,
		"records":   matches,
	})
}

func (f *fakeCRM) insert(w http.ResponseWriter, r *http.Request) {
	object := chi.URLParam(r, "object")

	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, []map[string]string{{"message": err.Error(), "errorCode": "JSON_PARSER_ERROR"}})
		return
	}
	if _, ok := fields["Bogus__c"]; ok {
		writeJSON(w, http.StatusBadRequest, []map[string]interface{}{{
			"message":   "No such column 'Bogus__c' on sobject",
			"errorCode": "INVALID_FIELD",
			"fields":    []string{"Bogus__c"},
		}})
		return
	}

	f.mu.Lock()
	f.seq++
	id := fmt.Sprintf("a0%013d", f.seq)
	fields["Id"] = id
	f.records[object] = append(f.records[object], fields)
	if object == "Contact" {
		// Person-account automation: every contact gets an account named after it.
		f.seq++
		f.accounts[strings.ToUpper(fmt.Sprintf("%s %s", fields["FirstName"], fields["LastName"]))] = fmt.Sprintf("001%012d", f.seq)
	}
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]interface{}{"id": id, "success": true, "errors": []string{}})
}

func (f *fakeCRM) update(w http.ResponseWriter, r *http.Request) {
	object, id := chi.URLParam(r, "object"), chi.URLParam(r, "id")

	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, []map[string]string{{"message": err.Error(), "errorCode": "JSON_PARSER_ERROR"}})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records[object] {
		if rec["Id"] == id {
			for k, v := range fields {
				rec[k] = v
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, []map[string]string{{"message": "not found", "errorCode": "NOT_FOUND"}})
}

func (f *fakeCRM) stored(object string) []map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]interface{}(nil), f.records[object]...)
}

// ==========================
// Gateway Setup
// ==========================

func privateKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	// Single-line form as injected through the environment.
	block := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return strings.ReplaceAll(string(block), "\n", `\n`)
}

func newGateway(t *testing.T, crm *fakeCRM) http.Handler {
	t.Helper()
	log := logger.NewTestLogger(t)

	cfg := &config.Config{
		App: config.AppConfig{Name: "crm-gateway"},
		Salesforce: config.SalesforceConfig{
			Username:          "integration@example.com",
			ConsumerKey:       "consumer-key",
			Domain:            crm.URL,
			PrivateKeyContent: privateKeyPEM(t),
			APIVersion:        "v59.0",
		},
		Contact: config.ContactConfig{
			DefaultEntity: "Individual",
			LinkAccount:   true,
		},
		CustomerService: config.CustomerServiceConfig{StrictValidation: true},
	}

	obs := observability.NewWithRegisterer(cfg.App.Name, prometheus.NewRegistry(), log)
	t.Cleanup(obs.Shutdown)

	session, err := auth.NewSession(cfg.Salesforce, log)
	require.NoError(t, err)
	client := salesforce.NewClient(session, cfg.Salesforce, obs, log)

	contactHandler, err := contact.NewHandler(contact.HandlerOptions{AppConfig: cfg, Remote: client, Logger: log})
	require.NoError(t, err)
	customerServiceHandler, err := customerservice.NewHandler(customerservice.HandlerOptions{AppConfig: cfg, Remote: client, Logger: log})
	require.NoError(t, err)
	scriptCaseHandler, err := scriptcase.NewHandler(scriptcase.HandlerOptions{AppConfig: cfg, Remote: client, Logger: log})
	require.NoError(t, err)

	return api.NewRouter(api.RouterOptions{
		Logger:   log,
		Ready:    client,
		Handlers: []api.RouteRegistrar{contactHandler, customerServiceHandler, scriptCaseHandler},
	})
}

func call(t *testing.T, gw http.Handler, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

// ==========================
// End-to-end Flows
// ==========================

func TestContactLifecycle(t *testing.T) {
	crm := newFakeCRM(t)
	gw := newGateway(t, crm)

	status, body := call(t, gw, http.MethodPost, "/contact/create", map[string]interface{}{
		"full_name": "Jane Doe",
		"Email":     "jane@example.com",
		"DOB__c":    "1990-04-12",
		"Phone":     "(555) 123-4567",
	})
	require.Equal(t, http.StatusCreated, status, body)
	created := body["contact"].(map[string]interface{})
	contactID := created["Id"].(string)
	assert.NotEmpty(t, contactID)
	assert.NotEmpty(t, created["AccountId"])
	assert.Equal(t, "Individual", created["Entity_Type__c"])

	stored := crm.stored("Contact")
	require.Len(t, stored, 1)
	assert.Equal(t, created["AccountId"], stored[0]["AccountId"])
	assert.NotContains(t, stored[0], "full_name")

	status, body = call(t, gw, http.MethodPost, "/contact/find", map[string]string{"full_name": "  Jane   Doe "})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "found", body["status"])
	found := body["contact"].(map[string]interface{})
	assert.Equal(t, contactID, found["Id"])
	assert.NotContains(t, found, "attributes")

	status, body = call(t, gw, http.MethodPost, "/contact/verify/dob-phone", map[string]string{
		"full_name": "Jane Doe", "dob": "1990-04-12", "phone": "555-123-4567",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "verified", body["status"])

	status, body = call(t, gw, http.MethodPost, "/contact/verify/dob", map[string]string{
		"full_name": "Jane Doe", "dob": "1990-12-04",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "mismatch", body["status"])

	status, body = call(t, gw, http.MethodPost, "/contact/find", map[string]string{"full_name": "John Roe"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body["status"])
}

func TestNameWithQuoteIsEscaped(t *testing.T) {
	crm := newFakeCRM(t)
	gw := newGateway(t, crm)

	status, body := call(t, gw, http.MethodPost, "/contact/find", map[string]string{"full_name": "Shaquille O'Neal"})

	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body["message"], "O'Neal")
}

func TestCustomerServiceAndCase(t *testing.T) {
	crm := newFakeCRM(t)
	gw := newGateway(t, crm)

	status, body := call(t, gw, http.MethodPost, "/customer_service/create", map[string]string{
		"AccountId":                "001000000000001",
		"CallType__c":              "Onbone",
		"ParentezcoDelCliente__c":  "Familiar del Cliente",
		"Fast_Note__c":             "Asked for a callback",
		"UltimoAnioDeAyuda__c":     "2017 o antes",
		"Communication_channel__c": "Text message",
		"TipoCliente__c":           "Cliente Retorno",
		"TipoHumor_Cliente__c":     "Agradecido",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "001000000000001", body["customer_service"].(map[string]interface{})["AccountId"])
	stored := crm.stored("Customer_Service__c")
	require.Len(t, stored, 1)
	assert.Equal(t, "001000000000001", stored[0]["Account__c"])
	assert.NotContains(t, stored[0], "AccountId")

	status, body = call(t, gw, http.MethodPost, "/script_case", map[string]string{
		"ContactId":  "003000000000001",
		"Subject__c": "Intake",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "003000000000001", body["case"].(map[string]interface{})["ContactId"])
	assert.Equal(t, "003000000000001", crm.stored("Script_Case__c")[0]["Contact__c"])

	status, body = call(t, gw, http.MethodPost, "/script_case", map[string]string{
		"ContactId": "003000000000001",
		"Bogus__c":  "x",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["details"], "INVALID_FIELD")
}

func TestExpiredSessionIsReestablished(t *testing.T) {
	crm := newFakeCRM(t)
	gw := newGateway(t, crm)

	status, _ := call(t, gw, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 1, crm.tokenCalls.Load())

	crm.expireNext.Store(true)
	status, body := call(t, gw, http.MethodPost, "/contact/find", map[string]string{"full_name": "Jane Doe"})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "error", body["status"])

	status, _ = call(t, gw, http.MethodPost, "/contact/find", map[string]string{"full_name": "Jane Doe"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.EqualValues(t, 2, crm.tokenCalls.Load())
}
