package contact

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crm-gateway/internal/api/request"
	"crm-gateway/internal/api/response"
	"crm-gateway/internal/common/config"
	"crm-gateway/internal/common/logger"
	"crm-gateway/internal/common/metrics"
	"crm-gateway/internal/crm/lookup"
	"crm-gateway/internal/crm/remote"
)

const (
	EndpointFind           = "contact.find"
	EndpointCreate         = "contact.create"
	EndpointVerifyDOB      = "contact.verify.dob"
	EndpointVerifyDOBPhone = "contact.verify.dob-phone"
)

type Handler struct {
	config  *Config
	logger  logger.Logger
	service *Service
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Remote       remote.Remote
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	handlerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := handlerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for contact handler: %w", err)
	}
	if opts.Remote == nil {
		return nil, fmt.Errorf("contact handler requires a remote CRM client")
	}

	var loggerInstance logger.Logger
	if opts.Logger != nil {
		loggerInstance = opts.Logger
	} else {
		loggerInstance = logger.NewStructured("info", "json")
	}

	return &Handler{
		config: handlerConfig,
		logger: loggerInstance,
		service: NewService(ServiceDependencies{
			Remote: opts.Remote,
			Logger: loggerInstance,
		}, handlerConfig),
	}, nil
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/contact/find", h.Find)
	r.Post("/contact/create", h.Create)
	r.Post("/contact/verify/dob", h.VerifyDOB)
	r.Post("/contact/verify/dob-phone", h.VerifyDOBPhone)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)

	body, err := request.DecodeRecord(w, r)
	if err != nil {
		response.WriteError(w, log, EndpointFind, err)
		return
	}

	input, err := parseFind(body)
	if err != nil {
		response.WriteError(w, log, EndpointFind, err)
		return
	}

	result, err := h.service.Find(r.Context(), input)
	if err != nil {
		response.WriteError(w, log, EndpointFind, err)
		return
	}

	h.writeLookup(w, log, EndpointFind, result, input.FullName)
}

func (h *Handler) VerifyDOB(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, EndpointVerifyDOB, false)
}

func (h *Handler) VerifyDOBPhone(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, EndpointVerifyDOBPhone, true)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request, endpoint string, requirePhone bool) {
	log := logger.FromContext(r.Context(), h.logger)

	body, err := request.DecodeRecord(w, r)
	if err != nil {
		response.WriteError(w, log, endpoint, err)
		return
	}

	input, err := parseVerify(body, requirePhone)
	if err != nil {
		response.WriteError(w, log, endpoint, err)
		return
	}

	result, err := h.service.Verify(r.Context(), input)
	if err != nil {
		response.WriteError(w, log, endpoint, err)
		return
	}

	h.writeLookup(w, log, endpoint, result, input.FullName)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)

	body, err := request.DecodeRecord(w, r)
	if err != nil {
		response.WriteError(w, log, EndpointCreate, err)
		return
	}

	if err := validateCreate(body); err != nil {
		response.WriteError(w, log, EndpointCreate, err)
		return
	}

	contact, err := h.service.Create(r.Context(), body)
	if err != nil {
		response.WriteError(w, log, EndpointCreate, err)
		return
	}

	metrics.RecordsCreated.WithLabelValues(h.config.Object).Inc()
	log.Info("Contact created", map[string]interface{}{
		"contact_id": contact.ID(),
		"account_id": contact.String("AccountId"),
	})

	status, envelope := response.Created("contact", contact)
	response.WriteJSON(w, status, envelope)
}

func (h *Handler) writeLookup(w http.ResponseWriter, log logger.Logger, endpoint string, result *lookup.Result, fullName string) {
	metrics.LookupOutcomes.WithLabelValues(endpoint, string(result.Outcome)).Inc()

	fields := map[string]interface{}{
		"endpoint":  endpoint,
		"outcome":   result.Outcome,
		"ambiguous": result.Ambiguous,
	}
	if result.Record != nil {
		fields["contact_id"] = result.Record.ID()
	}
	log.Info("Contact lookup finished", fields)

	status, envelope := response.Lookup(result, fullName)
	response.WriteJSON(w, status, envelope)
}
