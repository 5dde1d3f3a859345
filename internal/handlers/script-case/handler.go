package scriptcase

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crm-gateway/internal/api/request"
	"crm-gateway/internal/api/response"
	"crm-gateway/internal/common/config"
	"crm-gateway/internal/common/logger"
	"crm-gateway/internal/common/metrics"
	"crm-gateway/internal/crm/remote"
)

const EndpointCreate = "script_case.create"

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
		return nil, fmt.Errorf("invalid configuration for script case handler: %w", err)
	}
	if opts.Remote == nil {
		return nil, fmt.Errorf("script case handler requires a remote CRM client")
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
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
	r.Post("/script_case", h.Create)
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

	record, err := h.service.Create(r.Context(), body)
	if err != nil {
		response.WriteError(w, log, EndpointCreate, err)
		return
	}

	metrics.RecordsCreated.WithLabelValues(h.config.Object).Inc()
	log.Info("Script case created", map[string]interface{}{
		"case_id":    record.ID(),
		"contact_id": record.String("ContactId"),
		"account_id": record.String("AccountId"),
	})

	status, envelope := response.Created("case", record)
	response.WriteJSON(w, status, envelope)
}
