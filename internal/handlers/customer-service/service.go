package customerservice

import (
	"context"
	stderrors "errors"

	"crm-gateway/internal/common/errors"
	"crm-gateway/internal/common/logger"
	"crm-gateway/internal/crm/mapper"
	"crm-gateway/internal/crm/remote"
)

var errMissingID = stderrors.New("insert response carried no Id")

type Service struct {
	config *Config
	logger logger.Logger
	remote remote.Remote
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		config: config,
		logger: log,
		remote: deps.Remote,
	}
}

func (s *Service) Create(ctx context.Context, body remote.Record) (remote.Record, error) {
	mapped, err := mapper.CustomerService(body)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Creating customer service record", map[string]interface{}{
		"object":     s.config.Object,
		"account_id": mapped.Echo.String(mapper.FieldAccountID),
	})

	created, err := s.remote.Insert(ctx, s.config.Object, mapped.Payload)
	if err != nil {
		return nil, err
	}
	if created.ID() == "" {
		return nil, errors.NewUpstreamError("crm", errMissingID)
	}

	return mapped.Created(created.ID()), nil
}
