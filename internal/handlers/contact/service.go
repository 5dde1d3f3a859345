package contact

import (
	"context"
	stderrors "errors"
	"sort"
	"strings"
	"time"

	"crm-gateway/internal/common/errors"
	"crm-gateway/internal/common/logger"
	"crm-gateway/internal/crm/lookup"
	"crm-gateway/internal/crm/mapper"
	"crm-gateway/internal/crm/remote"
)

const accountObject = "Account"

var errMissingID = stderrors.New("insert response carried no Id")

type Service struct {
	config *Config
	logger logger.Logger
	remote remote.Remote
	engine *lookup.Engine
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	engineCfg := lookup.DefaultConfig()
	engineCfg.Object = config.Object
	engineCfg.DOBField = config.DOBField
	engineCfg.PhoneField = config.PhoneField

	return &Service{
		config: config,
		logger: log,
		remote: deps.Remote,
		engine: lookup.NewEngine(deps.Remote, engineCfg, log),
	}
}

func (s *Service) Find(ctx context.Context, input *FindInput) (*lookup.Result, error) {
	return s.engine.Lookup(ctx, lookup.Request{FullName: input.FullName})
}

func (s *Service) Verify(ctx context.Context, input *VerifyInput) (*lookup.Result, error) {
	return s.engine.Lookup(ctx, lookup.Request{
		FullName: input.FullName,
		DOB:      input.DOB,
		Phone:    input.Phone,
	})
}

// Create inserts the contact and, when enabled, links it to the account the
// CRM creates for it. Linking failures never fail the request.
func (s *Service) Create(ctx context.Context, body remote.Record) (remote.Record, error) {
	mapped, err := mapper.Contact(body, s.config.DefaultEntityType)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Creating contact", map[string]interface{}{
		"object": s.config.Object,
		"fields": fieldNames(mapped.Payload),
	})

	created, err := s.remote.Insert(ctx, s.config.Object, mapped.Payload)
	if err != nil {
		return nil, err
	}

	contactID := created.ID()
	if contactID == "" {
		return nil, errors.NewUpstreamError("crm", errMissingID)
	}

	out := mapped.Created(contactID)
	if s.config.LinkAccount {
		if accountID := s.linkAccount(ctx, contactID, mapped.Payload); accountID != "" {
			out[mapper.FieldAccountID] = accountID
		}
	}

	return out, nil
}

// linkAccount finds the account named after the contact, upper-cased, and
// sets it as the contact's parent. Returns the linked account Id or "".
func (s *Service) linkAccount(ctx context.Context, contactID string, payload remote.Record) string {
	if s.config.AccountLinkDelay > 0 {
		timer := time.NewTimer(s.config.AccountLinkDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Warn("Account link skipped, request finished first", map[string]interface{}{
				"contact_id": contactID,
			})
			return ""
		case <-timer.C:
		}
	}

	accountName := strings.ToUpper(strings.TrimSpace(
		payload.String(mapper.FieldFirstName) + " " + payload.String(mapper.FieldLastName)))
	fields := map[string]interface{}{
		"contact_id":   contactID,
		"account_name": accountName,
	}

	account, err := s.remote.FindOne(ctx, remote.Query{
		Object: accountObject,
		Fields: []string{"Id"},
		Where:  []remote.Condition{{Field: "Name", Value: accountName}},
		Limit:  1,
	})
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			s.logger.Warn("No account found to link contact", fields)
		} else {
			s.logger.WithError(err).Error("Account lookup failed while linking contact", fields)
		}
		return ""
	}

	accountID := account.ID()
	fields["account_id"] = accountID
	if err := s.remote.Update(ctx, s.config.Object, contactID, remote.Record{mapper.FieldAccountID: accountID}); err != nil {
		s.logger.WithError(err).Error("Failed to link contact to account", fields)
		return ""
	}

	s.logger.Info("Contact linked to account", fields)
	return accountID
}

func fieldNames(rec remote.Record) []string {
	names := make([]string, 0, len(rec))
	for k := range rec {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
