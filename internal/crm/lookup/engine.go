// Package lookup finds a contact by name and optionally verifies its date of
// birth and phone against caller-supplied values.
package lookup

import (
	"context"
	stderrors "errors"
	"strings"

	"crm-gateway/internal/common/errors"
	"crm-gateway/internal/common/logger"
	"crm-gateway/internal/crm/normalize"
	"crm-gateway/internal/crm/remote"
)

type Outcome string

const (
	OutcomeFound    Outcome = "found"
	OutcomeNotFound Outcome = "not_found"
	OutcomeVerified Outcome = "verified"
	OutcomeMismatch Outcome = "mismatch"
)

// Request holds the identity fields to check. Empty DOB or Phone means the
// caller did not supply it.
type Request struct {
	FullName string
	DOB      string
	Phone    string
}

func (r Request) verifying() bool {
	return r.DOB != "" || r.Phone != ""
}

type Result struct {
	Outcome Outcome
	Record  remote.Record
	// Ambiguous is set when more than one record matched the name and the
	// lowest Id was taken.
	Ambiguous bool
	// Mismatched lists the supplied fields that differ from the record.
	Mismatched []string
}

type Config struct {
	Object     string
	DOBField   string
	PhoneField string
	// Fields are always selected; the DOB and phone fields are added when supplied.
	Fields []string
}

func DefaultConfig() Config {
	return Config{
		Object:     "Contact",
		DOBField:   "DOB__c",
		PhoneField: "Phone",
		Fields:     []string{"Id", "FirstName", "LastName", "Email", "AccountId"},
	}
}

type Engine struct {
	remote remote.Remote
	config Config
	logger logger.Logger
}

func NewEngine(r remote.Remote, cfg Config, log logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Engine{remote: r, config: cfg, logger: log}
}

// Lookup issues exactly one query and classifies its result.
func (e *Engine) Lookup(ctx context.Context, req Request) (*Result, error) {
	given, family := normalize.SplitFullName(req.FullName)
	if given == "" {
		return nil, errors.NewValidationError("field 'full_name' must not be blank", "full_name")
	}

	records, err := e.remote.FindMany(ctx, e.query(given, family, req))
	if err != nil {
		return nil, upstream(err)
	}

	if len(records) == 0 {
		return &Result{Outcome: OutcomeNotFound}, nil
	}

	record := records[0]
	result := &Result{Record: record, Ambiguous: len(records) > 1}
	if result.Ambiguous {
		e.logger.Warn("Multiple contacts matched name, using lowest Id", map[string]interface{}{
			"given_name":  given,
			"family_name": family,
			"selected_id": record.ID(),
		})
	}

	if !req.verifying() {
		result.Outcome = OutcomeFound
		return result, nil
	}

	if req.DOB != "" && record.String(e.config.DOBField) != req.DOB {
		result.Mismatched = append(result.Mismatched, "dob")
	}
	if req.Phone != "" && !normalize.SamePhone(record.String(e.config.PhoneField), req.Phone) {
		result.Mismatched = append(result.Mismatched, "phone")
	}

	result.Outcome = OutcomeVerified
	if len(result.Mismatched) > 0 {
		result.Outcome = OutcomeMismatch
	}
	return result, nil
}

func (e *Engine) query(given, family string, req Request) remote.Query {
	fields := append([]string(nil), e.config.Fields...)
	if req.DOB != "" {
		fields = appendUnique(fields, e.config.DOBField)
	}
	if req.Phone != "" {
		fields = appendUnique(fields, e.config.PhoneField)
	}

	return remote.Query{
		Object: e.config.Object,
		Fields: fields,
		Where: []remote.Condition{
			{Field: "FirstName", Value: given},
			{Field: "LastName", Value: family},
		},
		OrderBy: "Id ASC",
		Limit:   2,
	}
}

// MismatchMessage describes which supplied fields did not match.
func (r *Result) MismatchMessage() string {
	if len(r.Mismatched) == 0 {
		return ""
	}
	return "Contact found but " + strings.Join(r.Mismatched, " and ") + " did not match"
}

func appendUnique(fields []string, field string) []string {
	for _, f := range fields {
		if f == field {
			return fields
		}
	}
	return append(fields, field)
}

func upstream(err error) error {
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		return err
	}
	return errors.NewUpstreamError("crm", err)
}
