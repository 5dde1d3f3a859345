// Package salesforce is the REST adapter behind remote.Remote.
package salesforce

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"crm-gateway/internal/common/auth"
	"crm-gateway/internal/common/config"
	"crm-gateway/internal/common/errors"
	commonhttp "crm-gateway/internal/common/http"
	"crm-gateway/internal/common/logger"
	"crm-gateway/internal/common/observability"
	"crm-gateway/internal/crm/remote"
)

const serviceName = "salesforce"

// TokenSource supplies and revokes the session used for API calls.
type TokenSource interface {
	Token(ctx context.Context) (*auth.Token, error)
	Invalidate(accessToken string)
}

type Client struct {
	session    TokenSource
	http       *resty.Client
	apiVersion string
	obs        *observability.Observability
	logger     logger.Logger
}

var _ remote.Remote = (*Client)(nil)

func NewClient(session TokenSource, cfg config.SalesforceConfig, obs *observability.Observability, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "v59.0"
	}
	return &Client{
		session: session,
		http: commonhttp.NewClient(commonhttp.Options{
			Timeout: cfg.Timeout,
			Headers: map[string]string{"Content-Type": "application/json"},
		}),
		apiVersion: apiVersion,
		obs:        obs,
		logger:     log,
	}
}

// FindOne returns the first record matching q.
func (c *Client) FindOne(ctx context.Context, q remote.Query) (remote.Record, error) {
	if q.Limit == 0 {
		q.Limit = 1
	}
	records, err := c.FindMany(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.NewNotFoundError(fmt.Sprintf("no %s record matched", q.Object))
	}
	return records[0], nil
}

// FindMany runs q and follows result pages until done.
func (c *Client) FindMany(ctx context.Context, q remote.Query) (records []remote.Record, err error) {
	soql, err := BuildQuery(q)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	ctx, span := c.obs.StartRemoteSpan(ctx, "query", q.Object)
	start := time.Now()
	defer func() {
		c.record(ctx, "query", q.Object, start, err)
		observability.EndRemoteSpan(span, err)
	}()

	c.logger.Debug("Executing SOQL query", map[string]interface{}{
		"object": q.Object,
		"soql":   soql,
	})

	token, err := c.session.Token(ctx)
	if err != nil {
		return nil, err
	}

	next := c.dataURL(token, "/query?q="+url.QueryEscape(soql))
	for next != "" {
		var page queryResponse
		var failure []errorDetail
		resp, reqErr := c.http.R().
			SetContext(ctx).
			SetAuthToken(token.AccessToken).
			SetResult(&page).
			SetError(&failure).
			Get(next)
		if err = c.check(token, resp, reqErr, failure, false); err != nil {
			return nil, err
		}

		records = append(records, stripAttributes(page.Records)...)
		next = ""
		if !page.Done && page.NextRecordsURL != "" {
			next = token.InstanceURL + page.NextRecordsURL
		}
	}

	return records, nil
}

// Insert creates a record and returns {"Id": <new id>}.
func (c *Client) Insert(ctx context.Context, object string, fields remote.Record) (rec remote.Record, err error) {
	if !identifierPattern.MatchString(object) {
		return nil, errors.NewInternalError(fmt.Errorf("invalid object name %q", object))
	}

	ctx, span := c.obs.StartRemoteSpan(ctx, "insert", object)
	start := time.Now()
	defer func() {
		c.record(ctx, "insert", object, start, err)
		observability.EndRemoteSpan(span, err)
	}()

	token, err := c.session.Token(ctx)
	if err != nil {
		return nil, err
	}

	var created createResponse
	var failure []errorDetail
	resp, reqErr := c.http.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		SetBody(fields).
		SetResult(&created).
		SetError(&failure).
		Post(c.dataURL(token, "/sobjects/"+object+"/"))
	if err = c.check(token, resp, reqErr, failure, true); err != nil {
		return nil, err
	}

	if !created.Success || created.ID == "" {
		err = errors.NewRemoteRejectedError(serviceName, newAPIError(resp.StatusCode(), created.Errors, resp.String()))
		return nil, err
	}

	c.logger.Info("Salesforce record created", map[string]interface{}{
		"object": object,
		"id":     created.ID,
	})

	return remote.Record{"Id": created.ID}, nil
}

func (c *Client) Update(ctx context.Context, object, id string, fields remote.Record) (err error) {
	if !identifierPattern.MatchString(object) || !idPattern.MatchString(id) {
		return errors.NewInternalError(fmt.Errorf("invalid object %q or id %q", object, id))
	}

	ctx, span := c.obs.StartRemoteSpan(ctx, "update", object)
	start := time.Now()
	defer func() {
		c.record(ctx, "update", object, start, err)
		observability.EndRemoteSpan(span, err)
	}()

	token, err := c.session.Token(ctx)
	if err != nil {
		return err
	}

	var failure []errorDetail
	resp, reqErr := c.http.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		SetBody(fields).
		SetError(&failure).
		Patch(c.dataURL(token, "/sobjects/"+object+"/"+id))

	return c.check(token, resp, reqErr, failure, true)
}

// Ping establishes the session without calling the data API.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.session.Token(ctx)
	return err
}

func (c *Client) dataURL(token *auth.Token, path string) string {
	return fmt.Sprintf("%s/services/data/%s%s", token.InstanceURL, c.apiVersion, path)
}

// check classifies a finished call. Writes turn 4xx answers into
// REMOTE_REJECTED; reads treat every failure as upstream.
func (c *Client) check(token *auth.Token, resp *resty.Response, reqErr error, failure []errorDetail, write bool) error {
	if reqErr != nil {
		return errors.NewUpstreamError(serviceName, reqErr)
	}
	if !resp.IsError() {
		return nil
	}

	apiErr := newAPIError(resp.StatusCode(), failure, resp.String())
	switch {
	case apiErr.InvalidSession():
		c.session.Invalidate(token.AccessToken)
		return errors.NewSessionUnavailableError(apiErr)
	case write && apiErr.ClientError():
		return errors.NewRemoteRejectedError(serviceName, apiErr)
	default:
		return errors.NewUpstreamError(serviceName, apiErr)
	}
}

func (c *Client) record(ctx context.Context, operation, object string, start time.Time, err error) {
	result := "success"
	switch {
	case err == nil:
	case errors.HasCode(err, errors.ErrCodeNotFound):
		result = "not_found"
	case errors.HasCode(err, errors.ErrCodeRemoteRejected):
		result = "rejected"
	default:
		result = "error"
	}
	c.obs.RecordRemoteCall(ctx, operation, object, result, time.Since(start))

	if err != nil && result == "error" {
		var apiErr *APIError
		fields := map[string]interface{}{
			"operation": operation,
			"object":    object,
			"error":     err.Error(),
		}
		if stderrors.As(err, &apiErr) {
			fields["status"] = apiErr.StatusCode
			fields["error_code"] = apiErr.ErrorCode
		}
		c.logger.Error("Salesforce call failed", fields)
	}
}
