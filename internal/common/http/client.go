// Package http builds the outbound HTTP clients used for CRM and OAuth calls.
package http

import (
	"time"

	"github.com/go-resty/resty/v2"
)

const userAgent = "crm-gateway/1.0"

type Options struct {
	BaseURL string
	// Timeout bounds a single request; zero leaves it to the caller's context.
	Timeout time.Duration
	Headers map[string]string
}

// NewClient returns a resty client with retries disabled.
func NewClient(opts Options) *resty.Client {
	client := resty.New().
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)

	if opts.BaseURL != "" {
		client.SetBaseURL(opts.BaseURL)
	}
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	for k, v := range opts.Headers {
		client.SetHeader(k, v)
	}

	return client
}
