// Package s3 uploads files to an S3 bucket with plain HTTP PUTs signed by
// the sigv4 package.
package s3

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ripta/updir/sigv4"
)

// ObjectContentType is sent with every object PUT.
const ObjectContentType = "application/octet-stream"

// maxErrorBody caps how much of an error response is parsed.
const maxErrorBody = 64 << 10

var (
	ErrMissingBucket = errors.New("s3: bucket name is required")
	ErrMissingRegion = errors.New("s3: region is required")
)

// Credentials are static AWS credentials. They are never logged.
type Credentials struct {
	AccessKey string
	SecretKey string
}

// Client issues signed object PUTs against a single bucket.
type Client struct {
	HTTPClient *http.Client

	Bucket string
	Region string

	// Endpoint, when set, switches to path-style addressing against that
	// base URL, e.g. http://127.0.0.1:9000 for a local S3-compatible server.
	Endpoint string

	creds Credentials
	now   func() time.Time
}

// NewClient returns a client for bucket in region.
func NewClient(bucket, region string, creds Credentials) (*Client, error) {
	if bucket == "" {
		return nil, ErrMissingBucket
	}
	if region == "" {
		return nil, ErrMissingRegion
	}
	return &Client{
		HTTPClient: http.DefaultClient,
		Bucket:     bucket,
		Region:     region,
		creds:      creds,
		now:        time.Now,
	}, nil
}

// Signer derives a signing key for the current UTC day.
func (c *Client) Signer() *sigv4.Signer {
	return sigv4.NewSigner(c.creds.AccessKey, sigv4.NewSigningContext(c.now(), c.Region, c.creds.SecretKey))
}

// ObjectURL is the virtual-hosted-style URL of key. Each path segment of key
// is URI-encoded; the same encoding is used as the canonical URI.
func ObjectURL(bucket, region, key string) string {
	return "https://" + bucket + ".s3." + region + ".amazonaws.com/" + sigv4.EscapePath(key)
}

// URL returns the URL the client PUTs key to.
func (c *Client) URL(key string) string {
	if c.Endpoint == "" {
		return ObjectURL(c.Bucket, c.Region, key)
	}
	return strings.TrimRight(c.Endpoint, "/") + "/" + sigv4.EscapeComponent(c.Bucket) + "/" + sigv4.EscapePath(key)
}

// Put uploads payload as key, signed by s. Any non-2xx response is returned
// as a *StatusError.
func (c *Client) Put(ctx context.Context, s *sigv4.Signer, key string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.URL(key), bytes.NewReader(payload))
	if err != nil {
		return errors.Wrapf(err, "could not build request for %s", key)
	}
	req.Header.Set(sigv4.HeaderContentType, ObjectContentType)
	if err := s.SignRequest(req, sigv4.HashHex(payload), c.now()); err != nil {
		return errors.Wrapf(err, "could not sign request for %s", key)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "could not upload %s", key)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Str("s3_key", key).Msg("could not drain response body")
		}
		return nil
	}
	return newStatusError(resp)
}

// StatusError is a non-2xx response from the object store.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("s3: status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Message != "" {
		msg += " (" + e.Message + ")"
	}
	if e.RequestID != "" {
		msg += ", request id " + e.RequestID
	}
	return msg
}

type errorResponse struct {
	XMLName   xml.Name `xml:"Error"`
	Code      string   `xml:"Code"`
	Message   string   `xml:"Message"`
	RequestID string   `xml:"RequestId"`
}

func newStatusError(resp *http.Response) *StatusError {
	se := &StatusError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("X-Amz-Request-Id"),
	}

	var er errorResponse
	if err := xml.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&er); err == nil {
		se.Code = er.Code
		se.Message = er.Message
		if er.RequestID != "" {
			se.RequestID = er.RequestID
		}
	}
	return se
}
