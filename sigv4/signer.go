// Package sigv4 computes AWS Signature Version 4 Authorization headers for
// object-store requests. Every function is deterministic; nothing here reads
// the clock or the environment except through arguments.
package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrMissingAccessKey = errors.New("sigv4: access key is required")
	ErrMissingHost      = errors.New("sigv4: request has no host")
)

// SigningContext scopes a signing key to one UTC day, region and service.
type SigningContext struct {
	Date      string
	Region    string
	Service   string
	SecretKey string
}

// NewSigningContext returns the S3 signing context for the UTC day containing t.
func NewSigningContext(t time.Time, region, secretKey string) SigningContext {
	return SigningContext{
		Date:      t.UTC().Format(DateFormat),
		Region:    region,
		Service:   Service,
		SecretKey: secretKey,
	}
}

// Scope is the credential scope, e.g. 20130524/us-east-1/s3/aws4_request.
func (sc SigningContext) Scope() string {
	return sc.Date + "/" + sc.Region + "/" + sc.Service + "/" + terminator
}

// Key derives the signing key for this context.
func (sc SigningContext) Key() SigningKey {
	return DeriveSigningKey(sc.SecretKey, sc.Date, sc.Region, sc.Service)
}

// SigningKey is the 256-bit output of the SigV4 key derivation chain.
type SigningKey []byte

// DeriveSigningKey runs the four-step HMAC-SHA256 chain:
// AWS4+secret -> date -> region -> service -> "aws4_request".
func DeriveSigningKey(secretKey, date, region, service string) SigningKey {
	kDate := hmacSHA256([]byte(keyPrefix+secretKey), date)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return SigningKey(hmacSHA256(kService, terminator))
}

// Sign returns the lowercase hex HMAC of stringToSign under k.
func (k SigningKey) Sign(stringToSign string) string {
	return hex.EncodeToString(hmacSHA256(k, stringToSign))
}

// CanonicalRequest is the normalized form of an HTTP request that gets hashed
// into the string to sign. URI and Query must already be canonically encoded.
type CanonicalRequest struct {
	Method      string
	URI         string
	Query       string
	Header      http.Header
	PayloadHash string

	// SignedHeaders lists the lowercase header names covered by the signature.
	// When empty, every header in Header is signed.
	SignedHeaders []string
}

func (cr CanonicalRequest) signedHeaders() []string {
	var names []string
	if len(cr.SignedHeaders) > 0 {
		names = make([]string, 0, len(cr.SignedHeaders))
		for _, h := range cr.SignedHeaders {
			names = append(names, strings.ToLower(h))
		}
	} else {
		names = make([]string, 0, len(cr.Header))
		for k := range cr.Header {
			names = append(names, strings.ToLower(k))
		}
	}
	sort.Strings(names)
	return names
}

// SignedHeaderList is the semicolon separated, sorted list of signed header names.
func (cr CanonicalRequest) SignedHeaderList() string {
	return strings.Join(cr.signedHeaders(), ";")
}

// String renders the canonical request:
// METHOD\nURI\nQUERY\nHEADERS\n\nSIGNED_HEADERS\nPAYLOAD_HASH
func (cr CanonicalRequest) String() string {
	uri := cr.URI
	if uri == "" {
		uri = "/"
	}

	var headers strings.Builder
	for _, name := range cr.signedHeaders() {
		headers.WriteString(name)
		headers.WriteByte(':')
		headers.WriteString(canonicalHeaderValue(cr.Header.Values(name)))
		headers.WriteByte('\n')
	}

	return strings.Join([]string{
		strings.ToUpper(cr.Method),
		uri,
		cr.Query,
		headers.String(),
		cr.SignedHeaderList(),
		cr.PayloadHash,
	}, "\n")
}

// Hash is hex(sha256(canonical request)).
func (cr CanonicalRequest) Hash() string {
	return HashHex([]byte(cr.String()))
}

// StringToSign assembles the SigV4 string to sign.
func StringToSign(timestamp, scope, canonicalRequestHash string) string {
	return Algorithm + "\n" + timestamp + "\n" + scope + "\n" + canonicalRequestHash
}

// AuthorizationHeader formats the value of the Authorization header.
func AuthorizationHeader(accessKey, scope, signedHeaders, signature string) string {
	return Algorithm + " Credential=" + accessKey + "/" + scope +
		", SignedHeaders=" + signedHeaders +
		", Signature=" + signature
}

// HashHex is the lowercase hex SHA-256 digest of b.
func HashHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Signer signs requests for one access key and one SigningContext. The
// signing key is derived once in NewSigner. A Signer is immutable and safe
// for concurrent use.
type Signer struct {
	accessKey string
	scope     SigningContext
	key       SigningKey
}

// NewSigner derives and caches the signing key for sc.
func NewSigner(accessKey string, sc SigningContext) *Signer {
	return &Signer{
		accessKey: accessKey,
		scope:     sc,
		key:       sc.Key(),
	}
}

// Context returns the signing context the cached key was derived for.
func (s *Signer) Context() SigningContext {
	return s.scope
}

// Authorization signs cr as of timestamp (TimeFormat) and returns the
// Authorization header value.
func (s *Signer) Authorization(timestamp string, cr CanonicalRequest) string {
	sc, key := s.scope, s.key
	if len(timestamp) >= len(DateFormat) && timestamp[:len(DateFormat)] != sc.Date {
		// The scope date must match the timestamp; derive a one-off key
		// instead of mutating the cached one.
		sc.Date = timestamp[:len(DateFormat)]
		key = sc.Key()
	}

	sts := StringToSign(timestamp, sc.Scope(), cr.Hash())
	return AuthorizationHeader(s.accessKey, sc.Scope(), cr.SignedHeaderList(), key.Sign(sts))
}

// uploadSignedHeaders are the headers covered on every object PUT.
var uploadSignedHeaders = []string{"content-type", "host", "x-amz-content-sha256", "x-amz-date"}

// SignRequest sets X-Amz-Date, X-Amz-Content-Sha256 and Authorization on req.
// The Content-Type header must already be set.
func (s *Signer) SignRequest(req *http.Request, payloadHash string, t time.Time) error {
	if s.accessKey == "" {
		return ErrMissingAccessKey
	}
	host := req.Host
	if host == "" {
		host = req.URL.Host
	}
	if host == "" {
		return ErrMissingHost
	}

	timestamp := t.UTC().Format(TimeFormat)
	req.Header.Set(HeaderDate, timestamp)
	req.Header.Set(HeaderContentSHA256, payloadHash)

	h := http.Header{}
	h.Set("Host", host)
	h.Set(HeaderContentType, req.Header.Get(HeaderContentType))
	h.Set(HeaderContentSHA256, payloadHash)
	h.Set(HeaderDate, timestamp)

	cr := CanonicalRequest{
		Method:        req.Method,
		URI:           req.URL.EscapedPath(),
		Query:         CanonicalQuery(req.URL.Query()),
		Header:        h,
		PayloadHash:   payloadHash,
		SignedHeaders: uploadSignedHeaders,
	}
	req.Header.Set(HeaderAuthorization, s.Authorization(timestamp, cr))
	return nil
}

// CanonicalQuery encodes q with keys and values sorted and URI-encoded.
func CanonicalQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []string
	for _, k := range keys {
		vs := append([]string(nil), q[k]...)
		sort.Strings(vs)
		for _, v := range vs {
			pairs = append(pairs, EscapeComponent(k)+"="+EscapeComponent(v))
		}
	}
	return strings.Join(pairs, "&")
}

// EscapePath URI-encodes every byte of p outside the unreserved set,
// keeping '/' as the segment separator.
func EscapePath(p string) string {
	return escape(p, false)
}

// EscapeComponent URI-encodes s including '/'.
func EscapeComponent(s string) string {
	return escape(s, true)
}

const upperhex = "0123456789ABCDEF"

func escape(s string, encodeSlash bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || (c == '/' && !encodeSlash) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

// canonicalHeaderValue trims each value, collapses inner runs of spaces
// and joins multiple values with commas.
func canonicalHeaderValue(vs []string) string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = strings.Join(strings.Fields(v), " ")
	}
	return strings.Join(out, ",")
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}
