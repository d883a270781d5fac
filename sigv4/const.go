package sigv4

const (
	// Algorithm is the only signing algorithm produced by this package.
	Algorithm = "AWS4-HMAC-SHA256"

	// Service is the scope service for every object-store request.
	Service = "s3"

	// TimeFormat is the layout of the X-Amz-Date header and the string-to-sign timestamp.
	TimeFormat = "20060102T150405Z"

	// DateFormat is the layout of the date portion of the credential scope.
	DateFormat = "20060102"

	// EmptyPayloadHash is hex(sha256("")).
	EmptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	// UnsignedPayload may replace the payload hash when the body is not covered by the signature.
	UnsignedPayload = "UNSIGNED-PAYLOAD"

	HeaderAuthorization = "Authorization"
	HeaderContentSHA256 = "X-Amz-Content-Sha256"
	HeaderDate          = "X-Amz-Date"
	HeaderContentType   = "Content-Type"

	keyPrefix  = "AWS4"
	terminator = "aws4_request"
)
