package main

import (
	arg "github.com/alexflint/go-arg"
)

// Build-time variables
var (
	BuildDate    string
	BuildVersion string

	BuildEnvironment = "dev"
)

// Default variables used
const (
	AppName = "updir"

	DefaultAccessKey  = "your-access-key"
	DefaultSecretKey  = "your-secret-key"
	DefaultBucketName = "your-bucket-name"
	DefaultRegion     = "your-region"

	DefaultHost = "127.0.0.1"
	DefaultMode = "local"
	DefaultPort = 8080
)

type options struct {
	AWSAccessKey string `arg:"--aws-access-key,env:AWS_ACCESS_KEY,help:S3 access key ID"`
	AWSSecretKey string `arg:"--aws-secret-key,env:AWS_SECRET_KEY,help:S3 secret access key"`
	AWSRegion    string `arg:"--aws-region,env:AWS_REGION,help:S3 bucket region"`
	BucketName   string `arg:"--bucket,env:BUCKET_NAME,help:S3 bucket name"`
	S3Endpoint   string `arg:"--s3-endpoint,env:UPDIR_S3_ENDPOINT,help:Base URL of an S3-compatible server; enables path-style requests"`
	S3Prefix     string `arg:"--s3-prefix,env:UPDIR_S3_PREFIX,help:Prefix prepended to every S3 object key"`

	GCSBucket  string `arg:"--gcs-bucket,env:UPDIR_GCS_BUCKET,help:GCS bucket name"`
	GCSKeyFile string `arg:"--gcs-key-file,env:UPDIR_GCS_KEY_FILE,help:GCS service account key file"`
	GCSPrefix  string `arg:"--gcs-prefix,env:UPDIR_GCS_PREFIX,help:Prefix prepended to every GCS object name"`

	Config      string `arg:"--config,env:UPDIR_CONFIG,help:YAML config file"`
	Debug       bool   `arg:"--debug,env:UPDIR_DEBUG,help:Serve /debug/request"`
	Environment string `arg:"--env,env:UPDIR_ENV,help:Environment name 'dev' or 'prod'"`
	Host        string `arg:"--host,env:UPDIR_HOST,help:Address to listen on"`
	Mode        string `arg:"--mode,env:UPDIR_MODE,help:Upload destination 'local' 's3' or 'gcs'"`
	Port        int    `arg:"--port,env:UPDIR_PORT,help:Port to listen on"`
	UploadDir   string `arg:"--upload-dir,env:UPDIR_UPLOAD_DIR,help:Directory for local uploads"`

	MaxFileBytes    int64 `arg:"--max-file-bytes,env:UPDIR_MAX_FILE_BYTES,help:Per-file size limit; 0 is unlimited"`
	MaxRequestBytes int64 `arg:"--max-request-bytes,env:UPDIR_MAX_REQUEST_BYTES,help:Request body size limit; 0 is unlimited"`
}

func (o *options) Version() string {
	return AppName + " " + BuildVersion + " " + BuildDate
}

func defaultOptions() options {
	return options{
		AWSAccessKey: DefaultAccessKey,
		AWSSecretKey: DefaultSecretKey,
		AWSRegion:    DefaultRegion,
		BucketName:   DefaultBucketName,
		Environment:  BuildEnvironment,
		Host:         DefaultHost,
		Mode:         DefaultMode,
		Port:         DefaultPort,
		UploadDir:    "uploads",
	}
}

func parseOptions() options {
	o := defaultOptions()
	arg.MustParse(&o)
	return o
}
