package duck

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const defaultS3Region = "us-east-1"

// S3Config holds configuration for S3-compatible storage (AWS S3, MinIO).
type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // empty for AWS, e.g. "http://localhost:9000" for MinIO
	Region          string
	UseSSL          bool
	URLStyle        string // "path" or "vhost"
}

func (c *S3Config) isMinIO() bool {
	return c.Endpoint != "" && !strings.Contains(c.Endpoint, "amazonaws.com")
}

// secretSQL builds the CREATE SECRET statement DuckDB uses for s3:// reads
// and writes. Without explicit keys the default AWS credential chain is used.
func (c *S3Config) secretSQL() string {
	var b strings.Builder
	b.WriteString("CREATE SECRET IF NOT EXISTS s3_secret (TYPE s3")
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		fmt.Fprintf(&b, ", KEY_ID %s, SECRET %s", quote(c.AccessKeyID), quote(c.SecretAccessKey))
	} else {
		b.WriteString(", PROVIDER credential_chain")
	}
	if c.Endpoint != "" {
		// DuckDB expects host:port, not a URL.
		endpoint := strings.TrimPrefix(strings.TrimPrefix(c.Endpoint, "http://"), "https://")
		fmt.Fprintf(&b, ", ENDPOINT %s", quote(endpoint))
	}
	if c.Region != "" {
		fmt.Fprintf(&b, ", REGION %s", quote(c.Region))
	}
	urlStyle := c.URLStyle
	if urlStyle == "" {
		urlStyle = "path"
	}
	useSSL := c.UseSSL
	if c.isMinIO() {
		useSSL = false
	}
	fmt.Fprintf(&b, ", URL_STYLE %s, USE_SSL %t)", quote(urlStyle), useSSL)
	return b.String()
}

// LoadS3ConfigFromEnv reads S3_* variables, falling back to AWS_* ones.
// It returns nil when no credentials are set, leaving the default AWS
// credential chain in charge.
func LoadS3ConfigFromEnv() (*S3Config, error) {
	accessKeyID := firstEnv("S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID")
	secretAccessKey := firstEnv("S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY")
	if accessKeyID == "" && secretAccessKey == "" {
		return nil, nil
	}
	if accessKeyID == "" || secretAccessKey == "" {
		return nil, fmt.Errorf("S3 access key id and secret access key must be set together")
	}

	cfg := &S3Config{
		AccessKeyID:     accessKeyID,
		SecretAccessKey: secretAccessKey,
		Endpoint:        firstEnv("S3_ENDPOINT", "AWS_ENDPOINT_URL"),
		Region:          firstEnv("S3_REGION", "AWS_REGION"),
		URLStyle:        "path",
	}
	if cfg.Region == "" {
		cfg.Region = defaultS3Region
	}
	cfg.UseSSL = !cfg.isMinIO()
	if v := os.Getenv("S3_USE_SSL"); v != "" {
		cfg.UseSSL = v == "true" || v == "1"
	}
	if v := os.Getenv("S3_URL_STYLE"); v != "" {
		cfg.URLStyle = v
	}
	return cfg, nil
}

// PrepareS3ConfigForURI returns nil for non-s3:// URIs. For s3:// URIs it
// loads the environment configuration and, for a local MinIO, makes sure the
// bucket exists.
func PrepareS3ConfigForURI(ctx context.Context, log *slog.Logger, uri string, createBucket bool) (*S3Config, error) {
	if !strings.HasPrefix(uri, "s3://") {
		return nil, nil
	}

	cfg, err := LoadS3ConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 configuration: %w", err)
	}
	if cfg == nil {
		region := firstEnv("S3_REGION", "AWS_REGION")
		if region == "" {
			region = defaultS3Region
		}
		cfg = &S3Config{Region: region, UseSSL: true, URLStyle: "path"}
	}
	if cfg.isMinIO() && (cfg.AccessKeyID == "" || cfg.SecretAccessKey == "") {
		return nil, fmt.Errorf("MinIO requires both S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY to be set (endpoint: %s)", cfg.Endpoint)
	}

	if createBucket {
		if err := EnsureMinIOBucket(ctx, log, uri, cfg); err != nil {
			return nil, fmt.Errorf("failed to ensure MinIO bucket exists: %w", err)
		}
	}
	return cfg, nil
}

// EnsureMinIOBucket creates the bucket named by uri when the endpoint is a
// local MinIO and the bucket is missing. Other endpoints are left alone.
func EnsureMinIOBucket(ctx context.Context, log *slog.Logger, uri string, cfg *S3Config) error {
	if !isLocalEndpoint(cfg.Endpoint) {
		return nil
	}
	bucket := BucketFromURI(uri)
	if bucket == "" {
		return nil
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return fmt.Errorf("MinIO requires both S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY to be set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpointURL := cfg.Endpoint
	if !strings.HasPrefix(endpointURL, "http://") && !strings.HasPrefix(endpointURL, "https://") {
		endpointURL = "http://" + endpointURL
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpointURL)
		o.UsePathStyle = true
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err == nil {
		return nil
	}

	log.Info("duck: creating MinIO bucket", "bucket", bucket, "endpoint", cfg.Endpoint)
	if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

// BucketFromURI returns the bucket of an s3://bucket/prefix URI.
func BucketFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return ""
	}
	bucket, _, _ := strings.Cut(rest, "/")
	return bucket
}

func isLocalEndpoint(endpoint string) bool {
	if endpoint == "" {
		return false
	}
	host := strings.TrimPrefix(strings.TrimPrefix(endpoint, "http://"), "https://")
	return strings.HasPrefix(host, "localhost") || strings.HasPrefix(host, "127.0.0.1") || strings.Contains(host, "host.docker.internal")
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
