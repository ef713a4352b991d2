/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package report

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// S3Config configures the report archive bucket.
type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // optional, for S3-compatible stores
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// Enabled reports whether a bucket is configured.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink archives each rendered HTML report as an object.
type S3Sink struct {
	client objectPutter
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3Sink builds an S3 client from the default AWS chain, overridden by
// static credentials and a custom endpoint when configured.
func NewS3Sink(ctx context.Context, cfg S3Config, logger zerolog.Logger) (*S3Sink, error) {
	if !cfg.Enabled() {
		return nil, errors.New("S3 bucket not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newS3Sink(client, cfg.Bucket, cfg.Prefix, logger), nil
}

func newS3Sink(client objectPutter, bucket, prefix string, logger zerolog.Logger) *S3Sink {
	return &S3Sink{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger.With().Str("component", "report_s3").Logger(),
	}
}

// Name implements Sink.
func (s *S3Sink) Name() string { return "s3" }

// ObjectKey returns prefix/YYYY/MM/DD/HHMM-<id>.html in UTC.
func (s *S3Sink) ObjectKey(r *Report) string {
	t := r.GeneratedAt.UTC()
	name := fmt.Sprintf("%s-%s.html", t.Format("1504"), r.ID.String())
	return path.Join(s.prefix, t.Format("2006"), t.Format("01"), t.Format("02"), name)
}

// Deliver implements Sink.
func (s *S3Sink) Deliver(ctx context.Context, r *Report) error {
	key := s.ObjectKey(r)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(r.HTML),
		ContentType: aws.String("text/html; charset=utf-8"),
		Metadata: map[string]string{
			"report-id": r.ID.String(),
			"total":     strconv.Itoa(r.Summary.Total),
			"success":   strconv.Itoa(r.Summary.Success),
			"error":     strconv.Itoa(r.Summary.Error),
			"away":      strconv.Itoa(r.Summary.Away),
		},
	})
	if err != nil {
		return &DeliveryError{Sink: s.Name(), Err: fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)}
	}
	s.logger.Info().Str("bucket", s.bucket).Str("key", key).Msg("report archived")
	return nil
}
