package s3

import (
	"io"
	"os"

	"greenlight/session"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/opentracing/opentracing-go"
)

var (
	AttachmentBucket *oss.Bucket

	GetObjectFunc func(string, *session.Context, ...oss.Option) (io.ReadCloser, error)
	PutObjectFunc func(string, io.Reader, *session.Context, ...oss.Option) error
)

func Bootstrap() {
	var err error
	AttachmentBucket, err = BuildBucketFromEnv()
	if err != nil {
		panic(err)
	}

	GetObjectFunc = GetObject
	PutObjectFunc = PutObject
}

func BuildBucketFromEnv() (*oss.Bucket, error) {
	endpoint := os.ExpandEnv(os.Getenv("OSS_ENDPOINT"))
	if endpoint == "" {
		endpoint = "dummy"
	}
	accessKey := os.Getenv("OSS_ACCESS_KEY")
	secretKey := os.Getenv("OSS_SECRET_KEY")
	bucket := os.Getenv("OSS_BUCKET")
	if bucket == "" {
		bucket = "greenlight"
	}
	return BuildBucket(endpoint, accessKey, secretKey, bucket)
}

func BuildBucket(endpoint, accesskey, secretKey, bucketName string) (*oss.Bucket, error) {
	// endpoint http://oss-cn-hangzhou.aliyuncs.com
	cli, err := oss.New(endpoint, accesskey, secretKey)
	if err != nil {
		return nil, err
	}

	bucket, err := cli.Bucket(bucketName)
	if err != nil {
		return nil, err
	}
	return bucket, nil
}

func GetObject(key string, s *session.Context, opts ...oss.Option) (io.ReadCloser, error) {
	finish := startChildSpan("oss-get-object", key, s)
	defer finish()
	return AttachmentBucket.GetObject(key, opts...)
}

func PutObject(key string, r io.Reader, s *session.Context, opts ...oss.Option) error {
	finish := startChildSpan("oss-put-object", key, s)
	defer finish()
	return AttachmentBucket.PutObject(key, r, opts...)
}

func startChildSpan(name, key string, s *session.Context) func() {
	if s == nil || s.Context == nil {
		return func() {}
	}
	parentSpan := opentracing.SpanFromContext(s.Context)
	if parentSpan == nil {
		return func() {}
	}
	sp := parentSpan.Tracer().StartSpan(name, opentracing.ChildOf(parentSpan.Context()))
	sp.SetTag("object-key", key)
	return sp.Finish
}
