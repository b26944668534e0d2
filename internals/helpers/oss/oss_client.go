package helper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/bytedance/sonic"
)

func getEnv(k string) string { return strings.TrimSpace(os.Getenv(k)) }

/* =======================================================================
   OSS Service
======================================================================= */

type OSSService struct {
	Client     *oss.Client
	Bucket     *oss.Bucket
	Endpoint   string
	BucketName string
	Prefix     string // optional: "attendance/"
}

func NewOSSServiceFromEnv(prefix string) (*OSSService, error) {
	endpoint := getEnv("ALI_OSS_ENDPOINT")
	ak := getEnv("ALI_OSS_ACCESS_KEY")
	sk := getEnv("ALI_OSS_SECRET_KEY")
	sts := getEnv("ALI_OSS_SECURITY_TOKEN")
	bucketName := getEnv("ALI_OSS_BUCKET")
	if endpoint == "" || ak == "" || sk == "" || bucketName == "" {
		return nil, fmt.Errorf("missing env: ALI_OSS_ENDPOINT/ACCESS_KEY/SECRET_KEY/BUCKET")
	}

	var (
		client *oss.Client
		err    error
	)
	if sts != "" {
		client, err = oss.New(endpoint, ak, sk, oss.SecurityToken(sts))
	} else {
		client, err = oss.New(endpoint, ak, sk)
	}
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}

	bkt, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	// Light verification of bucket location
	if loc, err := client.GetBucketLocation(bucketName); err != nil {
		if se, ok := err.(oss.ServiceError); ok && se.StatusCode == 403 && se.Code == "AccessDenied" {
			log.Printf("[OSS] warn: skip location check due to AccessDenied (bucket=%s). Continuing.", bucketName)
		} else {
			return nil, fmt.Errorf("verify bucket: %w", err)
		}
	} else {
		log.Printf("[OSS] bucket %s location: %s", bucketName, loc)
	}

	return &OSSService{
		Client:     client,
		Bucket:     bkt,
		Endpoint:   endpoint,
		BucketName: bucketName,
		Prefix:     strings.Trim(prefix, "/"),
	}, nil
}

func (s *OSSService) key(key string) string {
	key = strings.TrimLeft(key, "/")
	if s.Prefix == "" {
		return key
	}
	return s.Prefix + "/" + key
}

/* =======================================================================
   Typed JSON documents (get / put / create-if-absent / remove)
======================================================================= */

// GetJSON reads the object at key and unmarshals it into out.
// Returns ErrObjectNotFound when the object does not exist.
func (s *OSSService) GetJSON(ctx context.Context, key string, out interface{}) error {
	rc, err := s.Bucket.GetObject(s.key(key), oss.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return fmt.Errorf("oss get %s: %w", key, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("oss read %s: %w", key, err)
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrObjectMalformed, key, err)
	}
	return nil
}

// PutJSON overwrites the object at key with the JSON encoding of v.
func (s *OSSService) PutJSON(ctx context.Context, key string, v interface{}) error {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType("application/json"),
	}
	if err := s.Bucket.PutObject(s.key(key), bytes.NewReader(raw), opts...); err != nil {
		return fmt.Errorf("oss put %s: %w", key, err)
	}
	return nil
}

// CreateJSON writes the object only if it does not exist yet. This is the
// create-if-absent primitive the store offers in place of native locking.
// Returns ErrObjectExists when another writer got there first.
func (s *OSSService) CreateJSON(ctx context.Context, key string, v interface{}) error {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType("application/json"),
		oss.ForbidOverWrite(true),
	}
	if err := s.Bucket.PutObject(s.key(key), bytes.NewReader(raw), opts...); err != nil {
		if isConflict(err) {
			return fmt.Errorf("%w: %s", ErrObjectExists, key)
		}
		return fmt.Errorf("oss create %s: %w", key, err)
	}
	return nil
}

// Remove deletes the object at key. Removing a missing object is not an error.
func (s *OSSService) Remove(ctx context.Context, key string) error {
	if err := s.Bucket.DeleteObject(s.key(key), oss.WithContext(ctx)); err != nil && !isNotFound(err) {
		return fmt.Errorf("oss remove %s: %w", key, err)
	}
	return nil
}

// ListKeys returns object keys under prefix (relative to the service prefix).
func (s *OSSService) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	marker := oss.Marker("")
	for {
		lor, err := s.Bucket.ListObjects(oss.Prefix(s.key(prefix)), marker, oss.MaxKeys(1000))
		if err != nil {
			return nil, fmt.Errorf("oss list %s: %w", prefix, err)
		}
		for _, obj := range lor.Objects {
			key := obj.Key
			if s.Prefix != "" {
				key = strings.TrimPrefix(key, s.Prefix+"/")
			}
			keys = append(keys, key)
		}
		if lor.IsTruncated {
			marker = oss.Marker(lor.NextMarker)
		} else {
			break
		}
	}
	return keys, nil
}

/* =======================================================================
   Raw uploads (scan archives)
======================================================================= */

// UploadStream stores an opaque blob verbatim. Used for uploaded scan files,
// which are archived exactly as received and never re-encoded.
func (s *OSSService) UploadStream(ctx context.Context, key string, r io.Reader, contentType string) error {
	if key == "" {
		return fmt.Errorf("empty key")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(contentType),
	}
	if err := s.Bucket.PutObject(s.key(key), r, opts...); err != nil {
		return fmt.Errorf("oss upload %s: %w", key, err)
	}
	return nil
}

func (s *OSSService) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.TrimPrefix(s.Endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.BucketName, host, s.key(key))
}

/* =======================================================================
   Error classification
======================================================================= */

func isNotFound(err error) bool {
	if se, ok := err.(oss.ServiceError); ok {
		return se.StatusCode == 404
	}
	return false
}

func isConflict(err error) bool {
	if se, ok := err.(oss.ServiceError); ok {
		return se.StatusCode == 409 || se.Code == "FileAlreadyExists"
	}
	return false
}
