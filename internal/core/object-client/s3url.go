package objectclient

import (
	"fmt"
	"net/url"
	"strings"
)

// PublicURL builds the virtual-hosted style URL of an object.
func PublicURL(bucket, region, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}

// ParseS3URL extracts the bucket and key from a virtual-hosted style S3 URL.
// Example: https://my-bucket.s3.us-east-2.amazonaws.com/path/to/file.pdf
func ParseS3URL(u string) (bucket, key string, ok bool) {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "", "", false
	}

	host := strings.ToLower(parsed.Hostname())
	if !strings.HasSuffix(host, ".amazonaws.com") {
		return "", "", false
	}
	i := strings.Index(host, ".s3.")
	if i <= 0 {
		i = strings.Index(host, ".s3-")
	}
	if i <= 0 {
		return "", "", false
	}

	key = strings.TrimPrefix(parsed.Path, "/")
	if key == "" {
		return "", "", false
	}
	return host[:i], key, true
}
