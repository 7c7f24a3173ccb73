package configs

import (
	"fmt"

	"github.com/spf13/viper"
)

// S3Config MinIO S3存储配置.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	// Bucket 存放全部对象的桶；物理分层通过键前缀表达，不拆桶.
	Bucket string `mapstructure:"bucket"`
	Region string `mapstructure:"region"`
	// PresignExpirySeconds 预签名 GET URL 的有效期（秒）.
	PresignExpirySeconds int `mapstructure:"presign_expiry_seconds" rule:"min=60"`
}

const (
	DefaultS3Endpoint             = "localhost:9000" // 默认S3端点
	DefaultS3AccessKeyID          = "minioadmin"     // 默认访问密钥ID
	DefaultS3SecretAccessKey      = "minioadmin"     // 默认秘密访问密钥
	DefaultS3UseSSL               = false            // 默认是否使用SSL
	DefaultS3Bucket               = "marketvault"    // 默认存储桶名称
	DefaultS3Region               = "us-east-1"      // 默认区域
	DefaultS3PresignExpirySeconds = 4 * 3600         // 预签名有效期需长于 URL 缓存 TTL
)

// GetEndpointURL 获取完整的端点URL.
func (c *S3Config) GetEndpointURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

// setDefaults 设置 S3 配置的默认值.
func (c *S3Config) setDefaults(v *viper.Viper) {
	v.SetDefault("s3.endpoint", DefaultS3Endpoint)
	v.SetDefault("s3.access_key_id", DefaultS3AccessKeyID)
	v.SetDefault("s3.secret_access_key", DefaultS3SecretAccessKey)
	v.SetDefault("s3.use_ssl", DefaultS3UseSSL)
	v.SetDefault("s3.bucket", DefaultS3Bucket)
	v.SetDefault("s3.region", DefaultS3Region)
	v.SetDefault("s3.presign_expiry_seconds", DefaultS3PresignExpirySeconds)
}
