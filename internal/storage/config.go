package storage

import "os"

// MinIOConfig holds media storage connection configuration
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// LoadMinIOConfig loads media storage config from environment
func LoadMinIOConfig() *MinIOConfig {
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"
	return &MinIOConfig{
		Endpoint:  os.Getenv("MINIO_ENDPOINT"),
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		UseSSL:    useSSL,
		Bucket:    getEnv("MINIO_BUCKET", "livedocs-media"),
	}
}

func getEnv(k, d string) string {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	return v
}
