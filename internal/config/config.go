package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Settings struct {
	ServerPort     int
	RedisAddr      string
	RedisPassword  string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MediaBucket    string
	PublicBaseURL  string
	AppOrigin      string
	ManifestURLs   []string
	ListingAPIURL  string
	ListingTTL     time.Duration
	OfflineShell   string
}

func Load() (*Settings, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found; proceeding with OS environment variables")
	}

	viper.AutomaticEnv()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	viper.SetDefault("LISTING_TTL", 300)
	viper.SetDefault("OFFLINE_SHELL", "/index.html")

	if !viper.IsSet("SERVER_PORT") {
		return nil, fmt.Errorf("SERVER_PORT is required")
	}
	if !viper.IsSet("MINIO_ENDPOINT") {
		return nil, fmt.Errorf("MINIO_ENDPOINT is required")
	}
	if !viper.IsSet("MINIO_ACCESS_KEY") {
		return nil, fmt.Errorf("MINIO_ACCESS_KEY is required")
	}
	if !viper.IsSet("MINIO_SECRET_KEY") {
		return nil, fmt.Errorf("MINIO_SECRET_KEY is required")
	}
	if !viper.IsSet("MEDIA_BUCKET") {
		return nil, fmt.Errorf("MEDIA_BUCKET is required")
	}
	if !viper.IsSet("PUBLIC_BASE_URL") {
		return nil, fmt.Errorf("PUBLIC_BASE_URL is required")
	}

	var manifestURLs []string
	for _, u := range strings.Split(viper.GetString("MANIFEST_URLS"), ",") {
		if u = strings.TrimSpace(u); u != "" {
			manifestURLs = append(manifestURLs, u)
		}
	}

	return &Settings{
		ServerPort:     viper.GetInt("SERVER_PORT"),
		RedisAddr:      viper.GetString("REDIS_ADDR"),
		RedisPassword:  viper.GetString("REDIS_PASSWORD"),
		MinioEndpoint:  viper.GetString("MINIO_ENDPOINT"),
		MinioAccessKey: viper.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey: viper.GetString("MINIO_SECRET_KEY"),
		MinioUseSSL:    viper.GetBool("MINIO_USE_SSL"),
		MediaBucket:    viper.GetString("MEDIA_BUCKET"),
		PublicBaseURL:  strings.TrimRight(viper.GetString("PUBLIC_BASE_URL"), "/"),
		AppOrigin:      strings.TrimRight(viper.GetString("APP_ORIGIN"), "/"),
		ManifestURLs:   manifestURLs,
		ListingAPIURL:  viper.GetString("LISTING_API_URL"),
		ListingTTL:     time.Duration(viper.GetInt("LISTING_TTL")) * time.Second,
		OfflineShell:   viper.GetString("OFFLINE_SHELL"),
	}, nil
}
