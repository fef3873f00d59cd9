package config

import (
	"log"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type EnvConfig struct {
	AppPort        string
	DatabaseURL    string
	AllowedOrigins string
	JWTSecret      string
	GatewayToken   string
	ServiceToken   string
	AppBaseURL     string
	Timezone       string

	NotifyWebhookURL      string
	MeetingLinkWebhookURL string
	ProfileSyncURL        string
	ElasticURL            string

	CloudflareAccountID string
	R2AccessKeyID       string
	R2AccessKeySecret   string
	R2BucketName        string
	CDNBaseURL          string
}

var Env EnvConfig

// Location is the zone used for calendar-day comparisons. Set by LoadEnv.
var Location = time.UTC

func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	Env.AppPort = getenv("APP_PORT", "5200")
	Env.DatabaseURL = os.Getenv("DATABASE_URL")
	Env.AllowedOrigins = normalizeOrigins(getenv("ALLOWED_ORIGINS", "http://localhost:3000"))
	Env.JWTSecret = os.Getenv("JWT_SECRET")
	Env.GatewayToken = os.Getenv("GATEWAY_TOKEN")
	Env.ServiceToken = os.Getenv("SERVICE_TOKEN")
	Env.AppBaseURL = strings.TrimRight(getenv("APP_BASE_URL", "http://localhost:3000"), "/")
	Env.Timezone = getenv("APP_TIMEZONE", "UTC")

	Env.NotifyWebhookURL = os.Getenv("NOTIFY_WEBHOOK_URL")
	Env.MeetingLinkWebhookURL = os.Getenv("MEETING_LINK_WEBHOOK_URL")
	Env.ProfileSyncURL = os.Getenv("PROFILE_SYNC_URL")
	Env.ElasticURL = os.Getenv("ELASTIC_URL")

	Env.CloudflareAccountID = os.Getenv("CLOUDFLARE_ACCOUNT_ID")
	Env.R2AccessKeyID = os.Getenv("R2_ACCESS_KEY_ID")
	Env.R2AccessKeySecret = os.Getenv("R2_ACCESS_KEY_SECRET")
	Env.R2BucketName = os.Getenv("R2_BUCKET_NAME")
	Env.CDNBaseURL = os.Getenv("CDN_BASE_URL")

	loc, err := time.LoadLocation(Env.Timezone)
	if err != nil {
		log.Fatalf("invalid APP_TIMEZONE %q: %v", Env.Timezone, err)
	}
	Location = loc
}

// MustHave aborts startup when a required variable is empty.
func MustHave(name, value string) {
	if value == "" {
		log.Fatalf("%s environment variable not set", name)
	}
}

// R2Enabled reports whether attachment uploads can be served.
func (e EnvConfig) R2Enabled() bool {
	return e.CloudflareAccountID != "" && e.R2BucketName != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func normalizeOrigins(raw string) string {
	parts := strings.Split(raw, ",")
	for i, origin := range parts {
		parts[i] = strings.TrimSpace(origin)
	}
	return strings.Join(parts, ",")
}
