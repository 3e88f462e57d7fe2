package config

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"
)

type Config struct {
	AppName string
	Env     string
	AppPort string
	AppUrl  string

	// Database
	DBUrl string

	// External services
	GMapsAPIKey      string
	TwilioAccountSID string
	TwilioAuthToken  string
	SendGridAPIKey   string

	// Auth. Nil only in ENV=dev, where admin routes are open.
	RSAPublicKey *rsa.PublicKey

	// Business timezone used for "today" when a route has no coordinates.
	TimeZone *time.Location

	// LaunchDarkly flags (env fallbacks when LD_SDK_KEY is unset)
	LDFlag_EnforceReadinessGate bool
	LDFlag_AutoGroupNightly     bool
	LDFlag_UseGMapsRoutesAPI    bool
	LDFlag_NotifyRunSheets      bool
	LDFlag_TwilioFromPhone      string
	LDFlag_SendgridFromEmail    string
	LDFlag_SendgridSandboxMode  bool
	LDFlag_CORSHighSecurity     bool
}

const (
	DefaultAppName      = "procan-dispatch"
	LDConnectionTimeout = 5 * time.Second
	EnvDev              = "dev"
)

// build-time overrides
var (
	AppName             string
	LDServerContextKey  string
	LDServerContextKind string
)

// secretSource resolves a key from Bitwarden first, then the process env.
type secretSource struct {
	bws map[string]string
}

func (s secretSource) get(key string) string {
	if v, ok := s.bws[key]; ok && v != "" {
		return v
	}
	return os.Getenv(key)
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		utils.Logger.WithError(err).Warn("Could not read .env file")
	}

	if AppName == "" {
		AppName = DefaultAppName
	}
	utils.Logger.Info("Loading config for app: ", AppName)

	env := os.Getenv("ENV")
	if env == "" {
		utils.Logger.Fatal("ENV env var is missing")
	}
	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}
	appUrl := os.Getenv("APP_URL_FROM_ANYWHERE")
	if appUrl == "" {
		appUrl = "http://localhost:" + appPort
	}

	secrets := secretSource{}
	if token := os.Getenv("BWS_ACCESS_TOKEN"); token != "" {
		var err error
		secrets.bws, err = utils.FetchBWSProjectSecrets(token, os.Getenv("BWS_ORG_ID"), fmt.Sprintf("%s-%s", AppName, env))
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to fetch app secrets from BWS")
		}
	} else {
		utils.Logger.Info("BWS_ACCESS_TOKEN not set; reading secrets from the environment.")
	}

	dbURL := secrets.get("DB_URL")
	if dbURL == "" {
		utils.Logger.Fatal("DB_URL is missing")
	}

	pubKey, err := parseRSAPublicKey(secrets.get("RSA_PUBLIC_KEY_BASE64"))
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA public key")
	}
	if pubKey == nil && env != EnvDev {
		utils.Logger.Fatal("RSA_PUBLIC_KEY_BASE64 is required outside dev")
	}

	loc, err := businessLocation()
	if err != nil {
		utils.Logger.WithError(err).Fatal("Invalid business time zone")
	}

	cfg := &Config{
		AppName:          AppName,
		Env:              env,
		AppPort:          appPort,
		AppUrl:           appUrl,
		DBUrl:            dbURL,
		GMapsAPIKey:      secrets.get("GMAPS_API_KEY"),
		TwilioAccountSID: secrets.get("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  secrets.get("TWILIO_AUTH_TOKEN"),
		SendGridAPIKey:   secrets.get("SENDGRID_API_KEY"),
		RSAPublicKey:     pubKey,
		TimeZone:         loc,
	}

	if ldKey := secrets.get("LD_SDK_KEY"); ldKey != "" {
		loadLDFlags(cfg, ldKey)
	} else {
		utils.Logger.Info("LD_SDK_KEY not set; using env flag defaults.")
		loadEnvFlags(cfg)
	}

	if cfg.LDFlag_UseGMapsRoutesAPI && cfg.GMapsAPIKey == "" {
		utils.Logger.Warn("use_gmaps_routes_api enabled without GMAPS_API_KEY; drive times will be estimated")
		cfg.LDFlag_UseGMapsRoutesAPI = false
	}
	return cfg
}

func loadLDFlags(cfg *Config, sdkKey string) {
	ldClient, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	if !ldClient.Initialized() {
		ldClient.Close()
		utils.Logger.Fatal("LaunchDarkly client failed to initialize")
	}
	defer ldClient.Close()

	kind, key := LDServerContextKind, LDServerContextKey
	if kind == "" {
		kind = "service"
	}
	if key == "" {
		key = cfg.AppName
	}
	ctx := ldcontext.NewWithKind(ldcontext.Kind(kind), key)

	boolFlag := func(name string, def bool) bool {
		v, err := ldClient.BoolVariation(name, ctx, def)
		if err != nil {
			utils.Logger.WithError(err).Fatalf("Error retrieving %s flag", name)
		}
		utils.Logger.Debugf("%s flag: %t", name, v)
		return v
	}
	stringFlag := func(name, def string) string {
		v, err := ldClient.StringVariation(name, ctx, def)
		if err != nil {
			utils.Logger.WithError(err).Fatalf("Error retrieving %s flag", name)
		}
		if v == "" {
			utils.Logger.Warnf("%s flag is empty, defaulting to %s", name, def)
			v = def
		}
		return v
	}

	cfg.LDFlag_EnforceReadinessGate = boolFlag("enforce_readiness_gate", false)
	cfg.LDFlag_AutoGroupNightly = boolFlag("auto_group_nightly", false)
	cfg.LDFlag_UseGMapsRoutesAPI = boolFlag("use_gmaps_routes_api", false)
	cfg.LDFlag_NotifyRunSheets = boolFlag("notify_run_sheets", false)
	cfg.LDFlag_TwilioFromPhone = stringFlag("twilio_from_phone", defaultTwilioFrom)
	cfg.LDFlag_SendgridFromEmail = stringFlag("sendgrid_from_email", defaultSendgridFrom)
	cfg.LDFlag_SendgridSandboxMode = boolFlag("sendgrid_sandbox_mode", false)
	cfg.LDFlag_CORSHighSecurity = boolFlag("cors_high_security", false)
}

const (
	defaultTwilioFrom   = "+10005550006"
	defaultSendgridFrom = "no-reply@procan.local"
)

func loadEnvFlags(cfg *Config) {
	cfg.LDFlag_EnforceReadinessGate = envBool("ENFORCE_READINESS_GATE", false)
	cfg.LDFlag_AutoGroupNightly = envBool("AUTO_GROUP_NIGHTLY", false)
	cfg.LDFlag_UseGMapsRoutesAPI = envBool("USE_GMAPS_ROUTES_API", false)
	cfg.LDFlag_NotifyRunSheets = envBool("NOTIFY_RUN_SHEETS", false)
	cfg.LDFlag_TwilioFromPhone = envString("TWILIO_FROM_PHONE", defaultTwilioFrom)
	cfg.LDFlag_SendgridFromEmail = envString("SENDGRID_FROM_EMAIL", defaultSendgridFrom)
	cfg.LDFlag_SendgridSandboxMode = envBool("SENDGRID_SANDBOX_MODE", cfg.Env == EnvDev)
	cfg.LDFlag_CORSHighSecurity = envBool("CORS_HIGH_SECURITY", false)
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// parseRSAPublicKey returns nil, nil for an empty value.
func parseRSAPublicKey(b64 string) (*rsa.PublicKey, error) {
	if strings.TrimSpace(b64) == "" {
		return nil, nil
	}
	pubPEM, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("RSA_PUBLIC_KEY_BASE64 is not base64: %w", err)
	}
	if block, _ := pem.Decode(pubPEM); block == nil {
		return nil, fmt.Errorf("failed to decode PEM block for public key")
	}
	return jwt.ParseRSAPublicKeyFromPEM(pubPEM)
}

// businessLocation prefers BUSINESS_TIMEZONE, then the zone containing the
// depot (DEPOT_LAT/DEPOT_LNG), then utils.DefaultTimeZone.
func businessLocation() (*time.Location, error) {
	if name := strings.TrimSpace(os.Getenv("BUSINESS_TIMEZONE")); name != "" {
		return time.LoadLocation(name)
	}
	latRaw, lngRaw := os.Getenv("DEPOT_LAT"), os.Getenv("DEPOT_LNG")
	if latRaw != "" && lngRaw != "" {
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
		lng, lngErr := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
		if latErr != nil || lngErr != nil {
			return nil, fmt.Errorf("invalid depot coordinates %q,%q", latRaw, lngRaw)
		}
		return utils.LocationForCoords(lat, lng), nil
	}
	return time.LoadLocation(utils.DefaultTimeZone)
}
