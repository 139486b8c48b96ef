package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (default), TEST, QA, PROD
		Build    string

		AppName                   string
		SecretKey                 []byte
		WorkDir                   string
		FrontendBaseURL           string
		PasswordResetTimeoutDelta time.Duration

		// StrictLecturePerms also requires course enrollment on lecture
		// update/delete. Off by default: any teacher may manage lectures.
		StrictLecturePerms bool

		Server   ServerConfig
		Database DatabaseConfig
		Email    EmailConfig
		Rollbar  RollbarConfig
		Storage  StorageConfig
	}

	ServerConfig struct {
		Host                      string
		Port                      int
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          int
		DisableTLS    bool
	}

	EmailConfig struct {
		FromEmail      string
		SendgridAPIKey string
	}

	RollbarConfig struct {
		Token string
	}

	StorageConfig struct {
		Backend     string // "local" (default) | "b2"
		MediaRoot   string
		B2AccountID string
		B2AppKey    string
		B2Bucket    string
	}
)

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Conf is the loaded app configuration; set by NewConfig.
var Conf *Config

// NewConfig loads the app configuration from the environment,
// with defaults suitable for local development.
func NewConfig() *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	wd := Getwd()

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Darasa")
	conf.SetDefault("secretKey", "w3lq-xbp)drm$+83=kn&fyuh7(h!z)#*v5(#dy4h^$jwgm9aqs")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	conf.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	conf.SetDefault("strictLecturePerms", false)
	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverPort", 8000)
	conf.SetDefault("dbEngine", "postgres")
	conf.SetDefault("dbName", "darasa")
	conf.SetDefault("dbUser", "darasa")
	conf.SetDefault("dbPassword", "")
	conf.SetDefault("dbAdminUser", "")
	conf.SetDefault("dbAdminPassword", "")
	conf.SetDefault("dbHost", "localhost")
	conf.SetDefault("dbPort", 5432)
	conf.SetDefault("dbDisableTLS", true)
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("storageBackend", "local")
	conf.SetDefault("mediaRoot", filepath.Join(wd, "media"))
	conf.SetDefault("b2AccountId", "")
	conf.SetDefault("b2AppKey", "")
	conf.SetDefault("b2Bucket", "")

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	Conf = &Config{
		Debug:                     conf.GetBool("debug"),
		TestMode:                  env == "TEST",
		Env:                       env,
		Build:                     conf.GetString("build"),
		AppName:                   conf.GetString("appName"),
		SecretKey:                 []byte(conf.GetString("secretKey")),
		WorkDir:                   wd,
		FrontendBaseURL:           conf.GetString("frontendBaseURL"),
		PasswordResetTimeoutDelta: conf.GetDuration("passwordResetTimeoutDelta"),
		StrictLecturePerms:        conf.GetBool("strictLecturePerms"),
		Server: ServerConfig{
			Host:                      conf.GetString("serverHost"),
			Port:                      conf.GetInt("serverPort"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("dbEngine"),
			Name:          conf.GetString("dbName"),
			User:          conf.GetString("dbUser"),
			Password:      conf.GetString("dbPassword"),
			AdminUser:     conf.GetString("dbAdminUser"),
			AdminPassword: conf.GetString("dbAdminPassword"),
			Host:          conf.GetString("dbHost"),
			Port:          conf.GetInt("dbPort"),
			DisableTLS:    conf.GetBool("dbDisableTLS"),
		},
		Email: EmailConfig{
			FromEmail:      conf.GetString("defaultFromEmail"),
			SendgridAPIKey: conf.GetString("sendgridApiKey"),
		},
		Rollbar: RollbarConfig{
			Token: conf.GetString("rollbarToken"),
		},
		Storage: StorageConfig{
			Backend:     conf.GetString("storageBackend"),
			MediaRoot:   conf.GetString("mediaRoot"),
			B2AccountID: conf.GetString("b2AccountId"),
			B2AppKey:    conf.GetString("b2AppKey"),
			B2Bucket:    conf.GetString("b2Bucket"),
		},
	}
	return Conf
}
