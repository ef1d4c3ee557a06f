package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf holds the app-wide configuration. It is populated once at startup
// from the environment, after loading an optional config/.env.<env> file.
var Conf Config

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string // dev (default) | test | qa | prod
		Build    string

		AppName         string
		SecretKey       []byte
		FrontendBaseURL string
		WorkDir         string
		DefaultFromName string
		DefaultFromAddr string
		SendgridApiKey  string
		RollbarToken    string

		// built-in general secretary account, seeded at startup
		GeneralSecretaryUsername string
		GeneralSecretaryPassword string
		GeneralSecretaryName     string

		Server   ServerConfig
		Database DatabaseConfig

		PasswordResetTimeoutDelta time.Duration
		InventoryCheckInterval    time.Duration
	}

	ServerConfig struct {
		Host                      string
		Port                      string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}
)

func (c Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromAddr}
}

func (c ServerConfig) Address() string { return net.JoinHostPort(c.Host, c.Port) }

func (c DatabaseConfig) Address() string { return net.JoinHostPort(c.Host, c.Port) }

func init() {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "EBD")
	v.SetDefault("secretKey", "x0q5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontendBaseURL", "http://localhost:8080")
	v.SetDefault("defaultFromName", "EBD")
	v.SetDefault("defaultFromAddr", "noreply@localhost")
	v.SetDefault("secretaryUsername", "secretario")
	v.SetDefault("secretaryPassword", "123456")
	v.SetDefault("secretaryName", "Secretário Geral")
	v.SetDefault("serverHost", "0.0.0.0")
	v.SetDefault("serverPort", "8000")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("inventoryCheckInterval", time.Hour)
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbName", "ebd")
	v.SetDefault("dbUser", "ebd")
	v.SetDefault("dbDisableTLS", true)

	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" {
		env = "dev"
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+env)
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	Conf = Config{
		Debug:    v.GetBool("debug"),
		TestMode: env == "test",
		Env:      env,
		Build:    v.GetString("build"),

		AppName:         v.GetString("appName"),
		SecretKey:       []byte(v.GetString("secretKey")),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		WorkDir:         Getwd(),
		DefaultFromName: v.GetString("defaultFromName"),
		DefaultFromAddr: v.GetString("defaultFromAddr"),
		SendgridApiKey:  v.GetString("sendgridApiKey"),
		RollbarToken:    v.GetString("rollbarToken"),

		GeneralSecretaryUsername: v.GetString("secretaryUsername"),
		GeneralSecretaryPassword: v.GetString("secretaryPassword"),
		GeneralSecretaryName:     v.GetString("secretaryName"),

		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Port:                      v.GetString("serverPort"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},

		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		InventoryCheckInterval:    v.GetDuration("inventoryCheckInterval"),
	}
}
