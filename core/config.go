package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var build = "dev" // set on build

type Config struct {
	Debug        bool
	TestMode     bool
	Env          string // DEV (default), TEST, QA, PROD
	Build        string
	AppName      string
	SecretKey    string
	RollbarToken string

	Server struct {
		Host            string
		Addr            string
		DebugAddr       string
		ShutdownTimeout time.Duration
		JWTExpiration   time.Duration
	}

	// Remote is the persistence backend all entity data lives in.
	Remote struct {
		URL     string // REST endpoint, e.g. https://xyz.supabase.co/rest/v1
		APIKey  string
		Timeout time.Duration

		// Engine picks the backend: "rest" (hosted row store), "postgres"
		// (self-hosted, direct connection) or "inmem" (dev/tests).
		Engine     string
		Name       string
		User       string
		Password   string
		Address    string
		DisableTLS bool
	}

	Cache struct {
		Name    string
		Version string
		Path    string
		// OriginURL is where the application shell and static assets live;
		// the gateway proxies anything that is not /api there.
		OriginURL  string
		OfflineURL string
		Assets     []string
	}
}

// offlineAssets is the fixed manifest precached at install time. Changing any
// of these assets requires bumping cache.version so old caches get dropped.
var offlineAssets = []string{
	"/",
	"/index.html",
	"/offline.html",
	"/manifest.json",
	"/favicon.ico",
	"/icons/icon-72x72.png",
	"/icons/icon-96x96.png",
	"/icons/icon-128x128.png",
	"/icons/icon-144x144.png",
	"/icons/icon-152x152.png",
	"/icons/icon-192x192.png",
	"/icons/icon-384x384.png",
	"/icons/icon-512x512.png",
	"/index.css",
	"/main.js",
	"/fonts/Aeonik-Regular.woff2",
	"/fonts/Aeonik-Medium.woff2",
	"/fonts/Aeonik-Bold.woff2",
}

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Kipi")
	v.SetDefault("secretKey", "w3lc0me-t0-k1p1-ch4ng3-m3-1n-pr0d")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.debugAddr", ":8001")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpiration", 7*24*time.Hour)
	v.SetDefault("remote.url", "http://localhost:3000")
	v.SetDefault("remote.timeout", 10*time.Second)
	v.SetDefault("remote.engine", "rest")
	v.SetDefault("remote.name", "kipi")
	v.SetDefault("remote.address", "localhost:5432")
	v.SetDefault("remote.disableTLS", true)
	v.SetDefault("cache.name", "kipi")
	v.SetDefault("cache.version", "v1")
	v.SetDefault("cache.path", filepath.Join(os.TempDir(), "kipi-cache.db"))
	v.SetDefault("cache.originURL", "http://localhost:5173")
	v.SetDefault("cache.offlineURL", "/offline.html")

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Debug:        v.GetBool("debug"),
		TestMode:     env == "TEST",
		Env:          env,
		Build:        build,
		AppName:      v.GetString("appName"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
	}
	conf.Server.Host = v.GetString("server.host")
	conf.Server.Addr = v.GetString("server.addr")
	conf.Server.DebugAddr = v.GetString("server.debugAddr")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")
	conf.Server.JWTExpiration = v.GetDuration("server.jwtExpiration")
	conf.Remote.URL = v.GetString("remote.url")
	conf.Remote.APIKey = v.GetString("remote.apiKey")
	conf.Remote.Timeout = v.GetDuration("remote.timeout")
	conf.Remote.Engine = v.GetString("remote.engine")
	conf.Remote.Name = v.GetString("remote.name")
	conf.Remote.User = v.GetString("remote.user")
	conf.Remote.Password = v.GetString("remote.password")
	conf.Remote.Address = v.GetString("remote.address")
	conf.Remote.DisableTLS = v.GetBool("remote.disableTLS")
	conf.Cache.Name = v.GetString("cache.name")
	conf.Cache.Version = v.GetString("cache.version")
	conf.Cache.Path = v.GetString("cache.path")
	conf.Cache.OriginURL = v.GetString("cache.originURL")
	conf.Cache.OfflineURL = v.GetString("cache.offlineURL")
	conf.Cache.Assets = offlineAssets
	return conf
}

// CacheName returns the versioned cache name, e.g. "kipi-v1".
// Bumping Cache.Version is the only cache invalidation mechanism.
func (c *Config) CacheName() string {
	return c.Cache.Name + "-" + c.Cache.Version
}
