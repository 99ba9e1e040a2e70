package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"holdem.com/server/logging"
)

var environmentLogger = logging.GetZeroLogger("util::environment", nil)

type gameServerEnvironment struct {
	PersistMethod    string
	RedisHost        string
	RedisPort        string
	RedisPW          string
	RedisDB          string
	NatsURL          string
	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	PostgresUser     string
	PostgresPW       string
	PostgresSSLMode  string
	ActionTimeout    string
	RevealTimeout    string
	RestPort         string
	RPCPort          string
	LogLevel         string
	LogFile          string
	TimeoutRateLimit string
	EnableTimers     string

	v *viper.Viper
}

// Env is a helper object for accessing environment variables.
var Env = newEnvironment()

func newEnvironment() *gameServerEnvironment {
	g := &gameServerEnvironment{
		PersistMethod:    "PERSIST_METHOD",
		RedisHost:        "REDIS_HOST",
		RedisPort:        "REDIS_PORT",
		RedisPW:          "REDIS_PW",
		RedisDB:          "REDIS_DB",
		NatsURL:          "NATS_URL",
		PostgresHost:     "POSTGRES_HOST",
		PostgresPort:     "POSTGRES_PORT",
		PostgresDB:       "POSTGRES_DB",
		PostgresUser:     "POSTGRES_USER",
		PostgresPW:       "POSTGRES_PASSWORD",
		PostgresSSLMode:  "POSTGRES_SSL_MODE",
		ActionTimeout:    "ACTION_TIMEOUT",
		RevealTimeout:    "REVEAL_TIMEOUT",
		RestPort:         "REST_PORT",
		RPCPort:          "RPC_PORT",
		LogLevel:         "LOG_LEVEL",
		LogFile:          "LOG_FILE",
		TimeoutRateLimit: "TIMEOUT_RATE_LIMIT",
		EnableTimers:     "ENABLE_TIMERS",
	}
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault(g.PersistMethod, "memory")
	v.SetDefault(g.RedisDB, 0)
	v.SetDefault(g.PostgresSSLMode, "disable")
	v.SetDefault(g.ActionTimeout, 60)
	v.SetDefault(g.RevealTimeout, 180)
	v.SetDefault(g.RestPort, 8080)
	v.SetDefault(g.RPCPort, 9000)
	v.SetDefault(g.LogLevel, "info")
	v.SetDefault(g.TimeoutRateLimit, 5)
	v.SetDefault(g.EnableTimers, true)
	g.v = v
	return g
}

// Set overrides a value, used by command line flags and tests.
func (g *gameServerEnvironment) Set(key string, value interface{}) {
	g.v.Set(key, value)
}

func (g *gameServerEnvironment) required(key string) string {
	value := g.v.GetString(key)
	if value == "" {
		msg := fmt.Sprintf("%s is not defined", key)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return value
}

func (g *gameServerEnvironment) positiveInt(key string) int {
	value := g.v.GetInt(key)
	if value <= 0 {
		msg := fmt.Sprintf("Invalid value [%s] for %s", g.v.GetString(key), key)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return value
}

func (g *gameServerEnvironment) GetPersistMethod() string {
	method := strings.ToLower(g.required(g.PersistMethod))
	if method != "memory" && method != "redis" {
		msg := fmt.Sprintf("Invalid persist method %s", method)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return method
}

func (g *gameServerEnvironment) GetRedisHost() string {
	return g.required(g.RedisHost)
}

func (g *gameServerEnvironment) GetRedisPort() int {
	return g.positiveInt(g.RedisPort)
}

func (g *gameServerEnvironment) GetRedisPW() string {
	return g.v.GetString(g.RedisPW)
}

func (g *gameServerEnvironment) GetRedisDB() int {
	return g.v.GetInt(g.RedisDB)
}

// GetNatsURL is empty when no audit sink is configured.
func (g *gameServerEnvironment) GetNatsURL() string {
	return g.v.GetString(g.NatsURL)
}

// GetPostgresHost is empty when no chip ledger is configured.
func (g *gameServerEnvironment) GetPostgresHost() string {
	return g.v.GetString(g.PostgresHost)
}

func (g *gameServerEnvironment) GetPostgresPort() int {
	return g.positiveInt(g.PostgresPort)
}

func (g *gameServerEnvironment) GetPostgresUser() string {
	return g.required(g.PostgresUser)
}

func (g *gameServerEnvironment) GetPostgresPW() string {
	return g.required(g.PostgresPW)
}

func (g *gameServerEnvironment) GetPostgresDB() string {
	return g.required(g.PostgresDB)
}

func (g *gameServerEnvironment) GetPostgresSSLMode() string {
	return g.v.GetString(g.PostgresSSLMode)
}

func (g *gameServerEnvironment) GetActionTimeout() time.Duration {
	return time.Duration(g.positiveInt(g.ActionTimeout)) * time.Second
}

func (g *gameServerEnvironment) GetRevealTimeout() time.Duration {
	return time.Duration(g.positiveInt(g.RevealTimeout)) * time.Second
}

func (g *gameServerEnvironment) GetRestPort() int {
	return g.positiveInt(g.RestPort)
}

func (g *gameServerEnvironment) GetRPCPort() int {
	return g.positiveInt(g.RPCPort)
}

func (g *gameServerEnvironment) GetLogLevel() string {
	return g.v.GetString(g.LogLevel)
}

func (g *gameServerEnvironment) GetLogFile() string {
	return g.v.GetString(g.LogFile)
}

// GetTimeoutRateLimit is the number of forced timeout requests per second the REST layer accepts.
func (g *gameServerEnvironment) GetTimeoutRateLimit() int {
	return g.positiveInt(g.TimeoutRateLimit)
}

func (g *gameServerEnvironment) ShouldEnableTimers() bool {
	return g.v.GetBool(g.EnableTimers)
}
