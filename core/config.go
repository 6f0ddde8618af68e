package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env          string
		Debug        bool
		TestMode     bool
		AppName      string
		Build        string
		SecretKey    string
		RollbarToken string
		Server       ServerConfig
		Database     DatabaseConfig
		Metrics      MetricsConfig
		Rules        RulesConfig
	}

	ServerConfig struct {
		Address         string
		Host            string
		DisableReqLogs  bool
		ShutdownTimeout time.Duration
		JWTExpiration   time.Duration
	}

	DatabaseConfig struct {
		Engine     string // postgres | sqlite
		Host       string
		Port       int
		Name       string
		User       string
		Password   string
		DisableTLS bool
		Path       string // sqlite only
	}

	MetricsConfig struct {
		Namespace string
		Subsystem string
	}

	RulesConfig struct {
		RollbackMaxAge time.Duration
		StudentIDOrder string
		TeacherIDOrder string
		ElevatedRoles  []string
		BulkMaxItems   int
		PolicyFile     string
	}
)

// Address returns the database "host:port".
func (db DatabaseConfig) Address() string {
	if db.Port == 0 {
		return db.Host
	}
	return db.Host + ":" + itoa(db.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Masomo Guard")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.jwtExpiration", 10*time.Minute)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "masomo")
	v.SetDefault("database.user", "masomo")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", "masomo.db")

	v.SetDefault("metrics.namespace", "masomo")
	v.SetDefault("metrics.subsystem", "guard")

	v.SetDefault("rules.rollbackMaxAge", 90*24*time.Hour)
	v.SetDefault("rules.studentIDOrder", "reversed")
	v.SetDefault("rules.teacherIDOrder", "as_provided")
	v.SetDefault("rules.elevatedRoles", []string{"admin:owner", "admin:principal", "admin:"})
	v.SetDefault("rules.bulkMaxItems", 200)
	v.SetDefault("rules.policyFile", "")
}

// NewConfig loads the configuration for the current ENV (DEV (default), TEST, QA, PROD).
// Values come from the defaults, then config/.env.<env> (if it exists), then the environment
// variables prefixed with the ENV name (eg. DEV_DATABASE_HOST).
func NewConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	confDir := os.Getenv("CONFIG_DIR")
	if confDir == "" {
		confDir = "config"
	}
	dotEnvPath := filepath.Join(confDir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	conf.Env = env
	return conf, nil
}
