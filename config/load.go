package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/goliatone/go-print"
	flags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Options controls where Load looks for settings
type Options struct {
	// File is an optional YAML file
	File string
	// DotEnv files are loaded into the process environment, missing
	// files are ignored
	DotEnv []string
	// Args are command-line flags in --long form, usually os.Args[1:]
	Args []string
	// Getenv defaults to os.Getenv
	Getenv func(string) string
}

// Load builds a Config by applying defaults, then overlaying a YAML
// file, .env files, environment variables and flags, then validating.
func Load(opts Options) (*Config, error) {
	if len(opts.DotEnv) > 0 {
		if err := loadDotEnv(opts.DotEnv...); err != nil {
			return nil, err
		}
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	env := getenv("ZEEN_ENV")
	file := opts.File
	peeked := peekFlags(opts.Args)
	if peeked.Env != "" {
		env = peeked.Env
	}
	if peeked.Config != "" {
		file = peeked.Config
	}

	cfg := Defaults(env)

	if file != "" {
		if err := cfg.overlayYAML(file); err != nil {
			return nil, err
		}
	}

	cfg.overlayEnv(getenv)

	if err := cfg.parseFlags(opts.Args); err != nil {
		return nil, err
	}

	cfg.Env = normalizeEnv(cfg.Env)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Dump renders the config as JSON with secrets omitted
func (c *Config) Dump() string {
	return print.MaybePrettyJSON(c)
}

func loadDotEnv(files ...string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func (c *Config) overlayYAML(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, c)
}

func (c *Config) overlayEnv(getenv func(string) string) {
	if v := getenv("ZEEN_SECRET_KEY"); v != "" {
		c.Auth.SecretKey = v
	}
	if v := getenv("ZEEN_ADMIN"); v != "" {
		c.Auth.AdminEmail = v
	}
	if v := getenv("ZEEN_ADDR"); v != "" {
		c.App.Addr = v
	}
	if v := getenv("ZEEN_LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := getenv("ZEEN_MAIL_SUBJECT_PREFIX"); v != "" {
		c.Mail.SubjectPrefix = v
	}
	if v := getenv("ZEEN_MAIL_SENDER"); v != "" {
		c.Mail.Sender = v
	}
	if v := getenv("ZEEN_DB_DRIVER"); v != "" {
		c.Persistence.Driver = v
	}

	dsnVar := "DEV_DATABASE_URI"
	switch c.Env {
	case EnvTesting:
		dsnVar = "TEST_DATABASE_URI"
	case EnvProduction:
		dsnVar = "DATABASE_URI"
	}
	if v := getenv(dsnVar); v != "" {
		c.Persistence.DSN = v
	}

	if v := getenv("ZEEN_POSTS_PER_PAGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Pagination.PostsPerPage = n
		}
	}
	if v := getenv("ZEEN_FOLLOWERS_PER_PAGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Pagination.FollowersPerPage = n
		}
	}
}

// flagOptions mirrors the command-line flags. Empty values leave the
// config untouched.
type flagOptions struct {
	Env       string `long:"env" description:"environment: development, testing or production"`
	Config    string `long:"config" description:"path to a YAML config file"`
	Addr      string `long:"addr" description:"HTTP listen address"`
	LogLevel  string `long:"log-level" description:"log level {trace, debug, info, warn, error, critical, off}"`
	Debug     bool   `long:"debug" description:"debug mode"`
	DBDriver  string `long:"db-driver" description:"database driver: sqlite or postgres"`
	DB        string `long:"db" description:"database DSN"`
	Migrate   bool   `long:"migrate" description:"apply migrations at start"`
	NoMigrate bool   `long:"no-migrate" description:"do not apply migrations at start"`
	Admin     string `long:"admin" description:"administrator email"`
}

// peekFlags reads --env and --config ahead of the full parse since they
// decide which defaults and file apply.
func peekFlags(args []string) flagOptions {
	opts := flagOptions{}
	parser := flags.NewParser(&opts, flags.IgnoreUnknown)
	_, _ = parser.ParseArgs(args)
	return opts
}

func (c *Config) parseFlags(args []string) error {
	opts := flagOptions{}
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "zeen"
	if _, err := parser.ParseArgs(args); err != nil {
		return err
	}
	c.applyFlags(opts)
	return nil
}

func (c *Config) applyFlags(opts flagOptions) {
	if opts.Env != "" {
		c.Env = opts.Env
	}
	if opts.Addr != "" {
		c.App.Addr = opts.Addr
	}
	if opts.LogLevel != "" {
		c.App.LogLevel = opts.LogLevel
	}
	if opts.Debug {
		c.App.Debug = true
	}
	if opts.DBDriver != "" {
		c.Persistence.Driver = opts.DBDriver
	}
	if opts.DB != "" {
		c.Persistence.DSN = opts.DB
	}
	if opts.Migrate {
		c.Persistence.Migrate = true
	}
	if opts.NoMigrate {
		c.Persistence.Migrate = false
	}
	if opts.Admin != "" {
		c.Auth.AdminEmail = opts.Admin
	}
}
