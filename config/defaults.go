package config

const defaultSecretKey = "hard to guess string"

// Defaults returns the settings for env before any overlay is applied
func Defaults(env string) *Config {
	env = normalizeEnv(env)

	c := &Config{
		Env: env,
		App: App{
			Name:     "zeen",
			Addr:     ":5000",
			BaseURL:  "http://localhost:5000",
			LogLevel: "info",
		},
		Auth: Auth{
			SecretKey:             defaultSecretKey,
			Issuer:                "zeen",
			TokenExpiration:       24,
			ExtendedTokenDuration: 24 * 14,
			ActionTokenExpiration: 3600,
		},
		Persistence: Persistence{
			Driver:  "sqlite",
			Migrate: true,
		},
		Mail: Mail{
			SubjectPrefix: "[Zeen]",
			Sender:        "Zeen Admin <zeen@example.com>",
		},
		Pagination: Pagination{
			PostsPerPage:     10,
			FollowersPerPage: 20,
		},
	}

	switch env {
	case EnvTesting:
		c.App.LogLevel = "warn"
		c.Persistence.DSN = "file::memory:?cache=shared"
	case EnvProduction:
		c.Persistence.DSN = "file:data.sqlite"
	default:
		c.App.Debug = true
		c.App.LogLevel = "debug"
		c.Persistence.DSN = "file:data-dev.sqlite"
	}

	return c
}
