package config

import "time"

func LoadTestConfig() *Config {
	return &Config{
		Env: "test",
		Server: ServerConfig{
			Host: "localhost",
			Port: 8081,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Name:     "menuhub_test",
			User:     "test_user",
			Password: "test_password",
		},
		JWT: JWTConfig{
			Secret:          "test-secret-do-not-use",
			Issuer:          "menuhub-test",
			AbsoluteSession: time.Hour,
		},
		Cookie: CookieConfig{
			Name:     "menuhub_session",
			SameSite: "lax",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		},
		Login: LoginConfig{
			MaxAttempts: 5,
			Window:      time.Minute,
		},
		Cleanup: CleanupConfig{
			GuestSchedule:  "0 3 * * *",
			GuestRetention: 24 * time.Hour,
		},
	}
}
