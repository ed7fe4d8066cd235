package config

import "testing"

func validBase() Config {
	return Config{
		App:    AppConfig{Env: "local", Port: 8080},
		DB:     DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "autocall", SSLMode: ""},
		Auth:   AuthConfig{JWTSecret: "secret", AdminAPIKey: "k"},
		Twilio: TwilioConfig{AccountSID: "AC123", AuthToken: "tok"},
		OpenAI: OpenAIConfig{APIKey: "sk-test"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "autocall"
	c.Auth.JWTAudience = "autocall-admin"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.OpenAI.Model != "whisper-1" || c.OpenAI.Language != "ja" {
		t.Fatalf("expected whisper defaults, got %q %q", c.OpenAI.Model, c.OpenAI.Language)
	}
	if c.Survey.SpeakLanguage != "ja-JP" {
		t.Fatalf("expected speak language default, got %q", c.Survey.SpeakLanguage)
	}
	if c.Survey.DownloadMaxAttempts != 5 {
		t.Fatalf("expected 5 download attempts, got %d", c.Survey.DownloadMaxAttempts)
	}
}

func TestValidate_RedisOptional(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.RedisEnabled() {
		t.Fatalf("expected redis disabled with no host")
	}

	c = validBase()
	c.Redis = RedisConfig{Host: "localhost", Port: 6379}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !c.RedisEnabled() {
		t.Fatalf("expected redis enabled")
	}
}
