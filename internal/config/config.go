package config

import "github.com/spf13/viper"

type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Auth   AuthConfig
	AI     AIConfig
	Events EventsConfig
	Log    LogConfig
}

type ServerConfig struct {
	Port           int
	AllowedOrigins string
}

type StoreConfig struct {
	// DatabaseURL selects the remote backend when set. Empty means the
	// local JSON-file backend.
	DatabaseURL string
	// DataDir is where the local backend keeps its JSON files.
	DataDir string
	// S3Bucket enables product image uploads on the remote backend.
	S3Bucket string
	Region   string
}

type AuthConfig struct {
	JWTSecret     string
	AdminUser     string
	AdminPassword string
}

type AIConfig struct {
	OpenAIAPIKey string
}

type EventsConfig struct {
	// KafkaBrokers is a comma-separated broker list. Empty disables events.
	KafkaBrokers string
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("DATA_DIR", "./data")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("JWT_SECRET", "dev-secret-change-me")
	viper.SetDefault("ADMIN_USER", "admin")
	viper.SetDefault("ADMIN_PASSWORD", "admin")
	viper.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		Server: ServerConfig{
			Port:           viper.GetInt("SERVER_PORT"),
			AllowedOrigins: viper.GetString("ALLOWED_ORIGINS"),
		},
		Store: StoreConfig{
			DatabaseURL: viper.GetString("DATABASE_URL"),
			DataDir:     viper.GetString("DATA_DIR"),
			S3Bucket:    viper.GetString("S3_BUCKET"),
			Region:      viper.GetString("AWS_REGION"),
		},
		Auth: AuthConfig{
			JWTSecret:     viper.GetString("JWT_SECRET"),
			AdminUser:     viper.GetString("ADMIN_USER"),
			AdminPassword: viper.GetString("ADMIN_PASSWORD"),
		},
		AI: AIConfig{
			OpenAIAPIKey: viper.GetString("OPENAI_API_KEY"),
		},
		Events: EventsConfig{
			KafkaBrokers: viper.GetString("KAFKA_BROKERS"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}

	return cfg, nil
}
