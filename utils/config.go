package utils

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config holds all service settings. It is built once in main and passed to
// the component constructors; nothing reads it through a global.
type Config struct {
	Service struct {
		Name string `yaml:"name"`
	} `yaml:"service"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Cache struct {
		URL string `yaml:"url"`
	} `yaml:"cache"`
	Storage struct {
		Endpoint  string `yaml:"endpoint"`
		Bucket    string `yaml:"bucket"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		UseSSL    bool   `yaml:"use_ssl"`
	} `yaml:"storage"`
	LabelStudio struct {
		BaseURL       string `yaml:"base_url"`
		APIKey        string `yaml:"api_key"`
		WebhookSecret string `yaml:"webhook_secret"`
		MediaToken    string `yaml:"media_token"`
		LabelConfig   string `yaml:"label_config"`
	} `yaml:"label_studio"`
	Public struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"public"`
}

// ParseFlags Parse the command line flags and validate the config path
func ParseFlags() (string, bool, error) {
	var configPath string
	var debugMode bool

	flag.StringVar(&configPath, "config", "", "path to the yaml config file")
	flag.BoolVar(&debugMode, "debug", false, "enable debug mode")
	flag.Parse()

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return "", false, fmt.Errorf("config file %s: %w", configPath, err)
		}
	}
	return configPath, debugMode, nil
}

// NewConfig Build the config from defaults, an optional yaml file and
// environment variables (highest precedence). A .env file is honoured when
// present.
func NewConfig(configPath string) (*Config, error) {
	config := &Config{}
	config.Service.Name = "labelbridge"
	config.Server.Port = "8080"
	config.Database.URL = "labelbridge.sqlite"

	if configPath != "" {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(config); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", configPath, err)
		}
	}

	// .env is optional; environment always wins over the file.
	_ = godotenv.Load()
	overrideFromEnv(config)

	return config, nil
}

func overrideFromEnv(config *Config) {
	setFromEnv(&config.Service.Name, "SERVICE_NAME")
	setFromEnv(&config.Server.Port, "PORT")
	setFromEnv(&config.Database.URL, "DATABASE_URL")
	setFromEnv(&config.Cache.URL, "REDIS_URL")
	setFromEnv(&config.Storage.Endpoint, "STORAGE_ENDPOINT")
	setFromEnv(&config.Storage.Bucket, "STORAGE_BUCKET")
	setFromEnv(&config.Storage.AccessKey, "STORAGE_ACCESS_KEY")
	setFromEnv(&config.Storage.SecretKey, "STORAGE_SECRET_KEY")
	setFromEnv(&config.LabelStudio.BaseURL, "LABEL_STUDIO_BASE_URL")
	setFromEnv(&config.LabelStudio.APIKey, "LABEL_STUDIO_API_KEY")
	setFromEnv(&config.LabelStudio.WebhookSecret, "LABEL_STUDIO_WEBHOOK_SECRET")
	setFromEnv(&config.LabelStudio.MediaToken, "LABEL_STUDIO_MEDIA_TOKEN")
	setFromEnv(&config.LabelStudio.LabelConfig, "LABEL_STUDIO_LABEL_CONFIG")
	setFromEnv(&config.Public.BaseURL, "PUBLIC_BASE_URL")
	if v, ok := os.LookupEnv("STORAGE_USE_SSL"); ok {
		config.Storage.UseSSL = v == "true" || v == "1"
	}
}

func setFromEnv(target *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*target = v
	}
}
