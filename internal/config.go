package internal

import (
	"fmt"
	"time"

	"github.com/hbomb79/Snag/internal/download/credentials"
	"github.com/ilyakaznacheev/cleanenv"
)

// SnagConfig is the process-wide configuration, populated once at
// startup from an optional YAML file and the environment. It is the
// only place environment state is read; components receive their
// configuration explicitly.
type SnagConfig struct {
	ApiHostAddr       string           `yaml:"host" env:"HOST_ADDR" env-default:"0.0.0.0"`
	ApiHostPort       string           `yaml:"port" env:"PORT" env-default:"8080"`
	DownloadDirPath   string           `yaml:"download_dir" env:"DOWNLOAD_DIR"`
	RequestTimeout    time.Duration    `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"10m"`
	YtDlpBinaryPath   string           `yaml:"yt_dlp_path" env:"YTDLP_PATH" env-default:"yt-dlp"`
	FfmpegBinaryPath  string           `yaml:"ffmpeg_path" env:"FFMPEG_PATH" env-default:"/usr/bin/ffmpeg"`
	FfprobeBinaryPath string           `yaml:"ffprobe_path" env:"FFPROBE_PATH" env-default:"/usr/bin/ffprobe"`
	Credentials       CredentialConfig `yaml:"credentials"`
}

// CredentialConfig holds the optional, environment-supplied secrets.
// All are read once at process start; rotating them requires a
// restart. Values are never logged.
type CredentialConfig struct {
	YoutubeCookies    string `yaml:"youtube_cookies" env:"YOUTUBE_COOKIES_FILE_CONTENT"`
	InstagramSession  string `yaml:"instagram_session" env:"INSTAGRAM_SESSION_FILE_CONTENT"`
	InstagramUsername string `yaml:"instagram_username" env:"INSTAGRAM_USERNAME"`
	InstagramPassword string `yaml:"instagram_password" env:"INSTAGRAM_PASSWORD"`
}

// YoutubeCookieSecret wraps the cookie blob for materialization; the
// value is base64-encoded cookie text in Netscape cookie-jar format.
func (config CredentialConfig) YoutubeCookieSecret() credentials.Secret {
	return credentials.Secret{
		Name:     "YOUTUBE_COOKIES_FILE_CONTENT",
		Value:    config.YoutubeCookies,
		Encoding: credentials.EncodingBase64,
	}
}

// InstagramSessionSecret wraps the session blob: a base64-encoded
// JSON object of session cookie name/value pairs.
func (config CredentialConfig) InstagramSessionSecret() credentials.Secret {
	return credentials.Secret{
		Name:     "INSTAGRAM_SESSION_FILE_CONTENT",
		Value:    config.InstagramSession,
		Encoding: credentials.EncodingBase64,
	}
}

// LoadFromFile populates the config from a YAML file, with
// environment variables taking precedence per cleanenv semantics.
func (config *SnagConfig) LoadFromFile(configPath string) error {
	if err := cleanenv.ReadConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to load configuration from '%s': %w", configPath, err)
	}

	return nil
}

// LoadFromEnv populates the config from the environment only, for
// deployments that supply no config file.
func (config *SnagConfig) LoadFromEnv() error {
	if err := cleanenv.ReadEnv(config); err != nil {
		return fmt.Errorf("failed to load configuration from environment: %w", err)
	}

	return nil
}
