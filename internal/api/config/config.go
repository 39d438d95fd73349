package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg，环境变量 VISTA_* 可覆盖文件中的值
func LoadConfig() error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")

	v.SetEnvPrefix("vista")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg
	return nil
}

// Default 返回只包含默认值的配置，测试与工具代码使用
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Minute)
	v.SetDefault("server.write_timeout", 10*time.Minute)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.max_idle", 10)
	v.SetDefault("database.max_open", 50)
	v.SetDefault("database.max_lifetime", 60)

	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("mongo.database", "vista")

	v.SetDefault("lib_path.ffmpeg", "ffmpeg")
	v.SetDefault("lib_path.ffprobe", "ffprobe")

	v.SetDefault("kafka.media_topic", "post-media")
	v.SetDefault("kafka.producer.retry_max", 3)
	v.SetDefault("kafka.producer.timeout", 5*time.Second)

	v.SetDefault("jwt.issuer", "Vista")

	v.SetDefault("media.max_files", 10)
	v.SetDefault("media.max_file_size", 100<<20)
	v.SetDefault("media.allowed_video_types", []string{
		"video/mp4",
		"video/avi", "video/x-msvideo",
		"video/mov", "video/quicktime",
		"video/wmv", "video/x-ms-wmv",
		"video/flv", "video/x-flv",
	})
	v.SetDefault("media.image_max_width", 800)
	v.SetDefault("media.image_max_height", 800)
	v.SetDefault("media.image_quality", 80)
	v.SetDefault("media.max_video_seconds", 60)
	v.SetDefault("media.thumbnail_width", 320)
	v.SetDefault("media.thumbnail_height", 240)
	v.SetDefault("media.object_prefix_format", "2006/01/02/")

	v.SetDefault("transcode.workers", 2)
	v.SetDefault("transcode.queue_size", 64)

	v.SetDefault("cron.stale_job_spec", "0 */10 * * * *")
	v.SetDefault("cron.stale_job_after", time.Hour)
	v.SetDefault("cron.scratch_clean_spec", "0 0 * * * *")
	v.SetDefault("cron.scratch_max_age", 6*time.Hour)

	v.SetDefault("realtime.mode", "redis")
}
