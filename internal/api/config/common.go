package config

import "time"

// Config 配置主体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	LibPath   LibPathConfig   `mapstructure:"lib_path"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Media     MediaConfig     `mapstructure:"media"`
	Transcode TranscodeConfig `mapstructure:"transcode"`
	Cron      CronConfig      `mapstructure:"cron"`
	Realtime  RealtimeConfig  `mapstructure:"realtime"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	InternalEndpoint string `mapstructure:"internal_endpoint"`
	ExternalEndpoint string `mapstructure:"external_endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	Bucket           string `mapstructure:"bucket"`
	InternalUseSSL   bool   `mapstructure:"internal_use_ssl"`
	ExternalUseSSL   bool   `mapstructure:"external_use_ssl"`
}

// LibPathConfig 外部工具路径
type LibPathConfig struct {
	FFmpeg  string `mapstructure:"ffmpeg"`
	FFprobe string `mapstructure:"ffprobe"`
}

type KafkaConfig struct {
	Brokers    []string       `mapstructure:"brokers"`
	Sasl       SaslConfig     `mapstructure:"sasl"`
	Producer   ProducerConfig `mapstructure:"producer"`
	MediaTopic string         `mapstructure:"media_topic"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ProducerConfig struct {
	RetryMax int           `mapstructure:"retry_max"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// MediaConfig 上传校验与图片处理参数
type MediaConfig struct {
	MaxFiles           int      `mapstructure:"max_files"`
	MaxFileSize        int64    `mapstructure:"max_file_size"`
	AllowedVideoTypes  []string `mapstructure:"allowed_video_types"`
	ImageMaxWidth      int      `mapstructure:"image_max_width"`
	ImageMaxHeight     int      `mapstructure:"image_max_height"`
	ImageQuality       int      `mapstructure:"image_quality"`
	MaxVideoSeconds    float64  `mapstructure:"max_video_seconds"`
	ThumbnailWidth     int      `mapstructure:"thumbnail_width"`
	ThumbnailHeight    int      `mapstructure:"thumbnail_height"`
	ScratchDir         string   `mapstructure:"scratch_dir"`
	ObjectPrefixFormat string   `mapstructure:"object_prefix_format"`
}

// TranscodeConfig 转码工作池
type TranscodeConfig struct {
	Workers    int           `mapstructure:"workers"`
	QueueSize  int           `mapstructure:"queue_size"`
	JobTimeout time.Duration `mapstructure:"job_timeout"`
}

// RealtimeConfig 推送模式，redis 跨实例广播，local 仅投递给本实例的连接
type RealtimeConfig struct {
	Mode string `mapstructure:"mode"`
}

type CronConfig struct {
	StaleJobSpec     string        `mapstructure:"stale_job_spec"`
	StaleJobAfter    time.Duration `mapstructure:"stale_job_after"`
	ScratchCleanSpec string        `mapstructure:"scratch_clean_spec"`
	ScratchMaxAge    time.Duration `mapstructure:"scratch_max_age"`
}
