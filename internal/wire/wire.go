package wire

import (
	"Vista/internal/api"
	"Vista/internal/api/config"
	"Vista/internal/api/handler"
	"Vista/internal/job"
	"Vista/internal/pkg/cron"
	"Vista/internal/pkg/kafka"
	"Vista/internal/pkg/media"
	"Vista/internal/pkg/minio"
	"Vista/internal/pkg/mongo"
	"Vista/internal/pkg/ws"
	"Vista/internal/repository"
	"Vista/internal/service"
	"fmt"

	"github.com/gin-gonic/gin"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router     *gin.Engine
	DB         *gorm.DB
	Mongo      *mongodrv.Database
	Dispatcher service.TranscodeDispatcher
	Registry   *ws.Registry
	Relay      *ws.Relay // local 模式下为 nil
	CronMgr    *cron.Manager
	Producer   *kafka.MediaEventProducer
}

func BuildApplication(db *gorm.DB, mongoDB *mongodrv.Database, cfg *config.Config) (*ApplicationContainer, error) {
	postRepo := mongo.NewPostRepo(mongoDB)
	userPostRepo := repository.NewUserPostRepo(db)
	jobRepo := repository.NewTranscodeJobRepo(db)

	storage := minio.NewStorage(cfg.MinIO)
	registry := ws.NewRegistry()

	producer, err := kafka.NewMediaEventProducer(cfg.Kafka)
	if err != nil {
		return nil, err
	}
	var events service.MediaEventSink
	if producer != nil {
		events = producer
	}

	mediaCfg := cfg.Media
	imageProc := media.NewImageProcessor(mediaCfg.ImageMaxWidth, mediaCfg.ImageMaxHeight, mediaCfg.ImageQuality)
	ffmpeg := media.NewFFmpeg(cfg.LibPath.FFmpeg, cfg.LibPath.FFprobe, mediaCfg.ThumbnailWidth, mediaCfg.ThumbnailHeight)
	videoProc := media.NewVideoProcessor(ffmpeg, mediaCfg.MaxVideoSeconds, mediaCfg.ScratchDir)

	reconciler := service.NewMediaReconciler(postRepo)
	publisher, relay, err := newRealtime(cfg.Realtime, registry)
	if err != nil {
		return nil, err
	}
	notifier := service.NewMediaNotifier(publisher, events, storage)
	pipeline := service.NewVideoPipeline(videoProc, storage, reconciler, notifier, jobRepo, mediaCfg.ObjectPrefixFormat)
	dispatcher := service.NewTranscodeDispatcher(pipeline, service.TranscodeDispatcherConfig{
		Workers:   cfg.Transcode.Workers,
		QueueSize: cfg.Transcode.QueueSize,
		Timeout:   cfg.Transcode.JobTimeout,
	})
	sweeper := service.NewTranscodeSweeper(jobRepo, pipeline)

	postService := service.NewPostService(postRepo, userPostRepo, jobRepo, storage, imageProc, dispatcher, pipeline, mediaCfg)

	handlers := &api.HandlersGroup{
		PostHandler: handler.NewPostHandler(postService, mediaCfg),
		WSHandler:   handler.NewWsHandler(registry),
	}

	router := api.SetupRouter(handlers)

	cronMgr := cron.NewCronManager(cfg.Cron,
		job.NewStaleTranscodeJob(sweeper, cfg.Cron.StaleJobAfter),
		job.NewScratchCleanJob(mediaCfg.ScratchDir, cfg.Cron.ScratchMaxAge),
	)

	return &ApplicationContainer{
		Router:     router,
		DB:         db,
		Mongo:      mongoDB,
		Dispatcher: dispatcher,
		Registry:   registry,
		Relay:      relay,
		CronMgr:    cronMgr,
		Producer:   producer,
	}, nil
}

// newRealtime 按配置选择推送方式，只有 redis 模式需要 Relay 订阅广播
func newRealtime(cfg config.RealtimeConfig, registry *ws.Registry) (service.RealtimePublisher, *ws.Relay, error) {
	switch cfg.Mode {
	case "", ws.ModeRedis:
		return ws.NewRedisPublisher(), ws.NewRelay(registry), nil
	case ws.ModeLocal:
		return ws.NewLocalPublisher(registry), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown realtime mode %q", cfg.Mode)
	}
}
