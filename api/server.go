package api

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"bazar/adapters/cache"
	pgStore "bazar/adapters/postgres"
	"bazar/adapters/redlock"
	internalS3 "bazar/adapters/s3"
	"bazar/adapters/sse"
	"bazar/adapters/stream"
	"bazar/i18n"
	"bazar/offers"
)

type ServerImpl struct {
	db           *gorm.DB
	redisClient  *redis.Client
	s3Operator   *internalS3.Operator
	htmlChecker  *bluemonday.Policy
	translator   *i18n.Translator
	tokens       *TokenIssuer
	store        *pgStore.Store
	cache        *cache.Cache
	offerService *offers.Service
	statsReader  *offers.StatsReader
	producer     *stream.Producer
	consumer     *stream.Consumer
	hub          *sse.Hub
	sweepMutex   redlock.IMutex
	wg           sync.WaitGroup
	cancelFunc   context.CancelFunc

	config ServerConfig
}

func NewServer(config ServerConfig) (*ServerImpl, error) {
	const op = "NewServer"

	// 初始化權杖簽發器
	tokens, err := NewTokenIssuer(config.Auth.PublicKey, config.Auth.PrivateKey, config.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create token issuer, err=%w", op, err)
	}

	// 初始化翻譯器
	translator, err := i18n.New()
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create translator, err=%w", op, err)
	}

	// 初始化S3客戶端
	s3Cfg, err := awsCfg.LoadDefaultConfig(
		context.Background(),
		awsCfg.WithBaseEndpoint(config.S3.Endpoint),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(config.S3.AccessKeyID, config.S3.SecretAccessKey, "")),
		awsCfg.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to load AWS config, err=%w", op, err)
	}
	s3Operator, err := internalS3.NewOperator(awsS3.NewFromConfig(s3Cfg), config.S3.Bucket, config.S3.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create S3 operator, err=%w", op, err)
	}

	// 初始化資料庫連線
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s", config.DB.User, config.DB.Password, config.DB.Host, config.DB.Port, config.DB.Database, config.DB.Schema)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: config.DB.Schema + ".",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to connect to database, err=%w", op, err)
	}
	store, err := pgStore.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create store, err=%w", op, err)
	}

	// 初始化Redis連線
	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})

	// 初始化快取閘道
	cacheGateway, err := cache.New(redisClient,
		cache.WithPrefix("bazar:"),
		cache.WithDefaultTTL(config.Redis.CacheTTL),
	)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create cache, err=%w", op, err)
	}

	// 初始化報價事件的發布與消費
	producer, err := stream.NewProducer(redisClient, config.Redis.StreamKeys.OfferEvents)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create producer, err=%w", op, err)
	}
	consumer, err := stream.NewConsumer(redisClient, config.Redis.StreamKeys.OfferEvents)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create consumer, err=%w", op, err)
	}

	// 初始化報價生命週期服務
	htmlChecker := bluemonday.UGCPolicy()
	offerService, err := offers.NewService(store,
		offers.WithServiceCacheInvalidator(cacheGateway),
		offers.WithServiceEventPublisher(producer),
		offers.WithServiceSanitizer(htmlChecker.Sanitize),
	)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create offer service, err=%w", op, err)
	}
	statsReader, err := offers.NewStatsReader(store)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create stats reader, err=%w", op, err)
	}

	return &ServerImpl{
		db:           db,
		redisClient:  redisClient,
		s3Operator:   s3Operator,
		htmlChecker:  htmlChecker,
		translator:   translator,
		tokens:       tokens,
		store:        store,
		cache:        cacheGateway,
		offerService: offerService,
		statsReader:  statsReader,
		producer:     producer,
		consumer:     consumer,
		hub:          sse.NewHub(),
		sweepMutex: redlock.NewAutoRenewMutex(redisClient, config.Sweep.LockKey,
			redlock.WithMutexExpiry(30*time.Second),
		),
		config: config,
	}, nil
}

func (impl *ServerImpl) Start() {
	// 啟動事件發布器與消費者
	impl.producer.Start()
	impl.consumer.Start()
	// 把事件流接上SSE廣播中心
	impl.hub.Attach(impl.consumer.Subscribe())

	// 啟動過期報價的掃描worker
	ctx, cancel := context.WithCancel(context.Background())
	impl.cancelFunc = cancel
	slog.Info("Start offer expiry sweep worker")
	impl.wg.Add(1)
	go func() {
		logger := slog.Default().With(slog.String("caller", "OfferExpirySweep"))
		defer impl.wg.Done()
		defer slog.Info("Offer expiry sweep worker stopped")

		ticker := time.NewTicker(impl.config.Sweep.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				expired, err := impl.runExpirySweep(ctx)
				if err != nil {
					logger.Error("Fail to run expiry sweep", slog.Any("error", err))
					continue
				}
				if expired > 0 {
					logger.Info("Expired stale offers", slog.Int("count", expired))
				}
			}
		}
	}()
}

// runExpirySweep 在分散式鎖的保護下執行一輪過期掃描
// 多個實例同時到期時只有拿到鎖的那個會真正執行
func (impl *ServerImpl) runExpirySweep(ctx context.Context) (int, error) {
	const op = "runExpirySweep"
	lockCtx, cancel := context.WithTimeout(ctx, impl.config.Sweep.Interval)
	defer cancel()

	sweepCtx, err := impl.sweepMutex.Lock(lockCtx)
	if err != nil {
		// 鎖被其他實例持有不算失敗
		if lockCtx.Err() != nil {
			return 0, nil
		}
		return 0, fmt.Errorf("[%s] Fail to acquire sweep lock, err=%w", op, err)
	}
	defer func() {
		if _, err := impl.sweepMutex.Unlock(); err != nil {
			slog.Warn("Fail to release sweep lock", slog.Any("error", err))
		}
	}()

	return impl.offerService.ExpireStale(sweepCtx)
}

func (impl *ServerImpl) Close() {
	// 關閉worker
	if impl.cancelFunc != nil {
		impl.cancelFunc()
	}
	impl.wg.Wait()
	// 關閉消費者與廣播中心
	impl.consumer.Close()
	impl.hub.Close()
	// 關閉發布器
	impl.producer.Close()
}
