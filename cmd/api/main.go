package main

import (
	"log"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/domain/model"
	"marketplace/internal/handler"
	"marketplace/internal/infra/cache"
	"marketplace/internal/infra/db"
	infraRepo "marketplace/internal/infra/repository"
	"marketplace/internal/server"
	"marketplace/internal/stream"
	"marketplace/internal/usecase"
	appvalidator "marketplace/internal/validator"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

func main() {
	//.envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		log.Fatal(err)
	}
	if err := gormDB.AutoMigrate(
		&model.Product{},
		&model.ProductVariant{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.InventoryAdjustment{},
		&model.AuditLog{},
	); err != nil {
		log.Fatal(err)
	}

	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	variantRepo := infraRepo.NewVariantGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	checkoutValidator := appvalidator.NewCheckoutValidator()

	//Redis（設定があるときだけキャッシュを有効にする）
	var productCache usecase.ProductListCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		productCache = cache.NewProductListCache(rdb, 5*time.Minute)
	}

	//Kafka（設定があるときだけイベント発行する）
	var publisher usecase.OrderEventPublisher
	if cfg.KafkaBroker != "" {
		publisher = stream.NewKafkaProducer(cfg.KafkaBroker)
	}

	//Usecase生成
	productUC := usecase.NewProductUsecase(productRepo, variantRepo, inventoryRepo, auditRepo, productCache, idGen)
	cartUC := usecase.NewCartUsecase(cartRepo, cartItemRepo, productRepo, variantRepo)
	checkoutUC := usecase.NewCheckoutUsecase(txManager, cartRepo, cartItemRepo, productRepo, variantRepo, checkoutValidator, publisher, idGen)
	orderUC := usecase.NewOrderUsecase(txManager, orderRepo, orderItemRepo, auditRepo, idGen)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)

	//Handler生成
	handlers := server.Handlers{
		Product:       handler.NewProductHandler(productUC),
		Cart:          handler.NewCartHandler(cartUC),
		Checkout:      handler.NewCheckoutHandler(checkoutUC),
		Order:         handler.NewOrderHandler(orderUC),
		SellerProduct: handler.NewSellerProductHandler(productUC),
		SellerOrder:   handler.NewSellerOrderHandler(orderUC),
		AdminAudit:    handler.NewAdminAuditHandler(auditUC),
	}

	//Server起動
	if err := server.Start(cfg, handlers); err != nil {
		log.Fatal(err)
	}
}
