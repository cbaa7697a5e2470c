// server/cmd/api/main.go
package main

import (
	"log"
	"time"

	"freight-marketplace-api-server/config"
	"freight-marketplace-api-server/internal/api/routes"
	"freight-marketplace-api-server/internal/auth"
	"freight-marketplace-api-server/internal/database"
	"freight-marketplace-api-server/internal/notify"
	"freight-marketplace-api-server/internal/s3"
	"freight-marketplace-api-server/internal/scheduler"
	"freight-marketplace-api-server/internal/services"
	"freight-marketplace-api-server/internal/socket"
	"freight-marketplace-api-server/internal/store/mongostore"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load biến môi trường từ file .env (nếu có)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	// 2. Load configuration
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	auth.SetSecret(cfg.JWT.Secret)

	// 3. Kết nối MongoDB và đảm bảo các index cần thiết
	db, err := database.Connect(cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err := database.EnsureIndexes(db); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}
	if err := database.SeedAdmin(db); err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}

	// 4. Khởi tạo các store
	orderStore := mongostore.NewOrderStore(db)
	bidStore := mongostore.NewBidStore(db)
	vehicleStore := mongostore.NewVehicleStore(db)
	userStore := mongostore.NewUserStore(db)
	proofStore := mongostore.NewProofStore(db)

	// 5. Khởi tạo WebSocket hub và notifier (hub + webhook nếu được cấu hình)
	wsHub := socket.NewHub()
	notifier := notify.Multi{
		notify.NewHubNotifier(wsHub),
		notify.NewWebhookNotifier(cfg.Notify.WebhookURL),
	}

	// 6. Khởi tạo các service nghiệp vụ
	orderSvc := services.NewOrderService(orderStore, bidStore, vehicleStore, notifier)
	bidSvc := services.NewBidService(orderStore, bidStore, userStore, notifier)
	tripSvc := services.NewTripService(orderStore, vehicleStore, proofStore, notifier)

	// 7. Khởi tạo S3 uploader (tùy chọn, chỉ khi cấu hình bucket)
	var s3Uploader *s3.Uploader
	if cfg.S3.Bucket != "" {
		s3Uploader, err = s3.NewUploader(cfg.S3)
		if err != nil {
			log.Fatalf("Failed to initialize S3 uploader: %v", err)
		}
	} else {
		log.Println("S3 bucket not configured, proof photo upload is disabled")
	}

	// 8. Chạy scheduler quét đơn quá hạn
	interval, err := time.ParseDuration(cfg.Scheduler.Interval)
	if err != nil {
		interval = time.Hour
	}
	sched := scheduler.New(orderStore, bidStore, notifier, interval)
	sched.Start()
	defer sched.Stop()

	// 9. Truyền tất cả các thành phần cần thiết vào router
	router := routes.SetupRouter(cfg, orderSvc, bidSvc, tripSvc, userStore, vehicleStore, s3Uploader, wsHub)

	// 10. Start server
	log.Printf("Starting API server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
