// server/internal/api/routes/routes.go
package routes

import (
	"freight-marketplace-api-server/config"
	"freight-marketplace-api-server/internal/api/handlers"
	"freight-marketplace-api-server/internal/api/middleware"
	"freight-marketplace-api-server/internal/models"
	"freight-marketplace-api-server/internal/s3"
	"freight-marketplace-api-server/internal/services"
	"freight-marketplace-api-server/internal/socket"
	"freight-marketplace-api-server/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter nhận vào các thành phần phụ thuộc và thiết lập các route.
func SetupRouter(
	cfg config.Config,
	orderSvc *services.OrderService,
	bidSvc *services.BidService,
	tripSvc *services.TripService,
	users store.UserStore,
	vehicles store.VehicleStore,
	s3Uploader *s3.Uploader,
	wsHub *socket.Hub,
) *gin.Engine {
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	// Khởi tạo các handlers
	userHandler := &handlers.UserHandler{Users: users, Cfg: cfg}
	orderHandler := &handlers.OrderHandler{Orders: orderSvc}
	bidHandler := &handlers.BidHandler{Bids: bidSvc}
	tripHandler := &handlers.TripHandler{Trips: tripSvc, S3Uploader: s3Uploader}
	vehicleHandler := &handlers.VehicleHandler{Vehicles: vehicles}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub}

	apiV1 := router.Group("/api/v1")
	{
		// Route cho WebSocket
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		// === CÁC ROUTE KHÔNG YÊU CẦU XÁC THỰC ===
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", userHandler.Register)
			auth.POST("/login", userHandler.Login)
		}

		// === CÁC ROUTE YÊU CẦU XÁC THỰC (PROTECTED) ===

		// Nhóm API của khách hàng
		customerRoutes := apiV1.Group("/")
		customerRoutes.Use(middleware.Authenticate())
		customerRoutes.Use(middleware.Authorize(models.RoleCustomer, models.RoleAdmin))
		{
			orders := customerRoutes.Group("/orders")
			{
				orders.POST("/", orderHandler.CreateOrder)
				orders.GET("/my", orderHandler.GetMyOrders)
				orders.POST("/:id/cancel", orderHandler.CancelOrder)

				// Quản lý bid trên đơn của chính mình
				orders.GET("/:id/bids", bidHandler.GetBidsForOrder)
				orders.POST("/:id/bids/:bidID/accept", bidHandler.AcceptBid)
				orders.POST("/:id/bids/:bidID/reject", bidHandler.RejectBid)
			}
		}

		// Nhóm API của nhà vận chuyển
		transporterRoutes := apiV1.Group("/")
		transporterRoutes.Use(middleware.Authenticate())
		transporterRoutes.Use(middleware.Authorize(models.RoleTransporter, models.RoleAdmin))
		{
			// Xem đơn còn mở thầu và bỏ thầu
			transporterRoutes.GET("/orders/open", orderHandler.GetOpenOrders)
			transporterRoutes.GET("/orders/assigned", orderHandler.GetAssignedOrders)
			transporterRoutes.POST("/orders/:id/bids", bidHandler.SubmitBid)
			transporterRoutes.GET("/bids/my", bidHandler.GetMyBids)
			transporterRoutes.DELETE("/bids/:bidID", bidHandler.WithdrawBid)

			// Quản lý đội xe
			vehicles := transporterRoutes.Group("/vehicles")
			{
				vehicles.POST("/", vehicleHandler.CreateVehicle)
				vehicles.GET("/my", vehicleHandler.GetMyVehicles)
				vehicles.POST("/:id/maintenance", vehicleHandler.SetMaintenance)
			}

			// Thực thi chuyến đi
			trips := transporterRoutes.Group("/orders/:id")
			{
				trips.POST("/vehicle", tripHandler.AssignVehicle)
				trips.DELETE("/vehicle", tripHandler.UnassignVehicle)
				trips.POST("/start", tripHandler.StartTransit)
				trips.POST("/pickup", tripHandler.ConfirmPickup)
				trips.POST("/deliver", tripHandler.ConfirmDelivery)

				// Các điểm dừng trong hành trình
				trips.POST("/stops/:seq/arrive", tripHandler.ArriveAtStop)
				trips.POST("/stops/:seq/depart", tripHandler.DepartFromStop)
				trips.POST("/stops/:seq/skip", tripHandler.SkipStop)
				trips.POST("/stops/:seq/proof", tripHandler.UploadStopProof)
				trips.GET("/proofs", tripHandler.GetProofs)
			}
		}

		// Route xem chi tiết đơn, mở cho mọi vai trò đã đăng nhập
		// (service tự lọc theo quyền sở hữu).
		detailRoutes := apiV1.Group("/")
		detailRoutes.Use(middleware.Authenticate())
		{
			detailRoutes.GET("/orders/:id", orderHandler.GetOrder)
		}
	}

	return router
}
