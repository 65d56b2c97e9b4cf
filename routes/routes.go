package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"hms-backend/controllers"
	"hms-backend/middleware"
)

func parseCorsOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS"))
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// SetupRouter wires controller instances onto the API routes.
func SetupRouter(
	bc *controllers.BookingController,
	rc *controllers.RoomController,
	suc *controllers.ServiceUsageController,
	cc *controllers.CustomerController,
	ac *controllers.AuthController,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	origins := parseCorsOrigins()
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		customer := api.Group("/customer")
		{
			bookings := customer.Group("/bookings")
			{
				bookings.POST("", bc.CreateBooking)
				bookings.GET("/:id", bc.GetBooking)
				bookings.PATCH("/:id/confirm", bc.ConfirmBooking)
				bookings.PATCH("/:id/cancel", bc.CancelBooking)
			}
		}

		employee := api.Group("/employee")
		{
			bookings := employee.Group("/bookings")
			{
				bookings.GET("", bc.ListBookings)

				// literal segments before /:id so they don't collide
				bookings.PATCH("/check-in", bc.CheckIn)
				bookings.PATCH("/check-out", bc.CheckOut)
				bookings.POST("/walk-in", bc.WalkInBooking)
				bookings.POST("/transaction", bc.CreateTransaction)

				bookings.GET("/:id", bc.GetBooking)
			}

			service := employee.Group("/service")
			{
				service.POST("/service-usage", suc.AddServiceUsage)
				service.PATCH("/service-usage/:id", suc.UpdateServiceUsage)
			}

			employee.GET("/services", rc.GetServices)
		}

		rooms := api.Group("/rooms")
		{
			rooms.GET("", rc.GetRooms)
			rooms.POST("", rc.CreateRoom)
			rooms.GET("/available", rc.GetAvailableRooms)
			rooms.PATCH("/:id/housekeeping", rc.SetHousekeeping)
		}

		api.GET("/room-types", rc.GetRoomTypes)

		customers := api.Group("/customers")
		{
			customers.GET("", cc.GetCustomers)
			customers.POST("", cc.CreateCustomer)
			customers.GET("/:id", cc.GetCustomer)
		}

		auth := api.Group("/auth")
		{
			auth.POST("/login", ac.Login)
		}
	}

	return r
}
