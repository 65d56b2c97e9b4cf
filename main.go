package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"hms-backend/config"
	"hms-backend/controllers"
	"hms-backend/events"
	"hms-backend/models"
	"hms-backend/repository/gormstore"
	"hms-backend/repository/memory"
	"hms-backend/routes"
	"hms-backend/services"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env not found or couldn't load it; continuing with environment variables")
	}

	cfg := config.Load()

	var store services.Store
	switch cfg.StoreDriver {
	case "memory":
		store = seedMemoryStore()
		log.Println("✅ In-memory store initialized and seeded")
	case "mysql":
		if err := config.ConnectDatabase(); err != nil {
			log.Fatalf("❌ Database connect failed: %v", err)
		}
		if config.DB == nil {
			log.Fatal("❌ config.DB is nil after ConnectDatabase()")
		}
		store = gormstore.New(config.DB)
		log.Println("✅ Database connection established and migrations applied")
	default:
		log.Fatalf("❌ Unknown STORE_DRIVER %q (want mysql or memory)", cfg.StoreDriver)
	}

	// Initialize services
	index := services.NewAvailabilityIndex()
	bookingService := services.NewBookingService(store, index, cfg.HoldTTL)
	if err := bookingService.RebuildIndex(context.Background()); err != nil {
		log.Fatalf("❌ Availability index rebuild failed: %v", err)
	}
	log.Println("✅ Availability index rebuilt from committed stays")

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		bookingService.Cache = services.NewAvailabilityCache(rdb)
		log.Printf("✅ Availability cache enabled (redis %s)", cfg.RedisAddr)
	}

	var publisher *events.Publisher
	if cfg.AMQPURL != "" {
		p, err := events.NewPublisher(cfg.AMQPURL)
		if err != nil {
			log.Fatalf("❌ AMQP connect failed: %v", err)
		}
		publisher = p
		defer publisher.Close()
		bookingService.Notifier = publisher
		log.Println("✅ Booking event publisher connected")
	}

	roomService := services.NewRoomService(store)
	customerService := services.NewCustomerService(store)
	authService := services.NewAuthService(store)

	// Initialize controllers
	bookingController := controllers.NewBookingController(bookingService)
	roomController := controllers.NewRoomController(roomService, bookingService)
	serviceUsageController := controllers.NewServiceUsageController(bookingService)
	customerController := controllers.NewCustomerController(customerService)
	authController := controllers.NewAuthController(authService)

	// Build router
	router := routes.SetupRouter(
		bookingController,
		roomController,
		serviceUsageController,
		customerController,
		authController,
	)

	addr := ":" + cfg.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if cfg.SweepInterval > 0 {
		go bookingService.RunExpirySweeper(sweepCtx, cfg.SweepInterval)
		log.Printf("✅ Hold expiry sweeper running every %s", cfg.SweepInterval)
	}

	go func() {
		log.Printf("🚀 Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("⚠️  Shutdown signal received, shutting down server...")

	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

// seedMemoryStore mirrors config.SeedDatabase for the in-memory driver.
func seedMemoryStore() *memory.Store {
	store := memory.New()

	standard := store.AddRoomType(models.RoomType{TypeName: "Standard", Description: "Standard Room", MaxGuests: 2})
	superior := store.AddRoomType(models.RoomType{TypeName: "Superior", Description: "Superior Room", MaxGuests: 3})
	deluxe := store.AddRoomType(models.RoomType{TypeName: "Deluxe", Description: "Deluxe Room", MaxGuests: 4})

	store.AddRoom(models.Room{RoomTypeID: standard.ID, RoomNumber: "101", Floor: 1, PriceCents: 120000, MaxOccupancy: 2})
	store.AddRoom(models.Room{RoomTypeID: standard.ID, RoomNumber: "102", Floor: 1, PriceCents: 120000, MaxOccupancy: 2})
	store.AddRoom(models.Room{RoomTypeID: superior.ID, RoomNumber: "201", Floor: 2, PriceCents: 180000, MaxOccupancy: 3})
	store.AddRoom(models.Room{RoomTypeID: superior.ID, RoomNumber: "202", Floor: 2, PriceCents: 180000, MaxOccupancy: 3})
	store.AddRoom(models.Room{RoomTypeID: deluxe.ID, RoomNumber: "301", Floor: 3, PriceCents: 250000, MaxOccupancy: 4})

	store.AddService(models.HotelService{Name: "Breakfast", UnitPriceCents: 25000, Active: true})
	store.AddService(models.HotelService{Name: "Laundry", UnitPriceCents: 15000, Active: true})
	store.AddService(models.HotelService{Name: "Minibar", UnitPriceCents: 8000, Active: true})
	store.AddService(models.HotelService{Name: "Spa", UnitPriceCents: 60000, Active: true})

	if hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost); err == nil {
		store.AddEmployee(models.Employee{FullName: "Front Desk", Username: "admin@hotel.local", Password: string(hash)})
	} else {
		log.Printf("warning: failed to hash default employee password: %v", err)
	}

	return store
}
