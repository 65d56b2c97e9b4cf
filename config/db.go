package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hms-backend/models"
)

var DB *gorm.DB

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "UTC")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

func resolveMySQLDSN() (string, error) {
	raw := strings.TrimSpace(os.Getenv("MYSQL_URL"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}

	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}

	user := envOrDefault("DB_USER", "root")
	pass := envOrDefault("DB_PASS", "")
	host := envOrDefault("DB_HOST", "127.0.0.1")
	port := envOrDefault("DB_PORT", "3306")
	dbName := envOrDefault("DB_NAME", "hms_db")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		user, pass, host, port, dbName,
	), nil
}

// ConnectDatabase opens the MySQL connection, runs migrations and seeds
// reference data. Sets the package-level DB on success.
func ConnectDatabase() error {
	dsn, err := resolveMySQLDSN()
	if err != nil {
		return err
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		return err
	}

	DB = db

	// AutoMigrate in parent->child order
	if err := DB.AutoMigrate(
		&models.RoomType{},
		&models.Customer{},
		&models.Employee{},
		&models.HotelService{},
		&models.Room{},
		&models.Booking{},
		&models.RoomStay{},
		&models.ServiceUsage{},
		&models.Transaction{},
	); err != nil {
		return err
	}

	SeedDatabase()
	return nil
}

// SeedDatabase inserts reference data on first boot. Idempotent: each block
// only runs when its table is empty.
func SeedDatabase() {
	// ---------------- Employees ----------------
	var empCount int64
	DB.Model(&models.Employee{}).Count(&empCount)
	if empCount == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("warning: failed to hash default employee password: %v", err)
		} else {
			employee := models.Employee{
				FullName: "Front Desk",
				Username: "admin@hotel.local",
				Password: string(hash),
			}
			if err := DB.Create(&employee).Error; err != nil {
				log.Printf("warning: failed to create default employee: %v", err)
			} else {
				log.Println("Default employee seeded")
			}
		}
	}

	// ---------------- RoomTypes + Rooms ----------------
	var rtCount int64
	DB.Model(&models.RoomType{}).Count(&rtCount)
	if rtCount == 0 {
		roomTypes := []models.RoomType{
			{TypeName: "Standard", Description: "Standard Room", MaxGuests: 2},
			{TypeName: "Superior", Description: "Superior Room", MaxGuests: 3},
			{TypeName: "Deluxe", Description: "Deluxe Room", MaxGuests: 4},
		}
		if err := DB.Create(&roomTypes).Error; err != nil {
			log.Fatalf("Failed to seed RoomTypes: %v", err)
		}
		log.Println("RoomTypes seeded")

		typeByName := map[string]uint{}
		for _, rt := range roomTypes {
			typeByName[rt.TypeName] = rt.ID
		}

		rooms := []models.Room{
			{RoomTypeID: typeByName["Standard"], RoomNumber: "101", Floor: 1, PriceCents: 120000, MaxOccupancy: 2},
			{RoomTypeID: typeByName["Standard"], RoomNumber: "102", Floor: 1, PriceCents: 120000, MaxOccupancy: 2},
			{RoomTypeID: typeByName["Superior"], RoomNumber: "201", Floor: 2, PriceCents: 180000, MaxOccupancy: 3},
			{RoomTypeID: typeByName["Superior"], RoomNumber: "202", Floor: 2, PriceCents: 180000, MaxOccupancy: 3},
			{RoomTypeID: typeByName["Deluxe"], RoomNumber: "301", Floor: 3, PriceCents: 250000, MaxOccupancy: 4},
		}
		if err := DB.Create(&rooms).Error; err != nil {
			log.Fatalf("Failed to seed Rooms: %v", err)
		}
		log.Println("Rooms seeded")
	}

	// ---------------- Service catalog ----------------
	var svcCount int64
	DB.Model(&models.HotelService{}).Count(&svcCount)
	if svcCount == 0 {
		catalog := []models.HotelService{
			{Name: "Breakfast", UnitPriceCents: 25000, Active: true},
			{Name: "Laundry", UnitPriceCents: 15000, Active: true},
			{Name: "Minibar", UnitPriceCents: 8000, Active: true},
			{Name: "Spa", UnitPriceCents: 60000, Active: true},
		}
		if err := DB.Create(&catalog).Error; err != nil {
			log.Printf("warning: failed to seed service catalog: %v", err)
		} else {
			log.Println("Service catalog seeded")
		}
	}
}
