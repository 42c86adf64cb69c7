package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"busline/internal/schedules"
	"busline/internal/seats"
	"busline/internal/shared/config"
	"busline/internal/shared/database"
	"busline/internal/shared/middleware"
	"busline/internal/shared/txn"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// seedDays is how many operating dates each schedule gets, starting tomorrow
const seedDays = 7

type Seeder struct {
	cfg       *config.Config
	db        *database.DB
	schedules schedules.Service
}

func main() {
	fmt.Println("🌱 Starting Busline Database Seeder...")

	_ = godotenv.Load()
	cfg := config.Load()

	// Initialize database (runs migrations)
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	tx := txn.NewTransactor(db.SQL)
	inventory := seats.NewInventory(seats.NewRepository(db.SQL), tx, nil)
	scheduleService := schedules.NewService(schedules.NewRepository(db.SQL), tx, inventory)
	inventory.SetCalendar(scheduleService)

	seeder := &Seeder{cfg: cfg, db: db, schedules: scheduleService}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(context.Background()); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	if err := seeder.PrintTokens(); err != nil {
		log.Fatalf("Failed to issue tokens: %v", err)
	}

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase empties all tables in reverse dependency order
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"reconciliation_issues",
		"payments",
		"booking_seats",
		"bookings",
		"seats",
		"schedule_dates",
		"schedules",
	}

	return s.db.SQL.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			fmt.Printf("  Clearing table: %s\n", table)
			stmt := fmt.Sprintf("DELETE FROM %s", table)
			if s.db.Driver == database.DriverPostgres {
				stmt = fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)
			}
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
		}
		return nil
	})
}

// SeedAll creates the demo schedules and opens them for the coming week
func (s *Seeder) SeedAll(ctx context.Context) error {
	fmt.Println("  🚌 Seeding schedules...")

	schedulesData := []schedules.CreateScheduleRequest{
		{RouteCode: "JKT-BDG-07", Origin: "Jakarta", Destination: "Bandung", DepartureTime: "07:00", ArrivalTime: "10:30", SeatCapacity: 40, SeatsPerRow: 4, BasePrice: 150000},
		{RouteCode: "JKT-BDG-19", Origin: "Jakarta", Destination: "Bandung", DepartureTime: "19:00", ArrivalTime: "22:30", SeatCapacity: 40, SeatsPerRow: 4, BasePrice: 135000},
		{RouteCode: "BDG-JKT-08", Origin: "Bandung", Destination: "Jakarta", DepartureTime: "08:00", ArrivalTime: "11:30", SeatCapacity: 40, SeatsPerRow: 4, BasePrice: 150000},
		{RouteCode: "JKT-SMG-20", Origin: "Jakarta", Destination: "Semarang", DepartureTime: "20:00", ArrivalTime: "04:00", SeatCapacity: 24, SeatsPerRow: 3, BasePrice: 320000},
	}

	start := time.Now().UTC().AddDate(0, 0, 1)
	for _, req := range schedulesData {
		schedule, err := s.schedules.CreateSchedule(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to create schedule %s: %w", req.RouteCode, err)
		}
		fmt.Printf("    ✅ Created schedule: %s (%s -> %s)\n", schedule.RouteCode, schedule.Origin, schedule.Destination)

		for day := 0; day < seedDays; day++ {
			travelDate := start.AddDate(0, 0, day).Format("2006-01-02")
			result, err := s.schedules.AddOperatingDate(ctx, schedule.ID, travelDate)
			if err != nil {
				return fmt.Errorf("failed to open %s on %s: %w", schedule.RouteCode, travelDate, err)
			}
			fmt.Printf("      📅 %s: %d seats\n", travelDate, result.SeatPoolTotal)
		}
	}

	// Clear Redis cache to ensure fresh state
	if s.db.Redis != nil {
		if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
			log.Printf("Warning: Failed to clear Redis cache: %v", err)
		}
	}

	return nil
}

// PrintTokens issues development access tokens for one admin and one customer
func (s *Seeder) PrintTokens() error {
	fmt.Println("\n🔑 Development tokens:")

	users := []struct {
		email string
		role  string
	}{
		{"admin@busline.local", middleware.RoleAdmin},
		{"rider@busline.local", middleware.RoleUser},
	}
	for _, u := range users {
		id := uuid.New().String()
		token, err := middleware.GenerateAccessToken(s.cfg, id, u.email, u.role)
		if err != nil {
			return err
		}
		fmt.Printf("  %s (%s, id %s)\n  %s\n", u.email, u.role, id, token)
	}
	return nil
}
