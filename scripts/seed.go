package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/docsched/backend/internal/adapters/database"
	"github.com/docsched/backend/internal/application/services"
	"github.com/docsched/backend/internal/domain/entities"
	"github.com/docsched/backend/internal/infrastructure/clients/postgres"
	"github.com/docsched/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				reservation_notifications,
				rating_entries,
				reservations,
				availability_slots,
				availability_windows,
				requesters,
				providers
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	providerRepo := database.NewProviderAdapter(pgClient)
	requesterRepo := database.NewRequesterAdapter(pgClient)
	scheduleRepo := database.NewScheduleAdapter(pgClient)
	reservationRepo := database.NewReservationAdapter(pgClient, nil)

	scheduleService := services.NewScheduleService(scheduleRepo, providerRepo, reservationRepo, nil)

	now := time.Now().UTC()

	// 1. Seed providers
	providerSeeds := []entities.Provider{
		{ID: uuid.New().String(), Name: "Dr. Amara Okafor", Email: "amara.okafor@example.com", Specialization: "Dermatology", Location: "Lagos", ExperienceYrs: 12},
		{ID: uuid.New().String(), Name: "Dr. Yusuf Bello", Email: "yusuf.bello@example.com", Specialization: "Cardiology", Location: "Abuja", ExperienceYrs: 18},
		{ID: uuid.New().String(), Name: "Dr. Ngozi Eze", Email: "ngozi.eze@example.com", Specialization: "Pediatrics", Location: "Enugu", ExperienceYrs: 7},
		{ID: uuid.New().String(), Name: "Dr. Tunde Adeyemi", Email: "tunde.adeyemi@example.com", Specialization: "Dermatology", Location: "Ibadan", ExperienceYrs: 4},
	}
	for i := range providerSeeds {
		providerSeeds[i].CreatedAt = now
		providerSeeds[i].UpdatedAt = now
		if err := providerRepo.Create(ctx, &providerSeeds[i]); err != nil {
			log.Printf("Failed to create provider %s: %v", providerSeeds[i].Name, err)
		}
	}

	// 2. Seed requesters
	requesterSeeds := []entities.Requester{
		{ID: uuid.New().String(), Name: "Chidi Nwosu", Email: "chidi.nwosu@example.com", Phone: "+2348012345678"},
		{ID: uuid.New().String(), Name: "Funke Alabi", Email: "funke.alabi@example.com", Phone: "+2348087654321"},
	}
	for i := range requesterSeeds {
		requesterSeeds[i].CreatedAt = now
		requesterSeeds[i].UpdatedAt = now
		if err := requesterRepo.Create(ctx, &requesterSeeds[i]); err != nil {
			log.Printf("Failed to create requester %s: %v", requesterSeeds[i].Name, err)
		}
	}

	// 3. Seed availability for the next three days
	slots := []entities.Slot{
		{StartTime: "09:00", EndTime: "10:00"},
		{StartTime: "10:00", EndTime: "11:00"},
		{StartTime: "11:00", EndTime: "12:00"},
		{StartTime: "14:00", EndTime: "15:00"},
		{StartTime: "15:00", EndTime: "16:00"},
	}
	for _, provider := range providerSeeds {
		for day := 1; day <= 3; day++ {
			date := now.AddDate(0, 0, day).Format(entities.DateLayout)
			if _, err := scheduleService.AddWindow(ctx, provider.ID, date, slots, entities.DefaultMaxBookingsPerSlot); err != nil {
				log.Printf("Failed to seed availability for %s on %s: %v", provider.Name, date, err)
			}
		}
	}

	log.Printf("Seeded %d providers, %d requesters", len(providerSeeds), len(requesterSeeds))
}
