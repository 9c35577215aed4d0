// File: kvrdesk/seed/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"kvrdesk/config"
	"kvrdesk/database"
	documentRepo "kvrdesk/database/repository/document"
	"kvrdesk/models"
	"kvrdesk/utils"

	"go.uber.org/zap"
)

var slotTimes = []string{"08:30", "09:00", "10:30", "13:00", "14:00", "15:30"}

// buildSlots lays out emergency slots on every weekday in [from, from+days).
func buildSlots(from time.Time, days int) []models.Slot {
	var slots []models.Slot
	for d := 0; d < days; d++ {
		day := from.AddDate(0, 0, d)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		for _, t := range slotTimes {
			slots = append(slots, models.Slot{
				ID:        fmt.Sprintf("apt_%03d", len(slots)+1),
				Date:      day.Format("2006-01-02"),
				Time:      t,
				Type:      "emergency",
				Available: true,
			})
		}
	}
	return slots
}

func main() {
	from := flag.String("from", "2025-12-01", "first day to seed (YYYY-MM-DD)")
	days := flag.Int("days", 31, "number of days to cover")
	reset := flag.Bool("reset", false, "drop bookings and holds as well")
	flag.Parse()

	config.LoadConfig()
	logger := utils.GetLogger()

	start, err := time.Parse("2006-01-02", *from)
	if err != nil {
		logger.Fatal("invalid -from date", zap.Error(err))
	}

	var store documentRepo.DocumentStore
	if config.AppConfig.StoreBackend == "mongo" {
		database.InitDB()
		defer database.CloseDB(context.Background())
		store = documentRepo.NewMongoStore(database.Database())
	} else {
		store = documentRepo.NewFileStore(config.AppConfig.DataFile)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slots := buildSlots(start, *days)
	err = store.Update(ctx, func(doc *models.Document) error {
		doc.Appointments = slots
		if *reset {
			doc.Bookings = []models.Booking{}
			doc.PendingConfirmations = []models.PendingConfirmation{}
		}
		return nil
	})
	if err != nil {
		logger.Fatal("failed to seed appointments", zap.Error(err))
	}
	logger.Info("seeded appointments", zap.Int("slots", len(slots)), zap.String("backend", config.AppConfig.StoreBackend), zap.Bool("reset", *reset))
}
