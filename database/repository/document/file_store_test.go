package documentRepo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"kvrdesk/models"
)

func sampleDocument() *models.Document {
	booked := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	cancelled := booked.Add(time.Hour)
	return &models.Document{
		Appointments: []models.Slot{
			{ID: "apt_001", Date: "2025-12-05", Time: "09:00", Type: "emergency", Available: true},
			{ID: "apt_002", Date: "2025-12-05", Time: "14:00", Type: "emergency", Available: false},
		},
		Bookings: []models.Booking{{
			BookingID:          "BKG_0A1B2C3D",
			AppointmentID:      "apt_002",
			UserData:           models.UserData{Name: "Jane Doe", Email: "jane@x.com", Reason: "visa expires next week"},
			AppointmentDetails: models.AppointmentDetails{Date: "2025-12-05", Time: "14:00", Type: "emergency"},
			BookedAt:           booked,
			Status:             models.BookingStatusCancelled,
			CancelledAt:        &cancelled,
		}},
		PendingConfirmations: []models.PendingConfirmation{{
			Token:         "tok",
			AppointmentID: "apt_001",
			CreatedAt:     booked,
			ExpiresAt:     booked.Add(30 * time.Minute),
			Status:        models.HoldStatusPending,
		}},
	}
}

func TestFileStoreFirstRunCreatesSkeleton(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "appointments.json")
	store := NewFileStore(path)

	doc, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Appointments) != 0 || len(doc.Bookings) != 0 || len(doc.PendingConfirmations) != 0 {
		t.Fatalf("expected empty skeleton, got %+v", doc)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("skeleton was not persisted: %v", err)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "appointments.json"))
	ctx := context.Background()
	want := sampleDocument()

	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("round trip mismatch\nwant %+v\ngot  %+v", want, got)
	}

	// Saving what was loaded is idempotent.
	if err := store.Save(ctx, got); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	again, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if !reflect.DeepEqual(got, again) {
		t.Fatal("second round trip changed the document")
	}
}

func TestFileStoreInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appointments.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFileStoreUpdate(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "appointments.json"))
	ctx := context.Background()
	if err := store.Save(ctx, sampleDocument()); err != nil {
		t.Fatal(err)
	}

	t.Run("error aborts write", func(t *testing.T) {
		boom := errors.New("boom")
		err := store.Update(ctx, func(doc *models.Document) error {
			doc.Appointments[0].Available = false
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Update err = %v, want boom", err)
		}
		doc, _ := store.Load(ctx)
		if !doc.Appointments[0].Available {
			t.Fatal("failed mutation was persisted")
		}
	})

	t.Run("no changes skips write", func(t *testing.T) {
		if err := store.Update(ctx, func(doc *models.Document) error {
			doc.Appointments[0].Available = false
			return ErrNoChanges
		}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		doc, _ := store.Load(ctx)
		if !doc.Appointments[0].Available {
			t.Fatal("ErrNoChanges mutation was persisted")
		}
	})

	t.Run("commit", func(t *testing.T) {
		if err := store.Update(ctx, func(doc *models.Document) error {
			doc.Appointments[0].Available = false
			return nil
		}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		doc, _ := store.Load(ctx)
		if doc.Appointments[0].Available {
			t.Fatal("mutation was not persisted")
		}
	})
}

func TestFileStoreConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "appointments.json"))
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(ctx, func(doc *models.Document) error {
				doc.Appointments = append(doc.Appointments, models.Slot{ID: "apt", Available: true})
				return nil
			})
		}()
	}
	wg.Wait()

	doc, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Appointments) != writers {
		t.Fatalf("got %d appointments, want %d", len(doc.Appointments), writers)
	}
}
