package booking

import (
	"context"
	"sort"

	"kvrdesk/models"

	"go.uber.org/zap"
)

func sortSlots(slots []models.Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return slots[i].Time < slots[j].Time
	})
}

func (s *DefaultBookingService) buildResult(matched []models.Slot, requested []string, limit int) *AvailabilityResult {
	sortSlots(matched)

	shown := matched
	if len(shown) > limit {
		shown = shown[:limit]
	}

	views := make([]models.SlotView, 0, len(shown))
	for _, slot := range shown {
		views = append(views, slot.View())
	}
	ids := make([]string, 0, len(matched))
	for _, slot := range matched {
		ids = append(ids, slot.ID)
	}

	return &AvailabilityResult{
		Status:         "success",
		RequestedDates: requested,
		AvailableSlots: views,
		MatchedSlotIDs: ids,
		TotalAvailable: len(matched),
		Message:        availabilityMessage(shown, len(matched), requested, s.now()),
	}
}

// CheckAvailability lists open slots on the requested dates. An empty match is still a success.
func (s *DefaultBookingService) CheckAvailability(ctx context.Context, dates []string) (*AvailabilityResult, error) {
	doc, err := s.Store.Load(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		wanted[d] = struct{}{}
	}

	var matched []models.Slot
	for _, slot := range doc.Appointments {
		if _, ok := wanted[slot.Date]; ok && slot.Available {
			matched = append(matched, slot)
		}
	}

	s.logger().Debug("availability checked", zap.Strings("dates", dates), zap.Int("matched", len(matched)))
	return s.buildResult(matched, dates, DetailLimit), nil
}

// NextAvailable lists up to count open slots from today onwards.
func (s *DefaultBookingService) NextAvailable(ctx context.Context, count int) (*AvailabilityResult, error) {
	if count <= 0 {
		count = DetailLimit
	}
	doc, err := s.Store.Load(ctx)
	if err != nil {
		return nil, err
	}

	today := s.now().Format(dateLayout)
	var upcoming []models.Slot
	for _, slot := range doc.Appointments {
		if slot.Available && slot.Date >= today {
			upcoming = append(upcoming, slot)
		}
	}
	sortSlots(upcoming)
	if len(upcoming) > count {
		upcoming = upcoming[:count]
	}
	return s.buildResult(upcoming, nil, count), nil
}

func (s *DefaultBookingService) IsAvailable(ctx context.Context, slotID string) (bool, error) {
	doc, err := s.Store.Load(ctx)
	if err != nil {
		return false, err
	}
	slot := doc.FindSlot(slotID)
	return slot != nil && slot.Available, nil
}

func (s *DefaultBookingService) GetSlot(ctx context.Context, slotID string) (*models.Slot, error) {
	doc, err := s.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	slot := doc.FindSlot(slotID)
	if slot == nil {
		return nil, errSlotNotFound()
	}
	found := *slot
	return &found, nil
}
