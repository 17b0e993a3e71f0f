package storage

import (
	"context"
	"sort"
	"sync"

	"amtrak-price-tracker/models"
)

// MemoryTripStore keeps trips in process memory; used when no database is configured
type MemoryTripStore struct {
	mu    sync.Mutex
	trips map[string]*models.Trip
}

// NewMemoryTripStore creates an empty store
func NewMemoryTripStore() *MemoryTripStore {
	return &MemoryTripStore{trips: make(map[string]*models.Trip)}
}

func (s *MemoryTripStore) GetAll(ctx context.Context) ([]*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Trip, 0, len(s.trips))
	for _, t := range s.trips {
		out = append(out, cloneTrip(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TravelDate != out[j].TravelDate {
			return out[i].TravelDate < out[j].TravelDate
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryTripStore) Get(ctx context.Context, id string) (*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trips[id]
	if !ok {
		return nil, ErrTripNotFound
	}
	return cloneTrip(t), nil
}

func (s *MemoryTripStore) Save(ctx context.Context, trip *models.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips[trip.ID] = cloneTrip(trip)
	return nil
}

func (s *MemoryTripStore) Update(ctx context.Context, trip *models.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[trip.ID]; !ok {
		return ErrTripNotFound
	}
	s.trips[trip.ID] = cloneTrip(trip)
	return nil
}

func (s *MemoryTripStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[id]; !ok {
		return ErrTripNotFound
	}
	delete(s.trips, id)
	return nil
}

func cloneTrip(t *models.Trip) *models.Trip {
	c := *t
	if t.CurrentPrice != nil {
		v := *t.CurrentPrice
		c.CurrentPrice = &v
	}
	if t.LastChecked != nil {
		v := *t.LastChecked
		c.LastChecked = &v
	}
	return &c
}
