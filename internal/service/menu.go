package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pizza-nz/lunch-bot/internal/db/repository"
	"github.com/pizza-nz/lunch-bot/internal/models"
	"github.com/pizza-nz/lunch-bot/internal/websockets"
)

// MenuService handles menu-related business logic
type MenuService struct {
	repos  *repository.Repositories
	feed   Feed
	logger *logrus.Logger
}

// NewMenuService creates a new menu service
func NewMenuService(repos *repository.Repositories, feed Feed, logger *logrus.Logger) *MenuService {
	return &MenuService{
		repos:  repos,
		feed:   feedOrNop(feed),
		logger: logger,
	}
}

// Offered returns today's orderable dishes
func (s *MenuService) Offered(ctx context.Context) []models.Dish {
	return s.repos.Menu.ListOffered(ctx)
}

// Get returns an offered dish
func (s *MenuService) Get(ctx context.Context, id string) (models.Dish, bool) {
	return s.repos.Menu.GetOffered(ctx, id)
}

// All returns every dish for the admin screens
func (s *MenuService) All(ctx context.Context) []models.Dish {
	return s.repos.Menu.ListAll(ctx)
}

// MenuUpdate is the feed payload of a toggled dish
type MenuUpdate struct {
	DishID string `json:"dish_id"`
	Active bool   `json:"active"`
}

// Toggle flips a dish between offered and hidden and returns its new state
func (s *MenuService) Toggle(ctx context.Context, id string) (active bool, ok bool) {
	active, ok = s.repos.Menu.ToggleActive(ctx, id)
	if ok {
		s.feed.Broadcast(websockets.TypeMenuUpdate, MenuUpdate{DishID: id, Active: active})
	}
	return active, ok
}
