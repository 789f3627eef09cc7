package repository

import (
	"context"
	"strings"

	"github.com/pizza-nz/lunch-bot/internal/models"
	"github.com/pizza-nz/lunch-bot/internal/sheet"
)

// MenuRepository handles menu data access
type MenuRepository struct {
	*tables
}

// ListAll returns every dish in the Menu table, offered or not. Dishes with
// malformed validity dates are included; they are never offered.
func (r *MenuRepository) ListAll(ctx context.Context) []models.Dish {
	records := r.records(ctx, TableMenu, ColID, ColName, ColActive)

	dishes := make([]models.Dish, 0, len(records))
	for _, rec := range records {
		dish, _, _ := dishFromRecord(rec)
		if dish.ID == "" {
			continue
		}
		dishes = append(dishes, dish)
	}
	return dishes
}

// ListOffered returns the dishes that are active and inside their validity
// window today.
func (r *MenuRepository) ListOffered(ctx context.Context) []models.Dish {
	records := r.records(ctx, TableMenu, ColID, ColName, ColActive)
	today := r.today()

	var dishes []models.Dish
	for _, rec := range records {
		dish, priceOK, windowOK := dishFromRecord(rec)
		if dish.ID == "" {
			continue
		}
		log := r.logger.WithField("dish_id", dish.ID)
		if !priceOK {
			log.Warnf("Invalid price %q, using 0", rec.Get(ColPrice))
		}
		if !windowOK {
			log.Warnf("Invalid validity dates %q..%q, dish skipped", rec.Get(ColStartDate), rec.Get(ColEndDate))
			continue
		}
		if !dish.OfferedOn(today) {
			continue
		}
		dishes = append(dishes, dish)
	}
	return dishes
}

// GetOffered returns the offered dish with the given ID.
func (r *MenuRepository) GetOffered(ctx context.Context, id string) (models.Dish, bool) {
	id = strings.TrimSpace(id)
	for _, dish := range r.ListOffered(ctx) {
		if dish.ID == id {
			return dish, true
		}
	}
	return models.Dish{}, false
}

// ToggleActive flips the Active cell of the dish whose ID matches exactly and
// returns the new state. ok is false when the dish or the required columns
// are missing, or the store rejected the write.
func (r *MenuRepository) ToggleActive(ctx context.Context, id string) (active bool, ok bool) {
	id = strings.TrimSpace(id)
	log := r.logger.WithField("dish_id", id)

	values, err := r.fresh(ctx, TableMenu)
	if err != nil {
		log.WithError(err).Error("Failed to read menu for toggle")
		return false, false
	}
	if len(values) == 0 {
		return false, false
	}

	idCol := sheet.ColumnIndex(values[0], ColID)
	activeCol := sheet.ColumnIndex(values[0], ColActive)
	if idCol == 0 || activeCol == 0 {
		log.Errorf("Menu header %v lacks %s or %s", values[0], ColID, ColActive)
		return false, false
	}

	for i, row := range values[1:] {
		if cell(row, idCol) != id {
			continue
		}

		active = !IsTruthy(cell(row, activeCol))
		value := ActiveNo
		if active {
			value = ActiveYes
		}

		if err := r.store.UpdateCell(ctx, TableMenu, i+2, activeCol, value); err != nil {
			log.WithError(err).Error("Failed to toggle dish")
			return false, false
		}
		r.invalidate(TableMenu)
		log.Infof("Dish active set to %s", value)
		return active, true
	}

	log.Warn("Dish not found for toggle")
	return false, false
}

// cell returns the trimmed 1-based column of row, or "".
func cell(row []string, col int) string {
	if col < 1 || col > len(row) {
		return ""
	}
	return strings.TrimSpace(row[col-1])
}
