package repository

import (
	"context"

	"github.com/pizza-nz/lunch-bot/internal/models"
)

// SettingsRepository handles the key/value Settings table
type SettingsRepository struct {
	*tables
}

// Load returns all settings. A deadline stored in the table is copied into
// the shared deadline so the policy follows edits made in the sheet.
func (r *SettingsRepository) Load(ctx context.Context) models.Settings {
	settings := make(models.Settings)
	for _, rec := range r.records(ctx, TableSettings, ColKey, ColValue) {
		if key := rec.Get(ColKey); key != "" {
			settings[key] = rec.Get(ColValue)
		}
	}

	if r.opts.Deadline != nil {
		r.mirrorDeadline(settings)
	}
	return settings
}

// mirrorDeadline copies each deadline key on its own. A missing or unparsable
// key keeps the current value.
func (r *SettingsRepository) mirrorDeadline(settings models.Settings) {
	hour, minute := r.opts.Deadline.Get()
	changed := false

	if v, ok := settings.Int(models.SettingDeadlineHour); ok {
		hour, changed = v, true
	} else if raw, present := settings[models.SettingDeadlineHour]; present {
		r.logger.Warnf("Ignoring unparsable %s %q", models.SettingDeadlineHour, raw)
	}
	if v, ok := settings.Int(models.SettingDeadlineMinute); ok {
		minute, changed = v, true
	} else if raw, present := settings[models.SettingDeadlineMinute]; present {
		r.logger.Warnf("Ignoring unparsable %s %q", models.SettingDeadlineMinute, raw)
	}

	if !changed {
		return
	}
	if err := r.opts.Deadline.Set(hour, minute); err != nil {
		r.logger.WithError(err).Warn("Ignoring deadline from settings")
	}
}

// DefaultCafe returns the configured cafe name
func (r *SettingsRepository) DefaultCafe(ctx context.Context) string {
	return r.Load(ctx).String(models.SettingDefaultCafe, models.DefaultCafe)
}
