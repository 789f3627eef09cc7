package models

import "strconv"

// Settings keys
const (
	SettingDeadlineHour   = "order_deadline_hour"
	SettingDeadlineMinute = "order_deadline_minute"
	SettingOrderDays      = "allowed_order_days"
	SettingDefaultCafe    = "default_cafe"
	SettingDeliveryWindow = "default_delivery_time"
)

// Settings is the key/value content of the Settings table
type Settings map[string]string

// Int returns the integer value of key.
func (s Settings) Int(key string) (int, bool) {
	v, ok := s[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// String returns the value of key or def when it is missing or blank.
func (s Settings) String(key, def string) string {
	if v := s[key]; v != "" {
		return v
	}
	return def
}
