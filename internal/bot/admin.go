package bot

import (
	"context"
	"fmt"

	"github.com/pizza-nz/lunch-bot/internal/models"
	"github.com/pizza-nz/lunch-bot/internal/session"
)

func (c *Controller) admin(ctx context.Context, sess *session.Session, req *request) Response {
	if !c.employees.IsAdmin(ctx, req.UserID) {
		req.log.Warn("Admin command from a non-admin user")
		return req.notice(textAccessDenied)
	}
	c.toIdle(sess)

	switch req.event {
	case EventAdminDishes:
		return req.reply(adminDishesScreen(c.menu.All(ctx)))

	case EventAdminToggle:
		active, ok := c.menu.Toggle(ctx, req.arg)
		if !ok {
			return Response{Answer: "❌ The dish could not be toggled.", Alert: true}
		}
		state := "hidden"
		if active {
			state = "shown"
		}
		req.log.WithField("dish_id", req.arg).Infof("Dish %s by admin", state)
		resp := req.reply(adminDishesScreen(c.menu.All(ctx)))
		resp.Answer = fmt.Sprintf("✅ Dish %s is now %s", req.arg, state)
		return resp

	case EventAdminReport:
		period := models.PeriodAll
		if req.arg != "" {
			p, ok := models.ParseReportPeriod(req.arg)
			if !ok {
				return req.notice("❓ Unknown period. Use today, week, month or all.")
			}
			period = p
		}
		return req.reply(reportScreen(c.orders.Report(ctx, period)))
	}

	return req.reply(adminScreen())
}
