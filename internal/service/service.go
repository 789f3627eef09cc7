// Package service holds the business operations shared by the chat bot and
// the admin API.
package service

import (
	"github.com/pizza-nz/lunch-bot/internal/websockets"
)

// Feed publishes events to connected admin consoles
type Feed interface {
	Broadcast(msgType websockets.MessageType, payload interface{})
}

type nopFeed struct{}

func (nopFeed) Broadcast(websockets.MessageType, interface{}) {}

func feedOrNop(feed Feed) Feed {
	if feed == nil {
		return nopFeed{}
	}
	return feed
}
