// Package notify defines the notification interface and implementations
// for deal alert delivery.
package notify

import "context"

// AlertPayload contains the data needed to send a deal alert notification.
type AlertPayload struct {
	Query        string
	Market       string
	Name         string
	URL          string
	Price        float64
	Currency     string
	MedianPrice  float64
	Discount     float64 // percent below the reference median
	Float        *float64
	Availability string
}

// Notifier defines the interface for sending deal alert notifications.
type Notifier interface {
	SendAlert(ctx context.Context, alert *AlertPayload) error
	SendBatchAlert(ctx context.Context, alerts []AlertPayload, query string) error
}
