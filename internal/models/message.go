package models

import "time"

// Message represents one contact form submission.
type Message struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"size:100;not null"`
	Email     string    `gorm:"size:255;not null"`
	Body      string    `gorm:"size:1000;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

// All returns every model managed by migrations, in creation order.
func All() []any {
	return []any{&Interaction{}, &Metric{}, &Message{}}
}
