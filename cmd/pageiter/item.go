package main

import (
	"fmt"

	"github.com/kbukum/pageiter/database"
)

// Item statuses written by seed.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// Item is the record the CLI seeds and iterates.
type Item struct {
	database.BaseModel
	Name     string `json:"name" gorm:"size:128"`
	Status   string `json:"status" gorm:"size:32;index"`
	Priority int    `json:"priority"`
}

// filterFields are the fields the export endpoint accepts as filters.
var filterFields = []string{"id", "name", "status", "priority"}

// newItems builds n items, numbered from 1, alternating active and disabled.
func newItems(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		seq := i + 1
		items[i] = Item{
			Name:     fmt.Sprintf("item-%06d", seq),
			Status:   StatusActive,
			Priority: seq % 5,
		}
		if seq%2 == 0 {
			items[i].Status = StatusDisabled
		}
	}
	return items
}
