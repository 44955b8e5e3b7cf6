package main

import (
	"fmt"
	"time"

	"github.com/ogunacik/kartbox/internal/storage"
)

// printDue writes a per-tag count of cards due right now.
func printDue(db *storage.DB) error {
	cards, err := db.GetDueCards(time.Now())
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		fmt.Println("No cards due.")
		return nil
	}

	counts := make(map[string]int)
	var order []string
	for _, c := range cards {
		tag := c.Tag
		if tag == "" {
			tag = "(untagged)"
		}
		if _, seen := counts[tag]; !seen {
			order = append(order, tag)
		}
		counts[tag]++
	}

	fmt.Printf("%d cards due:\n", len(cards))
	for _, tag := range order {
		fmt.Printf("  %-20s %d\n", tag, counts[tag])
	}
	return nil
}
