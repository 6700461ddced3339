package main

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"smartkitchen/internal/domain/waste"
	"smartkitchen/internal/features"
)

var (
	items      = []string{"Tomato", "Milk", "Cheese", "Chicken", "Bread", "Lettuce", "Butter", "Fish", "Yogurt", "Bacon", "Spinach", "Eggs", "Burger Patty", "Cucumber", "Tomato Sauce"}
	adjectives = []string{"Fresh", "Organic", "Frozen", "Large", "Small", "Premium", "Local"}

	inventoryCategories = []string{"Vegetable", "Dairy", "Meat", "Fast Food"}
	storageConditions   = []string{"Fridge", "Freezer", "Pantry"}

	salesCategories = map[string]string{
		"Tomato": "Vegetables", "Lettuce": "Vegetables", "Spinach": "Vegetables", "Cucumber": "Vegetables",
		"Milk": "Dairy", "Cheese": "Dairy", "Butter": "Dairy", "Yogurt": "Dairy", "Eggs": "Dairy",
		"Chicken": "Meat", "Fish": "Meat", "Bacon": "Meat", "Burger Patty": "Meat",
		"Bread": "Bakery", "Tomato Sauce": "Pantry",
	}
	weathers = []string{"Sunny", "Cloudy", "Rainy"}
)

// riskDays mirrors the labelling rule used to train the waste model
const riskDays = 3

// inventory generates n inventory records expiring within 20 days of today
func inventory(rng *rand.Rand, n int, today time.Time) []waste.InventoryRecord {
	out := make([]waste.InventoryRecord, 0, n)
	for range n {
		days := rng.IntN(21)
		risk := 0
		if days <= riskDays {
			risk = 1
		}
		out = append(out, waste.InventoryRecord{
			ItemName:         pick(rng, adjectives) + " " + pick(rng, items),
			ExpiryDate:       today.AddDate(0, 0, days).Format(waste.ExpiryLayout),
			Category:         pick(rng, inventoryCategories),
			StorageCondition: pick(rng, storageConditions),
			WasteRisk:        risk,
		})
	}
	return out
}

// demand is the expected daily quantity of one ingredient: a base level,
// a weekend lift and a slow yearly swing
func demand(base float64, day time.Time) float64 {
	d := base
	if features.IsWeekendDay(day.Weekday().String()) == 1 {
		d *= 1.3
	}
	return d * (1 + 0.15*math.Sin(2*math.Pi*float64(day.YearDay())/365))
}

// salesHistory generates the date,ingredient,sales dataset used for forecasting
func salesHistory(rng *rand.Rand, days int, start time.Time) *features.Table {
	rows := make([][]string, 0, days*len(items))
	for i := range days {
		day := start.AddDate(0, 0, i)
		for j, item := range items {
			qty := demand(float64(5+2*j), day) + rng.NormFloat64()*2
			rows = append(rows, []string{
				day.Format(time.DateOnly),
				item,
				strconv.Itoa(int(math.Max(0, math.Round(qty)))),
			})
		}
	}
	return features.NewTable([]string{"date", "ingredient", "sales"}, rows)
}

// processedSales generates the per-item training history read by the sales service
func processedSales(rng *rand.Rand, days int, start time.Time) *features.Table {
	rows := make([][]string, 0, days*len(items))
	for i := range days {
		day := start.AddDate(0, 0, i)
		weather := pick(rng, weathers)
		holiday := 0
		if rng.IntN(30) == 0 {
			holiday = 1
		}
		for j, item := range items {
			price := 1.5 + float64(j)*0.4 + rng.Float64()
			qty := demand(float64(8+j), day)
			if weather == "Rainy" {
				qty *= 0.85
			}
			if holiday == 1 {
				qty *= 1.2
			}
			qty = math.Max(0, qty+rng.NormFloat64()*2)
			rows = append(rows, []string{
				day.Format(time.DateOnly),
				item,
				salesCategories[item],
				day.Weekday().String(),
				weather,
				fmt.Sprintf("%.2f", price),
				strconv.Itoa(holiday),
				strconv.Itoa(int(math.Round(qty))),
			})
		}
	}
	columns := []string{"date", "item_name", "category", "day_of_week", "weather", "price", "holiday", "quantity_sold"}
	return features.NewTable(columns, rows)
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}
