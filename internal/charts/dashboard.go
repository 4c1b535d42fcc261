// Package charts turns food catalog snapshots into the dashboard series
// and renders them as PNG bar charts for delivery as chat photos.
package charts

import (
	"sort"

	"foodseer-bot/internal/models"
)

// Series is one chart: a title, bar labels, values, and optionally a
// color per bar (the palette is used when Colors is empty).
type Series struct {
	Title  string
	Labels []string
	Values []float64
	Colors []string
}

// AllergyBreakdown counts how many foods carry each allergen tag, in
// first-seen catalog order.
func AllergyBreakdown(foods []models.Food) Series {
	index := make(map[string]int)
	s := Series{Title: "Allergy Breakdown"}
	for _, food := range foods {
		for _, allergen := range food.Allergies {
			i, ok := index[allergen]
			if !ok {
				i = len(s.Labels)
				index[allergen] = i
				s.Labels = append(s.Labels, allergen)
				s.Values = append(s.Values, 0)
			}
			s.Values[i]++
		}
	}
	return s
}

// TopRated returns the n best-rated foods; unrated foods are skipped.
func TopRated(foods []models.Food, n int) Series {
	rated := make([]models.Food, 0, len(foods))
	for _, food := range foods {
		if food.Rating > 0 {
			rated = append(rated, food)
		}
	}
	sort.SliceStable(rated, func(i, j int) bool {
		return rated[i].Rating > rated[j].Rating
	})
	if len(rated) > n {
		rated = rated[:n]
	}

	s := Series{Title: "Top Rated Foods"}
	for _, food := range rated {
		s.Labels = append(s.Labels, food.FoodName)
		s.Values = append(s.Values, food.Rating)
		s.Colors = append(s.Colors, "#36A2EB")
	}
	return s
}

// lowStockThreshold flags items that need restocking on the chart.
const lowStockThreshold = 13

// StockLevels charts remaining stock per food, low-stock bars in red.
func StockLevels(foods []models.Food) Series {
	s := Series{Title: "Stock Levels"}
	for _, food := range foods {
		s.Labels = append(s.Labels, food.FoodName)
		s.Values = append(s.Values, float64(food.Amount))
		if food.Amount < lowStockThreshold {
			s.Colors = append(s.Colors, "#FF6384")
		} else {
			s.Colors = append(s.Colors, "#4BC0C0")
		}
	}
	return s
}

// StockValue charts price times stock per food.
func StockValue(foods []models.Food) Series {
	s := Series{Title: "Stock Value ($)"}
	for _, food := range foods {
		s.Labels = append(s.Labels, food.FoodName)
		s.Values = append(s.Values, food.Price*float64(food.Amount))
		s.Colors = append(s.Colors, "#9966FF")
	}
	return s
}
