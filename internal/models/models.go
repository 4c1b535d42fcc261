// internal/models/models.go
package models

import (
	"encoding/json"
)

// Food mirrors the platform API's food object. The server assigns IDs and
// owns the canonical copy; everything here is a read-only snapshot.
type Food struct {
	ID              int64    `json:"id"`
	FoodName        string   `json:"foodName"`
	Price           float64  `json:"price"`
	Amount          int      `json:"amount"`
	Allergies       []string `json:"allergies"`
	Rating          float64  `json:"rating"`
	NumberOfRatings int      `json:"numberOfRatings"`
}

// Preferences is the user's preference snapshot from GET /api/users/me.
// DietaryRestrictions arrives either as a JSON array or as a JSON string
// containing an encoded array, so it is kept raw and decoded lazily.
type Preferences struct {
	Budget              string          `json:"budget"`
	DietaryRestrictions json.RawMessage `json:"dietaryRestrictions"`
}

// Allergies decodes the dietary restrictions list. Malformed data is
// treated as an empty list, never an error.
func (p Preferences) Allergies() []string {
	if len(p.DietaryRestrictions) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(p.DietaryRestrictions, &list); err == nil {
		return list
	}

	// Some server responses double-encode the list as a string.
	var inner string
	if err := json.Unmarshal(p.DietaryRestrictions, &inner); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(inner), &list); err != nil {
		return nil
	}
	return list
}

type User struct {
	ID          int64       `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	Role        string      `json:"role"`
	Preferences Preferences `json:"preferences"`
}

const (
	RoleCustomer = "CUSTOMER"
	RoleStaff    = "STAFF"
	RoleAdmin    = "ADMIN"
	RoleDriver   = "DRIVER"
)

type Order struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Foods       []Food `json:"foods"`
	IsFulfilled bool   `json:"isFulfilled"`
	IsPickedUp  bool   `json:"isPickedUp"`
	Status      string `json:"status"`
}

// Total sums item prices; quantities are expressed by repetition in Foods.
func (o Order) Total() float64 {
	var total float64
	for _, f := range o.Foods {
		total += f.Price
	}
	return total
}

type DriverStats struct {
	TotalDeliveries int     `json:"totalDeliveries"`
	TotalEarning    float64 `json:"totalEarning"`
	AverageRating   float64 `json:"averageRating"`
	ActiveOrders    int     `json:"activeOrders"`
}
