package menu

import "context"

// DefaultMenu is the starter catalog loaded by `ordersctl seed-menu`.
func DefaultMenu() []Input {
	return []Input{
		{Name: "Chicken Biryani", Description: "Aromatic basmati rice cooked with tender chicken and spices", Price: 250, Category: "Main Course", PreparationTime: 25},
		{Name: "Paneer Butter Masala", Description: "Creamy tomato-based curry with soft paneer cubes", Price: 180, Category: "Main Course", PreparationTime: 15},
		{Name: "Masala Dosa", Description: "Crispy rice crepe filled with spiced potato mixture", Price: 120, Category: "South Indian", PreparationTime: 12},
		{Name: "Chole Bhature", Description: "Spicy chickpea curry served with fluffy fried bread", Price: 150, Category: "North Indian", PreparationTime: 10},
		{Name: "Veg Fried Rice", Description: "Stir-fried rice with mixed vegetables and soy sauce", Price: 140, Category: "Chinese", PreparationTime: 15},
		{Name: "Chicken Tikka", Description: "Grilled marinated chicken pieces with mint chutney", Price: 220, Category: "Starters", PreparationTime: 20},
		{Name: "Samosa (2 pcs)", Description: "Crispy pastry filled with spiced potatoes and peas", Price: 60, Category: "Snacks", PreparationTime: 5},
		{Name: "Gulab Jamun (2 pcs)", Description: "Sweet milk dumplings in sugar syrup", Price: 80, Category: "Desserts", PreparationTime: 3},
		{Name: "Mango Lassi", Description: "Refreshing yogurt drink with mango pulp", Price: 70, Category: "Beverages", PreparationTime: 3},
		{Name: "Masala Chai", Description: "Traditional Indian spiced tea", Price: 30, Category: "Beverages", PreparationTime: 5},
	}
}

// Seed creates every item of DefaultMenu and returns the created items.
func (s *Service) Seed(ctx context.Context) ([]Item, error) {
	var created []Item
	for _, in := range DefaultMenu() {
		it, err := s.Create(ctx, in)
		if err != nil {
			return created, err
		}
		created = append(created, *it)
	}
	return created, nil
}
