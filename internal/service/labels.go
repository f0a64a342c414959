package service

type Label struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

var occasionLabels = []Label{
	{"diwali", "Diwali"},
	{"eid", "Eid"},
	{"navratri", "Navratri"},
	{"ramadan", "Ramadan / Iftar"},
	{"vaisakhi", "Vaisakhi / Gurpurab"},
	{"paryushan", "Paryushan"},
	{"vesak", "Vesak"},
	{"wedding", "Wedding"},
	{"engagement", "Engagement"},
	{"mehndi", "Mehndi Night"},
	{"sangeet", "Sangeet"},
	{"housewarming", "Housewarming"},
	{"community", "Community Dinner"},
	{"bhajan", "Bhajan / Kirtan"},
	{"christmas", "Christmas"},
	{"newyear", "New Year"},
}

var dietaryLabels = []Label{
	{"veg", "Vegetarian"},
	{"nonveg", "Non-veg"},
	{"halal", "Halal"},
	{"hindu", "Hindu-style"},
	{"jain", "Jain"},
	{"sattvic", "Sattvic"},
	{"vegan", "Vegan"},
	{"glutenfree", "Gluten-free"},
}

func OccasionLabels() []Label { return append([]Label(nil), occasionLabels...) }

func DietaryLabels() []Label { return append([]Label(nil), dietaryLabels...) }

// OccasionLabel falls back to the key for unknown occasions.
func OccasionLabel(key string) string { return lookup(occasionLabels, key) }

func DietaryLabel(key string) string { return lookup(dietaryLabels, key) }

func lookup(ls []Label, key string) string {
	for _, l := range ls {
		if l.Key == key {
			return l.Label
		}
	}
	return key
}
