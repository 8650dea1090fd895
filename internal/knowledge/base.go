package knowledge

// #region entry

// Kind distinguishes raw ingredients from prepared dishes.
type Kind string

const (
	KindIngredient Kind = "ingredient"
	KindDish       Kind = "dish"
)

// Entry is one curated knowledge base row with a known vegetarian label.
type Entry struct {
	Name         string
	Kind         Kind
	IsVegetarian bool
	Category     string
	Description  string
	Notes        string
}

// Document renders the entry as the text indexed by the similarity index.
func (e Entry) Document() string {
	return e.Name + ": " + e.Description
}

// #endregion

// #region keywords

// Keywords holds the lexical marker lists used by the keyword layer.
// Positive and Negative terms match on word boundaries; Markers match
// as plain substrings (they are punctuation-heavy menu annotations).
type Keywords struct {
	Positive []string
	Markers  []string
	Negative []string
}

// #endregion

// #region base

// Base is the full knowledge base: curated entries plus keyword lists.
// Immutable at request time.
type Base struct {
	Entries  []Entry
	Keywords Keywords
}

// #endregion

// #region default-base

// DefaultBase returns the built-in curated knowledge base.
func DefaultBase() Base {
	return Base{
		Entries:  defaultEntries,
		Keywords: defaultKeywords,
	}
}

var defaultKeywords = Keywords{
	Positive: []string{
		"vegetarian", "veggie", "vegan", "plant-based", "meatless",
		"meat-free", "tofu", "tempeh", "seitan", "falafel", "hummus",
	},
	Markers: []string{
		"(v)", "[v]", "(vg)", "[vg]", "(vegan)", "(vegetarian)",
		"\U0001F331", "\U0001F96C", "\U0001F955",
	},
	Negative: []string{
		"chicken", "beef", "pork", "lamb", "duck", "turkey",
		"fish", "salmon", "tuna", "shrimp", "crab", "lobster",
		"bacon", "ham", "sausage", "pepperoni", "prosciutto",
		"anchovy", "anchovies", "oyster", "mussel", "clam",
		"caesar",
	},
}

var defaultEntries = []Entry{
	// Vegetarian ingredients
	{"tofu", KindIngredient, true, "protein", "Soybean curd, plant-based protein source", "Vegan protein alternative"},
	{"tempeh", KindIngredient, true, "protein", "Fermented soybean product, Indonesian origin", "High protein vegan option"},
	{"seitan", KindIngredient, true, "protein", "Wheat gluten meat substitute", "Also called wheat meat"},
	{"paneer", KindIngredient, true, "dairy", "Indian fresh cheese, non-melting", "Vegetarian but not vegan"},
	{"halloumi", KindIngredient, true, "dairy", "Cypriot cheese that can be grilled", "Check for animal rennet"},
	{"mushroom", KindIngredient, true, "vegetable", "Fungi, various varieties including portobello, shiitake", "Common meat substitute"},
	{"lentils", KindIngredient, true, "legume", "Lens-shaped legumes, high protein", "Red, green, brown varieties"},
	{"chickpeas", KindIngredient, true, "legume", "Garbanzo beans, used in hummus and falafel", "High fiber and protein"},
	{"black beans", KindIngredient, true, "legume", "Common in Latin American cuisine", "Good protein source"},
	{"quinoa", KindIngredient, true, "grain", "Protein-rich seed often used as grain", "Complete protein"},
	{"falafel", KindIngredient, true, "prepared", "Fried chickpea or fava bean balls", "Middle Eastern vegetarian staple"},
	{"hummus", KindIngredient, true, "prepared", "Chickpea and tahini spread", "Vegan dip"},
	{"cheese", KindIngredient, true, "dairy", "Dairy product from milk", "Some use animal rennet - check if strict"},
	{"eggs", KindIngredient, true, "dairy", "Chicken eggs, used in many dishes", "Vegetarian but not vegan"},
	{"butter", KindIngredient, true, "dairy", "Dairy fat product", "Vegetarian but not vegan"},
	{"jackfruit", KindIngredient, true, "fruit", "Tropical fruit used as meat substitute when unripe", "Shredded texture similar to pulled pork"},
	{"eggplant", KindIngredient, true, "vegetable", "Aubergine, used in many cuisines", "Meaty texture when cooked"},
	{"cauliflower", KindIngredient, true, "vegetable", "Cruciferous vegetable, versatile", "Popular meat substitute"},
	{"zucchini", KindIngredient, true, "vegetable", "Summer squash, courgette", "Used in vegetarian dishes"},
	{"spinach", KindIngredient, true, "vegetable", "Leafy green vegetable", "High in iron"},

	// Non-vegetarian ingredients
	{"chicken", KindIngredient, false, "meat", "Poultry meat", "Common meat, not vegetarian"},
	{"beef", KindIngredient, false, "meat", "Cattle meat", "Red meat, not vegetarian"},
	{"pork", KindIngredient, false, "meat", "Pig meat", "Not vegetarian"},
	{"bacon", KindIngredient, false, "meat", "Cured pork belly or back", "Often hidden in dishes"},
	{"ham", KindIngredient, false, "meat", "Cured pork leg", "Not vegetarian"},
	{"lamb", KindIngredient, false, "meat", "Young sheep meat", "Not vegetarian"},
	{"duck", KindIngredient, false, "meat", "Waterfowl meat", "Not vegetarian"},
	{"turkey", KindIngredient, false, "meat", "Poultry meat", "Not vegetarian"},
	{"fish", KindIngredient, false, "seafood", "Various fish species", "Not vegetarian (pescatarian only)"},
	{"salmon", KindIngredient, false, "seafood", "Fatty fish, pink flesh", "Not vegetarian"},
	{"tuna", KindIngredient, false, "seafood", "Large ocean fish", "Not vegetarian"},
	{"shrimp", KindIngredient, false, "seafood", "Crustacean shellfish", "Not vegetarian"},
	{"crab", KindIngredient, false, "seafood", "Crustacean shellfish", "Not vegetarian"},
	{"lobster", KindIngredient, false, "seafood", "Large crustacean", "Not vegetarian"},
	{"anchovies", KindIngredient, false, "seafood", "Small oily fish, often in sauces", "Hidden in Caesar dressing and Worcestershire"},
	{"fish sauce", KindIngredient, false, "condiment", "Fermented fish condiment", "Common in Thai/Vietnamese cuisine, hidden ingredient"},
	{"oyster sauce", KindIngredient, false, "condiment", "Sauce made from oyster extracts", "Common in Asian stir-fries"},
	{"gelatin", KindIngredient, false, "additive", "Derived from animal collagen", "In desserts, gummies, some yogurts"},
	{"lard", KindIngredient, false, "fat", "Rendered pig fat", "Used in some pastries and refried beans"},
	{"bone broth", KindIngredient, false, "liquid", "Stock made from animal bones", "Base for many soups"},
	{"worcestershire sauce", KindIngredient, false, "condiment", "Fermented sauce containing anchovies", "Hidden in many dishes"},

	// Vegetarian dishes
	{"margherita pizza", KindDish, true, "italian", "Pizza with tomato, mozzarella, and basil", "Classic vegetarian option"},
	{"vegetable stir fry", KindDish, true, "asian", "Mixed vegetables cooked in wok", "Check for oyster sauce"},
	{"greek salad", KindDish, true, "salad", "Tomatoes, cucumber, olives, feta cheese", "Traditional vegetarian salad"},
	{"caprese salad", KindDish, true, "salad", "Tomatoes, mozzarella, basil", "Italian vegetarian starter"},
	{"veggie burger", KindDish, true, "american", "Plant-based burger patty", "Check if bun contains animal products"},
	{"mushroom risotto", KindDish, true, "italian", "Creamy rice dish with mushrooms", "Check stock is vegetable-based"},
	{"palak paneer", KindDish, true, "indian", "Spinach curry with paneer cheese", "Classic Indian vegetarian"},
	{"dal", KindDish, true, "indian", "Lentil curry/soup", "Vegetarian protein staple"},
	{"falafel wrap", KindDish, true, "middle_eastern", "Falafel in pita with vegetables", "Vegan option"},
	{"pasta primavera", KindDish, true, "italian", "Pasta with spring vegetables", "Usually vegetarian"},
	{"cheese quesadilla", KindDish, true, "mexican", "Tortilla with melted cheese", "Vegetarian"},
	{"vegetable curry", KindDish, true, "indian", "Mixed vegetables in curry sauce", "Vegetarian option"},
	{"garden salad", KindDish, true, "salad", "Mixed greens with vegetables", "Check dressing ingredients"},

	// Non-vegetarian dishes
	{"caesar salad", KindDish, false, "salad", "Romaine lettuce with caesar dressing", "Traditional dressing contains anchovies"},
	{"pad thai", KindDish, false, "thai", "Rice noodles with tamarind sauce", "Usually contains fish sauce and dried shrimp"},
	{"chicken wings", KindDish, false, "american", "Fried or baked chicken wings", "Meat dish"},
	{"beef burger", KindDish, false, "american", "Ground beef patty in bun", "Meat dish"},
	{"fish and chips", KindDish, false, "british", "Battered fish with fries", "Seafood dish"},
	{"pepperoni pizza", KindDish, false, "italian", "Pizza with pepperoni (cured pork/beef)", "Contains meat"},
	{"tom yum soup", KindDish, false, "thai", "Hot and sour Thai soup", "Usually contains shrimp and fish sauce"},
	{"pho", KindDish, false, "vietnamese", "Vietnamese noodle soup", "Usually beef or chicken broth base"},
	{"ramen", KindDish, false, "japanese", "Japanese noodle soup", "Usually pork or chicken broth, contains chashu"},
	{"sushi roll", KindDish, false, "japanese", "Rice and fish wrapped in seaweed", "Contains raw fish unless specified vegetable"},
	{"carbonara", KindDish, false, "italian", "Pasta with egg, cheese, and pancetta", "Contains pork (pancetta/guanciale)"},
	{"french onion soup", KindDish, false, "french", "Caramelized onion soup with cheese", "Usually made with beef broth"},
}

// #endregion
