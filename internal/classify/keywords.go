// Package classify implements the two-stage food-relevance classifier:
// a weighted keyword heuristic and an external oracle for ambiguous pages,
// with one cached verdict per page URL.
package classify

// keywordCategory groups food phrases by how strongly they imply free food.
type keywordCategory struct {
	name    string
	weight  float64
	phrases []string
}

// categories are ordered strongest first; the heuristic reports the first
// (strongest) matching category as its reason.
var categories = []keywordCategory{
	{
		name:   "explicit_free",
		weight: 1.0,
		phrases: []string{
			"free food",
			"free pizza",
			"free lunch",
			"free dinner",
			"free breakfast",
			"free snacks",
			"free refreshments",
			"complimentary food",
			"complimentary refreshments",
			"food will be provided",
			"refreshments will be provided",
		},
	},
	{
		name:   "food_provided",
		weight: 0.8,
		phrases: []string{
			"food provided",
			"lunch provided",
			"dinner provided",
			"breakfast provided",
			"refreshments provided",
			"snacks provided",
			"meals provided",
			"light refreshments",
			"catering provided",
		},
	},
	{
		name:   "specific_foods",
		weight: 0.6,
		phrases: []string{
			"pizza", "donuts", "doughnuts", "bagels", "boba", "tacos",
			"ice cream", "cookies", "brownies", "sandwiches", "subs",
			"wraps", "burgers", "hot dogs", "wings", "chicken", "pasta",
			"salad", "fruit", "vegetables", "chips", "popcorn",
			"pretzels", "candy",
		},
	},
	{
		name:   "beverages",
		weight: 0.5,
		phrases: []string{
			"coffee", "tea", "soda", "juice", "water bottles",
			"energy drinks",
		},
	},
	{
		name:   "meal_types",
		weight: 0.4,
		phrases: []string{
			"appetizers", "hors d'oeuvres", "buffet", "potluck",
			"barbecue", "bbq", "cookout", "picnic", "brunch",
		},
	},
}

// negationPhrases force a negative verdict regardless of other matches.
var negationPhrases = []string{
	"no food",
	"food not provided",
	"no refreshments",
	"refreshments not provided",
	"food will not be provided",
	"refreshments will not be provided",
	"bring your own food",
	"byof",
	"byo food",
}
