package categorize

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultRules is the built-in rule table. Order is precedence: the more
// specific categories sit above the generic ones, so a description that
// matches both "subscriptions" and "shopping" lands in subscriptions.
func DefaultRules() []Rule {
	return []Rule{
		{CategoryID: "subscriptions", Keywords: []string{
			"netflix", "spotify", "hulu", "disney+", "youtube premium",
			"apple.com/bill", "prime video", "subscription", "patreon",
		}},
		{CategoryID: "fitness", Keywords: []string{
			"gym", "fitness", "planet fit", "peloton", "yoga", "crossfit",
		}},
		{CategoryID: "groceries", Keywords: []string{
			"walmart", "kroger", "safeway", "aldi", "trader joe", "whole foods",
			"costco", "grocery", "supermarket", "wegmans", "publix",
		}},
		{CategoryID: "gas", Keywords: []string{
			"shell", "chevron", "exxon", "mobil", "bp ", "sunoco", "gas station",
			"fuel", "76 ", "marathon petro",
		}},
		{CategoryID: "restaurants", Keywords: []string{
			"restaurant", "starbucks", "mcdonald", "chipotle", "pizza",
			"coffee", "cafe", "doordash", "grubhub", "uber eats", "taco",
			"burger", "sushi", "diner",
		}},
		{CategoryID: "transport", Keywords: []string{
			"uber", "lyft", "transit", "metro", "parking", "toll", "amtrak",
		}},
		{CategoryID: "travel", Keywords: []string{
			"airline", "airways", "delta air", "united air", "hotel", "airbnb",
			"expedia", "marriott", "hilton",
		}},
		{CategoryID: "utilities", Keywords: []string{
			"electric", "water", "internet", "comcast", "verizon", "at&t",
			"t-mobile", "utility", "energy", "con ed", "national grid",
		}},
		{CategoryID: "health", Keywords: []string{
			"pharmacy", "cvs", "walgreens", "doctor", "dental", "medical",
			"clinic", "hospital",
		}},
		{CategoryID: "entertainment", Keywords: []string{
			"cinema", "theater", "theatre", "steam", "playstation", "xbox",
			"ticketmaster", "concert",
		}},
		{CategoryID: "shopping", Keywords: []string{
			"amazon", "target", "best buy", "ebay", "etsy", "ikea", "mall",
			"store", "shop",
		}},
		{CategoryID: "income", Keywords: []string{
			"payroll", "direct dep", "salary", "deposit", "refund",
		}},
	}
}

// LoadRules reads an ordered rule table from a YAML file. The document is
// a list, and list order is preserved as rule precedence:
//
//	- category: groceries
//	  keywords: [walmart, kroger]
//	- category: gas
//	  keywords: [shell, chevron]
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("rules file %s has no rules", path)
	}
	for i, r := range rules {
		if r.CategoryID == "" || len(r.Keywords) == 0 {
			return nil, fmt.Errorf("rule %d is missing category or keywords", i)
		}
	}
	return rules, nil
}
