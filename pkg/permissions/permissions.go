// Package permissions holds the declarative product/action scope model
// that gates every tool invocation.
package permissions

import (
	"fmt"
	"strings"
)

// Product identifies a resource family. Closed set.
type Product string

const (
	ProductVirtualCards      Product = "virtual_cards"
	ProductCreditCards       Product = "credit_cards"
	ProductTransactions      Product = "transactions"
	ProductExpenseCategories Product = "expense_categories"
)

// Action identifies an operation kind. Closed set.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// String returns the product name.
func (p Product) String() string { return string(p) }

// String returns the action name.
func (a Action) String() string { return string(a) }

// Products returns every product in catalog order.
func Products() []Product {
	return []Product{
		ProductVirtualCards,
		ProductCreditCards,
		ProductTransactions,
		ProductExpenseCategories,
	}
}

// ParseProduct converts a string to a Product.
func ParseProduct(s string) (Product, error) {
	switch Product(s) {
	case ProductVirtualCards, ProductCreditCards, ProductTransactions, ProductExpenseCategories:
		return Product(s), nil
	default:
		return "", fmt.Errorf("unknown product: %q", s)
	}
}

// ParseAction converts a string to an Action.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionRead, ActionCreate, ActionUpdate:
		return Action(s), nil
	default:
		return "", fmt.Errorf("unknown action: %q", s)
	}
}

// Scope grants a set of actions on one product. The action set must be
// non-empty.
type Scope struct {
	Product Product
	Actions []Action
}

// Contains reports whether the scope grants the action.
func (s Scope) Contains(action Action) bool {
	for _, a := range s.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Configuration is an ordered list of scopes, at most one per product.
// Immutable once built; each Toolkit owns its own Configuration.
type Configuration struct {
	scopes []Scope
}

// NewConfiguration builds a Configuration from the given scopes.
// A later scope for a product already present replaces the earlier one
// in place (last write wins); the earlier position in the order is
// kept. Scopes with empty action sets are rejected.
func NewConfiguration(scopes ...Scope) (Configuration, error) {
	cfg := Configuration{}
	index := make(map[Product]int)
	for _, scope := range scopes {
		if len(scope.Actions) == 0 {
			return Configuration{}, fmt.Errorf("scope for %s has no actions", scope.Product)
		}
		if _, err := ParseProduct(string(scope.Product)); err != nil {
			return Configuration{}, err
		}
		for _, a := range scope.Actions {
			if _, err := ParseAction(string(a)); err != nil {
				return Configuration{}, err
			}
		}
		if i, ok := index[scope.Product]; ok {
			cfg.scopes[i] = scope
			continue
		}
		index[scope.Product] = len(cfg.scopes)
		cfg.scopes = append(cfg.scopes, scope)
	}
	return cfg, nil
}

// Permits reports whether some scope names the product and includes the
// action. Pure; O(number of scopes).
func (c Configuration) Permits(product Product, action Action) bool {
	for _, scope := range c.scopes {
		if scope.Product == product {
			return scope.Contains(action)
		}
	}
	return false
}

// Scopes returns a copy of the ordered scope list.
func (c Configuration) Scopes() []Scope {
	out := make([]Scope, len(c.scopes))
	copy(out, c.scopes)
	return out
}

// Parse builds a Configuration from the CLI scope format:
// "product.action,product.action,...", e.g.
// "virtual_cards.read,virtual_cards.create,transactions.read".
// The single token "all" grants every action on every product.
func Parse(spec string) (Configuration, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Configuration{}, fmt.Errorf("empty scope specification")
	}
	if spec == "all" {
		return AllProducts(), nil
	}

	actionsByProduct := make(map[Product][]Action)
	var order []Product
	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		parts := strings.SplitN(token, ".", 2)
		if len(parts) != 2 {
			return Configuration{}, fmt.Errorf("scope %q is not in product.action format", token)
		}
		product, err := ParseProduct(parts[0])
		if err != nil {
			return Configuration{}, err
		}
		action, err := ParseAction(parts[1])
		if err != nil {
			return Configuration{}, err
		}
		if _, seen := actionsByProduct[product]; !seen {
			order = append(order, product)
		}
		if !containsAction(actionsByProduct[product], action) {
			actionsByProduct[product] = append(actionsByProduct[product], action)
		}
	}

	scopes := make([]Scope, 0, len(order))
	for _, product := range order {
		scopes = append(scopes, Scope{Product: product, Actions: actionsByProduct[product]})
	}
	return NewConfiguration(scopes...)
}

// AllProducts grants read, create and update on every product.
func AllProducts() Configuration {
	scopes := make([]Scope, 0, len(Products()))
	for _, product := range Products() {
		scopes = append(scopes, Scope{
			Product: product,
			Actions: []Action{ActionRead, ActionCreate, ActionUpdate},
		})
	}
	cfg, _ := NewConfiguration(scopes...)
	return cfg
}

func containsAction(actions []Action, action Action) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}
