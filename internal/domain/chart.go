package domain

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// PathSeparator joins account names in a hierarchy path.
const PathSeparator = " > "

// maxDepth bounds parent walks so a corrupted parent cycle cannot loop forever.
const maxDepth = 64

// Chart is an in-memory view of an owner's chart of accounts.
type Chart struct {
	byID     map[string]*Account
	children map[string][]*Account
}

// NewChart indexes accounts by ID and by parent.
func NewChart(accounts []*Account) *Chart {
	c := &Chart{
		byID:     make(map[string]*Account, len(accounts)),
		children: make(map[string][]*Account),
	}
	for _, a := range accounts {
		c.byID[a.ID] = a
		if a.ParentID != nil {
			c.children[*a.ParentID] = append(c.children[*a.ParentID], a)
		}
	}
	for _, kids := range c.children {
		sort.Slice(kids, func(i, j int) bool { return kids[i].Code < kids[j].Code })
	}
	return c
}

// AncestorChain walks parent links from a to the root and returns the chain
// root first. parent resolves a parent ID.
func AncestorChain(a *Account, parent func(id string) (*Account, error)) ([]*Account, error) {
	chain := []*Account{a}
	for a.ParentID != nil {
		if len(chain) > maxDepth {
			return nil, Errorf(ErrReferentialIntegrity, "account %s: parent chain exceeds %d levels", a.Code, maxDepth)
		}
		p, err := parent(*a.ParentID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, p)
		a = p
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// JoinPath joins the names of a root-to-leaf chain.
func JoinPath(chain []*Account) string {
	names := make([]string, len(chain))
	for i, a := range chain {
		names[i] = a.Name
	}
	return strings.Join(names, PathSeparator)
}

// Subtree returns the direct children of id, or the whole subtree
// breadth-first when recursive is set. children lists the direct children of
// an account in code order.
func Subtree(id string, recursive bool, children func(id string) ([]*Account, error)) ([]*Account, error) {
	direct, err := children(id)
	if err != nil {
		return nil, err
	}
	if !recursive {
		return append([]*Account(nil), direct...), nil
	}

	var out []*Account
	queue := append([]*Account(nil), direct...)
	for len(queue) > 0 {
		a := queue[0]
		queue = queue[1:]
		out = append(out, a)

		next, err := children(a.ID)
		if err != nil {
			return nil, err
		}
		queue = append(queue, next...)
	}
	return out, nil
}

// Descendants is Subtree over the accounts held by the chart.
func (c *Chart) Descendants(id string, recursive bool) []*Account {
	out, _ := Subtree(id, recursive, func(id string) ([]*Account, error) {
		return c.children[id], nil
	})
	return out
}

// Rollup returns the balance of a detail account, or the sum of the detail
// balances beneath a grouping account.
func (c *Chart) Rollup(id string) (decimal.Decimal, error) {
	a, ok := c.byID[id]
	if !ok {
		return decimal.Zero, ErrAccountNotFound
	}
	if a.IsDetail {
		return a.Balance, nil
	}
	total := decimal.Zero
	for _, d := range c.Descendants(id, true) {
		if d.IsDetail {
			total = total.Add(d.Balance)
		}
	}
	return total, nil
}

// TotalsByCategory sums detail balances per category.
func (c *Chart) TotalsByCategory() map[Category]decimal.Decimal {
	totals := make(map[Category]decimal.Decimal, len(Categories))
	for _, cat := range Categories {
		totals[cat] = decimal.Zero
	}
	for _, a := range c.byID {
		if a.IsDetail {
			totals[a.Category] = totals[a.Category].Add(a.Balance)
		}
	}
	return totals
}
