package service

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/bwmarrin/snowflake"
	"github.com/ksheermitra/backend/internal/billing/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Input is everything Aggregate needs, already loaded.
type Input struct {
	Customer      domain.Customer
	Month         domain.Month
	Subscriptions []domain.Subscription
	Adjustments   []domain.Adjustment
	Orders        []domain.Order
	Products      map[snowflake.ID]domain.Product
}

// groupKey merges line items of one product on one date. Rows with different
// unit prices stay separate.
type groupKey struct {
	date      string
	productID snowflake.ID
	price     string
}

type group struct {
	productID   snowflake.ID
	productName string
	unitPrice   decimal.Decimal
	quantity    int64
}

// Aggregate expands the month, resolves every subscription per day, adds the
// one-off orders and totals the result. It performs no I/O and its output
// depends only on in.
func Aggregate(in Input) domain.MonthlyBill {
	subs := slices.Clone(in.Subscriptions)
	slices.SortFunc(subs, func(a, b domain.Subscription) int { return cmp.Compare(a.ID, b.ID) })

	orders := lo.Filter(in.Orders, func(o domain.Order, _ int) bool {
		return o.Status != domain.OrderStatusCancelled && in.Month.Contains(o.OrderDate)
	})
	slices.SortFunc(orders, func(a, b domain.Order) int { return cmp.Compare(a.ID, b.ID) })
	ordersByDate := lo.GroupBy(orders, func(o domain.Order) string { return domain.DateKey(o.OrderDate) })

	adjustments := indexAdjustments(in.Adjustments)
	warnings := newWarningSet()

	groups := map[groupKey]*group{}
	dayGroups := map[string][]groupKey{}
	add := func(item domain.LineItem) {
		if item.Quantity <= 0 {
			return
		}
		date := domain.DateKey(item.Date)
		key := groupKey{date: date, productID: item.ProductID, price: item.UnitPrice.String()}
		g, ok := groups[key]
		if !ok {
			g = &group{productID: item.ProductID, productName: item.ProductName, unitPrice: item.UnitPrice}
			groups[key] = g
			dayGroups[date] = append(dayGroups[date], key)
		}
		g.quantity += item.Quantity
	}

	dates := in.Month.Dates()
	for _, date := range dates {
		for _, sub := range subs {
			if !InScope(sub, date) {
				continue
			}
			items, warn := Resolve(sub, date, adjustments, in.Products)
			warnings.add(warn)
			for _, item := range items {
				add(item)
			}
		}

		for _, o := range ordersByDate[domain.DateKey(date)] {
			product, ok := in.Products[o.ProductID]
			if !ok {
				warnings.add(orderMissingProductWarning(o))
				continue
			}
			add(domain.LineItem{
				Date:        date,
				ProductID:   product.ID,
				ProductName: product.Name,
				UnitPrice:   product.UnitPrice,
				Quantity:    o.Quantity,
			})
		}
	}

	bill := domain.MonthlyBill{
		CustomerID:     in.Customer.ID,
		CustomerName:   in.Customer.Name,
		Month:          in.Month,
		DailyBreakdown: []domain.DailyBreakdown{},
		Warnings:       warnings.list,
	}

	monthTotal := decimal.Zero
	for _, date := range dates {
		keys := dayGroups[domain.DateKey(date)]
		if len(keys) == 0 {
			continue
		}

		items := make([]domain.BillItem, 0, len(keys))
		dayTotal := decimal.Zero
		for _, key := range keys {
			g := groups[key]
			lineTotal := g.unitPrice.Mul(decimal.NewFromInt(g.quantity))
			dayTotal = dayTotal.Add(lineTotal)
			items = append(items, domain.BillItem{
				ProductID:   g.productID,
				ProductName: g.productName,
				UnitPrice:   domain.NewMoney(g.unitPrice),
				Quantity:    g.quantity,
				LineTotal:   domain.NewMoney(lineTotal),
			})
		}
		slices.SortFunc(items, compareBillItems)

		bill.DailyBreakdown = append(bill.DailyBreakdown, domain.DailyBreakdown{
			Date:     domain.DateKey(date),
			Items:    items,
			DayTotal: domain.NewMoney(dayTotal),
		})
		monthTotal = monthTotal.Add(dayTotal)
	}
	bill.MonthTotal = domain.NewMoney(monthTotal)

	return bill
}

func compareBillItems(a, b domain.BillItem) int {
	return cmp.Or(
		cmp.Compare(a.ProductName, b.ProductName),
		cmp.Compare(a.ProductID, b.ProductID),
		a.UnitPrice.Cmp(b.UnitPrice.Decimal),
	)
}

// warningSet keeps the first occurrence of each distinct warning so a broken
// subscription is reported once, not once per day.
type warningSet struct {
	seen map[string]bool
	list []domain.Warning
}

func newWarningSet() *warningSet {
	return &warningSet{seen: map[string]bool{}}
}

func (s *warningSet) add(w *domain.Warning) {
	if w == nil {
		return
	}
	key := w.Code + "|" + idString(w.SubscriptionID) + "|" + idString(w.OrderID) + "|" + idString(w.ProductID)
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.list = append(s.list, *w)
}

func idString(id *snowflake.ID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func orderMissingProductWarning(o domain.Order) *domain.Warning {
	oid, pid := o.ID, o.ProductID
	return &domain.Warning{
		Code:      domain.WarningMissingProduct,
		OrderID:   &oid,
		ProductID: &pid,
		Message:   fmt.Sprintf("product %s not found", o.ProductID),
	}
}
