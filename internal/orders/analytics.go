package orders

import "github.com/shopspring/decimal"

// Analytics aggregates orders created within a date range.
type Analytics struct {
	TotalOrders       int     `json:"totalOrders"`
	TotalRevenue      float64 `json:"totalRevenue"`
	CompletedOrders   int     `json:"completedOrders"`
	CompletedRevenue  float64 `json:"completedRevenue"`
	CancelledOrders   int     `json:"cancelledOrders"`
	CancelledRevenue  float64 `json:"cancelledRevenue"`
	ActiveOrders      int     `json:"activeOrders"`
	ActiveRevenue     float64 `json:"activeRevenue"`
	AverageOrderValue float64 `json:"averageOrderValue"`
	CompletionRate    float64 `json:"completionRate"` // percent, one decimal
}

// Summarize computes Analytics over orders. Revenue includes cancelled orders; the
// empty set yields zero average and zero completion rate.
func Summarize(orders []Order) Analytics {
	var a Analytics
	var total, completed, cancelled, active decimal.Decimal
	for _, o := range orders {
		amt := decimal.NewFromFloat(o.TotalAmount)
		a.TotalOrders++
		total = total.Add(amt)

		switch {
		case o.Status == StatusCompleted:
			a.CompletedOrders++
			completed = completed.Add(amt)
		case o.Status == StatusCancelled:
			a.CancelledOrders++
			cancelled = cancelled.Add(amt)
		case o.Status.Active():
			a.ActiveOrders++
			active = active.Add(amt)
		}
	}

	a.TotalRevenue = total.InexactFloat64()
	a.CompletedRevenue = completed.InexactFloat64()
	a.CancelledRevenue = cancelled.InexactFloat64()
	a.ActiveRevenue = active.InexactFloat64()

	if a.TotalOrders > 0 {
		n := decimal.NewFromInt(int64(a.TotalOrders))
		a.AverageOrderValue = total.Div(n).Round(2).InexactFloat64()
		a.CompletionRate = decimal.NewFromInt(int64(a.CompletedOrders)).
			Mul(decimal.NewFromInt(100)).
			Div(n).
			Round(1).
			InexactFloat64()
	}
	return a
}
