package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cory-johannsen/lotto/internal/lottery"
	"github.com/cory-johannsen/lotto/internal/lotto/period"
	"github.com/cory-johannsen/lotto/internal/lotto/result"
	"github.com/cory-johannsen/lotto/internal/lotto/ticket"
)

type entryView struct {
	ID         string          `json:"id"`
	NumberType ticket.Category `json:"numberType"`
	Number     string          `json:"number"`
	Label      string          `json:"label"`
	PrizeLabel string          `json:"prizeLabel"`
	Amount     int             `json:"amount"`
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Status     ticket.Status   `json:"status"`
}

type purchaseView struct {
	ID            string          `json:"id"`
	DrawID        string          `json:"drawId"`
	CustomerName  string          `json:"customerName"`
	Entries       []entryView     `json:"entries"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	PurchaseDate  time.Time       `json:"purchaseDate"`
	Status        ticket.Status   `json:"status"`
	CheckedDrawID string          `json:"checkedDrawId,omitempty"`
	LastCheckedAt *time.Time      `json:"lastCheckedAt,omitempty"`
}

func viewPurchase(p ticket.Purchase) purchaseView {
	entries := make([]entryView, len(p.Entries))
	for i, e := range p.Entries {
		spec, _ := ticket.Lookup(e.Category)
		entries[i] = entryView{
			ID:         e.ID,
			NumberType: e.Category,
			Number:     e.Number,
			Label:      spec.Label,
			PrizeLabel: spec.PrizeLabel,
			Amount:     e.Quantity,
			Price:      spec.Price,
			TotalPrice: e.TotalPrice(),
			Status:     e.Status,
		}
	}
	return purchaseView{
		ID:            p.ID,
		DrawID:        p.DrawID,
		CustomerName:  p.CustomerName,
		Entries:       entries,
		TotalPrice:    p.TotalPrice,
		PurchaseDate:  p.PurchasedAt,
		Status:        p.Status,
		CheckedDrawID: p.CheckedDrawID,
		LastCheckedAt: p.LastCheckedAt,
	}
}

func viewPurchases(ps []ticket.Purchase) []purchaseView {
	out := make([]purchaseView, len(ps))
	for i, p := range ps {
		out[i] = viewPurchase(p)
	}
	return out
}

type resultsView struct {
	Result      *result.Result `json:"result"`
	CurrentDraw period.Labeled `json:"currentDraw"`
}

type announceView struct {
	Result   result.Result  `json:"result"`
	Draw     period.Labeled `json:"draw"`
	NextDraw period.Labeled `json:"nextDraw"`
}

type drawRef struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Date  time.Time `json:"date"`
}

// resultDraw describes the draw a result belongs to, dated by its announcement.
func resultDraw(r result.Result) drawRef {
	d := period.Draw{ID: r.DrawID, Date: r.AnnouncedAt}
	return drawRef{ID: r.DrawID, Label: d.Label(), Date: r.AnnouncedAt}
}

type checkView struct {
	IsWin          bool                   `json:"isWin"`
	Prize          string                 `json:"prize"`
	Purchase       purchaseView           `json:"purchase"`
	WinningEntries []lottery.WinningEntry `json:"winningEntries"`
	Draw           drawRef                `json:"draw"`
}

type winnersView struct {
	Draw         drawRef          `json:"draw"`
	Winners      []lottery.Winner `json:"winners"`
	TotalWinners int              `json:"totalWinners"`
}
