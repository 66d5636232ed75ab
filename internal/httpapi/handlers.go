package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lotto/internal/lottery"
	"github.com/cory-johannsen/lotto/internal/lotto/result"
	"github.com/cory-johannsen/lotto/internal/lotto/ticket"
)

// Handlers serves the lottery routes.
type Handlers struct {
	svc    *lottery.Service
	logger *zap.Logger
}

// NewHandlers creates Handlers.
//
// Precondition: svc and logger are non-nil.
func NewHandlers(svc *lottery.Service, logger *zap.Logger) *Handlers {
	return &Handlers{svc: svc, logger: logger}
}

// GetResults returns the latest result (null before the first announcement)
// and the open draw.
func (h *Handlers) GetResults(w http.ResponseWriter, r *http.Request) {
	draw, err := h.svc.CurrentDraw(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	view := resultsView{CurrentDraw: draw.View()}
	latest, err := h.svc.LatestResult(r.Context())
	switch {
	case err == nil:
		view.Result = &latest
	case !errors.Is(err, lottery.ErrNotAnnounced):
		writeError(w, h.logger, err)
		return
	}
	writeData(w, "", view)
}

type announceRequest struct {
	Inspiration   string          `json:"inspiration"`
	ChaosLevel    *float64        `json:"chaosLevel"`
	IsLocked      bool            `json:"isLocked"`
	ManualResults *result.Numbers `json:"manualResults"`
}

// PostResults announces a result for the open draw.
func (h *Handlers) PostResults(w http.ResponseWriter, r *http.Request) {
	var req announceRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	a, err := h.svc.Announce(r.Context(), lottery.AnnounceRequest{
		Inspiration: req.Inspiration,
		Chaos:       req.ChaosLevel,
		Locked:      req.IsLocked,
		Manual:      req.ManualResults,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeData(w, "result announced", announceView{
		Result:   a.Result,
		Draw:     a.Closed.View(),
		NextDraw: a.Next.View(),
	})
}

type purchaseRequest struct {
	CustomerName string              `json:"customerName"`
	Entries      []ticket.EntryInput `json:"entries"`
}

// PostPurchase sells entries into the open draw.
func (h *Handlers) PostPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	p, err := h.svc.Purchase(r.Context(), req.CustomerName, req.Entries)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeData(w, "purchase recorded", viewPurchase(p))
}

// GetPurchases lists every purchase, most recent first.
func (h *Handlers) GetPurchases(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.Purchases(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeData(w, "", viewPurchases(ps))
}

type checkRequest struct {
	PurchaseID string `json:"purchaseId"`
}

// PostCheckWinning checks one purchase against its draw's result.
func (h *Handlers) PostCheckWinning(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.PurchaseID == "" {
		writeError(w, h.logger, errors.Join(errBadRequest, errors.New("purchaseId is required")))
		return
	}
	res, err := h.svc.CheckWinning(r.Context(), req.PurchaseID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeData(w, "", checkView{
		IsWin:          res.IsWin,
		Prize:          res.Prize,
		Purchase:       viewPurchase(res.Purchase),
		WinningEntries: res.WinningEntries,
		Draw:           resultDraw(res.Result),
	})
}

// GetWinners lists the winners of the latest announced draw.
func (h *Handlers) GetWinners(w http.ResponseWriter, r *http.Request) {
	res, winners, err := h.svc.Winners(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeData(w, "", winnersView{
		Draw:         resultDraw(res),
		Winners:      winners,
		TotalWinners: len(winners),
	})
}

type predictRequest struct {
	UserInput string `json:"userInput"`
}

// PostPredict forwards free text to the prediction backend.
func (h *Handlers) PostPredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	p, err := h.svc.Predict(r.Context(), req.UserInput)
	if err != nil {
		if errors.Is(err, lottery.ErrPredictionDisabled) {
			writeError(w, h.logger, err)
			return
		}
		h.logger.Warn("prediction failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, envelope{Success: false, Message: "prediction failed"})
		return
	}
	writeData(w, "", p)
}
