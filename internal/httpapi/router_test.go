package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/lotto/internal/httpapi"
	"github.com/cory-johannsen/lotto/internal/lottery"
	"github.com/cory-johannsen/lotto/internal/lotto/synth"
	"github.com/cory-johannsen/lotto/internal/observability"
	"github.com/cory-johannsen/lotto/internal/prediction"
	"github.com/cory-johannsen/lotto/internal/storage/memory"
)

const (
	operatorUser     = "operator"
	operatorPassword = "let-me-draw"
)

type env struct {
	handler http.Handler
	metrics *observability.Metrics
}

type options struct {
	hash      string
	burst     int
	predictor lottery.Predictor
}

func newEnv(t *testing.T, o options) env {
	t.Helper()
	logger := zaptest.NewLogger(t)
	metrics := observability.NewMetrics()

	opts := []lottery.Option{lottery.WithRecorder(metrics)}
	if o.predictor != nil {
		opts = append(opts, lottery.WithPredictor(o.predictor))
	}
	svc := lottery.NewService(memory.NewStore(), synth.New(synth.DefaultTuning(), nil, logger), logger, opts...)

	burst := o.burst
	if burst == 0 {
		burst = 100
	}
	router := httpapi.NewRouter(
		httpapi.NewHandlers(svc, logger),
		httpapi.NewOperatorAuth(operatorUser, o.hash, zap.NewNop()),
		httpapi.NewRateLimiter(0.001, burst, metrics, logger),
		metrics,
		logger,
	)
	return env{handler: router, metrics: metrics}
}

type reply struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e env) do(t *testing.T, method, path string, body any, auth bool) (int, reply) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "203.0.113.7:5555"
	if auth {
		req.SetBasicAuth(operatorUser, operatorPassword)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var r reply
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	}
	return rec.Code, r
}

func decodeData[T any](t *testing.T, r reply) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(r.Data, &v))
	return v
}

var manual = map[string]any{
	"isLocked": true,
	"manualResults": map[string]any{
		"firstPrize":      "123456",
		"threeDigitFront": []string{"789", "012"},
		"threeDigitBack":  []string{"345", "678"},
		"twoDigitBack":    "90",
	},
}

func TestResults_BeforeAnnouncement(t *testing.T) {
	e := newEnv(t, options{})
	code, r := e.do(t, http.MethodGet, "/api/results", nil, false)
	require.Equal(t, http.StatusOK, code)
	data := decodeData[struct {
		Result      *json.RawMessage `json:"result"`
		CurrentDraw struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"currentDraw"`
	}](t, r)
	assert.Nil(t, data.Result)
	assert.Equal(t, "DRAW-0001", data.CurrentDraw.ID)
	assert.True(t, strings.HasPrefix(data.CurrentDraw.Label, "Draw of "))
}

func TestFullFlow(t *testing.T) {
	e := newEnv(t, options{})

	code, r := e.do(t, http.MethodPost, "/api/purchase", map[string]any{
		"customerName": "Malee",
		"entries": []map[string]any{
			{"numberType": "twoDigitBack", "number": "56", "amount": 2},
			{"numberType": "threeDigitFront", "number": "111", "amount": 1},
		},
	}, false)
	require.Equal(t, http.StatusOK, code, r.Message)
	bought := decodeData[struct {
		ID         string `json:"id"`
		DrawID     string `json:"drawId"`
		TotalPrice string `json:"totalPrice"`
		Entries    []struct {
			Label  string `json:"label"`
			Status string `json:"status"`
		} `json:"entries"`
	}](t, r)
	assert.Equal(t, "DRAW-0001", bought.DrawID)
	assert.Equal(t, "3", bought.TotalPrice)
	assert.Equal(t, "Last 2 digits", bought.Entries[0].Label)
	assert.Equal(t, "pending", bought.Entries[0].Status)

	code, r = e.do(t, http.MethodPost, "/api/check-winning", map[string]any{"purchaseId": bought.ID}, false)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, r.Success)

	code, r = e.do(t, http.MethodPost, "/api/results", manual, true)
	require.Equal(t, http.StatusOK, code, r.Message)
	announced := decodeData[struct {
		Result struct {
			DrawID   string `json:"drawId"`
			IsLocked bool   `json:"isLocked"`
			Story    string `json:"story"`
		} `json:"result"`
		NextDraw struct {
			ID string `json:"id"`
		} `json:"nextDraw"`
	}](t, r)
	assert.Equal(t, "DRAW-0001", announced.Result.DrawID)
	assert.True(t, announced.Result.IsLocked)
	assert.Equal(t, "Result set by operator", announced.Result.Story)
	assert.Equal(t, "DRAW-0002", announced.NextDraw.ID)

	code, r = e.do(t, http.MethodPost, "/api/check-winning", map[string]any{"purchaseId": bought.ID}, false)
	require.Equal(t, http.StatusOK, code, r.Message)
	checked := decodeData[struct {
		IsWin          bool   `json:"isWin"`
		Prize          string `json:"prize"`
		WinningEntries []struct {
			Number string `json:"number"`
			Prize  string `json:"prize"`
		} `json:"winningEntries"`
		Purchase struct {
			Status string `json:"status"`
		} `json:"purchase"`
		Draw struct {
			ID string `json:"id"`
		} `json:"draw"`
	}](t, r)
	assert.True(t, checked.IsWin)
	assert.Equal(t, "tail-two-digit-from-first-prize", checked.Prize)
	require.Len(t, checked.WinningEntries, 1)
	assert.Equal(t, "56", checked.WinningEntries[0].Number)
	assert.Equal(t, "win", checked.Purchase.Status)
	assert.Equal(t, "DRAW-0001", checked.Draw.ID)

	code, r = e.do(t, http.MethodGet, "/api/winners", nil, true)
	require.Equal(t, http.StatusOK, code, r.Message)
	winners := decodeData[struct {
		TotalWinners int `json:"totalWinners"`
		Winners      []struct {
			CustomerName string `json:"customerName"`
		} `json:"winners"`
	}](t, r)
	assert.Equal(t, 1, winners.TotalWinners)
	assert.Equal(t, "Malee", winners.Winners[0].CustomerName)

	code, r = e.do(t, http.MethodGet, "/api/purchases", nil, false)
	require.Equal(t, http.StatusOK, code)
	list := decodeData[[]struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}](t, r)
	require.Len(t, list, 1)
	assert.Equal(t, "win", list[0].Status)
}

func TestSynthesizedAnnouncement(t *testing.T) {
	e := newEnv(t, options{})
	code, r := e.do(t, http.MethodPost, "/api/results", map[string]any{"inspiration": "rain", "chaosLevel": 0.2}, false)
	require.Equal(t, http.StatusOK, code, r.Message)
	data := decodeData[struct {
		Result struct {
			FirstPrize      string   `json:"firstPrize"`
			ThreeDigitFront []string `json:"threeDigitFront"`
			ThreeDigitBack  []string `json:"threeDigitBack"`
			TwoDigitBack    string   `json:"twoDigitBack"`
			Algorithm       string   `json:"algorithm"`
			ChaosLevel      float64  `json:"chaosLevel"`
		} `json:"result"`
	}](t, r)
	assert.Len(t, data.Result.FirstPrize, 6)
	assert.Len(t, data.Result.ThreeDigitFront, 2)
	assert.Len(t, data.Result.ThreeDigitBack, 2)
	assert.Len(t, data.Result.TwoDigitBack, 2)
	assert.Equal(t, "Stardust Mixer", data.Result.Algorithm)
	assert.InDelta(t, 0.2, data.Result.ChaosLevel, 1e-9)
}

func TestPurchase_Validation(t *testing.T) {
	e := newEnv(t, options{})
	code, r := e.do(t, http.MethodPost, "/api/purchase", map[string]any{
		"customerName": "Malee",
		"entries":      []map[string]any{{"numberType": "twoDigitBack", "number": "5x", "amount": 1}},
	}, false)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, r.Success)
	assert.Contains(t, r.Message, "invalid entry")

	code, _ = e.do(t, http.MethodPost, "/api/purchase", "not an object", false)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCheckWinning_NotFound(t *testing.T) {
	e := newEnv(t, options{})
	code, _ := e.do(t, http.MethodPost, "/api/check-winning", map[string]any{"purchaseId": "nope"}, false)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = e.do(t, http.MethodPost, "/api/check-winning", map[string]any{}, false)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestOperatorAuth(t *testing.T) {
	hash, err := httpapi.HashPassword(operatorPassword)
	require.NoError(t, err)
	e := newEnv(t, options{hash: hash})

	code, r := e.do(t, http.MethodPost, "/api/results", manual, false)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, r.Success)

	code, _ = e.do(t, http.MethodGet, "/api/winners", nil, false)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = e.do(t, http.MethodPost, "/api/results", manual, true)
	assert.Equal(t, http.StatusOK, code)

	code, _ = e.do(t, http.MethodGet, "/api/results", nil, false)
	assert.Equal(t, http.StatusOK, code, "reading results needs no credentials")
}

func TestRateLimit(t *testing.T) {
	e := newEnv(t, options{burst: 2})
	body := map[string]any{
		"customerName": "Malee",
		"entries":      []map[string]any{{"numberType": "twoDigitBack", "number": "12", "amount": 1}},
	}
	for i := 0; i < 2; i++ {
		code, _ := e.do(t, http.MethodPost, "/api/purchase", body, false)
		require.Equal(t, http.StatusOK, code)
	}
	code, r := e.do(t, http.MethodPost, "/api/purchase", body, false)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.False(t, r.Success)

	code, _ = e.do(t, http.MethodGet, "/api/purchases", nil, false)
	assert.Equal(t, http.StatusOK, code, "read routes are not limited")
}

type stubPredictor struct{}

func (stubPredictor) Predict(context.Context, string) (prediction.Prediction, error) {
	return prediction.Prediction{Text: "try 12 and 345", TwoDigit: []string{"12"}, ThreeDigit: []string{"345"}}, nil
}

func TestPredict(t *testing.T) {
	e := newEnv(t, options{})
	code, _ := e.do(t, http.MethodPost, "/api/predict", map[string]any{"userInput": "x"}, false)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	e = newEnv(t, options{predictor: stubPredictor{}})
	code, r := e.do(t, http.MethodPost, "/api/predict", map[string]any{"userInput": "x"}, false)
	require.Equal(t, http.StatusOK, code)
	data := decodeData[struct {
		Prediction        string   `json:"prediction"`
		SuggestedTwoDigit []string `json:"suggestedTwoDigit"`
	}](t, r)
	assert.Equal(t, "try 12 and 345", data.Prediction)
	assert.Equal(t, []string{"12"}, data.SuggestedTwoDigit)
}

func TestMetricsAndHealth(t *testing.T) {
	e := newEnv(t, options{})
	code, _ := e.do(t, http.MethodGet, "/healthz", nil, false)
	assert.Equal(t, http.StatusOK, code)
	e.do(t, http.MethodGet, "/api/results", nil, false)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `lotto_http_requests_total{method="GET",path="/api/results",status="200"} 1`)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := httpapi.HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, httpapi.CheckPassword("secret123", hash))
	assert.False(t, httpapi.CheckPassword("wrong", hash))
}
