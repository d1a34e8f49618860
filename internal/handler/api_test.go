package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"nhooyr.io/websocket"

	"farmflow/internal/auth"
	"farmflow/internal/config"
	"farmflow/internal/ledger"
	"farmflow/internal/models"
	"farmflow/internal/notify"
	"farmflow/internal/query"
	gormrepository "farmflow/internal/repository/gorm"
)

type testAPI struct {
	engine *gin.Engine
	jwt    auth.JWT
	hub    *notify.Hub
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := gdb.AutoMigrate(
		&models.Crop{},
		&models.Account{},
		&models.Purchase{},
		&models.InsurancePolicy{},
		&models.InsuranceClaim{},
		&models.PriceUpdate{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store := gormrepository.New(gdb)
	led := ledger.New(store, nil, nil, config.LedgerConfig{
		Premium:            100,
		CoverageMultiplier: 10,
		Authority:          "authority",
		OracleIdentity:     "risk-oracle",
	})
	q := &query.Service{Repo: store, Authority: "authority"}
	j := auth.JWT{Secret: []byte("test-secret"), TokenTTL: time.Hour}

	hub := notify.NewHub(nil)
	engine := gin.New()
	authed := auth.Middleware(j)
	(&CropHandler{Ledger: led, Query: q}).Register(engine, authed)
	(&MarketHandler{Ledger: led, Query: q}).Register(engine, authed)
	(&InsuranceHandler{Ledger: led, Query: q}).Register(engine, authed)
	(&EventHandler{Hub: hub}).Register(engine, authed)

	return &testAPI{engine: engine, jwt: j, hub: hub}
}

func (a *testAPI) token(t *testing.T, identity, role string) string {
	t.Helper()
	tok, _, err := a.jwt.Sign(auth.Claims{Identity: identity, Role: role})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp struct {
		Code    int            `json:"code"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return resp.Data
}

func TestAPIRejectsMissingToken(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/v1/crops", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d want=401", w.Code)
	}
}

func TestAPIBuyFlow(t *testing.T) {
	api := newTestAPI(t)
	farmer := api.token(t, "farmer-1", auth.RoleFarmer)
	buyer := api.token(t, "buyer-1", auth.RoleBuyer)

	w := api.do(t, http.MethodPost, "/api/v1/crops", farmer, gin.H{
		"name": "Apple", "base_price": 100, "stock": 10,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("add crop: status=%d body=%s", w.Code, w.Body.String())
	}
	cropID := decodeData(t, w)["crop_id"].(float64)
	if cropID != 1 {
		t.Fatalf("crop_id=%v want=1", cropID)
	}

	w = api.do(t, http.MethodPost, "/api/v1/market/topup", buyer, gin.H{"amount": 1000})
	if w.Code != http.StatusOK {
		t.Fatalf("topup: status=%d body=%s", w.Code, w.Body.String())
	}

	w = api.do(t, http.MethodPost, "/api/v1/market/buy", buyer, gin.H{
		"crop_id": 1, "quantity": 5,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("buy: status=%d body=%s", w.Code, w.Body.String())
	}
	data := decodeData(t, w)
	if data["TotalPrice"].(float64) != 500 {
		t.Fatalf("TotalPrice=%v want=500", data["TotalPrice"])
	}

	w = api.do(t, http.MethodGet, "/api/v1/market/balance", buyer, nil)
	if got := decodeData(t, w)["buyer"].(float64); got != 500 {
		t.Fatalf("buyer balance=%v want=500", got)
	}
	w = api.do(t, http.MethodGet, "/api/v1/market/balance", farmer, nil)
	if got := decodeData(t, w)["farmer"].(float64); got != 500 {
		t.Fatalf("farmer balance=%v want=500", got)
	}
}

func TestAPIErrorMapping(t *testing.T) {
	api := newTestAPI(t)
	farmer := api.token(t, "farmer-1", auth.RoleFarmer)
	other := api.token(t, "farmer-2", auth.RoleFarmer)
	buyer := api.token(t, "buyer-1", auth.RoleBuyer)

	w := api.do(t, http.MethodPost, "/api/v1/crops", farmer, gin.H{
		"name": "Apple", "base_price": 100, "stock": 2,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("add crop: status=%d", w.Code)
	}

	// Not the owner.
	w = api.do(t, http.MethodPost, "/api/v1/crops/1/stock", other, gin.H{"amount": 5})
	if w.Code != http.StatusForbidden {
		t.Fatalf("not-owner status=%d want=403", w.Code)
	}

	// Precondition conflict: broke buyer.
	w = api.do(t, http.MethodPost, "/api/v1/market/buy", buyer, gin.H{
		"crop_id": 1, "quantity": 1,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("insufficient funds status=%d want=409", w.Code)
	}

	// Validation: risk score out of range.
	w = api.do(t, http.MethodPost, "/api/v1/crops/1/risk", farmer, gin.H{"risk_score": 2000})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("risk range status=%d want=400", w.Code)
	}

	// Missing crop.
	w = api.do(t, http.MethodPost, "/api/v1/crops/99/deactivate", farmer, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing crop status=%d want=404", w.Code)
	}
}

func TestAPIInsuranceLifecycle(t *testing.T) {
	api := newTestAPI(t)
	farmer := api.token(t, "farmer-1", auth.RoleFarmer)
	buyer := api.token(t, "buyer-1", auth.RoleBuyer)
	authority := api.token(t, "authority", auth.RoleAuthority)

	api.do(t, http.MethodPost, "/api/v1/crops", farmer, gin.H{
		"name": "Apple", "base_price": 100, "stock": 10,
	})
	api.do(t, http.MethodPost, "/api/v1/market/topup", buyer, gin.H{"amount": 1000})
	api.do(t, http.MethodPost, "/api/v1/market/buy", buyer, gin.H{"crop_id": 1, "quantity": 5})

	w := api.do(t, http.MethodPost, "/api/v1/insurance/policy", farmer, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("policy: status=%d body=%s", w.Code, w.Body.String())
	}
	if got := decodeData(t, w)["Coverage"].(float64); got != 1000 {
		t.Fatalf("Coverage=%v want=1000", got)
	}

	w = api.do(t, http.MethodPost, "/api/v1/insurance/claims", farmer, gin.H{
		"crop_id": 1, "amount": 100, "reason": "hail",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("claim: status=%d body=%s", w.Code, w.Body.String())
	}

	// Only the authority adjudicates.
	w = api.do(t, http.MethodPost, "/api/v1/insurance/claims/1/process", farmer, gin.H{"approve": true})
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-authority status=%d want=403", w.Code)
	}
	w = api.do(t, http.MethodPost, "/api/v1/insurance/claims/1/process", authority, gin.H{"approve": true})
	if w.Code != http.StatusOK {
		t.Fatalf("process: status=%d body=%s", w.Code, w.Body.String())
	}
	data := decodeData(t, w)
	if data["Status"] != "approved" || data["Payout"].(float64) != 100 {
		t.Fatalf("claim=%+v want approved/100", data)
	}
}

func TestAPIEmptyListingsAreArrays(t *testing.T) {
	api := newTestAPI(t)
	buyer := api.token(t, "buyer-1", auth.RoleBuyer)

	for _, path := range []string{
		"/api/v1/insurance/claims",
		"/api/v1/insurance/claims?farmer=farmer-1",
		"/api/v1/market/purchases",
		"/api/v1/crops",
	} {
		w := api.do(t, http.MethodGet, path, buyer, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), `"data":[]`) {
			t.Fatalf("%s body=%s want data as empty array", path, w.Body.String())
		}
	}
}

func TestEventStreamDeliversAndDropsDepartedSubscriber(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.engine)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/events/stream"
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{
			"Authorization": []string{"Bearer " + api.token(t, "buyer-1", auth.RoleBuyer)},
		},
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	waitFor(t, func() bool { return api.hub.SubscriberCount() == 1 }, "subscriber registered")

	api.hub.Publish(ctx, notify.Event{Type: notify.EventCropAdded, At: time.Now()})
	_, payload, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var event notify.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("payload %q: %v", payload, err)
	}
	if event.Type != notify.EventCropAdded {
		t.Fatalf("type=%s want=%s", event.Type, notify.EventCropAdded)
	}

	// A client that goes away is noticed without another event being written.
	if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil {
		t.Fatalf("close: %v", err)
	}
	waitFor(t, func() bool { return api.hub.SubscriberCount() == 0 }, "subscriber dropped")
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting: %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
