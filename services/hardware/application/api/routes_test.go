package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/hacklabs/hwlib/pkg/auth"
	"github.com/hacklabs/hwlib/pkg/logger"
	"github.com/hacklabs/hwlib/pkg/sse"
	"github.com/hacklabs/hwlib/services/hardware/application/api"
	"github.com/hacklabs/hwlib/services/hardware/application/handlers"
	appsvcs "github.com/hacklabs/hwlib/services/hardware/application/services"
	"github.com/hacklabs/hwlib/services/hardware/infrastructure/persistence/memory"
)

type testAPI struct {
	router   http.Handler
	sessions sessions.Store
	svc      *appsvcs.HardwareService
	live     *sse.Broadcaster
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := logger.Nop()
	live := sse.New(log)
	svc := appsvcs.NewHardwareService(memory.NewStore(), log, appsvcs.WithBroadcaster(live))
	store := sessions.NewCookieStore(
		[]byte("test-auth-key-must-be-32-bytes!!"),
		[]byte("test-enc-key-must-be-32-bytes!!!"),
	)

	r := chi.NewRouter()
	api.Mount(r, &appsvcs.Services{Hardware: svc}, api.Deps{
		Sessions: store,
		Log:      log,
		Live:     live,
		Stream:   sse.StreamConfig{KeepAlive: time.Hour},
	})

	if _, err := svc.AddItems(context.Background(), []appsvcs.NewItemInput{
		{Name: "Arduino Uno", URL: "https://store.arduino.cc/uno", Stock: 5},
		{Name: "Raspberry Pi 4", URL: "https://www.raspberrypi.com/products/raspberry-pi-4-model-b/", Stock: 1},
	}); err != nil {
		t.Fatalf("seed items: %v", err)
	}

	return &testAPI{router: r, sessions: store, svc: svc, live: live}
}

// cookies returns the session cookie of a signed-in user.
func (a *testAPI) cookies(t *testing.T, userID int64, name string) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	s, err := a.sessions.Get(r, auth.SessionName)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	s.Values[auth.SessionUserIDKey] = userID
	s.Values[auth.SessionUserNameKey] = name
	if err := s.Save(r, w); err != nil {
		t.Fatalf("save session: %v", err)
	}
	return w.Result().Cookies()
}

func (a *testAPI) do(t *testing.T, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestLifecycle_ReserveTakeReturn(t *testing.T) {
	a := newTestAPI(t)
	ada := a.cookies(t, 7, "ada")

	rr := a.do(t, http.MethodPost, "/hardware/reserve", map[string]any{"item_id": 1, "quantity": 2}, ada)
	if rr.Code != http.StatusCreated {
		t.Fatalf("reserve: got %d %s", rr.Code, rr.Body)
	}
	res := decode[handlers.ReserveResponse](t, rr)
	if len(res.Token) != 52 {
		t.Fatalf("token length: got %d", len(res.Token))
	}

	rr = a.do(t, http.MethodGet, "/hardware/items", nil, ada)
	if rr.Code != http.StatusOK {
		t.Fatalf("items: got %d", rr.Code)
	}
	items := decode[[]appsvcs.ItemView](t, rr)
	if items[0].ItemsLeft != 3 || !items[0].Reserved || items[0].ReservationToken != res.Token {
		t.Fatalf("unexpected item view: %+v", items[0])
	}

	rr = a.do(t, http.MethodGet, "/hardware/items", nil, nil)
	anon := decode[[]appsvcs.ItemView](t, rr)
	if anon[0].Reserved || anon[0].ReservationToken != "" {
		t.Fatalf("anonymous view leaked reservation: %+v", anon[0])
	}

	rr = a.do(t, http.MethodPost, "/hardware/take", map[string]string{"token": strings.ToLower(res.Token)}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("take: got %d %s", rr.Code, rr.Body)
	}
	if !decode[handlers.TakeResponse](t, rr).Taken {
		t.Fatal("expected taken=true")
	}

	rr = a.do(t, http.MethodPost, "/hardware/take", map[string]string{"token": res.Token}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("second take: got %d, want 400", rr.Code)
	}

	rr = a.do(t, http.MethodPost, "/hardware/return", map[string]string{"token": res.Token}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("return: got %d %s", rr.Code, rr.Body)
	}

	rr = a.do(t, http.MethodGet, "/hardware/reservations/"+res.Token, nil, nil)
	if rr.Code != http.StatusGone {
		t.Fatalf("closed reservation: got %d, want 410", rr.Code)
	}

	rr = a.do(t, http.MethodGet, "/hardware/items/1", nil, nil)
	if got := decode[handlers.ItemResponse](t, rr); got.ItemsLeft != 5 {
		t.Fatalf("items left after return: got %d, want 5", got.ItemsLeft)
	}
}

func TestReserve_Errors(t *testing.T) {
	a := newTestAPI(t)
	ada := a.cookies(t, 7, "ada")

	tests := []struct {
		name       string
		body       any
		cookies    []*http.Cookie
		wantStatus int
	}{
		{"no session", map[string]any{"item_id": 1}, nil, http.StatusUnauthorized},
		{"malformed json", `{"item_id":`, ada, http.StatusBadRequest},
		{"missing item", map[string]any{"quantity": 1}, ada, http.StatusUnprocessableEntity},
		{"zero quantity", map[string]any{"item_id": 1, "quantity": 0}, ada, http.StatusBadRequest},
		{"too many", map[string]any{"item_id": 2, "quantity": 2}, ada, http.StatusBadRequest},
		{"unknown item", map[string]any{"item_id": 99}, ada, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := a.do(t, http.MethodPost, "/hardware/reserve", tt.body, tt.cookies)
			if rr.Code != tt.wantStatus {
				t.Fatalf("got %d, want %d (%s)", rr.Code, tt.wantStatus, rr.Body)
			}
		})
	}
}

func TestReserve_Twice(t *testing.T) {
	a := newTestAPI(t)
	ada := a.cookies(t, 7, "ada")

	if rr := a.do(t, http.MethodPost, "/hardware/reserve", map[string]any{"item_id": 1}, ada); rr.Code != http.StatusCreated {
		t.Fatalf("first reserve: got %d", rr.Code)
	}
	rr := a.do(t, http.MethodPost, "/hardware/reserve", map[string]any{"item_id": 1}, ada)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("second reserve: got %d, want 400", rr.Code)
	}
}

func TestCancel(t *testing.T) {
	a := newTestAPI(t)
	ada := a.cookies(t, 7, "ada")
	bob := a.cookies(t, 8, "bob")

	rr := a.do(t, http.MethodPost, "/hardware/reserve", map[string]any{"item_id": 2}, ada)
	tok := decode[handlers.ReserveResponse](t, rr).Token

	if rr := a.do(t, http.MethodPost, "/hardware/cancel", map[string]string{"token": tok}, bob); rr.Code != http.StatusNotFound {
		t.Fatalf("cancel by other user: got %d, want 404", rr.Code)
	}
	if rr := a.do(t, http.MethodPost, "/hardware/cancel", map[string]string{"token": tok}, nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("cancel without session: got %d, want 401", rr.Code)
	}
	if rr := a.do(t, http.MethodPost, "/hardware/cancel", map[string]string{"token": tok}, ada); rr.Code != http.StatusNoContent {
		t.Fatalf("cancel: got %d, want 204 (%s)", rr.Code, rr.Body)
	}
	if rr := a.do(t, http.MethodPost, "/hardware/take", map[string]string{"token": tok}, nil); rr.Code != http.StatusGone {
		t.Fatalf("take after cancel: got %d, want 410", rr.Code)
	}

	// The single unit is free again.
	if rr := a.do(t, http.MethodPost, "/hardware/reserve", map[string]any{"item_id": 2}, bob); rr.Code != http.StatusCreated {
		t.Fatalf("reserve after cancel: got %d", rr.Code)
	}
}

func TestTake_UnknownToken(t *testing.T) {
	a := newTestAPI(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{"missing token", map[string]string{}, http.StatusUnprocessableEntity},
		{"never issued", map[string]string{"token": strings.Repeat("A", 52)}, http.StatusNotFound},
		{"garbage", map[string]string{"token": "not-a-token"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := a.do(t, http.MethodPost, "/hardware/take", tt.body, nil); rr.Code != tt.wantStatus {
				t.Fatalf("got %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestItems_Catalog(t *testing.T) {
	a := newTestAPI(t)
	ada := a.cookies(t, 7, "ada")

	rr := a.do(t, http.MethodPost, "/hardware/items", map[string]any{
		"items": []map[string]any{{"name": "Soldering Iron", "url": "https://example.com/iron", "stock": 3}},
	}, ada)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add: got %d %s", rr.Code, rr.Body)
	}
	added := decode[[]handlers.ItemResponse](t, rr)
	if len(added) != 1 || added[0].ItemID != 3 || added[0].ItemsLeft != 3 {
		t.Fatalf("unexpected added items: %+v", added)
	}

	if rr := a.do(t, http.MethodPost, "/hardware/items", map[string]any{"items": []any{}}, ada); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty import: got %d, want 422", rr.Code)
	}
	for _, stock := range []int64{-1, 2147483648, 4294967301} {
		rr := a.do(t, http.MethodPost, "/hardware/items", map[string]any{
			"items": []map[string]any{{"name": "Oscilloscope", "url": "https://example.com/scope", "stock": stock}},
		}, ada)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("import with stock %d: got %d, want 422", stock, rr.Code)
		}
		rr = a.do(t, http.MethodPut, "/hardware/items/3", map[string]any{"name": "Soldering Iron", "url": "https://example.com/iron", "stock": stock}, ada)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("update with stock %d: got %d, want 422", stock, rr.Code)
		}
	}
	if rr := a.do(t, http.MethodPost, "/hardware/items", map[string]any{"items": []any{}}, nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("import without session: got %d, want 401", rr.Code)
	}

	rr = a.do(t, http.MethodPut, "/hardware/items/3", map[string]any{"name": "Soldering Station", "url": "https://example.com/station", "stock": 4}, ada)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: got %d %s", rr.Code, rr.Body)
	}
	if got := decode[handlers.ItemResponse](t, rr); got.ItemName != "Soldering Station" || got.ItemStock != 4 {
		t.Fatalf("unexpected updated item: %+v", got)
	}

	if rr := a.do(t, http.MethodPost, "/hardware/reserve", map[string]any{"item_id": 3}, ada); rr.Code != http.StatusCreated {
		t.Fatalf("reserve: got %d", rr.Code)
	}
	if rr := a.do(t, http.MethodDelete, "/hardware/items/3", nil, ada); rr.Code != http.StatusBadRequest {
		t.Fatalf("delete reserved item: got %d, want 400", rr.Code)
	}
	if rr := a.do(t, http.MethodDelete, "/hardware/items/1", nil, ada); rr.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d, want 204", rr.Code)
	}
	if rr := a.do(t, http.MethodGet, "/hardware/items/1", nil, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("get deleted: got %d, want 404", rr.Code)
	}
	if rr := a.do(t, http.MethodGet, "/hardware/items/abc", nil, nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad id: got %d, want 400", rr.Code)
	}
}

func TestReservations_Listing(t *testing.T) {
	a := newTestAPI(t)
	ada := a.cookies(t, 7, "ada")
	bob := a.cookies(t, 8, "bob")

	a.do(t, http.MethodPost, "/hardware/reserve", map[string]any{"item_id": 1}, ada)
	a.do(t, http.MethodPost, "/hardware/reserve", map[string]any{"item_id": 1, "quantity": 2}, bob)
	a.do(t, http.MethodPost, "/hardware/reserve", map[string]any{"item_id": 2}, bob)

	if rr := a.do(t, http.MethodGet, "/hardware/reservations", nil, nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("list without session: got %d, want 401", rr.Code)
	}

	rr := a.do(t, http.MethodGet, "/hardware/reservations", nil, ada)
	if all := decode[[]handlers.ReservationResponse](t, rr); len(all) != 3 {
		t.Fatalf("all reservations: got %d, want 3", len(all))
	}

	rr = a.do(t, http.MethodGet, "/hardware/items/1/reservations", nil, ada)
	byItem := decode[[]handlers.ReservationResponse](t, rr)
	if len(byItem) != 2 {
		t.Fatalf("item reservations: got %d, want 2", len(byItem))
	}
	for _, r := range byItem {
		if r.ItemID != 1 || r.ExpiresIn != 29 && r.ExpiresIn != 30 {
			t.Errorf("unexpected reservation: %+v", r)
		}
	}

	if rr := a.do(t, http.MethodGet, "/hardware/items/99/reservations", nil, ada); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown item reservations: got %d, want 404", rr.Code)
	}

	rr = a.do(t, http.MethodGet, "/hardware/reservations/"+byItem[0].Token, nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get reservation: got %d", rr.Code)
	}
	if got := decode[handlers.ReservationResponse](t, rr); got.Token != byItem[0].Token {
		t.Fatalf("token mismatch: %+v", got)
	}
}

func TestUpdates_StreamsMutations(t *testing.T) {
	a := newTestAPI(t)
	srv := httptest.NewServer(a.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/hardware/updates", http.NoBody)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: got %q", ct)
	}

	deadline := time.Now().Add(2 * time.Second)
	for a.live.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	rr := a.do(t, http.MethodPost, "/hardware/reserve", map[string]any{"item_id": 2}, a.cookies(t, 7, "ada"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("reserve: got %d", rr.Code)
	}

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var pkt struct {
		Type int `json:"type"`
		Item struct {
			ItemID       int64 `json:"itemID"`
			ItemsLeft    int   `json:"itemsLeft"`
			ItemHasStock bool  `json:"itemHasStock"`
		} `json:"item"`
	}
	if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &pkt); err != nil {
		t.Fatalf("decode frame %q: %v", line, err)
	}
	if pkt.Type != 2 || pkt.Item.ItemID != 2 || pkt.Item.ItemsLeft != 0 || pkt.Item.ItemHasStock {
		t.Fatalf("unexpected packet: %+v", pkt)
	}
}

func TestMutationLimit(t *testing.T) {
	log := logger.Nop()
	svc := appsvcs.NewHardwareService(memory.NewStore(), log)
	r := chi.NewRouter()
	api.Mount(r, &appsvcs.Services{Hardware: svc}, api.Deps{Log: log, MutationLimit: 1})

	codes := make([]int, 2)
	for i := range codes {
		req := httptest.NewRequest(http.MethodPost, "/hardware/take", strings.NewReader(`{"token":"NOPE"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "192.0.2.10:1234"
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		codes[i] = rr.Code
	}
	if codes[0] == http.StatusTooManyRequests || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v, want second request limited", codes)
	}

	req := httptest.NewRequest(http.MethodGet, "/hardware/items", http.NoBody)
	req.RemoteAddr = "192.0.2.10:1234"
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("reads are not limited: got %d", rr.Code)
	}
}
