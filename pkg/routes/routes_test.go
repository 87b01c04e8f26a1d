package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/DedS3t/monopoly-economy/app/controllers"
	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/DedS3t/monopoly-economy/platform/bankruptcy"
	"github.com/DedS3t/monopoly-economy/platform/board"
	"github.com/DedS3t/monopoly-economy/platform/ledger"
	"github.com/DedS3t/monopoly-economy/platform/property"
	"github.com/DedS3t/monopoly-economy/platform/session"
	"github.com/DedS3t/monopoly-economy/platform/store"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const mediterranean = 2

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	catalog, err := board.LoadProperties()
	if err != nil {
		t.Fatalf("load board: %v", err)
	}
	s := store.NewMemory(nil)
	l := ledger.New(s, 2)
	props := property.New(s, l, catalog, 2)
	h := &controllers.Handler{
		Ledger:     l,
		Properties: props,
		Bankruptcy: bankruptcy.New(s, l, props, catalog, 2),
		Sessions: session.New(s, session.Options{
			StartingBalance: decimal.NewFromInt(1500),
			MaxPlayers:      8,
			Retries:         2,
		}),
		Board:  catalog,
		Secret: []byte("test-secret"),
	}
	app := fiber.New()
	PublicRoutes(app, h)
	AuthRoutes(app, h)
	GameRoutes(app, h)
	return app
}

func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type admission struct {
	Session models.SessionView    `json:"session"`
	Player  models.PlayerSnapshot `json:"player"`
	Token   string               `json:"access_token"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func TestSessionFlow(t *testing.T) {
	app := newApp(t)

	var host admission
	if code := call(t, app, "POST", "/api/sessions", "", fiber.Map{"host_name": "alice"}, &host); code != 201 {
		t.Fatalf("create: %d", code)
	}
	if host.Token == "" || !host.Player.IsHost {
		t.Fatalf("create: %+v", host)
	}
	code := host.Session.Code

	var guest admission
	if status := call(t, app, "POST", "/api/sessions/"+code+"/join", "", fiber.Map{"player_name": "bob", "color": "BLUE"}, &guest); status != 200 {
		t.Fatalf("join: %d", status)
	}

	var denied errorBody
	if status := call(t, app, "POST", "/api/sessions/"+code+"/start", guest.Token, nil, &denied); status != 403 {
		t.Errorf("guest start: %d", status)
	}
	if denied.Code != "UNAUTHORIZED" {
		t.Errorf("guest start code %q", denied.Code)
	}

	var started models.SessionView
	if status := call(t, app, "POST", "/api/sessions/"+code+"/start", host.Token, nil, &started); status != 200 {
		t.Fatalf("start: %d", status)
	}
	if started.Status != models.InProgress {
		t.Errorf("status %s", started.Status)
	}

	var view models.SessionView
	if status := call(t, app, "GET", "/api/sessions/"+code, "", nil, &view); status != 200 || len(view.Players) != 2 {
		t.Errorf("get: %d %+v", status, view)
	}

	if status := call(t, app, "DELETE", "/api/sessions/"+code, host.Token, nil, nil); status != 204 {
		t.Errorf("delete: %d", status)
	}
	if status := call(t, app, "GET", "/api/sessions/"+code, "", nil, nil); status != 404 {
		t.Errorf("get deleted: %d", status)
	}
}

func TestEconomyRoutes(t *testing.T) {
	app := newApp(t)

	var host, guest admission
	call(t, app, "POST", "/api/sessions", "", fiber.Map{"host_name": "alice"}, &host)
	call(t, app, "POST", "/api/sessions/"+host.Session.Code+"/join", "", fiber.Map{"player_name": "bob", "color": "BLUE"}, &guest)
	token := host.Token

	var owned models.OwnershipView
	path := "/api/properties/2/purchase"
	if status := call(t, app, "POST", path, token, fiber.Map{"player_id": host.Player.ID}, &owned); status != 201 {
		t.Fatalf("purchase: %d", status)
	}
	if owned.PropertyID != mediterranean || owned.PlayerID != host.Player.ID {
		t.Errorf("purchase: %+v", owned)
	}

	var clash errorBody
	if status := call(t, app, "POST", path, guest.Token, fiber.Map{"player_id": guest.Player.ID}, &clash); status != 400 || clash.Code != "ALREADY_OWNED" {
		t.Errorf("second purchase: %d %+v", status, clash)
	}

	var tr models.Transaction
	body := fiber.Map{"from_player_id": guest.Player.ID, "to_player_id": host.Player.ID, "amount": "25", "description": "loan"}
	if status := call(t, app, "POST", "/api/bank/transfer", token, body, &tr); status != 200 {
		t.Fatalf("transfer: %d", status)
	}
	if !tr.Amount.Equal(decimal.NewFromInt(25)) {
		t.Errorf("transfer amount %s", tr.Amount)
	}

	var p models.PlayerSnapshot
	call(t, app, "GET", "/api/bank/players/"+host.Player.ID, token, nil, &p)
	if !p.Balance.Equal(decimal.NewFromInt(1500 - 60 + 25)) {
		t.Errorf("host balance %s", p.Balance)
	}
	if p.PropertiesCount != 1 {
		t.Errorf("properties count %d", p.PropertiesCount)
	}

	var history []models.Transaction
	call(t, app, "GET", "/api/bank/transactions/"+host.Session.Code, token, nil, &history)
	if len(history) != 2 || history[0].Description != "loan" {
		t.Errorf("history %+v", history)
	}

	var check models.BankruptcyCheck
	call(t, app, "GET", "/api/bankruptcy/check/"+guest.Player.ID+"/5000", token, nil, &check)
	if !check.IsBankrupt {
		t.Errorf("check %+v", check)
	}

	var me models.PlayerSnapshot
	if status := call(t, app, "GET", "/user/cur", guest.Token, nil, &me); status != 200 || me.ID != guest.Player.ID {
		t.Errorf("me: %d %+v", status, me)
	}
}

func TestRoutesRequireToken(t *testing.T) {
	app := newApp(t)

	var body errorBody
	if status := call(t, app, "POST", "/api/bank/pay-to-bank", "", fiber.Map{"player_id": "x", "amount": "1"}, &body); status != 401 {
		t.Errorf("status %d", status)
	}
	if body.Code != "UNAUTHORIZED" {
		t.Errorf("code %q", body.Code)
	}
	if status := call(t, app, "GET", "/api/properties", "", nil, nil); status != 200 {
		t.Errorf("board listing: %d", status)
	}
}

func TestErrorShape(t *testing.T) {
	app := newApp(t)
	var host admission
	call(t, app, "POST", "/api/sessions", "", fiber.Map{"host_name": "alice"}, &host)

	var body errorBody
	status := call(t, app, "GET", "/api/bank/players/missing", host.Token, nil, &body)
	if status != 404 || body.Code != "NOT_FOUND" || body.Message != "player missing not found" {
		t.Errorf("%d %+v", status, body)
	}

	status = call(t, app, "POST", "/api/bank/pay-from-bank", host.Token, fiber.Map{"player_id": host.Player.ID, "amount": "0"}, &body)
	if status != 400 || body.Code != "INVALID_TRANSACTION" {
		t.Errorf("zero amount: %d %+v", status, body)
	}
}
