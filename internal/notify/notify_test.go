package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wms-backend/internal/config"
	"wms-backend/internal/expiry"
	"wms-backend/internal/inventory"

	"github.com/shopspring/decimal"
)

func warning(name string, urgency expiry.Urgency, days int) inventory.ExpiryWarning {
	return inventory.ExpiryWarning{
		BinCode:         "A-01-01",
		WarehouseName:   "Központi",
		ProductName:     name,
		BatchNumber:     "L-" + name,
		Quantity:        decimal.RequireFromString("12.5"),
		Unit:            "kg",
		UseByDate:       "2025-06-13",
		DaysUntilExpiry: days,
		Urgency:         urgency,
	}
}

func TestBuildExpiryAlert(t *testing.T) {
	msg, ok, err := BuildExpiryAlert([]inventory.ExpiryWarning{
		warning("Csirkemell", expiry.Critical, 3),
		warning("Tejföl", expiry.High, 10),
		warning("Liszt", expiry.Low, 90),
	})
	if err != nil || !ok {
		t.Fatalf("build = %v, %v", ok, err)
	}
	if msg.Subject != "[WMS] Lejárat Figyelmeztetés - 1 kritikus, 1 magas" {
		t.Errorf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"Csirkemell", "Tejföl", "2025. 06. 13.", "12,5 kg"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text missing %q", want)
		}
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("html missing %q", want)
		}
	}
	if strings.Contains(msg.Text, "Liszt") {
		t.Error("low urgency items must not be mailed")
	}
}

func TestBuildExpiryAlertNothingToSend(t *testing.T) {
	_, ok, err := BuildExpiryAlert([]inventory.ExpiryWarning{warning("Liszt", expiry.Medium, 20)})
	if err != nil || ok {
		t.Fatalf("build = %v, %v; want nothing to send", ok, err)
	}
}

func TestGatewayClientSend(t *testing.T) {
	var got Message
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewGatewayClient(config.EmailConfig{
		Enabled:  true,
		APIURL:   srv.URL,
		APIToken: "secret",
		From:     "WMS <noreply@wms.local>",
	})
	sent, err := SendExpiryAlert(context.Background(), client, []string{"raktar@example.com"},
		[]inventory.ExpiryWarning{warning("Csirkemell", expiry.Critical, 2)})
	if err != nil || !sent {
		t.Fatalf("send = %v, %v", sent, err)
	}
	if auth != "Bearer secret" {
		t.Errorf("authorization = %q", auth)
	}
	if got.From != "WMS <noreply@wms.local>" || len(got.To) != 1 || got.To[0] != "raktar@example.com" {
		t.Errorf("message = %+v", got)
	}
}

func TestGatewayClientReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid recipient"}`))
	}))
	defer srv.Close()

	client := NewGatewayClient(config.EmailConfig{Enabled: true, APIURL: srv.URL})
	err := client.Send(context.Background(), Message{To: []string{"x"}, Subject: "s"})
	if err == nil || !strings.Contains(err.Error(), "invalid recipient") {
		t.Fatalf("err = %v", err)
	}
}

func TestGatewayClientDisabled(t *testing.T) {
	client := NewGatewayClient(config.EmailConfig{})
	if err := client.Send(context.Background(), Message{}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}
