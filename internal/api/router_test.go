package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pawanpaudel93/nepse-analysis/internal/api/handlers"
	"github.com/pawanpaudel93/nepse-analysis/internal/external/nepse"
	"github.com/pawanpaudel93/nepse-analysis/internal/reports"
	"github.com/pawanpaudel93/nepse-analysis/internal/scheduler"
	"github.com/pawanpaudel93/nepse-analysis/pkg/config"
	"github.com/pawanpaudel93/nepse-analysis/pkg/logger"
)

type stubExchange struct{}

func (s *stubExchange) Securities(ctx context.Context) ([]nepse.Security, error) {
	return []nepse.Security{
		{SecurityID: 131, Symbol: "NABIL", SecurityName: "Nabil Bank Limited", TotalTradeQuantity: 1500},
		{SecurityID: 250, Symbol: "ADBL", SecurityName: "Agricultural Development Bank", TotalTradeQuantity: 900},
	}, nil
}

func (s *stubExchange) SectorSecurities(ctx context.Context, sectorID int) ([]nepse.Security, error) {
	securities, _ := s.Securities(ctx)
	return securities, nil
}

func (s *stubExchange) Sectors(ctx context.Context) ([]nepse.Sector, error) {
	return []nepse.Sector{{ID: 51, Name: "Banking SubIndex"}}, nil
}

func (s *stubExchange) Holidays(ctx context.Context, year int) ([]string, error) {
	return nil, nil
}

func (s *stubExchange) Floorsheet(ctx context.Context, securityID int, date string) (*nepse.Floorsheet, error) {
	return &nepse.Floorsheet{
		Records: []nepse.TradeRecord{
			{BuyerMemberID: "10", BuyerBrokerName: "X", SellerMemberID: "20", SellerBrokerName: "Y", ContractQuantity: 100},
			{BuyerMemberID: "10", BuyerBrokerName: "X", SellerMemberID: "30", SellerBrokerName: "Z", ContractQuantity: 50},
		},
		TotalQty: 150,
	}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})

	service := reports.New(&stubExchange{}, nil, log)
	if err := service.Load(context.Background()); err != nil {
		t.Fatalf("load reference data: %v", err)
	}

	sched := scheduler.New(log)

	router := NewRouter(
		handlers.NewReportsHandler(service, log),
		handlers.NewJobsHandler(sched, log),
		log,
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, wantStatus int) map[string]interface{} {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s response: %v", url, err)
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	body := getJSON(t, server.URL+"/health", http.StatusOK)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
}

func TestSectorsEndpoint(t *testing.T) {
	server := newTestServer(t)

	body := getJSON(t, server.URL+"/api/sectors", http.StatusOK)
	data, ok := body["data"].([]interface{})
	if !ok || len(data) != 1 {
		t.Fatalf("data = %v, want 1 sector", body["data"])
	}
}

func TestSecuritiesEndpoint(t *testing.T) {
	server := newTestServer(t)

	body := getJSON(t, server.URL+"/api/securities?order_by=volume&asc=false&top=1", http.StatusOK)
	data, ok := body["data"].([]interface{})
	if !ok || len(data) != 1 {
		t.Fatalf("data = %v, want 1 security", body["data"])
	}
	first := data[0].(map[string]interface{})
	if first["symbol"] != "NABIL" {
		t.Errorf("top security = %v, want NABIL", first["symbol"])
	}
}

func TestSecuritiesEndpointRejectsBadOrderKey(t *testing.T) {
	server := newTestServer(t)
	getJSON(t, server.URL+"/api/securities?order_by=price", http.StatusBadRequest)
}

func TestFloorsheetEndpoint(t *testing.T) {
	server := newTestServer(t)

	// 2024-01-15 is a Monday, a valid past trading date.
	body := getJSON(t, server.URL+"/api/floorsheet/NABIL?date=2024-01-15", http.StatusOK)
	data := body["data"].(map[string]interface{})

	buy := data["buy"].([]interface{})
	if len(buy) != 1 {
		t.Fatalf("buy side = %v, want 1 broker", buy)
	}
	top := buy[0].(map[string]interface{})
	if top["broker"] != "10 - X" {
		t.Errorf("top buyer = %v, want 10 - X", top["broker"])
	}
	if top["percent"].(float64) != 100 {
		t.Errorf("top buyer percent = %v, want 100", top["percent"])
	}

	sell := data["sell"].([]interface{})
	if len(sell) != 2 {
		t.Fatalf("sell side = %v, want 2 brokers", sell)
	}
}

func TestFloorsheetEndpointUnknownSymbol(t *testing.T) {
	server := newTestServer(t)
	getJSON(t, server.URL+"/api/floorsheet/NOPE?date=2024-01-15", http.StatusNotFound)
}

func TestFloorsheetRangeEndpointOrdering(t *testing.T) {
	server := newTestServer(t)
	base := fmt.Sprintf("%s/api/floorsheet/NABIL/range?start=2024-01-15&end=2024-01-16", server.URL)

	// Default ordering ranks by buy volume, so broker 10 leads.
	body := getJSON(t, base, http.StatusOK)
	data := body["data"].([]interface{})
	if len(data) != 3 {
		t.Fatalf("range totals = %v, want 3 brokers", body["data"])
	}
	if broker := data[0].(map[string]interface{})["broker"]; broker != "10 - X" {
		t.Errorf("top broker by buy = %v, want 10 - X", broker)
	}

	body = getJSON(t, base+"&order_by=sell", http.StatusOK)
	data = body["data"].([]interface{})
	if broker := data[0].(map[string]interface{})["broker"]; broker != "20 - Y" {
		t.Errorf("top broker by sell = %v, want 20 - Y", broker)
	}

	getJSON(t, base+"&order_by=volume", http.StatusBadRequest)
}

func TestFloorsheetRangeEndpointRejectsReversedBounds(t *testing.T) {
	server := newTestServer(t)
	url := fmt.Sprintf("%s/api/floorsheet/NABIL/range?start=2024-01-16&end=2024-01-15", server.URL)
	getJSON(t, url, http.StatusBadRequest)
}

func TestSectorCombinedEndpoint(t *testing.T) {
	server := newTestServer(t)

	body := getJSON(t, server.URL+"/api/sectors/51/floorsheet/combined?date=2024-01-15", http.StatusOK)
	data := body["data"].(map[string]interface{})

	// Both stub securities return the same sheet, so the combined buy side
	// still has one broker holding 100%.
	buy := data["buy"].([]interface{})
	if len(buy) != 1 {
		t.Fatalf("combined buy side = %v, want 1 broker", buy)
	}
	if pct := buy[0].(map[string]interface{})["percent"].(float64); pct != 100 {
		t.Errorf("combined buy percent = %v, want 100", pct)
	}
}

func TestSectorFloorsheetEndpointUnknownSector(t *testing.T) {
	server := newTestServer(t)
	getJSON(t, server.URL+"/api/sectors/99/floorsheet?date=2024-01-15", http.StatusNotFound)
}

func TestJobsEndpoints(t *testing.T) {
	server := newTestServer(t)

	body := getJSON(t, server.URL+"/api/jobs", http.StatusOK)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}

	resp, err := http.Post(server.URL+"/api/jobs/nonexistent/run", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("run unknown job status = %d, want 404", resp.StatusCode)
	}
}
