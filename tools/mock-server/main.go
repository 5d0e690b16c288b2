// Package main implements a mock marketplace server for local development.
// It serves canned listings from a JSON fixture in the wire shapes of the
// Steam price overview, CSFloat listings, and DMarket items APIs, so the
// aggregator can run end to end without real marketplace credentials.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// fixtureListing is one canned listing. Prices are major currency units.
type fixtureListing struct {
	MarketHashName string   `json:"market_hash_name"`
	Price          float64  `json:"price"`
	Median         float64  `json:"median"`
	Volume         string   `json:"volume"`
	FloatValue     *float64 `json:"float_value,omitempty"`
	PaintSeed      *int     `json:"paint_seed,omitempty"`
	IsStatTrak     bool     `json:"is_stattrak"`
	IsSouvenir     bool     `json:"is_souvenir"`
}

type fixtureFile struct {
	Listings []fixtureListing `json:"listings"`
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixturePath := flag.String("fixture", "tools/mock-server/testdata/listings.json", "path to listings fixture")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	listings, err := loadFixture(*fixturePath)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixturePath, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "listings", len(listings))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /market/priceoverview/", steamHandler(logger, listings))
	mux.HandleFunc("GET /api/v1/listings", csfloatHandler(logger, listings))
	mux.HandleFunc("GET /exchange/v1/market/items", dmarketHandler(logger, listings))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock marketplace server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadFixture(path string) ([]fixtureListing, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var f fixtureFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return f.Listings, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}

// steamHandler mimics the Steam Community Market price overview endpoint:
// exact name lookup, {"success":false} for unknown names.
func steamHandler(logger *slog.Logger, listings []fixtureListing) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("market_hash_name")
		for _, l := range listings {
			if l.MarketHashName != name {
				continue
			}
			writeJSON(w, map[string]any{
				"success":      true,
				"lowest_price": fmt.Sprintf("$%.2f", l.Price),
				"median_price": fmt.Sprintf("$%.2f", l.Median),
				"volume":       l.Volume,
			})
			logger.Info("steam overview", "name", name)
			return
		}
		writeJSON(w, map[string]any{"success": false})
		logger.Info("steam overview miss", "name", name)
	}
}

// csfloatHandler mimics the CSFloat listings endpoint: exact name match,
// float bounds, limit. Prices go out in USD cents.
func csfloatHandler(logger *slog.Logger, listings []fixtureListing) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		name := q.Get("market_hash_name")
		limit := parseIntDefault(q.Get("limit"), 50)
		minFloat := parseFloatQuery(q.Get("min_float"))
		maxFloat := parseFloatQuery(q.Get("max_float"))

		data := make([]map[string]any, 0, limit)
		for i, l := range listings {
			if len(data) >= limit {
				break
			}
			if l.MarketHashName != name {
				continue
			}
			if l.FloatValue != nil {
				if minFloat != nil && *l.FloatValue < *minFloat {
					continue
				}
				if maxFloat != nil && *l.FloatValue > *maxFloat {
					continue
				}
			}
			data = append(data, map[string]any{
				"id":    strconv.Itoa(300000 + i),
				"price": int64(l.Price * 100),
				"item": map[string]any{
					"market_hash_name": l.MarketHashName,
					"float_value":      l.FloatValue,
					"paint_seed":       l.PaintSeed,
					"is_stattrak":      l.IsStatTrak,
					"is_souvenir":      l.IsSouvenir,
				},
				"reference": map[string]any{
					"base_price": int64(l.Median * 100),
				},
			})
		}

		writeJSON(w, map[string]any{"data": data})
		logger.Info("csfloat listings", "name", name, "returned", len(data))
	}
}

// dmarketHandler mimics the DMarket items endpoint: case-insensitive
// substring match on title, limit. Prices go out as string cents keyed by
// currency.
func dmarketHandler(logger *slog.Logger, listings []fixtureListing) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		title := strings.ToLower(q.Get("title"))
		limit := parseIntDefault(q.Get("limit"), 50)
		currency := q.Get("currency")
		if currency == "" {
			currency = "USD"
		}

		objects := make([]map[string]any, 0, limit)
		for i, l := range listings {
			if len(objects) >= limit {
				break
			}
			if title != "" && !strings.Contains(strings.ToLower(l.MarketHashName), title) {
				continue
			}
			cents := strconv.FormatInt(int64(l.Price*100), 10)
			suggested := strconv.FormatInt(int64(l.Median*100), 10)
			objects = append(objects, map[string]any{
				"itemId":         fmt.Sprintf("mock-%d", i),
				"title":          l.MarketHashName,
				"amount":         1,
				"price":          map[string]any{currency: cents},
				"suggestedPrice": map[string]any{currency: suggested},
				"extra": map[string]any{
					"floatValue": l.FloatValue,
					"paintSeed":  l.PaintSeed,
				},
			})
		}

		writeJSON(w, map[string]any{"objects": objects})
		logger.Info("dmarket items", "title", title, "returned", len(objects))
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

func parseFloatQuery(s string) *float64 {
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return &v
	}
	return nil
}
