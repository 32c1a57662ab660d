package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dharmasatrya/flightdeals/internal/models"
)

// Store persists searched deals and backs the pricing HistorySource and the
// scoring QualitySource. Persisted deals double as the route's price history.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS flight_deals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			search_hash TEXT NOT NULL,
			provider TEXT NOT NULL DEFAULT 'amadeus',
			origin_iata TEXT NOT NULL,
			destination_iata TEXT NOT NULL,
			one_way INTEGER NOT NULL DEFAULT 1,
			departure_at TEXT,
			return_at TEXT,
			num_stops INTEGER NOT NULL DEFAULT 0,
			duration_minutes INTEGER NOT NULL DEFAULT 0,
			layover_minutes_max INTEGER NOT NULL DEFAULT 0,
			airline_codes TEXT NOT NULL DEFAULT '[]',
			cabin_class TEXT,
			price_total REAL NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'USD',
			num_travelers INTEGER NOT NULL DEFAULT 1,
			deep_link TEXT,
			price_baseline REAL,
			price_pct_drop REAL,
			score INTEGER,
			score_factors TEXT,
			badges TEXT,
			created_at TEXT NOT NULL,
			UNIQUE(search_hash, origin_iata, destination_iata, departure_at)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deals_route
			ON flight_deals(origin_iata, destination_iata, departure_at, price_total)`,
		`CREATE INDEX IF NOT EXISTS idx_deals_created
			ON flight_deals(origin_iata, destination_iata, created_at)`,
		`CREATE TABLE IF NOT EXISTS airline_quality (
			carrier_code TEXT PRIMARY KEY,
			score REAL NOT NULL DEFAULT 0.5,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS search_requests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			params TEXT NOT NULL,
			user_agent TEXT,
			ip_hash TEXT,
			created_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SearchHash keys a persisted result set by its canonical search parameters.
func SearchHash(req models.SearchRequest) string {
	parts := []string{
		req.Origin,
		req.Destination,
		req.DepartureDate,
		req.ReturnDate,
		fmt.Sprintf("%d", req.Travelers),
		req.CabinClass,
		req.Stops,
	}
	digest := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(digest[:])
}

// SaveDeals upserts the ranked result set under the given search hash.
func (s *Store) SaveDeals(ctx context.Context, searchHash string, deals []models.Deal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO flight_deals (
			search_hash, provider, origin_iata, destination_iata, one_way,
			departure_at, return_at, num_stops, duration_minutes, layover_minutes_max,
			airline_codes, cabin_class, price_total, currency, num_travelers,
			deep_link, price_baseline, price_pct_drop, score, score_factors, badges, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(search_hash, origin_iata, destination_iata, departure_at) DO UPDATE SET
			provider = excluded.provider,
			one_way = excluded.one_way,
			return_at = excluded.return_at,
			num_stops = excluded.num_stops,
			duration_minutes = excluded.duration_minutes,
			layover_minutes_max = excluded.layover_minutes_max,
			airline_codes = excluded.airline_codes,
			cabin_class = excluded.cabin_class,
			price_total = excluded.price_total,
			currency = excluded.currency,
			num_travelers = excluded.num_travelers,
			deep_link = excluded.deep_link,
			price_baseline = excluded.price_baseline,
			price_pct_drop = excluded.price_pct_drop,
			score = excluded.score,
			score_factors = excluded.score_factors,
			badges = excluded.badges,
			created_at = excluded.created_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, d := range deals {
		airlines, _ := json.Marshal(d.AirlineCodes)
		factors, _ := json.Marshal(d.ScoreFactors)
		badges, _ := json.Marshal(d.Badges)

		_, err := stmt.ExecContext(ctx,
			searchHash, d.Provider, d.OriginIATA, d.DestinationIATA, d.OneWay,
			formatTime(d.DepartureTime), formatTime(d.ReturnTime),
			d.NumStops, d.DurationMinutes, d.LayoverMinutesMax,
			string(airlines), nullable(d.CabinClass), d.PriceTotal, d.Currency, d.NumTravelers,
			nullable(d.DeepLink), d.PriceBaseline, d.PricePctDrop, d.Score,
			string(factors), string(badges), now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecordSearch logs the incoming search parameters for later analysis.
func (s *Store) RecordSearch(ctx context.Context, req models.SearchRequest, userAgent, ipHash string) error {
	params, err := json.Marshal(req)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO search_requests (params, user_agent, ip_hash, created_at) VALUES (?, ?, ?, ?)`,
		string(params), userAgent, ipHash, time.Now().UTC().Format(time.RFC3339))
	return err
}

// TopDeals lists stored deals ordered by score, most recent first on ties.
func (s *Store) TopDeals(ctx context.Context, origin, destination string, limit int) ([]models.Deal, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT provider, origin_iata, destination_iata, one_way,
			departure_at, return_at, num_stops, duration_minutes, layover_minutes_max,
			airline_codes, cabin_class, price_total, currency, num_travelers,
			deep_link, price_baseline, price_pct_drop, score, score_factors, badges
		FROM flight_deals`
	var conditions []string
	var args []any
	if origin != "" {
		conditions = append(conditions, "origin_iata = ?")
		args = append(args, origin)
	}
	if destination != "" {
		conditions = append(conditions, "destination_iata = ?")
		args = append(args, destination)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY score DESC, created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deals []models.Deal
	for rows.Next() {
		var d models.Deal
		var departureAt, returnAt, cabin, deepLink, airlines, factors, badges sql.NullString
		err := rows.Scan(&d.Provider, &d.OriginIATA, &d.DestinationIATA, &d.OneWay,
			&departureAt, &returnAt, &d.NumStops, &d.DurationMinutes, &d.LayoverMinutesMax,
			&airlines, &cabin, &d.PriceTotal, &d.Currency, &d.NumTravelers,
			&deepLink, &d.PriceBaseline, &d.PricePctDrop, &d.Score, &factors, &badges)
		if err != nil {
			return nil, err
		}

		d.DepartureTime = parseTime(departureAt)
		d.ReturnTime = parseTime(returnAt)
		d.CabinClass = cabin.String
		d.DeepLink = deepLink.String
		if airlines.Valid {
			json.Unmarshal([]byte(airlines.String), &d.AirlineCodes)
		}
		if factors.Valid {
			json.Unmarshal([]byte(factors.String), &d.ScoreFactors)
		}
		if badges.Valid {
			json.Unmarshal([]byte(badges.String), &d.Badges)
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// RecentRoutePrices implements pricing.HistorySource for routes with an
// unknown departure: prices recorded since the cutoff, most recent first.
func (s *Store) RecentRoutePrices(ctx context.Context, origin, destination string, since time.Time, limit int) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT price_total FROM flight_deals
		 WHERE origin_iata = ? AND destination_iata = ? AND created_at >= ?
		 ORDER BY created_at DESC LIMIT ?`,
		origin, destination, since.UTC().Format(time.RFC3339), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPrices(rows)
}

// DepartureWindowPrices implements pricing.HistorySource for routes with a
// known departure: prices for departures inside the window, most recent first.
func (s *Store) DepartureWindowPrices(ctx context.Context, origin, destination string, from, to time.Time, limit int) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT price_total FROM flight_deals
		 WHERE origin_iata = ? AND destination_iata = ?
		   AND departure_at >= ? AND departure_at <= ?
		 ORDER BY created_at DESC LIMIT ?`,
		origin, destination, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPrices(rows)
}

// AirlineQuality implements scoring.QualitySource. Carriers with no recorded
// score are simply absent from the map.
func (s *Store) AirlineQuality(ctx context.Context, codes []string) (map[string]float64, error) {
	if len(codes) == 0 {
		return map[string]float64{}, nil
	}

	placeholders := strings.Repeat("?,", len(codes))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(codes))
	for i, c := range codes {
		args[i] = c
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT carrier_code, score FROM airline_quality WHERE carrier_code IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make(map[string]float64)
	for rows.Next() {
		var code string
		var score float64
		if err := rows.Scan(&code, &score); err != nil {
			return nil, err
		}
		scores[code] = score
	}
	return scores, rows.Err()
}

// SetAirlineQuality upserts a carrier's quality score.
func (s *Store) SetAirlineQuality(ctx context.Context, code string, score float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO airline_quality (carrier_code, score, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(carrier_code) DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at`,
		code, score, time.Now().UTC().Format(time.RFC3339))
	return err
}

func scanPrices(rows *sql.Rows) ([]float64, error) {
	var prices []float64
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
