package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gregory-j-wilson/Suplica/internal/cache"
	"github.com/gregory-j-wilson/Suplica/pkg/request"
)

const cacheTTL = time.Hour * 24

var ErrNotFound = errors.New("location not found")

// Geocoder resolves "city, state, country" to coordinates with a
// Nominatim-compatible search endpoint.
type Geocoder struct {
	logger *slog.Logger
	url    string
	client *http.Client
	cache  *cache.Cache[point]
}

type point struct {
	lat, lon float64
}

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func New(url string, timeout time.Duration) *Geocoder {
	g := &Geocoder{
		logger: slog.Default().With("logger", "geocoder"),
		url:    url,
		client: &http.Client{Timeout: timeout},
	}

	g.cache = cache.NewWithTTL(cacheTTL, g.search)

	return g
}

// Lookup returns coordinates of the address. Answers are cached for a day,
// public Nominatim asks clients not to repeat queries.
func (g *Geocoder) Lookup(ctx context.Context, address string) (float64, float64, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return 0, 0, ErrNotFound
	}

	p, err := g.cache.Load(ctx, address)
	if err != nil {
		return 0, 0, err
	}

	return p.lat, p.lon, nil
}

func (g *Geocoder) search(ctx context.Context, address string) (point, error) {
	var places []place

	err := request.New(g.client, g.logger).
		URL(g.url).
		Args(map[string]string{"q": address, "format": "json", "limit": "1"}).
		Headers(map[string]string{"User-Agent": "suplica/1.0"}).
		GetJSON(ctx, &places)
	if err != nil {
		return point{}, fmt.Errorf("geocode %q: %w", address, err)
	}

	if len(places) == 0 {
		return point{}, fmt.Errorf("%w: %s", ErrNotFound, address)
	}

	lat, err1 := strconv.ParseFloat(places[0].Lat, 64)
	lon, err2 := strconv.ParseFloat(places[0].Lon, 64)

	if err1 != nil || err2 != nil {
		return point{}, fmt.Errorf("geocode %q: bad coordinates %s,%s", address, places[0].Lat, places[0].Lon)
	}

	g.logger.Debug("found", slog.String("address", address), slog.String("place", places[0].DisplayName))

	return point{lat: lat, lon: lon}, nil
}
