package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/niceweather/internal/server/metrics"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const DefaultOpenMeteoBaseURL = "https://api.open-meteo.com/v1"

type openMeteoResponse struct {
	Current struct {
		Time                int64   `json:"time"`
		Temperature2m       float64 `json:"temperature_2m"`
		ApparentTemperature float64 `json:"apparent_temperature"`
		CloudCover          float64 `json:"cloud_cover"`
	} `json:"current"`
	Daily struct {
		Sunrise []int64 `json:"sunrise"`
		Sunset  []int64 `json:"sunset"`
	} `json:"daily"`
}

// OpenMeteo fetches current conditions from the Open-Meteo forecast API.
// Results are cached per rounded coordinate, and concurrent misses for the
// same key share one upstream request.
type OpenMeteo struct {
	baseURL string
	client  *http.Client
	cache   *cache.Cache
	group   singleflight.Group
}

func NewOpenMeteo(baseURL string, ttl time.Duration, client *http.Client) *OpenMeteo {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &OpenMeteo{
		baseURL: baseURL,
		client:  client,
		cache:   cache.New(ttl, 2*ttl),
	}
}

func (o *OpenMeteo) Forecast(ctx context.Context, loc Location) (Forecast, error) {
	cacheKey := fmt.Sprintf("current_%.4f_%.4f", loc.Latitude, loc.Longitude)
	if cached, found := o.cache.Get(cacheKey); found {
		metrics.ForecastCache.WithLabelValues(metrics.CacheHit).Inc()
		return cached.(Forecast), nil
	}
	metrics.ForecastCache.WithLabelValues(metrics.CacheMiss).Inc()

	// The shared fetch outlives any one caller; it is bounded by the client
	// timeout and each caller stops waiting when its own ctx ends.
	fetchCtx := context.WithoutCancel(ctx)
	ch := o.group.DoChan(cacheKey, func() (interface{}, error) {
		f, err := o.fetch(fetchCtx, loc)
		if err != nil {
			return nil, err
		}
		o.cache.Set(cacheKey, f, cache.DefaultExpiration)
		return f, nil
	})

	select {
	case <-ctx.Done():
		return Forecast{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Forecast{}, res.Err
		}
		return res.Val.(Forecast), nil
	}
}

func (o *OpenMeteo) fetch(ctx context.Context, loc Location) (Forecast, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", loc.Latitude))
	params.Set("longitude", fmt.Sprintf("%.4f", loc.Longitude))
	params.Set("current", "temperature_2m,apparent_temperature,cloud_cover")
	params.Set("daily", "sunrise,sunset")
	params.Set("temperature_unit", "fahrenheit")
	params.Set("timeformat", "unixtime")
	params.Set("forecast_days", "1")
	params.Set("timezone", "auto")

	apiURL := fmt.Sprintf("%s/forecast?%s", o.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return Forecast{}, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return Forecast{}, fmt.Errorf("failed to fetch weather data: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Forecast{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Forecast{}, fmt.Errorf("weather provider returned status %d", resp.StatusCode)
	}

	var data openMeteoResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return Forecast{}, fmt.Errorf("failed to parse weather data: %w", err)
	}

	f := Forecast{
		Temperature:       data.Current.Temperature2m,
		FeelsLike:         data.Current.ApparentTemperature,
		CurrentTime:       time.Unix(data.Current.Time, 0).UTC(),
		CloudCoverPercent: data.Current.CloudCover,
	}
	if len(data.Daily.Sunrise) > 0 {
		f.Sunrise = time.Unix(data.Daily.Sunrise[0], 0).UTC()
	}
	if len(data.Daily.Sunset) > 0 {
		f.Sunset = time.Unix(data.Daily.Sunset[0], 0).UTC()
	}
	return f, nil
}
