package ecb

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"rate_backend/internal/feature/rates/domain"
	"rate_backend/internal/feature/rates/domain/entity"
	"rate_backend/internal/feature/rates/usecase"
	"rate_backend/internal/platform/csvsource"
)

// SourceName identifies series fetched from the ECB in SeriesMeta.
const SourceName = "ECB_SDW"

// Client はECBの統計データAPIから金利系列を取得するRateSource実装です。
type Client struct {
	cfg    Config
	client *http.Client
}

// ClientがRateSourceを実装していることをコンパイル時に検証します。
var _ usecase.RateSource = (*Client)(nil)

// NewClient は指定された設定とHTTPクライアントでClientの新しいインスタンスを生成します。
func NewClient(cfg Config, client *http.Client) *Client {
	return &Client{cfg: cfg, client: client}
}

// SeriesURL は "dataset/series" 形式のキーに対するリクエストURLを返します。
func (c *Client) SeriesURL(key string, lastN int) string {
	q := url.Values{}
	q.Set("lastNObservations", strconv.Itoa(lastN))
	return fmt.Sprintf("%s/%s?%s", strings.TrimRight(c.cfg.BaseURL, "/"), strings.Trim(key, "/"), q.Encode())
}

// FetchSeries は key の直近 lastN 件を CSV で取得し、小数表記の RateSeries に変換します。
func (c *Client) FetchSeries(ctx context.Context, key string, lastN int) (entity.RateSeries, entity.SeriesMeta, error) {
	u := c.SeriesURL(key, lastN)

	// リクエストオブジェクトを作成
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return entity.RateSeries{}, entity.SeriesMeta{}, err
	}
	req.Header.Set("Accept", "text/csv")

	// リクエストを実行
	res, err := c.client.Do(req)
	if err != nil {
		return entity.RateSeries{}, entity.SeriesMeta{}, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return entity.RateSeries{}, entity.SeriesMeta{}, fmt.Errorf("ecb http %d: %w: %s", res.StatusCode, domain.ErrSeriesNotFound, key)
	case res.StatusCode != http.StatusOK:
		return entity.RateSeries{}, entity.SeriesMeta{}, fmt.Errorf("ecb http %d", res.StatusCode)
	}

	// CSVレスポンスを観測値に変換
	obs, err := csvsource.Parse(res.Body)
	if err != nil {
		return entity.RateSeries{}, entity.SeriesMeta{}, fmt.Errorf("ecb %s: %w", key, err)
	}
	if len(obs) == 0 {
		return entity.RateSeries{}, entity.SeriesMeta{}, fmt.Errorf("ecb %s: %w", key, entity.ErrEmptySeries)
	}

	slog.Info("ecb series fetched", "key", key, "observations", len(obs))
	return entity.RateSeries{Key: key, Observations: obs}, entity.SeriesMeta{Source: SourceName, URL: u}, nil
}
