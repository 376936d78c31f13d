package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/haninge-digit/zeebe-report/internal/config"
	"github.com/haninge-digit/zeebe-report/internal/domain"
	"github.com/haninge-digit/zeebe-report/internal/infra/logger"
)

const matchAllQuery = `{"query":{"match_all":{}}}`

// ElasticIndex queries the daily Zeebe export indices in Elasticsearch.
//
// At most MaxHits records are read per day. Busier days are undercounted;
// the shortfall is logged but the counting is left as is.
type ElasticIndex struct {
	client *elasticsearch.Client
	cfg    config.SearchConfig
	logger logger.Logger
}

// searchResponse is the subset of a search response this adapter reads
type searchResponse struct {
	Hits struct {
		Total struct {
			Value    int    `json:"value"`
			Relation string `json:"relation"`
		} `json:"total"`
		Hits []struct {
			Source struct {
				Value struct {
					BpmnProcessID string `json:"bpmnProcessId"`
				} `json:"value"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// NewElasticIndex creates a new Elasticsearch backed IndexQuerier
func NewElasticIndex(cfg config.SearchConfig, log logger.Logger) (*ElasticIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{cfg.URL},
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return &ElasticIndex{
		client: client,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "search"}),
	}, nil
}

// Ping checks that the search backend answers
func (e *ElasticIndex) Ping(ctx context.Context) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return domain.ErrSearchUnreachable(e.cfg.URL, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return domain.ErrSearchUnreachable(e.cfg.URL, fmt.Errorf("ping returned %s", res.Status()))
	}
	return nil
}

// CollectPeriod queries one index per date, in order
func (e *ElasticIndex) CollectPeriod(ctx context.Context, dates []string) (domain.PeriodData, error) {
	data := make(domain.PeriodData, len(dates))
	for _, day := range dates {
		counters, err := e.DayCounters(ctx, day)
		if err != nil {
			return nil, err
		}
		data[day] = counters
	}
	return data, nil
}

// DayCounters returns the process counters of a single day
func (e *ElasticIndex) DayCounters(ctx context.Context, day string) (domain.DayCounters, error) {
	index := e.cfg.IndexName(day)
	ids, err := e.processIDs(ctx, index)
	if err != nil {
		return nil, err
	}
	return domain.CountProcesses(ids, e.cfg.WorkerMarker), nil
}

func (e *ElasticIndex) processIDs(ctx context.Context, index string) ([]string, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(index),
		e.client.Search.WithSize(e.cfg.MaxHits),
		e.client.Search.WithBody(strings.NewReader(matchAllQuery)),
	)
	if err != nil {
		return nil, domain.ErrSearchFailed(index, err)
	}
	defer res.Body.Close()

	fields := map[string]interface{}{"index": index}
	if res.StatusCode == http.StatusNotFound {
		e.logger.Debug(ctx, "Index not found, counting day as empty", fields)
		return nil, nil
	}

	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, domain.ErrSearchFailed(index, fmt.Errorf("%s: %s", res.Status(), strings.TrimSpace(string(body))))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, domain.ErrSearchFailed(index, fmt.Errorf("failed to decode search response: %w", err))
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	missing := 0
	for _, hit := range parsed.Hits.Hits {
		if hit.Source.Value.BpmnProcessID == "" {
			missing++
			continue
		}
		ids = append(ids, hit.Source.Value.BpmnProcessID)
	}
	if missing > 0 {
		e.logger.Warn(ctx, "Records without bpmnProcessId are not counted", map[string]interface{}{
			"index":   index,
			"missing": missing,
		})
	}

	fields["hits"] = len(parsed.Hits.Hits)
	fields["total"] = parsed.Hits.Total.Value
	if parsed.Hits.Total.Value > len(parsed.Hits.Hits) {
		e.logger.Warn(ctx, "Hit limit reached, day is undercounted", fields)
	}
	logger.LogPerformance(ctx, e.logger, "search "+index, time.Since(start), fields)

	return ids, nil
}

func (e *ElasticIndex) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.Timeout)
}
