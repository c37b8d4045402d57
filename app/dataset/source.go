package dataset

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/wasteviz/wasteviz/app/config"
)

type RecordSource interface {
	LoadRecords(ctx context.Context) ([]WasteRecord, error)
}

type TopologySource interface {
	LoadTopology(ctx context.Context) (*Topology, error)
}

type FileRecordSource struct {
	Path string
}

func (s FileRecordSource) LoadRecords(ctx context.Context) ([]WasteRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseRecords(f)
}

type FileTopologySource struct {
	Path string
}

func (s FileTopologySource) LoadTopology(ctx context.Context) (*Topology, error) {
	content, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	return ParseTopology(content)
}

func NewHTTPClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json, text/csv, */*")
}

func fetch(ctx context.Context, client *resty.Client, url string) ([]byte, error) {
	start := time.Now()
	res, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", url, res.StatusCode())
	}
	slog.Info("fetched", "url", url, "bytes", len(res.Body()), "duration", time.Since(start))
	return res.Body(), nil
}

type HTTPRecordSource struct {
	URL    string
	Client *resty.Client
}

func (s HTTPRecordSource) LoadRecords(ctx context.Context) ([]WasteRecord, error) {
	body, err := fetch(ctx, s.Client, s.URL)
	if err != nil {
		return nil, err
	}
	return ParseRecords(bytes.NewReader(body))
}

type HTTPTopologySource struct {
	URL    string
	Client *resty.Client
}

func (s HTTPTopologySource) LoadTopology(ctx context.Context) (*Topology, error) {
	body, err := fetch(ctx, s.Client, s.URL)
	if err != nil {
		return nil, err
	}
	return ParseTopology(body)
}

// SourcesFromConfig builds the record and topology sources named by conf.
func SourcesFromConfig(conf *config.WasteVizConfig) (RecordSource, TopologySource, error) {
	client := NewHTTPClient(time.Duration(conf.FetchTimeoutSeconds) * time.Second)

	var records RecordSource
	recordLoc := conf.Resolve(conf.RecordLocation)
	switch conf.RecordSource {
	case "csv":
		records = FileRecordSource{Path: recordLoc}
	case "http":
		records = HTTPRecordSource{URL: recordLoc, Client: client}
	case "sqlite":
		db, err := NewSQLiteDB(recordLoc, true)
		if err != nil {
			return nil, nil, err
		}
		records = NewSQLiteRecordSource(db)
	default:
		return nil, nil, fmt.Errorf("unknown record source %q", conf.RecordSource)
	}

	var topology TopologySource
	topoLoc := conf.Resolve(conf.TopologyLocation)
	if config.IsURL(topoLoc) {
		topology = HTTPTopologySource{URL: topoLoc, Client: client}
	} else {
		topology = FileTopologySource{Path: topoLoc}
	}
	return records, topology, nil
}
