package influxdb

import (
	"context"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"
)

// MetricPoint represents a single row in a batch of measurements
type MetricPoint struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]interface{}
	Timestamp   time.Time
}

// Store writes metrics to an influxdb database
type Store interface {
	Database() string
	Ping(context.Context, time.Duration) error
	WriteBatch(context.Context, []MetricPoint) error
	Close() error
}

var _ Store = &influxDB{}

type influxDB struct {
	config   client.HTTPConfig
	client   client.Client
	database string
	mapper   func(string, map[string]string) (string, map[string]string)
}

// NewStore builds an influxdb client.
//
// The default server is http://localhost:8086 and the default database is "lineagesync".
func NewStore(opts ...StoreOption) (Store, error) {
	db := &influxDB{
		config: client.HTTPConfig{
			Addr:    "http://localhost:8086",
			Timeout: 5 * time.Second,
		},
		database: "lineagesync",
	}
	for _, apply := range opts {
		apply(db)
	}
	c, err := client.NewHTTPClient(db.config)
	if err != nil {
		return nil, err
	}
	db.client = c
	return db, nil
}

func (db *influxDB) Database() string {
	return db.database
}

func (db *influxDB) Ping(_ context.Context, timeout time.Duration) error {
	_, _, err := db.client.Ping(timeout)
	return err
}

func (db *influxDB) WriteBatch(_ context.Context, points []MetricPoint) error {
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  db.database,
		Precision: "s",
	})
	if err != nil {
		return err
	}
	for _, point := range points {
		if db.mapper != nil {
			point.Measurement, point.Tags = db.mapper(point.Measurement, point.Tags)
		}
		pt, erp := client.NewPoint(point.Measurement, point.Tags, point.Fields, point.Timestamp)
		if erp != nil {
			return erp
		}
		bp.AddPoint(pt)
	}
	return db.client.Write(bp)
}

func (db *influxDB) Close() error {
	return db.client.Close()
}
