package pcidio

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/pkg/errors"

	"github.com/hubertat/pcidio/bitcodec"
)

const defaultMeasurement = "dio"

// Recorder stores channel snapshots in InfluxDB, one point per sync.
type Recorder struct {
	Host         string
	Organization string
	Bucket       string
	Measurement  string
	Token        string

	client   influxdb2.Client
	writeApi api.WriteAPIBlocking
}

func (rec *Recorder) Init() error {
	if len(rec.Host) == 0 || len(rec.Bucket) == 0 {
		return errors.New("influx host and bucket are required")
	}
	if len(rec.Measurement) == 0 {
		rec.Measurement = defaultMeasurement
	}

	rec.client = influxdb2.NewClient(rec.Host, rec.Token)
	rec.writeApi = rec.client.WriteAPIBlocking(rec.Organization, rec.Bucket)
	return nil
}

// Record writes fields in<N> and out<N> (0 or 1) tagged with the board name.
func (rec *Recorder) Record(ctx context.Context, board string, inputs, outputs bitcodec.Bits) error {
	if rec.writeApi == nil {
		return errors.New("recorder not initialized")
	}

	fields := make(map[string]interface{}, len(inputs)+len(outputs))
	for i, bit := range inputs {
		fields[fmt.Sprintf("in%d", i+1)] = int(bit)
	}
	for i, bit := range outputs {
		fields[fmt.Sprintf("out%d", i+1)] = int(bit)
	}

	point := influxdb2.NewPoint(rec.Measurement, map[string]string{"board": board}, fields, time.Now())
	err := rec.writeApi.WritePoint(ctx, point)
	if err != nil {
		return errors.Wrap(err, "failed to write point to influx")
	}
	return nil
}

func (rec *Recorder) Close() {
	if rec.client != nil {
		rec.client.Close()
	}
}
