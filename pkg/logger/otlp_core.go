package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// OTLPCore is a zapcore.Core that batches entries and posts them to an OTel Collector
// over OTLP/HTTP JSON
type OTLPCore struct {
	zapcore.LevelEnabler
	shared *otlpExporter
	fields []KeyValue
}

type otlpExporter struct {
	endpoint      string
	serviceName   string
	client        *http.Client
	batchSize     int
	batchInterval time.Duration

	mu     sync.Mutex
	buffer []LogRecord

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// LogRecord is one OTLP log record
type LogRecord struct {
	Timestamp         int64      `json:"timeUnixNano,string"`
	ObservedTimestamp int64      `json:"observedTimeUnixNano,string"`
	SeverityNumber    int32      `json:"severityNumber"`
	SeverityText      string     `json:"severityText"`
	Body              AnyValue   `json:"body"`
	Attributes        []KeyValue `json:"attributes,omitempty"`
	TraceID           string     `json:"traceId,omitempty"`
	SpanID            string     `json:"spanId,omitempty"`
}

// AnyValue is the OTLP JSON value union; exactly one field is set
type AnyValue struct {
	StringValue *string  `json:"stringValue,omitempty"`
	IntValue    *int64   `json:"intValue,omitempty,string"`
	DoubleValue *float64 `json:"doubleValue,omitempty"`
	BoolValue   *bool    `json:"boolValue,omitempty"`
}

// KeyValue is an OTLP attribute
type KeyValue struct {
	Key   string   `json:"key"`
	Value AnyValue `json:"value"`
}

type otlpPayload struct {
	ResourceLogs []resourceLogs `json:"resourceLogs"`
}

type resourceLogs struct {
	Resource struct {
		Attributes []KeyValue `json:"attributes"`
	} `json:"resource"`
	ScopeLogs []scopeLogs `json:"scopeLogs"`
}

type scopeLogs struct {
	Scope struct {
		Name string `json:"name"`
	} `json:"scope"`
	LogRecords []LogRecord `json:"logRecords"`
}

func stringValue(s string) AnyValue { return AnyValue{StringValue: &s} }

func intValue(i int64) AnyValue { return AnyValue{IntValue: &i} }

func doubleValue(f float64) AnyValue { return AnyValue{DoubleValue: &f} }

func boolValue(b bool) AnyValue { return AnyValue{BoolValue: &b} }

// logsURL turns a collector address into its OTLP/HTTP logs URL. A bare host:4317
// (the gRPC port the tracer uses) is moved to 4318.
func logsURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return strings.TrimSuffix(endpoint, "/") + "/v1/logs"
	}
	host, port, err := net.SplitHostPort(endpoint)
	if err != nil {
		return "http://" + endpoint + "/v1/logs"
	}
	if port == "4317" {
		port = "4318"
	}
	return "http://" + net.JoinHostPort(host, port) + "/v1/logs"
}

// NewOTLPCore starts a batching exporter for cfg.OTLPEndpoint. It returns nil when no
// endpoint is configured.
func NewOTLPCore(cfg *Config, level zapcore.LevelEnabler) *OTLPCore {
	if cfg == nil || cfg.OTLPEndpoint == "" {
		return nil
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	interval := cfg.BatchInterval
	if interval <= 0 {
		interval = time.Second
	}
	timeout := cfg.OTLPTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	exp := &otlpExporter{
		endpoint:      logsURL(cfg.OTLPEndpoint),
		serviceName:   cfg.ServiceName,
		client:        &http.Client{Timeout: timeout},
		batchSize:     batchSize,
		batchInterval: interval,
		buffer:        make([]LogRecord, 0, batchSize),
		stop:          make(chan struct{}),
	}
	exp.wg.Add(1)
	go exp.loop()

	return &OTLPCore{LevelEnabler: level, shared: exp}
}

// With returns a core that adds fields to every record it writes
func (c *OTLPCore) With(fields []zapcore.Field) zapcore.Core {
	attrs := make([]KeyValue, 0, len(c.fields)+len(fields))
	attrs = append(attrs, c.fields...)
	for _, f := range fields {
		if kv, ok := fieldToKeyValue(f); ok {
			attrs = append(attrs, kv)
		}
	}
	return &OTLPCore{LevelEnabler: c.LevelEnabler, shared: c.shared, fields: attrs}
}

// Check adds c to ce when the entry's level is enabled
func (c *OTLPCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write buffers the entry; a full batch is shipped in the background
func (c *OTLPCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	record := LogRecord{
		Timestamp:         ent.Time.UnixNano(),
		ObservedTimestamp: time.Now().UnixNano(),
		SeverityNumber:    severity(ent.Level),
		SeverityText:      strings.ToUpper(ent.Level.String()),
		Body:              stringValue(ent.Message),
	}

	attrs := make([]KeyValue, 0, len(c.fields)+len(fields)+2)
	if ent.Caller.Defined {
		attrs = append(attrs, KeyValue{Key: "caller", Value: stringValue(ent.Caller.TrimmedPath())})
	}
	if ent.LoggerName != "" {
		attrs = append(attrs, KeyValue{Key: "logger", Value: stringValue(ent.LoggerName)})
	}
	for _, set := range [][]KeyValue{c.fields, toKeyValues(fields)} {
		for _, kv := range set {
			switch {
			case kv.Key == "trace_id" && kv.Value.StringValue != nil:
				record.TraceID = *kv.Value.StringValue
			case kv.Key == "span_id" && kv.Value.StringValue != nil:
				record.SpanID = *kv.Value.StringValue
			default:
				attrs = append(attrs, kv)
			}
		}
	}
	record.Attributes = attrs

	if c.shared.add(record) {
		go c.shared.flush()
	}
	return nil
}

// Sync ships everything buffered so far
func (c *OTLPCore) Sync() error {
	return c.shared.flush()
}

// Close stops the background loop and ships what is left
func (c *OTLPCore) Close() error {
	var err error
	c.shared.closeOnce.Do(func() {
		close(c.shared.stop)
		c.shared.wg.Wait()
		err = c.shared.flush()
	})
	return err
}

// add reports whether the buffer reached a full batch
func (e *otlpExporter) add(r LogRecord) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buffer = append(e.buffer, r)
	return len(e.buffer) >= e.batchSize
}

func (e *otlpExporter) loop() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.batchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := e.flush(); err != nil {
				fmt.Fprintf(os.Stderr, "logger: %v\n", err)
			}
		case <-e.stop:
			return
		}
	}
}

func (e *otlpExporter) flush() error {
	e.mu.Lock()
	if len(e.buffer) == 0 {
		e.mu.Unlock()
		return nil
	}
	records := e.buffer
	e.buffer = make([]LogRecord, 0, e.batchSize)
	e.mu.Unlock()

	var rl resourceLogs
	rl.Resource.Attributes = []KeyValue{
		{Key: "service.name", Value: stringValue(e.serviceName)},
		{Key: "service.namespace", Value: stringValue("work-pulse")},
	}
	var sl scopeLogs
	sl.Scope.Name = "go.uber.org/zap"
	sl.LogRecords = records
	rl.ScopeLogs = []scopeLogs{sl}

	body, err := json.Marshal(otlpPayload{ResourceLogs: []resourceLogs{rl}})
	if err != nil {
		return fmt.Errorf("failed to encode log batch: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.client.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build log export request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		// collector down: drop the batch rather than block callers
		return fmt.Errorf("log export failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("log export rejected with status %d", resp.StatusCode)
	}
	return nil
}

func severity(level zapcore.Level) int32 {
	switch level {
	case zapcore.DebugLevel:
		return 5
	case zapcore.InfoLevel:
		return 9
	case zapcore.WarnLevel:
		return 13
	case zapcore.ErrorLevel:
		return 17
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return 21
	default:
		return 0
	}
}

func toKeyValues(fields []zapcore.Field) []KeyValue {
	out := make([]KeyValue, 0, len(fields))
	for _, f := range fields {
		if kv, ok := fieldToKeyValue(f); ok {
			out = append(out, kv)
		}
	}
	return out
}

func fieldToKeyValue(f zapcore.Field) (KeyValue, bool) {
	switch f.Type {
	case zapcore.StringType:
		return KeyValue{Key: f.Key, Value: stringValue(f.String)}, true
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return KeyValue{Key: f.Key, Value: intValue(f.Integer)}, true
	case zapcore.Float64Type:
		return KeyValue{Key: f.Key, Value: doubleValue(math.Float64frombits(uint64(f.Integer)))}, true
	case zapcore.Float32Type:
		return KeyValue{Key: f.Key, Value: doubleValue(float64(math.Float32frombits(uint32(f.Integer))))}, true
	case zapcore.BoolType:
		return KeyValue{Key: f.Key, Value: boolValue(f.Integer == 1)}, true
	case zapcore.DurationType:
		return KeyValue{Key: f.Key, Value: stringValue(time.Duration(f.Integer).String())}, true
	case zapcore.TimeType:
		t := time.Unix(0, f.Integer)
		if loc, ok := f.Interface.(*time.Location); ok {
			t = t.In(loc)
		}
		return KeyValue{Key: f.Key, Value: stringValue(t.Format(time.RFC3339Nano))}, true
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok {
			return KeyValue{Key: f.Key, Value: stringValue(err.Error())}, true
		}
	case zapcore.StringerType:
		if s, ok := f.Interface.(fmt.Stringer); ok {
			return KeyValue{Key: f.Key, Value: stringValue(s.String())}, true
		}
	case zapcore.SkipType:
	default:
		if f.Interface != nil {
			if data, err := json.Marshal(f.Interface); err == nil {
				return KeyValue{Key: f.Key, Value: stringValue(string(data))}, true
			}
		}
	}
	return KeyValue{}, false
}
