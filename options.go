package sctable

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	gojson "github.com/goccy/go-json"
	"github.com/tailscale/hujson"

	"github.com/hupe1980/sctable/table"
)

// Options is the store configuration.
//
// Only CacheCount, MaxOpenFiles and IOLimitBytesPerSec affect the read path
// in this package. The remaining fields are carried for the partition and
// compaction layers that share the same configuration file.
type Options struct {
	// DBName names the database directory or object prefix.
	DBName string `json:"db_name"`

	// CacheCount is the number of parsed tables that may be resident at
	// once. It is both the LRU capacity and the admission permit count.
	CacheCount int `json:"cache_count"`

	// Level0Size is the byte budget of level 0.
	Level0Size int64 `json:"level0_size"`

	// SizeFactor is the growth ratio between adjacent levels.
	SizeFactor int64 `json:"size_factor"`

	// MaxOpenFiles bounds concurrently open table blobs. 0 means unlimited.
	MaxOpenFiles int `json:"max_open_files"`

	// TableSize is the target size of a single table file.
	TableSize int64 `json:"table_size"`

	// KeySizeMax and ValueSizeMax bound record sizes accepted by writers.
	KeySizeMax   int `json:"key_size_max"`
	ValueSizeMax int `json:"value_size_max"`

	// IOLimitBytesPerSec caps table read throughput. 0 means unlimited.
	IOLimitBytesPerSec int64 `json:"io_limit_bytes_per_sec"`
}

// DefaultOptions returns a configuration suitable for small deployments.
func DefaultOptions() Options {
	return Options{
		DBName:       "sctable",
		CacheCount:   64,
		Level0Size:   10 << 20,
		SizeFactor:   10,
		MaxOpenFiles: 256,
		TableSize:    4 << 20,
		KeySizeMax:   1 << 10,
		ValueSizeMax: 1 << 20,
	}
}

// LevelSize returns the byte budget of level: Level0Size * SizeFactor^level.
// It saturates at math.MaxInt64.
func (o Options) LevelSize(level int) int64 {
	size := o.Level0Size
	for range level {
		if o.SizeFactor != 0 && size > math.MaxInt64/o.SizeFactor {
			return math.MaxInt64
		}
		size *= o.SizeFactor
	}
	return size
}

// ErrInvalidOptions is wrapped by every Validate failure.
var ErrInvalidOptions = errors.New("invalid options")

// Validate checks the configuration for values the store cannot run with.
func (o Options) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidOptions}, args...)...))
		}
	}

	check(o.DBName != "", "db_name must not be empty")
	check(o.CacheCount > 0, "cache_count must be positive, got %d", o.CacheCount)
	check(o.Level0Size > 0, "level0_size must be positive, got %d", o.Level0Size)
	check(o.SizeFactor >= 2, "size_factor must be at least 2, got %d", o.SizeFactor)
	check(o.MaxOpenFiles >= 0, "max_open_files must not be negative, got %d", o.MaxOpenFiles)
	check(o.TableSize >= table.MinSize && o.TableSize <= table.MaxSize,
		"table_size must be within [%d, %d], got %d", table.MinSize, table.MaxSize, o.TableSize)
	check(o.KeySizeMax > 0, "key_size_max must be positive, got %d", o.KeySizeMax)
	check(o.ValueSizeMax >= 0, "value_size_max must not be negative, got %d", o.ValueSizeMax)
	check(o.IOLimitBytesPerSec >= 0, "io_limit_bytes_per_sec must not be negative, got %d", o.IOLimitBytesPerSec)

	return errors.Join(errs...)
}

// LoadOptions reads a HuJSON (JSON with comments and trailing commas) file.
// Fields missing from the file keep their DefaultOptions value.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read config: %w", err)
	}
	return ParseOptions(data)
}

// ParseOptions decodes HuJSON configuration bytes on top of DefaultOptions
// and validates the result.
func ParseOptions(data []byte) (Options, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Options{}, fmt.Errorf("invalid config: %w", err)
	}

	opts := DefaultOptions()
	dec := gojson.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		return Options{}, fmt.Errorf("invalid config: %w", err)
	}

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	comparator       table.Comparator
	warmConcurrency  int
}

// Option configures a Reader.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &sctable.BasicMetricsCollector{}
//	r, _ := sctable.Open(src, opts, sctable.WithMetricsCollector(metrics))
//	// ... use r ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithComparator sets the user key order tables were written with.
// Defaults to table.Bytewise.
func WithComparator(c table.Comparator) Option {
	return func(o *options) {
		if c == nil {
			c = table.Bytewise
		}
		o.comparator = c
	}
}

// WithWarmConcurrency bounds the parallel loads issued by Warm.
// Defaults to 4.
func WithWarmConcurrency(n int) Option {
	return func(o *options) {
		o.warmConcurrency = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		comparator:       table.Bytewise,
		warmConcurrency:  4,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.warmConcurrency <= 0 {
		o.warmConcurrency = 1
	}
	return o
}
