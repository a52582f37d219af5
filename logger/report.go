package logger

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type sourceStat struct {
	fetches   int64
	posts     int64
	fallbacks int64
}

type componentStat struct {
	warns  int64
	errors int64
}

var (
	errorsTotal    int64
	warnsTotal     int64
	requestsServed int64
	cacheHits      int64
	cacheMisses    int64
	summariesAI    int64
	summariesTmpl  int64
	sources        sync.Map // map[string]*sourceStat
	components     sync.Map // map[string]*componentStat
)

func recordWarn(component string) {
	atomic.AddInt64(&warnsTotal, 1)
	v, _ := components.LoadOrStore(component, &componentStat{})
	atomic.AddInt64(&v.(*componentStat).warns, 1)
}

func recordError(component string) {
	atomic.AddInt64(&errorsTotal, 1)
	v, _ := components.LoadOrStore(component, &componentStat{})
	atomic.AddInt64(&v.(*componentStat).errors, 1)
}

// IncrementRequest counts one served sentiment request.
func IncrementRequest() {
	atomic.AddInt64(&requestsServed, 1)
}

// IncrementCacheHit / IncrementCacheMiss track response cache effectiveness.
func IncrementCacheHit() {
	atomic.AddInt64(&cacheHits, 1)
}

func IncrementCacheMiss() {
	atomic.AddInt64(&cacheMisses, 1)
}

// IncrementSummary counts a generated summary; ai reports whether the
// AI-backed path produced it rather than the deterministic template.
func IncrementSummary(ai bool) {
	if ai {
		atomic.AddInt64(&summariesAI, 1)
	} else {
		atomic.AddInt64(&summariesTmpl, 1)
	}
}

// RecordSourceFetch tracks one scraper fetch: how many posts it yielded and
// whether a fallback path produced them.
func RecordSourceFetch(source string, posts int, fallback bool) {
	v, _ := sources.LoadOrStore(source, &sourceStat{})
	st := v.(*sourceStat)
	atomic.AddInt64(&st.fetches, 1)
	atomic.AddInt64(&st.posts, int64(posts))
	if fallback {
		atomic.AddInt64(&st.fallbacks, 1)
	}
}

func startReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

// StartReport begins periodic logging of runtime and pipeline statistics.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	startReport(ctx, log, interval)
}

func logReport(ctx context.Context, log *Log) {
	sourceData := map[string]map[string]int64{}
	sources.Range(func(k, v any) bool {
		name := k.(string)
		st := v.(*sourceStat)
		sourceData[name] = map[string]int64{
			"fetches":   atomic.LoadInt64(&st.fetches),
			"posts":     atomic.LoadInt64(&st.posts),
			"fallbacks": atomic.LoadInt64(&st.fallbacks),
		}
		return true
	})

	componentData := map[string]map[string]int64{}
	components.Range(func(k, v any) bool {
		name := k.(string)
		st := v.(*componentStat)
		componentData[name] = map[string]int64{
			"warns":  atomic.LoadInt64(&st.warns),
			"errors": atomic.LoadInt64(&st.errors),
		}
		return true
	})

	fields := Fields{
		"errors":          atomic.LoadInt64(&errorsTotal),
		"warns":           atomic.LoadInt64(&warnsTotal),
		"requests_served": atomic.LoadInt64(&requestsServed),
		"cache_hits":      atomic.LoadInt64(&cacheHits),
		"cache_misses":    atomic.LoadInt64(&cacheMisses),
		"summaries_ai":    atomic.LoadInt64(&summariesAI),
		"summaries_tmpl":  atomic.LoadInt64(&summariesTmpl),
		"goroutines":      runtime.NumGoroutine(),
		"sources":         sourceData,
		"components":      componentData,
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	data := []cwtypes.MetricDatum{
		{MetricName: aws.String("Errors"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&errorsTotal)))},
		{MetricName: aws.String("Warns"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&warnsTotal)))},
		{MetricName: aws.String("RequestsServed"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&requestsServed)))},
		{MetricName: aws.String("CacheHits"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&cacheHits)))},
		{MetricName: aws.String("CacheMisses"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&cacheMisses)))},
		{MetricName: aws.String("SummariesAI"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&summariesAI)))},
		{MetricName: aws.String("SummariesTemplate"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&summariesTmpl)))},
	}

	for name, stats := range sourceData {
		dims := []cwtypes.Dimension{{Name: aws.String("Source"), Value: aws.String(name)}}
		data = append(data,
			cwtypes.MetricDatum{
				MetricName: aws.String("SourceFetches"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: dims,
				Value:      aws.Float64(float64(stats["fetches"])),
			},
			cwtypes.MetricDatum{
				MetricName: aws.String("SourceFallbacks"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: dims,
				Value:      aws.Float64(float64(stats["fallbacks"])),
			},
		)
	}

	publishMetrics(ctx, data)
}
