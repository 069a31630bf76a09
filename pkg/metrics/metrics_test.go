package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with empty namespace and nil buckets", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording import pipeline metrics", func() {
			Convey("Then it should record item outcomes", func() {
				So(func() {
					RecordSignalImported()
					RecordSignalSkipped("url")
					RecordSignalSkipped("cve")
					RecordSignalError()
				}, ShouldNotPanic)
			})

			Convey("And it should record batch outcomes", func() {
				So(func() {
					RecordBatchProcessed()
					RecordBatchRejected("auth")
					RecordBatchRejected("validation")
					RecordBatchSize(250)
					RecordItemLatency(12.5)
					RecordEnrichmentApplied()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording dedup index metrics", func() {
			So(func() {
				RecordIndexBuildDuration(35.0)
				UpdateIndexKeysLoaded(10000)
				RecordIndexFailOpen()
			}, ShouldNotPanic)
		})

		Convey("When recording store metrics", func() {
			So(func() {
				RecordStoreInsertLatency(3.0)
				RecordStoreQueryLatency(7.0)
				RecordStoreInsertError()
				UpdateStoreRecordsTotal(100000)
			}, ShouldNotPanic)
		})

		Convey("When recording rate limiter metrics", func() {
			So(func() {
				RecordRatelimitAllowed()
				RecordRatelimitDenied()
				UpdateRatelimitBuckets(42)
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("signals_import", "POST", "200")
				RecordHTTPRequestDuration("signals_import", "POST", "200", 15.0)
				RecordHTTPRequest("", "", "200")
			}, ShouldNotPanic)
		})

		Convey("When recording system metrics", func() {
			So(func() {
				UpdateSystemMemoryUsage(1024 * 1024 * 100)
				UpdateSystemGoroutineCount(200)
				RecordSystemGCPauseTime(1.5)
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsEdgeCases(t *testing.T) {
	Convey("Given metrics edge cases", t, func() {
		Convey("When recording metrics with edge values", func() {
			Convey("And using zero values", func() {
				So(func() {
					RecordBatchSize(0)
					UpdateStoreRecordsTotal(0)
					UpdateRatelimitBuckets(0)
					RecordItemLatency(0.0)
				}, ShouldNotPanic)
			})

			Convey("And using very large values", func() {
				So(func() {
					RecordBatchSize(1_000_000)
					UpdateStoreRecordsTotal(10_000_000)
					RecordItemLatency(30000.0)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given metrics concurrency", t, func() {
		Convey("When recording metrics concurrently", func() {
			done := make(chan bool, 10)

			for i := 0; i < 10; i++ {
				go func() {
					for j := 0; j < 100; j++ {
						RecordSignalImported()
						RecordBatchSize(j)
						RecordItemLatency(float64(j))
						RecordHTTPRequest("signals_import", "POST", "200")
					}
					done <- true
				}()
			}

			for i := 0; i < 10; i++ {
				<-done
			}

			Convey("Then it should handle concurrent access without panics", func() {
				So(true, ShouldBeTrue)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("The shared registry is available for the metrics endpoint", t, func() {
		So(GetRegistry(), ShouldNotBeNil)
	})
}
