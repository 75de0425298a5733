package main

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/pprof"
	"net/url"
	"os"
	"reflect"
	"runtime"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/aukilabs/lodtree/featureflag"
	lodhttp "github.com/aukilabs/lodtree/http"
	"github.com/aukilabs/lodtree/lod"
	lodwebsocket "github.com/aukilabs/lodtree/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

var (
	// The lodtree version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "lodtree_info",
		Help:        "Lodtree information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr           string        `cli:""        env:"LODTREE_ADDR"            help:"Listening address for viewer connections."`
	AdminAddr      string        `cli:""        env:"LODTREE_ADMIN_ADDR"      help:"Admin listening address."`
	PublicEndpoint string        `cli:""        env:"LODTREE_PUBLIC_ENDPOINT" help:"The public endpoint where this server is reachable."`
	LogLevel       string        `cli:""        env:"LODTREE_LOG_LEVEL"       help:"Log level (debug|info|warning|error)."`
	LogIndent      bool          `cli:""        env:"LODTREE_LOG_INDENT"      help:"Indent logs."`
	FrameDuration  time.Duration `cli:""        env:"LODTREE_FRAME_DURATION"  help:"The duration between two octree rebuilds."`
	Height         int           `cli:""        env:"LODTREE_HEIGHT"          help:"The number of octree levels."`
	Detail         int           `cli:""        env:"LODTREE_DETAIL"          help:"The number of finest-level cells kept refined around the focus."`
	RootRadius     int           `cli:",hidden" env:"LODTREE_ROOT_RADIUS"     help:"The number of root cells filled around the focus root on each axis."`
	Workers        int           `cli:",hidden" env:"LODTREE_WORKERS"         help:"The number of roots filled concurrently."`
	SceneFile      string        `cli:""        env:"LODTREE_SCENE_FILE"      help:"YAML file describing the focus orbit."`
	Events         eventsConfig  `cli:",hidden" env:"-"                       help:"Event pusher configuration."`
	FeatureFlags   []string      `cli:",hidden" env:"LODTREE_FEATURE_FLAGS"   help:"Comma separated feature flags"`
	Version        bool          `cli:""        env:"-"                       help:"Show version."`
	Help           bool          `cli:""        env:"-"                       help:"Show help."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"LODTREE_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed."`
	FlushInterval time.Duration `cli:",hidden" env:"LODTREE_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"LODTREE_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"LODTREE_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	conf := config{
		Addr:           ":4000",
		AdminAddr:      ":18190",
		PublicEndpoint: "http://localhost:4000",
		LogLevel:       logs.InfoLevel.String(),
		FrameDuration:  time.Millisecond * 16,
		Height:         lod.DefaultHeight,
		Detail:         lod.DefaultDetail,
		Workers:        runtime.NumCPU(),
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts the LOD octree server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     metrics.HTTPTransport(http.DefaultTransport),
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "lodtree",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	manager, err := lod.NewManager(lod.Config{
		Height:     conf.Height,
		Detail:     int32(conf.Detail),
		RootRadius: int32(conf.RootRadius),
		Workers:    conf.Workers,
	})
	if err != nil {
		logs.Fatal(errors.New("creating lod manager failed").Wrap(err))
	}

	orbit := lod.DefaultOrbit(conf.Height)
	if conf.SceneFile != "" {
		scene, err := lod.LoadScene(conf.SceneFile)
		if err != nil {
			logs.Fatal(err)
		}
		orbit = scene.Orbit(conf.Height)
	}

	featureFlags := featureflag.New(conf.FeatureFlags)
	broadcaster := lodwebsocket.NewBroadcaster(conf.PublicEndpoint)

	driver := lod.Driver{
		Manager:       manager,
		Orbit:         orbit,
		FrameDuration: conf.FrameDuration,
		Still:         featureFlags.IsSet(featureflag.FlagDisableTargetMotion),
		OnFrame: func(f lod.Frame) {
			featureFlags.IfSet(featureflag.FlagEnableFrameDiffLogs, func() {
				logs.WithTag("cycle", f.Cycle).
					WithTag("focus_address", f.FocusAddress.String()).
					WithTag("nodes", len(f.Nodes)).
					WithTag("added", f.Added).
					WithTag("removed", f.Removed).
					WithTag("build_duration", f.BuildDuration.String()).
					Debug("frame built")
			})

			featureFlags.IfNotSet(featureflag.FlagDisableFrameBroadcast, func() {
				if err := broadcaster.Broadcast(f); err != nil {
					logs.Warn(err)
				}
			})
		},
	}

	driverDone := make(chan struct{})
	go func() {
		defer close(driverDone)

		if err := driver.Run(ctx); err != nil && err != context.Canceled {
			logs.Warn(errors.New("lod driver stopped").Wrap(err))
		}
	}()

	readinessCheck := func() bool {
		return manager.Latest().Cycle != 0
	}

	var service http.ServeMux
	service.Handle("/health", lodhttp.HandleWithCORS(http.HandlerFunc(lodhttp.HandleHealthCheck)))
	service.Handle("/ready", lodhttp.HandleWithCORS(lodhttp.HandleReadyCheck(readinessCheck)))
	service.Handle("/version", lodhttp.HandleWithCORS(lodhttp.HandleVersion(version)))
	service.Handle("/frame", lodhttp.HandleWithCORS(lodhttp.HandleFrame(manager.Latest)))
	service.Handle("/", websocket.Server{
		Handshake: func(c *websocket.Config, r *http.Request) error {
			return nil
		},
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()
			broadcaster.Handle(conn)
		},
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", lodhttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))
	admin.HandleFunc("/ready", lodhttp.HandleReadyCheck(readinessCheck))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("endpoint", conf.PublicEndpoint).
		WithTag("height", conf.Height).
		WithTag("detail", conf.Detail).
		WithTag("root_radius", conf.RootRadius).
		WithTag("workers", conf.Workers).
		WithTag("feature_flags", conf.FeatureFlags).
		Info("starting lodtree server")

	lodhttp.ListenAndServe(ctx, driverDone,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			lodhttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)

	cancel()
	<-driverDone
}

func validateConfig(conf config) error {
	if _, err := url.ParseRequestURI(conf.PublicEndpoint); err != nil {
		return errors.New("invalid public endpoint").Wrap(err)
	}

	if conf.Detail < 0 || conf.Detail > math.MaxInt32 {
		return errors.New("detail out of range").
			WithTag("detail", conf.Detail)
	}

	if conf.RootRadius < 0 || conf.RootRadius > lod.MaxRootRadius {
		return errors.New("root radius out of range").
			WithTag("root_radius", conf.RootRadius).
			WithTag("max_root_radius", lod.MaxRootRadius)
	}

	if conf.FrameDuration <= 0 {
		return errors.New("frame duration must be positive").
			WithTag("frame_duration", conf.FrameDuration)
	}

	return nil
}
