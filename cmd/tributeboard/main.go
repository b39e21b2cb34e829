package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tributeboard/gallery"
	"tributeboard/healthz"
	"tributeboard/httpmetrics"
	"tributeboard/identity"
	"tributeboard/imagestore"
	"tributeboard/session"
	"tributeboard/siteconfig"
	"tributeboard/store"
	"tributeboard/tributegen"
	"tributeboard/tributewall"
	"tributeboard/webui"

	"cloud.google.com/go/firestore"
	"github.com/golang/glog"
	"github.com/ilyakaznacheev/cleanenv"
)

var (
	debugListen = flag.String("debug-listen", "127.0.0.1:8001", "Server address:port for debug endpoint.")
	uiListen    = flag.String("ui-listen", "127.0.0.1:8000", "Server address:port for ui endpoint.")
	dataProject = flag.String("data-project", "", "GCP project that contains the application state.")
	imageBucket = flag.String("image-bucket", "", "GCS bucket for uploaded images.  Empty stores images inline as data URLs.")
)

// secrets are read from the environment, never from flags, so they stay out
// of process listings.
type secrets struct {
	IdentityAPIKey string `env:"IDENTITY_API_KEY" env-required:"true"`
	GeminiAPIKey   string `env:"GEMINI_API_KEY" env-default:""`
}

func main() {
	flag.Parse()

	glog.Infof("flags:")
	glog.Infof("debug-listen: %v", *debugListen)
	glog.Infof("ui-listen: %v", *uiListen)
	glog.Infof("data-project: %v", *dataProject)
	glog.Infof("image-bucket: %v", *imageBucket)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := do(ctx); err != nil {
		glog.Exitf("Error: %v", err)
	}
}

func do(ctx context.Context) error {
	var sec secrets
	if err := cleanenv.ReadEnv(&sec); err != nil {
		return fmt.Errorf("while reading secrets from environment: %w", err)
	}

	fstore, err := firestore.NewClient(ctx, *dataProject)
	if err != nil {
		return fmt.Errorf("while creating FireStore client: %w", err)
	}
	st := store.NewFirestore(fstore)

	provider := identity.NewGoogleProvider(identity.GoogleProviderConfig{
		APIKey: sec.IdentityAPIKey,
	})

	sess := session.New(provider, session.Options{ReauthAnonymous: true})
	sess.Bootstrap(ctx)

	config := siteconfig.Subscribe(ctx, st, nil)
	wall := tributewall.Subscribe(ctx, st, sess, nil)
	board := gallery.Subscribe(ctx, st, sess, nil)

	gen := tributegen.New(ctx, sec.GeminiAPIKey)

	images, err := imagestore.New(ctx, *imageBucket)
	if err != nil {
		return fmt.Errorf("while creating image store: %w", err)
	}

	debugServeMux := http.NewServeMux()
	debugServeMux.Handle("/healthz", healthz.New())
	debugServeMux.Handle("/readyz", &healthz.Handler{Ready: func() bool {
		s := sess.Current().State
		return s == session.AnonymousActive || s == session.PrivilegedActive
	}})
	debugServeMux.HandleFunc("/debug/pprof/", pprof.Index)
	debugServeMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	debugServeMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	debugServeMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	debugServeMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	debugServer := &http.Server{
		Addr:    *debugListen,
		Handler: debugServeMux,

		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	ui := webui.New(sess, config, wall, board, gen, images)
	uiServeMux := http.NewServeMux()
	ui.Register(uiServeMux)

	metrics := httpmetrics.New(uiServeMux)
	metrics.RegisterMetrics()

	uiServer := &http.Server{
		Addr:    *uiListen,
		Handler: metrics,

		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		if err := debugServer.ListenAndServe(); err != nil {
			glog.Fatalf("Debug server died: %v", err)
		}
	}()

	go func() {
		if err := uiServer.ListenAndServe(); err != nil {
			glog.Fatalf("UI server died: %v", err)
		}
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	<-signalCh

	wall.Unsubscribe()
	board.Unsubscribe()
	config.Unsubscribe()
	sess.Close()

	glog.Flush()

	return nil
}
