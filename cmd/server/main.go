package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Brownie44l1/classify-api/internal/handlers"
	"github.com/Brownie44l1/classify-api/internal/labels"
	"github.com/Brownie44l1/classify-api/internal/model"
	"github.com/Brownie44l1/classify-api/internal/worker"
)

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func main() {
	modelPath := flag.String("model", "models/mobilenet_v1.onnx", "path to the serialized model")
	labelsPath := flag.String("labels", "models/labels.txt", "path to the newline-delimited label file")
	queueDepth := flag.Int("queue-depth", 16, "max classification requests waiting in the queue")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log := logrus.New()
	if *debug {
		log.SetLevel(logrus.DebugLevel)
	}

	log.WithField("model", *modelPath).Info("loading model")

	session, err := model.Load(*modelPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize model session")
	}
	defer session.Close()

	table, err := labels.LoadFile(*labelsPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load labels")
	}
	if len(table) != model.NumClasses {
		log.WithFields(logrus.Fields{
			"labels":  len(table),
			"classes": model.NumClasses,
		}).Warn("label table does not match model output size; out-of-range classes decode as Unknown")
	}

	queue := worker.New(session, table, *queueDepth, log)
	defer queue.Close()

	handler := handlers.NewHandler(queue, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", enableCORS(handler.Health))
	mux.HandleFunc("/classify", enableCORS(handler.Classify))
	mux.HandleFunc("/classify/tensor", enableCORS(handler.ClassifyTensor))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(logrus.Fields{
		"port":   port,
		"labels": len(table),
	}).Info("server starting")
	log.Info("endpoints: GET /health, POST /classify (multipart image), POST /classify/tensor (raw array)")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server failed")
	}

	log.Info("server stopped")
}
