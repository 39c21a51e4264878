package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/kardemumma/internal/app"
	"github.com/shrimpsizemoose/kardemumma/internal/handlers"
)

func main() {
	service, err := app.NewService("config.toml")
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	submissionHandler := handlers.NewSubmissionHandler(service)

	http.HandleFunc("POST /api/v1/homework/{id}/submit", submissionHandler.HandleSubmit)
	http.HandleFunc("GET /api/v1/homework", submissionHandler.HandleHomeworkList)
	http.HandleFunc("PUT /api/v1/submissions/{id}/grade", submissionHandler.HandleGradeOverride)
	http.HandleFunc("GET /api/v1/submissions/{id}/grade", submissionHandler.HandleGradeDetail)
	http.HandleFunc("GET /api/v1/submissions", submissionHandler.HandleSubmissionList)
	http.HandleFunc("GET /api/v1/groups/{id}/leaderboard", submissionHandler.HandleLeaderboard)
	http.HandleFunc("GET /api/v1/constants", submissionHandler.HandleConstants)

	http.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting kardemumma server on %s", service.Config.Server.Port)
	logger.Debug.Printf("Oracle endpoint: %s model=%s", service.Config.Oracle.URL, service.Config.Oracle.Model)
	if err := http.ListenAndServe(service.Config.Server.Port, nil); err != nil {
		logger.Error.Fatalf("Kardemumma server failed: %v", err)
	}
}
