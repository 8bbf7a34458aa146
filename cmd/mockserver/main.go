// Command mockserver serves a handful of fixed endpoints to benchmark
// loadcli against: fast JSON, slow JSON, chosen and random status codes.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/torosent/loadcli/internal/logger"
)

type person struct {
	ID        uint32 `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Age       uint32 `json:"age"`
}

var samplePerson = person{ID: 7, FirstName: "Doe", LastName: "John", Age: 30}

var randomCodes = []int{http.StatusOK, http.StatusBadRequest, http.StatusInternalServerError}

type server struct {
	log      *slog.Logger
	slow     time.Duration
	slowLog  time.Duration
	pickCode func() int
}

func newServer(log *slog.Logger) *server {
	return &server{
		log:     log,
		slow:    200 * time.Millisecond,
		slowLog: 3 * time.Second,
		pickCode: func() int {
			return randomCodes[rand.IntN(len(randomCodes))]
		},
	}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /person", s.handlePerson)
	mux.HandleFunc("GET /slow", s.handleSlow)
	mux.HandleFunc("GET /slow_log", s.handleSlowLog)
	mux.HandleFunc("GET /code/{code}", s.handleCode)
	mux.HandleFunc("GET /random_code", s.handleRandomCode)
	return mux
}

func (s *server) handlePerson(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, samplePerson)
}

// handleSlow delays only the calling connection.
func (s *server) handleSlow(w http.ResponseWriter, r *http.Request) {
	if !sleep(r, s.slow) {
		return
	}
	respondJSON(w, http.StatusOK, samplePerson)
}

// handleSlowLog logs when a request starts, not when it completes.
func (s *server) handleSlowLog(w http.ResponseWriter, r *http.Request) {
	s.log.Info("slow_log called", "remote", r.RemoteAddr)
	if !sleep(r, s.slowLog) {
		return
	}
	respondJSON(w, http.StatusOK, samplePerson)
}

// handleCode answers with the status named in the path. Informational 1xx
// codes are not final responses, so they get 400 like any other bad code.
func (s *server) handleCode(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(r.PathValue("code"))
	if err != nil || code < 200 || code > 999 {
		respondCode(w, http.StatusBadRequest)
		return
	}
	respondCode(w, code)
}

func (s *server) handleRandomCode(w http.ResponseWriter, r *http.Request) {
	respondCode(w, s.pickCode())
}

func sleep(r *http.Request, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-r.Context().Done():
		return false
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondCode(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	fmt.Fprintf(w, "Your code: %d \n", code)
}

func main() {
	addr := pflag.String("addr", ":8080", "Listen address")
	logLevel := pflag.String("log-level", "info", "Log level: debug, info, warn, error")
	pflag.Parse()

	log := logger.New(os.Stderr, *logLevel)
	log.Info("mock server listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, newServer(log).routes()); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
