package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// Fires concurrent create requests for the same slot through the gateway
// and reports how the engine resolved them. Exactly one 201 is the
// expected outcome; more than one means overlap protection failed.
func main() {
	var (
		baseURL  = flag.String("base-url", getenv("BASE_URL", "http://localhost:8080"), "gateway base url")
		token    = flag.String("token", getenv("ACCESS_TOKEN", ""), "bearer access token")
		resource = flag.String("resource-id", getenv("RESOURCE_ID", ""), "resource to book")
		date     = flag.String("date", getenv("BOOKING_DATE", time.Now().UTC().Format("2006-01-02")), "booking day (YYYY-MM-DD)")
		start    = flag.Int("start-minute", 540, "slot start, minutes after midnight")
		duration = flag.Int("duration", 60, "slot length in minutes")
		workers  = flag.Int("workers", 8, "concurrent create attempts")
	)
	flag.Parse()

	if strings.TrimSpace(*token) == "" {
		fatal("ACCESS_TOKEN is required")
	}
	if strings.TrimSpace(*resource) == "" {
		fatal("RESOURCE_ID is required")
	}
	if *workers < 1 {
		fatal("workers must be at least 1")
	}

	payload, err := json.Marshal(map[string]any{
		"resource_id":      *resource,
		"date":             *date,
		"start_minute":     *start,
		"duration_minutes": *duration,
	})
	if err != nil {
		fatal(err.Error())
	}

	url := strings.TrimRight(*baseURL, "/") + "/api/v1/bookings"

	type result struct {
		status int
		code   string
	}
	results := make([]result, *workers)

	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status, code, err := attempt(url, *token, payload)
			if err != nil {
				fmt.Fprintf(os.Stderr, "attempt %d: %v\n", i, err)
				return
			}
			results[i] = result{status: status, code: code}
		}(i)
	}
	wg.Wait()

	counts := map[result]int{}
	created := 0
	for _, r := range results {
		counts[r]++
		if r.status == http.StatusCreated {
			created++
		}
	}
	for r, n := range counts {
		fmt.Printf("status=%d code=%s count=%d\n", r.status, r.code, n)
	}

	if created > 1 {
		fmt.Fprintf(os.Stderr, "overlap protection FAILED: %d bookings created for one slot\n", created)
		os.Exit(1)
	}
	fmt.Printf("created=%d\n", created)
}

func attempt(url, token string, payload []byte) (int, string, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var parsed struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(body, &parsed)
	return resp.StatusCode, parsed.Code, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
