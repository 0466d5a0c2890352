package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	baseURL      = "http://127.0.0.1:8090"
	numWorkers   = 50
	testDuration = 10 * time.Second
	numProfiles  = 200
	numVerses    = 300
	retryRatio   = 0.05
)

// Weighted the way a reader session produces them: verse traffic dominates.
var eventMix = []struct {
	kind   string
	weight float64
}{
	{"verse_visible", 0.30},
	{"verse_hidden", 0.20},
	{"verse_interaction", 0.15},
	{"reader_interaction", 0.15},
	{"reader_appeared", 0.05},
	{"content_visibility", 0.05},
	{"note_created", 0.03},
	{"highlight_created", 0.03},
	{"reader_disappeared", 0.02},
	{"resync", 0.02},
}

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func main() {
	fmt.Println("=== streakd Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s\n", numWorkers, testDuration)
	fmt.Printf("Profiles: %d | Verses: %d\n\n", numProfiles, numVerses)

	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	fmt.Println("\n--- Phase 1: Event ingestion (POST /events) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		return doPostEvent(rng)
	})

	fmt.Println("\n--- Phase 2: Mixed load (70% POST, 30% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.70:
			return doPostEvent(rng)
		case r < 0.95:
			return doGetStreak(rng)
		default:
			return doGetProfiles()
		}
	})

	fmt.Println("\n--- Phase 3: Read-heavy load (10% POST, 90% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.10:
			return doPostEvent(rng)
		case r < 0.90:
			return doGetStreak(rng)
		default:
			return doGetProfiles()
		}
	})
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					results <- workFn(rng)
					totalOps.Add(1)
				}
			}
		}(rand.Int63() + int64(i))
	}

	all := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := all[r.endpoint]
			if !ok {
				s = &stats{}
				all[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(all, duration)
}

func printResults(all map[string]*stats, duration time.Duration) {
	var totalOps, totalErrors int64

	endpoints := make([]string, 0, len(all))
	for ep := range all {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-32s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 98))

	for _, ep := range endpoints {
		s := all[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		fmt.Printf("  %-32s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors,
			fmtDur(avgDuration(s.latencies)),
			fmtDur(percentile(s.latencies, 0.50)),
			fmtDur(percentile(s.latencies, 0.95)),
			fmtDur(percentile(s.latencies, 0.99)))
	}

	if totalOps == 0 {
		return
	}
	fmt.Println("  " + strings.Repeat("-", 98))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, float64(totalOps)/duration.Seconds())
}

func pickEvent(rng *rand.Rand) string {
	r := rng.Float64()
	for _, e := range eventMix {
		if r < e.weight {
			return e.kind
		}
		r -= e.weight
	}
	return eventMix[0].kind
}

func profileName(rng *rand.Rand) string {
	return fmt.Sprintf("reader_%d", rng.Intn(numProfiles))
}

var lastEventID atomic.Value

func doPostEvent(rng *rand.Rand) result {
	kind := pickEvent(rng)
	body := map[string]any{
		"profile": profileName(rng),
		"type":    kind,
	}
	switch kind {
	case "verse_visible", "verse_hidden", "verse_interaction":
		body["verseId"] = fmt.Sprintf("JHN.3.%d", rng.Intn(numVerses)+1)
	case "content_visibility":
		body["visible"] = rng.Float64() < 0.8
	}

	// A small share of requests replays a previous id, as a client retry would.
	eventID := uuid.NewString()
	if prev, ok := lastEventID.Load().(string); ok && rng.Float64() < retryRatio {
		eventID = prev
	}
	lastEventID.Store(eventID)
	body["eventId"] = eventID

	data, _ := json.Marshal(body)
	endpoint := "POST /events " + kind
	start := time.Now()
	resp, err := httpClient.Post(baseURL+"/events", "application/json", bytes.NewReader(data))
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{endpoint, resp.StatusCode, lat, resp.StatusCode != http.StatusOK}
}

func doGetStreak(rng *rand.Rand) result {
	url := fmt.Sprintf("%s/streak?p=%s", baseURL, profileName(rng))
	start := time.Now()
	resp, err := httpClient.Get(url)
	lat := time.Since(start)
	if err != nil {
		return result{"GET /streak", 0, lat, true}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /streak", resp.StatusCode, lat, resp.StatusCode != http.StatusOK}
}

func doGetProfiles() result {
	start := time.Now()
	resp, err := httpClient.Get(baseURL + "/profiles")
	lat := time.Since(start)
	if err != nil {
		return result{"GET /profiles", 0, lat, true}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /profiles", resp.StatusCode, lat, resp.StatusCode != http.StatusOK}
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
