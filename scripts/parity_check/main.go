// Command parity_check replays read-only requests against the legacy
// deployment and this service and reports where the JSON payloads diverge.
// Envelopes are unwrapped and issue arrays compared by id, so ordering and the
// response wrapper do not count as differences.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type targetFile struct {
	Targets []target `json:"targets"`
}

var defaultTargets = []target{
	{Method: http.MethodGet, Path: "/api/issues", Critical: true},
	{Method: http.MethodGet, Path: "/api/analytics", Critical: false},
}

type result struct {
	Target        target
	LegacyStatus  int
	GoStatus      int
	StatusMatch   bool
	BodyMatch     bool
	Err           error
	GoLatency     time.Duration
	LegacyLatency time.Duration
}

func main() {
	var (
		goBase      string
		legacyBase  string
		targetsPath string
		cookie      string
		timeout     time.Duration
	)
	flag.StringVar(&goBase, "go-base", "http://localhost:5000", "civic-report-api base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:5001", "legacy deployment base URL")
	flag.StringVar(&targetsPath, "targets", "", "optional JSON file with a targets array")
	flag.StringVar(&cookie, "cookie", "", "Cookie header sent to both sides for session routes")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	logr, _ := zap.NewDevelopment()
	defer logr.Sync() //nolint:errcheck

	targets := defaultTargets
	if targetsPath != "" {
		loaded, err := loadTargets(targetsPath)
		if err != nil {
			logr.Fatal("failed to load targets", zap.String("path", targetsPath), zap.Error(err))
		}
		targets = loaded
	}

	client := &http.Client{Timeout: timeout}
	breaking, optional := 0, 0
	for _, t := range targets {
		res := check(client, goBase, legacyBase, cookie, t)
		fields := []zap.Field{
			zap.String("method", t.Method),
			zap.String("path", t.Path),
			zap.Int("go_status", res.GoStatus),
			zap.Int("legacy_status", res.LegacyStatus),
			zap.Duration("go_latency", res.GoLatency),
			zap.Duration("legacy_latency", res.LegacyLatency),
		}
		switch {
		case res.Err != nil:
			logr.Error("request failed", append(fields, zap.Error(res.Err))...)
			if t.Critical {
				breaking++
			}
		case !res.StatusMatch || !res.BodyMatch:
			logr.Warn("payload differs", append(fields, zap.Bool("status_match", res.StatusMatch), zap.Bool("body_match", res.BodyMatch))...)
			if t.Critical {
				breaking++
			} else {
				optional++
			}
		default:
			logr.Info("match", fields...)
		}
	}

	fmt.Printf("breaking diffs: %d, optional diffs: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return file.Targets, nil
}

func check(client *http.Client, goBase, legacyBase, cookie string, t target) result {
	res := result{Target: t}

	goStatus, goBody, goLatency, err := fetch(client, goBase, cookie, t)
	if err != nil {
		res.Err = fmt.Errorf("go request: %w", err)
		return res
	}
	legacyStatus, legacyBody, legacyLatency, err := fetch(client, legacyBase, cookie, t)
	if err != nil {
		res.Err = fmt.Errorf("legacy request: %w", err)
		return res
	}

	res.GoStatus, res.LegacyStatus = goStatus, legacyStatus
	res.GoLatency, res.LegacyLatency = goLatency, legacyLatency
	res.StatusMatch = goStatus == legacyStatus
	res.BodyMatch = equivalent(goBody, legacyBody)
	return res
}

func fetch(client *http.Client, base, cookie string, t target) (int, []byte, time.Duration, error) {
	method := strings.ToUpper(strings.TrimSpace(t.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := t.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return 0, nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, 0, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, time.Since(start), nil
}

// equivalent compares the go payload, with its envelope removed, against the
// legacy payload.
func equivalent(goBody, legacyBody []byte) bool {
	if bytes.Equal(bytes.TrimSpace(goBody), bytes.TrimSpace(legacyBody)) {
		return true
	}

	var g, l interface{}
	if err := json.Unmarshal(goBody, &g); err != nil {
		return false
	}
	if err := json.Unmarshal(legacyBody, &l); err != nil {
		return false
	}
	if envelope, ok := g.(map[string]interface{}); ok {
		if data, found := envelope["data"]; found {
			g = data
		}
	}
	return reflect.DeepEqual(normalize(g), normalize(l))
}

func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, inner := range val {
			val[k] = normalize(inner)
		}
		return val
	case []interface{}:
		for i, inner := range val {
			val[i] = normalize(inner)
		}
		sortByID(val)
		return val
	case float64:
		if val == float64(int64(val)) {
			return int64(val)
		}
		return val
	default:
		return v
	}
}

// sortByID orders arrays of records by their id field; other arrays keep order.
func sortByID(items []interface{}) {
	for _, item := range items {
		record, ok := item.(map[string]interface{})
		if !ok {
			return
		}
		if _, ok := record["id"].(int64); !ok {
			return
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].(map[string]interface{})["id"].(int64) < items[j].(map[string]interface{})["id"].(int64)
	})
}
